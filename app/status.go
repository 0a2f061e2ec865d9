package app

import (
	"sync/atomic"

	"fate/kernel"
)

// status is what the panel shows. It is written from interrupt context, so it
// uses atomics rather than a lock.
type status struct {
	demo    string
	tick    atomic.Uint64
	current atomic.Int32
	faulted atomic.Bool
	tasks   [kernel.NumSlots]taskStatus
}

type taskStatus struct {
	name        string
	activations atomic.Uint32
	dispatches  atomic.Uint32
	completions atomic.Uint32
	misses      atomic.Uint32
}

func (s *System) observe(ev kernel.Event) {
	st := s.st
	st.tick.Store(ev.Tick)
	var ts *taskStatus
	if ev.Slot >= 0 && ev.Slot < kernel.NumSlots {
		ts = &st.tasks[ev.Slot]
	}
	if ts == nil {
		return
	}

	switch ev.Kind {
	case kernel.EventActivated:
		ts.activations.Add(1)
		s.log.Debug("task activated", "tick", ev.Tick, "slot", ev.Slot, "task", ev.Name)
	case kernel.EventTriggered:
		ts.activations.Add(1)
		s.log.Debug("task triggered", "tick", ev.Tick, "slot", ev.Slot, "task", ev.Name, "trigger", ev.Trigger.String())
	case kernel.EventSwitched:
		ts.dispatches.Add(1)
		st.current.Store(int32(ev.Slot))
		s.log.Debug("context switch", "tick", ev.Tick, "from", ev.From, "to", ev.Slot, "task", ev.Name)
	case kernel.EventStopped:
		ts.completions.Add(1)
		s.log.Debug("task stopped", "tick", ev.Tick, "slot", ev.Slot, "task", ev.Name)
	case kernel.EventIdle:
		st.current.Store(0)
		s.log.Debug("idle", "tick", ev.Tick, "from", ev.From)
	case kernel.EventDeadlineMissed:
		ts.misses.Add(1)
		s.log.Warn("deadline missed", "tick", ev.Tick, "slot", ev.Slot, "task", ev.Name)
	}
}
