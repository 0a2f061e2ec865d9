package taskset

import (
	"fmt"
	"time"

	"fate/hal"
	"fate/kernel"
)

// Install registers the set's tasks on k in file order, so task i lands in
// slot i+1. The set must be validated and normalized.
func Install(k *kernel.Kernel, hw hal.HAL, set *Set) error {
	timer := 0
	for _, t := range set.Tasks {
		var r kernel.Routine
		switch t.Progress {
		case ProgressTimer:
			r = timerWork(hw.Timer(timer), t.Work)
			timer++
		default:
			r = localWork(hw.Counter(), workCycles(set, t.Work))
		}

		var err error
		if t.Event() {
			trig, _ := hal.ParseTrigger(t.Trigger)
			_, err = k.AddEvent(t.Name, r, trig, t.Deadline)
		} else {
			_, err = k.AddPeriodic(t.Name, r, t.Period, t.StartOffset, t.Deadline)
		}
		if err != nil {
			return fmt.Errorf("taskset: install %q: %w", t.Name, err)
		}
	}
	return nil
}

// PauseTimers is a switch hook that freezes every task timer, so a timer
// only advances while its own task runs.
func PauseTimers(hw hal.HAL) func(from, to int) {
	return func(from, to int) {
		for i := 0; i < hal.NumTimers; i++ {
			if tm := hw.Timer(i); tm != nil {
				tm.Pause()
			}
		}
	}
}

func workCycles(set *Set, work time.Duration) uint64 {
	n := uint64(work) * uint64(set.CyclesPerTick) / uint64(set.Tick)
	if n == 0 {
		n = 1
	}
	return n
}

// localWork busy-waits for n cycles counted from its own entry.
func localWork(c hal.Counter, n uint64) kernel.Routine {
	return func(h kernel.Handle) {
		start := c.Cycles()
		for c.Cycles()-start < n {
		}
		h.Stop()
	}
}

// timerWork runs a one-shot timer for d. The timer keeps its count across a
// restart, so only the time the task actually ran is charged.
func timerWork(tm hal.Timer, d time.Duration) kernel.Routine {
	return func(h kernel.Handle) {
		if !tm.Configured() {
			tm.Configure(d)
		}
		tm.Run()
		for !tm.Overflowed() {
		}
		tm.Disable()
		h.Stop()
	}
}
