package kernel

import (
	"fmt"
	"math"

	"fate/hal"
)

const (
	// periodicCountReset wraps to zero on the first tick after the start
	// offset, so the first activation lands exactly on that tick.
	periodicCountReset = math.MaxUint32
	// eventCountReset keeps the periodic activation check false forever.
	eventCountReset = 1
)

// AddPeriodic registers a task that becomes ready every period ticks, the first
// time startOffset ticks after Start. deadline is counted from each activation.
func (k *Kernel) AddPeriodic(name string, r Routine, period, startOffset, deadline uint32) (Handle, error) {
	if r == nil {
		return Handle{}, ErrNilRoutine
	}
	if period == 0 {
		return Handle{}, ErrInvalidPeriod
	}
	slot, ok := k.freeSlot()
	if !ok {
		return Handle{}, ErrRegistryFull
	}
	k.tasks[slot] = descriptor{
		name:        name,
		entry:       k.link(slot, r),
		period:      period,
		startOffset: startOffset,
		count:       periodicCountReset,
		deadline:    deadline,
		state:       Stopped,
		trigger:     hal.NoTrigger,
	}
	return Handle{k: k, slot: slot}, nil
}

// AddEvent registers a task that becomes ready when trigger fires.
func (k *Kernel) AddEvent(name string, r Routine, trigger hal.Trigger, deadline uint32) (Handle, error) {
	if r == nil {
		return Handle{}, ErrNilRoutine
	}
	if !trigger.Valid() {
		return Handle{}, fmt.Errorf("%w: %s", ErrInvalidTrigger, trigger)
	}
	slot, ok := k.freeSlot()
	if !ok {
		return Handle{}, ErrRegistryFull
	}
	if err := k.arm(trigger); err != nil {
		return Handle{}, err
	}
	k.tasks[slot] = descriptor{
		name:     name,
		entry:    k.link(slot, r),
		count:    eventCountReset,
		deadline: deadline,
		state:    Stopped,
		event:    true,
		trigger:  trigger,
	}
	k.bind(trigger, slot)
	return Handle{k: k, slot: slot}, nil
}

func (k *Kernel) freeSlot() (int, bool) {
	for i := idleSlot + 1; i < NumSlots; i++ {
		if k.tasks[i].state == Undefined {
			return i, true
		}
	}
	return 0, false
}

// link makes r executable. A routine that returns instead of stopping is a fault.
func (k *Kernel) link(slot int, r Routine) hal.Address {
	h := Handle{k: k, slot: slot}
	return k.m.Link(func() {
		r(h)
		k.fault(slot, fmt.Errorf("kernel: task %q returned without stopping: %w",
			k.tasks[slot].name, hal.ErrRoutineReturned))
	})
}
