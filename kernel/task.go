package kernel

import (
	"fmt"

	"fate/hal"
)

// State is the scheduling state of a task slot.
type State uint8

const (
	Undefined State = iota
	Stopped
	Suspended
	Running
)

func (s State) String() string {
	switch s {
	case Undefined:
		return "undefined"
	case Stopped:
		return "stopped"
	case Suspended:
		return "suspended"
	case Running:
		return "running"
	default:
		return fmt.Sprintf("state(%d)", uint8(s))
	}
}

// ready reports whether the slot competes for the processor.
func (s State) ready() bool { return s == Suspended || s == Running }

type descriptor struct {
	name  string
	entry hal.Address

	period            uint32
	startOffset       uint32
	count             uint32
	deadline          uint32
	deadlineRemaining uint32
	state             State
	// missed is set once the current activation has been reported late.
	missed bool

	event   bool
	trigger hal.Trigger
}

// TaskInfo is a read-only copy of a task slot.
type TaskInfo struct {
	Slot  int
	Name  string
	Entry hal.Address
	State State

	Period            uint32
	StartOffset       uint32
	Deadline          uint32
	DeadlineRemaining uint32

	// Event tasks are activated by Trigger instead of by the tick.
	Event   bool
	Trigger hal.Trigger
}

func (d *descriptor) info(slot int) TaskInfo {
	return TaskInfo{
		Slot:              slot,
		Name:              d.name,
		Entry:             d.entry,
		State:             d.state,
		Period:            d.period,
		StartOffset:       d.startOffset,
		Deadline:          d.deadline,
		DeadlineRemaining: d.deadlineRemaining,
		Event:             d.event,
		Trigger:           d.trigger,
	}
}

// Handle identifies a registered task to its own routine.
type Handle struct {
	k    *Kernel
	slot int
}

// Slot returns the task's table index.
func (h Handle) Slot() int { return h.slot }

// Valid reports whether h came from a successful registration.
func (h Handle) Valid() bool { return h.k != nil && h.slot > idleSlot && h.slot < NumSlots }

// Name returns the name the task was registered with.
func (h Handle) Name() string {
	if !h.Valid() {
		return ""
	}
	return h.k.tasks[h.slot].name
}
