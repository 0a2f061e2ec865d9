// Package kernel is a single-core, single-stack real-time kernel.
//
// Tasks live in a fixed table. A periodic tick advances their timing state and
// the dispatcher picks the ready task with the least remaining deadline. When the
// pick changes, the interrupted context's stacked return address is overwritten
// with the new task's entry point: a switched-in task always starts from the top
// of its routine, and a switched-out task loses whatever progress it had made.
//
// The table and the scheduler cursor are only touched from the tick and port
// interrupt handlers (which share one priority and so never nest) and from
// Handle.Stop. There are no locks.
package kernel

import (
	"sync"
	"sync/atomic"
	"time"

	"fate/hal"
)

const (
	// NumSlots is the size of the task table. Slot 0 is the idle task.
	NumSlots = 8

	// Priority is the interrupt priority shared by the tick and the port.
	Priority uint8 = 2

	// DefaultTickPeriod is the scheduling tick.
	DefaultTickPeriod = 10 * time.Millisecond

	idleSlot = 0
)

// Routine is a task body. It must finish by calling h.Stop and never return.
// It may be restarted from the top at any point, so it keeps no state of its
// own across dispatches.
type Routine func(h Handle)

// Kernel is the task table, the event bindings and the dispatcher.
type Kernel struct {
	m    hal.Machine
	opts options

	tasks    [NumSlots]descriptor
	bindings [hal.NumTriggers]int
	current  int
	ticks    uint64

	started   bool
	hasEvents bool

	faulted   atomic.Bool
	faultOnce sync.Once
	faultErr  error
}

// New initialises the task table on m. Slot 0 holds the idle task.
func New(m hal.Machine, opts ...Option) *Kernel {
	k := &Kernel{m: m, opts: defaultOptions()}
	for _, opt := range opts {
		opt(&k.opts)
	}
	k.tasks[idleSlot] = descriptor{
		name:   "idle",
		entry:  m.Link(k.idle),
		period:  1,
		state:   Running,
		trigger: hal.NoTrigger,
	}
	k.current = idleSlot
	return k
}

// Ticks returns the number of tick passes processed so far.
func (k *Kernel) Ticks() uint64 { return k.ticks }

// Current returns the slot the dispatcher last selected.
func (k *Kernel) Current() int { return k.current }

// Tasks returns a snapshot of every registered slot, idle first.
//
// Like every other read of the table it must not race the interrupt handlers:
// call it from a routine, an observer, or after Start has returned.
func (k *Kernel) Tasks() []TaskInfo {
	out := make([]TaskInfo, 0, NumSlots)
	for i := range k.tasks {
		if k.tasks[i].state != Undefined {
			out = append(out, k.tasks[i].info(i))
		}
	}
	return out
}

// Task returns a snapshot of one slot.
func (k *Kernel) Task(slot int) (TaskInfo, bool) {
	if slot < 0 || slot >= NumSlots || k.tasks[slot].state == Undefined {
		return TaskInfo{}, false
	}
	return k.tasks[slot].info(slot), true
}

// now is the index of the tick pass in progress, or the last one completed.
func (k *Kernel) now() uint64 {
	if k.ticks == 0 {
		return 0
	}
	return k.ticks - 1
}
