package kernel

import (
	"fmt"
	"time"

	"fate/hal"
)

// EventKind classifies a kernel observation.
type EventKind uint8

const (
	// EventActivated: a periodic task reached its period boundary.
	EventActivated EventKind = iota + 1
	// EventTriggered: the trigger bound to an event task fired.
	EventTriggered
	// EventSwitched: the dispatcher redirected from From to Slot.
	EventSwitched
	// EventStopped: a task called Stop.
	EventStopped
	// EventIdle: the running task stopped and idle took over without a new pick.
	EventIdle
	// EventDeadlineMissed: a ready task's remaining deadline ran out.
	EventDeadlineMissed
)

func (k EventKind) String() string {
	switch k {
	case EventActivated:
		return "activated"
	case EventTriggered:
		return "triggered"
	case EventSwitched:
		return "switched"
	case EventStopped:
		return "stopped"
	case EventIdle:
		return "idle"
	case EventDeadlineMissed:
		return "deadline-missed"
	default:
		return fmt.Sprintf("event(%d)", uint8(k))
	}
}

// Event is delivered synchronously to the observer, from interrupt context or
// from Stop. Observers must be quick and must not call back into the kernel.
type Event struct {
	Kind EventKind
	Tick uint64
	Slot int
	Name string

	// From is the previous slot for EventSwitched and EventIdle.
	From int
	// Trigger is set for EventTriggered and is hal.NoTrigger otherwise.
	Trigger hal.Trigger
}

// Option configures a Kernel.
type Option func(*options)

type options struct {
	observer               func(Event)
	switchHook             func(from, to int)
	tickPeriod             time.Duration
	referenceEventDeadline bool
}

func defaultOptions() options {
	return options{tickPeriod: DefaultTickPeriod}
}

// WithObserver receives every kernel event.
func WithObserver(fn func(Event)) Option {
	return func(o *options) { o.observer = fn }
}

// WithSwitchHook runs on every redirection, before the frame is rewritten.
func WithSwitchHook(fn func(from, to int)) Option {
	return func(o *options) { o.switchHook = fn }
}

// WithTickPeriod sets the tick period armed by Start.
func WithTickPeriod(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.tickPeriod = d
		}
	}
}

// WithReferenceEventDeadline selects the legacy trigger activation: the bound
// task is marked Suspended whatever its state and its remaining deadline is
// left as it was.
func WithReferenceEventDeadline() Option {
	return func(o *options) { o.referenceEventDeadline = true }
}

func (k *Kernel) emit(ev Event) {
	if ev.Kind != EventTriggered {
		ev.Trigger = hal.NoTrigger
	}
	if k.opts.observer != nil {
		k.opts.observer(ev)
	}
}
