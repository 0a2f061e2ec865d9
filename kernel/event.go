package kernel

import (
	"fmt"

	"fate/hal"
)

// arm configures the trigger's pin interrupt. The port line itself is enabled
// by Start, at the tick's priority.
func (k *Kernel) arm(t hal.Trigger) error {
	if err := k.m.ArmTrigger(t); err != nil {
		return fmt.Errorf("kernel: arm %s: %w", t, err)
	}
	k.hasEvents = true
	if k.started {
		k.m.EnableIRQ(hal.IRQPort, Priority)
	}
	return nil
}

// bind records slot as the task for t. A second binding replaces the first.
func (k *Kernel) bind(t hal.Trigger, slot int) {
	k.bindings[t] = slot
}

// OnTriggerFired marks the task bound to t ready. It never dispatches: the task
// is picked up by the next tick, or sooner if the running task stops.
// It must only be called from interrupt context.
func (k *Kernel) OnTriggerFired(t hal.Trigger) {
	if !t.Valid() {
		return
	}
	slot := k.bindings[t]
	if slot == idleSlot {
		return
	}
	d := &k.tasks[slot]
	k.emit(Event{Kind: EventTriggered, Tick: k.now(), Slot: slot, Name: d.name, Trigger: t})

	if k.opts.referenceEventDeadline {
		d.state = Suspended
		d.missed = false
		return
	}
	if d.state == Stopped {
		d.state = Suspended
		d.deadlineRemaining = d.deadline
		d.missed = false
	}
}

// portISR services the external trigger interrupt.
func (k *Kernel) portISR() {
	for t := hal.Trigger(0); t < hal.NumTriggers; t++ {
		if !k.m.TriggerFlag(t) {
			continue
		}
		k.m.ClearTriggerFlag(t)
		if k.faulted.Load() {
			continue
		}
		k.OnTriggerFired(t)
	}
}
