package kernel

import (
	"fmt"

	"fate/hal"
)

// Start arms the tick, enables the tick and port interrupts at one shared
// priority, unmasks interrupts and jumps into the idle task.
//
// On hardware it never returns. On a simulated machine it returns once the
// machine powers off, or after a fault with an error wrapping the fault cause.
func (k *Kernel) Start() error {
	if k.started {
		return ErrStarted
	}
	k.started = true

	k.m.Vector(hal.IRQTick, k.tickISR)
	k.m.Vector(hal.IRQPort, k.portISR)
	if err := k.m.ArmTick(k.opts.tickPeriod); err != nil {
		return fmt.Errorf("kernel: arm tick: %w", err)
	}
	k.m.EnableIRQ(hal.IRQTick, Priority)
	if k.hasEvents {
		k.m.EnableIRQ(hal.IRQPort, Priority)
	}
	k.m.EnableInterrupts()

	err := k.m.Jump(k.tasks[idleSlot].entry)
	if k.faulted.Load() {
		if err == nil {
			return fmt.Errorf("kernel: fault: %w", k.faultErr)
		}
		return fmt.Errorf("kernel: fault: %w: %w", k.faultErr, err)
	}
	return err
}

func (k *Kernel) idle() {
	for {
		k.m.Wait()
	}
}
