package hal

import (
	"fmt"
	"time"
)

// Address is a code address on the 32-bit target.
type Address uint32

func (a Address) String() string { return fmt.Sprintf("%#08x", uint32(a)) }

// IRQ identifies an interrupt line.
type IRQ uint8

const (
	// IRQTick is the periodic tick timer (TA0_N on the reference board).
	IRQTick IRQ = iota
	// IRQPort is the external-trigger port interrupt (PORT1).
	IRQPort

	NumIRQs
)

func (irq IRQ) String() string {
	switch irq {
	case IRQTick:
		return "tick"
	case IRQPort:
		return "port"
	default:
		return fmt.Sprintf("irq%d", uint8(irq))
	}
}

// Trigger identifies an external event source wired to an interrupt-capable pin.
type Trigger uint8

const (
	// TriggerSwitch1 is the active-low switch on P1.1.
	TriggerSwitch1 Trigger = iota
	// TriggerSwitch4 is the active-low switch on P1.4.
	TriggerSwitch4

	NumTriggers

	// NoTrigger marks an event that did not come from a trigger.
	NoTrigger = NumTriggers
)

// Valid reports whether t is one of the supported trigger sources.
func (t Trigger) Valid() bool { return t < NumTriggers }

func (t Trigger) String() string {
	switch t {
	case TriggerSwitch1:
		return "switch1"
	case TriggerSwitch4:
		return "switch4"
	case NoTrigger:
		return "none"
	default:
		return fmt.Sprintf("trigger%d", uint8(t))
	}
}

// ParseTrigger maps a trigger name back to its identifier.
func ParseTrigger(s string) (Trigger, bool) {
	for t := Trigger(0); t < NumTriggers; t++ {
		if t.String() == s {
			return t, true
		}
	}
	return 0, false
}

// Machine is the processor, interrupt controller and tick timer as seen by the kernel.
//
// Handler-facing methods (flags, Frame) must only be called from a vector.
// Wait and Halt are called by running code and are interruption points.
type Machine interface {
	// Link makes fn executable and returns its entry address.
	Link(fn func()) Address
	// Vector installs the handler for irq.
	Vector(irq IRQ, handler func())

	ArmTick(period time.Duration) error
	TickFlag() bool
	ClearTickFlag()

	ArmTrigger(t Trigger) error
	TriggerFlag(t Trigger) bool
	ClearTriggerFlag(t Trigger)

	EnableIRQ(irq IRQ, priority uint8)
	SetPending(irq IRQ)
	EnableInterrupts()

	// Frame locates the exception frame of the interrupted context.
	Frame() (Frame, error)

	// Wait sleeps until an interrupt has been serviced.
	Wait()
	// Halt parks the caller until an interrupt redirects execution elsewhere.
	Halt()
	// Jump transfers control to addr. It does not return on hardware.
	Jump(addr Address) error
}
