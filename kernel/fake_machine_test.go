package kernel

import (
	"time"

	"fate/hal"
)

// fakeMachine lets tests play the interrupt controller by hand.
type fakeMachine struct {
	routines []func()
	vectors  [hal.NumIRQs]func()

	tickPeriod  time.Duration
	tickFlag    bool
	armed       [hal.NumTriggers]bool
	triggerFlag [hal.NumTriggers]bool
	enabled     [hal.NumIRQs]bool
	priority    [hal.NumIRQs]uint8
	pending     [hal.NumIRQs]bool
	unmasked    int

	ret       hal.Address
	redirects []hal.Address
	frameErr  error
	armErr    error

	halts  int
	jumped []hal.Address
}

func (m *fakeMachine) Link(fn func()) hal.Address {
	m.routines = append(m.routines, fn)
	return hal.Address(0x100 + 0x10*(len(m.routines)-1))
}

func (m *fakeMachine) Vector(irq hal.IRQ, handler func()) { m.vectors[irq] = handler }

func (m *fakeMachine) ArmTick(period time.Duration) error {
	m.tickPeriod = period
	return nil
}

func (m *fakeMachine) TickFlag() bool { return m.tickFlag }
func (m *fakeMachine) ClearTickFlag() { m.tickFlag = false }

func (m *fakeMachine) ArmTrigger(t hal.Trigger) error {
	if m.armErr != nil {
		return m.armErr
	}
	m.armed[t] = true
	return nil
}

func (m *fakeMachine) TriggerFlag(t hal.Trigger) bool { return m.triggerFlag[t] }
func (m *fakeMachine) ClearTriggerFlag(t hal.Trigger) { m.triggerFlag[t] = false }

func (m *fakeMachine) EnableIRQ(irq hal.IRQ, priority uint8) {
	m.enabled[irq] = true
	m.priority[irq] = priority
}

func (m *fakeMachine) SetPending(irq hal.IRQ) { m.pending[irq] = true }
func (m *fakeMachine) EnableInterrupts()      { m.unmasked++ }

func (m *fakeMachine) Frame() (hal.Frame, error) {
	if m.frameErr != nil {
		return nil, m.frameErr
	}
	return fakeFrame{m: m}, nil
}

func (m *fakeMachine) Wait() {}
func (m *fakeMachine) Halt() { m.halts++ }

func (m *fakeMachine) Jump(addr hal.Address) error {
	m.jumped = append(m.jumped, addr)
	return nil
}

// tick delivers one timer overflow.
func (m *fakeMachine) tick() {
	m.tickFlag = true
	m.vectors[hal.IRQTick]()
}

func (m *fakeMachine) ticks(n int) {
	for i := 0; i < n; i++ {
		m.tick()
	}
}

// runPending delivers a software-pended tick, if any.
func (m *fakeMachine) runPending() {
	if m.pending[hal.IRQTick] {
		m.pending[hal.IRQTick] = false
		m.vectors[hal.IRQTick]()
	}
}

func (m *fakeMachine) fire(t hal.Trigger) {
	m.triggerFlag[t] = true
	m.vectors[hal.IRQPort]()
}

type fakeFrame struct{ m *fakeMachine }

func (f fakeFrame) ReturnAddress() hal.Address { return f.m.ret }

func (f fakeFrame) SetReturnAddress(addr hal.Address) {
	f.m.ret = addr
	f.m.redirects = append(f.m.redirects, addr)
}

func nop(Handle) {}
