//go:build !tinygo

package hal

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"
)

func newTestHost(t *testing.T, ticks uint64) *Host {
	t.Helper()
	return NewHost(context.Background(), HostConfig{
		Machine: MachineConfig{CyclesPerTick: 10, Ticks: ticks},
		Output:  io.Discard,
	})
}

func spin(h *Host) func() {
	return func() {
		for {
			h.LED().Toggle()
		}
	}
}

func armTick(t *testing.T, m Machine, prio uint8, handler func()) {
	t.Helper()
	m.Vector(IRQTick, handler)
	m.EnableIRQ(IRQTick, prio)
	if err := m.ArmTick(10 * time.Millisecond); err != nil {
		t.Fatalf("ArmTick: %v", err)
	}
}

func TestHostMachineRedirectRestartsRoutine(t *testing.T) {
	h := newTestHost(t, 5)
	m := h.Machine()

	entries := 0
	a := m.Link(spin(h))
	b := m.Link(func() {
		entries++
		spin(h)()
	})

	armTick(t, m, 1, func() {
		if !m.TickFlag() {
			return
		}
		m.ClearTickFlag()
		f, err := m.Frame()
		if err != nil {
			t.Errorf("Frame: %v", err)
			return
		}
		f.SetReturnAddress(b)
	})
	m.EnableInterrupts()

	if err := m.Jump(a); !errors.Is(err, ErrPoweredOff) {
		t.Fatalf("Jump: %v want ErrPoweredOff", err)
	}
	if entries != 5 {
		t.Fatalf("entries=%d want 5", entries)
	}
	if h.Ticks() != 5 {
		t.Fatalf("ticks=%d want 5", h.Ticks())
	}
}

func TestHostMachineResumesWithoutRedirect(t *testing.T) {
	h := newTestHost(t, 3)
	m := h.Machine()

	entries := 0
	var a Address
	a = m.Link(func() {
		entries++
		spin(h)()
	})
	seen := []Address{}
	armTick(t, m, 1, func() {
		m.ClearTickFlag()
		f, err := m.Frame()
		if err != nil {
			t.Errorf("Frame: %v", err)
			return
		}
		seen = append(seen, f.ReturnAddress())
	})
	m.EnableInterrupts()

	if err := m.Jump(a); !errors.Is(err, ErrPoweredOff) {
		t.Fatalf("Jump: %v", err)
	}
	if entries != 1 {
		t.Fatalf("entries=%d want 1", entries)
	}
	if len(seen) != 3 {
		t.Fatalf("handler ran %d times want 3", len(seen))
	}
	for _, ret := range seen {
		if ret != a+bodyOffset {
			t.Fatalf("stacked return=%s want %s", ret, a+bodyOffset)
		}
	}
}

func TestHostMachineMaskedUntilEnabled(t *testing.T) {
	h := newTestHost(t, 4)
	m := h.Machine()

	calls := 0
	a := m.Link(spin(h))
	armTick(t, m, 1, func() {
		calls++
		m.ClearTickFlag()
	})

	if err := m.Jump(a); !errors.Is(err, ErrPoweredOff) {
		t.Fatalf("Jump: %v", err)
	}
	if calls != 0 {
		t.Fatalf("handler ran %d times with interrupts masked", calls)
	}
}

func TestHostMachinePriority(t *testing.T) {
	for _, tc := range []struct {
		name     string
		tickPrio uint8
		portPrio uint8
		want     []IRQ
	}{
		{"port-first", 1, 0, []IRQ{IRQPort, IRQTick}},
		{"equal", 0, 0, []IRQ{IRQTick, IRQPort}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			h := newTestHost(t, 3)
			m := h.Machine()

			var order []IRQ
			armTick(t, m, tc.tickPrio, func() {
				m.ClearTickFlag()
				if h.Ticks() == 2 {
					order = append(order, IRQTick)
				}
			})
			m.Vector(IRQPort, func() {
				if m.TriggerFlag(TriggerSwitch1) {
					m.ClearTriggerFlag(TriggerSwitch1)
					order = append(order, IRQPort)
				}
			})
			m.EnableIRQ(IRQPort, tc.portPrio)
			if err := m.ArmTrigger(TriggerSwitch1); err != nil {
				t.Fatalf("ArmTrigger: %v", err)
			}
			h.At(1, func() { _ = h.Press(TriggerSwitch1) })
			m.EnableInterrupts()

			if err := m.Jump(m.Link(spin(h))); !errors.Is(err, ErrPoweredOff) {
				t.Fatalf("Jump: %v", err)
			}
			if len(order) != len(tc.want) {
				t.Fatalf("order=%v want %v", order, tc.want)
			}
			for i := range order {
				if order[i] != tc.want[i] {
					t.Fatalf("order=%v want %v", order, tc.want)
				}
			}
		})
	}
}

func TestHostMachineUnarmedTriggerIgnored(t *testing.T) {
	h := newTestHost(t, 3)
	m := h.Machine()

	calls := 0
	m.Vector(IRQPort, func() { calls++ })
	m.EnableIRQ(IRQPort, 0)
	armTick(t, m, 1, func() { m.ClearTickFlag() })
	h.At(0, func() { _ = h.Press(TriggerSwitch4) })
	m.EnableInterrupts()

	if err := m.Jump(m.Link(spin(h))); !errors.Is(err, ErrPoweredOff) {
		t.Fatalf("Jump: %v", err)
	}
	if calls != 0 {
		t.Fatalf("port handler ran %d times for an unarmed switch", calls)
	}
}

func TestHostMachineSoftwarePendDoesNotAdvanceTime(t *testing.T) {
	h := newTestHost(t, 2)
	m := h.Machine()

	var flags []bool
	armTick(t, m, 1, func() {
		flags = append(flags, m.TickFlag())
		m.ClearTickFlag()
	})
	m.EnableInterrupts()

	pended := false
	a := m.Link(func() {
		if !pended {
			pended = true
			m.SetPending(IRQTick)
		}
		spin(h)()
	})
	if err := m.Jump(a); !errors.Is(err, ErrPoweredOff) {
		t.Fatalf("Jump: %v", err)
	}
	if len(flags) != 3 || flags[0] {
		t.Fatalf("tick flags=%v want [false true true]", flags)
	}
}

func TestHostMachineWait(t *testing.T) {
	h := newTestHost(t, 3)
	m := h.Machine()

	armTick(t, m, 1, func() { m.ClearTickFlag() })
	m.EnableInterrupts()

	wakes := 0
	a := m.Link(func() {
		for {
			m.Wait()
			wakes++
		}
	})
	if err := m.Jump(a); !errors.Is(err, ErrPoweredOff) {
		t.Fatalf("Jump: %v", err)
	}
	if wakes != 3 {
		t.Fatalf("wakes=%d want 3", wakes)
	}
}

func TestHostMachineHaltInHandlerLocksUp(t *testing.T) {
	h := newTestHost(t, 4)
	m := h.Machine()

	calls := 0
	armTick(t, m, 1, func() {
		calls++
		m.Halt()
	})
	m.EnableInterrupts()

	err := m.Jump(m.Link(spin(h)))
	if !errors.Is(err, ErrLockup) || errors.Is(err, ErrPoweredOff) {
		t.Fatalf("Jump: %v want lockup", err)
	}
	if calls != 1 {
		t.Fatalf("handler entered %d times want 1", calls)
	}
	if h.Ticks() >= 4 {
		t.Fatalf("ticks=%d: machine kept running after lockup", h.Ticks())
	}
}

func TestHostMachineJumpErrors(t *testing.T) {
	h := newTestHost(t, 1)
	m := h.Machine()

	if err := m.Jump(0x1234); !errors.Is(err, ErrUnlinkedAddress) {
		t.Fatalf("Jump unlinked: %v", err)
	}
	if err := m.Jump(m.Link(func() {})); !errors.Is(err, ErrRoutineReturned) {
		t.Fatalf("Jump returning routine: %v", err)
	}
}

func TestHostMachineContextPowersOff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	h := NewHost(ctx, HostConfig{Output: io.Discard})
	m := h.Machine()

	err := m.Jump(m.Link(spin(h)))
	if !errors.Is(err, ErrPoweredOff) || !errors.Is(err, context.Canceled) {
		t.Fatalf("Jump: %v", err)
	}
}

func TestHostTimerCountsOnlyWhileRunning(t *testing.T) {
	h := newTestHost(t, 0)
	tm := h.Timer(0)
	if tm.Configured() {
		t.Fatal("timer configured at reset")
	}
	tm.Configure(10 * time.Millisecond) // one tick: 10 cycles

	tm.Run()
	for i := 0; i < 4; i++ {
		h.LED().Toggle()
	}
	tm.Pause()
	for i := 0; i < 20; i++ {
		h.LED().Toggle()
	}
	if tm.Overflowed() {
		t.Fatal("paused timer overflowed")
	}
	tm.Run()
	for i := 0; i < 10; i++ {
		h.LED().Toggle()
	}
	if !tm.Overflowed() {
		t.Fatal("timer did not overflow")
	}
	tm.Disable()
	if tm.Configured() || tm.Overflowed() {
		t.Fatal("disabled timer still configured")
	}
	if h.Timer(NumTimers) != nil {
		t.Fatal("expected nil for out-of-range timer")
	}
}

func TestHostGPIOFollowsLEDs(t *testing.T) {
	h := newTestHost(t, 0)
	g := h.GPIO()

	h.LED().Toggle()
	h.RGB().Set(RGBRed | RGBBlue)

	if on, err := PinByName(g, PinLED).Read(); err != nil || !on {
		t.Fatalf("P1.0 read=%v,%v want high", on, err)
	}
	for i, want := range []bool{true, false, true} {
		if on, _ := PinByName(g, PinRGB[i]).Read(); on != want {
			t.Fatalf("%s read=%v want %v", PinRGB[i], on, want)
		}
	}

	if err := PinByName(g, PinRGB[0]).Write(false); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if _, rgb := h.LEDState(); rgb != RGBBlue {
		t.Fatalf("rgb=%03b want blue after clearing P2.0", rgb)
	}
	if PinByName(g, "P1.4") == nil {
		t.Fatal("switch P1.4 not on the GPIO surface")
	}
}
