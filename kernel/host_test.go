//go:build !tinygo

package kernel_test

import (
	"context"
	"errors"
	"io"
	"testing"

	"fate/hal"
	"fate/kernel"
)

type switchRec struct {
	from, to int
	tick     uint64
}

func newHost(ticks uint64) *hal.Host {
	return hal.NewHost(context.Background(), hal.HostConfig{
		Machine: hal.MachineConfig{CyclesPerTick: 10, Ticks: ticks},
		Output:  io.Discard,
	})
}

func runUntilPowerOff(t *testing.T, k *kernel.Kernel) {
	t.Helper()
	if err := k.Start(); !errors.Is(err, hal.ErrPoweredOff) {
		t.Fatalf("Start: %v want power-off", err)
	}
}

// busy toggles the LED forever; it never reaches Stop within the test.
func busy(hw hal.HAL) kernel.Routine {
	return func(kernel.Handle) {
		for {
			hw.LED().Toggle()
		}
	}
}

func TestThreeTaskScenario(t *testing.T) {
	h := newHost(400)
	var switches []switchRec
	k := kernel.New(h.Machine(), kernel.WithObserver(func(ev kernel.Event) {
		if ev.Kind == kernel.EventSwitched {
			switches = append(switches, switchRec{from: ev.From, to: ev.Slot, tick: ev.Tick})
		}
	}))

	for _, p := range []struct {
		name                     string
		period, offset, deadline uint32
	}{
		{"task1", 1500, 300, 100},
		{"task2", 1500, 0, 1500},
		{"task3", 1500, 100, 700},
	} {
		if _, err := k.AddPeriodic(p.name, busy(h), p.period, p.offset, p.deadline); err != nil {
			t.Fatalf("AddPeriodic(%s): %v", p.name, err)
		}
	}
	runUntilPowerOff(t, k)

	want := []switchRec{
		{from: 0, to: 2, tick: 0},
		{from: 2, to: 3, tick: 100},
		{from: 3, to: 1, tick: 300},
	}
	if len(switches) != len(want) {
		t.Fatalf("switches=%+v want %+v", switches, want)
	}
	for i := range want {
		if switches[i] != want[i] {
			t.Fatalf("switch %d=%+v want %+v", i, switches[i], want[i])
		}
	}
	if k.Ticks() != 400 {
		t.Fatalf("Ticks()=%d want 400", k.Ticks())
	}
}

func TestPreemptedTaskRestartsFromEntry(t *testing.T) {
	h := newHost(40)
	k := kernel.New(h.Machine())

	var longEntries, longDone, shortDone, maxProgress int
	if _, err := k.AddPeriodic("long", func(th kernel.Handle) {
		longEntries++
		progress := 0
		for progress < 100 {
			h.LED().Toggle()
			progress++
			if progress > maxProgress {
				maxProgress = progress
			}
		}
		longDone++
		th.Stop()
	}, 50, 0, 40); err != nil {
		t.Fatal(err)
	}
	if _, err := k.AddPeriodic("short", func(th kernel.Handle) {
		for i := 0; i < 20; i++ {
			h.RGB().Set(hal.RGBColor(i % 8))
		}
		shortDone++
		th.Stop()
	}, 50, 5, 10); err != nil {
		t.Fatal(err)
	}
	runUntilPowerOff(t, k)

	if longEntries != 2 {
		t.Fatalf("long task entered %d times want 2", longEntries)
	}
	if longDone != 1 || shortDone != 1 {
		t.Fatalf("completions long=%d short=%d want 1 each", longDone, shortDone)
	}
	if maxProgress != 100 {
		t.Fatalf("max progress=%d", maxProgress)
	}
}

func TestStopDispatchesBeforeNextTick(t *testing.T) {
	h := newHost(5)
	var switches []switchRec
	k := kernel.New(h.Machine(), kernel.WithObserver(func(ev kernel.Event) {
		if ev.Kind == kernel.EventSwitched {
			switches = append(switches, switchRec{from: ev.From, to: ev.Slot, tick: ev.Tick})
		}
	}))

	if _, err := k.AddPeriodic("quick", func(th kernel.Handle) { th.Stop() }, 100, 0, 50); err != nil {
		t.Fatal(err)
	}
	var seenAt []uint64
	if _, err := k.AddPeriodic("next", func(kernel.Handle) {
		seenAt = append(seenAt, h.Ticks())
		for {
			h.LED().Toggle()
		}
	}, 100, 0, 60); err != nil {
		t.Fatal(err)
	}
	runUntilPowerOff(t, k)

	if len(switches) < 2 || switches[0] != (switchRec{0, 1, 0}) || switches[1] != (switchRec{1, 2, 0}) {
		t.Fatalf("switches=%+v", switches)
	}
	if len(seenAt) != 1 || seenAt[0] != 1 {
		t.Fatalf("second task entered at ticks %v want [1]", seenAt)
	}
}

func TestEventTaskDispatchedOnNextTick(t *testing.T) {
	h := newHost(20)
	var events []kernel.Event
	k := kernel.New(h.Machine(), kernel.WithObserver(func(ev kernel.Event) {
		if ev.Kind != kernel.EventDeadlineMissed {
			events = append(events, ev)
		}
	}))

	done := 0
	if _, err := k.AddEvent("rgb", func(th kernel.Handle) {
		h.RGB().Set(h.RGB().Get() ^ hal.RGBBlue)
		done++
		th.Stop()
	}, hal.TriggerSwitch4, 20); err != nil {
		t.Fatal(err)
	}
	h.At(5, func() { _ = h.Press(hal.TriggerSwitch4) })
	runUntilPowerOff(t, k)

	if done != 1 {
		t.Fatalf("event task completed %d times want 1", done)
	}
	if len(events) < 3 {
		t.Fatalf("events=%+v", events)
	}
	if ev := events[0]; ev.Kind != kernel.EventTriggered || ev.Tick != 5 {
		t.Fatalf("first event=%+v want triggered at tick 5", ev)
	}
	if ev := events[1]; ev.Kind != kernel.EventSwitched || ev.Tick != 6 || ev.Slot != 1 {
		t.Fatalf("second event=%+v want switch to slot 1 at tick 6", ev)
	}
	if ev := events[2]; ev.Kind != kernel.EventStopped {
		t.Fatalf("third event=%+v want stopped", ev)
	}
	if _, rgb := h.LEDState(); rgb != hal.RGBBlue {
		t.Fatalf("rgb=%03b want blue", rgb)
	}
}

func TestFaultOnMissingFrameMarker(t *testing.T) {
	var faults []kernel.FaultInfo
	kernel.SetFaultHandler(func(info kernel.FaultInfo) { faults = append(faults, info) })
	t.Cleanup(func() { kernel.SetFaultHandler(nil) })

	h := hal.NewHost(context.Background(), hal.HostConfig{
		Machine: hal.MachineConfig{
			CyclesPerTick: 10,
			Ticks:         10,
			// Too short a scan to get past the handler's locals.
			Layout: hal.FrameLayout{Marker: hal.LayoutGCC.Marker, ReturnOffset: 0x1C, Limit: 8},
		},
		Output: io.Discard,
	})
	k := kernel.New(h.Machine())
	if _, err := k.AddPeriodic("p", busy(h), 5, 0, 5); err != nil {
		t.Fatal(err)
	}
	err := k.Start()
	if !errors.Is(err, hal.ErrNoFrameMarker) || !errors.Is(err, hal.ErrLockup) {
		t.Fatalf("Start: %v want frame fault and lockup", err)
	}
	if errors.Is(err, hal.ErrPoweredOff) {
		t.Fatalf("Start: %v reported as a clean power-off", err)
	}
	if h.Ticks() >= 10 {
		t.Fatalf("ticks=%d: machine ran on after the fault", h.Ticks())
	}

	if len(faults) != 1 || !errors.Is(faults[0].Err, hal.ErrNoFrameMarker) {
		t.Fatalf("faults=%+v", faults)
	}
	if !k.Faulted() {
		t.Fatal("kernel not faulted")
	}
}
