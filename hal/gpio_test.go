package hal

import "testing"

func TestVirtualPinFallingEdge(t *testing.T) {
	pin := newVirtualPin("SW", GPIOCapInput|GPIOCapPullUp|GPIOCapInterrupt)
	if err := pin.Configure(GPIOModeInput, GPIOPullUp); err != nil {
		t.Fatalf("Configure: %v", err)
	}
	level, err := pin.Read()
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if !level {
		t.Fatal("expected pulled-up input to idle high")
	}

	fired := 0
	if err := pin.SetInterrupt(GPIOEdgeFalling, func() { fired++ }); err != nil {
		t.Fatalf("SetInterrupt: %v", err)
	}
	pin.drive(false)
	pin.drive(true)
	pin.drive(true)
	if fired != 1 {
		t.Fatalf("fired=%d want 1", fired)
	}
}

func TestVirtualPinRejectsUnsupported(t *testing.T) {
	pin := newVirtualPin("OUT", GPIOCapOutput)
	if err := pin.Configure(GPIOModeInput, GPIOPullNone); err == nil {
		t.Fatal("expected input to be rejected")
	}
	if err := pin.Configure(GPIOModeOutput, GPIOPullUp); err == nil {
		t.Fatal("expected pull-up to be rejected")
	}
	if err := pin.Configure(GPIOModeOutput, GPIOPullNone); err != nil {
		t.Fatalf("Configure: %v", err)
	}
	if err := pin.SetInterrupt(GPIOEdgeRising, func() {}); err == nil {
		t.Fatal("expected interrupt to be rejected")
	}
	if err := pin.Write(true); err != nil {
		t.Fatalf("Write: %v", err)
	}
}

func TestPinByName(t *testing.T) {
	led := &countingLED{}
	rgb := &stubRGB{}
	g := newVirtualGPIO(append(
		ledPins(func() bool { return led.on }, led, rgb.Get, rgb),
		newVirtualPin("P1.1", GPIOCapInput),
	))
	if p := PinByName(g, "P1.1"); p == nil || p.Name() != "P1.1" {
		t.Fatalf("PinByName(P1.1)=%v", p)
	}
	if p := PinByName(g, "P9.9"); p != nil {
		t.Fatalf("PinByName(P9.9)=%v want nil", p)
	}

	p := PinByName(g, PinLED)
	if err := p.Write(true); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if led.high != 1 {
		t.Fatalf("led high=%d want 1", led.high)
	}
	if err := p.Configure(GPIOModeInput, GPIOPullNone); err == nil {
		t.Fatal("expected input to be rejected on an output pin")
	}

	green := PinByName(g, PinRGB[1])
	if err := green.Write(true); err != nil {
		t.Fatalf("Write: %v", err)
	}
	rgb.c |= RGBBlue
	if rgb.c != RGBGreen|RGBBlue {
		t.Fatalf("rgb=%03b", rgb.c)
	}
	if err := green.Write(false); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if rgb.c != RGBBlue {
		t.Fatalf("rgb=%03b want only blue", rgb.c)
	}
	if on, _ := PinByName(g, PinRGB[2]).Read(); !on {
		t.Fatal("blue pin reads low")
	}
}

type countingLED struct {
	high, low int
	on        bool
}

func (l *countingLED) High()   { l.high++; l.on = true }
func (l *countingLED) Low()    { l.low++; l.on = false }
func (l *countingLED) Toggle() { l.on = !l.on }

type stubRGB struct{ c RGBColor }

func (r *stubRGB) Set(c RGBColor) { r.c = c }
func (r *stubRGB) Get() RGBColor  { return r.c }
