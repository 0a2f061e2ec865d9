package hal

import (
	"fmt"
	"sync"
)

// GPIOMode selects whether a pin is an input or output.
type GPIOMode uint8

const (
	GPIOModeInput GPIOMode = iota
	GPIOModeOutput
)

// GPIOPull selects the pull resistor configuration.
type GPIOPull uint8

const (
	GPIOPullNone GPIOPull = iota
	GPIOPullUp
	GPIOPullDown
)

// GPIOEdge selects which transition raises a pin interrupt.
type GPIOEdge uint8

const (
	GPIOEdgeNone GPIOEdge = iota
	GPIOEdgeFalling
	GPIOEdgeRising
)

// GPIOCaps declares what operations a pin supports.
type GPIOCaps uint8

const (
	GPIOCapInput GPIOCaps = 1 << iota
	GPIOCapOutput
	GPIOCapPullUp
	GPIOCapPullDown
	GPIOCapInterrupt
)

// GPIO provides access to general-purpose IO pins.
type GPIO interface {
	PinCount() int
	Pin(id int) GPIOPin
}

// GPIOPin is a single digital IO pin.
type GPIOPin interface {
	Name() string
	Caps() GPIOCaps
	Configure(mode GPIOMode, pull GPIOPull) error
	Read() (level bool, err error)
	Write(level bool) error
}

// GPIOInterruptPin is a pin that can raise an edge interrupt.
type GPIOInterruptPin interface {
	GPIOPin
	SetInterrupt(edge GPIOEdge, fn func()) error
}

// Board pin names shared by every HAL implementation.
const (
	PinLED = "P1.0"
)

// PinRGB names the RGB LED lines, indexed by colour bit.
var PinRGB = [3]string{"P2.0", "P2.1", "P2.2"}

type virtualGPIO struct {
	pins []GPIOPin
}

func newVirtualGPIO(pins []GPIOPin) GPIO {
	return &virtualGPIO{pins: pins}
}

func (g *virtualGPIO) PinCount() int {
	if g == nil {
		return 0
	}
	return len(g.pins)
}

func (g *virtualGPIO) Pin(id int) GPIOPin {
	if g == nil || id < 0 || id >= len(g.pins) {
		return nil
	}
	return g.pins[id]
}

// PinByName returns the first pin called name.
func PinByName(g GPIO, name string) GPIOPin {
	if g == nil {
		return nil
	}
	for i := 0; i < g.PinCount(); i++ {
		if p := g.Pin(i); p != nil && p.Name() == name {
			return p
		}
	}
	return nil
}

type virtualPin struct {
	mu    sync.Mutex
	name  string
	caps  GPIOCaps
	mode  GPIOMode
	pull  GPIOPull
	level bool

	edge  GPIOEdge
	onIRQ func()
}

func newVirtualPin(name string, caps GPIOCaps) *virtualPin {
	return &virtualPin{
		name: name,
		caps: caps,
		mode: GPIOModeInput,
		pull: GPIOPullNone,
	}
}

func (p *virtualPin) Name() string   { return p.name }
func (p *virtualPin) Caps() GPIOCaps { return p.caps }

func (p *virtualPin) Configure(mode GPIOMode, pull GPIOPull) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch mode {
	case GPIOModeInput:
		if p.caps&GPIOCapInput == 0 {
			return fmt.Errorf("gpio: pin %s: input unsupported", p.name)
		}
	case GPIOModeOutput:
		if p.caps&GPIOCapOutput == 0 {
			return fmt.Errorf("gpio: pin %s: output unsupported", p.name)
		}
	default:
		return fmt.Errorf("gpio: pin %s: invalid mode", p.name)
	}

	switch pull {
	case GPIOPullNone:
	case GPIOPullUp:
		if p.caps&GPIOCapPullUp == 0 {
			return fmt.Errorf("gpio: pin %s: pull-up unsupported", p.name)
		}
		// An open input with a pull-up idles high.
		if mode == GPIOModeInput {
			p.level = true
		}
	case GPIOPullDown:
		if p.caps&GPIOCapPullDown == 0 {
			return fmt.Errorf("gpio: pin %s: pull-down unsupported", p.name)
		}
		if mode == GPIOModeInput {
			p.level = false
		}
	default:
		return fmt.Errorf("gpio: pin %s: invalid pull", p.name)
	}

	p.mode = mode
	p.pull = pull
	return nil
}

func (p *virtualPin) Read() (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.mode != GPIOModeInput && p.mode != GPIOModeOutput {
		return false, fmt.Errorf("gpio: pin %s: not configured", p.name)
	}
	return p.level, nil
}

func (p *virtualPin) Write(level bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.mode != GPIOModeOutput {
		return fmt.Errorf("gpio: pin %s: not in output mode", p.name)
	}
	p.level = level
	return nil
}

func (p *virtualPin) SetInterrupt(edge GPIOEdge, fn func()) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.caps&GPIOCapInterrupt == 0 {
		return fmt.Errorf("gpio: pin %s: interrupt unsupported", p.name)
	}
	if p.mode != GPIOModeInput {
		return fmt.Errorf("gpio: pin %s: interrupt requires input mode", p.name)
	}
	p.edge = edge
	p.onIRQ = fn
	return nil
}

// drive sets an input pin's external level, as a switch or signal source would.
func (p *virtualPin) drive(level bool) {
	p.mu.Lock()
	prev := p.level
	p.level = level
	var fire func()
	switch {
	case p.mode != GPIOModeInput || p.onIRQ == nil:
	case p.edge == GPIOEdgeFalling && prev && !level:
		fire = p.onIRQ
	case p.edge == GPIOEdgeRising && !prev && level:
		fire = p.onIRQ
	}
	p.mu.Unlock()

	if fire != nil {
		fire()
	}
}

// outputPin exposes a board output on the GPIO surface. Read returns the level
// the device is driving now, however it was last set.
type outputPin struct {
	name  string
	read  func() bool
	write func(bool)
}

func newOutputPin(name string, read func() bool, write func(bool)) GPIOPin {
	return &outputPin{name: name, read: read, write: write}
}

func (p *outputPin) Name() string   { return p.name }
func (p *outputPin) Caps() GPIOCaps { return GPIOCapOutput }

func (p *outputPin) Configure(mode GPIOMode, pull GPIOPull) error {
	if mode != GPIOModeOutput {
		return fmt.Errorf("gpio: pin %s: only output supported", p.name)
	}
	if pull != GPIOPullNone {
		return fmt.Errorf("gpio: pin %s: pull unsupported", p.name)
	}
	return nil
}

func (p *outputPin) Read() (bool, error) { return p.read(), nil }

func (p *outputPin) Write(level bool) error {
	p.write(level)
	return nil
}

// ledPins maps the red LED and the RGB lines onto output pins.
func ledPins(ledLevel func() bool, led LED, rgbLevel func() RGBColor, rgb RGB) []GPIOPin {
	pins := []GPIOPin{newOutputPin(PinLED, ledLevel, func(level bool) {
		if level {
			led.High()
		} else {
			led.Low()
		}
	})}
	for i, name := range PinRGB {
		bit := RGBColor(1) << i
		pins = append(pins, newOutputPin(name,
			func() bool { return rgbLevel()&bit != 0 },
			func(level bool) {
				c := rgbLevel()
				if level {
					c |= bit
				} else {
					c &^= bit
				}
				rgb.Set(c)
			}))
	}
	return pins
}
