//go:build !tinygo

package hal

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// HostConfig controls the host HAL.
type HostConfig struct {
	Machine MachineConfig
	// Output receives log lines (stdout when nil).
	Output io.Writer
	// TraceIO logs every LED change.
	TraceIO bool
}

// Host is the simulated board: processor, LEDs, switches, task timers.
type Host struct {
	m      *hostMachine
	logger *hostLogger
	led    *hostLED
	rgb    *hostRGB
	gpio   GPIO
	fb     *hostFramebuffer
	timers [NumTimers]*hostTimer
}

// New returns a host HAL implementation.
func New() HAL {
	return NewHost(context.Background(), HostConfig{})
}

// NewHost builds a simulated board. The machine powers off when ctx is done.
func NewHost(ctx context.Context, cfg HostConfig) *Host {
	out := cfg.Output
	if out == nil {
		out = os.Stdout
	}
	logger := &hostLogger{w: out}
	m := newHostMachine(ctx, cfg.Machine)

	h := &Host{
		m:      m,
		logger: logger,
		fb:     newHostFramebuffer(320, 240),
	}
	h.led = &hostLED{m: m, logger: logger, trace: cfg.TraceIO}
	h.rgb = &hostRGB{m: m, logger: logger, trace: cfg.TraceIO}
	for i := range h.timers {
		h.timers[i] = &hostTimer{m: m}
		m.timers = append(m.timers, h.timers[i])
	}

	pins := ledPins(h.led.level, h.led, h.rgb.level, h.rgb)
	pins = append(pins, m.switches[TriggerSwitch1], m.switches[TriggerSwitch4])
	h.gpio = newVirtualGPIO(pins)
	return h
}

func (h *Host) Logger() Logger   { return h.logger }
func (h *Host) LED() LED         { return h.led }
func (h *Host) RGB() RGB         { return h.rgb }
func (h *Host) GPIO() GPIO       { return h.gpio }
func (h *Host) Counter() Counter { return hostCounter{m: h.m} }
func (h *Host) Display() Display { return hostDisplay{fb: h.fb} }
func (h *Host) Machine() Machine { return h.m }

func (h *Host) Timer(id int) Timer {
	if id < 0 || id >= NumTimers {
		return nil
	}
	return h.timers[id]
}

// Press presses and releases the switch wired to t. Safe from any goroutine.
func (h *Host) Press(t Trigger) error { return h.m.press(t) }

// At runs fn on the machine just before tick overflow number tick (0-based).
// It must be called before the machine starts.
func (h *Host) At(tick uint64, fn func()) { h.m.schedule(tick, fn) }

// Ticks returns the number of tick overflows so far.
func (h *Host) Ticks() uint64 { return h.m.ticks }

// LEDState returns the red LED and RGB levels without touching the bus.
func (h *Host) LEDState() (red bool, rgb RGBColor) {
	return h.led.level(), h.rgb.level()
}

type hostDisplay struct {
	fb *hostFramebuffer
}

func (d hostDisplay) Framebuffer() Framebuffer { return d.fb }

type hostLogger struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *hostLogger) WriteLineString(s string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintln(l.w, s)
}

func (l *hostLogger) WriteLineBytes(b []byte) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.w.Write(b)
	l.w.Write([]byte{'\n'})
}

type hostLED struct {
	mu     sync.Mutex
	m      *hostMachine
	on     bool
	trace  bool
	logger *hostLogger
}

func (l *hostLED) High()   { l.set(func(bool) bool { return true }) }
func (l *hostLED) Low()    { l.set(func(bool) bool { return false }) }
func (l *hostLED) Toggle() { l.set(func(on bool) bool { return !on }) }

func (l *hostLED) set(f func(bool) bool) {
	l.m.access()
	l.mu.Lock()
	l.on = f(l.on)
	on := l.on
	l.mu.Unlock()
	if l.trace {
		if on {
			l.logger.WriteLineString("led: HIGH")
		} else {
			l.logger.WriteLineString("led: LOW")
		}
	}
}

func (l *hostLED) level() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.on
}

type hostRGB struct {
	mu     sync.Mutex
	m      *hostMachine
	c      RGBColor
	trace  bool
	logger *hostLogger
}

func (l *hostRGB) Set(c RGBColor) {
	l.m.access()
	l.mu.Lock()
	l.c = c & (RGBRed | RGBGreen | RGBBlue)
	c = l.c
	l.mu.Unlock()
	if l.trace {
		l.logger.WriteLineString(fmt.Sprintf("rgb: %03b", uint8(c)))
	}
}

func (l *hostRGB) Get() RGBColor {
	l.m.access()
	return l.level()
}

func (l *hostRGB) level() RGBColor {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.c
}

// hostTimer counts machine cycles while running, up to its period.
type hostTimer struct {
	m          *hostMachine
	configured bool
	running    bool
	top        uint64
	count      uint64
}

func (t *hostTimer) Configured() bool {
	t.m.access()
	return t.configured
}

func (t *hostTimer) Configure(period time.Duration) {
	t.m.access()
	t.configured = true
	t.running = false
	t.top = t.m.cyclesFor(period)
	t.count = 0
}

func (t *hostTimer) Run() {
	t.m.access()
	t.running = true
}

// Pause does not touch the bus so that it can be used from a switch hook.
func (t *hostTimer) Pause() { t.running = false }

func (t *hostTimer) Overflowed() bool {
	t.m.access()
	return t.configured && t.count >= t.top
}

func (t *hostTimer) Disable() {
	t.m.access()
	t.configured = false
	t.running = false
	t.count = 0
}

func (t *hostTimer) clock() {
	if t.running && t.configured && t.count < t.top {
		t.count++
	}
}

type hostCounter struct {
	m *hostMachine
}

func (c hostCounter) Cycles() uint64 {
	c.m.access()
	return c.m.cycles
}
