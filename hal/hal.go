package hal

import (
	"errors"
	"time"
)

// Logger writes newline-delimited log lines.
type Logger interface {
	WriteLineString(s string)
	WriteLineBytes(b []byte)
}

// LED is a minimal output pin abstraction.
type LED interface {
	High()
	Low()
	Toggle()
}

// RGBColor is the 3-bit value driven onto the RGB LED (P2.0 red, P2.1 green, P2.2 blue).
type RGBColor uint8

const (
	RGBRed RGBColor = 1 << iota
	RGBGreen
	RGBBlue

	RGBOff RGBColor = 0
)

// RGB is the tri-colour LED.
type RGB interface {
	Set(c RGBColor)
	Get() RGBColor
}

// Timer is a one-shot up-counting task timer.
//
// It keeps counting only while running, so a task that is preempted with its
// timer paused picks up where the count left off when it is restarted.
type Timer interface {
	Configured() bool
	Configure(period time.Duration)
	Run()
	Pause()
	Overflowed() bool
	Disable()
}

// Counter is a free-running cycle counter.
type Counter interface {
	Cycles() uint64
}

var (
	ErrNotImplemented  = errors.New("not implemented")
	ErrNoFrameMarker   = errors.New("exception frame marker not found")
	ErrUnlinkedAddress = errors.New("address is not linked")
	ErrRoutineReturned = errors.New("routine returned")
	ErrPoweredOff      = errors.New("machine powered off")
	ErrLockup          = errors.New("processor locked up")
)

// PixelFormat defines the framebuffer pixel encoding.
type PixelFormat uint8

const (
	// PixelFormatRGB565 is 16bpp: rrrrrggggggbbbbb.
	PixelFormatRGB565 PixelFormat = iota + 1
)

// Framebuffer is a simple pixel buffer plus a "present" hook.
type Framebuffer interface {
	Width() int
	Height() int
	Format() PixelFormat
	StrideBytes() int
	Buffer() []byte
	ClearRGB(r, g, b uint8)
	Present() error
}

// Display provides access to the framebuffer (if available).
type Display interface {
	Framebuffer() Framebuffer
}

// HAL provides the only contact point between the kernel and the outside world.
type HAL interface {
	Logger() Logger
	LED() LED
	RGB() RGB
	GPIO() GPIO
	Timer(id int) Timer
	Counter() Counter
	Display() Display
	Machine() Machine
}

// NumTimers is the number of task timers (TA1..TA3 on the reference board).
const NumTimers = 3
