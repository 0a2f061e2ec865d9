//go:build !tinygo

package hal

import (
	"context"
	"errors"
	"fmt"
)

// Program is firmware booted on a HAL.
type Program interface {
	// Boot runs the firmware on the calling goroutine. It returns only when the
	// machine powers off or faults.
	Boot() error
}

// Framer is implemented by programs that paint a status frame for the host window.
type Framer interface {
	Frame() error
}

// HeadlessConfig controls the no-window host runner.
type HeadlessConfig struct {
	Enabled bool
	// Ticks stops the machine after N ticks (0 = run until ctx is done).
	Ticks uint64
	// CyclesPerTick is the simulated instruction count per tick.
	CyclesPerTick uint
	// Realtime paces ticks against the wall clock instead of running flat out.
	Realtime bool
	// TraceIO logs LED changes.
	TraceIO bool
}

// RunHeadless boots the program on a simulated board without opening a window.
func RunHeadless(ctx context.Context, newProgram func(HAL) (Program, error), cfg HeadlessConfig) error {
	if cfg.CyclesPerTick > 1<<20 {
		return fmt.Errorf("invalid cycles per tick: %d", cfg.CyclesPerTick)
	}
	h := NewHost(ctx, HostConfig{
		Machine: MachineConfig{
			CyclesPerTick: uint32(cfg.CyclesPerTick),
			Realtime:      cfg.Realtime,
			Ticks:         cfg.Ticks,
		},
		TraceIO: cfg.TraceIO,
	})
	prog, err := newProgram(h)
	if err != nil {
		return err
	}
	return powerOffResult(ctx, prog.Boot())
}

// powerOffResult turns a normal power-off into a nil error.
func powerOffResult(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
		return ctx.Err()
	}
	if errors.Is(err, ErrPoweredOff) {
		return nil
	}
	return err
}
