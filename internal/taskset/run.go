//go:build !tinygo

package taskset

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"fate/hal"
	"fate/kernel"
)

// RunOptions controls a simulated run.
type RunOptions struct {
	// Ticks powers the board off after this many ticks (0 = until ctx is done).
	Ticks uint64
	// Logger receives one Debug record per kernel event when set.
	Logger *slog.Logger
	// Output receives board log lines (discarded when nil).
	Output io.Writer
}

// Run boots the set on a fresh simulated board and reports what each task did.
// The set must be validated and normalized.
func Run(ctx context.Context, set *Set, opts RunOptions) (*Report, error) {
	out := opts.Output
	if out == nil {
		out = io.Discard
	}
	host := hal.NewHost(ctx, hal.HostConfig{
		Machine: hal.MachineConfig{CyclesPerTick: set.CyclesPerTick, Ticks: opts.Ticks},
		Output:  out,
	})

	rep := newReport(set)
	observe := rep.observe
	if opts.Logger != nil {
		observe = func(ev kernel.Event) {
			rep.observe(ev)
			opts.Logger.Debug("kernel event",
				"kind", ev.Kind.String(),
				"tick", ev.Tick,
				"slot", ev.Slot,
				"task", ev.Name,
			)
		}
	}

	kopts := []kernel.Option{
		kernel.WithTickPeriod(set.Tick),
		kernel.WithObserver(observe),
		kernel.WithSwitchHook(PauseTimers(host)),
	}
	if set.ReferenceEventDeadline {
		kopts = append(kopts, kernel.WithReferenceEventDeadline())
	}
	k := kernel.New(host.Machine(), kopts...)
	if err := Install(k, host, set); err != nil {
		return nil, err
	}
	for _, s := range set.Stimuli {
		trig, _ := hal.ParseTrigger(s.Trigger)
		host.At(s.Tick, func() { _ = host.Press(trig) })
	}

	err := k.Start()
	rep.Ticks = k.Ticks()
	switch {
	case ctx.Err() != nil:
		return rep, ctx.Err()
	case errors.Is(err, hal.ErrPoweredOff):
		return rep, nil
	default:
		return rep, err
	}
}
