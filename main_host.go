//go:build !tinygo

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"fate/app"
	"fate/hal"
	"fate/internal/logging"
)

func main() {
	var (
		cfg       hal.HeadlessConfig
		demo      string
		scale     int
		logLevel  string
		logFormat string
	)
	flag.BoolVar(&cfg.Enabled, "headless", false, "Run without a window.")
	flag.Uint64Var(&cfg.Ticks, "ticks", 0, "Power off after N ticks in headless mode (0 = run until interrupted).")
	flag.UintVar(&cfg.CyclesPerTick, "cycles-per-tick", 100, "Simulated instructions per tick.")
	flag.BoolVar(&cfg.Realtime, "realtime", false, "Pace headless ticks against the wall clock.")
	flag.BoolVar(&cfg.TraceIO, "trace-io", false, "Log every LED change.")
	flag.StringVar(&demo, "demo", app.DemoFixed, "Task set to run (fixed, blink).")
	flag.IntVar(&scale, "scale", 2, "Window scale factor.")
	flag.StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error).")
	flag.StringVar(&logFormat, "log-format", "text", "Log format (text, json).")
	flag.Parse()

	appCfg := app.Config{
		Demo:      demo,
		LogLevel:  logging.ParseLevel(logLevel),
		LogFormat: logFormat,
	}
	newProgram := func(h hal.HAL) (hal.Program, error) {
		s, err := app.New(h, appCfg)
		if err != nil {
			return nil, err
		}
		return s, nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var err error
	if cfg.Enabled {
		err = hal.RunHeadless(ctx, newProgram, cfg)
	} else {
		err = hal.RunWindow(ctx, newProgram, hal.WindowConfig{CyclesPerTick: cfg.CyclesPerTick, Scale: scale})
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
