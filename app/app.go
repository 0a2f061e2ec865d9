package app

import (
	"fmt"
	"log/slog"

	"fate/hal"
	"fate/internal/logging"
	"fate/kernel"
)

// Demo names accepted by Config.Demo.
const (
	DemoBlink = "blink"
	DemoFixed = "fixed"
)

type Config struct {
	// Demo selects the task set: DemoBlink or DemoFixed (the default).
	Demo      string
	LogLevel  slog.Level
	LogFormat string
}

// System is the FATE kernel with one of the demo task sets installed.
type System struct {
	h     hal.HAL
	k     *kernel.Kernel
	log   *slog.Logger
	st    *status
	panel *panel
}

// New builds the kernel on h, registers the demo tasks and installs the fault
// screen. Nothing runs until Boot.
func New(h hal.HAL, cfg Config) (*System, error) {
	if cfg.Demo == "" {
		cfg.Demo = DemoFixed
	}
	s := &System{
		h:   h,
		log: logging.NewBoardLogger(h.Logger(), cfg.LogLevel, cfg.LogFormat),
		st:  &status{demo: cfg.Demo},
	}
	if disp := h.Display(); disp != nil {
		if fb := disp.Framebuffer(); fb != nil {
			s.panel = newPanel(fb, h.GPIO())
		}
	}

	opts := []kernel.Option{kernel.WithObserver(s.observe)}
	if cfg.Demo == DemoFixed {
		opts = append(opts, kernel.WithSwitchHook(s.pauseTimers))
	}
	s.k = kernel.New(h.Machine(), opts...)

	var err error
	switch cfg.Demo {
	case DemoBlink:
		err = s.addBlink()
	case DemoFixed:
		err = s.addFixed()
	default:
		return nil, fmt.Errorf("app: unknown demo %q", cfg.Demo)
	}
	if err != nil {
		return nil, fmt.Errorf("app: %s demo: %w", cfg.Demo, err)
	}
	for _, ti := range s.k.Tasks() {
		s.st.tasks[ti.Slot].name = ti.Name
	}

	installFaultHandler(s)
	return s, nil
}

// Kernel exposes the scheduler, mostly for tests.
func (s *System) Kernel() *kernel.Kernel { return s.k }

// Boot starts scheduling. It returns only if the machine powers off or the
// kernel cannot arm its interrupts.
func (s *System) Boot() error {
	s.log.Info("fate boot", "demo", s.st.demo, "tasks", len(s.k.Tasks())-1)
	err := s.k.Start()
	if err != nil {
		s.log.Info("fate stopped", "ticks", s.k.Ticks(), "err", err)
	}
	return err
}

// Frame repaints the status panel. It is safe to call from another goroutine
// while the kernel runs.
func (s *System) Frame() error {
	if s.panel == nil {
		return nil
	}
	return s.panel.draw(s.st)
}
