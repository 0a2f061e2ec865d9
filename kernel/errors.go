package kernel

import "errors"

var (
	// ErrRegistryFull is returned when every task slot is taken. The table is unchanged.
	ErrRegistryFull = errors.New("kernel: task registry full")
	// ErrInvalidTrigger is returned for an unknown trigger. The table is unchanged.
	ErrInvalidTrigger = errors.New("kernel: invalid trigger")
	// ErrInvalidPeriod is returned for a periodic task with period 0.
	ErrInvalidPeriod = errors.New("kernel: periodic task needs a non-zero period")
	// ErrNilRoutine is returned when registering a task without a body.
	ErrNilRoutine = errors.New("kernel: nil routine")
	// ErrStarted is returned by a second Start.
	ErrStarted = errors.New("kernel: already started")
)
