package taskset

import (
	"errors"
	"fmt"

	"fate/hal"
	"fate/kernel"
)

// Validate checks a task set against what the kernel and the board can run.
// It does not mutate the set.
func Validate(set *Set) error {
	if set == nil {
		return errors.New("taskset: empty")
	}
	if set.Tick < 0 {
		return fmt.Errorf("taskset: tick %v: must not be negative", set.Tick)
	}
	if len(set.Tasks) == 0 {
		return errors.New("taskset: no tasks defined")
	}
	if len(set.Tasks) > kernel.NumSlots-1 {
		return fmt.Errorf("taskset: %d tasks defined, the kernel has %d slots", len(set.Tasks), kernel.NumSlots-1)
	}

	names := make(map[string]bool, len(set.Tasks))
	bound := make(map[hal.Trigger]string)
	timers := 0

	for i, t := range set.Tasks {
		if t.Name == "" {
			return fmt.Errorf("taskset: task #%d: name is required", i+1)
		}
		if names[t.Name] {
			return fmt.Errorf("taskset: task %q: duplicate name", t.Name)
		}
		names[t.Name] = true

		if t.Event() {
			trig, ok := hal.ParseTrigger(t.Trigger)
			if !ok {
				return fmt.Errorf("taskset: task %q: unknown trigger %q", t.Name, t.Trigger)
			}
			if t.Period != 0 || t.StartOffset != 0 {
				return fmt.Errorf("taskset: task %q: event tasks take no period or start_offset", t.Name)
			}
			// The kernel would silently keep only the last binding.
			if prev, dup := bound[trig]; dup {
				return fmt.Errorf("taskset: task %q: trigger %s already bound to %q", t.Name, trig, prev)
			}
			bound[trig] = t.Name
		} else if t.Period == 0 {
			return fmt.Errorf("taskset: task %q: period or trigger is required", t.Name)
		}

		if t.Work <= 0 {
			return fmt.Errorf("taskset: task %q: work must be positive", t.Name)
		}

		switch t.Progress {
		case "", ProgressLocal:
		case ProgressTimer:
			timers++
		default:
			return fmt.Errorf("taskset: task %q: progress must be %q or %q", t.Name, ProgressLocal, ProgressTimer)
		}
	}
	if timers > hal.NumTimers {
		return fmt.Errorf("taskset: %d tasks use timer progress, the board has %d timers", timers, hal.NumTimers)
	}

	for i, s := range set.Stimuli {
		if _, ok := hal.ParseTrigger(s.Trigger); !ok {
			return fmt.Errorf("taskset: stimulus #%d: unknown trigger %q", i+1, s.Trigger)
		}
	}
	return nil
}
