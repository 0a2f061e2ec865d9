// Package taskset describes a kernel workload in YAML: the task table, the
// work each task does per activation, and the switch presses to inject.
package taskset

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Set struct {
	Tick                   time.Duration `yaml:"tick"`
	CyclesPerTick          uint32        `yaml:"cycles_per_tick"`
	ReferenceEventDeadline bool          `yaml:"reference_event_deadline"`

	Tasks   []Task     `yaml:"tasks"`
	Stimuli []Stimulus `yaml:"stimuli"`
}

// ---- TASK ----

// Progress selects where a task keeps track of the work it has done.
type Progress string

const (
	// ProgressLocal counts work in the routine itself; a restart loses it.
	ProgressLocal Progress = "local"
	// ProgressTimer counts work on a task timer that survives preemption.
	ProgressTimer Progress = "timer"
)

type Task struct {
	Name        string `yaml:"name"`
	Period      uint32 `yaml:"period"`
	StartOffset uint32 `yaml:"start_offset"`
	Deadline    uint32 `yaml:"deadline"`

	// Trigger makes this an event task ("switch1", "switch4").
	Trigger string `yaml:"trigger"`

	Work     time.Duration `yaml:"work"`
	Progress Progress      `yaml:"progress"`
}

// Event reports whether the task is activated by a trigger.
func (t Task) Event() bool { return t.Trigger != "" }

// ---- STIMULUS ----

// Stimulus presses a switch just before the given tick is processed.
type Stimulus struct {
	Tick    uint64 `yaml:"tick"`
	Trigger string `yaml:"trigger"`
}

// Load reads and decodes a task set file. It does not validate.
func Load(path string) (*Set, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("taskset: %w", err)
	}
	set, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("taskset: %s: %w", path, err)
	}
	return set, nil
}

// Parse decodes a task set, rejecting unknown keys.
func Parse(data []byte) (*Set, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var set Set
	if err := dec.Decode(&set); err != nil {
		return nil, err
	}
	return &set, nil
}
