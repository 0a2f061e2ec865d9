package taskset

import (
	"sort"

	"fate/kernel"
)

const defaultCyclesPerTick = 100

// Normalize fills in defaults. It must be called only after Validate.
func Normalize(set *Set) {
	if set == nil {
		return
	}
	if set.Tick == 0 {
		set.Tick = kernel.DefaultTickPeriod
	}
	if set.CyclesPerTick == 0 {
		set.CyclesPerTick = defaultCyclesPerTick
	}
	for i := range set.Tasks {
		if set.Tasks[i].Progress == "" {
			set.Tasks[i].Progress = ProgressLocal
		}
	}
	sort.SliceStable(set.Stimuli, func(i, j int) bool {
		return set.Stimuli[i].Tick < set.Stimuli[j].Tick
	})
}
