package cli

import (
	"fmt"

	"fate/internal/taskset"
)

// loadSet reads, checks and fills in defaults for a task set file.
func loadSet(path string) (*taskset.Set, error) {
	set, err := taskset.Load(path)
	if err != nil {
		return nil, err
	}
	if err := taskset.Validate(set); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	taskset.Normalize(set)
	return set, nil
}
