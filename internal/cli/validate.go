package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <taskset.yaml>",
		Short: "Check a task set file without running it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			set, err := loadSet(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: ok (%d tasks, %d stimuli, tick %s)\n",
				args[0], len(set.Tasks), len(set.Stimuli), set.Tick)
			return nil
		},
	}
}
