package cli

import (
	"io"

	"fate/internal/taskset"
	"github.com/spf13/cobra"
)

func newRunCmd() *cobra.Command {
	var (
		ticks uint64
		trace bool
	)

	cmd := &cobra.Command{
		Use:   "run <taskset.yaml>",
		Short: "Run a task set and print per-task statistics",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			set, err := loadSet(args[0])
			if err != nil {
				return err
			}

			opts := taskset.RunOptions{Ticks: ticks, Output: io.Discard}
			if trace {
				opts.Logger = logger
				opts.Output = cmd.ErrOrStderr()
			}

			logger.Info("running task set",
				"file", args[0],
				"tasks", len(set.Tasks),
				"stimuli", len(set.Stimuli),
				"ticks", ticks,
			)
			rep, err := taskset.Run(cmd.Context(), set, opts)
			if err != nil {
				return err
			}
			logger.Info("run complete", "ticks", rep.Ticks)
			return rep.WriteTable(cmd.OutOrStdout())
		},
	}

	cmd.Flags().Uint64Var(&ticks, "ticks", 1000, "Power the board off after this many ticks")
	cmd.Flags().BoolVar(&trace, "trace", false, "Log every kernel event (needs --log-level debug) and board output")
	return cmd
}
