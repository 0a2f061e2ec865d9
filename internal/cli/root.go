package cli

import (
	"log/slog"

	"fate/internal/logging"
	"github.com/spf13/cobra"
)

var (
	flagLogLevel  string
	flagLogFormat string

	logger *slog.Logger
)

// NewRootCmd creates the root cobra command for the fatesim CLI.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "fatesim",
		Short: "fatesim: run FATE task sets on a simulated board",
		Long:  "fatesim loads YAML task sets, runs them on the host board model and reports per-task scheduling statistics.",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger = logging.NewLoggerWithWriter(logging.ParseLevel(flagLogLevel), flagLogFormat, cmd.ErrOrStderr())
		},
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&flagLogLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&flagLogFormat, "log-format", "text", "Log format (text, json)")

	root.AddCommand(
		newRunCmd(),
		newValidateCmd(),
		newVersionCmd(),
	)

	return root
}
