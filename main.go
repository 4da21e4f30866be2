package main

import (
	"log/slog"
	"os"

	"github.com/samuelfneumann/flysmoke/smoke"
	"github.com/spf13/cobra"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	rootCmd := &cobra.Command{
		Use:   "flysmoke",
		Short: "Step the fly template task with random actions and save a render",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			script := smoke.Default(cmd.OutOrStdout())
			script.Logger = logger
			return script.Run()
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	if err := rootCmd.Execute(); err != nil {
		logger.Error("smoke test failed", "error", err)
		os.Exit(1)
	}
}
