package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/harvestlink/recipient-service/internal/logging"
)

var (
	logLevel  string
	logFormat string
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "recipientctl",
		Short:         "Recipient service administration",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&logFormat, "log-format", "text", "Log format (json, text)")

	root.AddCommand(newMigrateCmd(), newMatchCmd())
	return root
}

// newLogger logs to stderr so stdout stays machine-readable.
func newLogger() *slog.Logger {
	return logging.New(os.Stderr, logLevel, logFormat)
}
