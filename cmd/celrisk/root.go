package main

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/aristath/celrisk/pkg/logger"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

var RootCmd = &cobra.Command{
	Use:           "celrisk",
	Short:         "Monte Carlo NPV tail-risk analysis",
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: false,
}

func init() {
	RootCmd.PersistentFlags().String("log-level", "warn", "log level: debug, info, warn, error")
	RootCmd.PersistentFlags().Bool("log-pretty", true, "human-readable log output")
}

// newLogger builds the command logger; logs go to stderr so stdout stays
// reserved for the report.
func newLogger(cmd *cobra.Command) zerolog.Logger {
	level, _ := cmd.Flags().GetString("log-level")
	pretty, _ := cmd.Flags().GetBool("log-pretty")
	return logger.New(logger.Config{
		Level:  level,
		Pretty: pretty,
		Output: os.Stderr,
	})
}
