package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/aristath/celrisk/internal/app"
	"github.com/aristath/celrisk/internal/config"
	"github.com/aristath/celrisk/pkg/logger"
)

func init() {
	RootCmd.AddCommand(serveCmd)
}

// Configuration comes from the environment, exactly as for cmd/server.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API and background jobs",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		log := logger.New(logger.Config{
			Level:  cfg.LogLevel,
			Pretty: cfg.DevMode,
		})
		logger.SetGlobalLogger(log)
		log.Info().Str("version", version).Msg("Starting celrisk")

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		return app.Serve(ctx, cfg, log, version)
	},
}
