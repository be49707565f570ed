// Package main is the entry point for the NPV risk service. It loads
// configuration from the environment (.env supported), serves the HTTP API
// and runs the retention, archive and maintenance jobs until SIGINT/SIGTERM.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/aristath/celrisk/internal/app"
	"github.com/aristath/celrisk/internal/config"
	"github.com/aristath/celrisk/pkg/logger"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		// Use fallback logger if config fails
		fallbackLog := logger.New(logger.Config{
			Level:  "info",
			Pretty: true,
		})
		fallbackLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})
	logger.SetGlobalLogger(log)

	log.Info().Str("version", version).Msg("Starting celrisk")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := app.Serve(ctx, cfg, log, version); err != nil {
		log.Error().Err(err).Msg("Server exited with error")
		os.Exit(1)
	}
}
