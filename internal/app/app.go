// Package app runs the long-lived HTTP service: dependency wiring, the
// background scheduler and graceful shutdown.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/celrisk/internal/config"
	"github.com/aristath/celrisk/internal/di"
	"github.com/aristath/celrisk/internal/server"
)

const shutdownTimeout = 10 * time.Second

// Serve wires every dependency, starts the HTTP server and the scheduler, and
// blocks until ctx is cancelled or the server fails.
func Serve(ctx context.Context, cfg *config.Config, log zerolog.Logger, version string) error {
	container, _, err := di.Wire(cfg, log)
	if err != nil {
		return fmt.Errorf("failed to wire dependencies: %w", err)
	}
	defer func() {
		if err := container.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to close databases")
		}
	}()

	srv := server.New(server.Config{
		Log:       log,
		Port:      cfg.Port,
		DevMode:   cfg.DevMode,
		DataDir:   cfg.DataDir,
		Version:   version,
		Container: container,
	})

	serverErr := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()
	log.Info().Int("port", cfg.Port).Msg("Server started successfully")

	container.Scheduler.Start()

	var runErr error
	select {
	case <-ctx.Done():
		log.Info().Msg("Shutting down server...")
	case err := <-serverErr:
		runErr = fmt.Errorf("server failed: %w", err)
	}

	// Stop waits for running jobs so the database is not closed under them
	container.Scheduler.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
	return runErr
}
