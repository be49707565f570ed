package di

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/aristath/celrisk/internal/config"
	"github.com/aristath/celrisk/internal/events"
	"github.com/aristath/celrisk/internal/modules/risk"
	"github.com/aristath/celrisk/internal/modules/simulation"
	"github.com/aristath/celrisk/internal/reliability"
)

// InitializeServices creates the repositories and services on top of the databases
func InitializeServices(container *Container, cfg *config.Config, log zerolog.Logger) error {
	container.EventBus = events.NewBus(log)
	container.RunRepo = risk.NewRunRepository(container.RunsDB.Conn(), log)
	container.Sampler = simulation.NewSampler(log)
	container.RiskService = risk.NewService(
		container.Sampler,
		container.RunRepo,
		container.EventBus,
		risk.Defaults{Partitions: cfg.DefaultPartitions, Workers: cfg.Workers},
		log,
	)

	if cfg.Archive.Enabled() {
		uploader, err := reliability.NewS3Uploader(context.Background(), cfg.Archive)
		if err != nil {
			return fmt.Errorf("failed to create archive uploader: %w", err)
		}
		container.ArchiveService = reliability.NewArchiveService(uploader, cfg.Archive.Bucket, cfg.Archive.Prefix, log)
		log.Info().
			Str("bucket", cfg.Archive.Bucket).
			Str("endpoint", cfg.Archive.Endpoint).
			Msg("Run archive enabled")
	}

	return nil
}
