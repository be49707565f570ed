package di

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/aristath/celrisk/internal/config"
	"github.com/aristath/celrisk/internal/reliability"
	"github.com/aristath/celrisk/internal/scheduler"
)

const maintenanceSchedule = "@weekly"

// RegisterJobs creates the scheduler and registers every enabled job
func RegisterJobs(container *Container, cfg *config.Config, log zerolog.Logger) (*JobInstances, error) {
	sched := scheduler.New(log)
	container.Scheduler = sched
	instances := &JobInstances{}

	if cfg.RetentionDays > 0 {
		instances.Retention = scheduler.NewRetentionJob(
			container.RunRepo,
			container.EventBus,
			cfg.RetentionDays,
			container.ArchiveService != nil,
			log,
		)
		if err := sched.AddJob(cfg.CleanupSchedule, instances.Retention); err != nil {
			return nil, fmt.Errorf("failed to register retention job: %w", err)
		}
	}

	if container.ArchiveService != nil {
		instances.Archive = scheduler.NewArchiveJob(
			container.RunRepo,
			container.ArchiveService,
			container.EventBus,
			cfg.Archive.BatchSize,
			log,
		)
		if err := sched.AddJob(cfg.Archive.Schedule, instances.Archive); err != nil {
			return nil, fmt.Errorf("failed to register archive job: %w", err)
		}
	}

	instances.Maintenance = reliability.NewMaintenanceJob(container.RunsDB, cfg.DataDir, reliability.DefaultMinFreeBytes, log)
	if err := sched.AddJob(maintenanceSchedule, instances.Maintenance); err != nil {
		return nil, fmt.Errorf("failed to register maintenance job: %w", err)
	}

	return instances, nil
}
