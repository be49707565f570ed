// Package di provides dependency injection type definitions.
//
// Container is the single source of truth for service instances. It is
// created by Wire() and handed to the HTTP server and the CLI.
package di

import (
	"github.com/aristath/celrisk/internal/database"
	"github.com/aristath/celrisk/internal/events"
	"github.com/aristath/celrisk/internal/modules/risk"
	"github.com/aristath/celrisk/internal/modules/simulation"
	"github.com/aristath/celrisk/internal/reliability"
	"github.com/aristath/celrisk/internal/scheduler"
)

// Container holds all dependencies for the application.
type Container struct {
	// Databases
	RunsDB *database.DB

	// Events
	EventBus *events.Bus

	// Repositories
	RunRepo *risk.RunRepository

	// Services
	Sampler        *simulation.Sampler
	RiskService    *risk.Service
	ArchiveService *reliability.ArchiveService // nil when no archive bucket is configured

	// Background jobs
	Scheduler *scheduler.Scheduler
}

// JobInstances holds the registered job instances for manual triggering.
type JobInstances struct {
	Retention   *scheduler.RetentionJob // nil when retention is disabled
	Archive     *scheduler.ArchiveJob   // nil when archiving is disabled
	Maintenance *reliability.MaintenanceJob
}

// Close releases the container's databases.
func (c *Container) Close() error {
	if c.RunsDB != nil {
		return c.RunsDB.Close()
	}
	return nil
}
