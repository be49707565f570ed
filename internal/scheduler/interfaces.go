package scheduler

import (
	"context"
	"time"

	"github.com/aristath/celrisk/internal/domain"
	"github.com/aristath/celrisk/internal/events"
)

// RunPruner deletes runs past retention
type RunPruner interface {
	DeleteOlderThan(cutoff time.Time) (int64, error)
	DeleteArchivedOlderThan(cutoff time.Time) (int64, error)
}

// RunArchiveSource lists runs awaiting archive and records uploads
type RunArchiveSource interface {
	ListUnarchived(limit int) ([]domain.Run, error)
	MarkArchived(ids []string, at time.Time) error
}

// RunArchiver uploads a single run report
type RunArchiver interface {
	ArchiveRun(ctx context.Context, run *domain.Run) (string, error)
	Bucket() string
}

// EventPublisher defines the contract for event emission
type EventPublisher interface {
	Publish(data events.EventData)
}
