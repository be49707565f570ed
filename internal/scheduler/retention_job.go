package scheduler

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/celrisk/internal/events"
)

// RetentionJob deletes runs (and their samples) older than the retention window.
type RetentionJob struct {
	runs      RunPruner
	publisher EventPublisher
	retention time.Duration
	// archivedOnly keeps runs the archive job has not uploaded yet
	archivedOnly bool
	now       func() time.Time
	log       zerolog.Logger
}

// NewRetentionJob creates a new retention job. publisher may be nil. With
// archivedOnly set, runs still waiting for the archive job are never deleted.
func NewRetentionJob(runs RunPruner, publisher EventPublisher, retentionDays int, archivedOnly bool, log zerolog.Logger) *RetentionJob {
	return &RetentionJob{
		runs:         runs,
		publisher:    publisher,
		retention:    time.Duration(retentionDays) * 24 * time.Hour,
		archivedOnly: archivedOnly,
		now:          time.Now,
		log:          log.With().Str("job", "run_retention").Logger(),
	}
}

// Run executes the retention job
func (j *RetentionJob) Run() error {
	cutoff := j.now().Add(-j.retention)

	prune := j.runs.DeleteOlderThan
	if j.archivedOnly {
		prune = j.runs.DeleteArchivedOlderThan
	}

	deleted, err := prune(cutoff)
	if err != nil {
		j.log.Error().Err(err).Msg("Failed to prune old runs")
		return err
	}

	if deleted == 0 {
		return nil
	}

	j.log.Info().
		Int64("deleted", deleted).
		Time("cutoff", cutoff).
		Bool("archived_only", j.archivedOnly).
		Msg("Pruned old runs")

	if j.publisher != nil {
		j.publisher.Publish(&events.RunsPrunedData{Deleted: deleted, Cutoff: cutoff.Unix()})
	}
	return nil
}

// Name returns the job name for scheduling and logging.
func (j *RetentionJob) Name() string {
	return "run_retention"
}
