package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/celrisk/internal/events"
)

// ArchiveJob uploads reports of runs not yet archived, oldest first.
// A failed upload stops the batch; already-uploaded runs are still marked.
type ArchiveJob struct {
	runs      RunArchiveSource
	archiver  RunArchiver
	publisher EventPublisher
	batchSize int
	timeout   time.Duration
	log       zerolog.Logger
}

// NewArchiveJob creates a new archive job. publisher may be nil.
func NewArchiveJob(runs RunArchiveSource, archiver RunArchiver, publisher EventPublisher, batchSize int, log zerolog.Logger) *ArchiveJob {
	return &ArchiveJob{
		runs:      runs,
		archiver:  archiver,
		publisher: publisher,
		batchSize: batchSize,
		timeout:   5 * time.Minute,
		log:       log.With().Str("job", "run_archive").Logger(),
	}
}

// Run executes the archive job
func (j *ArchiveJob) Run() error {
	pending, err := j.runs.ListUnarchived(j.batchSize)
	if err != nil {
		return fmt.Errorf("failed to list unarchived runs: %w", err)
	}
	if len(pending) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	archived := make([]string, 0, len(pending))
	var uploadErr error
	for i := range pending {
		if _, err := j.archiver.ArchiveRun(ctx, &pending[i]); err != nil {
			uploadErr = err
			break
		}
		archived = append(archived, pending[i].ID)
	}

	if err := j.runs.MarkArchived(archived, time.Now()); err != nil {
		return fmt.Errorf("failed to mark runs archived: %w", err)
	}

	if len(archived) > 0 {
		j.log.Info().
			Int("count", len(archived)).
			Str("bucket", j.archiver.Bucket()).
			Msg("Archived runs")

		if j.publisher != nil {
			j.publisher.Publish(&events.RunsArchivedData{Count: len(archived), Bucket: j.archiver.Bucket()})
		}
	}

	if uploadErr != nil {
		j.log.Error().Err(uploadErr).Int("remaining", len(pending)-len(archived)).Msg("Run archive interrupted")
		return uploadErr
	}
	return nil
}

// Name returns the job name for scheduling and logging.
func (j *ArchiveJob) Name() string {
	return "run_archive"
}
