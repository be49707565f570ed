package reliability

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/disk"

	"github.com/aristath/celrisk/internal/database"
)

// DefaultMinFreeBytes is the free-space floor below which maintenance fails.
const DefaultMinFreeBytes = 500 * 1024 * 1024

// MaintenanceJob checks and compacts runs.db. Stored samples make the file
// grow quickly, so freed pages are returned through incremental vacuum.
type MaintenanceJob struct {
	db           *database.DB
	dataDir      string
	minFreeBytes uint64
	log          zerolog.Logger
}

// NewMaintenanceJob creates a new database maintenance job
func NewMaintenanceJob(db *database.DB, dataDir string, minFreeBytes uint64, log zerolog.Logger) *MaintenanceJob {
	return &MaintenanceJob{
		db:           db,
		dataDir:      dataDir,
		minFreeBytes: minFreeBytes,
		log:          log.With().Str("job", "db_maintenance").Logger(),
	}
}

// Run executes the maintenance job
func (j *MaintenanceJob) Run() error {
	startTime := time.Now()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Step 1: Integrity check
	if err := j.db.HealthCheck(ctx); err != nil {
		j.log.Error().Err(err).Msg("CRITICAL: Database integrity check failed")
		return err
	}

	// Step 2: WAL checkpoint (prevent bloat)
	if err := j.db.WALCheckpoint("TRUNCATE"); err != nil {
		j.log.Warn().Err(err).Msg("WAL checkpoint failed")
	}

	// Step 3: Return freed pages to the filesystem
	before, _ := j.db.GetStats()
	if _, err := j.db.Conn().ExecContext(ctx, "PRAGMA incremental_vacuum"); err != nil {
		j.log.Warn().Err(err).Msg("Incremental vacuum failed")
	}
	if after, err := j.db.GetStats(); err == nil && before != nil {
		j.log.Info().
			Str("database", j.db.Name()).
			Int64("pages_before", before.PageCount).
			Int64("pages_after", after.PageCount).
			Int64("size_bytes", after.SizeBytes).
			Msg("Database compacted")
	}

	// Step 4: Disk space
	if err := j.checkDiskSpace(); err != nil {
		return err
	}

	j.log.Info().
		Dur("duration_ms", time.Since(startTime)).
		Msg("Database maintenance completed")

	return nil
}

// Name returns the job name for scheduler
func (j *MaintenanceJob) Name() string {
	return "db_maintenance"
}

func (j *MaintenanceJob) checkDiskSpace() error {
	usage, err := disk.Usage(j.dataDir)
	if err != nil {
		return fmt.Errorf("failed to stat filesystem: %w", err)
	}

	availableGB := float64(usage.Free) / 1e9
	j.log.Debug().
		Float64("available_gb", availableGB).
		Float64("used_percent", usage.UsedPercent).
		Msg("Disk space check")

	if usage.Free < j.minFreeBytes {
		j.log.Error().
			Float64("available_gb", availableGB).
			Msg("CRITICAL: Insufficient disk space for run storage")
		return fmt.Errorf("CRITICAL: only %.2f GB free in %s", availableGB, j.dataDir)
	}

	if usage.UsedPercent > 90 {
		j.log.Warn().
			Float64("used_percent", usage.UsedPercent).
			Msg("Disk space running low")
	}

	return nil
}
