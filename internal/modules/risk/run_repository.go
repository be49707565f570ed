package risk

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/aristath/celrisk/internal/database"
	"github.com/aristath/celrisk/internal/domain"
)

const runsColumns = `id, created_at, status, seed, workers, partitions, params, summary, metrics, archived_at`

// RunRepository persists runs and their raw NPV samples in runs.db.
type RunRepository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRunRepository creates a new run repository
func NewRunRepository(db *sql.DB, log zerolog.Logger) *RunRepository {
	return &RunRepository{
		db:  db,
		log: log.With().Str("repo", "runs").Logger(),
	}
}

// Create assigns an ID (when missing) and stores the run together with its samples.
// Samples are encoded with msgpack so a later re-integration sees the exact values.
func (r *RunRepository) Create(run *domain.Run, samples []float64) error {
	if run.ID == "" {
		run.ID = uuid.New().String()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now()
	}

	params, err := json.Marshal(run.Params)
	if err != nil {
		return fmt.Errorf("failed to marshal params: %w", err)
	}
	summary, err := json.Marshal(run.Summary)
	if err != nil {
		return fmt.Errorf("failed to marshal summary: %w", err)
	}
	var metrics sql.NullString
	if run.Metrics != nil {
		b, err := json.Marshal(run.Metrics)
		if err != nil {
			return fmt.Errorf("failed to marshal metrics: %w", err)
		}
		metrics = sql.NullString{String: string(b), Valid: true}
	}
	blob, err := msgpack.Marshal(samples)
	if err != nil {
		return fmt.Errorf("failed to encode samples: %w", err)
	}

	err = database.WithTransaction(r.db, func(tx *sql.Tx) error {
		_, err := tx.Exec(`
			INSERT INTO runs (`+runsColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, NULL)
		`,
			run.ID,
			run.CreatedAt.Unix(),
			string(run.Status),
			int64(run.Seed),
			run.Workers,
			run.Partitions,
			string(params),
			string(summary),
			metrics,
		)
		if err != nil {
			return fmt.Errorf("failed to insert run: %w", err)
		}

		if _, err := tx.Exec("INSERT INTO run_samples (run_id, samples) VALUES (?, ?)", run.ID, blob); err != nil {
			return fmt.Errorf("failed to insert samples: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	r.log.Debug().
		Str("run_id", run.ID).
		Int("samples", len(samples)).
		Int("blob_bytes", len(blob)).
		Msg("Run stored")

	return nil
}

// Get returns one run, or domain.ErrRunNotFound.
func (r *RunRepository) Get(id string) (*domain.Run, error) {
	row := r.db.QueryRow("SELECT "+runsColumns+" FROM runs WHERE id = ?", id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", domain.ErrRunNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run %s: %w", id, err)
	}
	return run, nil
}

// List returns the most recent runs first.
func (r *RunRepository) List(limit int) ([]domain.Run, error) {
	return r.query(`
		SELECT `+runsColumns+` FROM runs
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?
	`, limit)
}

// ListUnarchived returns the oldest runs not yet uploaded to the archive.
func (r *RunRepository) ListUnarchived(limit int) ([]domain.Run, error) {
	return r.query(`
		SELECT `+runsColumns+` FROM runs
		WHERE archived_at IS NULL
		ORDER BY created_at ASC, rowid ASC
		LIMIT ?
	`, limit)
}

// Samples returns the stored NPV sample of a run.
func (r *RunRepository) Samples(id string) ([]float64, error) {
	var blob []byte
	err := r.db.QueryRow("SELECT samples FROM run_samples WHERE run_id = ?", id).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: no samples for %s", domain.ErrRunNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get samples for %s: %w", id, err)
	}

	var samples []float64
	if err := msgpack.Unmarshal(blob, &samples); err != nil {
		return nil, fmt.Errorf("failed to decode samples for %s: %w", id, err)
	}
	return samples, nil
}

// MarkArchived stamps the given runs as uploaded.
func (r *RunRepository) MarkArchived(ids []string, at time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	return database.WithTransaction(r.db, func(tx *sql.Tx) error {
		stmt, err := tx.Prepare("UPDATE runs SET archived_at = ? WHERE id = ?")
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, id := range ids {
			if _, err := stmt.Exec(at.Unix(), id); err != nil {
				return fmt.Errorf("failed to mark %s archived: %w", id, err)
			}
		}
		return nil
	})
}

// DeleteOlderThan removes runs created before cutoff. Samples go with them
// through the foreign key cascade. Returns the number of runs deleted.
func (r *RunRepository) DeleteOlderThan(cutoff time.Time) (int64, error) {
	result, err := r.db.Exec("DELETE FROM runs WHERE created_at < ?", cutoff.Unix())
	if err != nil {
		return 0, fmt.Errorf("failed to delete old runs: %w", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return deleted, nil
}

// DeleteArchivedOlderThan is DeleteOlderThan restricted to runs that have
// already been uploaded to the archive.
func (r *RunRepository) DeleteArchivedOlderThan(cutoff time.Time) (int64, error) {
	result, err := r.db.Exec(
		"DELETE FROM runs WHERE created_at < ? AND archived_at IS NOT NULL", cutoff.Unix())
	if err != nil {
		return 0, fmt.Errorf("failed to delete old archived runs: %w", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return deleted, nil
}

func (r *RunRepository) query(query string, args ...interface{}) ([]domain.Run, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	runs := []domain.Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, *run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating runs: %w", err)
	}

	return runs, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(row rowScanner) (*domain.Run, error) {
	var (
		run        domain.Run
		createdAt  int64
		status     string
		seed       int64
		params     string
		summary    string
		metrics    sql.NullString
		archivedAt sql.NullInt64
	)

	err := row.Scan(
		&run.ID,
		&createdAt,
		&status,
		&seed,
		&run.Workers,
		&run.Partitions,
		&params,
		&summary,
		&metrics,
		&archivedAt,
	)
	if err != nil {
		return nil, err
	}

	run.CreatedAt = time.Unix(createdAt, 0)
	run.Status = domain.OutcomeStatus(status)
	run.Seed = uint64(seed)

	if err := json.Unmarshal([]byte(params), &run.Params); err != nil {
		return nil, fmt.Errorf("failed to unmarshal params: %w", err)
	}
	if err := json.Unmarshal([]byte(summary), &run.Summary); err != nil {
		return nil, fmt.Errorf("failed to unmarshal summary: %w", err)
	}
	if metrics.Valid {
		run.Metrics = &domain.RiskMetrics{}
		if err := json.Unmarshal([]byte(metrics.String), run.Metrics); err != nil {
			return nil, fmt.Errorf("failed to unmarshal metrics: %w", err)
		}
	}
	if archivedAt.Valid {
		t := time.Unix(archivedAt.Int64, 0)
		run.ArchivedAt = &t
	}

	return &run, nil
}
