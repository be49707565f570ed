package risk

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/celrisk/internal/database"
	"github.com/aristath/celrisk/internal/domain"
)

func newTestRepository(t *testing.T) *RunRepository {
	t.Helper()
	db, err := database.New(database.Config{
		Path: filepath.Join(t.TempDir(), "runs.db"),
		Name: "runs",
	})
	require.NoError(t, err)
	require.NoError(t, db.Migrate())
	t.Cleanup(func() { _ = db.Close() })

	return NewRunRepository(db.Conn(), zerolog.Nop())
}

func testRun(createdAt time.Time) *domain.Run {
	cv := 25.0
	return &domain.Run{
		CreatedAt:  createdAt,
		Status:     domain.OutcomeComputed,
		Seed:       1 << 63, // above MaxInt64 to exercise the signed round trip
		Workers:    4,
		Partitions: 1000,
		Params: domain.SimulationParameters{
			PlanningHorizon:   2,
			NumSimulations:    3,
			WACC:              domain.Triangular{Min: 0.05, Mode: 0.08, Max: 0.1},
			InitialInvestment: domain.Uniform{Low: 10, High: 20},
			PeriodCashflows:   domain.FixedCashflows(2, domain.Triangular{Min: 1, Mode: 2, Max: 3}),
			ResidualValue:     5,
			Partitions:        1000,
		},
		Summary: domain.DistributionSummary{
			Count: 3, Min: -1, Max: 3, Range: 4, Mean: 1, StdDev: 0.25, Median: 1,
			CoefficientOfVariation: &cv,
		},
		Metrics: &domain.RiskMetrics{DeficitProbability: 0.1, CEL: -0.2, Partitions: 1000},
	}
}

func TestRunRepository_CreateAndGet(t *testing.T) {
	repo := newTestRepository(t)
	run := testRun(time.Unix(1700000000, 0))
	samples := []float64{-1, 1, 3}

	require.NoError(t, repo.Create(run, samples))
	require.NotEmpty(t, run.ID)

	got, err := repo.Get(run.ID)
	require.NoError(t, err)
	assert.Equal(t, run.ID, got.ID)
	assert.Equal(t, run.CreatedAt.Unix(), got.CreatedAt.Unix())
	assert.Equal(t, run.Seed, got.Seed)
	assert.Equal(t, run.Params, got.Params)
	assert.Equal(t, run.Summary, got.Summary)
	assert.Equal(t, run.Metrics, got.Metrics)
	assert.Nil(t, got.ArchivedAt)

	stored, err := repo.Samples(run.ID)
	require.NoError(t, err)
	assert.Equal(t, samples, stored)
}

func TestRunRepository_NegligibleRunHasNoMetrics(t *testing.T) {
	repo := newTestRepository(t)
	run := testRun(time.Now())
	run.Status = domain.OutcomeNegligibleRisk
	run.Metrics = nil

	require.NoError(t, repo.Create(run, []float64{1, 2}))

	got, err := repo.Get(run.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeNegligibleRisk, got.Status)
	assert.Nil(t, got.Metrics)
}

func TestRunRepository_NotFound(t *testing.T) {
	repo := newTestRepository(t)

	_, err := repo.Get("missing")
	assert.ErrorIs(t, err, domain.ErrRunNotFound)

	_, err = repo.Samples("missing")
	assert.ErrorIs(t, err, domain.ErrRunNotFound)
}

func TestRunRepository_ListNewestFirst(t *testing.T) {
	repo := newTestRepository(t)
	base := time.Unix(1700000000, 0)
	for i := 0; i < 3; i++ {
		require.NoError(t, repo.Create(testRun(base.Add(time.Duration(i)*time.Hour)), []float64{1}))
	}

	runs, err := repo.List(2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, base.Add(2*time.Hour).Unix(), runs[0].CreatedAt.Unix())
	assert.Equal(t, base.Add(time.Hour).Unix(), runs[1].CreatedAt.Unix())
}

func TestRunRepository_DeleteOlderThanCascades(t *testing.T) {
	repo := newTestRepository(t)
	old := testRun(time.Now().Add(-48 * time.Hour))
	fresh := testRun(time.Now())
	require.NoError(t, repo.Create(old, []float64{1}))
	require.NoError(t, repo.Create(fresh, []float64{2}))

	deleted, err := repo.DeleteOlderThan(time.Now().Add(-24 * time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	_, err = repo.Get(old.ID)
	assert.ErrorIs(t, err, domain.ErrRunNotFound)
	_, err = repo.Samples(old.ID)
	assert.ErrorIs(t, err, domain.ErrRunNotFound)

	_, err = repo.Get(fresh.ID)
	assert.NoError(t, err)
}

func TestRunRepository_DeleteArchivedOlderThanKeepsPending(t *testing.T) {
	repo := newTestRepository(t)
	archived := testRun(time.Now().Add(-48 * time.Hour))
	pending := testRun(time.Now().Add(-48 * time.Hour))
	require.NoError(t, repo.Create(archived, []float64{1}))
	require.NoError(t, repo.Create(pending, []float64{2}))
	require.NoError(t, repo.MarkArchived([]string{archived.ID}, time.Now()))

	deleted, err := repo.DeleteArchivedOlderThan(time.Now().Add(-24 * time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	_, err = repo.Get(archived.ID)
	assert.ErrorIs(t, err, domain.ErrRunNotFound)
	_, err = repo.Get(pending.ID)
	assert.NoError(t, err)

	unarchived, err := repo.ListUnarchived(10)
	require.NoError(t, err)
	require.Len(t, unarchived, 1)
	assert.Equal(t, pending.ID, unarchived[0].ID)
}

func TestRunRepository_Archiving(t *testing.T) {
	repo := newTestRepository(t)
	a := testRun(time.Unix(1700000000, 0))
	b := testRun(time.Unix(1700000100, 0))
	require.NoError(t, repo.Create(a, []float64{1}))
	require.NoError(t, repo.Create(b, []float64{2}))

	pending, err := repo.ListUnarchived(10)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, a.ID, pending[0].ID)

	now := time.Unix(1700001000, 0)
	require.NoError(t, repo.MarkArchived([]string{a.ID}, now))
	require.NoError(t, repo.MarkArchived(nil, now))

	pending, err = repo.ListUnarchived(10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, b.ID, pending[0].ID)

	got, err := repo.Get(a.ID)
	require.NoError(t, err)
	require.NotNil(t, got.ArchivedAt)
	assert.Equal(t, now.Unix(), got.ArchivedAt.Unix())
}
