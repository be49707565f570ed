package reliability

import (
	"math"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/celrisk/internal/database"
)

func newMaintenanceDB(t *testing.T) (*database.DB, string) {
	t.Helper()
	dir := t.TempDir()
	db, err := database.New(database.Config{Path: filepath.Join(dir, "runs.db"), Name: "runs"})
	require.NoError(t, err)
	require.NoError(t, db.Migrate())
	t.Cleanup(func() { _ = db.Close() })
	return db, dir
}

func TestMaintenanceJob_Run(t *testing.T) {
	db, dir := newMaintenanceDB(t)
	job := NewMaintenanceJob(db, dir, 0, zerolog.Nop())

	assert.Equal(t, "db_maintenance", job.Name())
	assert.NoError(t, job.Run())
}

func TestMaintenanceJob_FailsBelowFreeSpaceFloor(t *testing.T) {
	db, dir := newMaintenanceDB(t)
	job := NewMaintenanceJob(db, dir, math.MaxUint64, zerolog.Nop())

	err := job.Run()
	assert.ErrorContains(t, err, "GB free")
}
