package server

import (
	"encoding/json"
	"net/http"
	"runtime"
	"time"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/aristath/celrisk/internal/database"
)

// SystemHandlers handles host and store monitoring endpoints
type SystemHandlers struct {
	log         zerolog.Logger
	dataDir     string
	version     string
	startupTime time.Time
	runsDB      *database.DB
}

// NewSystemHandlers creates a new system handlers instance
func NewSystemHandlers(log zerolog.Logger, dataDir, version string, runsDB *database.DB) *SystemHandlers {
	return &SystemHandlers{
		log:         log.With().Str("handler", "system").Logger(),
		dataDir:     dataDir,
		version:     version,
		startupTime: time.Now(),
		runsDB:      runsDB,
	}
}

// SystemStatusResponse represents system status
type SystemStatusResponse struct {
	Status        string          `json:"status"`
	Version       string          `json:"version"`
	UptimeSeconds int64           `json:"uptime_seconds"`
	NumCPU        int             `json:"num_cpu"`
	Goroutines    int             `json:"goroutines"`
	CPUPercent    float64         `json:"cpu_percent"`
	MemoryPercent float64         `json:"memory_percent"`
	DiskFreeGB    float64         `json:"disk_free_gb,omitempty"`
	StoredRuns    int64           `json:"stored_runs"`
	Database      *database.Stats `json:"database,omitempty"`
}

// GetSystemStatusSnapshot returns a snapshot of the current system status.
// Partial failures degrade the status instead of failing the request.
func (h *SystemHandlers) GetSystemStatusSnapshot() SystemStatusResponse {
	cpuPercent, memPercent := h.getSystemStats()

	response := SystemStatusResponse{
		Status:        "healthy",
		Version:       h.version,
		UptimeSeconds: int64(time.Since(h.startupTime).Seconds()),
		NumCPU:        runtime.NumCPU(),
		Goroutines:    runtime.NumGoroutine(),
		CPUPercent:    cpuPercent,
		MemoryPercent: memPercent,
	}

	if usage, err := disk.Usage(h.dataDir); err == nil {
		response.DiskFreeGB = float64(usage.Free) / 1e9
	} else {
		h.log.Warn().Err(err).Msg("Failed to get disk usage")
	}

	if h.runsDB != nil {
		if err := h.runsDB.Conn().QueryRow("SELECT COUNT(*) FROM runs").Scan(&response.StoredRuns); err != nil {
			h.log.Error().Err(err).Msg("Failed to count runs")
			response.Status = "degraded"
		}
		stats, err := h.runsDB.GetStats()
		if err != nil {
			h.log.Warn().Err(err).Msg("Failed to get database stats")
		}
		response.Database = stats
	}

	return response
}

// HandleSystemStatus handles GET /api/system/status
func (h *SystemHandlers) HandleSystemStatus(w http.ResponseWriter, r *http.Request) {
	h.log.Debug().Msg("Getting system status")

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(h.GetSystemStatusSnapshot()); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode system status")
	}
}

// getSystemStats calculates CPU and RAM usage percentages
// A 100ms CPU sample keeps the endpoint responsive
func (h *SystemHandlers) getSystemStats() (float64, float64) {
	cpuPercent, err := cpu.Percent(100*time.Millisecond, false)
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get CPU percentage")
		cpuPercent = []float64{0}
	}

	memStat, err := mem.VirtualMemory()
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get memory statistics")
		return 0, 0
	}

	cpuAvg := 0.0
	if len(cpuPercent) > 0 {
		cpuAvg = cpuPercent[0]
	}

	return cpuAvg, memStat.UsedPercent
}
