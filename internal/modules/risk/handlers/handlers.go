// Package handlers provides HTTP handlers for NPV risk runs.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"runtime"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/aristath/celrisk/internal/domain"
	"github.com/aristath/celrisk/internal/modules/risk"
)

const (
	maxBodyBytes = 1 << 20
	// maxTrials caps num_simulations accepted over HTTP.
	maxTrials = 5_000_000
	// maxPartitions caps integration_partitions and reintegrate partitions.
	maxPartitions = 10_000_000
)

// maxWorkers caps the sampling workers a request may ask for.
var maxWorkers = runtime.NumCPU() * 4

// RunService is the subset of the risk service the handlers need.
type RunService interface {
	Run(ctx context.Context, params domain.SimulationParameters, opts risk.RunOptions) (*domain.Run, error)
	Reintegrate(ctx context.Context, id string, partitions int) (*domain.Evaluation, error)
	Get(id string) (*domain.Run, error)
	List(limit int) ([]domain.Run, error)
}

// Handler handles NPV risk HTTP requests
type Handler struct {
	service RunService
	log     zerolog.Logger
}

// NewHandler creates a new NPV risk handler
func NewHandler(service RunService, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "npv_risk").Logger(),
	}
}

type analyzeRequest struct {
	risk.ParamsFile
	Seed    uint64 `json:"seed,omitempty"`
	Workers int    `json:"workers,omitempty"`
}

type reintegrateRequest struct {
	Partitions int `json:"partitions"`
}

// HandleAnalyze handles POST /api/risk/npv/analyze
func (h *Handler) HandleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := h.decode(w, r, &req); err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	params, err := req.Parameters()
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	if params.NumSimulations > maxTrials {
		h.writeError(w, http.StatusBadRequest,
			fmt.Sprintf("num_simulations must not exceed %d", maxTrials))
		return
	}
	if params.Partitions > maxPartitions {
		h.writeError(w, http.StatusBadRequest,
			fmt.Sprintf("integration_partitions must not exceed %d", maxPartitions))
		return
	}
	if req.Workers > maxWorkers {
		h.writeError(w, http.StatusBadRequest,
			fmt.Sprintf("workers must not exceed %d", maxWorkers))
		return
	}

	run, err := h.service.Run(r.Context(), params, risk.RunOptions{
		Seed:    req.Seed,
		Workers: req.Workers,
	})
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": run,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

// HandleListRuns handles GET /api/risk/npv/runs
func (h *Handler) HandleListRuns(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			h.writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = parsed
	}

	runs, err := h.service.List(limit)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": runs,
		"metadata": map[string]interface{}{
			"count":     len(runs),
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

// HandleGetRun handles GET /api/risk/npv/runs/{id}
func (h *Handler) HandleGetRun(w http.ResponseWriter, r *http.Request) {
	run, err := h.service.Get(chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": run,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

// HandleReintegrate handles POST /api/risk/npv/runs/{id}/reintegrate
func (h *Handler) HandleReintegrate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req reintegrateRequest
	if err := h.decode(w, r, &req); err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Partitions > maxPartitions {
		h.writeError(w, http.StatusBadRequest,
			fmt.Sprintf("partitions must not exceed %d", maxPartitions))
		return
	}

	evaluation, err := h.service.Reintegrate(r.Context(), id, req.Partitions)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": evaluation,
		"metadata": map[string]interface{}{
			"run_id":     id,
			"partitions": req.Partitions,
			"timestamp":  time.Now().Format(time.RFC3339),
		},
	})
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

// statusFor maps the domain error taxonomy onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidParameters):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrRunNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrUndefinedMetric), errors.Is(err, domain.ErrInvalidDomain):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) writeServiceError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		h.log.Error().Err(err).Msg("NPV risk request failed")
		h.writeError(w, status, "internal error")
		return
	}
	h.writeError(w, status, err.Error())
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
