package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"
)

// handleHealth reports liveness plus a runs.db integrity check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	response := map[string]interface{}{
		"status":  "healthy",
		"version": s.version,
		"service": "celrisk",
	}

	if err := s.container.RunsDB.HealthCheck(ctx); err != nil {
		s.log.Error().Err(err).Msg("Health check failed")
		response["status"] = "unhealthy"
		response["error"] = err.Error()
		s.writeJSON(w, http.StatusServiceUnavailable, response)
		return
	}

	s.writeJSON(w, http.StatusOK, response)
}

// writeJSON writes a JSON response
func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
