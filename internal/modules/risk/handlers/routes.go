package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all NPV risk routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/risk/npv", func(r chi.Router) {
		r.Post("/analyze", h.HandleAnalyze)

		r.Route("/runs", func(r chi.Router) {
			r.Get("/", h.HandleListRuns)
			r.Get("/{id}", h.HandleGetRun)
			r.Post("/{id}/reintegrate", h.HandleReintegrate)
		})
	})
}
