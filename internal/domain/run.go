package domain

import "time"

// Run is one persisted evaluation of a parameter set.
type Run struct {
	ID         string               `json:"id"`
	CreatedAt  time.Time            `json:"created_at"`
	Status     OutcomeStatus        `json:"status"`
	Seed       uint64               `json:"seed"`
	Workers    int                  `json:"workers"`
	Partitions int                  `json:"partitions"`
	Params     SimulationParameters `json:"params"`
	Summary    DistributionSummary  `json:"summary"`
	Metrics    *RiskMetrics         `json:"metrics,omitempty"`
	ArchivedAt *time.Time           `json:"archived_at,omitempty"`
}

// Evaluation returns the run's outcome without its provenance.
func (r *Run) Evaluation() Evaluation {
	return Evaluation{Status: r.Status, Summary: r.Summary, Metrics: r.Metrics}
}
