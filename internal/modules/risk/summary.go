// Package risk turns a simulated NPV sample into tail-risk metrics: it
// summarizes the sample, guards the negligible-risk case and integrates a
// normal density fitted to the summary.
package risk

import (
	"fmt"

	"github.com/aristath/celrisk/internal/domain"
	"github.com/aristath/celrisk/pkg/formulas"
)

// Summarize computes population statistics of a non-empty NPV sample.
// The coefficient of variation is left nil when the mean is zero.
func Summarize(samples []float64) (domain.DistributionSummary, error) {
	if len(samples) == 0 {
		return domain.DistributionSummary{}, fmt.Errorf("%w: empty NPV sample", domain.ErrInvalidParameters)
	}
	if !formulas.AllFinite(samples) {
		return domain.DistributionSummary{}, fmt.Errorf("%w: NPV sample contains non-finite values", domain.ErrInvalidParameters)
	}

	lo, hi := formulas.MinMax(samples)
	mean, std := formulas.PopMeanStdDev(samples)

	summary := domain.DistributionSummary{
		Count:  len(samples),
		Min:    lo,
		Max:    hi,
		Range:  hi - lo,
		Mean:   mean,
		StdDev: std,
		Median: formulas.Median(samples),
	}
	if mean != 0 {
		cv := std / mean * 100
		summary.CoefficientOfVariation = &cv
	}
	return summary, nil
}

// IsNegligible reports whether μ − 6σ > 0, i.e. the left tail of a 6-sigma
// band lies entirely above zero and deficit risk is negligible.
func IsNegligible(summary domain.DistributionSummary) bool {
	return summary.Mean-LowerBoundSigmas*summary.StdDev > 0
}
