package risk

import (
	"errors"
	"fmt"
	"math"

	"github.com/aristath/celrisk/internal/domain"
	"github.com/aristath/celrisk/pkg/formulas"
)

const (
	// LowerBoundSigmas places every integration's lower bound at μ − 6σ.
	LowerBoundSigmas = 6.0
	// VaRZScore is the standard normal 5% lower-tail quantile magnitude.
	VaRZScore = 1.645
	// DefaultPartitions is the practical default midpoint-rule resolution.
	DefaultPartitions = 100000

	// minConditioningProbability is the smallest probability a ratio may be conditioned on.
	minConditioningProbability = 1e-300
)

// Integrator derives tail-risk metrics from a normal density fitted to a
// DistributionSummary. It holds no state between passes and is safe for
// concurrent use.
type Integrator struct {
	partitions int
}

// NewIntegrator creates an integrator using k midpoint-rule partitions per pass.
func NewIntegrator(partitions int) (*Integrator, error) {
	if partitions <= 0 {
		return nil, fmt.Errorf("%w: integration_partitions must be positive, got %d",
			domain.ErrInvalidParameters, partitions)
	}
	return &Integrator{partitions: partitions}, nil
}

// Partitions returns k.
func (in *Integrator) Partitions() int {
	return in.partitions
}

// Analyze runs the four integration passes in dependency order:
//  1. P(NPV<0) over [a, 0]
//  2. CEL, the mean of the fitted normal restricted to [a, 0]
//  3. P(NPV<CEL) over [a, CEL] and its conditional form given NPV<0
//  4. VaR_5 = μ − 1.645σ and CVaR_5, the mean restricted to [a, VaR_5]
//
// a = μ − 6σ for every pass. Callers are expected to check IsNegligible first;
// Analyze returns domain.ErrNegligibleRisk if they did not.
func (in *Integrator) Analyze(summary domain.DistributionSummary) (*domain.RiskMetrics, error) {
	if IsNegligible(summary) {
		return nil, domain.ErrNegligibleRisk
	}
	mu, sigma := summary.Mean, summary.StdDev
	if !(sigma > 0) || math.IsInf(sigma, 0) {
		return nil, domain.UndefinedMetric("fitted normal density", fmt.Sprintf("standard deviation %g is not positive", sigma))
	}

	density := formulas.NormalDensity(mu, sigma)
	lower := mu - LowerBoundSigmas*sigma

	deficit, err := in.integrate(density, lower, 0, true, "P(NPV<0)")
	if err != nil {
		return nil, err
	}
	deficitProbability := deficit.Mass

	cel, err := conditionalMean(deficit, "CEL")
	if err != nil {
		return nil, err
	}

	belowCEL, err := in.integrate(density, lower, cel, false, "P(NPV<CEL)")
	if err != nil {
		return nil, err
	}
	probBelowCEL := belowCEL.Mass

	var5 := mu - VaRZScore*sigma
	belowVaR, err := in.integrate(density, lower, var5, true, "CVaR_5")
	if err != nil {
		return nil, err
	}
	cvar5, err := conditionalMean(belowVaR, "CVaR_5")
	if err != nil {
		return nil, err
	}

	return &domain.RiskMetrics{
		DeficitProbability:             deficitProbability,
		CEL:                            cel,
		VaR5:                           var5,
		CVaR5:                          cvar5,
		ProbNPVLessThanCEL:             probBelowCEL,
		ProbNPVLessThanCELGivenDeficit: probBelowCEL / deficitProbability,
		VaRDeviation:                   mu - var5,
		CVaRDeviation:                  mu - cvar5,
		CELDeviation:                   mu - cel,
		LowerBound:                     lower,
		Partitions:                     in.partitions,
	}, nil
}

// integrate runs one midpoint-rule pass and maps primitive errors onto the domain taxonomy.
func (in *Integrator) integrate(f formulas.Density, lower, upper float64, weighted bool, pass string) (formulas.Integral, error) {
	result, err := formulas.MidpointIntegrate(f, lower, upper, in.partitions, weighted)
	switch {
	case err == nil:
		return result, nil
	case errors.Is(err, formulas.ErrNegativeWidth), errors.Is(err, formulas.ErrNonFiniteBound):
		return formulas.Integral{}, fmt.Errorf("%w: %s: %w", domain.ErrInvalidDomain, pass, err)
	default:
		return formulas.Integral{}, fmt.Errorf("%w: %s: %w", domain.ErrInvalidParameters, pass, err)
	}
}

// conditionalMean divides the first moment by the mass of the same pass.
func conditionalMean(pass formulas.Integral, metric string) (float64, error) {
	if !(pass.Mass > minConditioningProbability) || math.IsInf(pass.Mass, 0) {
		return 0, fmt.Errorf("%w: %s: conditioning probability %g is negligible",
			domain.ErrDivisionByZero, metric, pass.Mass)
	}
	return pass.Moment / pass.Mass, nil
}
