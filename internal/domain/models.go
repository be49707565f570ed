// Package domain provides the core models of the NPV risk engine: simulation
// parameters, the descriptive summary of a simulated NPV distribution and the
// tail-risk metrics derived from it.
package domain

// Triangular holds the parameters of a triangular distribution.
type Triangular struct {
	Min  float64 `json:"min" yaml:"min"`
	Mode float64 `json:"mode" yaml:"mode"`
	Max  float64 `json:"max" yaml:"max"`
}

// Uniform holds the parameters of a continuous uniform distribution.
type Uniform struct {
	Low  float64 `json:"low" yaml:"low"`
	High float64 `json:"high" yaml:"high"`
}

// SimulationParameters is the immutable configuration of one run.
type SimulationParameters struct {
	PlanningHorizon int        `json:"planning_horizon"`
	NumSimulations  int        `json:"num_simulations"`
	WACC            Triangular `json:"wacc_distribution"`
	// InitialInvestment is drawn once per trial and enters the NPV as an outflow.
	InitialInvestment Uniform `json:"initial_investment_distribution"`
	// PeriodCashflows holds one distribution per period, t = 1..PlanningHorizon.
	PeriodCashflows []Triangular `json:"period_cashflow_distributions"`
	// ResidualValue is realized at the final period and discounted at the horizon.
	ResidualValue float64 `json:"residual_value"`
	// Partitions is the midpoint-rule resolution k.
	Partitions int `json:"integration_partitions"`
}

// FixedCashflows repeats a single per-period distribution across the horizon.
func FixedCashflows(horizon int, dist Triangular) []Triangular {
	if horizon <= 0 {
		return nil
	}
	out := make([]Triangular, horizon)
	for i := range out {
		out[i] = dist
	}
	return out
}

// DistributionSummary holds descriptive statistics of a simulated NPV sample.
// It is computed once after sampling and never mutated.
type DistributionSummary struct {
	Count  int     `json:"count"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Range  float64 `json:"range"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"` // population (divide-by-N)
	Median float64 `json:"median"`
	// CoefficientOfVariation is (σ/μ)*100; nil when μ = 0.
	CoefficientOfVariation *float64 `json:"coefficient_of_variation"`
}

// CV returns the coefficient of variation, or ErrUndefinedMetric when the mean is zero.
func (s DistributionSummary) CV() (float64, error) {
	if s.CoefficientOfVariation == nil {
		return 0, UndefinedMetric("coefficient of variation", "mean is zero")
	}
	return *s.CoefficientOfVariation, nil
}

// RiskMetrics holds the tail-risk figures derived from the fitted normal density.
type RiskMetrics struct {
	DeficitProbability             float64 `json:"deficit_probability"`
	CEL                            float64 `json:"cel"`
	VaR5                           float64 `json:"var_5"`
	CVaR5                          float64 `json:"cvar_5"`
	ProbNPVLessThanCEL             float64 `json:"prob_npv_less_than_cel"`
	ProbNPVLessThanCELGivenDeficit float64 `json:"prob_npv_less_than_cel_given_deficit"`
	VaRDeviation                   float64 `json:"var_deviation"`
	CVaRDeviation                  float64 `json:"cvar_deviation"`
	CELDeviation                   float64 `json:"cel_deviation"`

	LowerBound float64 `json:"lower_bound"`
	Partitions int     `json:"partitions"`
}

// OutcomeStatus tags how a pipeline run ended.
type OutcomeStatus string

const (
	// OutcomeComputed means RiskMetrics were produced.
	OutcomeComputed OutcomeStatus = "computed"
	// OutcomeNegligibleRisk means μ − 6σ > 0 and the integrations were skipped.
	OutcomeNegligibleRisk OutcomeStatus = "negligible_risk"
)

// Evaluation is the result of evaluating one NPV sample: the summary, and the
// metrics when the deficit risk is not negligible.
type Evaluation struct {
	Status  OutcomeStatus       `json:"status"`
	Summary DistributionSummary `json:"summary"`
	Metrics *RiskMetrics        `json:"metrics,omitempty"`
}
