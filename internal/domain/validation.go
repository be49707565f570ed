package domain

import (
	"fmt"
	"math"
)

// Validate checks the ordering constraints of a triangular distribution.
func (t Triangular) Validate(field string) error {
	if !finite(t.Min) || !finite(t.Mode) || !finite(t.Max) {
		return invalidParam(field, "bounds must be finite")
	}
	if t.Min > t.Mode {
		return invalidParam(field, "min %g > mode %g", t.Min, t.Mode)
	}
	if t.Mode > t.Max {
		return invalidParam(field, "mode %g > max %g", t.Mode, t.Max)
	}
	return nil
}

// Validate checks the ordering constraint of a uniform distribution.
func (u Uniform) Validate(field string) error {
	if !finite(u.Low) || !finite(u.High) {
		return invalidParam(field, "bounds must be finite")
	}
	if u.Low > u.High {
		return invalidParam(field, "low %g > high %g", u.Low, u.High)
	}
	return nil
}

// Validate fails fast with ErrInvalidParameters on the first violated constraint.
func (p SimulationParameters) Validate() error {
	if p.PlanningHorizon <= 0 {
		return invalidParam("planning_horizon", "must be positive, got %d", p.PlanningHorizon)
	}
	if p.NumSimulations <= 0 {
		return invalidParam("num_simulations", "must be positive, got %d", p.NumSimulations)
	}
	if p.Partitions <= 0 {
		return invalidParam("integration_partitions", "must be positive, got %d", p.Partitions)
	}
	if err := p.WACC.Validate("wacc_distribution"); err != nil {
		return err
	}
	// (1 + WACC)^t must stay positive
	if p.WACC.Min <= -1 {
		return invalidParam("wacc_distribution", "min %g must be greater than -1", p.WACC.Min)
	}
	if err := p.InitialInvestment.Validate("initial_investment_distribution"); err != nil {
		return err
	}
	if len(p.PeriodCashflows) != p.PlanningHorizon {
		return invalidParam("period_cashflow_distributions",
			"expected %d entries, got %d", p.PlanningHorizon, len(p.PeriodCashflows))
	}
	for i, cf := range p.PeriodCashflows {
		if err := cf.Validate(fmt.Sprintf("period_cashflow_distributions[%d]", i)); err != nil {
			return err
		}
	}
	if !finite(p.ResidualValue) {
		return invalidParam("residual_value", "must be finite")
	}
	return nil
}

func finite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}
