package domain

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validParams() SimulationParameters {
	return SimulationParameters{
		PlanningHorizon:   3,
		NumSimulations:    100,
		WACC:              Triangular{Min: 0.05, Mode: 0.10, Max: 0.20},
		InitialInvestment: Uniform{Low: 90e6, High: 120e6},
		PeriodCashflows:   FixedCashflows(3, Triangular{Min: 40e6, Mode: 50e6, Max: 55e6}),
		Partitions:        1000,
	}
}

func TestFixedCashflows(t *testing.T) {
	dist := Triangular{Min: 1, Mode: 2, Max: 3}
	out := FixedCashflows(4, dist)
	require.Len(t, out, 4)
	for _, d := range out {
		assert.Equal(t, dist, d)
	}
	assert.Nil(t, FixedCashflows(0, dist))
}

func TestSimulationParameters_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(p *SimulationParameters)
		field  string
	}{
		{name: "valid", mutate: func(p *SimulationParameters) {}},
		{name: "degenerate distributions are valid", mutate: func(p *SimulationParameters) {
			p.WACC = Triangular{Min: 0.1, Mode: 0.1, Max: 0.1}
			p.InitialInvestment = Uniform{Low: 5, High: 5}
		}},
		{name: "zero horizon", field: "planning_horizon", mutate: func(p *SimulationParameters) { p.PlanningHorizon = 0 }},
		{name: "zero simulations", field: "num_simulations", mutate: func(p *SimulationParameters) { p.NumSimulations = 0 }},
		{name: "negative partitions", field: "integration_partitions", mutate: func(p *SimulationParameters) { p.Partitions = -1 }},
		{name: "wacc min above mode", field: "wacc_distribution", mutate: func(p *SimulationParameters) { p.WACC.Min = 0.15 }},
		{name: "wacc mode above max", field: "wacc_distribution", mutate: func(p *SimulationParameters) { p.WACC.Mode = 0.25 }},
		{name: "wacc at minus one", field: "wacc_distribution", mutate: func(p *SimulationParameters) {
			p.WACC = Triangular{Min: -1, Mode: 0, Max: 0.1}
		}},
		{name: "investment low above high", field: "initial_investment_distribution", mutate: func(p *SimulationParameters) {
			p.InitialInvestment = Uniform{Low: 2, High: 1}
		}},
		{name: "cashflow count mismatch", field: "period_cashflow_distributions", mutate: func(p *SimulationParameters) {
			p.PeriodCashflows = p.PeriodCashflows[:2]
		}},
		{name: "cashflow ordering", field: "period_cashflow_distributions[1]", mutate: func(p *SimulationParameters) {
			p.PeriodCashflows[1] = Triangular{Min: 10, Mode: 5, Max: 20}
		}},
		{name: "residual NaN", field: "residual_value", mutate: func(p *SimulationParameters) { p.ResidualValue = math.NaN() }},
		{name: "infinite bound", field: "wacc_distribution", mutate: func(p *SimulationParameters) { p.WACC.Max = math.Inf(1) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := validParams()
			tt.mutate(&p)
			err := p.Validate()
			if tt.field == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidParameters)

			var perr *ParameterError
			require.True(t, errors.As(err, &perr))
			assert.Equal(t, tt.field, perr.Field)
		})
	}
}

func TestDistributionSummary_CV(t *testing.T) {
	cv := 12.5
	v, err := DistributionSummary{CoefficientOfVariation: &cv}.CV()
	require.NoError(t, err)
	assert.Equal(t, 12.5, v)

	_, err = DistributionSummary{}.CV()
	assert.ErrorIs(t, err, ErrUndefinedMetric)
}

func TestErrDivisionByZero_IsUndefinedMetric(t *testing.T) {
	assert.ErrorIs(t, ErrDivisionByZero, ErrUndefinedMetric)
	assert.NotErrorIs(t, ErrUndefinedMetric, ErrDivisionByZero)
}
