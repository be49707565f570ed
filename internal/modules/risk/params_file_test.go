package risk

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/celrisk/internal/domain"
)

const fixedYAML = `
planning_horizon: 3
num_simulations: 50000
integration_partitions: 100000
wacc_distribution: {min: 0.05, mode: 0.10, max: 0.20}
initial_investment_distribution: {low: 90e6, high: 120e6}
cashflow_mode: fixed
period_cashflow_distribution: {min: 40e6, mode: 50e6, max: 55e6}
residual_value: 0
`

func TestParseParams_FixedYAML(t *testing.T) {
	params, err := ParseParams([]byte(fixedYAML), "yaml")
	require.NoError(t, err)

	assert.Equal(t, 3, params.PlanningHorizon)
	assert.Equal(t, 50000, params.NumSimulations)
	assert.Equal(t, 100000, params.Partitions)
	assert.Equal(t, domain.Triangular{Min: 0.05, Mode: 0.10, Max: 0.20}, params.WACC)
	assert.Equal(t, domain.Uniform{Low: 90e6, High: 120e6}, params.InitialInvestment)
	assert.Equal(t, domain.FixedCashflows(3, domain.Triangular{Min: 40e6, Mode: 50e6, Max: 55e6}), params.PeriodCashflows)
	assert.NoError(t, params.Validate())
}

func TestParseParams_AdjustedJSON(t *testing.T) {
	body := `{
		"planning_horizon": 2,
		"num_simulations": 10,
		"wacc_distribution": {"min": 0.05, "mode": 0.1, "max": 0.2},
		"initial_investment_distribution": {"low": 10, "high": 20},
		"cashflow_mode": "adjusted",
		"period_cashflow_distributions": [
			{"min": 1, "mode": 2, "max": 3},
			{"min": 4, "mode": 5, "max": 6}
		],
		"residual_value": 7
	}`

	params, err := ParseParams([]byte(body), "json")
	require.NoError(t, err)

	require.Len(t, params.PeriodCashflows, 2)
	assert.Equal(t, domain.Triangular{Min: 4, Mode: 5, Max: 6}, params.PeriodCashflows[1])
	assert.Equal(t, 7.0, params.ResidualValue)
	assert.Equal(t, 0, params.Partitions)
}

func TestParamsFile_InfersMode(t *testing.T) {
	cf := domain.Triangular{Min: 1, Mode: 2, Max: 3}

	params, err := ParamsFile{PlanningHorizon: 2, PeriodCashflow: &cf}.Parameters()
	require.NoError(t, err)
	assert.Len(t, params.PeriodCashflows, 2)

	params, err = ParamsFile{PlanningHorizon: 1, PeriodCashflows: []domain.Triangular{cf}}.Parameters()
	require.NoError(t, err)
	assert.Len(t, params.PeriodCashflows, 1)
}

func TestParseParams_Errors(t *testing.T) {
	cf := domain.Triangular{Min: 1, Mode: 2, Max: 3}

	tests := []struct {
		name string
		run  func() error
	}{
		{"unknown yaml key", func() error {
			_, err := ParseParams([]byte(fixedYAML+"bogus: 1\n"), "yaml")
			return err
		}},
		{"unknown json key", func() error {
			_, err := ParseParams([]byte(`{"bogus": 1}`), "json")
			return err
		}},
		{"unsupported format", func() error {
			_, err := ParseParams([]byte(`x = 1`), "toml")
			return err
		}},
		{"fixed without distribution", func() error {
			_, err := ParamsFile{CashflowMode: CashflowFixed}.Parameters()
			return err
		}},
		{"fixed with list", func() error {
			_, err := ParamsFile{CashflowMode: CashflowFixed, PeriodCashflow: &cf, PeriodCashflows: []domain.Triangular{cf}}.Parameters()
			return err
		}},
		{"adjusted with single", func() error {
			_, err := ParamsFile{CashflowMode: CashflowAdjusted, PeriodCashflow: &cf}.Parameters()
			return err
		}},
		{"unknown mode", func() error {
			_, err := ParamsFile{CashflowMode: "weekly"}.Parameters()
			return err
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.run(), domain.ErrInvalidParameters)
		})
	}
}

func TestLoadParamsFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "params.yaml")
	require.NoError(t, os.WriteFile(path, []byte(fixedYAML), 0o600))

	params, err := LoadParamsFile(path)
	require.NoError(t, err)
	assert.Equal(t, 3, params.PlanningHorizon)

	_, err = LoadParamsFile(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}
