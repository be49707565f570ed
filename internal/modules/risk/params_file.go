package risk

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/aristath/celrisk/internal/domain"
)

// CashflowMode selects how period cash flows are entered.
type CashflowMode string

const (
	// CashflowFixed repeats one triangular distribution across the horizon.
	CashflowFixed CashflowMode = "fixed"
	// CashflowAdjusted takes one triangular distribution per period.
	CashflowAdjusted CashflowMode = "adjusted"
)

// ParamsFile is the on-disk and over-the-wire form of a parameter set.
//
//	planning_horizon: 3
//	num_simulations: 50000
//	wacc_distribution: {min: 0.05, mode: 0.10, max: 0.20}
//	initial_investment_distribution: {low: 90e6, high: 120e6}
//	cashflow_mode: fixed
//	period_cashflow_distribution: {min: 40e6, mode: 50e6, max: 55e6}
//	residual_value: 0
type ParamsFile struct {
	PlanningHorizon   int                 `json:"planning_horizon" yaml:"planning_horizon"`
	NumSimulations    int                 `json:"num_simulations" yaml:"num_simulations"`
	Partitions        int                 `json:"integration_partitions,omitempty" yaml:"integration_partitions"`
	WACC              domain.Triangular   `json:"wacc_distribution" yaml:"wacc_distribution"`
	InitialInvestment domain.Uniform      `json:"initial_investment_distribution" yaml:"initial_investment_distribution"`
	CashflowMode      CashflowMode        `json:"cashflow_mode,omitempty" yaml:"cashflow_mode"`
	PeriodCashflow    *domain.Triangular  `json:"period_cashflow_distribution,omitempty" yaml:"period_cashflow_distribution"`
	PeriodCashflows   []domain.Triangular `json:"period_cashflow_distributions,omitempty" yaml:"period_cashflow_distributions"`
	ResidualValue     float64             `json:"residual_value" yaml:"residual_value"`
}

// Parameters resolves the cash-flow mode into simulation parameters.
// An empty mode is inferred from which cash-flow field is present.
// Partitions is left zero when omitted so the caller's default applies.
func (f ParamsFile) Parameters() (domain.SimulationParameters, error) {
	mode := f.CashflowMode
	if mode == "" {
		mode = CashflowAdjusted
		if f.PeriodCashflow != nil {
			mode = CashflowFixed
		}
	}

	params := domain.SimulationParameters{
		PlanningHorizon:   f.PlanningHorizon,
		NumSimulations:    f.NumSimulations,
		WACC:              f.WACC,
		InitialInvestment: f.InitialInvestment,
		ResidualValue:     f.ResidualValue,
		Partitions:        f.Partitions,
	}

	switch mode {
	case CashflowFixed:
		if f.PeriodCashflow == nil {
			return params, paramsFileError("period_cashflow_distribution is required in fixed mode")
		}
		if len(f.PeriodCashflows) > 0 {
			return params, paramsFileError("period_cashflow_distributions is not allowed in fixed mode")
		}
		params.PeriodCashflows = domain.FixedCashflows(f.PlanningHorizon, *f.PeriodCashflow)
	case CashflowAdjusted:
		if f.PeriodCashflow != nil {
			return params, paramsFileError("period_cashflow_distribution is not allowed in adjusted mode")
		}
		params.PeriodCashflows = append([]domain.Triangular(nil), f.PeriodCashflows...)
	default:
		return params, paramsFileError(fmt.Sprintf("unknown cashflow_mode %q", mode))
	}

	return params, nil
}

// ParseParams decodes a parameter set. format is "json" or "yaml"; unknown
// keys are rejected in both.
func ParseParams(data []byte, format string) (domain.SimulationParameters, error) {
	var f ParamsFile

	switch strings.ToLower(format) {
	case "json":
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&f); err != nil {
			return domain.SimulationParameters{}, paramsFileError(err.Error())
		}
	case "yaml", "yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&f); err != nil {
			return domain.SimulationParameters{}, paramsFileError(err.Error())
		}
	default:
		return domain.SimulationParameters{}, paramsFileError(fmt.Sprintf("unsupported format %q", format))
	}

	return f.Parameters()
}

// LoadParamsFile reads a .json, .yaml or .yml parameter file.
func LoadParamsFile(path string) (domain.SimulationParameters, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.SimulationParameters{}, fmt.Errorf("failed to read params file: %w", err)
	}

	format := strings.TrimPrefix(filepath.Ext(path), ".")
	if format == "" {
		format = "yaml"
	}
	return ParseParams(data, format)
}

func paramsFileError(reason string) error {
	return &domain.ParameterError{Field: "params", Reason: reason}
}
