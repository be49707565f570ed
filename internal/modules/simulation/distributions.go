package simulation

import (
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/aristath/celrisk/internal/domain"
)

// drawer yields one random variate per call.
type drawer interface {
	Rand() float64
}

// pointMass is the degenerate distribution of a parameter set with zero width.
// gonum's Triangle requires min < max.
type pointMass float64

func (p pointMass) Rand() float64 { return float64(p) }

func newTriangular(t domain.Triangular, src rand.Source) drawer {
	if t.Min == t.Max {
		return pointMass(t.Min)
	}
	// distuv.NewTriangle takes (lower, upper, mode)
	return distuv.NewTriangle(t.Min, t.Max, t.Mode, src)
}

func newUniform(u domain.Uniform, src rand.Source) drawer {
	if u.Low == u.High {
		return pointMass(u.Low)
	}
	return distuv.Uniform{Min: u.Low, Max: u.High, Src: src}
}

// trialModel holds the per-worker distributions of one parameter set. All
// drawers of a model share one source, so a model must not be used from more
// than one goroutine.
type trialModel struct {
	investment drawer
	wacc       drawer
	cashflows  []drawer
	residual   float64
	horizon    int
}

func newTrialModel(params domain.SimulationParameters, src rand.Source) *trialModel {
	cashflows := make([]drawer, len(params.PeriodCashflows))
	for i, cf := range params.PeriodCashflows {
		cashflows[i] = newTriangular(cf, src)
	}
	return &trialModel{
		investment: newUniform(params.InitialInvestment, src),
		wacc:       newTriangular(params.WACC, src),
		cashflows:  cashflows,
		residual:   params.ResidualValue,
		horizon:    params.PlanningHorizon,
	}
}

// npv draws one trial and returns its net present value.
func (m *trialModel) npv() float64 {
	value := -m.investment.Rand()

	// One WACC draw discounts every period of the trial
	wacc := m.wacc.Rand()
	discount := 1.0
	for t := 1; t <= m.horizon; t++ {
		discount *= 1 + wacc
		value += m.cashflows[t-1].Rand() / discount
	}

	// discount now equals (1+WACC)^horizon
	return value + m.residual/discount
}
