// Package report renders run evaluations as console tables.
package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/aristath/celrisk/internal/domain"
)

// NegligibleRiskNotice is printed instead of the inferential table when μ − 6σ > 0.
const NegligibleRiskNotice = "The probability of NPV being negative is negligible; tail-risk metrics were not computed."

// Formatter writes evaluations to an output stream.
type Formatter struct {
	out   io.Writer
	style table.Style
}

// NewFormatter creates a formatter writing to out.
func NewFormatter(out io.Writer) *Formatter {
	return &Formatter{out: out, style: table.StyleRounded}
}

// WithStyle overrides the table style.
func (f *Formatter) WithStyle(style table.Style) *Formatter {
	f.style = style
	return f
}

// WriteRun prints the run header followed by the evaluation tables.
func (f *Formatter) WriteRun(run *domain.Run) {
	fmt.Fprintf(f.out, "Run %s  seed=%d  workers=%d  partitions=%d  trials=%d\n",
		run.ID, run.Seed, run.Workers, run.Partitions, run.Summary.Count)
	f.WriteEvaluation(run.Evaluation())
}

// WriteEvaluation prints the descriptive table, then either the inferential
// table or the negligible-risk notice.
func (f *Formatter) WriteEvaluation(eval domain.Evaluation) {
	f.render("STATISTICS DESCRIPTIVE", descriptiveRows(eval.Summary))

	if eval.Status == domain.OutcomeNegligibleRisk || eval.Metrics == nil {
		fmt.Fprintln(f.out, NegligibleRiskNotice)
		return
	}
	f.render("STATISTICS INFERENTIAL", inferentialRows(eval.Metrics))
}

func (f *Formatter) render(title string, rows []table.Row) {
	t := table.NewWriter()
	t.SetOutputMirror(f.out)
	t.SetStyle(f.style)
	t.SetTitle(title)
	t.AppendHeader(table.Row{"Statistic", "Value"})
	t.AppendRows(rows)
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignRight},
	})
	t.Render()
}

func descriptiveRows(s domain.DistributionSummary) []table.Row {
	cv := "undefined (mean is zero)"
	if s.CoefficientOfVariation != nil {
		cv = formatValue(*s.CoefficientOfVariation)
	}
	return []table.Row{
		{"Minimum", formatValue(s.Min)},
		{"Maximum", formatValue(s.Max)},
		{"Range", formatValue(s.Range)},
		{"Mean", formatValue(s.Mean)},
		{"Standard Deviation", formatValue(s.StdDev)},
		{"Coefficient of Variation", cv},
		{"Median", formatValue(s.Median)},
	}
}

func inferentialRows(m *domain.RiskMetrics) []table.Row {
	return []table.Row{
		{"P(NPV < 0)", formatValue(m.DeficitProbability)},
		{"VaR5%", formatValue(m.VaR5)},
		{"CVaR5%", formatValue(m.CVaR5)},
		{"CEL", formatValue(m.CEL)},
		{"P(NPV < CEL)", formatValue(m.ProbNPVLessThanCEL)},
		{"P(NPV < CEL | NPV < 0)", formatValue(m.ProbNPVLessThanCELGivenDeficit)},
		{"VaR deviation", formatValue(m.VaRDeviation)},
		{"CVaR deviation", formatValue(m.CVaRDeviation)},
		{"CEL deviation", formatValue(m.CELDeviation)},
	}
}

// formatValue prints large magnitudes with two decimals and keeps precision
// for probabilities and other small figures.
func formatValue(v float64) string {
	if v >= 1000 || v <= -1000 {
		return strconv.FormatFloat(v, 'f', 2, 64)
	}
	return strconv.FormatFloat(v, 'g', 6, 64)
}
