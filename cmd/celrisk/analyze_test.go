package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/celrisk/internal/domain"
	"github.com/aristath/celrisk/internal/report"
)

const paramsYAML = `planning_horizon: 3
num_simulations: 2000
wacc_distribution: {min: 0.05, mode: 0.10, max: 0.20}
initial_investment_distribution: {low: 90e6, high: 120e6}
cashflow_mode: fixed
period_cashflow_distribution: {min: 40e6, mode: 50e6, max: 55e6}
residual_value: 0
`

func writeParams(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "project.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	RootCmd.SetOut(&out)
	RootCmd.SetErr(&out)
	RootCmd.SetArgs(args)
	t.Cleanup(func() {
		RootCmd.SetArgs(nil)
		// cobra keeps parsed flag values between executions
		for _, name := range []string{"seed", "workers", "partitions"} {
			_ = analyzeCmd.Flags().Set(name, "0")
		}
		_ = analyzeCmd.Flags().Set("json", "false")
	})
	err := RootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestAnalyze_Tables(t *testing.T) {
	out, err := execute(t, "analyze", "--params", writeParams(t, paramsYAML),
		"--seed", "42", "--workers", "2", "--partitions", "1000")
	require.NoError(t, err)

	assert.Contains(t, out, "seed=42")
	assert.Contains(t, out, "STATISTICS DESCRIPTIVE")
	assert.Contains(t, out, "STATISTICS INFERENTIAL")
	assert.NotContains(t, out, report.NegligibleRiskNotice)
}

func TestAnalyze_JSON(t *testing.T) {
	out, err := execute(t, "analyze", "--params", writeParams(t, paramsYAML),
		"--seed", "42", "--workers", "2", "--partitions", "1000", "--json")
	require.NoError(t, err)

	var run domain.Run
	require.NoError(t, json.Unmarshal([]byte(out), &run))
	assert.Equal(t, uint64(42), run.Seed)
	assert.Equal(t, 1000, run.Partitions)
	assert.Equal(t, 2000, run.Summary.Count)
	assert.Equal(t, domain.OutcomeComputed, run.Status)
	require.NotNil(t, run.Metrics)
}

func TestAnalyze_InvalidParams(t *testing.T) {
	_, err := execute(t, "analyze", "--params", writeParams(t, "planning_horizon: 0\n"))
	assert.ErrorIs(t, err, domain.ErrInvalidParameters)
}

func TestAnalyze_NegativePartitions(t *testing.T) {
	_, err := execute(t, "analyze", "--params", writeParams(t, paramsYAML), "--partitions", "-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must not be negative")
}

func TestAnalyze_ZeroPartitionsUsesDefault(t *testing.T) {
	out, err := execute(t, "analyze", "--params", writeParams(t, paramsYAML),
		"--seed", "3", "--workers", "2", "--partitions", "0", "--json")
	require.NoError(t, err)

	var run domain.Run
	require.NoError(t, json.Unmarshal([]byte(out), &run))
	assert.Equal(t, 100000, run.Partitions)
}
