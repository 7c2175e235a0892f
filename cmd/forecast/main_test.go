package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVersionCmd_PrintsVersionAndCommit(t *testing.T) {
	cmd := versionCmd()
	var buf bytes.Buffer
	cmd.SetOut(&buf)

	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), "forecast")
	assert.Contains(t, buf.String(), version)
	assert.Contains(t, buf.String(), commit)
}

func TestRunCmd_RequiresConfigFlag(t *testing.T) {
	cmd := runCmd()
	cmd.SetArgs([]string{})
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)

	err := cmd.Execute()
	assert.Error(t, err, "run should fail without a required --config flag")
}

func TestRunCmd_RunsASingleTrialFromConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "trial.yaml")
	require.NoError(t, os.WriteFile(path, []byte(minimalForecastYAML), 0o644))

	cmd := runCmd()
	cmd.SetArgs([]string{"--config", path, "--trial", "3"})
	var buf bytes.Buffer
	cmd.SetOut(&buf)

	require.NoError(t, cmd.Execute())
}

const minimalForecastYAML = `
buckets:
  Cash:
    type: cash
    may_go_negative: true
    holdings:
      - asset_class: Cash
        weight: 1.0
  Brokerage:
    type: taxable
    holdings:
      - asset_class: Stocks
        weight: 1.0
  Tax Collection:
    type: other
    holdings:
      - asset_class: Cash
        weight: 1.0

seed_balances:
  Cash: 20000
  Brokerage: 200000
  Tax Collection: 0

policies:
  refill:
    taxable_eligibility: "2026-01"

tax_brackets:
  base_year: 2026
  standard_deduction: 14600
  ordinary_jurisdictions:
    - name: Federal
      brackets:
        - min: 0
          rate: 0.10

inflation:
  base_year: 2026
  years: 5
  mean: 0
  stddev: 0

profile:
  birth_month: "1970-01"
  end_month: "2026-12"
`
