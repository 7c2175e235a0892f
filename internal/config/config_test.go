package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const minimalYAML = `
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
seed_balances:
  Cash: 10000
  Brokerage: 100000
policies:
  refill:
    thresholds: {Cash: 5000}
    refill_amounts: {Cash: 4000}
    sources:
      Cash: [Brokerage]
    liquidation_threshold: -15000
    liquidation_sources: [Brokerage]
    liquidation_targets: {Cash: 1.0}
    taxable_eligibility: "2025-01"
tax_brackets:
  base_year: 2025
  standard_deduction: 14600
  ordinary_jurisdictions:
    - name: Federal
      brackets:
        - {min: 0, rate: 0.10}
        - {min: 22000, rate: 0.12}
inflation:
  base_year: 2025
  years: 40
  mean: 0.025
  stddev: 0.01
gain_table:
  Stocks:
    low: {mean: 0.002, stddev: 0.01}
    average: {mean: 0.006, stddev: 0.01}
    high: {mean: 0.009, stddev: 0.01}
    low_cut: 0.01
    high_cut: 0.05
profile:
  birth_month: "1970-06"
  end_month: "2050-12"
forecast_months: 12
`

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "trial.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_MinimalValidConfig(t *testing.T) {
	path := writeTempConfig(t, minimalYAML)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 1970, cfg.Profile.BirthMonth.Year)
	assert.Equal(t, []string{"Cash", "Brokerage"}, cfg.BucketOrder())
}

func TestLoad_RejectsBadHoldingWeights(t *testing.T) {
	bad := minimalYAML + "\n"
	// Replace the config with one whose only bucket (Cash) has holding
	// weights summing to 0.5.
	bad = `
buckets:
  Cash:
    type: cash
    holdings:
      - asset_class: Cash
        weight: 0.5
seed_balances: {Cash: 1000}
policies:
  refill: {}
tax_brackets:
  base_year: 2025
inflation: {base_year: 2025, years: 1, mean: 0, stddev: 0}
profile:
  birth_month: "1970-01"
  end_month: "2025-12"
`
	path := writeTempConfig(t, bad)
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "holding weights")
}

func TestLoad_RejectsUnknownRefillSource(t *testing.T) {
	bad := `
buckets:
  Cash:
    type: cash
    holdings:
      - {asset_class: Cash, weight: 1.0}
seed_balances: {Cash: 1000}
policies:
  refill:
    thresholds: {Cash: 5000}
    refill_amounts: {Cash: 1000}
    sources:
      Cash: [Nonexistent]
tax_brackets: {base_year: 2025}
inflation: {base_year: 2025, years: 1, mean: 0, stddev: 0}
profile:
  birth_month: "1970-01"
  end_month: "2025-12"
`
	path := writeTempConfig(t, bad)
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Nonexistent")
}

func TestBucketOrder_CashFirstThenAlphabetical(t *testing.T) {
	cfg := &Config{Buckets: map[string]BucketDef{
		"Zeta": {}, "Cash": {}, "Alpha": {},
	}}
	assert.Equal(t, []string{"Cash", "Alpha", "Zeta"}, cfg.BucketOrder())
}
