package engine

import (
	"math/rand"
	"testing"

	"github.com/forecastlab/montecore/internal/bucket"
	"github.com/forecastlab/montecore/internal/config"
	"github.com/forecastlab/montecore/internal/ledger"
	"github.com/forecastlab/montecore/internal/logging"
	"github.com/forecastlab/montecore/internal/market"
	"github.com/forecastlab/montecore/internal/tax"
	"github.com/forecastlab/montecore/pkg/month"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func minimalConfig() *config.Config {
	return &config.Config{
		Buckets: map[string]config.BucketDef{
			"Cash": {
				Type:          "cash",
				MayGoNegative: true,
				Holdings:      []config.HoldingDef{{AssetClass: "Cash", Weight: decimal.NewFromInt(1)}},
			},
			"Brokerage": {
				Type:     "taxable",
				Holdings: []config.HoldingDef{{AssetClass: "Stocks", Weight: decimal.NewFromInt(1)}},
			},
			TaxCollectionBucketName: {
				Type:     "other",
				Holdings: []config.HoldingDef{{AssetClass: "Cash", Weight: decimal.NewFromInt(1)}},
			},
		},
		SeedBalances: map[string]decimal.Decimal{
			"Cash":                  decimal.NewFromInt(20000),
			"Brokerage":             decimal.NewFromInt(200000),
			TaxCollectionBucketName: decimal.Zero,
		},
		Policies: config.PoliciesDef{
			Refill: config.RefillPolicyDef{
				TaxableEligibility: month.New(2026, 1),
			},
		},
		TaxBrackets: config.TaxBracketsDef{
			BaseYear:          2026,
			StandardDeduction: decimal.NewFromInt(14600),
			OrdinaryJurisdictions: []config.JurisdictionDef{
				{Name: "Federal", Brackets: []config.BracketDef{
					{Min: decimal.Zero, Rate: decimal.NewFromFloat(0.10)},
					{Min: decimal.NewFromInt(22000), Rate: decimal.NewFromFloat(0.12)},
				}},
			},
		},
		Inflation: config.InflationDef{
			BaseYear: 2026,
			Years:    5,
			Mean:     decimal.Zero,
			StdDev:   decimal.Zero,
		},
		Profile: config.ProfileDef{
			BirthMonth: month.New(1970, 1),
			EndMonth:   month.New(2026, 12),
		},
	}
}

func TestNewTrial_RunsDeterministically(t *testing.T) {
	cfg := minimalConfig()

	e1, err := NewTrial(cfg, 7, logging.Nop{})
	require.NoError(t, err)
	r1, err := e1.RunTrial()
	require.NoError(t, err)

	e2, err := NewTrial(cfg, 7, logging.Nop{})
	require.NoError(t, err)
	r2, err := e2.RunTrial()
	require.NoError(t, err)

	require.Equal(t, len(r1.Snapshots), len(r2.Snapshots))
	for i := range r1.Snapshots {
		for name, bal := range r1.Snapshots[i].Balances {
			assert.True(t, bal.Equal(r2.Snapshots[i].Balances[name]),
				"snapshot %d bucket %q diverged: %s vs %s", i, name, bal, r2.Snapshots[i].Balances[name])
		}
	}
}

func TestNewTrial_DifferentTrialIndexDiverges(t *testing.T) {
	cfg := minimalConfig()
	cfg.Inflation.StdDev = decimal.NewFromFloat(0.02)
	cfg.GainTable = map[string]config.AssetGainProfileDef{
		"Stocks": {
			Low:     config.RegimeDef{Mean: decimal.NewFromFloat(0.002), StdDev: decimal.NewFromFloat(0.04)},
			Average: config.RegimeDef{Mean: decimal.NewFromFloat(0.006), StdDev: decimal.NewFromFloat(0.04)},
			High:    config.RegimeDef{Mean: decimal.NewFromFloat(0.009), StdDev: decimal.NewFromFloat(0.04)},
			LowCut:  decimal.NewFromFloat(0.01),
			HighCut: decimal.NewFromFloat(0.05),
		},
	}

	e1, err := NewTrial(cfg, 1, logging.Nop{})
	require.NoError(t, err)
	r1, err := e1.RunTrial()
	require.NoError(t, err)

	e2, err := NewTrial(cfg, 2, logging.Nop{})
	require.NoError(t, err)
	r2, err := e2.RunTrial()
	require.NoError(t, err)

	last1 := r1.Snapshots[len(r1.Snapshots)-1].Balances["Brokerage"]
	last2 := r2.Snapshots[len(r2.Snapshots)-1].Balances["Brokerage"]
	assert.False(t, last1.Equal(last2), "distinct trial indices should diverge in sampled returns")
}

func TestYearEndReconciliation_SettlesFromTaxCollectionThenCash(t *testing.T) {
	cash, err := bucket.New("Cash", bucket.Cash, []bucket.Holding{{AssetClass: "Cash", TargetWeight: decimal.NewFromInt(1), Amount: decimal.NewFromInt(1000)}}, true, false)
	require.NoError(t, err)
	collection, err := bucket.New(TaxCollectionBucketName, bucket.Other, []bucket.Holding{{AssetClass: "Cash", TargetWeight: decimal.NewFromInt(1), Amount: decimal.NewFromInt(600)}}, false, false)
	require.NoError(t, err)
	buckets := bucket.NewSet([]*bucket.Bucket{cash, collection})

	e := &Engine{
		Buckets: buckets,
		Ledger:  ledger.New(0),
		Log:     logging.Nop{},
	}

	require.NoError(t, e.settleTax(month.New(2026, 12), decimal.NewFromInt(800)))

	assert.True(t, collection.Balance().IsZero())
	assert.True(t, cash.Balance().Equal(decimal.NewFromInt(800)), "expected 1000 - 200 shortfall = 800, got %s", cash.Balance())
}

func TestYearEndReconciliation_RefundsTaxCollectionSurplus(t *testing.T) {
	cash, err := bucket.New("Cash", bucket.Cash, []bucket.Holding{{AssetClass: "Cash", TargetWeight: decimal.NewFromInt(1), Amount: decimal.NewFromInt(1000)}}, true, false)
	require.NoError(t, err)
	collection, err := bucket.New(TaxCollectionBucketName, bucket.Other, []bucket.Holding{{AssetClass: "Cash", TargetWeight: decimal.NewFromInt(1), Amount: decimal.NewFromInt(1500)}}, false, false)
	require.NoError(t, err)
	buckets := bucket.NewSet([]*bucket.Bucket{cash, collection})

	e := &Engine{
		Buckets: buckets,
		Ledger:  ledger.New(0),
		Log:     logging.Nop{},
	}

	require.NoError(t, e.settleTax(month.New(2026, 12), decimal.NewFromInt(1000)))

	assert.True(t, collection.Balance().IsZero())
	assert.True(t, cash.Balance().Equal(decimal.NewFromInt(1500)), "expected surplus 500 refunded to original 1000, got %s", cash.Balance())
}

func TestHeadroomSearch_ZeroMaxTaxRateConvertsNothing(t *testing.T) {
	// Salary alone already clears the standard deduction, so any additional
	// Roth conversion dollar is taxed at a positive effective rate.
	e := &Engine{
		Buckets:   bucket.NewSet(nil),
		YearlyLog: tax.YearlyLog{Salary: decimal.NewFromInt(30000)},
		TaxBase: TaxBase{
			Brackets: tax.Config{
				StandardDeduction: decimal.NewFromInt(14600),
				OrdinaryJurisdictions: []tax.Jurisdiction{
					{Name: "Federal", Brackets: []tax.Bracket{{Min: decimal.Zero, Rate: decimal.NewFromFloat(0.10)}}},
				},
			},
		},
		Inflation: market.GenerateSeries(rand.New(rand.NewSource(0)), 2026, 5, decimal.Zero, decimal.Zero),
	}

	phase := RothPhase{
		MaxConversion: decimal.NewFromInt(50000),
		MaxTaxRate:    decimal.Zero,
	}
	amount := e.headroomSearch(month.New(2026, 12), phase, decimal.NewFromInt(100000), decimal.NewFromInt(1000))
	assert.True(t, amount.IsZero(), "max_tax_rate=0 should allow no conversion once any tax is owed, got %s", amount)
}
