package refill

import (
	"testing"

	"github.com/forecastlab/montecore/internal/bucket"
	"github.com/forecastlab/montecore/internal/ledger"
	"github.com/forecastlab/montecore/internal/logging"
	"github.com/forecastlab/montecore/pkg/month"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildBuckets(t *testing.T, cashAmount, iraAmount decimal.Decimal) *bucket.Set {
	t.Helper()
	cash, err := bucket.New("Cash", bucket.Cash, []bucket.Holding{{AssetClass: "Cash", TargetWeight: decimal.NewFromInt(1), Amount: cashAmount}}, true, false)
	require.NoError(t, err)
	ira, err := bucket.New("IRA", bucket.TaxDeferred, []bucket.Holding{{AssetClass: "Stocks", TargetWeight: decimal.NewFromInt(1), Amount: iraAmount}}, false, false)
	require.NoError(t, err)
	return bucket.NewSet([]*bucket.Bucket{cash, ira})
}

func TestGenerateRefills_DrawsToThreshold(t *testing.T) {
	buckets := buildBuckets(t, decimal.NewFromInt(1000), decimal.NewFromInt(100000))
	l := ledger.New(1)
	p := &Policy{
		Thresholds:    map[string]decimal.Decimal{"Cash": decimal.NewFromInt(5000)},
		RefillAmounts: map[string]decimal.Decimal{"Cash": decimal.NewFromInt(4000)},
		Sources:       map[string][]string{"Cash": {"IRA"}},
	}
	txns := p.GenerateRefills(buckets, l, month.New(2026, 1), logging.Nop{})
	require.Len(t, txns, 1)
	assert.True(t, txns[0].OrdinaryWithdrawal().Equal(decimal.NewFromInt(4000)))

	cash, _ := buckets.Get("Cash")
	assert.True(t, cash.Balance().Equal(decimal.NewFromInt(5000)))
}

// Refill policy never draws from a tax-deferred source during the SEPP
// window (spec §8 universal invariant).
func TestGenerateRefills_SkipsTaxDeferredDuringSEPPWindow(t *testing.T) {
	buckets := buildBuckets(t, decimal.NewFromInt(1000), decimal.NewFromInt(100000))
	l := ledger.New(1)
	p := &Policy{
		Thresholds:     map[string]decimal.Decimal{"Cash": decimal.NewFromInt(5000)},
		RefillAmounts:  map[string]decimal.Decimal{"Cash": decimal.NewFromInt(4000)},
		Sources:        map[string][]string{"Cash": {"IRA"}},
		SEPPWindowStart: month.New(2026, 1),
		SEPPWindowEnd:   month.New(2030, 12),
	}
	txns := p.GenerateRefills(buckets, l, month.New(2027, 6), logging.Nop{})
	assert.Empty(t, txns)

	cash, _ := buckets.Get("Cash")
	assert.True(t, cash.Balance().Equal(decimal.NewFromInt(1000)))
}

// Property liquidation split (spec §8 worked example): Property balance
// $800,000; Cash at -$5,000 against a $5,000 threshold (a $10,000
// shortfall); split 20% Cash / 80% Brokerage.
func TestGenerateLiquidations_PropertySplit(t *testing.T) {
	cash, err := bucket.New("Cash", bucket.Cash, []bucket.Holding{{AssetClass: "Cash", TargetWeight: decimal.NewFromInt(1), Amount: decimal.NewFromInt(-5000)}}, true, false)
	require.NoError(t, err)
	property, err := bucket.New("Property", bucket.Property, []bucket.Holding{{AssetClass: "Property", TargetWeight: decimal.NewFromInt(1), Amount: decimal.NewFromInt(800000)}}, false, false)
	require.NoError(t, err)
	brokerage, err := bucket.New("Brokerage", bucket.Taxable, []bucket.Holding{{AssetClass: "Stocks", TargetWeight: decimal.NewFromInt(1), Amount: decimal.Zero}}, false, false)
	require.NoError(t, err)
	buckets := bucket.NewSet([]*bucket.Bucket{cash, property, brokerage})

	l := ledger.New(1)
	p := &Policy{
		LiquidationThreshold: decimal.NewFromInt(5000),
		LiquidationSources:   []string{"Property"},
		LiquidationTargets:   map[string]decimal.Decimal{"Cash": decimal.NewFromFloat(0.2), "Brokerage": decimal.NewFromFloat(0.8)},
	}
	txns := p.GenerateLiquidations(buckets, l, month.New(2026, 1), 60*12, logging.Nop{})
	require.Len(t, txns, 2)

	propBucket, _ := buckets.Get("Property")
	assert.True(t, propBucket.Balance().IsZero())

	cashBucket, _ := buckets.Get("Cash")
	assert.True(t, cashBucket.Balance().Equal(decimal.NewFromInt(155000)), "got %s", cashBucket.Balance())

	brokerageBucket, _ := buckets.Get("Brokerage")
	assert.True(t, brokerageBucket.Balance().Equal(decimal.NewFromInt(640000)))
}
