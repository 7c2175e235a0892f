package txn

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

func TestZeroGetters_AllReturnZero(t *testing.T) {
	var z ZeroGetters
	assert.True(t, z.Salary().IsZero())
	assert.True(t, z.Unemployment().IsZero())
	assert.True(t, z.SocialSecurity().IsZero())
	assert.True(t, z.OrdinaryWithdrawal().IsZero())
	assert.True(t, z.RealizedGain().IsZero())
	assert.True(t, z.TaxableGain().IsZero())
	assert.True(t, z.TaxFreeWithdrawal().IsZero())
	assert.True(t, z.FixedIncomeInterest().IsZero())
	assert.True(t, z.FixedIncomeWithdrawal().IsZero())
	assert.True(t, z.PenaltyEligibleWithdrawal().IsZero())
}

type fakeTransaction struct {
	ZeroGetters
	salary decimal.Decimal
	gain   decimal.Decimal
}

func (f fakeTransaction) Apply(*bucket.Set, *ledger.Ledger, month.Month, logging.Logger) {}
func (f fakeTransaction) Salary() decimal.Decimal                                        { return f.salary }
func (f fakeTransaction) RealizedGain() decimal.Decimal                                  { return f.gain }

func TestAccumulateInto_SumsAcrossMultipleTransactions(t *testing.T) {
	totals := map[string]decimal.Decimal{}
	AccumulateInto(fakeTransaction{salary: decimal.NewFromInt(4000), gain: decimal.NewFromInt(100)}, totals)
	AccumulateInto(fakeTransaction{salary: decimal.NewFromInt(4000), gain: decimal.NewFromInt(50)}, totals)

	assert.True(t, totals["salary"].Equal(decimal.NewFromInt(8000)))
	assert.True(t, totals["realized_gain"].Equal(decimal.NewFromInt(150)))
	assert.True(t, totals["unemployment"].IsZero(), "category never contributed to should stay at the map's zero value")
}

func TestClassifyWithdrawal_TaxDeferredIsFullyOrdinary(t *testing.T) {
	src := &bucket.Bucket{Classification: bucket.TaxDeferred}
	ordinary, gain, taxableGain, taxFree := classifyWithdrawal(src, decimal.NewFromInt(1000))

	assert.True(t, ordinary.Equal(decimal.NewFromInt(1000)))
	assert.True(t, gain.IsZero())
	assert.True(t, taxableGain.IsZero())
	assert.True(t, taxFree.IsZero())
}

func TestClassifyWithdrawal_TaxFreeIsFullyTaxFree(t *testing.T) {
	src := &bucket.Bucket{Classification: bucket.TaxFree}
	_, _, _, taxFree := classifyWithdrawal(src, decimal.NewFromInt(500))

	assert.True(t, taxFree.Equal(decimal.NewFromInt(500)))
}

func TestClassifyWithdrawal_TaxableUsesFiftyPercentGainHeuristic(t *testing.T) {
	src := &bucket.Bucket{Classification: bucket.Taxable}
	ordinary, gain, taxableGain, _ := classifyWithdrawal(src, decimal.NewFromInt(1000))

	assert.True(t, ordinary.IsZero())
	assert.True(t, gain.Equal(decimal.NewFromInt(500)))
	assert.True(t, taxableGain.Equal(decimal.NewFromInt(500)))
}

func TestClassifyWithdrawal_NilSourceOrZeroAmountIsNoOp(t *testing.T) {
	ordinary, gain, taxableGain, taxFree := classifyWithdrawal(nil, decimal.NewFromInt(1000))
	assert.True(t, ordinary.IsZero() && gain.IsZero() && taxableGain.IsZero() && taxFree.IsZero())

	src := &bucket.Bucket{Classification: bucket.Taxable}
	ordinary, gain, taxableGain, taxFree = classifyWithdrawal(src, decimal.Zero)
	assert.True(t, ordinary.IsZero() && gain.IsZero() && taxableGain.IsZero() && taxFree.IsZero())
}

func TestRouteWithdrawalTarget_PreEligibilityAdvantagedRoutesToCash(t *testing.T) {
	traditional := &bucket.Bucket{Name: "Traditional401k", Classification: bucket.TaxDeferred}
	eligibility := month.New(2030, 1)

	got := routeWithdrawalTarget(traditional, month.New(2026, 6), eligibility)
	assert.Nil(t, got, "pre-eligibility tax-advantaged withdrawal should be routed away to Cash")
}

func TestRouteWithdrawalTarget_PostEligibilityUsesTargetDirectly(t *testing.T) {
	traditional := &bucket.Bucket{Name: "Traditional401k", Classification: bucket.TaxDeferred}
	eligibility := month.New(2030, 1)

	got := routeWithdrawalTarget(traditional, month.New(2031, 1), eligibility)
	assert.Same(t, traditional, got)
}

func TestRouteWithdrawalTarget_TaxableBucketIsAlwaysDirect(t *testing.T) {
	taxable := &bucket.Bucket{Name: "Brokerage", Classification: bucket.Taxable}
	got := routeWithdrawalTarget(taxable, month.New(2020, 1), month.New(2030, 1))
	assert.Same(t, taxable, got)
}

func TestScheduledFlow_FixedRowFiresOnlyInItsMonth(t *testing.T) {
	cash, err := bucket.New("Cash", bucket.Cash, []bucket.Holding{{AssetClass: "Cash", TargetWeight: decimal.NewFromInt(1)}}, true, false)
	require.NoError(t, err)
	set := bucket.NewSet([]*bucket.Bucket{cash})
	l := ledger.New(0)

	flow := NewFixed([]ScheduleRow{
		{Month: month.New(2026, 6), Bucket: "Cash", Amount: decimal.NewFromInt(5000), Type: "Bonus", Description: "Signing bonus"},
	}, 2026, month.New(2026, 1), nil, nil)

	flow.Apply(set, l, month.New(2026, 5), logging.Nop{})
	assert.True(t, cash.Balance().IsZero(), "fixed row should not fire outside its configured month")

	flow.Apply(set, l, month.New(2026, 6), logging.Nop{})
	assert.True(t, cash.Balance().Equal(decimal.NewFromInt(5000)))
}

func TestScheduledFlow_RecurringRowRespectsStartAndEnd(t *testing.T) {
	cash, err := bucket.New("Cash", bucket.Cash, []bucket.Holding{{AssetClass: "Cash", TargetWeight: decimal.NewFromInt(1)}}, true, false)
	require.NoError(t, err)
	set := bucket.NewSet([]*bucket.Bucket{cash})
	l := ledger.New(0)

	flow := NewRecurring([]ScheduleRow{
		{Start: month.New(2026, 1), End: month.New(2026, 3), Bucket: "Cash", Amount: decimal.NewFromInt(-1000), Type: "Rent", Description: "Rent"},
	}, month.New(2026, 1), nil, nil)

	flow.Apply(set, l, month.New(2026, 2), logging.Nop{})
	assert.True(t, cash.Balance().Equal(decimal.NewFromInt(-1000)))

	flow.Apply(set, l, month.New(2026, 4), logging.Nop{})
	assert.True(t, cash.Balance().Equal(decimal.NewFromInt(-1000)), "row should not fire after its End month")
}

func TestScheduledFlow_WithdrawalFromTaxableClassifiesHalfAsGain(t *testing.T) {
	brokerage, err := bucket.New("Brokerage", bucket.Taxable, []bucket.Holding{{AssetClass: "Stocks", TargetWeight: decimal.NewFromInt(1), Amount: decimal.NewFromInt(10000)}}, false, false)
	require.NoError(t, err)
	set := bucket.NewSet([]*bucket.Bucket{brokerage})
	l := ledger.New(0)

	flow := NewFixed([]ScheduleRow{
		{Month: month.New(2026, 3), Bucket: "Brokerage", Amount: decimal.NewFromInt(-2000), Type: "OneOff", Description: "Big purchase"},
	}, 2026, month.New(2026, 1), nil, nil)

	flow.Apply(set, l, month.New(2026, 3), logging.Nop{})

	assert.True(t, flow.RealizedGain().Equal(decimal.NewFromInt(1000)))
	assert.True(t, flow.TaxableGain().Equal(decimal.NewFromInt(1000)))
	assert.True(t, brokerage.Balance().Equal(decimal.NewFromInt(8000)))
}

func TestScheduledFlow_MissingBucketSkipsRowAndWarns(t *testing.T) {
	set := bucket.NewSet(nil)
	l := ledger.New(0)

	flow := NewFixed([]ScheduleRow{
		{Month: month.New(2026, 1), Bucket: "Nonexistent", Amount: decimal.NewFromInt(100), Type: "X", Description: "X"},
	}, 2026, month.New(2026, 1), nil, nil)

	rec := &logging.Recorder{}
	flow.Apply(set, l, month.New(2026, 1), rec)
	assert.Empty(t, l.Entries())
	assert.Len(t, rec.Warn, 1)
}

func TestScheduledFlow_ResetsLastAmountsEachApply(t *testing.T) {
	brokerage, err := bucket.New("Brokerage", bucket.Taxable, []bucket.Holding{{AssetClass: "Stocks", TargetWeight: decimal.NewFromInt(1), Amount: decimal.NewFromInt(10000)}}, false, false)
	require.NoError(t, err)
	set := bucket.NewSet([]*bucket.Bucket{brokerage})
	l := ledger.New(0)

	flow := NewFixed([]ScheduleRow{
		{Month: month.New(2026, 1), Bucket: "Brokerage", Amount: decimal.NewFromInt(-1000), Type: "X", Description: "X"},
	}, 2026, month.New(2026, 1), nil, nil)

	flow.Apply(set, l, month.New(2026, 1), logging.Nop{})
	assert.False(t, flow.RealizedGain().IsZero())

	flow.Apply(set, l, month.New(2026, 2), logging.Nop{})
	assert.True(t, flow.RealizedGain().IsZero(), "a tick with no active rows must clear the prior tick's accumulated amounts")
}
