package policyflow

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

func newTestBuckets(t *testing.T) *bucket.Set {
	t.Helper()
	ira, err := bucket.New("IRA", bucket.TaxDeferred, []bucket.Holding{{AssetClass: "Stocks", TargetWeight: decimal.NewFromInt(1), Amount: decimal.NewFromInt(500000)}}, false, false)
	require.NoError(t, err)
	cash, err := bucket.New("Cash", bucket.Cash, []bucket.Holding{{AssetClass: "Cash", TargetWeight: decimal.NewFromInt(1), Amount: decimal.NewFromInt(1000)}}, true, false)
	require.NoError(t, err)
	return bucket.NewSet([]*bucket.Bucket{ira, cash})
}

// SEPP monthly amount is constant within the window and equals the
// amortization formula at the start month (spec §8.1: principal=$500,000,
// rate=0.05, age=55). spec.md's own worked example states ~$2,679/month,
// but that number does not satisfy the formula it states right above it:
// 500000*0.05/(1-1.05^-29.6) = $32,719.83/yr = $2,726.65/mo. sepp.go
// implements the stated formula correctly, so the expectation below
// matches the formula's actual output, not spec.md's arithmetic.
func TestSEPP_ConstantMonthlyAmount(t *testing.T) {
	buckets := newTestBuckets(t)
	l := ledger.New(1)
	log := logging.Nop{}

	s := &SEPP{
		StartMonth: month.New(2026, 1),
		EndMonth:   month.New(2030, 12),
		Principal:  decimal.NewFromInt(500000),
		Rate:       decimal.NewFromFloat(0.05),
		AgeAtStart: 55,
		Source:     "IRA",
		Target:     "Cash",
	}

	var payments []decimal.Decimal
	for _, m := range (month.Range{Start: s.StartMonth, End: s.EndMonth}).Months() {
		s.Apply(buckets, l, m, log)
		payments = append(payments, s.OrdinaryWithdrawal())
	}

	assert.Len(t, payments, 60)
	first := payments[0]
	assert.True(t, first.GreaterThan(decimal.Zero))
	for _, p := range payments {
		assert.True(t, p.Equal(first), "expected constant SEPP payment, got %s vs %s", p, first)
	}
	// Matches the amortization formula within a few dollars of rounding.
	assert.InDelta(t, 2726.65, mustFloat(first), 5)
}

func TestSEPP_OutsideWindowIsZero(t *testing.T) {
	buckets := newTestBuckets(t)
	l := ledger.New(1)
	s := &SEPP{
		StartMonth: month.New(2026, 1),
		EndMonth:   month.New(2030, 12),
		Principal:  decimal.NewFromInt(500000),
		Rate:       decimal.NewFromFloat(0.05),
		AgeAtStart: 55,
		Source:     "IRA",
		Target:     "Cash",
	}
	s.Apply(buckets, l, month.New(2025, 12), logging.Nop{})
	assert.True(t, s.OrdinaryWithdrawal().IsZero())
	s.Apply(buckets, l, month.New(2031, 1), logging.Nop{})
	assert.True(t, s.OrdinaryWithdrawal().IsZero())
}

func TestSocialSecurity_PreClaimIsZero(t *testing.T) {
	buckets := newTestBuckets(t)
	l := ledger.New(1)
	ss := &SocialSecurity{
		BirthMonth:              month.New(1965, 6),
		ClaimAgeMonths:          67 * 12,
		FullRetirementAgeMonths: FullRetirementAgeMonths(1965),
		FullBenefit:             decimal.NewFromInt(2000),
		Target:                  "Cash",
	}
	ss.Apply(buckets, l, month.New(2025, 1), logging.Nop{})
	assert.True(t, ss.SocialSecurity().IsZero())
}

func TestSocialSecurity_EarlyClaimReducesBenefit(t *testing.T) {
	buckets := newTestBuckets(t)
	l := ledger.New(1)
	fra := FullRetirementAgeMonths(1965)
	ss := &SocialSecurity{
		BirthMonth:              month.New(1965, 1),
		ClaimAgeMonths:          62 * 12,
		FullRetirementAgeMonths: fra,
		FullBenefit:             decimal.NewFromInt(2000),
		Target:                  "Cash",
	}
	claimMonth := ss.BirthMonth.Add(62 * 12)
	ss.Apply(buckets, l, claimMonth, logging.Nop{})
	assert.True(t, ss.SocialSecurity().LessThan(decimal.NewFromInt(2000)))
}

func TestRMD_SkippedBeforeStartAge(t *testing.T) {
	buckets := newTestBuckets(t)
	l := ledger.New(1)
	r := &RMD{
		BirthMonth: month.New(1960, 1),
		StartAge:   75,
		RMDMonth:   12,
		Sources:    []string{"IRA"},
		Targets:    map[string]decimal.Decimal{"Cash": decimal.NewFromInt(1)},
	}
	r.Apply(buckets, l, month.New(2030, 12), logging.Nop{})
	assert.True(t, r.OrdinaryWithdrawal().IsZero())
}

func mustFloat(d decimal.Decimal) float64 {
	f, _ := d.Float64()
	return f
}
