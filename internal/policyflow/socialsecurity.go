package policyflow

import (
	"github.com/forecastlab/montecore/internal/bucket"
	"github.com/forecastlab/montecore/internal/ledger"
	"github.com/forecastlab/montecore/internal/logging"
	"github.com/forecastlab/montecore/internal/market"
	"github.com/forecastlab/montecore/internal/txn"
	"github.com/forecastlab/montecore/pkg/month"
	"github.com/shopspring/decimal"
)

// SocialSecurity implements txn.Transaction for one beneficiary's claimed
// benefit (spec §4.5 "Social Security"). ClaimAgeMonths is months past the
// birth month at which benefits were claimed; FullRetirementAgeMonths is
// looked up from the birth year via FullRetirementAgeMonths.
type SocialSecurity struct {
	txn.ZeroGetters

	BirthMonth              month.Month
	ClaimAgeMonths          int
	FullRetirementAgeMonths int
	FullBenefit             decimal.Decimal
	PayoutPct               decimal.Decimal // e.g. 0.5 for a spousal/survivor reduced payout
	Target                  string
	Inflation               *market.Series

	lastBenefit decimal.Decimal
}

// claimAdjustment applies the standard SSA early/delayed retirement
// adjustment (spec §4.5: 5/9% per month for the first 36 months early,
// 5/12% per month beyond that; 2/3% per month late, capped at age 70).
func claimAdjustment(claimAgeMonths, fullRetirementAgeMonths int) decimal.Decimal {
	one := decimal.NewFromInt(1)
	if claimAgeMonths >= fullRetirementAgeMonths {
		delayedMonths := claimAgeMonths - fullRetirementAgeMonths
		maxDelayedMonths := 70*12 - fullRetirementAgeMonths
		if delayedMonths > maxDelayedMonths {
			delayedMonths = maxDelayedMonths
		}
		bonus := decimal.NewFromFloat(2.0 / 3.0 / 100.0).Mul(decimal.NewFromInt(int64(delayedMonths)))
		return one.Add(bonus)
	}

	earlyMonths := fullRetirementAgeMonths - claimAgeMonths
	first36 := earlyMonths
	beyond36 := 0
	if first36 > 36 {
		first36 = 36
		beyond36 = earlyMonths - 36
	}
	reduction := decimal.NewFromFloat(5.0 / 9.0 / 100.0).Mul(decimal.NewFromInt(int64(first36)))
	reduction = reduction.Add(decimal.NewFromFloat(5.0 / 12.0 / 100.0).Mul(decimal.NewFromInt(int64(beyond36))))
	return one.Sub(reduction)
}

// Apply deposits the inflation-adjusted monthly benefit into Target once
// the beneficiary has reached ClaimAgeMonths; before that, the getter
// reports zero (spec §4.5 state machine "Pre-claim -> Active").
func (s *SocialSecurity) Apply(buckets *bucket.Set, l *ledger.Ledger, m month.Month, log logging.Logger) {
	s.lastBenefit = decimal.Zero

	monthsSinceBirth := s.BirthMonth.MonthsUntil(m)
	if monthsSinceBirth < s.ClaimAgeMonths {
		return
	}

	target, ok := buckets.Get(s.Target)
	if !ok {
		if log != nil {
			log.Warnf("social security: target bucket %q not found; skipping", s.Target)
		}
		return
	}

	adjustment := claimAdjustment(s.ClaimAgeMonths, s.FullRetirementAgeMonths)
	inflationMod := decimal.NewFromInt(1)
	if s.Inflation != nil {
		inflationMod = s.Inflation.CumulativeModifier(m.Year)
	}
	payout := s.PayoutPct
	if payout.IsZero() {
		payout = decimal.NewFromInt(1)
	}

	benefit := s.FullBenefit.Mul(adjustment).Mul(inflationMod).Mul(payout)
	target.Deposit(l, benefit, "Social Security", m, ledger.Deposit)
	s.lastBenefit = benefit
}

func (s *SocialSecurity) SocialSecurity() decimal.Decimal { return s.lastBenefit }
