package policyflow

import (
	"math"

	"github.com/forecastlab/montecore/internal/bucket"
	"github.com/forecastlab/montecore/internal/ledger"
	"github.com/forecastlab/montecore/internal/logging"
	"github.com/forecastlab/montecore/internal/txn"
	"github.com/forecastlab/montecore/pkg/month"
	"github.com/shopspring/decimal"
)

// SEPP implements txn.Transaction for IRS 72(t) Substantially Equal
// Periodic Payments (spec §4.5 "SEPP"). The monthly payment is computed
// once, at StartMonth, via amortization and then held constant for the
// entire window (spec §8 "SEPP monthly amount is constant within the SEPP
// window").
type SEPP struct {
	txn.ZeroGetters

	StartMonth  month.Month
	EndMonth    month.Month
	Principal   decimal.Decimal
	Rate        decimal.Decimal
	AgeAtStart  int
	Source      string
	Target      string

	monthlyPayment decimal.Decimal
	cached         bool
	lastWithdrawal decimal.Decimal
}

// InWindow reports whether m falls within [StartMonth, EndMonth] inclusive.
func (s *SEPP) InWindow(m month.Month) bool {
	return m.InRange(s.StartMonth, s.EndMonth)
}

// amortizedMonthly computes the IRS amortization payment: principal × rate
// / (1 − (1+rate)^(−life_expectancy)), divided into 12 monthly payments
// (spec §4.5, worked example in §8).
func amortizedMonthly(principal, rate decimal.Decimal, ageAtStart int) decimal.Decimal {
	divisor := SEPPLifeExpectancyDivisor(ageAtStart)
	if divisor.IsZero() {
		return decimal.Zero
	}
	one := decimal.NewFromInt(1)
	rateF, _ := rate.Float64()
	divisorF, _ := divisor.Float64()
	discount := one.Sub(decimal.NewFromFloat(math.Pow(1+rateF, -divisorF)))
	if discount.IsZero() {
		return decimal.Zero
	}
	annual := principal.Mul(rate).Div(discount)
	return annual.Div(decimal.NewFromInt(12))
}

func (s *SEPP) Apply(buckets *bucket.Set, l *ledger.Ledger, m month.Month, log logging.Logger) {
	s.lastWithdrawal = decimal.Zero

	if !s.InWindow(m) {
		return
	}

	if !s.cached {
		s.monthlyPayment = amortizedMonthly(s.Principal, s.Rate, s.AgeAtStart)
		s.cached = true
	}

	src, ok := buckets.Get(s.Source)
	if !ok {
		if log != nil {
			log.Warnf("sepp: source bucket %q not found; skipping", s.Source)
		}
		return
	}
	target, ok := buckets.Get(s.Target)
	if !ok {
		if log != nil {
			log.Warnf("sepp: target bucket %q not found; skipping", s.Target)
		}
		return
	}

	moved := src.Transfer(l, s.monthlyPayment, target, m, ledger.Transfer, log)
	s.lastWithdrawal = moved
}

// OrdinaryWithdrawal counts SEPP payments as ordinary tax-deferred
// withdrawals. PenaltyEligibleWithdrawal is left at zero via ZeroGetters:
// SEPP payments are never penalty-eligible, even before age 59.5 (spec
// §4.5 "Counts as ordinary withdrawal but not penalty-eligible").
func (s *SEPP) OrdinaryWithdrawal() decimal.Decimal { return s.lastWithdrawal }
