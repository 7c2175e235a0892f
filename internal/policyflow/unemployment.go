package policyflow

import (
	"github.com/forecastlab/montecore/internal/bucket"
	"github.com/forecastlab/montecore/internal/ledger"
	"github.com/forecastlab/montecore/internal/logging"
	"github.com/forecastlab/montecore/internal/txn"
	"github.com/forecastlab/montecore/pkg/month"
	"github.com/shopspring/decimal"
)

// Unemployment implements txn.Transaction for unemployment benefits (spec
// §4.5 "Unemployment"): a flat deposit within [Start, End], counted as
// ordinary unemployment income rather than payroll salary.
type Unemployment struct {
	txn.ZeroGetters

	Start         month.Month
	End           month.Month
	MonthlyAmount decimal.Decimal
	Target        string

	lastBenefit decimal.Decimal
}

func (u *Unemployment) Apply(buckets *bucket.Set, l *ledger.Ledger, m month.Month, log logging.Logger) {
	u.lastBenefit = decimal.Zero

	if !m.InRange(u.Start, u.End) {
		return
	}

	target, ok := buckets.Get(u.Target)
	if !ok {
		if log != nil {
			log.Warnf("unemployment: target bucket %q not found; skipping", u.Target)
		}
		return
	}

	target.Deposit(l, u.MonthlyAmount, "Unemployment", m, ledger.Deposit)
	u.lastBenefit = u.MonthlyAmount
}

func (u *Unemployment) Unemployment() decimal.Decimal { return u.lastBenefit }
