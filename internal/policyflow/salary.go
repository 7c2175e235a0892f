package policyflow

import (
	"github.com/forecastlab/montecore/internal/bucket"
	"github.com/forecastlab/montecore/internal/ledger"
	"github.com/forecastlab/montecore/internal/logging"
	"github.com/forecastlab/montecore/internal/txn"
	"github.com/forecastlab/montecore/pkg/month"
	"github.com/shopspring/decimal"
)

// Salary implements txn.Transaction for one wage earner (spec §4.5
// "Salary"). Targets maps bucket name to its share of each paycheck; shares
// need not be validated here since bucket.Set.Get reports missing buckets
// and distribute warns and skips them, matching the package's skip-and-warn
// convention.
type Salary struct {
	txn.ZeroGetters

	AnnualGross     decimal.Decimal
	AnnualBonus     decimal.Decimal
	BonusMonth      int // 1-12
	MeritRate       decimal.Decimal
	MeritMonth      int // 1-12
	Targets         map[string]decimal.Decimal
	RetirementMonth month.Month

	currentAnnualGross decimal.Decimal
	started            bool
	lastTaxable        decimal.Decimal
}

func (s *Salary) retired(m month.Month) bool {
	return !s.RetirementMonth.Equal(month.Month{}) && m.After(s.RetirementMonth)
}

// Apply distributes one month's paycheck by share, applies the merit raise
// at MeritMonth, and pays the annual bonus at BonusMonth. Pre-tax portions
// (deposits to tax-deferred targets) are excluded from the taxable-salary
// getter (spec §4.5 "does not count as salary for the tax log").
func (s *Salary) Apply(buckets *bucket.Set, l *ledger.Ledger, m month.Month, log logging.Logger) {
	s.lastTaxable = decimal.Zero

	if !s.started {
		s.currentAnnualGross = s.AnnualGross
		s.started = true
	}

	if s.retired(m) {
		return
	}

	if int(m.Month) == s.MeritMonth {
		s.currentAnnualGross = s.currentAnnualGross.Mul(decimal.NewFromInt(1).Add(s.MeritRate))
	}

	monthly := s.currentAnnualGross.Div(decimal.NewFromInt(12))
	s.distribute(buckets, l, m, monthly, log)

	if int(m.Month) == s.BonusMonth && s.AnnualBonus.GreaterThan(decimal.Zero) {
		s.distribute(buckets, l, m, s.AnnualBonus, log)
	}
}

func (s *Salary) distribute(buckets *bucket.Set, l *ledger.Ledger, m month.Month, amount decimal.Decimal, log logging.Logger) {
	for name, share := range s.Targets {
		target, ok := buckets.Get(name)
		if !ok {
			if log != nil {
				log.Warnf("salary: target bucket %q not found; skipping", name)
			}
			continue
		}
		portion := amount.Mul(share)
		target.Deposit(l, portion, "Salary", m, ledger.Deposit)
		if target.Classification != bucket.TaxDeferred {
			s.lastTaxable = s.lastTaxable.Add(portion)
		}
	}
}

func (s *Salary) Salary() decimal.Decimal { return s.lastTaxable }
