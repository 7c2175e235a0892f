package engine

import (
	"fmt"

	"github.com/forecastlab/montecore/internal/bucket"
	"github.com/forecastlab/montecore/internal/ledger"
	"github.com/forecastlab/montecore/internal/tax"
	"github.com/forecastlab/montecore/pkg/month"
	"github.com/shopspring/decimal"
)

// PremiumConfig holds the marketplace and Medicare/IRMAA premium inputs
// (spec §6 "Marketplace premiums", §4.8 steps 2-3).
type PremiumConfig struct {
	MarketplaceCoupleMonthly decimal.Decimal
	MarketplaceFamilyMonthly decimal.Decimal
	MarketplaceCapRate       decimal.Decimal // e.g. 0.085

	MedicareBasePartB decimal.Decimal
	MedicareBasePartD decimal.Decimal
	IRMAASchedule     tax.IRMAASchedule

	CashBucket string
}

// applyPremiums withdraws the marketplace premium before age 65 (capped at
// a percentage of prior-year MAGI) or the IRMAA-adjusted Medicare premium
// at 65+, from Cash (spec §4.8 steps 2-3).
func (e *Engine) applyPremiums(buckets *bucket.Set, l *ledger.Ledger, m month.Month) error {
	cash, ok := buckets.Get(e.Premiums.CashBucket)
	if !ok {
		if e.Log != nil {
			e.Log.Warnf("premiums: cash bucket %q not found; skipping", e.Premiums.CashBucket)
		}
		return nil
	}

	age := e.Profile.Age(m)
	beforeRetirement := e.Profile.RetirementMonth.Equal(month.Month{}) || m.Before(e.Profile.RetirementMonth)

	switch {
	case age >= 65:
		return e.applyMedicarePremium(cash, l, m)
	case beforeRetirement:
		return e.applyMarketplacePremium(cash, l, m)
	default:
		return nil
	}
}

func (e *Engine) applyMarketplacePremium(cash *bucket.Bucket, l *ledger.Ledger, m month.Month) error {
	premium := e.Premiums.MarketplaceCoupleMonthly
	if e.Profile.HasYoungDependent(m) {
		premium = e.Premiums.MarketplaceFamilyMonthly
	}
	priorYearMAGI := e.Profile.MAGIByYear[m.Year-1]
	capped := tax.MarketplacePremiumCap(premium, priorYearMAGI, e.Premiums.MarketplaceCapRate)
	cash.Withdraw(l, capped, "Marketplace Premium", m, ledger.Withdraw, e.Log)
	return nil
}

// applyMedicarePremium looks up MAGI from year-2 (spec §4.8 step 3); a
// missing MAGI year is fatal for the trial, per spec §7.
func (e *Engine) applyMedicarePremium(cash *bucket.Bucket, l *ledger.Ledger, m month.Month) error {
	lookbackYear := m.Year - 2
	magi, ok := e.Profile.MAGIByYear[lookbackYear]
	if !ok {
		if record, ok2 := e.taxRecordByYear(lookbackYear); ok2 {
			magi = record.AGI
		} else {
			return fmt.Errorf("engine: missing MAGI for year %d required for IRMAA at %s", lookbackYear, m)
		}
	}
	premium := tax.MedicarePremium(e.Premiums.MedicareBasePartB, e.Premiums.MedicareBasePartD, e.irmaaScheduleForYear(m.Year), magi, e.Profile.MarriedFilingJointly)
	cash.Withdraw(l, premium, "Medicare Premium", m, ledger.Withdraw, e.Log)
	return nil
}

func (e *Engine) taxRecordByYear(year int) (tax.Record, bool) {
	for _, r := range e.TaxRecords {
		if r.Year == year {
			return r, true
		}
	}
	return tax.Record{}, false
}
