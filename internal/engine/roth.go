package engine

import (
	"github.com/forecastlab/montecore/internal/bucket"
	"github.com/forecastlab/montecore/internal/ledger"
	"github.com/forecastlab/montecore/internal/tax"
	"github.com/forecastlab/montecore/pkg/month"
	"github.com/shopspring/decimal"
)

// defaultRothStep is the headroom-search step size when none is
// configured (spec §9 "Headroom search ... using small steps (e.g.,
// $1,000)").
var defaultRothStep = decimal.NewFromInt(1000)

// yearEndReconciliation runs the December-only pipeline stage (spec §4.8
// "Year-end reconciliation"): attempt a Roth conversion, compute the final
// annual tax, settle it from Tax Collection then Cash, refund any
// Tax-Collection surplus, and record the year's Tax Record.
func (e *Engine) yearEndReconciliation(m month.Month) error {
	e.attemptRothConversion(m)

	config := e.taxConfigForYear(m.Year)
	calc := tax.Calculator{Config: config}
	record := calc.Compute(m.Year, e.YearlyLog, e.portfolioValue())
	record.WithdrawalRate = e.withdrawalRate(record)

	if err := e.settleTax(m, record.TotalTax); err != nil {
		return err
	}

	e.TaxRecords = append(e.TaxRecords, record)
	return nil
}

// withdrawalRate is Sum(ordinary_withdrawals + taxable_gains) / portfolio
// value at year-end (spec §4.8 step 5).
func (e *Engine) withdrawalRate(record tax.Record) decimal.Decimal {
	portfolio := e.portfolioValue()
	if portfolio.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}
	numerator := e.YearlyLog.OrdinaryWithdrawal.Add(e.YearlyLog.TaxableGain)
	return numerator.Div(portfolio)
}

// settleTax pays totalTax from Tax Collection first, then Cash for any
// shortfall (Cash may go negative, spec §7 "not fatal"); any Tax
// Collection surplus after payment is refunded to Cash.
func (e *Engine) settleTax(m month.Month, totalTax decimal.Decimal) error {
	cash := e.Buckets.Cash()
	collection, ok := e.Buckets.Get(TaxCollectionBucketName)
	if cash == nil || !ok {
		if e.Log != nil {
			e.Log.Warnf("tax settlement: missing Cash or %q bucket; skipping", TaxCollectionBucketName)
		}
		return nil
	}

	paidFromCollection := collection.PartialWithdraw(e.Ledger, totalTax, "Tax Settlement", m, ledger.Withdraw)
	remainder := totalTax.Sub(paidFromCollection)
	if remainder.GreaterThan(decimal.Zero) {
		cash.Withdraw(e.Ledger, remainder, "Tax Settlement", m, ledger.Withdraw, e.Log)
	}

	if surplus := collection.Balance(); surplus.GreaterThan(decimal.Zero) {
		collection.Transfer(e.Ledger, surplus, cash, m, ledger.Transfer, e.Log)
	}
	return nil
}

// attemptRothConversion runs the headroom search for every configured
// phase whose age window contains the current age, converting the largest
// feasible amount from the first phase that qualifies (spec §4.8 step 1).
func (e *Engine) attemptRothConversion(m month.Month) {
	age := e.Profile.Age(m)
	step := e.Roth.StepSize
	if step.LessThanOrEqual(decimal.Zero) {
		step = defaultRothStep
	}

	for _, phase := range e.Roth.Phases {
		if age < phase.MinAge || age > phase.MaxAge {
			continue
		}
		if !phase.AllowConversion {
			continue
		}
		source, ok := e.Buckets.Get(phase.SourceBucket)
		if !ok || source.Balance().LessThan(phase.Threshold) {
			continue
		}
		target, ok := e.Buckets.Get(phase.TargetBucket)
		if !ok {
			continue
		}

		amount := e.headroomSearch(m, phase, source.Balance(), step)
		if amount.LessThanOrEqual(decimal.Zero) {
			continue
		}
		source.Transfer(e.Ledger, amount, target, m, ledger.Transfer, e.Log)
		e.YearlyLog.AddRothConversion(amount)
		return
	}
}

// headroomSearch finds the largest conversion amount, in increments of
// step up to min(MaxConversion, available balance), whose resulting
// effective tax rate stays at or below MaxTaxRate. It scans the full
// range rather than binary-searching, since the spec explicitly calls out
// that the rate function need not be monotone (spec §9).
func (e *Engine) headroomSearch(m month.Month, phase RothPhase, available, step decimal.Decimal) decimal.Decimal {
	max := phase.MaxConversion
	if available.LessThan(max) {
		max = available
	}
	if max.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}

	config := e.taxConfigForYear(m.Year)
	calc := tax.Calculator{Config: config}
	portfolio := e.portfolioValue()

	best := decimal.Zero
	for amount := step; amount.LessThanOrEqual(max); amount = amount.Add(step) {
		trial := e.YearlyLog
		trial.AddRothConversion(amount)
		record := calc.Compute(m.Year, trial, portfolio)
		if record.EffectiveRate.LessThanOrEqual(phase.MaxTaxRate) {
			best = amount
		}
	}
	return best
}
