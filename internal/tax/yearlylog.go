package tax

import "github.com/shopspring/decimal"

// YearlyLog accumulates the running totals the Engine feeds into the tax
// calculator each tick (spec §3 "Yearly Tax Log"). It resets at the start
// of each calendar year.
type YearlyLog struct {
	Salary                    decimal.Decimal
	Unemployment              decimal.Decimal
	SocialSecurityBenefits    decimal.Decimal
	OrdinaryWithdrawal        decimal.Decimal
	RothConversions           decimal.Decimal
	RealizedGain              decimal.Decimal
	TaxableGain               decimal.Decimal
	FixedIncomeInterest       decimal.Decimal
	TaxFreeWithdrawal         decimal.Decimal
	PenaltyEligibleWithdrawal decimal.Decimal

	PaidYTD decimal.Decimal
}

// Reset zeroes every accumulator for the start of a new calendar year,
// PaidYTD included.
func (y *YearlyLog) Reset() {
	*y = YearlyLog{}
}

// Add folds one tick's transaction totals into the running log. keys match
// internal/txn.AccumulateInto's totals map.
func (y *YearlyLog) Add(totals map[string]decimal.Decimal) {
	y.Salary = y.Salary.Add(totals["salary"])
	y.Unemployment = y.Unemployment.Add(totals["unemployment"])
	y.SocialSecurityBenefits = y.SocialSecurityBenefits.Add(totals["social_security"])
	y.OrdinaryWithdrawal = y.OrdinaryWithdrawal.Add(totals["ordinary_withdrawal"])
	y.RealizedGain = y.RealizedGain.Add(totals["realized_gain"])
	y.TaxableGain = y.TaxableGain.Add(totals["taxable_gain"])
	y.FixedIncomeInterest = y.FixedIncomeInterest.Add(totals["fixed_income_interest"])
	y.TaxFreeWithdrawal = y.TaxFreeWithdrawal.Add(totals["tax_free_withdrawal"])
	y.PenaltyEligibleWithdrawal = y.PenaltyEligibleWithdrawal.Add(totals["penalty_eligible_withdrawal"])
}

// AddRothConversion records a December Roth conversion in RothConversions,
// which the calculator taxes as ordinary income and never treats as
// penalty-eligible (spec §4.8 step 1).
func (y *YearlyLog) AddRothConversion(amount decimal.Decimal) {
	y.RothConversions = y.RothConversions.Add(amount)
}
