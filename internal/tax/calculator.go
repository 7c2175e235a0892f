package tax

import "github.com/shopspring/decimal"

// Jurisdiction is one progressive ordinary-income schedule (e.g. "Federal",
// "State", "Local"), evaluated independently and summed (spec §4.7 step 4
// "ordinary tax = sum over jurisdictions").
type Jurisdiction struct {
	Name     string
	Brackets []Bracket
}

// Config holds every bracket schedule and threshold the Calculator needs
// for a given year, already inflation-indexed by the caller (spec §3 "Tax
// Brackets (raw)").
type Config struct {
	StandardDeduction       decimal.Decimal
	OrdinaryJurisdictions   []Jurisdiction
	PayrollSocialSecurity   []Bracket
	PayrollMedicare         []Bracket
	LTCGBrackets            []Bracket
	SSInclusionBrackets     []InclusionBracket
}

// Record is the finalized per-year tax outcome (spec §3 "Tax Record
// table").
type Record struct {
	Year            int
	AGI             decimal.Decimal
	TaxableIncome   decimal.Decimal
	OrdinaryTax     decimal.Decimal
	PayrollTax      decimal.Decimal
	LTCGTax         decimal.Decimal
	PenaltyTax      decimal.Decimal
	TotalTax        decimal.Decimal
	EffectiveRate   decimal.Decimal
	WithdrawalRate  decimal.Decimal
}

// Calculator evaluates a YearlyLog into a full Record (spec §4.7
// "Algorithm").
type Calculator struct {
	Config Config
}

// Compute runs the full year-end tax algorithm. portfolioValue is used only
// for the withdrawal-rate metric on the resulting Record.
func (c *Calculator) Compute(year int, log YearlyLog, portfolioValue decimal.Decimal) Record {
	taxableSS := TaxableSocialSecurity(log.SocialSecurityBenefits, c.otherAGI(log), c.Config.SSInclusionBrackets)

	agi := log.Salary.
		Add(log.Unemployment).
		Add(log.OrdinaryWithdrawal).
		Add(log.RothConversions).
		Add(log.FixedIncomeInterest).
		Add(log.TaxableGain).
		Add(taxableSS)

	taxableIncome := agi.Sub(c.Config.StandardDeduction)
	if taxableIncome.LessThan(decimal.Zero) {
		taxableIncome = decimal.Zero
	}

	ordinaryTax := decimal.Zero
	for _, j := range c.Config.OrdinaryJurisdictions {
		ordinaryTax = ordinaryTax.Add(BracketProgressive(taxableIncome, j.Brackets))
	}

	payrollTax := BracketProgressive(log.Salary, c.Config.PayrollSocialSecurity).
		Add(BracketProgressive(log.Salary, c.Config.PayrollMedicare))

	ltcgTax := c.ltcgTax(taxableIncome, log.RealizedGain)

	penaltyTax := log.PenaltyEligibleWithdrawal.Mul(decimal.NewFromFloat(0.10))

	total := ordinaryTax.Add(payrollTax).Add(ltcgTax).Add(penaltyTax)

	effectiveRate := decimal.Zero
	if agi.GreaterThan(decimal.Zero) {
		effectiveRate = total.Div(agi)
	}

	withdrawalRate := decimal.Zero
	if portfolioValue.GreaterThan(decimal.Zero) {
		numerator := log.OrdinaryWithdrawal.Add(log.TaxableGain)
		withdrawalRate = numerator.Div(portfolioValue)
	}

	return Record{
		Year:           year,
		AGI:            agi,
		TaxableIncome:  taxableIncome,
		OrdinaryTax:    ordinaryTax,
		PayrollTax:     payrollTax,
		LTCGTax:        ltcgTax,
		PenaltyTax:     penaltyTax,
		TotalTax:       total,
		EffectiveRate:  effectiveRate,
		WithdrawalRate: withdrawalRate,
	}
}

// otherAGI is AGI excluding Social Security, used as the provisional-income
// base (spec §4.7 step 2 "provisional = AGI (excluding SS) + 0.5 x SS
// benefits").
func (c *Calculator) otherAGI(log YearlyLog) decimal.Decimal {
	return log.Salary.
		Add(log.Unemployment).
		Add(log.OrdinaryWithdrawal).
		Add(log.RothConversions).
		Add(log.FixedIncomeInterest).
		Add(log.TaxableGain)
}

// ltcgTax treats ordinaryIncome as a floor and fills the LTCG brackets
// starting there, progressively (spec §4.7 step 6).
func (c *Calculator) ltcgTax(ordinaryIncome, realizedGain decimal.Decimal) decimal.Decimal {
	if realizedGain.LessThanOrEqual(decimal.Zero) || len(c.Config.LTCGBrackets) == 0 {
		return decimal.Zero
	}
	stackedTop := ordinaryIncome.Add(realizedGain)
	return BracketProgressive(stackedTop, c.Config.LTCGBrackets).Sub(BracketProgressive(ordinaryIncome, c.Config.LTCGBrackets))
}

// MonthlyDrip computes the monthly marginal withholding increment: the
// estimated annual tax on the YTD log, minus what's already been paid,
// divided evenly across the months left in the year (spec §4.7 "Monthly
// marginal drip"). remainingMonths must be >= 1 (December still divides by
// 1, its own remaining month).
func (c *Calculator) MonthlyDrip(year int, log YearlyLog, portfolioValue decimal.Decimal, remainingMonths int) decimal.Decimal {
	estimate := c.Compute(year, log, portfolioValue).TotalTax
	remaining := estimate.Sub(log.PaidYTD)
	if remaining.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}
	if remainingMonths < 1 {
		remainingMonths = 1
	}
	return remaining.Div(decimal.NewFromInt(int64(remainingMonths)))
}
