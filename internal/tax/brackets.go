// Package tax implements the progressive bracket evaluator, the year-end
// AGI/taxable-income/tax computation, and the monthly marginal-drip
// withholding estimate (spec §4.7). Grounded on the teacher's
// FederalTaxCalculator.CalculateFederalTax bracket walk (internal/calculation/taxes.go)
// and its IRMAA/Medicare premium lookups (irmaa.go, medicare.go).
package tax

import "github.com/shopspring/decimal"

// Bracket is one (min, rate) step of a progressive schedule; the upper
// bound is implicit: the next bracket's Min, or +Inf for the last one
// (spec §4.7 "Bracket evaluation").
type Bracket struct {
	Min  decimal.Decimal
	Rate decimal.Decimal
}

// BracketProgressive computes piecewise-linear cumulative tax over income,
// given brackets sorted ascending by Min (spec §4.7 `bracket_progressive`).
// The final bracket's rate applies to every dollar above its Min.
func BracketProgressive(income decimal.Decimal, brackets []Bracket) decimal.Decimal {
	if income.LessThanOrEqual(decimal.Zero) || len(brackets) == 0 {
		return decimal.Zero
	}
	total := decimal.Zero
	for i, b := range brackets {
		if income.LessThanOrEqual(b.Min) {
			break
		}
		upper := income
		if i+1 < len(brackets) {
			upper = decimal.Min(income, brackets[i+1].Min)
		}
		span := upper.Sub(b.Min)
		if span.GreaterThan(decimal.Zero) {
			total = total.Add(span.Mul(b.Rate))
		}
	}
	return total
}

// IndexBrackets scales every bracket's Min by a cumulative inflation
// modifier, used to inflation-index thresholds year over year (spec §4.7
// "All dollar thresholds ... are year-indexed via cumulative inflation from
// the base year").
func IndexBrackets(brackets []Bracket, cumulativeModifier decimal.Decimal) []Bracket {
	out := make([]Bracket, len(brackets))
	for i, b := range brackets {
		out[i] = Bracket{Min: b.Min.Mul(cumulativeModifier), Rate: b.Rate}
	}
	return out
}

// InclusionBracket is one step of the Social Security taxability schedule:
// once provisional income exceeds Min, Rate of the excess over Min is
// included, subject to the 85%-of-benefits cap applied by
// TaxableSocialSecurity (spec
// §4.7 step 2).
type InclusionBracket struct {
	Min  decimal.Decimal
	Rate decimal.Decimal
}

// TaxableSocialSecurity applies the standard provisional-income inclusion
// schedule, capped at 85% of benefits (spec §4.7 step 2, worked example in
// §8.3).
func TaxableSocialSecurity(ssBenefits, otherAGI decimal.Decimal, brackets []InclusionBracket) decimal.Decimal {
	if ssBenefits.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}
	provisional := otherAGI.Add(ssBenefits.Mul(decimal.NewFromFloat(0.5)))
	inclusion := decimal.Zero
	for i, b := range brackets {
		if provisional.LessThanOrEqual(b.Min) {
			break
		}
		upper := provisional
		if i+1 < len(brackets) {
			upper = decimal.Min(provisional, brackets[i+1].Min)
		}
		span := upper.Sub(b.Min)
		if span.GreaterThan(decimal.Zero) {
			inclusion = inclusion.Add(span.Mul(b.Rate))
		}
	}
	cap := ssBenefits.Mul(decimal.NewFromFloat(0.85))
	return decimal.Min(inclusion, cap)
}
