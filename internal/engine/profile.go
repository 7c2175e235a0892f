package engine

import (
	"github.com/forecastlab/montecore/internal/tax"
	"github.com/forecastlab/montecore/pkg/month"
	"github.com/shopspring/decimal"
)

// Profile holds the per-trial household facts the engine needs outside the
// transaction list: birth months (for age-gated logic), the simulation end
// month, historical MAGI for IRMAA lookback, and any year-to-date tax
// baseline carried in from a mid-year simulation start (spec §6 "Profile").
type Profile struct {
	BirthMonth          month.Month
	DependentBirthMonth month.Month // zero value if none
	RetirementMonth     month.Month
	EndMonth            month.Month
	MarriedFilingJointly bool

	MAGIByYear map[int]decimal.Decimal

	YTDBaseline tax.YearlyLog
}

// AgeMonths returns the profile owner's age in whole months as of m.
func (p *Profile) AgeMonths(m month.Month) int {
	return p.BirthMonth.MonthsUntil(m)
}

// Age returns the profile owner's age in whole years as of m.
func (p *Profile) Age(m month.Month) int {
	return p.AgeMonths(m) / 12
}

// HasYoungDependent reports whether the dependent is under 25 as of m,
// which selects a family marketplace plan instead of a couple plan (spec
// §4.8 step 2 "family vs. couple plan chosen by dependent age").
func (p *Profile) HasYoungDependent(m month.Month) bool {
	if p.DependentBirthMonth.Equal(month.Month{}) {
		return false
	}
	return p.DependentBirthMonth.MonthsUntil(m)/12 < 25
}
