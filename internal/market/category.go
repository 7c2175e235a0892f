package market

import (
	"math/rand"

	"github.com/shopspring/decimal"
)

// CategoryProfile is the (mean, stddev) pair used to draw a scheduled-flow
// category's own inflation series (spec §4.4 "category rates are drawn
// independently per trial using the profile for T (defaulting to
// baseline)").
type CategoryProfile struct {
	Mean   decimal.Decimal
	StdDev decimal.Decimal
}

// CategorySeries holds one independently-drawn inflation Series per
// scheduled-flow category (e.g. "Property Taxes", "Property Insurance",
// "Property Maintenance").
type CategorySeries struct {
	baseYear int
	years    int
	baseline CategoryProfile
	profiles map[string]CategoryProfile
	series   map[string]*Series
}

// NewCategorySeries constructs the lazy per-category series generator.
// Series are drawn on first access (MultiplierFor) rather than eagerly, so
// configuring a profile that is never referenced by a schedule row costs
// nothing.
func NewCategorySeries(baseYear, years int, baseline CategoryProfile, profiles map[string]CategoryProfile) *CategorySeries {
	return &CategorySeries{
		baseYear: baseYear,
		years:    years,
		baseline: baseline,
		profiles: profiles,
		series:   make(map[string]*Series),
	}
}

// seriesFor returns (creating if necessary) the Series for category,
// drawing from its configured profile or the baseline if unconfigured.
func (c *CategorySeries) seriesFor(rng *rand.Rand, category string) *Series {
	if s, ok := c.series[category]; ok {
		return s
	}
	profile, ok := c.profiles[category]
	if !ok {
		profile = c.baseline
	}
	s := GenerateSeries(rng, c.baseYear, c.years, profile.Mean, profile.StdDev)
	c.series[category] = s
	return s
}

// Multiplier computes the inflation multiplier for category/year relative
// to startYear: product(1+rate[k]) for k in [startYear, year] (spec §4.4).
func (c *CategorySeries) Multiplier(rng *rand.Rand, category string, startYear, year int) decimal.Decimal {
	if year < startYear {
		return decimal.NewFromInt(1)
	}
	s := c.seriesFor(rng, category)
	startMod := s.CumulativeModifier(startYear - 1)
	if startYear-1 < c.baseYear {
		startMod = decimal.NewFromInt(1)
	}
	yearMod := s.CumulativeModifier(year)
	if startMod.IsZero() {
		return yearMod
	}
	return yearMod.Div(startMod)
}
