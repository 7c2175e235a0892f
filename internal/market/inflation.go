// Package market implements the inflation-series generator and the
// per-holding Gaussian market-return model (spec §3 "Inflation Series",
// "Gain Table", "Inflation Thresholds"; §4.2).
package market

import (
	"math/rand"

	"github.com/shopspring/decimal"
)

// YearRate holds one simulation year's realized inflation draw and the
// cumulative compounding modifier since the base year (spec §3).
type YearRate struct {
	RealizedRate       decimal.Decimal
	CumulativeModifier decimal.Decimal
}

// Series is the year -> YearRate mapping for the simulation's year range,
// drawn once per trial from Normal(mean, stddev).
type Series struct {
	BaseYear int
	byYear   map[int]YearRate
	lastYear int
}

// GenerateSeries draws a realized inflation rate for every year in
// [baseYear, baseYear+years-1] from Normal(mean, stddev), using rng (which
// callers seed deterministically per trial, spec §4.2, §5). The cumulative
// modifier compounds forward from the base year:
// cumulative[y] = product(1+realized[k]) for k in [baseYear, y].
func GenerateSeries(rng *rand.Rand, baseYear, years int, mean, stddev decimal.Decimal) *Series {
	s := &Series{BaseYear: baseYear, byYear: make(map[int]YearRate, years)}
	cumulative := decimal.NewFromInt(1)
	meanF, _ := mean.Float64()
	stddevF, _ := stddev.Float64()
	for i := 0; i < years; i++ {
		year := baseYear + i
		rate := decimal.NewFromFloat(rng.NormFloat64()*stddevF + meanF)
		cumulative = cumulative.Mul(decimal.NewFromInt(1).Add(rate))
		s.byYear[year] = YearRate{RealizedRate: rate, CumulativeModifier: cumulative}
		s.lastYear = year
	}
	return s
}

// Rate returns the realized rate for year, or zero if the year is out of
// the generated range.
func (s *Series) Rate(year int) decimal.Decimal {
	if yr, ok := s.byYear[year]; ok {
		return yr.RealizedRate
	}
	return decimal.Zero
}

// CumulativeModifier returns the compounding modifier for year relative to
// the base year. Years beyond the generated horizon hold at the last
// computed value rather than defaulting to zero, which would understate
// inflation-indexed thresholds in the final simulated year; years before
// the base year return 1.
func (s *Series) CumulativeModifier(year int) decimal.Decimal {
	if yr, ok := s.byYear[year]; ok {
		return yr.CumulativeModifier
	}
	if year > s.lastYear {
		if yr, ok := s.byYear[s.lastYear]; ok {
			return yr.CumulativeModifier
		}
	}
	return decimal.NewFromInt(1)
}
