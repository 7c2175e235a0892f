package tax

import "github.com/shopspring/decimal"

// IRMAATier is one Medicare IRMAA bracket: once MAGI reaches MAGICap, the
// associated Part B/D surcharge applies (spec §4.7 "IRMAA tiers").
type IRMAATier struct {
	MAGICap      decimal.Decimal
	PartBSurcharge decimal.Decimal
	PartDSurcharge decimal.Decimal
}

// IRMAASchedule is an ascending-by-MAGICap list of tiers, the last of which
// is assumed to extend to +Inf.
type IRMAASchedule []IRMAATier

// Lookup returns the tier whose MAGICap is the highest one magi meets or
// exceeds, or the zero tier (no surcharge) if magi is below every cap.
func (s IRMAASchedule) Lookup(magi decimal.Decimal) IRMAATier {
	var selected IRMAATier
	for _, tier := range s {
		if magi.GreaterThanOrEqual(tier.MAGICap) {
			selected = tier
		}
	}
	return selected
}

// MedicarePremium computes one month's Part B + Part D premium and IRMAA
// surcharge, doubled for MFJ households (spec §4.8 step 3).
func MedicarePremium(basePartB, basePartD decimal.Decimal, schedule IRMAASchedule, magi decimal.Decimal, marriedFilingJointly bool) decimal.Decimal {
	tier := schedule.Lookup(magi)
	monthly := basePartB.Add(basePartD).Add(tier.PartBSurcharge).Add(tier.PartDSurcharge)
	if marriedFilingJointly {
		monthly = monthly.Mul(decimal.NewFromInt(2))
	}
	return monthly
}

// MarketplacePremiumCap caps a marketplace (ACA) premium at a percentage of
// prior-year MAGI (spec §4.8 step 2: "cap at 8.5% x prior-year MAGI").
func MarketplacePremiumCap(premium, priorYearMAGI, capRate decimal.Decimal) decimal.Decimal {
	cap := priorYearMAGI.Mul(capRate).Div(decimal.NewFromInt(12))
	return decimal.Min(premium, cap)
}
