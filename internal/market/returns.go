package market

import (
	"math/rand"

	"github.com/forecastlab/montecore/internal/bucket"
	"github.com/forecastlab/montecore/internal/ledger"
	"github.com/forecastlab/montecore/pkg/month"
	"github.com/shopspring/decimal"
)

// FixedIncomeAssetClass is the asset class that, when held inside a
// taxable-type bucket, is tagged as ordinary-income interest rather than a
// capital gain (spec §4.2 "Special case").
const FixedIncomeAssetClass = "Fixed-Income"

// Regime is the return-distribution regime selected for an asset class in
// a given year, gated by that year's realized inflation (spec §3 "Inflation
// Thresholds").
type Regime int

const (
	Average Regime = iota
	Low
	High
)

func (r Regime) String() string {
	switch r {
	case Low:
		return "low"
	case High:
		return "high"
	default:
		return "average"
	}
}

// RegimeParams is the (mean, stddev) pair for one regime's monthly return.
type RegimeParams struct {
	Mean   decimal.Decimal
	StdDev decimal.Decimal
}

// AssetGainProfile is one asset class's full Gain Table row: the three
// regime distributions plus the inflation thresholds that select among them
// (spec §3 "Gain Table", "Inflation Thresholds").
type AssetGainProfile struct {
	Low      RegimeParams
	Average  RegimeParams
	High     RegimeParams
	LowCut   decimal.Decimal
	HighCut  decimal.Decimal
}

// GainTable maps asset class identifier to its gain profile.
type GainTable map[string]AssetGainProfile

// SelectRegime chooses Low/Average/High for an asset class given the
// year's realized inflation rate (spec §3 "Regime = Low if realized_rate <
// low_cut; High if > high_cut; Average otherwise").
func (t GainTable) SelectRegime(assetClass string, realizedInflation decimal.Decimal) Regime {
	profile, ok := t[assetClass]
	if !ok {
		return Average
	}
	if realizedInflation.LessThan(profile.LowCut) {
		return Low
	}
	if realizedInflation.GreaterThan(profile.HighCut) {
		return High
	}
	return Average
}

func (p AssetGainProfile) paramsFor(r Regime) RegimeParams {
	switch r {
	case Low:
		return p.Low
	case High:
		return p.High
	default:
		return p.Average
	}
}

// MonthlyReturn is the metadata record produced by one tick's market-return
// application (spec §4.2 step 2, §6 "monthly returns table").
type MonthlyReturn struct {
	Month               month.Month
	InflationRate       decimal.Decimal
	SampledReturn       map[string]decimal.Decimal // asset class -> realized monthly return this tick
	FixedIncomeInterest decimal.Decimal            // ordinary-income interest from Fixed-Income holdings in taxable buckets
}

// Apply samples a monthly return for every holding of every bucket, using
// rng (the trial's single seeded source, spec §5 determinism), and mutates
// balances in place. Market returns are applied after scheduled and policy
// flows so the monthly return operates on the post-transaction balance
// (spec §4.2 "Ordering").
func Apply(rng *rand.Rand, table GainTable, buckets *bucket.Set, l *ledger.Ledger, m month.Month, realizedInflation decimal.Decimal) MonthlyReturn {
	result := MonthlyReturn{
		Month:         m,
		InflationRate: realizedInflation,
		SampledReturn: make(map[string]decimal.Decimal),
	}

	for _, b := range buckets.All() {
		for i := range b.Holdings {
			h := &b.Holdings[i]
			profile, ok := table[h.AssetClass]
			if !ok {
				continue
			}
			regime := table.SelectRegime(h.AssetClass, realizedInflation)
			params := profile.paramsFor(regime)
			meanF, _ := params.Mean.Float64()
			stddevF, _ := params.StdDev.Float64()
			delta := decimal.NewFromFloat(rng.NormFloat64()*stddevF + meanF)
			result.SampledReturn[h.AssetClass] = delta

			oldAmount := h.Amount
			newAmount := oldAmount.Mul(decimal.NewFromInt(1).Add(delta)).Round(2)
			h.Amount = newAmount

			diff := newAmount.Sub(oldAmount)
			if diff.IsZero() {
				continue
			}

			isFixedIncomeInterest := h.AssetClass == FixedIncomeAssetClass && b.Classification == bucket.Taxable
			label := b.Name
			if isFixedIncomeInterest {
				label = "Fixed Income Interest"
			}

			if diff.GreaterThan(decimal.Zero) {
				if l != nil {
					l.Record(ledger.Entry{Month: m, Source: label, Target: b.Name, Amount: diff, Kind: ledger.Gain})
				}
				if isFixedIncomeInterest {
					result.FixedIncomeInterest = result.FixedIncomeInterest.Add(diff)
				}
			} else {
				if l != nil {
					l.Record(ledger.Entry{Month: m, Source: b.Name, Target: label, Amount: diff.Abs(), Kind: ledger.Loss})
				}
			}
		}
	}

	return result
}
