// Package engine is the Forecast Engine: the per-trial pipeline driver
// (spec §4.8). It owns every mutable piece of a trial (buckets, ledger,
// RNG, inflation series, and the yearly tax log) and advances them one
// calendar month at a time in the strict order spec §4.8 enumerates.
// Grounded on the teacher's CalculationEngine.GenerateAnnualProjection
// (internal/calculation/engine.go) for the per-period driver-loop shape
// and FERSMonteCarloEngine.runSingleFERSSimulation
// (internal/calculation/fers_montecarlo.go) for per-trial isolation.
package engine

import (
	"fmt"
	"math/rand"

	"github.com/forecastlab/montecore/internal/bucket"
	"github.com/forecastlab/montecore/internal/ledger"
	"github.com/forecastlab/montecore/internal/logging"
	"github.com/forecastlab/montecore/internal/market"
	"github.com/forecastlab/montecore/internal/policyflow"
	"github.com/forecastlab/montecore/internal/refill"
	"github.com/forecastlab/montecore/internal/tax"
	"github.com/forecastlab/montecore/internal/txn"
	"github.com/forecastlab/montecore/pkg/month"
	"github.com/shopspring/decimal"
)

// TaxCollectionBucketName is the distinguished bucket that accumulates
// monthly withholding ahead of year-end settlement (spec §3 "Tax
// Collection").
const TaxCollectionBucketName = "Tax Collection"

// RothPhase is one age-windowed Roth-conversion opportunity evaluated at
// year-end (spec §4.8 step 1).
type RothPhase struct {
	Name            string
	MinAge          int
	MaxAge          int
	SourceBucket    string
	TargetBucket    string
	Threshold       decimal.Decimal
	AllowConversion bool
	MaxConversion   decimal.Decimal
	MaxTaxRate      decimal.Decimal
}

// RothConfig configures the year-end conversion headroom search (spec §9
// "Headroom search").
type RothConfig struct {
	Phases   []RothPhase
	StepSize decimal.Decimal // default $1,000
}

// Engine is the complete, freshly-constructed state for exactly one trial.
// Nothing here is shared across trials (spec §5 "Trials share no mutable
// state"); NewTrial builds a new Engine, *rand.Rand, Ledger, and bucket
// Set for every trial index.
type Engine struct {
	TrialIndex int
	Log        logging.Logger

	Buckets *bucket.Set
	Ledger  *ledger.Ledger
	Rng     *rand.Rand

	Inflation *market.Series
	GainTable market.GainTable
	TaxBase   TaxBase
	Profile   *Profile
	Premiums  PremiumConfig
	Roth      RothConfig

	SEPP           *policyflow.SEPP
	ScheduledFlows []txn.Transaction
	PolicyFlows    []txn.Transaction
	Refill         *refill.Policy

	Months []month.Month

	YearlyLog  tax.YearlyLog
	TaxRecords []tax.Record

	snapshots []bucket.Snapshot
	returns   []market.MonthlyReturn
}

// TaxBase holds the raw (un-indexed) tax configuration plus the base year
// it is indexed from (spec §3 "All dollar thresholds ... are
// inflation-indexed by cumulative modifier from the simulation base
// year").
type TaxBase struct {
	// BaseYear is checked non-zero when the trial is built (buildTaxBase)
	// but not otherwise read;
	// indexing goes through Inflation.BaseYear/CumulativeModifier instead
	// (taxConfigForYear, irmaaScheduleForYear below).
	BaseYear int
	Brackets tax.Config
	IRMAA    tax.IRMAASchedule
}

// Result is the complete per-trial output (spec §6 "Outputs produced").
type Result struct {
	Snapshots  []bucket.Snapshot
	TaxRecords []tax.Record
	Returns    []market.MonthlyReturn
	Ledger     []ledger.Entry
}

// RunTrial advances the engine through every configured month and returns
// the accumulated outputs. It is the single-trial entry point: safe to
// call concurrently for distinct Engine instances (spec §5), never safe to
// call twice on the same Engine (buckets and ledger are mutated in place).
func (e *Engine) RunTrial() (*Result, error) {
	for _, m := range e.Months {
		if err := e.tick(m); err != nil {
			return nil, fmt.Errorf("engine: trial %d failed at %s: %w", e.TrialIndex, m, err)
		}
	}
	return &Result{
		Snapshots:  e.snapshots,
		TaxRecords: e.TaxRecords,
		Returns:    e.returns,
		Ledger:     e.Ledger.Entries(),
	}, nil
}

// tick runs one month through the pipeline in the strict order spec §4.8
// enumerates.
func (e *Engine) tick(m month.Month) error {
	var active []txn.Transaction

	// 1. SEPP withdrawal (if in window).
	if e.SEPP != nil {
		e.SEPP.Apply(e.Buckets, e.Ledger, m, e.Log)
		active = append(active, e.SEPP)
	}

	// 2/3. Marketplace or Medicare/IRMAA premiums.
	if err := e.applyPremiums(e.Buckets, e.Ledger, m); err != nil {
		return err
	}

	// 4. Scheduled flows.
	for _, t := range e.ScheduledFlows {
		t.Apply(e.Buckets, e.Ledger, m, e.Log)
		active = append(active, t)
	}

	// 5. Policy flows (everything except Roth and SEPP).
	for _, t := range e.PolicyFlows {
		t.Apply(e.Buckets, e.Ledger, m, e.Log)
		active = append(active, t)
	}

	// 6. Market returns, applied after transactions so they operate on
	// the post-transaction balance (spec §4.2 "Ordering").
	realizedInflation := e.Inflation.Rate(m.Year)
	mr := market.Apply(e.Rng, e.GainTable, e.Buckets, e.Ledger, m, realizedInflation)
	e.returns = append(e.returns, mr)
	if mr.FixedIncomeInterest.GreaterThan(decimal.Zero) {
		e.YearlyLog.FixedIncomeInterest = e.YearlyLog.FixedIncomeInterest.Add(mr.FixedIncomeInterest)
	}

	// 7/8. Refills, then liquidations.
	if e.Refill != nil {
		refills := e.Refill.GenerateRefills(e.Buckets, e.Ledger, m, e.Log)
		for _, r := range refills {
			active = append(active, r)
		}
		ageMonths := e.Profile.AgeMonths(m)
		liquidations := e.Refill.GenerateLiquidations(e.Buckets, e.Ledger, m, ageMonths, e.Log)
		for _, r := range liquidations {
			active = append(active, r)
		}
	}

	// 9. Tax accrual update.
	totals := make(map[string]decimal.Decimal)
	for _, t := range active {
		txn.AccumulateInto(t, totals)
	}
	e.YearlyLog.Add(totals)
	if err := e.applyTaxDrip(m); err != nil {
		return err
	}

	// 10. Snapshot.
	e.snapshots = append(e.snapshots, e.Buckets.TakeSnapshot(m))

	// 11. Year-end reconciliation.
	if m.IsDecember() {
		if err := e.yearEndReconciliation(m); err != nil {
			return err
		}
		e.YearlyLog = tax.YearlyLog{}
	}

	return nil
}

// taxConfigForYear inflation-indexes every bracket schedule and the
// standard deduction by the cumulative modifier for year (spec §3 "All
// dollar thresholds ... are inflation-indexed").
func (e *Engine) taxConfigForYear(year int) tax.Config {
	modifier := e.Inflation.CumulativeModifier(year)
	base := e.TaxBase.Brackets

	jurisdictions := make([]tax.Jurisdiction, len(base.OrdinaryJurisdictions))
	for i, j := range base.OrdinaryJurisdictions {
		jurisdictions[i] = tax.Jurisdiction{Name: j.Name, Brackets: tax.IndexBrackets(j.Brackets, modifier)}
	}

	inclusion := make([]tax.InclusionBracket, len(base.SSInclusionBrackets))
	for i, b := range base.SSInclusionBrackets {
		inclusion[i] = tax.InclusionBracket{Min: b.Min.Mul(modifier), Rate: b.Rate}
	}

	return tax.Config{
		StandardDeduction:     base.StandardDeduction.Mul(modifier),
		OrdinaryJurisdictions: jurisdictions,
		PayrollSocialSecurity: tax.IndexBrackets(base.PayrollSocialSecurity, modifier),
		PayrollMedicare:       tax.IndexBrackets(base.PayrollMedicare, modifier),
		LTCGBrackets:          tax.IndexBrackets(base.LTCGBrackets, modifier),
		SSInclusionBrackets:   inclusion,
	}
}

// irmaaScheduleForYear inflation-indexes the IRMAA MAGI tiers for year.
func (e *Engine) irmaaScheduleForYear(year int) tax.IRMAASchedule {
	modifier := e.Inflation.CumulativeModifier(year)
	out := make(tax.IRMAASchedule, len(e.TaxBase.IRMAA))
	for i, t := range e.TaxBase.IRMAA {
		out[i] = tax.IRMAATier{
			MAGICap:        t.MAGICap.Mul(modifier),
			PartBSurcharge: t.PartBSurcharge.Mul(modifier),
			PartDSurcharge: t.PartDSurcharge.Mul(modifier),
		}
	}
	return out
}

func (e *Engine) portfolioValue() decimal.Decimal {
	total := decimal.Zero
	for _, b := range e.Buckets.All() {
		total = total.Add(b.Balance())
	}
	return total
}

// applyTaxDrip computes the monthly marginal-drip withholding and moves it
// from Cash to Tax Collection (spec §4.7 "Monthly marginal drip"):
// (estimated_annual - paid_YTD) / remaining_months_in_year, recomputed
// every tick from the cumulative yearly log to date.
func (e *Engine) applyTaxDrip(m month.Month) error {
	cash := e.Buckets.Cash()
	collection, ok := e.Buckets.Get(TaxCollectionBucketName)
	if cash == nil || !ok {
		if e.Log != nil {
			e.Log.Warnf("tax drip: missing Cash or %q bucket; skipping", TaxCollectionBucketName)
		}
		return nil
	}

	calc := tax.Calculator{Config: e.taxConfigForYear(m.Year)}
	drip := calc.MonthlyDrip(m.Year, e.YearlyLog, e.portfolioValue(), 13-m.Month)
	if drip.LessThanOrEqual(decimal.Zero) {
		return nil
	}

	moved := cash.Transfer(e.Ledger, drip, collection, m, ledger.Transfer, e.Log)
	e.YearlyLog.PaidYTD = e.YearlyLog.PaidYTD.Add(moved)
	return nil
}
