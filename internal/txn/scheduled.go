package txn

import (
	"math/rand"

	"github.com/forecastlab/montecore/internal/bucket"
	"github.com/forecastlab/montecore/internal/ledger"
	"github.com/forecastlab/montecore/internal/logging"
	"github.com/forecastlab/montecore/internal/market"
	"github.com/forecastlab/montecore/pkg/month"
	"github.com/shopspring/decimal"
)

// ScheduleRow is one row of a scheduled-flow table (spec §6 "Scheduled-flow
// tables"). Amount may be negative (a withdrawal) or positive (a deposit).
// Fixed rows use Month; Recurring rows use Start/End (End zero-value means
// open-ended).
type ScheduleRow struct {
	Month       month.Month // Fixed only
	Start       month.Month // Recurring only
	End         month.Month // Recurring only; zero value = no end
	Bucket      string
	Amount      decimal.Decimal
	Type        string
	Description string
}

// routeWithdrawalTarget decides, given a row's target bucket, whether a
// withdrawal should be routed to Cash instead because the account can't
// actually be tapped yet (spec §4.4: "we can't actually tap it yet, pull
// from liquidity"). Returns nil when Cash substitution is required.
func routeWithdrawalTarget(targetBucket *bucket.Bucket, m month.Month, taxableEligibility month.Month) *bucket.Bucket {
	if targetBucket == nil {
		return nil
	}
	advantaged := targetBucket.Classification == bucket.TaxDeferred || targetBucket.Classification == bucket.TaxFree
	if advantaged && m.Before(taxableEligibility) {
		return nil
	}
	return targetBucket
}

// classifyWithdrawal fills in the Transaction tax-category getters for a
// withdrawal of amount from src, using the 50%-of-withdrawal-is-gain
// heuristic for taxable accounts without tracked cost basis (spec §9 open
// question: "standardize on the '50% of withdrawal is gain' heuristic").
func classifyWithdrawal(src *bucket.Bucket, amount decimal.Decimal) (ordinary, realizedGain, taxableGain, taxFree decimal.Decimal) {
	if src == nil || amount.IsZero() {
		return
	}
	switch src.Classification {
	case bucket.TaxDeferred:
		ordinary = amount
	case bucket.TaxFree:
		taxFree = amount
	case bucket.Taxable:
		gain := amount.Mul(decimal.NewFromFloat(0.5))
		realizedGain = gain
		taxableGain = gain
	}
	return
}

// ScheduledFlow implements Transaction for a set of schedule rows active on
// a given month (shared by Fixed and Recurring variants, which differ only
// in which rows they consider active, spec §4.4).
type ScheduledFlow struct {
	ZeroGetters
	Rows               []ScheduleRow
	Recurring          bool
	StartYear          int
	TaxableEligibility month.Month
	CategorySeries     *market.CategorySeries
	Rng                *rand.Rand

	lastOrdinary     decimal.Decimal
	lastRealizedGain decimal.Decimal
	lastTaxableGain  decimal.Decimal
	lastTaxFree      decimal.Decimal
}

func (s *ScheduledFlow) activeRows(m month.Month) []ScheduleRow {
	var active []ScheduleRow
	for _, row := range s.Rows {
		if s.Recurring {
			if m.InRange(row.Start, row.End) {
				active = append(active, row)
			}
		} else if row.Month.Equal(m) {
			active = append(active, row)
		}
	}
	return active
}

// inflationMultiplier computes the category inflation multiplier for a row
// active in year y, per spec §4.4: product(1+category_inflation[T,k]) for
// k in [start_year, y].
func (s *ScheduledFlow) inflationMultiplier(rowType string, startYear, y int) decimal.Decimal {
	if s.CategorySeries == nil || s.Rng == nil {
		return decimal.NewFromInt(1)
	}
	return s.CategorySeries.Multiplier(s.Rng, rowType, startYear, y)
}

func (s *ScheduledFlow) Apply(buckets *bucket.Set, l *ledger.Ledger, m month.Month, log logging.Logger) {
	s.lastOrdinary = decimal.Zero
	s.lastRealizedGain = decimal.Zero
	s.lastTaxableGain = decimal.Zero
	s.lastTaxFree = decimal.Zero

	for _, row := range s.activeRows(m) {
		startYear := s.StartYear
		if s.Recurring {
			startYear = row.Start.Year
		}
		multiplier := s.inflationMultiplier(row.Type, startYear, m.Year)
		amount := row.Amount.Mul(multiplier)

		target, ok := buckets.Get(row.Bucket)
		if !ok {
			if log != nil {
				log.Warnf("scheduled flow %q: bucket %q not found; skipping", row.Description, row.Bucket)
			}
			continue
		}

		if amount.GreaterThan(decimal.Zero) {
			target.Deposit(l, amount, "Scheduled: "+row.Description, m, ledger.Deposit)
			continue
		}

		withdrawAmount := amount.Abs()
		dest := routeWithdrawalTarget(target, m, s.TaxableEligibility)
		if dest == nil {
			cash := buckets.Cash()
			if cash == nil {
				if log != nil {
					log.Warnf("scheduled flow %q: no Cash bucket to route pre-eligibility withdrawal", row.Description)
				}
				continue
			}
			cash.Withdraw(l, withdrawAmount, "Scheduled: "+row.Description, m, ledger.Withdraw, log)
			continue
		}

		moved := dest.Withdraw(l, withdrawAmount, "Scheduled: "+row.Description, m, ledger.Withdraw, log)
		ordinary, realizedGain, taxableGain, taxFree := classifyWithdrawal(dest, moved)
		s.lastOrdinary = s.lastOrdinary.Add(ordinary)
		s.lastRealizedGain = s.lastRealizedGain.Add(realizedGain)
		s.lastTaxableGain = s.lastTaxableGain.Add(taxableGain)
		s.lastTaxFree = s.lastTaxFree.Add(taxFree)
	}
}

func (s *ScheduledFlow) OrdinaryWithdrawal() decimal.Decimal { return s.lastOrdinary }
func (s *ScheduledFlow) RealizedGain() decimal.Decimal       { return s.lastRealizedGain }
func (s *ScheduledFlow) TaxableGain() decimal.Decimal        { return s.lastTaxableGain }
func (s *ScheduledFlow) TaxFreeWithdrawal() decimal.Decimal  { return s.lastTaxFree }

// NewFixed builds a one-shot scheduled flow from Fixed rows.
func NewFixed(rows []ScheduleRow, startYear int, taxableEligibility month.Month, cats *market.CategorySeries, rng *rand.Rand) *ScheduledFlow {
	return &ScheduledFlow{Rows: rows, Recurring: false, StartYear: startYear, TaxableEligibility: taxableEligibility, CategorySeries: cats, Rng: rng}
}

// NewRecurring builds a recurring scheduled flow from Recurring rows.
func NewRecurring(rows []ScheduleRow, taxableEligibility month.Month, cats *market.CategorySeries, rng *rand.Rand) *ScheduledFlow {
	return &ScheduledFlow{Rows: rows, Recurring: true, TaxableEligibility: taxableEligibility, CategorySeries: cats, Rng: rng}
}
