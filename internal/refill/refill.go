// Package refill implements the Refill / Liquidation Policy (spec §4.6):
// ordered-source cascades that top up buckets below a floor, and a last-
// resort liquidation cascade that funds Cash when it falls below its own
// floor. Grounded on the teacher's internal/sequencing package: its
// WithdrawalSource/WithdrawalAllocation shape is generalized here into
// RefillTransaction, and the ordered-source-list cascade in standard.go
// becomes Policy.GenerateRefills/GenerateLiquidations.
package refill

import (
	"sort"

	"github.com/forecastlab/montecore/internal/bucket"
	"github.com/forecastlab/montecore/internal/ledger"
	"github.com/forecastlab/montecore/internal/logging"
	"github.com/forecastlab/montecore/internal/txn"
	"github.com/forecastlab/montecore/pkg/month"
	"github.com/shopspring/decimal"
)

// RefillTransaction is a single source->target transfer generated by the
// refill or liquidation cascade, classified by the source bucket's tax
// treatment (spec §4.6 "RefillTransaction classifies the movement").
type RefillTransaction struct {
	txn.ZeroGetters

	Source          string
	Target          string
	Amount          decimal.Decimal
	PenaltyEligible bool

	sourceClassification bucket.Classification
	applied              bool
}

// NewRefillTransaction classifies amount moved from src to target by the
// source's Classification, per spec §4.6.
func NewRefillTransaction(src *bucket.Bucket, target string, amount decimal.Decimal, penaltyEligible bool) *RefillTransaction {
	return &RefillTransaction{
		Source:                src.Name,
		Target:                target,
		Amount:                amount,
		PenaltyEligible:       penaltyEligible,
		sourceClassification: src.Classification,
	}
}

// Apply touches neither balances nor the ledger: the balance movement and
// its ledger entry already happened in Policy.GenerateRefills/
// GenerateLiquidations (which must hold a *bucket.Bucket to move money);
// Apply only marks the transaction applied and exists so
// RefillTransaction satisfies txn.Transaction and participates in the
// engine's per-tick getter accumulation (spec §4.3).
func (r *RefillTransaction) Apply(buckets *bucket.Set, l *ledger.Ledger, m month.Month, log logging.Logger) {
	r.applied = true
}

func (r *RefillTransaction) classification() bucket.Classification { return r.sourceClassification }

func (r *RefillTransaction) OrdinaryWithdrawal() decimal.Decimal {
	if r.sourceClassification == bucket.TaxDeferred {
		return r.Amount
	}
	return decimal.Zero
}

func (r *RefillTransaction) RealizedGain() decimal.Decimal {
	if r.sourceClassification == bucket.Taxable {
		return r.Amount.Mul(decimal.NewFromFloat(0.5))
	}
	return decimal.Zero
}

func (r *RefillTransaction) TaxableGain() decimal.Decimal {
	if r.sourceClassification == bucket.Taxable {
		return r.Amount.Mul(decimal.NewFromFloat(0.5))
	}
	return decimal.Zero
}

func (r *RefillTransaction) TaxFreeWithdrawal() decimal.Decimal {
	if r.sourceClassification == bucket.TaxFree {
		return r.Amount
	}
	return decimal.Zero
}

func (r *RefillTransaction) PenaltyEligibleWithdrawal() decimal.Decimal {
	if r.PenaltyEligible {
		return r.Amount
	}
	return decimal.Zero
}

// Policy holds the refill/liquidation configuration (spec §4.6 "State").
type Policy struct {
	Thresholds           map[string]decimal.Decimal
	RefillAmounts        map[string]decimal.Decimal
	Sources              map[string][]string
	LiquidationThreshold decimal.Decimal
	LiquidationSources   []string
	LiquidationTargets   map[string]decimal.Decimal
	TaxableEligibility   month.Month
	SEPPWindowStart      month.Month
	SEPPWindowEnd        month.Month
}

func (p *Policy) inSEPPWindow(m month.Month) bool {
	if p.SEPPWindowStart.Equal(month.Month{}) && p.SEPPWindowEnd.Equal(month.Month{}) {
		return false
	}
	return m.InRange(p.SEPPWindowStart, p.SEPPWindowEnd)
}

// GenerateRefills walks every threshold target below its floor, in
// target-name order, and draws from its ordered source list, skipping
// sources that are tax-advantaged before eligibility or tax-deferred during
// the SEPP window (spec §4.6 "Refill generation").
func (p *Policy) GenerateRefills(buckets *bucket.Set, l *ledger.Ledger, m month.Month, log logging.Logger) []*RefillTransaction {
	var generated []*RefillTransaction

	targets := make([]string, 0, len(p.Thresholds))
	for target := range p.Thresholds {
		targets = append(targets, target)
	}
	sort.Strings(targets)

	for _, target := range targets {
		threshold := p.Thresholds[target]
		targetBucket, ok := buckets.Get(target)
		if !ok {
			continue
		}
		if targetBucket.Balance().GreaterThanOrEqual(threshold) {
			continue
		}

		need, ok := p.RefillAmounts[target]
		if !ok || need.LessThanOrEqual(decimal.Zero) {
			if log != nil {
				log.Warnf("refill: no refill amount configured for %q; skipping", target)
			}
			continue
		}

		for _, sourceName := range p.Sources[target] {
			if need.LessThanOrEqual(decimal.Zero) {
				break
			}
			source, ok := buckets.Get(sourceName)
			if !ok || source.Balance().LessThanOrEqual(decimal.Zero) {
				continue
			}
			advantaged := source.Classification == bucket.TaxDeferred || source.Classification == bucket.TaxFree
			if advantaged && m.Before(p.TaxableEligibility) {
				continue
			}
			if source.Classification == bucket.TaxDeferred && p.inSEPPWindow(m) {
				continue
			}

			transferAmount := decimal.Min(need, source.Balance())
			moved := source.Transfer(l, transferAmount, targetBucket, m, ledger.Transfer, log)
			if moved.GreaterThan(decimal.Zero) {
				generated = append(generated, NewRefillTransaction(source, target, moved, false))
				need = need.Sub(moved)
			}
		}
	}

	return generated
}

// GenerateLiquidations funds Cash from the ordered liquidation source list
// once Cash falls below LiquidationThreshold (spec §4.6 "Liquidation
// generation"). Property is special-cased: its full balance is sold and
// split across LiquidationTargets by share.
func (p *Policy) GenerateLiquidations(buckets *bucket.Set, l *ledger.Ledger, m month.Month, ageMonths int, log logging.Logger) []*RefillTransaction {
	cash := buckets.Cash()
	if cash == nil {
		return nil
	}
	shortfall := p.LiquidationThreshold.Sub(cash.Balance())
	if shortfall.LessThanOrEqual(decimal.Zero) {
		return nil
	}

	var generated []*RefillTransaction

	for _, sourceName := range p.LiquidationSources {
		if shortfall.LessThanOrEqual(decimal.Zero) {
			break
		}
		if sourceName == bucket.CashBucketName {
			continue
		}
		source, ok := buckets.Get(sourceName)
		if !ok || source.Balance().LessThanOrEqual(decimal.Zero) {
			continue
		}

		if source.Classification == bucket.Property {
			proceeds := source.Balance()
			for targetName, share := range p.LiquidationTargets {
				target, ok := buckets.Get(targetName)
				if !ok {
					continue
				}
				portion := proceeds.Mul(share)
				moved := source.Transfer(l, portion, target, m, ledger.Transfer, log)
				generated = append(generated, NewRefillTransaction(source, targetName, moved, false))
				if targetName == bucket.CashBucketName {
					shortfall = shortfall.Sub(moved)
				}
			}
			continue
		}

		amount := decimal.Min(source.Balance(), shortfall)
		penaltyEligible := source.Classification == bucket.TaxDeferred && ageMonths < 59*12+6
		moved := source.Transfer(l, amount, cash, m, ledger.Transfer, log)
		if moved.GreaterThan(decimal.Zero) {
			generated = append(generated, NewRefillTransaction(source, bucket.CashBucketName, moved, penaltyEligible))
			shortfall = shortfall.Sub(moved)
		}
	}

	return generated
}
