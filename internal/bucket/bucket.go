// Package bucket implements the balance-container model: named buckets of
// weighted holdings with deposit/withdraw/transfer semantics (spec §3
// "Bucket", §4.1).
package bucket

import (
	"fmt"

	"github.com/forecastlab/montecore/internal/ledger"
	"github.com/forecastlab/montecore/internal/logging"
	"github.com/forecastlab/montecore/pkg/month"
	"github.com/shopspring/decimal"
)

// Classification is the tax/liquidity tag on a bucket (spec §3).
type Classification int

const (
	Cash Classification = iota
	Taxable
	TaxDeferred
	TaxFree
	Property
	Other
)

func (c Classification) String() string {
	switch c {
	case Cash:
		return "cash"
	case Taxable:
		return "taxable"
	case TaxDeferred:
		return "tax-deferred"
	case TaxFree:
		return "tax-free"
	case Property:
		return "property"
	default:
		return "other"
	}
}

// CashBucketName is the distinguished name of the liquidity bucket (spec §3
// "The 'Cash' bucket is distinguished by name").
const CashBucketName = "Cash"

// weightTolerance is the maximum allowed drift of a bucket's holding
// weights from summing to 1.0, after rounding-residue correction is
// assigned to the final holding (spec §3 Holding invariant).
const weightTolerance = "0.000001"

// Holding is a weighted slice of a bucket tied to an asset class.
type Holding struct {
	AssetClass   string
	TargetWeight decimal.Decimal
	Amount       decimal.Decimal
	CostBasis    *decimal.Decimal // nil when basis is not tracked (spec §9 open question)
}

// Bucket is a named balance container composed of one or more Holdings.
type Bucket struct {
	Name           string
	Holdings       []Holding
	Classification Classification
	MayGoNegative  bool
	CashFallback   bool
}

// New constructs a bucket and validates that holding weights sum to ~1.0.
func New(name string, classification Classification, holdings []Holding, mayGoNegative, cashFallback bool) (*Bucket, error) {
	if len(holdings) == 0 {
		return nil, fmt.Errorf("bucket %q: must have at least one holding", name)
	}
	sum := decimal.Zero
	for _, h := range holdings {
		sum = sum.Add(h.TargetWeight)
	}
	tol, _ := decimal.NewFromString(weightTolerance)
	if sum.Sub(decimal.NewFromInt(1)).Abs().GreaterThan(tol) {
		return nil, fmt.Errorf("bucket %q: holding weights sum to %s, want ~1.0", name, sum.String())
	}
	cp := make([]Holding, len(holdings))
	copy(cp, holdings)
	return &Bucket{
		Name:           name,
		Holdings:       cp,
		Classification: classification,
		MayGoNegative:  mayGoNegative,
		CashFallback:   cashFallback,
	}, nil
}

// IsCash reports whether this is the distinguished Cash bucket.
func (b *Bucket) IsCash() bool { return b.Name == CashBucketName }

// Balance is the sum of every holding's amount.
func (b *Bucket) Balance() decimal.Decimal {
	total := decimal.Zero
	for _, h := range b.Holdings {
		total = total.Add(h.Amount)
	}
	return total
}

// currentWeights returns each holding's share of the current (not target)
// balance, used to distribute deposits/withdrawals proportionally by
// current weight (spec §4.1).
func (b *Bucket) currentWeights() []decimal.Decimal {
	balance := b.Balance()
	weights := make([]decimal.Decimal, len(b.Holdings))
	if balance.IsZero() {
		// Fall back to configured target weights when the bucket is empty.
		for i, h := range b.Holdings {
			weights[i] = h.TargetWeight
		}
		return weights
	}
	for i, h := range b.Holdings {
		weights[i] = h.Amount.Div(balance)
	}
	return weights
}

// Deposit distributes amount across holdings by current weight; the final
// holding absorbs any rounding residue so the bucket's total grows by
// exactly amount. One ledger entry is recorded for the total.
func (b *Bucket) Deposit(l *ledger.Ledger, amount decimal.Decimal, sourceLabel string, m month.Month, kind ledger.Kind) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return
	}
	weights := b.currentWeights()
	allocated := decimal.Zero
	for i := range b.Holdings {
		if i == len(b.Holdings)-1 {
			b.Holdings[i].Amount = b.Holdings[i].Amount.Add(amount.Sub(allocated))
			break
		}
		share := amount.Mul(weights[i]).Round(2)
		b.Holdings[i].Amount = b.Holdings[i].Amount.Add(share)
		allocated = allocated.Add(share)
	}
	if l != nil {
		l.Record(ledger.Entry{Month: m, Source: sourceLabel, Target: b.Name, Amount: amount, Kind: kind})
	}
}

// Withdraw draws amount proportionally across holdings. If the bucket
// cannot cover amount and MayGoNegative is false, it returns 0 and logs a
// warning; the withdrawal is skipped entirely (spec §4.1). If
// MayGoNegative is true, the full amount is taken regardless of balance.
// Returns the amount actually moved, which is also what gets recorded in
// the ledger.
func (b *Bucket) Withdraw(l *ledger.Ledger, amount decimal.Decimal, targetLabel string, m month.Month, kind ledger.Kind, log logging.Logger) decimal.Decimal {
	if amount.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}
	balance := b.Balance()
	if !b.MayGoNegative && amount.GreaterThan(balance) {
		if log != nil {
			log.Warnf("bucket %q: insufficient balance (%s) to withdraw %s; skipping", b.Name, balance.String(), amount.String())
		}
		return decimal.Zero
	}
	b.drawProportional(amount)
	if l != nil {
		l.Record(ledger.Entry{Month: m, Source: b.Name, Target: targetLabel, Amount: amount, Kind: kind})
	}
	return amount
}

// drawProportional removes amount from the bucket's holdings in proportion
// to their current weight, with the last holding absorbing rounding
// residue. It does not clamp to balance; callers decide whether negative
// balances are permitted.
func (b *Bucket) drawProportional(amount decimal.Decimal) {
	weights := b.currentWeights()
	removed := decimal.Zero
	for i := range b.Holdings {
		if i == len(b.Holdings)-1 {
			b.Holdings[i].Amount = b.Holdings[i].Amount.Sub(amount.Sub(removed))
			break
		}
		share := amount.Mul(weights[i]).Round(2)
		b.Holdings[i].Amount = b.Holdings[i].Amount.Sub(share)
		removed = removed.Add(share)
	}
}

// PartialWithdraw takes min(amount, balance) and never drives the bucket
// negative, regardless of MayGoNegative. Returns the amount actually taken.
func (b *Bucket) PartialWithdraw(l *ledger.Ledger, amount decimal.Decimal, targetLabel string, m month.Month, kind ledger.Kind) decimal.Decimal {
	if amount.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}
	balance := b.Balance()
	take := decimal.Min(amount, balance)
	if take.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}
	b.drawProportional(take)
	if l != nil {
		l.Record(ledger.Entry{Month: m, Source: b.Name, Target: targetLabel, Amount: take, Kind: kind})
	}
	return take
}

// WithdrawWithCashFallback attempts PartialWithdraw on b first; any
// shortfall is then drawn from cashBucket (which may itself overdraw if it
// allows negative balances). Returns the total amount obtained from both
// buckets combined.
func (b *Bucket) WithdrawWithCashFallback(l *ledger.Ledger, amount decimal.Decimal, cashBucket *Bucket, targetLabel string, m month.Month, kind ledger.Kind) decimal.Decimal {
	got := b.PartialWithdraw(l, amount, targetLabel, m, kind)
	shortfall := amount.Sub(got)
	if shortfall.LessThanOrEqual(decimal.Zero) || cashBucket == nil {
		return got
	}
	if cashBucket.MayGoNegative {
		cashBucket.drawProportional(shortfall)
		if l != nil {
			l.Record(ledger.Entry{Month: m, Source: cashBucket.Name, Target: targetLabel, Amount: shortfall, Kind: kind})
		}
		return got.Add(shortfall)
	}
	fromCash := cashBucket.PartialWithdraw(l, shortfall, targetLabel, m, kind)
	return got.Add(fromCash)
}

// Transfer moves amount from b to target as a single ledger entry
// (internally a withdraw+deposit pair). Used by refill/liquidation policy.
func (b *Bucket) Transfer(l *ledger.Ledger, amount decimal.Decimal, target *Bucket, m month.Month, kind ledger.Kind, log logging.Logger) decimal.Decimal {
	if amount.LessThanOrEqual(decimal.Zero) || target == nil {
		return decimal.Zero
	}
	balance := b.Balance()
	if !b.MayGoNegative && amount.GreaterThan(balance) {
		if log != nil {
			log.Warnf("bucket %q: insufficient balance (%s) to transfer %s to %q; skipping", b.Name, balance.String(), amount.String(), target.Name)
		}
		return decimal.Zero
	}
	b.drawProportional(amount)
	target.creditOnly(amount)
	if l != nil {
		l.Record(ledger.Entry{Month: m, Source: b.Name, Target: target.Name, Amount: amount, Kind: kind})
	}
	return amount
}

// creditOnly distributes amount across holdings without writing a separate
// ledger entry. Used internally by Transfer, which records one combined
// entry for the pair.
func (b *Bucket) creditOnly(amount decimal.Decimal) {
	weights := b.currentWeights()
	allocated := decimal.Zero
	for i := range b.Holdings {
		if i == len(b.Holdings)-1 {
			b.Holdings[i].Amount = b.Holdings[i].Amount.Add(amount.Sub(allocated))
			break
		}
		share := amount.Mul(weights[i]).Round(2)
		b.Holdings[i].Amount = b.Holdings[i].Amount.Add(share)
		allocated = allocated.Add(share)
	}
}

// Snapshot is one month's recorded per-bucket balance (spec §3 "Monthly
// Snapshot").
type Snapshot struct {
	Month    month.Month
	Balances map[string]decimal.Decimal
}

// Set is the ordered collection of buckets the engine owns for a trial,
// keyed by name for policy lookups but iterated in a stable order for
// snapshotting.
type Set struct {
	order   []string
	buckets map[string]*Bucket
}

// NewSet builds a bucket set, preserving the given order for deterministic
// snapshot iteration.
func NewSet(buckets []*Bucket) *Set {
	s := &Set{buckets: make(map[string]*Bucket, len(buckets))}
	for _, b := range buckets {
		s.order = append(s.order, b.Name)
		s.buckets[b.Name] = b
	}
	return s
}

// Get returns the named bucket, or nil and false if it does not exist
// (spec §7: "missing configured bucket names during transactions are
// warnings; the operation is skipped").
func (s *Set) Get(name string) (*Bucket, bool) {
	b, ok := s.buckets[name]
	return b, ok
}

// Cash returns the distinguished Cash bucket, or nil if none is configured.
func (s *Set) Cash() *Bucket {
	b, _ := s.Get(CashBucketName)
	return b
}

// Names returns bucket names in configuration order.
func (s *Set) Names() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// All returns every bucket in configuration order.
func (s *Set) All() []*Bucket {
	out := make([]*Bucket, 0, len(s.order))
	for _, name := range s.order {
		out = append(out, s.buckets[name])
	}
	return out
}

// TakeSnapshot records the current balance of every bucket for m.
func (s *Set) TakeSnapshot(m month.Month) Snapshot {
	balances := make(map[string]decimal.Decimal, len(s.order))
	for _, name := range s.order {
		balances[name] = s.buckets[name].Balance().Round(2)
	}
	return Snapshot{Month: m, Balances: balances}
}

// TotalTaxDeferred sums the balances of every tax-deferred bucket, used by
// RMD computation (spec §4.5).
func (s *Set) TotalTaxDeferred() decimal.Decimal {
	total := decimal.Zero
	for _, name := range s.order {
		b := s.buckets[name]
		if b.Classification == TaxDeferred {
			total = total.Add(b.Balance())
		}
	}
	return total
}
