// Package txn defines the common transaction contract every cash-flow
// generator implements (scheduled, policy, and refill/liquidation flows),
// plus the scheduled (fixed/recurring) flow types (spec §4.3, §4.4).
//
// Rather than a class hierarchy, each concrete flow is a distinct type that
// implements Transaction by embedding ZeroGetters and overriding only the
// tax-category getters it actually contributes to: a sum type via a fixed
// getter set, not virtual dispatch (spec §9 "Polymorphism across
// transaction types").
package txn

import (
	"github.com/forecastlab/montecore/internal/bucket"
	"github.com/forecastlab/montecore/internal/ledger"
	"github.com/forecastlab/montecore/internal/logging"
	"github.com/forecastlab/montecore/pkg/month"
	"github.com/shopspring/decimal"
)

// Transaction is applied once per tick and then queried for its
// contribution to each tax category for that same tick (spec §4.3). All
// mutation happens inside Apply; getters reflect only the most recently
// applied month's effect.
type Transaction interface {
	Apply(buckets *bucket.Set, l *ledger.Ledger, m month.Month, log logging.Logger)

	Salary() decimal.Decimal
	Unemployment() decimal.Decimal
	SocialSecurity() decimal.Decimal
	OrdinaryWithdrawal() decimal.Decimal
	RealizedGain() decimal.Decimal
	TaxableGain() decimal.Decimal
	TaxFreeWithdrawal() decimal.Decimal
	FixedIncomeInterest() decimal.Decimal
	FixedIncomeWithdrawal() decimal.Decimal
	PenaltyEligibleWithdrawal() decimal.Decimal
}

// ZeroGetters implements every Transaction getter as a zero return. Concrete
// flow types embed it and override only what applies to them.
type ZeroGetters struct{}

func (ZeroGetters) Salary() decimal.Decimal                    { return decimal.Zero }
func (ZeroGetters) Unemployment() decimal.Decimal               { return decimal.Zero }
func (ZeroGetters) SocialSecurity() decimal.Decimal             { return decimal.Zero }
func (ZeroGetters) OrdinaryWithdrawal() decimal.Decimal          { return decimal.Zero }
func (ZeroGetters) RealizedGain() decimal.Decimal                { return decimal.Zero }
func (ZeroGetters) TaxableGain() decimal.Decimal                 { return decimal.Zero }
func (ZeroGetters) TaxFreeWithdrawal() decimal.Decimal           { return decimal.Zero }
func (ZeroGetters) FixedIncomeInterest() decimal.Decimal         { return decimal.Zero }
func (ZeroGetters) FixedIncomeWithdrawal() decimal.Decimal       { return decimal.Zero }
func (ZeroGetters) PenaltyEligibleWithdrawal() decimal.Decimal   { return decimal.Zero }

// AccumulateInto adds every one of t's getters into the running yearly
// totals map, keyed by tax category name. The engine calls this once per
// transaction per tick (spec §4.8 step 9).
func AccumulateInto(t Transaction, totals map[string]decimal.Decimal) {
	totals["salary"] = totals["salary"].Add(t.Salary())
	totals["unemployment"] = totals["unemployment"].Add(t.Unemployment())
	totals["social_security"] = totals["social_security"].Add(t.SocialSecurity())
	totals["ordinary_withdrawal"] = totals["ordinary_withdrawal"].Add(t.OrdinaryWithdrawal())
	totals["realized_gain"] = totals["realized_gain"].Add(t.RealizedGain())
	totals["taxable_gain"] = totals["taxable_gain"].Add(t.TaxableGain())
	totals["tax_free_withdrawal"] = totals["tax_free_withdrawal"].Add(t.TaxFreeWithdrawal())
	totals["fixed_income_interest"] = totals["fixed_income_interest"].Add(t.FixedIncomeInterest())
	totals["fixed_income_withdrawal"] = totals["fixed_income_withdrawal"].Add(t.FixedIncomeWithdrawal())
	totals["penalty_eligible_withdrawal"] = totals["penalty_eligible_withdrawal"].Add(t.PenaltyEligibleWithdrawal())
}
