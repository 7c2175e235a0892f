package policyflow

import (
	"math/rand"

	"github.com/forecastlab/montecore/internal/bucket"
	"github.com/forecastlab/montecore/internal/ledger"
	"github.com/forecastlab/montecore/internal/logging"
	"github.com/forecastlab/montecore/internal/market"
	"github.com/forecastlab/montecore/internal/txn"
	"github.com/forecastlab/montecore/pkg/month"
	"github.com/shopspring/decimal"
)

// Property category keys used to look up independently-drawn inflation
// series in CategorySeries (spec §4.5 "Property").
const (
	CategoryPropertyMaintenance = "Property Maintenance"
	CategoryPropertyTaxes       = "Property Taxes"
	CategoryPropertyInsurance   = "Property Insurance"
)

// Property implements txn.Transaction for mortgage amortization, escrow,
// and maintenance on a single property (spec §4.5 "Property"). Every
// component is withdrawn from Cash; principal amortizes in place and once
// it reaches zero, P&I stops but escrow and maintenance continue.
type Property struct {
	txn.ZeroGetters

	APR                decimal.Decimal
	MonthlyPI          decimal.Decimal
	MonthlyTaxes       decimal.Decimal
	MonthlyInsurance   decimal.Decimal
	MaintenanceRate    decimal.Decimal // annual, of market value
	MarketValue        decimal.Decimal
	RemainingPrincipal decimal.Decimal
	CategorySeries     *market.CategorySeries
	Rng                *rand.Rand
	StartYear          int
	CashBucket         string
}

func (p *Property) multiplier(category string, year int) decimal.Decimal {
	if p.CategorySeries == nil || p.Rng == nil {
		return decimal.NewFromInt(1)
	}
	return p.CategorySeries.Multiplier(p.Rng, category, p.StartYear, year)
}

// Apply withdraws maintenance, escrow, and (while the loan is outstanding)
// principal-and-interest from Cash, amortizing the remaining principal
// (spec §4.5 "Property").
func (p *Property) Apply(buckets *bucket.Set, l *ledger.Ledger, m month.Month, log logging.Logger) {
	cash, ok := buckets.Get(p.CashBucket)
	if !ok {
		if log != nil {
			log.Warnf("property: cash bucket %q not found; skipping", p.CashBucket)
		}
		return
	}

	maintenance := p.MarketValue.Mul(p.MaintenanceRate).Div(decimal.NewFromInt(12)).Mul(p.multiplier(CategoryPropertyMaintenance, m.Year))
	taxes := p.MonthlyTaxes.Mul(p.multiplier(CategoryPropertyTaxes, m.Year))
	insurance := p.MonthlyInsurance.Mul(p.multiplier(CategoryPropertyInsurance, m.Year))

	cash.Withdraw(l, maintenance, "Property Maintenance", m, ledger.Withdraw, log)
	cash.Withdraw(l, taxes, "Property Taxes", m, ledger.Withdraw, log)
	cash.Withdraw(l, insurance, "Property Insurance", m, ledger.Withdraw, log)

	if p.RemainingPrincipal.GreaterThan(decimal.Zero) {
		interest := p.RemainingPrincipal.Mul(p.APR).Div(decimal.NewFromInt(12))
		principalPortion := p.MonthlyPI.Sub(interest)
		if principalPortion.GreaterThan(p.RemainingPrincipal) {
			principalPortion = p.RemainingPrincipal
		}
		cash.Withdraw(l, interest.Add(principalPortion), "Mortgage P&I", m, ledger.Withdraw, log)
		p.RemainingPrincipal = p.RemainingPrincipal.Sub(principalPortion)
	}
}
