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

// CategoryRent is the inflation-series category key for rent (spec §4.5
// "Rent").
const CategoryRent = "Rent"

// Rent implements txn.Transaction for post-sale housing cost (spec §4.5
// "Rent"). It only withdraws once PropertyBucket's balance is zero, i.e.
// the property has been sold via the liquidation policy.
type Rent struct {
	txn.ZeroGetters

	MonthlyAmount  decimal.Decimal
	PropertyBucket string
	CashBucket     string
	CategorySeries *market.CategorySeries
	Rng            *rand.Rand
	StartYear      int
}

func (r *Rent) Apply(buckets *bucket.Set, l *ledger.Ledger, m month.Month, log logging.Logger) {
	property, ok := buckets.Get(r.PropertyBucket)
	if ok && property.Balance().GreaterThan(decimal.Zero) {
		return
	}

	cash, ok := buckets.Get(r.CashBucket)
	if !ok {
		if log != nil {
			log.Warnf("rent: cash bucket %q not found; skipping", r.CashBucket)
		}
		return
	}

	multiplier := decimal.NewFromInt(1)
	if r.CategorySeries != nil && r.Rng != nil {
		multiplier = r.CategorySeries.Multiplier(r.Rng, CategoryRent, r.StartYear, m.Year)
	}
	cash.Withdraw(l, r.MonthlyAmount.Mul(multiplier), "Rent", m, ledger.Withdraw, log)
}
