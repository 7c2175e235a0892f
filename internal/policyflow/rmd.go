package policyflow

import (
	"github.com/forecastlab/montecore/internal/bucket"
	"github.com/forecastlab/montecore/internal/ledger"
	"github.com/forecastlab/montecore/internal/logging"
	"github.com/forecastlab/montecore/internal/txn"
	"github.com/forecastlab/montecore/pkg/month"
	"github.com/shopspring/decimal"
)

// RMD implements txn.Transaction for Required Minimum Distributions (spec
// §4.5). Sources lists the tax-deferred buckets whose balances are summed
// for the annual amount; Targets maps destination bucket name to its share.
type RMD struct {
	txn.ZeroGetters

	BirthMonth month.Month
	StartAge   int // default 75 is the caller's responsibility (spec says "default 75")
	RMDMonth   int // 1-12
	Sources    []string
	Targets    map[string]decimal.Decimal

	lastOrdinary decimal.Decimal
}

// Apply distributes the annual RMD across Targets by share once per year at
// RMDMonth, once age >= StartAge (spec §4.5 "Required Minimum Distribution").
func (r *RMD) Apply(buckets *bucket.Set, l *ledger.Ledger, m month.Month, log logging.Logger) {
	r.lastOrdinary = decimal.Zero

	if int(m.Month) != r.RMDMonth {
		return
	}

	age := r.BirthMonth.MonthsUntil(m) / 12
	if age < r.StartAge {
		return
	}

	total := decimal.Zero
	for _, name := range r.Sources {
		if b, ok := buckets.Get(name); ok {
			total = total.Add(b.Balance())
		}
	}
	if total.IsZero() {
		return
	}

	divisor := UniformLifetimeDivisor(age)
	if divisor.IsZero() {
		return
	}
	annual := total.Div(divisor)

	remaining := annual
	for i, name := range r.Sources {
		src, ok := buckets.Get(name)
		if !ok || src.Balance().IsZero() {
			continue
		}
		share := src.Balance().Div(total)
		need := annual.Mul(share)
		if i == len(r.Sources)-1 {
			need = remaining
		}
		drawn := src.PartialWithdraw(l, need, "RMD distribution", m, ledger.Withdraw)
		r.distributeRMD(buckets, l, m, drawn, log)
		remaining = remaining.Sub(need)
		r.lastOrdinary = r.lastOrdinary.Add(drawn)
	}
}

func (r *RMD) distributeRMD(buckets *bucket.Set, l *ledger.Ledger, m month.Month, amount decimal.Decimal, log logging.Logger) {
	for name, share := range r.Targets {
		target, ok := buckets.Get(name)
		if !ok {
			if log != nil {
				log.Warnf("rmd: target bucket %q not found; skipping", name)
			}
			continue
		}
		target.Deposit(l, amount.Mul(share), "RMD distribution", m, ledger.Deposit)
	}
}

func (r *RMD) OrdinaryWithdrawal() decimal.Decimal { return r.lastOrdinary }
