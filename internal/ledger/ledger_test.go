package ledger

import (
	"testing"

	"github.com/forecastlab/montecore/pkg/month"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestNew_StampsDeterministicTrialID(t *testing.T) {
	l1 := New(7)
	l2 := New(7)
	l3 := New(8)

	assert.Equal(t, l1.TrialID, l2.TrialID, "same trial index should produce the same display TrialID")
	assert.NotEqual(t, l1.TrialID, l3.TrialID)
}

func TestRecordAndEntries_PreservesEmissionOrder(t *testing.T) {
	l := New(0)
	l.Record(Entry{Month: month.New(2026, 1), Source: "Salary", Target: "Cash", Amount: decimal.NewFromInt(100), Kind: Deposit})
	l.Record(Entry{Month: month.New(2026, 2), Source: "Cash", Target: "Rent", Amount: decimal.NewFromInt(50), Kind: Withdraw})

	entries := l.Entries()
	assert.Len(t, entries, 2)
	assert.Equal(t, Deposit, entries[0].Kind)
	assert.Equal(t, Withdraw, entries[1].Kind)
}

func TestEntries_ReturnsACopyNotTheInternalSlice(t *testing.T) {
	l := New(0)
	l.Record(Entry{Source: "A", Target: "B", Amount: decimal.NewFromInt(1), Kind: Deposit})

	entries := l.Entries()
	entries[0].Amount = decimal.NewFromInt(999)

	assert.True(t, l.Entries()[0].Amount.Equal(decimal.NewFromInt(1)), "mutating the returned slice must not affect the ledger")
}

func TestNetFlow_SumsDepositsMinusWithdrawals(t *testing.T) {
	l := New(0)
	l.Record(Entry{Source: "Salary", Target: "Cash", Amount: decimal.NewFromInt(5000), Kind: Deposit})
	l.Record(Entry{Source: "Cash", Target: "Rent", Amount: decimal.NewFromInt(1500), Kind: Withdraw})
	l.Record(Entry{Source: "Brokerage", Target: "Cash", Amount: decimal.NewFromInt(300), Kind: Transfer})

	assert.True(t, l.NetFlow("Cash").Equal(decimal.NewFromInt(3800)), "5000 - 1500 + 300 = 3800, got %s", l.NetFlow("Cash"))
}

func TestNetFlow_UnreferencedBucketIsZero(t *testing.T) {
	l := New(0)
	l.Record(Entry{Source: "Salary", Target: "Cash", Amount: decimal.NewFromInt(100), Kind: Deposit})

	assert.True(t, l.NetFlow("Brokerage").IsZero())
}

func TestKindString(t *testing.T) {
	cases := map[Kind]string{
		Deposit:  "deposit",
		Withdraw: "withdraw",
		Transfer: "transfer",
		Gain:     "gain",
		Loss:     "loss",
		Kind(99): "unknown",
	}
	for kind, want := range cases {
		assert.Equal(t, want, kind.String())
	}
}
