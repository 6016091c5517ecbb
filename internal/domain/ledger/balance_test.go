package ledger

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"freightdesk/internal/core/id"
)

var t0 = time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC)

func money(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func newTx(typ Type, amount string, at time.Time) Transaction {
	return Transaction{ID: id.New(), Type: typ, Amount: money(amount), CreatedAt: at}
}

func balances(entries []Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.RunningBalance.String()
	}
	return out
}

func TestRunningBalance_AnyInsertionOrder(t *testing.T) {
	in100 := newTx(TypeIncome, "100", t0)
	out30 := newTx(TypeExpense, "30", t0.Add(time.Hour))
	in20 := newTx(TypeIncome, "20", t0.Add(2*time.Hour))

	orders := [][]Transaction{
		{in100, out30, in20},
		{in20, out30, in100},
		{out30, in20, in100},
	}
	for _, txs := range orders {
		entries := RunningBalance(txs)
		require.Len(t, entries, 3)
		// Display order is newest first.
		assert.Equal(t, []string{"90", "70", "100"}, balances(entries))
		assert.Equal(t, in20.ID, entries[0].ID)
		assert.Equal(t, in100.ID, entries[2].ID)
	}
}

func TestRunningBalance_TiesBrokenByID(t *testing.T) {
	first := newTx(TypeIncome, "10", t0)
	second := newTx(TypeExpense, "25", t0)
	require.Negative(t, id.Compare(first.ID, second.ID))

	entries := RunningBalance([]Transaction{second, first})
	require.Len(t, entries, 2)
	assert.Equal(t, second.ID, entries[0].ID)
	assert.True(t, money("-15").Equal(entries[0].RunningBalance))
	assert.Equal(t, first.ID, entries[1].ID)
	assert.True(t, money("10").Equal(entries[1].RunningBalance))
}

func TestRunningBalance_DoesNotReorderInput(t *testing.T) {
	a := newTx(TypeIncome, "1", t0.Add(time.Hour))
	b := newTx(TypeIncome, "2", t0)
	in := []Transaction{a, b}

	RunningBalance(in)
	assert.Equal(t, a.ID, in[0].ID)
}

func TestRunningBalance_Empty(t *testing.T) {
	assert.Empty(t, RunningBalance(nil))
}

func TestSummarize(t *testing.T) {
	s := Summarize([]Transaction{
		newTx(TypeExpense, "30", t0.Add(time.Hour)),
		newTx(TypeIncome, "100", t0),
		newTx(TypeIncome, "20", t0.Add(2*time.Hour)),
	})
	assert.True(t, money("90").Equal(s.Balance))
	assert.True(t, money("120").Equal(s.IncomeTotal))
	assert.True(t, money("30").Equal(s.ExpenseTotal))
	assert.Equal(t, 3, s.Count)
}

func TestSummarize_Empty(t *testing.T) {
	s := Summarize(nil)
	assert.True(t, s.Balance.IsZero())
	assert.True(t, s.IncomeTotal.IsZero())
	assert.True(t, s.ExpenseTotal.IsZero())
}
