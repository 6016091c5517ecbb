package ledger

import (
	"sort"

	"github.com/shopspring/decimal"

	"freightdesk/internal/core/id"
)

// Entry is a transaction with the balance right after it was applied.
type Entry struct {
	Transaction
	RunningBalance decimal.Decimal `json:"runningBalance"`
}

// Summary is the read-side projection of a client's ledger.
type Summary struct {
	Balance      decimal.Decimal `json:"balance"`
	IncomeTotal  decimal.Decimal `json:"incomeTotal"`
	ExpenseTotal decimal.Decimal `json:"expenseTotal"`
	Count        int             `json:"count"`
}

func chronological(a, b Transaction) int {
	if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
		return c
	}
	return id.Compare(a.ID, b.ID)
}

// RunningBalance replays txs oldest first, then returns them newest first for display.
// Ties on CreatedAt are broken by ID. The input slice is not modified.
func RunningBalance(txs []Transaction) []Entry {
	entries := make([]Entry, len(txs))
	for i, t := range txs {
		entries[i] = Entry{Transaction: t}
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return chronological(entries[i].Transaction, entries[j].Transaction) < 0
	})
	balance := decimal.Zero
	for i := range entries {
		balance = balance.Add(entries[i].signed())
		entries[i].RunningBalance = balance
	}

	// Display order only; balances stay as computed above.
	for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
		entries[i], entries[j] = entries[j], entries[i]
	}
	return entries
}

// Summarize computes the current balance and independent income/expense totals.
func Summarize(txs []Transaction) Summary {
	s := Summary{
		Balance:      decimal.Zero,
		IncomeTotal:  decimal.Zero,
		ExpenseTotal: decimal.Zero,
		Count:        len(txs),
	}
	for _, t := range txs {
		switch t.Type {
		case TypeIncome:
			s.IncomeTotal = s.IncomeTotal.Add(t.Amount)
		case TypeExpense:
			s.ExpenseTotal = s.ExpenseTotal.Add(t.Amount)
		}
	}
	if entries := RunningBalance(txs); len(entries) > 0 {
		s.Balance = entries[0].RunningBalance
	}
	return s
}
