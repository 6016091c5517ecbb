package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"freightdesk/internal/core/id"
	"freightdesk/internal/domain/ledger"
)

// AppendTransactionRequest records income or expense for a client.
type AppendTransactionRequest struct {
	Type        string          `json:"type" binding:"required,ledgertype"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description" binding:"max=1000"`
}

// ToInput converts the request into service input.
func (r AppendTransactionRequest) ToInput(clientID id.ID) ledger.AppendInput {
	return ledger.AppendInput{
		ClientID:    clientID,
		Type:        ledger.Type(r.Type),
		Amount:      r.Amount,
		Description: r.Description,
	}
}

// TransactionResponse is one ledger entry.
type TransactionResponse struct {
	ID             string           `json:"id"`
	ClientID       string           `json:"clientId"`
	Type           string           `json:"type"`
	Amount         decimal.Decimal  `json:"amount"`
	Description    string           `json:"description,omitempty"`
	CreatedAt      time.Time        `json:"createdAt"`
	CreatedBy      string           `json:"createdBy,omitempty"`
	RunningBalance *decimal.Decimal `json:"runningBalance,omitempty"`
}

// FromTransaction maps a transaction to its response.
func FromTransaction(t *ledger.Transaction) TransactionResponse {
	return TransactionResponse{
		ID:          t.ID.String(),
		ClientID:    t.ClientID.String(),
		Type:        string(t.Type),
		Amount:      t.Amount,
		Description: t.Description,
		CreatedAt:   t.CreatedAt,
		CreatedBy:   t.CreatedBy,
	}
}

// BalanceResponse is the ledger summary of a client.
type BalanceResponse struct {
	ClientID     string          `json:"clientId"`
	Balance      decimal.Decimal `json:"balance"`
	IncomeTotal  decimal.Decimal `json:"incomeTotal"`
	ExpenseTotal decimal.Decimal `json:"expenseTotal"`
	Count        int             `json:"count"`
}

// FromSummary maps a summary to its response.
func FromSummary(clientID id.ID, s ledger.Summary) BalanceResponse {
	return BalanceResponse{
		ClientID:     clientID.String(),
		Balance:      s.Balance,
		IncomeTotal:  s.IncomeTotal,
		ExpenseTotal: s.ExpenseTotal,
		Count:        s.Count,
	}
}

// StatementResponse is the running-balance view, newest entry first.
type StatementResponse struct {
	Entries []TransactionResponse `json:"entries"`
	Summary BalanceResponse       `json:"summary"`
}

// FromStatement maps a statement to its response.
func FromStatement(st *ledger.Statement) StatementResponse {
	entries := make([]TransactionResponse, len(st.Entries))
	for i := range st.Entries {
		e := st.Entries[i]
		entries[i] = FromTransaction(&e.Transaction)
		entries[i].RunningBalance = &e.RunningBalance
	}
	return StatementResponse{
		Entries: entries,
		Summary: FromSummary(st.ClientID, st.Summary),
	}
}
