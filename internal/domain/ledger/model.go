// Package ledger implements the per-client balance ledger: an append-only
// transaction log whose balance is always derived by chronological replay.
package ledger

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"freightdesk/internal/core/apperror"
	"freightdesk/internal/core/id"
)

// Type is the direction of a ledger transaction.
type Type string

const (
	TypeIncome  Type = "income"
	TypeExpense Type = "expense"
)

// IsValid reports whether t is a known direction.
func (t Type) IsValid() bool {
	return t == TypeIncome || t == TypeExpense
}

// Transaction is an immutable ledger entry.
type Transaction struct {
	ID          id.ID           `db:"id" json:"id"`
	ClientID    id.ID           `db:"client_id" json:"clientId"`
	Type        Type            `db:"type" json:"type"`
	Amount      decimal.Decimal `db:"amount" json:"amount"`
	Description string          `db:"description" json:"description,omitempty"`
	CreatedAt   time.Time       `db:"created_at" json:"createdAt"`
	CreatedBy   string          `db:"created_by" json:"createdBy,omitempty"`
}

// NewTransaction creates a transaction stamped at now.
func NewTransaction(clientID id.ID, t Type, amount decimal.Decimal, description string, now time.Time) *Transaction {
	return &Transaction{
		ID:          id.New(),
		ClientID:    clientID,
		Type:        t,
		Amount:      amount,
		Description: strings.TrimSpace(description),
		CreatedAt:   now.UTC(),
	}
}

// Validate implements entity.Validatable interface.
func (t *Transaction) Validate(_ context.Context) error {
	if id.IsNil(t.ClientID) {
		return apperror.NewFieldValidation("clientId", "client is required")
	}
	if !t.Type.IsValid() {
		return apperror.NewFieldValidation("type", "type must be income or expense").
			WithDetail("value", string(t.Type))
	}
	if !t.Amount.IsPositive() {
		return apperror.NewFieldValidation("amount", "amount must be positive").
			WithDetail("value", t.Amount.String())
	}
	return nil
}

// signed returns the amount as it affects the balance.
func (t Transaction) signed() decimal.Decimal {
	if t.Type == TypeExpense {
		return t.Amount.Neg()
	}
	return t.Amount
}
