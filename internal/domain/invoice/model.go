// Package invoice links invoices to shipments, derives invoice numbers from
// shipment tracks and warns about duplicate active invoices.
package invoice

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"freightdesk/internal/core/apperror"
	"freightdesk/internal/core/entity"
	"freightdesk/internal/core/id"
)

// Status is the payment state of an invoice. Transitions are caller-driven.
type Status string

const (
	StatusUnpaid   Status = "UNPAID"
	StatusPaid     Status = "PAID"
	StatusArchived Status = "ARCHIVED"
)

// IsValid reports whether s is a known status.
func (s Status) IsValid() bool {
	switch s {
	case StatusUnpaid, StatusPaid, StatusArchived:
		return true
	}
	return false
}

// IsActive reports whether an invoice in state s counts for the duplicate check.
func (s Status) IsActive() bool {
	return s != StatusArchived
}

// Invoice is a bill, optionally bound to one shipment.
type Invoice struct {
	entity.BaseDocument

	Number     string          `db:"invoice_number" json:"invoiceNumber"`
	Amount     decimal.Decimal `db:"amount" json:"amount"`
	Status     Status          `db:"status" json:"status"`
	ShipmentID *id.ID          `db:"shipment_id" json:"shipmentId,omitempty"`
	DueDate    *time.Time      `db:"due_date" json:"dueDate,omitempty"`
}

// NewInvoice creates an unpaid invoice stamped at now.
func NewInvoice(now time.Time) *Invoice {
	return &Invoice{
		BaseDocument: entity.NewBaseDocument(now),
		Status:       StatusUnpaid,
	}
}

// Validate implements entity.Validatable interface.
func (inv *Invoice) Validate(_ context.Context) error {
	inv.Number = strings.TrimSpace(inv.Number)
	if inv.Number == "" {
		return apperror.NewFieldValidation("invoiceNumber", "invoice number is required")
	}
	if inv.Amount.IsNegative() {
		return apperror.NewFieldValidation("amount", "amount must not be negative").
			WithDetail("value", inv.Amount.String())
	}
	if !inv.Status.IsValid() {
		return apperror.NewFieldValidation("status", "invalid invoice status").
			WithDetail("value", string(inv.Status))
	}
	return nil
}

// DuplicateWarning lists the active invoices already bound to the shipment.
// It is a confirmable soft stop, not an error.
type DuplicateWarning struct {
	ShipmentID id.ID      `json:"shipmentId"`
	Existing   []*Invoice `json:"existing"`
}

// CreateResult holds exactly one of Invoice or Warning.
type CreateResult struct {
	Invoice *Invoice          `json:"invoice,omitempty"`
	Warning *DuplicateWarning `json:"warning,omitempty"`
}

// NeedsConfirmation reports whether the caller must confirm and retry.
func (r CreateResult) NeedsConfirmation() bool {
	return r.Warning != nil
}
