package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"freightdesk/internal/core/id"
	"freightdesk/internal/domain/invoice"
	"freightdesk/internal/domain/shipment"
)

// CreateInvoiceRequest issues an invoice, optionally bound to a shipment.
// A blank number is derived from the shipment track.
type CreateInvoiceRequest struct {
	ShipmentID       *string         `json:"shipmentId"`
	Amount           decimal.Decimal `json:"amount"`
	Number           string          `json:"invoiceNumber" binding:"max=64"`
	Status           string          `json:"status" binding:"omitempty,invoicestatus"`
	DueDate          *string         `json:"dueDate"`
	ConfirmDuplicate bool            `json:"confirmDuplicate"`
}

// ToInput converts the request into service input.
func (r CreateInvoiceRequest) ToInput() (invoice.CreateInput, error) {
	shipmentID, err := ParseOptionalID("shipmentId", r.ShipmentID)
	if err != nil {
		return invoice.CreateInput{}, err
	}
	var due *time.Time
	if r.DueDate != nil {
		due, err = shipment.ParseDate("dueDate", *r.DueDate)
	}
	if err != nil {
		return invoice.CreateInput{}, err
	}
	return invoice.CreateInput{
		ShipmentID:       shipmentID,
		Amount:           r.Amount,
		Number:           r.Number,
		Status:           invoice.Status(r.Status),
		DueDate:          due,
		ConfirmDuplicate: r.ConfirmDuplicate,
	}, nil
}

// SetInvoiceStatusRequest moves an invoice to another status.
type SetInvoiceStatusRequest struct {
	Status string `json:"status" binding:"required,invoicestatus"`
}

// LinkInvoiceRequest binds an invoice to a shipment.
type LinkInvoiceRequest struct {
	ShipmentID       string `json:"shipmentId" binding:"required,uuid"`
	ConfirmDuplicate bool   `json:"confirmDuplicate"`
}

// InvoiceListQuery filters the invoice list.
type InvoiceListQuery struct {
	ListQuery
	ShipmentID string `form:"shipmentId" binding:"omitempty,uuid"`
	Status     string `form:"status" binding:"omitempty,invoicestatus"`
}

// ToFilter converts the query into an invoice filter.
func (q InvoiceListQuery) ToFilter() invoice.ListFilter {
	f := invoice.ListFilter{ListFilter: q.ListQuery.ToFilter("-created_at")}
	if q.ShipmentID != "" {
		v, _ := id.Parse(q.ShipmentID)
		f.ShipmentID = &v
	}
	if q.Status != "" {
		st := invoice.Status(q.Status)
		f.Status = &st
	}
	return f
}

// InvoiceResponse is the API view of an invoice.
type InvoiceResponse struct {
	DocumentResponse
	Number     string          `json:"invoiceNumber"`
	Amount     decimal.Decimal `json:"amount"`
	Status     string          `json:"status"`
	ShipmentID string          `json:"shipmentId,omitempty"`
	DueDate    *time.Time      `json:"dueDate,omitempty"`
}

// FromInvoice maps an invoice to its response.
func FromInvoice(inv *invoice.Invoice) InvoiceResponse {
	resp := InvoiceResponse{
		DocumentResponse: FromDocument(inv.BaseDocument),
		Number:           inv.Number,
		Amount:           inv.Amount,
		Status:           string(inv.Status),
		DueDate:          inv.DueDate,
	}
	if inv.ShipmentID != nil {
		resp.ShipmentID = inv.ShipmentID.String()
	}
	return resp
}

// DuplicateWarningResponse is returned with 409 when active invoices already
// exist for the shipment. Repeat with confirmDuplicate=true to proceed.
type DuplicateWarningResponse struct {
	Code       string            `json:"code"`
	Message    string            `json:"message"`
	ShipmentID string            `json:"shipmentId"`
	Existing   []InvoiceResponse `json:"existing"`
}

// FromDuplicateWarning maps a warning to its response.
func FromDuplicateWarning(code string, w *invoice.DuplicateWarning) DuplicateWarningResponse {
	existing := make([]InvoiceResponse, len(w.Existing))
	for i, inv := range w.Existing {
		existing[i] = FromInvoice(inv)
	}
	return DuplicateWarningResponse{
		Code:       code,
		Message:    "Shipment already has active invoices; confirm to create another",
		ShipmentID: w.ShipmentID.String(),
		Existing:   existing,
	}
}
