package invoice

import (
	"context"

	"freightdesk/internal/core/id"
	"freightdesk/internal/domain"
	"freightdesk/internal/domain/shipment"
)

// ListFilter narrows invoice listings.
type ListFilter struct {
	domain.ListFilter

	ShipmentID *id.ID
	Status     *Status
}

// Repository defines data access for invoices.
type Repository interface {
	Create(ctx context.Context, inv *Invoice) error
	GetByID(ctx context.Context, invoiceID id.ID) (*Invoice, error)
	// Update writes inv with the optimistic version check.
	Update(ctx context.Context, inv *Invoice) error
	List(ctx context.Context, filter ListFilter) (domain.ListResult[*Invoice], error)

	// ListActiveByShipment returns invoices bound to the shipment whose status is not ARCHIVED.
	ListActiveByShipment(ctx context.Context, shipmentID id.ID) ([]*Invoice, error)

	// UnlinkShipment clears shipment_id on every invoice bound to the shipment.
	UnlinkShipment(ctx context.Context, shipmentID id.ID) (int64, error)
}

// ShipmentReader resolves the shipment an invoice is bound to.
type ShipmentReader interface {
	GetByID(ctx context.Context, shipmentID id.ID) (*shipment.Shipment, error)
}
