package shipment

import (
	"context"

	"freightdesk/internal/core/id"
	"freightdesk/internal/domain"
	"freightdesk/internal/domain/catalogs/batch"
	"freightdesk/internal/domain/catalogs/client"
)

// ListFilter narrows shipment listings.
type ListFilter struct {
	domain.ListFilter

	BatchID  *id.ID
	ClientID *id.ID
	Status   *Status
}

// Repository defines data access for shipments and their owned rows.
type Repository interface {
	Create(ctx context.Context, s *Shipment) error
	GetByID(ctx context.Context, shipmentID id.ID) (*Shipment, error)

	// GetForUpdate reads the shipment row locked until the transaction ends.
	GetForUpdate(ctx context.Context, shipmentID id.ID) (*Shipment, error)

	// Update writes s only when the stored version equals s.Version,
	// then increments it. A mismatch returns a concurrent-modification error.
	Update(ctx context.Context, s *Shipment) error

	// Delete removes the shipment row. Owned rows must be removed first.
	Delete(ctx context.Context, shipmentID id.ID) error

	GetItems(ctx context.Context, shipmentID id.ID) ([]Item, error)
	// SaveItems replaces all items of the shipment.
	SaveItems(ctx context.Context, shipmentID id.ID, items []Item) error
	DeleteItems(ctx context.Context, shipmentID id.ID) error

	AppendHistory(ctx context.Context, entries []StatusHistoryEntry) error
	// ListHistory returns entries newest first.
	ListHistory(ctx context.Context, shipmentID id.ID) ([]StatusHistoryEntry, error)
	DeleteHistory(ctx context.Context, shipmentID id.ID) error

	List(ctx context.Context, filter ListFilter) (domain.ListResult[*Shipment], error)
}

// InvoiceUnlinker detaches invoices from a shipment being deleted.
type InvoiceUnlinker interface {
	UnlinkShipment(ctx context.Context, shipmentID id.ID) (int64, error)
}

// BatchReader is the read side of the batch catalog.
type BatchReader interface {
	GetByID(ctx context.Context, batchID id.ID) (*batch.Batch, error)
}

// ClientReader is the read side of the client catalog.
type ClientReader interface {
	GetByID(ctx context.Context, clientID id.ID) (*client.Client, error)
}

// Locker serializes edits of one shipment across processes.
type Locker interface {
	// Acquire takes the lock for key or fails with a SHIPMENT_LOCKED error.
	Acquire(ctx context.Context, key string) (release func(context.Context) error, err error)
}

// NopLocker always grants the lock.
type NopLocker struct{}

// Acquire implements Locker.
func (NopLocker) Acquire(context.Context, string) (func(context.Context) error, error) {
	return func(context.Context) error { return nil }, nil
}

// LockKey is the edit-lock key of a shipment.
func LockKey(shipmentID id.ID) string {
	return "lock:shipment:" + shipmentID.String()
}
