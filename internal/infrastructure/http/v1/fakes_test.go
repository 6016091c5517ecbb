package v1

import (
	"context"
	"sync"

	"freightdesk/internal/core/apperror"
	"freightdesk/internal/core/id"
	"freightdesk/internal/domain"
	"freightdesk/internal/domain/invoice"
	"freightdesk/internal/domain/ledger"
	"freightdesk/internal/domain/shipment"
)

type coded interface {
	domain.Coded
	MarkDeleted()
	Touch()
}

type memCatalog[T coded] struct {
	mu   sync.Mutex
	rows map[id.ID]T
}

func newMemCatalog[T coded]() *memCatalog[T] {
	return &memCatalog[T]{rows: make(map[id.ID]T)}
}

func (r *memCatalog[T]) Create(_ context.Context, e T) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows[e.GetID()] = e
	return nil
}

func (r *memCatalog[T]) GetByID(_ context.Context, v id.ID) (T, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.rows[v]; ok {
		return e, nil
	}
	var zero T
	return zero, apperror.NewNotFound("catalog", v.String())
}

func (r *memCatalog[T]) GetByCode(_ context.Context, code string) (T, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.rows {
		if e.GetCode() == code {
			return e, nil
		}
	}
	var zero T
	return zero, apperror.NewNotFound("catalog", code)
}

func (r *memCatalog[T]) Update(_ context.Context, e T) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e.Touch()
	r.rows[e.GetID()] = e
	return nil
}

func (r *memCatalog[T]) Delete(_ context.Context, v id.ID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows[v].MarkDeleted()
	return nil
}

func (r *memCatalog[T]) List(_ context.Context, f domain.ListFilter) (domain.ListResult[T], error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	res := domain.ListResult[T]{Limit: f.Limit, Offset: f.Offset}
	for _, e := range r.rows {
		res.Items = append(res.Items, e)
	}
	res.TotalCount = int64(len(res.Items))
	return res, nil
}

func (r *memCatalog[T]) ExistsByCode(_ context.Context, code string, exclude id.ID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.rows {
		if e.GetCode() == code && e.GetID() != exclude {
			return true, nil
		}
	}
	return false, nil
}

type memShipments struct {
	mu      sync.Mutex
	rows    map[id.ID]shipment.Shipment
	items   map[id.ID][]shipment.Item
	history map[id.ID][]shipment.StatusHistoryEntry
}

func newMemShipments() *memShipments {
	return &memShipments{
		rows:    make(map[id.ID]shipment.Shipment),
		items:   make(map[id.ID][]shipment.Item),
		history: make(map[id.ID][]shipment.StatusHistoryEntry),
	}
}

func (r *memShipments) Create(_ context.Context, s *shipment.Shipment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	row := *s
	row.Items = nil
	r.rows[s.ID] = row
	return nil
}

func (r *memShipments) GetByID(_ context.Context, v id.ID) (*shipment.Shipment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[v]
	if !ok {
		return nil, apperror.NewNotFound("shipments", v.String())
	}
	return &row, nil
}

func (r *memShipments) GetForUpdate(ctx context.Context, v id.ID) (*shipment.Shipment, error) {
	return r.GetByID(ctx, v)
}

func (r *memShipments) Update(_ context.Context, s *shipment.Shipment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.rows[s.ID].Version != s.Version {
		return apperror.NewConcurrentModification("shipment", s.ID.String())
	}
	s.Touch()
	row := *s
	row.Items = nil
	r.rows[s.ID] = row
	return nil
}

func (r *memShipments) Delete(_ context.Context, v id.ID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.rows, v)
	return nil
}

func (r *memShipments) GetItems(_ context.Context, v id.ID) ([]shipment.Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]shipment.Item(nil), r.items[v]...), nil
}

func (r *memShipments) SaveItems(_ context.Context, v id.ID, items []shipment.Item) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	saved := make([]shipment.Item, len(items))
	for i, it := range items {
		it.ShipmentID = v
		saved[i] = it
	}
	r.items[v] = saved
	return nil
}

func (r *memShipments) DeleteItems(_ context.Context, v id.ID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.items, v)
	return nil
}

func (r *memShipments) AppendHistory(_ context.Context, entries []shipment.StatusHistoryEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range entries {
		r.history[e.ShipmentID] = append(r.history[e.ShipmentID], e)
	}
	return nil
}

func (r *memShipments) ListHistory(_ context.Context, v id.ID) ([]shipment.StatusHistoryEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	src := r.history[v]
	out := make([]shipment.StatusHistoryEntry, len(src))
	for i := range src {
		out[len(src)-1-i] = src[i]
	}
	return out, nil
}

func (r *memShipments) DeleteHistory(_ context.Context, v id.ID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.history, v)
	return nil
}

func (r *memShipments) List(_ context.Context, f shipment.ListFilter) (domain.ListResult[*shipment.Shipment], error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	res := domain.ListResult[*shipment.Shipment]{Limit: f.Limit, Offset: f.Offset}
	for _, row := range r.rows {
		if f.ClientID != nil && row.ClientID != *f.ClientID {
			continue
		}
		if f.Status != nil && row.Status != *f.Status {
			continue
		}
		row := row
		res.Items = append(res.Items, &row)
	}
	res.TotalCount = int64(len(res.Items))
	return res, nil
}

type memInvoices struct {
	mu    sync.Mutex
	rows  map[id.ID]invoice.Invoice
	order []id.ID
}

func newMemInvoices() *memInvoices {
	return &memInvoices{rows: make(map[id.ID]invoice.Invoice)}
}

func (r *memInvoices) Create(_ context.Context, inv *invoice.Invoice) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows[inv.ID] = *inv
	r.order = append(r.order, inv.ID)
	return nil
}

func (r *memInvoices) GetByID(_ context.Context, v id.ID) (*invoice.Invoice, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[v]
	if !ok {
		return nil, apperror.NewNotFound("invoices", v.String())
	}
	return &row, nil
}

func (r *memInvoices) Update(_ context.Context, inv *invoice.Invoice) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.rows[inv.ID].Version != inv.Version {
		return apperror.NewConcurrentModification("invoice", inv.ID.String())
	}
	inv.Touch()
	r.rows[inv.ID] = *inv
	return nil
}

func (r *memInvoices) List(_ context.Context, f invoice.ListFilter) (domain.ListResult[*invoice.Invoice], error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	res := domain.ListResult[*invoice.Invoice]{Limit: f.Limit, Offset: f.Offset}
	for _, v := range r.order {
		row := r.rows[v]
		if f.ShipmentID != nil && (row.ShipmentID == nil || *row.ShipmentID != *f.ShipmentID) {
			continue
		}
		res.Items = append(res.Items, &row)
	}
	res.TotalCount = int64(len(res.Items))
	return res, nil
}

func (r *memInvoices) ListActiveByShipment(_ context.Context, shipmentID id.ID) ([]*invoice.Invoice, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*invoice.Invoice
	for _, v := range r.order {
		row := r.rows[v]
		if row.ShipmentID != nil && *row.ShipmentID == shipmentID && row.Status.IsActive() {
			out = append(out, &row)
		}
	}
	return out, nil
}

func (r *memInvoices) UnlinkShipment(_ context.Context, shipmentID id.ID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for v, row := range r.rows {
		if row.ShipmentID != nil && *row.ShipmentID == shipmentID {
			row.ShipmentID = nil
			row.Touch()
			r.rows[v] = row
			n++
		}
	}
	return n, nil
}

type memLedger struct {
	mu   sync.Mutex
	rows []ledger.Transaction
}

func (r *memLedger) Append(_ context.Context, t *ledger.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows = append(r.rows, *t)
	return nil
}

func (r *memLedger) ListByClient(_ context.Context, clientID id.ID) ([]ledger.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []ledger.Transaction
	for _, t := range r.rows {
		if t.ClientID == clientID {
			out = append(out, t)
		}
	}
	return out, nil
}

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }
