package document_repo

import (
	"context"
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"

	"freightdesk/internal/core/id"
	"freightdesk/internal/domain"
	"freightdesk/internal/domain/invoice"
	"freightdesk/internal/infrastructure/storage/postgres"
)

const invoiceTable = "invoices"

// InvoiceRepo implements invoice.Repository.
type InvoiceRepo struct {
	*BaseDocumentRepo[*invoice.Invoice]
}

// NewInvoiceRepo creates a new invoice repository.
func NewInvoiceRepo(txManager *postgres.TxManager) *InvoiceRepo {
	return &InvoiceRepo{
		BaseDocumentRepo: NewBaseDocumentRepo[*invoice.Invoice](
			txManager,
			invoiceTable,
			"invoice",
			postgres.ExtractDBColumns[invoice.Invoice](),
			func() *invoice.Invoice { return &invoice.Invoice{} },
		),
	}
}

var _ invoice.Repository = (*InvoiceRepo)(nil)

// ListActiveByShipment returns non-archived invoices bound to the shipment, oldest first.
func (r *InvoiceRepo) ListActiveByShipment(ctx context.Context, shipmentID id.ID) ([]*invoice.Invoice, error) {
	return r.FindAll(ctx, r.activeByShipmentQuery(shipmentID))
}

func (r *InvoiceRepo) activeByShipmentQuery(shipmentID id.ID) squirrel.SelectBuilder {
	return r.baseSelect().
		Where(squirrel.Eq{"shipment_id": shipmentID}).
		Where(squirrel.NotEq{"status": invoice.StatusArchived}).
		OrderBy("created_at", "id")
}

// UnlinkShipment clears shipment_id on every invoice bound to the shipment.
func (r *InvoiceRepo) UnlinkShipment(ctx context.Context, shipmentID id.ID) (int64, error) {
	sql, args, err := r.Builder().
		Update(invoiceTable).
		Set("shipment_id", nil).
		Set("version", squirrel.Expr("version + 1")).
		Where(squirrel.Eq{"shipment_id": shipmentID}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build unlink: %w", err)
	}

	tag, err := r.querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return 0, fmt.Errorf("unlink invoices of shipment %s: %w", shipmentID, err)
	}
	return tag.RowsAffected(), nil
}

// List retrieves invoices matching filter.
func (r *InvoiceRepo) List(ctx context.Context, filter invoice.ListFilter) (domain.ListResult[*invoice.Invoice], error) {
	q := r.baseSelect()

	if filter.ShipmentID != nil {
		q = q.Where(squirrel.Eq{"shipment_id": *filter.ShipmentID})
	}
	if filter.Status != nil {
		q = q.Where(squirrel.Eq{"status": *filter.Status})
	}
	if s := strings.TrimSpace(filter.Search); s != "" {
		q = q.Where(squirrel.ILike{"invoice_number": "%" + s + "%"})
	}
	return r.list(ctx, q, filter.ListFilter)
}
