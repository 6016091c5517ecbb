package document_repo

import (
	"context"
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"freightdesk/internal/core/id"
	"freightdesk/internal/domain"
	"freightdesk/internal/domain/shipment"
	"freightdesk/internal/infrastructure/storage/postgres"
)

const (
	shipmentTable        = "shipments"
	shipmentItemsTable   = "shipment_items"
	shipmentHistoryTable = "shipment_status_history"
)

var (
	itemColumns    = postgres.ExtractDBColumns[shipment.Item]()
	historyColumns = postgres.ExtractDBColumns[shipment.StatusHistoryEntry]()
)

// ShipmentRepo implements shipment.Repository.
type ShipmentRepo struct {
	*BaseDocumentRepo[*shipment.Shipment]
	bulk *postgres.BulkWriter
}

// NewShipmentRepo creates a new shipment repository.
func NewShipmentRepo(txManager *postgres.TxManager) *ShipmentRepo {
	return &ShipmentRepo{
		BaseDocumentRepo: NewBaseDocumentRepo[*shipment.Shipment](
			txManager,
			shipmentTable,
			"shipment",
			postgres.ExtractDBColumns[shipment.Shipment](),
			func() *shipment.Shipment { return &shipment.Shipment{} },
		),
		bulk: postgres.NewBulkWriter(txManager),
	}
}

var _ shipment.Repository = (*ShipmentRepo)(nil)

// GetItems returns the items of a shipment ordered by place number.
func (r *ShipmentRepo) GetItems(ctx context.Context, shipmentID id.ID) ([]shipment.Item, error) {
	sql, args, err := r.Builder().
		Select(itemColumns...).
		From(shipmentItemsTable).
		Where(squirrel.Eq{"shipment_id": shipmentID}).
		OrderBy("place_number").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build items query: %w", err)
	}

	var items []shipment.Item
	if err := pgxscan.Select(ctx, r.querier(ctx), &items, sql, args...); err != nil {
		return nil, fmt.Errorf("get shipment items: %w", err)
	}
	return items, nil
}

// SaveItems replaces all items of the shipment. Must run inside a transaction.
func (r *ShipmentRepo) SaveItems(ctx context.Context, shipmentID id.ID, items []shipment.Item) error {
	if err := r.DeleteItems(ctx, shipmentID); err != nil {
		return err
	}

	rows := make([][]any, 0, len(items))
	for i := range items {
		it := items[i]
		it.ShipmentID = shipmentID
		if id.IsNil(it.ID) {
			it.ID = id.New()
		}
		rows = append(rows, rowValues(itemColumns, &it))
	}

	if _, err := r.bulk.CopyFromSlice(ctx, shipmentItemsTable, itemColumns, rows); err != nil {
		return fmt.Errorf("copy shipment items: %w", err)
	}
	return nil
}

// DeleteItems removes every item of the shipment.
func (r *ShipmentRepo) DeleteItems(ctx context.Context, shipmentID id.ID) error {
	return r.deleteOwned(ctx, shipmentItemsTable, shipmentID)
}

// AppendHistory inserts status history entries. Must run inside a transaction.
func (r *ShipmentRepo) AppendHistory(ctx context.Context, entries []shipment.StatusHistoryEntry) error {
	rows := make([][]any, 0, len(entries))
	for i := range entries {
		rows = append(rows, rowValues(historyColumns, &entries[i]))
	}

	if _, err := r.bulk.CopyFromSlice(ctx, shipmentHistoryTable, historyColumns, rows); err != nil {
		return fmt.Errorf("copy status history: %w", err)
	}
	return nil
}

// ListHistory returns the status history newest first.
func (r *ShipmentRepo) ListHistory(ctx context.Context, shipmentID id.ID) ([]shipment.StatusHistoryEntry, error) {
	sql, args, err := r.Builder().
		Select(historyColumns...).
		From(shipmentHistoryTable).
		Where(squirrel.Eq{"shipment_id": shipmentID}).
		OrderBy("created_at DESC", "id DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build history query: %w", err)
	}

	var entries []shipment.StatusHistoryEntry
	if err := pgxscan.Select(ctx, r.querier(ctx), &entries, sql, args...); err != nil {
		return nil, fmt.Errorf("list status history: %w", err)
	}
	return entries, nil
}

// DeleteHistory removes the status history of the shipment.
func (r *ShipmentRepo) DeleteHistory(ctx context.Context, shipmentID id.ID) error {
	return r.deleteOwned(ctx, shipmentHistoryTable, shipmentID)
}

func (r *ShipmentRepo) deleteOwned(ctx context.Context, table string, shipmentID id.ID) error {
	sql, args, err := r.Builder().
		Delete(table).
		Where(squirrel.Eq{"shipment_id": shipmentID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete %s: %w", table, err)
	}
	if _, err := r.querier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("delete %s: %w", table, err)
	}
	return nil
}

// List retrieves shipments matching filter. Items are not loaded.
func (r *ShipmentRepo) List(ctx context.Context, filter shipment.ListFilter) (domain.ListResult[*shipment.Shipment], error) {
	return r.list(ctx, r.listQuery(filter), filter.ListFilter)
}

func (r *ShipmentRepo) listQuery(filter shipment.ListFilter) squirrel.SelectBuilder {
	q := r.baseSelect()

	if filter.BatchID != nil {
		q = q.Where(squirrel.Eq{"batch_id": *filter.BatchID})
	}
	if filter.ClientID != nil {
		q = q.Where(squirrel.Eq{"client_id": *filter.ClientID})
	}
	if filter.Status != nil {
		q = q.Where(squirrel.Eq{"status": *filter.Status})
	}
	if s := strings.TrimSpace(filter.Search); s != "" {
		q = q.Where(squirrel.ILike{"internal_track": "%" + s + "%"})
	}
	return q
}
