package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// BulkWriter moves row sets in one round-trip. It requires a transaction in ctx.
type BulkWriter struct {
	txManager *TxManager
}

// NewBulkWriter creates a bulk writer bound to txManager.
func NewBulkWriter(txManager *TxManager) *BulkWriter {
	return &BulkWriter{txManager: txManager}
}

// CopyFromSlice inserts rows using the COPY protocol.
//
//	rows := [][]any{{item.ID, item.ShipmentID, item.PlaceNumber}}
//	n, err := w.CopyFromSlice(ctx, "shipment_items", []string{"id", "shipment_id", "place_number"}, rows)
func (w *BulkWriter) CopyFromSlice(ctx context.Context, table string, columns []string, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	tx := w.txManager.GetTx(ctx)
	if tx == nil {
		return 0, fmt.Errorf("copy into %s requires transaction context", table)
	}
	return tx.CopyFrom(ctx, pgx.Identifier{table}, columns, pgx.CopyFromRows(rows))
}

// BatchQuery is one statement of a pipelined batch.
type BatchQuery struct {
	SQL  string
	Args []any
}

// ExecuteBatch sends queries in a single round-trip and checks every result.
func (w *BulkWriter) ExecuteBatch(ctx context.Context, queries []BatchQuery) error {
	if len(queries) == 0 {
		return nil
	}
	tx := w.txManager.GetTx(ctx)
	if tx == nil {
		return fmt.Errorf("batch execution requires transaction context")
	}

	batch := &pgx.Batch{}
	for _, q := range queries {
		batch.Queue(q.SQL, q.Args...)
	}

	results := tx.SendBatch(ctx, batch)
	defer results.Close()

	for i := range queries {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("batch query %d: %w", i, err)
		}
	}
	return nil
}
