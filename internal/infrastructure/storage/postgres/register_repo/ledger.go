// Package register_repo provides PostgreSQL implementations for append-only registers.
package register_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"freightdesk/internal/core/id"
	"freightdesk/internal/domain/ledger"
	"freightdesk/internal/infrastructure/storage/postgres"
)

const ledgerTable = "ledger_transactions"

var ledgerColumns = postgres.ExtractDBColumns[ledger.Transaction]()

// LedgerRepo implements ledger.Repository. Rows are never updated or deleted.
type LedgerRepo struct {
	txManager *postgres.TxManager
	builder   squirrel.StatementBuilderType
}

// NewLedgerRepo creates a new ledger repository.
func NewLedgerRepo(txManager *postgres.TxManager) *LedgerRepo {
	return &LedgerRepo{
		txManager: txManager,
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

var _ ledger.Repository = (*LedgerRepo)(nil)

// Append inserts one transaction.
func (r *LedgerRepo) Append(ctx context.Context, t *ledger.Transaction) error {
	sql, args, err := r.insertQuery(t).ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert ledger transaction: %w", err)
	}
	return nil
}

func (r *LedgerRepo) insertQuery(t *ledger.Transaction) squirrel.InsertBuilder {
	return r.builder.Insert(ledgerTable).SetMap(postgres.StructToMap(t))
}

// ListByClient returns every transaction of the client in replay order.
func (r *LedgerRepo) ListByClient(ctx context.Context, clientID id.ID) ([]ledger.Transaction, error) {
	sql, args, err := r.listQuery(clientID).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var txs []ledger.Transaction
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &txs, sql, args...); err != nil {
		return nil, fmt.Errorf("select ledger transactions: %w", err)
	}
	return txs, nil
}

func (r *LedgerRepo) listQuery(clientID id.ID) squirrel.SelectBuilder {
	return r.builder.
		Select(ledgerColumns...).
		From(ledgerTable).
		Where(squirrel.Eq{"client_id": clientID}).
		OrderBy("created_at", "id")
}
