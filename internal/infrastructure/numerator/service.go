// Package numerator implements core/numerator.Generator on a PostgreSQL counter table.
package numerator

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	corenumerator "freightdesk/internal/core/numerator"
	"freightdesk/internal/infrastructure/storage/postgres"
)

// Querier interface for database operations.
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Service hands out ordinals with a single UPSERT ... RETURNING per call.
// The row lock taken by the UPSERT serializes concurrent callers on the same
// key; when the call runs inside the caller's transaction a rollback also
// returns the ordinal.
type Service struct {
	querier func(ctx context.Context) Querier
}

var _ corenumerator.Generator = (*Service)(nil)

// New creates a service bound to a fixed querier.
func New(q Querier) *Service {
	return &Service{querier: func(context.Context) Querier { return q }}
}

// NewTransactional creates a service that joins the transaction carried in ctx.
func NewTransactional(txm *postgres.TxManager) *Service {
	return &Service{querier: func(ctx context.Context) Querier { return txm.GetQuerier(ctx) }}
}

// Next implements corenumerator.Generator.
func (s *Service) Next(ctx context.Context, key corenumerator.Key) (int64, error) {
	if key == "" {
		return 0, fmt.Errorf("numerator key is empty")
	}

	var num int64
	err := s.querier(ctx).QueryRow(ctx, `
		INSERT INTO sys_sequences (key, current_val)
		VALUES ($1, 1)
		ON CONFLICT (key) DO UPDATE SET current_val = sys_sequences.current_val + 1
		RETURNING current_val`, string(key)).Scan(&num)
	if err != nil {
		return 0, fmt.Errorf("next %s: %w", key, err)
	}
	return num, nil
}

// SetCurrent moves a counter so the next call returns value+1.
// Used when importing shipments numbered elsewhere.
func (s *Service) SetCurrent(ctx context.Context, key corenumerator.Key, value int64) error {
	if value < 0 {
		return fmt.Errorf("numerator value must not be negative: %d", value)
	}

	var result int64
	err := s.querier(ctx).QueryRow(ctx, `
		INSERT INTO sys_sequences (key, current_val)
		VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET current_val = GREATEST(sys_sequences.current_val, $2)
		RETURNING current_val`, string(key), value).Scan(&result)
	if err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}
