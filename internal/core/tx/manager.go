// Package tx defines the transaction boundary used by domain services.
// The implementation lives in infrastructure/storage/postgres.
package tx

import (
	"context"
)

// Manager defines the contract for transaction management.
type Manager interface {
	// RunInTransaction executes fn within a database transaction.
	// If fn returns an error, the transaction is rolled back.
	// Nested calls reuse the existing transaction from context.
	RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// ReadOnlyManager extends Manager with read-only transaction support.
type ReadOnlyManager interface {
	Manager

	// ReadOnly executes fn in a read-only transaction.
	ReadOnly(ctx context.Context, fn func(ctx context.Context) error) error
}

// RunReadOnly runs fn in a read-only transaction when m supports one,
// and in a regular transaction otherwise. Multi-query reads see one snapshot.
func RunReadOnly(ctx context.Context, m Manager, fn func(ctx context.Context) error) error {
	if ro, ok := m.(ReadOnlyManager); ok {
		return ro.ReadOnly(ctx, fn)
	}
	return m.RunInTransaction(ctx, fn)
}

// Nop runs fn directly. For services exercised without a database.
type Nop struct{}

// RunInTransaction implements Manager.
func (Nop) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// ReadOnly implements ReadOnlyManager.
func (Nop) ReadOnly(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

var _ ReadOnlyManager = Nop{}
