package ledger

import (
	"context"

	"freightdesk/internal/core/id"
	"freightdesk/internal/domain/catalogs/client"
)

// Repository stores ledger transactions. There is no update or delete.
type Repository interface {
	Append(ctx context.Context, t *Transaction) error
	ListByClient(ctx context.Context, clientID id.ID) ([]Transaction, error)
}

// ClientReader is the read side of the client catalog.
type ClientReader interface {
	GetByID(ctx context.Context, clientID id.ID) (*client.Client, error)
}
