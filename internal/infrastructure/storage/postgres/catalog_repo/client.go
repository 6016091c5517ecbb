package catalog_repo

import (
	"freightdesk/internal/domain/catalogs/client"
	"freightdesk/internal/infrastructure/storage/postgres"
)

const clientTable = "clients"

// ClientRepo implements client.Repository.
type ClientRepo struct {
	*BaseCatalogRepo[*client.Client]
}

// NewClientRepo creates a new client repository.
func NewClientRepo(txManager *postgres.TxManager) *ClientRepo {
	return &ClientRepo{
		BaseCatalogRepo: NewBaseCatalogRepo[*client.Client](
			txManager,
			clientTable,
			postgres.ExtractDBColumns[client.Client](),
			func() *client.Client { return &client.Client{} },
		),
	}
}

var _ client.Repository = (*ClientRepo)(nil)
