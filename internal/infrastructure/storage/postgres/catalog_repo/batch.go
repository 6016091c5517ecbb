package catalog_repo

import (
	"freightdesk/internal/domain/catalogs/batch"
	"freightdesk/internal/infrastructure/storage/postgres"
)

const batchTable = "batches"

// BatchRepo implements batch.Repository.
type BatchRepo struct {
	*BaseCatalogRepo[*batch.Batch]
}

// NewBatchRepo creates a new batch repository.
func NewBatchRepo(txManager *postgres.TxManager) *BatchRepo {
	return &BatchRepo{
		BaseCatalogRepo: NewBaseCatalogRepo[*batch.Batch](
			txManager,
			batchTable,
			postgres.ExtractDBColumns[batch.Batch](),
			func() *batch.Batch { return &batch.Batch{} },
		),
	}
}

var _ batch.Repository = (*BatchRepo)(nil)
