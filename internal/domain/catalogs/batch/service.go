package batch

import (
	"freightdesk/internal/core/tx"
	"freightdesk/internal/domain"
)

// Service is the catalog service for batches.
type Service struct {
	*domain.CatalogService[*Batch]
}

// NewService creates a new batch service.
func NewService(repo Repository, txm tx.Manager) *Service {
	return &Service{
		CatalogService: domain.NewCatalogService(domain.CatalogServiceConfig[*Batch]{
			Repo:       repo,
			TxManager:  txm,
			EntityName: "batch",
		}),
	}
}
