package client

import (
	"freightdesk/internal/core/tx"
	"freightdesk/internal/domain"
)

// Service is the catalog service for clients.
type Service struct {
	*domain.CatalogService[*Client]
}

// NewService creates a new client service.
func NewService(repo Repository, txm tx.Manager) *Service {
	return &Service{
		CatalogService: domain.NewCatalogService(domain.CatalogServiceConfig[*Client]{
			Repo:       repo,
			TxManager:  txm,
			EntityName: "client",
		}),
	}
}
