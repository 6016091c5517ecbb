package client

import (
	"freightdesk/internal/domain"
)

// Repository defines data access for clients.
type Repository interface {
	domain.CatalogRepository[*Client]
}
