package batch

import (
	"freightdesk/internal/domain"
)

// Repository defines data access for batches.
type Repository interface {
	domain.CatalogRepository[*Batch]
}
