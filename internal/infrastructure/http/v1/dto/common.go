// Package dto provides Data Transfer Objects for API requests/responses.
package dto

import (
	"strings"
	"time"

	"freightdesk/internal/core/apperror"
	"freightdesk/internal/core/entity"
	"freightdesk/internal/core/id"
	"freightdesk/internal/domain"
)

// --- List ---

// ListQuery holds the paging and search parameters shared by list endpoints.
type ListQuery struct {
	Search         string `form:"search"`
	OrderBy        string `form:"orderBy"`
	Limit          int    `form:"limit" binding:"omitempty,min=1,max=500"`
	Offset         int    `form:"offset" binding:"omitempty,min=0"`
	IncludeDeleted bool   `form:"includeDeleted"`
}

// ToFilter converts the query into a domain filter; zero values take defaults.
func (q ListQuery) ToFilter(defaultOrder string) domain.ListFilter {
	f := domain.DefaultListFilter()
	f.Search = strings.TrimSpace(q.Search)
	f.OrderBy = defaultOrder
	if q.OrderBy != "" {
		f.OrderBy = q.OrderBy
	}
	if q.Limit > 0 {
		f.Limit = q.Limit
	}
	f.Offset = q.Offset
	f.IncludeDeleted = q.IncludeDeleted
	return f
}

// ListResponse wraps list results with pagination.
type ListResponse struct {
	Items      any   `json:"items"`
	TotalCount int64 `json:"totalCount"`
	Limit      int   `json:"limit"`
	Offset     int   `json:"offset"`
}

// NewListResponse maps every item of r with fn.
func NewListResponse[T, R any](r domain.ListResult[T], fn func(T) R) ListResponse {
	items := make([]R, len(r.Items))
	for i, it := range r.Items {
		items[i] = fn(it)
	}
	return ListResponse{
		Items:      items,
		TotalCount: r.TotalCount,
		Limit:      r.Limit,
		Offset:     r.Offset,
	}
}

// --- Base DTOs ---

// CatalogResponse contains catalog fields.
type CatalogResponse struct {
	ID           string `json:"id"`
	Code         string `json:"code"`
	Name         string `json:"name"`
	DeletionMark bool   `json:"deletionMark"`
	Version      int    `json:"version"`
}

// FromCatalog creates CatalogResponse from entity.Catalog.
func FromCatalog(c entity.Catalog) CatalogResponse {
	return CatalogResponse{
		ID:           c.ID.String(),
		Code:         c.Code,
		Name:         c.Name,
		DeletionMark: c.DeletionMark,
		Version:      c.Version,
	}
}

// DocumentResponse contains the audit fields of documents.
type DocumentResponse struct {
	ID        string    `json:"id"`
	Version   int       `json:"version"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	CreatedBy string    `json:"createdBy,omitempty"`
	UpdatedBy string    `json:"updatedBy,omitempty"`
}

// FromDocument creates DocumentResponse from entity.BaseDocument.
func FromDocument(d entity.BaseDocument) DocumentResponse {
	return DocumentResponse{
		ID:        d.ID.String(),
		Version:   d.Version,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
		CreatedBy: d.CreatedBy,
		UpdatedBy: d.UpdatedBy,
	}
}

// --- Success Response ---

// SuccessResponse for operations without data.
type SuccessResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// --- Error Response ---

// ErrorResponse for error details.
type ErrorResponse struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// --- Parsing helpers ---

// ParseOptionalID parses a nullable reference. Blank means no reference.
func ParseOptionalID(field string, s *string) (*id.ID, error) {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil, nil
	}
	v, err := id.Parse(strings.TrimSpace(*s))
	if err != nil {
		return nil, apperror.NewFieldValidation(field, "invalid id format").WithDetail("value", *s)
	}
	return &v, nil
}
