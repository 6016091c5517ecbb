package entity

import (
	"context"
	"strings"

	"freightdesk/internal/core/apperror"
	"freightdesk/internal/core/id"
)

// Catalog is the base type for reference data administered outside the shipment flow
// (batches, clients).
type Catalog struct {
	BaseCatalog

	// Code is the human-readable identifier embedded in track numbers
	Code string `db:"code" json:"code"`

	// Name is the display name
	Name string `db:"name" json:"name"`
}

// NewCatalog creates a new Catalog with generated ID.
func NewCatalog(code, name string) Catalog {
	return Catalog{
		BaseCatalog: NewBaseCatalog(),
		Code:        strings.TrimSpace(code),
		Name:        strings.TrimSpace(name),
	}
}

// Validate implements Validatable interface.
func (c *Catalog) Validate(ctx context.Context) error {
	c.Code = strings.TrimSpace(c.Code)
	if c.Code == "" {
		return apperror.NewFieldValidation("code", "code is required")
	}
	if strings.Contains(c.Code, "-") {
		return apperror.NewFieldValidation("code", "code must not contain '-'").
			WithDetail("value", c.Code)
	}
	if strings.TrimSpace(c.Name) == "" {
		return apperror.NewFieldValidation("name", "name is required")
	}
	return nil
}

// GetID returns the primary key.
func (c *Catalog) GetID() id.ID { return c.ID }

// GetCode returns the catalog code.
func (c *Catalog) GetCode() string { return c.Code }
