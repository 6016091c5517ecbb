// Package client provides the Client catalog. The client code is embedded in every shipment track.
package client

import (
	"context"
	"net/mail"

	"freightdesk/internal/core/apperror"
	"freightdesk/internal/core/entity"
)

// Client is a customer of the forwarder.
type Client struct {
	entity.Catalog

	Phone *string `db:"phone" json:"phone,omitempty"`
	Email *string `db:"email" json:"email,omitempty"`
	City  *string `db:"city" json:"city,omitempty"`
}

// NewClient creates a new client.
func NewClient(code, name string) *Client {
	return &Client{Catalog: entity.NewCatalog(code, name)}
}

// Validate implements entity.Validatable interface.
func (c *Client) Validate(ctx context.Context) error {
	if err := c.Catalog.Validate(ctx); err != nil {
		return err
	}
	if c.Email != nil && *c.Email != "" {
		if _, err := mail.ParseAddress(*c.Email); err != nil {
			return apperror.NewFieldValidation("email", "invalid email").WithDetail("value", *c.Email)
		}
	}
	return nil
}
