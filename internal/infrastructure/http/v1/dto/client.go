package dto

import (
	"freightdesk/internal/domain/catalogs/client"
)

// CreateClientRequest registers a client under its code.
type CreateClientRequest struct {
	Code  string  `json:"code" binding:"required,max=32,excludes=-"`
	Name  string  `json:"name" binding:"required,max=255"`
	Phone *string `json:"phone" binding:"omitempty,max=64"`
	Email *string `json:"email" binding:"omitempty,email"`
	City  *string `json:"city" binding:"omitempty,max=128"`
}

// ToEntity creates the client.
func (r CreateClientRequest) ToEntity() *client.Client {
	c := client.NewClient(r.Code, r.Name)
	c.Phone = r.Phone
	c.Email = r.Email
	c.City = r.City
	return c
}

// UpdateClientRequest changes a client. Version must match the stored one.
type UpdateClientRequest struct {
	Code    *string `json:"code" binding:"omitempty,max=32,excludes=-"`
	Name    *string `json:"name" binding:"omitempty,max=255"`
	Phone   *string `json:"phone" binding:"omitempty,max=64"`
	Email   *string `json:"email" binding:"omitempty,email"`
	City    *string `json:"city" binding:"omitempty,max=128"`
	Version int     `json:"version" binding:"required,min=1"`
}

// ApplyTo copies the set fields onto c.
func (r UpdateClientRequest) ApplyTo(c *client.Client) *client.Client {
	if r.Code != nil {
		c.Code = *r.Code
	}
	if r.Name != nil {
		c.Name = *r.Name
	}
	if r.Phone != nil {
		c.Phone = r.Phone
	}
	if r.Email != nil {
		c.Email = r.Email
	}
	if r.City != nil {
		c.City = r.City
	}
	c.Version = r.Version
	return c
}

// ClientResponse is the API view of a client.
type ClientResponse struct {
	CatalogResponse
	Phone *string `json:"phone,omitempty"`
	Email *string `json:"email,omitempty"`
	City  *string `json:"city,omitempty"`
}

// FromClient maps a client to its response.
func FromClient(c *client.Client) ClientResponse {
	return ClientResponse{
		CatalogResponse: FromCatalog(c.Catalog),
		Phone:           c.Phone,
		Email:           c.Email,
		City:            c.City,
	}
}
