package handlers

import (
	"freightdesk/internal/domain/catalogs/client"
	"freightdesk/internal/infrastructure/http/v1/dto"
)

// ClientHandler serves the client catalog.
type ClientHandler = CatalogHandler[*client.Client, dto.CreateClientRequest, dto.UpdateClientRequest]

// NewClientHandler creates a client handler.
func NewClientHandler(base *BaseHandler, service *client.Service) *ClientHandler {
	return NewCatalogHandler(base, CatalogHandlerConfig[*client.Client, dto.CreateClientRequest, dto.UpdateClientRequest]{
		Service:      service.CatalogService,
		MapCreateDTO: func(req dto.CreateClientRequest) *client.Client { return req.ToEntity() },
		MapUpdateDTO: func(req dto.UpdateClientRequest, existing *client.Client) *client.Client { return req.ApplyTo(existing) },
		MapToDTO:     func(c *client.Client) any { return dto.FromClient(c) },
	})
}
