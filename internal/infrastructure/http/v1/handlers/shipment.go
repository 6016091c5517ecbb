package handlers

import (
	"github.com/gin-gonic/gin"

	"freightdesk/internal/domain/shipment"
	"freightdesk/internal/infrastructure/http/v1/dto"
)

// ShipmentHandler serves shipments, their history and the derivation preview.
type ShipmentHandler struct {
	*BaseHandler
	service *shipment.Service
}

// NewShipmentHandler creates a shipment handler.
func NewShipmentHandler(base *BaseHandler, service *shipment.Service) *ShipmentHandler {
	return &ShipmentHandler{BaseHandler: base, service: service}
}

// List handles GET /shipments.
func (h *ShipmentHandler) List(c *gin.Context) {
	var q dto.ShipmentListQuery
	if !h.BindQuery(c, &q) {
		return
	}

	result, err := h.service.List(c.Request.Context(), q.ToFilter())
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.NewListResponse(result, dto.FromShipment))
}

// Get handles GET /shipments/:id.
func (h *ShipmentHandler) Get(c *gin.Context) {
	shipmentID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	sh, err := h.service.Get(c.Request.Context(), shipmentID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromShipment(sh))
}

// Create handles POST /shipments.
func (h *ShipmentHandler) Create(c *gin.Context) {
	var req dto.CreateShipmentRequest
	if !h.BindJSON(c, &req) {
		return
	}
	in, err := req.ToInput()
	if err != nil {
		h.Error(c, err)
		return
	}

	sh, err := h.service.Create(c.Request.Context(), in)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.Created(c, dto.FromShipment(sh))
}

// Update handles PUT /shipments/:id.
func (h *ShipmentHandler) Update(c *gin.Context) {
	shipmentID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	var req dto.UpdateShipmentRequest
	if !h.BindJSON(c, &req) {
		return
	}
	in, err := req.ToInput()
	if err != nil {
		h.Error(c, err)
		return
	}

	sh, err := h.service.Update(c.Request.Context(), shipmentID, in)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromShipment(sh))
}

// Delete handles DELETE /shipments/:id.
func (h *ShipmentHandler) Delete(c *gin.Context) {
	shipmentID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), shipmentID); err != nil {
		h.Error(c, err)
		return
	}

	h.NoContent(c)
}

// History handles GET /shipments/:id/history, newest entry first.
func (h *ShipmentHandler) History(c *gin.Context) {
	shipmentID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	entries, err := h.service.History(c.Request.Context(), shipmentID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, gin.H{"items": dto.FromHistory(entries)})
}

// Derive handles POST /shipments/derive. Nothing is persisted.
func (h *ShipmentHandler) Derive(c *gin.Context) {
	var req dto.DeriveRequest
	if !h.BindJSON(c, &req) {
		return
	}

	preview := h.service.Preview(req.Track, req.ItemsOf(), req.PackingCost.Decimal(), req.LocalDeliveryCost.Decimal())
	h.OK(c, dto.FromPreview(preview))
}
