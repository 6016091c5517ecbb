package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"freightdesk/internal/core/apperror"
	"freightdesk/internal/domain/invoice"
	"freightdesk/internal/infrastructure/http/v1/dto"
)

// InvoiceHandler serves invoices and their link to shipments.
type InvoiceHandler struct {
	*BaseHandler
	service *invoice.Service
}

// NewInvoiceHandler creates an invoice handler.
func NewInvoiceHandler(base *BaseHandler, service *invoice.Service) *InvoiceHandler {
	return &InvoiceHandler{BaseHandler: base, service: service}
}

// respond writes either the invoice or the duplicate warning.
// The warning is a confirmable 409, not an error, so it bypasses ErrorHandler.
func (h *InvoiceHandler) respond(c *gin.Context, status int, res invoice.CreateResult) {
	if res.NeedsConfirmation() {
		h.JSON(c, http.StatusConflict, dto.FromDuplicateWarning(apperror.CodeDuplicateWarned, res.Warning))
		return
	}
	h.JSON(c, status, dto.FromInvoice(res.Invoice))
}

// List handles GET /invoices.
func (h *InvoiceHandler) List(c *gin.Context) {
	var q dto.InvoiceListQuery
	if !h.BindQuery(c, &q) {
		return
	}

	result, err := h.service.List(c.Request.Context(), q.ToFilter())
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.NewListResponse(result, dto.FromInvoice))
}

// Get handles GET /invoices/:id.
func (h *InvoiceHandler) Get(c *gin.Context) {
	invoiceID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	inv, err := h.service.Get(c.Request.Context(), invoiceID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromInvoice(inv))
}

// Create handles POST /invoices.
func (h *InvoiceHandler) Create(c *gin.Context) {
	var req dto.CreateInvoiceRequest
	if !h.BindJSON(c, &req) {
		return
	}
	in, err := req.ToInput()
	if err != nil {
		h.Error(c, err)
		return
	}

	res, err := h.service.Create(c.Request.Context(), in)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.respond(c, http.StatusCreated, res)
}

// SetStatus handles POST /invoices/:id/status.
func (h *InvoiceHandler) SetStatus(c *gin.Context) {
	invoiceID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	var req dto.SetInvoiceStatusRequest
	if !h.BindJSON(c, &req) {
		return
	}

	inv, err := h.service.SetStatus(c.Request.Context(), invoiceID, invoice.Status(req.Status))
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromInvoice(inv))
}

// Link handles POST /invoices/:id/link.
func (h *InvoiceHandler) Link(c *gin.Context) {
	invoiceID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	var req dto.LinkInvoiceRequest
	if !h.BindJSON(c, &req) {
		return
	}
	shipmentID, err := dto.ParseOptionalID("shipmentId", &req.ShipmentID)
	if err != nil {
		h.Error(c, err)
		return
	}

	res, err := h.service.Link(c.Request.Context(), invoiceID, *shipmentID, req.ConfirmDuplicate)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.respond(c, http.StatusOK, res)
}

// RegenerateNumber handles POST /invoices/:id/regenerate-number.
func (h *InvoiceHandler) RegenerateNumber(c *gin.Context) {
	invoiceID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	inv, err := h.service.RegenerateNumber(c.Request.Context(), invoiceID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromInvoice(inv))
}
