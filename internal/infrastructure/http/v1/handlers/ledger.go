package handlers

import (
	"github.com/gin-gonic/gin"

	"freightdesk/internal/domain/ledger"
	"freightdesk/internal/infrastructure/http/v1/dto"
)

// LedgerHandler serves the per-client balance ledger.
type LedgerHandler struct {
	*BaseHandler
	service *ledger.Service
}

// NewLedgerHandler creates a ledger handler.
func NewLedgerHandler(base *BaseHandler, service *ledger.Service) *LedgerHandler {
	return &LedgerHandler{BaseHandler: base, service: service}
}

// Statement handles GET /clients/:id/transactions.
func (h *LedgerHandler) Statement(c *gin.Context) {
	clientID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	st, err := h.service.Statement(c.Request.Context(), clientID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromStatement(st))
}

// Append handles POST /clients/:id/transactions.
func (h *LedgerHandler) Append(c *gin.Context) {
	clientID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	var req dto.AppendTransactionRequest
	if !h.BindJSON(c, &req) {
		return
	}

	t, err := h.service.Append(c.Request.Context(), req.ToInput(clientID))
	if err != nil {
		h.Error(c, err)
		return
	}

	h.Created(c, dto.FromTransaction(t))
}

// Balance handles GET /clients/:id/balance.
func (h *LedgerHandler) Balance(c *gin.Context) {
	clientID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	sum, err := h.service.Balance(c.Request.Context(), clientID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromSummary(clientID, sum))
}
