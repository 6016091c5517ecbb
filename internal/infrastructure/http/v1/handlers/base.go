package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"freightdesk/internal/core/apperror"
	appctx "freightdesk/internal/core/context"
	"freightdesk/internal/core/id"
	"freightdesk/internal/infrastructure/http/v1/dto"
	"freightdesk/internal/infrastructure/http/v1/middleware"
	"freightdesk/pkg/logger"
)

// keyCompleter stores the final response of an idempotent request.
type keyCompleter interface {
	CompleteKey(ctx context.Context, key string, statusCode int, contentType string, response any) error
}

// BaseHandler provides common handler utilities.
type BaseHandler struct{}

// NewBaseHandler creates a new base handler.
func NewBaseHandler() *BaseHandler {
	return &BaseHandler{}
}

// BindJSON binds and validates JSON request body.
func (h *BaseHandler) BindJSON(c *gin.Context, obj any) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		h.Error(c, apperror.NewValidation("invalid request body").WithDetail("error", err.Error()))
		return false
	}
	return true
}

// BindQuery binds and validates query parameters.
func (h *BaseHandler) BindQuery(c *gin.Context, obj any) bool {
	if err := c.ShouldBindQuery(obj); err != nil {
		h.Error(c, apperror.NewValidation("invalid query parameters").WithDetail("error", err.Error()))
		return false
	}
	return true
}

// ParseID parses the UUID path parameter name.
func (h *BaseHandler) ParseID(c *gin.Context, name string) (id.ID, bool) {
	v, err := id.Parse(c.Param(name))
	if err != nil {
		h.Error(c, apperror.NewFieldValidation(name, "invalid id format").WithDetail("value", c.Param(name)))
		return id.Nil(), false
	}
	return v, true
}

// Error registers err on the Gin context and aborts the request.
// The JSON body is produced by middleware.ErrorHandler.
func (h *BaseHandler) Error(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}

// OperatorID returns the operator acting on the request, or "".
func (h *BaseHandler) OperatorID(c *gin.Context) string {
	return appctx.GetOperatorID(c.Request.Context())
}

// CompleteIdempotency stores status code, content type and body under the
// request's idempotency key so a retry replays the same response.
func (h *BaseHandler) CompleteIdempotency(c *gin.Context, statusCode int, contentType string, response any) {
	key := c.GetString(middleware.CtxIdempotencyKey)
	if key == "" {
		return
	}
	store, ok := c.Get(middleware.CtxIdempotencyStore)
	if !ok {
		return
	}
	if s, ok := store.(keyCompleter); ok {
		if err := s.CompleteKey(c.Request.Context(), key, statusCode, contentType, response); err != nil {
			logger.Warn(c.Request.Context(), "failed to complete idempotency key", "key", key, "error", err)
		}
	}
}

// JSON sends data with status and records it for idempotent replay.
func (h *BaseHandler) JSON(c *gin.Context, status int, data any) {
	h.CompleteIdempotency(c, status, "application/json", data)
	c.JSON(status, data)
}

// Created sends 201 response with data.
func (h *BaseHandler) Created(c *gin.Context, data any) {
	h.JSON(c, http.StatusCreated, data)
}

// OK sends 200 response with data.
func (h *BaseHandler) OK(c *gin.Context, data any) {
	h.JSON(c, http.StatusOK, data)
}

// NoContent sends 204 response.
func (h *BaseHandler) NoContent(c *gin.Context) {
	// 204 must replay as 204 with empty body.
	h.CompleteIdempotency(c, http.StatusNoContent, "", nil)
	c.Status(http.StatusNoContent)
}

// Success sends success response.
func (h *BaseHandler) Success(c *gin.Context, message string) {
	h.OK(c, dto.SuccessResponse{Success: true, Message: message})
}
