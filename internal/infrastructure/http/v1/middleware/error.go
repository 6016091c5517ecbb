package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"freightdesk/internal/core/apperror"
	"freightdesk/pkg/logger"
)

// ErrorHandler middleware transforms errors into consistent JSON responses.
// Hides internal errors from clients while logging full details.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		err := c.Errors.Last().Err

		// If response already written by handler, do not override it.
		if c.Writer.Written() {
			return
		}

		if appErr, ok := apperror.AsAppError(err); ok {
			if appErr.Err != nil {
				logger.Error(c.Request.Context(), "request error",
					"code", appErr.Code,
					"cause", appErr.Err,
				)
			}

			body := gin.H{
				"code":    appErr.Code,
				"message": appErr.Message,
				"details": appErr.Details,
			}
			failIdempotency(c, appErr.HTTPStatus, body)
			c.JSON(appErr.HTTPStatus, body)
			return
		}

		logger.Error(c.Request.Context(), "unhandled error", "error", err)

		body := gin.H{
			"code":    apperror.CodeInternal,
			"message": "Internal server error",
			"details": map[string]any{
				"request_id": c.GetString(ctxRequestID),
			},
		}
		failIdempotency(c, http.StatusInternalServerError, body)
		c.JSON(http.StatusInternalServerError, body)
	}
}

// failIdempotency stores the error response under the request's key (best-effort).
func failIdempotency(c *gin.Context, status int, body any) {
	key := c.GetString(CtxIdempotencyKey)
	if key == "" {
		return
	}
	store, ok := c.Get(CtxIdempotencyStore)
	if !ok {
		return
	}
	if s, ok := store.(KeyStore); ok && s != nil {
		if err := s.FailKey(c.Request.Context(), key, status, "application/json", body); err != nil {
			logger.Warn(c.Request.Context(), "failed to store idempotency failure", "key", key, "error", err)
		}
	}
}
