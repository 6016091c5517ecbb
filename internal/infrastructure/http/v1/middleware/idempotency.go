package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"freightdesk/internal/core/apperror"
	appctx "freightdesk/internal/core/context"
	"freightdesk/internal/infrastructure/storage/postgres"
)

const (
	HeaderIdempotencyKey = "X-Idempotency-Key"

	// Gin context keys read by handlers.BaseHandler when the response is ready.
	CtxIdempotencyKey   = "idempotency_key"
	CtxIdempotencyStore = "idempotency_store"

	maxIdempotencyBodyBytes = 1 << 20 // 1 MiB
)

// KeyStore is implemented by postgres.IdempotencyStore.
type KeyStore interface {
	AcquireKey(ctx context.Context, key, operatorID, operation, requestHash string) (*postgres.IdempotencyReplay, error)
	CompleteKey(ctx context.Context, key string, statusCode int, contentType string, response any) error
	FailKey(ctx context.Context, key string, statusCode int, contentType string, response any) error
}

var _ KeyStore = (*postgres.IdempotencyStore)(nil)

// Idempotency middleware replays the stored response of a POST that carries
// an already-seen X-Idempotency-Key. Requests without the header pass through.
func Idempotency(store KeyStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodPost {
			c.Next()
			return
		}

		key := c.GetHeader(HeaderIdempotencyKey)
		if key == "" {
			c.Next()
			return
		}

		limited := io.LimitReader(c.Request.Body, maxIdempotencyBodyBytes+1)
		body, err := io.ReadAll(limited)
		if err != nil {
			_ = c.Error(apperror.NewValidation("unreadable request body"))
			c.Abort()
			return
		}
		if len(body) > maxIdempotencyBodyBytes {
			appErr := apperror.NewValidation("request body too large for idempotency")
			appErr.HTTPStatus = http.StatusRequestEntityTooLarge
			_ = c.Error(appErr.WithDetail("max_bytes", maxIdempotencyBodyBytes))
			c.Abort()
			return
		}
		c.Request.Body = io.NopCloser(bytes.NewReader(body))
		hash := sha256.Sum256(body)
		requestHash := hex.EncodeToString(hash[:])

		operation := c.Request.Method + " " + c.FullPath()
		operatorID := appctx.GetOperatorID(c.Request.Context())

		replay, err := store.AcquireKey(c.Request.Context(), key, operatorID, operation, requestHash)
		if err != nil {
			if appErr, ok := apperror.AsAppError(err); ok {
				_ = c.Error(appErr)
			} else {
				_ = c.Error(apperror.NewInternal(err).WithDetail("component", "idempotency"))
			}
			c.Abort()
			return
		}

		if replay != nil {
			c.Header("Idempotent-Replay", "true")
			c.Data(replay.StatusCode, replay.ContentType, replay.Body)
			c.Abort()
			return
		}

		c.Set(CtxIdempotencyKey, key)
		c.Set(CtxIdempotencyStore, store)

		c.Next()
	}
}
