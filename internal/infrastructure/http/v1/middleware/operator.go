package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	appctx "freightdesk/internal/core/context"
)

const (
	HeaderOperatorID   = "X-Operator-ID"
	HeaderOperatorName = "X-Operator-Name"

	maxOperatorIDLen = 128
)

// Operator puts the back-office operator named by X-Operator-ID into the request context.
// The header is trusted; authentication is done in front of this service.
// Requests without the header run anonymously and leave createdBy/updatedBy blank.
func Operator() gin.HandlerFunc {
	return func(c *gin.Context) {
		opID := strings.TrimSpace(c.GetHeader(HeaderOperatorID))
		if len(opID) > maxOperatorIDLen {
			opID = opID[:maxOperatorIDLen]
		}
		if opID != "" {
			op := &appctx.Operator{
				ID:   opID,
				Name: strings.TrimSpace(c.GetHeader(HeaderOperatorName)),
			}
			c.Request = c.Request.WithContext(appctx.WithOperator(c.Request.Context(), op))
		}
		c.Next()
	}
}
