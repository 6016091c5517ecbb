// Package middleware provides HTTP middleware components.
package middleware

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"runtime/debug"
	"syscall"

	"github.com/gin-gonic/gin"

	"freightdesk/internal/core/apperror"
	appctx "freightdesk/internal/core/context"
	"freightdesk/pkg/logger"
)

// Recovery turns a handler panic into a 500 AppError for ErrorHandler to render.
// Panic values and stacks go to the log only. A panic caused by the client
// hanging up is logged at warn and nothing is written back.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}

			ctx := c.Request.Context()
			fields := []any{
				"panic", rec,
				"method", c.Request.Method,
				"route", c.FullPath(),
				"operator", appctx.GetOperatorID(ctx),
			}

			if err, ok := rec.(error); ok && clientGone(err) {
				logger.Warn(ctx, "client connection lost", fields...)
				c.Abort()
				return
			}

			logger.Error(ctx, "handler panic", append(fields, "stack", string(debug.Stack()))...)
			_ = c.Error(apperror.NewInternal(fmt.Errorf("panic in %s %s: %v", c.Request.Method, c.FullPath(), rec)).
				WithDetail("request_id", c.GetString(ctxRequestID)))
			c.Abort()
		}()
		c.Next()
	}
}

func clientGone(err error) bool {
	var opErr *net.OpError
	if !errors.As(err, &opErr) {
		return false
	}
	var sysErr *os.SyscallError
	if errors.As(opErr, &sysErr) {
		return errors.Is(sysErr.Err, syscall.EPIPE) || errors.Is(sysErr.Err, syscall.ECONNRESET)
	}
	return false
}
