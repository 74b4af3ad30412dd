// Package http provides the HTTP server and its middleware chain.
package http

import (
	"log/slog"
	"time"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	auditDomain "github.com/allisson/credguard/internal/audit/domain"
)

// CustomLoggerMiddleware logs one structured line per request, including the
// request id assigned by the requestid middleware.
func CustomLoggerMiddleware(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		logger.Info("http request",
			slog.String("request_id", requestid.Get(c)),
			slog.String("method", c.Request.Method),
			slog.String("path", c.Request.URL.Path),
			slog.Int("status", c.Writer.Status()),
			slog.Duration("duration", time.Since(start)),
			slog.String("client_ip", c.ClientIP()),
		)
	}
}

// RequestIDContextMiddleware copies the request id into the request context so
// audit events emitted by use cases correlate with the HTTP request.
// MUST be used after the requestid middleware.
func RequestIDContextMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if id, err := uuid.Parse(requestid.Get(c)); err == nil {
			ctx := auditDomain.ContextWithRequestID(c.Request.Context(), id)
			c.Request = c.Request.WithContext(ctx)
		}
		c.Next()
	}
}
