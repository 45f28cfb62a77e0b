package httpserver

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/PratikDhanave/welcome-mailer/internal/auth"
	"github.com/PratikDhanave/welcome-mailer/internal/logging"
)

// RequestIDHeader carries the per-request correlation ID.
const RequestIDHeader = "X-Request-ID"

const requestIDCtxKey = "request_id"

// RequestID reuses an inbound X-Request-ID or generates one, and echoes it back.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDCtxKey, id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

// AccessLog attaches a request-scoped logger and logs each completed request.
func AccessLog(base *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		logger := base.With(slog.String("request_id", c.GetString(requestIDCtxKey)))
		logging.SetRequestLogger(c, logger)

		c.Next()

		attrs := []any{
			slog.String("method", c.Request.Method),
			slog.String("path", c.FullPath()),
			slog.Int("status", c.Writer.Status()),
			slog.Duration("latency", time.Since(start)),
		}
		// Set by the API key guard on operational routes.
		if client := auth.ClientName(c); client != "" {
			attrs = append(attrs, slog.String("api_client", client))
		}
		logger.Info("request completed", attrs...)
	}
}
