package logging

import (
	"log/slog"

	"github.com/gin-gonic/gin"
)

// loggerCtxKey is the Gin context key holding the request-scoped logger.
const loggerCtxKey = "logger"

// SetRequestLogger attaches l to the request context.
func SetRequestLogger(c *gin.Context, l *slog.Logger) {
	c.Set(loggerCtxKey, l)
}

// RequestLogger returns the request-scoped logger, or fallback when none was attached.
func RequestLogger(c *gin.Context, fallback *slog.Logger) *slog.Logger {
	if v, ok := c.Get(loggerCtxKey); ok {
		if l, ok := v.(*slog.Logger); ok {
			return l
		}
	}
	return fallback
}
