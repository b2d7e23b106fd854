package logger

import (
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// RequestIDKey is the header and context key carrying the request ID
const RequestIDKey = "X-Request-ID"

const loggerKey = "logger"

// FromContext retrieves the logger from echo.Context with the request ID
func FromContext(c echo.Context) *zap.Logger {
	if logger, ok := c.Get(loggerKey).(*zap.Logger); ok {
		return logger
	}
	return GetLogger().With(zap.String("request_id", requestID(c)))
}

// WithLogger stores a request-scoped logger on the echo context
func WithLogger(c echo.Context, l *zap.Logger) {
	c.Set(loggerKey, l)
}

func requestID(c echo.Context) string {
	if id, ok := c.Get(RequestIDKey).(string); ok && id != "" {
		return id
	}
	if id := c.Request().Header.Get(RequestIDKey); id != "" {
		return id
	}
	if id := c.Response().Header().Get(RequestIDKey); id != "" {
		return id
	}
	return "unknown"
}
