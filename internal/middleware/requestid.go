package middleware

import (
	"commerce-service/pkg/logger"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// RequestIDMiddleware adds a unique request ID to each request and stores a
// request-scoped logger derived from base. A nil base falls back to the global logger.
func RequestIDMiddleware(base *zap.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			// Keep an ID supplied by a proxy, otherwise generate one
			requestID := c.Request().Header.Get(logger.RequestIDKey)
			if requestID == "" {
				requestID = uuid.New().String()
				c.Request().Header.Set(logger.RequestIDKey, requestID)
			}
			c.Response().Header().Set(logger.RequestIDKey, requestID)
			c.Set(logger.RequestIDKey, requestID)

			l := base
			if l == nil {
				l = logger.GetLogger()
			}
			logger.WithLogger(c, l.With(zap.String("request_id", requestID)))

			return next(c)
		}
	}
}
