package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Root answers the liveness probe on /
func Root(c echo.Context) error {
	return c.String(http.StatusOK, "Server is running")
}

// HealthCheck handles the health check endpoint
func (h *Handler) HealthCheck(c echo.Context) error {
	status := "healthy"
	code := http.StatusOK
	if sqlDB, err := h.db.DB(); err != nil || sqlDB.PingContext(c.Request().Context()) != nil {
		status = "unhealthy"
		code = http.StatusServiceUnavailable
	}
	return c.JSON(code, echo.Map{
		"status":  status,
		"service": h.cfg.ServiceName,
	})
}
