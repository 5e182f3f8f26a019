package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// Root is a minimal liveness probe at the server root.
func Root(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"message": "Server is running"})
}

// Health reports service health for load balancers and monitoring.
func Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
