package http

import (
	"github.com/labstack/echo/v4"

	"github.com/tablehub/backend/internal/core/ports"
	"github.com/tablehub/backend/internal/infrastructure/http/handlers"
)

// RegisterHealth mounts /health and /health/ready on e.
func RegisterHealth(e *echo.Echo, deps map[string]ports.Pinger, exposeDetail bool) {
	probe := handlers.NewProbe(deps, exposeDetail)
	e.GET("/health", probe.Live)
	e.GET("/health/ready", probe.Ready)
}
