package http

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/userauth/auth-service/internal/infrastructure/http/handlers"
)

// NewOpsRouter builds the operations server: health checks and Prometheus metrics.
// It listens on its own port so /metrics is never exposed with the API.
func NewOpsRouter(checks map[string]handlers.Check) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())

	health := handlers.NewHealthHandler(checks)
	e.GET("/health", health.Liveness)
	e.GET("/health/ready", health.Readiness)
	e.GET("/metrics", echoprometheus.NewHandler())

	return e
}
