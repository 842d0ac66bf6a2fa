package routes

import (
	"net/http"

	"github.com/amber-ici/amber/backend/internal/server/middleware"

	"github.com/labstack/echo/v4"
)

func GetTelemetryHandler(c echo.Context) error {
	app := c.(*middleware.AppContext).App
	stats := app.Telemetry.CurrentStats(c.Request().Context())
	return c.JSON(http.StatusOK, stats)
}

func GetStreamsHandler(c echo.Context) error {
	app := c.(*middleware.AppContext).App
	return c.JSON(http.StatusOK, map[string]any{
		"streams": app.Registry.List(),
	})
}
