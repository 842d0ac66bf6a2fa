package routes

import (
	"net/http"

	"github.com/amber-ici/amber/backend/internal/server/middleware"
	"github.com/amber-ici/amber/backend/pkg/logger"

	"github.com/labstack/echo/v4"
)

// DeleteStreamHandler cancels an in-flight generation stream by id. The
// stream's websocket client receives the cancellation through its context.
func DeleteStreamHandler(c echo.Context) error {
	id := c.Param("id")
	if id == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Stream id is required"})
	}

	app := c.(*middleware.AppContext).App
	if !app.Registry.Cancel(id) {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "Stream not found"})
	}

	logger.Info("Cancelled stream", "id", id)
	return c.JSON(http.StatusOK, map[string]string{"id": id, "status": "cancelled"})
}
