package routes

import (
	"net/http"
	"time"

	"github.com/amber-ici/amber/backend/internal/server/middleware"
	"github.com/amber-ici/amber/backend/pkg/logger"

	"github.com/labstack/echo/v4"
)

func GetModelsHandler(c echo.Context) error {
	type model struct {
		Name       string    `json:"name"`
		Size       int64     `json:"size,omitempty"`
		ModifiedAt time.Time `json:"modified_at,omitempty"`
	}

	type modelsResponse struct {
		Models []model `json:"models"`
	}

	app := c.(*middleware.AppContext).App
	ctx := c.Request().Context()

	infos, err := app.Backend.ListModels(ctx)
	if err != nil {
		logger.Error("Failed to list models", "err", err)
		return c.JSON(http.StatusBadGateway, map[string]string{"error": "Model backend unavailable"})
	}

	resp := modelsResponse{Models: make([]model, 0, len(infos))}
	for _, info := range infos {
		resp.Models = append(resp.Models, model{
			Name:       info.Name,
			Size:       info.Size,
			ModifiedAt: info.ModifiedAt,
		})
	}

	return c.JSON(http.StatusOK, resp)
}
