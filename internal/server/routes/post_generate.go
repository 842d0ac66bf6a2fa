package routes

import (
	"net/http"

	"github.com/amber-ici/amber/backend/internal/server/middleware"
	"github.com/amber-ici/amber/backend/pkg/ai"
	"github.com/amber-ici/amber/backend/pkg/logger"

	_ "github.com/go-playground/validator"
	"github.com/labstack/echo/v4"
)

// PostGenerateHandler runs one non-streaming generation and returns the
// full response text once the model finishes.
func PostGenerateHandler(c echo.Context) error {
	type generateBody struct {
		Model   string         `json:"model" validate:"required"`
		Prompt  string         `json:"prompt" validate:"required"`
		Options map[string]any `json:"options"`
	}

	type generateResponse struct {
		Model    string `json:"model"`
		Response string `json:"response"`
	}

	data := new(generateBody)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}

	app := c.(*middleware.AppContext).App
	ctx := c.Request().Context()

	events, err := app.Backend.Invoke(ctx, data.Model, data.Prompt, ai.InvokeOptions(data.Options))
	if err != nil {
		logger.Error("Generation failed to start", "model", data.Model, "err", err)
		return c.JSON(http.StatusBadGateway, map[string]string{"error": err.Error()})
	}

	response, err := ai.Collect(ctx, data.Model, events)
	if err != nil {
		logger.Error("Generation failed", "model", data.Model, "err", err)
		return c.JSON(http.StatusBadGateway, map[string]string{"error": err.Error()})
	}

	return c.JSON(http.StatusOK, generateResponse{
		Model:    data.Model,
		Response: response,
	})
}
