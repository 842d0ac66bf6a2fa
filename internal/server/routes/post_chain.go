package routes

import (
	"errors"
	"net/http"

	"github.com/amber-ici/amber/backend/internal/server/middleware"
	"github.com/amber-ici/amber/backend/pkg/chain"
	"github.com/amber-ici/amber/backend/pkg/logger"

	_ "github.com/go-playground/validator"
	"github.com/labstack/echo/v4"
)

// PostChainHandler runs a multi-model chain. Sequential chains stop at the
// first failed step and report it; parallel chains always return a result
// slot per model.
func PostChainHandler(c echo.Context) error {
	type chainBody struct {
		ChainType string         `json:"chain_type" validate:"required"`
		Models    []string       `json:"models" validate:"required,min=1"`
		Prompt    string         `json:"prompt" validate:"required"`
		Workspace string         `json:"workspace"`
		Options   map[string]any `json:"options"`
	}

	type chainResponse struct {
		ChainType string             `json:"chain_type"`
		Results   []chain.StepResult `json:"results"`
		Error     string             `json:"error,omitempty"`
	}

	data := new(chainBody)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}

	chainType, err := chain.ParseType(data.ChainType)
	if err != nil {
		var unsupported *chain.UnsupportedTypeError
		if errors.As(err, &unsupported) {
			return c.JSON(http.StatusBadRequest, map[string]any{
				"error":     unsupported.Error(),
				"supported": []chain.Type{chain.TypeSequential, chain.TypeParallel},
			})
		}
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	app := c.(*middleware.AppContext).App
	ctx := c.Request().Context()

	results, runErr := app.Orchestrator.Run(ctx, chainType, data.Models, data.Prompt)

	resp := chainResponse{
		ChainType: string(chainType),
		Results:   results,
	}
	if runErr != nil {
		logger.Warn("Chain finished with error", "chain_type", chainType, "err", runErr)
		resp.Error = runErr.Error()
	}

	if data.Workspace != "" {
		resultMap := map[string]any{
			"chain_type": resp.ChainType,
			"results":    resp.Results,
			"error":      resp.Error,
		}
		if _, err := app.Workspaces.AddSession(ctx, data.Workspace, "chain", data.Prompt, resultMap); err != nil {
			logger.Error("Failed to record chain session", "workspace", data.Workspace, "err", err)
		}
	}

	return c.JSON(http.StatusOK, resp)
}
