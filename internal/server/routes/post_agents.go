package routes

import (
	"errors"
	"net/http"

	"github.com/amber-ici/amber/backend/internal/server/middleware"
	"github.com/amber-ici/amber/backend/pkg/agent"
	"github.com/amber-ici/amber/backend/pkg/logger"

	_ "github.com/go-playground/validator"
	"github.com/labstack/echo/v4"
)

// PostAgentsHandler executes one agent run and returns its full execution
// record, including the step log and report output.
func PostAgentsHandler(c echo.Context) error {
	type agentBody struct {
		AgentType  string           `json:"agent_type" validate:"required"`
		Task       string           `json:"task" validate:"required"`
		Models     []string         `json:"models"`
		Parameters agent.Parameters `json:"parameters"`
		Workspace  string           `json:"workspace"`
	}

	data := new(agentBody)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}

	agentType, err := agent.ParseType(data.AgentType)
	if err != nil {
		var unsupported *agent.UnsupportedTypeError
		if errors.As(err, &unsupported) {
			return c.JSON(http.StatusBadRequest, map[string]any{
				"error": unsupported.Error(),
				"supported": []agent.Type{
					agent.TypeResearch,
					agent.TypeAnalysis,
					agent.TypeSummary,
					agent.TypeInvestigation,
				},
			})
		}
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	a, err := agent.New(agentType, data.Models)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	execution := a.Execute(data.Task, data.Parameters)

	if data.Workspace != "" {
		app := c.(*middleware.AppContext).App
		ctx := c.Request().Context()
		resultMap := map[string]any{
			"agent_type": execution.AgentType,
			"status":     execution.Status,
			"output":     execution.Output,
			"error":      execution.Error,
		}
		if _, err := app.Workspaces.AddSession(ctx, data.Workspace, "agent", data.Task, resultMap); err != nil {
			logger.Error("Failed to record agent session", "workspace", data.Workspace, "err", err)
		}
	}

	return c.JSON(http.StatusOK, execution)
}
