package routes

import (
	"errors"
	"net/http"

	"github.com/amber-ici/amber/backend/internal/server/middleware"
	"github.com/amber-ici/amber/backend/internal/workspace"
	"github.com/amber-ici/amber/backend/pkg/logger"

	_ "github.com/go-playground/validator"
	"github.com/labstack/echo/v4"
)

func PostWorkspacesHandler(c echo.Context) error {
	type workspaceBody struct {
		Name        string `json:"name" validate:"required,min=1,max=128"`
		Description string `json:"description"`
	}

	data := new(workspaceBody)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}

	app := c.(*middleware.AppContext).App
	ctx := c.Request().Context()

	ws, err := app.Workspaces.CreateWorkspace(ctx, data.Name, data.Description)
	if err != nil {
		if errors.Is(err, workspace.ErrExists) {
			return c.JSON(http.StatusConflict, map[string]string{"error": "Workspace already exists"})
		}
		logger.Error("Failed to create workspace", "name", data.Name, "err", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
	}

	return c.JSON(http.StatusCreated, ws)
}

func GetWorkspacesHandler(c echo.Context) error {
	app := c.(*middleware.AppContext).App

	workspaces, err := app.Workspaces.ListWorkspaces(c.Request().Context())
	if err != nil {
		logger.Error("Failed to list workspaces", "err", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
	}

	return c.JSON(http.StatusOK, map[string]any{"workspaces": workspaces})
}

func GetWorkspaceHandler(c echo.Context) error {
	app := c.(*middleware.AppContext).App

	ws, err := app.Workspaces.GetWorkspace(c.Request().Context(), c.Param("name"))
	if err != nil {
		if errors.Is(err, workspace.ErrNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "Workspace not found"})
		}
		logger.Error("Failed to load workspace", "err", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
	}

	return c.JSON(http.StatusOK, ws)
}

func PostWorkspaceSessionsHandler(c echo.Context) error {
	type sessionBody struct {
		Kind   string         `json:"kind" validate:"required"`
		Task   string         `json:"task"`
		Result map[string]any `json:"result"`
	}

	data := new(sessionBody)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}

	app := c.(*middleware.AppContext).App
	ctx := c.Request().Context()

	session, err := app.Workspaces.AddSession(ctx, c.Param("name"), data.Kind, data.Task, data.Result)
	if err != nil {
		if errors.Is(err, workspace.ErrNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "Workspace not found"})
		}
		logger.Error("Failed to add session", "workspace", c.Param("name"), "err", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
	}

	return c.JSON(http.StatusCreated, session)
}

func GetWorkspaceSessionsHandler(c echo.Context) error {
	app := c.(*middleware.AppContext).App

	sessions, err := app.Workspaces.ListSessions(c.Request().Context(), c.Param("name"))
	if err != nil {
		if errors.Is(err, workspace.ErrNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "Workspace not found"})
		}
		logger.Error("Failed to list sessions", "workspace", c.Param("name"), "err", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
	}

	return c.JSON(http.StatusOK, map[string]any{"sessions": sessions})
}
