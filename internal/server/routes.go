package server

import (
	"github.com/amber-ici/amber/backend/internal/server/middleware"
	"github.com/amber-ici/amber/backend/internal/server/routes"

	"github.com/labstack/echo/v4"
)

func RegisterRoutes(e *echo.Echo) {
	// Health check route
	e.GET("/health", func(c echo.Context) error {
		return c.String(200, "OK")
	})

	apiRoutes := e.Group("/api", middleware.AuthMiddleware)

	// Model routes
	apiRoutes.GET("/models", routes.GetModelsHandler)
	apiRoutes.POST("/generate", routes.PostGenerateHandler)
	apiRoutes.POST("/chain", routes.PostChainHandler)

	// Ingestion routes
	apiRoutes.POST("/ingest/file", routes.PostIngestFileHandler)
	apiRoutes.POST("/ingest/batch", routes.PostIngestBatchHandler)
	apiRoutes.POST("/graph/build", routes.PostGraphBuildHandler)

	// Agent routes
	apiRoutes.POST("/agents/execute", routes.PostAgentsHandler)

	// Observability routes
	apiRoutes.GET("/telemetry", routes.GetTelemetryHandler)
	apiRoutes.GET("/streams", routes.GetStreamsHandler)
	apiRoutes.DELETE("/streams/:id", routes.DeleteStreamHandler)

	// Workspace routes
	apiRoutes.POST("/workspaces", routes.PostWorkspacesHandler)
	apiRoutes.GET("/workspaces", routes.GetWorkspacesHandler)
	apiRoutes.GET("/workspaces/:name", routes.GetWorkspaceHandler)
	apiRoutes.POST("/workspaces/:name/sessions", routes.PostWorkspaceSessionsHandler)
	apiRoutes.GET("/workspaces/:name/sessions", routes.GetWorkspaceSessionsHandler)

	// WebSocket routes
	wsRoutes := e.Group("/ws", middleware.AuthMiddleware)
	wsRoutes.GET("/stream", routes.WSStreamHandler)
	wsRoutes.GET("/telemetry", routes.WSTelemetryHandler)
}
