package middleware

import (
	"github.com/labstack/echo/v4"
	"github.com/rabbitmq/amqp091-go"

	"github.com/amber-ici/amber/backend/internal/stream"
	"github.com/amber-ici/amber/backend/internal/telemetry"
	"github.com/amber-ici/amber/backend/internal/workspace"
	"github.com/amber-ici/amber/backend/pkg/ai"
	"github.com/amber-ici/amber/backend/pkg/chain"
	"github.com/amber-ici/amber/backend/pkg/extract"
	"github.com/amber-ici/amber/backend/pkg/loader"
)

// App holds the shared services every handler can reach. It is built once
// at startup and attached to each request; nothing in here is global.
type App struct {
	Backend      ai.ModelBackend
	Orchestrator *chain.Orchestrator
	Processor    *loader.Processor
	Extractor    *extract.Extractor
	Workspaces   *workspace.Service
	Registry     *stream.Registry
	Telemetry    *telemetry.Collector
	Queue        *amqp091.Channel
	MasterAPIKey string
}

type AppContext struct {
	echo.Context
	App *App
}

func AppContextMiddleware(app *App) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			return next(&AppContext{c, app})
		}
	}
}
