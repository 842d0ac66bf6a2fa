package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/amber-ici/amber/backend/internal/queue"
	mid "github.com/amber-ici/amber/backend/internal/server/middleware"
	"github.com/amber-ici/amber/backend/internal/stream"
	"github.com/amber-ici/amber/backend/internal/telemetry"
	"github.com/amber-ici/amber/backend/internal/util"
	"github.com/amber-ici/amber/backend/internal/workspace"
	"github.com/amber-ici/amber/backend/pkg/ai"
	oai "github.com/amber-ici/amber/backend/pkg/ai/ollama"
	gai "github.com/amber-ici/amber/backend/pkg/ai/openai"
	"github.com/amber-ici/amber/backend/pkg/chain"
	"github.com/amber-ici/amber/backend/pkg/extract"
	"github.com/amber-ici/amber/backend/pkg/loader"
	"github.com/amber-ici/amber/backend/pkg/logger"

	"github.com/go-playground/validator"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

type CustomValidator struct {
	validator *validator.Validate
}

func (cv *CustomValidator) Validate(i any) error {
	if err := cv.validator.Struct(i); err != nil {
		return err
	}
	return nil
}

// NewBackend builds the model backend selected by AI_ADAPTER. Unknown
// adapter names are rejected instead of silently falling back.
func NewBackend() (ai.ModelBackend, error) {
	adapter := util.GetEnvString("AI_ADAPTER", "ollama")

	switch adapter {
	case "ollama":
		return oai.NewGraphOllamaBackend(oai.NewGraphOllamaBackendParams{
			BaseURL: util.GetEnv("AI_CHAT_URL"),
			ApiKey:  util.GetEnv("AI_CHAT_KEY"),

			MaxConcurrentRequests: int64(util.GetEnvNumeric("AI_PARALLEL_REQ", 15)),
		})
	case "openai":
		return gai.NewGraphOpenAIBackend(gai.NewGraphOpenAIBackendParams{
			ChatURL: util.GetEnv("AI_CHAT_URL"),
			ChatKey: util.GetEnv("AI_CHAT_KEY"),
		}), nil
	default:
		return nil, &ai.UnsupportedAdapterError{Value: adapter}
	}
}

func Init() {
	e := echo.New()
	e.HideBanner = true
	e.Validator = &CustomValidator{validator: validator.New()}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	backend, err := NewBackend()
	if err != nil {
		logger.Fatal("Failed to create model backend", "err", err)
	}

	store, err := workspace.NewStore(util.GetEnv("DATABASE_PATH"))
	if err != nil {
		logger.Fatal("Failed to open workspace store", "err", err)
	}
	defer store.Close()

	app := &mid.App{
		Backend:      backend,
		Orchestrator: chain.NewOrchestrator(backend),
		Processor:    loader.NewProcessor(),
		Extractor:    extract.NewExtractor(),
		Workspaces:   workspace.NewService(store),
		Registry:     stream.NewRegistry(),
		Telemetry:    telemetry.NewCollector(),
		MasterAPIKey: util.GetEnv("MASTER_API_KEY"),
	}

	// Batch ingestion runs through RabbitMQ when configured.
	if util.GetEnv("RABBITMQ_HOST") != "" {
		que := queue.Init()
		defer que.Close()

		ch, err := que.Channel()
		if err != nil {
			logger.Fatal("Failed to open channel", "err", err)
		}
		defer ch.Close()

		if err := queue.SetupQueues(ch, []string{queue.IngestQueue}); err != nil {
			logger.Fatal("Failed to set up queues", "err", err)
		}
		app.Queue = ch
	} else {
		logger.Warn("RABBITMQ_HOST not set, batch ingestion disabled")
	}

	e.Use(mid.AppContextMiddleware(app))
	e.Use(middleware.CORS())
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.BodyLimit("1G"))

	RegisterRoutes(e)

	go func() {
		port := util.GetEnv("PORT")
		if port == "" {
			port = "8080"
		}
		logger.Info("Starting server", "port", port)
		if err := e.Start(":" + port); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed shutting down server", "err", err)
		}
	}()

	<-ctx.Done()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		logger.Error("Failed to shutdown server", "err", err)
	}
}
