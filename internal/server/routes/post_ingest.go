package routes

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/amber-ici/amber/backend/internal/queue"
	"github.com/amber-ici/amber/backend/internal/server/middleware"
	"github.com/amber-ici/amber/backend/pkg/graph"
	"github.com/amber-ici/amber/backend/pkg/logger"

	"github.com/labstack/echo/v4"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

// PostIngestFileHandler processes one uploaded document synchronously and
// returns the extracted text together with its entity graph.
func PostIngestFileHandler(c echo.Context) error {
	file, err := c.FormFile("file")
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Missing file upload"})
	}

	src, err := file.Open()
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Cannot read file upload"})
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Cannot read file upload"})
	}

	app := c.(*middleware.AppContext).App
	ctx := c.Request().Context()

	result := app.Processor.Process(ctx, file.Filename, data)
	if !result.Success {
		return c.JSON(http.StatusUnprocessableEntity, result)
	}

	entities := app.Extractor.Extract(result.Text)
	for i := range entities {
		entities[i].Source = file.Filename
	}

	return c.JSON(http.StatusOK, map[string]any{
		"result":   result,
		"entities": entities,
		"graph":    graph.Build(entities),
	})
}

// PostIngestBatchHandler queues a multi-file ingestion job for the worker
// and returns a correlation id for tracking.
func PostIngestBatchHandler(c echo.Context) error {
	app := c.(*middleware.AppContext).App
	if app.Queue == nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": "Batch ingestion is not configured"})
	}

	form, err := c.MultipartForm()
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}
	uploads := form.File["files"]
	if len(uploads) == 0 {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "No files uploaded"})
	}

	correlationID, err := gonanoid.New()
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
	}

	msg := queue.IngestBatchMsg{
		CorrelationID: correlationID,
		Workspace:     c.FormValue("workspace"),
	}
	for _, upload := range uploads {
		src, err := upload.Open()
		if err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "Cannot read file upload"})
		}
		data, err := io.ReadAll(src)
		src.Close()
		if err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "Cannot read file upload"})
		}
		msg.Files = append(msg.Files, queue.IngestFileMsg{
			Filename: upload.Filename,
			Data:     data,
		})
	}

	msgBytes, err := json.Marshal(msg)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
	}
	if err := queue.PublishFIFO(app.Queue, queue.IngestQueue, msgBytes); err != nil {
		logger.Error("Failed to publish ingest batch", "err", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to queue batch"})
	}

	return c.JSON(http.StatusAccepted, map[string]any{
		"correlation_id": correlationID,
		"files":          len(msg.Files),
	})
}
