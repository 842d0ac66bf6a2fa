package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/amber-ici/amber/backend/internal/workspace"
	"github.com/amber-ici/amber/backend/pkg/extract"
	"github.com/amber-ici/amber/backend/pkg/graph"
	"github.com/amber-ici/amber/backend/pkg/loader"
	"github.com/amber-ici/amber/backend/pkg/logger"
)

// IngestFileMsg is one document in a batch ingestion job. Data is base64 on
// the wire via encoding/json.
type IngestFileMsg struct {
	Filename string `json:"filename"`
	Data     []byte `json:"data"`
}

// IngestBatchMsg is the payload published to the ingest queue.
type IngestBatchMsg struct {
	CorrelationID string          `json:"correlation_id"`
	Workspace     string          `json:"workspace,omitempty"`
	Files         []IngestFileMsg `json:"files"`
}

// IngestBatchResult summarizes one processed batch. It is stored as the
// session result when the batch names a workspace.
type IngestBatchResult struct {
	CorrelationID string          `json:"correlation_id"`
	Processed     int             `json:"processed"`
	Failed        int             `json:"failed"`
	Results       []loader.Result `json:"results"`
	Graph         *graph.Graph    `json:"graph"`
}

// ProcessIngestBatch extracts text from every file in the batch, mines the
// extracted text for entities, and builds one graph over the whole batch.
// Files that fail extraction are reported in the result and excluded from
// the graph.
func ProcessIngestBatch(
	ctx context.Context,
	processor *loader.Processor,
	extractor *extract.Extractor,
	workspaces *workspace.Service,
	body []byte,
) error {
	var msg IngestBatchMsg
	if err := json.Unmarshal(body, &msg); err != nil {
		return fmt.Errorf("decoding ingest message: %w", err)
	}
	if len(msg.Files) == 0 {
		return errors.New("ingest message has no files")
	}

	result := IngestBatchResult{CorrelationID: msg.CorrelationID}
	var allEntities []extract.Entity

	for _, file := range msg.Files {
		res := processor.Process(ctx, file.Filename, file.Data)
		result.Results = append(result.Results, res)

		if !res.Success {
			result.Failed++
			logger.Warn("Ingest file failed", "file", file.Filename, "err", res.Error)
			continue
		}
		result.Processed++

		entities := extractor.Extract(res.Text)
		for i := range entities {
			entities[i].Source = file.Filename
		}
		allEntities = append(allEntities, entities...)
	}

	result.Graph = graph.Build(allEntities)
	logger.Info(
		"Ingest batch complete",
		"correlation_id", msg.CorrelationID,
		"processed", result.Processed,
		"failed", result.Failed,
		"nodes", result.Graph.Stats.NodeCount,
		"edges", result.Graph.Stats.EdgeCount,
	)

	if msg.Workspace != "" && workspaces != nil {
		resultMap := map[string]any{
			"correlation_id": result.CorrelationID,
			"processed":      result.Processed,
			"failed":         result.Failed,
			"graph":          result.Graph,
		}
		if _, err := workspaces.AddSession(ctx, msg.Workspace, "ingest", msg.CorrelationID, resultMap); err != nil {
			return fmt.Errorf("recording ingest session: %w", err)
		}
	}

	return nil
}
