package ollama

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"context"

	"github.com/amber-ici/amber/backend/pkg/ai"
	"github.com/amber-ici/amber/backend/pkg/logger"

	"github.com/ollama/ollama/api"
	"github.com/pkoukk/tiktoken-go"
)

const maxStreamLine = 1 << 20

// generateChunk mirrors one NDJSON line of the Ollama generate stream. Only
// the fields the relay needs are decoded.
type generateChunk struct {
	Response        string `json:"response"`
	Done            bool   `json:"done"`
	Error           string `json:"error"`
	PromptEvalCount int    `json:"prompt_eval_count"`
	EvalCount       int    `json:"eval_count"`
}

// Invoke opens a token stream for one (model, prompt, options) triple.
// Response fragments arrive on the returned channel in wire order; the stream
// ends with a Done event, or a terminal error event on connection failure.
// Malformed stream lines are repaired when possible and otherwise skipped,
// counted in the backend metrics.
func (c *GraphOllamaBackend) Invoke(
	ctx context.Context,
	model string,
	prompt string,
	options ai.InvokeOptions,
) (<-chan ai.TokenEvent, error) {
	if err := c.reqLock.Acquire(ctx, 1); err != nil {
		return nil, err
	}

	opts := map[string]any{}
	for k, v := range options {
		opts[k] = v
	}

	tokens := 200
	enc, err := tiktoken.GetEncoding("o200k_base")
	if err != nil {
		c.reqLock.Release(1)
		return nil, err
	}
	tokens += len(enc.Encode(prompt, nil, nil))
	if tokens > 4096 {
		if _, set := opts["num_ctx"]; !set {
			opts["num_ctx"] = tokens
		}
	}

	payload := map[string]any{
		"model":  model,
		"prompt": prompt,
		"stream": true,
	}
	if len(opts) > 0 {
		payload["options"] = opts
	}

	body, err := json.Marshal(payload)
	if err != nil {
		c.reqLock.Release(1)
		return nil, err
	}

	endpoint := c.baseURL.JoinPath("/api/generate").String()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		c.reqLock.Release(1)
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.reqLock.Release(1)
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
		c.reqLock.Release(1)
		return nil, fmt.Errorf("ollama generate returned status %d: %s", resp.StatusCode, bytes.TrimSpace(msg))
	}

	out := make(chan ai.TokenEvent, 16)

	go func() {
		defer close(out)
		defer c.reqLock.Release(1)
		defer resp.Body.Close()

		start := time.Now()
		scanner := bufio.NewScanner(resp.Body)
		scanner.Buffer(make([]byte, 0, 64*1024), maxStreamLine)

		for scanner.Scan() {
			line := bytes.TrimSpace(scanner.Bytes())
			if len(line) == 0 {
				continue
			}

			var chunk generateChunk
			if err := ai.UnmarshalFlexible(string(line), &chunk); err != nil {
				c.addSkippedChunk()
				logger.Debug("[Ollama] Skipping malformed stream chunk", "model", model, "err", err)
				continue
			}

			ev := ai.TokenEvent{Response: chunk.Response, Done: chunk.Done}
			if chunk.Error != "" {
				ev.Error = chunk.Error
				ev.Done = true
			}

			select {
			case out <- ev:
			case <-ctx.Done():
				return
			}

			if ev.Done {
				c.modifyMetrics(ai.ModelMetrics{
					InputTokens:  chunk.PromptEvalCount,
					OutputTokens: chunk.EvalCount,
					TotalTokens:  chunk.PromptEvalCount + chunk.EvalCount,
					DurationMs:   time.Since(start).Milliseconds(),
				})
				return
			}
		}

		if err := scanner.Err(); err != nil && ctx.Err() == nil {
			select {
			case out <- ai.TokenEvent{Error: err.Error(), Done: true}:
			case <-ctx.Done():
			}
		}
	}()

	return out, nil
}

// ListModels returns the models available on the Ollama server.
func (c *GraphOllamaBackend) ListModels(ctx context.Context) ([]ai.ModelInfo, error) {
	resp, err := c.Client.List(ctx)
	if err != nil {
		return nil, err
	}

	models := make([]ai.ModelInfo, 0, len(resp.Models))
	for _, m := range resp.Models {
		models = append(models, ai.ModelInfo{
			Name:       m.Name,
			Size:       m.Size,
			ModifiedAt: m.ModifiedAt,
		})
	}
	return models, nil
}

// LoadModel preloads a model into memory to reduce latency on the first
// invocation. An empty generate request loads the model without producing output.
func (c *GraphOllamaBackend) LoadModel(ctx context.Context, model string) error {
	req := &api.GenerateRequest{Model: model}
	return c.Client.Generate(ctx, req, func(api.GenerateResponse) error {
		return nil
	})
}
