package ai

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"
)

// TokenEvent is one element of a streamed model response. A finite sequence of
// events ends with Done=true; connection-level failures are reported as a
// terminal event with Error set and Done=true.
type TokenEvent struct {
	Response string `json:"response,omitempty"`
	Done     bool   `json:"done"`
	Error    string `json:"error,omitempty"`
}

// InvokeOptions are backend-specific generation options passed through
// unmodified (temperature, num_ctx, ...).
type InvokeOptions map[string]any

// ModelInfo describes a model available on the inference backend.
type ModelInfo struct {
	Name       string    `json:"name"`
	Size       int64     `json:"size,omitempty"`
	ModifiedAt time.Time `json:"modified_at,omitempty"`
}

// ModelMetrics contains accumulated usage metrics from backend invocations.
// SkippedChunks counts malformed stream chunks that were dropped during
// parsing; it makes the skip-and-continue policy observable.
type ModelMetrics struct {
	InputTokens    int     `json:"input_tokens"`
	OutputTokens   int     `json:"output_tokens"`
	TotalTokens    int     `json:"total_tokens"`
	DurationMs     int64   `json:"duration_ms"`
	TokenPerSecond float32 `json:"tokens_per_second"`
	SkippedChunks  int     `json:"skipped_chunks"`
}

// ModelBackend is a single inference endpoint. Invoke opens a token stream for
// one (model, prompt, options) triple; the returned channel is closed after
// the terminal event. Cancelling ctx aborts the in-flight request promptly.
type ModelBackend interface {
	Invoke(ctx context.Context, model string, prompt string, options InvokeOptions) (<-chan TokenEvent, error)
	ListModels(ctx context.Context) ([]ModelInfo, error)
	LoadModel(ctx context.Context, model string) error
	GetMetrics() ModelMetrics
	ResetMetrics()
}

// UnsupportedAdapterError is returned when AI_ADAPTER names a backend
// outside the closed set.
type UnsupportedAdapterError struct {
	Value string
}

func (e *UnsupportedAdapterError) Error() string {
	return "unsupported AI adapter: " + strconv.Quote(e.Value)
}

// StreamError is a connection-level failure reported by a token stream.
type StreamError struct {
	Model   string
	Message string
}

func (e *StreamError) Error() string {
	return "model " + e.Model + ": " + e.Message
}

// ErrEmptyStream is returned by Collect when the channel closes without a
// terminal Done event.
var ErrEmptyStream = errors.New("token stream closed before completion")

// Collect drains a token stream, concatenating response fragments in arrival
// order with no separators, and stops at the first Done event. A terminal
// error event is returned as *StreamError alongside the partial text.
func Collect(ctx context.Context, model string, events <-chan TokenEvent) (string, error) {
	var sb strings.Builder
	for {
		select {
		case <-ctx.Done():
			return sb.String(), ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return sb.String(), ErrEmptyStream
			}
			sb.WriteString(ev.Response)
			if ev.Error != "" {
				return sb.String(), &StreamError{Model: model, Message: ev.Error}
			}
			if ev.Done {
				return sb.String(), nil
			}
		}
	}
}
