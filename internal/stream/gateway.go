package stream

import (
	"context"
	"encoding/json"
	"time"

	"github.com/amber-ici/amber/backend/internal/telemetry"
	"github.com/amber-ici/amber/backend/pkg/ai"
	"github.com/amber-ici/amber/backend/pkg/logger"
)

// Conn is the slice of a websocket connection the gateway needs. The real
// implementation wraps nhooyr.io/websocket; tests substitute a scripted one.
type Conn interface {
	Read(ctx context.Context) ([]byte, error)
	Write(ctx context.Context, data []byte) error
}

// Request is one generation request sent by the client over the socket.
type Request struct {
	Model   string         `json:"model"`
	Prompt  string         `json:"prompt"`
	Options map[string]any `json:"options,omitempty"`
}

// Frame is one message relayed to the client. Token frames carry the chunk;
// the final frame of a generation has Done set, with Error filled on
// failure.
type Frame struct {
	Model     string `json:"model,omitempty"`
	Chunk     string `json:"chunk,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
	Done      bool   `json:"done,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Gateway relays model token streams over a websocket. One connection runs
// one generation at a time; the next request is read after the previous
// stream finishes.
type Gateway struct {
	backend  ai.ModelBackend
	registry *Registry
	now      func() time.Time
}

func NewGateway(backend ai.ModelBackend, registry *Registry) *Gateway {
	return &Gateway{backend: backend, registry: registry, now: time.Now}
}

// Serve drives the request loop until the client disconnects or ctx is
// cancelled. A closed connection cancels any in-flight generation.
func (g *Gateway) Serve(ctx context.Context, c Conn) error {
	for {
		data, err := c.Read(ctx)
		if err != nil {
			return err
		}

		var req Request
		if err := json.Unmarshal(data, &req); err != nil {
			if err := g.writeFrame(ctx, c, Frame{Error: "invalid request: " + err.Error(), Done: true}); err != nil {
				return err
			}
			continue
		}
		if req.Model == "" || req.Prompt == "" {
			if err := g.writeFrame(ctx, c, Frame{Error: "model and prompt are required", Done: true}); err != nil {
				return err
			}
			continue
		}

		if err := g.relay(ctx, c, req); err != nil {
			return err
		}
	}
}

// relay runs one generation and forwards its tokens. Returning an error
// means the connection is unusable and the serve loop must stop.
func (g *Gateway) relay(ctx context.Context, c Conn, req Request) error {
	id, streamCtx, err := g.registry.Register(ctx, req.Model)
	if err != nil {
		return g.writeFrame(ctx, c, Frame{Model: req.Model, Error: err.Error(), Done: true})
	}
	defer g.registry.Unregister(id)

	events, err := g.backend.Invoke(streamCtx, req.Model, req.Prompt, ai.InvokeOptions(req.Options))
	if err != nil {
		logger.Warn("Stream invocation failed", "model", req.Model, "error", err)
		return g.writeFrame(ctx, c, Frame{Model: req.Model, Error: err.Error(), Done: true})
	}

	for {
		select {
		case <-streamCtx.Done():
			return streamCtx.Err()
		case event, ok := <-events:
			if !ok {
				return g.writeFrame(ctx, c, Frame{Model: req.Model, Error: ai.ErrEmptyStream.Error(), Done: true})
			}
			if event.Error != "" {
				return g.writeFrame(ctx, c, Frame{Model: req.Model, Error: event.Error, Done: true})
			}
			if event.Response != "" {
				frame := Frame{
					Model:     req.Model,
					Chunk:     event.Response,
					Timestamp: g.now().UTC().Format(time.RFC3339Nano),
				}
				if err := g.writeFrame(ctx, c, frame); err != nil {
					// Client went away; stop the generation with it.
					return err
				}
			}
			if event.Done {
				return g.writeFrame(ctx, c, Frame{Model: req.Model, Done: true, Timestamp: g.now().UTC().Format(time.RFC3339Nano)})
			}
		}
	}
}

func (g *Gateway) writeFrame(ctx context.Context, c Conn, frame Frame) error {
	data, err := json.Marshal(frame)
	if err != nil {
		return err
	}
	return c.Write(ctx, data)
}

// ServeTelemetry pushes resource snapshots to the client at the given
// interval until the connection drops or ctx is cancelled.
func ServeTelemetry(ctx context.Context, c Conn, collector *telemetry.Collector, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		stats := collector.CurrentStats(ctx)
		data, err := json.Marshal(stats)
		if err != nil {
			return err
		}
		if err := c.Write(ctx, data); err != nil {
			return err
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
