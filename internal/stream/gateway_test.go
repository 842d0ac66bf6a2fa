package stream

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/amber-ici/amber/backend/pkg/ai"
)

// scriptConn feeds scripted inbound messages and records outbound frames.
type scriptConn struct {
	inbound [][]byte
	written []Frame
}

func (c *scriptConn) Read(ctx context.Context) ([]byte, error) {
	if len(c.inbound) == 0 {
		return nil, io.EOF
	}
	msg := c.inbound[0]
	c.inbound = c.inbound[1:]
	return msg, nil
}

func (c *scriptConn) Write(ctx context.Context, data []byte) error {
	var frame Frame
	if err := json.Unmarshal(data, &frame); err != nil {
		return err
	}
	c.written = append(c.written, frame)
	return nil
}

type scriptBackend struct {
	events  []ai.TokenEvent
	err     error
	lastCtx context.Context
	lastCh  chan ai.TokenEvent
}

func (b *scriptBackend) Invoke(ctx context.Context, model string, prompt string, options ai.InvokeOptions) (<-chan ai.TokenEvent, error) {
	b.lastCtx = ctx
	if b.err != nil {
		return nil, b.err
	}
	ch := make(chan ai.TokenEvent, len(b.events))
	for _, ev := range b.events {
		ch <- ev
	}
	close(ch)
	b.lastCh = ch
	return ch, nil
}

func (b *scriptBackend) ListModels(ctx context.Context) ([]ai.ModelInfo, error) { return nil, nil }
func (b *scriptBackend) LoadModel(ctx context.Context, model string) error      { return nil }
func (b *scriptBackend) GetMetrics() ai.ModelMetrics                            { return ai.ModelMetrics{} }
func (b *scriptBackend) ResetMetrics()                                          {}

func request(t *testing.T, model, prompt string) []byte {
	t.Helper()
	data, err := json.Marshal(Request{Model: model, Prompt: prompt})
	if err != nil {
		t.Fatal(err)
	}
	return data
}

func TestServe_RelaysTokens(t *testing.T) {
	backend := &scriptBackend{events: []ai.TokenEvent{
		{Response: "hel"},
		{Response: "lo"},
		{Done: true},
	}}
	conn := &scriptConn{inbound: [][]byte{request(t, "m1", "hi")}}
	g := NewGateway(backend, NewRegistry())

	err := g.Serve(context.Background(), conn)
	if !errors.Is(err, io.EOF) {
		t.Fatalf("expected EOF after script, got %v", err)
	}

	if len(conn.written) != 3 {
		t.Fatalf("expected 2 token frames + done, got %d: %+v", len(conn.written), conn.written)
	}
	if conn.written[0].Chunk != "hel" || conn.written[1].Chunk != "lo" {
		t.Fatalf("chunks out of order: %+v", conn.written)
	}
	if conn.written[0].Model != "m1" {
		t.Fatalf("frame should carry the model, got %q", conn.written[0].Model)
	}
	if conn.written[0].Timestamp == "" {
		t.Fatal("token frame should carry a timestamp")
	}
	last := conn.written[len(conn.written)-1]
	if !last.Done || last.Error != "" {
		t.Fatalf("expected clean done frame, got %+v", last)
	}
}

func TestServe_RejectsMissingFields(t *testing.T) {
	tests := []struct {
		name string
		body []byte
	}{
		{"missing model", []byte(`{"prompt":"hi"}`)},
		{"missing prompt", []byte(`{"model":"m1"}`)},
		{"invalid json", []byte(`{nope`)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conn := &scriptConn{inbound: [][]byte{tt.body}}
			g := NewGateway(&scriptBackend{}, NewRegistry())

			err := g.Serve(context.Background(), conn)
			if !errors.Is(err, io.EOF) {
				t.Fatalf("expected EOF, got %v", err)
			}
			if len(conn.written) != 1 {
				t.Fatalf("expected one error frame, got %d", len(conn.written))
			}
			frame := conn.written[0]
			if !frame.Done || frame.Error == "" {
				t.Fatalf("expected terminal error frame, got %+v", frame)
			}
		})
	}
}

func TestServe_BackendErrorEvent(t *testing.T) {
	backend := &scriptBackend{events: []ai.TokenEvent{
		{Response: "partial"},
		{Error: "model crashed", Done: true},
	}}
	conn := &scriptConn{inbound: [][]byte{request(t, "m1", "hi")}}
	g := NewGateway(backend, NewRegistry())

	if err := g.Serve(context.Background(), conn); !errors.Is(err, io.EOF) {
		t.Fatalf("expected EOF, got %v", err)
	}

	last := conn.written[len(conn.written)-1]
	if !last.Done || !strings.Contains(last.Error, "model crashed") {
		t.Fatalf("expected error frame, got %+v", last)
	}
}

func TestServe_InvokeFailure(t *testing.T) {
	backend := &scriptBackend{err: errors.New("unreachable")}
	conn := &scriptConn{inbound: [][]byte{request(t, "m1", "hi")}}
	g := NewGateway(backend, NewRegistry())

	if err := g.Serve(context.Background(), conn); !errors.Is(err, io.EOF) {
		t.Fatalf("expected EOF, got %v", err)
	}
	frame := conn.written[0]
	if !frame.Done || !strings.Contains(frame.Error, "unreachable") {
		t.Fatalf("expected error frame, got %+v", frame)
	}
}

func TestServe_UnregistersStream(t *testing.T) {
	backend := &scriptBackend{events: []ai.TokenEvent{{Done: true}}}
	registry := NewRegistry()
	conn := &scriptConn{inbound: [][]byte{request(t, "m1", "hi")}}
	g := NewGateway(backend, registry)

	if err := g.Serve(context.Background(), conn); !errors.Is(err, io.EOF) {
		t.Fatalf("expected EOF, got %v", err)
	}
	if got := len(registry.List()); got != 0 {
		t.Fatalf("stream should be unregistered after completion, got %d", got)
	}
	if backend.lastCtx == nil {
		t.Fatal("backend never invoked")
	}
	if backend.lastCtx.Err() == nil {
		t.Fatal("stream context should be cancelled after unregister")
	}
}

// brokenConn fails writes after a fixed number of delivered frames, the way
// a client dropping mid-generation does.
type brokenConn struct {
	scriptConn
	writesLeft int
}

func (c *brokenConn) Write(ctx context.Context, data []byte) error {
	if c.writesLeft <= 0 {
		return errors.New("connection reset")
	}
	c.writesLeft--
	return c.scriptConn.Write(ctx, data)
}

func TestServe_ClientDropMidStreamStopsGeneration(t *testing.T) {
	backend := &scriptBackend{events: []ai.TokenEvent{
		{Response: "a"},
		{Response: "b"},
		{Response: "c"},
		{Done: true},
	}}
	registry := NewRegistry()
	conn := &brokenConn{
		scriptConn: scriptConn{inbound: [][]byte{request(t, "m1", "hi")}},
		writesLeft: 1,
	}
	g := NewGateway(backend, registry)

	err := g.Serve(context.Background(), conn)
	if err == nil || errors.Is(err, io.EOF) {
		t.Fatalf("write failure should end the serve loop, got %v", err)
	}
	if len(conn.written) != 1 {
		t.Fatalf("expected a single delivered frame, got %d: %+v", len(conn.written), conn.written)
	}
	if backend.lastCtx == nil {
		t.Fatal("backend never invoked")
	}
	if backend.lastCtx.Err() == nil {
		t.Fatal("generation context should be cancelled when the client drops")
	}
	if len(backend.lastCh) == 0 {
		t.Fatal("remaining events should stay unconsumed after the drop")
	}
	if got := len(registry.List()); got != 0 {
		t.Fatalf("stream should be unregistered after the drop, got %d", got)
	}
}

func TestRegistry_ListAndCancel(t *testing.T) {
	r := NewRegistry()

	id1, ctx1, err := r.Register(context.Background(), "m1")
	if err != nil {
		t.Fatal(err)
	}
	time.Sleep(time.Millisecond)
	id2, _, err := r.Register(context.Background(), "m2")
	if err != nil {
		t.Fatal(err)
	}

	infos := r.List()
	if len(infos) != 2 {
		t.Fatalf("expected 2 streams, got %d", len(infos))
	}
	if infos[0].ID != id1 || infos[1].ID != id2 {
		t.Fatalf("streams out of start order: %+v", infos)
	}

	if !r.Cancel(id1) {
		t.Fatal("expected cancel to find the stream")
	}
	select {
	case <-ctx1.Done():
	default:
		t.Fatal("cancel should cancel the stream context")
	}

	r.Unregister(id1)
	r.Unregister(id2)
	if len(r.List()) != 0 {
		t.Fatal("expected empty registry")
	}

	if r.Cancel("missing") {
		t.Fatal("cancel of unknown id should report false")
	}
}
