package ai

import (
	"context"
	"errors"
	"testing"
)

func eventChannel(events ...TokenEvent) <-chan TokenEvent {
	ch := make(chan TokenEvent, len(events))
	for _, ev := range events {
		ch <- ev
	}
	close(ch)
	return ch
}

func TestCollect_ConcatenatesFragments(t *testing.T) {
	events := eventChannel(
		TokenEvent{Response: "Hello"},
		TokenEvent{Response: ", "},
		TokenEvent{Response: "world"},
		TokenEvent{Done: true},
	)

	out, err := Collect(context.Background(), "m1", events)
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if out != "Hello, world" {
		t.Fatalf("expected concatenated output, got %q", out)
	}
}

func TestCollect_StopsAtDone(t *testing.T) {
	ch := make(chan TokenEvent, 3)
	ch <- TokenEvent{Response: "done"}
	ch <- TokenEvent{Done: true}
	ch <- TokenEvent{Response: "after"}

	out, err := Collect(context.Background(), "m1", ch)
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if out != "done" {
		t.Fatalf("events after Done must be ignored, got %q", out)
	}
}

func TestCollect_ErrorEvent(t *testing.T) {
	events := eventChannel(
		TokenEvent{Response: "partial"},
		TokenEvent{Error: "connection reset", Done: true},
	)

	out, err := Collect(context.Background(), "m1", events)
	var streamErr *StreamError
	if !errors.As(err, &streamErr) {
		t.Fatalf("expected StreamError, got %v", err)
	}
	if streamErr.Model != "m1" {
		t.Fatalf("error should carry the model, got %q", streamErr.Model)
	}
	if out != "partial" {
		t.Fatalf("partial output should be returned alongside the error, got %q", out)
	}
}

func TestCollect_EmptyStream(t *testing.T) {
	ch := make(chan TokenEvent)
	close(ch)

	_, err := Collect(context.Background(), "m1", ch)
	if !errors.Is(err, ErrEmptyStream) {
		t.Fatalf("expected ErrEmptyStream, got %v", err)
	}
}

func TestCollect_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ch := make(chan TokenEvent)
	_, err := Collect(ctx, "m1", ch)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestUnmarshalFlexible(t *testing.T) {
	type chunk struct {
		Response string `json:"response"`
		Done     bool   `json:"done"`
	}

	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{"valid", `{"response":"ok","done":false}`, "ok", false},
		{"trailing comma", `{"response":"ok","done":false,}`, "ok", false},
		{"single quotes", `{'response':'ok','done':false}`, "ok", false},
		{"truncated", `{"response":"ok"`, "ok", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var c chunk
			err := UnmarshalFlexible(tt.input, &c)
			if (err != nil) != tt.wantErr {
				t.Fatalf("error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && c.Response != tt.want {
				t.Fatalf("expected response %q, got %q", tt.want, c.Response)
			}
		})
	}
}
