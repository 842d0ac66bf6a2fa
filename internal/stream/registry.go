package stream

import (
	"context"
	"sort"
	"sync"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// Info describes one in-flight streaming generation.
type Info struct {
	ID        string    `json:"id"`
	Model     string    `json:"model"`
	StartedAt time.Time `json:"started_at"`
}

type entry struct {
	info   Info
	cancel context.CancelFunc
}

// Registry tracks active streams so they can be listed and cancelled. It is
// owned by the server and passed to the handlers that need it.
type Registry struct {
	mu      sync.Mutex
	streams map[string]entry
}

func NewRegistry() *Registry {
	return &Registry{streams: make(map[string]entry)}
}

// Register derives a cancellable context for a new stream and records it.
// The returned id must be passed to Unregister when the stream ends.
func (r *Registry) Register(ctx context.Context, model string) (string, context.Context, error) {
	id, err := gonanoid.New()
	if err != nil {
		return "", nil, err
	}

	streamCtx, cancel := context.WithCancel(ctx)

	r.mu.Lock()
	r.streams[id] = entry{
		info:   Info{ID: id, Model: model, StartedAt: time.Now().UTC()},
		cancel: cancel,
	}
	r.mu.Unlock()

	return id, streamCtx, nil
}

// Unregister cancels and removes a stream. Unknown ids are ignored.
func (r *Registry) Unregister(id string) {
	r.mu.Lock()
	e, ok := r.streams[id]
	if ok {
		delete(r.streams, id)
	}
	r.mu.Unlock()

	if ok {
		e.cancel()
	}
}

// Cancel aborts a stream by id and reports whether it was found.
func (r *Registry) Cancel(id string) bool {
	r.mu.Lock()
	e, ok := r.streams[id]
	r.mu.Unlock()

	if ok {
		e.cancel()
	}
	return ok
}

// List returns the active streams ordered by start time.
func (r *Registry) List() []Info {
	r.mu.Lock()
	infos := make([]Info, 0, len(r.streams))
	for _, e := range r.streams {
		infos = append(infos, e.info)
	}
	r.mu.Unlock()

	sort.Slice(infos, func(i, j int) bool {
		if infos[i].StartedAt.Equal(infos[j].StartedAt) {
			return infos[i].ID < infos[j].ID
		}
		return infos[i].StartedAt.Before(infos[j].StartedAt)
	})
	return infos
}
