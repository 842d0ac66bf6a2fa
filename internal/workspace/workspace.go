package workspace

import (
	"context"
	"errors"
	"fmt"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

const (
	domainWorkspaces = "workspaces"
	sessionDomainFmt = "sessions:%s"
)

// Workspace groups related analysis sessions under a user-chosen name.
type Workspace struct {
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	Sessions    int       `json:"sessions"`
}

// Session is one recorded unit of work inside a workspace, for example a
// chain run or an agent execution, with its result attached.
type Session struct {
	ID        string         `json:"id"`
	Workspace string         `json:"workspace"`
	Kind      string         `json:"kind"`
	Task      string         `json:"task,omitempty"`
	Result    map[string]any `json:"result,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

// ErrExists is returned when creating a workspace whose name is taken.
var ErrExists = errors.New("workspace already exists")

// Service implements workspace and session persistence on top of Store.
type Service struct {
	store *Store
	now   func() time.Time
}

func NewService(store *Store) *Service {
	return &Service{store: store, now: time.Now}
}

// CreateWorkspace registers a new workspace. Names are unique.
func (s *Service) CreateWorkspace(ctx context.Context, name, description string) (Workspace, error) {
	var existing Workspace
	err := s.store.Get(ctx, domainWorkspaces, name, &existing)
	if err == nil {
		return Workspace{}, ErrExists
	}
	if !errors.Is(err, ErrNotFound) {
		return Workspace{}, err
	}

	ws := Workspace{
		Name:        name,
		Description: description,
		CreatedAt:   s.now().UTC(),
	}
	if err := s.store.Set(ctx, domainWorkspaces, name, ws); err != nil {
		return Workspace{}, err
	}
	return ws, nil
}

// GetWorkspace loads one workspace by name.
func (s *Service) GetWorkspace(ctx context.Context, name string) (Workspace, error) {
	var ws Workspace
	if err := s.store.Get(ctx, domainWorkspaces, name, &ws); err != nil {
		return Workspace{}, err
	}
	return ws, nil
}

// ListWorkspaces returns all workspaces in creation order.
func (s *Service) ListWorkspaces(ctx context.Context) ([]Workspace, error) {
	names, err := s.store.List(ctx, domainWorkspaces)
	if err != nil {
		return nil, err
	}

	workspaces := make([]Workspace, 0, len(names))
	for _, name := range names {
		var ws Workspace
		if err := s.store.Get(ctx, domainWorkspaces, name, &ws); err != nil {
			return nil, err
		}
		workspaces = append(workspaces, ws)
	}
	return workspaces, nil
}

// AddSession records a session in a workspace and bumps its session count.
// The workspace must exist.
func (s *Service) AddSession(ctx context.Context, workspace, kind, task string, result map[string]any) (Session, error) {
	ws, err := s.GetWorkspace(ctx, workspace)
	if err != nil {
		return Session{}, err
	}

	id, err := gonanoid.New()
	if err != nil {
		return Session{}, fmt.Errorf("generating session id: %w", err)
	}

	session := Session{
		ID:        id,
		Workspace: workspace,
		Kind:      kind,
		Task:      task,
		Result:    result,
		CreatedAt: s.now().UTC(),
	}

	domain := fmt.Sprintf(sessionDomainFmt, workspace)
	if err := s.store.Set(ctx, domain, id, session); err != nil {
		return Session{}, err
	}

	ws.Sessions++
	if err := s.store.Set(ctx, domainWorkspaces, workspace, ws); err != nil {
		return Session{}, err
	}
	return session, nil
}

// ListSessions returns the sessions of a workspace in creation order.
func (s *Service) ListSessions(ctx context.Context, workspace string) ([]Session, error) {
	if _, err := s.GetWorkspace(ctx, workspace); err != nil {
		return nil, err
	}

	domain := fmt.Sprintf(sessionDomainFmt, workspace)
	ids, err := s.store.List(ctx, domain)
	if err != nil {
		return nil, err
	}

	sessions := make([]Session, 0, len(ids))
	for _, id := range ids {
		var session Session
		if err := s.store.Get(ctx, domain, id, &session); err != nil {
			return nil, err
		}
		sessions = append(sessions, session)
	}
	return sessions, nil
}
