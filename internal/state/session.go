package state

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/kurobon/gitlanes/internal/git"
	"github.com/kurobon/gitlanes/internal/graph"
)

// ErrSessionNotFound is returned for unknown session ids.
var ErrSessionNotFound = errors.New("session not found")

// Opener turns a repository path into a backend.
type Opener func(path string) (graph.Backend, error)

// Session is one opened repository. Builds on a session are serialised
// because go-git repositories are not safe for concurrent use.
type Session struct {
	ID        string
	Path      string
	CreatedAt time.Time

	backend   graph.Backend
	lastBuild time.Time
	mu        sync.Mutex
}

// SessionManager handles concurrent access to sessions
type SessionManager struct {
	sessions map[string]*Session
	open     Opener
	mu       sync.RWMutex
}

// NewSessionManager creates a manager that opens repositories from disk and
// keeps up to cacheSize commits per session in memory.
func NewSessionManager(cacheSize int) *SessionManager {
	return NewSessionManagerWithOpener(func(path string) (graph.Backend, error) {
		repo, err := git.Open(path)
		if err != nil {
			return nil, err
		}
		return git.NewCached(repo, cacheSize)
	})
}

// NewSessionManagerWithOpener creates a manager using open to create
// backends.
func NewSessionManagerWithOpener(open Opener) *SessionManager {
	return &SessionManager{
		sessions: make(map[string]*Session),
		open:     open,
	}
}

// CreateSession opens the repository at path under a new session id.
func (sm *SessionManager) CreateSession(path string) (*Session, error) {
	if path == "" {
		return nil, errors.New("repository path is required")
	}
	b, err := sm.open(path)
	if err != nil {
		return nil, fmt.Errorf("open session: %w", err)
	}
	return sm.AddSession(path, b), nil
}

// AddSession registers an already opened backend.
func (sm *SessionManager) AddSession(path string, b graph.Backend) *Session {
	s := &Session{
		ID:        uuid.NewString(),
		Path:      path,
		CreatedAt: time.Now(),
		backend:   b,
	}

	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.sessions[s.ID] = s
	return s
}

// GetSession retrieves a session by ID
func (sm *SessionManager) GetSession(id string) (*Session, bool) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	s, ok := sm.sessions[id]
	return s, ok
}

// CloseSession forgets a session. It reports whether the session existed.
func (sm *SessionManager) CloseSession(id string) bool {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	if _, ok := sm.sessions[id]; !ok {
		return false
	}
	delete(sm.sessions, id)
	return true
}

// Sessions lists open sessions, oldest first.
func (sm *SessionManager) Sessions() []*Session {
	sm.mu.RLock()
	out := make([]*Session, 0, len(sm.sessions))
	for _, s := range sm.sessions {
		out = append(out, s)
	}
	sm.mu.RUnlock()

	slices.SortFunc(out, func(a, b *Session) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return out
}

// BuildGraph runs the graph pipeline against the session's repository.
func (s *Session) BuildGraph(ctx context.Context, opts graph.Options) (*graph.Graph, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ctx = log.WithContext(ctx, log.FromContext(ctx).With("session", s.ID))
	g, err := graph.Build(ctx, s.backend, opts)
	if err != nil {
		return nil, err
	}
	s.lastBuild = time.Now()
	return g, nil
}

// References resolves the session's references without walking history.
func (s *Session) References(ctx context.Context, primary string) (*graph.Resolution, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return graph.ResolveReferences(ctx, s.backend, primary)
}

// LastBuild returns when BuildGraph last succeeded, or the zero time.
func (s *Session) LastBuild() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastBuild
}

