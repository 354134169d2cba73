package runtime

import (
	"sort"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/custodia-labs/passage-highlights/internal/core/domain"
)

// liveSessions tracks the sessions held by this instance
var liveSessions = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "passage_live_sessions",
	Help: "Sessions held in memory by this instance",
})

// Sessions holds the live workspaces of this instance and the runtime
// configuration they share. Thread-safe for concurrent access; the
// workspaces themselves are guarded by their own locks.
type Sessions struct {
	mu sync.RWMutex

	config     *domain.RuntimeConfig
	workspaces map[string]*domain.Workspace
}

// NewSessions creates an empty session registry
func NewSessions(config *domain.RuntimeConfig) *Sessions {
	if config == nil {
		config = domain.NewRuntimeConfig("memory", "memory")
	}
	return &Sessions{
		config:     config,
		workspaces: make(map[string]*domain.Workspace),
	}
}

// Config returns the runtime configuration
func (s *Sessions) Config() *domain.RuntimeConfig {
	return s.config
}

// Get returns the workspace of a live session
func (s *Sessions) Get(sessionID string) (*domain.Workspace, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ws, ok := s.workspaces[sessionID]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return ws, nil
}

// Put registers a workspace, replacing any workspace with the same session ID
func (s *Sessions) Put(ws *domain.Workspace) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.workspaces[ws.SessionID] = ws
	liveSessions.Set(float64(len(s.workspaces)))
}

// Remove unregisters a session and returns its workspace, or nil
func (s *Sessions) Remove(sessionID string) *domain.Workspace {
	s.mu.Lock()
	defer s.mu.Unlock()

	ws := s.workspaces[sessionID]
	delete(s.workspaces, sessionID)
	liveSessions.Set(float64(len(s.workspaces)))
	return ws
}

// RemoveIf unregisters ws only if it is still the live workspace of its
// session. Reports whether it was removed.
func (s *Sessions) RemoveIf(ws *domain.Workspace) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.workspaces[ws.SessionID] != ws {
		return false
	}
	delete(s.workspaces, ws.SessionID)
	liveSessions.Set(float64(len(s.workspaces)))
	return true
}

// List returns the live workspaces ordered by session ID
func (s *Sessions) List() []*domain.Workspace {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*domain.Workspace, 0, len(s.workspaces))
	for _, ws := range s.workspaces {
		out = append(out, ws)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SessionID < out[j].SessionID })
	return out
}

// Len returns the number of live sessions
func (s *Sessions) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.workspaces)
}
