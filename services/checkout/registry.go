package checkout

import (
	"sync"
	"time"
)

// Session bundles everything one live checkout session owns: the
// orchestrator and the provider card surface backing the card-management
// endpoints.
type Session struct {
	ID           string
	Orchestrator *Orchestrator
	Cards        CardAPI
	CreatedAt    time.Time
}

// Registry tracks live checkout sessions by id. Sessions are per-customer
// and never shared; the registry only routes requests to them.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]*Session)}
}

func (r *Registry) Put(s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[s.ID] = s
}

func (r *Registry) Get(id string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	return s, ok
}

// Remove drops the session from the registry without tearing it down; the
// caller owns the teardown.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
}

// Reap tears down and removes an abandoned session. Reports whether a
// session was found.
func (r *Registry) Reap(id string) bool {
	r.mu.Lock()
	s, ok := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()

	if !ok {
		return false
	}
	s.Orchestrator.Teardown()
	return true
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
