package garden

import (
	"errors"
	"sync"
	"time"
)

var ErrSessionNotFound = errors.New("session not found")

// Registry keeps the open sessions of a server process, keyed by id. Every
// lookup marks a session as used; Sweep closes the ones left idle.
type Registry struct {
	garden   *Garden
	mu       sync.Mutex
	sessions map[string]*Session
	lastSeen map[string]time.Time
	now      func() time.Time
}

func NewRegistry(g *Garden) *Registry {
	return &Registry{
		garden:   g,
		sessions: make(map[string]*Session),
		lastSeen: make(map[string]time.Time),
		now:      time.Now,
	}
}

// Open creates and mounts a session.
func (r *Registry) Open() *Session {
	s := r.garden.NewSession()
	s.Mount()

	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[s.ID] = s
	r.lastSeen[s.ID] = r.now()
	return s
}

func (r *Registry) Get(id string) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	r.lastSeen[id] = r.now()
	return s, nil
}

func (r *Registry) Close(id string) error {
	r.mu.Lock()
	s, ok := r.sessions[id]
	delete(r.sessions, id)
	delete(r.lastSeen, id)
	r.mu.Unlock()

	if !ok {
		return ErrSessionNotFound
	}
	s.Close()
	return nil
}

func (r *Registry) CloseAll() {
	r.mu.Lock()
	sessions := r.sessions
	r.sessions = make(map[string]*Session)
	r.lastSeen = make(map[string]time.Time)
	r.mu.Unlock()

	for _, s := range sessions {
		s.Close()
	}
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Sweep closes every session not looked up for longer than idle and returns
// their ids.
func (r *Registry) Sweep(idle time.Duration) []string {
	cutoff := r.now().Add(-idle)

	r.mu.Lock()
	var stale []*Session
	for id, seen := range r.lastSeen {
		if seen.Before(cutoff) {
			stale = append(stale, r.sessions[id])
			delete(r.sessions, id)
			delete(r.lastSeen, id)
		}
	}
	r.mu.Unlock()

	ids := make([]string, 0, len(stale))
	for _, s := range stale {
		s.Close()
		ids = append(ids, s.ID)
	}
	return ids
}
