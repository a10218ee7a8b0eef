package bartender

import (
	"context"
	"errors"
	"sync"
	"time"
)

var ErrSessionNotFound = errors.New("bartender session not found")

// MemoryStore keeps live navigators in memory. Sessions are discarded on
// exit and do not survive a restart.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*Navigator
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]*Navigator)}
}

// Save stores n under its session id, replacing any previous navigator.
func (s *MemoryStore) Save(_ context.Context, n *Navigator) {
	id := n.Session().ID
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[id] = n
}

func (s *MemoryStore) Load(_ context.Context, id string) (*Navigator, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n, ok := s.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return n, nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[id]; !ok {
		return ErrSessionNotFound
	}
	delete(s.sessions, id)
	return nil
}

func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Prune drops sessions idle since before cutoff and returns how many went.
func (s *MemoryStore) Prune(_ context.Context, cutoff time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	pruned := 0
	for id, n := range s.sessions {
		if n.Session().UpdatedAt.Before(cutoff) {
			delete(s.sessions, id)
			pruned++
		}
	}
	return pruned
}
