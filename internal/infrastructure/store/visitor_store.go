package store

import (
	"sync"
	"time"

	"lionix-portal/internal/session"
	"lionix-portal/internal/signup"

	"github.com/google/uuid"
)

// Visitor bundles the per-browser-visitor auth state: the session manager
// that owns the visitor's session, and the signup flow for an in-progress
// attempt.
type Visitor struct {
	ID       string
	Sessions *session.Manager
	Flow     *signup.Flow
}

// entry wraps a visitor with its idle deadline.
type entry struct {
	visitor  *Visitor
	lastSeen time.Time
}

// VisitorStore is a thread-safe in-memory registry of visitor state with an
// idle TTL. Evicted visitors lose their session manager and any pending
// signup state, which is the reference behavior for transient flow state.
type VisitorStore struct {
	mu      sync.RWMutex
	entries map[string]*entry
	ttl     time.Duration
	build   func(id string) *Visitor
}

// NewVisitorStore creates a registry with the given idle TTL. build is called
// to assemble the manager and flow for each new visitor.
func NewVisitorStore(ttl time.Duration, build func(id string) *Visitor) *VisitorStore {
	s := &VisitorStore{
		entries: make(map[string]*entry),
		ttl:     ttl,
		build:   build,
	}
	go s.cleanupLoop()
	return s
}

// Get retrieves a visitor by ID and refreshes its idle deadline.
func (s *VisitorStore) Get(id string) (*Visitor, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, found := s.entries[id]
	if !found || time.Now().After(e.lastSeen.Add(s.ttl)) {
		return nil, false
	}
	e.lastSeen = time.Now()
	return e.visitor, true
}

// Create assembles and registers a fresh visitor.
func (s *VisitorStore) Create() *Visitor {
	id := uuid.NewString()
	v := s.build(id)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[id] = &entry{visitor: v, lastSeen: time.Now()}
	return v
}

// Drop removes a visitor immediately, closing its session manager.
func (s *VisitorStore) Drop(id string) {
	s.mu.Lock()
	e, found := s.entries[id]
	delete(s.entries, id)
	s.mu.Unlock()

	if found {
		e.visitor.Sessions.Close()
	}
}

// Len reports the number of live visitors.
func (s *VisitorStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// cleanup removes idle-expired entries.
func (s *VisitorStore) cleanup() {
	now := time.Now()

	s.mu.Lock()
	var evicted []*Visitor
	for id, e := range s.entries {
		if now.After(e.lastSeen.Add(s.ttl)) {
			evicted = append(evicted, e.visitor)
			delete(s.entries, id)
		}
	}
	s.mu.Unlock()

	for _, v := range evicted {
		v.Sessions.Close()
	}
}

// cleanupLoop runs periodic cleanup of expired entries.
func (s *VisitorStore) cleanupLoop() {
	ticker := time.NewTicker(1 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		s.cleanup()
	}
}
