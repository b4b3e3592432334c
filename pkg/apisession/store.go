// Package apisession keeps per-session state for API handlers. Sessions are
// created explicitly, identified by a random UUID, and evicted after a period
// of inactivity.
package apisession

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// cleanupInterval is how often Lookup() triggers lazy eviction of expired entries.
const cleanupInterval = 100

type entry[T any] struct {
	value      *T
	lastAccess time.Time
}

// Store is a typed, thread-safe session store.
type Store[T any] struct {
	mu          sync.Mutex
	entries     map[string]*entry[T]
	ttl         time.Duration
	newFn       func() *T
	onEvict     func(id string, v *T)
	now         func() time.Time
	lookupCalls int
}

// New creates a Store that evicts sessions inactive longer than ttl.
// newFn initialises the state of each new session.
func New[T any](ttl time.Duration, newFn func() *T) *Store[T] {
	return &Store[T]{
		entries: make(map[string]*entry[T]),
		ttl:     ttl,
		newFn:   newFn,
		now:     time.Now,
	}
}

// OnEvict registers fn to run for every session that is deleted or expires.
// fn runs without the store lock held.
func (s *Store[T]) OnEvict(fn func(id string, v *T)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onEvict = fn
}

// Create starts a new session and returns its id.
func (s *Store[T]) Create() (string, *T) {
	id := uuid.NewString()
	v := s.newFn()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[id] = &entry[T]{value: v, lastAccess: s.now()}
	return id, v
}

// Lookup returns the state for id and refreshes its last-access time.
func (s *Store[T]) Lookup(id string) (*T, bool) {
	s.mu.Lock()
	s.lookupCalls++
	var expired map[string]*T
	if s.lookupCalls%cleanupInterval == 0 {
		expired = s.expireLocked()
	}

	e, ok := s.entries[id]
	if ok {
		e.lastAccess = s.now()
	}
	s.mu.Unlock()

	s.evict(expired)
	if !ok {
		return nil, false
	}
	return e.value, true
}

// Delete ends a session. It reports whether the session existed.
func (s *Store[T]) Delete(id string) bool {
	s.mu.Lock()
	e, ok := s.entries[id]
	delete(s.entries, id)
	s.mu.Unlock()

	if ok {
		s.evict(map[string]*T{id: e.value})
	}
	return ok
}

// Cleanup evicts all sessions that have been inactive longer than the TTL.
func (s *Store[T]) Cleanup() {
	s.mu.Lock()
	expired := s.expireLocked()
	s.mu.Unlock()
	s.evict(expired)
}

func (s *Store[T]) expireLocked() map[string]*T {
	cutoff := s.now().Add(-s.ttl)
	var expired map[string]*T
	for id, e := range s.entries {
		if e.lastAccess.Before(cutoff) {
			if expired == nil {
				expired = make(map[string]*T)
			}
			expired[id] = e.value
			delete(s.entries, id)
		}
	}
	return expired
}

func (s *Store[T]) evict(gone map[string]*T) {
	if len(gone) == 0 {
		return
	}
	s.mu.Lock()
	fn := s.onEvict
	s.mu.Unlock()
	if fn == nil {
		return
	}
	for id, v := range gone {
		fn(id, v)
	}
}

// Len returns the number of active sessions.
func (s *Store[T]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
