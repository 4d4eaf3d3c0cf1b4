// Package dedupe tracks which keys have already been visited, so that work
// reached through several routes is only scheduled once.
package dedupe

import "sync"

// Deduper records seen keys to ensure at-most-once processing.
type Deduper[K comparable] interface {
	// SeenAndRecord atomically checks if key was seen and records it if not.
	// Returns true if key was already seen, false if it was newly recorded.
	SeenAndRecord(key K) bool

	// Unrecord forgets key so that it can be recorded again.
	Unrecord(key K)

	Size() int
}

// Set is an in-memory Deduper safe for concurrent use.
type Set[K comparable] struct {
	mu   sync.Mutex
	seen map[K]struct{}
}

var _ Deduper[string] = (*Set[string])(nil)

// New creates an empty Set.
func New[K comparable](opts ...Option) *Set[K] {
	var c config
	for _, opt := range opts {
		opt(&c)
	}
	if c.capacity < 0 {
		c.capacity = 0
	}
	return &Set[K]{seen: make(map[K]struct{}, c.capacity)}
}

// SeenAndRecord implements Deduper.
func (s *Set[K]) SeenAndRecord(key K) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.seen[key]; ok {
		return true
	}
	s.seen[key] = struct{}{}
	return false
}

// Unrecord implements Deduper.
func (s *Set[K]) Unrecord(key K) {
	s.mu.Lock()
	delete(s.seen, key)
	s.mu.Unlock()
}

// Size returns the number of recorded keys.
func (s *Set[K]) Size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.seen)
}
