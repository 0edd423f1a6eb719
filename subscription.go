package dronestorage

import (
	"sync"
)

// Subscriptions is a reference-counted switch over a set of tracked IDs.
// While the set is empty the subscription is off. Adding the first ID calls
// subscribe and removing the last ID calls unsubscribe.
//
// Callbacks run while the internal lock is held and must not call back into
// the same Subscriptions.
type Subscriptions[K comparable] struct {
	mu          sync.Mutex
	ids         map[K]struct{}
	subscribe   func()
	unsubscribe func()
}

// NewSubscriptions creates an empty, unsubscribed set. Either callback may be
// nil.
func NewSubscriptions[K comparable](subscribe, unsubscribe func()) *Subscriptions[K] {
	return &Subscriptions[K]{
		ids:         make(map[K]struct{}),
		subscribe:   subscribe,
		unsubscribe: unsubscribe,
	}
}

// Add tracks id. Returns false if id was already tracked.
func (s *Subscriptions[K]) Add(id K) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.ids[id]; ok {
		return false
	}
	s.ids[id] = struct{}{}
	if len(s.ids) == 1 && s.subscribe != nil {
		s.subscribe()
	}
	return true
}

// Remove stops tracking id. Returns false if id was not tracked.
func (s *Subscriptions[K]) Remove(id K) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.ids[id]; !ok {
		return false
	}
	delete(s.ids, id)
	if len(s.ids) == 0 && s.unsubscribe != nil {
		s.unsubscribe()
	}
	return true
}

// Has reports whether id is tracked.
func (s *Subscriptions[K]) Has(id K) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.ids[id]
	return ok
}

// Active reports whether at least one ID is tracked.
func (s *Subscriptions[K]) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.ids) > 0
}

// Len returns the number of tracked IDs.
func (s *Subscriptions[K]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.ids)
}

// Clear stops tracking every ID, calling unsubscribe if anything was tracked.
func (s *Subscriptions[K]) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.ids) == 0 {
		return
	}
	clear(s.ids)
	if s.unsubscribe != nil {
		s.unsubscribe()
	}
}
