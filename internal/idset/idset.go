// Package idset provides a concurrency-safe set of entities keyed by id.
// Every mutation is a single add-or-reject step under one lock.
package idset

import "sync"

// Set maps ids to entities.
type Set[K comparable, V any] struct {
	mu    sync.RWMutex
	items map[K]V
}

// New returns an empty set.
func New[K comparable, V any]() *Set[K, V] {
	return &Set[K, V]{items: make(map[K]V)}
}

// TryAdd stores v under k unless k is already present.
func (s *Set[K, V]) TryAdd(k K, v V) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[k]; ok {
		return false
	}
	s.items[k] = v
	return true
}

// GetOrAdd returns the entity stored under k, adding v first when absent.
// added reports whether v was stored.
func (s *Set[K, V]) GetOrAdd(k K, v V) (actual V, added bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cur, ok := s.items[k]; ok {
		return cur, false
	}
	s.items[k] = v
	return v, true
}

// AddOrUpdate stores v under k and returns the replaced entity, if any.
func (s *Set[K, V]) AddOrUpdate(k K, v V) (old V, replaced bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	old, replaced = s.items[k]
	s.items[k] = v
	return old, replaced
}

// TryUpdate replaces the entity under k only when k is present.
func (s *Set[K, V]) TryUpdate(k K, v V) (old V, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	old, ok = s.items[k]
	if ok {
		s.items[k] = v
	}
	return old, ok
}

// TryRemove deletes k and returns the removed entity.
func (s *Set[K, V]) TryRemove(k K) (V, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.items[k]
	if ok {
		delete(s.items, k)
	}
	return v, ok
}

// Get returns the entity stored under k.
func (s *Set[K, V]) Get(k K) (V, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.items[k]
	return v, ok
}

// Contains reports whether k is present.
func (s *Set[K, V]) Contains(k K) bool {
	_, ok := s.Get(k)
	return ok
}

// Len returns the number of entities.
func (s *Set[K, V]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// Values returns a point-in-time copy of the stored entities.
func (s *Set[K, V]) Values() []V {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]V, 0, len(s.items))
	for _, v := range s.items {
		out = append(out, v)
	}
	return out
}

// Keys returns a point-in-time copy of the stored ids.
func (s *Set[K, V]) Keys() []K {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]K, 0, len(s.items))
	for k := range s.items {
		out = append(out, k)
	}
	return out
}
