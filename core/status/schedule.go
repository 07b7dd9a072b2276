// Package status keeps bounded, timestamped histories of status values.
package status

import (
	"sort"
	"sync"
	"time"

	"github.com/kilianp07/wwcp/core/logger"
	"github.com/kilianp07/wwcp/internal/eventbus"
)

// DefaultMaxSize is the history length used when none is configured.
const DefaultMaxSize = 50

// Entry is one timestamped status value.
type Entry[T any] struct {
	Timestamp time.Time `json:"timestamp"`
	Value     T         `json:"value"`
	Meta      string    `json:"meta,omitempty"`
}

// Change is raised when the newest value of a schedule changes.
type Change[T any] struct {
	Timestamp time.Time
	Old       T
	New       T
	Meta      string
}

// Schedule holds at most max entries ordered newest first.
type Schedule[T comparable] struct {
	mu      sync.RWMutex
	max     int
	entries []Entry[T]
	log     logger.Logger

	onChanged eventbus.Handlers[Change[T]]
}

// New returns an empty schedule. A max below 1 selects DefaultMaxSize.
func New[T comparable](max int, log logger.Logger) *Schedule[T] {
	if max < 1 {
		max = DefaultMaxSize
	}
	return &Schedule[T]{max: max, log: logger.OrNop(log)}
}

// OnChanged registers a listener for head changes.
func (s *Schedule[T]) OnChanged(fn func(Change[T])) (remove func()) {
	return s.onChanged.Add(fn)
}

// Insert adds value at ts and trims the history. It reports whether the
// newest value changed, in which case the OnChanged listeners have run.
func (s *Schedule[T]) Insert(value T, ts time.Time, meta string) bool {
	s.mu.Lock()
	var old T
	if len(s.entries) > 0 {
		old = s.entries[0].Value
	}

	e := Entry[T]{Timestamp: ts, Value: value, Meta: meta}
	i := sort.Search(len(s.entries), func(i int) bool {
		return !s.entries[i].Timestamp.After(ts)
	})
	s.entries = append(s.entries, Entry[T]{})
	copy(s.entries[i+1:], s.entries[i:])
	s.entries[i] = e
	if len(s.entries) > s.max {
		s.entries = s.entries[:s.max]
	}

	head := s.entries[0]
	s.mu.Unlock()

	if head.Value == old {
		return false
	}
	for _, err := range s.onChanged.Emit(Change[T]{Timestamp: head.Timestamp, Old: old, New: head.Value, Meta: head.Meta}) {
		s.log.Errorf("status OnChanged listener: %v", err)
	}
	return true
}

// Current returns the newest value or the zero value when empty.
func (s *Schedule[T]) Current() T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.entries) == 0 {
		var zero T
		return zero
	}
	return s.entries[0].Value
}

// CurrentEntry returns the newest entry.
func (s *Schedule[T]) CurrentEntry() (Entry[T], bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.entries) == 0 {
		return Entry[T]{}, false
	}
	return s.entries[0], true
}

// History returns a copy of all entries, newest first.
func (s *Schedule[T]) History() []Entry[T] {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Entry[T], len(s.entries))
	copy(out, s.entries)
	return out
}

// Len returns the number of stored entries.
func (s *Schedule[T]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// MaxSize returns the history capacity.
func (s *Schedule[T]) MaxSize() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.max
}

// Resize changes the history capacity, dropping the oldest entries beyond
// it. A max below 1 selects DefaultMaxSize.
func (s *Schedule[T]) Resize(max int) {
	if max < 1 {
		max = DefaultMaxSize
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.max = max
	if len(s.entries) > max {
		s.entries = s.entries[:max]
	}
}
