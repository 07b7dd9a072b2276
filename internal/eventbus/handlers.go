package eventbus

import (
	"fmt"
	"sync"
)

// ListenerError describes a listener that panicked while handling an event.
type ListenerError struct {
	Listener int
	Value    any
}

func (e *ListenerError) Error() string {
	return fmt.Sprintf("listener %d panicked: %v", e.Listener, e.Value)
}

type handler[T any] struct {
	id int
	fn func(T)
}

// Handlers is a synchronous observer list. Emit calls every listener in
// registration order on the caller's goroutine. A panicking listener is
// recovered and reported in the returned errors; the remaining listeners
// still run.
type Handlers[T any] struct {
	mu     sync.RWMutex
	nextID int
	subs   []handler[T]
}

// Add registers fn and returns a function removing it again.
func (h *Handlers[T]) Add(fn func(T)) (remove func()) {
	if fn == nil {
		return func() {}
	}
	h.mu.Lock()
	h.nextID++
	id := h.nextID
	h.subs = append(h.subs, handler[T]{id: id, fn: fn})
	h.mu.Unlock()
	return func() { h.remove(id) }
}

func (h *Handlers[T]) remove(id int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for i, s := range h.subs {
		if s.id == id {
			h.subs = append(h.subs[:i], h.subs[i+1:]...)
			return
		}
	}
}

// Len returns the number of registered listeners.
func (h *Handlers[T]) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Emit delivers ev to a snapshot of the registered listeners.
func (h *Handlers[T]) Emit(ev T) []error {
	h.mu.RLock()
	subs := make([]handler[T], len(h.subs))
	copy(subs, h.subs)
	h.mu.RUnlock()

	var errs []error
	for _, s := range subs {
		if err := call(s, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}

func call[T any](s handler[T], ev T) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &ListenerError{Listener: s.id, Value: r}
		}
	}()
	s.fn(ev)
	return nil
}
