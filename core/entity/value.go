package entity

import (
	"math"
	"sync"
)

// Value is a change-tracked field.
type Value[T any] struct {
	name string
	eq   func(a, b T) bool

	mu sync.RWMutex
	v  T
}

// NewValue creates a tracked field compared with ==.
func NewValue[T comparable](name string, initial T) *Value[T] {
	return &Value[T]{name: name, v: initial, eq: func(a, b T) bool { return a == b }}
}

// NewValueFunc creates a tracked field compared with eq.
func NewValueFunc[T any](name string, initial T, eq func(a, b T) bool) *Value[T] {
	return &Value[T]{name: name, v: initial, eq: eq}
}

// Name returns the property name used in change events.
func (p *Value[T]) Name() string { return p.name }

// Get returns the current value.
func (p *Value[T]) Get() T {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.v
}

// Set stores v when it differs from the current value and records the
// change on t. It reports whether the value changed.
func (p *Value[T]) Set(t *Tracker, v T, opts ...ChangeOption) bool {
	p.mu.Lock()
	old := p.v
	if p.eq(old, v) {
		p.mu.Unlock()
		return false
	}
	p.v = v
	p.mu.Unlock()
	if t != nil {
		t.record(p.name, v, old, opts)
	}
	return true
}

// Delete resets the field to its zero value through Set.
func (p *Value[T]) Delete(t *Tracker, opts ...ChangeOption) bool {
	var zero T
	return p.Set(t, zero, opts...)
}

// MaxValueEpsilon is the minimum difference for MaxCurrent, MaxPower and
// MaxCapacity updates to count as a change.
const MaxValueEpsilon = 0.01

// FloatEqual compares optional floats, treating values closer than eps as
// equal.
func FloatEqual(eps float64) func(a, b *float64) bool {
	return func(a, b *float64) bool {
		if a == nil || b == nil {
			return a == b
		}
		return math.Abs(*a-*b) <= eps
	}
}

// SliceEqual compares two slices element by element.
func SliceEqual[T comparable](a, b []T) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Float returns a pointer to f, handy for optional numeric properties.
func Float(f float64) *float64 { return &f }
