package eventbus

import (
	"sync"
	"sync/atomic"
)

// subscriber is one receive channel of a TypedBus.
type subscriber[T any] struct {
	ch       chan T
	blocking bool
	stop     chan struct{}
	stopOnce sync.Once
	dropped  atomic.Uint64
}

// halt releases publishers waiting on a blocking subscriber.
func (s *subscriber[T]) halt() { s.stopOnce.Do(func() { close(s.stop) }) }

// TypedBus is a type-safe publish/subscribe bus for events of type T. The
// virtual charging pool uses it to stream EVSE status updates and Bus wraps
// it for the untyped charging events.
type TypedBus[T any] struct {
	mu     sync.RWMutex
	subs   []*subscriber[T]
	index  sync.Map // <-chan T -> *subscriber[T]
	closed bool
}

// NewTyped creates a new TypedBus.
func NewTyped[T any]() *TypedBus[T] { return &TypedBus[T]{} }

// Publish sends the event to all subscribers. A full buffer drops the event
// for that subscriber, except for blocking subscribers which Publish waits
// for until they read or unsubscribe.
func (b *TypedBus[T]) Publish(e T) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return
	}
	for _, s := range b.subs {
		if s.blocking {
			select {
			case s.ch <- e:
			case <-s.stop:
			}
			continue
		}
		select {
		case s.ch <- e:
		default:
			s.dropped.Add(1)
		}
	}
}

// Subscribe registers a subscriber with DefaultBuffer capacity.
func (b *TypedBus[T]) Subscribe() <-chan T { return b.SubscribeN(DefaultBuffer) }

// SubscribeN registers a subscriber with a channel of the given capacity.
func (b *TypedBus[T]) SubscribeN(size int) <-chan T { return b.subscribe(size, false) }

// SubscribeBlocking registers a subscriber that never misses an event:
// Publish waits while its buffer is full. The subscriber must keep reading
// or Unsubscribe.
func (b *TypedBus[T]) SubscribeBlocking(size int) <-chan T { return b.subscribe(size, true) }

func (b *TypedBus[T]) subscribe(size int, blocking bool) <-chan T {
	if size <= 0 {
		size = DefaultBuffer
	}
	s := &subscriber[T]{ch: make(chan T, size), blocking: blocking, stop: make(chan struct{})}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		close(s.ch)
		return s.ch
	}
	b.subs = append(b.subs, s)
	b.index.Store((<-chan T)(s.ch), s)
	return s.ch
}

// Dropped returns how many events the subscriber missed because its buffer
// was full.
func (b *TypedBus[T]) Dropped(sub <-chan T) uint64 {
	if v, ok := b.index.Load(sub); ok {
		return v.(*subscriber[T]).dropped.Load()
	}
	return 0
}

// Unsubscribe removes the subscriber and closes its channel.
func (b *TypedBus[T]) Unsubscribe(sub <-chan T) {
	v, ok := b.index.LoadAndDelete(sub)
	if !ok {
		return
	}
	s := v.(*subscriber[T])
	// a publisher blocked on s holds the read lock
	s.halt()
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, x := range b.subs {
		if x == s {
			b.subs = append(b.subs[:i], b.subs[i+1:]...)
			close(s.ch)
			return
		}
	}
}

// Close closes the bus and all subscriber channels.
func (b *TypedBus[T]) Close() {
	b.index.Range(func(k, v any) bool {
		v.(*subscriber[T]).halt()
		b.index.Delete(k)
		return true
	})
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for _, s := range b.subs {
		close(s.ch)
	}
	b.subs = nil
}
