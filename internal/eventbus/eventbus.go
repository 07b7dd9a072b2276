package eventbus

// Event represents an arbitrary event passed on the bus. Charging entities
// publish the types declared in core/events.
type Event interface{}

// DefaultBuffer is the channel capacity used by Subscribe.
const DefaultBuffer = 64

// EventBus implements a simple publish/subscribe event bus.
type EventBus interface {
	Publish(Event)
	Subscribe() <-chan Event
	SubscribeN(size int) <-chan Event
	SubscribeBlocking(size int) <-chan Event
	Dropped(<-chan Event) uint64
	Unsubscribe(<-chan Event)
	Close()
}

// Bus is the default EventBus implementation using fan-out channels.
type Bus struct {
	*TypedBus[Event]
}

// New creates a new Bus.
func New() *Bus { return &Bus{TypedBus: NewTyped[Event]()} }

var _ EventBus = (*Bus)(nil)
