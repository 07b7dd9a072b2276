package entity

import (
	"sync"
	"time"

	"github.com/kilianp07/wwcp/core/logger"
	"github.com/kilianp07/wwcp/core/model"
	"github.com/kilianp07/wwcp/internal/eventbus"
)

// PropertyChange is raised whenever a tracked property changes its value.
type PropertyChange struct {
	Timestamp       time.Time
	EventTrackingID model.EventTrackingID
	Sender          string
	Property        string
	NewValue        any
	OldValue        any
	DataSource      string
}

// ChangeOption customizes the PropertyChange raised by a setter.
type ChangeOption func(*PropertyChange)

// WithEventTrackingID correlates the change with a request.
func WithEventTrackingID(id model.EventTrackingID) ChangeOption {
	return func(c *PropertyChange) { c.EventTrackingID = id }
}

// WithDataSource tags the change with the system that reported it.
func WithDataSource(src string) ChangeOption {
	return func(c *PropertyChange) { c.DataSource = src }
}

// WithTimestamp overrides the change timestamp.
func WithTimestamp(ts time.Time) ChangeOption {
	return func(c *PropertyChange) { c.Timestamp = ts }
}

// Tracker records the last modification of an entity and notifies listeners
// about property changes.
type Tracker struct {
	sender string
	log    logger.Logger
	clock  func() time.Time

	mu         sync.RWMutex
	lastChange time.Time

	onChanged eventbus.Handlers[PropertyChange]
}

// NewTracker returns a tracker for the entity identified by sender.
func NewTracker(sender string, log logger.Logger) *Tracker {
	return &Tracker{
		sender:     sender,
		log:        logger.OrNop(log),
		clock:      time.Now,
		lastChange: time.Now(),
	}
}

// SetClock replaces the time source, used by tests.
func (t *Tracker) SetClock(clock func() time.Time) {
	if clock == nil {
		return
	}
	t.mu.Lock()
	t.clock = clock
	t.lastChange = clock()
	t.mu.Unlock()
}

// Now returns the current time of the tracker clock.
func (t *Tracker) Now() time.Time {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.clock()
}

// Sender returns the identifier used as event sender.
func (t *Tracker) Sender() string { return t.sender }

// LastChange returns the time of the last recorded modification.
func (t *Tracker) LastChange() time.Time {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.lastChange
}

// Touch advances LastChange without raising an event, e.g. after a child
// collection changed.
func (t *Tracker) Touch() {
	t.mu.Lock()
	t.lastChange = t.clock()
	t.mu.Unlock()
}

// OnPropertyChanged registers a listener and returns its removal function.
func (t *Tracker) OnPropertyChanged(fn func(PropertyChange)) (remove func()) {
	return t.onChanged.Add(fn)
}

func (t *Tracker) record(property string, newValue, oldValue any, opts []ChangeOption) {
	t.mu.Lock()
	now := t.clock()
	t.lastChange = now
	t.mu.Unlock()

	c := PropertyChange{
		Timestamp: now,
		Sender:    t.sender,
		Property:  property,
		NewValue:  newValue,
		OldValue:  oldValue,
	}
	for _, o := range opts {
		o(&c)
	}
	if c.EventTrackingID == "" {
		c.EventTrackingID = model.NewEventTrackingID()
	}
	for _, err := range t.onChanged.Emit(c) {
		t.log.Errorf("OnPropertyChanged listener for %s.%s: %v", t.sender, property, err)
	}
}
