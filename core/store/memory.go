// Package store provides in-memory reservation and charging session stores.
package store

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/kilianp07/wwcp/core/charging"
	"github.com/kilianp07/wwcp/core/model"
)

// Filter selects reservations or sessions by pool and time.
type Filter struct {
	PoolID model.ChargingPoolID
	Since  time.Time
}

// Memory implements charging.ReservationStore and charging.SessionStore.
type Memory struct {
	mu           sync.RWMutex
	reservations map[model.ReservationID]*charging.Reservation
	sessions     map[model.ChargingSessionID]*charging.ChargingSession
}

var (
	_ charging.ReservationStore = (*Reservations)(nil)
	_ charging.SessionStore     = (*Sessions)(nil)
)

// NewMemory returns an empty store.
func NewMemory() *Memory {
	return &Memory{
		reservations: map[model.ReservationID]*charging.Reservation{},
		sessions:     map[model.ChargingSessionID]*charging.ChargingSession{},
	}
}

// Reservations returns the reservation view of the store.
func (m *Memory) Reservations() *Reservations { return &Reservations{m: m} }

// Sessions returns the session view of the store.
func (m *Memory) Sessions() *Sessions { return &Sessions{m: m} }

// Reservations is the charging.ReservationStore view of a Memory store.
type Reservations struct{ m *Memory }

func (r *Reservations) Add(res *charging.Reservation) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.reservations[res.ID]; ok {
		return fmt.Errorf("reservation %s: %w", res.ID, charging.ErrDuplicate)
	}
	r.m.reservations[res.ID] = res
	return nil
}

func (r *Reservations) Get(id model.ReservationID) (*charging.Reservation, bool) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	res, ok := r.m.reservations[id]
	return res, ok
}

func (r *Reservations) Update(res *charging.Reservation) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.reservations[res.ID]; !ok {
		return fmt.Errorf("reservation %s: %w", res.ID, charging.ErrUnknownReservation)
	}
	r.m.reservations[res.ID] = res
	return nil
}

func (r *Reservations) Remove(id model.ReservationID) (*charging.Reservation, bool) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	res, ok := r.m.reservations[id]
	delete(r.m.reservations, id)
	return res, ok
}

// List returns all reservations ordered by timestamp.
func (r *Reservations) List() []*charging.Reservation { return r.Filter(Filter{}) }

// Filter returns the reservations matching f ordered by timestamp.
func (r *Reservations) Filter(f Filter) []*charging.Reservation {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	out := make([]*charging.Reservation, 0, len(r.m.reservations))
	for _, res := range r.m.reservations {
		if !f.PoolID.IsZero() && res.ChargingPoolID != f.PoolID {
			continue
		}
		if !f.Since.IsZero() && res.Timestamp.Before(f.Since) {
			continue
		}
		out = append(out, res)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].ID < out[j].ID
		}
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	return out
}

// Expire moves every active reservation whose window ended before now to
// Expired and returns the updated reservations.
func (r *Reservations) Expire(now time.Time) []*charging.Reservation {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var expired []*charging.Reservation
	for id, res := range r.m.reservations {
		if res.Status != charging.ReservationActive || !res.IsExpired(now) {
			continue
		}
		next, err := res.WithStatus(charging.ReservationExpired)
		if err != nil {
			continue
		}
		r.m.reservations[id] = next
		expired = append(expired, next)
	}
	return expired
}

// Sessions is the charging.SessionStore view of a Memory store.
type Sessions struct{ m *Memory }

func (s *Sessions) Add(sess *charging.ChargingSession) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if _, ok := s.m.sessions[sess.ID]; ok {
		return fmt.Errorf("session %s: %w", sess.ID, charging.ErrDuplicate)
	}
	s.m.sessions[sess.ID] = sess
	return nil
}

func (s *Sessions) Get(id model.ChargingSessionID) (*charging.ChargingSession, bool) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()
	sess, ok := s.m.sessions[id]
	return sess, ok
}

func (s *Sessions) Update(sess *charging.ChargingSession) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if _, ok := s.m.sessions[sess.ID]; !ok {
		return fmt.Errorf("session %s: %w", sess.ID, charging.ErrUnknownSession)
	}
	s.m.sessions[sess.ID] = sess
	return nil
}

func (s *Sessions) Remove(id model.ChargingSessionID) (*charging.ChargingSession, bool) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	sess, ok := s.m.sessions[id]
	delete(s.m.sessions, id)
	return sess, ok
}

// List returns all sessions ordered by start time.
func (s *Sessions) List() []*charging.ChargingSession { return s.Filter(Filter{}) }

// Filter returns the sessions matching f ordered by start time.
func (s *Sessions) Filter(f Filter) []*charging.ChargingSession {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()
	out := make([]*charging.ChargingSession, 0, len(s.m.sessions))
	for _, sess := range s.m.sessions {
		if !f.PoolID.IsZero() && sess.ChargingPoolID != f.PoolID {
			continue
		}
		if !f.Since.IsZero() && sess.Start.Before(f.Since) {
			continue
		}
		out = append(out, sess)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Start.Equal(out[j].Start) {
			return out[i].ID < out[j].ID
		}
		return out[i].Start.Before(out[j].Start)
	})
	return out
}

// Running returns the sessions without a stop time.
func (s *Sessions) Running() []*charging.ChargingSession {
	var out []*charging.ChargingSession
	for _, sess := range s.List() {
		if sess.Running() {
			out = append(out, sess)
		}
	}
	return out
}
