package store

import (
	"errors"
	"testing"
	"time"

	"github.com/kilianp07/wwcp/core/charging"
	"github.com/kilianp07/wwcp/core/model"
)

var (
	poolA = model.MustParseChargingPoolID("DE*GEF*PA")
	poolB = model.MustParseChargingPoolID("DE*GEF*PB")
	t0    = time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
)

func reservation(id string, pool model.ChargingPoolID, ts time.Time) *charging.Reservation {
	return &charging.Reservation{
		ID:             model.ReservationID(id),
		Timestamp:      ts,
		StartTime:      ts,
		Duration:       15 * time.Minute,
		Status:         charging.ReservationActive,
		ChargingPoolID: pool,
	}
}

func TestReservationsAddGetFilter(t *testing.T) {
	r := NewMemory().Reservations()
	if err := r.Add(reservation("r2", poolA, t0.Add(time.Minute))); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := r.Add(reservation("r1", poolA, t0)); err != nil {
		t.Fatalf("add: %v", err)
	}
	_ = r.Add(reservation("r3", poolB, t0))

	if err := r.Add(reservation("r1", poolA, t0)); !errors.Is(err, charging.ErrDuplicate) {
		t.Fatalf("expected duplicate error, got %v", err)
	}
	out := r.Filter(Filter{PoolID: poolA})
	if len(out) != 2 || out[0].ID != "r1" || out[1].ID != "r2" {
		t.Fatalf("filter failed: %#v", out)
	}
	if got := r.Filter(Filter{Since: t0.Add(30 * time.Second)}); len(got) != 1 {
		t.Fatalf("since filter failed: %d", len(got))
	}
	if _, ok := r.Get("r3"); !ok {
		t.Fatalf("r3 missing")
	}
}

func TestReservationsUpdateUnknown(t *testing.T) {
	r := NewMemory().Reservations()
	err := r.Update(reservation("x", poolA, t0))
	if !errors.Is(err, charging.ErrUnknownReservation) {
		t.Fatalf("expected unknown reservation, got %v", err)
	}
}

func TestReservationsExpire(t *testing.T) {
	r := NewMemory().Reservations()
	_ = r.Add(reservation("old", poolA, t0))
	_ = r.Add(reservation("new", poolA, t0.Add(time.Hour)))
	expired := r.Expire(t0.Add(20 * time.Minute))
	if len(expired) != 1 || expired[0].ID != "old" {
		t.Fatalf("expire failed: %#v", expired)
	}
	got, _ := r.Get("old")
	if got.Status != charging.ReservationExpired {
		t.Fatalf("status %s", got.Status)
	}
	if again := r.Expire(t0.Add(20 * time.Minute)); len(again) != 0 {
		t.Fatalf("expired twice")
	}
}

func TestSessionsLifecycle(t *testing.T) {
	s := NewMemory().Sessions()
	sess := &charging.ChargingSession{ID: "s1", Start: t0, ChargingPoolID: poolA}
	if err := s.Add(sess); err != nil {
		t.Fatalf("add: %v", err)
	}
	if len(s.Running()) != 1 {
		t.Fatalf("expected running session")
	}
	stopped := sess.Clone()
	stopped.Stop = t0.Add(time.Hour)
	if err := s.Update(stopped); err != nil {
		t.Fatalf("update: %v", err)
	}
	if len(s.Running()) != 0 {
		t.Fatalf("expected no running session")
	}
	if _, ok := s.Remove("s1"); !ok {
		t.Fatalf("remove failed")
	}
	if err := s.Update(stopped); !errors.Is(err, charging.ErrUnknownSession) {
		t.Fatalf("expected unknown session, got %v", err)
	}
}
