package charging

import (
	"fmt"
	"time"

	"github.com/kilianp07/wwcp/core/model"
)

// ReservationStatus is the lifecycle state of a reservation.
type ReservationStatus string

const (
	ReservationRequested ReservationStatus = "Requested"
	ReservationActive    ReservationStatus = "Active"
	ReservationCanceled  ReservationStatus = "Canceled"
	ReservationExpired   ReservationStatus = "Expired"
	ReservationUsed      ReservationStatus = "Used"
)

var reservationTransitions = map[ReservationStatus][]ReservationStatus{
	ReservationRequested: {ReservationActive, ReservationCanceled},
	ReservationActive:    {ReservationCanceled, ReservationExpired, ReservationUsed},
}

// CanTransition reports whether a reservation may move from s to next.
func (s ReservationStatus) CanTransition(next ReservationStatus) bool {
	for _, n := range reservationTransitions[s] {
		if n == next {
			return true
		}
	}
	return false
}

// Final reports whether no further transition is possible.
func (s ReservationStatus) Final() bool { return len(reservationTransitions[s]) == 0 }

// Reservation holds a charging location for a provider. A pool level
// reservation carries one sub-reservation per station that accepted it.
type Reservation struct {
	ID                model.ReservationID     `json:"@id"`
	Timestamp         time.Time               `json:"timestamp"`
	StartTime         time.Time               `json:"startTime"`
	Duration          time.Duration           `json:"duration"`
	Level             Level                   `json:"level"`
	Location          ChargingLocation        `json:"location"`
	ProviderID        model.ProviderID        `json:"providerId,omitempty"`
	AuthToken         string                  `json:"authToken,omitempty"`
	Status            ReservationStatus       `json:"status"`
	SubReservations   []*Reservation          `json:"subReservations,omitempty"`
	ChargingPoolID    model.ChargingPoolID    `json:"chargingPoolId,omitempty"`
	ChargingStationID model.ChargingStationID `json:"chargingStationId,omitempty"`
	EVSEID            model.EVSEID            `json:"evseId,omitempty"`

	// Pool is set once the reservation is linked to a local pool.
	Pool *ChargingPool `json:"-"`
}

// NewReservation builds an active reservation from a request.
func NewReservation(req ReserveRequest) *Reservation {
	return &Reservation{
		ID:                req.ReservationID,
		Timestamp:         req.Timestamp,
		StartTime:         req.StartTime,
		Duration:          req.Duration,
		Level:             req.Location.Level(),
		Location:          req.Location,
		ProviderID:        req.ProviderID,
		AuthToken:         req.AuthToken,
		Status:            ReservationActive,
		ChargingPoolID:    req.Location.ChargingPoolID,
		ChargingStationID: req.Location.ChargingStationID,
		EVSEID:            req.Location.EVSEID,
	}
}

// EndTime returns StartTime + Duration.
func (r *Reservation) EndTime() time.Time { return r.StartTime.Add(r.Duration) }

// IsExpired reports whether the reservation window has passed at now.
func (r *Reservation) IsExpired(now time.Time) bool { return !now.Before(r.EndTime()) }

// Clone returns a copy, sub-reservations included.
func (r *Reservation) Clone() *Reservation {
	if r == nil {
		return nil
	}
	c := *r
	if len(r.SubReservations) > 0 {
		c.SubReservations = make([]*Reservation, len(r.SubReservations))
		for i, s := range r.SubReservations {
			c.SubReservations[i] = s.Clone()
		}
	}
	return &c
}

// WithStatus returns a copy moved to next, or an error for an illegal
// transition.
func (r *Reservation) WithStatus(next ReservationStatus) (*Reservation, error) {
	if !r.Status.CanTransition(next) {
		return nil, fmt.Errorf("reservation %s: %s -> %s: %w", r.ID, r.Status, next, ErrInvalidTransition)
	}
	c := r.Clone()
	c.Status = next
	for _, s := range c.SubReservations {
		if s.Status.CanTransition(next) {
			s.Status = next
		}
	}
	return c, nil
}
