package charging

import (
	"errors"

	"github.com/kilianp07/wwcp/core/model"
)

var (
	// ErrUnknownReservation is returned by stores for missing reservations.
	ErrUnknownReservation = errors.New("unknown reservation")
	// ErrUnknownSession is returned by stores for missing sessions.
	ErrUnknownSession = errors.New("unknown charging session")
	// ErrDuplicate is returned when an id is already stored.
	ErrDuplicate = errors.New("duplicate id")
	// ErrInvalidTransition is returned for illegal reservation state changes.
	ErrInvalidTransition = errors.New("invalid reservation transition")
)

// ReservationStore keeps reservations by id.
type ReservationStore interface {
	Add(r *Reservation) error
	Get(id model.ReservationID) (*Reservation, bool)
	Update(r *Reservation) error
	Remove(id model.ReservationID) (*Reservation, bool)
	List() []*Reservation
}

// SessionStore keeps charging sessions by id.
type SessionStore interface {
	Add(s *ChargingSession) error
	Get(id model.ChargingSessionID) (*ChargingSession, bool)
	Update(s *ChargingSession) error
	Remove(id model.ChargingSessionID) (*ChargingSession, bool)
	List() []*ChargingSession
}
