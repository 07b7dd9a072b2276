package charging

import (
	"time"

	"github.com/kilianp07/wwcp/core/model"
)

// DefaultReservationDuration applies when a ReserveRequest has no duration.
const DefaultReservationDuration = 15 * time.Minute

// ReserveRequest asks for a reservation at a charging location.
type ReserveRequest struct {
	EventTrackingID model.EventTrackingID `json:"eventTrackingId"`
	Timestamp       time.Time             `json:"timestamp"`
	ReservationID   model.ReservationID   `json:"reservationId,omitempty"`
	Location        ChargingLocation      `json:"location"`
	StartTime       time.Time             `json:"startTime,omitempty"`
	Duration        time.Duration         `json:"duration,omitempty"`
	ProviderID      model.ProviderID      `json:"providerId,omitempty"`
	AuthToken       string                `json:"authToken,omitempty"`
}

// WithDefaults fills the tracking id, timestamp, reservation id, start time
// and duration when unset.
func (r ReserveRequest) WithDefaults(now time.Time) ReserveRequest {
	if r.EventTrackingID == "" {
		r.EventTrackingID = model.NewEventTrackingID()
	}
	if r.Timestamp.IsZero() {
		r.Timestamp = now
	}
	if r.ReservationID == "" {
		r.ReservationID = model.NewReservationID()
	}
	if r.StartTime.IsZero() {
		r.StartTime = r.Timestamp
	}
	if r.Duration <= 0 {
		r.Duration = DefaultReservationDuration
	}
	return r
}

// CancelReservationRequest cancels an existing reservation.
type CancelReservationRequest struct {
	EventTrackingID model.EventTrackingID `json:"eventTrackingId"`
	Timestamp       time.Time             `json:"timestamp"`
	ReservationID   model.ReservationID   `json:"reservationId"`
	Reason          string                `json:"reason,omitempty"`
}

// WithDefaults fills the tracking id and timestamp when unset.
func (r CancelReservationRequest) WithDefaults(now time.Time) CancelReservationRequest {
	if r.EventTrackingID == "" {
		r.EventTrackingID = model.NewEventTrackingID()
	}
	if r.Timestamp.IsZero() {
		r.Timestamp = now
	}
	return r
}

// RemoteStartRequest starts a charging session at a charging location.
type RemoteStartRequest struct {
	EventTrackingID model.EventTrackingID   `json:"eventTrackingId"`
	Timestamp       time.Time               `json:"timestamp"`
	SessionID       model.ChargingSessionID `json:"sessionId,omitempty"`
	Location        ChargingLocation        `json:"location"`
	ReservationID   model.ReservationID     `json:"reservationId,omitempty"`
	ProviderID      model.ProviderID        `json:"providerId,omitempty"`
	AuthToken       string                  `json:"authToken,omitempty"`
}

// WithDefaults fills the tracking id, timestamp and session id when unset.
func (r RemoteStartRequest) WithDefaults(now time.Time) RemoteStartRequest {
	if r.EventTrackingID == "" {
		r.EventTrackingID = model.NewEventTrackingID()
	}
	if r.Timestamp.IsZero() {
		r.Timestamp = now
	}
	if r.SessionID == "" {
		r.SessionID = model.NewChargingSessionID()
	}
	return r
}

// RemoteStopRequest stops a running charging session.
type RemoteStopRequest struct {
	EventTrackingID model.EventTrackingID   `json:"eventTrackingId"`
	Timestamp       time.Time               `json:"timestamp"`
	SessionID       model.ChargingSessionID `json:"sessionId"`
	ProviderID      model.ProviderID        `json:"providerId,omitempty"`
}

// WithDefaults fills the tracking id and timestamp when unset.
func (r RemoteStopRequest) WithDefaults(now time.Time) RemoteStopRequest {
	if r.EventTrackingID == "" {
		r.EventTrackingID = model.NewEventTrackingID()
	}
	if r.Timestamp.IsZero() {
		r.Timestamp = now
	}
	return r
}
