package charging

import (
	"time"

	"github.com/kilianp07/wwcp/core/model"
)

// ChargingSession is a charging process started at a charging location.
type ChargingSession struct {
	ID                model.ChargingSessionID `json:"@id"`
	Timestamp         time.Time               `json:"timestamp"`
	Location          ChargingLocation        `json:"location"`
	ReservationID     model.ReservationID     `json:"reservationId,omitempty"`
	ProviderID        model.ProviderID        `json:"providerId,omitempty"`
	AuthToken         string                  `json:"authToken,omitempty"`
	Start             time.Time               `json:"start"`
	Stop              time.Time               `json:"stop,omitempty"`
	ChargingPoolID    model.ChargingPoolID    `json:"chargingPoolId,omitempty"`
	ChargingStationID model.ChargingStationID `json:"chargingStationId,omitempty"`
	EVSEID            model.EVSEID            `json:"evseId,omitempty"`

	// Pool is set once the session is linked to a local pool.
	Pool *ChargingPool `json:"-"`
}

// NewChargingSession builds a running session from a request.
func NewChargingSession(req RemoteStartRequest) *ChargingSession {
	return &ChargingSession{
		ID:                req.SessionID,
		Timestamp:         req.Timestamp,
		Location:          req.Location,
		ReservationID:     req.ReservationID,
		ProviderID:        req.ProviderID,
		AuthToken:         req.AuthToken,
		Start:             req.Timestamp,
		ChargingPoolID:    req.Location.ChargingPoolID,
		ChargingStationID: req.Location.ChargingStationID,
		EVSEID:            req.Location.EVSEID,
	}
}

// Running reports whether the session has not been stopped.
func (s *ChargingSession) Running() bool { return s.Stop.IsZero() }

// Duration returns the charging time up to Stop, or up to now when running.
func (s *ChargingSession) Duration(now time.Time) time.Duration {
	if s.Running() {
		return now.Sub(s.Start)
	}
	return s.Stop.Sub(s.Start)
}

// Clone returns a shallow copy.
func (s *ChargingSession) Clone() *ChargingSession {
	if s == nil {
		return nil
	}
	c := *s
	return &c
}
