package charging

import (
	"time"

	"github.com/kilianp07/wwcp/core/model"
)

// ResultType is the outcome of a charging command.
type ResultType string

const (
	ResultSuccess            ResultType = "Success"
	ResultOutOfService       ResultType = "OutOfService"
	ResultUnknownLocation    ResultType = "UnknownLocation"
	ResultError              ResultType = "Error"
	ResultAlreadyReserved    ResultType = "AlreadyReserved"
	ResultAlreadyInUse       ResultType = "AlreadyInUse"
	ResultNoEVSEsAvailable   ResultType = "NoEVSEsAvailable"
	ResultUnknownReservation ResultType = "UnknownReservation"
	ResultInvalidSessionID   ResultType = "InvalidSessionID"
	ResultOffline            ResultType = "Offline"
	ResultTimeout            ResultType = "Timeout"
	ResultRejected           ResultType = "Rejected"
)

func (r ResultType) String() string { return string(r) }

// ReservationResult is returned by Reserve.
type ReservationResult struct {
	Type        ResultType    `json:"result"`
	Reservation *Reservation  `json:"reservation,omitempty"`
	Description string        `json:"description,omitempty"`
	Runtime     time.Duration `json:"runtime"`
}

// Succeeded reports whether a reservation was created.
func (r ReservationResult) Succeeded() bool { return r.Type == ResultSuccess && r.Reservation != nil }

func (r ReservationResult) withRuntime(d time.Duration) ReservationResult {
	r.Runtime = d
	return r
}

func (r ReservationResult) outcome() (ResultType, string) { return r.Type, r.Description }

// CancelReservationResult is returned by CancelReservation.
type CancelReservationResult struct {
	Type          ResultType          `json:"result"`
	ReservationID model.ReservationID `json:"reservationId"`
	Reservation   *Reservation        `json:"reservation,omitempty"`
	Description   string              `json:"description,omitempty"`
	Runtime       time.Duration       `json:"runtime"`
}

// Succeeded reports whether the reservation was canceled.
func (r CancelReservationResult) Succeeded() bool { return r.Type == ResultSuccess }

func (r CancelReservationResult) withRuntime(d time.Duration) CancelReservationResult {
	r.Runtime = d
	return r
}

func (r CancelReservationResult) outcome() (ResultType, string) { return r.Type, r.Description }

// RemoteStartResult is returned by RemoteStart.
type RemoteStartResult struct {
	Type        ResultType       `json:"result"`
	Session     *ChargingSession `json:"session,omitempty"`
	Description string           `json:"description,omitempty"`
	Runtime     time.Duration    `json:"runtime"`
}

// Succeeded reports whether a session was started.
func (r RemoteStartResult) Succeeded() bool { return r.Type == ResultSuccess && r.Session != nil }

func (r RemoteStartResult) withRuntime(d time.Duration) RemoteStartResult {
	r.Runtime = d
	return r
}

func (r RemoteStartResult) outcome() (ResultType, string) { return r.Type, r.Description }

// RemoteStopResult is returned by RemoteStop.
type RemoteStopResult struct {
	Type        ResultType              `json:"result"`
	SessionID   model.ChargingSessionID `json:"sessionId"`
	Session     *ChargingSession        `json:"session,omitempty"`
	Description string                  `json:"description,omitempty"`
	Runtime     time.Duration           `json:"runtime"`
}

// Succeeded reports whether the session was stopped.
func (r RemoteStopResult) Succeeded() bool { return r.Type == ResultSuccess }

func (r RemoteStopResult) withRuntime(d time.Duration) RemoteStopResult {
	r.Runtime = d
	return r
}

func (r RemoteStopResult) outcome() (ResultType, string) { return r.Type, r.Description }

// commandResult is implemented by every command result type.
type commandResult[R any] interface {
	withRuntime(time.Duration) R
	outcome() (ResultType, string)
}

// ChangeResultType is the outcome of a child collection change.
type ChangeResultType string

const (
	ChangeSuccess       ChangeResultType = "Success"
	ChangeAdded         ChangeResultType = "Added"
	ChangeUpdated       ChangeResultType = "Updated"
	ChangeNoOperation   ChangeResultType = "NoOperation"
	ChangeError         ChangeResultType = "Error"
	ChangeArgumentError ChangeResultType = "ArgumentError"
)

func (c ChangeResultType) String() string { return string(c) }

// StationResult is returned by the station collection operations.
type StationResult struct {
	Type            ChangeResultType
	Station         *ChargingStation
	EventTrackingID model.EventTrackingID
	Description     string
}

// Succeeded reports whether the collection now holds the requested state.
func (r StationResult) Succeeded() bool {
	switch r.Type {
	case ChangeSuccess, ChangeAdded, ChangeUpdated, ChangeNoOperation:
		return true
	}
	return false
}

// EVSEResult is returned by the EVSE collection operations of a station.
type EVSEResult struct {
	Type            ChangeResultType
	EVSE            *EVSE
	EventTrackingID model.EventTrackingID
	Description     string
}
