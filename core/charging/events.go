package charging

import (
	"time"

	"github.com/kilianp07/wwcp/core/entity"
	"github.com/kilianp07/wwcp/core/logger"
	"github.com/kilianp07/wwcp/core/model"
	"github.com/kilianp07/wwcp/internal/eventbus"
)

// StatusUpdate describes a change of the newest status of an entity.
type StatusUpdate[ID any, S any] struct {
	ID         ID
	Timestamp  time.Time
	Old        S
	New        S
	DataSource string
}

type (
	PoolStatusUpdate         = StatusUpdate[model.ChargingPoolID, model.ChargingPoolStatus]
	PoolAdminStatusUpdate    = StatusUpdate[model.ChargingPoolID, model.AdminStatus]
	StationStatusUpdate      = StatusUpdate[model.ChargingStationID, model.ChargingStationStatus]
	StationAdminStatusUpdate = StatusUpdate[model.ChargingStationID, model.AdminStatus]
	EVSEStatusUpdate         = StatusUpdate[model.EVSEID, model.EVSEStatus]
	EVSEAdminStatusUpdate    = StatusUpdate[model.EVSEID, model.AdminStatus]
)

// RequestEvent is raised before a command is processed.
type RequestEvent[R any] struct {
	Timestamp time.Time
	Sender    string
	Request   R
}

// ResponseEvent is raised after a command has been processed.
type ResponseEvent[R, S any] struct {
	Timestamp time.Time
	Sender    string
	Request   R
	Result    S
	Runtime   time.Duration
}

// CommandEvents are the command hooks shared by pools and stations.
type CommandEvents struct {
	ReserveRequest            eventbus.Handlers[RequestEvent[ReserveRequest]]
	ReserveResponse           eventbus.Handlers[ResponseEvent[ReserveRequest, ReservationResult]]
	NewReservation            eventbus.Handlers[*Reservation]
	CancelReservationRequest  eventbus.Handlers[RequestEvent[CancelReservationRequest]]
	CancelReservationResponse eventbus.Handlers[ResponseEvent[CancelReservationRequest, CancelReservationResult]]
	ReservationCanceled       eventbus.Handlers[*Reservation]
	RemoteStartRequest        eventbus.Handlers[RequestEvent[RemoteStartRequest]]
	RemoteStartResponse       eventbus.Handlers[ResponseEvent[RemoteStartRequest, RemoteStartResult]]
	NewChargingSession        eventbus.Handlers[*ChargingSession]
	RemoteStopRequest         eventbus.Handlers[RequestEvent[RemoteStopRequest]]
	RemoteStopResponse        eventbus.Handlers[ResponseEvent[RemoteStopRequest, RemoteStopResult]]
	ChargingSessionStopped    eventbus.Handlers[*ChargingSession]
}

// PoolEvents are the synchronous hooks of a ChargingPool. Station and EVSE
// events of connected stations are re-raised here.
type PoolEvents struct {
	CommandEvents

	StatusChanged             eventbus.Handlers[PoolStatusUpdate]
	AdminStatusChanged        eventbus.Handlers[PoolAdminStatusUpdate]
	StationAdded              eventbus.Handlers[*ChargingStation]
	StationRemoved            eventbus.Handlers[*ChargingStation]
	StationPropertyChanged    eventbus.Handlers[entity.PropertyChange]
	StationStatusChanged      eventbus.Handlers[StationStatusUpdate]
	StationAdminStatusChanged eventbus.Handlers[StationAdminStatusUpdate]
	EVSEStatusChanged         eventbus.Handlers[EVSEStatusUpdate]
	EVSEAdminStatusChanged    eventbus.Handlers[EVSEAdminStatusUpdate]
}

// StationEvents are the synchronous hooks of a ChargingStation.
type StationEvents struct {
	CommandEvents

	StatusChanged          eventbus.Handlers[StationStatusUpdate]
	AdminStatusChanged     eventbus.Handlers[StationAdminStatusUpdate]
	EVSEAdded              eventbus.Handlers[*EVSE]
	EVSERemoved            eventbus.Handlers[*EVSE]
	EVSEPropertyChanged    eventbus.Handlers[entity.PropertyChange]
	EVSEStatusChanged      eventbus.Handlers[EVSEStatusUpdate]
	EVSEAdminStatusChanged eventbus.Handlers[EVSEAdminStatusUpdate]
}

// EVSEEvents are the synchronous hooks of an EVSE.
type EVSEEvents struct {
	StatusChanged      eventbus.Handlers[EVSEStatusUpdate]
	AdminStatusChanged eventbus.Handlers[EVSEAdminStatusUpdate]
}

// emit runs the listeners and logs the ones that panicked.
func emit[T any](log logger.Logger, sender, name string, h *eventbus.Handlers[T], ev T) {
	for _, err := range h.Emit(ev) {
		log.Errorf("%s: %s listener: %v", sender, name, err)
	}
}
