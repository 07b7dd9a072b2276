package charging

import (
	"context"

	"github.com/kilianp07/wwcp/core/model"
)

// RemoteCommands executes charging commands in a backend, e.g. a virtual
// pool or an operator backend reached over MQTT. Implementations report
// failures as result values.
type RemoteCommands interface {
	Reserve(ctx context.Context, req ReserveRequest) ReservationResult
	CancelReservation(ctx context.Context, req CancelReservationRequest) CancelReservationResult
	RemoteStart(ctx context.Context, req RemoteStartRequest) RemoteStartResult
	RemoteStop(ctx context.Context, req RemoteStopRequest) RemoteStopResult
}

// RemoteChargingPool is the optional backend of a ChargingPool.
type RemoteChargingPool interface {
	RemoteCommands
	ID() model.ChargingPoolID
}

// RemoteChargingStation is the optional backend of a ChargingStation.
type RemoteChargingStation interface {
	RemoteCommands
	ID() model.ChargingStationID
}

// EVSEStatusSource is implemented by backends reporting EVSE status changes.
// Pools and stations subscribe on construction and mirror the updates into
// their EVSE status schedules.
type EVSEStatusSource interface {
	OnEVSEStatusChanged(fn func(EVSEStatusUpdate)) (remove func())
}
