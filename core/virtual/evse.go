package virtual

import (
	"time"

	"github.com/kilianp07/wwcp/core/charging"
	"github.com/kilianp07/wwcp/core/model"
)

// EVSE is an in-memory EVSE. Its state is guarded by the pool lock.
type EVSE struct {
	id       model.EVSEID
	station  *ChargingStation
	maxPower float64

	status        model.EVSEStatus
	admin         model.AdminStatus
	reservationID model.ReservationID
	sessionID     model.ChargingSessionID
}

// ID returns the EVSE identifier.
func (e *EVSE) ID() model.EVSEID { return e.id }

// Station returns the owning station.
func (e *EVSE) Station() *ChargingStation { return e.station }

// MaxPower returns the rated power in kW.
func (e *EVSE) MaxPower() float64 { return e.maxPower }

// Status returns the current status.
func (e *EVSE) Status() model.EVSEStatus {
	p := e.station.pool
	p.mu.Lock()
	defer p.mu.Unlock()
	return e.status
}

// AdminStatus returns the current admin status.
func (e *EVSE) AdminStatus() model.AdminStatus {
	p := e.station.pool
	p.mu.Lock()
	defer p.mu.Unlock()
	return e.admin
}

// ReservationID returns the reservation holding the EVSE, if any.
func (e *EVSE) ReservationID() model.ReservationID {
	p := e.station.pool
	p.mu.Lock()
	defer p.mu.Unlock()
	return e.reservationID
}

// SessionID returns the session running at the EVSE, if any.
func (e *EVSE) SessionID() model.ChargingSessionID {
	p := e.station.pool
	p.mu.Lock()
	defer p.mu.Unlock()
	return e.sessionID
}

// SetStatus changes the status and notifies the status listeners.
func (e *EVSE) SetStatus(s model.EVSEStatus) {
	p := e.station.pool
	p.mu.Lock()
	c, ok := e.setStatus(s, p.clock(), "virtual")
	p.mu.Unlock()
	if ok {
		p.emit([]charging.EVSEStatusUpdate{c})
	}
}

// SetAdminStatus changes the admin status.
func (e *EVSE) SetAdminStatus(a model.AdminStatus) {
	p := e.station.pool
	p.mu.Lock()
	e.admin = a
	p.mu.Unlock()
}

func (e *EVSE) setStatus(s model.EVSEStatus, ts time.Time, src string) (charging.EVSEStatusUpdate, bool) {
	if e.status == s {
		return charging.EVSEStatusUpdate{}, false
	}
	c := charging.EVSEStatusUpdate{ID: e.id, Timestamp: ts, Old: e.status, New: s, DataSource: src}
	e.status = s
	return c, true
}

// reservable reports why the EVSE cannot take reservation id, or Success.
func (e *EVSE) reservable(id model.ReservationID) charging.ResultType {
	if !e.admin.AllowsCommands() {
		return charging.ResultOutOfService
	}
	switch e.status {
	case model.EVSEStatusAvailable:
		return charging.ResultSuccess
	case model.EVSEStatusReserved:
		if id != "" && e.reservationID == id {
			return charging.ResultSuccess
		}
		return charging.ResultAlreadyReserved
	case model.EVSEStatusCharging:
		return charging.ResultAlreadyInUse
	default:
		return charging.ResultOutOfService
	}
}

// startable reports whether a session may start under one of the held
// reservation ids.
func (e *EVSE) startable(held map[model.ReservationID]bool) charging.ResultType {
	if !e.admin.AllowsCommands() {
		return charging.ResultOutOfService
	}
	switch e.status {
	case model.EVSEStatusAvailable:
		return charging.ResultSuccess
	case model.EVSEStatusReserved:
		if held[e.reservationID] {
			return charging.ResultSuccess
		}
		return charging.ResultAlreadyReserved
	case model.EVSEStatusCharging:
		return charging.ResultAlreadyInUse
	default:
		return charging.ResultOutOfService
	}
}
