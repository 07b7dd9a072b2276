package virtual

import (
	"context"
	"time"

	"github.com/kilianp07/wwcp/core/charging"
	"github.com/kilianp07/wwcp/core/model"
)

// Reserve reserves an EVSE, a station or the whole pool. A pool level
// reservation holds one EVSE per station that has one available.
func (p *ChargingPool) Reserve(ctx context.Context, req charging.ReserveRequest) charging.ReservationResult {
	return p.reserve(ctx, req, nil)
}

// CancelReservation cancels a reservation and frees its EVSEs.
func (p *ChargingPool) CancelReservation(ctx context.Context, req charging.CancelReservationRequest) charging.CancelReservationResult {
	return p.cancelReservation(ctx, req, nil)
}

// RemoteStart starts a session. A reserved EVSE only starts for the
// reservation holding it.
func (p *ChargingPool) RemoteStart(ctx context.Context, req charging.RemoteStartRequest) charging.RemoteStartResult {
	return p.remoteStart(ctx, req, nil)
}

// RemoteStop stops a running session and frees its EVSE.
func (p *ChargingPool) RemoteStop(ctx context.Context, req charging.RemoteStopRequest) charging.RemoteStopResult {
	return p.remoteStop(ctx, req, nil)
}

// wait applies the response delay and reports whether ctx is still live.
func (p *ChargingPool) wait(ctx context.Context) bool {
	if p.delay > 0 {
		t := time.NewTimer(p.delay)
		defer t.Stop()
		select {
		case <-t.C:
		case <-ctx.Done():
			return false
		}
	}
	return ctx.Err() == nil
}

// station resolves a station level location within scope.
func (p *ChargingPool) station(id model.ChargingStationID, scope *ChargingStation) *ChargingStation {
	if scope != nil {
		if scope.id != id {
			return nil
		}
		return scope
	}
	return p.stations[id]
}

// evse resolves an EVSE within scope.
func (p *ChargingPool) evse(id model.EVSEID, scope *ChargingStation) *EVSE {
	if scope != nil {
		return scope.evses[id]
	}
	return p.findEVSE(id)
}

func (p *ChargingPool) poolLevel(l charging.ChargingLocation, scope *ChargingStation) bool {
	return scope == nil && (l.ChargingPoolID.IsZero() || l.ChargingPoolID == p.id)
}

func (p *ChargingPool) reserve(ctx context.Context, req charging.ReserveRequest, scope *ChargingStation) charging.ReservationResult {
	if !p.wait(ctx) {
		return charging.ReservationResult{Type: charging.ResultTimeout, Description: "virtual pool did not answer in time"}
	}
	req = req.WithDefaults(p.clock())

	p.mu.Lock()
	res, changes := p.reserveLocked(req, scope)
	p.mu.Unlock()

	p.emit(changes)
	p.log.Debugw("virtual reserve", map[string]any{"pool": p.id.String(), "location": req.Location.String(), "result": res.Type.String()})
	return res
}

func (p *ChargingPool) reserveLocked(req charging.ReserveRequest, scope *ChargingStation) (charging.ReservationResult, []charging.EVSEStatusUpdate) {
	if !p.admin.AllowsCommands() {
		return charging.ReservationResult{Type: charging.ResultOutOfService, Description: "virtual pool admin status is " + p.admin.String()}, nil
	}
	if r, ok := p.reservations[req.ReservationID]; ok {
		if r.Status == charging.ReservationActive {
			return charging.ReservationResult{Type: charging.ResultSuccess, Reservation: r.Clone()}, nil
		}
		return charging.ReservationResult{Type: charging.ResultAlreadyReserved, Description: "reservation id " + req.ReservationID.String() + " was used before"}, nil
	}

	var (
		r       *charging.Reservation
		changes []charging.EVSEStatusUpdate
		typ     charging.ResultType
	)
	switch req.Location.Level() {
	case charging.LevelEVSE:
		e := p.evse(req.Location.EVSEID, scope)
		if e == nil {
			return charging.ReservationResult{Type: charging.ResultUnknownLocation, Description: "unknown EVSE " + req.Location.EVSEID.String()}, nil
		}
		r, changes, typ = p.reserveEVSE(req, []*EVSE{e})
	case charging.LevelChargingStation:
		st := p.station(req.Location.ChargingStationID, scope)
		if st == nil {
			return charging.ReservationResult{Type: charging.ResultUnknownLocation, Description: "unknown charging station " + req.Location.ChargingStationID.String()}, nil
		}
		r, changes, typ = p.reserveEVSE(req, st.sortedEVSEs())
		if typ != charging.ResultSuccess && typ != charging.ResultOutOfService {
			typ = charging.ResultNoEVSEsAvailable
		}
	default:
		if !p.poolLevel(req.Location, scope) {
			return charging.ReservationResult{Type: charging.ResultUnknownLocation, Description: "unknown charging pool " + req.Location.ChargingPoolID.String()}, nil
		}
		r, changes, typ = p.reservePool(req)
	}
	if typ != charging.ResultSuccess {
		return charging.ReservationResult{Type: typ, Description: "no EVSE could be reserved"}, changes
	}
	p.reservations[r.ID] = r
	return charging.ReservationResult{Type: charging.ResultSuccess, Reservation: r.Clone()}, changes
}

// reserveEVSE reserves the first candidate accepting the reservation. The
// result type of the last refusal is returned when none accepts.
func (p *ChargingPool) reserveEVSE(req charging.ReserveRequest, candidates []*EVSE) (*charging.Reservation, []charging.EVSEStatusUpdate, charging.ResultType) {
	refusal := charging.ResultNoEVSEsAvailable
	for _, e := range candidates {
		if !e.station.operational() {
			refusal = charging.ResultOutOfService
			continue
		}
		if t := e.reservable(req.ReservationID); t != charging.ResultSuccess {
			refusal = t
			continue
		}
		r := charging.NewReservation(req)
		r.ChargingPoolID = p.id
		r.ChargingStationID = e.station.id
		r.EVSEID = e.id
		e.reservationID = r.ID
		var changes []charging.EVSEStatusUpdate
		if c, ok := e.setStatus(model.EVSEStatusReserved, req.Timestamp, "reservation"); ok {
			changes = append(changes, c)
		}
		return r, changes, charging.ResultSuccess
	}
	return nil, nil, refusal
}

func (p *ChargingPool) reservePool(req charging.ReserveRequest) (*charging.Reservation, []charging.EVSEStatusUpdate, charging.ResultType) {
	req.Location = charging.AtPool(p.id)
	parent := charging.NewReservation(req)
	var changes []charging.EVSEStatusUpdate
	for _, st := range p.sortedStations() {
		sub := req
		sub.ReservationID = model.NewReservationID()
		sub.Location = charging.ChargingLocation{ChargingPoolID: p.id, ChargingStationID: st.id}
		r, c, typ := p.reserveEVSE(sub, st.sortedEVSEs())
		if typ != charging.ResultSuccess {
			continue
		}
		parent.SubReservations = append(parent.SubReservations, r)
		changes = append(changes, c...)
	}
	if len(parent.SubReservations) == 0 {
		return nil, nil, charging.ResultNoEVSEsAvailable
	}
	return parent, changes, charging.ResultSuccess
}

func (p *ChargingPool) cancelReservation(ctx context.Context, req charging.CancelReservationRequest, scope *ChargingStation) charging.CancelReservationResult {
	if !p.wait(ctx) {
		return charging.CancelReservationResult{Type: charging.ResultTimeout, ReservationID: req.ReservationID, Description: "virtual pool did not answer in time"}
	}
	req = req.WithDefaults(p.clock())

	p.mu.Lock()
	r, ok := p.reservations[req.ReservationID]
	if !ok || r.Status.Final() || (scope != nil && r.ChargingStationID != scope.id) {
		p.mu.Unlock()
		return charging.CancelReservationResult{Type: charging.ResultUnknownReservation, ReservationID: req.ReservationID,
			Description: "unknown reservation " + req.ReservationID.String()}
	}
	next, err := r.WithStatus(charging.ReservationCanceled)
	if err != nil {
		p.mu.Unlock()
		return charging.CancelReservationResult{Type: charging.ResultError, ReservationID: req.ReservationID, Description: err.Error()}
	}
	p.reservations[next.ID] = next
	changes := p.releaseReservation(next, nil, req.Timestamp)
	p.mu.Unlock()

	p.emit(changes)
	return charging.CancelReservationResult{Type: charging.ResultSuccess, ReservationID: req.ReservationID, Reservation: next.Clone()}
}

func (p *ChargingPool) remoteStart(ctx context.Context, req charging.RemoteStartRequest, scope *ChargingStation) charging.RemoteStartResult {
	if !p.wait(ctx) {
		return charging.RemoteStartResult{Type: charging.ResultTimeout, Description: "virtual pool did not answer in time"}
	}
	req = req.WithDefaults(p.clock())

	p.mu.Lock()
	res, changes := p.remoteStartLocked(req, scope)
	p.mu.Unlock()

	p.emit(changes)
	p.log.Debugw("virtual remote start", map[string]any{"pool": p.id.String(), "location": req.Location.String(), "result": res.Type.String()})
	return res
}

func (p *ChargingPool) remoteStartLocked(req charging.RemoteStartRequest, scope *ChargingStation) (charging.RemoteStartResult, []charging.EVSEStatusUpdate) {
	if !p.admin.AllowsCommands() {
		return charging.RemoteStartResult{Type: charging.ResultOutOfService, Description: "virtual pool admin status is " + p.admin.String()}, nil
	}
	if s, ok := p.sessions[req.SessionID]; ok {
		if s.Running() {
			return charging.RemoteStartResult{Type: charging.ResultSuccess, Session: s.Clone()}, nil
		}
		return charging.RemoteStartResult{Type: charging.ResultInvalidSessionID, Description: "session id " + req.SessionID.String() + " was used before"}, nil
	}

	var reservation *charging.Reservation
	held := make(map[model.ReservationID]bool)
	if req.ReservationID != "" {
		r, ok := p.reservations[req.ReservationID]
		if !ok || r.Status != charging.ReservationActive {
			return charging.RemoteStartResult{Type: charging.ResultUnknownReservation, Description: "unknown reservation " + req.ReservationID.String()}, nil
		}
		reservation = r
		held[r.ID] = true
		for _, s := range r.SubReservations {
			held[s.ID] = true
		}
	}

	var (
		e   *EVSE
		typ charging.ResultType
	)
	switch req.Location.Level() {
	case charging.LevelEVSE:
		e = p.evse(req.Location.EVSEID, scope)
		if e == nil {
			return charging.RemoteStartResult{Type: charging.ResultUnknownLocation, Description: "unknown EVSE " + req.Location.EVSEID.String()}, nil
		}
		e, typ = pickEVSE([]*EVSE{e}, held)
	case charging.LevelChargingStation:
		st := p.station(req.Location.ChargingStationID, scope)
		if st == nil {
			return charging.RemoteStartResult{Type: charging.ResultUnknownLocation, Description: "unknown charging station " + req.Location.ChargingStationID.String()}, nil
		}
		e, typ = pickEVSE(st.sortedEVSEs(), held)
	default:
		if !p.poolLevel(req.Location, scope) {
			return charging.RemoteStartResult{Type: charging.ResultUnknownLocation, Description: "unknown charging pool " + req.Location.ChargingPoolID.String()}, nil
		}
		var all []*EVSE
		for _, st := range p.sortedStations() {
			all = append(all, st.sortedEVSEs()...)
		}
		e, typ = pickEVSE(all, held)
	}
	if typ != charging.ResultSuccess {
		return charging.RemoteStartResult{Type: typ, Description: "no EVSE could be started"}, nil
	}

	sess := charging.NewChargingSession(req)
	sess.ChargingPoolID = p.id
	sess.ChargingStationID = e.station.id
	sess.EVSEID = e.id
	p.sessions[sess.ID] = sess

	var changes []charging.EVSEStatusUpdate
	e.reservationID = ""
	e.sessionID = sess.ID
	if c, ok := e.setStatus(model.EVSEStatusCharging, req.Timestamp, "session"); ok {
		changes = append(changes, c)
	}
	if reservation != nil {
		if used, err := reservation.WithStatus(charging.ReservationUsed); err == nil {
			p.reservations[used.ID] = used
			changes = append(changes, p.releaseReservation(used, e, req.Timestamp)...)
		}
	}
	return charging.RemoteStartResult{Type: charging.ResultSuccess, Session: sess.Clone()}, changes
}

// pickEVSE prefers an EVSE held by one of the reservations, then the first
// startable one. A single candidate reports its own refusal.
func pickEVSE(candidates []*EVSE, held map[model.ReservationID]bool) (*EVSE, charging.ResultType) {
	for _, e := range candidates {
		if e.reservationID != "" && held[e.reservationID] && e.station.operational() && e.startable(held) == charging.ResultSuccess {
			return e, charging.ResultSuccess
		}
	}
	refusal := charging.ResultNoEVSEsAvailable
	for _, e := range candidates {
		if !e.station.operational() {
			refusal = charging.ResultOutOfService
			continue
		}
		t := e.startable(held)
		if t == charging.ResultSuccess {
			return e, t
		}
		if len(candidates) == 1 {
			refusal = t
		}
	}
	return nil, refusal
}

func (p *ChargingPool) remoteStop(ctx context.Context, req charging.RemoteStopRequest, scope *ChargingStation) charging.RemoteStopResult {
	if !p.wait(ctx) {
		return charging.RemoteStopResult{Type: charging.ResultTimeout, SessionID: req.SessionID, Description: "virtual pool did not answer in time"}
	}
	req = req.WithDefaults(p.clock())

	p.mu.Lock()
	s, ok := p.sessions[req.SessionID]
	if !ok || !s.Running() || (scope != nil && s.ChargingStationID != scope.id) {
		p.mu.Unlock()
		return charging.RemoteStopResult{Type: charging.ResultInvalidSessionID, SessionID: req.SessionID,
			Description: "unknown charging session " + req.SessionID.String()}
	}
	stopped := s.Clone()
	stopped.Stop = req.Timestamp
	p.sessions[stopped.ID] = stopped

	var changes []charging.EVSEStatusUpdate
	if e := p.findEVSE(stopped.EVSEID); e != nil && e.sessionID == stopped.ID {
		e.sessionID = ""
		if c, ok := e.setStatus(model.EVSEStatusAvailable, req.Timestamp, "session"); ok {
			changes = append(changes, c)
		}
	}
	p.mu.Unlock()

	p.emit(changes)
	return charging.RemoteStopResult{Type: charging.ResultSuccess, SessionID: req.SessionID, Session: stopped.Clone()}
}

// Reserve reserves the station or one of its EVSEs.
func (s *ChargingStation) Reserve(ctx context.Context, req charging.ReserveRequest) charging.ReservationResult {
	return s.pool.reserve(ctx, req, s)
}

// CancelReservation cancels a reservation held at this station.
func (s *ChargingStation) CancelReservation(ctx context.Context, req charging.CancelReservationRequest) charging.CancelReservationResult {
	return s.pool.cancelReservation(ctx, req, s)
}

// RemoteStart starts a session at the station or one of its EVSEs.
func (s *ChargingStation) RemoteStart(ctx context.Context, req charging.RemoteStartRequest) charging.RemoteStartResult {
	return s.pool.remoteStart(ctx, req, s)
}

// RemoteStop stops a session running at this station.
func (s *ChargingStation) RemoteStop(ctx context.Context, req charging.RemoteStopRequest) charging.RemoteStopResult {
	return s.pool.remoteStop(ctx, req, s)
}

// OnEVSEStatusChanged registers a listener for status changes of the
// station's EVSEs.
func (s *ChargingStation) OnEVSEStatusChanged(fn func(charging.EVSEStatusUpdate)) func() {
	if fn == nil {
		return func() {}
	}
	return s.pool.statusListeners.Add(func(u charging.EVSEStatusUpdate) {
		s.pool.mu.Lock()
		_, ok := s.evses[u.ID]
		s.pool.mu.Unlock()
		if ok {
			fn(u)
		}
	})
}

var (
	_ charging.RemoteChargingPool    = (*ChargingPool)(nil)
	_ charging.RemoteChargingStation = (*ChargingStation)(nil)
	_ charging.EVSEStatusSource      = (*ChargingPool)(nil)
	_ charging.EVSEStatusSource      = (*ChargingStation)(nil)
)
