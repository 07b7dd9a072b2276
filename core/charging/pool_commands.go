package charging

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/kilianp07/wwcp/core/model"
)

func (p *ChargingPool) commander() commander {
	return commander{sender: p.id.String(), poolID: p.id.String(), log: p.log, now: p.clock, publish: p.publish}
}

func (p *ChargingPool) gate() (ResultType, string) {
	if a := p.AdminStatus(); !a.AllowsCommands() {
		return ResultOutOfService, "charging pool admin status is " + a.String()
	}
	return ResultSuccess, ""
}

// poolLevel reports whether l addresses this pool as a whole.
func (p *ChargingPool) poolLevel(l ChargingLocation) bool {
	return l.ChargingPoolID.IsZero() || l.ChargingPoolID == p.id
}

// Reserve reserves an EVSE, a station or the whole pool. Pool level requests
// go to the remote pool when configured and are otherwise fanned out to the
// stations, one sub-reservation per accepting station.
func (p *ChargingPool) Reserve(ctx context.Context, req ReserveRequest) ReservationResult {
	req = req.WithDefaults(p.clock())
	hooks := commandHooks[ReserveRequest, ReservationResult]{"Reserve", &p.Events.ReserveRequest, &p.Events.ReserveResponse}
	return runCommand(ctx, p.commander(), hooks, req, req.EventTrackingID.String(), req.Location.String(),
		func(ctx context.Context) ReservationResult { return p.reserve(ctx, req) },
		func(msg string) ReservationResult { return ReservationResult{Type: ResultError, Description: msg} })
}

func (p *ChargingPool) reserve(ctx context.Context, req ReserveRequest) ReservationResult {
	if t, d := p.gate(); t != ResultSuccess {
		return ReservationResult{Type: t, Description: d}
	}
	var res ReservationResult
	switch req.Location.Level() {
	case LevelEVSE:
		st := p.stationForEVSE(req.Location.EVSEID)
		if st == nil {
			return ReservationResult{Type: ResultUnknownLocation, Description: "unknown EVSE " + req.Location.EVSEID.String()}
		}
		res = st.Reserve(ctx, req)
	case LevelChargingStation:
		st, ok := p.stations.Get(req.Location.ChargingStationID)
		if !ok {
			return ReservationResult{Type: ResultUnknownLocation, Description: "unknown charging station " + req.Location.ChargingStationID.String()}
		}
		res = st.Reserve(ctx, req)
	default:
		if !p.poolLevel(req.Location) {
			return ReservationResult{Type: ResultUnknownLocation, Description: "unknown charging pool " + req.Location.ChargingPoolID.String()}
		}
		req.Location.ChargingPoolID = p.id
		if p.remote != nil {
			res = p.remote.Reserve(ctx, req)
		} else {
			res = p.fanOutReserve(ctx, req)
		}
	}
	if res.Succeeded() {
		p.linkReservation(res.Reservation)
		if p.reservations != nil {
			if err := p.reservations.Add(res.Reservation); err != nil {
				p.log.Warnf("%s: store reservation %s: %v", p.id, res.Reservation.ID, err)
			}
		}
		emit(p.log, p.id.String(), "NewReservation", &p.Events.NewReservation, res.Reservation)
	}
	return res
}

// fanOutReserve reserves every station and wraps the accepted
// sub-reservations in a pool level reservation. Stations that accepted are
// kept when others fail.
func (p *ChargingPool) fanOutReserve(ctx context.Context, req ReserveRequest) ReservationResult {
	stations := p.ChargingStations()
	if len(stations) == 0 {
		return ReservationResult{Type: ResultNoEVSEsAvailable, Description: "charging pool has no charging stations"}
	}
	parent := NewReservation(req)
	var failures []string
	for _, st := range stations {
		if err := ctx.Err(); err != nil {
			failures = append(failures, err.Error())
			break
		}
		sub := req
		sub.ReservationID = model.NewReservationID()
		sub.Location = ChargingLocation{ChargingPoolID: p.id, ChargingStationID: st.ID()}
		r := st.Reserve(ctx, sub)
		if r.Succeeded() {
			parent.SubReservations = append(parent.SubReservations, r.Reservation)
			continue
		}
		failures = append(failures, st.ID().String()+": "+string(r.Type))
	}
	if len(parent.SubReservations) == 0 {
		if ctx.Err() != nil {
			return ReservationResult{Type: ResultTimeout, Description: ctx.Err().Error()}
		}
		return ReservationResult{Type: ResultNoEVSEsAvailable, Description: strings.Join(failures, "; ")}
	}
	if len(failures) > 0 {
		p.log.Warnf("%s: pool reservation %s holds %d of %d stations: %s",
			p.id, parent.ID, len(parent.SubReservations), len(stations), strings.Join(failures, "; "))
	}
	return ReservationResult{Type: ResultSuccess, Reservation: parent}
}

func (p *ChargingPool) linkReservation(r *Reservation) {
	r.ChargingPoolID = p.id
	r.Pool = p
	for _, s := range r.SubReservations {
		s.ChargingPoolID = p.id
		s.Pool = p
	}
}

func (p *ChargingPool) storedReservation(id model.ReservationID) *Reservation {
	if p.reservations == nil {
		return nil
	}
	r, _ := p.reservations.Get(id)
	return r
}

// stationOf returns the local station holding a reservation or session.
func (p *ChargingPool) stationOf(stationID model.ChargingStationID, evseID model.EVSEID) *ChargingStation {
	if !stationID.IsZero() {
		if st, ok := p.stations.Get(stationID); ok {
			return st
		}
	}
	if !evseID.IsZero() {
		return p.stationForEVSE(evseID)
	}
	return nil
}

// CancelReservation cancels a reservation made through this pool.
func (p *ChargingPool) CancelReservation(ctx context.Context, req CancelReservationRequest) CancelReservationResult {
	req = req.WithDefaults(p.clock())
	hooks := commandHooks[CancelReservationRequest, CancelReservationResult]{"CancelReservation", &p.Events.CancelReservationRequest, &p.Events.CancelReservationResponse}
	return runCommand(ctx, p.commander(), hooks, req, req.EventTrackingID.String(), req.ReservationID.String(),
		func(ctx context.Context) CancelReservationResult { return p.cancelReservation(ctx, req) },
		func(msg string) CancelReservationResult {
			return CancelReservationResult{Type: ResultError, ReservationID: req.ReservationID, Description: msg}
		})
}

func (p *ChargingPool) cancelReservation(ctx context.Context, req CancelReservationRequest) CancelReservationResult {
	if t, d := p.gate(); t != ResultSuccess {
		return CancelReservationResult{Type: t, ReservationID: req.ReservationID, Description: d}
	}
	stored := p.storedReservation(req.ReservationID)
	if stored != nil && stored.Status.Final() {
		return CancelReservationResult{Type: ResultUnknownReservation, ReservationID: req.ReservationID,
			Description: "reservation is " + string(stored.Status)}
	}

	var res CancelReservationResult
	switch {
	case stored == nil && p.remote != nil:
		res = p.remote.CancelReservation(ctx, req)
	case stored == nil:
		return CancelReservationResult{Type: ResultUnknownReservation, ReservationID: req.ReservationID,
			Description: "unknown reservation " + req.ReservationID.String()}
	case len(stored.SubReservations) > 0 && p.remote == nil:
		var updated *Reservation
		res, updated = p.cancelSubReservations(ctx, req, stored)
		if !res.Succeeded() {
			if updated != nil {
				p.updateReservation(updated)
			}
			return res
		}
		stored = updated
	default:
		if st := p.stationOf(stored.ChargingStationID, stored.EVSEID); st != nil {
			res = st.CancelReservation(ctx, req)
		} else if p.remote != nil {
			res = p.remote.CancelReservation(ctx, req)
		} else {
			return CancelReservationResult{Type: ResultUnknownLocation, ReservationID: req.ReservationID,
				Description: "no charging station holds reservation " + req.ReservationID.String()}
		}
	}
	if !res.Succeeded() {
		return res
	}

	if stored != nil {
		if canceled, err := stored.WithStatus(ReservationCanceled); err == nil {
			p.updateReservation(canceled)
			res.Reservation = canceled
		}
	}
	if res.Reservation != nil {
		p.linkReservation(res.Reservation)
		emit(p.log, p.id.String(), "ReservationCanceled", &p.Events.ReservationCanceled, res.Reservation)
	}
	return res
}

// cancelSubReservations cancels the still active sub-reservations of a
// fanned out reservation. The returned copy marks the subs that were
// canceled; it is nil when none was.
func (p *ChargingPool) cancelSubReservations(ctx context.Context, req CancelReservationRequest, parent *Reservation) (CancelReservationResult, *Reservation) {
	updated := parent.Clone()
	var (
		failures []string
		failType ResultType
		canceled int
	)
	for _, sub := range updated.SubReservations {
		if sub.Status.Final() {
			continue
		}
		st := p.stationOf(sub.ChargingStationID, sub.EVSEID)
		if st == nil {
			failures = append(failures, sub.ID.String()+": unknown charging station")
			if failType == "" {
				failType = ResultUnknownLocation
			}
			continue
		}
		subReq := req
		subReq.ReservationID = sub.ID
		r := st.CancelReservation(ctx, subReq)
		if !r.Succeeded() {
			failures = append(failures, sub.ID.String()+": "+string(r.Type))
			if failType == "" {
				failType = r.Type
			}
			continue
		}
		sub.Status = ReservationCanceled
		canceled++
	}
	if len(failures) == 0 {
		return CancelReservationResult{Type: ResultSuccess, ReservationID: req.ReservationID}, updated
	}

	desc := strings.Join(failures, "; ")
	p.log.Warnf("%s: cancel pool reservation %s: %s", p.id, parent.ID, desc)
	if canceled == 0 {
		return CancelReservationResult{Type: failType, ReservationID: req.ReservationID, Description: desc}, nil
	}
	return CancelReservationResult{
		Type:          ResultError,
		ReservationID: req.ReservationID,
		Reservation:   updated,
		Description:   fmt.Sprintf("canceled %d of %d sub-reservations: %s", canceled, canceled+len(failures), desc),
	}, updated
}

func (p *ChargingPool) updateReservation(r *Reservation) {
	if p.reservations == nil {
		return
	}
	if err := p.reservations.Update(r); err != nil {
		p.log.Warnf("%s: update reservation %s: %v", p.id, r.ID, err)
	}
}

// ReleaseReservations frees the local EVSEs still held by the given
// reservations or their sub-reservations, e.g. after they expired. It
// returns the number of EVSEs released.
func (p *ChargingPool) ReleaseReservations(rs ...*Reservation) int {
	ids := make(map[model.ReservationID]bool)
	for _, r := range rs {
		ids[r.ID] = true
		for _, sub := range r.SubReservations {
			ids[sub.ID] = true
		}
	}
	n := 0
	for _, st := range p.ChargingStations() {
		for _, e := range st.EVSEs() {
			if id := e.ReservationID(); id == "" || !ids[id] {
				continue
			}
			e.setReservation("")
			if e.Status() == model.EVSEStatusReserved {
				e.SetStatus(model.EVSEStatusAvailable, time.Time{}, "reservation released")
			}
			n++
		}
	}
	return n
}

// RemoteStart starts a session at an EVSE, a station or anywhere in the pool.
func (p *ChargingPool) RemoteStart(ctx context.Context, req RemoteStartRequest) RemoteStartResult {
	req = req.WithDefaults(p.clock())
	hooks := commandHooks[RemoteStartRequest, RemoteStartResult]{"RemoteStart", &p.Events.RemoteStartRequest, &p.Events.RemoteStartResponse}
	return runCommand(ctx, p.commander(), hooks, req, req.EventTrackingID.String(), req.Location.String(),
		func(ctx context.Context) RemoteStartResult { return p.remoteStart(ctx, req) },
		func(msg string) RemoteStartResult { return RemoteStartResult{Type: ResultError, Description: msg} })
}

func (p *ChargingPool) remoteStart(ctx context.Context, req RemoteStartRequest) RemoteStartResult {
	if t, d := p.gate(); t != ResultSuccess {
		return RemoteStartResult{Type: t, Description: d}
	}
	reservation := p.storedReservation(req.ReservationID)
	if reservation != nil && reservation.Status.Final() {
		return RemoteStartResult{Type: ResultUnknownReservation, Description: "reservation is " + string(reservation.Status)}
	}

	var (
		res     RemoteStartResult
		usedSub model.ReservationID
	)
	switch {
	case reservation != nil && req.Location.Level() == LevelChargingPool && len(reservation.SubReservations) > 0 && p.remote == nil:
		res, usedSub = p.startFromSubReservations(ctx, req, reservation)
	default:
		if reservation != nil && req.Location.Level() == LevelChargingPool && !reservation.EVSEID.IsZero() {
			req.Location = ChargingLocation{ChargingPoolID: p.id, ChargingStationID: reservation.ChargingStationID, EVSEID: reservation.EVSEID}
		}
		res = p.startAt(ctx, req)
	}
	if !res.Succeeded() {
		return res
	}

	sess := res.Session
	sess.ChargingPoolID = p.id
	sess.Pool = p
	if p.sessions != nil {
		if err := p.sessions.Add(sess); err != nil {
			p.log.Warnf("%s: store session %s: %v", p.id, sess.ID, err)
		}
	}
	if reservation != nil {
		p.useReservation(ctx, reservation, usedSub)
	}
	emit(p.log, p.id.String(), "NewChargingSession", &p.Events.NewChargingSession, sess)
	return res
}

// startAt starts a session at the location named by req.
func (p *ChargingPool) startAt(ctx context.Context, req RemoteStartRequest) RemoteStartResult {
	switch req.Location.Level() {
	case LevelEVSE:
		st := p.stationForEVSE(req.Location.EVSEID)
		if st == nil {
			return RemoteStartResult{Type: ResultUnknownLocation, Description: "unknown EVSE " + req.Location.EVSEID.String()}
		}
		return st.RemoteStart(ctx, req)
	case LevelChargingStation:
		st, ok := p.stations.Get(req.Location.ChargingStationID)
		if !ok {
			return RemoteStartResult{Type: ResultUnknownLocation, Description: "unknown charging station " + req.Location.ChargingStationID.String()}
		}
		return st.RemoteStart(ctx, req)
	default:
		if !p.poolLevel(req.Location) {
			return RemoteStartResult{Type: ResultUnknownLocation, Description: "unknown charging pool " + req.Location.ChargingPoolID.String()}
		}
		req.Location.ChargingPoolID = p.id
		if p.remote != nil {
			return p.remote.RemoteStart(ctx, req)
		}
		return p.firstStationStart(ctx, req)
	}
}

// startFromSubReservations redeems a fanned out reservation at the first
// station whose sub-reservation starts a session.
func (p *ChargingPool) startFromSubReservations(ctx context.Context, req RemoteStartRequest, parent *Reservation) (RemoteStartResult, model.ReservationID) {
	var failures []string
	for _, sub := range parent.SubReservations {
		if sub.Status != ReservationActive {
			continue
		}
		if ctx.Err() != nil {
			return RemoteStartResult{Type: ResultTimeout, Description: ctx.Err().Error()}, ""
		}
		st := p.stationOf(sub.ChargingStationID, sub.EVSEID)
		if st == nil {
			failures = append(failures, sub.ID.String()+": unknown charging station")
			continue
		}
		r := req
		r.ReservationID = sub.ID
		r.Location = ChargingLocation{ChargingPoolID: p.id, ChargingStationID: st.ID(), EVSEID: sub.EVSEID}
		res := st.RemoteStart(ctx, r)
		if res.Succeeded() {
			return res, sub.ID
		}
		failures = append(failures, sub.ID.String()+": "+string(res.Type))
	}
	if len(failures) == 0 {
		return RemoteStartResult{Type: ResultUnknownReservation, Description: "reservation " + parent.ID.String() + " holds no active sub-reservation"}, ""
	}
	return RemoteStartResult{Type: ResultNoEVSEsAvailable, Description: strings.Join(failures, "; ")}, ""
}

// useReservation marks r used once a session started on it. When the session
// redeemed the sub-reservation usedSub, the other active subs are released.
func (p *ChargingPool) useReservation(ctx context.Context, r *Reservation, usedSub model.ReservationID) {
	if !r.Status.CanTransition(ReservationUsed) {
		return
	}
	used := r.Clone()
	used.Status = ReservationUsed
	for _, sub := range used.SubReservations {
		switch {
		case usedSub == "" || sub.ID == usedSub:
			if sub.Status.CanTransition(ReservationUsed) {
				sub.Status = ReservationUsed
			}
		case sub.Status == ReservationActive:
			if p.releaseSubReservation(ctx, sub) {
				sub.Status = ReservationCanceled
			}
		}
	}
	p.updateReservation(used)
}

func (p *ChargingPool) releaseSubReservation(ctx context.Context, sub *Reservation) bool {
	st := p.stationOf(sub.ChargingStationID, sub.EVSEID)
	if st == nil {
		return false
	}
	res := st.CancelReservation(ctx, CancelReservationRequest{ReservationID: sub.ID})
	if !res.Succeeded() {
		p.log.Warnf("%s: release sub-reservation %s: %s %s", p.id, sub.ID, res.Type, res.Description)
		return false
	}
	return true
}

// firstStationStart tries the stations in id order until one starts.
func (p *ChargingPool) firstStationStart(ctx context.Context, req RemoteStartRequest) RemoteStartResult {
	var failures []string
	for _, st := range p.ChargingStations() {
		if ctx.Err() != nil {
			return RemoteStartResult{Type: ResultTimeout, Description: ctx.Err().Error()}
		}
		r := req
		r.Location = ChargingLocation{ChargingPoolID: p.id, ChargingStationID: st.ID()}
		res := st.RemoteStart(ctx, r)
		if res.Succeeded() {
			return res
		}
		failures = append(failures, st.ID().String()+": "+string(res.Type))
	}
	return RemoteStartResult{Type: ResultNoEVSEsAvailable, Description: strings.Join(failures, "; ")}
}

// RemoteStop stops a session started through this pool.
func (p *ChargingPool) RemoteStop(ctx context.Context, req RemoteStopRequest) RemoteStopResult {
	req = req.WithDefaults(p.clock())
	hooks := commandHooks[RemoteStopRequest, RemoteStopResult]{"RemoteStop", &p.Events.RemoteStopRequest, &p.Events.RemoteStopResponse}
	return runCommand(ctx, p.commander(), hooks, req, req.EventTrackingID.String(), req.SessionID.String(),
		func(ctx context.Context) RemoteStopResult { return p.remoteStop(ctx, req) },
		func(msg string) RemoteStopResult {
			return RemoteStopResult{Type: ResultError, SessionID: req.SessionID, Description: msg}
		})
}

func (p *ChargingPool) remoteStop(ctx context.Context, req RemoteStopRequest) RemoteStopResult {
	if t, d := p.gate(); t != ResultSuccess {
		return RemoteStopResult{Type: t, SessionID: req.SessionID, Description: d}
	}
	var stored *ChargingSession
	if p.sessions != nil {
		stored, _ = p.sessions.Get(req.SessionID)
	}
	if stored != nil && !stored.Running() {
		return RemoteStopResult{Type: ResultInvalidSessionID, SessionID: req.SessionID, Description: "charging session already stopped"}
	}

	var res RemoteStopResult
	switch {
	case stored != nil:
		if st := p.stationOf(stored.ChargingStationID, stored.EVSEID); st != nil {
			res = st.RemoteStop(ctx, req)
		} else if p.remote != nil {
			res = p.remote.RemoteStop(ctx, req)
		} else {
			return RemoteStopResult{Type: ResultUnknownLocation, SessionID: req.SessionID,
				Description: "no charging station runs session " + req.SessionID.String()}
		}
	case p.remote != nil:
		res = p.remote.RemoteStop(ctx, req)
	default:
		return RemoteStopResult{Type: ResultInvalidSessionID, SessionID: req.SessionID,
			Description: "unknown charging session " + req.SessionID.String()}
	}
	if !res.Succeeded() {
		return res
	}

	sess := res.Session
	if sess == nil && stored != nil {
		sess = stored.Clone()
	}
	if sess != nil {
		if sess.Stop.IsZero() {
			sess.Stop = p.clock()
		}
		sess.ChargingPoolID = p.id
		sess.Pool = p
		if stored != nil {
			if err := p.sessions.Update(sess); err != nil {
				p.log.Warnf("%s: update session %s: %v", p.id, sess.ID, err)
			}
		}
		res.Session = sess
		emit(p.log, p.id.String(), "ChargingSessionStopped", &p.Events.ChargingSessionStopped, sess)
	}
	return res
}
