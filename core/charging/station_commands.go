package charging

import (
	"context"
	"time"

	"github.com/kilianp07/wwcp/core/model"
)

func (s *ChargingStation) commander() commander {
	c := commander{sender: s.id.String(), log: s.log, now: s.tracker.Now}
	if p := s.Pool(); p != nil {
		c.poolID = p.ID().String()
	}
	return c
}

// backend returns the station backend, falling back to the pool backend.
func (s *ChargingStation) backend() RemoteCommands {
	if s.remote != nil {
		return s.remote
	}
	if p := s.Pool(); p != nil && p.remote != nil {
		return p.remote
	}
	return nil
}

func (s *ChargingStation) qualify(l ChargingLocation) ChargingLocation {
	l.ChargingStationID = s.id
	if p := s.Pool(); p != nil {
		l.ChargingPoolID = p.ID()
	}
	return l
}

// resolve checks that l addresses this station or one of its EVSEs.
func (s *ChargingStation) resolve(l ChargingLocation) (*EVSE, ResultType, string) {
	switch l.Level() {
	case LevelEVSE:
		e, ok := s.evses.Get(l.EVSEID)
		if !ok {
			return nil, ResultUnknownLocation, "unknown EVSE " + l.EVSEID.String()
		}
		if !e.AdminStatus().AllowsCommands() {
			return nil, ResultOutOfService, "EVSE admin status is " + e.AdminStatus().String()
		}
		return e, ResultSuccess, ""
	case LevelChargingStation:
		if l.ChargingStationID != s.id {
			return nil, ResultUnknownLocation, "unknown charging station " + l.ChargingStationID.String()
		}
		return nil, ResultSuccess, ""
	default:
		return nil, ResultUnknownLocation, "charging pool level request sent to charging station " + s.id.String()
	}
}

func (s *ChargingStation) gate() (ResultType, string) {
	if a := s.AdminStatus(); !a.AllowsCommands() {
		return ResultOutOfService, "charging station admin status is " + a.String()
	}
	return ResultSuccess, ""
}

// Reserve reserves the station or one of its EVSEs.
func (s *ChargingStation) Reserve(ctx context.Context, req ReserveRequest) ReservationResult {
	req = req.WithDefaults(s.tracker.Now())
	hooks := commandHooks[ReserveRequest, ReservationResult]{"Reserve", &s.Events.ReserveRequest, &s.Events.ReserveResponse}
	return runCommand(ctx, s.commander(), hooks, req, req.EventTrackingID.String(), req.Location.String(),
		func(ctx context.Context) ReservationResult { return s.reserve(ctx, req) },
		func(msg string) ReservationResult { return ReservationResult{Type: ResultError, Description: msg} })
}

func (s *ChargingStation) reserve(ctx context.Context, req ReserveRequest) ReservationResult {
	if t, d := s.gate(); t != ResultSuccess {
		return ReservationResult{Type: t, Description: d}
	}
	evse, t, d := s.resolve(req.Location)
	if t != ResultSuccess {
		return ReservationResult{Type: t, Description: d}
	}
	remote := s.backend()
	if remote == nil {
		return ReservationResult{Type: ResultOffline, Description: "no backend for charging station " + s.id.String()}
	}
	req.Location = s.qualify(req.Location)

	res := remote.Reserve(ctx, req)
	if !res.Succeeded() {
		return res
	}
	r := res.Reservation
	r.ChargingStationID = s.id
	if r.EVSEID.IsZero() && evse != nil {
		r.EVSEID = evse.ID()
	}
	if e, ok := s.evses.Get(r.EVSEID); ok {
		e.setReservation(r.ID)
		e.SetStatus(model.EVSEStatusReserved, time.Time{}, "reservation")
	}
	emit(s.log, s.id.String(), "NewReservation", &s.Events.NewReservation, r)
	return res
}

// CancelReservation cancels a reservation held at this station.
func (s *ChargingStation) CancelReservation(ctx context.Context, req CancelReservationRequest) CancelReservationResult {
	req = req.WithDefaults(s.tracker.Now())
	hooks := commandHooks[CancelReservationRequest, CancelReservationResult]{"CancelReservation", &s.Events.CancelReservationRequest, &s.Events.CancelReservationResponse}
	return runCommand(ctx, s.commander(), hooks, req, req.EventTrackingID.String(), s.id.String(),
		func(ctx context.Context) CancelReservationResult { return s.cancelReservation(ctx, req) },
		func(msg string) CancelReservationResult {
			return CancelReservationResult{Type: ResultError, ReservationID: req.ReservationID, Description: msg}
		})
}

func (s *ChargingStation) cancelReservation(ctx context.Context, req CancelReservationRequest) CancelReservationResult {
	if t, d := s.gate(); t != ResultSuccess {
		return CancelReservationResult{Type: t, ReservationID: req.ReservationID, Description: d}
	}
	remote := s.backend()
	if remote == nil {
		return CancelReservationResult{Type: ResultOffline, ReservationID: req.ReservationID, Description: "no backend for charging station " + s.id.String()}
	}
	res := remote.CancelReservation(ctx, req)
	if !res.Succeeded() {
		return res
	}
	if e := s.findEVSE(func(e *EVSE) bool { return e.ReservationID() == req.ReservationID }); e != nil {
		e.setReservation("")
		if e.Status() == model.EVSEStatusReserved {
			e.SetStatus(model.EVSEStatusAvailable, time.Time{}, "reservation")
		}
	}
	if res.Reservation != nil {
		emit(s.log, s.id.String(), "ReservationCanceled", &s.Events.ReservationCanceled, res.Reservation)
	}
	return res
}

// RemoteStart starts a charging session at the station or one of its EVSEs.
func (s *ChargingStation) RemoteStart(ctx context.Context, req RemoteStartRequest) RemoteStartResult {
	req = req.WithDefaults(s.tracker.Now())
	hooks := commandHooks[RemoteStartRequest, RemoteStartResult]{"RemoteStart", &s.Events.RemoteStartRequest, &s.Events.RemoteStartResponse}
	return runCommand(ctx, s.commander(), hooks, req, req.EventTrackingID.String(), req.Location.String(),
		func(ctx context.Context) RemoteStartResult { return s.remoteStart(ctx, req) },
		func(msg string) RemoteStartResult { return RemoteStartResult{Type: ResultError, Description: msg} })
}

func (s *ChargingStation) remoteStart(ctx context.Context, req RemoteStartRequest) RemoteStartResult {
	if t, d := s.gate(); t != ResultSuccess {
		return RemoteStartResult{Type: t, Description: d}
	}
	evse, t, d := s.resolve(req.Location)
	if t != ResultSuccess {
		return RemoteStartResult{Type: t, Description: d}
	}
	remote := s.backend()
	if remote == nil {
		return RemoteStartResult{Type: ResultOffline, Description: "no backend for charging station " + s.id.String()}
	}
	req.Location = s.qualify(req.Location)

	res := remote.RemoteStart(ctx, req)
	if !res.Succeeded() {
		return res
	}
	sess := res.Session
	sess.ChargingStationID = s.id
	if sess.EVSEID.IsZero() && evse != nil {
		sess.EVSEID = evse.ID()
	}
	if e, ok := s.evses.Get(sess.EVSEID); ok {
		e.setReservation("")
		e.setSession(sess.ID)
		e.SetStatus(model.EVSEStatusCharging, time.Time{}, "session")
	}
	emit(s.log, s.id.String(), "NewChargingSession", &s.Events.NewChargingSession, sess)
	return res
}

// RemoteStop stops a session running at this station.
func (s *ChargingStation) RemoteStop(ctx context.Context, req RemoteStopRequest) RemoteStopResult {
	req = req.WithDefaults(s.tracker.Now())
	hooks := commandHooks[RemoteStopRequest, RemoteStopResult]{"RemoteStop", &s.Events.RemoteStopRequest, &s.Events.RemoteStopResponse}
	return runCommand(ctx, s.commander(), hooks, req, req.EventTrackingID.String(), s.id.String(),
		func(ctx context.Context) RemoteStopResult { return s.remoteStop(ctx, req) },
		func(msg string) RemoteStopResult {
			return RemoteStopResult{Type: ResultError, SessionID: req.SessionID, Description: msg}
		})
}

func (s *ChargingStation) remoteStop(ctx context.Context, req RemoteStopRequest) RemoteStopResult {
	if t, d := s.gate(); t != ResultSuccess {
		return RemoteStopResult{Type: t, SessionID: req.SessionID, Description: d}
	}
	remote := s.backend()
	if remote == nil {
		return RemoteStopResult{Type: ResultOffline, SessionID: req.SessionID, Description: "no backend for charging station " + s.id.String()}
	}
	res := remote.RemoteStop(ctx, req)
	if !res.Succeeded() {
		return res
	}
	if e := s.findEVSE(func(e *EVSE) bool { return e.SessionID() == req.SessionID }); e != nil {
		e.setSession("")
		e.SetStatus(model.EVSEStatusAvailable, time.Time{}, "session")
	}
	if res.Session != nil {
		emit(s.log, s.id.String(), "ChargingSessionStopped", &s.Events.ChargingSessionStopped, res.Session)
	}
	return res
}
