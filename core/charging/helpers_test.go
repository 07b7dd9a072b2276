package charging_test

import (
	"context"
	"sync"
	"time"

	"github.com/kilianp07/wwcp/core/charging"
	"github.com/kilianp07/wwcp/core/model"
	"github.com/kilianp07/wwcp/internal/eventbus"
)

var (
	operator = model.MustParseOperatorID("DE*GEF")
	poolID   = model.MustParseChargingPoolID("DE*GEF*P1")
)

func stationID(suffix string) model.ChargingStationID {
	return model.MustParseChargingStationID("DE*GEF*S" + suffix)
}

func evseID(suffix string) model.EVSEID { return model.MustParseEVSEID("DE*GEF*E" + suffix) }

// backend is a scripted command backend counting its calls.
type backend struct {
	mu    sync.Mutex
	calls map[string]int

	reserve func(charging.ReserveRequest) charging.ReservationResult
	start   func(charging.RemoteStartRequest) charging.RemoteStartResult

	statuses eventbus.Handlers[charging.EVSEStatusUpdate]
}

func (b *backend) count(name string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.calls == nil {
		b.calls = map[string]int{}
	}
	b.calls[name]++
}

func (b *backend) Calls(name string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls[name]
}

func (b *backend) Reserve(_ context.Context, req charging.ReserveRequest) charging.ReservationResult {
	b.count("Reserve")
	if b.reserve != nil {
		return b.reserve(req)
	}
	return charging.ReservationResult{Type: charging.ResultSuccess, Reservation: charging.NewReservation(req)}
}

func (b *backend) CancelReservation(_ context.Context, req charging.CancelReservationRequest) charging.CancelReservationResult {
	b.count("CancelReservation")
	return charging.CancelReservationResult{Type: charging.ResultSuccess, ReservationID: req.ReservationID}
}

func (b *backend) RemoteStart(_ context.Context, req charging.RemoteStartRequest) charging.RemoteStartResult {
	b.count("RemoteStart")
	if b.start != nil {
		return b.start(req)
	}
	return charging.RemoteStartResult{Type: charging.ResultSuccess, Session: charging.NewChargingSession(req)}
}

func (b *backend) RemoteStop(_ context.Context, req charging.RemoteStopRequest) charging.RemoteStopResult {
	b.count("RemoteStop")
	return charging.RemoteStopResult{Type: charging.ResultSuccess, SessionID: req.SessionID}
}

func (b *backend) OnEVSEStatusChanged(fn func(charging.EVSEStatusUpdate)) func() {
	return b.statuses.Add(fn)
}

type poolBackend struct {
	*backend
	id model.ChargingPoolID
}

func (p poolBackend) ID() model.ChargingPoolID { return p.id }

type stationBackend struct {
	*backend
	id model.ChargingStationID
}

func (s stationBackend) ID() model.ChargingStationID { return s.id }

// newStation builds a station with n EVSEs named <suffix>-<i>.
func newStation(suffix string, n int, b *backend) *charging.ChargingStation {
	var opts []charging.StationOption
	if b != nil {
		opts = append(opts, charging.WithRemoteChargingStation(stationBackend{backend: b, id: stationID(suffix)}))
	}
	st := charging.NewChargingStation(stationID(suffix), opts...)
	for i := 1; i <= n; i++ {
		e := charging.NewEVSE(evseID(suffix+"-"+string(rune('0'+i))),
			charging.WithEVSEStatus(model.EVSEStatusAvailable),
			charging.WithEVSEMaxPower(22))
		st.AddEVSE(e)
	}
	return st
}

var fixedNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func timeStep(i int) time.Duration { return time.Duration(i+1) * time.Hour }
