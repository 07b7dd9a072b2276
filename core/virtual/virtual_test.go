package virtual_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/wwcp/core/charging"
	"github.com/kilianp07/wwcp/core/model"
	"github.com/kilianp07/wwcp/core/virtual"
)

var (
	poolID = model.MustParseChargingPoolID("DE*GEF*P1")
	t0     = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
)

func stationID(s string) model.ChargingStationID {
	return model.MustParseChargingStationID("DE*GEF*S" + s)
}

func evseID(s string) model.EVSEID { return model.MustParseEVSEID("DE*GEF*E" + s) }

// newPool builds a pool with stations A and B holding two EVSEs each.
func newPool(opts ...virtual.Option) *virtual.ChargingPool {
	p := virtual.NewChargingPool(poolID, opts...)
	for _, s := range []string{"A", "B"} {
		st := p.AddChargingStation(stationID(s))
		st.AddEVSE(evseID(s+"1"), virtual.WithMaxPower(22))
		st.AddEVSE(evseID(s+"2"), virtual.WithMaxPower(22))
	}
	return p
}

func TestReserveEVSERules(t *testing.T) {
	ctx := context.Background()
	p := newPool()

	res := p.Reserve(ctx, charging.ReserveRequest{ReservationID: "R1", Location: charging.AtEVSE(evseID("A1"))})
	require.Equal(t, charging.ResultSuccess, res.Type)
	assert.Equal(t, stationID("A"), res.Reservation.ChargingStationID)
	e, _ := p.EVSE(evseID("A1"))
	assert.Equal(t, model.EVSEStatusReserved, e.Status())
	assert.Equal(t, model.ReservationID("R1"), e.ReservationID())

	res = p.Reserve(ctx, charging.ReserveRequest{Location: charging.AtEVSE(evseID("A1"))})
	assert.Equal(t, charging.ResultAlreadyReserved, res.Type)

	start := p.RemoteStart(ctx, charging.RemoteStartRequest{Location: charging.AtEVSE(evseID("A2"))})
	require.Equal(t, charging.ResultSuccess, start.Type)
	res = p.Reserve(ctx, charging.ReserveRequest{Location: charging.AtEVSE(evseID("A2"))})
	assert.Equal(t, charging.ResultAlreadyInUse, res.Type)

	b1, _ := p.EVSE(evseID("B1"))
	b1.SetStatus(model.EVSEStatusFaulted)
	res = p.Reserve(ctx, charging.ReserveRequest{Location: charging.AtEVSE(evseID("B1"))})
	assert.Equal(t, charging.ResultOutOfService, res.Type)

	b2, _ := p.EVSE(evseID("B2"))
	b2.SetAdminStatus(model.AdminStatusBlocked)
	res = p.Reserve(ctx, charging.ReserveRequest{Location: charging.AtEVSE(evseID("B2"))})
	assert.Equal(t, charging.ResultOutOfService, res.Type)

	res = p.Reserve(ctx, charging.ReserveRequest{Location: charging.AtEVSE(evseID("Z9"))})
	assert.Equal(t, charging.ResultUnknownLocation, res.Type)
}

func TestReserveIsIdempotentPerID(t *testing.T) {
	p := newPool()
	req := charging.ReserveRequest{ReservationID: "R1", Location: charging.AtEVSE(evseID("A1"))}
	first := p.Reserve(context.Background(), req)
	again := p.Reserve(context.Background(), req)
	require.Equal(t, charging.ResultSuccess, again.Type)
	assert.Equal(t, first.Reservation.ID, again.Reservation.ID)
	assert.Len(t, p.Reservations(), 1)
}

func TestStationLevelReservePicksAvailableEVSE(t *testing.T) {
	p := newPool()
	ctx := context.Background()
	r1 := p.Reserve(ctx, charging.ReserveRequest{Location: charging.AtStation(stationID("A"))})
	r2 := p.Reserve(ctx, charging.ReserveRequest{Location: charging.AtStation(stationID("A"))})
	r3 := p.Reserve(ctx, charging.ReserveRequest{Location: charging.AtStation(stationID("A"))})
	require.Equal(t, charging.ResultSuccess, r1.Type)
	require.Equal(t, charging.ResultSuccess, r2.Type)
	assert.Equal(t, evseID("A1"), r1.Reservation.EVSEID)
	assert.Equal(t, evseID("A2"), r2.Reservation.EVSEID)
	assert.Equal(t, charging.ResultNoEVSEsAvailable, r3.Type)
}

func TestPoolLevelReservationFansOut(t *testing.T) {
	p := newPool()
	ctx := context.Background()
	res := p.Reserve(ctx, charging.ReserveRequest{})
	require.Equal(t, charging.ResultSuccess, res.Type)
	r := res.Reservation
	assert.Equal(t, charging.LevelChargingPool, r.Level)
	require.Len(t, r.SubReservations, 2)
	assert.Equal(t, evseID("A1"), r.SubReservations[0].EVSEID)
	assert.Equal(t, evseID("B1"), r.SubReservations[1].EVSEID)

	start := p.RemoteStart(ctx, charging.RemoteStartRequest{ReservationID: r.ID})
	require.Equal(t, charging.ResultSuccess, start.Type)
	assert.Equal(t, evseID("A1"), start.Session.EVSEID)

	used, ok := p.Reservation(r.ID)
	require.True(t, ok)
	assert.Equal(t, charging.ReservationUsed, used.Status)
	b1, _ := p.EVSE(evseID("B1"))
	assert.Equal(t, model.EVSEStatusAvailable, b1.Status(), "other stations are released")
	assert.Empty(t, b1.ReservationID())
}

func TestRemoteStartOnReservedEVSENeedsReservation(t *testing.T) {
	p := newPool()
	ctx := context.Background()
	res := p.Reserve(ctx, charging.ReserveRequest{Location: charging.AtEVSE(evseID("A1"))})
	require.True(t, res.Succeeded())

	start := p.RemoteStart(ctx, charging.RemoteStartRequest{Location: charging.AtEVSE(evseID("A1"))})
	assert.Equal(t, charging.ResultAlreadyReserved, start.Type)

	start = p.RemoteStart(ctx, charging.RemoteStartRequest{ReservationID: "missing", Location: charging.AtEVSE(evseID("A1"))})
	assert.Equal(t, charging.ResultUnknownReservation, start.Type)

	start = p.RemoteStart(ctx, charging.RemoteStartRequest{ReservationID: res.Reservation.ID, Location: charging.AtEVSE(evseID("A1"))})
	require.Equal(t, charging.ResultSuccess, start.Type)
	e, _ := p.EVSE(evseID("A1"))
	assert.Equal(t, model.EVSEStatusCharging, e.Status())
	assert.Equal(t, start.Session.ID, e.SessionID())
	assert.Empty(t, e.ReservationID())
}

func TestRemoteStopFreesEVSE(t *testing.T) {
	p := newPool(virtual.WithClock(func() time.Time { return t0 }))
	ctx := context.Background()
	start := p.RemoteStart(ctx, charging.RemoteStartRequest{Location: charging.AtEVSE(evseID("B2"))})
	require.True(t, start.Succeeded())

	stop := p.RemoteStop(ctx, charging.RemoteStopRequest{SessionID: start.Session.ID})
	require.Equal(t, charging.ResultSuccess, stop.Type)
	assert.Equal(t, t0, stop.Session.Stop)
	e, _ := p.EVSE(evseID("B2"))
	assert.Equal(t, model.EVSEStatusAvailable, e.Status())
	assert.Empty(t, e.SessionID())

	again := p.RemoteStop(ctx, charging.RemoteStopRequest{SessionID: start.Session.ID})
	assert.Equal(t, charging.ResultInvalidSessionID, again.Type)
	unknown := p.RemoteStop(ctx, charging.RemoteStopRequest{SessionID: "nope"})
	assert.Equal(t, charging.ResultInvalidSessionID, unknown.Type)
}

func TestCancelReservation(t *testing.T) {
	p := newPool()
	ctx := context.Background()
	res := p.Reserve(ctx, charging.ReserveRequest{})
	require.True(t, res.Succeeded())

	cancel := p.CancelReservation(ctx, charging.CancelReservationRequest{ReservationID: res.Reservation.ID})
	require.Equal(t, charging.ResultSuccess, cancel.Type)
	assert.Equal(t, charging.ReservationCanceled, cancel.Reservation.Status)
	for _, id := range []model.EVSEID{evseID("A1"), evseID("B1")} {
		e, _ := p.EVSE(id)
		assert.Equal(t, model.EVSEStatusAvailable, e.Status(), id.String())
	}

	again := p.CancelReservation(ctx, charging.CancelReservationRequest{ReservationID: res.Reservation.ID})
	assert.Equal(t, charging.ResultUnknownReservation, again.Type)
}

func TestReturnedValuesAreCopies(t *testing.T) {
	p := newPool()
	res := p.Reserve(context.Background(), charging.ReserveRequest{Location: charging.AtEVSE(evseID("A1"))})
	require.True(t, res.Succeeded())
	res.Reservation.Status = charging.ReservationExpired

	stored, _ := p.Reservation(res.Reservation.ID)
	assert.Equal(t, charging.ReservationActive, stored.Status)
}

func TestExpireReservations(t *testing.T) {
	p := newPool()
	ctx := context.Background()
	short := p.Reserve(ctx, charging.ReserveRequest{StartTime: t0, Duration: time.Minute, Location: charging.AtEVSE(evseID("A1"))})
	long := p.Reserve(ctx, charging.ReserveRequest{StartTime: t0, Duration: time.Hour, Location: charging.AtEVSE(evseID("A2"))})
	require.True(t, short.Succeeded())
	require.True(t, long.Succeeded())

	expired := p.ExpireReservations(t0.Add(10 * time.Minute))
	require.Len(t, expired, 1)
	assert.Equal(t, short.Reservation.ID, expired[0].ID)
	assert.Equal(t, charging.ReservationExpired, expired[0].Status)

	a1, _ := p.EVSE(evseID("A1"))
	a2, _ := p.EVSE(evseID("A2"))
	assert.Equal(t, model.EVSEStatusAvailable, a1.Status())
	assert.Equal(t, model.EVSEStatusReserved, a2.Status())
	assert.Empty(t, p.ExpireReservations(t0.Add(10*time.Minute)))
}

func TestAdminStatusGates(t *testing.T) {
	p := newPool(virtual.WithAdminStatus(model.AdminStatusOutOfService))
	res := p.Reserve(context.Background(), charging.ReserveRequest{})
	assert.Equal(t, charging.ResultOutOfService, res.Type)

	p.SetAdminStatus(model.AdminStatusOperational)
	st, _ := p.ChargingStation(stationID("A"))
	st.SetAdminStatus(model.AdminStatusPlanned)
	res = p.Reserve(context.Background(), charging.ReserveRequest{Location: charging.AtEVSE(evseID("A1"))})
	assert.Equal(t, charging.ResultOutOfService, res.Type)
}

func TestResponseDelayHonoursContext(t *testing.T) {
	p := newPool(virtual.WithResponseDelay(time.Second))
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	res := p.Reserve(ctx, charging.ReserveRequest{})
	assert.Equal(t, charging.ResultTimeout, res.Type)
	assert.Empty(t, p.Reservations())
}

func TestStationScope(t *testing.T) {
	p := newPool()
	a, _ := p.ChargingStation(stationID("A"))
	ctx := context.Background()

	res := a.Reserve(ctx, charging.ReserveRequest{Location: charging.AtEVSE(evseID("B1"))})
	assert.Equal(t, charging.ResultUnknownLocation, res.Type)
	res = a.Reserve(ctx, charging.ReserveRequest{Location: charging.AtPool(poolID)})
	assert.Equal(t, charging.ResultUnknownLocation, res.Type)

	b, _ := p.ChargingStation(stationID("B"))
	r := b.Reserve(ctx, charging.ReserveRequest{Location: charging.AtEVSE(evseID("B1"))})
	require.True(t, r.Succeeded())
	cancel := a.CancelReservation(ctx, charging.CancelReservationRequest{ReservationID: r.Reservation.ID})
	assert.Equal(t, charging.ResultUnknownReservation, cancel.Type)
}

func TestStatusUpdates(t *testing.T) {
	p := newPool()
	defer p.Close()
	stream := p.StatusUpdates()

	a, _ := p.ChargingStation(stationID("A"))
	var fromA, fromPool []charging.EVSEStatusUpdate
	a.OnEVSEStatusChanged(func(u charging.EVSEStatusUpdate) { fromA = append(fromA, u) })
	p.OnEVSEStatusChanged(func(u charging.EVSEStatusUpdate) { fromPool = append(fromPool, u) })
	p.OnEVSEStatusChanged(func(charging.EVSEStatusUpdate) { panic("listener") })

	e, _ := p.EVSE(evseID("B1"))
	require.NotPanics(t, func() { e.SetStatus(model.EVSEStatusFaulted) })
	e.SetStatus(model.EVSEStatusFaulted)
	a1, _ := p.EVSE(evseID("A1"))
	a1.SetStatus(model.EVSEStatusOffline)

	assert.Len(t, fromPool, 2)
	require.Len(t, fromA, 1)
	assert.Equal(t, evseID("A1"), fromA[0].ID)
	assert.Equal(t, model.EVSEStatusAvailable, fromA[0].Old)
	assert.Equal(t, model.EVSEStatusOffline, fromA[0].New)

	select {
	case u := <-stream:
		assert.Equal(t, evseID("B1"), u.ID)
	case <-time.After(time.Second):
		t.Fatal("no streamed update")
	}
}

func TestMirroredByChargingStation(t *testing.T) {
	vp := newPool()
	va, _ := vp.ChargingStation(stationID("A"))

	p := charging.NewChargingPool(poolID, charging.WithRemoteChargingPool(vp))
	st := charging.NewChargingStation(stationID("A"), charging.WithRemoteChargingStation(va))
	for _, ve := range va.EVSEs() {
		st.AddEVSE(charging.NewEVSE(ve.ID(), charging.WithEVSEStatus(ve.Status())))
	}
	require.Equal(t, charging.ChangeSuccess, p.AddChargingStation(st).Type)

	res := p.Reserve(context.Background(), charging.ReserveRequest{Location: charging.AtEVSE(evseID("A2"))})
	require.True(t, res.Succeeded(), res.Description)
	assert.Equal(t, poolID, res.Reservation.ChargingPoolID)

	ve, _ := vp.EVSE(evseID("A2"))
	assert.Equal(t, model.EVSEStatusReserved, ve.Status())

	ve1, _ := vp.EVSE(evseID("A1"))
	ve1.SetStatus(model.EVSEStatusFaulted)
	e1, _ := st.GetEVSE(evseID("A1"))
	assert.Equal(t, model.EVSEStatusFaulted, e1.Status())
}
