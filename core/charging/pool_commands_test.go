package charging_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/wwcp/core/charging"
	"github.com/kilianp07/wwcp/core/events"
	"github.com/kilianp07/wwcp/core/model"
	"github.com/kilianp07/wwcp/core/store"
	"github.com/kilianp07/wwcp/core/virtual"
	"github.com/kilianp07/wwcp/internal/eventbus"
)

func newCommandPool(t *testing.T, opts ...charging.PoolOption) (*charging.ChargingPool, *store.Memory) {
	t.Helper()
	mem := store.NewMemory()
	opts = append([]charging.PoolOption{
		charging.WithReservationStore(mem.Reservations()),
		charging.WithSessionStore(mem.Sessions()),
	}, opts...)
	return charging.NewChargingPool(poolID, opts...), mem
}

func TestReserveOutOfServiceSkipsRemote(t *testing.T) {
	for _, admin := range []model.AdminStatus{model.AdminStatusOutOfService, model.AdminStatusPlanned, model.AdminStatusBlocked} {
		b := &backend{}
		p, _ := newCommandPool(t, charging.WithRemoteChargingPool(poolBackend{backend: b, id: poolID}),
			charging.WithAdminStatus(admin))
		p.AddChargingStation(newStation("A", 1, b))

		res := p.Reserve(context.Background(), charging.ReserveRequest{Location: charging.AtPool(poolID)})
		assert.Equal(t, charging.ResultOutOfService, res.Type, admin)
		res = p.Reserve(context.Background(), charging.ReserveRequest{Location: charging.AtEVSE(evseID("A-1"))})
		assert.Equal(t, charging.ResultOutOfService, res.Type, admin)
		assert.Equal(t, 0, b.Calls("Reserve"))
	}
}

func TestReserveInternalUseIsAllowed(t *testing.T) {
	b := &backend{}
	p, _ := newCommandPool(t, charging.WithAdminStatus(model.AdminStatusInternalUse))
	p.AddChargingStation(newStation("A", 1, b))
	res := p.Reserve(context.Background(), charging.ReserveRequest{Location: charging.AtEVSE(evseID("A-1"))})
	assert.Equal(t, charging.ResultSuccess, res.Type)
	assert.Equal(t, 1, b.Calls("Reserve"))
}

func TestRemoteStartUnknownEVSE(t *testing.T) {
	b := &backend{}
	p, _ := newCommandPool(t)
	p.AddChargingStation(newStation("A", 1, b))
	res := p.RemoteStart(context.Background(), charging.RemoteStartRequest{Location: charging.AtEVSE(evseID("Z-9"))})
	assert.Equal(t, charging.ResultUnknownLocation, res.Type)
	assert.Equal(t, 0, b.Calls("RemoteStart"))
}

func TestReserveListenerPanicsDoNotAbort(t *testing.T) {
	b := &backend{}
	p, _ := newCommandPool(t)
	p.AddChargingStation(newStation("A", 1, b))
	p.Events.ReserveRequest.Add(func(charging.RequestEvent[charging.ReserveRequest]) { panic("request listener") })
	p.Events.ReserveResponse.Add(func(charging.ResponseEvent[charging.ReserveRequest, charging.ReservationResult]) {
		panic("response listener")
	})

	var res charging.ReservationResult
	require.NotPanics(t, func() {
		res = p.Reserve(context.Background(), charging.ReserveRequest{Location: charging.AtEVSE(evseID("A-1"))})
	})
	assert.Equal(t, charging.ResultSuccess, res.Type)
	require.NotNil(t, res.Reservation)
}

func TestReserveEVSELinksReservation(t *testing.T) {
	b := &backend{}
	bus := eventbus.New()
	sub := bus.Subscribe()
	p, mem := newCommandPool(t, charging.WithEventBus(bus))
	p.AddChargingStation(newStation("A", 2, b))

	var newRes *charging.Reservation
	p.Events.NewReservation.Add(func(r *charging.Reservation) { newRes = r })
	var resp charging.ResponseEvent[charging.ReserveRequest, charging.ReservationResult]
	p.Events.ReserveResponse.Add(func(e charging.ResponseEvent[charging.ReserveRequest, charging.ReservationResult]) { resp = e })

	res := p.Reserve(context.Background(), charging.ReserveRequest{
		Location:   charging.AtEVSE(evseID("A-2")),
		ProviderID: "DE-8PS",
		Duration:   30 * time.Minute,
	})
	require.True(t, res.Succeeded(), res.Description)
	r := res.Reservation
	assert.Equal(t, poolID, r.ChargingPoolID)
	assert.Same(t, p, r.Pool)
	assert.Equal(t, stationID("A"), r.ChargingStationID)
	assert.Equal(t, evseID("A-2"), r.EVSEID)
	assert.Equal(t, charging.LevelEVSE, r.Level)
	assert.Equal(t, 30*time.Minute, r.Duration)
	assert.Same(t, r, newRes)
	assert.NotEmpty(t, resp.Request.EventTrackingID)
	assert.Equal(t, charging.ResultSuccess, resp.Result.Type)

	stored, ok := mem.Reservations().Get(r.ID)
	require.True(t, ok)
	assert.Same(t, r, stored)

	e, _ := p.GetEVSE(evseID("A-2"))
	assert.Equal(t, r.ID, e.ReservationID())
	assert.Equal(t, model.EVSEStatusReserved, e.Status())

	var cmd events.CommandEvent
	timeout := time.After(time.Second)
	for cmd.Command == "" {
		select {
		case ev := <-sub:
			if c, ok := ev.(events.CommandEvent); ok {
				cmd = c
			}
		case <-timeout:
			t.Fatal("no command event published")
		}
	}
	assert.Equal(t, events.CommandReserve, cmd.Command)
	assert.Equal(t, "Success", cmd.Result)
	assert.Equal(t, poolID.String(), cmd.PoolID)
}

func TestCommandEventsUsePoolClock(t *testing.T) {
	bus := eventbus.New()
	sub := bus.Subscribe()
	p, _ := newCommandPool(t, charging.WithEventBus(bus), charging.WithClock(func() time.Time { return fixedNow }))
	p.AddChargingStation(newStation("A", 1, &backend{}))

	var req charging.RequestEvent[charging.ReserveRequest]
	var resp charging.ResponseEvent[charging.ReserveRequest, charging.ReservationResult]
	p.Events.ReserveRequest.Add(func(e charging.RequestEvent[charging.ReserveRequest]) { req = e })
	p.Events.ReserveResponse.Add(func(e charging.ResponseEvent[charging.ReserveRequest, charging.ReservationResult]) { resp = e })

	res := p.Reserve(context.Background(), charging.ReserveRequest{Location: charging.AtEVSE(evseID("A-1"))})
	require.True(t, res.Succeeded(), res.Description)
	assert.Equal(t, fixedNow, req.Timestamp)
	assert.Equal(t, fixedNow, resp.Timestamp)

	timeout := time.After(time.Second)
	for {
		select {
		case ev := <-sub:
			if c, ok := ev.(events.CommandEvent); ok {
				assert.Equal(t, fixedNow, c.Timestamp)
				return
			}
		case <-timeout:
			t.Fatal("no command event published")
		}
	}
}

func TestReleaseReservationsFreesLocalEVSEs(t *testing.T) {
	b := &backend{}
	p, _ := newCommandPool(t)
	p.AddChargingStation(newStation("A", 2, b))

	held := p.Reserve(context.Background(), charging.ReserveRequest{Location: charging.AtEVSE(evseID("A-1"))})
	require.True(t, held.Succeeded(), held.Description)
	kept := p.Reserve(context.Background(), charging.ReserveRequest{Location: charging.AtEVSE(evseID("A-2"))})
	require.True(t, kept.Succeeded(), kept.Description)

	assert.Equal(t, 1, p.ReleaseReservations(held.Reservation))
	e1, _ := p.GetEVSE(evseID("A-1"))
	assert.Empty(t, e1.ReservationID())
	assert.Equal(t, model.EVSEStatusAvailable, e1.Status())
	e2, _ := p.GetEVSE(evseID("A-2"))
	assert.Equal(t, kept.Reservation.ID, e2.ReservationID())
	assert.Equal(t, model.EVSEStatusReserved, e2.Status())

	assert.Equal(t, 0, p.ReleaseReservations(held.Reservation))
}

func TestReserveUnknownStation(t *testing.T) {
	p, _ := newCommandPool(t)
	res := p.Reserve(context.Background(), charging.ReserveRequest{Location: charging.AtStation(stationID("Q"))})
	assert.Equal(t, charging.ResultUnknownLocation, res.Type)
	res = p.Reserve(context.Background(), charging.ReserveRequest{Location: charging.AtPool(model.MustParseChargingPoolID("DE*GEF*P9"))})
	assert.Equal(t, charging.ResultUnknownLocation, res.Type)
}

func TestReserveWithoutBackendIsOffline(t *testing.T) {
	p, _ := newCommandPool(t)
	p.AddChargingStation(newStation("A", 1, nil))
	res := p.Reserve(context.Background(), charging.ReserveRequest{Location: charging.AtEVSE(evseID("A-1"))})
	assert.Equal(t, charging.ResultOffline, res.Type)
}

func TestReserveBackendPanicBecomesError(t *testing.T) {
	b := &backend{reserve: func(charging.ReserveRequest) charging.ReservationResult { panic("backend exploded") }}
	p, _ := newCommandPool(t)
	p.AddChargingStation(newStation("A", 1, b))

	var res charging.ReservationResult
	require.NotPanics(t, func() {
		res = p.Reserve(context.Background(), charging.ReserveRequest{Location: charging.AtEVSE(evseID("A-1"))})
	})
	assert.Equal(t, charging.ResultError, res.Type)
	assert.Contains(t, res.Description, "backend exploded")
}

func TestPoolLevelReservationFansOut(t *testing.T) {
	ok := &backend{}
	busy := &backend{reserve: func(charging.ReserveRequest) charging.ReservationResult {
		return charging.ReservationResult{Type: charging.ResultAlreadyReserved}
	}}
	p, mem := newCommandPool(t)
	p.AddChargingStation(newStation("A", 1, ok))
	p.AddChargingStation(newStation("B", 1, busy))
	p.AddChargingStation(newStation("C", 1, ok))

	res := p.Reserve(context.Background(), charging.ReserveRequest{Location: charging.AtPool(poolID)})
	require.Equal(t, charging.ResultSuccess, res.Type)
	parent := res.Reservation
	assert.Equal(t, charging.LevelChargingPool, parent.Level)
	require.Len(t, parent.SubReservations, 2)
	for _, sub := range parent.SubReservations {
		assert.Equal(t, poolID, sub.ChargingPoolID)
		assert.NotEqual(t, parent.ID, sub.ID)
	}
	assert.Equal(t, stationID("A"), parent.SubReservations[0].ChargingStationID)
	assert.Equal(t, stationID("C"), parent.SubReservations[1].ChargingStationID)
	assert.Len(t, mem.Reservations().List(), 1)

	cancel := p.CancelReservation(context.Background(), charging.CancelReservationRequest{ReservationID: parent.ID})
	require.Equal(t, charging.ResultSuccess, cancel.Type)
	assert.Equal(t, 2, ok.Calls("CancelReservation"))
	stored, _ := mem.Reservations().Get(parent.ID)
	assert.Equal(t, charging.ReservationCanceled, stored.Status)
	for _, sub := range stored.SubReservations {
		assert.Equal(t, charging.ReservationCanceled, sub.Status)
	}
}

// newVirtualBackedPool builds a pool without pool backend whose stations A
// and B each drive one EVSE of a virtual pool.
func newVirtualBackedPool(t *testing.T) (*charging.ChargingPool, *store.Memory, *virtual.ChargingPool) {
	t.Helper()
	vp := virtual.NewChargingPool(poolID)
	p, mem := newCommandPool(t)
	for _, s := range []string{"A", "B"} {
		vs := vp.AddChargingStation(stationID(s))
		ve := vs.AddEVSE(evseID(s + "-1"))
		st := charging.NewChargingStation(stationID(s), charging.WithRemoteChargingStation(vs))
		st.AddEVSE(charging.NewEVSE(ve.ID(), charging.WithEVSEStatus(ve.Status())))
		require.Equal(t, charging.ChangeSuccess, p.AddChargingStation(st).Type)
	}
	return p, mem, vp
}

func TestRemoteStartRedeemsPoolLevelReservation(t *testing.T) {
	ctx := context.Background()
	p, mem, vp := newVirtualBackedPool(t)

	res := p.Reserve(ctx, charging.ReserveRequest{Location: charging.AtPool(poolID)})
	require.True(t, res.Succeeded(), res.Description)
	parent := res.Reservation
	require.Len(t, parent.SubReservations, 2)

	start := p.RemoteStart(ctx, charging.RemoteStartRequest{ReservationID: parent.ID})
	require.True(t, start.Succeeded(), start.Description)
	assert.Equal(t, evseID("A-1"), start.Session.EVSEID)
	assert.Equal(t, poolID, start.Session.ChargingPoolID)

	stored, ok := mem.Reservations().Get(parent.ID)
	require.True(t, ok)
	assert.Equal(t, charging.ReservationUsed, stored.Status)
	assert.Equal(t, charging.ReservationUsed, stored.SubReservations[0].Status)
	assert.Equal(t, charging.ReservationCanceled, stored.SubReservations[1].Status)

	// the station that was not used is released at both ends
	vb, _ := vp.EVSE(evseID("B-1"))
	assert.Equal(t, model.EVSEStatusAvailable, vb.Status())
	b, _ := p.GetEVSE(evseID("B-1"))
	assert.Equal(t, model.EVSEStatusAvailable, b.Status())
	assert.Empty(t, b.ReservationID())

	again := p.RemoteStart(ctx, charging.RemoteStartRequest{ReservationID: parent.ID})
	assert.Equal(t, charging.ResultUnknownReservation, again.Type)
}

func TestRemoteStartPoolLevelReservationSkipsRefusingStation(t *testing.T) {
	ctx := context.Background()
	p, mem, _ := newVirtualBackedPool(t)
	res := p.Reserve(ctx, charging.ReserveRequest{Location: charging.AtPool(poolID)})
	require.True(t, res.Succeeded(), res.Description)

	st, _ := p.GetChargingStation(stationID("A"))
	st.SetAdminStatus(model.AdminStatusOutOfService, time.Time{}, "")

	start := p.RemoteStart(ctx, charging.RemoteStartRequest{ReservationID: res.Reservation.ID})
	require.True(t, start.Succeeded(), start.Description)
	assert.Equal(t, evseID("B-1"), start.Session.EVSEID)
	stored, _ := mem.Reservations().Get(res.Reservation.ID)
	assert.Equal(t, charging.ReservationUsed, stored.Status)
	assert.Equal(t, charging.ReservationUsed, stored.SubReservations[1].Status)
}

func TestPoolLevelCancelReportsRefusingStations(t *testing.T) {
	ctx := context.Background()
	b := &backend{}
	p, mem := newCommandPool(t)
	stA, stB := newStation("A", 1, b), newStation("B", 1, b)
	p.AddChargingStation(stA)
	p.AddChargingStation(stB)
	res := p.Reserve(ctx, charging.ReserveRequest{Location: charging.AtPool(poolID)})
	require.True(t, res.Succeeded())
	id := res.Reservation.ID

	stA.SetAdminStatus(model.AdminStatusOutOfService, time.Time{}, "")
	stB.SetAdminStatus(model.AdminStatusOutOfService, time.Time{}, "")
	cancel := p.CancelReservation(ctx, charging.CancelReservationRequest{ReservationID: id})
	assert.Equal(t, charging.ResultOutOfService, cancel.Type)
	assert.Contains(t, cancel.Description, "OutOfService")
	stored, _ := mem.Reservations().Get(id)
	assert.Equal(t, charging.ReservationActive, stored.Status)
	for _, sub := range stored.SubReservations {
		assert.Equal(t, charging.ReservationActive, sub.Status)
	}
	assert.Equal(t, 0, b.Calls("CancelReservation"))

	stA.SetAdminStatus(model.AdminStatusOperational, time.Time{}, "")
	cancel = p.CancelReservation(ctx, charging.CancelReservationRequest{ReservationID: id})
	assert.Equal(t, charging.ResultError, cancel.Type)
	assert.Contains(t, cancel.Description, "canceled 1 of 2")
	stored, _ = mem.Reservations().Get(id)
	assert.Equal(t, charging.ReservationActive, stored.Status)
	assert.Equal(t, charging.ReservationCanceled, stored.SubReservations[0].Status)
	assert.Equal(t, charging.ReservationActive, stored.SubReservations[1].Status)

	stB.SetAdminStatus(model.AdminStatusOperational, time.Time{}, "")
	cancel = p.CancelReservation(ctx, charging.CancelReservationRequest{ReservationID: id})
	require.Equal(t, charging.ResultSuccess, cancel.Type)
	assert.Equal(t, 2, b.Calls("CancelReservation"))
	stored, _ = mem.Reservations().Get(id)
	assert.Equal(t, charging.ReservationCanceled, stored.Status)
}

func TestPoolLevelReservationNoStationAccepts(t *testing.T) {
	busy := &backend{reserve: func(charging.ReserveRequest) charging.ReservationResult {
		return charging.ReservationResult{Type: charging.ResultAlreadyInUse}
	}}
	p, _ := newCommandPool(t)
	p.AddChargingStation(newStation("A", 1, busy))
	res := p.Reserve(context.Background(), charging.ReserveRequest{})
	assert.Equal(t, charging.ResultNoEVSEsAvailable, res.Type)

	empty, _ := newCommandPool(t)
	assert.Equal(t, charging.ResultNoEVSEsAvailable, empty.Reserve(context.Background(), charging.ReserveRequest{}).Type)
}

func TestPoolLevelReservationUsesRemotePool(t *testing.T) {
	b := &backend{}
	p, _ := newCommandPool(t, charging.WithRemoteChargingPool(poolBackend{backend: b, id: poolID}))
	p.AddChargingStation(newStation("A", 1, nil))
	res := p.Reserve(context.Background(), charging.ReserveRequest{Location: charging.AtPool(poolID)})
	require.Equal(t, charging.ResultSuccess, res.Type)
	assert.Equal(t, 1, b.Calls("Reserve"))
	assert.Empty(t, res.Reservation.SubReservations)

	// stations without their own backend use the pool backend
	res = p.Reserve(context.Background(), charging.ReserveRequest{Location: charging.AtEVSE(evseID("A-1"))})
	require.Equal(t, charging.ResultSuccess, res.Type)
	assert.Equal(t, 2, b.Calls("Reserve"))
}

func TestCancelUnknownReservation(t *testing.T) {
	p, _ := newCommandPool(t)
	res := p.CancelReservation(context.Background(), charging.CancelReservationRequest{ReservationID: "nope"})
	assert.Equal(t, charging.ResultUnknownReservation, res.Type)
}

func TestCancelReservationFreesEVSE(t *testing.T) {
	b := &backend{}
	p, mem := newCommandPool(t)
	p.AddChargingStation(newStation("A", 1, b))
	r := p.Reserve(context.Background(), charging.ReserveRequest{Location: charging.AtEVSE(evseID("A-1"))})
	require.True(t, r.Succeeded())

	var canceled *charging.Reservation
	p.Events.ReservationCanceled.Add(func(c *charging.Reservation) { canceled = c })
	res := p.CancelReservation(context.Background(), charging.CancelReservationRequest{ReservationID: r.Reservation.ID})
	require.Equal(t, charging.ResultSuccess, res.Type)
	require.NotNil(t, canceled)
	assert.Equal(t, charging.ReservationCanceled, canceled.Status)

	e, _ := p.GetEVSE(evseID("A-1"))
	assert.Equal(t, model.EVSEStatusAvailable, e.Status())
	assert.Empty(t, e.ReservationID())
	stored, _ := mem.Reservations().Get(r.Reservation.ID)
	assert.Equal(t, charging.ReservationCanceled, stored.Status)

	again := p.CancelReservation(context.Background(), charging.CancelReservationRequest{ReservationID: r.Reservation.ID})
	assert.Equal(t, charging.ResultUnknownReservation, again.Type)
}

func TestRemoteStartAndStop(t *testing.T) {
	b := &backend{}
	p, mem := newCommandPool(t)
	p.AddChargingStation(newStation("A", 1, b))

	var started, stopped *charging.ChargingSession
	p.Events.NewChargingSession.Add(func(s *charging.ChargingSession) { started = s })
	p.Events.ChargingSessionStopped.Add(func(s *charging.ChargingSession) { stopped = s })

	start := p.RemoteStart(context.Background(), charging.RemoteStartRequest{Location: charging.AtEVSE(evseID("A-1"))})
	require.True(t, start.Succeeded(), start.Description)
	sess := start.Session
	assert.Same(t, sess, started)
	assert.Equal(t, poolID, sess.ChargingPoolID)
	assert.Equal(t, stationID("A"), sess.ChargingStationID)
	e, _ := p.GetEVSE(evseID("A-1"))
	assert.Equal(t, model.EVSEStatusCharging, e.Status())
	assert.Equal(t, sess.ID, e.SessionID())
	assert.Equal(t, model.PoolStatusCharging, p.Status())

	stop := p.RemoteStop(context.Background(), charging.RemoteStopRequest{SessionID: sess.ID})
	require.Equal(t, charging.ResultSuccess, stop.Type)
	require.NotNil(t, stopped)
	assert.False(t, stopped.Stop.IsZero())
	assert.Equal(t, model.EVSEStatusAvailable, e.Status())
	stored, _ := mem.Sessions().Get(sess.ID)
	assert.False(t, stored.Running())

	again := p.RemoteStop(context.Background(), charging.RemoteStopRequest{SessionID: sess.ID})
	assert.Equal(t, charging.ResultInvalidSessionID, again.Type)
}

func TestRemoteStartWithReservationMarksItUsed(t *testing.T) {
	b := &backend{}
	p, mem := newCommandPool(t)
	p.AddChargingStation(newStation("A", 2, b))
	r := p.Reserve(context.Background(), charging.ReserveRequest{Location: charging.AtEVSE(evseID("A-2"))})
	require.True(t, r.Succeeded())

	start := p.RemoteStart(context.Background(), charging.RemoteStartRequest{ReservationID: r.Reservation.ID})
	require.True(t, start.Succeeded(), start.Description)
	assert.Equal(t, evseID("A-2"), start.Session.EVSEID)
	stored, _ := mem.Reservations().Get(r.Reservation.ID)
	assert.Equal(t, charging.ReservationUsed, stored.Status)
}

func TestRemoteStopUnknownSession(t *testing.T) {
	p, _ := newCommandPool(t)
	res := p.RemoteStop(context.Background(), charging.RemoteStopRequest{SessionID: "missing"})
	assert.Equal(t, charging.ResultInvalidSessionID, res.Type)
}

func TestStationAdminStatusGate(t *testing.T) {
	b := &backend{}
	p, _ := newCommandPool(t)
	st := newStation("A", 1, b)
	p.AddChargingStation(st)
	st.SetAdminStatus(model.AdminStatusOutOfService, time.Time{}, "")
	res := p.Reserve(context.Background(), charging.ReserveRequest{Location: charging.AtEVSE(evseID("A-1"))})
	assert.Equal(t, charging.ResultOutOfService, res.Type)

	st.SetAdminStatus(model.AdminStatusOperational, time.Time{}, "")
	st.EVSEs()[0].SetAdminStatus(model.AdminStatusBlocked, time.Time{}, "")
	res = p.Reserve(context.Background(), charging.ReserveRequest{Location: charging.AtEVSE(evseID("A-1"))})
	assert.Equal(t, charging.ResultOutOfService, res.Type)
	assert.Equal(t, 0, b.Calls("Reserve"))
}
