package charging_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/wwcp/core/charging"
	"github.com/kilianp07/wwcp/core/model"
)

func TestAddChargingStationSameOperator(t *testing.T) {
	p := charging.NewChargingPool(poolID)
	added := 0
	p.Events.StationAdded.Add(func(*charging.ChargingStation) { added++ })

	for _, suffix := range []string{"A", "B", "C"} {
		st := charging.NewChargingStation(stationID(suffix))
		res := p.AddChargingStation(st)
		require.Equal(t, charging.ChangeSuccess, res.Type, suffix)
		assert.True(t, p.ContainsChargingStation(st.ID()))
		assert.Same(t, p, st.Pool())
	}
	assert.Len(t, p.ChargingStations(), 3)
	assert.Equal(t, 3, added)
	assert.Equal(t, []model.ChargingStationID{stationID("A"), stationID("B"), stationID("C")}, p.ChargingStationIDs())
}

func TestAddChargingStationForeignOperator(t *testing.T) {
	p := charging.NewChargingPool(poolID)
	foreign := charging.NewChargingStation(model.MustParseChargingStationID("FR*XYZ*S1"))

	var errDesc string
	res := p.AddChargingStation(foreign, charging.OnError(func(_ *charging.ChargingStation, d string) { errDesc = d }))
	assert.Equal(t, charging.ChangeArgumentError, res.Type)
	assert.NotEmpty(t, errDesc)
	assert.False(t, p.ContainsChargingStation(foreign.ID()))
	assert.Nil(t, foreign.Pool())
	assert.NotEmpty(t, res.EventTrackingID)
}

func TestAddChargingStationForeignOperatorOverride(t *testing.T) {
	p := charging.NewChargingPool(poolID, charging.WithAllowForeignStation(func(id model.ChargingStationID) bool {
		return id.OperatorID().CountryCode == "FR"
	}))
	res := p.AddChargingStation(charging.NewChargingStation(model.MustParseChargingStationID("FR*XYZ*S1")))
	assert.Equal(t, charging.ChangeSuccess, res.Type)
}

func TestAddChargingStationNil(t *testing.T) {
	p := charging.NewChargingPool(poolID)
	assert.Equal(t, charging.ChangeArgumentError, p.AddChargingStation(nil).Type)
}

func TestAddChargingStationTwiceIsError(t *testing.T) {
	p := charging.NewChargingPool(poolID)
	require.Equal(t, charging.ChangeSuccess, p.AddChargingStation(charging.NewChargingStation(stationID("A"))).Type)
	res := p.AddChargingStation(charging.NewChargingStation(stationID("A")))
	assert.Equal(t, charging.ChangeError, res.Type)
	assert.Len(t, p.ChargingStations(), 1)
}

func TestAddChargingStationIfNotExistsKeepsExisting(t *testing.T) {
	p := charging.NewChargingPool(poolID)
	first := charging.NewChargingStation(stationID("A"))
	first.SetBrand("ACME")
	require.Equal(t, charging.ChangeSuccess, p.AddChargingStationIfNotExists(first).Type)

	second := charging.NewChargingStation(stationID("A"))
	second.SetBrand("Other")
	successCalls := 0
	res := p.AddChargingStationIfNotExists(second, charging.OnSuccess(func(*charging.ChargingStation) { successCalls++ }))

	assert.Equal(t, charging.ChangeNoOperation, res.Type)
	assert.Same(t, first, res.Station)
	got, ok := p.GetChargingStation(stationID("A"))
	require.True(t, ok)
	assert.Same(t, first, got)
	assert.Equal(t, "ACME", got.Brand())
	assert.Nil(t, second.Pool())
	assert.Equal(t, 0, successCalls)
}

func TestAddOrUpdateAndUpdateChargingStation(t *testing.T) {
	p := charging.NewChargingPool(poolID)
	a1 := charging.NewChargingStation(stationID("A"))
	assert.Equal(t, charging.ChangeAdded, p.AddOrUpdateChargingStation(a1).Type)

	a2 := charging.NewChargingStation(stationID("A"))
	assert.Equal(t, charging.ChangeUpdated, p.AddOrUpdateChargingStation(a2).Type)
	got, _ := p.GetChargingStation(stationID("A"))
	assert.Same(t, a2, got)
	assert.Nil(t, a1.Pool())

	a3 := charging.NewChargingStation(stationID("A"))
	assert.Equal(t, charging.ChangeUpdated, p.UpdateChargingStation(a3).Type)
	assert.Equal(t, charging.ChangeError, p.UpdateChargingStation(charging.NewChargingStation(stationID("Z"))).Type)
	assert.False(t, p.ContainsChargingStation(stationID("Z")))
}

func TestRemoveChargingStationDisconnects(t *testing.T) {
	p := charging.NewChargingPool(poolID)
	st := newStation("A", 1, nil)
	p.AddChargingStation(st)

	changes := 0
	p.Events.EVSEStatusChanged.Add(func(charging.EVSEStatusUpdate) { changes++ })

	res := p.RemoveChargingStation(st.ID())
	require.Equal(t, charging.ChangeSuccess, res.Type)
	assert.Nil(t, st.Pool())

	st.EVSEs()[0].SetStatus(model.EVSEStatusCharging, time.Time{}, "")
	assert.Equal(t, 0, changes)
	assert.Equal(t, charging.ChangeNoOperation, p.RemoveChargingStation(st.ID()).Type)
}

func TestStationBelongsToOnePool(t *testing.T) {
	p1 := charging.NewChargingPool(poolID)
	p2 := charging.NewChargingPool(model.MustParseChargingPoolID("DE*GEF*P2"))
	st := charging.NewChargingStation(stationID("A"))
	require.Equal(t, charging.ChangeSuccess, p1.AddChargingStation(st).Type)
	assert.Equal(t, charging.ChangeArgumentError, p2.AddChargingStation(st).Type)
}

func TestPoolEVSELookup(t *testing.T) {
	p := charging.NewChargingPool(poolID)
	p.AddChargingStation(newStation("A", 2, nil))
	p.AddChargingStation(newStation("B", 1, nil))
	assert.Len(t, p.EVSEs(), 3)
	assert.True(t, p.ContainsEVSE(evseID("B-1")))
	e, ok := p.GetEVSE(evseID("A-2"))
	require.True(t, ok)
	assert.Equal(t, stationID("A"), e.Station().ID())
}

func TestEnergyMeters(t *testing.T) {
	p := charging.NewChargingPool(poolID)
	assert.Equal(t, charging.ChangeSuccess, p.AddEnergyMeter(&charging.EnergyMeter{ID: "m2"}))
	assert.Equal(t, charging.ChangeSuccess, p.AddEnergyMeter(&charging.EnergyMeter{ID: "m1"}))
	assert.Equal(t, charging.ChangeNoOperation, p.AddEnergyMeter(&charging.EnergyMeter{ID: "m1"}))
	assert.Equal(t, charging.ChangeArgumentError, p.AddEnergyMeter(nil))
	meters := p.EnergyMeters()
	require.Len(t, meters, 2)
	assert.Equal(t, model.EnergyMeterID("m1"), meters[0].ID)
	assert.Equal(t, charging.ChangeSuccess, p.RemoveEnergyMeter("m1"))
	assert.Equal(t, charging.ChangeNoOperation, p.RemoveEnergyMeter("m1"))
}

func TestStationAddEVSENamespace(t *testing.T) {
	st := charging.NewChargingStation(stationID("A"))
	res := st.AddEVSE(charging.NewEVSE(model.MustParseEVSEID("FR*XYZ*E1")))
	assert.Equal(t, charging.ChangeArgumentError, res.Type)
	assert.Equal(t, charging.ChangeSuccess, st.AddEVSE(charging.NewEVSE(evseID("1"))).Type)
	assert.Equal(t, charging.ChangeError, st.AddEVSE(charging.NewEVSE(evseID("1"))).Type)
	assert.Equal(t, charging.ChangeSuccess, st.RemoveEVSE(evseID("1")).Type)
	assert.False(t, st.ContainsEVSE(evseID("1")))
}
