package charging

import (
	"time"

	"github.com/kilianp07/wwcp/core/model"
)

// EVSEStatusReport summarizes the EVSE statuses of one station.
type EVSEStatusReport struct {
	StationID model.ChargingStationID
	Timestamp time.Time
	Statuses  map[model.EVSEID]model.EVSEStatus
}

// StationStatusReport summarizes the station statuses of one pool.
type StationStatusReport struct {
	PoolID    model.ChargingPoolID
	Timestamp time.Time
	Statuses  map[model.ChargingStationID]model.ChargingStationStatus
}

// StationStatusAggregator derives a station status from its EVSEs.
type StationStatusAggregator func(EVSEStatusReport) model.ChargingStationStatus

// PoolStatusAggregator derives a pool status from its stations.
type PoolStatusAggregator func(StationStatusReport) model.ChargingPoolStatus

// AvailabilityFirstStationStatus reports the most useful EVSE status: one
// available EVSE makes the station available.
func AvailabilityFirstStationStatus(r EVSEStatusReport) model.ChargingStationStatus {
	if len(r.Statuses) == 0 {
		return model.StationStatusUnknown
	}
	best := model.StationStatusUnknown
	for _, s := range r.Statuses {
		st := stationStatusOf(s)
		if model.AvailabilityRank(string(st)) < model.AvailabilityRank(string(best)) {
			best = st
		}
	}
	return best
}

// MajorityStationStatus reports the status shared by most EVSEs; ties go to
// the more useful status.
func MajorityStationStatus(r EVSEStatusReport) model.ChargingStationStatus {
	counts := make(map[model.ChargingStationStatus]int)
	for _, s := range r.Statuses {
		counts[stationStatusOf(s)]++
	}
	return majority(counts, model.StationStatusUnknown)
}

// AvailabilityFirstPoolStatus reports the most useful station status.
func AvailabilityFirstPoolStatus(r StationStatusReport) model.ChargingPoolStatus {
	if len(r.Statuses) == 0 {
		return model.PoolStatusUnknown
	}
	best := model.PoolStatusUnknown
	for _, s := range r.Statuses {
		ps := model.ChargingPoolStatus(s)
		if model.AvailabilityRank(string(ps)) < model.AvailabilityRank(string(best)) {
			best = ps
		}
	}
	return best
}

// MajorityPoolStatus reports the status shared by most stations.
func MajorityPoolStatus(r StationStatusReport) model.ChargingPoolStatus {
	counts := make(map[model.ChargingPoolStatus]int)
	for _, s := range r.Statuses {
		counts[model.ChargingPoolStatus(s)]++
	}
	return majority(counts, model.PoolStatusUnknown)
}

func majority[S ~string](counts map[S]int, fallback S) S {
	best, bestN := fallback, 0
	for s, n := range counts {
		if n > bestN || (n == bestN && model.AvailabilityRank(string(s)) < model.AvailabilityRank(string(best))) {
			best, bestN = s, n
		}
	}
	return best
}

// stationStatusOf maps an EVSE status onto the station status scale. A
// blocked EVSE cannot be used and counts as occupied.
func stationStatusOf(s model.EVSEStatus) model.ChargingStationStatus {
	switch s {
	case model.EVSEStatusAvailable:
		return model.StationStatusAvailable
	case model.EVSEStatusReserved:
		return model.StationStatusReserved
	case model.EVSEStatusCharging, model.EVSEStatusBlocked:
		return model.StationStatusCharging
	case model.EVSEStatusFaulted:
		return model.StationStatusFaulted
	case model.EVSEStatusOutOfService:
		return model.StationStatusOutOfService
	case model.EVSEStatusOffline:
		return model.StationStatusOffline
	default:
		return model.StationStatusUnknown
	}
}

// AggregatorByName resolves a configured aggregation strategy name.
func AggregatorByName(name string) (PoolStatusAggregator, StationStatusAggregator, bool) {
	switch name {
	case "", "availability_first":
		return AvailabilityFirstPoolStatus, AvailabilityFirstStationStatus, true
	case "majority":
		return MajorityPoolStatus, MajorityStationStatus, true
	case "none":
		return nil, nil, true
	}
	return nil, nil, false
}
