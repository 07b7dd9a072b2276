package charging

import "github.com/kilianp07/wwcp/core/model"

// Level is the granularity of a charging location.
type Level string

const (
	LevelEVSE            Level = "EVSE"
	LevelChargingStation Level = "ChargingStation"
	LevelChargingPool    Level = "ChargingPool"
)

// ChargingLocation addresses an EVSE, a station or a whole pool. The most
// specific id set wins.
type ChargingLocation struct {
	ChargingPoolID    model.ChargingPoolID    `json:"chargingPoolId,omitempty"`
	ChargingStationID model.ChargingStationID `json:"chargingStationId,omitempty"`
	EVSEID            model.EVSEID            `json:"evseId,omitempty"`
}

// AtEVSE returns the location of an EVSE.
func AtEVSE(id model.EVSEID) ChargingLocation { return ChargingLocation{EVSEID: id} }

// AtStation returns the location of a charging station.
func AtStation(id model.ChargingStationID) ChargingLocation {
	return ChargingLocation{ChargingStationID: id}
}

// AtPool returns the location of a charging pool.
func AtPool(id model.ChargingPoolID) ChargingLocation { return ChargingLocation{ChargingPoolID: id} }

// Level returns the granularity of the location.
func (l ChargingLocation) Level() Level {
	switch {
	case !l.EVSEID.IsZero():
		return LevelEVSE
	case !l.ChargingStationID.IsZero():
		return LevelChargingStation
	default:
		return LevelChargingPool
	}
}

func (l ChargingLocation) String() string {
	switch l.Level() {
	case LevelEVSE:
		return l.EVSEID.String()
	case LevelChargingStation:
		return l.ChargingStationID.String()
	default:
		return l.ChargingPoolID.String()
	}
}
