package model

// AdminStatus is the administrative state of a charging entity.
type AdminStatus string

const (
	AdminStatusUnknown      AdminStatus = "Unknown"
	AdminStatusOperational  AdminStatus = "Operational"
	AdminStatusInternalUse  AdminStatus = "InternalUse"
	AdminStatusOutOfService AdminStatus = "OutOfService"
	AdminStatusPlanned      AdminStatus = "Planned"
	AdminStatusInDeployment AdminStatus = "InDeployment"
	AdminStatusBlocked      AdminStatus = "Blocked"
	AdminStatusDeleted      AdminStatus = "Deleted"
)

// AllowsCommands reports whether reservations and remote start/stop may be
// processed in this administrative state.
func (s AdminStatus) AllowsCommands() bool {
	return s == AdminStatusOperational || s == AdminStatusInternalUse
}

func (s AdminStatus) String() string { return string(s) }

// EVSEStatus is the operational state of an EVSE.
type EVSEStatus string

const (
	EVSEStatusUnknown      EVSEStatus = "Unknown"
	EVSEStatusAvailable    EVSEStatus = "Available"
	EVSEStatusReserved     EVSEStatus = "Reserved"
	EVSEStatusCharging     EVSEStatus = "Charging"
	EVSEStatusBlocked      EVSEStatus = "Blocked"
	EVSEStatusFaulted      EVSEStatus = "Faulted"
	EVSEStatusOutOfService EVSEStatus = "OutOfService"
	EVSEStatusOffline      EVSEStatus = "Offline"
)

func (s EVSEStatus) String() string { return string(s) }

// ChargingStationStatus is the operational state of a charging station.
type ChargingStationStatus string

const (
	StationStatusUnknown      ChargingStationStatus = "Unknown"
	StationStatusAvailable    ChargingStationStatus = "Available"
	StationStatusReserved     ChargingStationStatus = "Reserved"
	StationStatusCharging     ChargingStationStatus = "Charging"
	StationStatusFaulted      ChargingStationStatus = "Faulted"
	StationStatusOutOfService ChargingStationStatus = "OutOfService"
	StationStatusOffline      ChargingStationStatus = "Offline"
)

func (s ChargingStationStatus) String() string { return string(s) }

// ChargingPoolStatus is the operational state of a charging pool.
type ChargingPoolStatus string

const (
	PoolStatusUnknown      ChargingPoolStatus = "Unknown"
	PoolStatusAvailable    ChargingPoolStatus = "Available"
	PoolStatusReserved     ChargingPoolStatus = "Reserved"
	PoolStatusCharging     ChargingPoolStatus = "Charging"
	PoolStatusFaulted      ChargingPoolStatus = "Faulted"
	PoolStatusOutOfService ChargingPoolStatus = "OutOfService"
	PoolStatusOffline      ChargingPoolStatus = "Offline"
)

func (s ChargingPoolStatus) String() string { return string(s) }

// availabilityRank orders statuses from most to least useful for a driver.
// Lower is better. Shared by the station and pool aggregation strategies.
var availabilityRank = map[string]int{
	"Available":    0,
	"Reserved":     1,
	"Charging":     2,
	"Blocked":      3,
	"Faulted":      4,
	"OutOfService": 5,
	"Offline":      6,
	"Unknown":      7,
}

// AvailabilityRank returns the rank of a status name, unknown names rank last.
func AvailabilityRank(status string) int {
	if r, ok := availabilityRank[status]; ok {
		return r
	}
	return len(availabilityRank)
}
