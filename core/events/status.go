package events

import "time"

// Entity kinds used in StatusEvent and PropertyEvent.
const (
	EntityChargingPool    = "ChargingPool"
	EntityChargingStation = "ChargingStation"
	EntityEVSE            = "EVSE"
)

// StatusEvent is published when the newest status or admin status of an
// entity changes. Admin is true for admin status changes.
type StatusEvent struct {
	Timestamp time.Time
	Entity    string
	ID        string
	PoolID    string
	Admin     bool
	Old       string
	New       string
}

// PropertyEvent is published for each tracked property change.
type PropertyEvent struct {
	Timestamp  time.Time
	Entity     string
	ID         string
	Property   string
	DataSource string
}

// StationEvent is published when a pool gains or loses a station.
type StationEvent struct {
	Timestamp time.Time
	PoolID    string
	StationID string
	Removed   bool
}
