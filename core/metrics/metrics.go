package metrics

import "time"

// CommandRecord describes one processed charging command.
type CommandRecord struct {
	EventTrackingID string
	Command         string
	PoolID          string
	Location        string
	Result          string
	Description     string
	Runtime         time.Duration
	Time            time.Time
}

// MetricsSink records command outcomes for observability purposes.
type MetricsSink interface {
	RecordCommand(rec CommandRecord) error
}

// StatusRecord describes a status change of a pool, station or EVSE.
type StatusRecord struct {
	Entity string
	ID     string
	PoolID string
	Admin  bool
	Old    string
	New    string
	Time   time.Time
}

// StatusRecorder records status changes.
type StatusRecorder interface {
	RecordStatus(rec StatusRecord) error
}

// StationChange describes a station joining or leaving a pool.
type StationChange struct {
	PoolID    string
	StationID string
	Removed   bool
	Time      time.Time
}

// StationRecorder records station membership changes.
type StationRecorder interface {
	RecordStationChange(ev StationChange) error
}

// PowerRecord is a snapshot of the installed power of a pool.
type PowerRecord struct {
	PoolID      string
	EVSEs       int
	TotalKW     float64
	MaxKW       float64
	GridLimitKW float64
	Time        time.Time
}

// PowerRecorder records installed power snapshots.
type PowerRecorder interface {
	RecordPower(rec PowerRecord) error
}

// NopSink implements every recorder with no-op methods.
type NopSink struct{}

func (NopSink) RecordCommand(CommandRecord) error       { return nil }
func (NopSink) RecordStatus(StatusRecord) error         { return nil }
func (NopSink) RecordStationChange(StationChange) error { return nil }
func (NopSink) RecordPower(PowerRecord) error           { return nil }
