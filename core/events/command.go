package events

import "time"

// Command names used in CommandEvent.
const (
	CommandReserve           = "Reserve"
	CommandCancelReservation = "CancelReservation"
	CommandRemoteStart       = "RemoteStart"
	CommandRemoteStop        = "RemoteStop"
)

// CommandEvent is published once per command with its final result.
type CommandEvent struct {
	Timestamp       time.Time
	EventTrackingID string
	Command         string
	PoolID          string
	Location        string
	Result          string
	Description     string
	Runtime         time.Duration
}
