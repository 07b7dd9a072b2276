package mqtt

import "errors"

var (
	// ErrReplyTimeout is returned when no reply arrives before the deadline.
	ErrReplyTimeout = errors.New("timeout waiting for reply")
	// ErrNotConnected is returned when the broker connection is down.
	ErrNotConnected = errors.New("mqtt not connected")
)
