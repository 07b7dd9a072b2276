// Package events defines the charging events published on the event bus.
//
// Available event types:
//   - CommandEvent: response of a reserve, cancel, remote start or remote stop command
//   - StatusEvent: status or admin status change of a pool, station or EVSE
//   - PropertyEvent: change of a tracked property
//   - StationEvent: station added to or removed from a pool
package events
