// Package virtual provides an in-memory charging pool backend. A
// ChargingPool keeps EVSE states, reservations and sessions in memory and
// implements charging.RemoteChargingPool, so a real charging.ChargingPool can
// delegate commands to it. Its stations implement
// charging.RemoteChargingStation.
package virtual
