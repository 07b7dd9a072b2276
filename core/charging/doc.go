// Package charging models the entity graph of a charging network: charging
// pools own charging stations, charging stations own EVSEs.
//
// Every entity tracks its mutable properties through core/entity and keeps
// bounded status histories through core/status. Status changes flow upwards:
// an EVSE status change is aggregated into its station status, a station
// status change into its pool status.
//
// Reserve, CancelReservation, RemoteStart and RemoteStop run the same
// template on pools and stations: request event, admin status gate, target
// resolution, delegation to a remote backend, result linking and response
// event. The command surface never panics; failures are typed results.
package charging
