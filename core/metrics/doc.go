// Package metrics defines the sinks recording charging command outcomes and
// status changes. Sinks like the Prometheus and InfluxDB implementations in
// infra/metrics register here by type name; NewMetricsSink combines several
// configured sinks into a MultiSink. Optional capabilities are expressed as
// small recorder interfaces checked with type assertions.
package metrics
