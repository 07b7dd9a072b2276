package metrics

import "github.com/kilianp07/wwcp/core/factory"

// Config defines settings for metrics sinks.
type Config struct {
	Sinks []factory.ModuleConfig `json:"sinks"`
	// PrometheusAddr enables the /metrics endpoint when set, e.g. ":9090".
	PrometheusAddr string `json:"prometheus_addr"`
	// EventBuffer is the bus subscription capacity of the metrics collector.
	EventBuffer int `json:"event_buffer"`
}
