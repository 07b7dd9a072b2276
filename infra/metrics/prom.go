package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/kilianp07/wwcp/core/metrics"
)

// PromSink records charging commands and status changes in Prometheus
// metrics.
type PromSink struct {
	commands *prometheus.CounterVec
	runtime  *prometheus.HistogramVec
	statuses *prometheus.CounterVec
	stations *prometheus.GaugeVec
	power    *prometheus.GaugeVec
}

// NewPromSink registers the metrics on the default Prometheus registerer.
// The HTTP endpoint is served separately by StartPromServer.
func NewPromSink() (*PromSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer. Metrics
// registered before, e.g. by a second sink, are reused.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	commands, err := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "wwcp_commands_total",
		Help: "Total number of processed charging commands",
	}, []string{"command", "result"}))
	if err != nil {
		return nil, err
	}
	runtime, err := register(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "wwcp_command_runtime_seconds",
		Help:    "Time spent processing a charging command",
		Buckets: prometheus.DefBuckets,
	}, []string{"command"}))
	if err != nil {
		return nil, err
	}
	statuses, err := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "wwcp_status_changes_total",
		Help: "Number of status changes by entity kind and new status",
	}, []string{"entity", "kind", "status"}))
	if err != nil {
		return nil, err
	}
	stations, err := register(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "wwcp_pool_stations",
		Help: "Number of charging stations per pool",
	}, []string{"pool_id"}))
	if err != nil {
		return nil, err
	}
	power, err := register(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "wwcp_pool_installed_power_kw",
		Help: "Sum of the rated EVSE power per pool",
	}, []string{"pool_id"}))
	if err != nil {
		return nil, err
	}
	return &PromSink{commands: commands, runtime: runtime, statuses: statuses, stations: stations, power: power}, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// RecordCommand counts the command and observes its runtime.
func (s *PromSink) RecordCommand(rec coremetrics.CommandRecord) error {
	s.commands.WithLabelValues(rec.Command, rec.Result).Inc()
	s.runtime.WithLabelValues(rec.Command).Observe(rec.Runtime.Seconds())
	return nil
}

// RecordStatus counts the status change.
func (s *PromSink) RecordStatus(rec coremetrics.StatusRecord) error {
	kind := "status"
	if rec.Admin {
		kind = "admin"
	}
	s.statuses.WithLabelValues(rec.Entity, kind, rec.New).Inc()
	return nil
}

// RecordStationChange adjusts the station gauge of the pool.
func (s *PromSink) RecordStationChange(ev coremetrics.StationChange) error {
	if ev.Removed {
		s.stations.WithLabelValues(ev.PoolID).Dec()
	} else {
		s.stations.WithLabelValues(ev.PoolID).Inc()
	}
	return nil
}

// RecordPower sets the installed power gauge of the pool.
func (s *PromSink) RecordPower(rec coremetrics.PowerRecord) error {
	s.power.WithLabelValues(rec.PoolID).Set(rec.TotalKW)
	return nil
}
