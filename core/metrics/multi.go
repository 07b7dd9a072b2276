package metrics

import "errors"

// MultiSink fans records out to several sinks.
type MultiSink struct {
	Sinks []MetricsSink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...MetricsSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordCommand forwards the record to all sinks. Every sink is called; the
// errors are joined.
func (m *MultiSink) RecordCommand(rec CommandRecord) error {
	var errs []error
	for _, s := range m.Sinks {
		if err := s.RecordCommand(rec); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// RecordStatus forwards status changes to sinks supporting them.
func (m *MultiSink) RecordStatus(rec StatusRecord) error {
	var errs []error
	for _, s := range m.Sinks {
		if r, ok := s.(StatusRecorder); ok {
			if err := r.RecordStatus(rec); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

// RecordStationChange forwards station changes to sinks supporting them.
func (m *MultiSink) RecordStationChange(ev StationChange) error {
	var errs []error
	for _, s := range m.Sinks {
		if r, ok := s.(StationRecorder); ok {
			if err := r.RecordStationChange(ev); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

// RecordPower forwards power snapshots to sinks supporting them.
func (m *MultiSink) RecordPower(rec PowerRecord) error {
	var errs []error
	for _, s := range m.Sinks {
		if r, ok := s.(PowerRecorder); ok {
			if err := r.RecordPower(rec); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

// Close closes the sinks holding connections.
func (m *MultiSink) Close() { closeSinks(m.Sinks) }
