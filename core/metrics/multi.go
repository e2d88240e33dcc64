package metrics

import "errors"

// MultiSink fans records out to several sinks. Optional recorders are only
// forwarded to sinks implementing them. Every sink is attempted; errors are
// joined.
type MultiSink struct {
	Sinks []MetricsSink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...MetricsSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordSnapshot forwards to all sinks.
func (m *MultiSink) RecordSnapshot(ev SnapshotEvent) error {
	var errs []error
	for _, s := range m.Sinks {
		errs = append(errs, s.RecordSnapshot(ev))
	}
	return errors.Join(errs...)
}

// RecordAlert forwards to sinks implementing AlertRecorder.
func (m *MultiSink) RecordAlert(ev AlertEvent) error {
	var errs []error
	for _, s := range m.Sinks {
		if r, ok := s.(AlertRecorder); ok {
			errs = append(errs, r.RecordAlert(ev))
		}
	}
	return errors.Join(errs...)
}

// RecordAlertLogSize forwards to sinks implementing AlertLogRecorder.
func (m *MultiSink) RecordAlertLogSize(size int) error {
	var errs []error
	for _, s := range m.Sinks {
		if r, ok := s.(AlertLogRecorder); ok {
			errs = append(errs, r.RecordAlertLogSize(size))
		}
	}
	return errors.Join(errs...)
}

// RecordFrequency forwards to sinks implementing FrequencyRecorder.
func (m *MultiSink) RecordFrequency(ev FrequencyEvent) error {
	var errs []error
	for _, s := range m.Sinks {
		if r, ok := s.(FrequencyRecorder); ok {
			errs = append(errs, r.RecordFrequency(ev))
		}
	}
	return errors.Join(errs...)
}

// RecordDispatch forwards to sinks implementing DispatchRecorder.
func (m *MultiSink) RecordDispatch(ev DispatchEvent) error {
	var errs []error
	for _, s := range m.Sinks {
		if r, ok := s.(DispatchRecorder); ok {
			errs = append(errs, r.RecordDispatch(ev))
		}
	}
	return errors.Join(errs...)
}

// Close closes every sink that has a Close method.
func (m *MultiSink) Close() {
	for _, s := range m.Sinks {
		if c, ok := s.(interface{ Close() }); ok {
			c.Close()
		}
	}
}
