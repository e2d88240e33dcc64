package metrics

import (
	"time"

	"github.com/kilianp07/vppsim/core/model"
)

// SnapshotEvent is a KPI snapshot written by the simulation loop.
type SnapshotEvent struct {
	Snapshot model.Snapshot
	Time     time.Time
}

// MetricsSink records simulator state for observability purposes.
type MetricsSink interface {
	RecordSnapshot(ev SnapshotEvent) error
}

// AlertEvent is a newly raised alert along with the resulting log size.
type AlertEvent struct {
	Alert   model.Alert
	LogSize int
	Time    time.Time
}

// AlertRecorder records raised alerts.
type AlertRecorder interface {
	RecordAlert(ev AlertEvent) error
}

// AlertLogRecorder records the alert log size, for instance after a clear.
type AlertLogRecorder interface {
	RecordAlertLogSize(size int) error
}

// FrequencyEvent is one grid frequency sample.
type FrequencyEvent struct {
	Hz        float64
	Deviation float64
	Time      time.Time
}

// FrequencyRecorder records grid frequency samples.
type FrequencyRecorder interface {
	RecordFrequency(ev FrequencyEvent) error
}

// DispatchEvent is a status change of a manual dispatch command.
type DispatchEvent struct {
	CommandID string
	AssetID   string
	Status    string
	TargetMW  float64
	Time      time.Time
}

// DispatchRecorder records dispatch status changes.
type DispatchRecorder interface {
	RecordDispatch(ev DispatchEvent) error
}

// NopSink implements every recorder with no-op methods.
type NopSink struct{}

func (NopSink) RecordSnapshot(SnapshotEvent) error   { return nil }
func (NopSink) RecordAlert(AlertEvent) error         { return nil }
func (NopSink) RecordAlertLogSize(int) error         { return nil }
func (NopSink) RecordFrequency(FrequencyEvent) error { return nil }
func (NopSink) RecordDispatch(DispatchEvent) error   { return nil }
