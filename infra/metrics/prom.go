package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/kilianp07/vppsim/core/metrics"
)

// PromSink exposes the simulator state as Prometheus metrics.
type PromSink struct {
	kpi       *prometheus.GaugeVec
	alerts    *prometheus.CounterVec
	alertLog  prometheus.Gauge
	frequency *prometheus.GaugeVec
	dispatch  *prometheus.CounterVec
}

// NewPromSink registers the metrics on the default Prometheus registerer.
// The Prometheus server should be started separately using cfg.PrometheusPort.
func NewPromSink(cfg coremetrics.Config) (coremetrics.MetricsSink, error) {
	return NewPromSinkWithRegistry(cfg, prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer. Collectors
// already registered by a previous sink are reused.
func NewPromSinkWithRegistry(_ coremetrics.Config, reg prometheus.Registerer) (coremetrics.MetricsSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	kpi := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "vpp_kpi",
		Help: "Current value of each plant KPI",
	}, []string{"kpi"})
	alerts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "vpp_alerts_total",
		Help: "Total number of alerts raised",
	}, []string{"level"})
	alertLog := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "vpp_alert_log_size",
		Help: "Number of alerts currently held in the alert log",
	})
	frequency := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "vpp_grid_frequency_hz",
		Help: "Latest grid frequency sample and its deviation from nominal",
	}, []string{"series"})
	dispatch := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "vpp_dispatch_transitions_total",
		Help: "Dispatch command status transitions",
	}, []string{"asset_id", "status"})

	var err error
	if kpi, err = register(reg, kpi); err != nil {
		return nil, err
	}
	if alerts, err = register(reg, alerts); err != nil {
		return nil, err
	}
	if alertLog, err = register(reg, alertLog); err != nil {
		return nil, err
	}
	if frequency, err = register(reg, frequency); err != nil {
		return nil, err
	}
	if dispatch, err = register(reg, dispatch); err != nil {
		return nil, err
	}
	return &PromSink{kpi: kpi, alerts: alerts, alertLog: alertLog, frequency: frequency, dispatch: dispatch}, nil
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

// RecordSnapshot sets one gauge per KPI.
func (s *PromSink) RecordSnapshot(ev coremetrics.SnapshotEvent) error {
	snap := ev.Snapshot
	s.kpi.WithLabelValues("total_capacity_mw").Set(snap.TotalCapacity)
	s.kpi.WithLabelValues("active_assets").Set(float64(snap.ActiveAssets))
	s.kpi.WithLabelValues("up_regulation_mw").Set(snap.UpRegulation)
	s.kpi.WithLabelValues("down_regulation_mw").Set(snap.DownRegulation)
	s.kpi.WithLabelValues("market_price").Set(snap.MarketPrice)
	s.kpi.WithLabelValues("avg_price").Set(snap.AvgPrice)
	s.kpi.WithLabelValues("max_price").Set(snap.MaxPrice)
	s.kpi.WithLabelValues("min_price").Set(snap.MinPrice)
	return nil
}

// RecordAlert counts the alert by level and updates the log size.
func (s *PromSink) RecordAlert(ev coremetrics.AlertEvent) error {
	s.alerts.WithLabelValues(string(ev.Alert.Level)).Inc()
	s.alertLog.Set(float64(ev.LogSize))
	return nil
}

// RecordAlertLogSize sets the log size gauge.
func (s *PromSink) RecordAlertLogSize(size int) error {
	s.alertLog.Set(float64(size))
	return nil
}

// RecordFrequency sets the frequency gauges.
func (s *PromSink) RecordFrequency(ev coremetrics.FrequencyEvent) error {
	s.frequency.WithLabelValues("value").Set(ev.Hz)
	s.frequency.WithLabelValues("deviation").Set(ev.Deviation)
	return nil
}

// RecordDispatch counts a status transition.
func (s *PromSink) RecordDispatch(ev coremetrics.DispatchEvent) error {
	s.dispatch.WithLabelValues(ev.AssetID, ev.Status).Inc()
	return nil
}
