package metrics

import (
	"context"
	"math"
	"net/http"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/kilianp07/vppsim/core/metrics"
	"github.com/kilianp07/vppsim/infra/logger"
)

// InfluxSink writes simulator events to an InfluxDB instance using the official client.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
}

// InfluxConfig holds the connection settings of an InfluxSink.
type InfluxConfig struct {
	URL    string `json:"url"`
	Token  string `json:"token"`
	Org    string `json:"org"`
	Bucket string `json:"bucket"`
}

// NewInfluxSink creates a new sink configured for the given InfluxDB endpoint.
func NewInfluxSink(cfg InfluxConfig) *InfluxSink {
	base := strings.TrimSuffix(cfg.URL, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, cfg.Token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(cfg.Org, cfg.Bucket),
		log:      logger.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback tries to ping the InfluxDB instance and
// returns a NopSink if the health check fails.
func NewInfluxSinkWithFallback(cfg InfluxConfig) coremetrics.MetricsSink {
	sink := NewInfluxSink(cfg)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			sink.log.Errorf("influx health check error: %v", err)
		} else {
			sink.log.Errorf("influx health status: %s", health.Status)
		}
		sink.client.Close()
		return coremetrics.NopSink{}
	}
	return sink
}

func (s *InfluxSink) write(p *write.Point) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordSnapshot writes all KPIs as fields of one point.
func (s *InfluxSink) RecordSnapshot(ev coremetrics.SnapshotEvent) error {
	snap := ev.Snapshot
	p := write.NewPointWithMeasurement("vpp_snapshot").
		AddTag("component", "simulation").
		AddField("total_capacity_mw", round3(snap.TotalCapacity)).
		AddField("active_assets", snap.ActiveAssets).
		AddField("up_regulation_mw", round3(snap.UpRegulation)).
		AddField("down_regulation_mw", round3(snap.DownRegulation)).
		AddField("market_price", round3(snap.MarketPrice)).
		AddField("avg_price", round3(snap.AvgPrice)).
		AddField("max_price", round3(snap.MaxPrice)).
		AddField("min_price", round3(snap.MinPrice)).
		SetTime(ev.Time)
	return s.write(p)
}

// RecordAlert writes a raised alert.
func (s *InfluxSink) RecordAlert(ev coremetrics.AlertEvent) error {
	p := write.NewPointWithMeasurement("alert_raised").
		AddTag("level", string(ev.Alert.Level)).
		AddTag("component", "alerts").
		AddField("id", ev.Alert.ID).
		AddField("message", ev.Alert.Message).
		AddField("log_size", ev.LogSize).
		SetTime(ev.Time)
	return s.write(p)
}

// RecordFrequency writes a grid frequency sample.
func (s *InfluxSink) RecordFrequency(ev coremetrics.FrequencyEvent) error {
	p := write.NewPointWithMeasurement("grid_frequency").
		AddTag("component", "frequency").
		AddField("hz", round3(ev.Hz)).
		AddField("deviation_hz", round3(ev.Deviation)).
		SetTime(ev.Time)
	return s.write(p)
}

// RecordDispatch writes a dispatch status change.
func (s *InfluxSink) RecordDispatch(ev coremetrics.DispatchEvent) error {
	p := write.NewPointWithMeasurement("dispatch_status").
		AddTag("asset_id", ev.AssetID).
		AddTag("status", ev.Status).
		AddTag("dispatch_id", ev.CommandID).
		AddTag("component", "dispatch").
		AddField("target_mw", round3(ev.TargetMW)).
		SetTime(ev.Time)
	return s.write(p)
}

// Close releases the client.
func (s *InfluxSink) Close() { s.client.Close() }

func round3(f float64) float64 {
	return math.Round(f*1000) / 1000
}
