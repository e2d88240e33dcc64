// Package app wires the simulation core, its consumers and the ambient
// infrastructure into a runnable service.
package app

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/kilianp07/vppsim/api"
	"github.com/kilianp07/vppsim/config"
	"github.com/kilianp07/vppsim/core/alerts"
	"github.com/kilianp07/vppsim/core/dispatch"
	"github.com/kilianp07/vppsim/core/fluctuate"
	"github.com/kilianp07/vppsim/core/frequency"
	"github.com/kilianp07/vppsim/core/loop"
	"github.com/kilianp07/vppsim/core/market"
	coremetrics "github.com/kilianp07/vppsim/core/metrics"
	coremon "github.com/kilianp07/vppsim/core/monitoring"
	"github.com/kilianp07/vppsim/core/notify"
	"github.com/kilianp07/vppsim/core/simulation"
	"github.com/kilianp07/vppsim/core/store"
	"github.com/kilianp07/vppsim/infra/logger"
	"github.com/kilianp07/vppsim/infra/metrics"
	"github.com/kilianp07/vppsim/infra/monitoring"
	"github.com/kilianp07/vppsim/infra/mqtt"
	infranotify "github.com/kilianp07/vppsim/infra/notify"
)

// Service owns every component of a running plant.
type Service struct {
	Store     *store.Store
	Simulator *simulation.Simulator
	Alerts    *alerts.Generator
	Frequency *frequency.Monitor
	Dispatch  *dispatch.Controller
	Bids      *market.BidBook
	Prices    market.PriceHistory
	API       *api.Server

	cfg       *config.Config
	sink      coremetrics.MetricsSink
	mqtt      *mqtt.PahoClient
	mqttAlert *infranotify.MQTTNotifier
	logCloser io.Closer
	log       logger.Logger
}

// New creates a Service from the configuration.
func New(cfg *config.Config) (*Service, error) {
	closer, err := logger.Configure(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("logging: %w", err)
	}
	s := &Service{cfg: cfg, logCloser: closer, log: logger.New("service")}

	mon, err := monitoring.NewSentryMonitor(cfg.Sentry)
	if err != nil {
		s.log.Warnf("sentry disabled: %v", err)
	} else {
		coremon.Init(mon)
	}

	sink, err := coremetrics.NewMetricsSink(cfg.Metrics.Sinks)
	if err != nil {
		return nil, fmt.Errorf("metrics sink: %w", err)
	}
	s.sink = sink

	s.Store = store.New()
	s.Simulator = simulation.New(cfg.Simulation, s.Store, nil)
	s.Frequency, err = frequency.New(cfg.Frequency, nil, frequency.WithSink(sink))
	if err != nil {
		return nil, fmt.Errorf("frequency: %w", err)
	}
	s.Dispatch, err = dispatch.New(cfg.Dispatch)
	if err != nil {
		return nil, fmt.Errorf("dispatch: %w", err)
	}
	r := fluctuate.NewRand(cfg.Market.Seed)
	s.Bids = market.NewBidBook(r, nil, cfg.Market.InitialBids())
	s.Prices = market.GeneratePriceHistory(r)

	s.API, err = api.NewServer(cfg.API, api.Deps{
		Store:     s.Store,
		Frequency: s.Frequency,
		Dispatch:  s.Dispatch,
		Bids:      s.Bids,
		Prices:    s.Prices,
	})
	if err != nil {
		return nil, fmt.Errorf("api: %w", err)
	}

	notifiers := []notify.Notifier{infranotify.NewLogNotifier(logger.New("notify")), s.API.Notifier()}
	if cfg.MQTT.Enabled {
		client, err := mqtt.NewPahoClient(cfg.MQTT)
		if err != nil {
			return nil, fmt.Errorf("mqtt client: %w", err)
		}
		s.mqtt = client
		s.mqttAlert = infranotify.NewMQTTNotifier(client, cfg.MQTT.AlertTopicPrefix)
		notifiers = append(notifiers, s.mqttAlert)
	}
	s.Alerts, err = alerts.New(cfg.Alerts, s.Store, notify.Combine(notifiers...), nil)
	if err != nil {
		return nil, fmt.Errorf("alerts: %w", err)
	}
	return s, nil
}

// Run starts the loops and servers and blocks until ctx is cancelled.
func (s *Service) Run(ctx context.Context) error {
	defer coremon.Recover()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	collected := []<-chan struct{}{
		metrics.StartStoreCollector(ctx, s.Store, s.sink),
		metrics.StartDispatchCollector(ctx, s.Dispatch, s.sink),
	}
	if port := s.cfg.Metrics.PrometheusPort; port != "" {
		go func() {
			if err := metrics.StartPromServer(ctx, port); err != nil {
				s.log.Errorf("prom server: %v", err)
				coremon.CaptureException(err, map[string]string{"module": "metrics"})
			}
		}()
	}

	starters := []func(context.Context) (*loop.Handle, error){
		s.Simulator.Start,
		s.Alerts.Start,
		s.Frequency.Start,
	}
	handles := make([]*loop.Handle, 0, len(starters))
	for _, start := range starters {
		h, err := start(ctx)
		if err != nil {
			return err
		}
		handles = append(handles, h)
	}
	s.log.Infof("plant running")

	err := s.API.Run(ctx)
	if err != nil {
		coremon.CaptureException(err, map[string]string{"module": "api"})
	}
	cancel()
	for _, h := range handles {
		<-h.Done()
	}
	for _, done := range collected {
		<-done
	}
	s.log.Infof("plant stopped")
	return err
}

// Close releases resources held by the service.
func (s *Service) Close() error {
	s.Dispatch.Close()
	if s.mqttAlert != nil {
		s.mqttAlert.Wait()
	}
	if s.mqtt != nil {
		s.mqtt.Disconnect()
	}
	if c, ok := s.sink.(interface{ Close() }); ok {
		c.Close()
	}
	s.Store.Close()
	coremon.Flush(2 * time.Second)
	return s.logCloser.Close()
}
