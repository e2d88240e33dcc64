// Package frequency samples a synthetic grid frequency into a rolling window.
package frequency

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/kilianp07/vppsim/core/fluctuate"
	"github.com/kilianp07/vppsim/core/loop"
	"github.com/kilianp07/vppsim/core/metrics"
	"github.com/kilianp07/vppsim/infra/logger"
)

// Config controls sampling.
type Config struct {
	IntervalMS int     `json:"interval_ms"`
	Window     int     `json:"window"`
	NominalHz  float64 `json:"nominal_hz"`
	// AmplitudeHz bounds the deviation of each sample from NominalHz.
	AmplitudeHz float64 `json:"amplitude_hz"`
	// StableBandHz is the deviation below which the grid counts as stable.
	StableBandHz float64 `json:"stable_band_hz"`
	Seed         int64   `json:"seed"`
}

// SetDefaults fills unset fields.
func (c *Config) SetDefaults() {
	if c.IntervalMS <= 0 {
		c.IntervalMS = 1000
	}
	if c.Window <= 0 {
		c.Window = 60
	}
	if c.NominalHz == 0 {
		c.NominalHz = 50
	}
	if c.AmplitudeHz == 0 {
		c.AmplitudeHz = 0.075
	}
	if c.StableBandHz == 0 {
		c.StableBandHz = 0.05
	}
}

// Validate checks value ranges.
func (c Config) Validate() error {
	switch {
	case c.IntervalMS <= 0:
		return fmt.Errorf("frequency interval_ms must be positive")
	case c.Window <= 0:
		return fmt.Errorf("frequency window must be positive")
	case c.NominalHz <= 0:
		return fmt.Errorf("frequency nominal_hz must be positive")
	case c.AmplitudeHz < 0 || c.StableBandHz < 0:
		return fmt.Errorf("frequency amplitude and stable band must not be negative")
	}
	return nil
}

// Sample is one frequency reading.
type Sample struct {
	Time time.Time `json:"time"`
	Hz   float64   `json:"hz"`
}

// Summary describes the current window.
type Summary struct {
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"stdDev"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
}

// Monitor keeps the rolling window.
type Monitor struct {
	cfg   Config
	rand  fluctuate.Rand
	clock clockwork.Clock
	sink  metrics.MetricsSink
	task  *loop.Task
	log   logger.Logger

	mu      sync.RWMutex
	samples []Sample
}

// Option configures a Monitor.
type Option func(*Monitor)

// WithClock sets the clock used for sample times and the loop.
func WithClock(c clockwork.Clock) Option { return func(m *Monitor) { m.clock = c } }

// WithSink records each sample on s when it implements
// metrics.FrequencyRecorder.
func WithSink(s metrics.MetricsSink) Option { return func(m *Monitor) { m.sink = s } }

// New builds a monitor whose window is already full, one sample per interval
// back from now.
func New(cfg Config, r fluctuate.Rand, opts ...Option) (*Monitor, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if r == nil {
		r = fluctuate.NewRand(cfg.Seed)
	}
	m := &Monitor{cfg: cfg, rand: r, clock: clockwork.NewRealClock(), log: logger.New("frequency")}
	for _, o := range opts {
		o(m)
	}
	interval := time.Duration(cfg.IntervalMS) * time.Millisecond
	now := m.clock.Now()
	m.samples = make([]Sample, 0, cfg.Window)
	for i := cfg.Window - 1; i >= 0; i-- {
		m.samples = append(m.samples, Sample{Time: now.Add(-time.Duration(i) * interval), Hz: m.draw()})
	}
	m.task = loop.New("frequency loop", interval, m.onTick, loop.WithClock(m.clock), loop.WithLogger(m.log))
	return m, nil
}

func (m *Monitor) draw() float64 {
	return fluctuate.Fluctuate(m.rand, m.cfg.NominalHz, m.cfg.AmplitudeHz/m.cfg.NominalHz)
}

// Tick appends a new sample, dropping the oldest.
func (m *Monitor) Tick(now time.Time) Sample {
	s := Sample{Time: now, Hz: m.draw()}
	m.mu.Lock()
	m.samples = append(m.samples[1:], s)
	m.mu.Unlock()
	if r, ok := m.sink.(metrics.FrequencyRecorder); ok {
		ev := metrics.FrequencyEvent{Hz: s.Hz, Deviation: s.Hz - m.cfg.NominalHz, Time: now}
		if err := r.RecordFrequency(ev); err != nil {
			m.log.Warnf("record frequency: %v", err)
		}
	}
	return s
}

func (m *Monitor) onTick(_ context.Context, now time.Time) { m.Tick(now) }

// Start runs the sampling loop.
func (m *Monitor) Start(ctx context.Context) (*loop.Handle, error) { return m.task.Start(ctx) }

// Current returns the newest sample in Hz.
func (m *Monitor) Current() float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.samples[len(m.samples)-1].Hz
}

// Deviation returns Current minus the nominal frequency.
func (m *Monitor) Deviation() float64 { return m.Current() - m.cfg.NominalHz }

// Stable reports whether the deviation is inside the stable band.
func (m *Monitor) Stable() bool { return math.Abs(m.Deviation()) < m.cfg.StableBandHz }

// Samples returns a copy of the window, oldest first.
func (m *Monitor) Samples() []Sample {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]Sample(nil), m.samples...)
}

// Summary computes window statistics.
func (m *Monitor) Summary() Summary {
	m.mu.RLock()
	hz := make([]float64, len(m.samples))
	for i, s := range m.samples {
		hz[i] = s.Hz
	}
	m.mu.RUnlock()
	mean, std := stat.MeanStdDev(hz, nil)
	return Summary{Mean: mean, StdDev: std, Min: floats.Min(hz), Max: floats.Max(hz)}
}
