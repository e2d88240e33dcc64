// Package simulation recomputes the plant KPIs on a fixed period.
//
// Every tick draws each KPI afresh around its configured baseline rather than
// around the previous value, so the series is mean-reverting with no drift.
package simulation

import (
	"context"
	"math"
	"time"

	"github.com/kilianp07/vppsim/core/fluctuate"
	"github.com/kilianp07/vppsim/core/loop"
	"github.com/kilianp07/vppsim/core/model"
	"github.com/kilianp07/vppsim/infra/logger"
)

// Updater receives the recomputed snapshot. *store.Store implements it.
type Updater interface {
	UpdateSimulation(p model.SnapshotPatch)
}

// Simulator owns the simulation loop.
type Simulator struct {
	cfg   Config
	store Updater
	rand  fluctuate.Rand
	task  *loop.Task
	log   logger.Logger
}

// New creates an idle simulator. Unset config fields take their defaults.
func New(cfg Config, st Updater, r fluctuate.Rand, opts ...loop.Option) *Simulator {
	cfg.SetDefaults()
	if r == nil {
		r = fluctuate.NewRand(cfg.Seed)
	}
	s := &Simulator{
		cfg:   cfg,
		store: st,
		rand:  r,
		log:   logger.New("simulation"),
	}
	opts = append([]loop.Option{loop.WithLogger(s.log)}, opts...)
	s.task = loop.New("simulation loop", cfg.Interval(), s.onTick, opts...)
	return s
}

// Next draws a fresh snapshot without writing it.
func (s *Simulator) Next() model.Snapshot {
	c := s.cfg
	return model.Snapshot{
		TotalCapacity:  s.draw(c.TotalCapacity),
		ActiveAssets:   int(math.Floor(s.draw(c.ActiveAssets))),
		UpRegulation:   s.draw(c.UpRegulation),
		DownRegulation: s.draw(c.DownRegulation),
		MarketPrice:    s.draw(c.MarketPrice),
		AvgPrice:       s.draw(c.AvgPrice),
		MaxPrice:       s.draw(c.MaxPrice),
		MinPrice:       s.draw(c.MinPrice),
	}
}

func (s *Simulator) draw(b Baseline) float64 {
	return fluctuate.Fluctuate(s.rand, b.Value, b.Range)
}

// Tick recomputes every KPI and writes the full snapshot to the store.
func (s *Simulator) Tick() model.Snapshot {
	snap := s.Next()
	s.store.UpdateSimulation(snap.Patch())
	return snap
}

func (s *Simulator) onTick(_ context.Context, _ time.Time) {
	snap := s.Tick()
	s.log.Debugw("simulation tick", map[string]any{
		"active_assets": snap.ActiveAssets,
		"market_price":  snap.MarketPrice,
	})
}

// Start runs the loop until the handle is stopped or ctx is cancelled.
func (s *Simulator) Start(ctx context.Context) (*loop.Handle, error) {
	return s.task.Start(ctx)
}

// State reports whether the loop is running.
func (s *Simulator) State() loop.State { return s.task.State() }

// Config returns the effective configuration.
func (s *Simulator) Config() Config { return s.cfg }
