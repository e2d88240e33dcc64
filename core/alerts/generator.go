// Package alerts randomly raises operational alerts from a template catalog.
package alerts

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/kilianp07/vppsim/core/fluctuate"
	"github.com/kilianp07/vppsim/core/loop"
	"github.com/kilianp07/vppsim/core/model"
	"github.com/kilianp07/vppsim/core/notify"
	"github.com/kilianp07/vppsim/infra/logger"
)

// Sink stores generated alerts. *store.Store implements it.
type Sink interface {
	AddAlert(a model.Alert)
}

// Generator owns the alert loop.
type Generator struct {
	cfg      Config
	sink     Sink
	notifier notify.Notifier
	rand     fluctuate.Rand
	catalog  []model.AlertTemplate
	newID    func() string
	loopOpts []loop.Option
	task     *loop.Task
	log      logger.Logger
}

// Option configures a Generator.
type Option func(*Generator)

// WithCatalog replaces the template catalog.
func WithCatalog(c []model.AlertTemplate) Option {
	return func(g *Generator) {
		if len(c) > 0 {
			g.catalog = append([]model.AlertTemplate(nil), c...)
		}
	}
}

// WithIDFunc sets the alert id generator.
func WithIDFunc(f func() string) Option {
	return func(g *Generator) {
		if f != nil {
			g.newID = f
		}
	}
}

// WithClock drives the loop from c.
func WithClock(c clockwork.Clock) Option {
	return func(g *Generator) { g.loopOpts = append(g.loopOpts, loop.WithClock(c)) }
}

// New creates an idle generator. When cfg.CatalogFile is set the catalog is
// loaded from it unless WithCatalog is given.
func New(cfg Config, sink Sink, n notify.Notifier, r fluctuate.Rand, opts ...Option) (*Generator, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if n == nil {
		n = notify.NopNotifier{}
	}
	if r == nil {
		r = fluctuate.NewRand(cfg.Seed)
	}
	g := &Generator{
		cfg:      cfg,
		sink:     sink,
		notifier: n,
		rand:     r,
		catalog:  DefaultCatalog(),
		newID:    uuid.NewString,
		log:      logger.New("alerts"),
	}
	if cfg.CatalogFile != "" {
		c, err := LoadCatalog(cfg.CatalogFile)
		if err != nil {
			return nil, err
		}
		g.catalog = c
	}
	for _, o := range opts {
		o(g)
	}
	loopOpts := append([]loop.Option{loop.WithLogger(g.log)}, g.loopOpts...)
	g.task = loop.New("alert loop", cfg.Interval(), g.onTick, loopOpts...)
	return g, nil
}

// Catalog returns a copy of the templates in use.
func (g *Generator) Catalog() []model.AlertTemplate {
	return append([]model.AlertTemplate(nil), g.catalog...)
}

// Tick draws once and, above the threshold, emits one alert stamped with now.
// The alert is stored before the notifier is called.
func (g *Generator) Tick(now time.Time) (model.Alert, bool) {
	if g.rand.Float64() <= g.cfg.Threshold {
		return model.Alert{}, false
	}
	tpl := g.catalog[g.rand.Intn(len(g.catalog))]
	a := model.Alert{
		ID:      g.newID(),
		Level:   tpl.Level,
		Message: tpl.Message,
		Time:    now.Local().Format(model.TimeLayout),
	}
	g.sink.AddAlert(a)
	g.notifier.Notify(a.Level, a.Message, a.Time)
	return a, true
}

func (g *Generator) onTick(_ context.Context, now time.Time) {
	if a, ok := g.Tick(now); ok {
		g.log.Debugw("alert emitted", map[string]any{"id": a.ID, "level": string(a.Level)})
	}
}

// Start runs the loop until the handle is stopped or ctx is cancelled.
func (g *Generator) Start(ctx context.Context) (*loop.Handle, error) {
	return g.task.Start(ctx)
}

// State reports whether the loop is running.
func (g *Generator) State() loop.State { return g.task.State() }
