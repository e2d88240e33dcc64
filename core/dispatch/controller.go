// Package dispatch simulates manual dispatch orders sent to plant assets.
//
// A command moves from sending to acknowledged, executing and completed on
// fixed delays. Only one command may be in flight.
package dispatch

import (
	"fmt"
	"math"
	"sync"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/kilianp07/vppsim/core/model"
	"github.com/kilianp07/vppsim/infra/logger"
	"github.com/kilianp07/vppsim/internal/eventbus"
)

// Controller accepts commands and drives their lifecycle.
type Controller struct {
	cfg    Config
	assets map[string]bool
	clock  clockwork.Clock
	newID  func() string
	bus    *eventbus.Bus[Event]
	log    logger.Logger

	mu       sync.Mutex
	commands []Command
	inFlight string
	timers   []clockwork.Timer
	closed   bool
}

// Option configures a Controller.
type Option func(*Controller)

// WithClock sets the clock driving status transitions.
func WithClock(c clockwork.Clock) Option { return func(ctl *Controller) { ctl.clock = c } }

// WithIDFunc sets the command id generator.
func WithIDFunc(f func() string) Option { return func(ctl *Controller) { ctl.newID = f } }

// New creates a controller.
func New(cfg Config, opts ...Option) (*Controller, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	c := &Controller{
		cfg:    cfg,
		assets: make(map[string]bool, len(cfg.Assets)),
		clock:  clockwork.NewRealClock(),
		newID:  uuid.NewString,
		bus:    eventbus.New[Event](),
		log:    logger.New("dispatch"),
	}
	for _, a := range cfg.Assets {
		c.assets[a] = true
	}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

// Assets returns the dispatchable asset ids.
func (c *Controller) Assets() []string { return append([]string(nil), c.cfg.Assets...) }

// Submit validates and queues a command, returning it in the sending state.
func (c *Controller) Submit(assetID string, targetMW float64) (Command, error) {
	if !c.assets[assetID] {
		return Command{}, fmt.Errorf("%w: %q", ErrUnknownAsset, assetID)
	}
	if math.IsNaN(targetMW) || targetMW < 0 || targetMW > c.cfg.MaxTargetMW {
		return Command{}, fmt.Errorf("%w: %v MW outside [0, %v]", ErrInvalidTarget, targetMW, c.cfg.MaxTargetMW)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return Command{}, ErrClosed
	}
	if c.inFlight != "" {
		return Command{}, fmt.Errorf("%w: %s", ErrBusy, c.inFlight)
	}
	now := c.clock.Now()
	cmd := Command{
		ID:        c.newID(),
		AssetID:   assetID,
		TargetMW:  targetMW,
		RampRate:  c.cfg.RampRateMW,
		Status:    StatusSending,
		Timestamp: now.Local().Format(model.TimeLayout),
		CreatedAt: now,
		UpdatedAt: now,
	}
	c.commands = append([]Command{cmd}, c.commands...)
	if len(c.commands) > c.cfg.MaxCommands {
		c.commands = c.commands[:c.cfg.MaxCommands]
	}
	c.inFlight = cmd.ID
	c.timers = []clockwork.Timer{
		c.clock.AfterFunc(ms(c.cfg.AckDelayMS), func() { c.transition(cmd.ID, StatusAcknowledged) }),
		c.clock.AfterFunc(ms(c.cfg.ExecuteDelayMS), func() { c.transition(cmd.ID, StatusExecuting) }),
		c.clock.AfterFunc(ms(c.cfg.CompleteDelayMS), func() { c.transition(cmd.ID, StatusCompleted) }),
	}
	c.bus.Publish(Event{Command: cmd})
	c.log.Infof("dispatch %s: %s to %.1f MW", cmd.ID, assetID, targetMW)
	return cmd, nil
}

// transition moves a command forward. Callbacks of timers firing together may
// run in any order, so a status never moves backwards.
func (c *Controller) transition(id string, to Status) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	for i := range c.commands {
		cmd := &c.commands[i]
		if cmd.ID != id {
			continue
		}
		if rank(to) <= rank(cmd.Status) {
			return
		}
		prev := cmd.Status
		cmd.Status = to
		cmd.UpdatedAt = c.clock.Now()
		if to.Terminal() && c.inFlight == id {
			c.inFlight = ""
			c.stopTimers()
		}
		c.bus.Publish(Event{Command: *cmd, Previous: prev})
		c.log.Debugf("dispatch %s: %s -> %s", id, prev, to)
		return
	}
}

func rank(s Status) int {
	switch s {
	case StatusPending:
		return 0
	case StatusSending:
		return 1
	case StatusAcknowledged:
		return 2
	case StatusExecuting:
		return 3
	}
	return 4
}

func (c *Controller) stopTimers() {
	for _, t := range c.timers {
		t.Stop()
	}
	c.timers = nil
}

// Commands returns the log, newest first.
func (c *Controller) Commands() []Command {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Command(nil), c.commands...)
}

// Busy reports whether a command is in flight.
func (c *Controller) Busy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inFlight != ""
}

// Subscribe returns a channel receiving status events.
func (c *Controller) Subscribe() <-chan Event { return c.bus.Subscribe() }

// Unsubscribe detaches ch.
func (c *Controller) Unsubscribe(ch <-chan Event) { c.bus.Unsubscribe(ch) }

// Close stops pending timers. No transition happens afterwards.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.stopTimers()
	c.mu.Unlock()
	c.bus.Close()
}
