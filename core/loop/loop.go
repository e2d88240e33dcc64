// Package loop runs a function periodically as a cancellable task.
//
// A Task is idle until Start is called. Start returns a Handle whose Stop
// cancels the task and waits for its goroutine to exit; once Stop returns the
// tick function is never called again, whatever the clock does afterwards.
// Cancelling the context passed to Start has the same effect.
package loop

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/kilianp07/vppsim/core/monitoring"
	"github.com/kilianp07/vppsim/infra/logger"
)

// ErrRunning is returned by Start when the task is already running.
var ErrRunning = errors.New("task already running")

// State is the lifecycle state of a Task.
type State int

const (
	StateIdle State = iota
	StateRunning
)

// String returns the state name.
func (s State) String() string {
	if s == StateRunning {
		return "running"
	}
	return "idle"
}

// TickFunc is called once per tick with the tick time.
type TickFunc func(ctx context.Context, now time.Time)

// Task is a periodic job with an explicit lifecycle.
type Task struct {
	name     string
	interval time.Duration
	fn       TickFunc
	clock    clockwork.Clock
	log      logger.Logger

	mu      sync.Mutex
	current *Handle
}

// Option customises a Task.
type Option func(*Task)

// WithClock sets the clock driving the ticker.
func WithClock(c clockwork.Clock) Option {
	return func(t *Task) {
		if c != nil {
			t.clock = c
		}
	}
}

// WithLogger sets the task logger.
func WithLogger(l logger.Logger) Option {
	return func(t *Task) {
		if l != nil {
			t.log = l
		}
	}
}

// New creates an idle task calling fn every interval.
func New(name string, interval time.Duration, fn TickFunc, opts ...Option) *Task {
	if interval <= 0 {
		panic("loop: interval must be positive")
	}
	t := &Task{
		name:     name,
		interval: interval,
		fn:       fn,
		clock:    clockwork.NewRealClock(),
		log:      logger.NopLogger{},
	}
	for _, o := range opts {
		o(t)
	}
	return t
}

// Name returns the task name.
func (t *Task) Name() string { return t.name }

// Interval returns the tick period.
func (t *Task) Interval() time.Duration { return t.interval }

// State reports whether the task is running.
func (t *Task) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.current != nil {
		return StateRunning
	}
	return StateIdle
}

// Start moves the task to the running state. The ticker is armed before
// Start returns.
func (t *Task) Start(ctx context.Context) (*Handle, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.current != nil {
		return nil, ErrRunning
	}
	ctx, cancel := context.WithCancel(ctx)
	h := &Handle{cancel: cancel, done: make(chan struct{})}
	t.current = h
	ticker := t.clock.NewTicker(t.interval)
	t.log.Infof("%s started, interval %s", t.name, t.interval)
	go t.run(ctx, h, ticker)
	return h, nil
}

func (t *Task) run(ctx context.Context, h *Handle, ticker clockwork.Ticker) {
	defer func() {
		ticker.Stop()
		t.mu.Lock()
		if t.current == h {
			t.current = nil
		}
		t.mu.Unlock()
		t.log.Infof("%s stopped", t.name)
		close(h.done)
	}()
	defer monitoring.Recover()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.Chan():
			// select picks randomly between ready cases
			if ctx.Err() != nil {
				return
			}
			t.fn(ctx, now)
		}
	}
}

// Handle controls one run of a Task.
type Handle struct {
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

// Stop cancels the run and blocks until its goroutine has exited. It is safe
// to call more than once, but not from inside the tick function.
func (h *Handle) Stop() {
	h.once.Do(h.cancel)
	<-h.done
}

// Done is closed once the run has exited.
func (h *Handle) Done() <-chan struct{} { return h.done }
