// Package store holds the current KPI snapshot and the capped alert log of
// the plant. It is the only writer of both; consumers read copies and
// observe mutations through Subscribe.
package store

import (
	"sync"

	"github.com/kilianp07/vppsim/core/model"
	"github.com/kilianp07/vppsim/internal/eventbus"
)

// MaxAlerts is the number of alerts retained in the log.
const MaxAlerts = 50

// ChangeKind identifies the mutation that produced a Change.
type ChangeKind int

const (
	ChangeSnapshot ChangeKind = iota
	ChangeAlertAdded
	ChangeAlertsCleared
)

// String returns the wire name of the change kind.
func (k ChangeKind) String() string {
	switch k {
	case ChangeSnapshot:
		return "snapshot"
	case ChangeAlertAdded:
		return "alert"
	case ChangeAlertsCleared:
		return "alerts_cleared"
	default:
		return "unknown"
	}
}

// Change describes one mutation of the store and the state right after it.
type Change struct {
	Kind       ChangeKind
	Snapshot   model.Snapshot
	Alert      *model.Alert // set for ChangeAlertAdded
	AlertCount int
}

// Store is the single source of truth for the simulated plant.
type Store struct {
	mu       sync.RWMutex
	snapshot model.Snapshot
	alerts   []model.Alert
	bus      *eventbus.Bus[Change]
}

// New returns a store seeded with model.InitialSnapshot.
func New() *Store {
	return NewWithSnapshot(model.InitialSnapshot())
}

// NewWithSnapshot returns a store seeded with s.
func NewWithSnapshot(s model.Snapshot) *Store {
	return &Store{
		snapshot: s,
		alerts:   make([]model.Alert, 0, MaxAlerts),
		bus:      eventbus.New[Change](),
	}
}

// UpdateSimulation merges the non-nil fields of p into the snapshot.
func (s *Store) UpdateSimulation(p model.SnapshotPatch) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot = s.snapshot.Apply(p)
	s.bus.Publish(Change{Kind: ChangeSnapshot, Snapshot: s.snapshot, AlertCount: len(s.alerts)})
}

// AddAlert prepends a to the log, dropping the oldest entries beyond MaxAlerts.
func (s *Store) AddAlert(a model.Alert) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.alerts) + 1
	if n > MaxAlerts {
		n = MaxAlerts
	}
	next := make([]model.Alert, n)
	next[0] = a
	copy(next[1:], s.alerts)
	s.alerts = next
	s.bus.Publish(Change{Kind: ChangeAlertAdded, Snapshot: s.snapshot, Alert: &a, AlertCount: len(s.alerts)})
}

// ClearAlerts empties the alert log.
func (s *Store) ClearAlerts() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.alerts = make([]model.Alert, 0, MaxAlerts)
	s.bus.Publish(Change{Kind: ChangeAlertsCleared, Snapshot: s.snapshot})
}

// Snapshot returns the current KPI values.
func (s *Store) Snapshot() model.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot
}

// Alerts returns a copy of the alert log, newest first.
func (s *Store) Alerts() []model.Alert {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Alert, len(s.alerts))
	copy(out, s.alerts)
	return out
}

// Subscribe returns a channel receiving every subsequent Change. Events are
// published before the mutating call returns; a subscriber that falls behind
// misses events.
func (s *Store) Subscribe() <-chan Change { return s.bus.Subscribe() }

// Unsubscribe releases a channel obtained from Subscribe.
func (s *Store) Unsubscribe(ch <-chan Change) { s.bus.Unsubscribe(ch) }

// Subscribers reports the number of active subscriptions.
func (s *Store) Subscribers() int { return s.bus.Subscribers() }

// Close closes all subscriber channels. Mutations keep working afterwards
// but are no longer observed.
func (s *Store) Close() { s.bus.Close() }
