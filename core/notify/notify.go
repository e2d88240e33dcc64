// Package notify defines how alert notifications leave the core.
package notify

import "github.com/kilianp07/vppsim/core/model"

// Notifier delivers a user-facing notification. Implementations must return
// without waiting on I/O since they are called from the alert loop.
type Notifier interface {
	Notify(level model.AlertLevel, message, timestamp string)
}

// Func adapts a function to Notifier.
type Func func(level model.AlertLevel, message, timestamp string)

// Notify calls f.
func (f Func) Notify(level model.AlertLevel, message, timestamp string) { f(level, message, timestamp) }

// NopNotifier discards notifications.
type NopNotifier struct{}

func (NopNotifier) Notify(model.AlertLevel, string, string) {}

// Multi fans a notification out to every notifier in order.
type Multi []Notifier

// Notify forwards to each non-nil notifier.
func (m Multi) Notify(level model.AlertLevel, message, timestamp string) {
	for _, n := range m {
		if n != nil {
			n.Notify(level, message, timestamp)
		}
	}
}

// Combine drops nil entries and returns a single Notifier.
func Combine(ns ...Notifier) Notifier {
	out := make(Multi, 0, len(ns))
	for _, n := range ns {
		if n != nil {
			out = append(out, n)
		}
	}
	switch len(out) {
	case 0:
		return NopNotifier{}
	case 1:
		return out[0]
	}
	return out
}
