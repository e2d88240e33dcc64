// Package metrics defines the sinks that observe the simulator.
//
// Every sink records KPI snapshots. Sinks may also implement the optional
// recorder interfaces (alerts, grid frequency, dispatch status); callers
// type-assert before recording. Sinks are built from configuration through
// the factory registry, and several configured sinks are combined in a
// MultiSink.
package metrics
