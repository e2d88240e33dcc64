// Package monitoring is a process-wide facade for error reporting. It is a
// no-op until Init installs a real Monitor.
package monitoring

import (
	"sync"
	"time"
)

// Monitor defines methods used for error reporting.
type Monitor interface {
	CaptureException(err error, tags map[string]string)
	Recover()
	Flush(timeout time.Duration)
}

type NopMonitor struct{}

func (NopMonitor) CaptureException(error, map[string]string) {}
func (NopMonitor) Recover()                                  {}
func (NopMonitor) Flush(time.Duration)                       {}

var (
	mu      sync.RWMutex
	current Monitor = NopMonitor{}
)

// Init sets the global monitor implementation. A nil monitor restores the no-op.
func Init(m Monitor) {
	mu.Lock()
	defer mu.Unlock()
	if m == nil {
		m = NopMonitor{}
	}
	current = m
}

func get() Monitor {
	mu.RLock()
	defer mu.RUnlock()
	return current
}

// CaptureException records the error with optional tags.
func CaptureException(err error, tags map[string]string) {
	if err == nil {
		return
	}
	get().CaptureException(err, tags)
}

// Recover reports a panic of the calling goroutine and re-raises it. It must
// be deferred directly.
func Recover() {
	if r := recover(); r != nil {
		if pr, ok := get().(PanicReporter); ok {
			pr.ReportPanic(r)
		}
		panic(r)
	}
}

// PanicReporter is implemented by monitors able to record recovered panics.
type PanicReporter interface {
	ReportPanic(v any)
}

// Flush flushes buffered events.
func Flush(d time.Duration) {
	get().Flush(d)
}
