package monitoring

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type recordMonitor struct {
	err    error
	tags   map[string]string
	panics []any
	flush  time.Duration
}

func (r *recordMonitor) CaptureException(err error, tags map[string]string) {
	r.err = err
	r.tags = tags
}
func (r *recordMonitor) Recover()              {}
func (r *recordMonitor) Flush(d time.Duration) { r.flush = d }
func (r *recordMonitor) ReportPanic(v any)     { r.panics = append(r.panics, v) }

func TestCaptureException(t *testing.T) {
	mon := &recordMonitor{}
	Init(mon)
	defer Init(nil)

	CaptureException(nil, nil)
	assert.Nil(t, mon.err)

	CaptureException(errors.New("boom"), map[string]string{"module": "mqtt"})
	assert.EqualError(t, mon.err, "boom")
	assert.Equal(t, "mqtt", mon.tags["module"])

	Flush(time.Second)
	assert.Equal(t, time.Second, mon.flush)
}

func TestRecoverReportsAndRepanics(t *testing.T) {
	mon := &recordMonitor{}
	Init(mon)
	defer Init(nil)

	assert.PanicsWithValue(t, "tick failed", func() {
		defer Recover()
		panic("tick failed")
	})
	assert.Equal(t, []any{"tick failed"}, mon.panics)
}

func TestRecoverWithoutPanic(t *testing.T) {
	assert.NotPanics(t, func() {
		defer Recover()
	})
}
