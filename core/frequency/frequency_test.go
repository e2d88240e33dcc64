package frequency

import (
	"context"
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/vppsim/core/metrics"
)

type recorder struct {
	metrics.NopSink
	hz, dev []float64
}

func (r *recorder) RecordFrequency(ev metrics.FrequencyEvent) error {
	r.hz = append(r.hz, ev.Hz)
	r.dev = append(r.dev, ev.Deviation)
	return nil
}

func TestWindowPrefilled(t *testing.T) {
	clock := clockwork.NewFakeClock()
	m, err := New(Config{}, rand.New(rand.NewSource(1)), WithClock(clock))
	require.NoError(t, err)

	s := m.Samples()
	require.Len(t, s, 60)
	assert.Equal(t, clock.Now(), s[59].Time)
	assert.Equal(t, clock.Now().Add(-59*time.Second), s[0].Time)
	for _, v := range s {
		assert.InDelta(t, 50, v.Hz, 0.075+1e-9)
	}
}

func TestTickRollsWindow(t *testing.T) {
	clock := clockwork.NewFakeClock()
	rec := &recorder{}
	m, err := New(Config{Window: 3}, rand.New(rand.NewSource(2)), WithClock(clock), WithSink(rec))
	require.NoError(t, err)
	before := m.Samples()

	now := clock.Now().Add(time.Second)
	s := m.Tick(now)
	after := m.Samples()
	require.Len(t, after, 3)
	assert.Equal(t, before[1:], after[:2])
	assert.Equal(t, s, after[2])
	assert.Equal(t, s.Hz, m.Current())
	assert.InDelta(t, s.Hz-50, m.Deviation(), 1e-12)
	assert.Equal(t, math.Abs(m.Deviation()) < 0.05, m.Stable())
	require.Len(t, rec.hz, 1)
	assert.Equal(t, s.Hz, rec.hz[0])
	assert.InDelta(t, s.Hz-50, rec.dev[0], 1e-12)
}

func TestSummary(t *testing.T) {
	m, err := New(Config{}, rand.New(rand.NewSource(3)))
	require.NoError(t, err)
	sum := m.Summary()
	assert.InDelta(t, 50, sum.Mean, 0.075)
	assert.LessOrEqual(t, sum.Min, sum.Mean)
	assert.GreaterOrEqual(t, sum.Max, sum.Mean)
	assert.Greater(t, sum.StdDev, 0.0)
	assert.Less(t, sum.StdDev, 0.075)
}

func TestStableBand(t *testing.T) {
	m, err := New(Config{AmplitudeHz: 0.01}, rand.New(rand.NewSource(4)))
	require.NoError(t, err)
	assert.True(t, m.Stable())
}

func TestMonitorLoop(t *testing.T) {
	clock := clockwork.NewFakeClock()
	m, err := New(Config{}, rand.New(rand.NewSource(5)), WithClock(clock))
	require.NoError(t, err)
	h, err := m.Start(context.Background())
	require.NoError(t, err)
	defer h.Stop()

	last := m.Samples()[59].Time
	clock.BlockUntil(1)
	clock.Advance(time.Second)
	require.Eventually(t, func() bool { return m.Samples()[59].Time.After(last) }, time.Second, 5*time.Millisecond)
}

func TestConfigValidate(t *testing.T) {
	_, err := New(Config{AmplitudeHz: -1}, nil)
	assert.Error(t, err)
}
