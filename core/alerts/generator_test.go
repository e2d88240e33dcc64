package alerts

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/vppsim/core/model"
	"github.com/kilianp07/vppsim/core/notify"
	"github.com/kilianp07/vppsim/core/store"
)

// fixedRand returns queued values, then repeats the last ones.
type fixedRand struct {
	floats []float64
	ints   []int
}

func (f *fixedRand) Float64() float64 {
	v := f.floats[0]
	if len(f.floats) > 1 {
		f.floats = f.floats[1:]
	}
	return v
}

func (f *fixedRand) Intn(n int) int {
	v := f.ints[0]
	if len(f.ints) > 1 {
		f.ints = f.ints[1:]
	}
	return v % n
}

type recordNotifier struct {
	mu    sync.Mutex
	calls []model.Alert
	st    *store.Store
	// alertsAtCall records the store size observed when Notify ran.
	alertsAtCall []int
}

func (r *recordNotifier) Notify(level model.AlertLevel, message, ts string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, model.Alert{Level: level, Message: message, Time: ts})
	if r.st != nil {
		r.alertsAtCall = append(r.alertsAtCall, len(r.st.Alerts()))
	}
}

func (r *recordNotifier) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

func seqIDs() func() string {
	n := 0
	return func() string { n++; return fmt.Sprintf("a-%d", n) }
}

func TestTickBelowThresholdDoesNothing(t *testing.T) {
	st := store.New()
	rn := &recordNotifier{}
	g, err := New(Config{}, st, rn, &fixedRand{floats: []float64{0.8}, ints: []int{0}})
	require.NoError(t, err)

	_, ok := g.Tick(time.Now())
	assert.False(t, ok)
	assert.Empty(t, st.Alerts())
	assert.Zero(t, rn.count())
}

func TestTickEmitsAndNotifiesAfterStoring(t *testing.T) {
	st := store.New()
	rn := &recordNotifier{st: st}
	g, err := New(Config{}, st, rn, &fixedRand{floats: []float64{0.95}, ints: []int{1}}, WithIDFunc(seqIDs()))
	require.NoError(t, err)

	now := time.Date(2024, 5, 1, 14, 3, 9, 0, time.Local)
	a, ok := g.Tick(now)
	require.True(t, ok)
	assert.Equal(t, model.Alert{
		ID:      "a-1",
		Level:   model.LevelCritical,
		Message: "Asset Link Lost: Wind Farm Kraków",
		Time:    "14:03:09",
	}, a)
	assert.Equal(t, []model.Alert{a}, st.Alerts())
	require.Equal(t, 1, rn.count())
	assert.Equal(t, a.Message, rn.calls[0].Message)
	assert.Equal(t, "14:03:09", rn.calls[0].Time)
	assert.Equal(t, []int{1}, rn.alertsAtCall)
}

func TestEmissionRate(t *testing.T) {
	g, err := New(Config{}, store.New(), nil, rand.New(rand.NewSource(42)))
	require.NoError(t, err)

	const n = 10000
	emitted := 0
	perMessage := map[string]int{}
	for i := 0; i < n; i++ {
		if a, ok := g.Tick(time.Now()); ok {
			emitted++
			perMessage[a.Message]++
		}
	}
	assert.InDelta(t, 0.2, float64(emitted)/n, 0.02)
	assert.Len(t, perMessage, len(DefaultCatalog()))
}

func TestIDsAreUnique(t *testing.T) {
	st := store.New()
	g, err := New(Config{Threshold: 0.01}, st, nil, rand.New(rand.NewSource(1)))
	require.NoError(t, err)
	seen := map[string]bool{}
	for i := 0; i < 500; i++ {
		if a, ok := g.Tick(time.Now()); ok {
			require.False(t, seen[a.ID], "duplicate id %s", a.ID)
			seen[a.ID] = true
		}
	}
	assert.Len(t, st.Alerts(), store.MaxAlerts)
}

func TestGeneratorLoopStops(t *testing.T) {
	clock := clockwork.NewFakeClock()
	st := store.New()
	rn := &recordNotifier{}
	g, err := New(Config{}, st, notify.Combine(rn), &fixedRand{floats: []float64{0.99}, ints: []int{0}}, WithClock(clock))
	require.NoError(t, err)

	h, err := g.Start(context.Background())
	require.NoError(t, err)
	clock.BlockUntil(1)
	clock.Advance(5 * time.Second)
	require.Eventually(t, func() bool { return rn.count() == 1 }, time.Second, 5*time.Millisecond)

	h.Stop()
	for i := 0; i < 10; i++ {
		clock.Advance(5 * time.Second)
	}
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 1, rn.count())
	assert.Len(t, st.Alerts(), 1)
}

func TestDecodeCatalog(t *testing.T) {
	yml := `templates:
  - level: CRITICAL
    message: Transformer overload
  - level: info
    message: Forecast refreshed
`
	c, err := DecodeCatalog(strings.NewReader(yml), "yaml")
	require.NoError(t, err)
	assert.Equal(t, []model.AlertTemplate{
		{Level: model.LevelCritical, Message: "Transformer overload"},
		{Level: model.LevelInfo, Message: "Forecast refreshed"},
	}, c)

	_, err = DecodeCatalog(strings.NewReader(`{"templates":[{"level":"fatal","message":"x"}]}`), "json")
	assert.ErrorIs(t, err, model.ErrInvalidLevel)

	_, err = DecodeCatalog(strings.NewReader(`{"templates":[]}`), "json")
	assert.ErrorIs(t, err, ErrEmptyCatalog)

	_, err = DecodeCatalog(strings.NewReader(""), "toml")
	assert.Error(t, err)
}

func TestNewLoadsCatalogFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte("templates:\n  - level: warning\n    message: Only one\n"), 0o600))

	g, err := New(Config{CatalogFile: path}, store.New(), nil, &fixedRand{floats: []float64{0.9}, ints: []int{0}})
	require.NoError(t, err)
	a, ok := g.Tick(time.Now())
	require.True(t, ok)
	assert.Equal(t, "Only one", a.Message)

	_, err = New(Config{CatalogFile: filepath.Join(t.TempDir(), "missing.yaml")}, store.New(), nil, nil)
	assert.Error(t, err)
}

func TestConfigValidate(t *testing.T) {
	cfg := Config{}
	cfg.SetDefaults()
	assert.NoError(t, cfg.Validate())
	assert.Equal(t, 5*time.Second, cfg.Interval())
	assert.Equal(t, 0.8, cfg.Threshold)
	assert.Error(t, Config{IntervalMS: 1, Threshold: 1.5}.Validate())
}
