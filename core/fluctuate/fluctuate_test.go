package fluctuate

import (
	"math"
	"math/rand"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

type fixedRand struct{ v float64 }

func (f fixedRand) Float64() float64 { return f.v }
func (f fixedRand) Intn(int) int     { return 0 }

type countingRand struct{ calls int }

func (c *countingRand) Float64() float64 { c.calls++; return 0.9 }
func (c *countingRand) Intn(int) int     { c.calls++; return 0 }

func TestFluctuateBounds(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	cases := []struct {
		base, rng float64
	}{
		{2847, 0.005},
		{320, 0.05},
		{487.5, 0.02},
		{1, DefaultRange},
		{-100, 0.1},
		{0, 0.5},
	}
	for _, c := range cases {
		delta := math.Abs(c.base * c.rng)
		for i := 0; i < 5000; i++ {
			v := Fluctuate(r, c.base, c.rng)
			if v < c.base-delta || v > c.base+delta {
				t.Fatalf("Fluctuate(%v, %v) = %v out of bounds", c.base, c.rng, v)
			}
		}
	}
}

func TestFluctuateZeroRangeIsIdentity(t *testing.T) {
	c := &countingRand{}
	for i := 0; i < 100; i++ {
		assert.Equal(t, 1250.0, Fluctuate(c, 1250, 0))
	}
	assert.Zero(t, c.calls, "zero range must not draw")
}

func TestFluctuateNegativeRangeTreatedAsZero(t *testing.T) {
	assert.Equal(t, 185.0, Fluctuate(fixedRand{0.99}, 185, -0.3))
}

func TestFluctuateExtremes(t *testing.T) {
	assert.InDelta(t, 95.0, Fluctuate(fixedRand{0}, 100, 0.05), 1e-9)
	assert.InDelta(t, 100.0, Fluctuate(fixedRand{0.5}, 100, 0.05), 1e-9)
}

func TestNewRandDeterministic(t *testing.T) {
	a, b := NewRand(7), NewRand(7)
	for i := 0; i < 10; i++ {
		assert.Equal(t, a.Float64(), b.Float64())
		assert.Equal(t, a.Intn(6), b.Intn(6))
	}
}

func TestNewRandConcurrent(t *testing.T) {
	r := NewRand(0)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 1000; j++ {
				_ = Fluctuate(r, 100, 0.1)
			}
		}()
	}
	wg.Wait()
}
