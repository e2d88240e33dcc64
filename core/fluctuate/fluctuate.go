// Package fluctuate produces bounded random perturbations around a baseline.
package fluctuate

import (
	"math/rand"
	"sync"
	"time"
)

// DefaultRange is the fluctuation applied when callers have no preference (±1%).
const DefaultRange = 0.01

// Rand is the random source used by the simulation. *rand.Rand satisfies it.
type Rand interface {
	Float64() float64
	Intn(n int) int
}

// Fluctuate returns base perturbed by a uniform draw in
// [-base*fluctuationRange, +base*fluctuationRange]. A negative range is
// treated as zero, in which case base is returned without consuming
// randomness.
func Fluctuate(r Rand, base, fluctuationRange float64) float64 {
	if fluctuationRange <= 0 {
		return base
	}
	delta := base * fluctuationRange
	return base + (r.Float64()-0.5)*2*delta
}

type lockedRand struct {
	mu sync.Mutex
	r  *rand.Rand
}

// NewRand returns a goroutine-safe Rand. A zero seed seeds from the clock.
func NewRand(seed int64) Rand {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &lockedRand{r: rand.New(rand.NewSource(seed))}
}

func (l *lockedRand) Float64() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.Float64()
}

func (l *lockedRand) Intn(n int) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.Intn(n)
}
