// Package scoring implements the credit, fraud, and lead scorers over a
// seedable random source and immutable lookup tables.
package scoring

import (
	"math/rand"
	"sync"
	"time"
)

// Rand is a mutex-guarded random source shared by the scorers, the
// compliance engine, and the supplier generator. A fixed seed makes
// every draw sequence reproducible.
type Rand struct {
	mu sync.Mutex
	r  *rand.Rand
}

// NewRand returns a source seeded with the given value.
func NewRand(seed int64) *Rand {
	return &Rand{r: rand.New(rand.NewSource(seed))}
}

// New returns a time-seeded source for production wiring.
func New() *Rand {
	return NewRand(time.Now().UnixNano())
}

// Float64 returns a draw in [0, 1).
func (r *Rand) Float64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.r.Float64()
}

// Between returns a uniform draw in [lo, hi).
func (r *Rand) Between(lo, hi float64) float64 {
	return lo + r.Float64()*(hi-lo)
}

// IntN returns a uniform draw in [0, n).
func (r *Rand) IntN(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.r.Intn(n)
}

// Chance reports true with probability p.
func (r *Rand) Chance(p float64) bool {
	return r.Float64() < p
}

// Weighted draws one item from a categorical distribution. Weights need
// not sum to 1; any remaining mass falls on the first item.
func (r *Rand) Weighted(items []string, weights []float64) string {
	draw := r.Float64()
	cumulative := 0.0
	for i, w := range weights {
		cumulative += w
		if draw <= cumulative {
			return items[i]
		}
	}
	return items[0]
}

// Pick returns a uniformly chosen item.
func (r *Rand) Pick(items []string) string {
	return items[r.IntN(len(items))]
}
