package engine

import "math/rand"

// RNG is the single seedable uniform stream behind every stochastic
// decision: damage rolls, hit and crit checks, status resistance, enemy AI,
// escape and loot. Each draw consumes exactly one value from the source,
// so Position fully describes the stream and RestoreRNG can replay it.
type RNG struct {
	seed int64
	src  *rand.Rand
	pos  int64
}

// NewRNG creates a new deterministic RNG from a seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		seed: seed,
		src:  rand.New(rand.NewSource(seed)),
	}
}

// Float64 returns a uniform value in [0, 1).
func (r *RNG) Float64() float64 {
	r.pos++
	return r.src.Float64()
}

// Intn returns a uniform integer in [0, n). It consumes one Float64 draw.
// n must be positive.
func (r *RNG) Intn(n int) int {
	i := int(r.Float64() * float64(n))
	if i >= n {
		i = n - 1
	}
	return i
}

// Seed returns the seed the stream was created from.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Position returns the number of draws made since creation.
func (r *RNG) Position() int64 {
	return r.pos
}

// RestoreRNG creates an RNG and advances it to the given position, so a
// recorded play-through can resume from any logged draw.
func RestoreRNG(seed int64, position int64) *RNG {
	rng := NewRNG(seed)
	for i := int64(0); i < position; i++ {
		rng.src.Float64()
	}
	rng.pos = position
	return rng
}
