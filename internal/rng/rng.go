// Package rng provides the seeded random source used by dungeon generation.
package rng

import (
	"fmt"
	"math/rand"
	"time"
)

// Source wraps math/rand.Rand and counts draws so a generation run can be
// reproduced from its seed alone.
type Source struct {
	seed  int64
	src   *rand.Rand
	draws int64
}

// New creates a reproducible source from an explicit seed.
func New(seed int64) *Source {
	return &Source{
		seed: seed,
		src:  rand.New(rand.NewSource(seed)),
	}
}

// NewRandom creates a source with a seed derived from the current time.
// The chosen seed is still available through Seed.
func NewRandom() *Source {
	return New(time.Now().UnixNano())
}

// IntRange returns a value in [low, high).
// Panics when low >= high; callers validate ranges before drawing.
func (s *Source) IntRange(low, high int) int {
	if low >= high {
		panic(fmt.Sprintf("rng: empty range [%d, %d)", low, high))
	}
	s.draws++
	return low + s.src.Intn(high-low)
}

// Seed returns the seed the source was created with.
func (s *Source) Seed() int64 {
	return s.seed
}

// Draws returns the number of values drawn so far.
func (s *Source) Draws() int64 {
	return s.draws
}
