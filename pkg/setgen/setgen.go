// Package setgen provides synthetic identifier-set generators. A generator
// yields a finite, ordered sequence of sets for one trial; a factory builds
// a fresh generator from the shared set-random stream, advancing that stream
// so consecutive trials see different data.
package setgen

import (
	"math/rand"
	"strconv"

	exprand "golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
)

// Generator yields identifier sets one at a time. It is forward-only and
// not restartable; a new generator is required per trial.
type Generator interface {
	// Next returns the next identifier set, or ok == false when the
	// sequence is exhausted.
	Next() ([]string, bool)
}

// Factory builds a generator from the caller's random stream. The stream is
// shared across trials by reference, so each construction (and each draw)
// advances it.
type Factory func(rng *rand.Rand) Generator

type independentGenerator struct {
	rng          *rand.Rand
	universeSize int64
	setSize      int
	remaining    int
}

// NewIndependentFactory returns a factory whose generators yield numSets
// sets of setSize identifiers, each drawn uniformly (with replacement) from
// a universe of universeSize ids.
func NewIndependentFactory(universeSize int64, numSets, setSize int) Factory {
	return func(rng *rand.Rand) Generator {
		return &independentGenerator{
			rng:          rng,
			universeSize: universeSize,
			setSize:      setSize,
			remaining:    numSets,
		}
	}
}

func (g *independentGenerator) Next() ([]string, bool) {
	if g.remaining <= 0 {
		return nil, false
	}
	g.remaining--
	ids := make([]string, g.setSize)
	for i := range ids {
		ids[i] = strconv.FormatInt(g.rng.Int63n(g.universeSize), 10)
	}
	return ids, true
}

type fullyOverlappedGenerator struct {
	rng          *rand.Rand
	universeSize int64
	setSize      int
	remaining    int
	base         []string
}

// NewFullyOverlappedFactory returns a factory whose generators yield the
// same randomly drawn set numSets times, modeling sources with identical
// audiences.
func NewFullyOverlappedFactory(universeSize int64, numSets, setSize int) Factory {
	return func(rng *rand.Rand) Generator {
		return &fullyOverlappedGenerator{
			rng:          rng,
			universeSize: universeSize,
			setSize:      setSize,
			remaining:    numSets,
		}
	}
}

func (g *fullyOverlappedGenerator) Next() ([]string, bool) {
	if g.remaining <= 0 {
		return nil, false
	}
	g.remaining--
	if g.base == nil {
		g.base = make([]string, g.setSize)
		for i := range g.base {
			g.base[i] = strconv.FormatInt(g.rng.Int63n(g.universeSize), 10)
		}
	}
	out := make([]string, len(g.base))
	copy(out, g.base)
	return out, true
}

type exponentialBowGenerator struct {
	dist         distuv.Exponential
	universeSize int64
	setSize      int
	remaining    int
}

// NewExponentialBowFactory returns a factory whose generators draw ids with
// exponentially decaying frequency over the universe: low ids appear in
// almost every set, high ids rarely. decayRate controls how fast the reach
// curve flattens; larger values concentrate the draws.
func NewExponentialBowFactory(universeSize int64, numSets, setSize int, decayRate float64) Factory {
	return func(rng *rand.Rand) Generator {
		// The distribution needs its own source type; seed it from the
		// shared stream so trial order still fixes the data.
		return &exponentialBowGenerator{
			dist: distuv.Exponential{
				Rate: decayRate,
				Src:  exprand.NewSource(rng.Uint64()),
			},
			universeSize: universeSize,
			setSize:      setSize,
			remaining:    numSets,
		}
	}
}

func (g *exponentialBowGenerator) Next() ([]string, bool) {
	if g.remaining <= 0 {
		return nil, false
	}
	g.remaining--
	ids := make([]string, g.setSize)
	for i := range ids {
		id := int64(g.dist.Rand() * float64(g.universeSize))
		if id >= g.universeSize {
			id = g.universeSize - 1
		}
		ids[i] = strconv.FormatInt(id, 10)
	}
	return ids, true
}
