// Package vectorcount implements the vector-of-counts sketch family: ids are
// hashed into a fixed number of buckets and counted. Unions are estimated
// pairwise from the dot product of bucket vectors, and the sketch admits
// per-bucket Laplace noising for differential privacy.
package vectorcount

import (
	"encoding/binary"
	"fmt"
	"hash/fnv"

	dpnoise "github.com/google/differential-privacy/go/v3/noise"
	"gonum.org/v1/gonum/floats"

	"github.com/openmeasurement/cardbench/pkg/sketch"
)

// Sketch is a seeded vector of bucket counts. Sketches are only comparable
// when they share both bucket count and seed, which the simulation
// guarantees by handing every sketch in a trial the same seed.
type Sketch struct {
	seed   uint32
	counts []float64
}

// New returns an empty vector-of-counts sketch with numBuckets buckets.
func New(seed uint32, numBuckets int) *Sketch {
	return &Sketch{seed: seed, counts: make([]float64, numBuckets)}
}

// Factory returns a sketch factory producing sketches with numBuckets
// buckets, keyed by the per-trial seed.
func Factory(numBuckets int) sketch.Factory {
	return func(seed uint32) (sketch.Sketch, error) {
		if numBuckets < 2 {
			return nil, fmt.Errorf("vectorcount: need at least 2 buckets, got %d", numBuckets)
		}
		return New(seed, numBuckets), nil
	}
}

// AddIDs implements sketch.Sketch. Each id increments exactly one bucket.
func (s *Sketch) AddIDs(ids []string) error {
	for _, id := range ids {
		s.counts[s.bucket(id)]++
	}
	return nil
}

func (s *Sketch) bucket(id string) int {
	h := fnv.New64a()
	var seed [4]byte
	binary.LittleEndian.PutUint32(seed[:], s.seed)
	h.Write(seed[:])
	h.Write([]byte(id))
	return int(h.Sum64() % uint64(len(s.counts)))
}

// Cardinality returns the total count across buckets. It can be negative
// after noising.
func (s *Sketch) Cardinality() float64 {
	return floats.Sum(s.counts)
}

// NumBuckets returns the bucket count.
func (s *Sketch) NumBuckets() int {
	return len(s.counts)
}

func (s *Sketch) clone() *Sketch {
	out := New(s.seed, len(s.counts))
	copy(out.counts, s.counts)
	return out
}

// SequentialEstimator folds a prefix of sketches left to right, estimating
// each pairwise union from the dot product of the bucket vectors.
type SequentialEstimator struct{}

// Estimate implements sketch.Estimator. The result is clamped at zero since
// noised vectors can sum to a negative total.
func (SequentialEstimator) Estimate(sketches []sketch.Sketch) (float64, error) {
	if len(sketches) == 0 {
		return 0, nil
	}
	cur, ok := sketches[0].(*Sketch)
	if !ok {
		return 0, fmt.Errorf("vectorcount: estimator got sketch of type %T, want *vectorcount.Sketch", sketches[0])
	}
	cur = cur.clone()
	for _, sk := range sketches[1:] {
		next, ok := sk.(*Sketch)
		if !ok {
			return 0, fmt.Errorf("vectorcount: estimator got sketch of type %T, want *vectorcount.Sketch", sk)
		}
		merged, err := merge(cur, next)
		if err != nil {
			return 0, err
		}
		cur = merged
	}
	card := cur.Cardinality()
	if card < 0 {
		card = 0
	}
	return card, nil
}

// merge builds a sketch representing the union of a and b. The expected dot
// product of two independent bucket vectors is I + (|A||B| - I)/m where I is
// the intersection size; solving for I gives the correction applied here.
func merge(a, b *Sketch) (*Sketch, error) {
	if len(a.counts) != len(b.counts) || a.seed != b.seed {
		return nil, fmt.Errorf("vectorcount: cannot merge sketches with different buckets or seeds")
	}
	m := float64(len(a.counts))
	ca, cb := a.Cardinality(), b.Cardinality()

	intersection := 0.0
	if ca > 0 && cb > 0 {
		intersection = (floats.Dot(a.counts, b.counts) - ca*cb/m) / (1 - 1/m)
		if intersection < 0 {
			intersection = 0
		}
		if smaller := min(ca, cb); intersection > smaller {
			intersection = smaller
		}
	}
	union := ca + cb - intersection

	out := New(a.seed, len(a.counts))
	scale := 1.0
	if total := ca + cb; total > 0 {
		scale = union / total
	}
	for i := range out.counts {
		out.counts[i] = (a.counts[i] + b.counts[i]) * scale
	}
	return out, nil
}

// LaplaceNoiser adds calibrated Laplace noise to every bucket, giving the
// sketch epsilon-differential privacy under single-id sensitivity. The
// input sketch is left untouched.
type LaplaceNoiser struct {
	epsilon float64
	noise   dpnoise.Noise
}

// NewLaplaceNoiser returns a noiser with the given privacy budget.
func NewLaplaceNoiser(epsilon float64) *LaplaceNoiser {
	return &LaplaceNoiser{epsilon: epsilon, noise: dpnoise.Laplace()}
}

// Noise implements sketch.Noiser.
func (n *LaplaceNoiser) Noise(s sketch.Sketch) (sketch.Sketch, error) {
	vc, ok := s.(*Sketch)
	if !ok {
		return nil, fmt.Errorf("vectorcount: noiser got sketch of type %T, want *vectorcount.Sketch", s)
	}
	out := vc.clone()
	for i, c := range out.counts {
		noised, err := n.noise.AddNoiseFloat64(c, 1, 1, n.epsilon, 0)
		if err != nil {
			return nil, fmt.Errorf("vectorcount: adding laplace noise: %w", err)
		}
		out.counts[i] = noised
	}
	return out, nil
}
