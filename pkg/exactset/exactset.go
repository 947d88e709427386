// Package exactset provides the exact-membership reference family: a sketch
// that simply remembers every identifier, a lossless estimator, and noisers
// useful for exercising the simulation pipeline. It is the ground-truth
// baseline the approximate families are graded against.
package exactset

import (
	"fmt"
	"math/rand"
	"strconv"

	"github.com/openmeasurement/cardbench/pkg/sketch"
)

// ExactSet stores the inserted identifiers verbatim.
type ExactSet struct {
	ids map[string]struct{}
}

// New returns an empty ExactSet.
func New() *ExactSet {
	return &ExactSet{ids: make(map[string]struct{})}
}

// Factory returns a sketch factory producing empty ExactSets. The seed is
// ignored: exact membership has no internal randomness.
func Factory() sketch.Factory {
	return func(seed uint32) (sketch.Sketch, error) {
		return New(), nil
	}
}

// AddIDs inserts identifiers. Duplicates are absorbed.
func (s *ExactSet) AddIDs(ids []string) error {
	for _, id := range ids {
		s.ids[id] = struct{}{}
	}
	return nil
}

// Cardinality returns the exact number of distinct identifiers inserted.
func (s *ExactSet) Cardinality() int {
	return len(s.ids)
}

// Contains reports whether id was inserted.
func (s *ExactSet) Contains(id string) bool {
	_, ok := s.ids[id]
	return ok
}

func (s *ExactSet) clone() *ExactSet {
	out := New()
	for id := range s.ids {
		out.ids[id] = struct{}{}
	}
	return out
}

// LosslessEstimator returns the exact union cardinality of ExactSet
// sketches. Paired with Factory it forms the identity configuration whose
// relative error is zero by construction.
type LosslessEstimator struct{}

// Estimate implements sketch.Estimator.
func (LosslessEstimator) Estimate(sketches []sketch.Sketch) (float64, error) {
	union := make(map[string]struct{})
	for _, sk := range sketches {
		es, ok := sk.(*ExactSet)
		if !ok {
			return 0, fmt.Errorf("exactset: estimator got sketch of type %T, want *ExactSet", sk)
		}
		for id := range es.ids {
			union[id] = struct{}{}
		}
	}
	return float64(len(union)), nil
}

// LessOneEstimator reports the exact union cardinality minus one, floored at
// zero. A deliberately biased reference used to sanity-check error
// statistics.
type LessOneEstimator struct{}

// Estimate implements sketch.Estimator.
func (LessOneEstimator) Estimate(sketches []sketch.Sketch) (float64, error) {
	exact, err := LosslessEstimator{}.Estimate(sketches)
	if err != nil {
		return 0, err
	}
	if exact <= 1 {
		return 0, nil
	}
	return exact - 1, nil
}

// AddRandomIDsNoiser perturbs an ExactSet by inserting a fixed number of
// random identifiers drawn from its own stream. The input sketch is left
// untouched.
type AddRandomIDsNoiser struct {
	numIDs int
	rng    *rand.Rand
}

// NewAddRandomIDsNoiser returns a noiser inserting numIDs random ids per
// sketch.
func NewAddRandomIDsNoiser(numIDs int, rng *rand.Rand) *AddRandomIDsNoiser {
	return &AddRandomIDsNoiser{numIDs: numIDs, rng: rng}
}

// Noise implements sketch.Noiser.
func (n *AddRandomIDsNoiser) Noise(s sketch.Sketch) (sketch.Sketch, error) {
	es, ok := s.(*ExactSet)
	if !ok {
		return nil, fmt.Errorf("exactset: noiser got sketch of type %T, want *ExactSet", s)
	}
	out := es.clone()
	for i := 0; i < n.numIDs; i++ {
		out.ids["noise:"+strconv.FormatUint(n.rng.Uint64(), 16)] = struct{}{}
	}
	return out, nil
}
