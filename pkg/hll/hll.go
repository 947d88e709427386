// Package hll adapts the BoomFilters HyperLogLog to the sketch capability
// contracts, with a merge-based union estimator.
package hll

import (
	"fmt"

	boom "github.com/tylertreat/BoomFilters"

	"github.com/openmeasurement/cardbench/pkg/sketch"
)

// Sketch wraps a HyperLogLog with m registers.
type Sketch struct {
	hll *boom.HyperLogLog
}

// Factory returns a sketch factory producing HyperLogLogs with m registers
// (m must be a power of two). The trial seed is unused: the underlying
// register hashing is fixed, so sketches are comparable by construction.
func Factory(m uint) sketch.Factory {
	return func(seed uint32) (sketch.Sketch, error) {
		h, err := boom.NewHyperLogLog(m)
		if err != nil {
			return nil, fmt.Errorf("hll: creating sketch: %w", err)
		}
		return &Sketch{hll: h}, nil
	}
}

// AddIDs implements sketch.Sketch.
func (s *Sketch) AddIDs(ids []string) error {
	for _, id := range ids {
		s.hll.Add([]byte(id))
	}
	return nil
}

// Count returns the approximated cardinality of this sketch alone.
func (s *Sketch) Count() uint64 {
	return s.hll.Count()
}

// UnionEstimator merges a prefix of HyperLogLog sketches into a scratch
// sketch and reports its count. M must match the factory's register count.
type UnionEstimator struct {
	M uint
}

// Estimate implements sketch.Estimator.
func (e UnionEstimator) Estimate(sketches []sketch.Sketch) (float64, error) {
	merged, err := boom.NewHyperLogLog(e.M)
	if err != nil {
		return 0, fmt.Errorf("hll: creating union sketch: %w", err)
	}
	for _, sk := range sketches {
		hs, ok := sk.(*Sketch)
		if !ok {
			return 0, fmt.Errorf("hll: estimator got sketch of type %T, want *hll.Sketch", sk)
		}
		if err := merged.Merge(hs.hll); err != nil {
			return 0, fmt.Errorf("hll: merging sketches: %w", err)
		}
	}
	return float64(merged.Count()), nil
}
