// Package sketch defines the capability contracts shared by every pluggable
// cardinality-estimation method: how sketches are built, filled, noised and
// turned into estimates. The simulation core depends only on these
// interfaces; concrete families live in their own packages.
package sketch

// Sketch is a compact summary of a set of identifiers, suitable for
// approximate-cardinality queries. Implementations are opaque to the
// simulation core: the only operation the core performs is insertion.
type Sketch interface {
	// AddIDs inserts a batch of identifiers. Insertion order must not
	// affect the resulting estimates.
	AddIDs(ids []string) error
}

// Factory builds a fresh, empty sketch from a random seed. All sketches
// within one trial receive the same seed so that any internal randomness
// (hash selection, register permutation) is held constant and the sketches
// stay comparable.
type Factory func(seed uint32) (Sketch, error)

// Estimator computes a single cardinality estimate for the union of all
// identifiers inserted into an ordered sequence of sketches. The result is
// a non-negative real number.
type Estimator interface {
	Estimate(sketches []Sketch) (float64, error)
}

// Noiser perturbs one finished sketch, typically to provide differential
// privacy. It receives the sketch only after all insertions are complete
// and never sees raw identifiers.
type Noiser interface {
	Noise(s Sketch) (Sketch, error)
}

// EstimateNoiser perturbs the estimate value itself, after the estimator
// has run.
type EstimateNoiser interface {
	NoiseEstimate(estimate float64) (float64, error)
}
