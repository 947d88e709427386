// Package noisers provides estimate noisers: mechanisms that perturb the
// final cardinality estimate rather than the sketches it was computed from.
package noisers

import (
	"fmt"

	dpnoise "github.com/google/differential-privacy/go/v3/noise"
)

// LaplaceEstimateNoiser adds calibrated Laplace noise to an estimate.
type LaplaceEstimateNoiser struct {
	epsilon float64
	noise   dpnoise.Noise
}

// NewLaplaceEstimateNoiser returns a noiser with the given privacy budget.
func NewLaplaceEstimateNoiser(epsilon float64) *LaplaceEstimateNoiser {
	return &LaplaceEstimateNoiser{epsilon: epsilon, noise: dpnoise.Laplace()}
}

// NoiseEstimate implements sketch.EstimateNoiser.
func (n *LaplaceEstimateNoiser) NoiseEstimate(estimate float64) (float64, error) {
	noised, err := n.noise.AddNoiseFloat64(estimate, 1, 1, n.epsilon, 0)
	if err != nil {
		return 0, fmt.Errorf("noisers: adding laplace noise: %w", err)
	}
	return noised, nil
}

// GaussianEstimateNoiser adds calibrated Gaussian noise to an estimate.
// Delta must be positive.
type GaussianEstimateNoiser struct {
	epsilon float64
	delta   float64
	noise   dpnoise.Noise
}

// NewGaussianEstimateNoiser returns a noiser with the given privacy budget.
func NewGaussianEstimateNoiser(epsilon, delta float64) *GaussianEstimateNoiser {
	return &GaussianEstimateNoiser{epsilon: epsilon, delta: delta, noise: dpnoise.Gaussian()}
}

// NoiseEstimate implements sketch.EstimateNoiser.
func (n *GaussianEstimateNoiser) NoiseEstimate(estimate float64) (float64, error) {
	noised, err := n.noise.AddNoiseFloat64(estimate, 1, 1, n.epsilon, n.delta)
	if err != nil {
		return 0, fmt.Errorf("noisers: adding gaussian noise: %w", err)
	}
	return noised, nil
}
