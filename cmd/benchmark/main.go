// Benchmark runs the same synthetic-set schedule against several
// cardinality-estimation families and writes per-family raw and aggregate
// CSVs, mirroring a typical method-comparison experiment.
package main

import (
	"math/rand"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/openmeasurement/cardbench/pkg/exactset"
	"github.com/openmeasurement/cardbench/pkg/hll"
	"github.com/openmeasurement/cardbench/pkg/noisers"
	"github.com/openmeasurement/cardbench/pkg/setgen"
	"github.com/openmeasurement/cardbench/pkg/simulator"
	"github.com/openmeasurement/cardbench/pkg/vectorcount"
)

type family struct {
	name   string
	config simulator.EstimatorConfig
}

func main() {
	cfg := NewConfig()
	if len(os.Args) > 1 {
		if err := cfg.LoadFromFile(os.Args[1]); err != nil {
			bootLogger := cfg.CreateLogger()
			bootLogger.Fatal().Err(err).Str("path", os.Args[1]).Msg("Failed to load configuration")
		}
	}
	logger := cfg.CreateLogger()

	experimentID := uuid.New().String()
	logger.Info().
		Str("experiment_id", experimentID).
		Int64("universe_size", cfg.UniverseSize()).
		Int("num_sets", cfg.NumSets()).
		Int("set_size", cfg.SetSize()).
		Int("num_trials", cfg.NumTrials()).
		Msg("Starting cardinality benchmark")

	families := []family{
		{
			name: "exact_set",
			config: simulator.EstimatorConfig{
				SketchFactory: exactset.Factory(),
				Estimator:     exactset.LosslessEstimator{},
			},
		},
		{
			name: "less_one",
			config: simulator.EstimatorConfig{
				SketchFactory: exactset.Factory(),
				Estimator:     exactset.LessOneEstimator{},
			},
		},
		{
			name: "exact_set_gaussian",
			config: simulator.EstimatorConfig{
				SketchFactory:  exactset.Factory(),
				Estimator:      exactset.LosslessEstimator{},
				EstimateNoiser: noisers.NewGaussianEstimateNoiser(cfg.Epsilon(), cfg.Delta()),
			},
		},
		{
			name: "hll",
			config: simulator.EstimatorConfig{
				SketchFactory: hll.Factory(cfg.HLLRegisters()),
				Estimator:     hll.UnionEstimator{M: cfg.HLLRegisters()},
			},
		},
		{
			name: "vector_of_counts",
			config: simulator.EstimatorConfig{
				SketchFactory: vectorcount.Factory(cfg.VectorOfCountsBuckets()),
				Estimator:     vectorcount.SequentialEstimator{},
			},
		},
		{
			name: "vector_of_counts_laplace",
			config: simulator.EstimatorConfig{
				SketchFactory: vectorcount.Factory(cfg.VectorOfCountsBuckets()),
				Estimator:     vectorcount.SequentialEstimator{},
				Noiser:        vectorcount.NewLaplaceNoiser(cfg.Epsilon()),
			},
		},
	}

	if err := os.MkdirAll(cfg.OutputDir(), 0755); err != nil {
		logger.Fatal().Err(err).Str("dir", cfg.OutputDir()).Msg("Failed to create output directory")
	}

	genFactory := setgen.NewIndependentFactory(cfg.UniverseSize(), cfg.NumSets(), cfg.SetSize())

	for _, fam := range families {
		famLogger := logger.With().Str("method", fam.name).Logger()
		famLogger.Info().Msg("Evaluating method")

		rawPath := filepath.Join(cfg.OutputDir(), fam.name+"_raw.csv")
		aggPath := filepath.Join(cfg.OutputDir(), fam.name+"_agg.csv")
		rawFile, err := os.Create(rawPath)
		if err != nil {
			famLogger.Fatal().Err(err).Str("path", rawPath).Msg("Failed to create raw output")
		}
		aggFile, err := os.Create(aggPath)
		if err != nil {
			famLogger.Fatal().Err(err).Str("path", aggPath).Msg("Failed to create aggregate output")
		}

		// Identical seeds per family so every method sees the same sets.
		sim, err := simulator.New(simulator.Options{
			NumRuns:             cfg.NumTrials(),
			SetGeneratorFactory: genFactory,
			Config:              fam.config,
			SetRand:             rand.New(rand.NewSource(cfg.SetSeed())),
			SketchRand:          rand.New(rand.NewSource(cfg.SketchSeed())),
			RawOutput:           rawFile,
			AggOutput:           aggFile,
			Logger:              &famLogger,
		})
		if err != nil {
			famLogger.Fatal().Err(err).Msg("Invalid simulation options")
		}

		_, agg, err := sim.RunAllAndAggregate()
		if err != nil {
			famLogger.Fatal().Err(err).Msg("Simulation failed")
		}
		rawFile.Close()
		aggFile.Close()

		for _, row := range agg {
			famLogger.Info().
				Int("num_sets", row.NumSets).
				Float64("estimated_mean", row.EstimatedCardinalityMean).
				Float64("estimated_std", row.EstimatedCardinalityStd).
				Float64("true_mean", row.TrueCardinalityMean).
				Float64("relative_error_mean", row.RelativeErrorMean).
				Float64("relative_error_std", row.RelativeErrorStd).
				Msg("Aggregate statistics")
		}
		famLogger.Info().Str("raw", rawPath).Str("agg", aggPath).Msg("Results written")
	}

	logger.Info().Str("experiment_id", experimentID).Msg("Benchmark completed")
}
