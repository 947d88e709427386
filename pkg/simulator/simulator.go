// Package simulator evaluates approximate-cardinality estimation methods
// under repeated randomized trials. Each trial builds one sketch per
// generated identifier set, optionally noises the sketches, and estimates
// the union cardinality over growing prefixes against an exactly tracked
// ground truth; the driver repeats the trial and reduces the results to
// per-prefix mean/deviation statistics.
package simulator

import (
	"fmt"
	"io"
	"math"
	"math/rand"
	"time"

	"github.com/rs/zerolog"

	"github.com/openmeasurement/cardbench/pkg/setgen"
	"github.com/openmeasurement/cardbench/pkg/sketch"
)

// Sketch seeds are drawn uniformly from [0, 2^32-2]. The top value is
// excluded to keep seed schedules identical to earlier experiment configs.
const sketchSeedBound = math.MaxUint32

// EstimatorConfig bundles the capabilities of one estimation method. The
// bundle is fixed for the lifetime of a Simulator; only the random seeds
// vary between runs.
type EstimatorConfig struct {
	// SketchFactory builds one empty sketch per generated set. Required.
	SketchFactory sketch.Factory
	// Estimator turns a prefix of sketches into a cardinality. Required.
	Estimator sketch.Estimator
	// Noiser perturbs each finished sketch before estimation. Optional.
	Noiser sketch.Noiser
	// EstimateNoiser perturbs each estimate value. Optional.
	EstimateNoiser sketch.EstimateNoiser
}

func (c EstimatorConfig) validate() error {
	if c.SketchFactory == nil {
		return fmt.Errorf("estimator config missing sketch factory")
	}
	if c.Estimator == nil {
		return fmt.Errorf("estimator config missing estimator")
	}
	return nil
}

// Options configures a Simulator.
type Options struct {
	// NumRuns is the number of independent trials. Must be positive.
	NumRuns int
	// SetGeneratorFactory builds one generator per trial from the shared
	// set stream. Required.
	SetGeneratorFactory setgen.Factory
	// Config is the estimation method under evaluation.
	Config EstimatorConfig
	// SetRand drives synthetic-set generation. Time-seeded when nil.
	SetRand *rand.Rand
	// SketchRand yields one sketch seed per trial. Time-seeded when nil.
	SketchRand *rand.Rand
	// RawOutput, if set, receives the raw table as CSV.
	RawOutput io.Writer
	// AggOutput, if set, receives the aggregate table as CSV.
	AggOutput io.Writer
	// Logger for progress events. Silent when nil.
	Logger *zerolog.Logger
}

// Simulator runs trials sequentially. The two random streams are the only
// state carried between calls; they advance forward only, so trial order
// fixes the results.
type Simulator struct {
	numRuns    int
	genFactory setgen.Factory
	config     EstimatorConfig
	setRand    *rand.Rand
	sketchRand *rand.Rand
	rawOut     io.Writer
	aggOut     io.Writer
	logger     zerolog.Logger
}

// New validates the options and builds a Simulator.
func New(opts Options) (*Simulator, error) {
	if opts.NumRuns <= 0 {
		return nil, fmt.Errorf("num runs must be positive, got %d", opts.NumRuns)
	}
	if opts.SetGeneratorFactory == nil {
		return nil, fmt.Errorf("set generator factory is required")
	}
	if err := opts.Config.validate(); err != nil {
		return nil, err
	}

	setRand := opts.SetRand
	if setRand == nil {
		setRand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	sketchRand := opts.SketchRand
	if sketchRand == nil {
		sketchRand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	logger := zerolog.Nop()
	if opts.Logger != nil {
		logger = *opts.Logger
	}

	return &Simulator{
		numRuns:    opts.NumRuns,
		genFactory: opts.SetGeneratorFactory,
		config:     opts.Config,
		setRand:    setRand,
		sketchRand: sketchRand,
		rawOut:     opts.RawOutput,
		aggOut:     opts.AggOutput,
		logger:     logger,
	}, nil
}

// RunOne executes a single trial and returns its rows, with NumSets,
// EstimatedCardinality and TrueCardinality filled in. A generator that
// yields no sets produces an empty table.
func (s *Simulator) RunOne() (RawTable, error) {
	gen := s.genFactory(s.setRand)

	// One seed per trial: every sketch in the trial shares it so their
	// internal randomness lines up and prefix estimates stay comparable.
	seed := uint32(s.sketchRand.Int63n(sketchSeedBound))

	var sketches []sketch.Sketch
	var actualIDs [][]string
	for {
		ids, ok := gen.Next()
		if !ok {
			break
		}
		sk, err := s.config.SketchFactory(seed)
		if err != nil {
			return nil, fmt.Errorf("building sketch %d: %w", len(sketches), err)
		}
		if err := sk.AddIDs(ids); err != nil {
			return nil, fmt.Errorf("inserting ids into sketch %d: %w", len(sketches), err)
		}
		sketches = append(sketches, sk)
		actualIDs = append(actualIDs, ids)
	}

	if s.config.Noiser != nil {
		for i, sk := range sketches {
			noised, err := s.config.Noiser.Noise(sk)
			if err != nil {
				return nil, fmt.Errorf("noising sketch %d: %w", i, err)
			}
			sketches[i] = noised
		}
	}

	trueUnion := make(map[string]struct{})
	rows := make(RawTable, 0, len(sketches))
	for i := range sketches {
		estimated, err := s.config.Estimator.Estimate(sketches[:i+1])
		if err != nil {
			return nil, fmt.Errorf("estimating cardinality of %d sets: %w", i+1, err)
		}
		if s.config.EstimateNoiser != nil {
			estimated, err = s.config.EstimateNoiser.NoiseEstimate(estimated)
			if err != nil {
				return nil, fmt.Errorf("noising estimate of %d sets: %w", i+1, err)
			}
		}
		for _, id := range actualIDs[i] {
			trueUnion[id] = struct{}{}
		}
		rows = append(rows, Row{
			NumSets:              i + 1,
			EstimatedCardinality: estimated,
			TrueCardinality:      int64(len(trueUnion)),
		})
	}
	return rows, nil
}

// RunAllAndAggregate executes all trials, stamps each row with its run
// index, computes relative errors, reduces to per-num_sets statistics, and
// serializes to the configured sinks. Both tables are returned even when a
// sink write fails; the failure is still surfaced.
func (s *Simulator) RunAllAndAggregate() (RawTable, AggregateTable, error) {
	start := time.Now()
	s.logger.Info().
		Int("num_runs", s.numRuns).
		Msg("Starting simulation")

	var raw RawTable
	for t := 0; t < s.numRuns; t++ {
		rows, err := s.RunOne()
		if err != nil {
			return nil, nil, fmt.Errorf("run %d: %w", t, err)
		}
		for i := range rows {
			rows[i].RunIndex = t
		}
		raw = append(raw, rows...)
		s.logger.Debug().
			Int("run_index", t).
			Int("rows", len(rows)).
			Msg("Run completed")
	}

	for i := range raw {
		raw[i].RelativeError = RelativeError(raw[i].EstimatedCardinality, raw[i].TrueCardinality)
	}
	agg := Aggregate(raw)

	s.logger.Info().
		Int("raw_rows", len(raw)).
		Int("aggregate_rows", len(agg)).
		Dur("elapsed", time.Since(start)).
		Msg("Simulation completed")

	if s.rawOut != nil {
		if err := raw.WriteCSV(s.rawOut); err != nil {
			return raw, agg, fmt.Errorf("writing raw results: %w", err)
		}
	}
	if s.aggOut != nil {
		if err := agg.WriteCSV(s.aggOut); err != nil {
			return raw, agg, fmt.Errorf("writing aggregate results: %w", err)
		}
	}
	return raw, agg, nil
}
