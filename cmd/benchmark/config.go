package main

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

// Config manages benchmark configuration using Viper.
type Config struct {
	v *viper.Viper
}

// NewConfig creates a new configuration with defaults.
func NewConfig() *Config {
	v := viper.New()

	// Simulation parameters
	v.SetDefault("simulation.universe_size", 1000000)
	v.SetDefault("simulation.num_sets", 10)
	v.SetDefault("simulation.set_size", 1000)
	v.SetDefault("simulation.num_trials", 10)
	v.SetDefault("simulation.set_seed", 1)
	v.SetDefault("simulation.sketch_seed", 1)

	// Sketch parameters
	v.SetDefault("hll.registers", 4096)
	v.SetDefault("vector_of_counts.buckets", 8192)
	v.SetDefault("privacy.epsilon", 1.0)
	v.SetDefault("privacy.delta", 1e-5)

	// Output parameters
	v.SetDefault("output.dir", "results")

	// Logging parameters
	v.SetDefault("logging.level", "info")

	return &Config{v: v}
}

// LoadFromFile loads configuration from file.
func (c *Config) LoadFromFile(path string) error {
	c.v.SetConfigFile(path)
	return c.v.ReadInConfig()
}

func (c *Config) UniverseSize() int64 { return c.v.GetInt64("simulation.universe_size") }
func (c *Config) NumSets() int        { return c.v.GetInt("simulation.num_sets") }
func (c *Config) SetSize() int        { return c.v.GetInt("simulation.set_size") }
func (c *Config) NumTrials() int      { return c.v.GetInt("simulation.num_trials") }
func (c *Config) SetSeed() int64      { return c.v.GetInt64("simulation.set_seed") }
func (c *Config) SketchSeed() int64   { return c.v.GetInt64("simulation.sketch_seed") }

func (c *Config) HLLRegisters() uint        { return c.v.GetUint("hll.registers") }
func (c *Config) VectorOfCountsBuckets() int { return c.v.GetInt("vector_of_counts.buckets") }
func (c *Config) Epsilon() float64           { return c.v.GetFloat64("privacy.epsilon") }
func (c *Config) Delta() float64             { return c.v.GetFloat64("privacy.delta") }

func (c *Config) OutputDir() string { return c.v.GetString("output.dir") }
func (c *Config) LogLevel() string  { return c.v.GetString("logging.level") }

// CreateLogger builds a console logger at the configured level.
func (c *Config) CreateLogger() zerolog.Logger {
	level, err := zerolog.ParseLevel(c.LogLevel())
	if err != nil {
		level = zerolog.InfoLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(level).
		With().Timestamp().Logger()
}
