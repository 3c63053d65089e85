package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/pidtune/internal/optim"
	"github.com/san-kum/pidtune/internal/profile"
	"github.com/san-kum/pidtune/internal/sim"
)

const (
	DefaultDt        = 0.01
	DefaultDuration  = 30.0
	DefaultTolerance = 0.05
	DefaultSeed      = 42
	DefaultOptimizer = "genetic"

	// Gain ceilings for the search box.
	MaxKp = 10.0
	MaxKi = 1.0
	MaxKd = 1.0

	DefaultGridPoints = 8
)

type Config struct {
	Optimizer string         `yaml:"optimizer"`
	Dt        float64        `yaml:"dt"`
	Duration  float64        `yaml:"duration"`
	Tolerance float64        `yaml:"tolerance"`
	Seed      int64          `yaml:"seed"`
	Setpoints []profile.Step `yaml:"setpoints"`
	Bounds    BoundsConfig   `yaml:"bounds"`
	GA        GAConfig       `yaml:"ga"`
	Grid      GridConfig     `yaml:"grid"`
}

type Range struct {
	Min float64 `yaml:"min"`
	Max float64 `yaml:"max"`
}

type BoundsConfig struct {
	Kp Range `yaml:"kp"`
	Ki Range `yaml:"ki"`
	Kd Range `yaml:"kd"`
}

type GAConfig struct {
	Population  int     `yaml:"population"`
	Generations int     `yaml:"generations"`
	Crossover   float64 `yaml:"crossover"`
	Mutation    float64 `yaml:"mutation"`
	Elitism     float64 `yaml:"elitism"`
	Tournament  int     `yaml:"tournament"`
	Workers     int     `yaml:"workers"`
}

type GridConfig struct {
	Points int `yaml:"points"`
}

func DefaultConfig() *Config {
	ga := optim.DefaultGeneticConfig()
	return &Config{
		Optimizer: DefaultOptimizer,
		Dt:        DefaultDt,
		Duration:  DefaultDuration,
		Tolerance: DefaultTolerance,
		Seed:      DefaultSeed,
		Setpoints: profile.Default().Steps(),
		Bounds: BoundsConfig{
			Kp: Range{Min: 0, Max: MaxKp},
			Ki: Range{Min: 0, Max: MaxKi},
			Kd: Range{Min: 0, Max: MaxKd},
		},
		GA: GAConfig{
			Population:  ga.Population,
			Generations: ga.Generations,
			Crossover:   ga.CrossoverRate,
			Mutation:    ga.MutationRate,
			Elitism:     ga.ElitismRatio,
			Tournament:  ga.TournamentSize,
			Workers:     ga.Workers,
		},
		Grid: GridConfig{Points: DefaultGridPoints},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Clone returns a deep copy, so callers can override fields without
// touching shared presets.
func (c *Config) Clone() *Config {
	out := *c
	out.Setpoints = make([]profile.Step, len(c.Setpoints))
	copy(out.Setpoints, c.Setpoints)
	return &out
}

// Validate surfaces bad settings before any simulation or search runs.
func (c *Config) Validate() error {
	if err := c.SimConfig().Validate(); err != nil {
		return err
	}
	if _, err := c.Profile(); err != nil {
		return err
	}
	if c.Tolerance <= 0 || c.Tolerance >= 1 {
		return fmt.Errorf("config: tolerance must be in (0,1), got %v", c.Tolerance)
	}
	switch c.Optimizer {
	case "genetic", "grid":
	default:
		return fmt.Errorf("config: unknown optimizer %q", c.Optimizer)
	}
	return c.validateBounds()
}

func (c *Config) validateBounds() error {
	if err := optim.ValidateBounds(c.OptimBounds()); err != nil {
		return err
	}

	checks := []struct {
		name    string
		r       Range
		ceiling float64
	}{
		{"kp", c.Bounds.Kp, MaxKp},
		{"ki", c.Bounds.Ki, MaxKi},
		{"kd", c.Bounds.Kd, MaxKd},
	}
	for _, ck := range checks {
		if ck.r.Min < 0 {
			return fmt.Errorf("%w: %s min %v is negative", optim.ErrInvalidBounds, ck.name, ck.r.Min)
		}
		if ck.r.Max > ck.ceiling {
			return fmt.Errorf("%w: %s max %v above ceiling %v", optim.ErrInvalidBounds, ck.name, ck.r.Max, ck.ceiling)
		}
	}
	return nil
}

func (c *Config) SimConfig() sim.Config {
	return sim.Config{Dt: c.Dt, Duration: c.Duration}
}

func (c *Config) Profile() (*profile.Profile, error) {
	return profile.New(c.Setpoints)
}

// OptimBounds returns the search box in decision-vector order, which
// matches [control.Gains.Vector]: Kp, Ki, Kd.
func (c *Config) OptimBounds() []optim.Bounds {
	return []optim.Bounds{
		{Min: c.Bounds.Kp.Min, Max: c.Bounds.Kp.Max},
		{Min: c.Bounds.Ki.Min, Max: c.Bounds.Ki.Max},
		{Min: c.Bounds.Kd.Min, Max: c.Bounds.Kd.Max},
	}
}

func (c *Config) GeneticConfig() optim.GeneticConfig {
	return optim.GeneticConfig{
		Population:     c.GA.Population,
		Generations:    c.GA.Generations,
		CrossoverRate:  c.GA.Crossover,
		MutationRate:   c.GA.Mutation,
		ElitismRatio:   c.GA.Elitism,
		TournamentSize: c.GA.Tournament,
		Workers:        c.GA.Workers,
		Seed:           c.Seed,
	}
}
