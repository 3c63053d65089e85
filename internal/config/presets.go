package config

import (
	"sort"

	"github.com/san-kum/pidtune/internal/profile"
)

func preset(mutate func(*Config)) *Config {
	cfg := DefaultConfig()
	mutate(cfg)
	return cfg
}

var Presets = map[string]*Config{
	// Stock three-step staircase with the full search budget.
	"default": DefaultConfig(),

	// Small budget for interactive experiments.
	"quick": preset(func(c *Config) {
		c.GA.Population = 30
		c.GA.Generations = 40
	}),

	// Large budget for final tuning passes.
	"thorough": preset(func(c *Config) {
		c.GA.Population = 150
		c.GA.Generations = 300
	}),

	// Single unit step, short horizon. Handy for classic step-response
	// reading of overshoot and settling.
	"step": preset(func(c *Config) {
		c.Duration = 10.0
		c.Setpoints = []profile.Step{{At: 0, Level: 1.0}}
	}),

	// Coarse exhaustive search instead of the genetic one.
	"grid": preset(func(c *Config) {
		c.Optimizer = "grid"
		c.Grid.Points = 12
	}),
}

func GetPreset(name string) *Config {
	cfg, ok := Presets[name]
	if !ok {
		return nil
	}
	return cfg.Clone()
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
