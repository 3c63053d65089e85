package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/san-kum/pidtune/internal/optim"
	"github.com/san-kum/pidtune/internal/profile"
	"github.com/san-kum/pidtune/internal/sim"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
	if cfg.Dt != 0.01 {
		t.Errorf("expected dt 0.01, got %v", cfg.Dt)
	}
	if cfg.Duration != 30.0 {
		t.Errorf("expected duration 30, got %v", cfg.Duration)
	}
	if len(cfg.Setpoints) != 3 {
		t.Errorf("expected 3 setpoint steps, got %d", len(cfg.Setpoints))
	}
	if cfg.Bounds.Kp.Max != MaxKp || cfg.Bounds.Ki.Max != MaxKi || cfg.Bounds.Kd.Max != MaxKd {
		t.Errorf("expected bounds at ceilings, got %+v", cfg.Bounds)
	}
	if cfg.Optimizer != "genetic" {
		t.Errorf("expected genetic optimizer, got %q", cfg.Optimizer)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte("duration: 10.0\nga:\n  population: 20\n")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.Duration != 10.0 {
		t.Errorf("expected overridden duration 10, got %v", cfg.Duration)
	}
	if cfg.GA.Population != 20 {
		t.Errorf("expected overridden population 20, got %d", cfg.GA.Population)
	}
	// Untouched fields keep their defaults.
	if cfg.Dt != DefaultDt {
		t.Errorf("expected default dt, got %v", cfg.Dt)
	}
	if cfg.GA.Generations != DefaultConfig().GA.Generations {
		t.Errorf("expected default generations, got %d", cfg.GA.Generations)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	orig := DefaultConfig()
	orig.Seed = 7
	orig.Setpoints = []profile.Step{{At: 0, Level: 2.5}}
	if err := Save(path, orig); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if loaded.Seed != 7 {
		t.Errorf("expected seed 7, got %d", loaded.Seed)
	}
	if len(loaded.Setpoints) != 1 || loaded.Setpoints[0].Level != 2.5 {
		t.Errorf("setpoints did not round trip: %+v", loaded.Setpoints)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   error
	}{
		{"zero dt", func(c *Config) { c.Dt = 0 }, sim.ErrInvalidTimeStep},
		{"negative duration", func(c *Config) { c.Duration = -1 }, sim.ErrInvalidDuration},
		{"no setpoints", func(c *Config) { c.Setpoints = nil }, profile.ErrInvalidProfile},
		{"profile not at zero", func(c *Config) { c.Setpoints = []profile.Step{{At: 1, Level: 1}} }, profile.ErrInvalidProfile},
		{"inverted bounds", func(c *Config) { c.Bounds.Kp = Range{Min: 5, Max: 1} }, optim.ErrInvalidBounds},
		{"negative min", func(c *Config) { c.Bounds.Ki = Range{Min: -0.1, Max: 0.5} }, optim.ErrInvalidBounds},
		{"above ceiling", func(c *Config) { c.Bounds.Kd = Range{Min: 0, Max: 2.0} }, optim.ErrInvalidBounds},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestValidateRejectsBadTolerance(t *testing.T) {
	for _, tol := range []float64{0, -0.05, 1.0, 2.0} {
		cfg := DefaultConfig()
		cfg.Tolerance = tol
		if err := cfg.Validate(); err == nil {
			t.Errorf("tolerance %v should not validate", tol)
		}
	}
}

func TestValidateRejectsUnknownOptimizer(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Optimizer = "annealing"
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for unknown optimizer")
	}
}

func TestGetPreset(t *testing.T) {
	cfg := GetPreset("quick")
	if cfg == nil {
		t.Fatal("expected preset, got nil")
	}
	if cfg.GA.Population != 30 {
		t.Errorf("expected population 30, got %d", cfg.GA.Population)
	}
}

func TestGetPreset_NotFound(t *testing.T) {
	if cfg := GetPreset("nonexistent"); cfg != nil {
		t.Error("expected nil for nonexistent preset")
	}
}

func TestGetPresetReturnsCopy(t *testing.T) {
	a := GetPreset("step")
	a.Setpoints[0].Level = -123
	a.GA.Population = 1

	b := GetPreset("step")
	if b.Setpoints[0].Level != 1.0 {
		t.Error("mutating a preset copy leaked into the shared preset")
	}
	if b.GA.Population == 1 {
		t.Error("mutating a preset copy leaked scalar fields")
	}
}

func TestListPresets(t *testing.T) {
	names := ListPresets()
	if len(names) == 0 {
		t.Fatal("expected presets")
	}

	found := false
	for _, n := range names {
		if n == "default" {
			found = true
		}
	}
	if !found {
		t.Error("expected a default preset")
	}
}

func TestPresetsAllValidate(t *testing.T) {
	for name := range Presets {
		if err := GetPreset(name).Validate(); err != nil {
			t.Errorf("preset %q does not validate: %v", name, err)
		}
	}
}

func TestGeneticConfigMapping(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Seed = 99
	cfg.GA.Population = 50

	gc := cfg.GeneticConfig()
	if gc.Seed != 99 {
		t.Errorf("seed not carried: got %d", gc.Seed)
	}
	if gc.Population != 50 {
		t.Errorf("population not carried: got %d", gc.Population)
	}
	if gc.CrossoverRate != cfg.GA.Crossover {
		t.Errorf("crossover not carried: got %v", gc.CrossoverRate)
	}
}

func TestOptimBoundsOrder(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Bounds.Kp = Range{Min: 1, Max: 2}
	cfg.Bounds.Ki = Range{Min: 3, Max: 4}
	cfg.Bounds.Kd = Range{Min: 5, Max: 6}

	b := cfg.OptimBounds()
	if b[0].Min != 1 || b[1].Min != 3 || b[2].Min != 5 {
		t.Errorf("bounds out of Kp, Ki, Kd order: %+v", b)
	}
}
