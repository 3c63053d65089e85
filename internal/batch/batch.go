// Package batch runs scripted sequences of loop evaluations: named
// gain sets from a YAML scenario, single-gain sweeps, and randomized
// robustness trials around a nominal gain set.
package batch

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"os"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/pidtune/internal/control"
	"github.com/san-kum/pidtune/internal/tune"
)

// Scenario is a scripted list of gain sets evaluated against one
// shared configuration.
type Scenario struct {
	Name        string          `yaml:"name"`
	Description string          `yaml:"description"`
	Entries     []ScenarioEntry `yaml:"entries"`
}

// ScenarioEntry is a single named gain set in a scenario.
type ScenarioEntry struct {
	Name string  `yaml:"name"`
	Kp   float64 `yaml:"kp"`
	Ki   float64 `yaml:"ki"`
	Kd   float64 `yaml:"kd"`
}

// Gains returns the entry's gain triple.
func (e ScenarioEntry) Gains() control.Gains {
	return control.Gains{Kp: e.Kp, Ki: e.Ki, Kd: e.Kd}
}

// EntryResult pairs a scenario entry with its evaluated outcome.
type EntryResult struct {
	Name    string
	Outcome *tune.Outcome
}

// LoadScenario loads a scenario from a YAML file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, err
	}

	if len(scenario.Entries) == 0 {
		return nil, fmt.Errorf("scenario %q has no entries", scenario.Name)
	}

	return &scenario, nil
}

// RunScenario evaluates every entry in order. On error the results
// gathered so far come back alongside it.
func RunScenario(ctx context.Context, scenario *Scenario, session *tune.Session) ([]EntryResult, error) {
	results := make([]EntryResult, 0, len(scenario.Entries))

	for i, entry := range scenario.Entries {
		fmt.Printf("running entry %d/%d: %s\n", i+1, len(scenario.Entries), entry.Name)

		outcome, err := session.Evaluate(ctx, entry.Gains())
		if err != nil {
			return results, fmt.Errorf("entry %d (%s): %w", i+1, entry.Name, err)
		}

		results = append(results, EntryResult{Name: entry.Name, Outcome: outcome})
	}

	return results, nil
}

// Sweep varies one gain across a range while holding the others at
// the base values.
type Sweep struct {
	Gain  string // "kp", "ki", or "kd"
	Min   float64
	Max   float64
	Steps int
	Base  control.Gains
}

// SweepPoint is the evaluation at one swept value.
type SweepPoint struct {
	Value        float64
	Fitness      float64
	Settled      bool
	SettlingTime float64
}

// RunSweep evaluates the loop at evenly spaced values of one gain.
func RunSweep(ctx context.Context, sweep *Sweep, session *tune.Session) ([]SweepPoint, error) {
	if sweep.Steps < 2 {
		return nil, fmt.Errorf("sweep needs at least 2 steps, got %d", sweep.Steps)
	}
	if sweep.Min > sweep.Max {
		return nil, fmt.Errorf("sweep range inverted: min %v > max %v", sweep.Min, sweep.Max)
	}
	switch sweep.Gain {
	case "kp", "ki", "kd":
	default:
		return nil, fmt.Errorf("unknown gain %q (want kp, ki, or kd)", sweep.Gain)
	}

	values := floats.Span(make([]float64, sweep.Steps), sweep.Min, sweep.Max)
	points := make([]SweepPoint, 0, sweep.Steps)

	for i, v := range values {
		gains := sweep.Base
		switch sweep.Gain {
		case "kp":
			gains.Kp = v
		case "ki":
			gains.Ki = v
		case "kd":
			gains.Kd = v
		}

		outcome, err := session.Evaluate(ctx, gains)
		if err != nil {
			return points, fmt.Errorf("sweep %s=%v: %w", sweep.Gain, v, err)
		}

		points = append(points, SweepPoint{
			Value:        v,
			Fitness:      outcome.Fitness,
			Settled:      outcome.Settled,
			SettlingTime: outcome.SettlingTime,
		})

		fmt.Printf("sweep %d/%d: %s=%.4f fitness=%.4f\n", i+1, sweep.Steps, sweep.Gain, v, outcome.Fitness)
	}

	return points, nil
}

// Robustness perturbs a nominal gain set and counts how often the
// loop still settles.
type Robustness struct {
	Gains        control.Gains
	Perturbation float64 // fraction of each gain
	Trials       int
	Seed         int64
}

// Trial is one randomized evaluation.
type Trial struct {
	ID      int
	Gains   control.Gains
	Fitness float64
	Settled bool
}

// RunRobustness evaluates randomly perturbed copies of the nominal
// gains. Each gain is scaled by an independent uniform factor in
// [1-p, 1+p] and floored at zero.
func RunRobustness(ctx context.Context, cfg *Robustness, session *tune.Session) ([]Trial, error) {
	if cfg.Trials < 1 {
		return nil, fmt.Errorf("robustness needs at least 1 trial, got %d", cfg.Trials)
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	if cfg.Seed == 0 {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	trials := make([]Trial, 0, cfg.Trials)

	for trial := 0; trial < cfg.Trials; trial++ {
		gains := control.Gains{
			Kp: perturbed(rng, cfg.Gains.Kp, cfg.Perturbation),
			Ki: perturbed(rng, cfg.Gains.Ki, cfg.Perturbation),
			Kd: perturbed(rng, cfg.Gains.Kd, cfg.Perturbation),
		}

		outcome, err := session.Evaluate(ctx, gains)
		if err != nil {
			return trials, fmt.Errorf("trial %d: %w", trial, err)
		}

		trials = append(trials, Trial{
			ID:      trial,
			Gains:   gains,
			Fitness: outcome.Fitness,
			Settled: outcome.Settled,
		})

		if (trial+1)%10 == 0 {
			fmt.Printf("robustness: %d/%d trials complete\n", trial+1, cfg.Trials)
		}
	}

	return trials, nil
}

func perturbed(rng *rand.Rand, v, fraction float64) float64 {
	out := v * (1 + (rng.Float64()-0.5)*2*fraction)
	if out < 0 {
		return 0
	}
	return out
}

// RobustnessStats summarizes trials: how many settled, and the mean
// and standard deviation of the finite fitness values.
func RobustnessStats(trials []Trial) (settled int, mean, std float64) {
	finite := make([]float64, 0, len(trials))
	for _, tr := range trials {
		if tr.Settled {
			settled++
		}
		if !math.IsInf(tr.Fitness, 0) && !math.IsNaN(tr.Fitness) {
			finite = append(finite, tr.Fitness)
		}
	}
	if len(finite) > 0 {
		mean = stat.Mean(finite, nil)
	}
	// StdDev divides by n-1 and gives NaN for a single sample.
	if len(finite) > 1 {
		std = stat.StdDev(finite, nil)
	}
	return
}
