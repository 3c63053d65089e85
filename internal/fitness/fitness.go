// Package fitness scores candidate gains by simulating the closed loop
// and measuring how badly it tracks the setpoint profile.
package fitness

import (
	"context"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/pidtune/internal/control"
	"github.com/san-kum/pidtune/internal/optim"
	"github.com/san-kum/pidtune/internal/plant"
	"github.com/san-kum/pidtune/internal/profile"
	"github.com/san-kum/pidtune/internal/sim"
)

// Objective scores gains by the sum of absolute tracking error over one
// full run. Lower is better. Evaluate is deterministic and safe for
// concurrent calls: the simulator carries no metrics and the integrator
// plant is stateless.
type Objective struct {
	sim *sim.Simulator
	cfg sim.Config
}

// New validates the discretization once so Evaluate stays total.
func New(prof *profile.Profile, cfg sim.Config) (*Objective, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Objective{
		sim: sim.New(prof, plant.NewIntegrator()),
		cfg: cfg,
	}, nil
}

// Evaluate runs the closed loop and returns the L1 tracking error.
// Candidates that cannot run or produce NaN score +Inf, ranking behind
// every finite candidate.
func (o *Objective) Evaluate(g control.Gains) float64 {
	result, err := o.sim.Run(context.Background(), g, o.cfg)
	if err != nil {
		return math.Inf(1)
	}

	score := floats.Distance(result.Setpoints, result.Trajectory, 1)
	if math.IsNaN(score) {
		return math.Inf(1)
	}
	return score
}

// Func adapts the objective to the optimizer's vector contract.
func (o *Objective) Func() optim.Objective {
	return func(vars []float64) float64 {
		return o.Evaluate(control.GainsFromVector(vars))
	}
}
