package sim

import (
	"fmt"
	"math"

	"github.com/san-kum/pidtune/internal/control"
)

// Metric accumulates a scalar statistic over a run. Observe is called
// once per step with the post-step process variable, the setpoint and
// control signal that produced it, and the step's start time.
type Metric interface {
	Name() string
	Observe(pv, sp, u, t float64)
	Value() float64
	Reset()
}

// Config fixes the discretization of a run.
type Config struct {
	Dt       float64
	Duration float64
}

// Steps returns the number of samples in the horizon. Rounded, not
// truncated: 30/0.01 lands a hair under 3000 in floats.
func (c Config) Steps() int {
	return int(math.Round(c.Duration / c.Dt))
}

// Validate rejects discretizations the loop cannot run.
func (c Config) Validate() error {
	if c.Dt <= 0 || math.IsNaN(c.Dt) || math.IsInf(c.Dt, 0) {
		return fmt.Errorf("%w: got dt=%v", ErrInvalidTimeStep, c.Dt)
	}
	if c.Duration <= 0 || math.IsNaN(c.Duration) || math.IsInf(c.Duration, 0) {
		return fmt.Errorf("%w: got duration=%v", ErrInvalidDuration, c.Duration)
	}
	if c.Steps() < 2 {
		return fmt.Errorf("%w: duration=%v dt=%v gives %d steps", ErrHorizonTooShort, c.Duration, c.Dt, c.Steps())
	}
	return nil
}

// Result holds one run's trajectory, aligned by sample index:
// Trajectory[i] is the process variable after the step computed at
// Times[i] against Setpoints[i] with control Controls[i]. GainTrace
// records the gains in force at each step; they are constant within a
// run today, but downstream plotting treats them as a series.
type Result struct {
	Times      []float64
	Setpoints  []float64
	Trajectory []float64
	Controls   []float64
	GainTrace  []control.Gains
	Metrics    map[string]float64
}
