// Package profile defines piecewise-constant setpoint profiles.
//
// A profile maps simulation time to the reference the controller should
// track. Steps are half-open intervals: a step's level holds from its
// start time until the next step begins, and the last level holds
// forever. Profiles are immutable after construction and safe for
// concurrent reads.
package profile

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidProfile is returned when the step list is empty, unordered,
// does not start at t=0, or contains non-finite values.
var ErrInvalidProfile = errors.New("profile: invalid setpoint profile")

// Step starts a new constant setpoint level at time At.
type Step struct {
	At    float64 `json:"at" yaml:"at"`
	Level float64 `json:"level" yaml:"level"`
}

// Profile is an ordered sequence of setpoint steps.
type Profile struct {
	steps []Step
}

// New builds a profile from steps ordered by start time. The first step
// must start at t=0 so the profile is defined over the whole horizon.
func New(steps []Step) (*Profile, error) {
	if len(steps) == 0 {
		return nil, fmt.Errorf("%w: no steps", ErrInvalidProfile)
	}
	if steps[0].At != 0 {
		return nil, fmt.Errorf("%w: first step must start at t=0, got t=%v", ErrInvalidProfile, steps[0].At)
	}
	for i, s := range steps {
		if math.IsNaN(s.At) || math.IsInf(s.At, 0) || math.IsNaN(s.Level) || math.IsInf(s.Level, 0) {
			return nil, fmt.Errorf("%w: step %d is not finite", ErrInvalidProfile, i)
		}
		if i > 0 && s.At <= steps[i-1].At {
			return nil, fmt.Errorf("%w: step times must be strictly increasing (step %d at t=%v)", ErrInvalidProfile, i, s.At)
		}
	}

	p := &Profile{steps: make([]Step, len(steps))}
	copy(p.steps, steps)
	return p, nil
}

// Constant is a single-level profile holding level for all time.
func Constant(level float64) *Profile {
	return &Profile{steps: []Step{{At: 0, Level: level}}}
}

// Default is the three-step staircase used by the stock tuning scenario:
// 5.0 from the start, 8.0 at t=10s, 10.0 at t=20s.
func Default() *Profile {
	return &Profile{steps: []Step{
		{At: 0, Level: 5.0},
		{At: 10.0, Level: 8.0},
		{At: 20.0, Level: 10.0},
	}}
}

// At returns the setpoint active at time t. Times before the first step
// take the first level.
func (p *Profile) At(t float64) float64 {
	level := p.steps[0].Level
	for _, s := range p.steps[1:] {
		if t < s.At {
			break
		}
		level = s.Level
	}
	return level
}

// Steps returns a copy of the step list.
func (p *Profile) Steps() []Step {
	out := make([]Step, len(p.steps))
	copy(out, p.steps)
	return out
}
