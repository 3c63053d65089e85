package sim

import (
	"context"

	"github.com/san-kum/pidtune/internal/control"
	"github.com/san-kum/pidtune/internal/plant"
	"github.com/san-kum/pidtune/internal/profile"
)

type Simulator struct {
	prof    *profile.Profile
	plant   plant.Plant
	metrics []Metric
}

func New(prof *profile.Profile, pl plant.Plant) *Simulator {
	return &Simulator{
		prof:    prof,
		plant:   pl,
		metrics: make([]Metric, 0),
	}
}

func (s *Simulator) AddMetric(m Metric) { s.metrics = append(s.metrics, m) }

// Run simulates the closed loop for the whole horizon with a fresh
// controller. The process variable starts at zero. Sample i is recorded
// after the step computed at t=i*dt, so the trajectory has exactly
// Config.Steps entries and no initial sample.
//
// On cancellation the partial result is returned together with a
// [SimulationError] wrapping the context error.
func (s *Simulator) Run(ctx context.Context, gains control.Gains, cfg Config) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := gains.Validate(); err != nil {
		return nil, err
	}

	steps := cfg.Steps()
	result := &Result{
		Times:      make([]float64, 0, steps),
		Setpoints:  make([]float64, 0, steps),
		Trajectory: make([]float64, 0, steps),
		Controls:   make([]float64, 0, steps),
		GainTrace:  make([]control.Gains, 0, steps),
		Metrics:    make(map[string]float64),
	}

	for _, m := range s.metrics {
		m.Reset()
	}

	pid := control.NewPID(gains)
	pv := 0.0

	for i := 0; i < steps; i++ {
		select {
		case <-ctx.Done():
			return result, &SimulationError{Step: i, Time: float64(i) * cfg.Dt, Wrapped: ctx.Err()}
		default:
		}

		t := float64(i) * cfg.Dt
		sp := s.prof.At(t)
		u := pid.Update(sp, pv, cfg.Dt)
		pv = s.plant.Step(pv, u, cfg.Dt)

		result.Times = append(result.Times, t)
		result.Setpoints = append(result.Setpoints, sp)
		result.Trajectory = append(result.Trajectory, pv)
		result.Controls = append(result.Controls, u)
		result.GainTrace = append(result.GainTrace, pid.Gains())

		for _, m := range s.metrics {
			m.Observe(pv, sp, u, t)
		}
	}

	for _, m := range s.metrics {
		result.Metrics[m.Name()] = m.Value()
	}

	return result, nil
}
