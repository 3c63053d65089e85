// Package tune wires the optimizer to the closed-loop objective and
// turns a search result into a reported outcome.
package tune

import (
	"context"
	"time"

	"github.com/san-kum/pidtune/internal/analysis"
	"github.com/san-kum/pidtune/internal/config"
	"github.com/san-kum/pidtune/internal/control"
	"github.com/san-kum/pidtune/internal/fitness"
	"github.com/san-kum/pidtune/internal/metrics"
	"github.com/san-kum/pidtune/internal/optim"
	"github.com/san-kum/pidtune/internal/plant"
	"github.com/san-kum/pidtune/internal/profile"
	"github.com/san-kum/pidtune/internal/sim"
)

// Outcome is a finished tuning or evaluation run.
type Outcome struct {
	Gains            control.Gains
	Fitness          float64
	Evals            int
	Elapsed          time.Duration
	Optimizer        string
	History          []optim.GenStat
	Result           *sim.Result
	Tolerance        float64
	SettlingTime     float64
	Settled          bool
	Overshoot        float64
	SteadyStateError float64
}

// Session holds everything needed to tune one configuration.
type Session struct {
	cfg  *config.Config
	prof *profile.Profile
	opt  optim.Optimizer

	// Progress, when set, receives per-generation statistics from the
	// genetic optimizer.
	Progress func(optim.GenStat)
}

// NewSession validates the configuration and builds the optimizer it
// names. Bad bounds or search parameters surface here, before any
// evaluation runs.
func NewSession(cfg *config.Config) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	prof, err := cfg.Profile()
	if err != nil {
		return nil, err
	}

	s := &Session{cfg: cfg, prof: prof}

	switch cfg.Optimizer {
	case "grid":
		s.opt, err = optim.GridFromBounds(cfg.OptimBounds(), cfg.Grid.Points)
		if err != nil {
			return nil, err
		}
	default:
		g, err := optim.NewGenetic(cfg.GeneticConfig(), cfg.OptimBounds())
		if err != nil {
			return nil, err
		}
		g.OnGeneration = func(gs optim.GenStat) {
			if s.Progress != nil {
				s.Progress(gs)
			}
		}
		s.opt = g
	}

	return s, nil
}

// Run searches the gain box, then re-evaluates the winner with metrics
// and step-response analysis attached.
func (s *Session) Run(ctx context.Context) (*Outcome, error) {
	obj, err := fitness.New(s.prof, s.cfg.SimConfig())
	if err != nil {
		return nil, err
	}

	start := time.Now()
	res, err := s.opt.Minimize(ctx, obj.Func())
	if err != nil {
		return nil, err
	}
	elapsed := time.Since(start)

	outcome, err := s.Evaluate(ctx, control.GainsFromVector(res.Best))
	if err != nil {
		return nil, err
	}

	outcome.Evals = res.Evals
	outcome.Elapsed = elapsed
	outcome.Optimizer = s.opt.Name()
	outcome.History = res.History
	return outcome, nil
}

// Evaluate runs the closed loop once with the given gains. Used for
// tuned winners and for hand-picked gains alike; any gains the
// simulator accepts are reported as-is.
func (s *Session) Evaluate(ctx context.Context, gains control.Gains) (*Outcome, error) {
	simCfg := s.cfg.SimConfig()

	// The settling band is a fraction of the setpoint in force at the
	// end of the horizon.
	tLast := float64(simCfg.Steps()-1) * simCfg.Dt
	tol := s.cfg.Tolerance * s.prof.At(tLast)

	sm := sim.New(s.prof, plant.NewIntegrator())
	sm.AddMetric(metrics.NewTrackingError())
	sm.AddMetric(metrics.NewControlEffort())
	sm.AddMetric(metrics.NewInBand(tol))

	result, err := sm.Run(ctx, gains, simCfg)
	if err != nil {
		return nil, err
	}

	settlingTime, settled := analysis.SettlingTime(result.Trajectory, result.Setpoints, result.Times, tol)

	return &Outcome{
		Gains:            gains,
		Fitness:          result.Metrics["tracking_error"],
		Result:           result,
		Tolerance:        tol,
		SettlingTime:     settlingTime,
		Settled:          settled,
		Overshoot:        analysis.Overshoot(result.Trajectory, result.Setpoints),
		SteadyStateError: analysis.SteadyStateError(result.Trajectory, result.Setpoints),
	}, nil
}

// Config returns the session's validated configuration.
func (s *Session) Config() *config.Config {
	return s.cfg
}
