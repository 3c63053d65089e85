package plant

// Plant advances a process model by one timestep. Implementations are
// pure state-transition functions: the process variable is threaded
// through by the caller, so a stateless Plant may be shared between
// concurrent simulations.
type Plant interface {
	// Step returns the process variable after dt seconds under control
	// signal u.
	Step(pv, u, dt float64) float64
	Name() string
}

// Integrator is the pure-integrator plant: the control signal is the
// rate of change of the process variable, advanced by explicit Euler.
//
//	pv' = pv + u*dt
//
// No saturation, no lag, no noise. A proportional-only controller on
// this plant converges exponentially, which makes optimizer results
// easy to sanity-check by hand.
type Integrator struct{}

func NewIntegrator() *Integrator {
	return &Integrator{}
}

func (in *Integrator) Step(pv, u, dt float64) float64 {
	return pv + u*dt
}

func (in *Integrator) Name() string { return "integrator" }
