// Package analysis inspects finished closed-loop trajectories.
//
// All functions take the aligned sample slices recorded by the
// simulator:
//
//   - [SettlingTime]: earliest time the loop enters the tolerance band for good
//   - [Tolerance]: absolute band width from a fractional tolerance
//   - [Overshoot]: peak excursion above the setpoint
//   - [SteadyStateError]: final-sample tracking error
//
// # Settling
//
// A loop settles at the first sample whose entire suffix stays inside
// the band:
//
//	tol := analysis.Tolerance(result.Setpoints, 0.05)
//	ts, ok := analysis.SettlingTime(result.Trajectory, result.Setpoints, result.Times, tol)
//	if !ok {
//	    // never settled inside the band
//	}
package analysis
