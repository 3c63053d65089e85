// Package sim runs the discrete closed loop: PID controller against a
// plant, tracking a setpoint profile over a fixed horizon.
//
// Each step at t = i*dt reads the profile, updates the controller,
// advances the plant, and records the sample:
//
//   - [Config]: discretization (dt, duration)
//   - [Result]: per-sample trajectory plus metric values
//   - [Metric]: scalar statistics accumulated over a run
//
// # Example
//
//	s := sim.New(profile.Default(), plant.NewIntegrator())
//	result, _ := s.Run(ctx, control.Gains{Kp: 2.0, Ki: 0.5, Kd: 0.1}, cfg)
//
// # Thread Safety
//
// Run is safe for concurrent use on one Simulator as long as the plant
// is stateless and no metrics are attached; metrics accumulate shared
// state. The optimizer's objective relies on the metric-free form.
package sim
