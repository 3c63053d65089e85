// Package control provides the discrete PID controller driven by the
// closed-loop simulator.
//
// [PID] keeps its own integral and previous-error state; the setpoint is
// passed on every [PID.Update] call so a single controller instance can
// track a time-varying profile. [Gains] is the value type shared with the
// optimizer: candidates move through the search as plain vectors and
// become Gains at the simulation boundary.
//
// # Usage
//
//	pid := control.NewPID(control.Gains{Kp: 2.0, Ki: 0.5, Kd: 0.1})
//	u := pid.Update(setpoint, pv, dt) // once per timestep
//
// A PID instance is not safe for concurrent use.
package control
