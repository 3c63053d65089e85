package control

// PID is a discrete proportional-integral-derivative controller.
//
// The controller is stateful: the error integral and the previous error
// persist across calls to [PID.Update]. Both start at zero, so the first
// update after construction or [PID.Reset] produces a derivative term
// proportional to the full initial error. That kick is part of the
// contract; callers that want a soft start must shape the setpoint.
//
// There is no integral clamping and no output saturation. With an
// unstable loop the integral grows without bound and the output follows.
type PID struct {
	gains    Gains
	integral float64
	prevErr  float64
}

func NewPID(g Gains) *PID {
	return &PID{gains: g}
}

// Update advances the controller by one step of dt seconds and returns
// the control signal for the given setpoint and process variable. The
// setpoint is passed per call so one controller can track a time-varying
// profile. dt must be positive; the simulation layer validates it before
// the loop starts.
func (p *PID) Update(setpoint, pv, dt float64) float64 {
	err := setpoint - pv

	p.integral += err * dt
	derivative := (err - p.prevErr) / dt

	u := p.gains.Kp*err + p.gains.Ki*p.integral + p.gains.Kd*derivative

	p.prevErr = err
	return u
}

// Reset clears integral and derivative state
func (p *PID) Reset() {
	p.integral = 0
	p.prevErr = 0
}

// Gains returns the controller's coefficients.
func (p *PID) Gains() Gains {
	return p.gains
}

// SetGains replaces the coefficients for live adjustment. Accumulated
// integral and derivative state is kept.
func (p *PID) SetGains(g Gains) {
	p.gains = g
}
