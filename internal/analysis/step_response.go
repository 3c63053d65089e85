package analysis

import "math"

// Overshoot returns the largest excursion above the instantaneous
// setpoint, as a fraction of the final setpoint. Zero when the
// trajectory never crosses its reference or the final setpoint is zero.
func Overshoot(trajectory, setpoints []float64) float64 {
	peak := 0.0
	for i := range trajectory {
		if over := trajectory[i] - setpoints[i]; over > peak {
			peak = over
		}
	}

	final := setpoints[len(setpoints)-1]
	if final == 0 {
		return 0
	}
	return peak / math.Abs(final)
}

// SteadyStateError returns the absolute tracking error at the final
// sample.
func SteadyStateError(trajectory, setpoints []float64) float64 {
	n := len(trajectory)
	return math.Abs(setpoints[n-1] - trajectory[n-1])
}
