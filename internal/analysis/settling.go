package analysis

import "math"

// DefaultToleranceFraction is the settling band width as a fraction of
// the final setpoint.
const DefaultToleranceFraction = 0.05

// Tolerance returns the absolute settling band for a run: fraction of
// the setpoint in force at the final sample. setpoints must not be
// empty.
func Tolerance(setpoints []float64, fraction float64) float64 {
	return fraction * setpoints[len(setpoints)-1]
}

// SettlingTime returns the time of the earliest sample from which the
// trajectory stays within tolerance of its setpoint for the rest of the
// horizon. A sample exactly on the band edge counts as inside.
//
// The second return is false when the loop never settles; that includes
// a final sample outside the band. Not settling is an answer, not an
// error.
func SettlingTime(trajectory, setpoints, times []float64, tolerance float64) (float64, bool) {
	n := len(trajectory)
	if n == 0 {
		return 0, false
	}

	// Walk backward: the settling sample is the start of the longest
	// suffix that never leaves the band.
	settled := -1
	for i := n - 1; i >= 0; i-- {
		if math.Abs(setpoints[i]-trajectory[i]) > tolerance {
			break
		}
		settled = i
	}

	if settled < 0 {
		return 0, false
	}
	return times[settled], true
}
