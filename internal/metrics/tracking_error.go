package metrics

import "math"

// TrackingError accumulates the sum of absolute setpoint error over all
// observed samples. On a full run this equals the tuning fitness score.
type TrackingError struct {
	name string
	sum  float64
}

func NewTrackingError() *TrackingError {
	return &TrackingError{
		name: "tracking_error",
	}
}

func (te *TrackingError) Name() string {
	return te.name
}

func (te *TrackingError) Observe(pv, sp, u, t float64) {
	te.sum += math.Abs(sp - pv)
}

func (te *TrackingError) Value() float64 {
	return te.sum
}

func (te *TrackingError) Reset() {
	te.sum = 0
}
