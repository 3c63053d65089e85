package control

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidGains is returned when a gain is negative or not finite.
var ErrInvalidGains = errors.New("control: gains must be non-negative and finite")

// Gains bundles the three PID coefficients. The zero value is a valid
// (if useless) controller that always outputs zero.
type Gains struct {
	Kp float64 `json:"kp" yaml:"kp"`
	Ki float64 `json:"ki" yaml:"ki"`
	Kd float64 `json:"kd" yaml:"kd"`
}

// Validate rejects negative or non-finite coefficients.
func (g Gains) Validate() error {
	for _, v := range []float64{g.Kp, g.Ki, g.Kd} {
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: got Kp=%v Ki=%v Kd=%v", ErrInvalidGains, g.Kp, g.Ki, g.Kd)
		}
	}
	return nil
}

// Vector returns the gains as an optimizer decision vector in Kp, Ki, Kd order.
func (g Gains) Vector() []float64 {
	return []float64{g.Kp, g.Ki, g.Kd}
}

// GainsFromVector is the inverse of [Gains.Vector]. The slice must hold
// exactly Kp, Ki, Kd.
func GainsFromVector(v []float64) Gains {
	return Gains{Kp: v[0], Ki: v[1], Kd: v[2]}
}

func (g Gains) String() string {
	return fmt.Sprintf("Kp=%.4g Ki=%.4g Kd=%.4g", g.Kp, g.Ki, g.Kd)
}
