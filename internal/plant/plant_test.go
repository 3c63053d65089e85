package plant

import (
	"math"
	"testing"
)

func TestIntegratorStep(t *testing.T) {
	in := NewIntegrator()

	tests := []struct {
		name string
		pv   float64
		u    float64
		dt   float64
		want float64
	}{
		{"zero control", 1.0, 0.0, 0.01, 1.0},
		{"unit control", 0.0, 1.0, 0.01, 0.01},
		{"negative control", 2.0, -4.0, 0.5, 0.0},
		{"accumulate", 0.5, 3.0, 0.1, 0.8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := in.Step(tt.pv, tt.u, tt.dt)
			if math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("Step(%v, %v, %v) = %v, want %v", tt.pv, tt.u, tt.dt, got, tt.want)
			}
		})
	}
}

func TestIntegratorIsStateless(t *testing.T) {
	in := NewIntegrator()

	a := in.Step(1.0, 2.0, 0.1)
	in.Step(100.0, -5.0, 0.3)
	b := in.Step(1.0, 2.0, 0.1)

	if a != b {
		t.Errorf("same inputs gave different outputs: %v != %v", a, b)
	}
}
