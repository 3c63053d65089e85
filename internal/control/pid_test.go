package control

import (
	"errors"
	"math"
	"testing"
)

func TestPIDProportionalOnly(t *testing.T) {
	pid := NewPID(Gains{Kp: 2.0})

	u := pid.Update(5.0, 0.0, 0.01)
	if math.Abs(u-10.0) > 1e-12 {
		t.Errorf("expected u=10, got %v", u)
	}

	u = pid.Update(5.0, 4.0, 0.01)
	if math.Abs(u-2.0) > 1e-12 {
		t.Errorf("expected u=2, got %v", u)
	}
}

func TestPIDFirstStepDerivativeKick(t *testing.T) {
	// Previous error starts at zero, so the first step differentiates
	// the full initial error: u = 2*5 + 0.5*(5*0.01) + 0.1*(5/0.01).
	pid := NewPID(Gains{Kp: 2.0, Ki: 0.5, Kd: 0.1})

	u := pid.Update(5.0, 0.0, 0.01)
	if math.Abs(u-60.025) > 1e-12 {
		t.Errorf("expected u=60.025, got %v", u)
	}
}

func TestPIDIntegralAccumulates(t *testing.T) {
	pid := NewPID(Gains{Ki: 1.0})

	// Constant unit error: integral grows by dt each step.
	for i := 1; i <= 5; i++ {
		u := pid.Update(1.0, 0.0, 0.1)
		want := 0.1 * float64(i)
		if math.Abs(u-want) > 1e-12 {
			t.Errorf("step %d: expected u=%v, got %v", i, want, u)
		}
	}
}

func TestPIDDerivative(t *testing.T) {
	pid := NewPID(Gains{Kd: 1.0})

	u := pid.Update(1.0, 0.0, 0.5)
	if math.Abs(u-2.0) > 1e-12 {
		t.Errorf("first step: expected u=2, got %v", u)
	}

	// Error drops from 1 to 0.5 over 0.5s.
	u = pid.Update(1.0, 0.5, 0.5)
	if math.Abs(u-(-1.0)) > 1e-12 {
		t.Errorf("second step: expected u=-1, got %v", u)
	}
}

func TestPIDReset(t *testing.T) {
	pid := NewPID(Gains{Kp: 1.0, Ki: 1.0, Kd: 1.0})

	first := pid.Update(3.0, 0.0, 0.1)
	pid.Update(3.0, 1.0, 0.1)
	pid.Update(3.0, 2.0, 0.1)

	pid.Reset()
	afterReset := pid.Update(3.0, 0.0, 0.1)
	if math.Abs(afterReset-first) > 1e-12 {
		t.Errorf("reset controller should repeat first output: got %v, want %v", afterReset, first)
	}
}

func TestPIDZeroGains(t *testing.T) {
	pid := NewPID(Gains{})

	for i := 0; i < 10; i++ {
		if u := pid.Update(5.0, float64(i), 0.01); u != 0 {
			t.Fatalf("zero gains produced u=%v", u)
		}
	}
}

func TestPIDSetGains(t *testing.T) {
	pid := NewPID(Gains{Ki: 1.0})
	pid.Update(1.0, 0.0, 1.0) // integral = 1

	pid.SetGains(Gains{Ki: 2.0})
	u := pid.Update(1.0, 1.0, 1.0) // error 0, integral stays 1
	if math.Abs(u-2.0) > 1e-12 {
		t.Errorf("expected integral state kept across SetGains, got u=%v", u)
	}
}

func TestGainsValidate(t *testing.T) {
	tests := []struct {
		name    string
		gains   Gains
		wantErr bool
	}{
		{"zero", Gains{}, false},
		{"typical", Gains{Kp: 2.0, Ki: 0.5, Kd: 0.1}, false},
		{"negative kp", Gains{Kp: -1}, true},
		{"negative kd", Gains{Kd: -0.001}, true},
		{"nan", Gains{Ki: math.NaN()}, true},
		{"inf", Gains{Kp: math.Inf(1)}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.gains.Validate()
			if tt.wantErr && !errors.Is(err, ErrInvalidGains) {
				t.Errorf("expected ErrInvalidGains, got %v", err)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestGainsVectorRoundTrip(t *testing.T) {
	g := Gains{Kp: 2.0, Ki: 0.5, Kd: 0.1}
	if got := GainsFromVector(g.Vector()); got != g {
		t.Errorf("round trip changed gains: %v != %v", got, g)
	}
}
