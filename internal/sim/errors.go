package sim

import "errors"

// Domain errors for closed-loop runs.
var (
	// ErrInvalidTimeStep indicates a non-positive or non-finite dt.
	ErrInvalidTimeStep = errors.New("sim: invalid time step (must be positive and finite)")

	// ErrInvalidDuration indicates a non-positive or non-finite horizon.
	ErrInvalidDuration = errors.New("sim: invalid duration (must be positive and finite)")

	// ErrHorizonTooShort indicates the horizon spans fewer than two steps.
	ErrHorizonTooShort = errors.New("sim: horizon too short (needs at least two steps)")
)

// SimulationError wraps an error with the step and time it occurred at.
type SimulationError struct {
	Step    int
	Time    float64
	Wrapped error
}

func (e *SimulationError) Error() string {
	return e.Wrapped.Error()
}

func (e *SimulationError) Unwrap() error {
	return e.Wrapped
}
