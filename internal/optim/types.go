package optim

import (
	"context"
	"errors"
	"fmt"
	"math"
)

// Objective scores a candidate decision vector. Lower is better.
// Implementations must be deterministic and safe for concurrent calls;
// the genetic optimizer scores a whole generation in parallel.
type Objective func(vars []float64) float64

// Bounds is the inclusive search interval for one decision variable.
// Min == Max pins the variable to a single value.
type Bounds struct {
	Min float64
	Max float64
}

// Domain errors for search setup.
var (
	// ErrInvalidBounds indicates an inverted, empty, or non-finite search box.
	ErrInvalidBounds = errors.New("optim: invalid search bounds")

	// ErrInvalidGeneticConfig indicates genetic parameters outside their valid ranges.
	ErrInvalidGeneticConfig = errors.New("optim: invalid genetic config")
)

// ValidateBounds rejects a bad search box before any evaluation runs.
func ValidateBounds(bounds []Bounds) error {
	if len(bounds) == 0 {
		return fmt.Errorf("%w: no variables", ErrInvalidBounds)
	}
	for i, b := range bounds {
		if math.IsNaN(b.Min) || math.IsInf(b.Min, 0) || math.IsNaN(b.Max) || math.IsInf(b.Max, 0) {
			return fmt.Errorf("%w: variable %d is not finite", ErrInvalidBounds, i)
		}
		if b.Min > b.Max {
			return fmt.Errorf("%w: variable %d has min %v > max %v", ErrInvalidBounds, i, b.Min, b.Max)
		}
	}
	return nil
}

// GenStat summarizes one generation's scores. Gen counts from 1.
type GenStat struct {
	Gen  int     `json:"gen"`
	Best float64 `json:"best"`
	Mean float64 `json:"mean"`
	Std  float64 `json:"std"`
}

// Result is the outcome of a search. Best holds the lowest-scoring
// vector seen across the whole search, not just the final population.
type Result struct {
	Best    []float64
	Score   float64
	Evals   int
	History []GenStat
}

// Optimizer minimizes an objective over a bounded box. On context
// cancellation implementations return the best result so far together
// with the context error.
type Optimizer interface {
	Name() string
	Minimize(ctx context.Context, obj Objective) (*Result, error)
}
