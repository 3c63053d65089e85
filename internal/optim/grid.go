package optim

import (
	"context"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// Grid exhaustively evaluates the cartesian product of per-variable
// value lists. Deterministic, and practical for coarse three-gain
// sweeps or as a cross-check on the genetic search.
type Grid struct {
	values [][]float64
}

func NewGrid(values [][]float64) (*Grid, error) {
	if len(values) == 0 {
		return nil, fmt.Errorf("%w: no axes", ErrInvalidBounds)
	}
	for i, axis := range values {
		if len(axis) == 0 {
			return nil, fmt.Errorf("%w: axis %d is empty", ErrInvalidBounds, i)
		}
	}
	return &Grid{values: values}, nil
}

// GridFromBounds places points evenly spaced values on each axis,
// endpoints included.
func GridFromBounds(bounds []Bounds, points int) (*Grid, error) {
	if err := ValidateBounds(bounds); err != nil {
		return nil, err
	}
	if points < 2 {
		return nil, fmt.Errorf("%w: need at least 2 points per axis, got %d", ErrInvalidBounds, points)
	}

	values := make([][]float64, len(bounds))
	for i, b := range bounds {
		values[i] = floats.Span(make([]float64, points), b.Min, b.Max)
	}
	return &Grid{values: values}, nil
}

func (g *Grid) Name() string { return "grid" }

func (g *Grid) Minimize(ctx context.Context, obj Objective) (*Result, error) {
	result := &Result{Score: math.Inf(1)}
	point := make([]float64, len(g.values))

	if err := g.search(ctx, 0, point, obj, result); err != nil {
		return result, err
	}
	return result, nil
}

func (g *Grid) search(ctx context.Context, depth int, point []float64, obj Objective, result *Result) error {
	if depth == len(g.values) {
		if err := ctx.Err(); err != nil {
			return err
		}

		score := obj(point)
		if math.IsNaN(score) {
			score = math.Inf(1)
		}
		result.Evals++

		if result.Best == nil || score < result.Score {
			result.Score = score
			result.Best = append([]float64(nil), point...)
		}
		return nil
	}

	for _, v := range g.values[depth] {
		point[depth] = v
		if err := g.search(ctx, depth+1, point, obj, result); err != nil {
			return err
		}
	}
	return nil
}
