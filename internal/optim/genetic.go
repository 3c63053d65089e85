package optim

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"runtime"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// GeneticConfig tunes the genetic search.
type GeneticConfig struct {
	Population     int
	Generations    int
	CrossoverRate  float64
	MutationRate   float64
	ElitismRatio   float64
	TournamentSize int
	Workers        int // 0 means GOMAXPROCS
	Seed           int64
}

func DefaultGeneticConfig() GeneticConfig {
	return GeneticConfig{
		Population:     80,
		Generations:    120,
		CrossoverRate:  0.8,
		MutationRate:   0.1,
		ElitismRatio:   0.05,
		TournamentSize: 3,
		Seed:           42,
	}
}

// Genetic is a single-objective generational GA with tournament
// selection, simulated binary crossover, polynomial mutation, and
// elitism.
//
// All random draws come from one seeded source and happen while
// breeding, which is serial; only objective evaluation fans out to
// workers. The same seed therefore gives the same search regardless of
// worker count.
type Genetic struct {
	cfg    GeneticConfig
	bounds []Bounds
	rng    *rand.Rand

	// OnGeneration, when set, is called after each generation with the
	// running best and the generation's score statistics.
	OnGeneration func(gs GenStat)
}

func NewGenetic(cfg GeneticConfig, bounds []Bounds) (*Genetic, error) {
	if err := ValidateBounds(bounds); err != nil {
		return nil, err
	}
	if err := validateGeneticConfig(cfg); err != nil {
		return nil, err
	}
	return &Genetic{
		cfg:    cfg,
		bounds: bounds,
		rng:    rand.New(rand.NewSource(cfg.Seed)),
	}, nil
}

func validateGeneticConfig(cfg GeneticConfig) error {
	if cfg.Population < 2 {
		return fmt.Errorf("%w: population %d, need at least 2", ErrInvalidGeneticConfig, cfg.Population)
	}
	if cfg.Generations < 1 {
		return fmt.Errorf("%w: generations %d, need at least 1", ErrInvalidGeneticConfig, cfg.Generations)
	}
	if cfg.CrossoverRate < 0 || cfg.CrossoverRate > 1 {
		return fmt.Errorf("%w: crossover rate %v outside [0,1]", ErrInvalidGeneticConfig, cfg.CrossoverRate)
	}
	if cfg.MutationRate < 0 || cfg.MutationRate > 1 {
		return fmt.Errorf("%w: mutation rate %v outside [0,1]", ErrInvalidGeneticConfig, cfg.MutationRate)
	}
	if cfg.ElitismRatio < 0 || cfg.ElitismRatio >= 1 {
		return fmt.Errorf("%w: elitism ratio %v outside [0,1)", ErrInvalidGeneticConfig, cfg.ElitismRatio)
	}
	if cfg.TournamentSize < 1 {
		return fmt.Errorf("%w: tournament size %d, need at least 1", ErrInvalidGeneticConfig, cfg.TournamentSize)
	}
	if cfg.Workers < 0 {
		return fmt.Errorf("%w: workers %d is negative", ErrInvalidGeneticConfig, cfg.Workers)
	}
	return nil
}

type individual struct {
	vars  []float64
	score float64
}

func (ind individual) clone() individual {
	c := individual{vars: make([]float64, len(ind.vars)), score: ind.score}
	copy(c.vars, ind.vars)
	return c
}

func (g *Genetic) Name() string { return "genetic" }

// Minimize runs the configured number of generations and returns the
// best vector seen anywhere in the search.
func (g *Genetic) Minimize(ctx context.Context, obj Objective) (*Result, error) {
	pop := g.initialize()
	evals := g.evaluateFrom(obj, pop, 0)

	best := pop[0].clone()
	for _, ind := range pop[1:] {
		if ind.score < best.score {
			best = ind.clone()
		}
	}

	history := make([]GenStat, 0, g.cfg.Generations)

	for gen := 0; gen < g.cfg.Generations; gen++ {
		if err := ctx.Err(); err != nil {
			return g.result(best, evals, history), err
		}

		sort.SliceStable(pop, func(i, j int) bool { return pop[i].score < pop[j].score })

		elites := int(g.cfg.ElitismRatio * float64(g.cfg.Population))
		next := make([]individual, 0, g.cfg.Population)
		for i := 0; i < elites; i++ {
			next = append(next, pop[i].clone())
		}

		// Breeding is serial so the rand stream stays stable; scoring
		// fans out below.
		for len(next) < g.cfg.Population {
			p1 := g.tournament(pop)
			p2 := g.tournament(pop)
			c1, c2 := g.crossover(p1, p2)
			g.mutate(c1.vars)
			g.mutate(c2.vars)

			next = append(next, c1)
			if len(next) < g.cfg.Population {
				next = append(next, c2)
			}
		}

		evals += g.evaluateFrom(obj, next, elites)
		pop = next

		for _, ind := range pop {
			if ind.score < best.score {
				best = ind.clone()
			}
		}

		gs := g.genStat(gen+1, pop, best.score)
		history = append(history, gs)
		if g.OnGeneration != nil {
			g.OnGeneration(gs)
		}
	}

	return g.result(best, evals, history), nil
}

func (g *Genetic) initialize() []individual {
	pop := make([]individual, g.cfg.Population)
	for i := range pop {
		vars := make([]float64, len(g.bounds))
		for j, b := range g.bounds {
			vars[j] = b.Min + g.rng.Float64()*(b.Max-b.Min)
		}
		pop[i] = individual{vars: vars}
	}
	return pop
}

// evaluateFrom scores pop[from:] in parallel and returns the number of
// evaluations. NaN scores are mapped to +Inf so they rank behind every
// finite candidate.
func (g *Genetic) evaluateFrom(obj Objective, pop []individual, from int) int {
	n := len(pop) - from
	if n <= 0 {
		return 0
	}
	parallelFor(n, g.workers(), func(start, end int) {
		for i := start; i < end; i++ {
			score := obj(pop[from+i].vars)
			if math.IsNaN(score) {
				score = math.Inf(1)
			}
			pop[from+i].score = score
		}
	})
	return n
}

func (g *Genetic) workers() int {
	if g.cfg.Workers > 0 {
		return g.cfg.Workers
	}
	return runtime.GOMAXPROCS(0)
}

func (g *Genetic) tournament(pop []individual) individual {
	best := pop[g.rng.Intn(len(pop))]
	for i := 1; i < g.cfg.TournamentSize; i++ {
		contestant := pop[g.rng.Intn(len(pop))]
		if contestant.score < best.score {
			best = contestant
		}
	}
	return best
}

// crossover performs simulated binary crossover (SBX).
func (g *Genetic) crossover(p1, p2 individual) (individual, individual) {
	c1 := individual{vars: make([]float64, len(p1.vars))}
	c2 := individual{vars: make([]float64, len(p2.vars))}

	if g.rng.Float64() >= g.cfg.CrossoverRate {
		copy(c1.vars, p1.vars)
		copy(c2.vars, p2.vars)
		return c1, c2
	}

	for i := range p1.vars {
		beta := 0.0
		if g.rng.Float64() <= 0.5 {
			beta = math.Pow(2*g.rng.Float64(), 1.0/3.0)
		} else {
			beta = math.Pow(1.0/(2*(1.0-g.rng.Float64())), 1.0/3.0)
		}

		c1.vars[i] = 0.5 * ((1+beta)*p1.vars[i] + (1-beta)*p2.vars[i])
		c2.vars[i] = 0.5 * ((1-beta)*p1.vars[i] + (1+beta)*p2.vars[i])

		c1.vars[i] = g.clamp(i, c1.vars[i])
		c2.vars[i] = g.clamp(i, c2.vars[i])
	}

	return c1, c2
}

// mutate performs polynomial mutation in place.
func (g *Genetic) mutate(vars []float64) {
	for i := range vars {
		if g.rng.Float64() >= g.cfg.MutationRate {
			continue
		}

		delta := 0.0
		if g.rng.Float64() <= 0.5 {
			delta = math.Pow(2*g.rng.Float64(), 1.0/3.0) - 1
		} else {
			delta = 1 - math.Pow(2*(1-g.rng.Float64()), 1.0/3.0)
		}

		vars[i] += delta * (g.bounds[i].Max - g.bounds[i].Min)
		vars[i] = g.clamp(i, vars[i])
	}
}

func (g *Genetic) clamp(i int, v float64) float64 {
	return math.Max(g.bounds[i].Min, math.Min(g.bounds[i].Max, v))
}

func (g *Genetic) genStat(gen int, pop []individual, best float64) GenStat {
	scores := make([]float64, len(pop))
	for i, ind := range pop {
		scores[i] = ind.score
	}
	return GenStat{
		Gen:  gen,
		Best: best,
		Mean: stat.Mean(scores, nil),
		Std:  stat.StdDev(scores, nil),
	}
}

func (g *Genetic) result(best individual, evals int, history []GenStat) *Result {
	return &Result{
		Best:    append([]float64(nil), best.vars...),
		Score:   best.score,
		Evals:   evals,
		History: history,
	}
}
