package optim_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/pidtune/internal/optim"
)

var _ = Describe("Genetic search", func() {
	var (
		cfg    optim.GeneticConfig
		bounds []optim.Bounds
	)

	quadratic := func(center ...float64) optim.Objective {
		return func(vars []float64) float64 {
			sum := 0.0
			for i, v := range vars {
				d := v - center[i]
				sum += d * d
			}
			return sum
		}
	}

	BeforeEach(func() {
		cfg = optim.GeneticConfig{
			Population:     40,
			Generations:    60,
			CrossoverRate:  0.8,
			MutationRate:   0.1,
			ElitismRatio:   0.05,
			TournamentSize: 3,
			Workers:        1,
			Seed:           7,
		}
		bounds = []optim.Bounds{
			{Min: -5, Max: 5},
			{Min: -5, Max: 5},
			{Min: -5, Max: 5},
		}
	})

	Context("on a quadratic bowl", func() {
		It("converges near the optimum", func() {
			g, err := optim.NewGenetic(cfg, bounds)
			Expect(err).NotTo(HaveOccurred())

			result, err := g.Minimize(context.Background(), quadratic(1, -2, 3))
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Best).To(HaveLen(3))
			Expect(result.Score).To(BeNumerically("<", 1.0))
		})

		It("beats the first generation", func() {
			g, err := optim.NewGenetic(cfg, bounds)
			Expect(err).NotTo(HaveOccurred())

			result, err := g.Minimize(context.Background(), quadratic(1, -2, 3))
			Expect(err).NotTo(HaveOccurred())
			Expect(result.History).To(HaveLen(cfg.Generations))
			Expect(result.Score).To(BeNumerically("<=", result.History[0].Best))
			Expect(result.Score).To(BeNumerically("<", result.History[0].Mean))
		})
	})

	Context("when the box pins every variable", func() {
		It("returns exactly the pinned point", func() {
			bounds = []optim.Bounds{
				{Min: 2, Max: 2},
				{Min: 0.5, Max: 0.5},
				{Min: 0.1, Max: 0.1},
			}
			g, err := optim.NewGenetic(cfg, bounds)
			Expect(err).NotTo(HaveOccurred())

			obj := quadratic(0, 0, 0)
			result, err := g.Minimize(context.Background(), obj)
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Best).To(Equal([]float64{2, 0.5, 0.1}))
			Expect(result.Score).To(Equal(obj(result.Best)))
		})
	})

	Context("with a longer budget", func() {
		It("never reports a worse best for the same seed", func() {
			obj := quadratic(1, -2, 3)

			short := cfg
			short.Generations = 10
			gShort, err := optim.NewGenetic(short, bounds)
			Expect(err).NotTo(HaveOccurred())
			resShort, err := gShort.Minimize(context.Background(), obj)
			Expect(err).NotTo(HaveOccurred())

			gLong, err := optim.NewGenetic(cfg, bounds)
			Expect(err).NotTo(HaveOccurred())
			resLong, err := gLong.Minimize(context.Background(), obj)
			Expect(err).NotTo(HaveOccurred())

			Expect(resLong.Score).To(BeNumerically("<=", resShort.Score))
		})
	})

	Context("with an objective rewarding the box corner", func() {
		It("keeps the best candidate inside bounds", func() {
			g, err := optim.NewGenetic(cfg, bounds)
			Expect(err).NotTo(HaveOccurred())

			// Minimizing -sum drives every variable to its upper bound.
			result, err := g.Minimize(context.Background(), func(vars []float64) float64 {
				sum := 0.0
				for _, v := range vars {
					sum -= v
				}
				return sum
			})
			Expect(err).NotTo(HaveOccurred())

			for i, v := range result.Best {
				Expect(v).To(BeNumerically(">=", bounds[i].Min))
				Expect(v).To(BeNumerically("<=", bounds[i].Max))
			}
		})
	})
})
