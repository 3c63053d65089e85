package batch

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/pidtune/internal/config"
	"github.com/san-kum/pidtune/internal/control"
	"github.com/san-kum/pidtune/internal/tune"
)

func testSession(t *testing.T) *tune.Session {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Duration = 5.0
	s, err := tune.NewSession(cfg)
	require.NoError(t, err)
	return s
}

func TestLoadScenario(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	doc := `name: shootout
description: hand-picked gain sets
entries:
  - name: sharp
    kp: 2.0
    ki: 0.5
    kd: 0.1
  - name: sluggish
    kp: 0.2
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0644))

	scenario, err := LoadScenario(path)
	require.NoError(t, err)

	assert.Equal(t, "shootout", scenario.Name)
	require.Len(t, scenario.Entries, 2)
	assert.Equal(t, control.Gains{Kp: 2.0, Ki: 0.5, Kd: 0.1}, scenario.Entries[0].Gains())
	assert.Equal(t, control.Gains{Kp: 0.2}, scenario.Entries[1].Gains())
}

func TestLoadScenarioEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.yaml")
	require.NoError(t, os.WriteFile(path, []byte("name: nothing\n"), 0644))

	_, err := LoadScenario(path)
	assert.Error(t, err)
}

func TestRunScenario(t *testing.T) {
	scenario := &Scenario{
		Name: "shootout",
		Entries: []ScenarioEntry{
			{Name: "sharp", Kp: 2.0, Ki: 0.5, Kd: 0.1},
			{Name: "sluggish", Kp: 0.05},
		},
	}

	results, err := RunScenario(context.Background(), scenario, testSession(t))
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, "sharp", results[0].Name)
	assert.Less(t, results[0].Outcome.Fitness, results[1].Outcome.Fitness)
}

func TestRunScenarioBadEntry(t *testing.T) {
	scenario := &Scenario{
		Name: "broken",
		Entries: []ScenarioEntry{
			{Name: "fine", Kp: 1.0},
			{Name: "negative", Kp: -1.0},
		},
	}

	results, err := RunScenario(context.Background(), scenario, testSession(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "negative")
	assert.Len(t, results, 1, "results up to the failing entry should come back")
}

func TestRunSweep(t *testing.T) {
	sweep := &Sweep{Gain: "kp", Min: 0.05, Max: 2.0, Steps: 3}

	points, err := RunSweep(context.Background(), sweep, testSession(t))
	require.NoError(t, err)
	require.Len(t, points, 3)

	assert.Equal(t, 0.05, points[0].Value)
	assert.Equal(t, 2.0, points[2].Value)

	// More proportional action tracks the staircase more tightly.
	assert.Greater(t, points[0].Fitness, points[2].Fitness)
	for _, p := range points {
		assert.False(t, math.IsInf(p.Fitness, 0))
	}
}

func TestRunSweepValidation(t *testing.T) {
	session := testSession(t)

	_, err := RunSweep(context.Background(), &Sweep{Gain: "kx", Min: 0, Max: 1, Steps: 3}, session)
	assert.Error(t, err)

	_, err = RunSweep(context.Background(), &Sweep{Gain: "kp", Min: 0, Max: 1, Steps: 1}, session)
	assert.Error(t, err)

	_, err = RunSweep(context.Background(), &Sweep{Gain: "kp", Min: 2, Max: 1, Steps: 3}, session)
	assert.Error(t, err)
}

func TestRunRobustness(t *testing.T) {
	cfg := &Robustness{
		Gains:        control.Gains{Kp: 2.0, Ki: 0.5, Kd: 0.1},
		Perturbation: 0.1,
		Trials:       20,
		Seed:         7,
	}

	trials, err := RunRobustness(context.Background(), cfg, testSession(t))
	require.NoError(t, err)
	require.Len(t, trials, 20)

	settled, mean, std := RobustnessStats(trials)
	assert.Equal(t, 20, settled, "small perturbations of good gains should all settle")
	assert.Positive(t, mean)
	assert.GreaterOrEqual(t, std, 0.0)

	for _, tr := range trials {
		assert.InDelta(t, 2.0, tr.Gains.Kp, 0.2+1e-12)
		assert.InDelta(t, 0.5, tr.Gains.Ki, 0.05+1e-12)
		assert.InDelta(t, 0.1, tr.Gains.Kd, 0.01+1e-12)
	}
}

func TestRunRobustnessDeterministic(t *testing.T) {
	cfg := &Robustness{
		Gains:        control.Gains{Kp: 2.0, Ki: 0.5, Kd: 0.1},
		Perturbation: 0.2,
		Trials:       5,
		Seed:         11,
	}

	session := testSession(t)
	a, err := RunRobustness(context.Background(), cfg, session)
	require.NoError(t, err)
	b, err := RunRobustness(context.Background(), cfg, session)
	require.NoError(t, err)

	assert.Equal(t, a, b)
}

func TestRobustnessStats(t *testing.T) {
	trials := []Trial{
		{Fitness: 10, Settled: true},
		{Fitness: 20, Settled: true},
		{Fitness: math.Inf(1), Settled: false},
	}

	settled, mean, std := RobustnessStats(trials)
	assert.Equal(t, 2, settled)
	assert.InDelta(t, 15.0, mean, 1e-12)
	assert.InDelta(t, math.Sqrt(50), std, 1e-12)
}

func TestRobustnessStatsSingleFinite(t *testing.T) {
	trials := []Trial{
		{Fitness: 10, Settled: true},
		{Fitness: math.Inf(1), Settled: false},
		{Fitness: math.NaN(), Settled: false},
	}

	settled, mean, std := RobustnessStats(trials)
	assert.Equal(t, 1, settled)
	assert.InDelta(t, 10.0, mean, 1e-12)
	assert.Zero(t, std, "one sample has no spread")
}
