package viz

import (
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/pidtune/internal/optim"
	"github.com/san-kum/pidtune/internal/sim"
)

const (
	plotWidth  = 70
	plotHeight = 14
)

// TrackingPlot draws the setpoint and the process variable on one
// chart. Red is the target, green is what the plant did.
func TrackingPlot(result *sim.Result) string {
	return asciigraph.PlotMany(
		[][]float64{result.Setpoints, result.Trajectory},
		asciigraph.Height(plotHeight),
		asciigraph.Width(plotWidth),
		asciigraph.SeriesColors(asciigraph.Red, asciigraph.Green),
		asciigraph.SeriesLegends("setpoint", "pv"),
		asciigraph.Caption("closed-loop tracking"),
	)
}

// ControlPlot draws the controller output over the horizon.
func ControlPlot(result *sim.Result) string {
	return asciigraph.Plot(result.Controls,
		asciigraph.Height(8),
		asciigraph.Width(plotWidth),
		asciigraph.Caption("control effort"),
	)
}

// GainPlot draws the per-step gain trace.
func GainPlot(result *sim.Result) string {
	if len(result.GainTrace) == 0 {
		return ""
	}
	kp := make([]float64, len(result.GainTrace))
	ki := make([]float64, len(result.GainTrace))
	kd := make([]float64, len(result.GainTrace))
	for i, g := range result.GainTrace {
		kp[i], ki[i], kd[i] = g.Kp, g.Ki, g.Kd
	}
	return asciigraph.PlotMany(
		[][]float64{kp, ki, kd},
		asciigraph.Height(8),
		asciigraph.Width(plotWidth),
		asciigraph.SeriesColors(asciigraph.Red, asciigraph.Green, asciigraph.Blue),
		asciigraph.SeriesLegends("kp", "ki", "kd"),
		asciigraph.Caption("gains over time"),
	)
}

// ConvergencePlot draws the best fitness seen at each generation.
func ConvergencePlot(history []optim.GenStat) string {
	if len(history) < 2 {
		return ""
	}
	best := make([]float64, len(history))
	for i, gs := range history {
		best[i] = gs.Best
	}
	return asciigraph.Plot(best,
		asciigraph.Height(8),
		asciigraph.Width(plotWidth),
		asciigraph.Caption("best fitness per generation"),
	)
}
