package viz

import (
	"fmt"
	"os"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/types"

	"github.com/san-kum/pidtune/internal/optim"
	"github.com/san-kum/pidtune/internal/sim"
)

const maxChartPoints = 1500

// WriteHTML renders an interactive report with the tracking response,
// the control effort, the gain trace, and, when a search history is
// present, the fitness convergence.
func WriteHTML(path, title string, result *sim.Result, history []optim.GenStat) error {
	page := components.NewPage()
	page.AddCharts(trackingChart(title, result), controlChart(result))
	if len(result.GainTrace) > 0 {
		page.AddCharts(gainChart(result))
	}
	if len(history) > 0 {
		page.AddCharts(convergenceChart(history))
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return page.Render(f)
}

func lineBase(title, xName, yName string) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: title}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithInitializationOpts(opts.Initialization{
			Theme: types.ThemeWesteros,
		}),
		charts.WithXAxisOpts(opts.XAxis{Name: xName}),
		charts.WithYAxisOpts(opts.YAxis{
			Name: yName,
			SplitLine: &opts.SplitLine{
				Show: opts.Bool(true),
			},
		}))
	return line
}

func trackingChart(title string, result *sim.Result) *charts.Line {
	stride := sampleStride(len(result.Times))
	var xs []string
	var sp, pv []opts.LineData
	for i := 0; i < len(result.Times); i += stride {
		xs = append(xs, fmt.Sprintf("%.2f", result.Times[i]))
		sp = append(sp, opts.LineData{Value: result.Setpoints[i]})
		pv = append(pv, opts.LineData{Value: result.Trajectory[i]})
	}

	line := lineBase(title, "t (s)", "value")
	line.SetXAxis(xs).
		AddSeries("setpoint", sp).
		AddSeries("pv", pv, charts.WithLineChartOpts(opts.LineChart{
			Smooth: opts.Bool(true),
		}))
	return line
}

func controlChart(result *sim.Result) *charts.Line {
	stride := sampleStride(len(result.Times))
	var xs []string
	var u []opts.LineData
	for i := 0; i < len(result.Times); i += stride {
		xs = append(xs, fmt.Sprintf("%.2f", result.Times[i]))
		u = append(u, opts.LineData{Value: result.Controls[i]})
	}

	line := lineBase("control effort", "t (s)", "u")
	line.SetXAxis(xs).AddSeries("u", u)
	return line
}

func gainChart(result *sim.Result) *charts.Line {
	stride := sampleStride(len(result.GainTrace))
	var xs []string
	var kp, ki, kd []opts.LineData
	for i := 0; i < len(result.GainTrace); i += stride {
		xs = append(xs, fmt.Sprintf("%.2f", result.Times[i]))
		g := result.GainTrace[i]
		kp = append(kp, opts.LineData{Value: g.Kp})
		ki = append(ki, opts.LineData{Value: g.Ki})
		kd = append(kd, opts.LineData{Value: g.Kd})
	}

	line := lineBase("gains over time", "t (s)", "gain")
	line.SetXAxis(xs).
		AddSeries("kp", kp).
		AddSeries("ki", ki).
		AddSeries("kd", kd)
	return line
}

func convergenceChart(history []optim.GenStat) *charts.Line {
	var xs []string
	var best, mean []opts.LineData
	for _, gs := range history {
		xs = append(xs, fmt.Sprintf("%d", gs.Gen))
		best = append(best, opts.LineData{Value: gs.Best})
		mean = append(mean, opts.LineData{Value: gs.Mean})
	}

	line := lineBase("fitness convergence", "generation", "fitness")
	line.SetXAxis(xs).
		AddSeries("best", best).
		AddSeries("mean", mean)
	return line
}

// sampleStride thins long runs so the page stays light.
func sampleStride(n int) int {
	stride := n / maxChartPoints
	if stride < 1 {
		stride = 1
	}
	return stride
}
