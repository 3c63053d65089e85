package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/pidtune/internal/batch"
	"github.com/san-kum/pidtune/internal/config"
	"github.com/san-kum/pidtune/internal/control"
	"github.com/san-kum/pidtune/internal/optim"
	"github.com/san-kum/pidtune/internal/storage"
	"github.com/san-kum/pidtune/internal/tune"
	"github.com/san-kum/pidtune/internal/viz"
	"github.com/spf13/cobra"
)

var (
	dataDir     string
	configFile  string
	preset      string
	dt          float64
	duration    float64
	seed        int64
	optimizer   string
	population  int
	generations int
	workers     int
	tolerance   float64
	gridPoints  int
	kp          float64
	ki          float64
	kd          float64
	htmlPath    string
	verbose     bool
	sweepGain   string
	sweepMin    float64
	sweepMax    float64
	sweepSteps  int
	trials      int
	perturb     float64
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "pidtune",
		Short: "closed-loop pid gain tuning lab",
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".pidtune", "data directory")

	tuneCmd := &cobra.Command{
		Use:   "tune",
		Short: "search for gains that track the setpoint profile",
		RunE:  runTune,
	}
	tuneCmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	tuneCmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
	tuneCmd.Flags().Float64Var(&dt, "dt", config.DefaultDt, "controller period")
	tuneCmd.Flags().Float64Var(&duration, "time", config.DefaultDuration, "horizon")
	tuneCmd.Flags().Int64Var(&seed, "seed", config.DefaultSeed, "random seed")
	tuneCmd.Flags().StringVar(&optimizer, "optimizer", config.DefaultOptimizer, "optimizer (genetic|grid)")
	tuneCmd.Flags().IntVar(&population, "population", 0, "ga population size")
	tuneCmd.Flags().IntVar(&generations, "generations", 0, "ga generations")
	tuneCmd.Flags().IntVar(&workers, "workers", 0, "evaluation workers (0 = all cores)")
	tuneCmd.Flags().Float64Var(&tolerance, "tolerance", config.DefaultTolerance, "settling band fraction")
	tuneCmd.Flags().IntVar(&gridPoints, "grid-points", config.DefaultGridPoints, "grid points per gain")
	tuneCmd.Flags().StringVar(&htmlPath, "html", "", "write an html report to this path")
	tuneCmd.Flags().BoolVar(&verbose, "verbose", false, "print per-generation progress")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "simulate the loop with explicit gains",
		RunE:  runGains,
	}
	runCmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	runCmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
	runCmd.Flags().Float64Var(&dt, "dt", config.DefaultDt, "controller period")
	runCmd.Flags().Float64Var(&duration, "time", config.DefaultDuration, "horizon")
	runCmd.Flags().Float64Var(&kp, "kp", 2.0, "proportional gain")
	runCmd.Flags().Float64Var(&ki, "ki", 0.5, "integral gain")
	runCmd.Flags().Float64Var(&kd, "kd", 0.1, "derivative gain")
	runCmd.Flags().StringVar(&htmlPath, "html", "", "write an html report to this path")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot run results",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	chartCmd := &cobra.Command{
		Use:   "chart [run_id]",
		Short: "render an html report for a run",
		Args:  cobra.ExactArgs(1),
		RunE:  chartRun,
	}
	chartCmd.Flags().StringVar(&htmlPath, "out", "", "output path (default <run_id>.html)")

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export run metadata",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export run samples to CSV",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSV,
	}

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "drive the loop interactively",
		RunE:  runLive,
	}
	liveCmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	liveCmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
	liveCmd.Flags().Float64Var(&dt, "dt", config.DefaultDt, "controller period")
	liveCmd.Flags().Float64Var(&kp, "kp", 2.0, "proportional gain")
	liveCmd.Flags().Float64Var(&ki, "ki", 0.5, "integral gain")
	liveCmd.Flags().Float64Var(&kd, "kd", 0.1, "derivative gain")

	compareCmd := &cobra.Command{
		Use:   "compare",
		Short: "compare optimizers on the same scenario",
		RunE:  compareOptimizers,
	}
	compareCmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	compareCmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
	compareCmd.Flags().IntVar(&population, "population", 0, "ga population size")
	compareCmd.Flags().IntVar(&generations, "generations", 0, "ga generations")
	compareCmd.Flags().IntVar(&gridPoints, "grid-points", config.DefaultGridPoints, "grid points per gain")

	batchCmd := &cobra.Command{
		Use:   "batch [scenario.yaml]",
		Short: "evaluate a scripted list of gain sets",
		Args:  cobra.ExactArgs(1),
		RunE:  runBatch,
	}
	batchCmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	batchCmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")

	sweepCmd := &cobra.Command{
		Use:   "sweep",
		Short: "sweep one gain and watch the fitness respond",
		RunE:  runSweep,
	}
	sweepCmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	sweepCmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
	sweepCmd.Flags().StringVar(&sweepGain, "gain", "kp", "gain to sweep (kp|ki|kd)")
	sweepCmd.Flags().Float64Var(&sweepMin, "min", 0.0, "sweep start")
	sweepCmd.Flags().Float64Var(&sweepMax, "max", config.MaxKp, "sweep end")
	sweepCmd.Flags().IntVar(&sweepSteps, "steps", 20, "number of values")
	sweepCmd.Flags().Float64Var(&kp, "kp", 2.0, "base proportional gain")
	sweepCmd.Flags().Float64Var(&ki, "ki", 0.5, "base integral gain")
	sweepCmd.Flags().Float64Var(&kd, "kd", 0.1, "base derivative gain")

	robustCmd := &cobra.Command{
		Use:   "robust",
		Short: "stress a gain set with random perturbations",
		RunE:  runRobust,
	}
	robustCmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	robustCmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
	robustCmd.Flags().Float64Var(&kp, "kp", 2.0, "proportional gain")
	robustCmd.Flags().Float64Var(&ki, "ki", 0.5, "integral gain")
	robustCmd.Flags().Float64Var(&kd, "kd", 0.1, "derivative gain")
	robustCmd.Flags().IntVar(&trials, "trials", 50, "number of trials")
	robustCmd.Flags().Float64Var(&perturb, "perturb", 0.1, "perturbation fraction per gain")
	robustCmd.Flags().Int64Var(&seed, "seed", config.DefaultSeed, "random seed")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list preset configurations",
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, name := range config.ListPresets() {
				p := config.GetPreset(name)
				fmt.Printf("%-10s %s, %d setpoint steps, %.0fs horizon\n",
					name, p.Optimizer, len(p.Setpoints), p.Duration)
			}
			return nil
		},
	}

	rootCmd.AddCommand(tuneCmd, runCmd, listCmd, plotCmd, chartCmd, exportCmd, exportCSVCmd, liveCmd, compareCmd, batchCmd, sweepCmd, robustCmd, presetsCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig resolves the effective configuration: preset first, then
// config file, then explicit flags on top.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()

	if preset != "" {
		p := config.GetPreset(preset)
		if p == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
		cfg = p
	}

	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	if cmd.Flags().Changed("dt") {
		cfg.Dt = dt
	}
	if cmd.Flags().Changed("time") {
		cfg.Duration = duration
	}
	if cmd.Flags().Changed("seed") {
		cfg.Seed = seed
	}
	if cmd.Flags().Changed("optimizer") {
		cfg.Optimizer = optimizer
	}
	if cmd.Flags().Changed("tolerance") {
		cfg.Tolerance = tolerance
	}
	if cmd.Flags().Changed("population") {
		cfg.GA.Population = population
	}
	if cmd.Flags().Changed("generations") {
		cfg.GA.Generations = generations
	}
	if cmd.Flags().Changed("workers") {
		cfg.GA.Workers = workers
	}
	if cmd.Flags().Changed("grid-points") {
		cfg.Grid.Points = gridPoints
	}

	return cfg, nil
}

func runTune(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	session, err := tune.NewSession(cfg)
	if err != nil {
		return err
	}
	if verbose {
		session.Progress = func(gs optim.GenStat) {
			fmt.Printf("gen %3d  best=%.4f  mean=%.4f  std=%.4f\n", gs.Gen, gs.Best, gs.Mean, gs.Std)
		}
	}

	fmt.Printf("searching gains with %s optimizer...\n", cfg.Optimizer)

	outcome, err := session.Run(context.Background())
	if err != nil {
		return err
	}

	runID, err := st.Save(metadataFor("tune", cfg, outcome), outcome.Result)
	if err != nil {
		return err
	}

	fmt.Printf("completed in %v (%d evaluations)\n", outcome.Elapsed.Round(time.Millisecond), outcome.Evals)
	fmt.Printf("run id: %s\n\n", runID)
	printOutcome(outcome)

	fmt.Println()
	fmt.Println(viz.TrackingPlot(outcome.Result))
	if verbose {
		if conv := viz.ConvergencePlot(outcome.History); conv != "" {
			fmt.Println()
			fmt.Println(conv)
		}
	}

	if htmlPath != "" {
		title := fmt.Sprintf("tuned response (%s)", outcome.Gains)
		if err := viz.WriteHTML(htmlPath, title, outcome.Result, outcome.History); err != nil {
			return err
		}
		fmt.Printf("\nwrote %s\n", htmlPath)
	}

	return nil
}

func runGains(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	session, err := tune.NewSession(cfg)
	if err != nil {
		return err
	}

	gains := control.Gains{Kp: kp, Ki: ki, Kd: kd}
	fmt.Printf("running loop with %s...\n", gains)

	outcome, err := session.Evaluate(context.Background(), gains)
	if err != nil {
		return err
	}

	runID, err := st.Save(metadataFor("run", cfg, outcome), outcome.Result)
	if err != nil {
		return err
	}

	fmt.Printf("run id: %s\n\n", runID)
	printOutcome(outcome)

	fmt.Println()
	fmt.Println(viz.TrackingPlot(outcome.Result))

	if htmlPath != "" {
		title := fmt.Sprintf("loop response (%s)", gains)
		if err := viz.WriteHTML(htmlPath, title, outcome.Result, nil); err != nil {
			return err
		}
		fmt.Printf("\nwrote %s\n", htmlPath)
	}

	return nil
}

func printOutcome(outcome *tune.Outcome) {
	fmt.Printf("gains: %s\n", outcome.Gains)
	fmt.Printf("fitness: %.4f\n", outcome.Fitness)
	if outcome.Settled {
		fmt.Printf("settling time: %.2fs (band ±%.3f)\n", outcome.SettlingTime, outcome.Tolerance)
	} else {
		fmt.Printf("did not settle within the horizon (band ±%.3f)\n", outcome.Tolerance)
	}
	fmt.Printf("overshoot: %.2f%%\n", outcome.Overshoot*100)
	fmt.Printf("steady-state error: %.4f\n", outcome.SteadyStateError)
	fmt.Println("\nmetrics:")
	for name, val := range outcome.Result.Metrics {
		fmt.Printf("  %s: %.6f\n", name, val)
	}
}

func metadataFor(kind string, cfg *config.Config, outcome *tune.Outcome) storage.RunMetadata {
	return storage.RunMetadata{
		Kind:             kind,
		Seed:             cfg.Seed,
		Dt:               cfg.Dt,
		Duration:         cfg.Duration,
		Optimizer:        outcome.Optimizer,
		Gains:            outcome.Gains,
		Fitness:          outcome.Fitness,
		Evals:            outcome.Evals,
		ElapsedSeconds:   outcome.Elapsed.Seconds(),
		Tolerance:        outcome.Tolerance,
		SettlingTime:     outcome.SettlingTime,
		Settled:          outcome.Settled,
		Overshoot:        outcome.Overshoot,
		SteadyStateError: outcome.SteadyStateError,
		Metrics:          outcome.Result.Metrics,
		History:          outcome.History,
	}
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tKIND\tTIME\tOPTIMIZER\tKP\tKI\tKD\tFITNESS\tSETTLING")

	for _, run := range runs {
		settle := "-"
		if run.Settled {
			settle = fmt.Sprintf("%.2fs", run.SettlingTime)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%.4g\t%.4g\t%.4g\t%.4f\t%s\n",
			run.ID,
			run.Kind,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Optimizer,
			run.Gains.Kp,
			run.Gains.Ki,
			run.Gains.Kd,
			run.Fitness,
			settle,
		)
	}

	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}

	result, err := st.LoadResult(runID)
	if err != nil {
		return err
	}

	if len(result.Times) == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("gains: %s\n", meta.Gains)
	fmt.Printf("samples: %d\n\n", len(result.Times))

	fmt.Println(viz.TrackingPlot(result))
	fmt.Println()
	fmt.Println(viz.ControlPlot(result))

	if gp := viz.GainPlot(result); gp != "" {
		fmt.Println()
		fmt.Println(gp)
	}

	if conv := viz.ConvergencePlot(meta.History); conv != "" {
		fmt.Println()
		fmt.Println(conv)
	}

	return nil
}

func chartRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}

	result, err := st.LoadResult(runID)
	if err != nil {
		return err
	}

	out := htmlPath
	if out == "" {
		out = runID + ".html"
	}

	title := fmt.Sprintf("%s (%s)", meta.ID, meta.Gains)
	if err := viz.WriteHTML(out, title, result, meta.History); err != nil {
		return err
	}

	fmt.Printf("wrote %s\n", out)
	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(meta)
}

func exportCSV(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	result, err := st.LoadResult(runID)
	if err != nil {
		return err
	}

	return storage.WriteCSV(os.Stdout, result)
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	prof, err := cfg.Profile()
	if err != nil {
		return err
	}

	gains := control.Gains{Kp: kp, Ki: ki, Kd: kd}
	if err := gains.Validate(); err != nil {
		return err
	}

	m := viz.NewLiveModel(prof, gains, cfg.Dt)
	p := tea.NewProgram(m)
	if _, err := p.Run(); err != nil {
		return err
	}
	return nil
}

func runBatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	scenario, err := batch.LoadScenario(args[0])
	if err != nil {
		return err
	}

	session, err := tune.NewSession(cfg)
	if err != nil {
		return err
	}

	fmt.Printf("scenario: %s\n", scenario.Name)
	if scenario.Description != "" {
		fmt.Println(scenario.Description)
	}
	fmt.Println()

	results, err := batch.RunScenario(context.Background(), scenario, session)
	if err != nil {
		return err
	}

	fmt.Println()
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tKP\tKI\tKD\tFITNESS\tSETTLING\tOVERSHOOT")
	for _, r := range results {
		settle := "-"
		if r.Outcome.Settled {
			settle = fmt.Sprintf("%.2fs", r.Outcome.SettlingTime)
		}
		fmt.Fprintf(w, "%s\t%.4g\t%.4g\t%.4g\t%.4f\t%s\t%.2f%%\n",
			r.Name, r.Outcome.Gains.Kp, r.Outcome.Gains.Ki, r.Outcome.Gains.Kd,
			r.Outcome.Fitness, settle, r.Outcome.Overshoot*100)
	}
	return w.Flush()
}

func runSweep(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	session, err := tune.NewSession(cfg)
	if err != nil {
		return err
	}

	sweep := &batch.Sweep{
		Gain:  sweepGain,
		Min:   sweepMin,
		Max:   sweepMax,
		Steps: sweepSteps,
		Base:  control.Gains{Kp: kp, Ki: ki, Kd: kd},
	}

	points, err := batch.RunSweep(context.Background(), sweep, session)
	if err != nil {
		return err
	}

	fmt.Println()
	fitness := make([]float64, len(points))
	for i, p := range points {
		fitness[i] = p.Fitness
	}
	fmt.Println(asciigraph.Plot(fitness,
		asciigraph.Height(10),
		asciigraph.Width(70),
		asciigraph.Caption(fmt.Sprintf("fitness vs %s (%.4g to %.4g)", sweepGain, sweepMin, sweepMax)),
	))

	fmt.Println()
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "VALUE\tFITNESS\tSETTLING")
	for _, p := range points {
		settle := "-"
		if p.Settled {
			settle = fmt.Sprintf("%.2fs", p.SettlingTime)
		}
		fmt.Fprintf(w, "%.4f\t%.4f\t%s\n", p.Value, p.Fitness, settle)
	}
	return w.Flush()
}

func runRobust(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	session, err := tune.NewSession(cfg)
	if err != nil {
		return err
	}

	rcfg := &batch.Robustness{
		Gains:        control.Gains{Kp: kp, Ki: ki, Kd: kd},
		Perturbation: perturb,
		Trials:       trials,
		Seed:         cfg.Seed,
	}
	if cmd.Flags().Changed("seed") {
		rcfg.Seed = seed
	}

	fmt.Printf("stressing %s with ±%.0f%% perturbations over %d trials...\n",
		rcfg.Gains, perturb*100, trials)

	trialResults, err := batch.RunRobustness(context.Background(), rcfg, session)
	if err != nil {
		return err
	}

	settled, mean, std := batch.RobustnessStats(trialResults)
	fmt.Printf("\nsettled: %d/%d\n", settled, len(trialResults))
	fmt.Printf("fitness: mean %.4f, std %.4f\n", mean, std)

	worst := trialResults[0]
	for _, tr := range trialResults[1:] {
		if tr.Fitness > worst.Fitness {
			worst = tr
		}
	}
	fmt.Printf("worst trial: %s fitness=%.4f settled=%v\n", worst.Gains, worst.Fitness, worst.Settled)

	return nil
}

func compareOptimizers(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	fmt.Printf("comparing optimizers (dt=%.4f, horizon=%.1fs)\n\n", cfg.Dt, cfg.Duration)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "OPTIMIZER\tFITNESS\tEVALS\tSETTLING\tTIME")

	for _, name := range []string{"genetic", "grid"} {
		c := cfg.Clone()
		c.Optimizer = name

		session, err := tune.NewSession(c)
		if err != nil {
			fmt.Fprintf(w, "%s\terror: %v\n", name, err)
			continue
		}

		outcome, err := session.Run(context.Background())
		if err != nil {
			fmt.Fprintf(w, "%s\terror: %v\n", name, err)
			continue
		}

		settle := "-"
		if outcome.Settled {
			settle = fmt.Sprintf("%.2fs", outcome.SettlingTime)
		}
		fmt.Fprintf(w, "%s\t%.4f\t%d\t%s\t%v\n",
			name, outcome.Fitness, outcome.Evals, settle, outcome.Elapsed.Round(time.Millisecond))
	}

	return w.Flush()
}
