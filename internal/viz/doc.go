// Package viz renders simulation results for people.
//
// Three surfaces share the package:
//
//   - [TrackingPlot], [ControlPlot], [GainPlot], and [ConvergencePlot]
//     draw ASCII charts for the terminal.
//   - [WriteHTML] renders an interactive report with line charts for
//     tracking, control effort, the gain trace, and fitness convergence.
//   - [NewLiveModel] builds a bubbletea model that runs the closed
//     loop interactively, with the gains adjustable mid-flight.
//
// # Example
//
//	outcome, _ := session.Run(ctx)
//	fmt.Println(viz.TrackingPlot(outcome.Result))
//	_ = viz.WriteHTML("report.html", "tuned response", outcome.Result, outcome.History)
package viz
