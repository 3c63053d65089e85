package viz

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/pidtune/internal/control"
	"github.com/san-kum/pidtune/internal/plant"
	"github.com/san-kum/pidtune/internal/profile"
)

const (
	graphWidth      = 64
	graphHeight     = 12
	historyCapacity = 600
	stepsPerTick    = 4
)

var (
	plotStyle       = lipgloss.NewStyle().Padding(1, 2)
	statsStyle      = lipgloss.NewStyle().Border(lipgloss.NormalBorder(), false, false, false, true).BorderForeground(lipgloss.Color("240")).Padding(1, 2).Width(40)
	headerStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true).MarginBottom(1)
	labelStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(12)
	valueStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	activeGainStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true)
	graphStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("49")).Padding(1, 0)
	helpStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).MarginTop(2)
	inBandStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	outOfBandStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
)

type TickMsg time.Time

var gainNames = []string{"Kp", "Ki", "Kd"}

// Model runs the closed loop interactively, with the gains adjustable
// while the loop is in flight.
type Model struct {
	pid          *control.PID
	plnt         plant.Plant
	prof         *profile.Profile
	dt           float64
	t            float64
	pv           float64
	u            float64
	running      bool
	selected     int
	initialGains control.Gains
	spHist       []float64
	pvHist       []float64
	uHist        []float64
	showHelp     bool
}

// NewLiveModel sets up an interactive loop against the given profile.
func NewLiveModel(prof *profile.Profile, gains control.Gains, dt float64) Model {
	return Model{
		pid:          control.NewPID(gains),
		plnt:         plant.NewIntegrator(),
		prof:         prof,
		dt:           dt,
		running:      true,
		initialGains: gains,
		spHist:       make([]float64, 0, historyCapacity),
		pvHist:       make([]float64, 0, historyCapacity),
		uHist:        make([]float64, 0, historyCapacity),
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Tick(time.Second/60, func(t time.Time) tea.Msg { return TickMsg(t) })
}

// Update handles input events and steps the loop.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			m.running = !m.running
		case "r":
			m.reset()
		case "tab":
			m.selected = (m.selected + 1) % len(gainNames)
		case "up", "k":
			m.adjustGain(1.05)
		case "down", "j":
			m.adjustGain(0.95)
		case "?":
			m.showHelp = !m.showHelp
		}
	case TickMsg:
		if m.running {
			for i := 0; i < stepsPerTick; i++ {
				m.step()
			}
		}
		return m, tea.Tick(time.Second/60, func(t time.Time) tea.Msg { return TickMsg(t) })
	}
	return m, nil
}

// step advances the loop by one controller period.
func (m *Model) step() {
	sp := m.prof.At(m.t)
	m.u = m.pid.Update(sp, m.pv, m.dt)
	m.pv = m.plnt.Step(m.pv, m.u, m.dt)
	m.t += m.dt

	m.spHist = append(m.spHist, sp)
	m.pvHist = append(m.pvHist, m.pv)
	m.uHist = append(m.uHist, m.u)
	if len(m.spHist) > historyCapacity {
		m.spHist = m.spHist[1:]
		m.pvHist = m.pvHist[1:]
		m.uHist = m.uHist[1:]
	}
}

// adjustGain scales the selected gain and hands the new set to the
// controller without clearing its accumulated state.
func (m *Model) adjustGain(factor float64) {
	g := m.pid.Gains()
	switch m.selected {
	case 0:
		g.Kp = bumped(g.Kp, factor)
	case 1:
		g.Ki = bumped(g.Ki, factor)
	case 2:
		g.Kd = bumped(g.Kd, factor)
	}
	m.pid.SetGains(g)
}

// bumped scales a gain, nudging zero off the floor so scaling has
// something to act on.
func bumped(v, factor float64) float64 {
	if v == 0 && factor > 1 {
		return 0.01
	}
	return v * factor
}

// reset restores time zero, the initial gains, and an empty plot.
func (m *Model) reset() {
	m.t = 0
	m.pv = 0
	m.u = 0
	m.pid = control.NewPID(m.initialGains)
	m.spHist = m.spHist[:0]
	m.pvHist = m.pvHist[:0]
	m.uHist = m.uHist[:0]
}

// View renders the TUI interface.
func (m Model) View() string {
	var plots strings.Builder
	if len(m.pvHist) > 1 {
		chart := asciigraph.PlotMany(
			[][]float64{m.spHist, m.pvHist},
			asciigraph.Height(graphHeight),
			asciigraph.Width(graphWidth),
			asciigraph.Caption("setpoint vs pv"),
		)
		plots.WriteString(graphStyle.Render(chart) + "\n")
		effort := asciigraph.Plot(m.uHist,
			asciigraph.Height(5),
			asciigraph.Width(graphWidth),
			asciigraph.Caption("control"),
		)
		plots.WriteString(graphStyle.Render(effort))
	} else {
		plots.WriteString(graphStyle.Render("collecting samples..."))
	}
	plotView := plotStyle.Render(plots.String())

	sp := m.prof.At(m.t)
	errNow := sp - m.pv

	var s strings.Builder
	s.WriteString(headerStyle.Render("PID LOOP") + "\n")
	status := "RUNNING"
	if !m.running {
		status = "PAUSED"
	}
	s.WriteString(status + "\n\n")
	s.WriteString(labelStyle.Render("Time") + valueStyle.Render(fmt.Sprintf("%.2fs", m.t)) + "\n")
	s.WriteString(labelStyle.Render("Setpoint") + valueStyle.Render(fmt.Sprintf("%.3f", sp)) + "\n")
	s.WriteString(labelStyle.Render("PV") + valueStyle.Render(fmt.Sprintf("%.3f", m.pv)) + "\n")
	errView := inBandStyle
	if errNow < -0.05*sp || errNow > 0.05*sp {
		errView = outOfBandStyle
	}
	s.WriteString(labelStyle.Render("Error") + errView.Render(fmt.Sprintf("%+.3f", errNow)) + "\n")
	s.WriteString(labelStyle.Render("Control") + valueStyle.Render(fmt.Sprintf("%.3f", m.u)) + "\n")

	s.WriteString("\nGAINS\n")
	g := m.pid.Gains()
	vals := []float64{g.Kp, g.Ki, g.Kd}
	initials := []float64{m.initialGains.Kp, m.initialGains.Ki, m.initialGains.Kd}
	for i, name := range gainNames {
		val, initial := vals[i], initials[i]
		if initial == 0 {
			initial = 1e-6
		}
		barWidth, ratio := 10, val/(2.0*initial)
		if ratio > 1 {
			ratio = 1
		} else if ratio < 0 {
			ratio = 0
		}
		filled := int(ratio * float64(barWidth))
		bar := "[" + strings.Repeat("=", filled) + strings.Repeat("-", barWidth-filled) + "]"
		line := fmt.Sprintf("%-4s %s %.4f", name, bar, val)
		if i == m.selected {
			s.WriteString(activeGainStyle.Render("> "+line) + "\n")
		} else {
			s.WriteString("  " + labelStyle.Render(line) + "\n")
		}
	}

	s.WriteString(helpStyle.Render("\n─────────────────────\nSP:Pause R:Reset Q:Quit\nTab:Gain ↑↓:Tune ?:Help"))
	statsView := statsStyle.Render(s.String())
	mainView := lipgloss.JoinHorizontal(lipgloss.Top, plotView, statsView)
	if m.showHelp {
		return `
╔══════════════════════════════════════╗
║          KEYBOARD SHORTCUTS          ║
╠══════════════════════════════════════╣
║  Space    - Pause/Resume loop        ║
║  R        - Reset loop and gains     ║
║  Q        - Quit                     ║
║  Tab      - Cycle gains              ║
║  Up/K     - Increase gain (+5%)      ║
║  Down/J   - Decrease gain (-5%)      ║
║  ?        - Toggle this help         ║
╚══════════════════════════════════════╝
` + "\n\n" + mainView
	}
	return mainView
}
