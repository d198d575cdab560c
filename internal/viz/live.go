package viz

import (
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/nbody/internal/physics"
	"gonum.org/v1/gonum/spatial/r3"
)

const (
	width            = 60
	height           = 24
	historyCapacity  = 600
	trailCapacity    = 400
	maxStepsPerFrame = 1 << 14
	// viewRadius is the half-width of the view in AU; Neptune orbits at ~30.
	viewRadius = 33.0
)

type TickMsg time.Time

// Model steps a private System and renders it.
type Model struct {
	sys           *physics.System
	dt            float64
	stepsPerFrame int
	steps         int
	initialEnergy float64
	energy        float64
	energyHistory []float64
	driftHistory  []float64
	trails        [][]Dot
	canvas        *Canvas
	running       bool
	diverged      bool
}

// NewModel creates a live view advancing by dt, stepsPerFrame times per
// frame.
func NewModel(dt float64, stepsPerFrame int) Model {
	if stepsPerFrame < 1 {
		stepsPerFrame = 1
	}
	m := Model{
		dt:            dt,
		stepsPerFrame: stepsPerFrame,
		canvas:        NewCanvas(width, height, viewRadius),
		running:       true,
	}
	m.reset()
	return m
}

func tick() tea.Cmd {
	return tea.Tick(time.Second/30, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Model) Init() tea.Cmd {
	return tick()
}

// Update handles input events and steps the simulation.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			if !m.diverged {
				m.running = !m.running
			}
		case "r":
			m.reset()
		case "+", "=":
			if m.stepsPerFrame < maxStepsPerFrame {
				m.stepsPerFrame *= 2
			}
		case "-", "_":
			if m.stepsPerFrame > 1 {
				m.stepsPerFrame /= 2
			}
		}
	case TickMsg:
		if m.running {
			m.step()
		}
		return m, tick()
	}
	return m, nil
}

func (m *Model) reset() {
	m.sys = physics.NewSystem()
	m.steps = 0
	m.diverged = false
	m.running = true
	m.initialEnergy = m.sys.Energy()
	m.energy = m.initialEnergy
	m.energyHistory = append(make([]float64, 0, historyCapacity), m.energy)
	m.driftHistory = append(make([]float64, 0, historyCapacity), 0)
	m.trails = make([][]Dot, m.sys.Len())
	m.recordTrails()
}

// step advances the system by one frame's worth of steps.
func (m *Model) step() {
	for i := 0; i < m.stepsPerFrame; i++ {
		m.sys.Advance(m.dt)
	}
	m.steps += m.stepsPerFrame
	m.energy = m.sys.Energy()

	// A diverged system keeps its last finite frame on screen.
	if !m.sys.Finite() {
		m.diverged = true
		m.running = false
		return
	}

	m.energyHistory = appendCapped(m.energyHistory, m.energy, historyCapacity)
	m.driftHistory = appendCapped(m.driftHistory, math.Abs(m.energy-m.initialEnergy), historyCapacity)
	m.recordTrails()
}

func appendCapped(s []float64, v float64, limit int) []float64 {
	s = append(s, v)
	if len(s) > limit {
		s = s[1:]
	}
	return s
}

// recordTrails appends each body's projected position to its trail. Bodies
// off the canvas leave their trail untouched.
func (m *Model) recordTrails() {
	for i, b := range m.sys.Bodies() {
		d, ok := m.canvas.Project(b.Pos)
		if !ok {
			continue
		}
		trail := m.trails[i]
		if n := len(trail); n > 0 && trail[n-1] == d {
			continue
		}
		trail = append(trail, d)
		if len(trail) > trailCapacity {
			trail = trail[1:]
		}
		m.trails[i] = trail
	}
}

func (m *Model) draw() {
	m.canvas.Reset()
	for i, trail := range m.trails {
		for k := 1; k < len(trail); k++ {
			m.canvas.Segment(trail[k-1], trail[k])
		}
		if len(trail) > 0 {
			r := 1
			if i == 0 {
				r = 2
			}
			m.canvas.Disc(trail[len(trail)-1], r)
		}
	}
}

// Steps returns the number of Advance calls made since the last reset.
func (m Model) Steps() int { return m.steps }

func (m Model) Energy() float64 { return m.energy }

// Diverged reports whether a position or velocity became NaN or Inf.
func (m Model) Diverged() bool { return m.diverged }

// View renders the TUI interface.
func (m Model) View() string {
	m.draw()
	canvasView := canvasStyle.Render(m.canvas.String())

	status := StatusRunning.Render("RUNNING")
	switch {
	case m.diverged:
		status = StatusDiverged.Render("DIVERGED (R to reset)")
	case !m.running:
		status = StatusPaused.Render("PAUSED")
	}

	var s strings.Builder
	s.WriteString(headerStyle.Render("JOVIAN N-BODY") + "\n")
	s.WriteString(status + "\n\n")

	if len(m.energyHistory) > 1 {
		chart := asciigraph.Plot(m.energyHistory, asciigraph.Height(5), asciigraph.Width(30), asciigraph.Precision(6), asciigraph.Caption("Energy"))
		s.WriteString(graphStyle.Render(chart) + "\n")
	}

	drift := 0.0
	if m.initialEnergy != 0 {
		drift = math.Abs(m.energy-m.initialEnergy) / math.Abs(m.initialEnergy)
	}

	row := func(label, value string) {
		s.WriteString(labelStyle.Render(label) + valueStyle.Render(value) + "\n")
	}
	row("Steps", fmt.Sprintf("%d", m.steps))
	row("Time", fmt.Sprintf("%.2f yr", float64(m.steps)*m.dt))
	row("Energy", fmt.Sprintf("%.9f", m.energy))
	row("Drift", fmt.Sprintf("%.3e", drift))
	row("|p|", fmt.Sprintf("%.3e", r3.Norm(m.sys.Momentum())))
	row("Steps/frame", fmt.Sprintf("%d", m.stepsPerFrame))
	s.WriteString(labelStyle.Render("|ΔE|") + SparklineChart(m.driftHistory, 28) + "\n")

	s.WriteString(helpStyle.Render("─────────────────────\nSP:Pause R:Reset Q:Quit\n+/-:Speed"))

	return lipgloss.JoinHorizontal(lipgloss.Top, canvasView, statsStyle.Render(s.String()))
}

// Run starts the live view and blocks until the user quits.
func Run(dt float64, stepsPerFrame int) error {
	_, err := tea.NewProgram(NewModel(dt, stepsPerFrame), tea.WithAltScreen()).Run()
	return err
}
