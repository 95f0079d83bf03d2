package tui

import (
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/san-kum/chaoslab/internal/analysis"
	"github.com/san-kum/chaoslab/internal/dynamo"
	"github.com/san-kum/chaoslab/internal/integrators"
	"github.com/san-kum/chaoslab/internal/physics"
	"github.com/san-kum/chaoslab/internal/sim"
	"github.com/san-kum/chaoslab/internal/viz"
)

const (
	trailLength   = 400
	historyLength = 60
	maxSpeed      = 64
)

type Options struct {
	Name     string
	System   dynamo.System
	Stepper  integrators.Stepper
	Init     dynamo.State
	Dt       float64
	Duration float64 // 0 runs until quit
	Frame    time.Duration
}

type model struct {
	opts    Options
	session *sim.Session
	err     error

	paused bool
	speed  int
	trail  []analysis.Point
	prev   float64
	hist   []float64

	width  int
	height int
}

type tickMsg time.Time

func NewModel(opts Options) (tea.Model, error) {
	m, err := newModel(opts)
	if err != nil {
		return nil, err
	}
	return m, nil
}

func newModel(opts Options) (model, error) {
	if opts.Frame <= 0 {
		opts.Frame = 16 * time.Millisecond
	}
	if opts.Dt <= 0 {
		return model{}, fmt.Errorf("dt must be positive, got %f", opts.Dt)
	}
	m := model{opts: opts, speed: 1, width: 80, height: 24}
	if err := m.reset(); err != nil {
		return model{}, err
	}
	return m, nil
}

func (m *model) reset() error {
	session, err := sim.NewSession(m.opts.System, m.opts.Stepper, m.opts.Init, m.opts.Dt)
	if err != nil {
		return err
	}
	m.session = session
	m.err = nil
	m.trail = make([]analysis.Point, 0, trailLength)
	m.hist = make([]float64, 0, historyLength)
	if len(m.opts.Init) > 0 {
		m.prev = m.opts.Init[0]
	}
	return nil
}

func (m model) tick() tea.Cmd {
	return tea.Tick(m.opts.Frame, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m model) Init() tea.Cmd { return m.tick() }

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case tickMsg:
		if !m.paused && m.err == nil && !m.finished() {
			for i := 0; i < m.speed; i++ {
				m.step()
				if m.err != nil || m.finished() {
					break
				}
			}
		}
		return m, m.tick()
	}
	return m, nil
}

func (m model) handleKey(msg tea.KeyMsg) (model, tea.Cmd) {
	switch msg.String() {
	case "q", "esc", "ctrl+c":
		return m, tea.Quit
	case " ", "p":
		m.paused = !m.paused
	case "r":
		if err := m.reset(); err != nil {
			m.err = err
		}
		return m, tea.ClearScreen
	case "+", "=":
		m.speed = min(m.speed*2, maxSpeed)
	case "-", "_":
		m.speed = max(m.speed/2, 1)
	case "0":
		m.speed = 1
	}
	return m, nil
}

func (m model) finished() bool {
	return m.opts.Duration > 0 && m.session.Time() >= m.opts.Duration
}

// step advances one tick and records the projected point.
func (m *model) step() {
	if err := m.session.Tick(); err != nil {
		m.err = err
		return
	}
	x := m.session.State()
	if !x.IsValid() {
		m.err = dynamo.SimError{Time: m.session.Time(), Step: m.session.Steps(), Message: "invalid state (NaN/Inf)"}
		return
	}

	m.trail = append(m.trail, m.project(x))
	if len(m.trail) > trailLength {
		m.trail = m.trail[1:]
	}
	m.hist = append(m.hist, x[0])
	if len(m.hist) > historyLength {
		m.hist = m.hist[1:]
	}
	m.prev = x[0]
}

// project picks the plane drawn on the canvas: the lower bob for the double
// pendulum, (x, z) for three or more components and the return map
// (x_n, x_n+1) for scalar maps.
func (m model) project(x dynamo.State) analysis.Point {
	if dp, ok := m.opts.System.(*physics.DoublePendulum); ok {
		_, _, x2, y2 := dp.Positions(x)
		return analysis.Point{X: x2, Y: y2}
	}
	switch len(x) {
	case 1:
		return analysis.Point{X: m.prev, Y: x[0]}
	case 2:
		return analysis.Point{X: x[0], Y: x[1]}
	default:
		return analysis.Point{X: x[0], Y: x[2]}
	}
}

func (m model) View() string {
	cw := max(m.width-6, 40)
	ch := max(m.height-10, 8)

	var b strings.Builder

	status := viz.StatusRunning.Render("● running")
	switch {
	case m.err != nil:
		status = viz.StatusError.Render("✕ " + m.err.Error())
	case m.finished():
		status = viz.StatusPaused.Render("■ done")
	case m.paused:
		status = viz.StatusPaused.Render("○ paused")
	}
	fmt.Fprintf(&b, "\n   %s  %s  %s\n",
		viz.Title.Render(m.opts.Name), status,
		viz.Subtle.Render(fmt.Sprintf("t=%.2f  steps=%d  x%d", m.session.Time(), m.session.Steps(), m.speed)))

	canvas := viz.Scatter(&analysis.PhasePortrait2D{Points: m.trail}, cw/2, ch, true)
	for _, row := range strings.Split(strings.TrimRight(canvas.String(), "\n"), "\n") {
		b.WriteString("   " + row + "\n")
	}

	x := m.session.State()
	header := dynamo.Header(m.opts.System)
	b.WriteString("   ")
	for i, v := range x {
		b.WriteString(viz.MetricLabel.Render(header[i] + "="))
		b.WriteString(viz.MetricValue.Render(fmt.Sprintf("%.3f", v)))
		b.WriteString("  ")
	}
	if h, ok := m.opts.System.(dynamo.Hamiltonian); ok {
		e := h.Energy(x)
		if !math.IsNaN(e) {
			b.WriteString(viz.MetricLabel.Render("E="))
			b.WriteString(viz.MetricValue.Render(fmt.Sprintf("%.4f", e)))
		}
	}
	b.WriteString("\n")

	if len(m.hist) > 1 {
		fmt.Fprintf(&b, "   %s %s\n", viz.Subtle.Render(header[0]), viz.Sparkline(m.hist, 40))
	}

	b.WriteString("\n" + viz.KeyHint.Render("   space pause  +/- speed  r reset  q quit") + "\n")
	return b.String()
}

// Run opens the live view on the alternate screen and blocks until quit.
func Run(opts Options) error {
	m, err := newModel(opts)
	if err != nil {
		return err
	}
	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err = p.Run()
	return err
}
