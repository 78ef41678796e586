package viz

import (
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/guptarohit/asciigraph"

	"mechdiff/internal/mech"
	"mechdiff/internal/observe"
	"mechdiff/internal/sim"
	"mechdiff/internal/statecache"
)

const (
	width           = 80
	height          = 24
	historyCapacity = 600
	trailCapacity   = 200
)

var (
	canvasStyle = lipgloss.NewStyle().Padding(1, 2)
	statsStyle  = lipgloss.NewStyle().Border(lipgloss.NormalBorder(), false, false, false, true).BorderForeground(lipgloss.Color("240")).Padding(1, 2).Width(45)
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true).MarginBottom(1)
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(14)
	valueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	graphStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("49")).Padding(1, 0)
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).MarginTop(2)
)

type TickMsg time.Time

// Model animates a passive double pendulum and reports the conserved
// quantities alongside their analytically exact time derivatives.
type Model struct {
	cache      *statecache.Cache
	dyn        *sim.MechanismSystem
	integrator sim.Integrator
	params     mech.DoublePendulumParams

	state        sim.State
	initialState sim.State
	t, dt        float64

	canvas        *Canvas
	trail         []struct{ x, y int }
	energyHistory []float64

	energy     float64
	energyRate float64
	angularMom float64

	running bool
	failed  bool
}

func NewModel(c *statecache.Cache, integ sim.Integrator, params mech.DoublePendulumParams, initState []float64, dt float64) Model {
	m := Model{
		cache:         c,
		dyn:           sim.NewMechanismSystem(c),
		integrator:    integ,
		params:        params,
		state:         sim.State(initState).Clone(),
		initialState:  sim.State(initState).Clone(),
		dt:            dt,
		canvas:        NewCanvas(width, height),
		trail:         make([]struct{ x, y int }, 0, trailCapacity),
		energyHistory: make([]float64, 0, historyCapacity),
		running:       true,
	}
	m.observeQuantities()
	return m
}

func (m Model) Init() tea.Cmd {
	return tea.Tick(time.Second/60, func(t time.Time) tea.Msg { return TickMsg(t) })
}

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
		}
	case TickMsg:
		if m.running && !m.failed {
			// Several substeps per frame keeps the animation near real time.
			steps := int(math.Max(1, 1.0/(60.0*m.dt)))
			for i := 0; i < steps; i++ {
				m.step()
			}
		}
		m.draw()
		return m, tea.Tick(time.Second/60, func(t time.Time) tea.Msg { return TickMsg(t) })
	}
	return m, nil
}

func (m *Model) step() {
	m.state = m.integrator.Step(m.dyn, m.state, m.t, m.dt)
	m.t += m.dt
	if !m.state.IsValid() {
		m.failed = true
		m.running = false
		return
	}
	m.observeQuantities()
}

func (m *Model) observeQuantities() {
	n := m.cache.Mechanism().NumPositions()
	q, v := m.state[:n], m.state[n:]

	m.energy = m.dyn.Energy(m.state)
	if rate, err := observe.EnergyRate(m.cache, q, v); err == nil {
		m.energyRate = rate
	}
	if h, err := observe.MomentumFloats(m.cache, q, v); err == nil {
		// Rotation axis is +y; the matching angular component is conserved
		// only when gravity has no moment about it, which it does here, so
		// display it as a raw diagnostic.
		m.angularMom = h[1]
	}

	m.energyHistory = append(m.energyHistory, m.energy)
	if len(m.energyHistory) > historyCapacity {
		m.energyHistory = m.energyHistory[1:]
	}
}

func (m *Model) reset() {
	m.t = 0
	m.state = m.initialState.Clone()
	m.trail = m.trail[:0]
	m.energyHistory = m.energyHistory[:0]
	m.failed = false
	m.running = true
	m.observeQuantities()
}

// bobPositions computes the world-frame link endpoints. Joint axes are
// +y and links hang along -z, so the motion lives in the x-z plane.
func (m *Model) bobPositions() (mgl64.Vec3, mgl64.Vec3) {
	q1, q2 := m.state[0], m.state[1]

	b1 := mgl64.Rotate3DY(q1).Mul3x1(mgl64.Vec3{0, 0, -m.params.L1})
	b2 := b1.Add(mgl64.Rotate3DY(q1 + q2).Mul3x1(mgl64.Vec3{0, 0, -m.params.L2}))
	return b1, b2
}

func (m *Model) draw() {
	m.canvas.Clear()

	cw, ch := width*2, height*4
	cx, cy := cw/2, 8
	scale := float64(ch) * 0.38 / math.Max(m.params.L1+m.params.L2, 1e-9)

	b1, b2 := m.bobPositions()
	b1x, b1y := cx+int(b1.X()*scale), cy-int(b1.Z()*scale)
	b2x, b2y := cx+int(b2.X()*scale), cy-int(b2.Z()*scale)

	m.trail = append(m.trail, struct{ x, y int }{b2x, b2y})
	if len(m.trail) > trailCapacity {
		m.trail = m.trail[1:]
	}
	for _, pt := range m.trail {
		m.canvas.Set(pt.x, pt.y)
	}

	m.canvas.Set(cx, cy)
	m.canvas.DrawLine(cx, cy, b1x, b1y)
	m.canvas.Set(b1x, b1y)
	m.canvas.DrawLine(b1x, b1y, b2x, b2y)
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			m.canvas.Set(b2x+dx, b2y+dy)
		}
	}
}

func (m Model) View() string {
	canvasView := canvasStyle.Render(m.canvas.String())

	var s strings.Builder
	s.WriteString(headerStyle.Render("DOUBLE PENDULUM") + "\n")

	status := "RUNNING"
	if m.failed {
		status = "DIVERGED"
	} else if !m.running {
		status = "PAUSED"
	}
	s.WriteString(status + "\n\n")

	if len(m.energyHistory) > 1 {
		chart := asciigraph.Plot(m.energyHistory, asciigraph.Height(4), asciigraph.Width(30), asciigraph.Caption("Energy"))
		s.WriteString(graphStyle.Render(chart) + "\n\n")
	}

	s.WriteString(labelStyle.Render("Time") + valueStyle.Render(fmt.Sprintf("%.2fs", m.t)) + "\n")
	s.WriteString(labelStyle.Render("Energy") + valueStyle.Render(fmt.Sprintf("%.6f", m.energy)) + "\n")
	s.WriteString(labelStyle.Render("dE/dt") + valueStyle.Render(fmt.Sprintf("%+.2e", m.energyRate)) + "\n")
	s.WriteString(labelStyle.Render("Ang. mom. (y)") + valueStyle.Render(fmt.Sprintf("%+.6f", m.angularMom)) + "\n")
	s.WriteString(labelStyle.Render("q") + valueStyle.Render(fmt.Sprintf("[%+.3f %+.3f]", m.state[0], m.state[1])) + "\n")
	s.WriteString(labelStyle.Render("v") + valueStyle.Render(fmt.Sprintf("[%+.3f %+.3f]", m.state[2], m.state[3])) + "\n")

	s.WriteString(helpStyle.Render("\n─────────────────────\nSP:Pause R:Reset Q:Quit"))

	statsView := statsStyle.Render(s.String())
	return lipgloss.JoinHorizontal(lipgloss.Top, canvasView, statsView)
}
