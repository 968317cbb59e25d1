package viz

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/gravsim/internal/body"
	"github.com/san-kum/gravsim/internal/engine"
	"github.com/san-kum/gravsim/internal/integrators"
	"github.com/san-kum/gravsim/internal/metrics"
	"github.com/san-kum/gravsim/internal/physics"
	"github.com/san-kum/gravsim/internal/vecmath"
)

const (
	historyCapacity = 240
	perfWindow      = 30
	graphWidth      = 48
	graphHeight     = 6
)

type TickMsg time.Time

// WatchOptions control how fast the watch model advances.
type WatchOptions struct {
	DT            float64
	StepsPerFrame int
	// MaxSteps stops the run after that many ticks; 0 runs until quit.
	MaxSteps int
	FPS      int
	Theme    string
}

func DefaultWatchOptions() WatchOptions {
	return WatchOptions{DT: 1, StepsPerFrame: 1, FPS: 30, Theme: ThemeDeepSpace.Name}
}

// Model is the bubbletea model behind `gravsim watch`. It advances the engine
// a few ticks per frame and shows solver, tree and timing statistics.
type Model struct {
	ctx    context.Context
	name   string
	engine *engine.Engine
	integ  integrators.Integrator
	opts   WatchOptions

	initial []body.Body
	bodies  []body.Body
	tick    int
	t       float64
	solver  string

	perf          *metrics.PerfCollector
	drift         *metrics.EnergyDrift
	initialEnergy float64
	driftHistory  []float64
	tickHistory   []float64

	theme    Theme
	styles   Styles
	running  bool
	showHelp bool
	err      error
}

// NewModel builds a watch model over a copy of set. The engine must not be
// shared with another goroutine while the program runs.
func NewModel(ctx context.Context, name string, eng *engine.Engine, integ integrators.Integrator, set *body.Set, opts WatchOptions) Model {
	if integ == nil {
		integ = integrators.NewSemiImplicit()
	}
	if opts.StepsPerFrame <= 0 {
		opts.StepsPerFrame = 1
	}
	if opts.FPS <= 0 {
		opts.FPS = 30
	}

	perf := metrics.NewPerfCollector(perfWindow)
	eng.SetPerf(perf)

	theme := GetTheme(opts.Theme)
	m := Model{
		ctx:          ctx,
		name:         name,
		engine:       eng,
		integ:        integ,
		opts:         opts,
		initial:      cloneBodies(set.Bodies()),
		perf:         perf,
		drift:        metrics.NewEnergyDrift(),
		driftHistory: make([]float64, 0, historyCapacity),
		tickHistory:  make([]float64, 0, historyCapacity),
		theme:        theme,
		styles:       NewStyles(theme),
		running:      true,
	}
	m.reset()
	return m
}

func (m Model) Init() tea.Cmd {
	return m.nextFrame()
}

func (m Model) nextFrame() tea.Cmd {
	return tea.Tick(time.Second/time.Duration(m.opts.FPS), func(t time.Time) tea.Msg { return TickMsg(t) })
}

// Update handles keys and advances the simulation on every TickMsg.
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
		case "t":
			m.theme = nextTheme(m.theme)
			m.styles = NewStyles(m.theme)
		case "+", "=":
			m.opts.StepsPerFrame *= 2
		case "-", "_":
			m.opts.StepsPerFrame = max(m.opts.StepsPerFrame/2, 1)
		case "?":
			m.showHelp = !m.showHelp
		}
	case TickMsg:
		if m.running && !m.done() {
			m.step()
		}
		return m, m.nextFrame()
	}
	return m, nil
}

func (m *Model) done() bool {
	return m.err != nil || (m.opts.MaxSteps > 0 && m.tick >= m.opts.MaxSteps)
}

// step advances StepsPerFrame ticks or until MaxSteps is reached.
func (m *Model) step() {
	for i := 0; i < m.opts.StepsPerFrame && !m.done(); i++ {
		m.perf.StartTick()
		out, err := m.engine.Step(m.ctx, m.bodies, m.opts.DT, m.integ)
		m.perf.EndTick()
		if err != nil {
			m.fail(err)
			return
		}
		m.solver = out.Solver
		m.tick++
		m.t += m.opts.DT

		for j := range m.bodies {
			if !vecmath.IsFinite(m.bodies[j].Position) || !vecmath.IsFinite(m.bodies[j].Velocity) {
				m.fail(fmt.Errorf("body %d left the finite range at tick %d", m.bodies[j].ID, m.tick))
				return
			}
		}
	}

	m.drift.Observe(m.bodies, m.t)
	m.driftHistory = appendCapped(m.driftHistory, relDrift(m.drift.Current(), m.initialEnergy))
	m.tickHistory = appendCapped(m.tickHistory, float64(m.perf.Stats().AvgTickDuration.Microseconds()))
}

func (m *Model) fail(err error) {
	m.err = err
	m.running = false
	slog.Error("watch stopped", "tick", m.tick, "error", err)
}

// reset restores the initial population and clears the histories.
func (m *Model) reset() {
	m.bodies = cloneBodies(m.initial)
	m.tick = 0
	m.t = 0
	m.err = nil
	m.solver = m.engine.SolverFor(len(m.bodies))
	m.drift.Reset()
	m.drift.Observe(m.bodies, 0)
	ke, pe := physics.Energy(m.bodies)
	m.initialEnergy = ke + pe
	m.driftHistory = m.driftHistory[:0]
	m.tickHistory = m.tickHistory[:0]
}

// Tick reports the number of completed ticks.
func (m Model) Tick() int { return m.tick }

// Bodies returns the current state. Callers must not modify it.
func (m Model) Bodies() []body.Body { return m.bodies }

func (m Model) Err() error { return m.err }

// View renders the stats panel.
func (m Model) View() string {
	st := m.styles
	var s strings.Builder

	s.WriteString(st.Title.Render("GRAVSIM  "+strings.ToUpper(m.name)) + "\n\n")
	s.WriteString(m.status() + "\n\n")

	if m.opts.MaxSteps > 0 {
		frac := float64(m.tick) / float64(m.opts.MaxSteps)
		s.WriteString(st.ProgressBar(frac, 30) + fmt.Sprintf(" %d/%d\n\n", m.tick, m.opts.MaxSteps))
	}

	s.WriteString(st.Row("Tick", fmt.Sprintf("%d", m.tick)) + "\n")
	s.WriteString(st.Row("Time", fmt.Sprintf("%.3fs", m.t)) + "\n")
	s.WriteString(st.Row("dt", fmt.Sprintf("%g", m.opts.DT)) + "\n")
	s.WriteString(st.Row("Bodies", fmt.Sprintf("%d", len(m.bodies))) + "\n")
	s.WriteString(st.Row("Mode", m.engine.Options().Mode.String()) + "\n")
	s.WriteString(st.Row("Solver", m.solver) + "\n")
	s.WriteString(st.Row("Integrator", m.integ.Name()) + "\n")
	if m.solver == engine.SolverBarnesHut {
		tree := m.engine.LastTree()
		s.WriteString(st.Row("Theta", fmt.Sprintf("%.3f", m.engine.Options().Theta)) + "\n")
		s.WriteString(st.Row("Tree", fmt.Sprintf("%d nodes, %d flat, depth %d", tree.Nodes, tree.Flat, tree.Depth)) + "\n")
		if tree.Merged > 0 {
			s.WriteString(st.Row("Merged", fmt.Sprintf("%d", tree.Merged)) + "\n")
		}
	}
	s.WriteString(st.Row("Steps/frame", fmt.Sprintf("%d", m.opts.StepsPerFrame)) + "\n")
	s.WriteString(st.Row("Energy drift", fmt.Sprintf("%.3e (max %.3e)", last(m.driftHistory), m.drift.Value())) + "\n")

	stats := m.perf.Stats()
	s.WriteString("\n" + st.Separator(40) + "\n\n")
	s.WriteString(st.Row("Tick avg", stats.AvgTickDuration.String()) + "\n")
	s.WriteString(st.Row("Ticks/s", fmt.Sprintf("%.1f", stats.TicksPerSecond)) + "\n")
	for _, phase := range []string{metrics.PhaseBuildTree, metrics.PhaseFlatten, metrics.PhaseEvaluate, metrics.PhaseIntegrate} {
		if pct, ok := stats.PhasePct[phase]; ok {
			s.WriteString(st.Row(phase, fmt.Sprintf("%5.1f%%", pct)) + "\n")
		}
	}
	s.WriteString(st.Label.Render("Tick µs") + st.Sparkline(m.tickHistory, 30) + "\n")

	if chart := Plot(m.driftHistory, "energy drift", graphWidth, graphHeight); chart != "" {
		s.WriteString(st.Graph.Render(chart) + "\n")
	}

	s.WriteString("\n" + st.KeyHint.Render("space:pause  r:reset  +/-:speed  t:theme  ?:help  q:quit"))
	panel := st.Panel.Render(s.String())

	if m.showHelp {
		return lipgloss.JoinVertical(lipgloss.Left, st.Panel.Render(m.help()), panel)
	}
	return panel
}

func (m Model) status() string {
	st := m.styles
	switch {
	case m.err != nil:
		return st.Failed.Render("ERROR: " + m.err.Error())
	case m.done():
		return st.Running.Render("DONE")
	case !m.running:
		return st.Paused.Render("PAUSED")
	default:
		return st.Running.Render("RUNNING")
	}
}

func (m Model) help() string {
	return strings.Join([]string{
		"space  pause / resume",
		"r      reset to the initial bodies",
		"+ / -  double / halve ticks per frame",
		"t      cycle theme (" + strings.Join(ThemeNames(), ", ") + ")",
		"?      toggle this help",
		"q      quit",
	}, "\n")
}

// RunWatch runs the watch program until the user quits.
func RunWatch(m Model) error {
	_, err := tea.NewProgram(m).Run()
	return err
}

func cloneBodies(in []body.Body) []body.Body {
	out := make([]body.Body, len(in))
	copy(out, in)
	return out
}

func appendCapped(s []float64, v float64) []float64 {
	s = append(s, v)
	if len(s) > historyCapacity {
		s = s[1:]
	}
	return s
}

func last(s []float64) float64 {
	if len(s) == 0 {
		return 0
	}
	return s[len(s)-1]
}
