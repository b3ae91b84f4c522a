package viz

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/brusim/internal/sim"
)

const (
	heatRows        = 24
	heatCols        = 48
	probeCapacity   = 400
	stepsPerFrame   = 20
	defaultFrameGap = time.Second / 30
)

// Value-ordered character ramp for the terminal heatmap.
var heatRamp = []rune(" .:-=+*#%@")

var (
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true).MarginBottom(1)
	mapStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("208")).Padding(0, 1)
	statsStyle  = lipgloss.NewStyle().Border(lipgloss.NormalBorder(), false, false, false, true).BorderForeground(lipgloss.Color("240")).Padding(0, 2).Width(40)
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(12)
	valueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	activeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true)
	graphStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("49")).Padding(1, 0)
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).MarginTop(1)
)

type TickMsg time.Time

// Model drives a live simulation and renders the u field as a terminal
// heatmap with a probe-cell trace alongside.
type Model struct {
	sys       sim.System
	stepper   sim.Stepper
	state     sim.State
	initState sim.State
	n         int
	t, dt     float64
	probeIdx  int
	probe     []float64
	running   bool
	modelName string
	params    map[string]float64
	paramKeys []string
	selected  int
	frameGap  time.Duration
}

func NewModel(sys sim.System, stepper sim.Stepper, x0 sim.State, n int, dt float64, name string, fps int) Model {
	params := make(map[string]float64)
	if c, ok := sys.(sim.Configurable); ok {
		for k, v := range c.GetParams() {
			params[k] = v
		}
	}
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	gap := defaultFrameGap
	if fps > 0 {
		gap = time.Second / time.Duration(fps)
	}

	return Model{
		sys:       sys,
		stepper:   stepper,
		state:     x0.Clone(),
		initState: x0.Clone(),
		n:         n,
		dt:        dt,
		probeIdx:  (n/2)*n + n/2,
		probe:     make([]float64, 0, probeCapacity),
		running:   true,
		modelName: name,
		params:    params,
		paramKeys: keys,
		frameGap:  gap,
	}
}

func (m Model) Init() tea.Cmd {
	return m.tick()
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(m.frameGap, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
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
			m.state = m.initState.Clone()
			m.t = 0
			m.probe = m.probe[:0]
		case "tab":
			if len(m.paramKeys) > 0 {
				m.selected = (m.selected + 1) % len(m.paramKeys)
			}
		case "+", "=":
			m.adjustParam(1.1)
		case "-", "_":
			m.adjustParam(1 / 1.1)
		}
		return m, nil

	case TickMsg:
		if m.running {
			for i := 0; i < stepsPerFrame; i++ {
				m.state = m.stepper.Step(m.sys, m.state, m.t, m.dt)
				m.t += m.dt
			}
			if !m.state.IsValid() {
				m.running = false
			}
			if m.probeIdx < len(m.state) {
				m.probe = append(m.probe, m.state[m.probeIdx])
				if len(m.probe) > probeCapacity {
					m.probe = m.probe[1:]
				}
			}
		}
		return m, m.tick()
	}

	return m, nil
}

func (m *Model) adjustParam(factor float64) {
	if len(m.paramKeys) == 0 {
		return
	}
	c, ok := m.sys.(sim.Configurable)
	if !ok {
		return
	}
	key := m.paramKeys[m.selected]
	val := m.params[key] * factor
	if err := c.SetParam(key, val); err == nil {
		m.params[key] = val
	}
}

func (m Model) View() string {
	header := headerStyle.Render(fmt.Sprintf("brusim live · %s · t=%.2f", m.modelName, m.t))

	heat := mapStyle.Render(m.renderHeatmap())
	stats := statsStyle.Render(m.renderStats())
	body := lipgloss.JoinHorizontal(lipgloss.Top, heat, stats)

	graph := ""
	if len(m.probe) > 2 {
		graph = graphStyle.Render(asciigraph.Plot(m.probe,
			asciigraph.Height(8),
			asciigraph.Width(heatCols+40),
			asciigraph.Caption("probe cell u(t), domain center"),
		))
	}

	help := helpStyle.Render("space pause · r reset · tab select param · +/- adjust · q quit")

	return lipgloss.JoinVertical(lipgloss.Left, header, body, graph, help)
}

// renderHeatmap downsamples the u plane onto the character grid and
// maps values through the ramp using the current frame's min/max.
func (m Model) renderHeatmap() string {
	if len(m.state) < m.n*m.n {
		return ""
	}
	u := m.state[:m.n*m.n]

	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range u {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	span := hi - lo
	if span == 0 {
		span = 1
	}

	var sb strings.Builder
	for r := heatRows - 1; r >= 0; r-- {
		i := r * (m.n - 1) / (heatRows - 1)
		for c := 0; c < heatCols; c++ {
			j := c * (m.n - 1) / (heatCols - 1)
			frac := (u[i*m.n+j] - lo) / span
			k := int(frac * float64(len(heatRamp)-1))
			if k < 0 {
				k = 0
			}
			if k >= len(heatRamp) {
				k = len(heatRamp) - 1
			}
			sb.WriteRune(heatRamp[k])
		}
		sb.WriteByte('\n')
	}
	sb.WriteString(fmt.Sprintf("u ∈ [%.3f, %.3f]", lo, hi))
	return sb.String()
}

func (m Model) renderStats() string {
	var sb strings.Builder

	status := "running"
	if !m.running {
		status = "paused"
	}
	sb.WriteString(labelStyle.Render("status") + valueStyle.Render(status) + "\n")
	sb.WriteString(labelStyle.Render("time") + valueStyle.Render(fmt.Sprintf("%.3f", m.t)) + "\n")
	sb.WriteString(labelStyle.Render("dt") + valueStyle.Render(fmt.Sprintf("%.4g", m.dt)) + "\n")
	sb.WriteString(labelStyle.Render("grid") + valueStyle.Render(fmt.Sprintf("%d×%d", m.n, m.n)) + "\n")

	if len(m.paramKeys) > 0 {
		sb.WriteString("\n" + labelStyle.Render("params") + "\n")
		for i, k := range m.paramKeys {
			line := fmt.Sprintf("  %s = %.4g", k, m.params[k])
			if i == m.selected {
				sb.WriteString(activeStyle.Render("▸"+line) + "\n")
			} else {
				sb.WriteString(valueStyle.Render(" "+line) + "\n")
			}
		}
	}

	return sb.String()
}
