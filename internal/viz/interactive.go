package viz

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/moss-coleman/acdlo/internal/evaluate"
)

const (
	fineStep   = 0.05
	coarseStep = 0.25
	gammaStep  = 0.1
)

// Interactive is a Bubble Tea application for exploring configurations:
// states are adjusted live and the shape, tip position, and gravity vector
// update on every keypress.
type Interactive struct {
	shape  *Shape
	ev     *evaluate.Evaluator
	theta  []float64
	p      []float64
	gamma  float64
	cursor int
	err    error
}

func NewInteractive(ev *evaluate.Evaluator, theta, p []float64) *Interactive {
	return &Interactive{
		shape: NewShape(ev, 64, 22),
		ev:    ev,
		theta: append([]float64{}, theta...),
		p:     append([]float64{}, p...),
	}
}

func (m *Interactive) Init() tea.Cmd { return nil }

func (m *Interactive) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch key.String() {
	case "q", "ctrl+c", "escape":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.theta)-1 {
			m.cursor++
		}
	case "left", "h":
		m.theta[m.cursor] -= fineStep
	case "right", "l":
		m.theta[m.cursor] += fineStep
	case "H":
		m.theta[m.cursor] -= coarseStep
	case "L":
		m.theta[m.cursor] += coarseStep
	case "g":
		m.gamma -= gammaStep
	case "G":
		m.gamma += gammaStep
	case "r":
		for k := range m.theta {
			m.theta[k] = 0
		}
		m.gamma = 0
	}
	return m, nil
}

func (m *Interactive) View() string {
	var b strings.Builder
	b.WriteString("\n  " + titleStyle.Render("acdlo") + dimStyle.Render("  appendage shape explorer") + "\n\n")

	frame, err := m.shape.Render(m.theta, m.p)
	if err != nil {
		m.err = err
	} else {
		m.err = nil
		b.WriteString(indent(frame, 2))
	}

	b.WriteString("\n")
	for k, v := range m.theta {
		line := fmt.Sprintf("theta_%d  %+8.3f", k, v)
		if k == m.cursor {
			b.WriteString("  " + titleStyle.Render("▸ "+line) + "\n")
		} else {
			b.WriteString("  " + dimStyle.Render("  "+line) + "\n")
		}
	}
	b.WriteString("  " + dimStyle.Render(fmt.Sprintf("  gamma    %+8.3f", m.gamma)) + "\n\n")

	if g, err := m.ev.GravityTilted(m.theta, m.gamma, m.p); err == nil {
		vals := make([]string, g.Len())
		for k := 0; k < g.Len(); k++ {
			vals[k] = fmt.Sprintf("%+.3f", g.AtVec(k))
		}
		b.WriteString("  " + dimStyle.Render("G = ["+strings.Join(vals, " ")+"]") + "\n")
	}
	b.WriteString("  " + m.shape.Summary(m.theta, m.p) + "\n")

	if m.err != nil {
		b.WriteString("\n  " + warnStyle.Render(m.err.Error()) + "\n")
	}

	help := lipgloss.NewStyle().Foreground(lipgloss.Color("238"))
	b.WriteString("\n  " + help.Render("j/k select  h/l adjust  H/L coarse  g/G tilt gravity  r reset  q quit") + "\n")
	return b.String()
}

func indent(s string, n int) string {
	pad := strings.Repeat(" ", n)
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	for i := range lines {
		lines[i] = pad + lines[i]
	}
	return strings.Join(lines, "\n") + "\n"
}

// RunInteractive starts the explorer in the alternate screen.
func RunInteractive(ev *evaluate.Evaluator, theta, p []float64) error {
	_, err := tea.NewProgram(NewInteractive(ev, theta, p), tea.WithAltScreen()).Run()
	return err
}
