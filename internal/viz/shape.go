package viz

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/moss-coleman/acdlo/internal/evaluate"
)

var (
	titleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true)
	bodyStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("213"))
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
)

// Shape renders one configuration of the appendage: backbone center line
// plus the two cross-section edges, hanging from the base at the top.
type Shape struct {
	ev            *evaluate.Evaluator
	width, height int
	samples       int
}

func NewShape(ev *evaluate.Evaluator, width, height int) *Shape {
	return &Shape{ev: ev, width: width, height: height, samples: 60}
}

// Render draws theta under parameters p and returns the framed canvas.
func (sh *Shape) Render(theta, p []float64) (string, error) {
	length := p[2]
	canvas := NewCanvas(sh.width, sh.height)
	// A touch of margin so a straight configuration is not glued to the
	// frame edge.
	span := length * 1.1
	view := NewViewport(canvas, -span, span, -span, 0.05*length)

	for _, d := range []float64{-0.5, 0, 0.5} {
		xs := make([]float64, 0, sh.samples+1)
		ys := make([]float64, 0, sh.samples+1)
		for i := 0; i <= sh.samples; i++ {
			s := float64(i) / float64(sh.samples)
			pos, err := sh.ev.FK(theta, p, s, d)
			if err != nil {
				return "", err
			}
			xs = append(xs, pos.AtVec(0))
			ys = append(ys, pos.AtVec(1))
		}
		view.DrawCurve(xs, ys)
	}

	var b strings.Builder
	b.WriteString(bodyStyle.Render(canvas.String()))
	return b.String(), nil
}

// Summary formats the state and the tip position for the frame footer.
func (sh *Shape) Summary(theta, p []float64) string {
	parts := make([]string, 0, len(theta)+1)
	for k, v := range theta {
		parts = append(parts, fmt.Sprintf("theta_%d=%+.3f", k, v))
	}
	tip, err := sh.ev.FK(theta, p, 1, 0)
	if err != nil {
		return warnStyle.Render(err.Error())
	}
	parts = append(parts, fmt.Sprintf("tip=(%+.3f, %+.3f)", tip.AtVec(0), tip.AtVec(1)))
	return dimStyle.Render(strings.Join(parts, "  "))
}
