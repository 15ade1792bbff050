// Package sim integrates the passive dynamics of the appendage: the state
// is [theta; dtheta] and the acceleration comes from solving
// B(theta) ddtheta = -C(theta, dtheta) dtheta - G(theta) - damping dtheta.
package sim

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/moss-coleman/acdlo/internal/evaluate"
)

// State packs the configuration and its velocity, length 2n.
type State []float64

func (s State) Clone() State {
	out := make(State, len(s))
	copy(out, s)
	return out
}

func (s State) IsValid() bool {
	for _, v := range s {
		if v != v || v > 1e12 || v < -1e12 {
			return false
		}
	}
	return true
}

// Dynamics wraps the compiled model as a first-order system.
type Dynamics struct {
	ev      *evaluate.Evaluator
	p       []float64
	damping float64
	n       int
}

func NewDynamics(ev *evaluate.Evaluator, p []float64, damping float64) *Dynamics {
	return &Dynamics{ev: ev, p: p, damping: damping, n: ev.States()}
}

func (d *Dynamics) StateDim() int { return 2 * d.n }

// Derive computes the state derivative [dtheta; ddtheta].
func (d *Dynamics) Derive(x State) (State, error) {
	if len(x) != 2*d.n {
		return nil, fmt.Errorf("sim: state has %d values, want %d", len(x), 2*d.n)
	}
	theta := x[:d.n]
	dtheta := x[d.n:]

	b, err := d.ev.Inertia(theta, d.p)
	if err != nil {
		return nil, err
	}
	c, err := d.ev.Coriolis(theta, dtheta, d.p)
	if err != nil {
		return nil, err
	}
	g, err := d.ev.Gravity(theta, d.p)
	if err != nil {
		return nil, err
	}

	// rhs = -C dtheta - G - damping dtheta
	rhs := mat.NewVecDense(d.n, nil)
	rhs.MulVec(c, mat.NewVecDense(d.n, dtheta))
	rhs.AddVec(rhs, g)
	for i := 0; i < d.n; i++ {
		rhs.SetVec(i, -rhs.AtVec(i)-d.damping*dtheta[i])
	}

	var accel mat.VecDense
	if err := accel.SolveVec(b, rhs); err != nil {
		return nil, fmt.Errorf("sim: inertia matrix singular: %w", err)
	}

	out := make(State, 2*d.n)
	copy(out[:d.n], dtheta)
	for i := 0; i < d.n; i++ {
		out[d.n+i] = accel.AtVec(i)
	}
	return out, nil
}
