// Package evaluate turns cached symbolic artifacts into fast numeric
// calls. Every artifact is compiled once into a flat slot program at load
// time; evaluation after that is allocation-light and safe for concurrent
// use.
package evaluate

import (
	"fmt"
	"os"

	"gonum.org/v1/gonum/mat"

	"github.com/moss-coleman/acdlo/internal/cache"
	"github.com/moss-coleman/acdlo/internal/symbolic"
)

// Evaluation runs over complex arithmetic and keeps the real part. Residue
// above this relative tolerance is still discarded, but flagged on stderr:
// the inputs likely left the model's valid region.
const residueTol = 1e-6

// Evaluator holds the compiled model for one cache.
type Evaluator struct {
	order  int
	states int
	progs  map[string]*symbolic.Program
}

// New loads every artifact from the store and compiles it against the
// argument layout recorded in the manifest.
func New(store *cache.Store) (*Evaluator, error) {
	manifest, err := store.Manifest()
	if err != nil {
		return nil, err
	}
	artifacts, err := store.LoadAll()
	if err != nil {
		return nil, err
	}

	ev := &Evaluator{
		order:  manifest.PolyOrder,
		states: manifest.PolyOrder + 1,
		progs:  make(map[string]*symbolic.Program, len(artifacts)),
	}
	for name, art := range artifacts {
		prog, err := symbolic.CompileMatrix(art.Matrix, art.Syms)
		if err != nil {
			return nil, fmt.Errorf("evaluate: compile %s: %w", name, err)
		}
		ev.progs[name] = prog
	}
	return ev, nil
}

// PolyOrder is the curvature polynomial order the cache was derived for.
func (e *Evaluator) PolyOrder() int { return e.order }

// States is the configuration dimension, polynomial order + 1.
func (e *Evaluator) States() int { return e.states }

func (e *Evaluator) checkTheta(name string, theta []float64) error {
	if len(theta) != e.states {
		return fmt.Errorf("evaluate: %s wants %d states, got %d", name, e.states, len(theta))
	}
	return nil
}

func checkParams(p []float64) error {
	if len(p) != 4 {
		return fmt.Errorf("evaluate: parameters are (m_L, m_E, L, D), got %d values", len(p))
	}
	return nil
}

func (e *Evaluator) run(slot string, args []float64) ([]float64, *symbolic.Program, error) {
	prog, ok := e.progs[slot]
	if !ok {
		return nil, nil, fmt.Errorf("evaluate: cache has no %s artifact", slot)
	}
	vals, residue, err := prog.EvalReal(args)
	if err != nil {
		return nil, nil, err
	}
	if residue > residueTol {
		fmt.Fprintf(os.Stderr, "evaluate: discarding imaginary residue %.3e in %s\n", residue, slot)
	}
	return vals, prog, nil
}

// FK evaluates the cross-section point position at arc s, section offset d.
func (e *Evaluator) FK(theta, p []float64, s, d float64) (*mat.VecDense, error) {
	if err := e.checkTheta("fk", theta); err != nil {
		return nil, err
	}
	if err := checkParams(p); err != nil {
		return nil, err
	}
	vals, _, err := e.run(cache.SlotFK, kinPack(theta, p, s, d))
	if err != nil {
		return nil, err
	}
	return mat.NewVecDense(2, vals), nil
}

// Jacobian evaluates d(fk)/d(theta) at arc s, section offset d.
func (e *Evaluator) Jacobian(theta, p []float64, s, d float64) (*mat.Dense, error) {
	if err := e.checkTheta("jacobian", theta); err != nil {
		return nil, err
	}
	if err := checkParams(p); err != nil {
		return nil, err
	}
	vals, prog, err := e.run(cache.SlotJacobian, kinPack(theta, p, s, d))
	if err != nil {
		return nil, err
	}
	return mat.NewDense(prog.Rows(), prog.Cols(), vals), nil
}

// Gravity evaluates the gravity vector with gravity along the rest axis.
func (e *Evaluator) Gravity(theta, p []float64) (*mat.VecDense, error) {
	if err := e.checkTheta("gravity", theta); err != nil {
		return nil, err
	}
	if err := checkParams(p); err != nil {
		return nil, err
	}
	vals, _, err := e.run(cache.SlotGravity, pack(theta, p))
	if err != nil {
		return nil, err
	}
	return mat.NewVecDense(e.states, vals), nil
}

// GravityTilted evaluates the gravity vector with the gravity direction
// tilted by gamma in the bend plane.
func (e *Evaluator) GravityTilted(theta []float64, gamma float64, p []float64) (*mat.VecDense, error) {
	if err := e.checkTheta("gravity", theta); err != nil {
		return nil, err
	}
	if err := checkParams(p); err != nil {
		return nil, err
	}
	vals, _, err := e.run(cache.SlotGravityV, pack(theta, []float64{gamma}, p))
	if err != nil {
		return nil, err
	}
	return mat.NewVecDense(e.states, vals), nil
}

// Inertia evaluates the mass matrix.
func (e *Evaluator) Inertia(theta, p []float64) (*mat.Dense, error) {
	if err := e.checkTheta("inertia", theta); err != nil {
		return nil, err
	}
	if err := checkParams(p); err != nil {
		return nil, err
	}
	vals, _, err := e.run(cache.SlotInertia, pack(theta, p))
	if err != nil {
		return nil, err
	}
	return mat.NewDense(e.states, e.states, vals), nil
}

// Coriolis evaluates the Coriolis matrix at the given state and velocity.
func (e *Evaluator) Coriolis(theta, dtheta, p []float64) (*mat.Dense, error) {
	if err := e.checkTheta("coriolis", theta); err != nil {
		return nil, err
	}
	if err := e.checkTheta("coriolis velocity", dtheta); err != nil {
		return nil, err
	}
	if err := checkParams(p); err != nil {
		return nil, err
	}
	vals, _, err := e.run(cache.SlotCoriolis, pack(theta, dtheta, p))
	if err != nil {
		return nil, err
	}
	return mat.NewDense(e.states, e.states, vals), nil
}

// Torque assembles B*ddtheta + C*dtheta + G.
func (e *Evaluator) Torque(theta, dtheta, ddtheta, p []float64) (*mat.VecDense, error) {
	b, err := e.Inertia(theta, p)
	if err != nil {
		return nil, err
	}
	c, err := e.Coriolis(theta, dtheta, p)
	if err != nil {
		return nil, err
	}
	g, err := e.Gravity(theta, p)
	if err != nil {
		return nil, err
	}
	if err := e.checkTheta("torque acceleration", ddtheta); err != nil {
		return nil, err
	}

	out := mat.NewVecDense(e.states, nil)
	tmp := mat.NewVecDense(e.states, nil)
	out.MulVec(b, mat.NewVecDense(e.states, ddtheta))
	tmp.MulVec(c, mat.NewVecDense(e.states, dtheta))
	out.AddVec(out, tmp)
	out.AddVec(out, g)
	return out, nil
}

// Regressor evaluates Y = d(torque)/d[m_L, m_E]; torque = Y * [m_L, m_E]^T.
func (e *Evaluator) Regressor(theta, dtheta, ddtheta, p []float64) (*mat.Dense, error) {
	vals, prog, err := e.identRun(cache.SlotY, theta, dtheta, ddtheta, p)
	if err != nil {
		return nil, err
	}
	return mat.NewDense(prog.Rows(), prog.Cols(), vals), nil
}

// DEdmL evaluates d(torque)/d(m_L).
func (e *Evaluator) DEdmL(theta, dtheta, ddtheta, p []float64) (*mat.VecDense, error) {
	return e.identVec(cache.SlotDEdmL, theta, dtheta, ddtheta, p)
}

// EmL0 evaluates the torque with m_L set to zero.
func (e *Evaluator) EmL0(theta, dtheta, ddtheta, p []float64) (*mat.VecDense, error) {
	return e.identVec(cache.SlotEmL0, theta, dtheta, ddtheta, p)
}

// DEdmE evaluates d(torque)/d(m_E).
func (e *Evaluator) DEdmE(theta, dtheta, ddtheta, p []float64) (*mat.VecDense, error) {
	return e.identVec(cache.SlotDEdmE, theta, dtheta, ddtheta, p)
}

// EmE0 evaluates the torque with m_E set to zero.
func (e *Evaluator) EmE0(theta, dtheta, ddtheta, p []float64) (*mat.VecDense, error) {
	return e.identVec(cache.SlotEmE0, theta, dtheta, ddtheta, p)
}

func (e *Evaluator) identVec(slot string, theta, dtheta, ddtheta, p []float64) (*mat.VecDense, error) {
	vals, _, err := e.identRun(slot, theta, dtheta, ddtheta, p)
	if err != nil {
		return nil, err
	}
	return mat.NewVecDense(e.states, vals), nil
}

func (e *Evaluator) identRun(slot string, theta, dtheta, ddtheta, p []float64) ([]float64, *symbolic.Program, error) {
	if err := e.checkTheta("identification", theta); err != nil {
		return nil, nil, err
	}
	if err := e.checkTheta("identification velocity", dtheta); err != nil {
		return nil, nil, err
	}
	if err := e.checkTheta("identification acceleration", ddtheta); err != nil {
		return nil, nil, err
	}
	if err := checkParams(p); err != nil {
		return nil, nil, err
	}
	return e.run(slot, pack(theta, dtheta, ddtheta, p))
}

func pack(parts ...[]float64) []float64 {
	out := []float64{}
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

func kinPack(theta, p []float64, s, d float64) []float64 {
	return append(pack(theta, p), s, d)
}
