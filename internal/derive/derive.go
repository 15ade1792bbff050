// Package derive builds the symbolic model of a polynomial-curvature
// appendage: forward kinematics, Jacobian, gravity, inertia, Coriolis, and
// the mass-identification regressors. The derivation is slow and runs once;
// its outputs are cached and evaluated numerically elsewhere.
package derive

import (
	"fmt"
	"time"

	"github.com/moss-coleman/acdlo/internal/cache"
	"github.com/moss-coleman/acdlo/internal/symbolic"
)

// Symbol names shared by every derived artifact. The normalized arc
// coordinate s and cross-section coordinate d both live in model units:
// s in [0,1] along the backbone, d in [-1/2,1/2] across it.
const (
	symMassLength = "m_L"
	symMassEnd    = "m_E"
	symLength     = "L"
	symDiameter   = "D"
	symGamma      = "gamma"
	symArc        = "s"
	symSection    = "d"
	symIntVar     = "v"
)

func thetaName(k int) string   { return fmt.Sprintf("theta_%d", k) }
func dthetaName(k int) string  { return fmt.Sprintf("dtheta_%d", k) }
func ddthetaName(k int) string { return fmt.Sprintf("ddtheta_%d", k) }

type Config struct {
	// PolyOrder is the curvature polynomial order; states are its 0..order
	// coefficients. Orders above two have no closed-form integrals.
	PolyOrder int
	// NumMasses is the number of lumped masses standing in for the
	// distributed body mass.
	NumMasses int
}

func (c Config) validate() error {
	if c.PolyOrder < 0 || c.PolyOrder > 2 {
		return fmt.Errorf("derive: polynomial order %d out of range [0,2]", c.PolyOrder)
	}
	if c.NumMasses < 1 {
		return fmt.Errorf("derive: need at least one lumped mass, got %d", c.NumMasses)
	}
	return nil
}

type Engine struct {
	cfg Config
}

func New(cfg Config) (*Engine, error) {
	if cfg.NumMasses == 0 {
		cfg.NumMasses = 6
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &Engine{cfg: cfg}, nil
}

func (e *Engine) Config() Config { return e.cfg }

// numStates is the configuration dimension, polynomial order + 1.
func (e *Engine) numStates() int { return e.cfg.PolyOrder + 1 }

func (e *Engine) thetaNames() []string {
	out := make([]string, e.numStates())
	for k := range out {
		out[k] = thetaName(k)
	}
	return out
}

func (e *Engine) dthetaNames() []string {
	out := make([]string, e.numStates())
	for k := range out {
		out[k] = dthetaName(k)
	}
	return out
}

func (e *Engine) ddthetaNames() []string {
	out := make([]string, e.numStates())
	for k := range out {
		out[k] = ddthetaName(k)
	}
	return out
}

func paramNames() []string {
	return []string{symMassLength, symMassEnd, symLength, symDiameter}
}

// Argument layouts for the cached artifacts. The evaluation layer packs
// its inputs in exactly these orders.
func (e *Engine) kinSyms() []string {
	return concat(e.thetaNames(), paramNames(), []string{symArc, symSection})
}

func (e *Engine) gravSyms() []string {
	return concat(e.thetaNames(), paramNames())
}

func (e *Engine) gravVarSyms() []string {
	return concat(e.thetaNames(), []string{symGamma}, paramNames())
}

func (e *Engine) corSyms() []string {
	return concat(e.thetaNames(), e.dthetaNames(), paramNames())
}

func (e *Engine) idSyms() []string {
	return concat(e.thetaNames(), e.dthetaNames(), e.ddthetaNames(), paramNames())
}

func concat(parts ...[]string) []string {
	out := []string{}
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

// massPositions returns the arc positions of the lumped masses, centered in
// n equal segments: (2i+1)/(2n).
func (e *Engine) massPositions() []symbolic.Expr {
	n := int64(e.cfg.NumMasses)
	out := make([]symbolic.Expr, n)
	for i := int64(0); i < n; i++ {
		out[i] = symbolic.F(2*i+1, 2*n)
	}
	return out
}

// Run derives the full model and writes it into the store.
func (e *Engine) Run(store *cache.Store) error {
	fmt.Printf("deriving model (order %d, %d masses)...\n", e.cfg.PolyOrder, e.cfg.NumMasses)
	total := time.Now()

	start := time.Now()
	fk, err := e.Kinematics()
	if err != nil {
		return err
	}
	jac := e.Jacobian(fk)
	fmt.Printf("  kinematics: %v\n", time.Since(start))

	start = time.Now()
	g, gv, err := e.Gravity(fk)
	if err != nil {
		return err
	}
	fmt.Printf("  gravity: %v\n", time.Since(start))

	start = time.Now()
	b, err := e.Inertia(fk)
	if err != nil {
		return err
	}
	fmt.Printf("  inertia: %v\n", time.Since(start))

	start = time.Now()
	cor := e.Coriolis(b)
	fmt.Printf("  coriolis: %v\n", time.Since(start))

	start = time.Now()
	id := e.Identification(b, cor, g)
	fmt.Printf("  identification: %v\n", time.Since(start))

	artifacts := []cache.Artifact{
		{Name: cache.SlotFK, Syms: e.kinSyms(), Matrix: fk},
		{Name: cache.SlotJacobian, Syms: e.kinSyms(), Matrix: jac},
		{Name: cache.SlotGravity, Syms: e.gravSyms(), Matrix: g},
		{Name: cache.SlotGravityV, Syms: e.gravVarSyms(), Matrix: gv},
		{Name: cache.SlotInertia, Syms: e.gravSyms(), Matrix: b},
		{Name: cache.SlotCoriolis, Syms: e.corSyms(), Matrix: cor},
		{Name: cache.SlotY, Syms: e.idSyms(), Matrix: id.Y},
		{Name: cache.SlotDEdmL, Syms: e.idSyms(), Matrix: id.DEdmL},
		{Name: cache.SlotEmL0, Syms: e.idSyms(), Matrix: id.EmL0},
		{Name: cache.SlotDEdmE, Syms: e.idSyms(), Matrix: id.DEdmE},
		{Name: cache.SlotEmE0, Syms: e.idSyms(), Matrix: id.EmE0},
	}
	if err := store.Save(e.cfg.PolyOrder, e.cfg.NumMasses, artifacts); err != nil {
		return err
	}

	fmt.Printf("completed in %v, cache at %s\n", time.Since(total), store.Dir())
	return nil
}
