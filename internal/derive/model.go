package derive

import (
	"github.com/moss-coleman/acdlo/internal/symbolic"
)

// Alpha is the bend angle at arc coordinate v: the polynomial curvature
// field integrated once, with the states as weighted coefficients,
// alpha(v) = sum_k theta_k v^k / k!.
func (e *Engine) Alpha(v symbolic.Expr) symbolic.Expr {
	terms := make([]symbolic.Expr, e.numStates())
	fact := int64(1)
	for k := 0; k < e.numStates(); k++ {
		if k > 0 {
			fact *= int64(k)
		}
		terms[k] = symbolic.MulOf(
			symbolic.F(1, fact),
			symbolic.S(thetaName(k)),
			symbolic.PowOf(v, symbolic.N(int64(k))),
		)
	}
	return symbolic.AddOf(terms...)
}

// Kinematics derives the planar position of a cross-section point: the
// backbone curve at arc s plus the rotated in-plane offset D*d. The
// backbone integrals close over Fresnel functions for order two; the
// result keeps s and d free.
func (e *Engine) Kinematics() (*symbolic.Matrix, error) {
	alpha := e.Alpha(symbolic.S(symIntVar))

	sinInt, err := symbolic.Integrate(
		symbolic.SinOf(alpha), symIntVar, symbolic.N(0), symbolic.S(symArc))
	if err != nil {
		return nil, err
	}
	cosInt, err := symbolic.Integrate(
		symbolic.CosOf(alpha), symIntVar, symbolic.N(0), symbolic.S(symArc))
	if err != nil {
		return nil, err
	}

	length := symbolic.S(symLength)
	offset := symbolic.MulOf(symbolic.S(symDiameter), symbolic.S(symSection))
	alphaS := e.Alpha(symbolic.S(symArc))

	x := symbolic.AddOf(
		symbolic.Neg(symbolic.MulOf(length, sinInt)),
		symbolic.MulOf(offset, symbolic.CosOf(alphaS)),
	)
	z := symbolic.AddOf(
		symbolic.Neg(symbolic.MulOf(length, cosInt)),
		symbolic.Neg(symbolic.MulOf(offset, symbolic.SinOf(alphaS))),
	)
	return symbolic.ColVec(
		symbolic.NormalizeRoots(x),
		symbolic.NormalizeRoots(z),
	), nil
}

// Jacobian differentiates the kinematics by the states; s and d stay free.
func (e *Engine) Jacobian(fk *symbolic.Matrix) *symbolic.Matrix {
	return fk.Jacobian(e.thetaNames())
}

// Gravity derives the gravity vector. The potential sums the end mass at
// the tip and the lumped body masses at their arc positions, each averaged
// over the cross-section; gamma tilts the gravity direction in the bend
// plane. The fixed-direction G substitutes gamma = 0.
func (e *Engine) Gravity(fk *symbolic.Matrix) (g, gv *symbolic.Matrix, err error) {
	gamma := symbolic.S(symGamma)

	pointPotential := func(sv symbolic.Expr) (symbolic.Expr, error) {
		x := fk.Get(0, 0).Sub(symArc, sv)
		z := fk.Get(1, 0).Sub(symArc, sv)
		height := symbolic.AddOf(
			symbolic.MulOf(symbolic.SinOf(gamma), x),
			symbolic.MulOf(symbolic.CosOf(gamma), z),
		)
		return symbolic.Integrate(height, symSection, symbolic.F(-1, 2), symbolic.F(1, 2))
	}

	tip, err := pointPotential(symbolic.N(1))
	if err != nil {
		return nil, nil, err
	}
	terms := []symbolic.Expr{symbolic.MulOf(symbolic.S(symMassEnd), tip)}

	share := symbolic.F(1, int64(e.cfg.NumMasses))
	for _, sv := range e.massPositions() {
		u, err := pointPotential(sv)
		if err != nil {
			return nil, nil, err
		}
		terms = append(terms, symbolic.MulOf(share, symbolic.S(symMassLength), u))
	}
	potential := symbolic.AddOf(terms...)

	// 9.81 m/s^2 as an exact rational
	accel := symbolic.F(981, 100)
	entries := make([]symbolic.Expr, e.numStates())
	for k, name := range e.thetaNames() {
		entries[k] = symbolic.MulOf(accel, potential.Diff(name))
	}
	gv = symbolic.ColVec(entries...)
	g = gv.ApplySub(symGamma, symbolic.N(0))
	return g, gv, nil
}

// Inertia derives the mass matrix: J^T J of each point mass, averaged over
// the cross-section and weighted by its mass.
func (e *Engine) Inertia(fk *symbolic.Matrix) (*symbolic.Matrix, error) {
	pointInertia := func(sv symbolic.Expr) (*symbolic.Matrix, error) {
		jac := fk.ApplySub(symArc, sv).Jacobian(e.thetaNames())
		jtj := jac.Transpose().MatMul(jac)
		return jtj.IntegrateEntries(symSection, symbolic.F(-1, 2), symbolic.F(1, 2))
	}

	tip, err := pointInertia(symbolic.N(1))
	if err != nil {
		return nil, err
	}
	b := tip.Scale(symbolic.S(symMassEnd))

	share := symbolic.MulOf(symbolic.F(1, int64(e.cfg.NumMasses)), symbolic.S(symMassLength))
	for _, sv := range e.massPositions() {
		bi, err := pointInertia(sv)
		if err != nil {
			return nil, err
		}
		b = b.MatAdd(bi.Scale(share))
	}
	return b, nil
}

// Coriolis derives the Coriolis matrix from the inertia matrix via the
// Christoffel symbols of the first kind, so that Bdot - 2C stays
// skew-symmetric.
func (e *Engine) Coriolis(b *symbolic.Matrix) *symbolic.Matrix {
	n := e.numStates()
	half := symbolic.F(1, 2)
	c := symbolic.NewMatrix(n, n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			terms := make([]symbolic.Expr, n)
			for k := 0; k < n; k++ {
				christoffel := symbolic.MulOf(half, symbolic.AddOf(
					b.Get(i, j).Diff(thetaName(k)),
					b.Get(i, k).Diff(thetaName(j)),
					symbolic.Neg(b.Get(j, k).Diff(thetaName(i))),
				))
				terms[k] = symbolic.MulOf(christoffel, symbolic.S(dthetaName(k)))
			}
			c.Set(i, j, symbolic.AddOf(terms...))
		}
	}
	return c
}

// IdentificationSet holds the regressors for estimating the two masses
// from torque measurements.
type IdentificationSet struct {
	// Y is d(torque)/d[m_L, m_E]; torque is linear in the masses, so
	// torque = Y * [m_L, m_E]^T.
	Y *symbolic.Matrix
	// Per-mass splits: torque = dE_dm * m + E_m_0.
	DEdmL, EmL0 *symbolic.Matrix
	DEdmE, EmE0 *symbolic.Matrix
}

// Identification derives the regressors from the assembled torque
// E = B*ddtheta + C*dtheta + G.
func (e *Engine) Identification(b, c, g *symbolic.Matrix) *IdentificationSet {
	n := e.numStates()
	dtheta := symbolic.NewMatrix(n, 1)
	ddtheta := symbolic.NewMatrix(n, 1)
	for k := 0; k < n; k++ {
		dtheta.Set(k, 0, symbolic.S(dthetaName(k)))
		ddtheta.Set(k, 0, symbolic.S(ddthetaName(k)))
	}

	torque := b.MatMul(ddtheta).MatAdd(c.MatMul(dtheta)).MatAdd(g)

	y := symbolic.NewMatrix(n, 2)
	for i := 0; i < n; i++ {
		y.Set(i, 0, torque.Get(i, 0).Diff(symMassLength))
		y.Set(i, 1, torque.Get(i, 0).Diff(symMassEnd))
	}

	return &IdentificationSet{
		Y:     y,
		DEdmL: torque.ApplyDiff(symMassLength),
		EmL0:  torque.ApplySub(symMassLength, symbolic.N(0)),
		DEdmE: torque.ApplyDiff(symMassEnd),
		EmE0:  torque.ApplySub(symMassEnd, symbolic.N(0)),
	}
}
