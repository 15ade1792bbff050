package symbolic

import (
	"fmt"
	"strings"
)

// Func is a unary elementary function application.
type Func struct {
	name string
	arg  Expr
}

func SinOf(arg Expr) Expr      { return (&Func{name: "sin", arg: arg}).Simplify() }
func CosOf(arg Expr) Expr      { return (&Func{name: "cos", arg: arg}).Simplify() }
func LnOf(arg Expr) Expr       { return (&Func{name: "ln", arg: arg}).Simplify() }
func FresnelS(arg Expr) Expr   { return (&Func{name: "fresnels", arg: arg}).Simplify() }
func FresnelC(arg Expr) Expr   { return (&Func{name: "fresnelc", arg: arg}).Simplify() }
func (f *Func) FuncName() string { return f.name }
func (f *Func) Arg() Expr        { return f.arg }

// isOdd reports odd symmetry (f(-x) = -f(x)); cos is the only even one here.
func isOdd(name string) bool {
	switch name {
	case "sin", "fresnels", "fresnelc":
		return true
	}
	return false
}

func (f *Func) Simplify() Expr {
	arg := f.arg.Simplify()

	if n, ok := arg.(*Num); ok && n.IsZero() {
		switch f.name {
		case "sin", "fresnels", "fresnelc":
			return N(0)
		case "cos":
			return N(1)
		}
	}
	if n, ok := arg.(*Num); ok && n.IsOne() && f.name == "ln" {
		return N(0)
	}

	// Normalize sign: sin(-x) -> -sin(x), cos(-x) -> cos(x). Keeps trees
	// canonical so the compiler can share subexpressions.
	if c, base := splitCoeff(arg); c.IsNegative() {
		inner := mulCoeff(numNeg(c), base).Simplify()
		switch {
		case isOdd(f.name):
			return Neg(&Func{name: f.name, arg: inner})
		case f.name == "cos":
			return &Func{name: "cos", arg: inner}
		}
	}

	return &Func{name: f.name, arg: arg}
}

func (f *Func) Sub(name string, value Expr) Expr {
	return (&Func{name: f.name, arg: f.arg.Sub(name, value)}).Simplify()
}

func (f *Func) Diff(name string) Expr {
	inner := f.arg.Diff(name)
	var outer Expr
	switch f.name {
	case "sin":
		outer = CosOf(f.arg)
	case "cos":
		outer = Neg(SinOf(f.arg))
	case "ln":
		outer = PowOf(f.arg, N(-1))
	case "fresnels":
		// d/dz fresnels(z) = sin(pi z^2 / 2)
		outer = SinOf(MulOf(F(1, 2), Pi, PowOf(f.arg, N(2))))
	case "fresnelc":
		outer = CosOf(MulOf(F(1, 2), Pi, PowOf(f.arg, N(2))))
	default:
		panic(fmt.Sprintf("symbolic: no derivative rule for %s", f.name))
	}
	return MulOf(outer, inner)
}

func (f *Func) Eval() (*Num, bool) { return nil, false }

func (f *Func) Equal(other Expr) bool {
	o, ok := other.(*Func)
	return ok && f.name == o.name && f.arg.Equal(o.arg)
}

func (f *Func) String() string {
	return fmt.Sprintf("%s(%s)", f.name, f.arg)
}

// ============================================================
// Piecewise
// ============================================================

// Case is one branch of a Piecewise expression. The branch applies when
// Cond evaluates to a nonzero value; a nil Cond is the fallthrough branch.
type Case struct {
	Cond Expr
	Val  Expr
}

// Piecewise selects the first case whose condition is nonzero. It mirrors
// the degenerate-branch structure analytic integration produces (e.g. a
// Fresnel form guarded by the quadratic coefficient being nonzero).
type Piecewise struct {
	cases []Case
}

func PiecewiseOf(cases ...Case) Expr {
	return (&Piecewise{cases: cases}).Simplify()
}

func (p *Piecewise) Cases() []Case { return p.cases }

func (p *Piecewise) Simplify() Expr {
	out := make([]Case, 0, len(p.cases))
	for _, c := range p.cases {
		val := c.Val.Simplify()
		if c.Cond == nil {
			out = append(out, Case{Val: val})
			break
		}
		cond := c.Cond.Simplify()
		if n, ok := cond.(*Num); ok {
			if n.IsZero() {
				continue // branch can never apply
			}
			out = append(out, Case{Val: val}) // branch always applies
			break
		}
		out = append(out, Case{Cond: cond, Val: val})
	}
	if len(out) == 0 {
		return N(0)
	}
	if len(out) == 1 && out[0].Cond == nil {
		return out[0].Val
	}
	return &Piecewise{cases: out}
}

func (p *Piecewise) Sub(name string, value Expr) Expr {
	out := make([]Case, len(p.cases))
	for i, c := range p.cases {
		out[i] = Case{Val: c.Val.Sub(name, value)}
		if c.Cond != nil {
			out[i].Cond = c.Cond.Sub(name, value)
		}
	}
	return PiecewiseOf(out...)
}

// Diff differentiates branchwise; values on the (measure-zero) branch
// boundaries follow the selected branch, as in the reference derivation.
func (p *Piecewise) Diff(name string) Expr {
	out := make([]Case, len(p.cases))
	for i, c := range p.cases {
		out[i] = Case{Cond: c.Cond, Val: c.Val.Diff(name)}
	}
	return PiecewiseOf(out...)
}

func (p *Piecewise) Eval() (*Num, bool) {
	for _, c := range p.cases {
		if c.Cond == nil {
			return c.Val.Eval()
		}
		cv, ok := c.Cond.Eval()
		if !ok {
			return nil, false
		}
		if !cv.IsZero() {
			return c.Val.Eval()
		}
	}
	return nil, false
}

func (p *Piecewise) Equal(other Expr) bool {
	o, ok := other.(*Piecewise)
	return ok && p.String() == o.String()
}

func (p *Piecewise) String() string {
	parts := make([]string, len(p.cases))
	for i, c := range p.cases {
		if c.Cond == nil {
			parts[i] = fmt.Sprintf("(%s, otherwise)", c.Val)
		} else {
			parts[i] = fmt.Sprintf("(%s, %s != 0)", c.Val, c.Cond)
		}
	}
	return "Piecewise(" + strings.Join(parts, ", ") + ")"
}
