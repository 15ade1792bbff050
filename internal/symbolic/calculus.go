package symbolic

import (
	"errors"
	"fmt"
)

// ErrUnsupportedIntegrand reports an integrand outside the closed-form
// families the kernel knows (polynomials, sin/cos of degree<=2 arguments).
var ErrUnsupportedIntegrand = errors.New("symbolic: unsupported integrand")

// DependsOn reports whether the named symbol occurs free in e.
func DependsOn(e Expr, name string) bool {
	switch t := e.(type) {
	case *Num, *Const:
		return false
	case *Sym:
		return t.name == name
	case *Add:
		for _, x := range t.terms {
			if DependsOn(x, name) {
				return true
			}
		}
	case *Mul:
		for _, x := range t.factors {
			if DependsOn(x, name) {
				return true
			}
		}
	case *Pow:
		return DependsOn(t.base, name) || DependsOn(t.exp, name)
	case *Func:
		return DependsOn(t.arg, name)
	case *Piecewise:
		for _, c := range t.cases {
			if c.Cond != nil && DependsOn(c.Cond, name) {
				return true
			}
			if DependsOn(c.Val, name) {
				return true
			}
		}
	}
	return false
}

// FreeSymbols collects the free symbol names of e.
func FreeSymbols(e Expr) map[string]struct{} {
	out := map[string]struct{}{}
	collectSymbols(e, out)
	return out
}

func collectSymbols(e Expr, out map[string]struct{}) {
	switch t := e.(type) {
	case *Sym:
		out[t.name] = struct{}{}
	case *Add:
		for _, x := range t.terms {
			collectSymbols(x, out)
		}
	case *Mul:
		for _, x := range t.factors {
			collectSymbols(x, out)
		}
	case *Pow:
		collectSymbols(t.base, out)
		collectSymbols(t.exp, out)
	case *Func:
		collectSymbols(t.arg, out)
	case *Piecewise:
		for _, c := range t.cases {
			if c.Cond != nil {
				collectSymbols(c.Cond, out)
			}
			collectSymbols(c.Val, out)
		}
	}
}

// mapExpr rebuilds e bottom-up, applying fn to every node after its
// children have been rewritten.
func mapExpr(e Expr, fn func(Expr) Expr) Expr {
	var rebuilt Expr
	switch t := e.(type) {
	case *Add:
		terms := make([]Expr, len(t.terms))
		for i, x := range t.terms {
			terms[i] = mapExpr(x, fn)
		}
		rebuilt = AddOf(terms...)
	case *Mul:
		factors := make([]Expr, len(t.factors))
		for i, x := range t.factors {
			factors[i] = mapExpr(x, fn)
		}
		rebuilt = MulOf(factors...)
	case *Pow:
		rebuilt = PowOf(mapExpr(t.base, fn), mapExpr(t.exp, fn))
	case *Func:
		rebuilt = (&Func{name: t.name, arg: mapExpr(t.arg, fn)}).Simplify()
	case *Piecewise:
		cases := make([]Case, len(t.cases))
		for i, c := range t.cases {
			cases[i] = Case{Val: mapExpr(c.Val, fn)}
			if c.Cond != nil {
				cases[i].Cond = mapExpr(c.Cond, fn)
			}
		}
		rebuilt = PiecewiseOf(cases...)
	default:
		rebuilt = e
	}
	return fn(rebuilt)
}

// NormalizeRoots rewrites sqrt(1/x) factors into x^(-1/2). Under
// principal-branch numeric evaluation the two forms disagree in sign for
// negative x, and only the x^(-1/2) form reproduces the real value of the
// Fresnel-type integrals the derivation builds. The integrator already
// emits the normalized form; this pass guards against simplification
// reintroducing the other one.
func NormalizeRoots(e Expr) Expr {
	return mapExpr(e, func(x Expr) Expr {
		p, ok := x.(*Pow)
		if !ok {
			return x
		}
		en, ok := p.exp.(*Num)
		if !ok || en.String() != "1/2" {
			return x
		}
		inner, ok := p.base.(*Pow)
		if !ok {
			return x
		}
		in, ok := inner.exp.(*Num)
		if !ok || in.String() != "-1" {
			return x
		}
		return &Pow{base: inner.base, exp: F(-1, 2)}
	})
}

// polyCoeffs extracts the coefficients of e as a polynomial in v, lowest
// degree first. Coefficients must be free of v.
func polyCoeffs(e Expr, v string) ([]Expr, error) {
	if !DependsOn(e, v) {
		return []Expr{e}, nil
	}
	switch t := e.(type) {
	case *Sym:
		return []Expr{N(0), N(1)}, nil
	case *Add:
		out := []Expr{}
		for _, term := range t.terms {
			c, err := polyCoeffs(term, v)
			if err != nil {
				return nil, err
			}
			for len(out) < len(c) {
				out = append(out, N(0))
			}
			for i, x := range c {
				out[i] = AddOf(out[i], x)
			}
		}
		return out, nil
	case *Mul:
		out := []Expr{N(1)}
		for _, f := range t.factors {
			c, err := polyCoeffs(f, v)
			if err != nil {
				return nil, err
			}
			out = polyConv(out, c)
		}
		return out, nil
	case *Pow:
		en, ok := t.exp.(*Num)
		if !ok || !en.IsInteger() || en.IsNegative() || !en.val.Num().IsInt64() {
			return nil, fmt.Errorf("%w: %s not polynomial in %s", ErrUnsupportedIntegrand, e, v)
		}
		base, err := polyCoeffs(t.base, v)
		if err != nil {
			return nil, err
		}
		out := []Expr{N(1)}
		for k := en.val.Num().Int64(); k > 0; k-- {
			out = polyConv(out, base)
		}
		return out, nil
	}
	return nil, fmt.Errorf("%w: %s not polynomial in %s", ErrUnsupportedIntegrand, e, v)
}

func polyConv(a, b []Expr) []Expr {
	out := make([]Expr, len(a)+len(b)-1)
	for i := range out {
		out[i] = N(0)
	}
	for i, x := range a {
		for j, y := range b {
			out[i+j] = AddOf(out[i+j], MulOf(x, y))
		}
	}
	return out
}

// Integrate computes the definite integral of e over v in [lo, hi]
// analytically. Supported integrands: anything polynomial in v, sums and
// coefficient multiples of sin/cos whose argument is polynomial in v of
// degree at most two, and piecewise combinations thereof.
func Integrate(e Expr, v string, lo, hi Expr) (Expr, error) {
	anti, err := antiderivative(e.Simplify(), v)
	if err != nil {
		return nil, err
	}
	return SubOf(anti.Sub(v, hi), anti.Sub(v, lo)).Simplify(), nil
}

func antiderivative(e Expr, v string) (Expr, error) {
	if !DependsOn(e, v) {
		return MulOf(e, S(v)), nil
	}
	switch t := e.(type) {
	case *Add:
		out := make([]Expr, len(t.terms))
		for i, term := range t.terms {
			a, err := antiderivative(term, v)
			if err != nil {
				return nil, err
			}
			out[i] = a
		}
		return AddOf(out...), nil
	case *Piecewise:
		cases := make([]Case, len(t.cases))
		for i, c := range t.cases {
			if c.Cond != nil && DependsOn(c.Cond, v) {
				return nil, fmt.Errorf("%w: condition depends on %s", ErrUnsupportedIntegrand, v)
			}
			a, err := antiderivative(c.Val, v)
			if err != nil {
				return nil, err
			}
			cases[i] = Case{Cond: c.Cond, Val: a}
		}
		return PiecewiseOf(cases...), nil
	case *Mul:
		coeff := []Expr{}
		var dep Expr
		for _, f := range t.factors {
			if !DependsOn(f, v) {
				coeff = append(coeff, f)
				continue
			}
			if dep != nil {
				// v^n * trig(v) products do not occur in the model
				return polyAntiderivative(e, v)
			}
			dep = f
		}
		a, err := antiderivative(dep, v)
		if err != nil {
			return nil, err
		}
		return MulOf(append(coeff, a)...), nil
	case *Func:
		if t.name == "sin" || t.name == "cos" {
			return trigAntiderivative(t.name, t.arg, v)
		}
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedIntegrand, e)
	}
	return polyAntiderivative(e, v)
}

func polyAntiderivative(e Expr, v string) (Expr, error) {
	coeffs, err := polyCoeffs(e, v)
	if err != nil {
		return nil, err
	}
	terms := make([]Expr, 0, len(coeffs))
	for k, c := range coeffs {
		terms = append(terms, MulOf(F(1, int64(k+1)), c, PowOf(S(v), N(int64(k+1)))))
	}
	return AddOf(terms...), nil
}

// trigAntiderivative integrates sin/cos of a polynomial argument
// c + b v + a v^2. Degree-two arguments yield Fresnel closed forms; when
// the leading coefficients are symbolic, degenerate branches guard the
// divisions so the result stays finite as a or b vanish.
func trigAntiderivative(kind string, arg Expr, v string) (Expr, error) {
	coeffs, err := polyCoeffs(arg, v)
	if err != nil {
		return nil, err
	}
	if len(coeffs) > 3 {
		return nil, fmt.Errorf("%w: trig argument degree %d", ErrUnsupportedIntegrand, len(coeffs)-1)
	}
	var c, b, a Expr = N(0), N(0), N(0)
	if len(coeffs) > 0 {
		c = coeffs[0]
	}
	if len(coeffs) > 1 {
		b = coeffs[1]
	}
	if len(coeffs) > 2 {
		a = coeffs[2]
	}

	constForm := func() Expr {
		if kind == "sin" {
			return MulOf(SinOf(c), S(v))
		}
		return MulOf(CosOf(c), S(v))
	}
	linForm := func() Expr {
		phase := AddOf(c, MulOf(b, S(v)))
		if kind == "sin" {
			return Neg(DivOf(CosOf(phase), b))
		}
		return DivOf(SinOf(phase), b)
	}
	fresForm := func() Expr { return fresnelAntiderivative(kind, c, b, a, v) }

	an, aNum := a.(*Num)
	bn, bNum := b.(*Num)

	switch {
	case aNum && an.IsZero():
		if bNum {
			if bn.IsZero() {
				return constForm(), nil
			}
			return linForm(), nil
		}
		return PiecewiseOf(
			Case{Cond: b, Val: linForm()},
			Case{Val: constForm()},
		), nil
	case aNum: // a is a nonzero literal
		return fresForm(), nil
	case bNum && bn.IsZero():
		return PiecewiseOf(
			Case{Cond: a, Val: fresForm()},
			Case{Val: constForm()},
		), nil
	default:
		return PiecewiseOf(
			Case{Cond: a, Val: fresForm()},
			Case{Cond: b, Val: linForm()},
			Case{Val: constForm()},
		), nil
	}
}

// fresnelAntiderivative builds the a != 0 closed form of
// Int sin/cos(c + b v + a v^2) dv.
//
// The prefactor is written as a^(-1/2), not sqrt(1/a): with the principal
// branch and the fresnels(i y) = -i fresnels(y) reflection this choice
// yields the correct (real) integral for negative a as well, which is the
// normalization the rest of the pipeline relies on.
func fresnelAntiderivative(kind string, c, b, a Expr, v string) Expr {
	u := AddOf(S(v), MulOf(F(1, 2), b, PowOf(a, N(-1))))
	phi := SubOf(c, MulOf(F(1, 4), PowOf(b, N(2)), PowOf(a, N(-1))))
	// w = u * sqrt(2/pi) * sqrt(a)
	w := MulOf(PowOf(N(2), F(1, 2)), PowOf(Pi, F(-1, 2)), PowOf(a, F(1, 2)), u)
	// prefactor sqrt(pi/2) * a^(-1/2)
	pref := MulOf(PowOf(Pi, F(1, 2)), PowOf(N(2), F(-1, 2)), PowOf(a, F(-1, 2)))

	if kind == "sin" {
		return MulOf(pref, AddOf(
			MulOf(CosOf(phi), FresnelS(w)),
			MulOf(SinOf(phi), FresnelC(w)),
		))
	}
	return MulOf(pref, AddOf(
		MulOf(CosOf(phi), FresnelC(w)),
		Neg(MulOf(SinOf(phi), FresnelS(w))),
	))
}
