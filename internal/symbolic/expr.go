package symbolic

import (
	"fmt"
	"math/big"
	"sort"
	"strings"
)

// Expr is an immutable symbolic expression.
type Expr interface {
	// Simplify returns the canonical form of the expression.
	Simplify() Expr
	// Sub substitutes value for every occurrence of the named symbol.
	Sub(name string, value Expr) Expr
	// Diff differentiates with respect to the named symbol.
	Diff(name string) Expr
	// Eval attempts exact rational evaluation.
	Eval() (*Num, bool)
	Equal(other Expr) bool
	String() string
}

// ============================================================
// Num: exact rational
// ============================================================

type Num struct{ val *big.Rat }

func N(n int64) *Num { return &Num{val: new(big.Rat).SetInt64(n)} }

func F(p, q int64) *Num {
	if q == 0 {
		panic("symbolic: zero denominator")
	}
	return &Num{val: new(big.Rat).SetFrac(big.NewInt(p), big.NewInt(q))}
}

func FromFloat(f float64) *Num { return &Num{val: new(big.Rat).SetFloat64(f)} }

func (n *Num) Simplify() Expr        { return n }
func (n *Num) Sub(string, Expr) Expr { return n }
func (n *Num) Diff(string) Expr      { return N(0) }
func (n *Num) Eval() (*Num, bool)    { return n, true }
func (n *Num) Equal(other Expr) bool { o, ok := other.(*Num); return ok && n.val.Cmp(o.val) == 0 }
func (n *Num) Float64() float64      { f, _ := n.val.Float64(); return f }
func (n *Num) Rat() *big.Rat         { return new(big.Rat).Set(n.val) }
func (n *Num) IsZero() bool          { return n.val.Sign() == 0 }
func (n *Num) IsOne() bool           { return n.val.Cmp(ratOne) == 0 }
func (n *Num) IsNegative() bool      { return n.val.Sign() < 0 }
func (n *Num) IsInteger() bool       { return n.val.IsInt() }

func (n *Num) String() string {
	if n.val.IsInt() {
		return n.val.Num().String()
	}
	return n.val.RatString()
}

var ratOne = big.NewRat(1, 1)

func numAdd(a, b *Num) *Num { return &Num{val: new(big.Rat).Add(a.val, b.val)} }
func numMul(a, b *Num) *Num { return &Num{val: new(big.Rat).Mul(a.val, b.val)} }
func numNeg(a *Num) *Num    { return &Num{val: new(big.Rat).Neg(a.val)} }
func numInv(a *Num) *Num {
	if a.IsZero() {
		panic("symbolic: division by zero")
	}
	return &Num{val: new(big.Rat).Inv(a.val)}
}

// numPowInt raises a to an integer power by exact rational arithmetic.
func numPowInt(a *Num, k int64) *Num {
	if k < 0 {
		return numPowInt(numInv(a), -k)
	}
	r := new(big.Rat).SetInt64(1)
	base := new(big.Rat).Set(a.val)
	for ; k > 0; k-- {
		r.Mul(r, base)
	}
	return &Num{val: r}
}

// ============================================================
// Sym: free variable
// ============================================================

type Sym struct{ name string }

func S(name string) *Sym { return &Sym{name: name} }

func (s *Sym) Simplify() Expr { return s }
func (s *Sym) Name() string   { return s.name }
func (s *Sym) String() string { return s.name }
func (s *Sym) Sub(name string, value Expr) Expr {
	if s.name == name {
		return value
	}
	return s
}
func (s *Sym) Diff(name string) Expr {
	if s.name == name {
		return N(1)
	}
	return N(0)
}
func (s *Sym) Eval() (*Num, bool)    { return nil, false }
func (s *Sym) Equal(other Expr) bool { o, ok := other.(*Sym); return ok && s.name == o.name }

// ============================================================
// Const: named transcendental constant
// ============================================================

type Const struct {
	name  string
	value float64
}

// Pi is the only constant the model needs (Fresnel closed forms).
var Pi = &Const{name: "pi", value: 3.14159265358979323846264338327950288}

func (c *Const) Simplify() Expr        { return c }
func (c *Const) Sub(string, Expr) Expr { return c }
func (c *Const) Diff(string) Expr      { return N(0) }
func (c *Const) Eval() (*Num, bool)    { return nil, false }
func (c *Const) String() string        { return c.name }
func (c *Const) Float64() float64      { return c.value }
func (c *Const) Equal(other Expr) bool {
	o, ok := other.(*Const)
	return ok && c.name == o.name
}

// ============================================================
// Add: n-ary sum
// ============================================================

type Add struct{ terms []Expr }

func AddOf(terms ...Expr) Expr { return (&Add{terms: terms}).Simplify() }

func SubOf(a, b Expr) Expr { return AddOf(a, Neg(b)) }

func Neg(e Expr) Expr { return MulOf(N(-1), e) }

func (a *Add) Terms() []Expr { return a.terms }

func (a *Add) Simplify() Expr {
	flat := make([]Expr, 0, len(a.terms))
	for _, t := range a.terms {
		switch s := t.Simplify().(type) {
		case *Add:
			flat = append(flat, s.terms...)
		default:
			flat = append(flat, s)
		}
	}

	acc := N(0)
	type group struct {
		coeff *Num
		base  Expr
	}
	groups := map[string]*group{}
	for _, t := range flat {
		if n, ok := t.(*Num); ok {
			acc = numAdd(acc, n)
			continue
		}
		c, base := splitCoeff(t)
		key := base.String()
		if g, seen := groups[key]; seen {
			g.coeff = numAdd(g.coeff, c)
		} else {
			groups[key] = &group{coeff: c, base: base}
		}
	}

	keys := make([]string, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	result := make([]Expr, 0, len(keys)+1)
	for _, k := range keys {
		g := groups[k]
		if g.coeff.IsZero() {
			continue
		}
		if g.coeff.IsOne() {
			result = append(result, g.base)
		} else {
			result = append(result, mulCoeff(g.coeff, g.base))
		}
	}
	if !acc.IsZero() {
		result = append(result, acc)
	}

	switch len(result) {
	case 0:
		return N(0)
	case 1:
		return result[0]
	}
	return &Add{terms: result}
}

// splitCoeff factors a term into a rational coefficient and the remaining base.
func splitCoeff(e Expr) (*Num, Expr) {
	m, ok := e.(*Mul)
	if !ok || len(m.factors) == 0 {
		return N(1), e
	}
	n, ok := m.factors[0].(*Num)
	if !ok {
		return N(1), e
	}
	rest := m.factors[1:]
	if len(rest) == 1 {
		return n, rest[0]
	}
	return n, &Mul{factors: rest}
}

// mulCoeff rebuilds coeff*base without re-running full simplification.
func mulCoeff(c *Num, base Expr) Expr {
	if m, ok := base.(*Mul); ok {
		factors := append([]Expr{c}, m.factors...)
		return &Mul{factors: factors}
	}
	return &Mul{factors: []Expr{c, base}}
}

func (a *Add) Sub(name string, value Expr) Expr {
	out := make([]Expr, len(a.terms))
	for i, t := range a.terms {
		out[i] = t.Sub(name, value)
	}
	return AddOf(out...)
}

func (a *Add) Diff(name string) Expr {
	out := make([]Expr, len(a.terms))
	for i, t := range a.terms {
		out[i] = t.Diff(name)
	}
	return AddOf(out...)
}

func (a *Add) Eval() (*Num, bool) {
	acc := N(0)
	for _, t := range a.terms {
		v, ok := t.Eval()
		if !ok {
			return nil, false
		}
		acc = numAdd(acc, v)
	}
	return acc, true
}

func (a *Add) Equal(other Expr) bool {
	o, ok := other.(*Add)
	return ok && a.String() == o.String()
}

func (a *Add) String() string {
	parts := make([]string, len(a.terms))
	for i, t := range a.terms {
		parts[i] = t.String()
	}
	return "(" + strings.Join(parts, " + ") + ")"
}

// ============================================================
// Mul: n-ary product
// ============================================================

type Mul struct{ factors []Expr }

func MulOf(factors ...Expr) Expr { return (&Mul{factors: factors}).Simplify() }

func DivOf(a, b Expr) Expr { return MulOf(a, PowOf(b, N(-1))) }

func (m *Mul) Factors() []Expr { return m.factors }

func (m *Mul) Simplify() Expr {
	flat := make([]Expr, 0, len(m.factors))
	for _, f := range m.factors {
		switch s := f.Simplify().(type) {
		case *Mul:
			flat = append(flat, s.factors...)
		default:
			flat = append(flat, s)
		}
	}

	acc := N(1)
	type group struct {
		base Expr
		exps []Expr
	}
	groups := map[string]*group{}
	order := []string{}
	for _, f := range flat {
		if n, ok := f.(*Num); ok {
			if n.IsZero() {
				return N(0)
			}
			acc = numMul(acc, n)
			continue
		}
		base, exp := asPow(f)
		key := base.String()
		if g, seen := groups[key]; seen {
			g.exps = append(g.exps, exp)
		} else {
			groups[key] = &group{base: base, exps: []Expr{exp}}
			order = append(order, key)
		}
	}

	sort.Strings(order)
	result := make([]Expr, 0, len(order)+1)
	for _, k := range order {
		g := groups[k]
		var f Expr
		if len(g.exps) == 1 {
			if n, ok := g.exps[0].(*Num); ok && n.IsOne() {
				f = g.base
			} else {
				f = PowOf(g.base, g.exps[0])
			}
		} else {
			f = PowOf(g.base, AddOf(g.exps...))
		}
		if n, ok := f.(*Num); ok {
			if n.IsZero() {
				return N(0)
			}
			acc = numMul(acc, n)
			continue
		}
		result = append(result, f)
	}

	if len(result) == 0 {
		return acc
	}
	if acc.IsZero() {
		return N(0)
	}
	if !acc.IsOne() {
		result = append([]Expr{acc}, result...)
	}
	if len(result) == 1 {
		return result[0]
	}
	return &Mul{factors: result}
}

// asPow views a factor as base^exp.
func asPow(e Expr) (Expr, Expr) {
	if p, ok := e.(*Pow); ok {
		return p.base, p.exp
	}
	return e, N(1)
}

func (m *Mul) Sub(name string, value Expr) Expr {
	out := make([]Expr, len(m.factors))
	for i, f := range m.factors {
		out[i] = f.Sub(name, value)
	}
	return MulOf(out...)
}

// Diff applies the product rule.
func (m *Mul) Diff(name string) Expr {
	terms := make([]Expr, 0, len(m.factors))
	for i := range m.factors {
		parts := make([]Expr, 0, len(m.factors))
		for j, f := range m.factors {
			if i == j {
				parts = append(parts, f.Diff(name))
			} else {
				parts = append(parts, f)
			}
		}
		terms = append(terms, MulOf(parts...))
	}
	return AddOf(terms...)
}

func (m *Mul) Eval() (*Num, bool) {
	acc := N(1)
	for _, f := range m.factors {
		v, ok := f.Eval()
		if !ok {
			return nil, false
		}
		acc = numMul(acc, v)
	}
	return acc, true
}

func (m *Mul) Equal(other Expr) bool {
	o, ok := other.(*Mul)
	return ok && m.String() == o.String()
}

func (m *Mul) String() string {
	parts := make([]string, len(m.factors))
	for i, f := range m.factors {
		parts[i] = f.String()
	}
	return "(" + strings.Join(parts, " * ") + ")"
}

// ============================================================
// Pow
// ============================================================

type Pow struct{ base, exp Expr }

func PowOf(base, exp Expr) Expr { return (&Pow{base: base, exp: exp}).Simplify() }

func SqrtOf(e Expr) Expr { return PowOf(e, F(1, 2)) }

func (p *Pow) Base() Expr { return p.base }
func (p *Pow) Exp() Expr  { return p.exp }

func (p *Pow) Simplify() Expr {
	base := p.base.Simplify()
	exp := p.exp.Simplify()

	if en, ok := exp.(*Num); ok {
		if en.IsZero() {
			return N(1)
		}
		if en.IsOne() {
			return base
		}
		if bn, ok := base.(*Num); ok {
			if bn.IsZero() {
				if !en.IsNegative() {
					return N(0)
				}
			} else if en.IsInteger() && en.val.Num().IsInt64() {
				return numPowInt(bn, en.val.Num().Int64())
			}
		}
		// (x^a)^k with integer k is branch-safe to merge.
		if inner, ok := base.(*Pow); ok && en.IsInteger() {
			return PowOf(inner.base, MulOf(inner.exp, en))
		}
	}
	if bn, ok := base.(*Num); ok && bn.IsOne() {
		return N(1)
	}
	return &Pow{base: base, exp: exp}
}

func (p *Pow) Sub(name string, value Expr) Expr {
	return PowOf(p.base.Sub(name, value), p.exp.Sub(name, value))
}

// Diff handles both constant and variable exponents; the model only ever
// produces rational exponents so the logarithmic branch is rarely taken.
func (p *Pow) Diff(name string) Expr {
	if !DependsOn(p.exp, name) {
		return MulOf(
			p.exp,
			PowOf(p.base, SubOf(p.exp, N(1))),
			p.base.Diff(name),
		)
	}
	if !DependsOn(p.base, name) {
		return MulOf(p, LnOf(p.base), p.exp.Diff(name))
	}
	return MulOf(p, AddOf(
		MulOf(p.exp.Diff(name), LnOf(p.base)),
		MulOf(p.exp, DivOf(p.base.Diff(name), p.base)),
	))
}

func (p *Pow) Eval() (*Num, bool) {
	b, ok := p.base.Eval()
	if !ok {
		return nil, false
	}
	e, ok := p.exp.Eval()
	if !ok || !e.IsInteger() || !e.val.Num().IsInt64() {
		return nil, false
	}
	if b.IsZero() && e.IsNegative() {
		return nil, false
	}
	return numPowInt(b, e.val.Num().Int64()), true
}

func (p *Pow) Equal(other Expr) bool {
	o, ok := other.(*Pow)
	return ok && p.base.Equal(o.base) && p.exp.Equal(o.exp)
}

func (p *Pow) String() string {
	return fmt.Sprintf("(%s ^ %s)", p.base, p.exp)
}
