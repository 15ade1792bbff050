package symbolic

import (
	"math"
	"sort"
	"testing"
)

// evalAt numerically evaluates a scalar expression via the compiled path.
func evalAt(t *testing.T, e Expr, env map[string]float64) float64 {
	t.Helper()
	syms := make([]string, 0, len(env))
	for name := range FreeSymbols(e) {
		if _, ok := env[name]; !ok {
			t.Fatalf("no value for symbol %s", name)
		}
	}
	for name := range env {
		syms = append(syms, name)
	}
	sort.Strings(syms)
	prog, err := CompileMatrix(ColVec(e), syms)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	args := make([]float64, len(syms))
	for i, s := range syms {
		args[i] = env[s]
	}
	vals, _, err := prog.EvalReal(args)
	if err != nil {
		t.Fatalf("eval: %v", err)
	}
	return vals[0]
}

func TestSimplifyCollectsLikeTerms(t *testing.T) {
	x := S("x")
	e := AddOf(x, x, MulOf(N(3), x), N(2), N(-2))
	want := MulOf(N(5), x)
	if !e.Equal(want) {
		t.Errorf("got %s, want %s", e, want)
	}
}

func TestSimplifyMergesPowers(t *testing.T) {
	x := S("x")
	e := MulOf(x, x, PowOf(x, N(2)))
	want := PowOf(x, N(4))
	if !e.Equal(want) {
		t.Errorf("got %s, want %s", e, want)
	}
}

func TestSimplifyZeroAnnihilates(t *testing.T) {
	e := MulOf(N(0), SinOf(S("x")), FresnelS(S("y")))
	if n, ok := e.(*Num); !ok || !n.IsZero() {
		t.Errorf("got %s, want 0", e)
	}
}

func TestPowExactRational(t *testing.T) {
	e := PowOf(F(2, 3), N(-2))
	n, ok := e.(*Num)
	if !ok || n.String() != "9/4" {
		t.Errorf("got %s, want 9/4", e)
	}
}

func TestTrigSignNormalization(t *testing.T) {
	x := S("x")
	if !SinOf(Neg(x)).Equal(Neg(SinOf(x))) {
		t.Errorf("sin(-x) = %s", SinOf(Neg(x)))
	}
	if !CosOf(Neg(x)).Equal(CosOf(x)) {
		t.Errorf("cos(-x) = %s", CosOf(Neg(x)))
	}
}

func TestDiffChainRule(t *testing.T) {
	x := S("x")
	got := SinOf(PowOf(x, N(2))).Diff("x")
	want := MulOf(N(2), x, CosOf(PowOf(x, N(2))))
	if !got.Equal(want) {
		t.Errorf("got %s, want %s", got, want)
	}
}

func TestDiffProductRule(t *testing.T) {
	x := S("x")
	got := MulOf(x, CosOf(x)).Diff("x")
	// x*cos(x) -> cos(x) - x*sin(x)
	at := evalAt(t, got, map[string]float64{"x": 0.7})
	want := math.Cos(0.7) - 0.7*math.Sin(0.7)
	if math.Abs(at-want) > 1e-12 {
		t.Errorf("got %g, want %g", at, want)
	}
}

func TestDiffFresnel(t *testing.T) {
	// d/dx fresnels(x) = sin(pi x^2 / 2), checked numerically against a
	// central difference of the compiled fresnels.
	x := S("x")
	d := FresnelS(x).Diff("x")
	at := 1.3
	got := evalAt(t, d, map[string]float64{"x": at})
	h := 1e-6
	fd := (evalAt(t, FresnelS(x), map[string]float64{"x": at + h}) -
		evalAt(t, FresnelS(x), map[string]float64{"x": at - h})) / (2 * h)
	if math.Abs(got-fd) > 1e-8 {
		t.Errorf("derivative %g, finite difference %g", got, fd)
	}
}

func TestPiecewiseSubCollapses(t *testing.T) {
	x, y := S("x"), S("y")
	pw := PiecewiseOf(
		Case{Cond: x, Val: y},
		Case{Val: N(7)},
	)
	if got := pw.Sub("x", N(0)); !got.Equal(N(7)) {
		t.Errorf("x=0: got %s, want 7", got)
	}
	if got := pw.Sub("x", N(2)); !got.Equal(y) {
		t.Errorf("x=2: got %s, want y", got)
	}
}

func TestPiecewiseNumericSelect(t *testing.T) {
	x := S("x")
	pw := PiecewiseOf(
		Case{Cond: x, Val: DivOf(SinOf(x), x)},
		Case{Val: N(1)},
	)
	if got := evalAt(t, pw, map[string]float64{"x": 0}); got != 1 {
		t.Errorf("x=0: got %g, want 1", got)
	}
	got := evalAt(t, pw, map[string]float64{"x": 0.5})
	want := math.Sin(0.5) / 0.5
	if math.Abs(got-want) > 1e-12 {
		t.Errorf("x=0.5: got %g, want %g", got, want)
	}
}

func TestNormalizeRoots(t *testing.T) {
	x := S("x")
	e := &Pow{base: &Pow{base: x, exp: N(-1)}, exp: F(1, 2)}
	got := NormalizeRoots(e)
	want := &Pow{base: x, exp: F(-1, 2)}
	if !got.Equal(want) {
		t.Errorf("got %s, want %s", got, want)
	}
	// The two forms disagree in sign for negative arguments under the
	// principal branch; the normalized one is what evaluation relies on.
	v := evalAt(t, got, map[string]float64{"x": -4})
	if math.Abs(v) > 1e-12 {
		t.Errorf("Re(x^(-1/2)) at x=-4: got %g, want 0", v)
	}
}

func TestFreeSymbols(t *testing.T) {
	e := AddOf(MulOf(S("a"), SinOf(S("b"))), PowOf(S("c"), F(1, 2)), Pi)
	got := FreeSymbols(e)
	for _, name := range []string{"a", "b", "c"} {
		if _, ok := got[name]; !ok {
			t.Errorf("missing symbol %s", name)
		}
	}
	if len(got) != 3 {
		t.Errorf("got %d symbols, want 3", len(got))
	}
}

func TestExactEval(t *testing.T) {
	e := AddOf(MulOf(F(1, 3), N(6)), PowOf(N(2), N(-2)))
	n, ok := e.Eval()
	if !ok || n.String() != "9/4" {
		t.Errorf("got %v, want 9/4", n)
	}
}
