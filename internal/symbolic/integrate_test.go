package symbolic

import (
	"errors"
	"math"
	"testing"
)

// simpson integrates f over [a,b] with n panels (n even).
func simpson(f func(float64) float64, a, b float64, n int) float64 {
	h := (b - a) / float64(n)
	sum := f(a) + f(b)
	for i := 1; i < n; i++ {
		x := a + float64(i)*h
		if i%2 == 1 {
			sum += 4 * f(x)
		} else {
			sum += 2 * f(x)
		}
	}
	return sum * h / 3
}

func TestIntegratePolynomial(t *testing.T) {
	x := S("x")
	e := AddOf(MulOf(N(3), PowOf(x, N(2))), MulOf(N(2), x))
	got, err := Integrate(e, "x", N(0), N(1))
	if err != nil {
		t.Fatalf("integrate: %v", err)
	}
	n, ok := got.Eval()
	if !ok || n.String() != "2" {
		t.Errorf("got %s, want 2", got)
	}
}

func TestIntegratePolynomialSymbolicCoeffs(t *testing.T) {
	// Int_{-1/2}^{1/2} (a + b d + c d^2) dd = a + c/12; odd powers cancel.
	d := S("d")
	e := AddOf(S("a"), MulOf(S("b"), d), MulOf(S("c"), PowOf(d, N(2))))
	got, err := Integrate(e, "d", F(-1, 2), F(1, 2))
	if err != nil {
		t.Fatalf("integrate: %v", err)
	}
	want := AddOf(S("a"), MulOf(F(1, 12), S("c")))
	if !got.Equal(want) {
		t.Errorf("got %s, want %s", got, want)
	}
}

func TestIntegrateSinLinearPhase(t *testing.T) {
	v := S("v")
	arg := AddOf(S("c"), MulOf(S("b"), v))
	got, err := Integrate(SinOf(arg), "v", N(0), S("s"))
	if err != nil {
		t.Fatalf("integrate: %v", err)
	}
	env := map[string]float64{"c": 0.4, "b": 1.7, "s": 0.9}
	num := evalAt(t, got, env)
	ref := simpson(func(x float64) float64 { return math.Sin(0.4 + 1.7*x) }, 0, 0.9, 2000)
	if math.Abs(num-ref) > 1e-9 {
		t.Errorf("got %g, want %g", num, ref)
	}
	// Degenerate b=0 branch must survive the division.
	env["b"] = 0
	num = evalAt(t, got, env)
	ref = 0.9 * math.Sin(0.4)
	if math.Abs(num-ref) > 1e-12 {
		t.Errorf("b=0: got %g, want %g", num, ref)
	}
}

func TestIntegrateTrigQuadraticPhase(t *testing.T) {
	// The Fresnel closed form, checked against quadrature for positive
	// and negative quadratic coefficients. The negative case pins the
	// branch normalization: sqrt written as a^(-1/2) keeps the result
	// real-correct under principal-branch complex evaluation.
	v := S("v")
	arg := AddOf(S("c"), MulOf(S("b"), v), MulOf(S("a"), PowOf(v, N(2))))
	for _, kind := range []string{"sin", "cos"} {
		var e Expr
		if kind == "sin" {
			e = SinOf(arg)
		} else {
			e = CosOf(arg)
		}
		got, err := Integrate(e, "v", N(0), S("s"))
		if err != nil {
			t.Fatalf("%s: integrate: %v", kind, err)
		}
		cases := []map[string]float64{
			{"a": 0.8, "b": 0.3, "c": 0.2, "s": 1.0},
			{"a": -0.8, "b": 0.3, "c": 0.2, "s": 1.0},
			{"a": 1.9, "b": -1.1, "c": 0.0, "s": 0.7},
			{"a": -2.3, "b": 0.0, "c": 0.9, "s": 1.0},
			{"a": 0.0, "b": 1.2, "c": 0.1, "s": 1.0},
			{"a": 0.0, "b": 0.0, "c": 0.5, "s": 0.5},
		}
		for _, env := range cases {
			num := evalAt(t, got, env)
			a, b, c := env["a"], env["b"], env["c"]
			var ref float64
			if kind == "sin" {
				ref = simpson(func(x float64) float64 { return math.Sin(c + b*x + a*x*x) }, 0, env["s"], 4000)
			} else {
				ref = simpson(func(x float64) float64 { return math.Cos(c + b*x + a*x*x) }, 0, env["s"], 4000)
			}
			if math.Abs(num-ref) > 1e-8 {
				t.Errorf("%s a=%g b=%g c=%g: got %g, want %g", kind, a, b, c, num, ref)
			}
		}
	}
}

func TestIntegrateAntiderivativeConsistency(t *testing.T) {
	// d/ds Int_0^s sin(c + b v + a v^2) dv must reproduce the integrand.
	v, sVar := S("v"), "s"
	arg := AddOf(S("c"), MulOf(S("b"), v), MulOf(S("a"), PowOf(v, N(2))))
	got, err := Integrate(SinOf(arg), "v", N(0), S(sVar))
	if err != nil {
		t.Fatalf("integrate: %v", err)
	}
	d := got.Diff(sVar)
	env := map[string]float64{"a": 1.3, "b": -0.4, "c": 0.2, "s": 0.8}
	num := evalAt(t, d, env)
	want := math.Sin(0.2 - 0.4*0.8 + 1.3*0.8*0.8)
	if math.Abs(num-want) > 1e-9 {
		t.Errorf("got %g, want %g", num, want)
	}
}

func TestIntegrateUnsupported(t *testing.T) {
	v := S("v")
	_, err := Integrate(SinOf(PowOf(v, N(3))), "v", N(0), N(1))
	if !errors.Is(err, ErrUnsupportedIntegrand) {
		t.Errorf("cubic phase: got %v, want ErrUnsupportedIntegrand", err)
	}
	_, err = Integrate(LnOf(v), "v", N(0), N(1))
	if !errors.Is(err, ErrUnsupportedIntegrand) {
		t.Errorf("ln: got %v, want ErrUnsupportedIntegrand", err)
	}
}

func TestFresnelNumericMatchesQuadrature(t *testing.T) {
	for _, x := range []float64{0.3, 1.1, 2.7, 5.5} {
		got := real(fresnelS(complex(x, 0)))
		ref := simpson(func(u float64) float64 { return math.Sin(math.Pi / 2 * u * u) }, 0, x, 20000)
		if math.Abs(got-ref) > 1e-8 {
			t.Errorf("fresnelS(%g): got %g, want %g", x, got, ref)
		}
		got = real(fresnelC(complex(x, 0)))
		ref = simpson(func(u float64) float64 { return math.Cos(math.Pi / 2 * u * u) }, 0, x, 20000)
		if math.Abs(got-ref) > 1e-8 {
			t.Errorf("fresnelC(%g): got %g, want %g", x, got, ref)
		}
	}
}

func TestFresnelImaginaryReflection(t *testing.T) {
	// S(iy) = -i S(y), C(iy) = i C(y); the series must respect it.
	y := 1.4
	s := fresnelS(complex(0, y))
	sr := fresnelS(complex(y, 0))
	if math.Abs(real(s)) > 1e-12 || math.Abs(imag(s)+real(sr)) > 1e-12 {
		t.Errorf("S(iy) = %v, want %v", s, complex(0, -real(sr)))
	}
	c := fresnelC(complex(0, y))
	cr := fresnelC(complex(y, 0))
	if math.Abs(real(c)) > 1e-12 || math.Abs(imag(c)-real(cr)) > 1e-12 {
		t.Errorf("C(iy) = %v, want %v", c, complex(0, real(cr)))
	}
}
