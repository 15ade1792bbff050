package symbolic

import (
	"math"
	"strings"
	"testing"
)

func TestCompileSharesCommonSubexpressions(t *testing.T) {
	x := S("x")
	inner := SinOf(AddOf(x, N(1)))
	m := ColVec(MulOf(inner, inner), AddOf(inner, N(2)))
	prog, err := CompileMatrix(m, []string{"x"})
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	// sin(x+1) must be emitted once: const 1, load x, add, sin,
	// then mul, const 2, add. Anything more means the memo failed.
	if prog.NumInstrs() > 7 {
		t.Errorf("program has %d instructions, want <= 7", prog.NumInstrs())
	}
	vals, _, err := prog.EvalReal([]float64{0.4})
	if err != nil {
		t.Fatalf("eval: %v", err)
	}
	s := math.Sin(1.4)
	if math.Abs(vals[0]-s*s) > 1e-12 || math.Abs(vals[1]-(s+2)) > 1e-12 {
		t.Errorf("got %v, want [%g %g]", vals, s*s, s+2)
	}
}

func TestCompileRejectsUnknownSymbol(t *testing.T) {
	m := ColVec(AddOf(S("x"), S("y")))
	_, err := CompileMatrix(m, []string{"x"})
	if err == nil || !strings.Contains(err.Error(), "y") {
		t.Errorf("got %v, want error naming y", err)
	}
}

func TestCompileAllowsUnusedSymbols(t *testing.T) {
	m := ColVec(S("x"))
	prog, err := CompileMatrix(m, []string{"x", "spare"})
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	vals, _, err := prog.EvalReal([]float64{3, 99})
	if err != nil {
		t.Fatalf("eval: %v", err)
	}
	if vals[0] != 3 {
		t.Errorf("got %g, want 3", vals[0])
	}
}

func TestEvalArgCount(t *testing.T) {
	prog, err := CompileMatrix(ColVec(S("x")), []string{"x"})
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if _, err := prog.Eval([]complex128{1, 2}); err == nil {
		t.Error("want error for wrong argument count")
	}
}

func TestProgramMatchesTreeSemantics(t *testing.T) {
	// A compiled expression with every opcode family must agree with
	// direct evaluation of the same formula.
	x, y := S("x"), S("y")
	e := AddOf(
		MulOf(PowOf(x, N(3)), CosOf(y)),
		PowOf(AddOf(x, N(2)), F(1, 2)),
		FresnelC(MulOf(x, y)),
		MulOf(Pi, F(1, 4)),
	)
	got := evalAt(t, e, map[string]float64{"x": 0.6, "y": 1.1})
	want := 0.6*0.6*0.6*math.Cos(1.1) +
		math.Sqrt(2.6) +
		real(fresnelC(complex(0.66, 0))) +
		math.Pi/4
	if math.Abs(got-want) > 1e-12 {
		t.Errorf("got %g, want %g", got, want)
	}
}

func TestEvalRealFlagsImaginaryResidue(t *testing.T) {
	// sqrt of a negative value is purely imaginary; the real part is ~0
	// and the residue must report the discarded magnitude.
	prog, err := CompileMatrix(ColVec(SqrtOf(S("x"))), []string{"x"})
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	_, residue, err := prog.EvalReal([]float64{-4})
	if err != nil {
		t.Fatalf("eval: %v", err)
	}
	if residue < 1.9 {
		t.Errorf("residue %g, want ~2", residue)
	}
	_, residue, err = prog.EvalReal([]float64{4})
	if err != nil {
		t.Fatalf("eval: %v", err)
	}
	if residue != 0 {
		t.Errorf("residue %g for real input, want 0", residue)
	}
}

func TestMatrixSerializeRoundTrip(t *testing.T) {
	x, a := S("x"), S("a")
	pw := PiecewiseOf(
		Case{Cond: a, Val: MulOf(FresnelS(x), PowOf(a, F(-1, 2)))},
		Case{Val: MulOf(x, SinOf(a))},
	)
	m := NewMatrix(2, 2)
	m.Set(0, 0, pw)
	m.Set(0, 1, AddOf(F(981, 100), MulOf(Pi, a)))
	m.Set(1, 0, LnOf(AddOf(x, N(1))))
	m.Set(1, 1, N(0))

	data, err := EncodeMatrix(m)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	back, err := DecodeMatrix(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !back.Equal(m) {
		t.Errorf("round trip changed matrix:\n%s\nvs\n%s", back, m)
	}
}

func TestDecodeMatrixRejectsMalformed(t *testing.T) {
	cases := map[string]string{
		"not json":        `{{`,
		"bad shape":       `{"rows":2,"cols":2,"data":[{"op":"num","value":"1"}]}`,
		"bad rational":    `{"rows":1,"cols":1,"data":[{"op":"num","value":"x"}]}`,
		"unknown op":      `{"rows":1,"cols":1,"data":[{"op":"frob"}]}`,
		"unknown fn":      `{"rows":1,"cols":1,"data":[{"op":"fn","name":"tanh","args":[{"op":"num","value":"1"}]}]}`,
		"unknown const":   `{"rows":1,"cols":1,"data":[{"op":"const","name":"e"}]}`,
		"pow arity":       `{"rows":1,"cols":1,"data":[{"op":"pow","args":[{"op":"num","value":"1"}]}]}`,
		"empty sym":       `{"rows":1,"cols":1,"data":[{"op":"sym"}]}`,
		"zero dimensions": `{"rows":0,"cols":0,"data":[]}`,
	}
	for name, payload := range cases {
		if _, err := DecodeMatrix([]byte(payload)); err == nil {
			t.Errorf("%s: decode succeeded, want error", name)
		}
	}
}
