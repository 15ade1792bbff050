package symbolic

import (
	"fmt"
	"math"
	"math/cmplx"
)

// The evaluation hot path never walks expression trees. CompileMatrix
// flattens a matrix into a slot program: each instruction writes one slot,
// identical subtrees share a slot (hash-consing on the canonical String
// form), and Piecewise collapses into a select over precomputed slots.

type opcode uint8

const (
	opConst opcode = iota
	opLoad
	opAdd
	opMul
	opPowInt
	opPow
	opFunc
	opSelect
)

type instr struct {
	op   opcode
	args []int      // input slots; for opSelect: cond0,val0,cond1,val1,...,default
	c    complex128 // opConst
	k    int64      // opPowInt exponent, opLoad symbol index
	fn   string     // opFunc name
}

// Program is a compiled, immutable numeric form of a symbolic matrix.
// Safe for concurrent use; each Eval call works on its own scratch slice.
type Program struct {
	syms   []string
	instrs []instr
	roots  []int
	rows   int
	cols   int
}

func (p *Program) Rows() int      { return p.rows }
func (p *Program) Cols() int      { return p.cols }
func (p *Program) Syms() []string { return p.syms }
func (p *Program) NumInstrs() int { return len(p.instrs) }

// CompileMatrix compiles m against an argument layout. Every free symbol
// of m must appear in syms; unused syms are allowed (a fixed calling
// convention can cover artifacts that dropped a parameter).
func CompileMatrix(m *Matrix, syms []string) (*Program, error) {
	index := map[string]int{}
	for i, s := range syms {
		index[s] = i
	}
	for name := range m.FreeSymbols() {
		if _, ok := index[name]; !ok {
			return nil, fmt.Errorf("symbolic: free symbol %q not in argument layout %v", name, syms)
		}
	}

	c := &compiler{symIndex: index, memo: map[string]int{}}
	p := &Program{syms: syms, rows: m.rows, cols: m.cols}
	for _, e := range m.data {
		slot, err := c.compile(e)
		if err != nil {
			return nil, err
		}
		p.roots = append(p.roots, slot)
	}
	p.instrs = c.instrs
	return p, nil
}

type compiler struct {
	symIndex map[string]int
	memo     map[string]int
	instrs   []instr
}

func (c *compiler) emit(in instr) int {
	c.instrs = append(c.instrs, in)
	return len(c.instrs) - 1
}

func (c *compiler) compile(e Expr) (int, error) {
	key := e.String()
	if slot, ok := c.memo[key]; ok {
		return slot, nil
	}
	slot, err := c.compileNode(e)
	if err != nil {
		return 0, err
	}
	c.memo[key] = slot
	return slot, nil
}

func (c *compiler) compileNode(e Expr) (int, error) {
	switch t := e.(type) {
	case *Num:
		return c.emit(instr{op: opConst, c: complex(t.Float64(), 0)}), nil
	case *Const:
		return c.emit(instr{op: opConst, c: complex(t.value, 0)}), nil
	case *Sym:
		return c.emit(instr{op: opLoad, k: int64(c.symIndex[t.name])}), nil
	case *Add:
		args, err := c.compileAll(t.terms)
		if err != nil {
			return 0, err
		}
		return c.emit(instr{op: opAdd, args: args}), nil
	case *Mul:
		args, err := c.compileAll(t.factors)
		if err != nil {
			return 0, err
		}
		return c.emit(instr{op: opMul, args: args}), nil
	case *Pow:
		base, err := c.compile(t.base)
		if err != nil {
			return 0, err
		}
		if en, ok := t.exp.(*Num); ok && en.IsInteger() && en.val.Num().IsInt64() {
			return c.emit(instr{op: opPowInt, args: []int{base}, k: en.val.Num().Int64()}), nil
		}
		exp, err := c.compile(t.exp)
		if err != nil {
			return 0, err
		}
		return c.emit(instr{op: opPow, args: []int{base, exp}}), nil
	case *Func:
		arg, err := c.compile(t.arg)
		if err != nil {
			return 0, err
		}
		return c.emit(instr{op: opFunc, args: []int{arg}, fn: t.name}), nil
	case *Piecewise:
		args := []int{}
		sawDefault := false
		for _, cs := range t.cases {
			val, err := c.compile(cs.Val)
			if err != nil {
				return 0, err
			}
			if cs.Cond == nil {
				args = append(args, val)
				sawDefault = true
				break
			}
			cond, err := c.compile(cs.Cond)
			if err != nil {
				return 0, err
			}
			args = append(args, cond, val)
		}
		if !sawDefault {
			args = append(args, c.emit(instr{op: opConst}))
		}
		return c.emit(instr{op: opSelect, args: args}), nil
	}
	return 0, fmt.Errorf("symbolic: cannot compile %T", e)
}

func (c *compiler) compileAll(es []Expr) ([]int, error) {
	out := make([]int, len(es))
	for i, e := range es {
		slot, err := c.compile(e)
		if err != nil {
			return nil, err
		}
		out[i] = slot
	}
	return out, nil
}

// Eval executes the program with the given argument values (in the layout
// order of Syms) and returns the root values in row-major order.
func (p *Program) Eval(args []complex128) ([]complex128, error) {
	if len(args) != len(p.syms) {
		return nil, fmt.Errorf("symbolic: program wants %d arguments, got %d", len(p.syms), len(args))
	}
	slots := make([]complex128, len(p.instrs))
	for i := range p.instrs {
		in := &p.instrs[i]
		switch in.op {
		case opConst:
			slots[i] = in.c
		case opLoad:
			slots[i] = args[in.k]
		case opAdd:
			var acc complex128
			for _, a := range in.args {
				acc += slots[a]
			}
			slots[i] = acc
		case opMul:
			acc := complex(1, 0)
			for _, a := range in.args {
				acc *= slots[a]
			}
			slots[i] = acc
		case opPowInt:
			slots[i] = powInt(slots[in.args[0]], in.k)
		case opPow:
			slots[i] = cmplx.Pow(slots[in.args[0]], slots[in.args[1]])
		case opFunc:
			slots[i] = evalFunc(in.fn, slots[in.args[0]])
		case opSelect:
			slots[i] = selectCase(in.args, slots)
		}
	}
	out := make([]complex128, len(p.roots))
	for i, r := range p.roots {
		out[i] = slots[r]
	}
	return out, nil
}

// powInt keeps integer powers of (near-)real values exactly real, which
// cmplx.Pow would not.
func powInt(z complex128, k int64) complex128 {
	if k < 0 {
		return 1 / powInt(z, -k)
	}
	acc := complex(1, 0)
	for ; k > 0; k >>= 1 {
		if k&1 == 1 {
			acc *= z
		}
		z *= z
	}
	return acc
}

func evalFunc(name string, z complex128) complex128 {
	switch name {
	case "sin":
		return cmplx.Sin(z)
	case "cos":
		return cmplx.Cos(z)
	case "ln":
		return cmplx.Log(z)
	case "fresnels":
		return fresnelS(z)
	case "fresnelc":
		return fresnelC(z)
	}
	return cmplx.NaN()
}

// selectCase picks the first case whose condition is nonzero; the trailing
// arg is the default. Exact float zero is the degeneracy test, matching
// the semantics of substituting zero into the symbolic Piecewise.
func selectCase(args []int, slots []complex128) complex128 {
	n := len(args)
	for i := 0; i+1 < n; i += 2 {
		if slots[args[i]] != 0 {
			return slots[args[i+1]]
		}
	}
	return slots[args[n-1]]
}

// EvalReal evaluates with real arguments and discards imaginary residue,
// returning the largest relative residue seen so the caller can decide
// whether the discard was benign.
func (p *Program) EvalReal(args []float64) ([]float64, float64, error) {
	cargs := make([]complex128, len(args))
	for i, a := range args {
		cargs[i] = complex(a, 0)
	}
	vals, err := p.Eval(cargs)
	if err != nil {
		return nil, 0, err
	}
	out := make([]float64, len(vals))
	worst := 0.0
	for i, v := range vals {
		out[i] = real(v)
		res := math.Abs(imag(v)) / math.Max(1, math.Abs(real(v)))
		if res > worst {
			worst = res
		}
	}
	return out, worst, nil
}
