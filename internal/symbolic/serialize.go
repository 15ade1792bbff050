package symbolic

import (
	"encoding/json"
	"fmt"
	"math/big"
)

// Expression trees serialize to a compact recursive JSON form. The format
// is private to the derivation/evaluation pair: no cross-version promises,
// rationals travel as exact strings.

type jsonExpr struct {
	Op    string      `json:"op"`
	Value string      `json:"value,omitempty"` // num: exact rational
	Name  string      `json:"name,omitempty"`  // sym, const, fn
	Args  []*jsonExpr `json:"args,omitempty"`  // add, mul, pow(2), fn(1)
	Cases []*jsonCase `json:"cases,omitempty"` // piecewise
}

type jsonCase struct {
	Cond *jsonExpr `json:"cond,omitempty"` // absent on the default branch
	Val  *jsonExpr `json:"val"`
}

type jsonMatrix struct {
	Rows int         `json:"rows"`
	Cols int         `json:"cols"`
	Data []*jsonExpr `json:"data"`
}

// EncodeMatrix serializes a matrix of expressions.
func EncodeMatrix(m *Matrix) ([]byte, error) {
	jm := jsonMatrix{Rows: m.rows, Cols: m.cols, Data: make([]*jsonExpr, len(m.data))}
	for i, e := range m.data {
		je, err := encodeExpr(e)
		if err != nil {
			return nil, err
		}
		jm.Data[i] = je
	}
	return json.Marshal(jm)
}

// DecodeMatrix reverses EncodeMatrix. Every entry is re-simplified so the
// decoded tree is canonical regardless of the encoder's version.
func DecodeMatrix(data []byte) (*Matrix, error) {
	var jm jsonMatrix
	if err := json.Unmarshal(data, &jm); err != nil {
		return nil, fmt.Errorf("symbolic: decode: %w", err)
	}
	if jm.Rows <= 0 || jm.Cols <= 0 || len(jm.Data) != jm.Rows*jm.Cols {
		return nil, fmt.Errorf("symbolic: decode: bad shape %dx%d with %d entries", jm.Rows, jm.Cols, len(jm.Data))
	}
	m := &Matrix{rows: jm.Rows, cols: jm.Cols, data: make([]Expr, len(jm.Data))}
	for i, je := range jm.Data {
		e, err := decodeExpr(je)
		if err != nil {
			return nil, err
		}
		m.data[i] = e.Simplify()
	}
	return m, nil
}

func encodeExpr(e Expr) (*jsonExpr, error) {
	switch t := e.(type) {
	case *Num:
		return &jsonExpr{Op: "num", Value: t.val.RatString()}, nil
	case *Sym:
		return &jsonExpr{Op: "sym", Name: t.name}, nil
	case *Const:
		return &jsonExpr{Op: "const", Name: t.name}, nil
	case *Add:
		args, err := encodeAll(t.terms)
		if err != nil {
			return nil, err
		}
		return &jsonExpr{Op: "add", Args: args}, nil
	case *Mul:
		args, err := encodeAll(t.factors)
		if err != nil {
			return nil, err
		}
		return &jsonExpr{Op: "mul", Args: args}, nil
	case *Pow:
		args, err := encodeAll([]Expr{t.base, t.exp})
		if err != nil {
			return nil, err
		}
		return &jsonExpr{Op: "pow", Args: args}, nil
	case *Func:
		arg, err := encodeExpr(t.arg)
		if err != nil {
			return nil, err
		}
		return &jsonExpr{Op: "fn", Name: t.name, Args: []*jsonExpr{arg}}, nil
	case *Piecewise:
		cases := make([]*jsonCase, len(t.cases))
		for i, c := range t.cases {
			val, err := encodeExpr(c.Val)
			if err != nil {
				return nil, err
			}
			jc := &jsonCase{Val: val}
			if c.Cond != nil {
				cond, err := encodeExpr(c.Cond)
				if err != nil {
					return nil, err
				}
				jc.Cond = cond
			}
			cases[i] = jc
		}
		return &jsonExpr{Op: "piecewise", Cases: cases}, nil
	}
	return nil, fmt.Errorf("symbolic: cannot encode %T", e)
}

func encodeAll(es []Expr) ([]*jsonExpr, error) {
	out := make([]*jsonExpr, len(es))
	for i, e := range es {
		je, err := encodeExpr(e)
		if err != nil {
			return nil, err
		}
		out[i] = je
	}
	return out, nil
}

func decodeExpr(je *jsonExpr) (Expr, error) {
	if je == nil {
		return nil, fmt.Errorf("symbolic: decode: nil node")
	}
	switch je.Op {
	case "num":
		r, ok := new(big.Rat).SetString(je.Value)
		if !ok {
			return nil, fmt.Errorf("symbolic: decode: bad rational %q", je.Value)
		}
		return &Num{val: r}, nil
	case "sym":
		if je.Name == "" {
			return nil, fmt.Errorf("symbolic: decode: empty symbol name")
		}
		return S(je.Name), nil
	case "const":
		if je.Name != "pi" {
			return nil, fmt.Errorf("symbolic: decode: unknown constant %q", je.Name)
		}
		return Pi, nil
	case "add", "mul":
		args, err := decodeAll(je.Args)
		if err != nil {
			return nil, err
		}
		if je.Op == "add" {
			return &Add{terms: args}, nil
		}
		return &Mul{factors: args}, nil
	case "pow":
		args, err := decodeAll(je.Args)
		if err != nil {
			return nil, err
		}
		if len(args) != 2 {
			return nil, fmt.Errorf("symbolic: decode: pow wants 2 args, got %d", len(args))
		}
		return &Pow{base: args[0], exp: args[1]}, nil
	case "fn":
		args, err := decodeAll(je.Args)
		if err != nil {
			return nil, err
		}
		if len(args) != 1 {
			return nil, fmt.Errorf("symbolic: decode: fn wants 1 arg, got %d", len(args))
		}
		switch je.Name {
		case "sin", "cos", "ln", "fresnels", "fresnelc":
			return &Func{name: je.Name, arg: args[0]}, nil
		}
		return nil, fmt.Errorf("symbolic: decode: unknown function %q", je.Name)
	case "piecewise":
		cases := make([]Case, len(je.Cases))
		for i, jc := range je.Cases {
			val, err := decodeExpr(jc.Val)
			if err != nil {
				return nil, err
			}
			cases[i] = Case{Val: val}
			if jc.Cond != nil {
				cond, err := decodeExpr(jc.Cond)
				if err != nil {
					return nil, err
				}
				cases[i].Cond = cond
			}
		}
		return &Piecewise{cases: cases}, nil
	}
	return nil, fmt.Errorf("symbolic: decode: unknown op %q", je.Op)
}

func decodeAll(jes []*jsonExpr) ([]Expr, error) {
	out := make([]Expr, len(jes))
	for i, je := range jes {
		e, err := decodeExpr(je)
		if err != nil {
			return nil, err
		}
		out[i] = e
	}
	return out, nil
}
