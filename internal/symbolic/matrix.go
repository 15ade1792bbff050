package symbolic

import (
	"fmt"
	"strings"
)

// Matrix is a dense matrix of expressions.
type Matrix struct {
	rows, cols int
	data       []Expr
}

func NewMatrix(rows, cols int) *Matrix {
	m := &Matrix{rows: rows, cols: cols, data: make([]Expr, rows*cols)}
	for i := range m.data {
		m.data[i] = N(0)
	}
	return m
}

// ColVec builds an n-by-1 column vector.
func ColVec(entries ...Expr) *Matrix {
	m := &Matrix{rows: len(entries), cols: 1, data: make([]Expr, len(entries))}
	copy(m.data, entries)
	return m
}

func (m *Matrix) Rows() int { return m.rows }
func (m *Matrix) Cols() int { return m.cols }

func (m *Matrix) Get(r, c int) Expr {
	m.check(r, c)
	return m.data[r*m.cols+c]
}

func (m *Matrix) Set(r, c int, e Expr) {
	m.check(r, c)
	m.data[r*m.cols+c] = e
}

func (m *Matrix) check(r, c int) {
	if r < 0 || r >= m.rows || c < 0 || c >= m.cols {
		panic(fmt.Sprintf("symbolic: index (%d,%d) out of %dx%d matrix", r, c, m.rows, m.cols))
	}
}

func (m *Matrix) MatAdd(o *Matrix) *Matrix {
	if m.rows != o.rows || m.cols != o.cols {
		panic("symbolic: dimension mismatch in MatAdd")
	}
	out := NewMatrix(m.rows, m.cols)
	for i := range m.data {
		out.data[i] = AddOf(m.data[i], o.data[i])
	}
	return out
}

func (m *Matrix) MatMul(o *Matrix) *Matrix {
	if m.cols != o.rows {
		panic("symbolic: dimension mismatch in MatMul")
	}
	out := NewMatrix(m.rows, o.cols)
	for i := 0; i < m.rows; i++ {
		for j := 0; j < o.cols; j++ {
			terms := make([]Expr, m.cols)
			for k := 0; k < m.cols; k++ {
				terms[k] = MulOf(m.Get(i, k), o.Get(k, j))
			}
			out.Set(i, j, AddOf(terms...))
		}
	}
	return out
}

func (m *Matrix) Transpose() *Matrix {
	out := NewMatrix(m.cols, m.rows)
	for i := 0; i < m.rows; i++ {
		for j := 0; j < m.cols; j++ {
			out.Set(j, i, m.Get(i, j))
		}
	}
	return out
}

func (m *Matrix) Scale(e Expr) *Matrix {
	return m.Map(func(x Expr) Expr { return MulOf(e, x) })
}

// Map applies fn to every entry.
func (m *Matrix) Map(fn func(Expr) Expr) *Matrix {
	out := &Matrix{rows: m.rows, cols: m.cols, data: make([]Expr, len(m.data))}
	for i, e := range m.data {
		out.data[i] = fn(e)
	}
	return out
}

func (m *Matrix) ApplySub(name string, value Expr) *Matrix {
	return m.Map(func(e Expr) Expr { return e.Sub(name, value) })
}

func (m *Matrix) ApplyDiff(name string) *Matrix {
	return m.Map(func(e Expr) Expr { return e.Diff(name) })
}

// Jacobian differentiates a column vector with respect to vars, producing
// a rows-by-len(vars) matrix.
func (m *Matrix) Jacobian(vars []string) *Matrix {
	if m.cols != 1 {
		panic("symbolic: Jacobian requires a column vector")
	}
	out := NewMatrix(m.rows, len(vars))
	for i := 0; i < m.rows; i++ {
		for k, v := range vars {
			out.Set(i, k, m.Get(i, 0).Diff(v))
		}
	}
	return out
}

// IntegrateEntries integrates every entry over v in [lo, hi].
func (m *Matrix) IntegrateEntries(v string, lo, hi Expr) (*Matrix, error) {
	out := &Matrix{rows: m.rows, cols: m.cols, data: make([]Expr, len(m.data))}
	for i, e := range m.data {
		r, err := Integrate(e, v, lo, hi)
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
		out.data[i] = r
	}
	return out, nil
}

// FreeSymbols unions the free symbols of all entries.
func (m *Matrix) FreeSymbols() map[string]struct{} {
	out := map[string]struct{}{}
	for _, e := range m.data {
		collectSymbols(e, out)
	}
	return out
}

func (m *Matrix) Equal(o *Matrix) bool {
	if m.rows != o.rows || m.cols != o.cols {
		return false
	}
	for i := range m.data {
		if !m.data[i].Equal(o.data[i]) {
			return false
		}
	}
	return true
}

func (m *Matrix) String() string {
	var sb strings.Builder
	for i := 0; i < m.rows; i++ {
		row := make([]string, m.cols)
		for j := 0; j < m.cols; j++ {
			row[j] = m.Get(i, j).String()
		}
		sb.WriteString("[" + strings.Join(row, ", ") + "]\n")
	}
	return sb.String()
}
