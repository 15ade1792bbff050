// Package symbolic is a small deterministic computer-algebra kernel used to
// derive the appendage model.
//
// Expressions are immutable trees built from exact rationals ([Num]),
// variables ([Sym]), the constant pi, n-ary sums and products, powers,
// elementary functions (including the Fresnel integrals fresnels/fresnelc),
// and [Piecewise] branches. Every constructor simplifies, and simplification
// is deterministic: the same inputs always produce the same tree with the
// same String form, which the compiler relies on for subexpression sharing.
//
// The kernel covers exactly what the model derivation needs:
//
//   - differentiation ([Expr.Diff], [Jacobian])
//   - analytic definite integration ([Integrate]) of polynomials and of
//     sin/cos with polynomial arguments up to degree two, the latter in
//     closed Fresnel form with degenerate branches
//   - compilation of a [Matrix] to a flat numeric program ([CompileMatrix])
//     evaluated over complex128
//
// It is not a general CAS; unsupported forms return errors rather than
// silently producing unevaluated results.
package symbolic
