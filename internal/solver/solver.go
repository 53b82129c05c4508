// Package solver implements the SMT-backed validity/satisfiability
// interface the cost model's comparator and the CEGIS driver consult
// (spec.md C3), plus the example-caching contract every implementation
// must honor.
package solver

import (
	"context"

	"github.com/exprsynth/synth/internal/eval"
	"github.com/exprsynth/synth/internal/expr"
)

// Model maps variable IDs to concrete values, matching the shape of an
// Example (spec.md §3): every free variable of the formula it satisfies.
type Model map[string]eval.Value

// Solver is the pluggable SMT backend the core depends on. The core ships
// LocalSolver (always available, bounded exhaustive enumeration) and RemoteSolver
// (reaches an out-of-process SMT service); callers may supply their own.
type Solver interface {
	// Satisfy returns a model for phi restricted to vars, or nil if phi is
	// unsatisfiable.
	Satisfy(ctx context.Context, phi expr.Expr, vars []*expr.Var) (Model, error)
	// Valid reports whether phi holds under every assignment.
	Valid(ctx context.Context, phi expr.Expr) (bool, error)
	// Satisfiable reports whether some assignment makes phi true.
	Satisfiable(ctx context.Context, phi expr.Expr) (bool, error)
}

// All builds the conjunction of conds, short-circuiting to the literal
// true BoolLit when conds is empty (an empty path-condition list is
// vacuously true, per spec.md's "ordered conjunction of boolean
// expressions").
func All(conds []expr.Expr) expr.Expr {
	if len(conds) == 0 {
		return &expr.BoolLit{Val: true}
	}
	out := conds[0]
	for _, c := range conds[1:] {
		out = &expr.BinaryExpr{Op: expr.OpAnd, X: out, Y: c, T: expr.TBool{}}
	}
	return out
}

// Implies builds a => b as (not a) or b.
func Implies(a, b expr.Expr) expr.Expr {
	return &expr.BinaryExpr{
		Op: expr.OpOr,
		X:  &expr.UnaryExpr{Op: expr.OpNot, X: a, T: expr.TBool{}},
		Y:  b,
		T:  expr.TBool{},
	}
}

// Not negates a boolean expression.
func Not(a expr.Expr) expr.Expr {
	return &expr.UnaryExpr{Op: expr.OpNot, X: a, T: expr.TBool{}}
}

// Equal builds e1 == e2.
func Equal(e1, e2 expr.Expr) expr.Expr {
	return &expr.BinaryExpr{Op: expr.OpEq, X: e1, Y: e2, T: expr.TBool{}}
}

// Le/Ge build e1 <= e2 / e1 >= e2, used by the cost comparator to phrase
// "e1's cost never exceeds e2's cost" as an implication antecedent.
func Le(e1, e2 expr.Expr) expr.Expr {
	return &expr.BinaryExpr{Op: expr.OpLe, X: e1, Y: e2, T: expr.TBool{}}
}

func Ge(e1, e2 expr.Expr) expr.Expr {
	return &expr.BinaryExpr{Op: expr.OpGe, X: e1, Y: e2, T: expr.TBool{}}
}
