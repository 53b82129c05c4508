// Package cost implements the symbolic cost model (spec.md C4): two
// expression-valued cost measures (storage_size, asymptotic_runtime, plus
// the finer rt and wc_card helpers) and a lexicographically-composed
// comparator that consults a solver.Solver to order two candidates under a
// set of path conditions.
package cost

import (
	"github.com/exprsynth/synth/internal/expr"
)

// Pool selects which cost dimension a comparison is made in: an
// expression materialized as state (STATE) or recomputed at runtime
// (RUNTIME).
type Pool int

const (
	RUNTIME Pool = iota
	STATE
)

// Order is the result of comparing two costs.
type Order int

const (
	EQ Order = iota
	LT
	GT
	AMBIG
)

// Context supplies the ordered conjunction of path conditions known true
// at a comparison's program point (spec.md §4.4's "ctx").
type Context struct {
	PathConditions []expr.Expr
}

// assumptions folds ctx's path conditions into a single boolean formula.
func (c Context) assumptions() expr.Expr {
	return all(c.PathConditions)
}

func all(conds []expr.Expr) expr.Expr {
	if len(conds) == 0 {
		return &expr.BoolLit{Val: true}
	}
	out := conds[0]
	for _, e := range conds[1:] {
		out = &expr.BinaryExpr{Op: expr.OpAnd, X: out, Y: e, T: expr.TBool{}}
	}
	return out
}
