package cost

import (
	"context"
	"errors"
	"fmt"

	"github.com/exprsynth/synth/internal/config"
	"github.com/exprsynth/synth/internal/eval"
	"github.com/exprsynth/synth/internal/expr"
	"github.com/exprsynth/synth/internal/solver"
)

// Model is the cost model (spec.md C4). Compare is its public entry
// point: the lexicographically-composed comparator the candidate builder
// and CEGIS driver use to decide whether a candidate is a strict
// improvement over a watched sub-expression.
type Model struct {
	Solver     solver.Solver
	Weights    config.Weights
	Extensions map[string]ExtensionHandler
	ev         *eval.Evaluator
}

// NewModel builds a cost model backed by s, using w for its tunable
// constants.
func NewModel(s solver.Solver, w config.Weights) *Model {
	return &Model{Solver: s, Weights: w, ev: eval.New()}
}

func (cm *Model) evaluator() *eval.Evaluator {
	if cm.ev == nil {
		cm.ev = eval.New()
	}
	return cm.ev
}

// Compare orders e1 and e2 within pool under the path conditions pathCtx
// supplies, ported from cost_model.py's CostModel.compare: RUNTIME
// composes asymptotic_runtime, max_storage_size, rt, and node count in
// that order; STATE composes storage_size and node count.
func (cm *Model) Compare(ctx context.Context, pathCtx Context, e1, e2 expr.Expr, pool Pool) (Order, error) {
	if pool == RUNTIME {
		return cm.composite(
			func() (Order, error) {
				return cm.compareInt(ctx, pathCtx, cm.AsymptoticRuntime(e1), cm.AsymptoticRuntime(e2))
			},
			func() (Order, error) {
				return cm.compareInt(ctx, pathCtx, cm.MaxStorageSize(e1), cm.MaxStorageSize(e2))
			},
			func() (Order, error) { return cm.compareInt(ctx, pathCtx, cm.Rt(e1), cm.Rt(e2)) },
			func() (Order, error) { return orderInts(int64(expr.Size(e1)), int64(expr.Size(e2))), nil },
		)
	}
	return cm.composite(
		func() (Order, error) { return cm.compareInt(ctx, pathCtx, cm.StorageSize(e1), cm.StorageSize(e2)) },
		func() (Order, error) { return orderInts(int64(expr.Size(e1)), int64(expr.Size(e2))), nil },
	)
}

// IsMonotonic reports whether a cost ceiling derived from one expression
// remains a valid bound after a strict sub-expression is replaced by a
// cheaper one: every cost here is a sum or max over sub-terms, never a
// subtraction, so it always holds. The learner uses this to decide
// whether it may safely evict cache entries above the current ceiling
// (spec.md §4.6).
func (cm *Model) IsMonotonic() bool { return true }

func (cm *Model) composite(fns ...func() (Order, error)) (Order, error) {
	for _, f := range fns {
		o, err := f()
		if err != nil {
			return AMBIG, err
		}
		if o != EQ {
			return o, nil
		}
	}
	return EQ, nil
}

func orderInts(a, b int64) Order {
	switch {
	case a < b:
		return LT
	case a > b:
		return GT
	default:
		return EQ
	}
}

// compareInt orders two Int-typed cost expressions, ported from
// cost_model.py's CostModel._compare: constant-fold when both sides are
// closed, shortcut on alpha-equivalence, otherwise consult the solver for
// valid(A => e1<=e2) and valid(A => e1>=e2).
func (cm *Model) compareInt(ctx context.Context, pathCtx Context, e1, e2 expr.Expr) (Order, error) {
	if isClosed(e1) && isClosed(e2) {
		ev := cm.evaluator()
		v1 := ev.Eval(e1, eval.NewEnv(nil)).(eval.Int).Val
		v2 := ev.Eval(e2, eval.NewEnv(nil)).(eval.Int).Val
		return orderInts(v1, v2), nil
	}
	if expr.AlphaEquivalent(e1, e2) {
		return EQ, nil
	}

	a := pathCtx.assumptions()
	le, err := cm.validConservative(ctx, solver.Implies(a, solver.Le(e1, e2)))
	if err != nil {
		return AMBIG, fmt.Errorf("cost: comparing %s vs %s: %w", e1, e2, err)
	}
	ge, err := cm.validConservative(ctx, solver.Implies(a, solver.Ge(e1, e2)))
	if err != nil {
		return AMBIG, fmt.Errorf("cost: comparing %s vs %s: %w", e1, e2, err)
	}
	switch {
	case le && ge:
		return EQ, nil
	case le:
		return LT, nil
	case ge:
		return GT, nil
	default:
		return AMBIG, nil
	}
}

// validConservative calls Solver.Valid, treating solver.ErrUnbounded (the
// formula ranges outside a bounded backend's decidable domain) as "not
// provably valid" rather than a hard error — the comparator's job is to
// return AMBIG in that case, same as a genuine neither-le-nor-ge verdict.
func (cm *Model) validConservative(ctx context.Context, phi expr.Expr) (bool, error) {
	ok, err := cm.Solver.Valid(ctx, phi)
	if errors.Is(err, solver.ErrUnbounded) {
		return false, nil
	}
	return ok, err
}

func isClosed(e expr.Expr) bool {
	return len(expr.FreeVars(e)) == 0 && len(expr.FreeFuncs(e)) == 0
}
