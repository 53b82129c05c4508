package builder

import (
	"context"
	"fmt"

	"github.com/exprsynth/synth/internal/expr"
	"github.com/exprsynth/synth/internal/solver"
)

// FixedBuilder wraps another ExpBuilder and imposes the five rejection
// criteria of spec.md §4.5, ported from cozy/synthesis/core.py's
// FixedBuilder and fixup_binders.
type FixedBuilder struct {
	Wrapped     ExpBuilder
	Binders     []*expr.Var
	Assumptions expr.Expr
	Solver      solver.Solver
	Ctx         context.Context
}

// NewFixedBuilder builds a FixedBuilder. ctx bounds every validity/
// satisfiability check FixedBuilder performs while filtering candidates;
// callers normally pass the same context.Context the enclosing
// cegis.Driver run is cancelled through.
func NewFixedBuilder(ctx context.Context, wrapped ExpBuilder, binders []*expr.Var, assumptions expr.Expr, s solver.Solver) *FixedBuilder {
	return &FixedBuilder{Wrapped: wrapped, Binders: binders, Assumptions: assumptions, Solver: s, Ctx: ctx}
}

// WithRoots rewraps the underlying builder, keeping the same binder pool,
// assumptions, and solver.
func (f *FixedBuilder) WithRoots(roots []expr.Expr) ExpBuilder {
	return &FixedBuilder{
		Wrapped:     f.Wrapped.WithRoots(roots),
		Binders:     f.Binders,
		Assumptions: f.Assumptions,
		Solver:      f.Solver,
		Ctx:         f.Ctx,
	}
}

// Build filters the wrapped builder's output through fixupBinders and the
// five rejection criteria.
func (f *FixedBuilder) Build(cache *Cache, size int) func(yield func(expr.Expr) bool) {
	return func(yield func(expr.Expr) bool) {
		for e := range f.Wrapped.Build(cache, size) {
			fixed, err := fixupBinders(e, f.Binders)
			if err != nil {
				continue
			}
			if !f.accept(fixed) {
				continue
			}
			if !yield(fixed) {
				return
			}
		}
	}
}

// accept applies rejection criteria 2–5 (criterion 1, the binder pool
// check, already happened in fixupBinders).
func (f *FixedBuilder) accept(e expr.Expr) bool {
	t := e.ExprType()

	// Criterion 2: bags of handles must be unique under the assumptions.
	if bag, ok := t.(expr.TBag); ok {
		if _, isHandle := bag.T.(expr.THandle); isHandle {
			ok, err := f.Solver.Valid(f.Ctx, solver.Implies(f.Assumptions, areUnique(e)))
			if err != nil || !ok {
				return false
			}
		}
	}

	// Criterion 3: Set values must always be distinct — a violation here
	// is a cost-model/builder invariant break, not a rejectable candidate.
	if _, ok := t.(expr.TSet); ok {
		valid, err := f.Solver.Valid(f.Ctx, solver.Implies(f.Assumptions, areUnique(e)))
		if err == nil && !valid {
			panic(fmt.Sprintf("builder: insanity: values of %s are not distinct", e))
		}
	}

	// Criterion 4: "the" must apply to a genuinely 0-or-1-sized collection.
	if u, ok := e.(*expr.UnaryExpr); ok && u.Op == expr.OpThe {
		length := collectionLength(u.X)
		valid, err := f.Solver.Valid(f.Ctx, solver.Implies(f.Assumptions, solver.Le(length, &expr.Num{Val: 1})))
		if err != nil || !valid {
			return false
		}
		zero := solver.Equal(length, &expr.Num{Val: 0})
		sat, err := f.Solver.Satisfiable(f.Ctx, solver.All([]expr.Expr{f.Assumptions, zero}))
		if err != nil || !sat {
			return false
		}
		one := solver.Equal(length, &expr.Num{Val: 1})
		sat, err = f.Solver.Satisfiable(f.Ctx, solver.All([]expr.Expr{f.Assumptions, one}))
		if err != nil || !sat {
			return false
		}
	}

	// Criterion 5: a Filter must actually filter something out.
	if flt, ok := e.(*expr.Filter); ok {
		phi := solver.All([]expr.Expr{f.Assumptions, solver.Not(solver.Equal(flt, flt.Coll))})
		sat, err := f.Solver.Satisfiable(f.Ctx, phi)
		if err != nil || !sat {
			return false
		}
	}

	return true
}

func areUnique(e expr.Expr) expr.Expr {
	return &expr.UnaryExpr{Op: expr.OpAreUnique, X: e, T: expr.TBool{}}
}

// collectionLength builds sum(map(coll, \x.1)), the same "cardinality as
// an Int expression" trick the cost model's storage_size uses.
func collectionLength(coll expr.Expr) expr.Expr {
	elemT := expr.ElemType(coll.ExprType())
	v := expr.FreshVar(elemT, expr.FreeVarIDs(coll))
	mapped := &expr.MapExpr{
		Coll: coll,
		Fn:   &expr.Lambda{Arg: v, Body: &expr.Num{Val: 1}},
		T:    expr.TBag{T: expr.TInt{}},
	}
	return &expr.UnaryExpr{Op: expr.OpSum, X: mapped, T: expr.TInt{}}
}

// FixupBinders rewrites every Lambda in e onto the pool binders, exactly
// as every candidate already passes through inside Build. The CEGIS
// driver calls this once on its starting target before the search loop
// begins, mirroring core.py's improve() calling fixup_binders(target,
// binders) up front.
func FixupBinders(e expr.Expr, binders []*expr.Var) (expr.Expr, error) {
	return fixupBinders(e, binders)
}

// fixupBinders rewrites every Lambda in e so its argument is drawn from
// binders: a lambda already bound to a pool binder is left alone; if no
// pool binder matches its argument's type the lambda is assumed to never
// be used in isolation and is also left alone; otherwise the lambda is
// rebound to an unused same-typed pool binder, substituting it through
// the body. Returns an error (candidate rejected, not a program error)
// when the lambda needs rebinding but every matching binder is already
// captured by the body's free variables.
func fixupBinders(e expr.Expr, binders []*expr.Var) (expr.Expr, error) {
	switch n := e.(type) {
	case *expr.Num, *expr.BoolLit, *expr.StrLit, *expr.EnumEntry, *expr.EmptyList, *expr.Var:
		return n, nil
	case *expr.Singleton:
		x, err := fixupBinders(n.E, binders)
		if err != nil {
			return nil, err
		}
		return &expr.Singleton{E: x, CollT: n.CollT}, nil
	case *expr.StateVar:
		x, err := fixupBinders(n.E, binders)
		if err != nil {
			return nil, err
		}
		return &expr.StateVar{E: x}, nil
	case *expr.Lambda:
		return fixupLambda(n, binders)
	case *expr.Call:
		args := make([]expr.Expr, len(n.Args))
		for i, a := range n.Args {
			x, err := fixupBinders(a, binders)
			if err != nil {
				return nil, err
			}
			args[i] = x
		}
		return &expr.Call{Name: n.Name, Args: args, T: n.T}, nil
	case *expr.UnaryExpr:
		x, err := fixupBinders(n.X, binders)
		if err != nil {
			return nil, err
		}
		return &expr.UnaryExpr{Op: n.Op, X: x, T: n.T}, nil
	case *expr.BinaryExpr:
		x, err := fixupBinders(n.X, binders)
		if err != nil {
			return nil, err
		}
		y, err := fixupBinders(n.Y, binders)
		if err != nil {
			return nil, err
		}
		return &expr.BinaryExpr{Op: n.Op, X: x, Y: y, T: n.T}, nil
	case *expr.Filter:
		coll, err := fixupBinders(n.Coll, binders)
		if err != nil {
			return nil, err
		}
		pred, err := fixupLambda(n.Pred, binders)
		if err != nil {
			return nil, err
		}
		return &expr.Filter{Coll: coll, Pred: pred.(*expr.Lambda)}, nil
	case *expr.MapExpr:
		coll, err := fixupBinders(n.Coll, binders)
		if err != nil {
			return nil, err
		}
		fn, err := fixupLambda(n.Fn, binders)
		if err != nil {
			return nil, err
		}
		return &expr.MapExpr{Coll: coll, Fn: fn.(*expr.Lambda), T: n.T}, nil
	case *expr.FlatMap:
		coll, err := fixupBinders(n.Coll, binders)
		if err != nil {
			return nil, err
		}
		fn, err := fixupLambda(n.Fn, binders)
		if err != nil {
			return nil, err
		}
		return &expr.FlatMap{Coll: coll, Fn: fn.(*expr.Lambda), T: n.T}, nil
	case *expr.Flatten:
		coll, err := fixupBinders(n.Coll, binders)
		if err != nil {
			return nil, err
		}
		return &expr.Flatten{Coll: coll, T: n.T}, nil
	case *expr.ArgMin:
		coll, err := fixupBinders(n.Coll, binders)
		if err != nil {
			return nil, err
		}
		fn, err := fixupLambda(n.Fn, binders)
		if err != nil {
			return nil, err
		}
		return &expr.ArgMin{Coll: coll, Fn: fn.(*expr.Lambda)}, nil
	case *expr.ArgMax:
		coll, err := fixupBinders(n.Coll, binders)
		if err != nil {
			return nil, err
		}
		fn, err := fixupLambda(n.Fn, binders)
		if err != nil {
			return nil, err
		}
		return &expr.ArgMax{Coll: coll, Fn: fn.(*expr.Lambda)}, nil
	case *expr.MakeMap2:
		coll, err := fixupBinders(n.Coll, binders)
		if err != nil {
			return nil, err
		}
		val, err := fixupLambda(n.Value, binders)
		if err != nil {
			return nil, err
		}
		return &expr.MakeMap2{Coll: coll, Value: val.(*expr.Lambda)}, nil
	case *expr.MapGet:
		m, err := fixupBinders(n.M, binders)
		if err != nil {
			return nil, err
		}
		k, err := fixupBinders(n.Key, binders)
		if err != nil {
			return nil, err
		}
		return &expr.MapGet{M: m, Key: k}, nil
	case *expr.MapKeys:
		m, err := fixupBinders(n.M, binders)
		if err != nil {
			return nil, err
		}
		return &expr.MapKeys{M: m}, nil
	case *expr.HasKey:
		m, err := fixupBinders(n.M, binders)
		if err != nil {
			return nil, err
		}
		k, err := fixupBinders(n.Key, binders)
		if err != nil {
			return nil, err
		}
		return &expr.HasKey{M: m, Key: k}, nil
	case *expr.TupleExpr:
		elems := make([]expr.Expr, len(n.Elems))
		for i, x := range n.Elems {
			y, err := fixupBinders(x, binders)
			if err != nil {
				return nil, err
			}
			elems[i] = y
		}
		return &expr.TupleExpr{Elems: elems}, nil
	case *expr.TupleGet:
		x, err := fixupBinders(n.E, binders)
		if err != nil {
			return nil, err
		}
		return &expr.TupleGet{E: x, I: n.I}, nil
	case *expr.GetField:
		x, err := fixupBinders(n.E, binders)
		if err != nil {
			return nil, err
		}
		return &expr.GetField{E: x, Field: n.Field}, nil
	case *expr.Cond:
		c, err := fixupBinders(n.C, binders)
		if err != nil {
			return nil, err
		}
		then, err := fixupBinders(n.Then, binders)
		if err != nil {
			return nil, err
		}
		els, err := fixupBinders(n.Else, binders)
		if err != nil {
			return nil, err
		}
		return &expr.Cond{C: c, Then: then, Else: els}, nil
	default:
		panic(fmt.Sprintf("builder: unhandled Expr variant %T in fixupBinders", e))
	}
}

func fixupLambda(lam *expr.Lambda, binders []*expr.Var) (expr.Expr, error) {
	body, err := fixupBinders(lam.Body, binders)
	if err != nil {
		return nil, err
	}

	if containsVar(binders, lam.Arg) {
		return &expr.Lambda{Arg: lam.Arg, Body: body}, nil
	}

	anyBinderOfType := false
	for _, b := range binders {
		if expr.TypesEqual(b.T, lam.Arg.T) {
			anyBinderOfType = true
			break
		}
	}
	if !anyBinderOfType {
		// Assume, as the original does, that this lambda's body never
		// appears evaluated in isolation outside its parent combinator.
		return &expr.Lambda{Arg: lam.Arg, Body: body}, nil
	}

	fvs := expr.FreeVars(body)
	for _, cand := range binders {
		if !expr.TypesEqual(cand.T, lam.Arg.T) {
			continue
		}
		if _, captured := fvs[cand.ID]; captured {
			continue
		}
		return &expr.Lambda{Arg: cand, Body: expr.Rename(body, lam.Arg.ID, cand)}, nil
	}
	return nil, fmt.Errorf("builder: no legal binder of type %s for %s", lam.Arg.T, lam)
}

func containsVar(vars []*expr.Var, v *expr.Var) bool {
	for _, x := range vars {
		if x == v || x.ID == v.ID {
			return true
		}
	}
	return false
}
