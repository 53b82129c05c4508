package builder

import (
	"context"
	"testing"

	"github.com/exprsynth/synth/internal/expr"
	"github.com/exprsynth/synth/internal/solver"
)

func TestFixupBindersRebindsToPoolBinder(t *testing.T) {
	binder := &expr.Var{ID: "b", T: expr.TInt{}}
	arg := &expr.Var{ID: "e", T: expr.TInt{}}
	lam := &expr.Lambda{Arg: arg, Body: arg}

	out, err := FixupBinders(lam, []*expr.Var{binder})
	if err != nil {
		t.Fatalf("FixupBinders: %v", err)
	}
	got := out.(*expr.Lambda)
	if got.Arg != binder {
		t.Fatalf("FixupBinders should rebind the lambda's argument to the pool binder, got %s", got.Arg.ID)
	}
	if body, ok := got.Body.(*expr.Var); !ok || body.ID != binder.ID {
		t.Fatalf("FixupBinders should substitute the binder through the body, got %s", got.Body)
	}
}

func TestFixupBindersLeavesAlreadyBoundLambdaAlone(t *testing.T) {
	binder := &expr.Var{ID: "b", T: expr.TInt{}}
	lam := &expr.Lambda{Arg: binder, Body: binder}
	out, err := FixupBinders(lam, []*expr.Var{binder})
	if err != nil {
		t.Fatalf("FixupBinders: %v", err)
	}
	if out.(*expr.Lambda).Arg != binder {
		t.Fatalf("a lambda already bound to a pool binder should be left alone")
	}
}

func TestFixupBindersErrorsWhenNoBinderAvailable(t *testing.T) {
	outer := &expr.Var{ID: "b1", T: expr.TInt{}}
	arg := &expr.Var{ID: "e", T: expr.TInt{}}
	// Lambda's body captures the only same-typed binder, so it cannot be
	// rebound onto it without capturing a name the body already uses free.
	lam := &expr.Lambda{Arg: arg, Body: &expr.BinaryExpr{Op: expr.OpAdd, X: arg, Y: outer, T: expr.TInt{}}}
	_, err := FixupBinders(lam, []*expr.Var{outer})
	if err == nil {
		t.Fatalf("FixupBinders should error when every same-typed binder is captured by the lambda body")
	}
}

func TestFixedBuilderRejectsNonFilteringFilter(t *testing.T) {
	s := solver.NewLocalSolver()
	xs := &expr.Var{ID: "xs", T: expr.TBag{T: expr.TInt{}}}
	arg := &expr.Var{ID: "e", T: expr.TInt{}}
	// A predicate that is always true: Filter(xs, \e.true) never actually
	// filters, so criterion 5 should reject it.
	trivialFilter := &expr.Filter{Coll: xs, Pred: &expr.Lambda{Arg: arg, Body: &expr.BoolLit{Val: true}}}

	fb := NewFixedBuilder(context.Background(), NewEnumerator(), nil, &expr.BoolLit{Val: true}, s)
	if fb.accept(trivialFilter) {
		t.Fatalf("FixedBuilder should reject a Filter whose predicate is always true")
	}
}
