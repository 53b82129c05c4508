package cost

import (
	"context"
	"testing"

	"github.com/exprsynth/synth/internal/config"
	"github.com/exprsynth/synth/internal/expr"
	"github.com/exprsynth/synth/internal/solver"
)

func newTestModel() *Model {
	return NewModel(solver.NewLocalSolver(), config.Default())
}

func TestCompareClosedIntsConstantFolds(t *testing.T) {
	cm := newTestModel()
	e1 := &expr.Num{Val: 1}
	e2 := &expr.Num{Val: 2}
	order, err := cm.compareInt(context.Background(), Context{}, e1, e2)
	if err != nil {
		t.Fatalf("compareInt: %v", err)
	}
	if order != LT {
		t.Fatalf("compareInt(1,2) = %v, want LT", order)
	}
}

func TestCompareAlphaEquivalentIsEQ(t *testing.T) {
	cm := newTestModel()
	x := &expr.Var{ID: "x", T: expr.TInt{}}
	y := &expr.Var{ID: "x", T: expr.TInt{}}
	order, err := cm.compareInt(context.Background(), Context{}, x, y)
	if err != nil {
		t.Fatalf("compareInt: %v", err)
	}
	if order != EQ {
		t.Fatalf("compareInt(x,x) = %v, want EQ", order)
	}
}

func TestCompareFilterNeverCheaperThanSource(t *testing.T) {
	cm := newTestModel()
	xs := &expr.Var{ID: "xs", T: expr.TBag{T: expr.TInt{}}}
	arg := &expr.Var{ID: "e", T: expr.TInt{}}
	filtered := &expr.Filter{
		Coll: xs,
		Pred: &expr.Lambda{Arg: arg, Body: &expr.BinaryExpr{Op: expr.OpGt, X: arg, Y: &expr.Num{Val: 0}, T: expr.TBool{}}},
	}
	// Filter(xs, pred) scans every element of xs and runs pred on it, so
	// its runtime cost is never below that of reading xs itself.
	order, err := cm.Compare(context.Background(), Context{}, filtered, xs, RUNTIME)
	if err != nil {
		t.Fatalf("Compare: %v", err)
	}
	if order == LT {
		t.Fatalf("Filter(xs, pred) should never have strictly lower cost than xs itself under this model, got LT")
	}
}

func TestCompareEqualExpressionsAreEQ(t *testing.T) {
	cm := newTestModel()
	xs := &expr.Var{ID: "xs", T: expr.TBag{T: expr.TInt{}}}
	order, err := cm.Compare(context.Background(), Context{}, xs, xs, RUNTIME)
	if err != nil {
		t.Fatalf("Compare: %v", err)
	}
	if order != EQ {
		t.Fatalf("Compare(xs, xs) = %v, want EQ", order)
	}
}

func TestIsMonotonic(t *testing.T) {
	cm := newTestModel()
	if !cm.IsMonotonic() {
		t.Fatalf("cost model must be monotonic (every cost term is a sum/max, never a subtraction)")
	}
}
