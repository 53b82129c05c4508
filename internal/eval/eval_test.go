package eval

import (
	"testing"

	"github.com/exprsynth/synth/internal/expr"
)

func TestEvalArithmetic(t *testing.T) {
	ev := New()
	e := &expr.BinaryExpr{Op: expr.OpAdd, X: &expr.Num{Val: 2}, Y: &expr.Num{Val: 3}, T: expr.TInt{}}
	got := ev.Eval(e, NewEnv(nil))
	if got.(Int).Val != 5 {
		t.Fatalf("2+3 = %v, want 5", got)
	}
}

func TestEvalVarLookup(t *testing.T) {
	ev := New()
	env := NewEnv(map[string]Value{"x": Int{Val: 7}})
	got := ev.Eval(&expr.Var{ID: "x", T: expr.TInt{}}, env)
	if got.(Int).Val != 7 {
		t.Fatalf("var lookup = %v, want 7", got)
	}
}

func TestEvalUnboundVarPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("evaluating an unbound variable should panic")
		}
	}()
	New().Eval(&expr.Var{ID: "missing", T: expr.TInt{}}, NewEnv(nil))
}

func TestEvalFilter(t *testing.T) {
	ev := New()
	coll := Bag{Elems: []Value{Int{Val: 1}, Int{Val: 2}, Int{Val: 3}, Int{Val: 4}}}
	env := NewEnv(map[string]Value{"xs": coll})
	arg := &expr.Var{ID: "e", T: expr.TInt{}}
	pred := &expr.Lambda{Arg: arg, Body: &expr.BinaryExpr{Op: expr.OpGt, X: arg, Y: &expr.Num{Val: 2}, T: expr.TBool{}}}
	filter := &expr.Filter{Coll: &expr.Var{ID: "xs", T: expr.TBag{T: expr.TInt{}}}, Pred: pred}

	got := ev.Eval(filter, env).(Bag)
	if len(got.Elems) != 2 {
		t.Fatalf("Filter(xs, e>2) = %v, want 2 elements", got)
	}
}

func TestEvalArgMinOnEmptyReturnsDefault(t *testing.T) {
	ev := New()
	env := NewEnv(map[string]Value{"xs": Bag{}})
	arg := &expr.Var{ID: "e", T: expr.TInt{}}
	argMin := &expr.ArgMin{
		Coll: &expr.Var{ID: "xs", T: expr.TBag{T: expr.TInt{}}},
		Fn:   &expr.Lambda{Arg: arg, Body: arg},
	}
	got := ev.Eval(argMin, env)
	if got.(Int).Val != 0 {
		t.Fatalf("ArgMin on empty bag = %v, want Int{0}", got)
	}
}

func TestEvalCondShortCircuits(t *testing.T) {
	ev := New()
	cond := &expr.Cond{
		C:    &expr.BoolLit{Val: true},
		Then: &expr.Num{Val: 1},
		Else: &expr.Var{ID: "unbound", T: expr.TInt{}},
	}
	got := ev.Eval(cond, NewEnv(nil))
	if got.(Int).Val != 1 {
		t.Fatalf("Cond(true, 1, unbound) = %v, want 1 (else branch unevaluated)", got)
	}
}

func TestEvalBulkUsesDefaultsForUndefinedVars(t *testing.T) {
	ev := New()
	e := &expr.Var{ID: "x", T: expr.TInt{}}
	got := ev.EvalBulk(e, []*Env{NewEnv(nil)}, true)
	if got[0].(Int).Val != 0 {
		t.Fatalf("EvalBulk with useDefaults should resolve missing x to 0, got %v", got[0])
	}
}

func TestBagEqualityIgnoresOrder(t *testing.T) {
	a := Bag{Elems: []Value{Int{Val: 1}, Int{Val: 2}}}
	b := Bag{Elems: []Value{Int{Val: 2}, Int{Val: 1}}}
	if !a.Equal(b) {
		t.Fatalf("Bag{1,2} should equal Bag{2,1}")
	}
	if a.Hash() != b.Hash() {
		t.Fatalf("equal bags must hash identically")
	}
}

func TestListEqualityRespectsOrder(t *testing.T) {
	a := List{Elems: []Value{Int{Val: 1}, Int{Val: 2}}}
	b := List{Elems: []Value{Int{Val: 2}, Int{Val: 1}}}
	if a.Equal(b) {
		t.Fatalf("List{1,2} should not equal List{2,1}")
	}
}

func TestHandleEqualityVsIdentity(t *testing.T) {
	h1 := Handle{ID: NextHandleID(), Val: Int{Val: 1}}
	h2 := Handle{ID: NextHandleID(), Val: Int{Val: 1}}
	if !h1.Equal(h2) {
		t.Fatalf("handles wrapping equal values should be == equal")
	}
	if HandleIdentityEqual(h1, h2) {
		t.Fatalf("distinct handles should not be === identical")
	}
}

func TestDefaultValueCollections(t *testing.T) {
	if v := DefaultValue(expr.TSet{T: expr.TInt{}}); v.(Set).Elems != nil {
		t.Fatalf("default Set should be empty")
	}
	if v := DefaultValue(expr.TTuple{Ts: []expr.Type{expr.TInt{}, expr.TBool{}}}); len(v.(Tuple).Elems) != 2 {
		t.Fatalf("default Tuple(Int,Bool) should have 2 elements")
	}
}
