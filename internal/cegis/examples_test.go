package cegis

import (
	"testing"

	"github.com/exprsynth/synth/internal/eval"
	"github.com/exprsynth/synth/internal/expr"
	"github.com/exprsynth/synth/internal/solver"
)

func TestInstantiateExamplesDrawsFromCollection(t *testing.T) {
	xs := &expr.Var{ID: "xs", T: expr.TBag{T: expr.TInt{}}}
	binder := &expr.Var{ID: "b", T: expr.TInt{}}
	examples := []solver.Model{
		{"xs": eval.Bag{Elems: []eval.Value{eval.Int{Val: 1}, eval.Int{Val: 2}}}},
	}

	out := InstantiateExamples(examples, []*expr.Var{xs}, []*expr.Var{binder})
	if len(out) != 2 {
		t.Fatalf("InstantiateExamples should fan out one example per distinct element value, got %d", len(out))
	}
	seen := map[int64]bool{}
	for _, ex := range out {
		v, ok := ex[binder.ID]
		if !ok {
			t.Fatalf("every instantiated example should bind the binder")
		}
		seen[v.(eval.Int).Val] = true
	}
	if !seen[1] || !seen[2] {
		t.Fatalf("instantiated examples should cover both bag elements, got %v", seen)
	}
}

func TestInstantiateExamplesFallsBackToDefault(t *testing.T) {
	binder := &expr.Var{ID: "b", T: expr.TInt{}}
	examples := []solver.Model{{}}
	out := InstantiateExamples(examples, nil, []*expr.Var{binder})
	if len(out) != 1 {
		t.Fatalf("with no candidate values, InstantiateExamples should still produce exactly one example per input, got %d", len(out))
	}
	if out[0][binder.ID].(eval.Int).Val != 0 {
		t.Fatalf("binder should fall back to the type default (0), got %v", out[0][binder.ID])
	}
}

func TestInstantiateExamplesLeavesAlreadyBoundBinder(t *testing.T) {
	binder := &expr.Var{ID: "b", T: expr.TInt{}}
	examples := []solver.Model{{"b": eval.Int{Val: 99}}}
	out := InstantiateExamples(examples, nil, []*expr.Var{binder})
	if len(out) != 1 || out[0][binder.ID].(eval.Int).Val != 99 {
		t.Fatalf("an example that already binds the binder should pass through unchanged, got %v", out)
	}
}

func TestUnionFreeVarsAndIntroducesOutOfScopeVar(t *testing.T) {
	x := &expr.Var{ID: "x", T: expr.TInt{}}
	y := &expr.Var{ID: "y", T: expr.TInt{}}
	vars := unionFreeVars(x, &expr.BinaryExpr{Op: expr.OpAdd, X: x, Y: y, T: expr.TInt{}})
	if len(vars) != 2 {
		t.Fatalf("unionFreeVars should collect every distinct free var across all exprs, got %d", len(vars))
	}

	scope := map[string]*expr.Var{"x": x}
	if !introducesOutOfScopeVar(y, scope) {
		t.Fatalf("y should be reported out of scope when only x is in scope")
	}
	if introducesOutOfScopeVar(x, scope) {
		t.Fatalf("x should not be reported out of scope when it is in scope")
	}
}
