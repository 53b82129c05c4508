package expr

import "testing"

func TestSize(t *testing.T) {
	x := &Var{ID: "x", T: TInt{}}
	e := &BinaryExpr{Op: OpAdd, X: x, Y: &Num{Val: 1}, T: TInt{}}
	if got := Size(e); got != 3 {
		t.Fatalf("Size(x+1) = %d, want 3", got)
	}
	if got := Size(&Num{Val: 0}); got != 1 {
		t.Fatalf("Size(literal) = %d, want 1", got)
	}
}

func TestFreeVarsExcludesLambdaArg(t *testing.T) {
	arg := &Var{ID: "x", T: TInt{}}
	outer := &Var{ID: "y", T: TInt{}}
	lam := &Lambda{Arg: arg, Body: &BinaryExpr{Op: OpAdd, X: arg, Y: outer, T: TInt{}}}

	fv := FreeVars(lam)
	if _, ok := fv["x"]; ok {
		t.Fatalf("FreeVars(\\x.x+y) should not contain bound x")
	}
	if _, ok := fv["y"]; !ok {
		t.Fatalf("FreeVars(\\x.x+y) should contain free y")
	}
}

func TestSubstRenamesCapturingBinder(t *testing.T) {
	arg := &Var{ID: "x", T: TInt{}}
	y := &Var{ID: "y", T: TInt{}}
	lam := &Lambda{Arg: arg, Body: arg}

	out := Subst(lam, map[string]Expr{"dummy": y}).(*Lambda)
	if out.Arg.ID != "x" {
		t.Fatalf("substitution with no relevant mapping should not rename binder")
	}

	// Substituting z -> x inside \x.z+x must rename the binder so the
	// incoming x doesn't get captured by \x.
	z := &Var{ID: "z", T: TInt{}}
	lam2 := &Lambda{Arg: arg, Body: &BinaryExpr{Op: OpAdd, X: z, Y: arg, T: TInt{}}}
	out2 := Subst(lam2, map[string]Expr{"z": &Var{ID: "x", T: TInt{}}}).(*Lambda)
	if out2.Arg.ID == "x" {
		t.Fatalf("Subst should alpha-rename binder x to avoid capturing substituted x, got body %s", out2)
	}
	bodyFree := FreeVars(out2.Body)
	if _, ok := bodyFree["x"]; !ok {
		t.Fatalf("substituted x should remain free in renamed body, got %s", out2.Body)
	}
}

func TestSubstPanicsOnTypeChange(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("Subst should panic when a replacement changes a variable's type")
		}
	}()
	x := &Var{ID: "x", T: TInt{}}
	Subst(x, map[string]Expr{"x": &StrLit{Val: "oops"}})
}

func TestAlphaEquivalentIgnoresBinderNames(t *testing.T) {
	a := &Lambda{Arg: &Var{ID: "x", T: TInt{}}, Body: &Var{ID: "x", T: TInt{}}}
	b := &Lambda{Arg: &Var{ID: "q", T: TInt{}}, Body: &Var{ID: "q", T: TInt{}}}
	if !AlphaEquivalent(a, b) {
		t.Fatalf("\\x.x and \\q.q should be alpha-equivalent")
	}
	c := &Lambda{Arg: &Var{ID: "q", T: TInt{}}, Body: &Num{Val: 0}}
	if AlphaEquivalent(a, c) {
		t.Fatalf("\\x.x and \\q.0 should not be alpha-equivalent")
	}
}

func TestReplaceRewritesEverySubtree(t *testing.T) {
	x := &Var{ID: "x", T: TInt{}}
	one := &Num{Val: 1}
	e := &BinaryExpr{Op: OpAdd, X: x, Y: x, T: TInt{}}

	out := Replace(e, x, one).(*BinaryExpr)
	if _, ok := out.X.(*Num); !ok {
		t.Fatalf("Replace should rewrite left occurrence of x")
	}
	if _, ok := out.Y.(*Num); !ok {
		t.Fatalf("Replace should rewrite right occurrence of x")
	}
}

func TestTypesEqual(t *testing.T) {
	a := TBag{T: TInt{}}
	b := TBag{T: TInt{}}
	c := TSet{T: TInt{}}
	if !TypesEqual(a, b) {
		t.Fatalf("Bag(Int) should equal Bag(Int)")
	}
	if TypesEqual(a, c) {
		t.Fatalf("Bag(Int) should not equal Set(Int)")
	}
}

func TestAllSubexpsPreOrder(t *testing.T) {
	x := &Var{ID: "x", T: TInt{}}
	e := &UnaryExpr{Op: OpNot, X: x, T: TBool{}}
	var got []Expr
	for sub := range AllSubexps(e) {
		got = append(got, sub)
	}
	if len(got) != 2 || got[0] != Expr(e) || got[1] != Expr(x) {
		t.Fatalf("AllSubexps should yield e then its child in pre-order, got %v", got)
	}
}
