package cost

import "github.com/exprsynth/synth/internal/expr"

func num(n int64) expr.Expr { return &expr.Num{Val: n} }

// sumExprs builds a symbolic Int sum of es, folding every Num-literal term
// into a single constant instead of emitting it as N separate additions —
// mirrors cozy's ESum constant-folding pass.
func sumExprs(es []expr.Expr) expr.Expr {
	var nonConst []expr.Expr
	var constSum int64
	for _, e := range es {
		if n, ok := e.(*expr.Num); ok {
			constSum += n.Val
			continue
		}
		nonConst = append(nonConst, e)
	}
	if len(nonConst) == 0 {
		return num(constSum)
	}
	out := nonConst[0]
	for _, e := range nonConst[1:] {
		out = &expr.BinaryExpr{Op: expr.OpAdd, X: out, Y: e, T: expr.TInt{}}
	}
	if constSum != 0 {
		out = &expr.BinaryExpr{Op: expr.OpAdd, X: out, Y: num(constSum), T: expr.TInt{}}
	}
	return out
}

// intBag is the collection type cost terms are accumulated into before
// reduction by Sum or ArgMax.
var intBag = expr.TBag{T: expr.TInt{}}

func singleton(e expr.Expr) expr.Expr {
	return &expr.Singleton{E: e, CollT: intBag}
}

// concatSingletons builds the bag union of one-element bags, i.e. a bag
// literal containing exactly es, in declaration order (order is
// irrelevant — Bag is a multiset).
func concatSingletons(es []expr.Expr) expr.Expr {
	if len(es) == 0 {
		return &expr.EmptyList{T: intBag}
	}
	out := singleton(es[0])
	for _, e := range es[1:] {
		out = &expr.BinaryExpr{Op: expr.OpAdd, X: out, Y: singleton(e), T: intBag}
	}
	return out
}

// maxOf builds the symbolic maximum of es: the empty case is 0, a single
// term is returned unwrapped, otherwise an ArgMax over the literal bag of
// terms (mirrors cozy's max_of).
func maxOf(es ...expr.Expr) expr.Expr {
	switch len(es) {
	case 0:
		return num(0)
	case 1:
		return es[0]
	}
	parts := concatSingletons(es)
	x := expr.FreshVar(expr.TInt{}, nil)
	return &expr.ArgMax{Coll: parts, Fn: &expr.Lambda{Arg: x, Body: x}}
}
