package builder

import "github.com/exprsynth/synth/internal/expr"

// buildUnary yields every UnaryExpr of exactly budget+1 total size whose
// single child occupies all of budget. Returns false if yield asked to
// stop.
func (b *Enumerator) buildUnary(cache *Cache, extraRoots []expr.Expr, budget int, yield func(expr.Expr) bool) bool {
	for _, x := range termsOf(cache, extraRoots, expr.TBool{}, budget) {
		if !yield(&expr.UnaryExpr{Op: expr.OpNot, X: x, T: expr.TBool{}}) {
			return false
		}
	}
	for _, x := range collectionsOf(cache, extraRoots, budget) {
		elemT := expr.ElemType(x.ExprType())

		if _, ok := elemT.(expr.TInt); ok {
			if !yield(&expr.UnaryExpr{Op: expr.OpSum, X: x, T: expr.TInt{}}) {
				return false
			}
		}
		if !yield(&expr.UnaryExpr{Op: expr.OpLength, X: x, T: expr.TInt{}}) {
			return false
		}
		if !yield(&expr.UnaryExpr{Op: expr.OpAreUnique, X: x, T: expr.TBool{}}) {
			return false
		}
		if !yield(&expr.UnaryExpr{Op: expr.OpEmpty, X: x, T: expr.TBool{}}) {
			return false
		}
		if !yield(&expr.UnaryExpr{Op: expr.OpExists, X: x, T: expr.TBool{}}) {
			return false
		}
		if !yield(&expr.UnaryExpr{Op: expr.OpDistinct, X: x, T: x.ExprType()}) {
			return false
		}
		if !yield(&expr.UnaryExpr{Op: expr.OpThe, X: x, T: elemT}) {
			return false
		}
		if _, ok := elemT.(expr.TBool); ok {
			if !yield(&expr.UnaryExpr{Op: expr.OpAll, X: x, T: expr.TBool{}}) {
				return false
			}
			if !yield(&expr.UnaryExpr{Op: expr.OpAny, X: x, T: expr.TBool{}}) {
				return false
			}
		}
		if _, ok := x.ExprType().(expr.TList); ok {
			if !yield(&expr.UnaryExpr{Op: expr.OpReversed, X: x, T: x.ExprType()}) {
				return false
			}
		}
	}
	return true
}

// eqTypes is the small pool of base types equality/comparison productions
// range over, keeping the combinatorics tractable.
func eqTypes() []expr.Type {
	return []expr.Type{expr.TInt{}, expr.TBool{}, expr.TString{}}
}

// buildBinary yields every BinaryExpr of exactly budget+1 total size.
func (b *Enumerator) buildBinary(cache *Cache, extraRoots []expr.Expr, budget int, yield func(expr.Expr) bool) bool {
	for leftSize := 1; leftSize <= budget-1; leftSize++ {
		rightSize := budget - leftSize

		xs := termsOf(cache, extraRoots, expr.TInt{}, leftSize)
		ys := termsOf(cache, extraRoots, expr.TInt{}, rightSize)
		for _, x := range xs {
			for _, y := range ys {
				for _, op := range []expr.BinaryOp{expr.OpAdd, expr.OpSub, expr.OpMul} {
					if !yield(&expr.BinaryExpr{Op: op, X: x, Y: y, T: expr.TInt{}}) {
						return false
					}
				}
				for _, op := range []expr.BinaryOp{expr.OpLt, expr.OpLe, expr.OpGt, expr.OpGe} {
					if !yield(&expr.BinaryExpr{Op: op, X: x, Y: y, T: expr.TBool{}}) {
						return false
					}
				}
			}
		}

		bxs := termsOf(cache, extraRoots, expr.TBool{}, leftSize)
		bys := termsOf(cache, extraRoots, expr.TBool{}, rightSize)
		for _, x := range bxs {
			for _, y := range bys {
				for _, op := range []expr.BinaryOp{expr.OpAnd, expr.OpOr} {
					if !yield(&expr.BinaryExpr{Op: op, X: x, Y: y, T: expr.TBool{}}) {
						return false
					}
				}
			}
		}

		for _, t := range eqTypes() {
			for _, x := range termsOf(cache, extraRoots, t, leftSize) {
				for _, y := range termsOf(cache, extraRoots, t, rightSize) {
					if !yield(&expr.BinaryExpr{Op: expr.OpEq, X: x, Y: y, T: expr.TBool{}}) {
						return false
					}
					if !yield(&expr.BinaryExpr{Op: expr.OpNeq, X: x, Y: y, T: expr.TBool{}}) {
						return false
					}
				}
			}
		}

		for _, t := range eqTypes() {
			elems := termsOf(cache, extraRoots, t, leftSize)
			if len(elems) == 0 {
				continue
			}
			for _, tag := range []string{"Bag", "Set", "List"} {
				for _, coll := range cache.ByTagAndSize(tag, rightSize) {
					if !expr.TypesEqual(expr.ElemType(coll.ExprType()), t) {
						continue
					}
					for _, x := range elems {
						if !yield(&expr.BinaryExpr{Op: expr.OpIn, X: x, Y: coll, T: expr.TBool{}}) {
							return false
						}
					}
				}
			}
		}

		// Collection union/difference: Bag/Set/List +/- another of the same
		// concrete type (spec.md's data model lists +/- as general binary
		// ops, and gives bag subtraction its own cost rule).
		for _, tag := range []string{"Bag", "Set", "List"} {
			lefts := cache.ByTagAndSize(tag, leftSize)
			rights := cache.ByTagAndSize(tag, rightSize)
			for _, x := range lefts {
				for _, y := range rights {
					if !expr.TypesEqual(x.ExprType(), y.ExprType()) {
						continue
					}
					if !yield(&expr.BinaryExpr{Op: expr.OpAdd, X: x, Y: y, T: x.ExprType()}) {
						return false
					}
					if !yield(&expr.BinaryExpr{Op: expr.OpSub, X: x, Y: y, T: x.ExprType()}) {
						return false
					}
				}
			}
		}
	}
	return true
}
