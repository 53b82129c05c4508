package builder

import "github.com/exprsynth/synth/internal/expr"

// buildCombinators yields every Filter/Map/FlatMap/ArgMin/ArgMax/MakeMap2
// of exactly budget+1 total size: a collection at some size collSize, and
// a lambda body of size budget-collSize that treats a fresh bound
// variable of the collection's element type as an available size-1 leaf
// (see termsOf/build's extraRoots threading).
func (b *Enumerator) buildCombinators(cache *Cache, extraRoots []expr.Expr, budget int, yield func(expr.Expr) bool) bool {
	for collSize := 1; collSize <= budget-1; collSize++ {
		bodySize := budget - collSize
		for _, coll := range collectionsOf(cache, extraRoots, collSize) {
			elemT := expr.ElemType(coll.ExprType())
			boundVar := expr.FreshVar(elemT, expr.FreeVarIDs(coll))
			innerRoots := append(append([]expr.Expr{}, extraRoots...), boundVar)

			for body := range b.build(cache, innerRoots, bodySize) {
				bodyT := body.ExprType()
				switch bodyT.(type) {
				case expr.TBool:
					lam := &expr.Lambda{Arg: boundVar, Body: body}
					if !yield(&expr.Filter{Coll: coll, Pred: lam}) {
						return false
					}
				case expr.TInt:
					lam := &expr.Lambda{Arg: boundVar, Body: body}
					if !yield(&expr.ArgMin{Coll: coll, Fn: lam}) {
						return false
					}
					if !yield(&expr.ArgMax{Coll: coll, Fn: lam}) {
						return false
					}
				}
				if expr.IsCollection(bodyT) {
					lam := &expr.Lambda{Arg: boundVar, Body: body}
					resultT := expr.TBag{T: expr.ElemType(bodyT)}
					if !yield(&expr.FlatMap{Coll: coll, Fn: lam, T: resultT}) {
						return false
					}
				}

				mapLam := &expr.Lambda{Arg: boundVar, Body: body}
				mapT := mapResultType(coll.ExprType(), body.ExprType())
				if !yield(&expr.MapExpr{Coll: coll, Fn: mapLam, T: mapT}) {
					return false
				}
				if !yield(&expr.MakeMap2{Coll: coll, Value: mapLam}) {
					return false
				}
			}
		}
	}
	return true
}

// buildMapOps yields MapGet/MapKeys/HasKey over every cached Map-typed
// term, of exactly budget+1 total size: a Map at some size mapSize and,
// for MapGet/HasKey, a key of the map's key type at the remaining size.
func (b *Enumerator) buildMapOps(cache *Cache, extraRoots []expr.Expr, budget int, yield func(expr.Expr) bool) bool {
	for mapSize := 1; mapSize <= budget; mapSize++ {
		for _, m := range cache.ByTagAndSize("Map", mapSize) {
			if mapSize == budget {
				if !yield(&expr.MapKeys{M: m}) {
					return false
				}
			}
			keySize := budget - mapSize
			if keySize < 1 {
				continue
			}
			mt := m.ExprType().(expr.TMap)
			for _, k := range termsOf(cache, extraRoots, mt.K, keySize) {
				if !yield(&expr.MapGet{M: m, Key: k}) {
					return false
				}
				if !yield(&expr.HasKey{M: m, Key: k}) {
					return false
				}
			}
		}
	}
	return true
}

// buildFlatten yields Flatten over every cached collection-of-collections
// term of exactly budget size (the Flatten node makes the result
// budget+1, like every other production).
func (b *Enumerator) buildFlatten(cache *Cache, extraRoots []expr.Expr, budget int, yield func(expr.Expr) bool) bool {
	for _, coll := range collectionsOf(cache, extraRoots, budget) {
		inner := expr.ElemType(coll.ExprType())
		if !expr.IsCollection(inner) {
			continue
		}
		if !yield(&expr.Flatten{Coll: coll, T: expr.TBag{T: expr.ElemType(inner)}}) {
			return false
		}
	}
	return true
}

// mapResultType builds the Map combinator's result type: same collection
// kind as collT, carrying elemT as its element type.
func mapResultType(collT expr.Type, elemT expr.Type) expr.Type {
	switch collT.(type) {
	case expr.TSet:
		return expr.TSet{T: elemT}
	case expr.TList:
		return expr.TList{T: elemT}
	default:
		return expr.TBag{T: elemT}
	}
}

// buildStructural yields Cond, Singleton, TupleExpr/TupleGet, GetField,
// and StateVar candidates of exactly budget+1 total size.
func (b *Enumerator) buildStructural(cache *Cache, extraRoots []expr.Expr, budget int, yield func(expr.Expr) bool) bool {
	// Cond: C(condSize) ? Then(thenSize) : Else(elseSize), all three types
	// matched between Then and Else.
	for condSize := 1; condSize <= budget-2; condSize++ {
		rest := budget - condSize
		for thenSize := 1; thenSize <= rest-1; thenSize++ {
			elseSize := rest - thenSize
			conds := termsOf(cache, extraRoots, expr.TBool{}, condSize)
			if len(conds) == 0 {
				continue
			}
			thens := allTermsOf(cache, extraRoots, thenSize)
			elses := allTermsOf(cache, extraRoots, elseSize)
			for _, c := range conds {
				for _, t := range thens {
					for _, e := range elses {
						if !expr.TypesEqual(t.ExprType(), e.ExprType()) {
							continue
						}
						if !yield(&expr.Cond{C: c, Then: t, Else: e}) {
							return false
						}
					}
				}
			}
		}
	}

	// Singleton: wrap a size-budget element into a one-element Bag/Set/List.
	for _, elemType := range eqTypes() {
		for _, e := range termsOf(cache, extraRoots, elemType, budget) {
			if !yield(&expr.Singleton{E: e, CollT: expr.TBag{T: elemType}}) {
				return false
			}
			if !yield(&expr.Singleton{E: e, CollT: expr.TSet{T: elemType}}) {
				return false
			}
			if !yield(&expr.Singleton{E: e, CollT: expr.TList{T: elemType}}) {
				return false
			}
		}
	}

	// TupleGet / GetField: project out of a cached Tuple/Record of exactly
	// budget size (the projection node makes the result budget+1).
	for _, e := range cache.ByTagAndSize("Tuple", budget) {
		tt := e.ExprType().(expr.TTuple)
		for i := range tt.Ts {
			if !yield(&expr.TupleGet{E: e, I: i}) {
				return false
			}
		}
	}
	for _, e := range cache.ByTagAndSize("Record", budget) {
		rt := e.ExprType().(expr.TRecord)
		for _, f := range rt.Fields {
			if !yield(&expr.GetField{E: e, Field: f.Name}) {
				return false
			}
		}
	}

	// TupleExpr: pair two components whose sizes sum to budget.
	for leftSize := 1; leftSize <= budget-1; leftSize++ {
		rightSize := budget - leftSize
		for _, x := range allTermsOf(cache, extraRoots, leftSize) {
			for _, y := range allTermsOf(cache, extraRoots, rightSize) {
				if !yield(&expr.TupleExpr{Elems: []expr.Expr{x, y}}) {
					return false
				}
			}
		}
	}

	// StateVar: mark a cached expression as materialized state.
	for _, e := range allTermsOf(cache, extraRoots, budget) {
		if _, already := e.(*expr.StateVar); already {
			continue
		}
		if !yield(&expr.StateVar{E: e}) {
			return false
		}
	}

	return true
}

// allTermsOf returns every available term of any type at exactly sz.
func allTermsOf(cache *Cache, extraRoots []expr.Expr, sz int) []expr.Expr {
	var out []expr.Expr
	if sz == 1 {
		out = append(out, extraRoots...)
		out = append(out, literalAtoms()...)
	}
	for ce := range cache.All() {
		if ce.Size == sz {
			out = append(out, ce.E)
		}
	}
	return out
}
