package builder

import "github.com/exprsynth/synth/internal/expr"

// ExpBuilder is the candidate builder contract (spec.md C5): given a cache
// of previously-accepted expressions and a target size, produce every
// expression of exactly that size whose strict sub-expressions are all
// already present in cache at a strictly smaller size, ported from
// cozy/synthesis/core.py's ExpBuilder.
type ExpBuilder interface {
	// Build lazily yields every candidate of exactly size.
	Build(cache *Cache, size int) func(yield func(expr.Expr) bool)
	// WithRoots returns a builder that additionally treats newRoots as
	// always-available atomic components at size 1, regardless of their
	// own structural complexity.
	WithRoots(newRoots []expr.Expr) ExpBuilder
}

// Enumerator is the base, unrestricted ExpBuilder: the grammar of
// combinators described in spec.md §3/§4.1, built bottom-up from cached
// sub-expressions. It imposes none of the FixedBuilder's five rejection
// criteria — wrap it in a FixedBuilder for that.
type Enumerator struct {
	Roots []expr.Expr
}

// NewEnumerator builds an Enumerator with no roots.
func NewEnumerator() *Enumerator {
	return &Enumerator{}
}

// WithRoots returns a new Enumerator with newRoots folded in (deduped by
// alpha-equivalence against the existing root set).
func (b *Enumerator) WithRoots(newRoots []expr.Expr) ExpBuilder {
	merged := append(append([]expr.Expr{}, b.Roots...), newRoots...)
	return &Enumerator{Roots: dedupRoots(merged)}
}

func dedupRoots(roots []expr.Expr) []expr.Expr {
	var out []expr.Expr
	for _, r := range roots {
		dup := false
		for _, o := range out {
			if expr.AlphaEquivalent(r, o) {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, r)
		}
	}
	return out
}

// literalAtoms is the small fixed pool of literal leaves available at
// every size-1 call, independent of any roots.
func literalAtoms() []expr.Expr {
	return []expr.Expr{
		&expr.Num{Val: 0},
		&expr.Num{Val: 1},
		&expr.BoolLit{Val: true},
		&expr.BoolLit{Val: false},
		&expr.StrLit{Val: ""},
	}
}

// Build yields every candidate of exactly size built from b.Roots and
// cache.
func (b *Enumerator) Build(cache *Cache, size int) func(yield func(expr.Expr) bool) {
	return b.build(cache, b.Roots, size)
}

// build is Build generalized over an extra pool of size-1 atoms
// (extraRoots), used internally to inject a combinator's bound variable
// as an available leaf while building its lambda body.
func (b *Enumerator) build(cache *Cache, extraRoots []expr.Expr, size int) func(yield func(expr.Expr) bool) {
	return func(yield func(expr.Expr) bool) {
		if size < 1 {
			return
		}
		if size == 1 {
			emitLeaves(extraRoots, yield)
			return
		}
		budget := size - 1
		if !b.buildUnary(cache, extraRoots, budget, yield) {
			return
		}
		if !b.buildBinary(cache, extraRoots, budget, yield) {
			return
		}
		if !b.buildCombinators(cache, extraRoots, budget, yield) {
			return
		}
		if !b.buildMapOps(cache, extraRoots, budget, yield) {
			return
		}
		if !b.buildFlatten(cache, extraRoots, budget, yield) {
			return
		}
		b.buildStructural(cache, extraRoots, budget, yield)
	}
}

func emitLeaves(extraRoots []expr.Expr, yield func(expr.Expr) bool) bool {
	seen := map[string]bool{}
	emit := func(e expr.Expr) bool {
		k := e.String()
		if seen[k] {
			return true
		}
		seen[k] = true
		return yield(e)
	}
	for _, r := range extraRoots {
		if !emit(r) {
			return false
		}
	}
	for _, a := range literalAtoms() {
		if !emit(a) {
			return false
		}
	}
	return true
}

// termsOf returns every available term of exactly type t at exactly sz,
// drawing on the cache for sz>1 and additionally on extraRoots/literals
// for sz==1 (the only size at which atoms are "free").
func termsOf(cache *Cache, extraRoots []expr.Expr, t expr.Type, sz int) []expr.Expr {
	if sz != 1 {
		return cache.ByTypeAndSize(t, sz)
	}
	var out []expr.Expr
	for _, r := range extraRoots {
		if expr.TypesEqual(r.ExprType(), t) {
			out = append(out, r)
		}
	}
	for _, a := range literalAtoms() {
		if expr.TypesEqual(a.ExprType(), t) {
			out = append(out, a)
		}
	}
	out = append(out, cache.ByTypeAndSize(t, sz)...)
	return out
}

// collectionsOf returns every available Bag/Set/List-typed term at
// exactly sz.
func collectionsOf(cache *Cache, extraRoots []expr.Expr, sz int) []expr.Expr {
	var out []expr.Expr
	if sz == 1 {
		for _, r := range extraRoots {
			if expr.IsCollection(r.ExprType()) {
				out = append(out, r)
			}
		}
	}
	for _, tag := range []string{"Bag", "Set", "List"} {
		out = append(out, cache.ByTagAndSize(tag, sz)...)
	}
	return out
}
