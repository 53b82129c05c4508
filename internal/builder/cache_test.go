package builder

import (
	"testing"

	"github.com/exprsynth/synth/internal/expr"
)

func TestCacheAddAndLookup(t *testing.T) {
	c := NewCache()
	e := &expr.Num{Val: 1}
	c.Add(e, 1)

	got := c.ByTypeAndSize(expr.TInt{}, 1)
	if len(got) != 1 || got[0] != expr.Expr(e) {
		t.Fatalf("ByTypeAndSize should return the inserted expression, got %v", got)
	}
	if c.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", c.Len())
	}
}

func TestCacheEvict(t *testing.T) {
	c := NewCache()
	e := &expr.Num{Val: 1}
	c.Add(e, 1)
	c.Evict(e, 1)
	if c.Len() != 0 {
		t.Fatalf("Len() after Evict = %d, want 0", c.Len())
	}
	if got := c.ByTypeAndSize(expr.TInt{}, 1); len(got) != 0 {
		t.Fatalf("evicted expression should no longer be returned, got %v", got)
	}
}

func TestCacheEvictAbsentIsNoOp(t *testing.T) {
	c := NewCache()
	c.Evict(&expr.Num{Val: 1}, 1) // must not panic
}

func TestCacheByTagAndSize(t *testing.T) {
	c := NewCache()
	c.Add(&expr.EmptyList{T: expr.TBag{T: expr.TInt{}}}, 1)
	c.Add(&expr.EmptyList{T: expr.TSet{T: expr.TInt{}}}, 1)
	c.Add(&expr.Num{Val: 0}, 1)

	got := c.ByTagAndSize("Bag", 1)
	if len(got) != 1 {
		t.Fatalf("ByTagAndSize(Bag,1) = %d entries, want 1", len(got))
	}
}

func TestCacheRandomSampleCap(t *testing.T) {
	c := NewCache()
	for i := 0; i < 10; i++ {
		c.Add(&expr.Num{Val: int64(i)}, 1)
	}
	sample := c.RandomSample(3)
	if len(sample) != 3 {
		t.Fatalf("RandomSample(3) = %d entries, want 3", len(sample))
	}
	full := c.RandomSample(100)
	if len(full) != 10 {
		t.Fatalf("RandomSample(100) over a 10-entry cache should return all 10, got %d", len(full))
	}
}

func TestEnumeratorBuildSizeOneYieldsRootsAndLiterals(t *testing.T) {
	root := &expr.Var{ID: "x", T: expr.TInt{}}
	e := NewEnumerator().WithRoots([]expr.Expr{root})
	cache := NewCache()

	var got []expr.Expr
	for cand := range e.Build(cache, 1) {
		got = append(got, cand)
	}
	foundRoot := false
	for _, g := range got {
		if g == expr.Expr(root) {
			foundRoot = true
		}
	}
	if !foundRoot {
		t.Fatalf("Build(cache,1) should include the root variable among size-1 candidates")
	}
}

func TestEnumeratorBuildComposesBinaryFromSmallerSizes(t *testing.T) {
	e := NewEnumerator()
	cache := NewCache()
	// Size 1: literal atoms only (0, 1, true, false, "").
	for cand := range e.Build(cache, 1) {
		cache.Add(cand, 1)
	}
	// Size 3 should combine two size-1 Int terms into a BinaryExpr, e.g. 0+1.
	foundAdd := false
	for cand := range e.Build(cache, 3) {
		if bin, ok := cand.(*expr.BinaryExpr); ok && bin.Op == expr.OpAdd {
			foundAdd = true
			break
		}
	}
	if !foundAdd {
		t.Fatalf("Build(cache,3) should produce an Int addition from two size-1 operands")
	}
}

func TestEnumeratorWithRootsDedupsAlphaEquivalent(t *testing.T) {
	r1 := &expr.Var{ID: "x", T: expr.TInt{}}
	r2 := &expr.Var{ID: "x", T: expr.TInt{}}
	e := NewEnumerator().WithRoots([]expr.Expr{r1}).WithRoots([]expr.Expr{r2}).(*Enumerator)
	if len(e.Roots) != 1 {
		t.Fatalf("WithRoots should dedup alpha-equivalent roots, got %d roots", len(e.Roots))
	}
}
