// Package builder implements the candidate builder (spec.md C5): a
// size-indexed cache of accepted expressions plus the ExpBuilder
// contract that grows new candidates from it one size at a time.
package builder

import (
	"fmt"
	"math/rand/v2"
	"sort"

	"github.com/exprsynth/synth/internal/expr"
)

// Cache is the learner's size-indexed store of accepted candidates,
// ported from cozy/synthesis/core.py's Cache class. The original keys a
// three-level nested dict (type_tag -> type -> size -> list); this
// collapses that to one flat map keyed by the (type_tag, type, size)
// triple, per spec.md §9's explicit design note.
type Cache struct {
	data map[cacheKey][]expr.Expr
	n    int
}

type cacheKey struct {
	tag  string
	typ  string
	size int
}

// NewCache builds an empty cache.
func NewCache() *Cache {
	return &Cache{data: make(map[cacheKey][]expr.Expr)}
}

// TypeTag categorizes t by its Go variant — the coarse grouping cozy's
// Cache.tag() got for free from Python's type(t).
func TypeTag(t expr.Type) string {
	switch t.(type) {
	case expr.TBool:
		return "Bool"
	case expr.TInt:
		return "Int"
	case expr.TString:
		return "String"
	case expr.TNative:
		return "Native"
	case expr.TEnum:
		return "Enum"
	case expr.THandle:
		return "Handle"
	case expr.TTuple:
		return "Tuple"
	case expr.TRecord:
		return "Record"
	case expr.TBag:
		return "Bag"
	case expr.TSet:
		return "Set"
	case expr.TList:
		return "List"
	case expr.TMap:
		return "Map"
	case expr.TFunction:
		return "Function"
	default:
		panic(fmt.Sprintf("builder: unhandled type tag for %T", t))
	}
}

func key(e expr.Expr, size int) cacheKey {
	t := e.ExprType()
	return cacheKey{tag: TypeTag(t), typ: t.String(), size: size}
}

// Add inserts e at the given size.
func (c *Cache) Add(e expr.Expr, size int) {
	c.data[key(e, size)] = append(c.data[key(e, size)], e)
	c.n++
}

// Evict removes e from size, a no-op if e is not present there — mirrors
// the original's swallowed ValueError on evicting an absent element.
func (c *Cache) Evict(e expr.Expr, size int) {
	k := key(e, size)
	xs := c.data[k]
	for i, x := range xs {
		if x == e {
			c.data[k] = append(xs[:i:i], xs[i+1:]...)
			c.n--
			return
		}
	}
}

// ByTypeAndSize returns every cached expression of exactly typ at exactly
// size — the lookup the base builder uses to partition a target size
// among a combinator's sub-terms.
func (c *Cache) ByTypeAndSize(typ expr.Type, size int) []expr.Expr {
	return c.data[cacheKey{tag: TypeTag(typ), typ: typ.String(), size: size}]
}

// ByType returns every cached expression of typ regardless of size, in
// ascending size order.
func (c *Cache) ByType(typ expr.Type) []expr.Expr {
	tag, ts := TypeTag(typ), typ.String()
	var sizes []int
	for k := range c.data {
		if k.tag == tag && k.typ == ts {
			sizes = append(sizes, k.size)
		}
	}
	sort.Ints(sizes)
	var out []expr.Expr
	for _, sz := range sizes {
		out = append(out, c.data[cacheKey{tag: tag, typ: ts, size: sz}]...)
	}
	return out
}

// ByTag returns every cached expression whose type tag matches tag
// (e.g. every collection of any element type), regardless of size.
func (c *Cache) ByTag(tag string) []expr.Expr {
	type keyed struct {
		k cacheKey
	}
	var keys []cacheKey
	for k := range c.data {
		if k.tag == tag {
			keys = append(keys, k)
		}
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].typ != keys[j].typ {
			return keys[i].typ < keys[j].typ
		}
		return keys[i].size < keys[j].size
	})
	var out []expr.Expr
	for _, k := range keys {
		out = append(out, c.data[k]...)
	}
	return out
}

// ByTagAndSize returns every cached expression whose type tag matches tag
// at exactly size, in a deterministic (by type string) order.
func (c *Cache) ByTagAndSize(tag string, size int) []expr.Expr {
	var keys []cacheKey
	for k := range c.data {
		if k.tag == tag && k.size == size {
			keys = append(keys, k)
		}
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].typ < keys[j].typ })
	var out []expr.Expr
	for _, k := range keys {
		out = append(out, c.data[k]...)
	}
	return out
}

// Len reports the number of cached expressions.
func (c *Cache) Len() int { return c.n }

// CacheEntry pairs a cached expression with the size it was inserted at.
type CacheEntry struct {
	E    expr.Expr
	Size int
}

// All iterates every (expression, size) pair, in a deterministic order
// (sorted by tag, type, size) so repeated runs over an unchanged cache
// enumerate identically.
func (c *Cache) All() func(yield func(CacheEntry) bool) {
	return func(yield func(CacheEntry) bool) {
		keys := make([]cacheKey, 0, len(c.data))
		for k := range c.data {
			keys = append(keys, k)
		}
		sort.Slice(keys, func(i, j int) bool {
			if keys[i].tag != keys[j].tag {
				return keys[i].tag < keys[j].tag
			}
			if keys[i].typ != keys[j].typ {
				return keys[i].typ < keys[j].typ
			}
			return keys[i].size < keys[j].size
		})
		for _, k := range keys {
			for _, e := range c.data[k] {
				if !yield(CacheEntry{E: e, Size: k.size}) {
					return
				}
			}
		}
	}
}

// RandomSample draws up to n distinct cached expressions for post-mortem
// inspection (spec.md §7's "optionally dump a random sample of the cache"
// on cancellation).
func (c *Cache) RandomSample(n int) []expr.Expr {
	var all []expr.Expr
	for ce := range c.All() {
		all = append(all, ce.E)
	}
	if n >= len(all) {
		return all
	}
	rand.Shuffle(len(all), func(i, j int) { all[i], all[j] = all[j], all[i] })
	return all[:n]
}
