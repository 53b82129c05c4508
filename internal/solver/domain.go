package solver

import (
	"github.com/exprsynth/synth/internal/eval"
	"github.com/exprsynth/synth/internal/expr"
)

// Domain enumerates a small finite set of candidate values per type, used
// by LocalSolver for bounded verification. IntRange and MaxCollSize bound
// how large the enumeration gets; both default to small values because
// the cost of exhaustive checking is exponential in the number of free
// variables.
type Domain struct {
	IntRange     int64 // Ints enumerated are -IntRange..IntRange
	MaxCollSize  int   // largest Bag/Set/List enumerated
	ElemsPerType int   // distinct scalar values enumerated per leaf type, used to build collection elements
}

// DefaultDomain matches the modest bound the teacher's own analyzer uses
// for exhaustive small-dispatch-table checks (internal/analyzer's trait
// dispatch resolution is similarly bounded to a handful of candidate
// instances before giving up).
var DefaultDomain = Domain{IntRange: 2, MaxCollSize: 2, ElemsPerType: 3}

// Enumerate returns every value of type t within d's bounds.
func (d Domain) Enumerate(t expr.Type) []eval.Value {
	switch x := t.(type) {
	case expr.TBool:
		return []eval.Value{eval.Bool{Val: false}, eval.Bool{Val: true}}
	case expr.TInt:
		out := make([]eval.Value, 0, 2*d.IntRange+1)
		for i := -d.IntRange; i <= d.IntRange; i++ {
			out = append(out, eval.Int{Val: i})
		}
		return out
	case expr.TString:
		alphabet := []string{"", "a", "b"}
		out := make([]eval.Value, 0, len(alphabet))
		for _, s := range alphabet {
			out = append(out, eval.String{Val: s})
		}
		return out
	case expr.TEnum:
		out := make([]eval.Value, 0, len(x.Cases))
		for _, c := range x.Cases {
			out = append(out, eval.Enum{Case: c})
		}
		return out
	case expr.THandle:
		inner := d.Enumerate(x.Val)
		out := make([]eval.Value, 0, len(inner))
		for _, v := range inner {
			out = append(out, eval.Handle{ID: eval.NextHandleID(), Val: v})
		}
		return out
	case expr.TTuple:
		return d.enumerateProduct(x.Ts, func(elems []eval.Value) eval.Value {
			return eval.Tuple{Elems: append([]eval.Value{}, elems...)}
		})
	case expr.TBag:
		return d.enumerateCollections(x.T, func(elems []eval.Value) eval.Value {
			return eval.Bag{Elems: elems}
		})
	case expr.TSet:
		var out []eval.Value
		for _, v := range d.enumerateCollections(x.T, func(elems []eval.Value) eval.Value {
			return eval.Set{Elems: elems}
		}) {
			elems := v.(eval.Set).Elems
			dup := false
			for i := range elems {
				for j := i + 1; j < len(elems); j++ {
					dup = dup || elems[i].Equal(elems[j])
				}
			}
			if !dup {
				out = append(out, v)
			}
		}
		return out
	case expr.TList:
		return d.enumerateCollections(x.T, func(elems []eval.Value) eval.Value {
			return eval.List{Elems: elems}
		})
	default:
		// Records, Maps, Functions, Natives: not enumerated. Formulas that
		// range over these types are outside LocalSolver's bounded domain
		// and Valid/Satisfiable/Satisfy return ErrUnbounded; see
		// DESIGN.md's C3/C10 entry.
		return nil
	}
}

// enumerateProduct builds the cross product of Enumerate(ts[i]) for each i.
func (d Domain) enumerateProduct(ts []expr.Type, build func([]eval.Value) eval.Value) []eval.Value {
	var out []eval.Value
	var rec func(i int, acc []eval.Value)
	rec = func(i int, acc []eval.Value) {
		if i == len(ts) {
			out = append(out, build(acc))
			return
		}
		for _, v := range d.Enumerate(ts[i]) {
			rec(i+1, append(acc, v))
		}
	}
	rec(0, nil)
	return out
}

// enumerateCollections builds every collection of size 0..MaxCollSize whose
// elements are drawn from the first ElemsPerType values of Enumerate(elem).
func (d Domain) enumerateCollections(elem expr.Type, build func([]eval.Value) eval.Value) []eval.Value {
	pool := d.Enumerate(elem)
	if len(pool) > d.ElemsPerType {
		pool = pool[:d.ElemsPerType]
	}
	var out []eval.Value
	var rec func(size int, start int, acc []eval.Value)
	rec = func(size int, start int, acc []eval.Value) {
		out = append(out, build(append([]eval.Value{}, acc...)))
		if size >= d.MaxCollSize {
			return
		}
		for i := start; i < len(pool); i++ {
			rec(size+1, i, append(acc, pool[i]))
		}
	}
	rec(0, 0, nil)
	return out
}
