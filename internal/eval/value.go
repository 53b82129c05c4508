// Package eval is the total evaluator (spec.md C2): given a closed
// expr.Expr and an environment, it produces a Value, deterministically.
package eval

import (
	"fmt"
	"sort"

	"github.com/exprsynth/synth/internal/expr"
)

// Value is the runtime representation every Eval call produces. It mirrors
// the teacher's evaluator.Object interface (internal/evaluator/object.go):
// a small closed interface plus one concrete struct per kind, instead of a
// tagged union.
type Value interface {
	fmt.Stringer
	valueNode()
	// Equal is value equality (==): structural, recursing through
	// collections. Handles compare by the value they wrap, not by their
	// identity (see Handle.Equal and HandleIdentityEqual).
	Equal(Value) bool
	// Hash supports the fingerprint cache and Map/Set dedup; two values
	// that are Equal must have the same Hash.
	Hash() uint64
}

// Int is an integer value.
type Int struct{ Val int64 }

func (Int) valueNode()          {}
func (v Int) String() string    { return fmt.Sprintf("%d", v.Val) }
func (v Int) Equal(o Value) bool { y, ok := o.(Int); return ok && y.Val == v.Val }
func (v Int) Hash() uint64       { return uint64(v.Val) }

// Bool is a boolean value.
type Bool struct{ Val bool }

func (Bool) valueNode()       {}
func (v Bool) String() string { return fmt.Sprintf("%t", v.Val) }
func (v Bool) Equal(o Value) bool {
	y, ok := o.(Bool)
	return ok && y.Val == v.Val
}
func (v Bool) Hash() uint64 {
	if v.Val {
		return 1
	}
	return 0
}

// String is a string value.
type String struct{ Val string }

func (String) valueNode()       {}
func (v String) String() string { return v.Val }
func (v String) Equal(o Value) bool {
	y, ok := o.(String)
	return ok && y.Val == v.Val
}
func (v String) Hash() uint64 { return fnv64(v.Val) }

// Native wraps an opaque handler-defined payload; equality, hashing and
// printing are delegated to the NativeOps carried on the value. Without
// Ops, payloads compare with == and hash by type name.
type Native struct {
	TypeName string
	Payload  any
	Ops      NativeOps
}

// NativeOps lets an extension type plug value equality/hashing/printing
// into the evaluator without the evaluator needing to know the payload's
// concrete Go type.
type NativeOps interface {
	Equal(a, b any) bool
	Hash(a any) uint64
	String(a any) string
}

func (Native) valueNode() {}
func (v Native) String() string {
	if v.Ops != nil {
		return v.Ops.String(v.Payload)
	}
	return fmt.Sprintf("<native %s>", v.TypeName)
}
func (v Native) Equal(o Value) bool {
	y, ok := o.(Native)
	if !ok || y.TypeName != v.TypeName {
		return false
	}
	if v.Ops != nil {
		return v.Ops.Equal(v.Payload, y.Payload)
	}
	return v.Payload == y.Payload
}
func (v Native) Hash() uint64 {
	if v.Ops != nil {
		return v.Ops.Hash(v.Payload)
	}
	return fnv64(v.TypeName)
}

// Enum is one case of an enum type.
type Enum struct{ Case string }

func (Enum) valueNode()       {}
func (v Enum) String() string { return v.Case }
func (v Enum) Equal(o Value) bool {
	y, ok := o.(Enum)
	return ok && y.Case == v.Case
}
func (v Enum) Hash() uint64 { return fnv64(v.Case) }

// handleSeq assigns every freshly minted Handle a distinct identity, so
// === can distinguish two handles that happen to wrap equal values.
var handleSeq uint64

// NextHandleID returns a fresh handle identity, starting at 1. Code that
// mints new handle values (e.g. the solver's bounded domain enumeration)
// calls this exactly once per logical handle.
func NextHandleID() uint64 {
	handleSeq++
	return handleSeq
}

// Handle is a reference value. Val is the value it dereferences to; ID is
// its identity, used by === (HandleIdentityEqual) but ignored by ==
// (Equal, which compares Val).
type Handle struct {
	ID  uint64
	Val Value
}

func (Handle) valueNode() {}
func (v Handle) String() string {
	return fmt.Sprintf("&%d{%s}", v.ID, v.Val.String())
}
func (v Handle) Equal(o Value) bool {
	y, ok := o.(Handle)
	return ok && v.Val.Equal(y.Val)
}
func (v Handle) Hash() uint64 { return v.Val.Hash() }

// HandleIdentityEqual implements === : two handles are identical only if
// they were minted from the same NextHandleID call.
func HandleIdentityEqual(a, b Handle) bool { return a.ID == b.ID }

// Tuple is a fixed-arity positional product value.
type Tuple struct{ Elems []Value }

func (Tuple) valueNode() {}
func (v Tuple) String() string {
	s := "("
	for i, e := range v.Elems {
		if i > 0 {
			s += ","
		}
		s += e.String()
	}
	return s + ")"
}
func (v Tuple) Equal(o Value) bool {
	y, ok := o.(Tuple)
	if !ok || len(y.Elems) != len(v.Elems) {
		return false
	}
	for i := range v.Elems {
		if !v.Elems[i].Equal(y.Elems[i]) {
			return false
		}
	}
	return true
}
func (v Tuple) Hash() uint64 {
	h := uint64(fnvOffset)
	for _, e := range v.Elems {
		h = fnvMix(h, e.Hash())
	}
	return h
}

// RecordEntry is one named field of a Record value.
type RecordEntry struct {
	Name string
	Val  Value
}

// Record is a named-field product value; Fields is kept in a stable order
// (the order the type declared its fields in) so String/Hash/Equal are
// deterministic.
type Record struct{ Fields []RecordEntry }

func (Record) valueNode() {}
func (v Record) Get(name string) (Value, bool) {
	for _, f := range v.Fields {
		if f.Name == name {
			return f.Val, true
		}
	}
	return nil, false
}
func (v Record) String() string {
	s := "{"
	for i, f := range v.Fields {
		if i > 0 {
			s += ","
		}
		s += f.Name + ":" + f.Val.String()
	}
	return s + "}"
}
func (v Record) Equal(o Value) bool {
	y, ok := o.(Record)
	if !ok || len(y.Fields) != len(v.Fields) {
		return false
	}
	for i := range v.Fields {
		if v.Fields[i].Name != y.Fields[i].Name || !v.Fields[i].Val.Equal(y.Fields[i].Val) {
			return false
		}
	}
	return true
}
func (v Record) Hash() uint64 {
	h := uint64(fnvOffset)
	for _, f := range v.Fields {
		h = fnvMix(h, fnv64(f.Name))
		h = fnvMix(h, f.Val.Hash())
	}
	return h
}

// Bag is a multiset: order is insignificant, multiplicity is significant.
type Bag struct{ Elems []Value }

func (Bag) valueNode() {}
func (v Bag) String() string { return collString("Bag", v.Elems) }
func (v Bag) Equal(o Value) bool {
	y, ok := o.(Bag)
	return ok && multisetEqual(v.Elems, y.Elems)
}
func (v Bag) Hash() uint64 { return commutativeHash(v.Elems) }

// Set is a deduplicated collection value; Elems has no repeated elements
// by Equal, but order still does not matter for equality.
type Set struct{ Elems []Value }

func (Set) valueNode() {}
func (v Set) String() string { return collString("Set", v.Elems) }
func (v Set) Equal(o Value) bool {
	y, ok := o.(Set)
	return ok && multisetEqual(v.Elems, y.Elems)
}
func (v Set) Hash() uint64 { return commutativeHash(v.Elems) }

// List is an ordered collection value; order is significant for equality.
type List struct{ Elems []Value }

func (List) valueNode() {}
func (v List) String() string { return collString("List", v.Elems) }
func (v List) Equal(o Value) bool {
	y, ok := o.(List)
	if !ok || len(y.Elems) != len(v.Elems) {
		return false
	}
	for i := range v.Elems {
		if !v.Elems[i].Equal(y.Elems[i]) {
			return false
		}
	}
	return true
}
func (v List) Hash() uint64 {
	h := uint64(fnvOffset)
	for _, e := range v.Elems {
		h = fnvMix(h, e.Hash())
	}
	return h
}

// MapEntry is one key/value pair of a Map value.
type MapEntry struct {
	Key Value
	Val Value
}

// Map is a finite partial function value, represented as an association
// list. Lookups are linear; this mirrors the fact that Map is itself one
// of the data structure *candidates* the synthesizer is trying to find a
// cheaper representation for — the reference evaluator is intentionally
// not the optimized structure under search.
type Map struct{ Entries []MapEntry }

func (Map) valueNode() {}
func (v Map) Get(key Value) (Value, bool) {
	for _, e := range v.Entries {
		if e.Key.Equal(key) {
			return e.Val, true
		}
	}
	return nil, false
}
func (v Map) String() string {
	s := "{"
	for i, e := range v.Entries {
		if i > 0 {
			s += ","
		}
		s += e.Key.String() + ":" + e.Val.String()
	}
	return s + "}"
}
func (v Map) Equal(o Value) bool {
	y, ok := o.(Map)
	if !ok || len(y.Entries) != len(v.Entries) {
		return false
	}
	for _, e := range v.Entries {
		yv, found := y.Get(e.Key)
		if !found || !yv.Equal(e.Val) {
			return false
		}
	}
	return true
}
func (v Map) Hash() uint64 {
	h := uint64(0)
	for _, e := range v.Entries {
		h += fnvMix(e.Key.Hash(), e.Val.Hash())
	}
	return h
}

// Closure is a Function value: a Lambda paired with the environment its
// free variables (other than its own argument) were captured from.
type Closure struct {
	Lam *expr.Lambda
	Env *Env
}

func (Closure) valueNode()       {}
func (v Closure) String() string { return "<closure " + v.Lam.String() + ">" }
func (v Closure) Equal(o Value) bool {
	// Functions are only ever compared by identity in this language; two
	// syntactically distinct closures are never considered equal, even if
	// extensionally equivalent (that equivalence is exactly what the
	// comparator's SMT queries establish, not Value.Equal).
	y, ok := o.(Closure)
	return ok && v.Lam == y.Lam && v.Env == y.Env
}
func (v Closure) Hash() uint64 { return fnv64(fmt.Sprintf("%p", v.Lam)) }

func collString(tag string, elems []Value) string {
	s := tag + "{"
	for i, e := range elems {
		if i > 0 {
			s += ","
		}
		s += e.String()
	}
	return s + "}"
}

func multisetEqual(a, b []Value) bool {
	if len(a) != len(b) {
		return false
	}
	used := make([]bool, len(b))
	for _, x := range a {
		found := false
		for j, y := range b {
			if !used[j] && x.Equal(y) {
				used[j] = true
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// commutativeHash combines element hashes order-independently so two
// multisets differing only in element order hash identically.
func commutativeHash(elems []Value) uint64 {
	hashes := make([]uint64, len(elems))
	for i, e := range elems {
		hashes[i] = e.Hash()
	}
	sort.Slice(hashes, func(i, j int) bool { return hashes[i] < hashes[j] })
	h := uint64(len(elems))
	for _, x := range hashes {
		h = fnvMix(h, x)
	}
	return h
}

const (
	fnvOffset = 14695981039346656037
	fnvPrime  = 1099511628211
)

func fnv64(s string) uint64 {
	h := uint64(fnvOffset)
	for i := 0; i < len(s); i++ {
		h ^= uint64(s[i])
		h *= fnvPrime
	}
	return h
}

func fnvMix(h, x uint64) uint64 {
	h ^= x
	h *= fnvPrime
	return h
}

