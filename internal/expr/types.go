// Package expr defines the typed expression language the synthesis core
// searches over: the closed type variant set T and the closed expression
// variant set E from the data model, plus free-variable analysis,
// capture-avoiding substitution, and alpha-equivalence.
package expr

import (
	"fmt"
	"strings"
)

// Type is the interface implemented by every member of the closed type
// variant set T.
type Type interface {
	fmt.Stringer
	typeNode()
}

// TBool is the boolean type.
type TBool struct{}

func (TBool) typeNode()     {}
func (TBool) String() string { return "Bool" }

// TInt is the integer type.
type TInt struct{}

func (TInt) typeNode()     {}
func (TInt) String() string { return "Int" }

// TString is the string type.
type TString struct{}

func (TString) typeNode()     {}
func (TString) String() string { return "String" }

// TNative wraps an opaque, externally-defined type identified by name.
// The cost model and evaluator never look inside a TNative value.
type TNative struct {
	Name string
}

func (TNative) typeNode()       {}
func (t TNative) String() string { return t.Name }

// TEnum is a closed set of nominal cases.
type TEnum struct {
	Cases []string
}

func (TEnum) typeNode() {}
func (t TEnum) String() string {
	return "Enum(" + strings.Join(t.Cases, ",") + ")"
}

// THandle is a reference type; Val is the type of the value it dereferences
// to. Handle identity equality (===) is distinct from value equality (==).
type THandle struct {
	Val Type
}

func (THandle) typeNode() {}
func (t THandle) String() string { return "Handle(" + t.Val.String() + ")" }

// TTuple is a fixed-arity positional product.
type TTuple struct {
	Ts []Type
}

func (TTuple) typeNode() {}
func (t TTuple) String() string {
	parts := make([]string, len(t.Ts))
	for i, x := range t.Ts {
		parts[i] = x.String()
	}
	return "(" + strings.Join(parts, ",") + ")"
}

// RecordField is one named field of a TRecord.
type RecordField struct {
	Name string
	T    Type
}

// TRecord is a named-field product.
type TRecord struct {
	Fields []RecordField
}

func (TRecord) typeNode() {}
func (t TRecord) String() string {
	parts := make([]string, len(t.Fields))
	for i, f := range t.Fields {
		parts[i] = f.Name + ":" + f.T.String()
	}
	return "{" + strings.Join(parts, ",") + "}"
}

// TBag is a multiset of T.
type TBag struct{ T Type }

func (TBag) typeNode()      {}
func (t TBag) String() string { return "Bag(" + t.T.String() + ")" }

// TSet is a deduplicated collection of T.
type TSet struct{ T Type }

func (TSet) typeNode()      {}
func (t TSet) String() string { return "Set(" + t.T.String() + ")" }

// TList is an ordered collection of T.
type TList struct{ T Type }

func (TList) typeNode()      {}
func (t TList) String() string { return "List(" + t.T.String() + ")" }

// TMap is a finite partial function from K to V.
type TMap struct {
	K Type
	V Type
}

func (TMap) typeNode() {}
func (t TMap) String() string {
	return "Map(" + t.K.String() + "," + t.V.String() + ")"
}

// TFunction is the type of a Lambda: a tuple of argument types to a result
// type. Every Lambda in this language has exactly one argument, but the
// slice form matches the spec's Function(T*,T) and leaves room for
// TupleGet-style multi-arg calls built on top of a single Tuple argument.
type TFunction struct {
	Args []Type
	Ret  Type
}

func (TFunction) typeNode() {}
func (t TFunction) String() string {
	parts := make([]string, len(t.Args))
	for i, a := range t.Args {
		parts[i] = a.String()
	}
	return "(" + strings.Join(parts, ",") + ")->" + t.Ret.String()
}

// TypesEqual reports structural equality of two types. Unlike Funxy's
// typesystem.Unify, there is no unification here: T is a closed, already
// fully-resolved type language with no type variables, so equality is a
// plain structural comparison.
func TypesEqual(a, b Type) bool {
	switch x := a.(type) {
	case TBool:
		_, ok := b.(TBool)
		return ok
	case TInt:
		_, ok := b.(TInt)
		return ok
	case TString:
		_, ok := b.(TString)
		return ok
	case TNative:
		y, ok := b.(TNative)
		return ok && x.Name == y.Name
	case TEnum:
		y, ok := b.(TEnum)
		if !ok || len(x.Cases) != len(y.Cases) {
			return false
		}
		for i := range x.Cases {
			if x.Cases[i] != y.Cases[i] {
				return false
			}
		}
		return true
	case THandle:
		y, ok := b.(THandle)
		return ok && TypesEqual(x.Val, y.Val)
	case TTuple:
		y, ok := b.(TTuple)
		if !ok || len(x.Ts) != len(y.Ts) {
			return false
		}
		for i := range x.Ts {
			if !TypesEqual(x.Ts[i], y.Ts[i]) {
				return false
			}
		}
		return true
	case TRecord:
		y, ok := b.(TRecord)
		if !ok || len(x.Fields) != len(y.Fields) {
			return false
		}
		for i := range x.Fields {
			if x.Fields[i].Name != y.Fields[i].Name || !TypesEqual(x.Fields[i].T, y.Fields[i].T) {
				return false
			}
		}
		return true
	case TBag:
		y, ok := b.(TBag)
		return ok && TypesEqual(x.T, y.T)
	case TSet:
		y, ok := b.(TSet)
		return ok && TypesEqual(x.T, y.T)
	case TList:
		y, ok := b.(TList)
		return ok && TypesEqual(x.T, y.T)
	case TMap:
		y, ok := b.(TMap)
		return ok && TypesEqual(x.K, y.K) && TypesEqual(x.V, y.V)
	case TFunction:
		y, ok := b.(TFunction)
		if !ok || len(x.Args) != len(y.Args) || !TypesEqual(x.Ret, y.Ret) {
			return false
		}
		for i := range x.Args {
			if !TypesEqual(x.Args[i], y.Args[i]) {
				return false
			}
		}
		return true
	default:
		panic(fmt.Sprintf("expr: unhandled type variant %T", a))
	}
}

// IsCollection reports whether t is a Bag, Set, or List.
func IsCollection(t Type) bool {
	switch t.(type) {
	case TBag, TSet, TList:
		return true
	default:
		return false
	}
}

// IsNumeric reports whether t is Int. The spec's data model has only one
// numeric type; this helper exists so the cost model reads the same way
// the original Python's is_numeric(t) did.
func IsNumeric(t Type) bool {
	_, ok := t.(TInt)
	return ok
}

// ElemType returns the element type of a Bag/Set/List, or panics — callers
// only call this after IsCollection has already been checked, matching the
// "programmer error" contract of spec.md §7.
func ElemType(t Type) Type {
	switch x := t.(type) {
	case TBag:
		return x.T
	case TSet:
		return x.T
	case TList:
		return x.T
	default:
		panic(fmt.Sprintf("expr: ElemType called on non-collection %s", t))
	}
}
