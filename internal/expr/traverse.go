package expr

import "fmt"

// AllSubexps yields every sub-expression of e, including e itself, in a
// pre-order walk. It is a range-over-func iterator (Go's native lazy
// sequence) rather than a materialized slice, matching spec.md's
// "all_subexps(e) → lazy sequence of E".
func AllSubexps(e Expr) func(yield func(Expr) bool) {
	return func(yield func(Expr) bool) {
		var walk func(Expr) bool
		walk = func(x Expr) bool {
			if !yield(x) {
				return false
			}
			for _, c := range x.Children() {
				if !walk(c) {
					return false
				}
			}
			return true
		}
		walk(e)
	}
}

// Size returns the node count of e, counting e itself and every descendant
// (a Lambda's Arg is not counted, matching Children()'s exclusion of it).
func Size(e Expr) int {
	n := 1
	for _, c := range e.Children() {
		n += Size(c)
	}
	return n
}

// Replace structurally replaces every subtree alpha-equivalent to old with
// new, everywhere it occurs in e (including e itself).
func Replace(e Expr, old, new Expr) Expr {
	if AlphaEquivalent(e, old) {
		return new
	}
	switch n := e.(type) {
	case *Num, *BoolLit, *StrLit, *EnumEntry, *EmptyList, *Var:
		return n
	case *Singleton:
		return &Singleton{E: Replace(n.E, old, new), CollT: n.CollT}
	case *StateVar:
		return &StateVar{E: Replace(n.E, old, new)}
	case *Lambda:
		return &Lambda{Arg: n.Arg, Body: Replace(n.Body, old, new)}
	case *Call:
		args := make([]Expr, len(n.Args))
		for i, a := range n.Args {
			args[i] = Replace(a, old, new)
		}
		return &Call{Name: n.Name, Args: args, T: n.T}
	case *UnaryExpr:
		return &UnaryExpr{Op: n.Op, X: Replace(n.X, old, new), T: n.T}
	case *BinaryExpr:
		return &BinaryExpr{Op: n.Op, X: Replace(n.X, old, new), Y: Replace(n.Y, old, new), T: n.T}
	case *Filter:
		return &Filter{Coll: Replace(n.Coll, old, new), Pred: replaceLambda(n.Pred, old, new)}
	case *MapExpr:
		return &MapExpr{Coll: Replace(n.Coll, old, new), Fn: replaceLambda(n.Fn, old, new), T: n.T}
	case *FlatMap:
		return &FlatMap{Coll: Replace(n.Coll, old, new), Fn: replaceLambda(n.Fn, old, new), T: n.T}
	case *Flatten:
		return &Flatten{Coll: Replace(n.Coll, old, new), T: n.T}
	case *ArgMin:
		return &ArgMin{Coll: Replace(n.Coll, old, new), Fn: replaceLambda(n.Fn, old, new)}
	case *ArgMax:
		return &ArgMax{Coll: Replace(n.Coll, old, new), Fn: replaceLambda(n.Fn, old, new)}
	case *MakeMap2:
		return &MakeMap2{Coll: Replace(n.Coll, old, new), Value: replaceLambda(n.Value, old, new)}
	case *MapGet:
		return &MapGet{M: Replace(n.M, old, new), Key: Replace(n.Key, old, new)}
	case *MapKeys:
		return &MapKeys{M: Replace(n.M, old, new)}
	case *HasKey:
		return &HasKey{M: Replace(n.M, old, new), Key: Replace(n.Key, old, new)}
	case *TupleExpr:
		elems := make([]Expr, len(n.Elems))
		for i, x := range n.Elems {
			elems[i] = Replace(x, old, new)
		}
		return &TupleExpr{Elems: elems}
	case *TupleGet:
		return &TupleGet{E: Replace(n.E, old, new), I: n.I}
	case *GetField:
		return &GetField{E: Replace(n.E, old, new), Field: n.Field}
	case *Cond:
		return &Cond{C: Replace(n.C, old, new), Then: Replace(n.Then, old, new), Else: Replace(n.Else, old, new)}
	default:
		panic(fmt.Sprintf("expr: unhandled Expr variant %T in Replace", e))
	}
}

// replaceLambda recurses into a combinator's Fn/Pred field, which must
// stay a *Lambda structurally — whole-lambda replacement never applies
// there, only replacement within its body.
func replaceLambda(lam *Lambda, old, new Expr) *Lambda {
	return &Lambda{Arg: lam.Arg, Body: Replace(lam.Body, old, new)}
}
