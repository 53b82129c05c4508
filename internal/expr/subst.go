package expr

import "fmt"

// Subst performs capture-avoiding substitution: every free occurrence of a
// variable named in sigma is replaced by its mapped expression. Any lambda
// binder whose name appears in the codomain of sigma (or would otherwise
// capture a free variable of a substituted term) is alpha-renamed to a
// fresh name first. A substitution that would change the type of a
// sub-expression is a programmer error and panics (spec.md §4.1).
func Subst(e Expr, sigma map[string]Expr) Expr {
	if len(sigma) == 0 {
		return e
	}
	return substRec(e, sigma)
}

// codomainFreeVarIDs is the union of FreeVarIDs over every replacement
// expression in sigma, i.e. the set of names a binder must not capture.
func codomainFreeVarIDs(sigma map[string]Expr) map[string]bool {
	out := make(map[string]bool)
	for _, repl := range sigma {
		for id := range FreeVarIDs(repl) {
			out[id] = true
		}
	}
	return out
}

func substRec(e Expr, sigma map[string]Expr) Expr {
	switch n := e.(type) {
	case *Num, *BoolLit, *StrLit, *EnumEntry, *EmptyList:
		return n
	case *Singleton:
		return &Singleton{E: substRec(n.E, sigma), CollT: n.CollT}
	case *Var:
		if repl, ok := sigma[n.ID]; ok {
			if !TypesEqual(repl.ExprType(), n.T) {
				panic(fmt.Sprintf("expr: substitution for %s changes type %s -> %s", n.ID, n.T, repl.ExprType()))
			}
			return repl
		}
		return n
	case *StateVar:
		return &StateVar{E: substRec(n.E, sigma)}
	case *Lambda:
		return substLambda(n, sigma)
	case *Call:
		args := make([]Expr, len(n.Args))
		for i, a := range n.Args {
			args[i] = substRec(a, sigma)
		}
		return &Call{Name: n.Name, Args: args, T: n.T}
	case *UnaryExpr:
		return &UnaryExpr{Op: n.Op, X: substRec(n.X, sigma), T: n.T}
	case *BinaryExpr:
		return &BinaryExpr{Op: n.Op, X: substRec(n.X, sigma), Y: substRec(n.Y, sigma), T: n.T}
	case *Filter:
		return &Filter{Coll: substRec(n.Coll, sigma), Pred: substLambda(n.Pred, sigma)}
	case *MapExpr:
		return &MapExpr{Coll: substRec(n.Coll, sigma), Fn: substLambda(n.Fn, sigma), T: n.T}
	case *FlatMap:
		return &FlatMap{Coll: substRec(n.Coll, sigma), Fn: substLambda(n.Fn, sigma), T: n.T}
	case *Flatten:
		return &Flatten{Coll: substRec(n.Coll, sigma), T: n.T}
	case *ArgMin:
		return &ArgMin{Coll: substRec(n.Coll, sigma), Fn: substLambda(n.Fn, sigma)}
	case *ArgMax:
		return &ArgMax{Coll: substRec(n.Coll, sigma), Fn: substLambda(n.Fn, sigma)}
	case *MakeMap2:
		return &MakeMap2{Coll: substRec(n.Coll, sigma), Value: substLambda(n.Value, sigma)}
	case *MapGet:
		return &MapGet{M: substRec(n.M, sigma), Key: substRec(n.Key, sigma)}
	case *MapKeys:
		return &MapKeys{M: substRec(n.M, sigma)}
	case *HasKey:
		return &HasKey{M: substRec(n.M, sigma), Key: substRec(n.Key, sigma)}
	case *TupleExpr:
		elems := make([]Expr, len(n.Elems))
		for i, x := range n.Elems {
			elems[i] = substRec(x, sigma)
		}
		return &TupleExpr{Elems: elems}
	case *TupleGet:
		return &TupleGet{E: substRec(n.E, sigma), I: n.I}
	case *GetField:
		return &GetField{E: substRec(n.E, sigma), Field: n.Field}
	case *Cond:
		return &Cond{C: substRec(n.C, sigma), Then: substRec(n.Then, sigma), Else: substRec(n.Else, sigma)}
	default:
		panic(fmt.Sprintf("expr: unhandled Expr variant %T in Subst", e))
	}
}

// substLambda alpha-renames lam's binder when necessary before substituting
// into its body, and drops any now-shadowed entry of sigma so the binder's
// own name is never rewritten within its own body.
func substLambda(lam *Lambda, sigma map[string]Expr) *Lambda {
	_, shadowedByBinder := sigma[lam.Arg.ID]
	needsRename := shadowedByBinder == false && codomainFreeVarIDs(sigma)[lam.Arg.ID]

	if !needsRename {
		inner := sigma
		if shadowedByBinder {
			inner = make(map[string]Expr, len(sigma))
			for k, v := range sigma {
				if k != lam.Arg.ID {
					inner[k] = v
				}
			}
		}
		return &Lambda{Arg: lam.Arg, Body: substRec(lam.Body, inner)}
	}

	avoid := codomainFreeVarIDs(sigma)
	for id := range FreeVarIDs(lam.Body) {
		avoid[id] = true
	}
	fresh := FreshVar(lam.Arg.T, avoid)
	inner := make(map[string]Expr, len(sigma)+1)
	for k, v := range sigma {
		inner[k] = v
	}
	inner[lam.Arg.ID] = fresh
	return &Lambda{Arg: fresh, Body: substRec(lam.Body, inner)}
}

// Rename is Subst specialized to a single variable-to-variable renaming.
func Rename(e Expr, from string, to *Var) Expr {
	return Subst(e, map[string]Expr{from: to})
}

// AlphaEquivalent reports whether a and b are equal up to renaming of
// lambda binders.
func AlphaEquivalent(a, b Expr) bool {
	return alphaEq(a, b, map[string]string{})
}

// renv maps bound-variable names of a to the corresponding bound-variable
// names of b along the current path, so that two structurally identical
// lambdas with differently-named arguments still compare equal.
func alphaEq(a, b Expr, renv map[string]string) bool {
	switch x := a.(type) {
	case *Num:
		y, ok := b.(*Num)
		return ok && x.Val == y.Val
	case *BoolLit:
		y, ok := b.(*BoolLit)
		return ok && x.Val == y.Val
	case *StrLit:
		y, ok := b.(*StrLit)
		return ok && x.Val == y.Val
	case *EnumEntry:
		y, ok := b.(*EnumEntry)
		return ok && x.Name == y.Name
	case *EmptyList:
		y, ok := b.(*EmptyList)
		return ok && TypesEqual(x.T, y.T)
	case *Singleton:
		y, ok := b.(*Singleton)
		return ok && alphaEq(x.E, y.E, renv)
	case *Var:
		y, ok := b.(*Var)
		if !ok {
			return false
		}
		if mapped, isBound := renv[x.ID]; isBound {
			return mapped == y.ID
		}
		return x.ID == y.ID && TypesEqual(x.T, y.T)
	case *StateVar:
		y, ok := b.(*StateVar)
		return ok && alphaEq(x.E, y.E, renv)
	case *Lambda:
		y, ok := b.(*Lambda)
		if !ok || !TypesEqual(x.Arg.T, y.Arg.T) {
			return false
		}
		renv2 := make(map[string]string, len(renv)+1)
		for k, v := range renv {
			renv2[k] = v
		}
		renv2[x.Arg.ID] = y.Arg.ID
		return alphaEq(x.Body, y.Body, renv2)
	case *Call:
		y, ok := b.(*Call)
		if !ok || x.Name != y.Name || len(x.Args) != len(y.Args) {
			return false
		}
		for i := range x.Args {
			if !alphaEq(x.Args[i], y.Args[i], renv) {
				return false
			}
		}
		return true
	case *UnaryExpr:
		y, ok := b.(*UnaryExpr)
		return ok && x.Op == y.Op && alphaEq(x.X, y.X, renv)
	case *BinaryExpr:
		y, ok := b.(*BinaryExpr)
		return ok && x.Op == y.Op && alphaEq(x.X, y.X, renv) && alphaEq(x.Y, y.Y, renv)
	case *Filter:
		y, ok := b.(*Filter)
		return ok && alphaEq(x.Coll, y.Coll, renv) && alphaEq(x.Pred, y.Pred, renv)
	case *MapExpr:
		y, ok := b.(*MapExpr)
		return ok && alphaEq(x.Coll, y.Coll, renv) && alphaEq(x.Fn, y.Fn, renv)
	case *FlatMap:
		y, ok := b.(*FlatMap)
		return ok && alphaEq(x.Coll, y.Coll, renv) && alphaEq(x.Fn, y.Fn, renv)
	case *Flatten:
		y, ok := b.(*Flatten)
		return ok && alphaEq(x.Coll, y.Coll, renv)
	case *ArgMin:
		y, ok := b.(*ArgMin)
		return ok && alphaEq(x.Coll, y.Coll, renv) && alphaEq(x.Fn, y.Fn, renv)
	case *ArgMax:
		y, ok := b.(*ArgMax)
		return ok && alphaEq(x.Coll, y.Coll, renv) && alphaEq(x.Fn, y.Fn, renv)
	case *MakeMap2:
		y, ok := b.(*MakeMap2)
		return ok && alphaEq(x.Coll, y.Coll, renv) && alphaEq(x.Value, y.Value, renv)
	case *MapGet:
		y, ok := b.(*MapGet)
		return ok && alphaEq(x.M, y.M, renv) && alphaEq(x.Key, y.Key, renv)
	case *MapKeys:
		y, ok := b.(*MapKeys)
		return ok && alphaEq(x.M, y.M, renv)
	case *HasKey:
		y, ok := b.(*HasKey)
		return ok && alphaEq(x.M, y.M, renv) && alphaEq(x.Key, y.Key, renv)
	case *TupleExpr:
		y, ok := b.(*TupleExpr)
		if !ok || len(x.Elems) != len(y.Elems) {
			return false
		}
		for i := range x.Elems {
			if !alphaEq(x.Elems[i], y.Elems[i], renv) {
				return false
			}
		}
		return true
	case *TupleGet:
		y, ok := b.(*TupleGet)
		return ok && x.I == y.I && alphaEq(x.E, y.E, renv)
	case *GetField:
		y, ok := b.(*GetField)
		return ok && x.Field == y.Field && alphaEq(x.E, y.E, renv)
	case *Cond:
		y, ok := b.(*Cond)
		return ok && alphaEq(x.C, y.C, renv) && alphaEq(x.Then, y.Then, renv) && alphaEq(x.Else, y.Else, renv)
	default:
		panic(fmt.Sprintf("expr: unhandled Expr variant %T in AlphaEquivalent", a))
	}
}
