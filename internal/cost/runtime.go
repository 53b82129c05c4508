package cost

import "github.com/exprsynth/synth/internal/expr"

func card(e expr.Expr) expr.Expr {
	return &expr.UnaryExpr{Op: expr.OpLength, X: e, T: expr.TInt{}}
}

// WcCard computes a symbolic worst-case cardinality: it peels combinators
// to reach the underlying collection, adds across `+`, passes through
// `-`, takes the max over Cond branches, and is pessimistic (EXTREME_COST)
// at a free Var — ported from cost_model.py's wc_card.
func (cm *Model) WcCard(e expr.Expr) expr.Expr {
peel:
	for {
		switch n := e.(type) {
		case *expr.Filter:
			e = n.Coll
		case *expr.MapExpr:
			e = n.Coll
		case *expr.FlatMap:
			e = n.Coll
		case *expr.ArgMin:
			e = n.Coll
		case *expr.ArgMax:
			e = n.Coll
		case *expr.MakeMap2:
			e = n.Coll
		case *expr.StateVar:
			e = n.E
		case *expr.UnaryExpr:
			if n.Op != expr.OpDistinct {
				break peel
			}
			e = n.X
		default:
			break peel
		}
	}

	switch n := e.(type) {
	case *expr.BinaryExpr:
		if n.Op == expr.OpSub && expr.IsCollection(n.T) {
			return cm.WcCard(n.X)
		}
		if n.Op == expr.OpAdd && expr.IsCollection(n.T) {
			return &expr.BinaryExpr{Op: expr.OpAdd, X: cm.WcCard(n.X), Y: cm.WcCard(n.Y), T: expr.TInt{}}
		}
	case *expr.Cond:
		return maxOf(cm.WcCard(n.Then), cm.WcCard(n.Else))
	case *expr.Var:
		return num(cm.weights().ExtremeCost)
	}
	return card(e)
}

// AsymptoticRuntime is the max over a bag of term contributions computed
// by a post-order traversal, ported from cost_model.py's
// asymptotic_runtime.
func (cm *Model) AsymptoticRuntime(root expr.Expr) expr.Expr {
	terms := []expr.Expr{num(1)}
	var walk func(expr.Expr)
	walk = func(e expr.Expr) {
		if lam, ok := e.(*expr.Lambda); ok {
			e = lam.Body
		}
		switch n := e.(type) {
		case *expr.Filter:
			terms = append(terms, &expr.BinaryExpr{Op: expr.OpMul, X: cm.WcCard(n.Coll), Y: cm.AsymptoticRuntime(n.Pred), T: expr.TInt{}})
		case *expr.MapExpr:
			terms = append(terms, &expr.BinaryExpr{Op: expr.OpMul, X: cm.WcCard(n.Coll), Y: cm.AsymptoticRuntime(n.Fn), T: expr.TInt{}})
		case *expr.FlatMap:
			terms = append(terms, &expr.BinaryExpr{Op: expr.OpMul, X: cm.WcCard(n.Coll), Y: cm.AsymptoticRuntime(n.Fn), T: expr.TInt{}})
		case *expr.ArgMin:
			terms = append(terms, &expr.BinaryExpr{Op: expr.OpMul, X: cm.WcCard(n.Coll), Y: cm.AsymptoticRuntime(n.Fn), T: expr.TInt{}})
		case *expr.ArgMax:
			terms = append(terms, &expr.BinaryExpr{Op: expr.OpMul, X: cm.WcCard(n.Coll), Y: cm.AsymptoticRuntime(n.Fn), T: expr.TInt{}})
		case *expr.MakeMap2:
			terms = append(terms, &expr.BinaryExpr{Op: expr.OpMul, X: cm.WcCard(n.Coll), Y: cm.AsymptoticRuntime(n.Value), T: expr.TInt{}})
		case *expr.BinaryExpr:
			if n.Op == expr.OpIn {
				terms = append(terms, cm.WcCard(n.Y))
			} else if n.Op == expr.OpSub && expr.IsCollection(n.T) {
				terms = append(terms, num(cm.weights().ExtremeCost))
				terms = append(terms, &expr.BinaryExpr{Op: expr.OpMul, X: cm.WcCard(n.X), Y: cm.WcCard(n.Y), T: expr.TInt{}})
			}
		case *expr.UnaryExpr:
			if expr.LinearTimeUnaryOps[n.Op] {
				terms = append(terms, cm.WcCard(n.X))
			}
		}
		if _, ok := e.(*expr.StateVar); ok {
			return
		}
		for _, c := range e.Children() {
			walk(c)
		}
	}
	walk(root)
	return maxOf(terms...)
}

func sumOverLambdaRt(cm *Model, coll expr.Expr, lam *expr.Lambda) expr.Expr {
	mapped := &expr.MapExpr{Coll: coll, Fn: &expr.Lambda{Arg: lam.Arg, Body: cm.Rt(lam.Body)}, T: intBag}
	return &expr.UnaryExpr{Op: expr.OpSum, X: mapped, T: expr.TInt{}}
}

func (cm *Model) hashCost(e expr.Expr) expr.Expr { return cm.StorageSize(e) }

func (cm *Model) comparisonCost(e1, e2 expr.Expr) expr.Expr {
	return sumExprs([]expr.Expr{cm.StorageSize(e1), cm.StorageSize(e2)})
}

// Rt is a finer-grained runtime cost used as a comparator tiebreaker
// below asymptotic_runtime and max_storage_size, ported from
// cost_model.py's rt. and/or are modeled as short-circuit, StateVar is
// free, bag subtraction and MakeMap2 carry an EXTREME_COST penalty.
func (cm *Model) Rt(root expr.Expr) expr.Expr {
	w := cm.weights()
	var constant int64
	var terms []expr.Expr
	stack := []expr.Expr{root}

	for len(stack) > 0 {
		e := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		switch n := e.(type) {
		case *expr.Lambda:
			continue
		case *expr.BinaryExpr:
			switch n.Op {
			case expr.OpIn:
				v := expr.FreshVar(n.X.ExprType(), expr.FreeVarIDs(n.X))
				stack = append(stack, n.X)
				stack = append(stack, &expr.UnaryExpr{
					Op: expr.OpAny,
					X: &expr.MapExpr{
						Coll: n.Y,
						Fn:   &expr.Lambda{Arg: v, Body: &expr.BinaryExpr{Op: expr.OpEq, X: v, Y: n.X, T: expr.TBool{}}},
						T:    expr.TBag{T: expr.TBool{}},
					},
					T: expr.TBool{},
				})
				continue
			case expr.OpAnd:
				stack = append(stack, n.X)
				terms = append(terms, &expr.Cond{C: n.X, Then: cm.Rt(n.Y), Else: num(0)})
				continue
			case expr.OpOr:
				stack = append(stack, n.X)
				terms = append(terms, &expr.Cond{C: n.X, Then: num(0), Else: cm.Rt(n.Y)})
				continue
			}
		case *expr.Cond:
			stack = append(stack, n.C)
			terms = append(terms, &expr.Cond{C: n.C, Then: cm.Rt(n.Then), Else: cm.Rt(n.Else)})
			continue
		}

		constant++
		if _, ok := e.(*expr.StateVar); ok {
			continue
		}
		stack = append(stack, e.Children()...)

		switch n := e.(type) {
		case *expr.Filter:
			terms = append(terms, sumOverLambdaRt(cm, n.Coll, n.Pred))
		case *expr.MapExpr:
			terms = append(terms, sumOverLambdaRt(cm, n.Coll, n.Fn))
		case *expr.FlatMap:
			terms = append(terms, sumOverLambdaRt(cm, n.Coll, n.Fn))
		case *expr.ArgMin:
			terms = append(terms, sumOverLambdaRt(cm, n.Coll, n.Fn))
		case *expr.ArgMax:
			terms = append(terms, sumOverLambdaRt(cm, n.Coll, n.Fn))
		case *expr.MakeMap2:
			constant += w.ExtremeCost
			terms = append(terms, sumOverLambdaRt(cm, n.Coll, n.Value))
		case *expr.BinaryExpr:
			if n.Op == expr.OpSub && expr.IsCollection(n.T) {
				constant += w.ExtremeCost
				terms = append(terms, card(n.X), card(n.Y))
			} else if expr.ComparisonOps[n.Op] {
				terms = append(terms, cm.comparisonCost(n.X, n.Y))
			}
		case *expr.UnaryExpr:
			if expr.LinearTimeUnaryOps[n.Op] {
				terms = append(terms, card(n.X))
			}
		case *expr.MapGet:
			terms = append(terms, cm.hashCost(n.Key), cm.comparisonCost(n.Key, n.Key))
		}
	}

	terms = append(terms, num(constant))
	return sumExprs(terms)
}
