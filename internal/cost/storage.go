package cost

import (
	"fmt"

	"github.com/exprsynth/synth/internal/config"
	"github.com/exprsynth/synth/internal/expr"
)

// ExtensionHandler lets a Native type plug its own storage-size accounting
// into the cost model, without the cost model needing to know the
// extension's internal representation (spec.md's "extension types
// delegate to a handler table").
type ExtensionHandler interface {
	StorageSize(e expr.Expr, k func(expr.Expr) expr.Expr) expr.Expr
}

// StorageSize computes the symbolic byte cost of representing e's value,
// as an Int-typed expr.Expr suitable for evaluation against an example or
// comparison via a solver.Solver — ported inductively from
// cost_model.py's storage_size.
func (cm *Model) StorageSize(e expr.Expr) expr.Expr {
	t := e.ExprType()
	w := cm.weights()
	switch x := t.(type) {
	case expr.TBool:
		return num(w.BoolStorageBytes)
	case expr.TInt:
		return num(w.IntStorageBytes)
	case expr.THandle:
		return num(w.HandleStorageBytes)
	case expr.TEnum:
		return num(w.EnumStorageBytes)
	case expr.TString:
		return num(w.StringStorageBytes)
	case expr.TNative:
		if h, ok := cm.Extensions[x.Name]; ok {
			return h.StorageSize(e, cm.StorageSize)
		}
		return num(w.NativeStorageBytes)
	case expr.TTuple:
		parts := make([]expr.Expr, len(x.Ts))
		for i := range x.Ts {
			parts[i] = cm.StorageSize(&expr.TupleGet{E: e, I: i})
		}
		return sumExprs(parts)
	case expr.TRecord:
		parts := make([]expr.Expr, len(x.Fields))
		for i, f := range x.Fields {
			parts[i] = cm.StorageSize(&expr.GetField{E: e, Field: f.Name})
		}
		return sumExprs(parts)
	case expr.TBag, expr.TSet, expr.TList:
		v := expr.FreshVar(expr.ElemType(t), expr.FreeVarIDs(e))
		mapped := &expr.MapExpr{Coll: e, Fn: &expr.Lambda{Arg: v, Body: cm.StorageSize(v)}, T: intBag}
		total := &expr.UnaryExpr{Op: expr.OpSum, X: mapped, T: expr.TInt{}}
		return sumExprs([]expr.Expr{num(w.CollectionHeaderBytes), total})
	case expr.TMap:
		k := expr.FreshVar(x.K, expr.FreeVarIDs(e))
		body := sumExprs([]expr.Expr{
			cm.StorageSize(k),
			cm.StorageSize(&expr.MapGet{M: e, Key: k}),
		})
		mapped := &expr.MapExpr{Coll: &expr.MapKeys{M: e}, Fn: &expr.Lambda{Arg: k, Body: body}, T: intBag}
		total := &expr.UnaryExpr{Op: expr.OpSum, X: mapped, T: expr.TInt{}}
		return sumExprs([]expr.Expr{num(w.CollectionHeaderBytes), total})
	default:
		panic(fmt.Sprintf("cost: storage_size: unhandled type %s", t))
	}
}

// MaxStorageSize sums StorageSize over every StateVar sub-term of e — the
// state footprint if every materialized value were stored simultaneously.
func (cm *Model) MaxStorageSize(e expr.Expr) expr.Expr {
	var sizes []expr.Expr
	seen := map[string]bool{}
	for x := range expr.AllSubexps(e) {
		if sv, ok := x.(*expr.StateVar); ok {
			sz := cm.StorageSize(sv.E)
			key := sz.String()
			if !seen[key] {
				seen[key] = true
				sizes = append(sizes, sz)
			}
		}
	}
	return maxOf(sizes...)
}

func (cm *Model) weights() config.Weights {
	if cm.Weights == (config.Weights{}) {
		return config.Default()
	}
	return cm.Weights
}
