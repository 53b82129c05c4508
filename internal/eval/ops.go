package eval

import (
	"fmt"

	"github.com/exprsynth/synth/internal/expr"
)

func (ev *Evaluator) evalUnary(n *expr.UnaryExpr, env *Env) Value {
	switch n.Op {
	case expr.OpNot:
		return Bool{Val: !ev.Eval(n.X, env).(Bool).Val}
	case expr.OpSum:
		total := int64(0)
		for _, x := range elemsOf(ev.Eval(n.X, env)) {
			total += x.(Int).Val
		}
		return Int{Val: total}
	case expr.OpLength:
		return Int{Val: int64(len(elemsOf(ev.Eval(n.X, env))))}
	case expr.OpDistinct:
		coll := ev.Eval(n.X, env)
		deduped := dedup(elemsOf(coll))
		if _, ok := n.T.(expr.TList); ok {
			return List{Elems: deduped}
		}
		return Set{Elems: deduped}
	case expr.OpAreUnique:
		elems := elemsOf(ev.Eval(n.X, env))
		return Bool{Val: len(dedup(elems)) == len(elems)}
	case expr.OpAll:
		for _, x := range elemsOf(ev.Eval(n.X, env)) {
			if !x.(Bool).Val {
				return Bool{Val: false}
			}
		}
		return Bool{Val: true}
	case expr.OpAny:
		for _, x := range elemsOf(ev.Eval(n.X, env)) {
			if x.(Bool).Val {
				return Bool{Val: true}
			}
		}
		return Bool{Val: false}
	case expr.OpReversed:
		elems := elemsOf(ev.Eval(n.X, env))
		out := make([]Value, len(elems))
		for i, x := range elems {
			out[len(elems)-1-i] = x
		}
		return List{Elems: out}
	case expr.OpEmpty:
		return Bool{Val: len(elemsOf(ev.Eval(n.X, env))) == 0}
	case expr.OpExists:
		return Bool{Val: len(elemsOf(ev.Eval(n.X, env))) > 0}
	case expr.OpThe:
		elems := elemsOf(ev.Eval(n.X, env))
		switch len(elems) {
		case 0:
			return DefaultValue(expr.ElemType(n.X.ExprType()))
		case 1:
			return elems[0]
		default:
			panic("eval: The applied to a collection with more than one element")
		}
	default:
		panic(fmt.Sprintf("eval: unhandled unary op %s", n.Op))
	}
}

func (ev *Evaluator) evalBinary(n *expr.BinaryExpr, env *Env) Value {
	// Short-circuit and/or before evaluating the right operand.
	switch n.Op {
	case expr.OpAnd:
		if !ev.Eval(n.X, env).(Bool).Val {
			return Bool{Val: false}
		}
		return Bool{Val: ev.Eval(n.Y, env).(Bool).Val}
	case expr.OpOr:
		if ev.Eval(n.X, env).(Bool).Val {
			return Bool{Val: true}
		}
		return Bool{Val: ev.Eval(n.Y, env).(Bool).Val}
	}

	x := ev.Eval(n.X, env)
	y := ev.Eval(n.Y, env)

	switch n.Op {
	case expr.OpAdd:
		if expr.IsCollection(n.T) {
			return rebuildLike(x, append(append([]Value{}, elemsOf(x)...), elemsOf(y)...))
		}
		return Int{Val: x.(Int).Val + y.(Int).Val}
	case expr.OpSub:
		if expr.IsCollection(n.T) {
			return bagDifference(x, y)
		}
		return Int{Val: x.(Int).Val - y.(Int).Val}
	case expr.OpMul:
		return Int{Val: x.(Int).Val * y.(Int).Val}
	case expr.OpEq:
		return Bool{Val: x.Equal(y)}
	case expr.OpIdentEq:
		return Bool{Val: HandleIdentityEqual(x.(Handle), y.(Handle))}
	case expr.OpNeq:
		return Bool{Val: !x.Equal(y)}
	case expr.OpLt:
		return Bool{Val: compareValues(x, y) < 0}
	case expr.OpLe:
		return Bool{Val: compareValues(x, y) <= 0}
	case expr.OpGt:
		return Bool{Val: compareValues(x, y) > 0}
	case expr.OpGe:
		return Bool{Val: compareValues(x, y) >= 0}
	case expr.OpIn:
		for _, e := range elemsOf(y) {
			if e.Equal(x) {
				return Bool{Val: true}
			}
		}
		return Bool{Val: false}
	default:
		panic(fmt.Sprintf("eval: unhandled binary op %s", n.Op))
	}
}

// bagDifference computes multiset subtraction: each element of a is kept
// unless it can be matched against a not-yet-consumed element of b.
func bagDifference(a, b Value) Value {
	bElems := append([]Value{}, elemsOf(b)...)
	used := make([]bool, len(bElems))
	var out []Value
	for _, x := range elemsOf(a) {
		matched := false
		for j, y := range bElems {
			if !used[j] && x.Equal(y) {
				used[j] = true
				matched = true
				break
			}
		}
		if !matched {
			out = append(out, x)
		}
	}
	return rebuildLike(a, out)
}
