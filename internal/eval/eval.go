package eval

import (
	"fmt"

	"github.com/exprsynth/synth/internal/expr"
)

// Evaluator performs total evaluation of a closed expr.Expr under a
// variable environment (spec.md §4.2). Funcs binds the uninterpreted
// function names a Call node may reference — supplied externally by the
// host, exactly as spec.md §1 describes the evaluator as an external
// collaborator interface the core consumes rather than owns end to end.
type Evaluator struct {
	Funcs map[string]func([]Value) Value
}

// New builds an Evaluator with no host functions bound.
func New() *Evaluator {
	return &Evaluator{Funcs: make(map[string]func([]Value) Value)}
}

// Eval evaluates e under env. For the same (e, env) the result is bitwise
// identical across calls (spec.md's determinism requirement) because every
// case below is a pure function of its inputs.
func (ev *Evaluator) Eval(e expr.Expr, env *Env) Value {
	switch n := e.(type) {
	case *expr.Num:
		return Int{Val: n.Val}
	case *expr.BoolLit:
		return Bool{Val: n.Val}
	case *expr.StrLit:
		return String{Val: n.Val}
	case *expr.EnumEntry:
		return Enum{Case: n.Name}
	case *expr.EmptyList:
		return emptyCollection(n.T)
	case *expr.Singleton:
		return ev.evalSingleton(n, env)
	case *expr.Var:
		v, ok := env.Get(n.ID)
		if !ok {
			panic(fmt.Sprintf("eval: unbound variable %s", n.ID))
		}
		return v
	case *expr.StateVar:
		return ev.Eval(n.E, env)
	case *expr.Lambda:
		return Closure{Lam: n, Env: env}
	case *expr.Call:
		return ev.evalCall(n, env)
	case *expr.UnaryExpr:
		return ev.evalUnary(n, env)
	case *expr.BinaryExpr:
		return ev.evalBinary(n, env)
	case *expr.Filter:
		return ev.evalFilter(n, env)
	case *expr.MapExpr:
		return ev.evalMap(n, env)
	case *expr.FlatMap:
		return ev.evalFlatMap(n, env)
	case *expr.Flatten:
		return ev.evalFlatten(n, env)
	case *expr.ArgMin:
		return ev.evalArgExtreme(n.Coll, n.Fn, env, true)
	case *expr.ArgMax:
		return ev.evalArgExtreme(n.Coll, n.Fn, env, false)
	case *expr.MakeMap2:
		return ev.evalMakeMap2(n, env)
	case *expr.MapGet:
		return ev.evalMapGet(n, env)
	case *expr.MapKeys:
		m := ev.Eval(n.M, env).(Map)
		elems := make([]Value, len(m.Entries))
		for i, e := range m.Entries {
			elems[i] = e.Key
		}
		return Set{Elems: elems}
	case *expr.HasKey:
		m := ev.Eval(n.M, env).(Map)
		key := ev.Eval(n.Key, env)
		_, found := m.Get(key)
		return Bool{Val: found}
	case *expr.TupleExpr:
		elems := make([]Value, len(n.Elems))
		for i, x := range n.Elems {
			elems[i] = ev.Eval(x, env)
		}
		return Tuple{Elems: elems}
	case *expr.TupleGet:
		t := ev.Eval(n.E, env).(Tuple)
		return t.Elems[n.I]
	case *expr.GetField:
		r := ev.Eval(n.E, env).(Record)
		v, ok := r.Get(n.Field)
		if !ok {
			panic(fmt.Sprintf("eval: record has no field %q", n.Field))
		}
		return v
	case *expr.Cond:
		if ev.Eval(n.C, env).(Bool).Val {
			return ev.Eval(n.Then, env)
		}
		return ev.Eval(n.Else, env)
	default:
		panic(fmt.Sprintf("eval: unhandled Expr variant %T", e))
	}
}

// EvalBulk evaluates e once per env in envs. When useDefaultValuesForUndefinedVars
// is set, a variable missing from an individual env is resolved to its
// type's default rather than panicking — used by the cost model when
// evaluating symbolic cost expressions against examples that were
// instantiated for a different (sub-)target (spec.md §4.2).
func (ev *Evaluator) EvalBulk(e expr.Expr, envs []*Env, useDefaultValuesForUndefinedVars bool) []Value {
	out := make([]Value, len(envs))
	for i, env := range envs {
		if useDefaultValuesForUndefinedVars {
			env = ev.withDefaultsForFreeVars(e, env)
		}
		out[i] = ev.Eval(e, env)
	}
	return out
}

func (ev *Evaluator) withDefaultsForFreeVars(e expr.Expr, env *Env) *Env {
	out := env
	for _, v := range expr.FreeVars(e) {
		if _, ok := env.Get(v.ID); !ok {
			out = out.Extend(v.ID, DefaultValue(v.T))
		}
	}
	return out
}

func (ev *Evaluator) evalSingleton(n *expr.Singleton, env *Env) Value {
	v := ev.Eval(n.E, env)
	switch n.CollT.(type) {
	case expr.TSet:
		return Set{Elems: []Value{v}}
	case expr.TList:
		return List{Elems: []Value{v}}
	default:
		return Bag{Elems: []Value{v}}
	}
}

func (ev *Evaluator) evalCall(n *expr.Call, env *Env) Value {
	fn, ok := ev.Funcs[n.Name]
	if !ok {
		panic(fmt.Sprintf("eval: no host binding for function %q", n.Name))
	}
	args := make([]Value, len(n.Args))
	for i, a := range n.Args {
		args[i] = ev.Eval(a, env)
	}
	return fn(args)
}

func (ev *Evaluator) apply(closure Closure, arg Value) Value {
	return ev.Eval(closure.Lam.Body, closure.Env.Extend(closure.Lam.Arg.ID, arg))
}

func elemsOf(v Value) []Value {
	switch c := v.(type) {
	case Bag:
		return c.Elems
	case Set:
		return c.Elems
	case List:
		return c.Elems
	default:
		panic(fmt.Sprintf("eval: %T is not a collection", v))
	}
}

func rebuildLike(template Value, elems []Value) Value {
	switch template.(type) {
	case Set:
		return Set{Elems: dedup(elems)}
	case List:
		return List{Elems: elems}
	default:
		return Bag{Elems: elems}
	}
}

func dedup(elems []Value) []Value {
	out := make([]Value, 0, len(elems))
	for _, e := range elems {
		found := false
		for _, o := range out {
			if o.Equal(e) {
				found = true
				break
			}
		}
		if !found {
			out = append(out, e)
		}
	}
	return out
}

func (ev *Evaluator) evalFilter(n *expr.Filter, env *Env) Value {
	coll := ev.Eval(n.Coll, env)
	closure := Closure{Lam: n.Pred, Env: env}
	var kept []Value
	for _, x := range elemsOf(coll) {
		if ev.apply(closure, x).(Bool).Val {
			kept = append(kept, x)
		}
	}
	return rebuildLike(coll, kept)
}

func (ev *Evaluator) evalMap(n *expr.MapExpr, env *Env) Value {
	coll := ev.Eval(n.Coll, env)
	closure := Closure{Lam: n.Fn, Env: env}
	elems := elemsOf(coll)
	out := make([]Value, len(elems))
	for i, x := range elems {
		out[i] = ev.apply(closure, x)
	}
	// Result kind follows the node's declared type, not the runtime kind
	// of Coll: a Set mapped into Bag(Int) (as the cost model's storage_size
	// does) must keep every element, not dedup the mapped values.
	switch n.T.(type) {
	case expr.TSet:
		return Set{Elems: dedup(out)}
	case expr.TList:
		return List{Elems: out}
	default:
		return Bag{Elems: out}
	}
}

func (ev *Evaluator) evalFlatMap(n *expr.FlatMap, env *Env) Value {
	coll := ev.Eval(n.Coll, env)
	closure := Closure{Lam: n.Fn, Env: env}
	var out []Value
	for _, x := range elemsOf(coll) {
		sub := ev.apply(closure, x)
		out = append(out, elemsOf(sub)...)
	}
	if _, ok := coll.(Set); ok {
		return Set{Elems: dedup(out)}
	}
	return Bag{Elems: out}
}

func (ev *Evaluator) evalFlatten(n *expr.Flatten, env *Env) Value {
	coll := ev.Eval(n.Coll, env)
	var out []Value
	for _, x := range elemsOf(coll) {
		out = append(out, elemsOf(x)...)
	}
	if _, ok := coll.(Set); ok {
		return Set{Elems: dedup(out)}
	}
	return Bag{Elems: out}
}

// evalArgExtreme implements both ArgMin (wantMin=true) and ArgMax. On an
// empty collection it returns the element type's default value (spec.md
// §4.2's "ArgMin/ArgMax on empty returns the type default").
func (ev *Evaluator) evalArgExtreme(collE expr.Expr, fn *expr.Lambda, env *Env, wantMin bool) Value {
	coll := ev.Eval(collE, env)
	elems := elemsOf(coll)
	if len(elems) == 0 {
		return DefaultValue(expr.ElemType(collE.ExprType()))
	}
	closure := Closure{Lam: fn, Env: env}
	best := elems[0]
	bestKey := ev.apply(closure, best)
	for _, x := range elems[1:] {
		key := ev.apply(closure, x)
		c := compareValues(key, bestKey)
		if (wantMin && c < 0) || (!wantMin && c > 0) {
			best, bestKey = x, key
		}
	}
	return best
}

func (ev *Evaluator) evalMakeMap2(n *expr.MakeMap2, env *Env) Value {
	coll := ev.Eval(n.Coll, env)
	closure := Closure{Lam: n.Value, Env: env}
	var entries []MapEntry
	for _, k := range elemsOf(coll) {
		v := ev.apply(closure, k)
		replaced := false
		for i, e := range entries {
			if e.Key.Equal(k) {
				entries[i].Val = v
				replaced = true
				break
			}
		}
		if !replaced {
			entries = append(entries, MapEntry{Key: k, Val: v})
		}
	}
	return Map{Entries: entries}
}

func (ev *Evaluator) evalMapGet(n *expr.MapGet, env *Env) Value {
	m := ev.Eval(n.M, env).(Map)
	k := ev.Eval(n.Key, env)
	if v, ok := m.Get(k); ok {
		return v
	}
	return DefaultValue(n.ExprType())
}

// compareValues orders two scalar Values, used by ArgMin/ArgMax. Ordering
// over non-scalar or mismatched-type values is a programmer error — the
// type checker that built the AST guarantees ArgMin/ArgMax keys are
// comparable.
func compareValues(a, b Value) int {
	switch x := a.(type) {
	case Int:
		y := b.(Int)
		switch {
		case x.Val < y.Val:
			return -1
		case x.Val > y.Val:
			return 1
		default:
			return 0
		}
	case String:
		y := b.(String)
		switch {
		case x.Val < y.Val:
			return -1
		case x.Val > y.Val:
			return 1
		default:
			return 0
		}
	case Bool:
		y := b.(Bool)
		if x.Val == y.Val {
			return 0
		}
		if !x.Val && y.Val {
			return -1
		}
		return 1
	default:
		panic(fmt.Sprintf("eval: %T is not orderable", a))
	}
}

func emptyCollection(t expr.Type) Value {
	switch t.(type) {
	case expr.TSet:
		return Set{}
	case expr.TList:
		return List{}
	default:
		return Bag{}
	}
}

// DefaultValue returns the canonical zero value for t, used for
// ArgMin/ArgMax/The on empty collections and for
// use_default_values_for_undefined_vars in EvalBulk.
func DefaultValue(t expr.Type) Value {
	switch x := t.(type) {
	case expr.TBool:
		return Bool{}
	case expr.TInt:
		return Int{}
	case expr.TString:
		return String{}
	case expr.TNative:
		return Native{TypeName: x.Name}
	case expr.TEnum:
		if len(x.Cases) == 0 {
			panic("eval: enum type with no cases has no default")
		}
		return Enum{Case: x.Cases[0]}
	case expr.THandle:
		// ID 0 is never returned by NextHandleID, so every default handle
		// has the same identity and repeated evaluations agree.
		return Handle{ID: 0, Val: DefaultValue(x.Val)}
	case expr.TTuple:
		elems := make([]Value, len(x.Ts))
		for i, et := range x.Ts {
			elems[i] = DefaultValue(et)
		}
		return Tuple{Elems: elems}
	case expr.TRecord:
		fields := make([]RecordEntry, len(x.Fields))
		for i, f := range x.Fields {
			fields[i] = RecordEntry{Name: f.Name, Val: DefaultValue(f.T)}
		}
		return Record{Fields: fields}
	case expr.TBag:
		return Bag{}
	case expr.TSet:
		return Set{}
	case expr.TList:
		return List{}
	case expr.TMap:
		return Map{}
	default:
		panic(fmt.Sprintf("eval: no default value for type %T", t))
	}
}
