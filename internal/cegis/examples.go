package cegis

import (
	"github.com/exprsynth/synth/internal/eval"
	"github.com/exprsynth/synth/internal/expr"
	"github.com/exprsynth/synth/internal/solver"
)

// valuesOfType yields every value reachable from value (itself of
// valueType) that matches desired, recursing into Bag/Set/List elements.
// Ported from core.py's values_of_type — the comment there notes this is
// sound because every value bound to a pool binder is ultimately pulled
// out of some collection in an example.
func valuesOfType(value eval.Value, valueType, desired expr.Type, yield func(eval.Value) bool) bool {
	if expr.TypesEqual(valueType, desired) {
		return yield(value)
	}
	switch vt := valueType.(type) {
	case expr.TSet:
		s := value.(eval.Set)
		for _, e := range s.Elems {
			if !valuesOfType(e, vt.T, desired, yield) {
				return false
			}
		}
	case expr.TBag:
		b := value.(eval.Bag)
		for _, e := range b.Elems {
			if !valuesOfType(e, vt.T, desired, yield) {
				return false
			}
		}
	case expr.TList:
		l := value.(eval.List)
		for _, e := range l.Elems {
			if !valuesOfType(e, vt.T, desired, yield) {
				return false
			}
		}
	}
	return true
}

func uniqueValues(vals []eval.Value) []eval.Value {
	var out []eval.Value
	for _, v := range vals {
		dup := false
		for _, o := range out {
			if v.Equal(o) {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, v)
		}
	}
	return out
}

// instantiateExamplesOne fans each example out across every way to bind
// binder.id to a value of its type drawn from some variable's value in
// that example, falling back to the type's zero value when no variable
// offers one, ported from core.py's _instantiate_examples.
func instantiateExamplesOne(examples []solver.Model, vars []*expr.Var, binder *expr.Var) []solver.Model {
	var out []solver.Model
	for _, ex := range examples {
		found := 0
		if _, ok := ex[binder.ID]; ok {
			out = append(out, ex)
			found++
		}
		for _, v := range vars {
			val, ok := ex[v.ID]
			if !ok {
				continue
			}
			var candidates []eval.Value
			valuesOfType(val, v.T, binder.T, func(x eval.Value) bool {
				candidates = append(candidates, x)
				return true
			})
			for _, cand := range uniqueValues(candidates) {
				ex2 := cloneModel(ex)
				ex2[binder.ID] = cand
				out = append(out, ex2)
				found++
			}
		}
		if found == 0 {
			ex2 := cloneModel(ex)
			ex2[binder.ID] = eval.DefaultValue(binder.T)
			out = append(out, ex2)
		}
	}
	return out
}

func cloneModel(m solver.Model) solver.Model {
	out := make(solver.Model, len(m)+1)
	for k, v := range m {
		out[k] = v
	}
	return out
}

// InstantiateExamples expands examples with a concrete value for every
// binder in turn, ported from core.py's instantiate_examples. vars is
// the free-variable pool in scope; every binder must end up bound
// because the builder may reference it in isolation (inside a lambda
// body) even though nothing in the original target ever did.
func InstantiateExamples(examples []solver.Model, vars []*expr.Var, binders []*expr.Var) []solver.Model {
	for _, b := range binders {
		examples = instantiateExamplesOne(examples, vars, b)
	}
	return examples
}
