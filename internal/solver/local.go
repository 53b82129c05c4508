package solver

import (
	"context"
	"errors"
	"sort"

	"github.com/exprsynth/synth/internal/eval"
	"github.com/exprsynth/synth/internal/expr"
)

// ErrUnbounded is returned by LocalSolver when phi ranges over a free
// variable whose type has no bounded enumeration (Record, Map, Function,
// Native): the formula is outside what bounded verification can decide.
var ErrUnbounded = errors.New("solver: formula not decidable within the bounded domain")

// LocalSolver decides validity and satisfiability by exhaustively checking
// every assignment drawn from a small finite Domain, instead of consulting
// a real SMT backend (none exists in this module's dependency stack). This
// is sound but incomplete: a "valid" verdict is a genuine proof restricted
// to the bounded domain, never a proof over the infinite one, matching the
// Non-goal spec.md explicitly allows ("a complete decision procedure").
// It is always available and requires no network or external process,
// unlike RemoteSolver.
type LocalSolver struct {
	Domain Domain
	Eval   *eval.Evaluator
}

// NewLocalSolver builds a LocalSolver with the default bounded domain.
func NewLocalSolver() *LocalSolver {
	return &LocalSolver{Domain: DefaultDomain, Eval: eval.New()}
}

func (s *LocalSolver) domain() Domain {
	if s.Domain == (Domain{}) {
		return DefaultDomain
	}
	return s.Domain
}

func (s *LocalSolver) evaluator() *eval.Evaluator {
	if s.Eval == nil {
		return eval.New()
	}
	return s.Eval
}

// enumerateAssignments walks the cross product of each var's bounded
// domain, calling visit with a fully-built environment for each one. It
// stops early (returning false) if visit returns false, or if any var's
// type has no bounded enumeration.
func (s *LocalSolver) enumerateAssignments(vars []*expr.Var, visit func(*eval.Env) bool) (bool, error) {
	d := s.domain()
	domains := make([][]eval.Value, len(vars))
	for i, v := range vars {
		vals := d.Enumerate(v.T)
		if vals == nil {
			return false, ErrUnbounded
		}
		domains[i] = vals
	}

	assignment := make(map[string]eval.Value, len(vars))
	var rec func(i int) bool
	rec = func(i int) bool {
		if i == len(vars) {
			return visit(eval.NewEnv(assignment))
		}
		for _, val := range domains[i] {
			assignment[vars[i].ID] = val
			if !rec(i + 1) {
				return false
			}
		}
		return true
	}
	return rec(0), nil
}

// Valid reports whether phi evaluates to true under every bounded
// assignment of its free variables.
func (s *LocalSolver) Valid(ctx context.Context, phi expr.Expr) (bool, error) {
	vars := freeVarSlice(phi)
	ev := s.evaluator()
	ok, err := s.enumerateAssignments(vars, func(env *eval.Env) bool {
		if ctx.Err() != nil {
			return false
		}
		return ev.Eval(phi, env).(eval.Bool).Val
	})
	if err != nil {
		return false, err
	}
	if ctx.Err() != nil {
		return false, ctx.Err()
	}
	return ok, nil
}

// Satisfiable reports whether phi evaluates to true under some bounded
// assignment.
func (s *LocalSolver) Satisfiable(ctx context.Context, phi expr.Expr) (bool, error) {
	m, err := s.Satisfy(ctx, phi, freeVarSlice(phi))
	if err != nil {
		return false, err
	}
	return m != nil, nil
}

// Satisfy searches the bounded domain for an assignment to vars under
// which phi is true, returning the first one found.
func (s *LocalSolver) Satisfy(ctx context.Context, phi expr.Expr, vars []*expr.Var) (Model, error) {
	ev := s.evaluator()
	var found Model
	_, err := s.enumerateAssignments(vars, func(env *eval.Env) bool {
		if ctx.Err() != nil {
			return false
		}
		if ev.Eval(phi, env).(eval.Bool).Val {
			found = make(Model, len(vars))
			for _, v := range vars {
				val, _ := env.Get(v.ID)
				found[v.ID] = val
			}
			return false // stop enumerating, we have our witness
		}
		return true
	})
	if err != nil {
		return nil, err
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	return found, nil
}

// freeVarSlice is FreeVars projected to a deterministically-ordered slice
// (ordering doesn't matter for correctness, only for reproducible
// enumeration order in tests).
func freeVarSlice(e expr.Expr) []*expr.Var {
	fv := expr.FreeVars(e)
	out := make([]*expr.Var, 0, len(fv))
	for _, v := range fv {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
