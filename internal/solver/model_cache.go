package solver

import (
	"context"

	"github.com/exprsynth/synth/internal/eval"
	"github.com/exprsynth/synth/internal/expr"
)

// ModelCachingSolver wraps a backend Solver with the example-caching
// contract of spec.md §4.3: valid(phi) first tries to refute phi against
// every cached example, only falling through to the backend when none do;
// any model satisfy finds is appended to the cache before it is returned.
// Assumptions is the ambient conjunction A every query is implicitly
// guarded by (spec.md's "A = path_conditions(ctx)"); callers fold it into
// phi themselves via solver.Implies/solver.All, Assumptions is carried
// here only so the example cache can be seeded consistently across a
// single CEGIS run (see internal/cegis).
type ModelCachingSolver struct {
	Backend     Solver
	Assumptions expr.Expr
	Examples    []Model
	ev          *eval.Evaluator
}

// NewModelCachingSolver wraps backend with an empty example cache.
func NewModelCachingSolver(backend Solver) *ModelCachingSolver {
	return &ModelCachingSolver{Backend: backend, ev: eval.New()}
}

func (s *ModelCachingSolver) evaluator() *eval.Evaluator {
	if s.ev == nil {
		s.ev = eval.New()
	}
	return s.ev
}

func (s *ModelCachingSolver) envOf(m Model) *eval.Env {
	vars := make(map[string]eval.Value, len(m))
	for k, v := range m {
		vars[k] = v
	}
	return eval.NewEnv(vars)
}

// Valid refutes phi against every cached example before delegating to the
// backend, per spec.md §4.3.
func (s *ModelCachingSolver) Valid(ctx context.Context, phi expr.Expr) (bool, error) {
	ev := s.evaluator()
	for _, ex := range s.Examples {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		result := ev.EvalBulk(phi, []*eval.Env{s.envOf(ex)}, true)[0]
		if !result.(eval.Bool).Val {
			return false, nil
		}
	}
	return s.Backend.Valid(ctx, phi)
}

// Satisfiable delegates straight to the backend: an example cache can only
// refute validity, it cannot itself prove satisfiability (a satisfying
// example for phi's free variables is exactly what Satisfy searches for).
func (s *ModelCachingSolver) Satisfiable(ctx context.Context, phi expr.Expr) (bool, error) {
	return s.Backend.Satisfiable(ctx, phi)
}

// Satisfy delegates to the backend and, on success, appends the model to
// the example cache before returning it — every counterexample the driver
// discovers this way enriches every subsequent Valid refutation attempt.
func (s *ModelCachingSolver) Satisfy(ctx context.Context, phi expr.Expr, vars []*expr.Var) (Model, error) {
	m, err := s.Backend.Satisfy(ctx, phi, vars)
	if err != nil || m == nil {
		return m, err
	}
	s.Examples = append(s.Examples, m)
	return m, nil
}
