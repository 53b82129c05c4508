// Package cegis implements the outer counterexample-guided synthesis
// loop (spec.md C7): repeatedly ask the learner for a candidate rewrite,
// check it against the solver for a counterexample, and either grow the
// example set or commit the rewrite as a genuine improvement.
//
// Ported from cozy/synthesis/core.py's improve() generator.
package cegis

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/exprsynth/synth/internal/builder"
	"github.com/exprsynth/synth/internal/cost"
	"github.com/exprsynth/synth/internal/expr"
	"github.com/exprsynth/synth/internal/learner"
	"github.com/exprsynth/synth/internal/solver"
)

// CostRegressionError reports that the cost model judged a rewrite the
// learner proposed, and the solver could not refute as behaviorally
// different, to be *more* expensive than what it replaced — a
// contradiction the learner's own cost-ceiling pruning should have
// prevented. Ported from core.py's improve() hitting
// "assert new_cost <= old_cost"; Go returns it rather than panicking
// since a caller may want to report and continue rather than crash
// (spec.md §7).
type CostRegressionError struct {
	Old, New expr.Expr
}

func (e *CostRegressionError) Error() string {
	return fmt.Sprintf("cegis: cost model regression: %s is reported cheaper than %s but compares as more expensive", e.New, e.Old)
}

// ErrNoProgress reports that the learner exhausted its candidate sizes
// without finding any further improvement, ported from core.py's
// StopException raised out of Learner.next().
var ErrNoProgress = errors.New("cegis: no further improvement found")

// Driver runs the CEGIS loop (spec.md C7).
type Driver struct {
	Solver    solver.Solver
	CostModel *cost.Model
	Builder   builder.ExpBuilder // the base Enumerator, unwrapped by FixedBuilder
	Binders   []*expr.Var
	Verbose   bool

	active *learner.Learner
}

// CacheSample draws up to n candidates from the most recent (or
// currently running) Improve call's candidate cache, for a caller to
// persist as a post-mortem sample after a cancelled run (spec.md §7).
// Returns nil if Improve has never run.
func (d *Driver) CacheSample(n int) []expr.Expr {
	if d.active == nil {
		return nil
	}
	return d.active.CacheSample(n)
}

// Improve streams every successive improvement over target under
// assumptions, stopping when the learner runs out of progress (yielding
// ErrNoProgress), the context is cancelled (yielding ctx.Err()), or a
// cost-model bug is detected (yielding a *CostRegressionError). Range
// over the result with a two-value range-over-func loop and stop as soon
// as a non-nil error is yielded — everything after that point is
// terminal, ported from core.py's improve().
func (d *Driver) Improve(ctx context.Context, target, assumptions expr.Expr) func(yield func(expr.Expr, error) bool) {
	return func(yield func(expr.Expr, error) bool) {
		fixedTarget, err := builder.FixupBinders(target, d.Binders)
		if err != nil {
			yield(nil, fmt.Errorf("cegis: fixing up binders in initial target: %w", err))
			return
		}

		base := builder.NewFixedBuilder(ctx, d.Builder, d.Binders, assumptions, d.Solver)
		pathCtx := cost.Context{PathConditions: []expr.Expr{assumptions}}

		vars := unionFreeVars(fixedTarget, assumptions)
		varList := varSlice(vars)

		var examples []solver.Model
		l, err := learner.New(ctx, d.CostModel, base, pathCtx, fixedTarget, InstantiateExamples(examples, varList, d.Binders))
		if err != nil {
			yield(nil, fmt.Errorf("cegis: initializing learner: %w", err))
			return
		}
		d.active = l

		curTarget := fixedTarget
		for {
			select {
			case <-ctx.Done():
				yield(nil, ctx.Err())
				return
			default:
			}

			oldSub, newSub, err := l.Next(ctx)
			if err != nil {
				if errors.Is(err, learner.ErrProgressExhausted) {
					yield(nil, ErrNoProgress)
				} else {
					yield(nil, err)
				}
				return
			}

			candidate := expr.Replace(curTarget, oldSub, newSub)

			if introducesOutOfScopeVar(candidate, vars) {
				d.logf("cegis: discarding rewrite %s -> %s: introduces an out-of-scope variable", oldSub, newSub)
				l.ForgetMostRecent()
				continue
			}

			formula := solver.All([]expr.Expr{assumptions, solver.Not(solver.Equal(curTarget, candidate))})
			counterexample, err := d.Solver.Satisfy(ctx, formula, varList)
			if err != nil {
				yield(nil, fmt.Errorf("cegis: checking equivalence of rewrite: %w", err))
				return
			}
			if counterexample != nil {
				examples = append(examples, counterexample)
				if err := l.Reset(InstantiateExamples(examples, varList, d.Binders), true); err != nil {
					yield(nil, fmt.Errorf("cegis: rebuilding learner after counterexample: %w", err))
					return
				}
				continue
			}

			order, err := d.CostModel.Compare(ctx, pathCtx, curTarget, candidate, cost.RUNTIME)
			if err != nil {
				yield(nil, fmt.Errorf("cegis: comparing rewrite cost: %w", err))
				return
			}
			switch order {
			case cost.LT:
				yield(nil, &CostRegressionError{Old: curTarget, New: candidate})
				return
			case cost.EQ, cost.AMBIG:
				// No confirmed improvement (or the solver can't prove one) —
				// discard and keep searching rather than accept on faith.
				continue
			}

			if err := l.Reset(InstantiateExamples(examples, varList, d.Binders), false); err != nil {
				yield(nil, fmt.Errorf("cegis: rebuilding learner after accepted rewrite: %w", err))
				return
			}
			if err := l.Watch(ctx, candidate); err != nil {
				yield(nil, fmt.Errorf("cegis: watching new target: %w", err))
				return
			}
			curTarget = candidate
			d.logf("cegis: accepted rewrite, new cost basis %s", candidate)
			if !yield(curTarget, nil) {
				return
			}
		}
	}
}

func (d *Driver) logf(format string, args ...any) {
	if d.Verbose {
		log.Printf(format, args...)
	}
}

func unionFreeVars(es ...expr.Expr) map[string]*expr.Var {
	out := map[string]*expr.Var{}
	for _, e := range es {
		for id, v := range expr.FreeVars(e) {
			out[id] = v
		}
	}
	return out
}

func varSlice(vars map[string]*expr.Var) []*expr.Var {
	out := make([]*expr.Var, 0, len(vars))
	for _, v := range vars {
		out = append(out, v)
	}
	return out
}

func introducesOutOfScopeVar(e expr.Expr, scope map[string]*expr.Var) bool {
	for id := range expr.FreeVars(e) {
		if _, ok := scope[id]; !ok {
			return true
		}
	}
	return false
}
