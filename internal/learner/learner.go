// Package learner implements the bottom-up synthesis loop (spec.md C6):
// given a target expression and a growing set of examples, it enumerates
// candidates in increasing size order and reports whenever it finds one
// that is observationally equivalent to (on every example so far) some
// sub-expression of the current target and either strictly cheaper than
// it, or equal in cost and not alpha-equivalent to it.
//
// Ported from cozy/synthesis/core.py's Learner class.
package learner

import (
	"context"
	"errors"
	"iter"

	"github.com/exprsynth/synth/internal/builder"
	"github.com/exprsynth/synth/internal/cost"
	"github.com/exprsynth/synth/internal/eval"
	"github.com/exprsynth/synth/internal/expr"
	"github.com/exprsynth/synth/internal/solver"
)

// ErrProgressExhausted reports that the learner grew the candidate size
// past the point where recent sizes produced any new or improved
// expression, mirroring core.py's StopException raised from next() when
// "last_progress < (current_size+1)//2". The CEGIS driver (C7) treats
// this as "no further improvement is reachable from here", not an error.
var ErrProgressExhausted = errors.New("learner: no progress in recent sizes")

type seenEntry struct {
	E    expr.Expr
	Size int
}

type watchedEntry struct {
	E expr.Expr
}

type recentInsertion struct {
	E    expr.Expr
	Size int
	FP   Fingerprint
}

// Learner is the candidate-generation half of CEGIS (spec.md C6).
type Learner struct {
	CostModel *cost.Model
	PathCtx   cost.Context

	builder builder.ExpBuilder
	ev      *eval.Evaluator

	cache        *builder.Cache
	seen         map[Fingerprint]seenEntry
	watched      map[Fingerprint]watchedEntry
	examples     []solver.Model
	target       expr.Expr
	currentSize  int
	lastProgress int

	builderNext func() (expr.Expr, bool)
	builderStop func()

	mostRecent  *recentInsertion
	overwritten *seenEntry
}

func emptySeq(func(expr.Expr) bool) {}

// New builds a Learner watching target, with b as the base builder (a
// *builder.FixedBuilder, typically) and examples as the initial example
// set — usually empty, refined later via Reset as the CEGIS driver finds
// counterexamples.
func New(ctx context.Context, cm *cost.Model, b builder.ExpBuilder, pathCtx cost.Context, target expr.Expr, examples []solver.Model) (*Learner, error) {
	l := &Learner{
		CostModel: cm,
		PathCtx:   pathCtx,
		builder:   b,
		ev:        eval.New(),
		seen:      map[Fingerprint]seenEntry{},
	}
	if err := l.Reset(examples, false); err != nil {
		return nil, err
	}
	if err := l.Watch(ctx, target); err != nil {
		return nil, err
	}
	return l, nil
}

// Reset forgets every accepted candidate and starts over from size 0
// against a new example set, ported from core.py's Learner.reset. When
// updateWatchedExps is true it also rebuilds the watched index from the
// current target — the CEGIS driver passes false when it is about to
// call Watch itself right after.
func (l *Learner) Reset(examples []solver.Model, updateWatchedExps bool) error {
	l.cache = builder.NewCache()
	l.currentSize = 0
	l.lastProgress = 0
	l.examples = examples
	l.seen = map[Fingerprint]seenEntry{}
	l.mostRecent = nil
	l.overwritten = nil
	if l.builderStop != nil {
		l.builderStop()
	}
	l.builderNext, l.builderStop = iter.Pull(iter.Seq[expr.Expr](emptySeq))
	if updateWatchedExps {
		return l.updateWatchedExps(context.Background())
	}
	return nil
}

// Watch switches the target the learner is improving, folding every
// non-lambda sub-expression of newTarget into the builder's root set so
// later candidates can reuse them as atomic size-1 components, ported
// from core.py's Learner.watch.
func (l *Learner) Watch(ctx context.Context, newTarget expr.Expr) error {
	var newRoots []expr.Expr
	for e := range expr.AllSubexps(newTarget) {
		if _, isLambda := e.(*expr.Lambda); isLambda {
			continue
		}
		if _, ok := l.tryFingerprint(e); !ok {
			continue
		}
		dup := false
		for _, r := range newRoots {
			if expr.AlphaEquivalent(r, e) {
				dup = true
				break
			}
		}
		if !dup {
			newRoots = append(newRoots, e)
		}
	}
	l.builder = l.builder.WithRoots(newRoots)
	l.target = newTarget
	if err := l.updateWatchedExps(ctx); err != nil {
		return err
	}
	if l.CostModel.IsMonotonic() {
		for fp, se := range l.seen {
			order, err := l.CostModel.Compare(ctx, l.PathCtx, se.E, l.target, cost.RUNTIME)
			if err != nil {
				continue
			}
			if order == cost.GT {
				l.cache.Evict(se.E, se.Size)
				delete(l.seen, fp)
			}
		}
	}
	return nil
}

// updateWatchedExps rebuilds the fingerprint -> sub-expression index used
// to recognize when a freshly-accepted candidate matches (on every
// example) and beats some part of the current target. Where several
// sub-expressions of the target share a fingerprint, the most expensive
// representative is kept — any cheaper improvement found for it also
// improves the others.
func (l *Learner) updateWatchedExps(ctx context.Context) error {
	l.watched = map[Fingerprint]watchedEntry{}
	for e := range expr.AllSubexps(l.target) {
		if _, isLambda := e.(*expr.Lambda); isLambda {
			continue
		}
		fp, ok := l.tryFingerprint(e)
		if !ok {
			continue
		}
		prev, has := l.watched[fp]
		if !has {
			l.watched[fp] = watchedEntry{E: e}
			continue
		}
		order, err := l.CostModel.Compare(ctx, l.PathCtx, e, prev.E, cost.RUNTIME)
		if err != nil {
			continue
		}
		if order == cost.GT {
			l.watched[fp] = watchedEntry{E: e}
		}
	}
	return nil
}

// ForgetMostRecent undoes the last insertion Next performed, used by the
// CEGIS driver when a proposed rewrite turns out to introduce a free
// variable outside scope, ported from core.py's forget_most_recent.
func (l *Learner) ForgetMostRecent() {
	r := l.mostRecent
	if r == nil {
		return
	}
	l.cache.Evict(r.E, r.Size)
	if l.overwritten == nil {
		delete(l.seen, r.FP)
	} else {
		l.seen[r.FP] = *l.overwritten
		l.cache.Add(l.overwritten.E, l.overwritten.Size)
	}
	l.mostRecent = nil
	l.overwritten = nil
}

// Next grows the candidate size until it finds an expression that
// matches some watched sub-expression of the target on every example and
// is strictly cheaper than it, or equal in cost and not alpha-equivalent
// to it, returning the watched sub-expression and its replacement. It returns ErrProgressExhausted when growing the size
// further is judged unproductive, or ctx.Err() if ctx is cancelled
// mid-search, ported from core.py's Learner.next.
func (l *Learner) Next(ctx context.Context) (old, replacement expr.Expr, err error) {
	for {
		for {
			e, ok := l.builderNext()
			if !ok {
				break
			}
			select {
			case <-ctx.Done():
				return nil, nil, ctx.Err()
			default:
			}

			if l.CostModel.IsMonotonic() {
				order, cerr := l.CostModel.Compare(ctx, l.PathCtx, e, l.target, cost.RUNTIME)
				if cerr != nil {
					return nil, nil, cerr
				}
				if order == cost.GT {
					continue
				}
			}

			fp := l.fingerprint(e)
			prev, has := l.seen[fp]
			if !has {
				l.overwritten = nil
				l.mostRecent = &recentInsertion{E: e, Size: l.currentSize, FP: fp}
				l.seen[fp] = seenEntry{E: e, Size: l.currentSize}
				l.cache.Add(e, l.currentSize)
				l.lastProgress = l.currentSize
			} else {
				order, cerr := l.CostModel.Compare(ctx, l.PathCtx, e, prev.E, cost.RUNTIME)
				if cerr != nil {
					return nil, nil, cerr
				}
				if order != cost.LT {
					continue
				}
				ov := prev
				l.overwritten = &ov
				l.mostRecent = &recentInsertion{E: e, Size: l.currentSize, FP: fp}
				l.cache.Evict(prev.E, prev.Size)
				l.cache.Add(e, l.currentSize)
				l.seen[fp] = seenEntry{E: e, Size: l.currentSize}
				l.lastProgress = l.currentSize
			}

			if w, ok := l.watched[fp]; ok {
				order, cerr := l.CostModel.Compare(ctx, l.PathCtx, e, w.E, cost.RUNTIME)
				if cerr != nil {
					return nil, nil, cerr
				}
				if order == cost.LT || (order == cost.EQ && !expr.AlphaEquivalent(e, w.E)) {
					return w.E, e, nil
				}
			}
		}

		if l.lastProgress < (l.currentSize+1)/2 {
			return nil, nil, ErrProgressExhausted
		}
		l.currentSize++
		if l.builderStop != nil {
			l.builderStop()
		}
		l.builderNext, l.builderStop = iter.Pull(iter.Seq[expr.Expr](l.builder.Build(l.cache, l.currentSize)))
	}
}

// CacheSample draws up to n candidates from the current candidate cache
// for post-mortem inspection after a cancelled run (spec.md §7).
func (l *Learner) CacheSample(n int) []expr.Expr {
	return l.cache.RandomSample(n)
}

// fingerprint computes e's Fingerprint against the learner's current
// example set, panicking only if computeFingerprint itself panics —
// callers that must tolerate an ill-defined candidate use tryFingerprint
// instead.
func (l *Learner) fingerprint(e expr.Expr) Fingerprint {
	return computeFingerprint(l.ev, e, l.examples)
}

// tryFingerprint computes e's Fingerprint, reporting ok=false instead of
// propagating a panic if evaluation fails on some example — a candidate
// that cannot be evaluated (e.g. it depends on a binder no example
// supplies a value for) is simply excluded from the watched/root index,
// mirroring core.py's try/except around fingerprint() in watch().
func (l *Learner) tryFingerprint(e expr.Expr) (fp Fingerprint, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			ok = false
		}
	}()
	return computeFingerprint(l.ev, e, l.examples), true
}
