package learner

import (
	"github.com/exprsynth/synth/internal/builder"
	"github.com/exprsynth/synth/internal/eval"
	"github.com/exprsynth/synth/internal/expr"
	"github.com/exprsynth/synth/internal/solver"
)

// Fingerprint identifies an expression by its type plus its evaluated
// value on every example in the current example set, ported from
// cozy/synthesis/core.py's fingerprint(e, examples) = (e.type,) + tuple(
// eval(e, ex) for ex in examples). Two expressions sharing a Fingerprint
// are observationally equivalent on every example seen so far — not
// necessarily equal everywhere, which is exactly what the CEGIS
// counterexample loop (spec.md C7) exists to refine.
//
// Values are folded into a single FNV hash rather than kept as a literal
// tuple: eval.Value isn't Go-comparable (collections hold slices), so a
// combined hash is the practical stand-in for Python's tuple-of-values
// dict key. A hash collision would fuse two genuinely different
// fingerprints; with the FNV-64 mixing eval.Value.Hash already uses
// throughout this package, that risk is the same one the evaluator's own
// Set/Bag deduplication already accepts.
type Fingerprint struct {
	TypeTag string
	TypeStr string
	Hash    uint64
}

const (
	fnvOffset = 14695981039346656037
	fnvPrime  = 1099511628211
)

func fnvMix(h uint64, x uint64) uint64 {
	h ^= x
	h *= fnvPrime
	return h
}

func computeFingerprint(ev *eval.Evaluator, e expr.Expr, examples []solver.Model) Fingerprint {
	envs := make([]*eval.Env, len(examples))
	for i, ex := range examples {
		envs[i] = eval.NewEnv(ex)
	}
	h := uint64(fnvOffset)
	for _, v := range ev.EvalBulk(e, envs, true) {
		h = fnvMix(h, v.Hash())
	}
	t := e.ExprType()
	return Fingerprint{TypeTag: builder.TypeTag(t), TypeStr: t.String(), Hash: h}
}
