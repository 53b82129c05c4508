package cegis

import (
	"context"
	"errors"
	"testing"

	"github.com/exprsynth/synth/internal/builder"
	"github.com/exprsynth/synth/internal/config"
	"github.com/exprsynth/synth/internal/cost"
	"github.com/exprsynth/synth/internal/expr"
	"github.com/exprsynth/synth/internal/solver"
)

func TestDriverImproveDropsRedundantAddition(t *testing.T) {
	s := solver.NewLocalSolver()
	cm := cost.NewModel(s, config.Default())
	d := &Driver{
		Solver:    s,
		CostModel: cm,
		Builder:   builder.NewEnumerator(),
	}

	x := &expr.Var{ID: "x", T: expr.TInt{}}
	target := &expr.BinaryExpr{Op: expr.OpAdd, X: x, Y: &expr.Num{Val: 0}, T: expr.TInt{}}
	assumptions := &expr.BoolLit{Val: true}

	var improvements []expr.Expr
	var finalErr error
	for improved, err := range d.Improve(context.Background(), target, assumptions) {
		if err != nil {
			finalErr = err
			break
		}
		improvements = append(improvements, improved)
	}

	if !errors.Is(finalErr, ErrNoProgress) {
		t.Fatalf("Improve should terminate with ErrNoProgress once no further improvement exists, got %v", finalErr)
	}
	if len(improvements) != 1 {
		t.Fatalf("Improve should yield exactly one accepted rewrite (x+0 -> x), got %d: %v", len(improvements), improvements)
	}
	gotVar, ok := improvements[0].(*expr.Var)
	if !ok || gotVar.ID != "x" {
		t.Fatalf("the accepted rewrite should be bare x, got %s", improvements[0])
	}
}

func TestDriverCacheSampleNilBeforeImprove(t *testing.T) {
	d := &Driver{}
	if d.CacheSample(5) != nil {
		t.Fatalf("CacheSample before Improve has ever run should return nil")
	}
}
