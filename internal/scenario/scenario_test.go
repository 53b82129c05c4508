package scenario

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/exprsynth/synth/internal/expr"
)

func writeScenario(t *testing.T, yamlText string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	if err := os.WriteFile(path, []byte(yamlText), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestLoadParsesBinaryTargetAndBinder(t *testing.T) {
	path := writeScenario(t, `
target:
  kind: binary
  op: "+"
  x:
    kind: var
    id: x
    type: {kind: int}
  y:
    kind: int
    int: 1
binders:
  - id: b
    type: {kind: int}
`)
	scen, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	bin, ok := scen.Target.(*expr.BinaryExpr)
	if !ok || bin.Op != expr.OpAdd {
		t.Fatalf("target should parse to an Int addition, got %s", scen.Target)
	}
	if len(scen.Binders) != 1 || scen.Binders[0].ID != "b" {
		t.Fatalf("expected one binder named b, got %v", scen.Binders)
	}
	if scen.Assumptions.(*expr.BoolLit).Val != true {
		t.Fatalf("with no assumptions listed, default should fold to literal true, got %s", scen.Assumptions)
	}
}

func TestLoadFoldsMultipleAssumptionsWithAnd(t *testing.T) {
	path := writeScenario(t, `
target:
  kind: bool
  bool: true
assumptions:
  - kind: bool
    bool: true
  - kind: bool
    bool: false
`)
	scen, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	bin, ok := scen.Assumptions.(*expr.BinaryExpr)
	if !ok || bin.Op != expr.OpAnd {
		t.Fatalf("multiple assumptions should fold into an And chain, got %s", scen.Assumptions)
	}
}

func TestLoadParsesFilterOverBag(t *testing.T) {
	path := writeScenario(t, `
target:
  kind: filter
  coll:
    kind: var
    id: xs
    type: {kind: bag, elem: {kind: int}}
  arg: {id: e, type: {kind: int}}
  body:
    kind: binary
    op: ">"
    x: {kind: var, id: e, type: {kind: int}}
    y: {kind: int, int: 0}
`)
	scen, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	f, ok := scen.Target.(*expr.Filter)
	if !ok {
		t.Fatalf("target should parse to a Filter, got %s", scen.Target)
	}
	if f.Pred.Arg.ID != "e" {
		t.Fatalf("Filter's predicate lambda should bind e, got %s", f.Pred.Arg.ID)
	}
}

func TestLoadRejectsUnknownKind(t *testing.T) {
	path := writeScenario(t, `
target:
  kind: nonsense
`)
	if _, err := Load(path); err == nil {
		t.Fatalf("Load should reject an unknown expression kind")
	}
}

func TestLoadRejectsMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("Load should error on a missing scenario file")
	}
}
