// Package scenario loads a CEGIS run's target expression, assumptions,
// seed roots, and binder pool from a YAML file (spec.md C11's "scenario
// file"), the same ambient choice the teacher makes for its own
// configuration surface (internal/config's gopkg.in/yaml.v3 use).
//
// The YAML shape mirrors the closed expression/type variant sums
// directly (a "kind" tag per node) rather than any surface syntax: this
// module has no parser component, so a scenario author writes the AST
// itself. Only the node kinds useful for hand-authoring a starting
// target are supported here (literals, variables, the common unary/
// binary operators, Filter/Map/Cond, tuples, and field/index
// projection); FlatMap/ArgMin/ArgMax/MakeMap2/Map-operations still exist
// in the search space the builder explores, they are just not
// reachable as scenario-file syntax.
package scenario

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/exprsynth/synth/internal/expr"
)

// Scenario is a fully-loaded CEGIS run specification.
type Scenario struct {
	Target      expr.Expr
	Assumptions expr.Expr
	Roots       []expr.Expr
	Binders     []*expr.Var
}

type file struct {
	Target      exprSpec   `yaml:"target"`
	Assumptions []exprSpec `yaml:"assumptions"`
	Roots       []exprSpec `yaml:"roots"`
	Binders     []varSpec  `yaml:"binders"`
}

type varSpec struct {
	ID string   `yaml:"id"`
	T  typeSpec `yaml:"type"`
}

// Load reads and decodes the scenario file at path.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("scenario: reading %s: %w", path, err)
	}
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("scenario: parsing %s: %w", path, err)
	}

	target, err := f.Target.toExpr()
	if err != nil {
		return nil, fmt.Errorf("scenario: target: %w", err)
	}

	assumptions, err := exprList(f.Assumptions, "and", &expr.BoolLit{Val: true})
	if err != nil {
		return nil, fmt.Errorf("scenario: assumptions: %w", err)
	}

	roots := make([]expr.Expr, len(f.Roots))
	for i, rs := range f.Roots {
		r, err := rs.toExpr()
		if err != nil {
			return nil, fmt.Errorf("scenario: roots[%d]: %w", i, err)
		}
		roots[i] = r
	}

	binders := make([]*expr.Var, len(f.Binders))
	for i, bs := range f.Binders {
		t, err := bs.T.toType()
		if err != nil {
			return nil, fmt.Errorf("scenario: binders[%d]: %w", i, err)
		}
		binders[i] = &expr.Var{ID: bs.ID, T: t}
	}

	return &Scenario{Target: target, Assumptions: assumptions, Roots: roots, Binders: binders}, nil
}

// exprList decodes specs and folds them with op, defaulting to identity
// when specs is empty.
func exprList(specs []exprSpec, op expr.BinaryOp, identity expr.Expr) (expr.Expr, error) {
	if len(specs) == 0 {
		return identity, nil
	}
	out, err := specs[0].toExpr()
	if err != nil {
		return nil, err
	}
	for _, s := range specs[1:] {
		e, err := s.toExpr()
		if err != nil {
			return nil, err
		}
		out = &expr.BinaryExpr{Op: op, X: out, Y: e, T: expr.TBool{}}
	}
	return out, nil
}

// ---- types ----

type fieldSpec struct {
	Name string   `yaml:"name"`
	T    typeSpec `yaml:"type"`
}

type typeSpec struct {
	Kind   string      `yaml:"kind"`
	Name   string      `yaml:"name,omitempty"`
	Elem   *typeSpec   `yaml:"elem,omitempty"`
	Elems  []typeSpec  `yaml:"elems,omitempty"`
	Fields []fieldSpec `yaml:"fields,omitempty"`
}

func (t typeSpec) toType() (expr.Type, error) {
	switch t.Kind {
	case "bool":
		return expr.TBool{}, nil
	case "int":
		return expr.TInt{}, nil
	case "string":
		return expr.TString{}, nil
	case "native":
		if t.Name == "" {
			return nil, fmt.Errorf("native type missing name")
		}
		return expr.TNative{Name: t.Name}, nil
	case "handle":
		if t.Elem == nil {
			return nil, fmt.Errorf("handle type missing elem")
		}
		val, err := t.Elem.toType()
		if err != nil {
			return nil, err
		}
		return expr.THandle{Val: val}, nil
	case "bag", "set", "list":
		if t.Elem == nil {
			return nil, fmt.Errorf("%s type missing elem", t.Kind)
		}
		elem, err := t.Elem.toType()
		if err != nil {
			return nil, err
		}
		switch t.Kind {
		case "bag":
			return expr.TBag{T: elem}, nil
		case "set":
			return expr.TSet{T: elem}, nil
		default:
			return expr.TList{T: elem}, nil
		}
	case "tuple":
		ts := make([]expr.Type, len(t.Elems))
		for i, e := range t.Elems {
			et, err := e.toType()
			if err != nil {
				return nil, err
			}
			ts[i] = et
		}
		return expr.TTuple{Ts: ts}, nil
	case "record":
		fields := make([]expr.RecordField, len(t.Fields))
		for i, f := range t.Fields {
			ft, err := f.T.toType()
			if err != nil {
				return nil, err
			}
			fields[i] = expr.RecordField{Name: f.Name, T: ft}
		}
		return expr.TRecord{Fields: fields}, nil
	default:
		return nil, fmt.Errorf("unknown type kind %q", t.Kind)
	}
}

// ---- expressions ----

type exprSpec struct {
	Kind string `yaml:"kind"`

	IntVal  *int64  `yaml:"int,omitempty"`
	BoolVal *bool   `yaml:"bool,omitempty"`
	StrVal  *string `yaml:"str,omitempty"`

	ID string    `yaml:"id,omitempty"`
	T  *typeSpec `yaml:"type,omitempty"`

	Op string    `yaml:"op,omitempty"`
	X  *exprSpec `yaml:"x,omitempty"`
	Y  *exprSpec `yaml:"y,omitempty"`

	Coll *exprSpec `yaml:"coll,omitempty"`
	Arg  *varSpec  `yaml:"arg,omitempty"`
	Body *exprSpec `yaml:"body,omitempty"`

	C    *exprSpec `yaml:"c,omitempty"`
	Then *exprSpec `yaml:"then,omitempty"`
	Else *exprSpec `yaml:"else,omitempty"`

	Elems []exprSpec `yaml:"elems,omitempty"`
	Field string     `yaml:"field,omitempty"`
	Index int        `yaml:"index,omitempty"`
}

func (s exprSpec) toExpr() (expr.Expr, error) {
	switch s.Kind {
	case "int":
		if s.IntVal == nil {
			return nil, fmt.Errorf("int literal missing value")
		}
		return &expr.Num{Val: *s.IntVal}, nil
	case "bool":
		if s.BoolVal == nil {
			return nil, fmt.Errorf("bool literal missing value")
		}
		return &expr.BoolLit{Val: *s.BoolVal}, nil
	case "string":
		if s.StrVal == nil {
			return nil, fmt.Errorf("string literal missing value")
		}
		return &expr.StrLit{Val: *s.StrVal}, nil
	case "var":
		if s.T == nil {
			return nil, fmt.Errorf("var %q missing type", s.ID)
		}
		t, err := s.T.toType()
		if err != nil {
			return nil, err
		}
		return &expr.Var{ID: s.ID, T: t}, nil
	case "empty_list":
		if s.T == nil {
			return nil, fmt.Errorf("empty_list missing type")
		}
		t, err := s.T.toType()
		if err != nil {
			return nil, err
		}
		return &expr.EmptyList{T: t}, nil
	case "unary":
		x, err := s.mustX()
		if err != nil {
			return nil, err
		}
		resultT, err := s.unaryResultType(x)
		if err != nil {
			return nil, err
		}
		return &expr.UnaryExpr{Op: expr.UnaryOp(s.Op), X: x, T: resultT}, nil
	case "binary":
		x, err := s.mustX()
		if err != nil {
			return nil, err
		}
		y, err := s.mustY()
		if err != nil {
			return nil, err
		}
		resultT, err := s.binaryResultType(x, y)
		if err != nil {
			return nil, err
		}
		return &expr.BinaryExpr{Op: expr.BinaryOp(s.Op), X: x, Y: y, T: resultT}, nil
	case "filter":
		coll, pred, err := s.collAndLambda()
		if err != nil {
			return nil, err
		}
		return &expr.Filter{Coll: coll, Pred: pred}, nil
	case "map":
		coll, fn, err := s.collAndLambda()
		if err != nil {
			return nil, err
		}
		return &expr.MapExpr{Coll: coll, Fn: fn, T: mapResultType(coll.ExprType(), fn.Body.ExprType())}, nil
	case "cond":
		if s.C == nil || s.Then == nil || s.Else == nil {
			return nil, fmt.Errorf("cond requires c, then, and else")
		}
		c, err := s.C.toExpr()
		if err != nil {
			return nil, err
		}
		then, err := s.Then.toExpr()
		if err != nil {
			return nil, err
		}
		els, err := s.Else.toExpr()
		if err != nil {
			return nil, err
		}
		return &expr.Cond{C: c, Then: then, Else: els}, nil
	case "tuple":
		elems := make([]expr.Expr, len(s.Elems))
		for i, es := range s.Elems {
			e, err := es.toExpr()
			if err != nil {
				return nil, err
			}
			elems[i] = e
		}
		return &expr.TupleExpr{Elems: elems}, nil
	case "tuple_get":
		x, err := s.mustX()
		if err != nil {
			return nil, err
		}
		return &expr.TupleGet{E: x, I: s.Index}, nil
	case "get_field":
		x, err := s.mustX()
		if err != nil {
			return nil, err
		}
		if s.Field == "" {
			return nil, fmt.Errorf("get_field missing field name")
		}
		return &expr.GetField{E: x, Field: s.Field}, nil
	default:
		return nil, fmt.Errorf("unknown expression kind %q", s.Kind)
	}
}

func (s exprSpec) mustX() (expr.Expr, error) {
	if s.X == nil {
		return nil, fmt.Errorf("%s expression missing x", s.Kind)
	}
	return s.X.toExpr()
}

func (s exprSpec) mustY() (expr.Expr, error) {
	if s.Y == nil {
		return nil, fmt.Errorf("%s expression missing y", s.Kind)
	}
	return s.Y.toExpr()
}

func (s exprSpec) collAndLambda() (expr.Expr, *expr.Lambda, error) {
	if s.Coll == nil || s.Arg == nil || s.Body == nil {
		return nil, nil, fmt.Errorf("%s requires coll, arg, and body", s.Kind)
	}
	coll, err := s.Coll.toExpr()
	if err != nil {
		return nil, nil, err
	}
	argT, err := s.Arg.T.toType()
	if err != nil {
		return nil, nil, err
	}
	arg := &expr.Var{ID: s.Arg.ID, T: argT}
	body, err := s.Body.toExpr()
	if err != nil {
		return nil, nil, err
	}
	return coll, &expr.Lambda{Arg: arg, Body: body}, nil
}

func mapResultType(collT expr.Type, elemT expr.Type) expr.Type {
	switch collT.(type) {
	case expr.TSet:
		return expr.TSet{T: elemT}
	case expr.TList:
		return expr.TList{T: elemT}
	default:
		return expr.TBag{T: elemT}
	}
}

func (s exprSpec) unaryResultType(x expr.Expr) (expr.Type, error) {
	switch expr.UnaryOp(s.Op) {
	case expr.OpSum, expr.OpLength:
		return expr.TInt{}, nil
	case expr.OpDistinct:
		return expr.TSet{T: expr.ElemType(x.ExprType())}, nil
	case expr.OpReversed:
		return x.ExprType(), nil
	case expr.OpAreUnique, expr.OpAll, expr.OpAny, expr.OpEmpty, expr.OpExists, expr.OpNot:
		return expr.TBool{}, nil
	case expr.OpThe:
		return expr.ElemType(x.ExprType()), nil
	default:
		return nil, fmt.Errorf("unknown unary op %q", s.Op)
	}
}

func (s exprSpec) binaryResultType(x, y expr.Expr) (expr.Type, error) {
	op := expr.BinaryOp(s.Op)
	if expr.ComparisonOps[op] || op == expr.OpAnd || op == expr.OpOr || op == expr.OpIn || op == expr.OpIdentEq {
		return expr.TBool{}, nil
	}
	switch op {
	case expr.OpAdd, expr.OpSub:
		// Bag/Set/List union and difference carry the operands' own
		// collection type through; anything else falls back to Int
		// arithmetic.
		if expr.IsCollection(x.ExprType()) && expr.TypesEqual(x.ExprType(), y.ExprType()) {
			return x.ExprType(), nil
		}
		return expr.TInt{}, nil
	case expr.OpMul:
		return expr.TInt{}, nil
	default:
		return nil, fmt.Errorf("unknown binary op %q", s.Op)
	}
}
