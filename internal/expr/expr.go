package expr

import "fmt"

// Expr is the interface implemented by every member of the closed
// expression variant set E. Every node carries its own type, matching
// the data model's "every node carries its type" invariant.
type Expr interface {
	fmt.Stringer
	exprNode()
	// ExprType returns the (already-checked) type of this node.
	ExprType() Type
	// Children returns the direct sub-terms of the node. A Lambda exposes
	// only its body, never its argument, matching spec.md §4.1.
	Children() []Expr
}

// Visitor dispatches over the closed expression variant set. Implementations
// are expected to be exhaustive; there is deliberately no default/fallback
// case so that adding a new Expr variant is a compile-time break for every
// Visitor, not a silent no-op at runtime.
type Visitor interface {
	VisitNum(*Num)
	VisitBool(*BoolLit)
	VisitStr(*StrLit)
	VisitEnumEntry(*EnumEntry)
	VisitEmptyList(*EmptyList)
	VisitSingleton(*Singleton)
	VisitVar(*Var)
	VisitStateVar(*StateVar)
	VisitLambda(*Lambda)
	VisitCall(*Call)
	VisitUnary(*UnaryExpr)
	VisitBinary(*BinaryExpr)
	VisitFilter(*Filter)
	VisitMap(*MapExpr)
	VisitFlatMap(*FlatMap)
	VisitFlatten(*Flatten)
	VisitArgMin(*ArgMin)
	VisitArgMax(*ArgMax)
	VisitMakeMap2(*MakeMap2)
	VisitMapGet(*MapGet)
	VisitMapKeys(*MapKeys)
	VisitHasKey(*HasKey)
	VisitTuple(*TupleExpr)
	VisitTupleGet(*TupleGet)
	VisitGetField(*GetField)
	VisitCond(*Cond)
}

// ---- literals ----

// Num is an integer literal.
type Num struct {
	Val int64
}

func (*Num) exprNode()             {}
func (n *Num) ExprType() Type      { return TInt{} }
func (n *Num) Children() []Expr    { return nil }
func (n *Num) Accept(v Visitor)    { v.VisitNum(n) }
func (n *Num) String() string      { return fmt.Sprintf("%d", n.Val) }

// BoolLit is a boolean literal.
type BoolLit struct {
	Val bool
}

func (*BoolLit) exprNode()          {}
func (n *BoolLit) ExprType() Type   { return TBool{} }
func (n *BoolLit) Children() []Expr { return nil }
func (n *BoolLit) Accept(v Visitor) { v.VisitBool(n) }
func (n *BoolLit) String() string   { return fmt.Sprintf("%t", n.Val) }

// StrLit is a string literal.
type StrLit struct {
	Val string
}

func (*StrLit) exprNode()          {}
func (n *StrLit) ExprType() Type   { return TString{} }
func (n *StrLit) Children() []Expr { return nil }
func (n *StrLit) Accept(v Visitor) { v.VisitStr(n) }
func (n *StrLit) String() string   { return fmt.Sprintf("%q", n.Val) }

// EnumEntry names one case of an enum type.
type EnumEntry struct {
	Name string
	T    TEnum
}

func (*EnumEntry) exprNode()          {}
func (n *EnumEntry) ExprType() Type   { return n.T }
func (n *EnumEntry) Children() []Expr { return nil }
func (n *EnumEntry) Accept(v Visitor) { v.VisitEnumEntry(n) }
func (n *EnumEntry) String() string   { return n.Name }

// EmptyList is the empty-collection literal of a given (collection) type.
type EmptyList struct {
	T Type
}

func (*EmptyList) exprNode()          {}
func (n *EmptyList) ExprType() Type   { return n.T }
func (n *EmptyList) Children() []Expr { return nil }
func (n *EmptyList) Accept(v Visitor) { v.VisitEmptyList(n) }
func (n *EmptyList) String() string   { return "[]:" + n.T.String() }

// Singleton builds a one-element collection from e. Its own type is
// determined by context (the constructing code sets CollT); see builder.go.
type Singleton struct {
	E     Expr
	CollT Type // Bag(T)/Set(T)/List(T) — whichever collection kind this singleton targets
}

func (*Singleton) exprNode()          {}
func (n *Singleton) ExprType() Type   { return n.CollT }
func (n *Singleton) Children() []Expr { return []Expr{n.E} }
func (n *Singleton) Accept(v Visitor) { v.VisitSingleton(n) }
func (n *Singleton) String() string   { return "{" + n.E.String() + "}" }

// ---- variables and lambdas ----

// Var is a free or lambda-bound variable reference.
type Var struct {
	ID string
	T  Type
}

func (*Var) exprNode()          {}
func (n *Var) ExprType() Type   { return n.T }
func (n *Var) Children() []Expr { return nil }
func (n *Var) Accept(v Visitor) { v.VisitVar(n) }
func (n *Var) String() string   { return n.ID }

// StateVar marks E as materializable state: its cost is charged to the
// storage pool instead of the runtime pool. It may not appear inside a
// lambda body that is itself nested in another StateVar (spec.md §3).
type StateVar struct {
	E Expr
}

func (*StateVar) exprNode()          {}
func (n *StateVar) ExprType() Type   { return n.E.ExprType() }
func (n *StateVar) Children() []Expr { return []Expr{n.E} }
func (n *StateVar) Accept(v Visitor) { v.VisitStateVar(n) }
func (n *StateVar) String() string   { return "state(" + n.E.String() + ")" }

// Lambda is a one-argument function literal. Arg must be a fresh variable
// or a designated binder (see internal/builder for the binder pool).
type Lambda struct {
	Arg  *Var
	Body Expr
}

func (*Lambda) exprNode()        {}
func (n *Lambda) ExprType() Type { return TFunction{Args: []Type{n.Arg.T}, Ret: n.Body.ExprType()} }

// Children intentionally excludes Arg: a lambda exposes only its body to
// generic traversal, per spec.md §4.1.
func (n *Lambda) Children() []Expr { return []Expr{n.Body} }
func (n *Lambda) Accept(v Visitor) { v.VisitLambda(n) }
func (n *Lambda) String() string   { return "\\" + n.Arg.String() + "." + n.Body.String() }

// Call invokes a named external function (an uninterpreted function symbol
// from the solver's point of view; see internal/expr/freevars.go's
// FreeFuncs).
type Call struct {
	Name string
	Args []Expr
	T    Type
}

func (*Call) exprNode()          {}
func (n *Call) ExprType() Type   { return n.T }
func (n *Call) Children() []Expr { return n.Args }
func (n *Call) Accept(v Visitor) { v.VisitCall(n) }
func (n *Call) String() string {
	s := n.Name + "("
	for i, a := range n.Args {
		if i > 0 {
			s += ","
		}
		s += a.String()
	}
	return s + ")"
}

// ---- unary / binary operators ----

// UnaryOp is the closed set of unary operators.
type UnaryOp string

const (
	OpSum       UnaryOp = "sum"
	OpLength    UnaryOp = "len"
	OpDistinct  UnaryOp = "distinct"
	OpAreUnique UnaryOp = "are_unique"
	OpAll       UnaryOp = "all"
	OpAny       UnaryOp = "any"
	OpReversed  UnaryOp = "reversed"
	OpEmpty     UnaryOp = "empty"
	OpExists    UnaryOp = "exists"
	OpThe       UnaryOp = "the"
	OpNot       UnaryOp = "not"
)

// LinearTimeUnaryOps walk the entirety of their collection argument; the
// cost model charges them |e| runtime (spec.md §4.4).
var LinearTimeUnaryOps = map[UnaryOp]bool{
	OpSum: true, OpLength: true, OpDistinct: true,
	OpAreUnique: true, OpAll: true, OpAny: true, OpReversed: true,
}

// UnaryExpr applies a UnaryOp to X.
type UnaryExpr struct {
	Op UnaryOp
	X  Expr
	T  Type
}

func (*UnaryExpr) exprNode()          {}
func (n *UnaryExpr) ExprType() Type   { return n.T }
func (n *UnaryExpr) Children() []Expr { return []Expr{n.X} }
func (n *UnaryExpr) Accept(v Visitor) { v.VisitUnary(n) }
func (n *UnaryExpr) String() string   { return string(n.Op) + "(" + n.X.String() + ")" }

// BinaryOp is the closed set of binary operators.
type BinaryOp string

const (
	OpAdd      BinaryOp = "+"
	OpSub      BinaryOp = "-"
	OpMul      BinaryOp = "*"
	OpEq       BinaryOp = "=="
	OpIdentEq  BinaryOp = "===" // handle identity equality, distinct from ==
	OpNeq      BinaryOp = "!="
	OpLt       BinaryOp = "<"
	OpLe       BinaryOp = "<="
	OpGt       BinaryOp = ">"
	OpGe       BinaryOp = ">="
	OpAnd      BinaryOp = "and"
	OpOr       BinaryOp = "or"
	OpIn       BinaryOp = "in"
)

// ComparisonOps cost comparison_cost(e1,e2) in the cost model.
var ComparisonOps = map[BinaryOp]bool{
	OpEq: true, OpNeq: true, OpGt: true, OpLt: true, OpGe: true, OpLe: true,
}

// BinaryExpr applies a BinaryOp to (X, Y).
type BinaryExpr struct {
	Op BinaryOp
	X  Expr
	Y  Expr
	T  Type
}

func (*BinaryExpr) exprNode()          {}
func (n *BinaryExpr) ExprType() Type   { return n.T }
func (n *BinaryExpr) Children() []Expr { return []Expr{n.X, n.Y} }
func (n *BinaryExpr) Accept(v Visitor) { v.VisitBinary(n) }
func (n *BinaryExpr) String() string {
	return "(" + n.X.String() + " " + string(n.Op) + " " + n.Y.String() + ")"
}

// ---- collection combinators ----

// Filter keeps elements of Coll for which Pred holds.
type Filter struct {
	Coll Expr
	Pred *Lambda
}

func (*Filter) exprNode()          {}
func (n *Filter) ExprType() Type   { return n.Coll.ExprType() }
func (n *Filter) Children() []Expr { return []Expr{n.Coll, n.Pred} }
func (n *Filter) Accept(v Visitor) { v.VisitFilter(n) }
func (n *Filter) String() string   { return "Filter(" + n.Coll.String() + "," + n.Pred.String() + ")" }

// MapExpr applies Fn to every element of Coll.
type MapExpr struct {
	Coll Expr
	Fn   *Lambda
	T    Type // Bag/Set/List(Fn.Body.Type()), same collection kind as Coll
}

func (*MapExpr) exprNode()          {}
func (n *MapExpr) ExprType() Type   { return n.T }
func (n *MapExpr) Children() []Expr { return []Expr{n.Coll, n.Fn} }
func (n *MapExpr) Accept(v Visitor) { v.VisitMap(n) }
func (n *MapExpr) String() string   { return "Map(" + n.Coll.String() + "," + n.Fn.String() + ")" }

// FlatMap applies Fn (itself collection-valued) to every element of Coll
// and flattens the result.
type FlatMap struct {
	Coll Expr
	Fn   *Lambda
	T    Type
}

func (*FlatMap) exprNode()          {}
func (n *FlatMap) ExprType() Type   { return n.T }
func (n *FlatMap) Children() []Expr { return []Expr{n.Coll, n.Fn} }
func (n *FlatMap) Accept(v Visitor) { v.VisitFlatMap(n) }
func (n *FlatMap) String() string {
	return "FlatMap(" + n.Coll.String() + "," + n.Fn.String() + ")"
}

// Flatten concatenates a collection of collections into one collection.
type Flatten struct {
	Coll Expr
	T    Type
}

func (*Flatten) exprNode()          {}
func (n *Flatten) ExprType() Type   { return n.T }
func (n *Flatten) Children() []Expr { return []Expr{n.Coll} }
func (n *Flatten) Accept(v Visitor) { v.VisitFlatten(n) }
func (n *Flatten) String() string   { return "Flatten(" + n.Coll.String() + ")" }

// ArgMin returns the element of Coll minimizing Fn; on an empty collection
// it evaluates to the element type's default value.
type ArgMin struct {
	Coll Expr
	Fn   *Lambda
}

func (*ArgMin) exprNode()          {}
func (n *ArgMin) ExprType() Type   { return ElemType(n.Coll.ExprType()) }
func (n *ArgMin) Children() []Expr { return []Expr{n.Coll, n.Fn} }
func (n *ArgMin) Accept(v Visitor) { v.VisitArgMin(n) }
func (n *ArgMin) String() string   { return "ArgMin(" + n.Coll.String() + "," + n.Fn.String() + ")" }

// ArgMax is the dual of ArgMin.
type ArgMax struct {
	Coll Expr
	Fn   *Lambda
}

func (*ArgMax) exprNode()          {}
func (n *ArgMax) ExprType() Type   { return ElemType(n.Coll.ExprType()) }
func (n *ArgMax) Children() []Expr { return []Expr{n.Coll, n.Fn} }
func (n *ArgMax) Accept(v Visitor) { v.VisitArgMax(n) }
func (n *ArgMax) String() string   { return "ArgMax(" + n.Coll.String() + "," + n.Fn.String() + ")" }

// MakeMap2 builds a Map whose keys are the (distinct) elements of Coll and
// whose values are given by applying Value to each element.
type MakeMap2 struct {
	Coll  Expr
	Value *Lambda
}

func (*MakeMap2) exprNode() {}
func (n *MakeMap2) ExprType() Type {
	return TMap{K: ElemType(n.Coll.ExprType()), V: n.Value.Body.ExprType()}
}
func (n *MakeMap2) Children() []Expr { return []Expr{n.Coll, n.Value} }
func (n *MakeMap2) Accept(v Visitor) { v.VisitMakeMap2(n) }
func (n *MakeMap2) String() string {
	return "MakeMap2(" + n.Coll.String() + "," + n.Value.String() + ")"
}

// ---- map operations ----

// MapGet looks up Key in M, evaluating to the type-default when absent.
type MapGet struct {
	M   Expr
	Key Expr
}

func (*MapGet) exprNode()        {}
func (n *MapGet) ExprType() Type { return n.M.ExprType().(TMap).V }
func (n *MapGet) Children() []Expr { return []Expr{n.M, n.Key} }
func (n *MapGet) Accept(v Visitor) { v.VisitMapGet(n) }
func (n *MapGet) String() string   { return n.M.String() + "[" + n.Key.String() + "]" }

// MapKeys returns the Set of keys of M.
type MapKeys struct {
	M Expr
}

func (*MapKeys) exprNode()        {}
func (n *MapKeys) ExprType() Type { return TSet{T: n.M.ExprType().(TMap).K} }
func (n *MapKeys) Children() []Expr { return []Expr{n.M} }
func (n *MapKeys) Accept(v Visitor) { v.VisitMapKeys(n) }
func (n *MapKeys) String() string   { return "MapKeys(" + n.M.String() + ")" }

// HasKey reports whether Key is present in M.
type HasKey struct {
	M   Expr
	Key Expr
}

func (*HasKey) exprNode()          {}
func (n *HasKey) ExprType() Type   { return TBool{} }
func (n *HasKey) Children() []Expr { return []Expr{n.M, n.Key} }
func (n *HasKey) Accept(v Visitor) { v.VisitHasKey(n) }
func (n *HasKey) String() string   { return "HasKey(" + n.M.String() + "," + n.Key.String() + ")" }

// ---- structural ----

// TupleExpr builds a tuple from Elems.
type TupleExpr struct {
	Elems []Expr
}

func (*TupleExpr) exprNode() {}
func (n *TupleExpr) ExprType() Type {
	ts := make([]Type, len(n.Elems))
	for i, e := range n.Elems {
		ts[i] = e.ExprType()
	}
	return TTuple{Ts: ts}
}
func (n *TupleExpr) Children() []Expr { return n.Elems }
func (n *TupleExpr) Accept(v Visitor) { v.VisitTuple(n) }
func (n *TupleExpr) String() string {
	s := "("
	for i, e := range n.Elems {
		if i > 0 {
			s += ","
		}
		s += e.String()
	}
	return s + ")"
}

// TupleGet projects index I out of E.
type TupleGet struct {
	E Expr
	I int
}

func (*TupleGet) exprNode()        {}
func (n *TupleGet) ExprType() Type { return n.E.ExprType().(TTuple).Ts[n.I] }
func (n *TupleGet) Children() []Expr { return []Expr{n.E} }
func (n *TupleGet) Accept(v Visitor) { v.VisitTupleGet(n) }
func (n *TupleGet) String() string {
	return fmt.Sprintf("%s.%d", n.E.String(), n.I)
}

// GetField projects named Field out of E.
type GetField struct {
	E     Expr
	Field string
}

func (*GetField) exprNode() {}
func (n *GetField) ExprType() Type {
	for _, f := range n.E.ExprType().(TRecord).Fields {
		if f.Name == n.Field {
			return f.T
		}
	}
	panic(fmt.Sprintf("expr: record type %s has no field %q", n.E.ExprType(), n.Field))
}
func (n *GetField) Children() []Expr { return []Expr{n.E} }
func (n *GetField) Accept(v Visitor) { v.VisitGetField(n) }
func (n *GetField) String() string   { return n.E.String() + "." + n.Field }

// Cond is an if/then/else expression; Then and Else must share a type.
type Cond struct {
	C    Expr
	Then Expr
	Else Expr
}

func (*Cond) exprNode()        {}
func (n *Cond) ExprType() Type { return n.Then.ExprType() }
func (n *Cond) Children() []Expr {
	return []Expr{n.C, n.Then, n.Else}
}
func (n *Cond) Accept(v Visitor) { v.VisitCond(n) }
func (n *Cond) String() string {
	return "(" + n.C.String() + " ? " + n.Then.String() + " : " + n.Else.String() + ")"
}
