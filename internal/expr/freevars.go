package expr

// FreeVars returns the set of free variables of e, keyed by variable ID.
// A Lambda's argument is bound within its body; StateVar and every other
// combinator simply recurses into its Children().
func FreeVars(e Expr) map[string]*Var {
	out := make(map[string]*Var)
	freeVars(e, map[string]bool{}, out)
	return out
}

func freeVars(e Expr, bound map[string]bool, out map[string]*Var) {
	switch n := e.(type) {
	case *Var:
		if !bound[n.ID] {
			out[n.ID] = n
		}
	case *Lambda:
		inner := make(map[string]bool, len(bound)+1)
		for k := range bound {
			inner[k] = true
		}
		inner[n.Arg.ID] = true
		freeVars(n.Body, inner, out)
	default:
		for _, c := range e.Children() {
			freeVars(c, bound, out)
		}
	}
}

// FreeVarIDs is FreeVars projected to a plain ID set, handy for capture
// checks during substitution.
func FreeVarIDs(e Expr) map[string]bool {
	ids := make(map[string]bool)
	for id := range FreeVars(e) {
		ids[id] = true
	}
	return ids
}

// FreeFuncs returns the set of uninterpreted function names (Call.Name)
// appearing anywhere in e. These are opaque to the solver: a Call is only
// ever compared for observational equality via the evaluator's host
// binding, never reasoned about symbolically.
func FreeFuncs(e Expr) map[string]bool {
	out := make(map[string]bool)
	freeFuncs(e, out)
	return out
}

func freeFuncs(e Expr, out map[string]bool) {
	if call, ok := e.(*Call); ok {
		out[call.Name] = true
	}
	for _, c := range e.Children() {
		freeFuncs(c, out)
	}
}

var freshCounter int

// FreshVar manufactures a variable of type t whose ID does not appear in
// avoid. Deterministic within a process run: repeated calls with the same
// avoid set still produce distinct names because of the monotonic counter,
// matching the teacher's own fresh-name generation style
// (internal/analyzer uses a similar monotonic suffix counter for type
// variables; see internal/typesystem's "t1", "t2", ... naming).
func FreshVar(t Type, avoid map[string]bool) *Var {
	for {
		freshCounter++
		id := "v" + itoa(freshCounter)
		if !avoid[id] {
			return &Var{ID: id, T: t}
		}
	}
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	digits := [20]byte{}
	i := len(digits)
	for n > 0 {
		i--
		digits[i] = byte('0' + n%10)
		n /= 10
	}
	return string(digits[i:])
}
