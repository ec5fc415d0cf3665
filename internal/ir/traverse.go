package ir

import "strconv"

// ExprChildren returns e's direct Expr children, in a fixed order
// that RebuildExpr must accept back. It does not recurse.
func ExprChildren(e Expr) []Expr {
	switch n := e.(type) {
	case *Var, *IntImm:
		return nil
	case *Add:
		return []Expr{n.A, n.B}
	case *Sub:
		return []Expr{n.A, n.B}
	case *Mul:
		return []Expr{n.A, n.B}
	case *Cmp:
		return []Expr{n.A, n.B}
	case *Ramp:
		return []Expr{n.Base, n.Stride}
	case *Broadcast:
		return []Expr{n.Value}
	case *Load:
		return []Expr{n.Index, n.Predicate}
	case *Let:
		return []Expr{n.Value, n.Body}
	case *Select:
		return []Expr{n.Cond, n.TrueVal, n.FalseVal}
	case *Call:
		return n.Args
	default:
		return nil
	}
}

// RebuildExpr reconstructs a node of the same kind as e with the
// given children, in the order ExprChildren(e) produced them. All
// non-Expr metadata (lane counts, names, types) is carried over
// unchanged.
func RebuildExpr(e Expr, children []Expr) Expr {
	switch n := e.(type) {
	case *Var, *IntImm:
		return e
	case *Add:
		return &Add{A: children[0], B: children[1]}
	case *Sub:
		return &Sub{A: children[0], B: children[1]}
	case *Mul:
		return &Mul{A: children[0], B: children[1]}
	case *Cmp:
		return &Cmp{Op: n.Op, A: children[0], B: children[1]}
	case *Ramp:
		return &Ramp{Base: children[0], Stride: children[1], Lanes: n.Lanes}
	case *Broadcast:
		return &Broadcast{Value: children[0], Lanes: n.Lanes}
	case *Load:
		return &Load{Buffer: n.Buffer, Origin: n.Origin, Index: children[0], Predicate: children[1], T: n.T}
	case *Let:
		return &Let{Name: n.Name, Value: children[0], Body: children[1]}
	case *Select:
		return &Select{Cond: children[0], TrueVal: children[1], FalseVal: children[2]}
	case *Call:
		return &Call{Name: n.Name, Args: children, T: n.T}
	default:
		return e
	}
}

// MutateExprPost applies post (bottom-up) to every node of e, memoized
// by the original node's identity so that a DAG with shared
// sub-expressions is only ever visited once per distinct node.
func MutateExprPost(e Expr, memo map[Expr]Expr, post func(Expr) Expr) Expr {
	if e == nil {
		return nil
	}
	if v, ok := memo[e]; ok {
		return v
	}
	children := ExprChildren(e)
	var newChildren []Expr
	changed := false
	if len(children) > 0 {
		newChildren = make([]Expr, len(children))
		for i, c := range children {
			nc := MutateExprPost(c, memo, post)
			newChildren[i] = nc
			if nc != c {
				changed = true
			}
		}
	}
	rebuilt := e
	if changed {
		rebuilt = RebuildExpr(e, newChildren)
	}
	result := post(rebuilt)
	memo[e] = result
	return result
}

// MutateExprPre applies pre to each node before recursing into its
// children; if pre reports handled, its replacement is used as-is and
// its children are not visited. Memoized by original node identity.
func MutateExprPre(e Expr, memo map[Expr]Expr, pre func(Expr) (Expr, bool)) Expr {
	if e == nil {
		return nil
	}
	if v, ok := memo[e]; ok {
		return v
	}
	if replacement, handled := pre(e); handled {
		memo[e] = replacement
		return replacement
	}
	children := ExprChildren(e)
	var newChildren []Expr
	changed := false
	if len(children) > 0 {
		newChildren = make([]Expr, len(children))
		for i, c := range children {
			nc := MutateExprPre(c, memo, pre)
			newChildren[i] = nc
			if nc != c {
				changed = true
			}
		}
	}
	rebuilt := e
	if changed {
		rebuilt = RebuildExpr(e, newChildren)
	}
	memo[e] = rebuilt
	return rebuilt
}

// GraphSubstitute replaces every occurrence (by pointer identity) of
// old within root with replacement, sharing work across the DAG via
// an identity-keyed memo table.
func GraphSubstitute(old, replacement Expr, root Expr) Expr {
	memo := make(map[Expr]Expr)
	return MutateExprPre(root, memo, func(e Expr) (Expr, bool) {
		if e == old {
			return replacement, true
		}
		return nil, false
	})
}

// GraphSubstituteStmt replaces every occurrence (by pointer identity)
// of old within every expression reachable from s with replacement.
func GraphSubstituteStmt(old, replacement Expr, s Stmt) Stmt {
	switch n := s.(type) {
	case nil:
		return nil
	case *Store:
		return &Store{
			Buffer:    n.Buffer,
			Index:     GraphSubstitute(old, replacement, n.Index),
			Value:     GraphSubstitute(old, replacement, n.Value),
			Predicate: GraphSubstitute(old, replacement, n.Predicate),
		}
	case *LetStmt:
		return &LetStmt{Name: n.Name, Value: GraphSubstitute(old, replacement, n.Value), Body: GraphSubstituteStmt(old, replacement, n.Body)}
	case *Block:
		return &Block{First: GraphSubstituteStmt(old, replacement, n.First), Rest: GraphSubstituteStmt(old, replacement, n.Rest)}
	case *For:
		return &For{
			Var: n.Var, Min: GraphSubstitute(old, replacement, n.Min), Extent: GraphSubstitute(old, replacement, n.Extent),
			ForType: n.ForType, Device: n.Device, Body: GraphSubstituteStmt(old, replacement, n.Body),
		}
	case *IfThenElse:
		return &IfThenElse{
			Cond: GraphSubstitute(old, replacement, n.Cond),
			Then: GraphSubstituteStmt(old, replacement, n.Then),
			Else: GraphSubstituteStmt(old, replacement, n.Else),
		}
	case *ProducerConsumer:
		return &ProducerConsumer{Name: n.Name, IsProducer: n.IsProducer, Body: GraphSubstituteStmt(old, replacement, n.Body)}
	case *Allocate:
		extents := make([]Expr, len(n.Extents))
		for i, ex := range n.Extents {
			extents[i] = GraphSubstitute(old, replacement, ex)
		}
		return &Allocate{
			Name: n.Name, ElemType: n.ElemType, Kind: n.Kind, Extents: extents,
			Condition: GraphSubstitute(old, replacement, n.Condition), Body: GraphSubstituteStmt(old, replacement, n.Body),
		}
	default:
		return s
	}
}

// FindLoads collects every distinct Load node (by pointer identity)
// reachable from s, in first-encounter order, without descending into
// a Load's own index or predicate sub-expressions. s is expected to
// already have had SubstituteInAllLets applied, so traversal sees the
// full shared graph.
func FindLoads(s Stmt) []*Load {
	seen := make(map[*Load]bool)
	var order []*Load
	var walkExpr func(Expr)
	memoVisited := make(map[Expr]bool)
	walkExpr = func(e Expr) {
		if e == nil || memoVisited[e] {
			return
		}
		memoVisited[e] = true
		if load, ok := e.(*Load); ok {
			if !seen[load] {
				seen[load] = true
				order = append(order, load)
			}
			// Deliberately do not walk load.Index / load.Predicate.
			return
		}
		for _, c := range ExprChildren(e) {
			walkExpr(c)
		}
	}
	var walkStmt func(Stmt)
	walkStmt = func(s Stmt) {
		switch n := s.(type) {
		case nil:
			return
		case *Store:
			walkExpr(n.Index)
			walkExpr(n.Value)
			walkExpr(n.Predicate)
		case *LetStmt:
			walkExpr(n.Value)
			walkStmt(n.Body)
		case *Block:
			walkStmt(n.First)
			walkStmt(n.Rest)
		case *For:
			walkExpr(n.Min)
			walkExpr(n.Extent)
			walkStmt(n.Body)
		case *IfThenElse:
			walkExpr(n.Cond)
			walkStmt(n.Then)
			walkStmt(n.Else)
		case *ProducerConsumer:
			walkStmt(n.Body)
		case *Allocate:
			for _, ex := range n.Extents {
				walkExpr(ex)
			}
			walkExpr(n.Condition)
			walkStmt(n.Body)
		}
	}
	walkStmt(s)
	return order
}

// StmtUsesVar reports whether a Var named name occurs anywhere in s
// (used to decide whether to rewrap a statement in one of its
// enclosing lets). Bindings inside s are not taken into account: a
// use under a LetStmt of s that rebinds name still counts.
func StmtUsesVar(s Stmt, name string) bool {
	found := false
	var walkExpr func(Expr)
	memo := make(map[Expr]bool)
	walkExpr = func(e Expr) {
		if e == nil || found || memo[e] {
			return
		}
		memo[e] = true
		if v, ok := e.(*Var); ok && v.Name == name {
			found = true
			return
		}
		for _, c := range ExprChildren(e) {
			walkExpr(c)
		}
	}
	var walkStmt func(Stmt)
	walkStmt = func(s Stmt) {
		if s == nil || found {
			return
		}
		switch n := s.(type) {
		case *Store:
			walkExpr(n.Index)
			walkExpr(n.Value)
			walkExpr(n.Predicate)
		case *LetStmt:
			walkExpr(n.Value)
			walkStmt(n.Body)
		case *Block:
			walkStmt(n.First)
			walkStmt(n.Rest)
		case *For:
			walkExpr(n.Min)
			walkExpr(n.Extent)
			walkStmt(n.Body)
		case *IfThenElse:
			walkExpr(n.Cond)
			walkStmt(n.Then)
			walkStmt(n.Else)
		case *ProducerConsumer:
			walkStmt(n.Body)
		case *Allocate:
			for _, ex := range n.Extents {
				walkExpr(ex)
			}
			walkExpr(n.Condition)
			walkStmt(n.Body)
		}
	}
	walkStmt(s)
	return found
}

var uniqueCounter int

// UniqueName generates a fresh name with the given single-character
// prefix. It is deterministic across a single process run because
// the pass is called exactly once per compilation in normal use; for
// reproducible tests, ResetUniqueNames rewinds the counter.
func UniqueName(prefix byte) string {
	uniqueCounter++
	return string(prefix) + "$" + strconv.Itoa(uniqueCounter)
}

// ResetUniqueNames rewinds the UniqueName counter. Tests call this so
// that scratch buffer names are reproducible.
func ResetUniqueNames() {
	uniqueCounter = 0
}
