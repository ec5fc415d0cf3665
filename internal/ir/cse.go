package ir

import (
	"fmt"
	"strconv"
)

// CommonSubexpressionElimination rewrites e so that every subgraph
// appearing more than once is computed once and named by a Let,
// innermost dependency first. Structurally identical subexpressions
// that happen to be different node pointers (as can arise after
// substitution builds a fresh tree) are first canonicalized to a
// single representative so repeats are found regardless of identity.
func CommonSubexpressionElimination(e Expr) Expr {
	canonMemo := make(map[Expr]Expr)
	keyMap := make(map[string]Expr)
	canonRoot := cseCanon(e, canonMemo, keyMap)

	usage := make(map[Expr]int)
	visited := make(map[Expr]bool)
	var countUses func(Expr)
	countUses = func(n Expr) {
		if n == nil {
			return
		}
		usage[n]++
		if visited[n] {
			return
		}
		visited[n] = true
		for _, c := range ExprChildren(n) {
			countUses(c)
		}
	}
	countUses(canonRoot)

	extract := make(map[Expr]bool)
	for n, count := range usage {
		if count <= 1 || n == canonRoot {
			continue
		}
		switch n.(type) {
		case *Var, *IntImm:
			continue
		}
		extract[n] = true
	}
	if len(extract) == 0 {
		return canonRoot
	}

	var order []Expr
	assigned := make(map[Expr]bool)
	var assign func(Expr)
	assign = func(n Expr) {
		if n == nil || assigned[n] {
			return
		}
		assigned[n] = true
		for _, c := range ExprChildren(n) {
			assign(c)
		}
		if extract[n] {
			order = append(order, n)
		}
	}
	assign(canonRoot)

	names := make(map[Expr]string, len(order))
	for _, n := range order {
		names[n] = UniqueName('c')
	}

	replaceMemo := make(map[Expr]Expr)
	var replace func(Expr) Expr
	replace = func(n Expr) Expr {
		return MutateExprPre(n, replaceMemo, func(x Expr) (Expr, bool) {
			if name, ok := names[x]; ok {
				return &Var{Name: name, T: x.ExprType()}, true
			}
			return nil, false
		})
	}

	valueFor := func(n Expr) Expr {
		children := ExprChildren(n)
		if len(children) == 0 {
			return n
		}
		newChildren := make([]Expr, len(children))
		changed := false
		for i, c := range children {
			newChildren[i] = replace(c)
			if newChildren[i] != c {
				changed = true
			}
		}
		if changed {
			return RebuildExpr(n, newChildren)
		}
		return n
	}

	body := replace(canonRoot)
	for i := len(order) - 1; i >= 0; i-- {
		node := order[i]
		body = &Let{Name: names[node], Value: valueFor(node), Body: body}
	}
	return body
}

// CommonSubexpressionEliminationStmt applies CSE independently to
// every expression field reachable from s.
func CommonSubexpressionEliminationStmt(s Stmt) Stmt {
	switch n := s.(type) {
	case nil:
		return nil
	case *Store:
		return &Store{
			Buffer: n.Buffer, Index: CommonSubexpressionElimination(n.Index),
			Value: CommonSubexpressionElimination(n.Value), Predicate: CommonSubexpressionElimination(n.Predicate),
		}
	case *LetStmt:
		return &LetStmt{Name: n.Name, Value: CommonSubexpressionElimination(n.Value), Body: CommonSubexpressionEliminationStmt(n.Body)}
	case *Block:
		return &Block{First: CommonSubexpressionEliminationStmt(n.First), Rest: CommonSubexpressionEliminationStmt(n.Rest)}
	case *For:
		return &For{
			Var: n.Var, Min: CommonSubexpressionElimination(n.Min), Extent: CommonSubexpressionElimination(n.Extent),
			ForType: n.ForType, Device: n.Device, Body: CommonSubexpressionEliminationStmt(n.Body),
		}
	case *IfThenElse:
		return &IfThenElse{
			Cond: CommonSubexpressionElimination(n.Cond), Then: CommonSubexpressionEliminationStmt(n.Then), Else: CommonSubexpressionEliminationStmt(n.Else),
		}
	case *ProducerConsumer:
		return &ProducerConsumer{Name: n.Name, IsProducer: n.IsProducer, Body: CommonSubexpressionEliminationStmt(n.Body)}
	case *Allocate:
		extents := make([]Expr, len(n.Extents))
		for i, ex := range n.Extents {
			extents[i] = CommonSubexpressionElimination(ex)
		}
		return &Allocate{
			Name: n.Name, ElemType: n.ElemType, Kind: n.Kind, Extents: extents,
			Condition: CommonSubexpressionElimination(n.Condition), Body: CommonSubexpressionEliminationStmt(n.Body),
		}
	default:
		return s
	}
}

func cseCanon(e Expr, memo map[Expr]Expr, keyMap map[string]Expr) Expr {
	if e == nil {
		return nil
	}
	if v, ok := memo[e]; ok {
		return v
	}
	children := ExprChildren(e)
	newChildren := make([]Expr, len(children))
	changed := false
	for i, c := range children {
		newChildren[i] = cseCanon(c, memo, keyMap)
		if newChildren[i] != c {
			changed = true
		}
	}
	key := cseKey(e, newChildren)
	if existing, ok := keyMap[key]; ok {
		memo[e] = existing
		return existing
	}
	rebuilt := e
	if changed {
		rebuilt = RebuildExpr(e, newChildren)
	}
	keyMap[key] = rebuilt
	memo[e] = rebuilt
	return rebuilt
}

// cseKey builds a canonicalization key from a node's kind, its own
// metadata, and the (already-canonical) pointer identity of its
// children, so two structurally identical subgraphs map to the same
// key regardless of which pointers happen to construct them.
func cseKey(e Expr, children []Expr) string {
	shallow := shallowKey(e)
	if len(children) == 0 {
		return shallow
	}
	key := shallow
	for _, c := range children {
		key += fmt.Sprintf("|%p", c)
	}
	return key
}

func shallowKey(e Expr) string {
	switch n := e.(type) {
	case *Var:
		return "Var:" + n.Name
	case *IntImm:
		return "IntImm:" + strconv.FormatInt(n.Value, 10) + ":" + n.T.String()
	case *Add:
		return "Add"
	case *Sub:
		return "Sub"
	case *Mul:
		return "Mul"
	case *Cmp:
		return "Cmp:" + strconv.Itoa(int(n.Op))
	case *Ramp:
		return "Ramp:" + strconv.Itoa(n.Lanes)
	case *Broadcast:
		return "Broadcast:" + strconv.Itoa(n.Lanes)
	case *Load:
		return "Load:" + n.Buffer + ":" + strconv.Itoa(int(n.Origin))
	case *Let:
		return "Let:" + n.Name
	case *Select:
		return "Select"
	case *Call:
		return "Call:" + n.Name
	default:
		return fmt.Sprintf("%T", e)
	}
}
