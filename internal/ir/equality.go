package ir

// GraphEqual reports whether a and b are structurally identical,
// sharing work across repeated sub-DAGs via a memo table keyed by the
// pair of node pointers being compared. It is the fast, exact-match
// path for comparing indices/predicates; callers fall back to
// CanProve on CSE-d forms when this returns false but the two
// expressions might still be provably equal.
func GraphEqual(a, b Expr) bool {
	memo := make(map[[2]Expr]bool)
	return graphEqual(a, b, memo)
}

func graphEqual(a, b Expr, memo map[[2]Expr]bool) bool {
	if a == b {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	key := [2]Expr{a, b}
	if v, ok := memo[key]; ok {
		return v
	}
	eq := exprEqualShallow(a, b) && graphEqualChildren(a, b, memo)
	memo[key] = eq
	return eq
}

func graphEqualChildren(a, b Expr, memo map[[2]Expr]bool) bool {
	ca, cb := ExprChildren(a), ExprChildren(b)
	if len(ca) != len(cb) {
		return false
	}
	for i := range ca {
		if !graphEqual(ca[i], cb[i], memo) {
			return false
		}
	}
	return true
}

// exprEqualShallow compares node kind and the metadata that
// RebuildExpr does not get from children (names, constants, lane
// counts, buffer identity, type), ignoring children themselves.
func exprEqualShallow(a, b Expr) bool {
	if !a.ExprType().Eq(b.ExprType()) {
		return false
	}
	switch x := a.(type) {
	case *Var:
		y, ok := b.(*Var)
		return ok && x.Name == y.Name
	case *IntImm:
		y, ok := b.(*IntImm)
		return ok && x.Value == y.Value
	case *Add:
		_, ok := b.(*Add)
		return ok
	case *Sub:
		_, ok := b.(*Sub)
		return ok
	case *Mul:
		_, ok := b.(*Mul)
		return ok
	case *Cmp:
		y, ok := b.(*Cmp)
		return ok && x.Op == y.Op
	case *Ramp:
		y, ok := b.(*Ramp)
		return ok && x.Lanes == y.Lanes
	case *Broadcast:
		y, ok := b.(*Broadcast)
		return ok && x.Lanes == y.Lanes
	case *Load:
		y, ok := b.(*Load)
		return ok && x.Buffer == y.Buffer && x.Origin == y.Origin
	case *Let:
		y, ok := b.(*Let)
		return ok && x.Name == y.Name
	case *Select:
		_, ok := b.(*Select)
		return ok
	case *Call:
		y, ok := b.(*Call)
		return ok && x.Name == y.Name
	default:
		return false
	}
}
