// Package loopcarry implements the loop-carry optimization pass: it
// finds memory loads whose address in one serial-loop iteration
// equals another load's address in a prior iteration, and rewrites
// the loop to carry that value through a small scratch buffer instead
// of reloading it every time.
package loopcarry

import "loopc/internal/ir"

// LinearScope maps a variable name to its per-iteration delta
// expression. A name present with a nil value means "in scope but
// known non-linear"; a name absent from the scope is an external
// constant (delta zero).
type LinearScope = ir.Scope[ir.Expr]

func isInt32ish(t ir.Type) bool { return t.Code == ir.Int && t.Bits == 32 }

// IsLinear returns the per-iteration delta of e with respect to the
// loop variable under scope, and whether that delta is defined at
// all — ok is false when e is not affine in the variables the scope
// tracks.
func IsLinear(e ir.Expr, scope *LinearScope) (ir.Expr, bool) {
	if !isInt32ish(e.ExprType()) {
		return nil, false
	}
	switch n := e.(type) {
	case *ir.Var:
		if scope.Contains(n.Name) {
			delta := scope.Get(n.Name)
			if delta == nil {
				return nil, false
			}
			return delta, true
		}
		return ir.MakeZero(ir.Int32()), true
	case *ir.IntImm:
		return ir.MakeZero(ir.Int32()), true
	case *ir.Add:
		la, okA := IsLinear(n.A, scope)
		lb, okB := IsLinear(n.B, scope)
		if okA && ir.IsConstZero(la) {
			return lb, okB
		}
		if okB && ir.IsConstZero(lb) {
			return la, okA
		}
		if okA && okB {
			return ir.AddExpr(la, lb), true
		}
		return nil, false
	case *ir.Sub:
		la, okA := IsLinear(n.A, scope)
		lb, okB := IsLinear(n.B, scope)
		if okB && ir.IsConstZero(lb) {
			return la, okA
		}
		if okA && okB {
			return ir.SubExpr(la, lb), true
		}
		return nil, false
	case *ir.Mul:
		la, okA := IsLinear(n.A, scope)
		lb, okB := IsLinear(n.B, scope)
		if okA && okB && ir.IsConstZero(la) && ir.IsConstZero(lb) {
			return ir.MakeZero(ir.Int32()), true
		}
		if okA && ir.IsConstZero(la) && okB {
			return ir.MulExpr(n.A, lb), true
		}
		if okB && ir.IsConstZero(lb) && okA {
			return ir.MulExpr(n.B, la), true
		}
		return nil, false
	case *ir.Ramp:
		strideDelta, okS := IsLinear(n.Stride, scope)
		if !okS || !ir.IsConstZero(strideDelta) {
			return nil, false
		}
		return IsLinear(n.Base, scope)
	case *ir.Broadcast:
		return IsLinear(n.Value, scope)
	default:
		return nil, false
	}
}

// StepForwards replaces every free variable v in e with v+delta(v)
// under scope, bailing (ok=false) if any variable encountered has an
// undefined delta. A zero delta leaves the variable unchanged. It
// does not canonicalize the result — use StepForwardsCanonical for
// the form the chain-discovery comparisons require.
func StepForwards(e ir.Expr, scope *LinearScope) (result ir.Expr, ok bool) {
	ok = true
	memo := make(map[ir.Expr]ir.Expr)
	var mutate func(ir.Expr) ir.Expr
	mutate = func(n ir.Expr) ir.Expr {
		if n == nil || !ok {
			return n
		}
		if cached, found := memo[n]; found {
			return cached
		}
		var out ir.Expr
		if v, isVar := n.(*ir.Var); isVar {
			delta, defined := lookupDelta(v.Name, scope)
			if !defined {
				ok = false
				return n
			}
			if ir.IsConstZero(delta) {
				out = n
			} else {
				out = &ir.Add{A: n, B: delta}
			}
		} else {
			children := ir.ExprChildren(n)
			if len(children) == 0 {
				out = n
			} else {
				newChildren := make([]ir.Expr, len(children))
				changed := false
				for i, c := range children {
					nc := mutate(c)
					if !ok {
						return n
					}
					newChildren[i] = nc
					if nc != c {
						changed = true
					}
				}
				if changed {
					out = ir.RebuildExpr(n, newChildren)
				} else {
					out = n
				}
			}
		}
		memo[n] = out
		return out
	}
	stepped := mutate(e)
	if !ok {
		return nil, false
	}
	return stepped, true
}

func lookupDelta(name string, scope *LinearScope) (ir.Expr, bool) {
	if scope.Contains(name) {
		delta := scope.Get(name)
		if delta == nil {
			return nil, false
		}
		return delta, true
	}
	return ir.MakeZero(ir.Int32()), true
}

// StepForwardsCanonical is StepForwards followed by the canonical-form
// pipeline needed before symbolic comparison: CSE, then simplify,
// then let-substitution.
func StepForwardsCanonical(e ir.Expr, scope *LinearScope) (ir.Expr, bool) {
	stepped, ok := StepForwards(e, scope)
	if !ok {
		return nil, false
	}
	canon := ir.SubstituteInAllLetsExpr(ir.Simplify(ir.CommonSubexpressionElimination(stepped)))
	return canon, true
}
