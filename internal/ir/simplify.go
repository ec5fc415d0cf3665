package ir

// Simplify rewrites e into an algebraically equivalent but smaller or
// more canonical form: constant folding, identity elimination (x+0,
// x*1, ...), and affine normalization of chains of Add/Sub by a
// constant so that e.g. ((x+1)+1)-1 reduces to x+1. It is conservative:
// anything it cannot confidently reduce it returns unchanged, never
// producing a form that is not provably equal to the input.
func Simplify(e Expr) Expr {
	memo := make(map[Expr]Expr)
	return MutateExprPost(e, memo, simplifyNode)
}

// SimplifyStmt applies Simplify to every expression reachable from s.
func SimplifyStmt(s Stmt) Stmt {
	switch n := s.(type) {
	case nil:
		return nil
	case *Store:
		return &Store{Buffer: n.Buffer, Index: Simplify(n.Index), Value: Simplify(n.Value), Predicate: Simplify(n.Predicate)}
	case *LetStmt:
		return &LetStmt{Name: n.Name, Value: Simplify(n.Value), Body: SimplifyStmt(n.Body)}
	case *Block:
		return &Block{First: SimplifyStmt(n.First), Rest: SimplifyStmt(n.Rest)}
	case *For:
		return &For{Var: n.Var, Min: Simplify(n.Min), Extent: Simplify(n.Extent), ForType: n.ForType, Device: n.Device, Body: SimplifyStmt(n.Body)}
	case *IfThenElse:
		return &IfThenElse{Cond: Simplify(n.Cond), Then: SimplifyStmt(n.Then), Else: SimplifyStmt(n.Else)}
	case *ProducerConsumer:
		return &ProducerConsumer{Name: n.Name, IsProducer: n.IsProducer, Body: SimplifyStmt(n.Body)}
	case *Allocate:
		extents := make([]Expr, len(n.Extents))
		for i, ex := range n.Extents {
			extents[i] = Simplify(ex)
		}
		return &Allocate{Name: n.Name, ElemType: n.ElemType, Kind: n.Kind, Extents: extents, Condition: Simplify(n.Condition), Body: SimplifyStmt(n.Body)}
	default:
		return s
	}
}

func simplifyNode(e Expr) Expr {
	switch n := e.(type) {
	case *Add:
		return simplifyAdd(n.A, n.B)
	case *Sub:
		return simplifySub(n.A, n.B)
	case *Mul:
		return simplifyMul(n.A, n.B)
	case *Cmp:
		return simplifyCmp(n.Op, n.A, n.B)
	case *Select:
		if IsConstOne(n.Cond) {
			return n.TrueVal
		}
		if IsConstZero(n.Cond) {
			return n.FalseVal
		}
		return n
	default:
		return e
	}
}

// splitAffine decomposes e as core+k for some constant k, where core
// is nil when e is itself a pure constant. It recurses through chains
// of Add/Sub with constant operands; anything else is returned as its
// own opaque core with k=0.
func splitAffine(e Expr) (core Expr, k int64) {
	switch n := e.(type) {
	case *IntImm:
		return nil, n.Value
	case *Add:
		ca, ka := splitAffine(n.A)
		cb, kb := splitAffine(n.B)
		switch {
		case ca == nil && cb == nil:
			return nil, ka + kb
		case ca == nil:
			return cb, ka + kb
		case cb == nil:
			return ca, ka + kb
		default:
			return e, 0
		}
	case *Sub:
		ca, ka := splitAffine(n.A)
		cb, kb := splitAffine(n.B)
		switch {
		case ca == nil && cb == nil:
			return nil, ka - kb
		case cb == nil:
			return ca, ka - kb
		case ca != nil && GraphEqual(ca, cb):
			return nil, ka - kb
		default:
			return e, 0
		}
	default:
		return e, 0
	}
}

// rebuildAffine reconstructs core+k (core possibly nil) as an Expr of
// core's type, folding away a zero offset.
func rebuildAffine(core Expr, k int64, t Type) Expr {
	if core == nil {
		return &IntImm{Value: k, T: t}
	}
	if k == 0 {
		return core
	}
	if k > 0 {
		return &Add{A: core, B: &IntImm{Value: k, T: t}}
	}
	return &Sub{A: core, B: &IntImm{Value: -k, T: t}}
}

func simplifyAdd(a, b Expr) Expr {
	t := a.ExprType()
	if IsConstZero(a) {
		return b
	}
	if IsConstZero(b) {
		return a
	}
	ca, ka := splitAffine(a)
	cb, kb := splitAffine(b)
	switch {
	case ca == nil && cb == nil:
		return rebuildAffine(nil, ka+kb, t)
	case ca == nil:
		return rebuildAffine(cb, ka+kb, t)
	case cb == nil:
		return rebuildAffine(ca, ka+kb, t)
	default:
		return &Add{A: a, B: b}
	}
}

func simplifySub(a, b Expr) Expr {
	t := a.ExprType()
	if IsConstZero(b) {
		return a
	}
	ca, ka := splitAffine(a)
	cb, kb := splitAffine(b)
	switch {
	case ca == nil && cb == nil:
		return rebuildAffine(nil, ka-kb, t)
	case cb == nil:
		return rebuildAffine(ca, ka-kb, t)
	case ca != nil && GraphEqual(ca, cb):
		return rebuildAffine(nil, ka-kb, t)
	default:
		return &Sub{A: a, B: b}
	}
}

func simplifyMul(a, b Expr) Expr {
	if IsConstOne(a) {
		return b
	}
	if IsConstOne(b) {
		return a
	}
	if IsConstZero(a) || IsConstZero(b) {
		return MakeZero(a.ExprType())
	}
	ai, aok := a.(*IntImm)
	bi, bok := b.(*IntImm)
	if aok && bok {
		return &IntImm{Value: ai.Value * bi.Value, T: a.ExprType()}
	}
	return &Mul{A: a, B: b}
}

// simplifyCmp decides EQ/NE over affine forms when the two sides have
// the same symbolic core (or none), so that they differ only by their
// constant offsets; any other comparison, including an EQ/NE between
// different cores, is left unresolved.
func simplifyCmp(op CmpOp, a, b Expr) Expr {
	if op != EQ && op != NE {
		return &Cmp{Op: op, A: a, B: b}
	}
	ca, ka := splitAffine(a)
	cb, kb := splitAffine(b)
	sameCore := (ca == nil && cb == nil) || (ca != nil && cb != nil && GraphEqual(ca, cb))
	if !sameCore {
		return &Cmp{Op: op, A: a, B: b}
	}
	equal := ka == kb
	result := equal
	if op == NE {
		result = !equal
	}
	v := int64(0)
	if result {
		v = 1
	}
	return &IntImm{Value: v, T: Bool()}
}
