package ir

// MakeZero returns the integer literal 0 of type t.
func MakeZero(t Type) Expr { return &IntImm{Value: 0, T: t} }

// MakeInt builds an Int32 literal.
func MakeInt(v int64) Expr { return &IntImm{Value: v, T: Int32()} }

// IsConstZero reports whether e is defined and is the literal zero.
func IsConstZero(e Expr) bool {
	if e == nil {
		return false
	}
	imm, ok := e.(*IntImm)
	return ok && imm.Value == 0
}

// IsConstOne reports whether e is defined and is the literal one.
func IsConstOne(e Expr) bool {
	if e == nil {
		return false
	}
	imm, ok := e.(*IntImm)
	return ok && imm.Value == 1
}

// ConstTrue builds an all-true predicate with the given lane count.
func ConstTrue(lanes int) Expr {
	return &IntImm{Value: 1, T: BoolVec(lanes)}
}

// AddExpr builds a+b as a plain Add node. It does no folding (a+0
// stays a+0); the simplifier is the canonical source of algebraic
// truth.
func AddExpr(a, b Expr) Expr { return &Add{A: a, B: b} }

func SubExpr(a, b Expr) Expr { return &Sub{A: a, B: b} }

func MulExpr(a, b Expr) Expr { return &Mul{A: a, B: b} }

func CmpExpr(op CmpOp, a, b Expr) Expr { return &Cmp{Op: op, A: a, B: b} }

// ScratchIndex returns the scalar index i, or a lane-group Ramp
// starting at i*lanes when t is a vector type — the slot_index
// helper from §4.3.
func ScratchIndex(i int, t Type) Expr {
	if t.IsScalar() {
		return MakeInt(int64(i))
	}
	return &Ramp{
		Base:   MakeInt(int64(i * t.Lanes)),
		Stride: MakeInt(1),
		Lanes:  t.Lanes,
	}
}

// MakeBlock assembles a (possibly empty) list of statements into a
// single right-associated Block, matching Halide's Block::make.
func MakeBlock(stmts []Stmt) Stmt {
	// Drop nils so an empty list of stores produces an empty block.
	filtered := make([]Stmt, 0, len(stmts))
	for _, s := range stmts {
		if s != nil {
			filtered = append(filtered, s)
		}
	}
	if len(filtered) == 0 {
		return nil
	}
	if len(filtered) == 1 {
		return filtered[0]
	}
	result := filtered[len(filtered)-1]
	for i := len(filtered) - 2; i >= 0; i-- {
		result = &Block{First: filtered[i], Rest: result}
	}
	return result
}

// Block2 is shorthand for MakeBlock of exactly two statements, skipping
// either one if nil.
func Block2(a, b Stmt) Stmt {
	return MakeBlock([]Stmt{a, b})
}

// BlockToVector flattens a (possibly nested) Block into its component
// statements, in order.
func BlockToVector(s Stmt) []Stmt {
	var out []Stmt
	var walk func(Stmt)
	walk = func(s Stmt) {
		if s == nil {
			return
		}
		if b, ok := s.(*Block); ok {
			walk(b.First)
			walk(b.Rest)
			return
		}
		out = append(out, s)
	}
	walk(s)
	return out
}
