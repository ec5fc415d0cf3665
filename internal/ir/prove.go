package ir

// CanProve reports whether e, a boolean-typed expression, can be
// shown to always evaluate true. It is sound but incomplete: a false
// result means "not proven", not "false" — callers must treat it as
// the conservative fallback after a fast structural check
// (GraphEqual) has already failed. It must never return true for an
// expression that is not actually always true.
func CanProve(e Expr) bool {
	simplified := Simplify(e)
	imm, ok := simplified.(*IntImm)
	return ok && imm.Value != 0
}

// ProvablyEqual reports whether a and b can be shown equal, trying
// the cheap graph-identity check first and falling back to proving
// a==b over their simplified forms.
func ProvablyEqual(a, b Expr) bool {
	if GraphEqual(a, b) {
		return true
	}
	return CanProve(&Cmp{Op: EQ, A: a, B: b})
}
