package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCSECommonsRepeatedSubexpression(t *testing.T) {
	ResetUniqueNames()
	x := &Var{Name: "x", T: Int32()}
	// (x+1)*(x+1), built as two distinct but structurally equal nodes.
	shared := &Mul{A: &Add{A: x, B: MakeInt(1)}, B: &Add{A: x, B: MakeInt(1)}}
	out := CommonSubexpressionElimination(shared)
	let, ok := out.(*Let)
	if assert.True(t, ok, "expected a Let wrapping the commoned subexpression, got %s", PrintExpr(out)) {
		assert.True(t, GraphEqual(let.Value, &Add{A: x, B: MakeInt(1)}))
		inner, ok := let.Body.(*Mul)
		assert.True(t, ok)
		assert.True(t, GraphEqual(inner.A, &Var{Name: let.Name, T: Int32()}))
		assert.True(t, GraphEqual(inner.B, &Var{Name: let.Name, T: Int32()}))
	}
}

func TestCSELeavesUniqueSubexpressionsAlone(t *testing.T) {
	x := &Var{Name: "x", T: Int32()}
	y := &Var{Name: "y", T: Int32()}
	e := &Add{A: x, B: y}
	out := CommonSubexpressionElimination(e)
	_, isLet := out.(*Let)
	assert.False(t, isLet)
	assert.True(t, GraphEqual(out, e))
}

func TestCSEDoesNotExtractBareLeaves(t *testing.T) {
	x := &Var{Name: "x", T: Int32()}
	e := &Add{A: &Mul{A: x, B: x}, B: x}
	out := CommonSubexpressionElimination(e)
	// x itself repeats three times but is a leaf; only non-leaf repeats
	// (here, none besides x) should ever be lifted into a Let.
	_, isLet := out.(*Let)
	assert.False(t, isLet)
}
