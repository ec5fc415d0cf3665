package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSimplifyFoldsAffineAddSubChain(t *testing.T) {
	x := &Var{Name: "x", T: Int32()}
	// ((x+1)+1)-1
	e := &Sub{A: &Add{A: &Add{A: x, B: MakeInt(1)}, B: MakeInt(1)}, B: MakeInt(1)}
	got := Simplify(e)
	want := &Add{A: x, B: MakeInt(1)}
	assert.True(t, GraphEqual(got, want), "got %s", PrintExpr(got))
}

func TestSimplifyCancelsEqualSubtrahend(t *testing.T) {
	x := &Var{Name: "x", T: Int32()}
	a := &Add{A: x, B: MakeInt(2)}
	e := &Sub{A: a, B: &Add{A: x, B: MakeInt(2)}}
	got := Simplify(e)
	assert.True(t, IsConstZero(got), "got %s", PrintExpr(got))
}

func TestSimplifyFoldsPureConstants(t *testing.T) {
	e := &Add{A: MakeInt(3), B: &Mul{A: MakeInt(4), B: MakeInt(5)}}
	got := Simplify(e)
	imm, ok := got.(*IntImm)
	assert.True(t, ok)
	assert.Equal(t, int64(23), imm.Value)
}

func TestSimplifyCmpEqualUnderCommutedOperands(t *testing.T) {
	x := &Var{Name: "x", T: Int32()}
	one := MakeInt(1)
	lhs := &Add{A: one, B: x} // 1+x, raw/unsimplified
	rhs := &Add{A: x, B: one} // x+1, canonical
	assert.False(t, GraphEqual(lhs, rhs))
	assert.True(t, CanProve(&Cmp{Op: EQ, A: lhs, B: rhs}))
}

func TestSimplifyCmpDoesNotProveUnrelatedIndices(t *testing.T) {
	x := &Var{Name: "x", T: Int32()}
	lhs := &Sub{A: &Add{A: x, B: MakeInt(1)}, B: MakeInt(1)} // x
	rhs := &Add{A: x, B: MakeInt(2)}                         // x+2
	assert.False(t, CanProve(&Cmp{Op: EQ, A: lhs, B: rhs}))
}

func TestSimplifyLeavesUnrelatedCoresUnresolved(t *testing.T) {
	x := &Var{Name: "x", T: Int32()}
	y := &Var{Name: "y", T: Int32()}
	got := Simplify(&Cmp{Op: EQ, A: x, B: y})
	_, isImm := got.(*IntImm)
	assert.False(t, isImm, "must not fabricate a verdict for unrelated symbols")
}
