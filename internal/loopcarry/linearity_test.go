package loopcarry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loopc/internal/ir"
)

func freshXScope() *LinearScope {
	scope := ir.NewScope[ir.Expr]()
	scope.Push("x", ir.MakeInt(1))
	return scope
}

func TestIsLinearOfLoopVariableIsOne(t *testing.T) {
	x := &ir.Var{Name: "x", T: ir.Int32()}
	delta, ok := IsLinear(x, freshXScope())
	require.True(t, ok)
	assert.True(t, ir.IsConstOne(delta))
}

func TestIsLinearOfExternalVariableIsZero(t *testing.T) {
	n := &ir.Var{Name: "N", T: ir.Int32()}
	delta, ok := IsLinear(n, freshXScope())
	require.True(t, ok)
	assert.True(t, ir.IsConstZero(delta))
}

func TestIsLinearUndefinedForNonLinearScopedVariable(t *testing.T) {
	scope := freshXScope()
	scope.Push("nl", nil)
	nl := &ir.Var{Name: "nl", T: ir.Int32()}
	_, ok := IsLinear(nl, scope)
	assert.False(t, ok)
}

func TestIsLinearAddPropagatesDelta(t *testing.T) {
	x := &ir.Var{Name: "x", T: ir.Int32()}
	e := ir.AddExpr(x, ir.MakeInt(1))
	delta, ok := IsLinear(e, freshXScope())
	require.True(t, ok)
	assert.True(t, ir.IsConstOne(delta))
}

func TestIsLinearAddOfTwoNonLinearIsUndefined(t *testing.T) {
	scope := freshXScope()
	scope.Push("a", nil)
	scope.Push("b", nil)
	a := &ir.Var{Name: "a", T: ir.Int32()}
	b := &ir.Var{Name: "b", T: ir.Int32()}
	_, ok := IsLinear(ir.AddExpr(a, b), scope)
	assert.False(t, ok)
}

func TestIsLinearMulRejectsAffineTimesAffine(t *testing.T) {
	x := &ir.Var{Name: "x", T: ir.Int32()}
	_, ok := IsLinear(ir.MulExpr(x, x), freshXScope())
	assert.False(t, ok, "x*x is not affine in x")
}

func TestIsLinearMulByLoopInvariantScales(t *testing.T) {
	x := &ir.Var{Name: "x", T: ir.Int32()}
	e := ir.MulExpr(x, ir.MakeInt(8))
	delta, ok := IsLinear(e, freshXScope())
	require.True(t, ok)
	imm, isImm := ir.Simplify(delta).(*ir.IntImm)
	require.True(t, isImm)
	assert.Equal(t, int64(8), imm.Value)
}

func TestIsLinearRampRequiresLoopInvariantStride(t *testing.T) {
	x := &ir.Var{Name: "x", T: ir.Int32()}
	scope := freshXScope()
	ramp := &ir.Ramp{Base: x, Stride: x, Lanes: 4} // stride == x is linear, not invariant
	_, ok := IsLinear(ramp, scope)
	assert.False(t, ok)
}

func TestIsLinearNot32BitIsUndefined(t *testing.T) {
	f := &ir.Var{Name: "f", T: ir.Type{Code: ir.Float, Bits: 32, Lanes: 1}}
	_, ok := IsLinear(f, freshXScope())
	assert.False(t, ok)
}

func TestStepForwardsBailsOnUndefinedDelta(t *testing.T) {
	scope := freshXScope()
	scope.Push("nl", nil)
	nl := &ir.Var{Name: "nl", T: ir.Int32()}
	e := ir.AddExpr(nl, ir.MakeInt(1))
	_, ok := StepForwards(e, scope)
	assert.False(t, ok)
}

func TestStepForwardsLeavesZeroDeltaVariableUnchanged(t *testing.T) {
	n := &ir.Var{Name: "N", T: ir.Int32()}
	result, ok := StepForwards(n, freshXScope())
	require.True(t, ok)
	assert.Same(t, n, result, "a loop-invariant variable must be left as the same node, not rewrapped")
}

func TestStepForwardsCanonicalSimplifiesTheSteppedForm(t *testing.T) {
	x := &ir.Var{Name: "x", T: ir.Int32()}
	e := ir.SubExpr(ir.AddExpr(x, ir.MakeInt(1)), ir.MakeInt(1)) // (x+1)-1
	canon, ok := StepForwardsCanonical(e, freshXScope())
	require.True(t, ok)
	// stepping x forward gives (x+1+1)-1, which should canonicalize to x+1.
	expected := ir.AddExpr(x, ir.MakeInt(1))
	assert.True(t, ir.GraphEqual(expected, canon))
}
