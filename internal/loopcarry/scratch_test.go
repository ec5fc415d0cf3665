package loopcarry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loopc/internal/ir"
)

func TestLiftCarriedValuesOutOfStmtReturnsUnchangedWithoutAChain(t *testing.T) {
	x := &ir.Var{Name: "x", T: ir.Int32()}
	store := &ir.Store{Buffer: "out", Index: x, Value: loadAt("f", x), Predicate: ir.ConstTrue(1)}
	rewritten, allocs := LiftCarriedValuesOutOfStmt(store, freshXScopeFor(x), ir.NewScopeSet(), nil, 4)
	assert.Empty(t, allocs)
	assert.Equal(t, ir.PrintStmt(store), ir.PrintStmt(rewritten))
}

func TestLiftCarriedValuesOutOfStmtRewrapsInitialStoresInUsedEnclosingLet(t *testing.T) {
	ir.ResetUniqueNames()
	x := &ir.Var{Name: "x", T: ir.Int32()}
	offset := &ir.Var{Name: "off", T: ir.Int32()}
	a := loadAt("f", ir.AddExpr(x, offset))
	b := loadAt("f", ir.AddExpr(ir.AddExpr(x, ir.MakeInt(1)), offset))
	store := &ir.Store{Buffer: "out", Index: x, Value: ir.AddExpr(a, b), Predicate: ir.ConstTrue(1)}

	enclosing := []EnclosingLet{{Name: "off", Value: ir.MakeInt(3)}}
	_, allocs := LiftCarriedValuesOutOfStmt(store, freshXScopeFor(x), ir.NewScopeSet(), enclosing, 4)
	require.Len(t, allocs, 1)

	let, isLet := allocs[0].InitialStores.(*ir.LetStmt)
	require.True(t, isLet, "the preamble must be rewrapped in the enclosing let it references")
	assert.Equal(t, "off", let.Name)
}

func TestLiftCarriedValuesOutOfStmtDoesNotRewrapUnusedEnclosingLet(t *testing.T) {
	ir.ResetUniqueNames()
	x := &ir.Var{Name: "x", T: ir.Int32()}
	a := loadAt("f", x)
	b := loadAt("f", ir.AddExpr(x, ir.MakeInt(1)))
	store := &ir.Store{Buffer: "out", Index: x, Value: ir.AddExpr(a, b), Predicate: ir.ConstTrue(1)}

	enclosing := []EnclosingLet{{Name: "unrelated", Value: ir.MakeInt(9)}}
	_, allocs := LiftCarriedValuesOutOfStmt(store, freshXScopeFor(x), ir.NewScopeSet(), enclosing, 4)
	require.Len(t, allocs, 1)

	_, isLet := allocs[0].InitialStores.(*ir.LetStmt)
	assert.False(t, isLet, "an enclosing let the preamble never references must not be wrapped around it")
}
