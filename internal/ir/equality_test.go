package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGraphEqualIdenticalPointer(t *testing.T) {
	x := &Var{Name: "x", T: Int32()}
	assert.True(t, GraphEqual(x, x))
}

func TestGraphEqualStructurallyEqualDistinctNodes(t *testing.T) {
	x := &Var{Name: "x", T: Int32()}
	a := &Add{A: x, B: &IntImm{Value: 1, T: Int32()}}
	b := &Add{A: x, B: &IntImm{Value: 1, T: Int32()}}
	assert.True(t, GraphEqual(a, b))
}

func TestGraphEqualDiffersOnOperandOrder(t *testing.T) {
	x := &Var{Name: "x", T: Int32()}
	one := &IntImm{Value: 1, T: Int32()}
	a := &Add{A: x, B: one}
	b := &Add{A: one, B: x}
	assert.False(t, GraphEqual(a, b), "graph equality is structural, not commutative")
}

func TestGraphEqualDifferentVarNames(t *testing.T) {
	a := &Var{Name: "x", T: Int32()}
	b := &Var{Name: "y", T: Int32()}
	assert.False(t, GraphEqual(a, b))
}

func TestGraphEqualSharedSubDAGDoesNotDiverge(t *testing.T) {
	// A DAG where the same node is reachable two ways; GraphEqual must
	// terminate promptly via memoization rather than re-walking it.
	x := &Var{Name: "x", T: Int32()}
	shared := &Add{A: x, B: &IntImm{Value: 1, T: Int32()}}
	left := &Mul{A: shared, B: shared}
	right := &Mul{A: &Add{A: x, B: &IntImm{Value: 1, T: Int32()}}, B: &Add{A: x, B: &IntImm{Value: 1, T: Int32()}}}
	assert.True(t, GraphEqual(left, right))
}

func TestGraphEqualLoadComparesBufferAndOrigin(t *testing.T) {
	idx := &Var{Name: "x", T: Int32()}
	predTrue := ConstTrue(1)
	a := &Load{Buffer: "f", Origin: OriginImage, Index: idx, Predicate: predTrue, T: Int32()}
	b := &Load{Buffer: "g", Origin: OriginImage, Index: idx, Predicate: predTrue, T: Int32()}
	assert.False(t, GraphEqual(a, b))
}
