package loopcarry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loopc/internal/examples"
	"loopc/internal/ir"
)

// collectAllocates walks the whole statement tree and returns every
// Allocate node it finds, outermost first.
func collectAllocates(s ir.Stmt) []*ir.Allocate {
	var out []*ir.Allocate
	var walk func(ir.Stmt)
	walk = func(s ir.Stmt) {
		switch n := s.(type) {
		case nil:
			return
		case *ir.Allocate:
			out = append(out, n)
			walk(n.Body)
		case *ir.Block:
			walk(n.First)
			walk(n.Rest)
		case *ir.LetStmt:
			walk(n.Body)
		case *ir.For:
			walk(n.Body)
		case *ir.IfThenElse:
			walk(n.Then)
			walk(n.Else)
		case *ir.ProducerConsumer:
			walk(n.Body)
		}
	}
	walk(s)
	return out
}

// countBufferLoads counts direct Load nodes reading buffer anywhere in
// the tree (including inside Load index/predicate subtrees, unlike
// FindLoads — this is purely a test probe).
func countBufferLoads(s ir.Stmt, buffer string) int {
	count := 0
	seen := make(map[ir.Expr]bool)
	var walkExpr func(ir.Expr)
	walkExpr = func(e ir.Expr) {
		if e == nil || seen[e] {
			return
		}
		seen[e] = true
		if l, ok := e.(*ir.Load); ok && l.Buffer == buffer {
			count++
		}
		for _, c := range ir.ExprChildren(e) {
			walkExpr(c)
		}
	}
	var walkStmt func(ir.Stmt)
	walkStmt = func(s ir.Stmt) {
		switch n := s.(type) {
		case nil:
			return
		case *ir.Store:
			walkExpr(n.Index)
			walkExpr(n.Value)
			walkExpr(n.Predicate)
		case *ir.LetStmt:
			walkExpr(n.Value)
			walkStmt(n.Body)
		case *ir.Block:
			walkStmt(n.First)
			walkStmt(n.Rest)
		case *ir.For:
			walkStmt(n.Body)
		case *ir.IfThenElse:
			walkStmt(n.Then)
			walkStmt(n.Else)
		case *ir.ProducerConsumer:
			walkStmt(n.Body)
		case *ir.Allocate:
			walkStmt(n.Body)
		}
	}
	walkStmt(s)
	return count
}

// allocSize returns the element count of an Allocate, i.e. the product
// of its Extents (each expected to be a constant IntImm in these tests).
func allocSize(a *ir.Allocate) int {
	size := 1
	for _, ex := range a.Extents {
		imm, ok := ex.(*ir.IntImm)
		if !ok {
			panic("allocSize: non-constant extent")
		}
		size *= int(imm.Value)
	}
	return size
}

func findFor(s ir.Stmt) *ir.For {
	switch n := s.(type) {
	case nil:
		return nil
	case *ir.For:
		return n
	case *ir.Block:
		if f := findFor(n.First); f != nil {
			return f
		}
		return findFor(n.Rest)
	case *ir.LetStmt:
		return findFor(n.Body)
	case *ir.IfThenElse:
		if f := findFor(n.Then); f != nil {
			return f
		}
		return findFor(n.Else)
	case *ir.ProducerConsumer:
		return findFor(n.Body)
	case *ir.Allocate:
		return findFor(n.Body)
	default:
		return nil
	}
}

func TestThreeTapStencilLiftsOneChainOfThree(t *testing.T) {
	ir.ResetUniqueNames()
	sc := examples.ThreeTapStencil()
	result := LoopCarry(sc.Stmt, sc.MaxCarriedValues)

	allocs := collectAllocates(result)
	require.Len(t, allocs, 1)
	assert.Equal(t, 3, allocSize(allocs[0]))
	assert.Equal(t, ir.MemoryStack, allocs[0].Kind)

	_, isGuarded := result.(*ir.IfThenElse)
	assert.True(t, isGuarded, "a loop that received a scratch allocation must be guarded by extent > 0")

	// Of the three original f loads, only the leading-edge fetch (one
	// genuinely new value per iteration) still reads the buffer
	// directly; the other two were retargeted at the scratch buffer.
	assert.Equal(t, 1, countBufferLoads(findFor(result).Body, "f"))
}

func TestTwoTapPredicatedChainSizeTwo(t *testing.T) {
	ir.ResetUniqueNames()
	sc := examples.TwoTapWithPredicate()
	result := LoopCarry(sc.Stmt, sc.MaxCarriedValues)

	allocs := collectAllocates(result)
	require.Len(t, allocs, 1)
	assert.Equal(t, 2, allocSize(allocs[0]))
}

func TestVectorizedLoadsUseLaneGroupSlots(t *testing.T) {
	ir.ResetUniqueNames()
	sc := examples.VectorizedLoads()
	result := LoopCarry(sc.Stmt, sc.MaxCarriedValues)

	allocs := collectAllocates(result)
	require.Len(t, allocs, 1)
	// Chain length 2, 8 lanes per slot.
	assert.Equal(t, 16, allocSize(allocs[0]))
	assert.Equal(t, 1, allocs[0].ElemType.Lanes)
}

func TestProverRequiredChainStillForms(t *testing.T) {
	ir.ResetUniqueNames()
	sc := examples.ProverRequiredChain()

	// Sanity check the premise: the two indices are not graph-equal to
	// each other's stepped form, only provably equal.
	x := &ir.Var{Name: "x", T: ir.Int32()}
	commuted := ir.AddExpr(ir.MakeInt(1), x)
	stepped, ok := StepForwardsCanonical(x, NewTestLinearScope("x"))
	require.True(t, ok)
	assert.False(t, ir.GraphEqual(commuted, stepped), "premise: graph equality must fail on commuted operands")
	assert.True(t, ir.CanProve(&ir.Cmp{Op: ir.EQ, A: commuted, B: stepped}), "premise: the prover must still decide them equal")

	result := LoopCarry(sc.Stmt, sc.MaxCarriedValues)
	allocs := collectAllocates(result)
	require.Len(t, allocs, 1, "the chain must form even though graph equality alone could not see it")
	assert.Equal(t, 2, allocSize(allocs[0]))
}

func TestTooManyCandidatesKeepsOnlyFirstChain(t *testing.T) {
	ir.ResetUniqueNames()
	sc := examples.TooManyCandidates()
	result := LoopCarry(sc.Stmt, sc.MaxCarriedValues)

	allocs := collectAllocates(result)
	require.Len(t, allocs, 1, "budget 2 fits exactly one 2-tap chain")
	assert.Equal(t, 2, allocSize(allocs[0]))

	body := findFor(result).Body
	assert.Equal(t, 1, countBufferLoads(body, "f"), "only the first chain's leading-edge fetch still reads f directly")
	assert.Equal(t, 2, countBufferLoads(body, "g"), "out2's chain was left untouched")
	assert.Equal(t, 2, countBufferLoads(body, "h"), "out3's chain was left untouched")
}

func TestInnerLoopBoundaryNeverLifts(t *testing.T) {
	ir.ResetUniqueNames()
	sc := examples.InnerLoopBoundary()
	result := LoopCarry(sc.Stmt, sc.MaxCarriedValues)

	assert.Empty(t, collectAllocates(result), "a loop-invariant single load has no partner to chain with")
	outerFor, ok := result.(*ir.For)
	require.True(t, ok, "no allocation means no guard/wrap was introduced")
	innerFor, ok := outerFor.Body.(*ir.For)
	require.True(t, ok)
	_, stillBareStore := innerFor.Body.(*ir.Store)
	assert.True(t, stillBareStore, "the inner rewriter at y must not have touched the store")
}

func TestBudgetNeverExceedsMaxCarriedValues(t *testing.T) {
	for _, sc := range examples.All() {
		ir.ResetUniqueNames()
		result := LoopCarry(sc.Stmt, sc.MaxCarriedValues)
		total := 0
		for _, a := range collectAllocates(result) {
			total += allocSize(a)
		}
		assert.LessOrEqual(t, total, sc.MaxCarriedValues*elementLanesUpperBound(sc), "scenario %s", sc.Name)
	}
}

// elementLanesUpperBound accounts for the fact that an Allocate's
// element count (allocSize) is measured in scalar elements (N*lanes),
// while MaxCarriedValues bounds the number of chain positions N, not
// lane-scaled elements. It returns the widest lane count of any Load
// in the scenario's stored values.
func elementLanesUpperBound(sc examples.Scenario) int {
	maxLanes := 1
	var walkExpr func(ir.Expr)
	walkExpr = func(e ir.Expr) {
		if e == nil {
			return
		}
		if l, ok := e.(*ir.Load); ok && l.T.Lanes > maxLanes {
			maxLanes = l.T.Lanes
		}
		for _, c := range ir.ExprChildren(e) {
			walkExpr(c)
		}
	}
	var walk func(ir.Stmt)
	walk = func(s ir.Stmt) {
		switch n := s.(type) {
		case nil:
			return
		case *ir.Store:
			walkExpr(n.Value)
		case *ir.Block:
			walk(n.First)
			walk(n.Rest)
		case *ir.For:
			walk(n.Body)
		case *ir.IfThenElse:
			walk(n.Then)
			walk(n.Else)
		}
	}
	walk(sc.Stmt)
	return maxLanes
}

func TestIdempotentOnSecondApplication(t *testing.T) {
	for _, sc := range examples.All() {
		ir.ResetUniqueNames()
		first := LoopCarry(sc.Stmt, sc.MaxCarriedValues)
		second := LoopCarry(first, sc.MaxCarriedValues)
		assert.Equal(t, ir.PrintStmt(first), ir.PrintStmt(second), "scenario %s: second pass must find no new chains", sc.Name)
	}
}

func TestDeterministicAcrossIdenticalRuns(t *testing.T) {
	for _, build := range []func() examples.Scenario{
		examples.ThreeTapStencil, examples.TwoTapWithPredicate, examples.VectorizedLoads,
	} {
		ir.ResetUniqueNames()
		a := LoopCarry(build().Stmt, build().MaxCarriedValues)
		ir.ResetUniqueNames()
		b := LoopCarry(build().Stmt, build().MaxCarriedValues)
		assert.Equal(t, ir.PrintStmt(a), ir.PrintStmt(b))
	}
}

func TestSafetyRejectsUnconsumedInternalBuffer(t *testing.T) {
	t8 := ir.Int32()
	x := &ir.Var{Name: "x", T: t8}
	internalLoad := &ir.Load{Buffer: "stage1", Origin: ir.OriginInternal, Index: x, Predicate: ir.ConstTrue(1), T: t8}
	consume := ir.NewScopeSet() // "stage1" was never bound as consumed
	keys := GroupLoads([]*ir.Load{internalLoad}, consume)
	assert.Empty(t, keys, "a load from a producer not yet in the consume scope must never be grouped for lifting")
}

func TestSafetyAcceptsConsumedInternalBuffer(t *testing.T) {
	t8 := ir.Int32()
	x := &ir.Var{Name: "x", T: t8}
	internalLoad := &ir.Load{Buffer: "stage1", Origin: ir.OriginInternal, Index: x, Predicate: ir.ConstTrue(1), T: t8}
	consume := ir.NewScopeSet()
	binding := ir.BindSet(consume, "stage1")
	defer binding.Pop()
	keys := GroupLoads([]*ir.Load{internalLoad}, consume)
	assert.Len(t, keys, 1)
}

func TestProducerConsumerScopeEnablesInternalBufferLifting(t *testing.T) {
	ir.ResetUniqueNames()
	t32 := ir.Int32()
	x := &ir.Var{Name: "x", T: t32}
	s1 := &ir.Load{Buffer: "stage1", Origin: ir.OriginInternal, Index: x, Predicate: ir.ConstTrue(1), T: t32}
	s2 := &ir.Load{Buffer: "stage1", Origin: ir.OriginInternal, Index: ir.AddExpr(x, ir.MakeInt(1)), Predicate: ir.ConstTrue(1), T: t32}
	store := &ir.Store{Buffer: "out", Index: x, Value: ir.AddExpr(s1, s2), Predicate: ir.ConstTrue(1)}
	loop := &ir.For{Var: "x", Min: ir.MakeInt(0), Extent: &ir.Var{Name: "N", T: t32}, ForType: ir.Serial, Body: store}
	consumer := &ir.ProducerConsumer{Name: "stage1", IsProducer: false, Body: loop}

	result := LoopCarry(consumer, 2)

	allocs := collectAllocates(result)
	require.Len(t, allocs, 1, "stage1 is in the consume scope for the whole consumer region, so its loads are safe to lift")
	assert.Equal(t, 2, allocSize(allocs[0]))
}

func TestProducerRegionNeverConsidersItsOwnOutputSafe(t *testing.T) {
	ir.ResetUniqueNames()
	t32 := ir.Int32()
	x := &ir.Var{Name: "x", T: t32}
	s1 := &ir.Load{Buffer: "stage1", Origin: ir.OriginInternal, Index: x, Predicate: ir.ConstTrue(1), T: t32}
	s2 := &ir.Load{Buffer: "stage1", Origin: ir.OriginInternal, Index: ir.AddExpr(x, ir.MakeInt(1)), Predicate: ir.ConstTrue(1), T: t32}
	store := &ir.Store{Buffer: "stage1", Index: x, Value: ir.AddExpr(s1, s2), Predicate: ir.ConstTrue(1)}
	loop := &ir.For{Var: "x", Min: ir.MakeInt(0), Extent: &ir.Var{Name: "N", T: t32}, ForType: ir.Serial, Body: store}
	producer := &ir.ProducerConsumer{Name: "stage1", IsProducer: true, Body: loop}

	result := LoopCarry(producer, 2)

	assert.Empty(t, collectAllocates(result), "a producer region must never treat its own not-yet-finished output as safe to lift")
}

// NewTestLinearScope builds a scope with loopVar bound at stride 1,
// mirroring what the inner rewriter sets up for the induction variable.
func NewTestLinearScope(loopVar string) *LinearScope {
	scope := ir.NewScope[ir.Expr]()
	scope.Push(loopVar, ir.MakeInt(1))
	return scope
}
