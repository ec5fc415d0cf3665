// Package examples builds small, hand-constructed IR trees exercising
// the loop-carry pass's chain-discovery and transformation rules. The
// REPL and the pass's own tests both build their input from here so
// that a scenario is only ever described once.
package examples

import "loopc/internal/ir"

// Scenario is one named input statement plus the max-carried-values
// budget it is meant to be run with.
type Scenario struct {
	Name             string
	Describe         string
	Stmt             ir.Stmt
	MaxCarriedValues int
}

func loadF(buffer string, origin ir.BufferOrigin, idx ir.Expr, t ir.Type) *ir.Load {
	lanes := t.Lanes
	return &ir.Load{Buffer: buffer, Origin: origin, Index: idx, Predicate: ir.ConstTrue(lanes), T: t}
}

// ThreeTapStencil is S1: out[x] = f[x-1] + f[x] + f[x+1].
func ThreeTapStencil() Scenario {
	t := ir.Int32()
	x := &ir.Var{Name: "x", T: t}
	fLeft := loadF("f", ir.OriginImage, ir.SubExpr(x, ir.MakeInt(1)), t)
	fMid := loadF("f", ir.OriginImage, x, t)
	fRight := loadF("f", ir.OriginImage, ir.AddExpr(x, ir.MakeInt(1)), t)
	sum := ir.AddExpr(ir.AddExpr(fLeft, fMid), fRight)
	store := &ir.Store{Buffer: "out", Index: x, Value: sum, Predicate: ir.ConstTrue(1)}
	loop := &ir.For{Var: "x", Min: ir.MakeInt(0), Extent: &ir.Var{Name: "N", T: t}, ForType: ir.Serial, Body: store}
	return Scenario{Name: "three-tap-stencil", Describe: "out[x] = f[x-1] + f[x] + f[x+1]", Stmt: loop, MaxCarriedValues: 3}
}

// TwoTapWithPredicate is S2: out[x] = select(p[x], f[x]+f[x+1], 0).
func TwoTapWithPredicate() Scenario {
	t := ir.Int32()
	boolT := ir.Bool()
	x := &ir.Var{Name: "x", T: t}
	pLoad := loadF("p", ir.OriginImage, x, boolT)
	fMid := loadF("f", ir.OriginImage, x, t)
	fRight := loadF("f", ir.OriginImage, ir.AddExpr(x, ir.MakeInt(1)), t)
	sel := &ir.Select{Cond: pLoad, TrueVal: ir.AddExpr(fMid, fRight), FalseVal: ir.MakeZero(t)}
	store := &ir.Store{Buffer: "out", Index: x, Value: sel, Predicate: ir.ConstTrue(1)}
	loop := &ir.For{Var: "x", Min: ir.MakeInt(0), Extent: &ir.Var{Name: "N", T: t}, ForType: ir.Serial, Body: store}
	return Scenario{Name: "two-tap-predicated", Describe: "out[x] = select(p[x], f[x]+f[x+1], 0)", Stmt: loop, MaxCarriedValues: 2}
}

// VectorizedLoads is S3: lanes=8 loads of two overlapping 8-wide windows.
func VectorizedLoads() Scenario {
	t := ir.Int32()
	t8 := ir.Int32Vec(8)
	x := &ir.Var{Name: "x", T: t}
	baseThis := ir.MulExpr(x, ir.MakeInt(8))
	basePrev := ir.MulExpr(ir.SubExpr(x, ir.MakeInt(1)), ir.MakeInt(8))
	idxPrev := &ir.Ramp{Base: basePrev, Stride: ir.MakeInt(1), Lanes: 8}
	idxThis := &ir.Ramp{Base: baseThis, Stride: ir.MakeInt(1), Lanes: 8}
	fPrev := loadF("f", ir.OriginImage, idxPrev, t8)
	fThis := loadF("f", ir.OriginImage, idxThis, t8)
	sum := ir.AddExpr(fPrev, fThis)
	storeIdx := &ir.Ramp{Base: baseThis, Stride: ir.MakeInt(1), Lanes: 8}
	store := &ir.Store{Buffer: "out", Index: storeIdx, Value: sum, Predicate: ir.ConstTrue(8)}
	loop := &ir.For{Var: "x", Min: ir.MakeInt(0), Extent: &ir.Var{Name: "N", T: t}, ForType: ir.Serial, Body: store}
	return Scenario{Name: "vectorized-loads", Describe: "8-wide out[x*8:+8] = f[(x-1)*8:+8] + f[x*8:+8]", Stmt: loop, MaxCarriedValues: 2}
}

// ProverRequiredChain is S4: one load's index is built as 1+x rather
// than x+1, so the chain only closes once step_forwards(x) is proved
// equal to 1+x under commuted operands — graph equality alone fails,
// and the symbolic prover is what actually discovers the chain.
func ProverRequiredChain() Scenario {
	t := ir.Int32()
	x := &ir.Var{Name: "x", T: t}
	fCommuted := loadF("f", ir.OriginImage, ir.AddExpr(ir.MakeInt(1), x), t)
	fPlain := loadF("f", ir.OriginImage, x, t)
	sum := ir.AddExpr(fCommuted, fPlain)
	store := &ir.Store{Buffer: "out", Index: x, Value: sum, Predicate: ir.ConstTrue(1)}
	loop := &ir.For{Var: "x", Min: ir.MakeInt(0), Extent: &ir.Var{Name: "N", T: t}, ForType: ir.Serial, Body: store}
	return Scenario{Name: "prover-required-chain", Describe: "out[x] = f[1+x] + f[x] (commuted index form)", Stmt: loop, MaxCarriedValues: 2}
}

// TooManyCandidates is S5: three independent 2-tap chains compete for
// a budget that only fits one.
func TooManyCandidates() Scenario {
	t := ir.Int32()
	x := &ir.Var{Name: "x", T: t}
	twoTap := func(buffer, out string) ir.Stmt {
		a := loadF(buffer, ir.OriginImage, x, t)
		b := loadF(buffer, ir.OriginImage, ir.AddExpr(x, ir.MakeInt(1)), t)
		return &ir.Store{Buffer: out, Index: x, Value: ir.AddExpr(a, b), Predicate: ir.ConstTrue(1)}
	}
	body := ir.MakeBlock([]ir.Stmt{twoTap("f", "out1"), twoTap("g", "out2"), twoTap("h", "out3")})
	loop := &ir.For{Var: "x", Min: ir.MakeInt(0), Extent: &ir.Var{Name: "N", T: t}, ForType: ir.Serial, Body: body}
	return Scenario{Name: "too-many-candidates", Describe: "three independent 2-tap chains, budget 2", Stmt: loop, MaxCarriedValues: 2}
}

// InnerLoopBoundary is S6: an outer x loop wraps an inner y loop whose
// body reads the loop-invariant (in y) f[x]; the inner rewriter at the
// y loop must not lift it, and the outer rewriter must not descend
// into the y body looking for chains of its own.
func InnerLoopBoundary() Scenario {
	t := ir.Int32()
	x := &ir.Var{Name: "x", T: t}
	y := &ir.Var{Name: "y", T: t}
	fLoad := loadF("f", ir.OriginImage, x, t)
	storeIdx := ir.AddExpr(ir.MulExpr(x, &ir.Var{Name: "Ny", T: t}), y)
	store := &ir.Store{Buffer: "out", Index: storeIdx, Value: fLoad, Predicate: ir.ConstTrue(1)}
	innerLoop := &ir.For{Var: "y", Min: ir.MakeInt(0), Extent: &ir.Var{Name: "Ny", T: t}, ForType: ir.Serial, Body: store}
	outerLoop := &ir.For{Var: "x", Min: ir.MakeInt(0), Extent: &ir.Var{Name: "Nx", T: t}, ForType: ir.Serial, Body: innerLoop}
	return Scenario{Name: "inner-loop-boundary", Describe: "for x: for y: out[x,y] = f[x]", Stmt: outerLoop, MaxCarriedValues: 3}
}

// All returns every scenario, in the order they appear in this file.
func All() []Scenario {
	return []Scenario{
		ThreeTapStencil(),
		TwoTapWithPredicate(),
		VectorizedLoads(),
		ProverRequiredChain(),
		TooManyCandidates(),
		InnerLoopBoundary(),
	}
}
