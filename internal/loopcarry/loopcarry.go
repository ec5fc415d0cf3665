package loopcarry

import "loopc/internal/ir"

// innerRewriter is LoopCarryOverLoop (§4.5): it rewrites a single
// serial loop's body, tracking the linearity of every name bound
// above the cursor and the chain of enclosing let-bindings so a
// group's initial-values preamble can be rewrapped in them.
type innerRewriter struct {
	scope            *LinearScope
	consume          *ConsumeScope
	enclosingLets    []EnclosingLet
	maxCarriedValues int
	allocs           []*ScratchAlloc
}

func newInnerRewriter(loopVar string, consume *ConsumeScope, maxCarriedValues int) *innerRewriter {
	scope := ir.NewScope[ir.Expr]()
	scope.Push(loopVar, ir.MakeInt(1))
	return &innerRewriter{scope: scope, consume: consume, maxCarriedValues: maxCarriedValues}
}

// LoopCarryOverLoop rewrites body (the body of a single serial loop
// over loopVar) and returns the rewritten body plus every scratch
// allocation it needed.
func LoopCarryOverLoop(loopVar string, consume *ConsumeScope, maxCarriedValues int, body ir.Stmt) (ir.Stmt, []*ScratchAlloc) {
	r := newInnerRewriter(loopVar, consume, maxCarriedValues)
	newBody := r.rewrite(body)
	return newBody, r.allocs
}

func (r *innerRewriter) rewrite(s ir.Stmt) ir.Stmt {
	switch n := s.(type) {
	case nil:
		return nil
	case *ir.LetStmt:
		return r.visitLetStmt(n)
	case *ir.Store:
		return r.visitStore(n)
	case *ir.Block:
		return r.visitBlock(n)
	default:
		// For, IfThenElse, ProducerConsumer, Allocate: never lift
		// loads out of a region that may not execute every iteration
		// or whose boundary this pass does not understand.
		return s
	}
}

func (r *innerRewriter) visitLetStmt(n *ir.LetStmt) ir.Stmt {
	delta, ok := IsLinear(n.Value, r.scope)
	if !ok {
		delta = nil
	}
	r.scope.Push(n.Name, delta)
	r.enclosingLets = append(r.enclosingLets, EnclosingLet{Name: n.Name, Value: n.Value})

	newBody := r.rewrite(n.Body)

	r.enclosingLets = r.enclosingLets[:len(r.enclosingLets)-1]
	r.scope.Pop(n.Name)

	if newBody == n.Body {
		return n
	}
	return &ir.LetStmt{Name: n.Name, Value: n.Value, Body: newBody}
}

func (r *innerRewriter) visitStore(n *ir.Store) ir.Stmt {
	rewritten, allocs := LiftCarriedValuesOutOfStmt(n, r.scope, r.consume, r.enclosingLets, r.maxCarriedValues)
	r.allocs = append(r.allocs, allocs...)
	return rewritten
}

func (r *innerRewriter) visitBlock(n *ir.Block) ir.Stmt {
	stmts := ir.BlockToVector(n)
	var out []ir.Stmt
	var group []ir.Stmt

	flush := func() {
		if len(group) == 0 {
			return
		}
		rewritten, allocs := LiftCarriedValuesOutOfStmt(ir.MakeBlock(group), r.scope, r.consume, r.enclosingLets, r.maxCarriedValues)
		r.allocs = append(r.allocs, allocs...)
		out = append(out, rewritten)
		group = nil
	}

	for _, st := range stmts {
		if _, isStore := st.(*ir.Store); isStore {
			group = append(group, st)
			continue
		}
		flush()
		out = append(out, r.rewrite(st))
	}
	flush()
	return ir.MakeBlock(out)
}

// outerRewriter is LoopCarry (§4.4): it walks the whole statement
// tree, tracking which producers are currently safe to consume, and
// triggers the inner rewriter on every qualifying serial loop.
type outerRewriter struct {
	consume          *ConsumeScope
	maxCarriedValues int
}

// LoopCarry is the pass's single entry point: given a statement and
// a cap on the number of carried values, it returns a semantically
// equivalent statement with redundant cross-iteration loads retargeted
// at scratch buffers. The cap bounds the total length of the chains
// kept for each straight-line group of stores; a loop body with
// several such groups can carry up to that many values per group, not
// per loop.
func LoopCarry(s ir.Stmt, maxCarriedValues int) ir.Stmt {
	o := &outerRewriter{consume: ir.NewScopeSet(), maxCarriedValues: maxCarriedValues}
	return o.rewrite(s)
}

func (o *outerRewriter) rewrite(s ir.Stmt) ir.Stmt {
	switch n := s.(type) {
	case nil:
		return nil
	case *ir.ProducerConsumer:
		return o.rewriteProducerConsumer(n)
	case *ir.For:
		return o.rewriteFor(n)
	case *ir.Block:
		newFirst := o.rewrite(n.First)
		newRest := o.rewrite(n.Rest)
		if newFirst == n.First && newRest == n.Rest {
			return n
		}
		return &ir.Block{First: newFirst, Rest: newRest}
	case *ir.IfThenElse:
		newThen := o.rewrite(n.Then)
		newElse := o.rewrite(n.Else)
		if newThen == n.Then && newElse == n.Else {
			return n
		}
		return &ir.IfThenElse{Cond: n.Cond, Then: newThen, Else: newElse}
	case *ir.LetStmt:
		newBody := o.rewrite(n.Body)
		if newBody == n.Body {
			return n
		}
		return &ir.LetStmt{Name: n.Name, Value: n.Value, Body: newBody}
	case *ir.Allocate:
		newBody := o.rewrite(n.Body)
		if newBody == n.Body {
			return n
		}
		return &ir.Allocate{Name: n.Name, ElemType: n.ElemType, Kind: n.Kind, Extents: n.Extents, Condition: n.Condition, Body: newBody}
	default:
		return s
	}
}

func (o *outerRewriter) rewriteProducerConsumer(n *ir.ProducerConsumer) ir.Stmt {
	if !n.IsProducer {
		binding := ir.BindSet(o.consume, n.Name)
		newBody := o.rewrite(n.Body)
		binding.Pop()
		if newBody == n.Body {
			return n
		}
		return &ir.ProducerConsumer{Name: n.Name, IsProducer: n.IsProducer, Body: newBody}
	}
	newBody := o.rewrite(n.Body)
	if newBody == n.Body {
		return n
	}
	return &ir.ProducerConsumer{Name: n.Name, IsProducer: n.IsProducer, Body: newBody}
}

func (o *outerRewriter) rewriteFor(n *ir.For) ir.Stmt {
	if n.ForType != ir.Serial || ir.IsConstOne(n.Extent) {
		newBody := o.rewrite(n.Body)
		if newBody == n.Body {
			return n
		}
		return &ir.For{Var: n.Var, Min: n.Min, Extent: n.Extent, ForType: n.ForType, Device: n.Device, Body: newBody}
	}

	rewrittenBody := o.rewrite(n.Body)
	liftedBody, allocs := LoopCarryOverLoop(n.Var, o.consume, o.maxCarriedValues, rewrittenBody)

	var result ir.Stmt = &ir.For{Var: n.Var, Min: n.Min, Extent: n.Extent, ForType: n.ForType, Device: n.Device, Body: liftedBody}
	if len(allocs) == 0 {
		if liftedBody == n.Body {
			return n
		}
		return result
	}

	for _, alloc := range allocs {
		preamble := ir.SubstituteStmt(n.Var, n.Min, alloc.InitialStores)
		result = &ir.Block{First: preamble, Rest: result}
		result = &ir.Allocate{
			Name: alloc.Name, ElemType: alloc.ScalarType, Kind: ir.MemoryStack,
			Extents: []ir.Expr{ir.MakeInt(int64(alloc.Size))}, Condition: ir.ConstTrue(1), Body: result,
		}
	}

	return &ir.IfThenElse{Cond: &ir.Cmp{Op: ir.GT, A: n.Extent, B: ir.MakeZero(ir.Int32())}, Then: result}
}
