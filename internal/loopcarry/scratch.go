package loopcarry

import (
	"fmt"

	"loopc/internal/ir"
)

// EnclosingLet is one statement-level let binding the cursor is
// currently nested inside, recorded outermost-first as the inner
// rewriter descends so the initial-values computation can rewrap its
// preamble in whichever of them it actually references.
type EnclosingLet struct {
	Name  string
	Value ir.Expr
}

// ScratchAlloc describes one scratch buffer a chain needed: the
// outer driver turns this into an Allocate plus a preamble that
// preloads it at loop_min.
type ScratchAlloc struct {
	Name          string
	ScalarType    ir.Type
	Size          int
	InitialStores ir.Stmt
}

// LiftCarriedValuesOutOfStmt is the per-group transformation of
// §4.3: it finds carry chains among s's loads, retargets their load
// sites at a scratch buffer, and appends the shuffle/leading-edge
// bookkeeping each retained chain needs. If no chain survives
// discovery and trimming, s is returned unchanged.
func LiftCarriedValuesOutOfStmt(s ir.Stmt, scope *LinearScope, consume *ConsumeScope, enclosingLets []EnclosingLet, maxCarriedValues int) (ir.Stmt, []*ScratchAlloc) {
	graphStmt := ir.SubstituteInAllLets(s)
	loads := ir.FindLoads(graphStmt)
	keys := GroupLoads(loads, consume)
	if len(keys) == 0 {
		return s, nil
	}

	chains := DiscoverChains(keys, scope)
	chains = TrimChains(chains, maxCarriedValues)
	if len(chains) == 0 {
		return s, nil
	}

	current := graphStmt
	var leadingEdge []ir.Stmt
	var shuffles []ir.Stmt
	var allocs []*ScratchAlloc

	for _, chain := range chains {
		n := len(chain)
		chainKeys := make([]*LoadKey, n)
		for pos, ki := range chain {
			chainKeys[pos] = keys[ki]
		}
		t := chainKeys[0].Load.T
		scratchName := ir.UniqueName('s')

		for slot, key := range chainKeys {
			scratchLoad := &ir.Load{Buffer: scratchName, Origin: ir.OriginInternal, Index: ir.ScratchIndex(slot, t), Predicate: ir.ConstTrue(t.Lanes), T: t}
			for _, member := range key.Members {
				current = ir.GraphSubstituteStmt(member, scratchLoad, current)
			}
		}

		for slot := 1; slot < n; slot++ {
			readNewer := &ir.Load{Buffer: scratchName, Origin: ir.OriginInternal, Index: ir.ScratchIndex(slot, t), Predicate: ir.ConstTrue(t.Lanes), T: t}
			shuffles = append(shuffles, &ir.Store{
				Buffer: scratchName, Index: ir.ScratchIndex(slot-1, t), Value: readNewer, Predicate: ir.ConstTrue(t.Lanes),
			})
		}

		leadingEdge = append(leadingEdge, &ir.Store{
			Buffer: scratchName, Index: ir.ScratchIndex(n-1, t), Value: chainKeys[n-1].Load, Predicate: ir.ConstTrue(t.Lanes),
		})

		allocs = append(allocs, &ScratchAlloc{
			Name:          scratchName,
			ScalarType:    t.ElementOf(),
			Size:          n * t.Lanes,
			InitialStores: buildInitialStores(scratchName, t, chainKeys, enclosingLets),
		})
	}

	rewritten := ir.MakeBlock([]ir.Stmt{ir.MakeBlock(leadingEdge), current, ir.MakeBlock(shuffles)})
	return ir.CommonSubexpressionEliminationStmt(rewritten), allocs
}

// buildInitialStores computes the preamble that preloads every slot
// but the last (which the leading-edge store fills on the very first
// iteration too) — step 6 of §4.3: the N-1 original load expressions
// are packed as arguments of one synthetic call so a single CSE pass
// can share work across them, then the shared lets that CSE produces
// are peeled off and used to wrap the resulting stores, and finally
// the whole preamble is rewrapped in whichever enclosing lets of the
// loop body it actually references.
func buildInitialStores(scratchName string, t ir.Type, chainKeys []*LoadKey, enclosingLets []EnclosingLet) ir.Stmt {
	n := len(chainKeys)
	if n <= 1 {
		return nil
	}
	args := make([]ir.Expr, n-1)
	for k := 0; k < n-1; k++ {
		args[k] = chainKeys[k].Load
	}
	packed := &ir.Call{Name: ir.UniqueName('i'), Args: args, T: t}
	canon := ir.Simplify(ir.CommonSubexpressionElimination(packed))

	var peeled []EnclosingLet
	cur := canon
	for {
		let, ok := cur.(*ir.Let)
		if !ok {
			break
		}
		peeled = append(peeled, EnclosingLet{Name: let.Name, Value: let.Value})
		cur = let.Body
	}
	finalCall, ok := cur.(*ir.Call)
	if !ok {
		panic(fmt.Errorf("loopcarry: initial-value packing call lost its shape after CSE+simplify: %s", ir.PrintExpr(cur)))
	}

	stores := make([]ir.Stmt, n-1)
	for k := 0; k < n-1; k++ {
		stores[k] = &ir.Store{Buffer: scratchName, Index: ir.ScratchIndex(k, t), Value: finalCall.Args[k], Predicate: ir.ConstTrue(t.Lanes)}
	}
	body := ir.MakeBlock(stores)

	for i := len(peeled) - 1; i >= 0; i-- {
		body = &ir.LetStmt{Name: peeled[i].Name, Value: peeled[i].Value, Body: body}
	}
	for i := len(enclosingLets) - 1; i >= 0; i-- {
		el := enclosingLets[i]
		if ir.StmtUsesVar(body, el.Name) {
			body = &ir.LetStmt{Name: el.Name, Value: el.Value, Body: body}
		}
	}
	return body
}
