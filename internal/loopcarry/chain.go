package loopcarry

import (
	"sort"

	"loopc/internal/ir"
)

// LoadKey groups every physical *ir.Load site that is structurally
// (graph-)equal, so they can all be retargeted to the same scratch
// slot together.
type LoadKey struct {
	Load    *ir.Load
	Members []*ir.Load
}

// ConsumeScope is the set of producer names whose buffer contents are
// safe to read because their producer region has already finished.
type ConsumeScope = ir.ScopeSet

func isSafeToLift(l *ir.Load, consume *ConsumeScope) bool {
	switch l.Origin {
	case ir.OriginImage, ir.OriginParam:
		return true
	case ir.OriginInternal:
		return consume.Contains(l.Buffer)
	default:
		return false
	}
}

// GroupLoads buckets the safe-to-lift loads in loads by graph
// equality of the whole load node, in first-encounter order.
func GroupLoads(loads []*ir.Load, consume *ConsumeScope) []*LoadKey {
	var keys []*LoadKey
	for _, l := range loads {
		if !isSafeToLift(l, consume) {
			continue
		}
		var matched *LoadKey
		for _, k := range keys {
			if ir.GraphEqual(k.Load, l) {
				matched = k
				break
			}
		}
		if matched != nil {
			matched.Members = append(matched.Members, l)
		} else {
			keys = append(keys, &LoadKey{Load: l, Members: []*ir.Load{l}})
		}
	}
	return keys
}

// provablyEqualAfterCSE is the fast-path/slow-path comparison the
// spec requires: exact graph equality first, then the prover over
// each side's individually CSE-d form.
func provablyEqualAfterCSE(a, b ir.Expr) bool {
	if ir.GraphEqual(a, b) {
		return true
	}
	ca := ir.CommonSubexpressionElimination(a)
	cb := ir.CommonSubexpressionElimination(b)
	return ir.CanProve(&ir.Cmp{Op: ir.EQ, A: ca, B: cb})
}

// canChain reports whether key i's value this iteration equals key
// j's value next iteration: same buffer, matching stepped index, and
// matching stepped predicate.
func canChain(j, i *LoadKey, scope *LinearScope) bool {
	if j.Load.Buffer != i.Load.Buffer {
		return false
	}
	steppedIndex, ok := StepForwardsCanonical(j.Load.Index, scope)
	if !ok {
		return false
	}
	if !provablyEqualAfterCSE(i.Load.Index, steppedIndex) {
		return false
	}
	steppedPred, ok := StepForwardsCanonical(j.Load.Predicate, scope)
	if !ok {
		return false
	}
	return provablyEqualAfterCSE(i.Load.Predicate, steppedPred)
}

// DiscoverChains finds every length-2 chain [j,i] — key i's value
// this iteration equals key j's value the next — among keys, then
// agglomerates chains whose tail and head coincide to a fixed point.
// The indices in a returned chain index into keys.
func DiscoverChains(keys []*LoadKey, scope *LinearScope) [][]int {
	var chains [][]int
	for j := range keys {
		for i := range keys {
			if i == j {
				continue
			}
			if canChain(keys[j], keys[i], scope) {
				chains = append(chains, []int{j, i})
			}
		}
	}
	return agglomerate(chains)
}

func agglomerate(chains [][]int) [][]int {
	for {
		merged := false
		for a := 0; a < len(chains); a++ {
			if len(chains[a]) == 0 {
				continue
			}
			tail := chains[a][len(chains[a])-1]
			for b := 0; b < len(chains); b++ {
				if a == b || len(chains[b]) == 0 {
					continue
				}
				if chains[b][0] == tail {
					combined := make([]int, 0, len(chains[a])+len(chains[b])-1)
					combined = append(combined, chains[a]...)
					combined = append(combined, chains[b][1:]...)
					chains[a] = combined
					chains[b] = nil
					merged = true
					break
				}
			}
			if merged {
				break
			}
		}
		if !merged {
			break
		}
	}
	var out [][]int
	for _, c := range chains {
		if len(c) > 0 {
			out = append(out, c)
		}
	}
	return out
}

// TrimChains stable-sorts chains by descending length (preserving
// discovery order among ties) and keeps whole chains until the next
// one would overflow maxCarriedValues; it then keeps a prefix of that
// one chain if at least 2 slots of headroom remain, and stops.
func TrimChains(chains [][]int, maxCarriedValues int) [][]int {
	sorted := make([][]int, len(chains))
	copy(sorted, chains)
	sort.SliceStable(sorted, func(a, b int) bool { return len(sorted[a]) > len(sorted[b]) })

	var kept [][]int
	total := 0
	for _, c := range sorted {
		if total+len(c) <= maxCarriedValues {
			kept = append(kept, c)
			total += len(c)
			continue
		}
		if maxCarriedValues-total >= 2 {
			kept = append(kept, c[:maxCarriedValues-total])
		}
		break
	}
	return kept
}
