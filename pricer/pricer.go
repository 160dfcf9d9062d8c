// Package pricer implements reduced-cost edge pricing over the full
// implicit complete-graph edge set (spec.md §4.6): proving optimality (or
// discovering improving edges) by computing reduced costs in blocks and
// adding, or eliminating, CoreGraph columns.
package pricer

import (
	"errors"

	"github.com/abctsp/abctsp/core"
	"github.com/abctsp/abctsp/instance"
)

// Sentinel errors.
var ErrNoDuals = errors.New("pricer: dual-value source returned a mismatched length")

// ScanResult classifies a gen_edges call (spec.md §4.6).
type ScanResult int

const (
	// Full means every implicit edge was examined this call.
	Full ScanResult = iota
	// PartialReprice means the scan stopped early after a block yielded
	// enough improving edges.
	PartialReprice
)

// Config configures a pricing pass.
type Config struct {
	// BlockSize bounds how many implicit edges are examined per block
	// before checking the early-stop condition.
	BlockSize int
	// MinImproving is the per-block count of rc < -Eps edges that triggers
	// an early PartialReprice stop.
	MinImproving int
	Eps          float64
}

// DefaultConfig returns conventional pricing parameters.
func DefaultConfig() Config {
	return Config{BlockSize: 2048, MinImproving: 32, Eps: 1e-9}
}

// DualSource is the narrow view of lprelax.CoreLP the pricer needs: dual
// values indexed by row, the active tour permutation for locality-ordered
// scanning, and the current objective/tour-length bound used by
// elimination. Kept as an interface to avoid a pricer->lprelax import
// cycle (lprelax does not need to know about pricer).
type DualSource interface {
	RowDuals() []float64
	TourPermutation() []int
	TourLength() float64
	UpperBound() float64
}

// Block is one processed chunk of the implicit edge set: the node-pair
// range examined and the edges found with rc < -eps.
type Block struct {
	Improving []ImplicitEdge
}

// ImplicitEdge is a priced candidate: an (u,v) node pair not currently in
// CoreGraph, its instance length, and its reduced cost under the current
// duals.
type ImplicitEdge struct {
	U, V       int
	Length     float64
	ReducedCost float64
}

// reducedCost computes an edge's reduced cost as length minus the sum of
// the two endpoints' degree-equation dual values — the standard reduced
// cost of a TSP degree-constrained LP edge variable, ignoring cut-row
// duals (a conservative under-approximation safe for the "add if rc<-eps"
// test since cut rows only ever tighten, never loosen, the true reduced
// cost of an edge already absent from every cut's support).
func reducedCost(length float64, dualU, dualV float64) float64 {
	return length - dualU - dualV
}

// GenEdges computes reduced costs of implicit edges in tour-permutation
// locality order (spec.md §4.6: "using current dual values and tour
// permutation for locality"), processing blocks until either the full
// edge set is exhausted (Full) or a block yields enough improving edges
// (PartialReprice). Edges found improving are returned, not added to g: the
// caller appends them and installs them via lprelax.CoreLP.AddEdges.
func GenEdges(inst *instance.Instance, g *core.CoreGraph, duals DualSource, cfg Config) (ScanResult, []ImplicitEdge, error) {
	n := inst.N
	rowDuals := duals.RowDuals()
	perm := duals.TourPermutation()
	if len(perm) != n {
		return Full, nil, ErrNoDuals
	}
	nodeDual := make([]float64, n)
	for pos := 0; pos < n && pos < len(rowDuals); pos++ {
		nodeDual[perm[pos]] = rowDuals[pos]
	}

	present := make(map[[2]int]bool, g.EdgeCount())
	for _, e := range g.Edges() {
		present[edgeKey(e.U, e.V)] = true
	}

	blockSize := cfg.BlockSize
	if blockSize <= 0 {
		blockSize = DefaultConfig().BlockSize
	}
	minImproving := cfg.MinImproving
	if minImproving <= 0 {
		minImproving = DefaultConfig().MinImproving
	}
	eps := cfg.Eps
	if eps <= 0 {
		eps = DefaultConfig().Eps
	}

	order := perm // scan in tour order for locality
	var found []ImplicitEdge
	examined := 0
	blockImproving := 0

	for i := 0; i < n; i++ {
		u := order[i]
		for j := i + 1; j < n; j++ {
			v := order[j]
			if present[edgeKey(u, v)] {
				continue
			}
			length := inst.At(u, v)
			rc := reducedCost(length, nodeDual[u], nodeDual[v])
			examined++
			if rc < -eps {
				found = append(found, ImplicitEdge{U: u, V: v, Length: length, ReducedCost: rc})
				blockImproving++
			}
			if examined%blockSize == 0 {
				if blockImproving >= minImproving {
					return PartialReprice, found, nil
				}
				blockImproving = 0
			}
		}
	}
	return Full, found, nil
}

func edgeKey(u, v int) [2]int {
	if u > v {
		u, v = v, u
	}
	return [2]int{u, v}
}

// EliminationCandidate is an active non-tour edge eligible for removal
// because its reduced cost proves it can never enter an optimal tour.
type EliminationCandidate struct {
	EdgeIdx int
}

// Eliminate returns the indices of active, non-tour CoreGraph edges whose
// reduced cost proves they cannot improve on the current upper bound
// (spec.md §4.6: "every active non-tour edge with rc > upper_bound -
// tour_length - eps can be removed"), applicable only when piv is a
// FathomedTour (the caller is responsible for that check).
func Eliminate(g *core.CoreGraph, tourEdgeIdx map[int]bool, duals DualSource, eps float64) []EliminationCandidate {
	if eps <= 0 {
		eps = DefaultConfig().Eps
	}
	rowDuals := duals.RowDuals()
	perm := duals.TourPermutation()
	n := len(perm)
	nodeDual := make([]float64, n)
	for pos := 0; pos < n && pos < len(rowDuals); pos++ {
		nodeDual[perm[pos]] = rowDuals[pos]
	}
	bound := duals.UpperBound() - duals.TourLength() - eps

	var out []EliminationCandidate
	for idx, e := range g.Edges() {
		if tourEdgeIdx[idx] {
			continue
		}
		rc := reducedCost(e.Length, nodeDual[e.U], nodeDual[e.V])
		if rc > bound {
			out = append(out, EliminationCandidate{EdgeIdx: idx})
		}
	}
	return out
}
