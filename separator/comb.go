package separator

import (
	"sort"

	"github.com/abctsp/abctsp/cutrepr"
	"github.com/abctsp/abctsp/support"
)

// blockCombSeparator implements the CCtsp block-comb heuristic (spec.md
// §4.3 step 5): over each support component of at least 3 nodes, it tests
// each odd candidate handle from blockPartition as a comb handle, with
// teeth picked by greedyOddTeeth (the same picker fastBlossomSeparator
// uses).
type blockCombSeparator struct{}

func (s *blockCombSeparator) Kind() Kind { return BlockComb }

func (s *blockCombSeparator) FindCuts(in Input) (*CutQueue, error) {
	q := NewCutQueue(0)
	xt := tourVector(in.Graph, in.Tour)
	eps := in.Cfg.Eps
	if eps <= 0 {
		eps = ViolationEps
	}

	for _, comp := range support.Components(in.Support) {
		if len(comp) < 3 {
			continue
		}
		blocks := blockPartition(in, comp, eps)
		for _, handle := range blocks {
			if len(handle) < 3 {
				continue
			}
			teeth := greedyOddTeeth(in, handle, eps)
			if len(teeth) < 3 || len(teeth)%2 == 0 {
				continue
			}
			row, err := combRow(in.Graph, handle, teeth)
			if err != nil {
				continue
			}
			for _, c := range primalGuard([]*cutrepr.SparseRow{row}, xt, in.X, eps) {
				_ = q.PushBack(c)
			}
		}
	}
	return q, nil
}

// blockPartition splits a support component into odd-sized candidate
// handles: it sorts the component by tour position and returns its
// prefixes of size 3, 5, 7, ... (x and eps are not consulted) — a
// simplified, deterministic stand-in for CCtsp's block identification that
// preserves the "try several odd subsets of one component" shape.
func blockPartition(in Input, comp []int, eps float64) [][]int {
	sorted := append([]int(nil), comp...)
	sort.Slice(sorted, func(i, j int) bool { return in.Tour.Perm[sorted[i]] < in.Tour.Perm[sorted[j]] })

	var blocks [][]int
	for size := 3; size <= len(sorted); size += 2 {
		blocks = append(blocks, append([]int(nil), sorted[:size]...))
	}
	return blocks
}
