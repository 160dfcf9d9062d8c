package separator

import (
	"context"
	"sort"

	"github.com/abctsp/abctsp/core"
	"github.com/abctsp/abctsp/cutrepr"
	"github.com/abctsp/abctsp/flow"
	"github.com/abctsp/abctsp/support"
	"github.com/abctsp/abctsp/tour"
)

// fastBlossomSeparator implements the odd-component (Padberg-Hong)
// heuristic on the fractional support subgraph (spec.md §4.3 step 3),
// filtered to rows tight at the tour. This is a heuristic pass: every
// support-graph component with an odd node count (at least 3) and at least
// one fractional interior edge is taken as a comb handle, its teeth are
// picked by greedyOddTeeth, and the comb row is kept only if primalGuard
// accepts it. No Gomory-Hu-based (GH-epsilon) search is done.
type fastBlossomSeparator struct{}

func (s *fastBlossomSeparator) Kind() Kind { return FastBlossom }

func (s *fastBlossomSeparator) FindCuts(in Input) (*CutQueue, error) {
	q := NewCutQueue(0)
	xt := tourVector(in.Graph, in.Tour)
	eps := in.Cfg.Eps
	if eps <= 0 {
		eps = ViolationEps
	}

	comps := oddFractionalHandles(in, eps)
	for _, handle := range comps {
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
	return q, nil
}

// oddFractionalHandles enumerates support-graph components with an odd
// node count and at least one interior fractional edge — candidate comb
// handles.
func oddFractionalHandles(in Input, eps float64) [][]int {
	var out [][]int
	for _, comp := range support.Components(in.Support) {
		if len(comp)%2 == 1 && len(comp) >= 3 && hasFractionalEdge(in, comp, eps) {
			sorted := append([]int(nil), comp...)
			sort.Ints(sorted)
			out = append(out, sorted)
		}
	}
	return out
}

func hasFractionalEdge(in Input, nodes []int, eps float64) bool {
	in2 := make(map[int]bool, len(nodes))
	for _, v := range nodes {
		in2[v] = true
	}
	for idx, e := range in.Graph.Edges() {
		if in2[e.U] && in2[e.V] {
			xv := in.X[idx]
			if xv > eps && xv < 1-eps {
				return true
			}
		}
	}
	return false
}

// greedyOddTeeth picks, for handle H, one crossing edge per "tooth" by
// scanning H's boundary edges with x > eps in CoreGraph order and keeping
// the first such edge for each outside endpoint not yet used; the teeth
// are returned sorted by outside endpoint.
func greedyOddTeeth(in Input, handle []int, eps float64) [][2]int {
	inH := make(map[int]bool, len(handle))
	for _, v := range handle {
		inH[v] = true
	}
	usedOutside := make(map[int]bool)
	var teeth [][2]int
	for idx, e := range in.Graph.Edges() {
		xv := in.X[idx]
		if xv <= eps {
			continue
		}
		var inside, outside int
		switch {
		case inH[e.U] && !inH[e.V]:
			inside, outside = e.U, e.V
		case inH[e.V] && !inH[e.U]:
			inside, outside = e.V, e.U
		default:
			continue
		}
		if usedOutside[outside] {
			continue
		}
		usedOutside[outside] = true
		teeth = append(teeth, [2]int{inside, outside})
	}
	sort.Slice(teeth, func(i, j int) bool { return teeth[i][1] < teeth[j][1] })
	return teeth
}

func combRow(g *core.CoreGraph, handle []int, teeth [][2]int) (*cutrepr.SparseRow, error) {
	row, err := edgeSubsetRow(g, handle, len(handle)-1)
	if err != nil {
		return nil, err
	}
	k := len(teeth)
	for _, te := range teeth {
		idx, ok := g.Lookup(te[0], te[1])
		if !ok {
			return nil, cutrepr.ErrRowMismatch
		}
		row.Indices = append(row.Indices, idx)
		row.Values = append(row.Values, 1)
	}
	row.RHS = float64(len(handle)) + float64(k-1)/2.0
	return row, nil
}

// exactBlossomSeparator implements Letchford-Lodi exact primal blossom
// separation (spec.md §4.3 step 4): for each support edge, build an
// auxiliary capacity graph that flips tour-edge weights, find a min s-t
// cut, and accept it as a comb handle when it is odd, has >= 3 teeth, and
// is tight at the tour.
type exactBlossomSeparator struct{}

func (s *exactBlossomSeparator) Kind() Kind { return ExactBlossom }

func (s *exactBlossomSeparator) FindCuts(in Input) (*CutQueue, error) {
	q := NewCutQueue(0)
	n := in.Graph.N()
	if n < 5 {
		return q, nil
	}
	xt := tourVector(in.Graph, in.Tour)
	eps := in.Cfg.Eps
	if eps <= 0 {
		eps = ViolationEps
	}

	aux := buildFlipGraph(in.Graph, in.Tour, in.X)
	ctx := context.Background()
	for _, se := range in.Support.Edges {
		e, err := in.Graph.Edge(se.CoreEdgeIdx)
		if err != nil {
			continue
		}
		res, err := flow.MaxFlow(ctx, aux, e.U, e.V, flow.DefaultOptions())
		if err != nil || res.Value >= 1-eps {
			continue
		}
		handle := sourceSideNodes(res, n)
		if len(handle) < 3 || len(handle)%2 == 0 || len(handle) == n {
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
	return q, nil
}

// buildFlipGraph constructs the Letchford-Lodi auxiliary graph: tour edges
// get capacity (1 - x_e), non-tour edges get capacity x_e — flipping the
// tour's contribution so that a small min-cut corresponds to a violated
// blossom inequality.
func buildFlipGraph(g *core.CoreGraph, t *tour.BestTour, x []float64) *core.CoreGraph {
	n := g.N()
	aux := core.NewCoreGraph(n)
	for idx, e := range g.Edges() {
		cap := x[idx]
		if t.HasEdge(e.U, e.V) {
			cap = 1 - x[idx]
		}
		if cap < 0 {
			cap = 0
		}
		_, _ = aux.AddEdge(e.U, e.V, cap)
	}
	return aux
}

func sourceSideNodes(res flow.Result, n int) []int {
	var out []int
	for v := 0; v < n; v++ {
		if res.SourceSide[v] {
			out = append(out, v)
		}
	}
	return out
}
