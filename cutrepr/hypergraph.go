package cutrepr

import (
	"math"

	"github.com/abctsp/abctsp/core"
	"github.com/abctsp/abctsp/tour"
)

// CutType tags a HyperGraph row's origin (spec.md §3).
type CutType int

const (
	Subtour CutType = iota
	Comb
	Domino
	GMI
	Branch
)

// HyperGraph is a tagged-variant cut: every row's SparseRow must be
// recoverable from its handles plus the current defining tour (spec.md
// §3). Implemented as a single struct with a CutType discriminant rather
// than an interface hierarchy, per spec.md §9's "favor the variant" design
// note — every separator produces the same SparseRow shape regardless of
// cut_type.
type HyperGraph struct {
	CutType CutType

	// Subtour: CliqueHandles[0] is the node set S, x(E(S)) <= |S|-1.
	// Comb: CliqueHandles[0] is the handle H; ToothEdges gives one
	// crossing edge (u,v) per tooth (k odd, k>=3).
	CliqueHandles []int
	ToothEdges    [][2]int

	// Domino: ToothHandles references SimpleTeeth; HandleClique is the
	// handle-node-set clique.
	ToothHandles []int
	HandleClique int

	// GMI / Branch: a raw row, carried through rather than regenerated.
	Raw *SparseRow
}

// Expand regenerates this HyperGraph's SparseRow against CoreGraph g using
// the defining tour t and the clique/tooth banks — the operation that
// backs the testable property "a HyperGraph row's regenerated SparseRow
// equals its live LP row" (spec.md §8).
//
// Errors: ErrUnknownHandle if a referenced handle is stale; core errors if
// a needed edge is missing from g (e.g. after pricer elimination — callers
// must gen_edges before expanding a row that references a priced-out edge).
func (hg *HyperGraph) Expand(g *core.CoreGraph, t *tour.BestTour, cb *CliqueBank, tb *ToothBank) (*SparseRow, error) {
	switch hg.CutType {
	case Subtour:
		return hg.expandSubtour(g, cb)
	case Comb:
		return hg.expandComb(g, cb)
	case Domino:
		return hg.expandDomino(g, cb, tb)
	case GMI, Branch:
		if hg.Raw == nil {
			return nil, ErrRowMismatch
		}
		return hg.Raw, nil
	default:
		return nil, ErrRowMismatch
	}
}

func edgeSetWithinRow(g *core.CoreGraph, nodes []int) (*SparseRow, error) {
	in := make(map[int]bool, len(nodes))
	for _, v := range nodes {
		in[v] = true
	}
	var idxs []int
	var vals []float64
	for idx, e := range g.Edges() {
		if in[e.U] && in[e.V] {
			idxs = append(idxs, idx)
			vals = append(vals, 1)
		}
	}
	if len(idxs) == 0 {
		return nil, ErrEmptyRow
	}
	return &SparseRow{Indices: idxs, Values: vals, Sense: LE, RHS: float64(len(nodes) - 1)}, nil
}

func (hg *HyperGraph) expandSubtour(g *core.CoreGraph, cb *CliqueBank) (*SparseRow, error) {
	if len(hg.CliqueHandles) != 1 {
		return nil, ErrRowMismatch
	}
	c, err := cb.Get(hg.CliqueHandles[0])
	if err != nil {
		return nil, err
	}
	return edgeSetWithinRow(g, c.Nodes)
}

// expandComb builds the blossom inequality x(E(H)) + sum_i x(tooth_i) <=
// |H| + (k-1)/2 for odd handle H and k (odd, >=3) crossing tooth edges —
// the simplified practical form of the glossary's blossom inequality, with
// one crossing edge standing in for each tooth's tooth-edge set.
func (hg *HyperGraph) expandComb(g *core.CoreGraph, cb *CliqueBank) (*SparseRow, error) {
	if len(hg.CliqueHandles) != 1 {
		return nil, ErrRowMismatch
	}
	k := len(hg.ToothEdges)
	if k < 3 || k%2 == 0 {
		return nil, ErrRowMismatch
	}
	c, err := cb.Get(hg.CliqueHandles[0])
	if err != nil {
		return nil, err
	}
	row, err := edgeSetWithinRow(g, c.Nodes)
	if err != nil {
		return nil, err
	}
	for _, te := range hg.ToothEdges {
		idx, ok := g.Lookup(te[0], te[1])
		if !ok {
			return nil, ErrRowMismatch
		}
		row.Indices = append(row.Indices, idx)
		row.Values = append(row.Values, 1)
	}
	row.RHS = float64(len(c.Nodes)) + float64(k-1)/2.0
	return row, nil
}

// expandDomino aggregates the simple-tooth inequalities
// 2x(E(body_i)) + x(E(root_i:body_i)) <= 2|body_i|-1 for every referenced
// tooth plus the handle's degree contribution, then halves and floors the
// aggregated row — the coefficient-assembly rule of spec.md §4.3 step 6.
// Exactness is preserved because every aggregated coefficient is twice an
// integer when the teeth come from an odd Gomory-Hu cut.
func (hg *HyperGraph) expandDomino(g *core.CoreGraph, cb *CliqueBank, tb *ToothBank) (*SparseRow, error) {
	coef := make(map[int]float64)
	rhs := 0.0
	for _, h := range hg.ToothHandles {
		t, err := tb.Get(h)
		if err != nil {
			return nil, err
		}
		bodyRow, err := edgeSetWithinRow(g, t.Body)
		if err == nil {
			for i, idx := range bodyRow.Indices {
				coef[idx] += 2 * bodyRow.Values[i]
			}
		}
		for _, v := range t.Body {
			idx, ok := g.Lookup(t.Root, v)
			if ok {
				coef[idx] += 1
			}
		}
		rhs += 2*float64(len(t.Body)) - 1
	}
	c, err := cb.Get(hg.HandleClique)
	if err != nil {
		return nil, err
	}
	handleRow, err := edgeSetWithinRow(g, c.Nodes)
	if err == nil {
		for i, idx := range handleRow.Indices {
			coef[idx] += handleRow.Values[i]
		}
	}

	if len(coef) == 0 {
		return nil, ErrEmptyRow
	}
	idxs := make([]int, 0, len(coef))
	vals := make([]float64, 0, len(coef))
	for idx, v := range coef {
		idxs = append(idxs, idx)
		vals = append(vals, math.Floor(v/2.0))
	}
	return &SparseRow{Indices: idxs, Values: vals, Sense: LE, RHS: math.Floor(rhs / 2.0)}, nil
}
