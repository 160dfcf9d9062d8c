// Package tour provides BestTour and ActiveTour (spec.md §3) plus the tour
// utilities (cost, validation, canonicalization) shared by every component
// that reasons about Hamiltonian cycles over a core.CoreGraph.
package tour

import (
	"errors"
	"math"

	"github.com/abctsp/abctsp/core"
)

// Sentinel errors.
var (
	ErrWrongLength    = errors.New("tour: tour length does not match node count")
	ErrNotPermutation = errors.New("tour: tour is not a permutation of 0..n-1")
	ErrMissingEdge    = errors.New("tour: consecutive tour nodes have no CoreGraph edge")
)

// LengthEpsilon is the tolerance used throughout the solver for float
// comparisons against tour lengths and LP objective values — grounded on
// the teacher's symTol (tsp/cost.go, 1e-12).
const LengthEpsilon = 1e-12

// roundScale and Round1e9 reproduce the teacher's stable cost-rounding
// convention (tsp/cost.go): round to the nearest 1e-9 to keep repeated
// float summations comparable across platforms and runs.
const roundScale = 1e9

// Round1e9 rounds v to the nearest multiple of 1e-9.
func Round1e9(v float64) float64 {
	return math.Round(v*roundScale) / roundScale
}

// BestTour is the shortest tour found so far: the solver's current upper
// bound. Only ever replaced atomically on augmentation (spec.md §3).
type BestTour struct {
	Nodes  []int // cyclic permutation of 0..n-1
	Perm   []int // Perm[Nodes[i]] = i
	Length float64
	// EdgeIdx[i] is the CoreGraph edge index of the tour edge
	// (Nodes[i], Nodes[(i+1)%n]).
	EdgeIdx []int
}

// ActiveTour is the tour whose 0/1 edge vector is the LP's current basic
// feasible solution. Usually equal to BestTour but may be a branch tour
// during branching (spec.md §3). Basis is an opaque warm-start handle
// supplied and interpreted by lprelax; tour itself never inspects it,
// which avoids an import cycle between tour and lprelax.
type ActiveTour struct {
	BestTour
	Basis any
}

// Build validates nodes as a Hamiltonian cycle over g and constructs a
// BestTour, computing EdgeIdx and Length from g's edge lengths.
//
// Errors: ErrWrongLength, ErrNotPermutation, ErrMissingEdge.
func Build(g *core.CoreGraph, nodes []int) (*BestTour, error) {
	n := g.N()
	if len(nodes) != n {
		return nil, ErrWrongLength
	}
	perm := make([]int, n)
	seen := make([]bool, n)
	for i, v := range nodes {
		if v < 0 || v >= n || seen[v] {
			return nil, ErrNotPermutation
		}
		seen[v] = true
		perm[v] = i
	}

	edgeIdx := make([]int, n)
	length := 0.0
	for i := 0; i < n; i++ {
		u, v := nodes[i], nodes[(i+1)%n]
		idx, ok := g.Lookup(u, v)
		if !ok {
			return nil, ErrMissingEdge
		}
		edgeIdx[i] = idx
		e, err := g.Edge(idx)
		if err != nil {
			return nil, err
		}
		length += e.Length
	}

	return &BestTour{
		Nodes:   append([]int(nil), nodes...),
		Perm:    perm,
		Length:  Round1e9(length),
		EdgeIdx: edgeIdx,
	}, nil
}

// Cost computes the length of a node-permutation tour directly against g,
// without constructing a BestTour — used by heuristics that need to score
// many tour candidates cheaply.
//
// Errors: ErrWrongLength, ErrNotPermutation, ErrMissingEdge.
func Cost(g *core.CoreGraph, nodes []int) (float64, error) {
	bt, err := Build(g, nodes)
	if err != nil {
		return 0, err
	}
	return bt.Length, nil
}

// HasEdge reports whether the tour traverses the edge (u,v) consecutively.
func (bt *BestTour) HasEdge(u, v int) bool {
	n := len(bt.Nodes)
	iu := bt.Perm[u]
	return bt.Nodes[(iu+1)%n] == v || bt.Nodes[(iu-1+n)%n] == v
}

// Canonicalize rotates and, if reversed < nodes[1's neighbor comparison,
// reflects a tour so that node 0 is first and the tour proceeds toward its
// lower-indexed neighbor — a stable canonical form used to compare tours
// for equality (e.g. detecting that a branch tour equals BestTour) without
// caring about rotation/reflection symmetry.
func Canonicalize(nodes []int) []int {
	n := len(nodes)
	if n == 0 {
		return nil
	}
	zero := 0
	for i, v := range nodes {
		if v == 0 {
			zero = i
			break
		}
	}
	rotated := make([]int, n)
	for i := 0; i < n; i++ {
		rotated[i] = nodes[(zero+i)%n]
	}
	if n > 2 && rotated[1] > rotated[n-1] {
		reflected := make([]int, n)
		reflected[0] = rotated[0]
		for i := 1; i < n; i++ {
			reflected[i] = rotated[n-i]
		}
		return reflected
	}
	return rotated
}

// Equal reports whether two tours describe the same cyclic sequence of
// nodes up to rotation and reflection.
func Equal(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	ca, cb := Canonicalize(a), Canonicalize(b)
	for i := range ca {
		if ca[i] != cb[i] {
			return false
		}
	}
	return true
}
