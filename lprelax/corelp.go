// Package lprelax provides CoreLP: a dense bounded-variable primal simplex
// over the subtour-polytope relaxation, with pivoting, row/column mutation,
// and tour-basis warm starts (spec.md §4.1).
//
// Design note (DESIGN.md): this package plays the role spec.md §1 calls
// "the underlying LP solver, treated as an opaque simplex-with-warm-start
// black box" — since no example repo or pack library supplies an
// incremental-pivot LP primitive, CoreLP implements one directly as a dense
// Gauss-Jordan tableau simplex (grounded stylistically on the teacher's
// dense preallocated-buffer engine-struct idiom from tsp/bb.go), rather than
// a revised simplex with product-form basis updates. One of the n degree
// equations is dropped as linearly redundant (sum of all degree equations
// double-counts every edge), following the standard LP-relaxation technique
// for the subtour polytope; matrix/ops.LU backs factorBasis, the warm-start
// primitive that recovers the current basis inverse on demand.
package lprelax

import (
	"errors"
	"math"

	"github.com/abctsp/abctsp/core"
	"github.com/abctsp/abctsp/cutrepr"
	"github.com/abctsp/abctsp/matrix"
	"github.com/abctsp/abctsp/matrix/ops"
	"github.com/abctsp/abctsp/tour"
)

// Sentinel errors.
var (
	ErrNotHamiltonian   = errors.New("lprelax: active tour is not a Hamiltonian cycle in CoreGraph")
	ErrSolverInfeasible = errors.New("lprelax: LP became infeasible")
	ErrUnbounded        = errors.New("lprelax: LP is unbounded")
	ErrBadRowColumn     = errors.New("lprelax: illegal row or column index")
)

// PivType classifies the outcome of one primal_pivot() call.
type PivType int

const (
	Frac PivType = iota
	SubtourPiv
	TourPiv
	FathomedTourPiv
)

const boundInf = 1e18

// colStatus is a column's basic-or-at-bound state (spec.md §6's per-column
// status codes {AtLower, Basic, AtUpper}).
type colStatus int

const (
	AtLower colStatus = iota
	Basic
	AtUpper
)

// rowMeta is the LP row metadata of spec.md §3: age and a HyperGraph
// back-reference (nil for degree-equation rows).
type rowMeta struct {
	age      int
	cut      *cutrepr.HyperGraph
	cutType  cutrepr.CutType
	exempt   bool // subtour/branch rows are exempt from aging
	slackCol int  // this row's slack/artificial column, or -1 (degree rows)
}

// CoreLP owns the LP relaxation.
type CoreLP struct {
	g *core.CoreGraph

	// tableau[0] is the objective (reduced-cost) row; tableau[1+i] is
	// constraint row i. Each row has numCols+1 entries, the last being the
	// current RHS/basic value.
	tableau [][]float64
	numCols int // len(colLower) == len(colUpper) == numCols

	colLower, colUpper []float64
	colStatus          []colStatus
	colValue           []float64
	cost               []float64 // original (never-pivoted) objective coefficients
	basisCol           []int     // basisCol[row] = column basic in that row, or -1
	basisRow           []int     // basisRow[col] = row where column is basic, or -1

	rows []rowMeta

	activeTour *tour.ActiveTour
	cutPoolCap int
	upperBound float64

	eps float64
}

// Config configures CoreLP construction.
type Config struct {
	Eps float64
}

// DefaultConfig returns the conventional tolerance.
func DefaultConfig() Config { return Config{Eps: 1e-9} }

// New builds a CoreLP over g with degree equations for every node and an
// initial active tour. The tour must be a Hamiltonian cycle in g.
//
// Errors: ErrNotHamiltonian (propagated from tour.Build's own validation
// when constructing the initial basis).
func New(g *core.CoreGraph, initialTour []int, cfg Config) (*CoreLP, error) {
	bt, err := tour.Build(g, initialTour)
	if err != nil {
		return nil, err
	}
	lp := &CoreLP{
		g:          g,
		numCols:    g.EdgeCount(),
		eps:        cfg.Eps,
		activeTour: &tour.ActiveTour{BestTour: *bt},
	}
	lp.colLower = make([]float64, lp.numCols)
	lp.colUpper = make([]float64, lp.numCols)
	for i := range lp.colUpper {
		lp.colUpper[i] = 1
	}
	lp.colStatus = make([]colStatus, lp.numCols)
	lp.colValue = make([]float64, lp.numCols)

	lp.buildDegreeRows(bt)
	if err := lp.installTourBasis(bt); err != nil {
		return nil, err
	}
	return lp, nil
}

// buildDegreeRows constructs the n-1 independent degree-equation rows
// (dropping the equation for tour position n-1, the redundant one).
func (lp *CoreLP) buildDegreeRows(bt *tour.BestTour) {
	n := len(bt.Nodes)
	lp.tableau = make([][]float64, 1, n) // objective row first
	obj := make([]float64, lp.numCols+1)
	for idx, e := range lp.g.Edges() {
		obj[idx] = e.Length
	}
	lp.tableau[0] = obj
	lp.cost = make([]float64, lp.numCols)
	copy(lp.cost, obj[:lp.numCols])

	for pos := 0; pos < n-1; pos++ {
		v := bt.Nodes[pos]
		row := make([]float64, lp.numCols+1)
		nbrs, _ := lp.g.Neighbors(v)
		for _, eIdx := range nbrs {
			row[eIdx] = 1
		}
		row[lp.numCols] = 2 // RHS
		lp.tableau = append(lp.tableau, row)
		lp.rows = append(lp.rows, rowMeta{exempt: true, slackCol: -1})
	}
	lp.basisCol = make([]int, len(lp.tableau)-1)
	lp.basisRow = make([]int, lp.numCols)
	for i := range lp.basisRow {
		lp.basisRow[i] = -1
	}
}

// installTourBasis assigns the forward tour edge at each kept tour
// position as that row's basic column (value 1), leaving the single
// dropped-row tour edge nonbasic at its upper bound, and every non-tour
// edge nonbasic at its lower bound (spec.md §4.1 add_edges: "tour edges
// basic, others at lower bound").
func (lp *CoreLP) installTourBasis(bt *tour.BestTour) error {
	n := len(bt.Nodes)
	for idx := range lp.colStatus {
		lp.colStatus[idx] = AtLower
		lp.colValue[idx] = 0
	}
	for pos := 0; pos < n-1; pos++ {
		eIdx := bt.EdgeIdx[pos]
		lp.colStatus[eIdx] = Basic
		lp.colValue[eIdx] = 1
		lp.basisCol[pos] = eIdx
		lp.basisRow[eIdx] = pos
	}
	lastEdge := bt.EdgeIdx[n-1]
	lp.colStatus[lastEdge] = AtUpper
	lp.colValue[lastEdge] = 1

	if err := lp.canonicalizeTableau(); err != nil {
		return err
	}
	return nil
}

// canonicalizeTableau performs Gauss-Jordan elimination so each basic
// column is a unit vector in its row, and recomputes the objective row's
// reduced costs against the current basis.
func (lp *CoreLP) canonicalizeTableau() error {
	for row, col := range lp.basisCol {
		tRow := row + 1
		pivot := lp.tableau[tRow][col]
		if math.Abs(pivot) < 1e-12 {
			return ErrBadRowColumn
		}
		lp.pivotRow(tRow, col, pivot)
	}
	return nil
}

// pivotRow performs Gauss-Jordan elimination of column col using tRow as
// the pivot row (already containing a nonzero at col), normalizing the
// pivot row and clearing col in every other row including the objective.
func (lp *CoreLP) pivotRow(tRow, col int, pivot float64) {
	row := lp.tableau[tRow]
	for j := range row {
		row[j] /= pivot
	}
	for i, other := range lp.tableau {
		if i == tRow {
			continue
		}
		factor := other[col]
		if factor == 0 {
			continue
		}
		for j := range other {
			other[j] -= factor * row[j]
		}
	}
}

// factorBasis rebuilds the basis matrix and LU-factors it directly from
// the current basisCol assignment — the warm-start primitive of spec.md
// §4.1's copy_base/factor_basis, grounded on matrix/ops.LU.
func (lp *CoreLP) factorBasis() (*ops.LUResult, error) {
	m := len(lp.basisCol)
	a, err := matrix.NewDense(m, m)
	if err != nil {
		return nil, err
	}
	// Reconstruct the original (pre-elimination) column values for each
	// basic variable by reading them back from CoreGraph's incidence
	// structure rather than the (already-pivoted) tableau.
	for row, col := range lp.basisCol {
		for r := 0; r < m; r++ {
			v := 0.0
			if col < lp.g.EdgeCount() {
				e, _ := lp.g.Edge(col)
				if e.U == lp.rowNode(r) || e.V == lp.rowNode(r) {
					v = 1
				}
			}
			if err := a.Set(r, row, v); err != nil {
				return nil, err
			}
		}
	}
	return ops.LU(a)
}

func (lp *CoreLP) rowNode(row int) int {
	if row < 0 || row >= len(lp.activeTour.Nodes)-1 {
		return -1
	}
	return lp.activeTour.Nodes[row]
}
