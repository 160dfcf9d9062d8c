package lprelax

import (
	"math"

	"github.com/abctsp/abctsp/cutrepr"
	"github.com/abctsp/abctsp/matrix"
	"github.com/abctsp/abctsp/matrix/ops"
)

// RowDuals solves B^T y = c_B for the simplex multipliers of every
// constraint row, reusing factorBasis's incidence-matrix construction but
// transposed (duality: y^T = c_B^T B^{-1} iff B^T y = c_B). Satisfies
// pricer.DualSource structurally — lprelax never imports pricer, avoiding a
// cycle, the same pattern separator uses for cutpool/lprelax.
func (lp *CoreLP) RowDuals() []float64 {
	m := len(lp.basisCol)
	bt, err := matrix.NewDense(m, m)
	if err != nil {
		return make([]float64, m)
	}
	cB := make([]float64, m)
	for row, col := range lp.basisCol {
		cB[row] = lp.cost[col]
		for r := 0; r < m; r++ {
			v := 0.0
			if col < lp.g.EdgeCount() {
				e, _ := lp.g.Edge(col)
				if e.U == lp.rowNode(r) || e.V == lp.rowNode(r) {
					v = 1
				}
			}
			// Transpose: (r,row) of B becomes (row,r) of B^T.
			_ = bt.Set(row, r, v)
		}
	}
	lu, err := ops.LU(bt)
	if err != nil {
		return make([]float64, m)
	}
	y, err := lu.Solve(cB)
	if err != nil {
		return make([]float64, m)
	}
	return y
}

// TourPermutation returns the active tour's node order, position-indexed —
// the locality ordering pricer.GenEdges scans implicit edges in.
func (lp *CoreLP) TourPermutation() []int {
	out := make([]int, len(lp.activeTour.Nodes))
	copy(out, lp.activeTour.Nodes)
	return out
}

// TourLength returns the active tour's length.
func (lp *CoreLP) TourLength() float64 { return lp.activeTour.Length }

// FracColumn describes one edge column currently basic at a fractional
// value (spec.md §4.8: "collect basic fractional variables").
type FracColumn struct {
	Col   int
	Row   int
	Value float64
}

// FractionalColumns returns every CoreGraph edge column basic at a
// fractional value, in row order.
func (lp *CoreLP) FractionalColumns() []FracColumn {
	n := lp.g.EdgeCount()
	var out []FracColumn
	for row, col := range lp.basisCol {
		if col >= n {
			continue
		}
		v := lp.colValue[col]
		f := v - math.Floor(v)
		if f < lp.eps || f > 1-lp.eps {
			continue
		}
		out = append(out, FracColumn{Col: col, Row: row, Value: v})
	}
	return out
}

// ReducedCost returns column col's current reduced cost (the objective
// row's entry at col under the canonical basis).
func (lp *CoreLP) ReducedCost(col int) float64 { return lp.tableau[0][col] }

// ColumnBounds returns column col's current (lower, upper) bounds.
func (lp *CoreLP) ColumnBounds(col int) (float64, float64) {
	return lp.colLower[col], lp.colUpper[col]
}

// SetColumnBounds installs new (lower, upper) bounds on col — the clamp
// primitive strong branching uses to force an edge Up (1,1) or Down (0,0)
// — and returns the previous bounds so the caller can restore them.
func (lp *CoreLP) SetColumnBounds(col int, lower, upper float64) (prevLower, prevUpper float64) {
	prevLower, prevUpper = lp.colLower[col], lp.colUpper[col]
	lp.colLower[col], lp.colUpper[col] = lower, upper
	return
}

// PivotLimited performs up to maxIters primal pivots, stopping early once
// the LP reaches a non-fractional classification — the "bounded iteration
// limit on primal simplex" spec.md §4.8 strong branching uses to estimate
// a clamped child's objective without solving it to full optimality.
func (lp *CoreLP) PivotLimited(maxIters int) (PivType, error) {
	piv := Frac
	var err error
	for i := 0; i < maxIters; i++ {
		piv, err = lp.PrimalPivot()
		if err != nil {
			return piv, err
		}
		if piv != Frac {
			return piv, nil
		}
	}
	return piv, nil
}

// SetUpperBound records the best known complete-tour length, used by
// Eliminate's edge-elimination bound. Unset defaults to +Inf (no
// elimination possible yet).
func (lp *CoreLP) SetUpperBound(v float64) { lp.upperBound = v }

// UpperBound returns the best known complete-tour length recorded via
// SetUpperBound, or +Inf if none has been set.
func (lp *CoreLP) UpperBound() float64 {
	if lp.upperBound == 0 {
		return math.Inf(1)
	}
	return lp.upperBound
}

// FractionalBasicRows builds a safe Gomory fractional (GMI) cut from every
// basic row whose value is fractional (spec.md §4.3 step 9, Gomory's mixed
// integer cut specialized to the all-integer TSP polytope): for row i with
// fractional basic value f0, the cut sum_j f_j*x_j >= f0 over nonbasic
// columns at their lower bound (coefficient frac(a_ij)) or upper bound
// (coefficient -(1-frac(a_ij))) is valid and violated by the current
// fractional solution while remaining tight-or-slack at any integral tour.
// Satisfies separator.GMISource structurally.
func (lp *CoreLP) FractionalBasicRows() ([]*cutrepr.SparseRow, error) {
	var out []*cutrepr.SparseRow
	n := lp.g.EdgeCount()
	for i, basic := range lp.basisCol {
		if basic >= n {
			continue // skip slack-basic rows; GMI only reasons over edge columns
		}
		v := lp.colValue[basic]
		f0 := v - math.Floor(v)
		if f0 < lp.eps || f0 > 1-lp.eps {
			continue
		}
		row := lp.tableau[i+1]
		var idx []int
		var vals []float64
		for j := 0; j < n; j++ {
			if j == basic || lp.colStatus[j] == Basic {
				continue
			}
			a := row[j]
			fj := a - math.Floor(a)
			var coef float64
			if lp.colStatus[j] == AtLower {
				coef = fj
			} else {
				coef = -(1 - fj)
			}
			if math.Abs(coef) < lp.eps {
				continue
			}
			idx = append(idx, j)
			vals = append(vals, coef)
		}
		if len(idx) == 0 {
			continue
		}
		r, err := cutrepr.NewSparseRow(idx, vals, cutrepr.GE, f0)
		if err != nil {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}
