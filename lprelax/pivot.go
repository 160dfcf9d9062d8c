package lprelax

import (
	"math"

	"github.com/abctsp/abctsp/support"
)

// PrimalPivot performs one primal simplex iteration (spec.md §4.1
// primal_pivot): select an entering nonbasic column by Dantzig's rule
// among both at-lower and at-upper candidates, ratio-test against both the
// entering column's own bound range and every basic row, and either flip
// the entering column's bound (degenerate, no basis change) or perform a
// Gauss-Jordan pivot trading it into the basis.
//
// Returns the PivType classification of the resulting x-vector: Frac if
// fractional, SubtourPiv if integral-but-disconnected, TourPiv if an
// integral Hamiltonian cycle (not compared with the active tour), and
// FathomedTourPiv if optimal (no improving entering column exists) and
// the LP value already equals the active tour's — the classic "fathom the
// pure-cutting branch" terminal state of spec.md §4.4.
func (lp *CoreLP) PrimalPivot() (PivType, error) {
	enterCol, enterDir, ok := lp.chooseEntering()
	if !ok {
		return lp.classifyOptimal(), nil
	}

	step, blockingRow, hitsOwnBound := lp.ratioTest(enterCol, enterDir)
	if math.IsInf(step, 1) {
		return Frac, ErrUnbounded
	}

	lp.applyStep(enterCol, enterDir, step, blockingRow, hitsOwnBound)
	return lp.classify(), nil
}

// chooseEntering applies Dantzig's rule: the nonbasic-at-lower column with
// the most negative reduced cost, or the nonbasic-at-upper column with the
// most positive reduced cost, whichever improves the objective more. Returns
// ok=false if the current basis is already dual feasible (optimal).
func (lp *CoreLP) chooseEntering() (col int, dir float64, ok bool) {
	best := -lp.eps
	bestCol := -1
	bestDir := 1.0
	obj := lp.tableau[0]
	for j := 0; j < lp.numCols; j++ {
		switch lp.colStatus[j] {
		case AtLower:
			if obj[j] < best {
				best = obj[j]
				bestCol = j
				bestDir = 1
			}
		case AtUpper:
			if -obj[j] < best {
				best = -obj[j]
				bestCol = j
				bestDir = -1
			}
		}
	}
	if bestCol < 0 {
		return 0, 0, false
	}
	return bestCol, bestDir, true
}

// ratioTest computes the maximum feasible step for the entering column in
// direction dir (+1 increasing from its lower bound, -1 decreasing from its
// upper bound), returning the step length, the blocking constraint row (-1
// if the entering column's own bound range is binding), and whether its own
// bound was the binding constraint.
func (lp *CoreLP) ratioTest(enterCol int, dir float64) (step float64, blockingRow int, ownBound bool) {
	step = lp.colUpper[enterCol] - lp.colLower[enterCol]
	blockingRow = -1
	ownBound = true

	for row := range lp.basisCol {
		basic := lp.basisCol[row]
		a := dir * lp.tableau[row+1][enterCol]
		if a > lp.eps {
			// x_basic decreases as entering increases; bounded by its lower bound.
			s := (lp.colValue[basic] - lp.colLower[basic]) / a
			if s < step {
				step, blockingRow, ownBound = s, row, false
			}
		} else if a < -lp.eps {
			// x_basic increases; bounded by its upper bound.
			s := (lp.colUpper[basic] - lp.colValue[basic]) / (-a)
			if s < step {
				step, blockingRow, ownBound = s, row, false
			}
		}
	}
	if step < 0 {
		step = 0
	}
	return step, blockingRow, ownBound
}

// applyStep updates every basic variable's value by the pivot step, moves
// the entering column, and — unless the step was a pure bound flip —
// performs the Gauss-Jordan pivot trading the blocking row's basic column
// out in favor of enterCol.
func (lp *CoreLP) applyStep(enterCol int, dir, step float64, blockingRow int, ownBound bool) {
	delta := dir * step
	for row := range lp.basisCol {
		basic := lp.basisCol[row]
		a := lp.tableau[row+1][enterCol]
		lp.colValue[basic] -= a * delta
	}

	if ownBound {
		if dir > 0 {
			lp.colValue[enterCol] = lp.colLower[enterCol] + step
			lp.colStatus[enterCol] = AtUpper
		} else {
			lp.colValue[enterCol] = lp.colUpper[enterCol] - step
			lp.colStatus[enterCol] = AtLower
		}
		return
	}

	leaving := lp.basisCol[blockingRow]
	lp.colValue[enterCol] = lp.colLower[enterCol] + delta
	if dir < 0 {
		lp.colValue[enterCol] = lp.colUpper[enterCol] + delta
	}

	a := lp.tableau[blockingRow+1][enterCol]
	if a > 0 {
		lp.colStatus[leaving] = AtLower
		lp.colValue[leaving] = lp.colLower[leaving]
	} else {
		lp.colStatus[leaving] = AtUpper
		lp.colValue[leaving] = lp.colUpper[leaving]
	}
	lp.basisRow[leaving] = -1

	lp.colStatus[enterCol] = Basic
	lp.basisCol[blockingRow] = enterCol
	lp.basisRow[enterCol] = blockingRow
	lp.pivotRow(blockingRow+1, enterCol, lp.tableau[blockingRow+1][enterCol])
}

// xVector builds the current full edge-weight assignment x_e for every
// CoreGraph column, in CoreGraph edge-index order.
func (lp *CoreLP) xVector() []float64 {
	out := make([]float64, lp.g.EdgeCount())
	copy(out, lp.colValue[:lp.g.EdgeCount()])
	return out
}

// classify builds a support.Graph over the current LP solution and maps it
// to a PivType per spec.md §4.1: fractional, integral-disconnected
// (subtour), or an integral Hamiltonian cycle (tour).
func (lp *CoreLP) classify() PivType {
	sg := support.Build(lp.g, lp.xVector(), lp.eps)
	if !sg.Integral {
		return Frac
	}
	if !sg.Connected {
		return SubtourPiv
	}
	return TourPiv
}

// classifyOptimal is called when no improving entering column exists: the
// basis is dual feasible. If the resulting x is also the active tour and
// integral, the pure-cutting branch is fathomed.
func (lp *CoreLP) classifyOptimal() PivType {
	piv := lp.classify()
	if piv != TourPiv {
		return piv
	}
	if lp.objectiveValue() >= lp.activeTour.Length-lp.eps {
		return FathomedTourPiv
	}
	return piv
}

// objectiveValue computes the current LP objective directly from the
// never-pivoted cost vector and the live column values, sidestepping the
// bound-flip bookkeeping that a pivoted tableau's RHS column would need for
// nonbasic-at-upper columns.
func (lp *CoreLP) objectiveValue() float64 {
	z := 0.0
	for j := 0; j < lp.numCols; j++ {
		z += lp.cost[j] * lp.colValue[j]
	}
	return z
}
