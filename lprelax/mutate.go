package lprelax

import (
	"github.com/abctsp/abctsp/cutrepr"
	"github.com/abctsp/abctsp/tour"
)

// AddCuts appends each row as a new LP constraint with a fresh slack (or,
// for equality rows, a fixed-at-zero artificial) column, eliminates the new
// row's existing-basic-column entries against the current canonical basis,
// and installs the slack as that row's basic variable — spec.md §4.1's
// add_cuts. Returns the new rows' indices (0-based, into the constraint
// rows — i.e. excluding the objective row).
//
// Errors: cutrepr.ErrDimensionMismatch if a row references a column beyond
// the current edge set.
func (lp *CoreLP) AddCuts(rows []*cutrepr.SparseRow, cutType cutrepr.CutType, hg []*cutrepr.HyperGraph) ([]int, error) {
	if len(rows) == 0 {
		return nil, nil
	}
	oldWidth := lp.numCols + 1
	newWidth := oldWidth + len(rows)
	for i, row := range lp.tableau {
		grown := make([]float64, newWidth)
		copy(grown, row[:oldWidth-1])
		grown[newWidth-1] = row[oldWidth-1]
		lp.tableau[i] = grown
	}
	slackStart := lp.numCols

	indices := make([]int, 0, len(rows))
	slackUppers := make([]float64, len(rows))
	for k, r := range rows {
		slackCol := slackStart + k
		raw := make([]float64, newWidth)
		for i, idx := range r.Indices {
			if idx < 0 || idx >= lp.numCols {
				return nil, cutrepr.ErrDimensionMismatch
			}
			raw[idx] = r.Values[i]
		}
		raw[newWidth-1] = r.RHS

		var slackCoef, slackUpper float64
		switch r.Sense {
		case cutrepr.LE:
			slackCoef, slackUpper = 1, boundInf
		case cutrepr.GE:
			slackCoef, slackUpper = -1, boundInf
		default:
			slackCoef, slackUpper = 1, 0
		}
		raw[slackCol] = slackCoef
		slackUppers[k] = slackUpper

		lp.eliminateAgainstBasis(raw)

		rowIdx := len(lp.tableau) - 1 // before appending, count of existing constraint rows
		lp.tableau = append(lp.tableau, raw)
		lp.basisCol = append(lp.basisCol, slackCol)
		lp.rows = append(lp.rows, rowMeta{cut: safeHG(hg, k), cutType: cutType, exempt: cutType == cutrepr.Subtour || cutType == cutrepr.Branch, slackCol: slackCol})

		pivot := raw[slackCol]
		lp.pivotRow(rowIdx+1, slackCol, pivot)
		indices = append(indices, rowIdx)
	}

	lp.extendColumnsForSlacks(len(rows), slackStart)
	for k := range rows {
		slackCol := slackStart + k
		rowIdx := indices[k]
		lp.colUpper[slackCol] = slackUppers[k]
		activity := rows[k].Activity(lp.xVector())
		switch rows[k].Sense {
		case cutrepr.LE:
			lp.colValue[slackCol] = rows[k].RHS - activity
		case cutrepr.GE:
			lp.colValue[slackCol] = activity - rows[k].RHS
		default:
			lp.colValue[slackCol] = 0
		}
		lp.basisRow[slackCol] = rowIdx
	}
	lp.numCols = newWidth - 1
	return indices, nil
}

func safeHG(hg []*cutrepr.HyperGraph, k int) *cutrepr.HyperGraph {
	if k < len(hg) {
		return hg[k]
	}
	return nil
}

// extendColumnsForSlacks grows every per-column bookkeeping slice to cover
// the newly appended slack columns.
func (lp *CoreLP) extendColumnsForSlacks(count, slackStart int) {
	for k := 0; k < count; k++ {
		lp.colLower = append(lp.colLower, 0)
		lp.colUpper = append(lp.colUpper, boundInf)
		lp.colStatus = append(lp.colStatus, Basic)
		lp.colValue = append(lp.colValue, 0)
		lp.cost = append(lp.cost, 0)
		lp.basisRow = append(lp.basisRow, -1)
	}
}

// eliminateAgainstBasis subtracts, for every existing basic column
// referenced by row, that column's canonical row scaled to zero it out —
// restoring reduced row-echelon form before row is adopted as a new
// tableau row.
func (lp *CoreLP) eliminateAgainstBasis(row []float64) {
	for i, col := range lp.basisCol {
		coef := row[col]
		if coef == 0 {
			continue
		}
		pr := lp.tableau[i+1]
		for j := range row {
			row[j] -= coef * pr[j]
		}
	}
}

// AddEdges installs new CoreGraph edge columns (already appended to g by
// the caller — the pricer, per spec.md §4.6) as LP columns at their lower
// bound, computing each new column's canonical-basis representation via
// factorBasis/LU rather than replaying pivot history (spec.md §4.1
// add_edges). New edges are assumed absent from every existing cut row's
// support, which holds because cuts are only ever built from edges present
// in CoreGraph at separation time.
func (lp *CoreLP) AddEdges(edgeIdxs []int) error {
	if len(edgeIdxs) == 0 {
		return nil
	}
	lu, err := lp.factorBasis()
	if err != nil {
		return err
	}
	m := len(lp.basisCol)

	oldWidth := len(lp.tableau[0])
	newWidth := oldWidth + len(edgeIdxs)
	for i, row := range lp.tableau {
		grown := make([]float64, newWidth)
		copy(grown, row[:oldWidth-1])
		grown[newWidth-1] = row[oldWidth-1]
		lp.tableau[i] = grown
	}

	for k, eIdx := range edgeIdxs {
		newCol := oldWidth - 1 + k
		e, err := lp.g.Edge(eIdx)
		if err != nil {
			return err
		}
		rawCol := make([]float64, m)
		for r := 0; r < m; r++ {
			v := lp.rowNode(r)
			if v == e.U || v == e.V {
				rawCol[r] = 1
			}
		}
		z, err := lu.Solve(rawCol)
		if err != nil {
			return err
		}
		cost := e.Length
		reduced := cost
		for r, col := range lp.basisCol {
			lp.tableau[r+1][newCol] = z[r]
			reduced -= lp.cost[col] * z[r]
		}
		lp.tableau[0][newCol] = reduced

		lp.colLower = append(lp.colLower, 0)
		lp.colUpper = append(lp.colUpper, 1)
		lp.colStatus = append(lp.colStatus, AtLower)
		lp.colValue = append(lp.colValue, 0)
		lp.cost = append(lp.cost, cost)
		lp.basisRow = append(lp.basisRow, -1)
	}
	lp.numCols = newWidth - 1
	return nil
}

// SetActiveTour installs nodes as the new defining tour (validated as a
// Hamiltonian cycle in g) without rebuilding the LP: it only replaces the
// ActiveTour record lprelax hands back to tour.ActiveTour consumers.
// Rebuilding the basis itself around the new tour is pivot_back's job.
//
// Errors: propagated from tour.Build.
func (lp *CoreLP) SetActiveTour(nodes []int) error {
	bt, err := tour.Build(lp.g, nodes)
	if err != nil {
		return err
	}
	lp.activeTour = &tour.ActiveTour{BestTour: *bt, Basis: lp.CopyBase()}
	return nil
}

// PivotBack resets every column whose bound was relaxed for branching or
// exploration back to its pruned bound, re-solving to primal feasibility by
// pivoting away any resulting violations. pruneSlack bounds how far a
// column's value may sit inside its bound before it is forced back exactly
// (spec.md §4.1 pivot_back).
func (lp *CoreLP) PivotBack(pruneSlack float64) error {
	for j := 0; j < lp.numCols; j++ {
		switch lp.colStatus[j] {
		case AtLower:
			if lp.colValue[j] > lp.colLower[j]+pruneSlack {
				lp.colValue[j] = lp.colLower[j]
			}
		case AtUpper:
			if lp.colValue[j] < lp.colUpper[j]-pruneSlack {
				lp.colValue[j] = lp.colUpper[j]
			}
		}
	}
	for iter := 0; iter < maxPivotIterations; iter++ {
		piv, err := lp.PrimalPivot()
		if err != nil {
			return err
		}
		if piv == TourPiv || piv == FathomedTourPiv || piv == SubtourPiv {
			return nil
		}
	}
	return nil
}

const maxPivotIterations = 10000

// CopyBase snapshots the current basis assignment (basisCol, per-column
// status and bounds) as an opaque handle for tour.ActiveTour.Basis —
// spec.md §4.1 copy_base.
func (lp *CoreLP) CopyBase() any {
	return &BasisSnapshot{
		BasisCol:  append([]int(nil), lp.basisCol...),
		ColStatus: append([]colStatus(nil), lp.colStatus...),
		ColValue:  append([]float64(nil), lp.colValue...),
	}
}

// BasisSnapshot is the concrete type behind tour.ActiveTour.Basis handles
// produced by CopyBase.
type BasisSnapshot struct {
	BasisCol  []int
	ColStatus []colStatus
	ColValue  []float64
}

// CopyStart restores a previously captured BasisSnapshot, re-canonicalizing
// the tableau around it — spec.md §4.1 copy_start, the complement of
// CopyBase used to roll back a branch exploration.
//
// Errors: ErrBadRowColumn if snap's dimensions no longer match (e.g. the
// basis was taken before a since-reverted AddEdges/AddCuts).
func (lp *CoreLP) CopyStart(snap *BasisSnapshot) error {
	if len(snap.BasisCol) != len(lp.basisCol) || len(snap.ColStatus) != lp.numCols {
		return ErrBadRowColumn
	}
	copy(lp.basisCol, snap.BasisCol)
	copy(lp.colStatus, snap.ColStatus)
	copy(lp.colValue, snap.ColValue)
	for col := range lp.basisRow {
		lp.basisRow[col] = -1
	}
	for row, col := range lp.basisCol {
		lp.basisRow[col] = row
	}
	return lp.canonicalizeTableau()
}

// PurgeGMI deletes GMI-tagged rows from the LP — spec.md §4.1 purge_gmi:
// every GMI row when force is true, otherwise only the GMI rows whose age
// is above zero. Returns the number of rows removed. The surviving rows are
// kept as they stand via rebuildRows; nothing is re-eliminated.
func (lp *CoreLP) PurgeGMI(force bool) int {
	purged := 0
	keepRows := make([]int, 0, len(lp.rows))
	for i, rm := range lp.rows {
		if rm.cutType == cutrepr.GMI && (force || rm.age > 0) {
			purged++
			continue
		}
		keepRows = append(keepRows, i)
	}
	if purged == 0 {
		return 0
	}
	lp.rebuildRows(keepRows)
	return purged
}

// rebuildRows reconstructs the tableau keeping only the constraint rows
// listed in keepRows (in order). No column is removed: a column that was
// basic in a dropped row becomes nonbasic at its lower bound.
func (lp *CoreLP) rebuildRows(keepRows []int) {
	newTableau := make([][]float64, 0, len(keepRows)+1)
	newTableau = append(newTableau, lp.tableau[0])
	newBasisCol := make([]int, 0, len(keepRows))
	newRows := make([]rowMeta, 0, len(keepRows))
	for _, r := range keepRows {
		newTableau = append(newTableau, lp.tableau[r+1])
		newBasisCol = append(newBasisCol, lp.basisCol[r])
		newRows = append(newRows, lp.rows[r])
	}
	lp.tableau = newTableau
	lp.basisCol = newBasisCol
	lp.rows = newRows
	for col := range lp.basisRow {
		lp.basisRow[col] = -1
	}
	for row, col := range lp.basisCol {
		lp.basisRow[col] = row
	}
	for col, status := range lp.colStatus {
		if status == Basic && lp.basisRow[col] == -1 {
			lp.colStatus[col] = AtLower
			lp.colValue[col] = lp.colLower[col]
		}
	}
}

// DefaultCutAgeMax is the teacher-adjacent default staleness threshold
// (spec.md §4.5): rows idle this many consecutive pivots become eviction
// candidates.
const DefaultCutAgeMax = 100

// EvictedRow is a constraint row removed from the LP by EvictAged, carrying
// enough information for the caller to archive it in a cutpool.CutPool.
type EvictedRow struct {
	HyperGraph *cutrepr.HyperGraph
	CutType    cutrepr.CutType
}

// EvictAged removes every non-exempt row whose age has reached ageMax
// (spec.md §4.5: "Rows with age >= cut_age_max are candidates for
// deletion... the HyperGraph descriptor is moved into the CutPool"),
// returning their descriptors for the caller to hand to cutpool.CutPool.Add.
func (lp *CoreLP) EvictAged(ageMax int) []EvictedRow {
	var evicted []EvictedRow
	keepRows := make([]int, 0, len(lp.rows))
	for i, rm := range lp.rows {
		if !rm.exempt && rm.age >= ageMax {
			evicted = append(evicted, EvictedRow{HyperGraph: rm.cut, CutType: rm.cutType})
			continue
		}
		keepRows = append(keepRows, i)
	}
	if len(evicted) == 0 {
		return nil
	}
	lp.rebuildRows(keepRows)
	return evicted
}

// RemoveRow deletes a single constraint row by index (spec.md §4.8:
// "unclamp on the way back" — the complement of the Branch row AddCuts
// installs when a branch node is visited).
//
// Errors: ErrBadRowColumn if rowIdx is out of range.
func (lp *CoreLP) RemoveRow(rowIdx int) error {
	if rowIdx < 0 || rowIdx >= len(lp.rows) {
		return ErrBadRowColumn
	}
	keepRows := make([]int, 0, len(lp.rows)-1)
	for i := range lp.rows {
		if i != rowIdx {
			keepRows = append(keepRows, i)
		}
	}
	lp.rebuildRows(keepRows)
	return nil
}

// AgeRows increments the age of every non-exempt constraint row (everything
// but the degree equations and Subtour/Branch rows) — the bookkeeping cutpool reads to decide
// which rows have gone stale enough to evict (spec.md §4.5).
func (lp *CoreLP) AgeRows() {
	for i := range lp.rows {
		if !lp.rows[i].exempt {
			lp.rows[i].age++
		}
	}
}

// RowHyperGraph returns the HyperGraph backing constraint row i, if any,
// and its CutType.
//
// Errors: ErrBadRowColumn if i is out of range.
func (lp *CoreLP) RowHyperGraph(i int) (*cutrepr.HyperGraph, cutrepr.CutType, error) {
	if i < 0 || i >= len(lp.rows) {
		return nil, 0, ErrBadRowColumn
	}
	return lp.rows[i].cut, lp.rows[i].cutType, nil
}

// NumRows reports the number of constraint rows (degree equations plus
// cuts), excluding the objective row.
func (lp *CoreLP) NumRows() int { return len(lp.rows) }

// NumCols reports the number of LP columns, including slack/artificial
// columns for added cuts.
func (lp *CoreLP) NumCols() int { return lp.numCols }

// X returns the current LP solution restricted to CoreGraph edge columns,
// in CoreGraph edge-index order.
func (lp *CoreLP) X() []float64 { return lp.xVector() }

// ActiveTour returns the tour currently defining the LP's warm-start basis.
func (lp *CoreLP) ActiveTour() *tour.ActiveTour { return lp.activeTour }

// Objective returns the current LP objective value.
func (lp *CoreLP) Objective() float64 { return lp.objectiveValue() }
