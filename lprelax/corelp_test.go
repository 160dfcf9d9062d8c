package lprelax_test

import (
	"testing"

	"github.com/abctsp/abctsp/core"
	"github.com/abctsp/abctsp/cutrepr"
	"github.com/abctsp/abctsp/lprelax"
	"github.com/stretchr/testify/require"
)

// k4 builds the complete graph on 4 nodes: tour edges (0,1),(1,2),(2,3),(3,0)
// cheap, diagonals (0,2),(1,3) expensive — so the tour is already LP-optimal.
func k4(t *testing.T) *core.CoreGraph {
	t.Helper()
	g := core.NewCoreGraph(4)
	tourEdges := [][2]int{{0, 1}, {1, 2}, {2, 3}, {3, 0}}
	for _, e := range tourEdges {
		_, err := g.AddEdge(e[0], e[1], 1)
		require.NoError(t, err)
	}
	_, err := g.AddEdge(0, 2, 100)
	require.NoError(t, err)
	_, err = g.AddEdge(1, 3, 100)
	require.NoError(t, err)
	return g
}

func TestNewInstallsTourBasis(t *testing.T) {
	g := k4(t)
	lp, err := lprelax.New(g, []int{0, 1, 2, 3}, lprelax.DefaultConfig())
	require.NoError(t, err)
	require.Equal(t, 3, lp.NumRows())
	require.Equal(t, 6, lp.NumCols())

	x := lp.X()
	require.Len(t, x, 6)
	require.InDelta(t, 4.0, lp.Objective(), 1e-6)
}

func TestPrimalPivotFathomsAlreadyOptimalTour(t *testing.T) {
	g := k4(t)
	lp, err := lprelax.New(g, []int{0, 1, 2, 3}, lprelax.DefaultConfig())
	require.NoError(t, err)

	piv, err := lp.PrimalPivot()
	require.NoError(t, err)
	require.Contains(t, []lprelax.PivType{lprelax.FathomedTourPiv, lprelax.TourPiv}, piv)
}

func TestAddCutsGrowsRowsAndStaysConsistent(t *testing.T) {
	g := k4(t)
	lp, err := lprelax.New(g, []int{0, 1, 2, 3}, lprelax.DefaultConfig())
	require.NoError(t, err)

	e01, _ := g.Lookup(0, 1)
	e12, _ := g.Lookup(1, 2)
	row, err := cutrepr.NewSparseRow([]int{e01, e12}, []float64{1, 1}, cutrepr.LE, 2)
	require.NoError(t, err)

	before := lp.NumRows()
	idxs, err := lp.AddCuts([]*cutrepr.SparseRow{row}, cutrepr.Subtour, nil)
	require.NoError(t, err)
	require.Len(t, idxs, 1)
	require.Equal(t, before+1, lp.NumRows())
}

func TestAddEdgesExtendsColumns(t *testing.T) {
	g := core.NewCoreGraph(4)
	for _, e := range [][2]int{{0, 1}, {1, 2}, {2, 3}, {3, 0}} {
		_, err := g.AddEdge(e[0], e[1], 1)
		require.NoError(t, err)
	}
	lp, err := lprelax.New(g, []int{0, 1, 2, 3}, lprelax.DefaultConfig())
	require.NoError(t, err)
	require.Equal(t, 4, lp.NumCols())

	eIdx, err := g.AddEdge(0, 2, 50)
	require.NoError(t, err)
	require.NoError(t, lp.AddEdges([]int{eIdx}))
	require.Equal(t, 5, lp.NumCols())
}

func TestCopyBaseAndCopyStartRoundTrip(t *testing.T) {
	g := k4(t)
	lp, err := lprelax.New(g, []int{0, 1, 2, 3}, lprelax.DefaultConfig())
	require.NoError(t, err)

	snap, ok := lp.CopyBase().(*lprelax.BasisSnapshot)
	require.True(t, ok)
	require.NoError(t, lp.CopyStart(snap))
	require.InDelta(t, 4.0, lp.Objective(), 1e-6)
}

func TestPurgeGMIForceRemovesTaggedRows(t *testing.T) {
	g := k4(t)
	lp, err := lprelax.New(g, []int{0, 1, 2, 3}, lprelax.DefaultConfig())
	require.NoError(t, err)

	e01, _ := g.Lookup(0, 1)
	row, err := cutrepr.NewSparseRow([]int{e01}, []float64{1}, cutrepr.LE, 1)
	require.NoError(t, err)
	_, err = lp.AddCuts([]*cutrepr.SparseRow{row}, cutrepr.GMI, nil)
	require.NoError(t, err)

	before := lp.NumRows()
	purged := lp.PurgeGMI(true)
	require.Equal(t, 1, purged)
	require.Equal(t, before-1, lp.NumRows())
}
