package cutrepr_test

import (
	"testing"

	"github.com/abctsp/abctsp/core"
	"github.com/abctsp/abctsp/cutrepr"
	"github.com/abctsp/abctsp/tour"
	"github.com/stretchr/testify/require"
)

func pentagon(t *testing.T) (*core.CoreGraph, *tour.BestTour) {
	t.Helper()
	g := core.NewCoreGraph(5)
	for i := 0; i < 5; i++ {
		_, err := g.AddEdge(i, (i+1)%5, 1)
		require.NoError(t, err)
	}
	bt, err := tour.Build(g, []int{0, 1, 2, 3, 4})
	require.NoError(t, err)
	return g, bt
}

func TestSparseRowActivityAndViolation(t *testing.T) {
	row, err := cutrepr.NewSparseRow([]int{0, 1}, []float64{1, 1}, cutrepr.LE, 1)
	require.NoError(t, err)
	x := []float64{0.6, 0.6}
	require.InDelta(t, 1.2, row.Activity(x), 1e-9)
	require.InDelta(t, 0.2, row.Violation(x), 1e-9)
	require.True(t, row.IsViolated(x, 1e-9))
}

func TestCliqueBankInsertAndRebase(t *testing.T) {
	g, bt := pentagon(t)
	bank := cutrepr.NewCliqueBank(bt)
	h := bank.Insert([]int{0, 1, 2})
	c, err := bank.Get(h)
	require.NoError(t, err)
	require.Equal(t, []int{0, 1, 2}, c.Nodes)
	require.Len(t, c.Segments, 1)

	// Same node set, different tour: segments get rebuilt but nodes persist.
	bt2, err := tour.Build(g, []int{2, 1, 0, 4, 3})
	require.NoError(t, err)
	bank.Rebase(bt2)
	c2, err := bank.Get(h)
	require.NoError(t, err)
	require.Equal(t, []int{0, 1, 2}, c2.Nodes)
}

func TestSubtourExpand(t *testing.T) {
	g, bt := pentagon(t)
	bank := cutrepr.NewCliqueBank(bt)
	h := bank.Insert([]int{0, 1, 2})
	hg := &cutrepr.HyperGraph{CutType: cutrepr.Subtour, CliqueHandles: []int{h}}
	row, err := hg.Expand(g, bt, bank, nil)
	require.NoError(t, err)
	require.Equal(t, cutrepr.LE, row.Sense)
	require.Equal(t, 2.0, row.RHS)

	xt := make([]float64, g.EdgeCount())
	for _, idx := range bt.EdgeIdx {
		xt[idx] = 1
	}
	require.True(t, row.IsTightAtTour(xt, 1e-9))
}

func TestToothBankWeakEliminate(t *testing.T) {
	_, bt := pentagon(t)
	tb := cutrepr.NewToothBank()
	big := cutrepr.NewSimpleTooth(bt, 0, []int{1, 2}, 0.3)
	small := cutrepr.NewSimpleTooth(bt, 0, []int{1}, 0.1)
	hBig := tb.Insert(big)
	hSmall := tb.Insert(small)

	survivors := tb.WeakEliminate([]int{hBig, hSmall})
	require.Len(t, survivors, 1)
	require.Equal(t, hSmall, survivors[0])
}
