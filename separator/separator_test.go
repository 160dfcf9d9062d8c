package separator_test

import (
	"testing"

	"github.com/abctsp/abctsp/core"
	"github.com/abctsp/abctsp/separator"
	"github.com/abctsp/abctsp/support"
	"github.com/abctsp/abctsp/tour"
	"github.com/stretchr/testify/require"
)

// fracSubtour builds a 6-node cycle with four chords and an x-vector
// (simulated directly) equal to the tour vector with half a unit moved from
// (2,3) onto the chord (0,2) — exercising segment subtour detection over a
// fractional, not just integral, x.
func fracSubtour(t *testing.T) (*core.CoreGraph, *tour.BestTour, []float64) {
	t.Helper()
	g := core.NewCoreGraph(6)
	edges := [][2]int{{0, 1}, {1, 2}, {2, 3}, {3, 4}, {4, 5}, {5, 0}, {0, 2}, {1, 3}, {2, 4}, {3, 5}}
	for _, e := range edges {
		_, err := g.AddEdge(e[0], e[1], 1)
		require.NoError(t, err)
	}
	bt, err := tour.Build(g, []int{0, 1, 2, 3, 4, 5})
	require.NoError(t, err)

	x := make([]float64, g.EdgeCount())
	for _, idx := range bt.EdgeIdx {
		x[idx] = 1
	}
	// Shift weight off (2,3) onto the (0,2) chord so the segment {0,1,2}
	// crosses the boundary with less than 2 units of x.
	e23, _ := g.Lookup(2, 3)
	e02, _ := g.Lookup(0, 2)
	x[e23] = 0.5
	x[e02] = 0.5
	return g, bt, x
}

func TestSegmentSeparatorFindsViolatedSubtour(t *testing.T) {
	g, bt, x := fracSubtour(t)
	sg := support.Build(g, x, 1e-9)

	pipe := separator.NewPipeline(separator.Config{
		Enabled: map[separator.Kind]bool{separator.SegmentSubtour: true},
		Eps:     1e-6,
	}, false)
	require.Len(t, pipe.Stages(), 1)

	q, err := pipe.Stages()[0].FindCuts(separator.Input{
		Graph: g, Tour: bt, X: x, Support: sg, Cfg: separator.DefaultConfig(),
	})
	require.NoError(t, err)
	require.Greater(t, q.Len(), 0)

	row := q.PeekFront()
	require.True(t, row.IsViolated(x, 1e-6))
}

func TestComponentSECSkippedWhenConnected(t *testing.T) {
	g, bt, x := fracSubtour(t)
	sg := support.Build(g, x, 1e-9)
	require.True(t, sg.Connected)

	sep := separator.NewPipeline(separator.Config{
		Enabled: map[separator.Kind]bool{separator.ComponentSEC: true},
	}, false)
	q, err := sep.Stages()[0].FindCuts(separator.Input{Graph: g, Tour: bt, X: x, Support: sg, Cfg: separator.DefaultConfig()})
	require.NoError(t, err)
	require.Equal(t, 0, q.Len())
}

// disconnectedTriangles builds a 6-node instance whose support graph (x=1
// on two disjoint triangles) is disconnected, but whose tour weaves
// between both triangles so no triangle edge is a tour edge — the
// component is violated but not tight at the tour.
func disconnectedTriangles(t *testing.T) (*core.CoreGraph, *tour.BestTour, []float64) {
	t.Helper()
	g := core.NewCoreGraph(6)
	triangle := [][2]int{{0, 1}, {1, 2}, {0, 2}, {3, 4}, {4, 5}, {3, 5}}
	tourOnly := [][2]int{{0, 3}, {3, 1}, {1, 4}, {4, 2}, {2, 5}, {5, 0}}
	for _, e := range triangle {
		_, err := g.AddEdge(e[0], e[1], 1)
		require.NoError(t, err)
	}
	for _, e := range tourOnly {
		_, err := g.AddEdge(e[0], e[1], 1)
		require.NoError(t, err)
	}
	bt, err := tour.Build(g, []int{0, 3, 1, 4, 2, 5})
	require.NoError(t, err)

	x := make([]float64, g.EdgeCount())
	for _, e := range triangle {
		idx, _ := g.Lookup(e[0], e[1])
		x[idx] = 1
	}
	return g, bt, x
}

// TestComponentSECIgnoresTourTightness is a regression test for the
// disconnected-support reconnection bug: a component SEC must fire purely
// on LP violation, not on tour-tightness, or every routine disconnected
// pivot aborts the solve.
func TestComponentSECIgnoresTourTightness(t *testing.T) {
	g, bt, x := disconnectedTriangles(t)
	sg := support.Build(g, x, 1e-9)
	require.False(t, sg.Connected)

	for _, idx := range bt.EdgeIdx {
		require.Zero(t, x[idx], "no tour edge should carry x weight in this fixture")
	}

	sep := separator.NewPipeline(separator.Config{
		Enabled: map[separator.Kind]bool{separator.ComponentSEC: true},
	}, false)
	q, err := sep.Stages()[0].FindCuts(separator.Input{
		Graph: g, Tour: bt, X: x, Support: sg, Cfg: separator.DefaultConfig(),
	})
	require.NoError(t, err)
	require.Equal(t, 2, q.Len(), "one SEC per disjoint triangle component")

	for _, row := range q.Drain() {
		require.True(t, row.IsViolated(x, 1e-6))
		require.False(t, row.IsTightAtTour(func() []float64 {
			xt := make([]float64, g.EdgeCount())
			for _, idx := range bt.EdgeIdx {
				xt[idx] = 1
			}
			return xt
		}(), 1e-6), "fixture is deliberately not tight at the tour")
	}
}

func TestCutQueueCapacity(t *testing.T) {
	q := separator.NewCutQueue(1)
	require.NoError(t, q.PushBack(nil))
	require.ErrorIs(t, q.PushBack(nil), separator.ErrQueueFull)
}
