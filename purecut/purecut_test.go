package purecut_test

import (
	"testing"

	"github.com/abctsp/abctsp/core"
	"github.com/abctsp/abctsp/purecut"
	"github.com/stretchr/testify/require"
)

func square(t *testing.T) *core.CoreGraph {
	t.Helper()
	g := core.NewCoreGraph(4)
	edges := [][3]float64{{0, 1, 1}, {1, 2, 1}, {2, 3, 1}, {3, 0, 1}, {0, 2, 5}, {1, 3, 5}}
	for _, e := range edges {
		_, err := g.AddEdge(int(e[0]), int(e[1]), e[2])
		require.NoError(t, err)
	}
	return g
}

func TestGreedyTourRecoversCycleFromIntegralX(t *testing.T) {
	g := square(t)
	x := make([]float64, g.EdgeCount())
	for idx, e := range g.Edges() {
		if e.Length == 1 {
			x[idx] = 1
		}
	}
	nodes, ok := purecut.GreedyTour(g, x, 4, nil, nil)
	require.True(t, ok)
	require.Len(t, nodes, 4)
}

func TestGreedyTourHonorsMustInclude(t *testing.T) {
	g := square(t)
	x := make([]float64, g.EdgeCount())
	for idx, e := range g.Edges() {
		if e.Length == 1 {
			x[idx] = 0.5
		}
	}
	must := map[[2]int]bool{{0, 2}: true}
	nodes, ok := purecut.GreedyTour(g, x, 4, must, nil)
	require.True(t, ok)
	found := false
	n := len(nodes)
	for i := 0; i < n; i++ {
		a, b := nodes[i], nodes[(i+1)%n]
		if (a == 0 && b == 2) || (a == 2 && b == 0) {
			found = true
		}
	}
	require.True(t, found)
}

// TestTourFromIntegralSupportWalksTheCycle is a regression test for the
// TourPiv bug: with x integral and 1 exactly on the cheap 4-cycle, the
// node permutation must be recovered from the support graph itself, not
// from a stale driver.LP.ActiveTour().
func TestTourFromIntegralSupportWalksTheCycle(t *testing.T) {
	g := square(t)
	x := make([]float64, g.EdgeCount())
	for idx, e := range g.Edges() {
		if e.Length == 1 {
			x[idx] = 1
		}
	}
	nodes, ok := purecut.TourFromIntegralSupport(g, x, 4)
	require.True(t, ok)
	require.ElementsMatch(t, []int{0, 1, 2, 3}, nodes)
	for i, u := range nodes {
		v := nodes[(i+1)%len(nodes)]
		_, isEdge := g.Lookup(u, v)
		require.True(t, isEdge)
	}
}

// TestTourFromIntegralSupportRejectsDisconnectedX ensures a disconnected
// integral x (two disjoint triangles, no single Hamiltonian cycle)
// is reported as not-ok rather than silently returning a bogus tour.
func TestTourFromIntegralSupportRejectsDisconnectedX(t *testing.T) {
	g := core.NewCoreGraph(6)
	// Two disjoint triangles: each is a valid cycle on its own, so the
	// support graph is integral but disconnected.
	edges := [][2]int{{0, 1}, {1, 2}, {0, 2}, {3, 4}, {4, 5}, {3, 5}}
	for _, e := range edges {
		_, err := g.AddEdge(e[0], e[1], 1)
		require.NoError(t, err)
	}
	x := make([]float64, g.EdgeCount())
	for idx := range x {
		x[idx] = 1
	}
	_, ok := purecut.TourFromIntegralSupport(g, x, 6)
	require.False(t, ok)
}
