package solver_test

import (
	"context"
	"testing"

	"github.com/abctsp/abctsp/instance"
	"github.com/abctsp/abctsp/solver"
	"github.com/stretchr/testify/require"
)

func square(t *testing.T) *instance.Instance {
	t.Helper()
	pts := []instance.Point{{X: 0, Y: 0}, {X: 0, Y: 1}, {X: 1, Y: 1}, {X: 1, Y: 0}}
	in, err := instance.NewFromCoords("square", pts, instance.EUC2D)
	require.NoError(t, err)
	return in
}

func TestNewBuildsCompleteGraphAndInstallsInitialTour(t *testing.T) {
	in := square(t)
	sc, err := solver.New(in, []int{0, 1, 2, 3}, solver.DefaultConfig())
	require.NoError(t, err)
	require.Equal(t, 4, sc.Graph.N())
	require.Equal(t, 6, sc.Graph.EdgeCount()) // complete graph on 4 nodes
	require.Len(t, sc.Best.Nodes, 4)
}

func TestNewRejectsEmptyInitialTour(t *testing.T) {
	in := square(t)
	_, err := solver.New(in, nil, solver.DefaultConfig())
	require.ErrorIs(t, err, solver.ErrNoInitialTour)
}

func TestSolveReturnsAnOutcomeForATrivialSquare(t *testing.T) {
	in := square(t)
	cfg := solver.DefaultConfig()
	cfg.Branch.MaxNodes = 10
	sc, err := solver.New(in, []int{0, 1, 2, 3}, cfg)
	require.NoError(t, err)

	out, err := sc.Solve(context.Background())
	require.NoError(t, err)
	require.Len(t, out.Best.Nodes, 4)
	require.Greater(t, out.Best.Length, 0.0)
}

// twoClusters builds a 7-node instance out of two tight clusters joined by
// two long bridges, unlike the trivial square above: the LP relaxation over
// this layout puts fractional weight on both bridges, so the root pivot
// needs at least one augmenting/subtour round before it fathoms, exercising
// the TourPiv path solver.New's stale-ActiveTour fix covers (purecut's
// TourPiv case, branch's FathomedTourPiv/TourPiv case).
func twoClusters(t *testing.T) *instance.Instance {
	t.Helper()
	pts := []instance.Point{
		{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 0, Y: 1},
		{X: 20, Y: 0}, {X: 21, Y: 0}, {X: 20, Y: 1}, {X: 21, Y: 1},
	}
	in, err := instance.NewFromCoords("two-clusters", pts, instance.EUC2D)
	require.NoError(t, err)
	return in
}

func TestSolveHandlesAFractionalRootRequiringAugmentation(t *testing.T) {
	in := twoClusters(t)
	cfg := solver.DefaultConfig()
	cfg.Branch.MaxNodes = 200
	sc, err := solver.New(in, []int{0, 1, 2, 3, 4, 5, 6}, cfg)
	require.NoError(t, err)

	out, err := sc.Solve(context.Background())
	require.NoError(t, err)
	require.Len(t, out.Best.Nodes, 7)
	require.Greater(t, out.Best.Length, 0.0)
	// GreaterOrEqual, not Equal: whether the root fathoms immediately or
	// needs branching depends on the LP solver's chosen basis, so only a
	// non-negative node count is asserted here.
	require.GreaterOrEqual(t, out.NodesVisited, 0)
}
