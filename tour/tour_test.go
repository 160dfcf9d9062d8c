package tour_test

import (
	"testing"

	"github.com/abctsp/abctsp/core"
	"github.com/abctsp/abctsp/tour"
	"github.com/stretchr/testify/require"
)

func square(t *testing.T) *core.CoreGraph {
	t.Helper()
	g := core.NewCoreGraph(4)
	edges := [][2]int{{0, 1}, {1, 2}, {2, 3}, {3, 0}}
	for _, e := range edges {
		_, err := g.AddEdge(e[0], e[1], 1)
		require.NoError(t, err)
	}
	return g
}

func TestBuildValidTour(t *testing.T) {
	g := square(t)
	bt, err := tour.Build(g, []int{0, 1, 2, 3})
	require.NoError(t, err)
	require.Equal(t, 4.0, bt.Length)
	require.True(t, bt.HasEdge(0, 1))
	require.True(t, bt.HasEdge(3, 0))
	require.False(t, bt.HasEdge(0, 2))
}

func TestBuildRejectsNonPermutation(t *testing.T) {
	g := square(t)
	_, err := tour.Build(g, []int{0, 1, 1, 3})
	require.ErrorIs(t, err, tour.ErrNotPermutation)
}

func TestBuildRejectsMissingEdge(t *testing.T) {
	g := square(t)
	_, err := tour.Build(g, []int{0, 2, 1, 3})
	require.ErrorIs(t, err, tour.ErrMissingEdge)
}

func TestCanonicalizeRotationAndReflection(t *testing.T) {
	a := []int{2, 3, 0, 1}
	b := []int{0, 1, 2, 3}
	require.True(t, tour.Equal(a, b))

	c := []int{0, 3, 2, 1} // reflection of b
	require.True(t, tour.Equal(b, c))

	d := []int{0, 2, 1, 3}
	require.False(t, tour.Equal(b, d))
}

func TestRound1e9(t *testing.T) {
	require.Equal(t, 1.000000001, tour.Round1e9(1.0000000009))
}
