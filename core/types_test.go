package core_test

import (
	"testing"

	"github.com/abctsp/abctsp/core"
	"github.com/stretchr/testify/require"
)

func TestAddEdgeAndLookup(t *testing.T) {
	g := core.NewCoreGraph(4)
	idx, err := g.AddEdge(0, 1, 2.5)
	require.NoError(t, err)
	require.Equal(t, 0, idx)

	got, ok := g.Lookup(1, 0)
	require.True(t, ok)
	require.Equal(t, idx, got)

	e, err := g.Edge(idx)
	require.NoError(t, err)
	require.Equal(t, 0, e.U)
	require.Equal(t, 1, e.V)
	require.Equal(t, 2.5, e.Length)
}

func TestAddEdgeRejectsSelfLoopAndDuplicate(t *testing.T) {
	g := core.NewCoreGraph(3)
	_, err := g.AddEdge(0, 0, 1)
	require.ErrorIs(t, err, core.ErrSelfLoop)

	_, err = g.AddEdge(0, 1, 1)
	require.NoError(t, err)
	_, err = g.AddEdge(1, 0, 1)
	require.ErrorIs(t, err, core.ErrDuplicateEdge)
}

func TestAddEdgeRejectsNegativeWeightAndBadVertex(t *testing.T) {
	g := core.NewCoreGraph(2)
	_, err := g.AddEdge(0, 1, -1)
	require.ErrorIs(t, err, core.ErrNegativeWeight)

	_, err = g.AddEdge(0, 5, 1)
	require.ErrorIs(t, err, core.ErrVertexOutOfRange)
}

func TestDeleteEdgesRenumbers(t *testing.T) {
	g := core.NewCoreGraph(4)
	e01, _ := g.AddEdge(0, 1, 1)
	e02, _ := g.AddEdge(0, 2, 1)
	e03, _ := g.AddEdge(0, 3, 1)

	perm, err := g.DeleteEdges([]int{e02})
	require.NoError(t, err)
	require.Equal(t, -1, perm[e02])
	require.GreaterOrEqual(t, perm[e01], 0)
	require.GreaterOrEqual(t, perm[e03], 0)
	require.Equal(t, 2, g.EdgeCount())

	// Surviving edges still resolve through Lookup at their new indices.
	newIdx, ok := g.Lookup(0, 1)
	require.True(t, ok)
	require.Equal(t, perm[e01], newIdx)

	_, ok = g.Lookup(0, 2)
	require.False(t, ok)
}

func TestNeighbors(t *testing.T) {
	g := core.NewCoreGraph(3)
	_, err := g.AddEdge(0, 1, 1)
	require.NoError(t, err)
	_, err = g.AddEdge(0, 2, 1)
	require.NoError(t, err)

	nbrs, err := g.Neighbors(0)
	require.NoError(t, err)
	require.Len(t, nbrs, 2)

	_, err = g.Neighbors(9)
	require.ErrorIs(t, err, core.ErrVertexOutOfRange)
}
