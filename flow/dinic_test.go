package flow_test

import (
	"context"
	"testing"

	"github.com/abctsp/abctsp/core"
	"github.com/abctsp/abctsp/flow"
	"github.com/stretchr/testify/require"
)

func buildDiamond(t *testing.T) *core.CoreGraph {
	t.Helper()
	g := core.NewCoreGraph(4)
	_, err := g.AddEdge(0, 1, 3)
	require.NoError(t, err)
	_, err = g.AddEdge(0, 2, 2)
	require.NoError(t, err)
	_, err = g.AddEdge(1, 3, 2)
	require.NoError(t, err)
	_, err = g.AddEdge(2, 3, 3)
	require.NoError(t, err)
	return g
}

func TestMaxFlowDiamond(t *testing.T) {
	g := buildDiamond(t)
	res, err := flow.MaxFlow(context.Background(), g, 0, 3, flow.DefaultOptions())
	require.NoError(t, err)
	require.InDelta(t, 4.0, res.Value, 1e-9)
	require.True(t, res.SourceSide[0])
	require.False(t, res.SourceSide[3])
}

func TestMaxFlowRejectsSameSourceSink(t *testing.T) {
	g := buildDiamond(t)
	_, err := flow.MaxFlow(context.Background(), g, 1, 1, flow.DefaultOptions())
	require.ErrorIs(t, err, flow.ErrSameSourceSink)
}

func TestMaxFlowRejectsOutOfRange(t *testing.T) {
	g := buildDiamond(t)
	_, err := flow.MaxFlow(context.Background(), g, 0, 99, flow.DefaultOptions())
	require.ErrorIs(t, err, flow.ErrSinkNotFound)
}

func TestGomoryHuTreeMinCutMatchesDirectMaxFlow(t *testing.T) {
	g := buildDiamond(t)
	tree, err := flow.BuildGomoryHuTree(context.Background(), g, flow.DefaultOptions())
	require.NoError(t, err)

	for u := 0; u < g.N(); u++ {
		for v := u + 1; v < g.N(); v++ {
			direct, err := flow.MaxFlow(context.Background(), g, u, v, flow.DefaultOptions())
			require.NoError(t, err)
			require.InDelta(t, direct.Value, tree.MinCut(u, v), 1e-9)
		}
	}
}
