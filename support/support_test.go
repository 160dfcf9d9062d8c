package support_test

import (
	"testing"

	"github.com/abctsp/abctsp/core"
	"github.com/abctsp/abctsp/support"
	"github.com/stretchr/testify/require"
)

func TestBuildConnectedIntegral(t *testing.T) {
	g := core.NewCoreGraph(3)
	e01, _ := g.AddEdge(0, 1, 1)
	e12, _ := g.AddEdge(1, 2, 1)
	e02, _ := g.AddEdge(0, 2, 1)

	x := make([]float64, g.EdgeCount())
	x[e01] = 1
	x[e12] = 1
	x[e02] = 0

	sg := support.Build(g, x, support.ViolationEps)
	require.Len(t, sg.Edges, 2)
	require.True(t, sg.Connected)
	require.True(t, sg.Integral)
}

func TestBuildDisconnectedFractional(t *testing.T) {
	g := core.NewCoreGraph(4)
	e01, _ := g.AddEdge(0, 1, 1)
	e23, _ := g.AddEdge(2, 3, 1)

	x := make([]float64, g.EdgeCount())
	x[e01] = 0.5
	x[e23] = 0.5

	sg := support.Build(g, x, support.ViolationEps)
	require.False(t, sg.Connected)
	require.False(t, sg.Integral)

	comps := support.Components(sg)
	require.Len(t, comps, 2)
}
