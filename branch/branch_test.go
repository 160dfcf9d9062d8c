package branch_test

import (
	"testing"

	"github.com/abctsp/abctsp/branch"
	"github.com/stretchr/testify/require"
)

func TestTreeBestFirstWithDepthTiebreak(t *testing.T) {
	tree := branch.NewTree()
	a := &branch.BranchNode{ID: 1, Estimate: 5, Depth: 1}
	b := &branch.BranchNode{ID: 2, Estimate: 3, Depth: 2}
	c := &branch.BranchNode{ID: 3, Estimate: 3, Depth: 5}
	tree.Push(a)
	tree.Push(b)
	tree.Push(c)
	require.Equal(t, 3, tree.Len())

	first := tree.Pop()
	require.Equal(t, 3, first.ID) // tied on Estimate=3, deeper wins
	second := tree.Pop()
	require.Equal(t, 2, second.ID)
	third := tree.Pop()
	require.Equal(t, 1, third.ID)
	require.Equal(t, 0, tree.Len())
}

func TestTreePopEmptyReturnsNil(t *testing.T) {
	tree := branch.NewTree()
	require.Nil(t, tree.Pop())
}
