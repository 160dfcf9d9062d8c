package ops_test

import (
	"math"
	"testing"

	"github.com/abctsp/abctsp/matrix"
	"github.com/abctsp/abctsp/matrix/ops"
	"github.com/stretchr/testify/require"
)

func TestLUSolve(t *testing.T) {
	a, err := matrix.NewDenseFromRows([][]float64{
		{2, 1, 1},
		{4, 3, 3},
		{8, 7, 9},
	})
	require.NoError(t, err)

	lu, err := ops.LU(a)
	require.NoError(t, err)

	x, err := lu.Solve([]float64{4, 10, 24})
	require.NoError(t, err)

	want := []float64{1, 1, 1}
	for i := range want {
		require.InDelta(t, want[i], x[i], 1e-9)
	}
}

func TestLUNonSquare(t *testing.T) {
	a, err := matrix.NewDense(2, 3)
	require.NoError(t, err)
	_, err = ops.LU(a)
	require.ErrorIs(t, err, matrix.ErrNonSquare)
}

func TestLUSingular(t *testing.T) {
	a, err := matrix.NewDenseFromRows([][]float64{
		{1, 2},
		{2, 4},
	})
	require.NoError(t, err)
	_, err = ops.LU(a)
	require.ErrorIs(t, err, ops.ErrSingular)
}

func TestLUDeterminant(t *testing.T) {
	a, err := matrix.NewDenseFromRows([][]float64{
		{3, 0},
		{0, 4},
	})
	require.NoError(t, err)
	lu, err := ops.LU(a)
	require.NoError(t, err)
	require.True(t, math.Abs(lu.Determinant()-12) < 1e-9)
}
