package matrix_test

import (
	"testing"

	"github.com/abctsp/abctsp/matrix"
	"github.com/stretchr/testify/require"
)

func TestNewDenseFromRows(t *testing.T) {
	d, err := matrix.NewDenseFromRows([][]float64{
		{0, 1, 2},
		{1, 0, 3},
		{2, 3, 0},
	})
	require.NoError(t, err)
	require.Equal(t, 3, d.Rows())
	require.Equal(t, 3, d.Cols())
	require.Equal(t, 3.0, d.At(1, 2))
	require.True(t, d.IsSquare())
}

func TestNewDenseFromRowsMismatch(t *testing.T) {
	_, err := matrix.NewDenseFromRows([][]float64{{0, 1}, {1}})
	require.ErrorIs(t, err, matrix.ErrMatrixDimensionMismatch)
}

func TestSetAndClone(t *testing.T) {
	d, err := matrix.NewDense(2, 2)
	require.NoError(t, err)
	require.NoError(t, d.Set(0, 1, 5))
	clone := d.Clone()
	require.NoError(t, clone.Set(0, 1, 9))
	require.Equal(t, 5.0, d.At(0, 1))
	require.Equal(t, 9.0, clone.At(0, 1))
}

func TestSetOutOfBounds(t *testing.T) {
	d, err := matrix.NewDense(2, 2)
	require.NoError(t, err)
	require.ErrorIs(t, d.Set(5, 0, 1), matrix.ErrIndexOutOfBounds)
}
