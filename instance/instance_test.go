package instance_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/abctsp/abctsp/instance"
	"github.com/stretchr/testify/require"
)

func TestNewFromDistancesRejectsAsymmetric(t *testing.T) {
	_, err := instance.NewFromDistances("bad", [][]float64{
		{0, 1},
		{2, 0},
	})
	require.ErrorIs(t, err, instance.ErrAsymmetricInput)
}

func TestNewFromDistancesRejectsTooFewNodes(t *testing.T) {
	_, err := instance.NewFromDistances("tiny", [][]float64{{0}})
	require.ErrorIs(t, err, instance.ErrTooFewNodes)
}

func TestNewFromCoordsEUC2D(t *testing.T) {
	in, err := instance.NewFromCoords("sq", []instance.Point{
		{X: 0, Y: 0}, {X: 3, Y: 4}, {X: 0, Y: 4},
	}, instance.EUC2D)
	require.NoError(t, err)
	require.Equal(t, 5.0, in.At(0, 1))
	require.Equal(t, 4.0, in.At(0, 2))
	require.Equal(t, in.At(0, 1), in.At(1, 0))
}

func TestParseTSPLIBExplicitRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	orig, err := instance.NewFromDistances("rt", [][]float64{
		{0, 1, 2},
		{1, 0, 3},
		{2, 3, 0},
	})
	require.NoError(t, err)
	require.NoError(t, instance.WriteTSPLIB(&buf, orig))

	parsed, err := instance.ParseTSPLIB(&buf)
	require.NoError(t, err)
	require.Equal(t, orig.N, parsed.N)
	for i := 0; i < orig.N; i++ {
		for j := 0; j < orig.N; j++ {
			require.Equal(t, orig.At(i, j), parsed.At(i, j))
		}
	}
}

func TestParseTSPLIBEuc2D(t *testing.T) {
	src := strings.Join([]string{
		"NAME: tiny",
		"TYPE: TSP",
		"DIMENSION: 3",
		"EDGE_WEIGHT_TYPE: EUC_2D",
		"NODE_COORD_SECTION",
		"1 0 0",
		"2 3 4",
		"3 0 4",
		"EOF",
	}, "\n")
	in, err := instance.ParseTSPLIB(strings.NewReader(src))
	require.NoError(t, err)
	require.Equal(t, 3, in.N)
	require.Equal(t, 5.0, in.At(0, 1))
}

func TestParseTSPLIBMissingDimension(t *testing.T) {
	_, err := instance.ParseTSPLIB(strings.NewReader("NAME: x\nEOF\n"))
	require.ErrorIs(t, err, instance.ErrMalformedFile)
}

func TestSolRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	tour := []int{2, 0, 1, 3}
	require.NoError(t, instance.WriteSol(&buf, tour))
	got, err := instance.ParseSol(&buf)
	require.NoError(t, err)
	require.Equal(t, tour, got)
}

func TestParseSolRejectsNonPermutation(t *testing.T) {
	_, err := instance.ParseSol(strings.NewReader("3\n0\n0\n1\n"))
	require.ErrorIs(t, err, instance.ErrMalformedFile)
}

func TestRandomGeometricDeterministic(t *testing.T) {
	a, err := instance.RandomGeometric(42, 10, 100)
	require.NoError(t, err)
	b, err := instance.RandomGeometric(42, 10, 100)
	require.NoError(t, err)
	for i := 0; i < a.N; i++ {
		for j := 0; j < a.N; j++ {
			require.Equal(t, a.At(i, j), b.At(i, j))
		}
	}
}

func TestRandomGeometricRejectsTooFewNodes(t *testing.T) {
	_, err := instance.RandomGeometric(1, 1, 10)
	require.ErrorIs(t, err, instance.ErrTooFewNodes)
}
