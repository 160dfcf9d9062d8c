// Package instance owns the TSP problem instance: a symmetric, nonnegative,
// integer-valued distance function on n nodes (spec.md §3 Instance), plus
// its external representations (TSPLIB text, .sol tour files) and a random
// geometric instance generator.
package instance

import (
	"errors"
	"math"

	"github.com/abctsp/abctsp/matrix"
)

// Sentinel errors.
var (
	ErrTooFewNodes     = errors.New("instance: at least two nodes are required")
	ErrNegativeLength  = errors.New("instance: edge length must be nonnegative")
	ErrAsymmetricInput = errors.New("instance: input distance data is not symmetric")
	ErrMalformedFile   = errors.New("instance: malformed input file")
	ErrUnsupportedType = errors.New("instance: unsupported EDGE_WEIGHT_TYPE")
	ErrDimensionMismatch = errors.New("instance: dimension mismatch between header and data")
)

// EdgeWeightType mirrors TSPLIB's EDGE_WEIGHT_TYPE field (spec.md §6).
type EdgeWeightType int

const (
	EUC2D EdgeWeightType = iota
	CEIL2D
	ATT
	GEO
	Explicit
)

// Instance is immutable once built; it is owned by the top-level solver and
// shared read-only by every other package.
type Instance struct {
	Name   string
	N      int
	Dist   *matrix.Dense // n x n symmetric integer-valued lengths, zero diagonal
	Coords []Point       // optional; nil for EXPLICIT instances without a display section
}

// Point is a 2D coordinate, used by EUC_2D/CEIL_2D/ATT/GEO instances and by
// the random geometric generator.
type Point struct{ X, Y float64 }

// NewFromDistances builds an Instance from an explicit n x n distance
// matrix. The matrix must be symmetric with a zero diagonal and
// nonnegative entries; values are rounded to the nearest integer, matching
// TSPLIB's integer-length convention.
//
// Errors: ErrTooFewNodes, ErrDimensionMismatch, ErrAsymmetricInput,
// ErrNegativeLength.
func NewFromDistances(name string, raw [][]float64) (*Instance, error) {
	n := len(raw)
	if n < 2 {
		return nil, ErrTooFewNodes
	}
	d, err := matrix.NewDense(n, n)
	if err != nil {
		return nil, err
	}
	for i := 0; i < n; i++ {
		if len(raw[i]) != n {
			return nil, ErrDimensionMismatch
		}
		for j := 0; j < n; j++ {
			v := math.Round(raw[i][j])
			if v < 0 {
				return nil, ErrNegativeLength
			}
			if err := d.Set(i, j, v); err != nil {
				return nil, err
			}
		}
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if math.Abs(d.At(i, j)-d.At(j, i)) > 1e-6 {
				return nil, ErrAsymmetricInput
			}
		}
	}
	return &Instance{Name: name, N: n, Dist: d}, nil
}

// NewFromCoords builds an Instance from a list of points and a
// EDGE_WEIGHT_TYPE, computing pairwise distances per TSPLIB's formulas.
//
// Errors: ErrTooFewNodes, ErrUnsupportedType.
func NewFromCoords(name string, pts []Point, wt EdgeWeightType) (*Instance, error) {
	n := len(pts)
	if n < 2 {
		return nil, ErrTooFewNodes
	}
	dist, err := distanceFunc(wt)
	if err != nil {
		return nil, err
	}
	d, err := matrix.NewDense(n, n)
	if err != nil {
		return nil, err
	}
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if i == j {
				continue
			}
			if err := d.Set(i, j, dist(pts[i], pts[j])); err != nil {
				return nil, err
			}
		}
	}
	coords := make([]Point, n)
	copy(coords, pts)
	return &Instance{Name: name, N: n, Dist: d, Coords: coords}, nil
}

func distanceFunc(wt EdgeWeightType) (func(a, b Point) float64, error) {
	switch wt {
	case EUC2D:
		return func(a, b Point) float64 {
			dx, dy := a.X-b.X, a.Y-b.Y
			return math.Round(math.Sqrt(dx*dx + dy*dy))
		}, nil
	case CEIL2D:
		return func(a, b Point) float64 {
			dx, dy := a.X-b.X, a.Y-b.Y
			return math.Ceil(math.Sqrt(dx*dx + dy*dy))
		}, nil
	case ATT:
		return func(a, b Point) float64 {
			dx, dy := a.X-b.X, a.Y-b.Y
			rij := math.Sqrt((dx*dx + dy*dy) / 10.0)
			tij := math.Round(rij)
			if tij < rij {
				return tij + 1
			}
			return tij
		}, nil
	case GEO:
		return geoDistance, nil
	default:
		return nil, ErrUnsupportedType
	}
}

const geoPI = 3.141592

func geoLatLong(p Point) (lat, long float64) {
	degX := math.Trunc(p.X)
	minX := p.X - degX
	lat = geoPI * (degX + 5.0*minX/3.0) / 180.0
	degY := math.Trunc(p.Y)
	minY := p.Y - degY
	long = geoPI * (degY + 5.0*minY/3.0) / 180.0
	return
}

// geoDistance implements TSPLIB's GEO distance: great-circle distance on a
// sphere of radius RRR = 6378.388.
func geoDistance(a, b Point) float64 {
	const rrr = 6378.388
	lat1, long1 := geoLatLong(a)
	lat2, long2 := geoLatLong(b)
	q1 := math.Cos(long1 - long2)
	q2 := math.Cos(lat1 - lat2)
	q3 := math.Cos(lat1 + lat2)
	return math.Trunc(rrr*math.Acos(0.5*((1.0+q1)*q2-(1.0-q1)*q3)) + 1.0)
}

// At returns the (rounded-integer-valued) length between nodes u and v.
func (in *Instance) At(u, v int) float64 {
	return in.Dist.At(u, v)
}
