package instance

import "fmt"

// RandomGeometric generates a random Euclidean TSP instance: ncount points
// placed uniformly at random on an integer grid of the given size
// (spec.md §6's "-s seed -R ncount -g grid" CLI parameterization), with
// EUC_2D rounding. Deterministic: identical (seed, ncount, grid) always
// produces identical coordinates and hence identical distances (spec.md §8
// scenario 6, reproducibility).
//
// Errors: ErrTooFewNodes if ncount < 2.
func RandomGeometric(seed int64, ncount, grid int) (*Instance, error) {
	if ncount < 2 {
		return nil, ErrTooFewNodes
	}
	rng := deriveRNG(seed, streamCoords)
	pts := make([]Point, ncount)
	for i := 0; i < ncount; i++ {
		pts[i] = Point{
			X: float64(rng.Intn(grid + 1)),
			Y: float64(rng.Intn(grid + 1)),
		}
	}
	name := fmt.Sprintf("random-seed%d-n%d-g%d", seed, ncount, grid)
	return NewFromCoords(name, pts, EUC2D)
}
