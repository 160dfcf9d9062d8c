package instance

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ParseSol reads a .sol tour file (spec.md §6): first line n, followed by n
// integer lines giving a cyclic permutation of 0..n-1.
//
// Errors: ErrMalformedFile if the line count or values are inconsistent.
func ParseSol(r io.Reader) ([]int, error) {
	sc := bufio.NewScanner(r)
	if !sc.Scan() {
		return nil, fmt.Errorf("%w: empty .sol file", ErrMalformedFile)
	}
	n, err := strconv.Atoi(strings.TrimSpace(sc.Text()))
	if err != nil || n <= 0 {
		return nil, fmt.Errorf("%w: bad .sol node count", ErrMalformedFile)
	}
	tour := make([]int, 0, n)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		v, err := strconv.Atoi(line)
		if err != nil {
			return nil, fmt.Errorf("%w: non-integer .sol entry", ErrMalformedFile)
		}
		tour = append(tour, v)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedFile, err)
	}
	if len(tour) != n {
		return nil, fmt.Errorf("%w: .sol declared %d nodes but listed %d", ErrMalformedFile, n, len(tour))
	}
	seen := make([]bool, n)
	for _, v := range tour {
		if v < 0 || v >= n || seen[v] {
			return nil, fmt.Errorf("%w: .sol is not a permutation of 0..n-1", ErrMalformedFile)
		}
		seen[v] = true
	}
	return tour, nil
}

// WriteSol writes tour (a cyclic permutation of node ids) in .sol format.
func WriteSol(w io.Writer, tour []int) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "%d\n", len(tour))
	for _, v := range tour {
		fmt.Fprintf(bw, "%d\n", v)
	}
	return bw.Flush()
}

// WriteTourEdges writes probname_tour.x format: one "u v 1.0" triple per
// tour edge (spec.md §6).
func WriteTourEdges(w io.Writer, tour []int) error {
	bw := bufio.NewWriter(w)
	n := len(tour)
	fmt.Fprintf(bw, "%d %d\n", n, n)
	for i := 0; i < n; i++ {
		u, v := tour[i], tour[(i+1)%n]
		fmt.Fprintf(bw, "%d %d 1.0\n", u, v)
	}
	return bw.Flush()
}

// WriteXY writes an optional coordinate dump (probname.xy).
func WriteXY(w io.Writer, coords []Point) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "%d\n", len(coords))
	for _, p := range coords {
		fmt.Fprintf(bw, "%g %g\n", p.X, p.Y)
	}
	return bw.Flush()
}
