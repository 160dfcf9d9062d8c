// Package ops provides numerical linear-algebra routines over matrix.Dense,
// used by lprelax to factor and warm-start the LP basis.
package ops

import (
	"errors"
	"math"

	"github.com/abctsp/abctsp/matrix"
)

// ErrSingular is returned when LU decomposition encounters a (numerically)
// zero pivot and cannot proceed.
var ErrSingular = errors.New("ops: matrix is singular to working precision")

// pivotEps is the threshold below which a candidate pivot is treated as
// zero. Mirrors the teacher's symTol-style tolerance constants.
const pivotEps = 1e-12

// LUResult holds an LU decomposition with partial pivoting: P*A = L*U,
// where L is unit lower-triangular and U is upper-triangular. Perm records
// the row permutation (Perm[i] = original row now in position i).
type LUResult struct {
	L, U *matrix.Dense
	Perm []int
	// Sign is the determinant sign contributed by the permutation.
	Sign float64
}

// LU performs Doolittle's method with partial pivoting on a square matrix a.
//
// Errors: matrix.ErrNonSquare if a is not square; ErrSingular if no usable
// pivot can be found in some column.
func LU(a *matrix.Dense) (*LUResult, error) {
	if !a.IsSquare() {
		return nil, matrix.ErrNonSquare
	}
	n := a.Rows()
	work, err := matrix.NewDense(n, n)
	if err != nil {
		return nil, err
	}
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			_ = work.Set(i, j, a.At(i, j))
		}
	}

	perm := make([]int, n)
	for i := range perm {
		perm[i] = i
	}
	sign := 1.0

	l, err := matrix.NewDense(n, n)
	if err != nil {
		return nil, err
	}
	u, err := matrix.NewDense(n, n)
	if err != nil {
		return nil, err
	}

	for k := 0; k < n; k++ {
		// Partial pivot: choose the largest-magnitude entry in column k,
		// at or below row k.
		maxRow, maxVal := k, math.Abs(work.At(k, k))
		for i := k + 1; i < n; i++ {
			if v := math.Abs(work.At(i, k)); v > maxVal {
				maxRow, maxVal = i, v
			}
		}
		if maxVal < pivotEps {
			return nil, ErrSingular
		}
		if maxRow != k {
			for j := 0; j < n; j++ {
				wk, wm := work.At(k, j), work.At(maxRow, j)
				_ = work.Set(k, j, wm)
				_ = work.Set(maxRow, j, wk)
			}
			perm[k], perm[maxRow] = perm[maxRow], perm[k]
			sign = -sign
		}

		for i := k + 1; i < n; i++ {
			factor := work.At(i, k) / work.At(k, k)
			_ = work.Set(i, k, factor)
			for j := k + 1; j < n; j++ {
				_ = work.Set(i, j, work.At(i, j)-factor*work.At(k, j))
			}
		}
	}

	for i := 0; i < n; i++ {
		_ = l.Set(i, i, 1)
		for j := 0; j < i; j++ {
			_ = l.Set(i, j, work.At(i, j))
		}
		for j := i; j < n; j++ {
			_ = u.Set(i, j, work.At(i, j))
		}
	}

	return &LUResult{L: l, U: u, Perm: perm, Sign: sign}, nil
}

// Solve solves A*x = b given its LU factorization, via forward then
// backward substitution. len(b) must equal the factorization's dimension.
//
// Errors: matrix.ErrMatrixDimensionMismatch if b's length is wrong.
func (r *LUResult) Solve(b []float64) ([]float64, error) {
	n := len(r.Perm)
	if len(b) != n {
		return nil, matrix.ErrMatrixDimensionMismatch
	}
	pb := make([]float64, n)
	for i, p := range r.Perm {
		pb[i] = b[p]
	}

	y := make([]float64, n)
	for i := 0; i < n; i++ {
		sum := pb[i]
		for j := 0; j < i; j++ {
			sum -= r.L.At(i, j) * y[j]
		}
		y[i] = sum
	}

	x := make([]float64, n)
	for i := n - 1; i >= 0; i-- {
		sum := y[i]
		for j := i + 1; j < n; j++ {
			sum -= r.U.At(i, j) * x[j]
		}
		x[i] = sum / r.U.At(i, i)
	}
	return x, nil
}

// Determinant returns det(A) from its LU factorization.
func (r *LUResult) Determinant() float64 {
	det := r.Sign
	for i := 0; i < len(r.Perm); i++ {
		det *= r.U.At(i, i)
	}
	return det
}
