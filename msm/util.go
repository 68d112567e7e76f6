package msm

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Unflatten rebuilds an n x n matrix from a row-major flat slice, as stored
// by the results store.
func Unflatten(flat []float64, n int) (*mat.Dense, error) {
	if len(flat) != n*n {
		return nil, fmt.Errorf("msm: %d values can't fill an %dx%d matrix", len(flat), n, n)
	}
	return mat.NewDense(n, n, flat), nil
}

// Flatten returns the row-major data of a matrix as a flat slice.
func Flatten(M *mat.Dense) []float64 {
	r, c := M.Dims()
	ret := make([]float64, 0, r*c)
	for i := 0; i < r; i++ {
		ret = append(ret, M.RawRowView(i)...)
	}
	return ret
}

// SymFromUpper builds a SymDense from the upper triangle (row-major,
// including the diagonal) of a symmetric matrix, n*(n+1)/2 values.
func SymFromUpper(upper []float64, n int) (*mat.SymDense, error) {
	if len(upper) != n*(n+1)/2 {
		return nil, fmt.Errorf("msm: %d values are not an order-%d upper triangle", len(upper), n)
	}
	ret := mat.NewSymDense(n, nil)
	k := 0
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			ret.SetSym(i, j, upper[k])
			k++
		}
	}
	return ret, nil
}
