package msm

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// MSM is an estimated Markov state model: a row-stochastic transition
// matrix at a lag, over the active set recorded in Active (new index ->
// original microstate label).
type MSM struct {
	T          *mat.Dense //nstates x nstates, row-stochastic
	Lag        int
	N          int
	Active     []int
	Reversible bool
}

// reversible MLE iteration parameters
const (
	mleMaxIter = 10000
	mleTol     = 1e-10
)

// Estimate builds an MSM from a count matrix. With reversible set, the
// maximum-likelihood estimator under detailed balance is used (the usual
// fixed-point iteration on x_ij = c_ij + c_ji); otherwise plain row
// normalization. The count matrix should already be restricted to a
// connected set, or the iteration may not converge.
func Estimate(c *Counts, reversible bool) (*MSM, error) {
	if c == nil || c.Total == 0 {
		return nil, fmt.Errorf("msm: empty count matrix")
	}
	n := c.N
	ret := &MSM{
		T:          mat.NewDense(n, n, nil),
		Lag:        c.Lag,
		N:          n,
		Reversible: reversible,
	}
	ret.Active = make([]int, n)
	for i := range ret.Active {
		ret.Active[i] = i
	}
	if !reversible {
		if err := rowNormalize(ret.T, c.C); err != nil {
			return nil, err
		}
		return ret, nil
	}
	//reversible MLE: iterate x_ij = (c_ij + c_ji) / (c_i/x_i + c_j/x_j)
	//where c_i are row sums of counts and x_i row sums of the symmetric x.
	csum := make([]float64, n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			csum[i] += c.C.At(i, j)
		}
		if csum[i] == 0 {
			return nil, fmt.Errorf("msm: state %d has no outgoing counts, restrict to a connected set first", i)
		}
	}
	x := mat.NewDense(n, n, nil)
	//start from the symmetrized counts
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			x.Set(i, j, c.C.At(i, j)+c.C.At(j, i))
		}
	}
	xsum := make([]float64, n)
	for it := 0; it < mleMaxIter; it++ {
		for i := range xsum {
			xsum[i] = 0
			for j := 0; j < n; j++ {
				xsum[i] += x.At(i, j)
			}
		}
		var change float64
		for i := 0; i < n; i++ {
			for j := i; j < n; j++ {
				cs := c.C.At(i, j) + c.C.At(j, i)
				if cs == 0 {
					continue
				}
				denom := csum[i]/xsum[i] + csum[j]/xsum[j]
				v := cs / denom
				if d := math.Abs(v - x.At(i, j)); d > change {
					change = d
				}
				x.Set(i, j, v)
				x.Set(j, i, v)
			}
		}
		if change < mleTol {
			break
		}
	}
	if err := rowNormalize(ret.T, x); err != nil {
		return nil, err
	}
	return ret, nil
}

// rowNormalize fills dst with src scaled so every row sums to one.
func rowNormalize(dst, src *mat.Dense) error {
	r, cols := src.Dims()
	for i := 0; i < r; i++ {
		var sum float64
		for j := 0; j < cols; j++ {
			sum += src.At(i, j)
		}
		if sum <= 0 {
			return fmt.Errorf("msm: row %d sums to %v, can't normalize", i, sum)
		}
		for j := 0; j < cols; j++ {
			dst.Set(i, j, src.At(i, j)/sum)
		}
	}
	return nil
}

// EstimateConnected is the common pipeline: count at the lag, restrict to
// the largest connected set and estimate. It returns the model with its
// Active mapping set to original microstate labels.
func EstimateConnected(dtrajs [][]int, lag, nstates int, reversible bool) (*MSM, error) {
	c, err := CountMatrix(dtrajs, lag, nstates, Sliding)
	if err != nil {
		return nil, err
	}
	lcs := c.LargestConnectedSet()
	rc, mapping, err := c.Restrict(lcs)
	if err != nil {
		return nil, err
	}
	m, err := Estimate(rc, reversible)
	if err != nil {
		return nil, err
	}
	m.Active = mapping
	return m, nil
}

// Propagate returns T^k, the transition matrix propagated k lags ahead.
func (m *MSM) Propagate(k int) *mat.Dense {
	ret := mat.NewDense(m.N, m.N, nil)
	for i := 0; i < m.N; i++ {
		ret.Set(i, i, 1)
	}
	for p := 0; p < k; p++ {
		var tmp mat.Dense
		tmp.Mul(ret, m.T)
		ret.Copy(&tmp)
	}
	return ret
}
