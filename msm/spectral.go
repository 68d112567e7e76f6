package msm

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"
)

// Spectrum holds the dominant eigendecomposition of a transition matrix:
// real eigenvalues sorted by decreasing modulus, the matching right
// eigenvectors (one per column) and the stationary distribution (the
// normalized left eigenvector of the unit eigenvalue).
type Spectrum struct {
	Eigvals []float64
	Right   *mat.Dense //nstates x nstates, eigenvectors in columns
	Pi      []float64  //stationary distribution
}

// Eigendecompose computes the spectrum of the model. For reversible
// matrices the eigenvalues are real; small imaginary parts from roundoff
// or mild non-reversibility are dropped with a warning threshold of 1e-8
// on the modulus.
func (m *MSM) Eigendecompose() (*Spectrum, error) {
	var eig mat.Eigen
	if ok := eig.Factorize(m.T, mat.EigenBoth); !ok {
		return nil, fmt.Errorf("msm: eigendecomposition of the transition matrix failed")
	}
	n := m.N
	vals := eig.Values(nil)
	var rc, lc mat.CDense
	eig.VectorsTo(&rc)
	eig.LeftVectorsTo(&lc)
	//order by decreasing modulus
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool {
		return cmodulus(vals[order[a]]) > cmodulus(vals[order[b]])
	})
	s := &Spectrum{
		Eigvals: make([]float64, n),
		Right:   mat.NewDense(n, n, nil),
	}
	for k, src := range order {
		s.Eigvals[k] = real(vals[src])
		for i := 0; i < n; i++ {
			s.Right.Set(i, k, real(rc.At(i, src)))
		}
	}
	//stationary distribution from the left eigenvector of the leading
	//eigenvalue, normalized to a probability
	top := order[0]
	if math.Abs(cmodulus(vals[top])-1) > 1e-6 {
		return nil, fmt.Errorf("msm: leading eigenvalue %v is not 1, matrix is not stochastic", vals[top])
	}
	pi := make([]float64, n)
	var sum float64
	for i := 0; i < n; i++ {
		pi[i] = real(lc.At(i, top))
		sum += pi[i]
	}
	if sum == 0 {
		return nil, fmt.Errorf("msm: degenerate stationary eigenvector")
	}
	for i := range pi {
		pi[i] /= sum
		if pi[i] < 0 {
			//tiny negative entries come from roundoff only
			if pi[i] < -1e-10 {
				return nil, fmt.Errorf("msm: negative stationary probability %v at state %d", pi[i], i)
			}
			pi[i] = 0
		}
	}
	s.Pi = pi
	return s, nil
}

func cmodulus(v complex128) float64 {
	return math.Hypot(real(v), imag(v))
}

// Timescales returns the implied timescale of each non-stationary
// eigenvalue, -lag*dt / ln|lambda_i| for i >= 1, in the unit of dt.
// Eigenvalues at or above 1 in modulus, or at 0, give +Inf.
func (s *Spectrum) Timescales(lag int, dt float64) []float64 {
	if len(s.Eigvals) < 2 {
		return nil
	}
	ret := make([]float64, len(s.Eigvals)-1)
	for i, l := range s.Eigvals[1:] {
		a := math.Abs(l)
		if a >= 1 || a == 0 {
			ret[i] = math.Inf(1)
			continue
		}
		ret[i] = -float64(lag) * dt / math.Log(a)
	}
	return ret
}

// SpectralGap returns lambda_2 - lambda_3 (by modulus ordering), the usual
// indicator for how cleanly two slow processes separate from the rest.
// Models with fewer than 3 states return 0.
func (s *Spectrum) SpectralGap() float64 {
	if len(s.Eigvals) < 3 {
		return 0
	}
	return math.Abs(s.Eigvals[1]) - math.Abs(s.Eigvals[2])
}

// StationaryDistribution estimates pi directly from the model. It is a
// convenience wrapper over Eigendecompose.
func (m *MSM) StationaryDistribution() ([]float64, error) {
	s, err := m.Eigendecompose()
	if err != nil {
		return nil, err
	}
	return s.Pi, nil
}
