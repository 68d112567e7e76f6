package tica

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Koopman is a VAMP-style decomposition of the whitened Koopman matrix
// K = C00^-1/2 C0t C11^-1/2. Its singular values are the VAMP singular
// values; the columns of U and V are the coefficient matrices of the left
// and right singular functions in whitened feature space.
type Koopman struct {
	Lag      int
	K        *mat.Dense
	Singvals []float64
	U, V     *mat.Dense
}

// floor for covariance eigenvalues when building the inverse square roots.
// Directions with less variance than this are projected out.
const whiteningEps = 1e-10

// invSqrtSym returns M^-1/2 for a positive semi-definite M, built from its
// eigendecomposition with small eigenvalues floored out.
func invSqrtSym(M *mat.SymDense) (*mat.Dense, error) {
	n := M.SymmetricDim()
	var eig mat.EigenSym
	if ok := eig.Factorize(M, true); !ok {
		return nil, fmt.Errorf("tica: eigendecomposition failed in whitening")
	}
	vals := eig.Values(nil)
	var Q mat.Dense
	eig.VectorsTo(&Q)
	D := mat.NewDense(n, n, nil)
	for i, v := range vals {
		if v > whiteningEps {
			D.Set(i, i, 1/math.Sqrt(v))
		}
	}
	ret := mat.NewDense(n, n, nil)
	var tmp mat.Dense
	tmp.Mul(&Q, D)
	ret.Mul(&tmp, Q.T())
	return ret, nil
}

// EstimateKoopman computes the whitened Koopman matrix from the
// (non-symmetrized) covariances in c and decomposes it by SVD.
func EstimateKoopman(c *Covariances) (*Koopman, error) {
	if c == nil || c.Pairs() == 0 {
		return nil, fmt.Errorf("tica: no data accumulated")
	}
	s00, err := invSqrtSym(c.C00())
	if err != nil {
		return nil, err
	}
	s11, err := invSqrtSym(c.C11())
	if err != nil {
		return nil, err
	}
	var tmp, K mat.Dense
	tmp.Mul(s00, c.C0t())
	K.Mul(&tmp, s11)
	var svd mat.SVD
	if ok := svd.Factorize(&K, mat.SVDThin); !ok {
		return nil, fmt.Errorf("tica: SVD of the Koopman matrix failed")
	}
	k := new(Koopman)
	k.Lag = c.Lag()
	k.K = &K
	k.Singvals = svd.Values(nil)
	var u, v mat.Dense
	svd.UTo(&u)
	svd.VTo(&v)
	k.U = &u
	k.V = &v
	return k, nil
}

// VAMP2 returns the VAMP-2 score, the squared sum of the leading n singular
// values (n <= 0 means all). Higher is better; it is the standard objective
// for comparing featurizations and lag times.
func (k *Koopman) VAMP2(n int) float64 {
	if n <= 0 || n > len(k.Singvals) {
		n = len(k.Singvals)
	}
	var score float64
	for _, s := range k.Singvals[:n] {
		//singular values above 1 are estimation noise, clamp them
		if s > 1 {
			s = 1
		}
		score += s * s
	}
	return score
}

// Timescales returns -lag*dt/ln(sigma_i) for each singular value inside
// (0, 1), +Inf otherwise.
func (k *Koopman) Timescales(dt float64) []float64 {
	ret := make([]float64, len(k.Singvals))
	for i, s := range k.Singvals {
		if s >= 1 || s <= 0 {
			ret[i] = math.Inf(1)
			continue
		}
		ret[i] = -float64(k.Lag) * dt / math.Log(s)
	}
	return ret
}
