//Package tica implements time-lagged independent component analysis and a
//Koopman/VAMP decomposition over dihedral-feature trajectories. Both start
//from the streaming covariance accumulator in this package; the heavy linear
//algebra is delegated to gonum.
package tica

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Model is an estimated TICA decomposition. Columns of Eigvecs are the
// independent components, normalized so that the projected coordinates have
// unit variance; Eigvals are the matching autocorrelations at the model lag,
// sorted in descending order.
type Model struct {
	Lag     int
	Eigvals []float64
	Eigvecs *mat.Dense //dim x dim, one component per column
	mean    []float64
	dim     int
}

// Estimate solves the TICA generalized eigenproblem Ct v = lambda C0 v using
// the symmetrized (reversible) covariances in c. reg is added to the diagonal
// of C0 so its Cholesky factorization exists even for rank-deficient
// features; 0 is allowed. The problem is reduced to an ordinary symmetric one
// with the Cholesky factor, L^-1 Ct L^-T, so eigenvalues come out real.
func Estimate(c *Covariances, reg float64) (*Model, error) {
	if c == nil || c.Pairs() == 0 {
		return nil, fmt.Errorf("tica: no data accumulated")
	}
	dim := c.Dim()
	c0 := c.C0Sym()
	if reg > 0 {
		for i := 0; i < dim; i++ {
			c0.SetSym(i, i, c0.At(i, i)+reg)
		}
	}
	ct := c.CtSym()
	var chol mat.Cholesky
	if ok := chol.Factorize(c0); !ok {
		return nil, fmt.Errorf("tica: C0 is not positive definite; try a larger regularization")
	}
	var L mat.TriDense
	chol.LTo(&L)
	//W = L^-1 Ct L^-T, via two triangular solves
	var A, W mat.Dense
	if err := A.Solve(&L, ct); err != nil {
		return nil, fmt.Errorf("tica: %v", err)
	}
	if err := W.Solve(&L, A.T()); err != nil {
		return nil, fmt.Errorf("tica: %v", err)
	}
	//force exact symmetry, the solves leave roundoff behind
	sw := mat.NewSymDense(dim, nil)
	for i := 0; i < dim; i++ {
		for j := i; j < dim; j++ {
			sw.SetSym(i, j, 0.5*(W.At(i, j)+W.At(j, i)))
		}
	}
	var eig mat.EigenSym
	if ok := eig.Factorize(sw, true); !ok {
		return nil, fmt.Errorf("tica: eigendecomposition failed")
	}
	vals := eig.Values(nil) //ascending in gonum
	var U mat.Dense
	eig.VectorsTo(&U)
	//back-transform: V = L^-T U, so that V^T C0 V = I
	var V mat.Dense
	if err := V.Solve(L.T(), &U); err != nil {
		return nil, fmt.Errorf("tica: %v", err)
	}
	m := new(Model)
	m.Lag = c.Lag()
	m.dim = dim
	m.mean = c.Mean()
	m.Eigvals = make([]float64, dim)
	m.Eigvecs = mat.NewDense(dim, dim, nil)
	//descending order
	for i := 0; i < dim; i++ {
		src := dim - 1 - i
		m.Eigvals[i] = vals[src]
		for j := 0; j < dim; j++ {
			m.Eigvecs.Set(j, i, V.At(j, src))
		}
	}
	return m, nil
}

// Dim returns the input feature dimension.
func (m *Model) Dim() int { return m.dim }

// Mean returns the data mean subtracted before projection.
func (m *Model) Mean() []float64 { return m.mean }

// Timescales returns the implied timescale of each component,
// -lag*dt / ln|lambda|, in the unit of dt (pass dt=1 for frames). Components
// with non-positive or unit eigenvalues get +Inf.
func (m *Model) Timescales(dt float64) []float64 {
	ret := make([]float64, len(m.Eigvals))
	for i, l := range m.Eigvals {
		a := math.Abs(l)
		if a >= 1 || a == 0 {
			ret[i] = math.Inf(1)
			continue
		}
		ret[i] = -float64(m.Lag) * dt / math.Log(a)
	}
	return ret
}

// Transform projects a feature trajectory (one frame per row) onto the k
// leading independent components. It returns an nframes x k matrix.
func (m *Model) Transform(X *mat.Dense, k int) (*mat.Dense, error) {
	if X == nil {
		return nil, fmt.Errorf("tica: nil feature trajectory")
	}
	if k < 1 || k > m.dim {
		return nil, fmt.Errorf("tica: requested %d components of %d", k, m.dim)
	}
	r, cols := X.Dims()
	if cols != m.dim {
		return nil, fmt.Errorf("tica: trajectory has %d features, %d expected", cols, m.dim)
	}
	ret := mat.NewDense(r, k, nil)
	for t := 0; t < r; t++ {
		row := X.RawRowView(t)
		for j := 0; j < k; j++ {
			var acc float64
			for i := 0; i < m.dim; i++ {
				acc += (row[i] - m.mean[i]) * m.Eigvecs.At(i, j)
			}
			ret.Set(t, j, acc)
		}
	}
	return ret, nil
}

// TransformAll projects several feature trajectories, keeping them separate.
func (m *Model) TransformAll(Xs []*mat.Dense, k int) ([]*mat.Dense, error) {
	ret := make([]*mat.Dense, len(Xs))
	var err error
	for i, X := range Xs {
		ret[i], err = m.Transform(X, k)
		if err != nil {
			return nil, err
		}
	}
	return ret, nil
}
