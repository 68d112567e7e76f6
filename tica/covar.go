package tica

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Covariances accumulates, in streaming fashion, the raw moments needed for
// the mean-free instantaneous and time-lagged covariance matrices of one or
// several feature trajectories at a fixed lag. Trajectories are added one at
// a time, so no pair ever straddles a trajectory boundary.
type Covariances struct {
	dim   int
	lag   int
	n     float64   //number of (x, y) pairs seen
	sumX  []float64 //sums of the instantaneous frames
	sumY  []float64 //sums of the lagged frames
	sXX   *mat.Dense
	sYY   *mat.Dense
	sXY   *mat.Dense
}

// NewCovariances returns an accumulator for dim-dimensional features at the
// given lag, in frames.
func NewCovariances(dim, lag int) (*Covariances, error) {
	if dim < 1 || lag < 1 {
		return nil, fmt.Errorf("tica: bad covariance shape: dim %d, lag %d", dim, lag)
	}
	return &Covariances{
		dim:  dim,
		lag:  lag,
		sumX: make([]float64, dim),
		sumY: make([]float64, dim),
		sXX:  mat.NewDense(dim, dim, nil),
		sYY:  mat.NewDense(dim, dim, nil),
		sXY:  mat.NewDense(dim, dim, nil),
	}, nil
}

// Lag returns the lag, in frames.
func (c *Covariances) Lag() int { return c.lag }

// Dim returns the feature dimension.
func (c *Covariances) Dim() int { return c.dim }

// Pairs returns the number of (t, t+lag) frame pairs accumulated so far.
func (c *Covariances) Pairs() int { return int(c.n) }

// AddTraj accumulates all the (t, t+lag) pairs of one feature trajectory,
// one frame per row. Trajectories shorter than lag+1 frames contribute
// nothing and are reported as an error.
func (c *Covariances) AddTraj(X *mat.Dense) error {
	if X == nil {
		return fmt.Errorf("tica: nil feature trajectory")
	}
	r, cols := X.Dims()
	if cols != c.dim {
		return fmt.Errorf("tica: trajectory has %d features, %d expected", cols, c.dim)
	}
	if r <= c.lag {
		return fmt.Errorf("tica: trajectory with %d frames is too short for lag %d", r, c.lag)
	}
	for t := 0; t < r-c.lag; t++ {
		x := X.RawRowView(t)
		y := X.RawRowView(t + c.lag)
		for i := 0; i < c.dim; i++ {
			c.sumX[i] += x[i]
			c.sumY[i] += y[i]
			for j := 0; j < c.dim; j++ {
				c.sXX.Set(i, j, c.sXX.At(i, j)+x[i]*x[j])
				c.sYY.Set(i, j, c.sYY.At(i, j)+y[i]*y[j])
				c.sXY.Set(i, j, c.sXY.At(i, j)+x[i]*y[j])
			}
		}
		c.n++
	}
	return nil
}

// meanX returns the mean of the instantaneous frames.
func (c *Covariances) meanX() []float64 {
	m := make([]float64, c.dim)
	for i := range m {
		m[i] = c.sumX[i] / c.n
	}
	return m
}

func (c *Covariances) meanY() []float64 {
	m := make([]float64, c.dim)
	for i := range m {
		m[i] = c.sumY[i] / c.n
	}
	return m
}

// Mean returns the symmetrized data mean, i.e. the mean over both the
// instantaneous and the lagged frames.
func (c *Covariances) Mean() []float64 {
	m := make([]float64, c.dim)
	for i := range m {
		m[i] = (c.sumX[i] + c.sumY[i]) / (2 * c.n)
	}
	return m
}

// C00 returns the mean-free covariance of the instantaneous frames.
func (c *Covariances) C00() *mat.SymDense {
	return c.covar(c.sXX, c.meanX(), c.meanX())
}

// C11 returns the mean-free covariance of the lagged frames.
func (c *Covariances) C11() *mat.SymDense {
	return c.covar(c.sYY, c.meanY(), c.meanY())
}

// C0t returns the mean-free time-lagged covariance. It is, in general, not
// symmetric.
func (c *Covariances) C0t() *mat.Dense {
	ret := mat.NewDense(c.dim, c.dim, nil)
	mx := c.meanX()
	my := c.meanY()
	for i := 0; i < c.dim; i++ {
		for j := 0; j < c.dim; j++ {
			ret.Set(i, j, c.sXY.At(i, j)/c.n-mx[i]*my[j])
		}
	}
	return ret
}

// C0Sym returns the symmetrized (reversible) instantaneous covariance,
// 0.5*(C00+C11) computed around the symmetrized mean.
func (c *Covariances) C0Sym() *mat.SymDense {
	m := c.Mean()
	ret := mat.NewSymDense(c.dim, nil)
	for i := 0; i < c.dim; i++ {
		for j := i; j < c.dim; j++ {
			v := (c.sXX.At(i, j)+c.sYY.At(i, j))/(2*c.n) - m[i]*m[j]
			ret.SetSym(i, j, v)
		}
	}
	return ret
}

// CtSym returns the symmetrized (reversible) time-lagged covariance,
// 0.5*(C0t+C0t^T) computed around the symmetrized mean.
func (c *Covariances) CtSym() *mat.SymDense {
	m := c.Mean()
	ret := mat.NewSymDense(c.dim, nil)
	for i := 0; i < c.dim; i++ {
		for j := i; j < c.dim; j++ {
			v := (c.sXY.At(i, j)+c.sXY.At(j, i))/(2*c.n) - m[i]*m[j]
			ret.SetSym(i, j, v)
		}
	}
	return ret
}

// covar builds (raw/n - outer(mx, my)) as a SymDense. Only valid when the
// result is actually symmetric.
func (c *Covariances) covar(raw *mat.Dense, mx, my []float64) *mat.SymDense {
	ret := mat.NewSymDense(c.dim, nil)
	for i := 0; i < c.dim; i++ {
		for j := i; j < c.dim; j++ {
			ret.SetSym(i, j, raw.At(i, j)/c.n-mx[i]*my[j])
		}
	}
	return ret
}
