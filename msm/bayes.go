package msm

import (
	"fmt"
	"sort"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distmv"
)

// BayesResult is a sample of MSMs drawn from the posterior over transition
// matrices given a count matrix, plus the implied timescales of every
// sample. It backs error bars on timescales and CK curves.
type BayesResult struct {
	Models     []*MSM
	Timescales [][]float64 //one row per sample, k columns
	Lag        int
	K          int
}

// prior pseudocount added to every observed transition. A small uniform
// prior keeps the posterior proper on rows with sparse counts.
const dirichletPrior = 1.0 / 2.0

// SampleBayes draws nsamples transition matrices from the row-wise
// Dirichlet posterior of the count matrix and records the k slowest implied
// timescales of each. The counts should be restricted to a connected set.
// Sampling is row-independent, so the samples are not reversible; for the
// uncertainty estimates this is the standard cheap choice.
func SampleBayes(c *Counts, nsamples, k int, dt float64, seed uint64) (*BayesResult, error) {
	if c == nil || c.Total == 0 {
		return nil, fmt.Errorf("msm: empty count matrix")
	}
	if nsamples < 1 {
		return nil, fmt.Errorf("msm: need at least one posterior sample")
	}
	n := c.N
	src := rand.NewSource(seed)
	//one Dirichlet per row, with the prior folded into the concentration
	dirs := make([]*distmv.Dirichlet, n)
	for i := 0; i < n; i++ {
		alpha := make([]float64, n)
		for j := 0; j < n; j++ {
			alpha[j] = c.C.At(i, j) + dirichletPrior
		}
		dirs[i] = distmv.NewDirichlet(alpha, src)
	}
	ret := &BayesResult{
		Models:     make([]*MSM, nsamples),
		Timescales: make([][]float64, nsamples),
		Lag:        c.Lag,
		K:          k,
	}
	row := make([]float64, n)
	for s := 0; s < nsamples; s++ {
		m := &MSM{
			T:   mat.NewDense(n, n, nil),
			Lag: c.Lag,
			N:   n,
		}
		m.Active = make([]int, n)
		for i := range m.Active {
			m.Active[i] = i
		}
		for i := 0; i < n; i++ {
			dirs[i].Rand(row)
			m.T.SetRow(i, row)
		}
		ret.Models[s] = m
		sp, err := m.Eigendecompose()
		if err != nil {
			return nil, fmt.Errorf("msm: posterior sample %d: %v", s, err)
		}
		ts := sp.Timescales(c.Lag, dt)
		tk := make([]float64, k)
		for i := 0; i < k; i++ {
			if i < len(ts) {
				tk[i] = ts[i]
			}
		}
		ret.Timescales[s] = tk
	}
	return ret, nil
}

// ConfidenceInterval returns, for the i-th slowest timescale, the lower and
// upper bounds of the central interval covering the given fraction of the
// posterior samples (e.g. 0.95).
func (b *BayesResult) ConfidenceInterval(i int, level float64) (lo, up float64, err error) {
	if i < 0 || i >= b.K {
		return 0, 0, fmt.Errorf("msm: timescale index %d out of the %d sampled", i, b.K)
	}
	if level <= 0 || level >= 1 {
		return 0, 0, fmt.Errorf("msm: confidence level must be in (0, 1), got %v", level)
	}
	vals := make([]float64, len(b.Timescales))
	for s, ts := range b.Timescales {
		vals[s] = ts[i]
	}
	sort.Float64s(vals)
	tail := (1 - level) / 2
	nlo := int(tail * float64(len(vals)))
	nup := len(vals) - 1 - nlo
	return vals[nlo], vals[nup], nil
}
