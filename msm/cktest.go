package msm

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// CKResult is a Chapman-Kolmogorov test over a set of metastable groups:
// for each multiple k of the base lag, the probability of staying in each
// group as predicted by the base model, T(lag)^k, against the probability
// estimated directly from the data at lag k*lag. Agreement within the
// statistical error validates the Markov assumption at the base lag.
type CKResult struct {
	Lag       int
	Steps     []int       //the multipliers k
	Predicted [][]float64 //Steps x ngroups
	Estimated [][]float64 //Steps x ngroups
	Groups    [][]int     //microstate labels of each group, on the active set
}

// ChapmanKolmogorov runs the CK test for the model m on its own discrete
// trajectories. groups are sets of active-set state indices (typically the
// metastable sets); steps are the lag multipliers to test, e.g. 1..5.
func ChapmanKolmogorov(m *MSM, dtrajs [][]int, groups [][]int, steps []int) (*CKResult, error) {
	if len(groups) == 0 {
		return nil, fmt.Errorf("msm: no groups for the CK test")
	}
	if len(steps) == 0 {
		return nil, fmt.Errorf("msm: no steps for the CK test")
	}
	s, err := m.Eigendecompose()
	if err != nil {
		return nil, err
	}
	ret := &CKResult{
		Lag:       m.Lag,
		Steps:     make([]int, len(steps)),
		Predicted: make([][]float64, len(steps)),
		Estimated: make([][]float64, len(steps)),
		Groups:    groups,
	}
	copy(ret.Steps, steps)
	//remap trajectories onto the active set once
	active := MapTrajs(dtrajs, m.Active)
	for si, k := range steps {
		if k < 1 {
			return nil, fmt.Errorf("msm: CK step must be positive, got %d", k)
		}
		pred := m.Propagate(k)
		ret.Predicted[si] = stayProbabilities(pred, s.Pi, groups)
		//direct estimate at lag k*lag, restricted to the model's states
		mk, err := estimateOnActive(active, k*m.Lag, m.N)
		if err != nil {
			return nil, fmt.Errorf("msm: CK estimation at lag %d: %v", k*m.Lag, err)
		}
		ret.Estimated[si] = stayProbabilities(mk.T, s.Pi, groups)
	}
	return ret, nil
}

// stayProbabilities computes, for each group A, the stationary-weighted
// probability sum_{i in A} pi_i sum_{j in A} T_ij / sum_{i in A} pi_i.
func stayProbabilities(T *mat.Dense, pi []float64, groups [][]int) []float64 {
	ret := make([]float64, len(groups))
	for g, states := range groups {
		var num, den float64
		for _, i := range states {
			den += pi[i]
			for _, j := range states {
				num += pi[i] * T.At(i, j)
			}
		}
		if den > 0 {
			ret[g] = num / den
		}
	}
	return ret
}

// estimateOnActive estimates on trajectories already mapped to the active
// set, dropping frames labeled -1 by splitting trajectories at them.
func estimateOnActive(dtrajs [][]int, lag, nstates int) (*MSM, error) {
	var pieces [][]int
	for _, dt := range dtrajs {
		start := -1
		for t, s := range dt {
			if s < 0 {
				if start >= 0 && t-start > lag {
					pieces = append(pieces, dt[start:t])
				}
				start = -1
				continue
			}
			if start < 0 {
				start = t
			}
		}
		if start >= 0 && len(dt)-start > lag {
			pieces = append(pieces, dt[start:])
		}
	}
	if len(pieces) == 0 {
		return nil, fmt.Errorf("msm: no trajectory segment long enough for lag %d", lag)
	}
	c, err := CountMatrix(pieces, lag, nstates, Sliding)
	if err != nil {
		return nil, err
	}
	//keep the full state set here so group indices stay aligned; rows
	//without counts would fail normalization, so give them a self loop
	for i := 0; i < c.N; i++ {
		var sum float64
		for j := 0; j < c.N; j++ {
			sum += c.C.At(i, j)
		}
		if sum == 0 {
			c.C.Set(i, i, 1)
			c.Total++
		}
	}
	return Estimate(c, false)
}
