//Package msm estimates and analyzes Markov state models over discretized
//trajectories: transition counting, maximum-likelihood and reversible
//estimation, spectral analysis, implied timescales, Chapman-Kolmogorov
//validation, Bayesian uncertainty and transition-path quantities.
package msm

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// CountMode selects how frame pairs are harvested when counting
// transitions at a lag.
type CountMode int

const (
	// Sliding counts every (t, t+lag) pair. Counts are correlated but all
	// the data is used; this is the standard choice for estimation.
	Sliding CountMode = iota
	// Strided counts only pairs starting at multiples of the lag, giving
	// statistically independent transitions.
	Strided
)

// Counts is a transition count matrix at a fixed lag, together with the
// state labeling it was built on. States are 0-based microstate indices.
type Counts struct {
	C      *mat.Dense //nstates x nstates
	Lag    int
	N      int //number of states
	Mode   CountMode
	Total  float64 //total number of counted transitions
}

// CountMatrix counts transitions at the given lag over one or several
// discrete trajectories. Pairs never straddle trajectory boundaries.
// nstates <= 0 means infer it from the largest label seen.
func CountMatrix(dtrajs [][]int, lag, nstates int, mode CountMode) (*Counts, error) {
	if lag < 1 {
		return nil, fmt.Errorf("msm: lag must be at least 1, got %d", lag)
	}
	if len(dtrajs) == 0 {
		return nil, fmt.Errorf("msm: no discrete trajectories")
	}
	if nstates <= 0 {
		for _, dt := range dtrajs {
			for _, s := range dt {
				if s >= nstates {
					nstates = s + 1
				}
			}
		}
	}
	if nstates == 0 {
		return nil, fmt.Errorf("msm: empty discrete trajectories")
	}
	ret := &Counts{
		C:    mat.NewDense(nstates, nstates, nil),
		Lag:  lag,
		N:    nstates,
		Mode: mode,
	}
	step := 1
	if mode == Strided {
		step = lag
	}
	for _, dt := range dtrajs {
		for t := 0; t+lag < len(dt); t += step {
			i, j := dt[t], dt[t+lag]
			if i < 0 || j < 0 || i >= nstates || j >= nstates {
				return nil, fmt.Errorf("msm: state label out of range: %d -> %d with %d states", i, j, nstates)
			}
			ret.C.Set(i, j, ret.C.At(i, j)+1)
			ret.Total++
		}
	}
	if ret.Total == 0 {
		return nil, fmt.Errorf("msm: no transitions at lag %d, trajectories too short", lag)
	}
	return ret, nil
}

// LargestConnectedSet returns the states of the largest strongly connected
// component of the count matrix, in ascending order. Transitions are edges
// when their count is positive.
func (c *Counts) LargestConnectedSet() []int {
	n := c.N
	//Tarjan-free approach: strongly connected means mutually reachable, so
	//intersect forward and backward reachability from each unvisited seed.
	assigned := make([]int, n)
	for i := range assigned {
		assigned[i] = -1
	}
	ncomp := 0
	for seed := 0; seed < n; seed++ {
		if assigned[seed] >= 0 {
			continue
		}
		fwd := c.reach(seed, false)
		bwd := c.reach(seed, true)
		for i := 0; i < n; i++ {
			if fwd[i] && bwd[i] && assigned[i] < 0 {
				assigned[i] = ncomp
			}
		}
		ncomp++
	}
	sizes := make([]int, ncomp)
	for _, comp := range assigned {
		sizes[comp]++
	}
	best := 0
	for i, s := range sizes {
		if s > sizes[best] {
			best = i
		}
	}
	var ret []int
	for i, comp := range assigned {
		if comp == best {
			ret = append(ret, i)
		}
	}
	return ret
}

// reach marks the states reachable from seed following positive counts,
// against the edge direction when backward is set.
func (c *Counts) reach(seed int, backward bool) []bool {
	n := c.N
	seen := make([]bool, n)
	stack := []int{seed}
	seen[seed] = true
	for len(stack) > 0 {
		s := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for t := 0; t < n; t++ {
			var w float64
			if backward {
				w = c.C.At(t, s)
			} else {
				w = c.C.At(s, t)
			}
			if w > 0 && !seen[t] {
				seen[t] = true
				stack = append(stack, t)
			}
		}
	}
	return seen
}

// Restrict returns a new count matrix over only the given states, plus the
// mapping from new indices to original microstate labels. Discrete
// trajectories must be re-mapped with the same active set before further
// counting.
func (c *Counts) Restrict(states []int) (*Counts, []int, error) {
	if len(states) == 0 {
		return nil, nil, fmt.Errorf("msm: empty active set")
	}
	m := len(states)
	ret := &Counts{
		C:    mat.NewDense(m, m, nil),
		Lag:  c.Lag,
		N:    m,
		Mode: c.Mode,
	}
	for a, i := range states {
		if i < 0 || i >= c.N {
			return nil, nil, fmt.Errorf("msm: state %d outside the original %d states", i, c.N)
		}
		for b, j := range states {
			v := c.C.At(i, j)
			ret.C.Set(a, b, v)
			ret.Total += v
		}
	}
	mapping := make([]int, m)
	copy(mapping, states)
	return ret, mapping, nil
}

// MapTrajs relabels discrete trajectories to the active set given by
// states. Frames in states not present get label -1; the caller decides
// whether to drop or split at those.
func MapTrajs(dtrajs [][]int, states []int) [][]int {
	lookup := make(map[int]int, len(states))
	for idx, old := range states {
		lookup[old] = idx
	}
	ret := make([][]int, len(dtrajs))
	for i, dt := range dtrajs {
		nd := make([]int, len(dt))
		for t, s := range dt {
			if n, ok := lookup[s]; ok {
				nd[t] = n
			} else {
				nd[t] = -1
			}
		}
		ret[i] = nd
	}
	return ret
}
