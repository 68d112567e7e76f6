package msm

import (
	"fmt"
	"math"
)

// ITS is an implied-timescales scan: for each candidate lag, the k slowest
// relaxation timescales of the MSM estimated at that lag. Timescales are in
// the unit of dt. Entries can be +Inf (eigenvalue at 1) or NaN (process not
// resolved at that lag).
type ITS struct {
	Lags       []int
	Timescales [][]float64 //one row per lag, k columns
	K          int
	Dt         float64
}

// ImpliedTimescales estimates an MSM at every lag in lags and collects the
// k slowest implied timescales of each. Lags at which fewer than k+1 states
// survive the connectivity restriction get NaN for the missing processes.
// Timescale curves that level off mark the shortest usable lag.
func ImpliedTimescales(dtrajs [][]int, lags []int, k, nstates int, reversible bool, dt float64) (*ITS, error) {
	if len(lags) == 0 {
		return nil, fmt.Errorf("msm: no lags to scan")
	}
	if k < 1 {
		return nil, fmt.Errorf("msm: need at least one timescale, got k=%d", k)
	}
	ret := &ITS{
		Lags:       make([]int, len(lags)),
		Timescales: make([][]float64, len(lags)),
		K:          k,
		Dt:         dt,
	}
	copy(ret.Lags, lags)
	for li, lag := range lags {
		row := make([]float64, k)
		for i := range row {
			row[i] = math.NaN()
		}
		ret.Timescales[li] = row
		m, err := EstimateConnected(dtrajs, lag, nstates, reversible)
		if err != nil {
			return nil, fmt.Errorf("msm: lag %d: %v", lag, err)
		}
		s, err := m.Eigendecompose()
		if err != nil {
			return nil, fmt.Errorf("msm: lag %d: %v", lag, err)
		}
		ts := s.Timescales(lag, dt)
		for i := 0; i < k && i < len(ts); i++ {
			row[i] = ts[i]
		}
	}
	return ret, nil
}

// Converged reports the first lag index at which the slowest timescale
// changes by less than reltol relative to the previous lag, or -1 when the
// scan never settles. It is a rough plateau detector; the plot remains the
// real diagnostic.
func (its *ITS) Converged(reltol float64) int {
	for i := 1; i < len(its.Lags); i++ {
		prev := its.Timescales[i-1][0]
		cur := its.Timescales[i][0]
		if math.IsNaN(prev) || math.IsNaN(cur) || math.IsInf(prev, 0) || math.IsInf(cur, 0) {
			continue
		}
		if math.Abs(cur-prev) <= reltol*math.Abs(prev) {
			return i
		}
	}
	return -1
}
