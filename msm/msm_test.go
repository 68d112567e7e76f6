package msm

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
)

// sampleChain draws a discrete trajectory from a transition matrix.
func sampleChain(T *mat.Dense, start, nsteps int, seed uint64) []int {
	rng := rand.New(rand.NewSource(seed))
	n, _ := T.Dims()
	ret := make([]int, nsteps)
	s := start
	for t := 0; t < nsteps; t++ {
		ret[t] = s
		r := rng.Float64()
		var acc float64
		for j := 0; j < n; j++ {
			acc += T.At(s, j)
			if r < acc {
				s = j
				break
			}
		}
	}
	return ret
}

func twoStateT() *mat.Dense {
	return mat.NewDense(2, 2, []float64{0.9, 0.1, 0.2, 0.8})
}

func TestCountMatrix(t *testing.T) {
	dtrajs := [][]int{{0, 0, 1, 1, 0}, {1, 0}}
	c, err := CountMatrix(dtrajs, 1, 0, Sliding)
	require.NoError(t, err)
	require.Equal(t, 2, c.N)
	require.Equal(t, 1.0, c.C.At(0, 0))
	require.Equal(t, 1.0, c.C.At(0, 1))
	require.Equal(t, 2.0, c.C.At(1, 0)) //one per trajectory, no cross-boundary pair
	require.Equal(t, 1.0, c.C.At(1, 1))
	require.Equal(t, 5.0, c.Total)

	c2, err := CountMatrix(dtrajs, 2, 0, Strided)
	require.NoError(t, err)
	//only t=0 and t=2 start pairs in the first trajectory, none in the second
	require.Equal(t, 2.0, c2.Total)
}

func TestLargestConnectedSet(t *testing.T) {
	//states 0, 1 communicate; 2 only receives
	dtrajs := [][]int{{0, 1, 0, 1, 2, 2, 2}}
	c, err := CountMatrix(dtrajs, 1, 0, Sliding)
	require.NoError(t, err)
	lcs := c.LargestConnectedSet()
	require.Equal(t, []int{0, 1}, lcs) //2 only self-loops and never feeds back
	rc, mapping, err := c.Restrict(lcs)
	require.NoError(t, err)
	require.Equal(t, []int{0, 1}, mapping)
	require.Equal(t, 2.0, rc.C.At(0, 1))
}

func TestEstimateReversible(t *testing.T) {
	dtraj := sampleChain(twoStateT(), 0, 20000, 7)
	m, err := EstimateConnected([][]int{dtraj}, 1, 0, true)
	require.NoError(t, err)
	s, err := m.Eigendecompose()
	require.NoError(t, err)
	//detailed balance must hold exactly for the reversible estimator
	for i := 0; i < m.N; i++ {
		for j := 0; j < m.N; j++ {
			require.InDelta(t, s.Pi[i]*m.T.At(i, j), s.Pi[j]*m.T.At(j, i), 1e-8)
		}
	}
	//and the estimate must be close to the generating matrix
	require.InDelta(t, 0.9, m.T.At(0, 0), 0.03)
	require.InDelta(t, 0.8, m.T.At(1, 1), 0.03)
}

func TestSpectral(t *testing.T) {
	m := &MSM{T: twoStateT(), Lag: 1, N: 2, Active: []int{0, 1}}
	s, err := m.Eigendecompose()
	require.NoError(t, err)
	require.InDelta(t, 1.0, s.Eigvals[0], 1e-12)
	require.InDelta(t, 0.7, s.Eigvals[1], 1e-12)
	require.InDelta(t, 2.0/3.0, s.Pi[0], 1e-12)
	require.InDelta(t, 1.0/3.0, s.Pi[1], 1e-12)
	ts := s.Timescales(1, 1.0)
	require.InDelta(t, -1/math.Log(0.7), ts[0], 1e-12)
}

func TestImpliedTimescales(t *testing.T) {
	dtraj := sampleChain(twoStateT(), 0, 50000, 3)
	its, err := ImpliedTimescales([][]int{dtraj}, []int{1, 2, 5}, 1, 0, true, 1.0)
	require.NoError(t, err)
	require.Len(t, its.Timescales, 3)
	exact := -1 / math.Log(0.7)
	//a Markovian chain resolves its timescale at every lag
	for _, row := range its.Timescales {
		require.InDelta(t, exact, row[0], 0.5)
	}
}

func TestCommittorsAndMFPT(t *testing.T) {
	T := mat.NewDense(3, 3, []float64{
		0.8, 0.2, 0,
		0.1, 0.8, 0.1,
		0, 0.2, 0.8,
	})
	m := &MSM{T: T, Lag: 1, N: 3, Active: []int{0, 1, 2}}
	q, err := m.Committors([]int{0}, []int{2})
	require.NoError(t, err)
	require.Equal(t, 0.0, q[0])
	require.Equal(t, 1.0, q[2])
	require.InDelta(t, 0.5, q[1], 1e-10)
	mfpt, err := m.MFPT([]int{2})
	require.NoError(t, err)
	require.InDelta(t, 20.0, mfpt[0], 1e-8)
	require.InDelta(t, 15.0, mfpt[1], 1e-8)
	require.Equal(t, 0.0, mfpt[2])
}

func TestReactiveFlux(t *testing.T) {
	T := mat.NewDense(3, 3, []float64{
		0.8, 0.2, 0,
		0.1, 0.8, 0.1,
		0, 0.2, 0.8,
	})
	m := &MSM{T: T, Lag: 1, N: 3, Active: []int{0, 1, 2}}
	tpt, err := m.ReactiveFlux([]int{0}, []int{2})
	require.NoError(t, err)
	require.Greater(t, tpt.TotalF, 0.0)
	require.Greater(t, tpt.Rate, 0.0)
	//net flux can only move towards the sink in this linear chain
	require.Greater(t, tpt.NetFlux.At(0, 1), 0.0)
	require.Equal(t, 0.0, tpt.NetFlux.At(1, 0))
	coarse := tpt.CoarseFlux([][]int{{0}, {1}, {2}})
	require.InDelta(t, tpt.NetFlux.At(0, 1), coarse.At(0, 1), 1e-14)
}

func TestChapmanKolmogorov(t *testing.T) {
	dtraj := sampleChain(twoStateT(), 0, 100000, 11)
	m, err := EstimateConnected([][]int{dtraj}, 1, 0, true)
	require.NoError(t, err)
	ck, err := ChapmanKolmogorov(m, [][]int{dtraj}, [][]int{{0}, {1}}, []int{1, 2, 5})
	require.NoError(t, err)
	for si := range ck.Steps {
		for g := range ck.Groups {
			require.InDelta(t, ck.Predicted[si][g], ck.Estimated[si][g], 0.05,
				"step %d group %d", ck.Steps[si], g)
		}
	}
	//at step 1 the prediction is the estimate itself
	require.InDelta(t, ck.Predicted[0][0], ck.Estimated[0][0], 1e-2)
}

func TestSampleBayes(t *testing.T) {
	dtraj := sampleChain(twoStateT(), 0, 20000, 5)
	c, err := CountMatrix([][]int{dtraj}, 1, 0, Sliding)
	require.NoError(t, err)
	b, err := SampleBayes(c, 200, 1, 1.0, 13)
	require.NoError(t, err)
	require.Len(t, b.Models, 200)
	lo, up, err := b.ConfidenceInterval(0, 0.95)
	require.NoError(t, err)
	require.Less(t, lo, up)
	//the interval should bracket the true timescale of the chain
	exact := -1 / math.Log(0.7)
	require.Less(t, lo, exact)
	require.Greater(t, up, exact*0.8)
}

func TestLump(t *testing.T) {
	//two metastable pairs, {0,1} and {2,3}, rarely crossing
	T := mat.NewDense(4, 4, []float64{
		0.50, 0.49, 0.01, 0.00,
		0.49, 0.50, 0.00, 0.01,
		0.01, 0.00, 0.50, 0.49,
		0.00, 0.01, 0.49, 0.50,
	})
	m := &MSM{T: T, Lag: 1, N: 4, Active: []int{0, 1, 2, 3}}
	meta, err := m.Lump(2, 17)
	require.NoError(t, err)
	require.Equal(t, meta.Assignments[0], meta.Assignments[1])
	require.Equal(t, meta.Assignments[2], meta.Assignments[3])
	require.NotEqual(t, meta.Assignments[0], meta.Assignments[2])
	var total float64
	for _, p := range meta.Populations {
		total += p
	}
	require.InDelta(t, 1.0, total, 1e-10)
	//populations come out sorted
	require.GreaterOrEqual(t, meta.Populations[0], meta.Populations[1])
}

func TestFlattenRoundTrip(t *testing.T) {
	M := mat.NewDense(2, 2, []float64{1, 2, 3, 4})
	back, err := Unflatten(Flatten(M), 2)
	require.NoError(t, err)
	require.True(t, mat.Equal(M, back))
	_, err = Unflatten([]float64{1, 2, 3}, 2)
	require.Error(t, err)
	S, err := SymFromUpper([]float64{1, 2, 3}, 2)
	require.NoError(t, err)
	require.Equal(t, 2.0, S.At(1, 0))
}
