package tica

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

func TestCovariances(t *testing.T) {
	c, err := NewCovariances(1, 1)
	require.NoError(t, err)
	X := mat.NewDense(4, 1, []float64{1, 2, 3, 4})
	require.NoError(t, c.AddTraj(X))
	require.Equal(t, 3, c.Pairs())
	//pairs (1,2) (2,3) (3,4): meanX=2, meanY=3
	require.InDelta(t, 2.5, c.Mean()[0], 1e-12)
	require.InDelta(t, 2.0/3, c.C00().At(0, 0), 1e-12)
	require.InDelta(t, 2.0/3, c.C11().At(0, 0), 1e-12)
	require.InDelta(t, 2.0/3, c.C0t().At(0, 0), 1e-12)
	require.InDelta(t, 43.0/6-6.25, c.C0Sym().At(0, 0), 1e-12)
	require.InDelta(t, 20.0/3-6.25, c.CtSym().At(0, 0), 1e-12)

	_, err = NewCovariances(0, 1)
	require.Error(t, err)
	require.Error(t, c.AddTraj(mat.NewDense(3, 2, nil)))        //wrong dim
	require.Error(t, c.AddTraj(mat.NewDense(1, 1, []float64{1}))) //too short
}

// slowFast mixes a slow and a fast cosine into two correlated features.
// Returns the feature matrix and the slow component by itself.
func slowFast(n int) (*mat.Dense, []float64) {
	X := mat.NewDense(n, 2, nil)
	slow := make([]float64, n)
	for t := 0; t < n; t++ {
		s := math.Cos(2 * math.Pi * float64(t) / 200)
		f := math.Cos(math.Pi * float64(t) / 2) //period 4
		slow[t] = s
		X.Set(t, 0, s+0.5*f)
		X.Set(t, 1, s-0.5*f)
	}
	return X, slow
}

func TestTICARecoversSlowMode(t *testing.T) {
	X, slow := slowFast(1000)
	c, err := NewCovariances(2, 5)
	require.NoError(t, err)
	require.NoError(t, c.AddTraj(X))
	m, err := Estimate(c, 0)
	require.NoError(t, err)
	require.Len(t, m.Eigvals, 2)
	require.Greater(t, m.Eigvals[0], m.Eigvals[1])
	//the slow cosine autocorrelates as cos(2*pi*lag/200) at lag 5
	require.InDelta(t, math.Cos(math.Pi/20), m.Eigvals[0], 0.02)
	//the fast mode has period 4, so lag 5 lands a quarter period off
	require.InDelta(t, 0, m.Eigvals[1], 0.1)

	//the leading projection is the slow component, up to sign and scale
	P, err := m.Transform(X, 1)
	require.NoError(t, err)
	proj := mat.Col(nil, 0, P)
	corr := stat.Correlation(proj, slow, nil)
	require.Greater(t, math.Abs(corr), 0.99)
	//components are normalized to unit variance of the projection
	require.InDelta(t, 1, stat.Variance(proj, nil), 0.1)

	ts := m.Timescales(1)
	require.Greater(t, ts[0], ts[1])

	_, err = m.Transform(X, 3)
	require.Error(t, err)
	_, err = Estimate(&Covariances{}, 0)
	require.Error(t, err)
}

func TestKoopmanVAMP(t *testing.T) {
	X, _ := slowFast(1000)
	c, err := NewCovariances(2, 5)
	require.NoError(t, err)
	require.NoError(t, c.AddTraj(X))
	k, err := EstimateKoopman(c)
	require.NoError(t, err)
	require.Len(t, k.Singvals, 2)
	require.GreaterOrEqual(t, k.Singvals[0], k.Singvals[1])
	require.InDelta(t, math.Cos(math.Pi/20), k.Singvals[0], 0.02)

	//VAMP-2 accumulates squared singular values
	s0 := k.Singvals[0]
	if s0 > 1 {
		s0 = 1
	}
	require.InDelta(t, s0*s0, k.VAMP2(1), 1e-12)
	require.GreaterOrEqual(t, k.VAMP2(0), k.VAMP2(1))
	require.LessOrEqual(t, k.VAMP2(0), 2.0)

	ts := k.Timescales(1)
	require.True(t, ts[0] > 0)
}

func TestAutocorr(t *testing.T) {
	n := 256
	series := make([]float64, n)
	for i := range series {
		series[i] = math.Cos(2 * math.Pi * float64(i) / 8)
	}
	acf, err := Autocorr(series, 8)
	require.NoError(t, err)
	require.Len(t, acf, 9)
	require.InDelta(t, 1, acf[0], 1e-12)
	require.InDelta(t, 0, acf[2], 0.02)  //quarter period
	require.InDelta(t, -1, acf[4], 0.02) //half period
	require.InDelta(t, 1, acf[8], 0.02)  //full period

	_, err = Autocorr([]float64{1}, 4)
	require.Error(t, err)
	constant := make([]float64, 10)
	_, err = Autocorr(constant, 4)
	require.Error(t, err)
}
