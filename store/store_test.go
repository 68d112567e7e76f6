package store

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSaveLoadRoundTrip(t *testing.T) {
	db, err := Open(":memory:")
	require.NoError(t, err)
	defer db.Close()

	r := &Result{
		Attempt:     2,
		NStates:     100,
		Lag:         10,
		Sorter:      []int{1, 0, 2},
		Populations: []float64{0.6, 0.3, 0.1},
		TransMat:    []float64{0.9, 0.1, 0.2, 0.8},
		ITSLags:     []int{1, 2, 5, 10},
		ITS:         [][]float64{{3.1}, {3.3}, {3.4}, {3.4}},
		CKSteps:     []int{1, 2, 3},
		CKPred:      [][]float64{{0.9}, {0.85}, {0.8}},
		CKEst:       [][]float64{{0.89}, {0.84}, {0.81}},
		VAMP2:       1.73,
	}
	require.NoError(t, db.Save(r))

	got, err := db.Load(2, 100, 10)
	require.NoError(t, err)
	require.Equal(t, r.Sorter, got.Sorter)
	require.Equal(t, r.Populations, got.Populations)
	require.Equal(t, r.TransMat, got.TransMat)
	require.Equal(t, r.ITSLags, got.ITSLags)
	require.Equal(t, r.ITS, got.ITS)
	require.Equal(t, r.CKPred, got.CKPred)
	require.Equal(t, r.VAMP2, got.VAMP2)
	require.False(t, got.CreatedAt.IsZero())
}

func TestSaveReplaces(t *testing.T) {
	db, err := Open(":memory:")
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, db.Save(&Result{Attempt: 1, NStates: 50, Lag: 5, VAMP2: 1.0}))
	require.NoError(t, db.Save(&Result{Attempt: 1, NStates: 50, Lag: 5, VAMP2: 2.0}))
	got, err := db.Load(1, 50, 5)
	require.NoError(t, err)
	require.Equal(t, 2.0, got.VAMP2)
	keys, err := db.List()
	require.NoError(t, err)
	require.Len(t, keys, 1)
}

func TestListAndDelete(t *testing.T) {
	db, err := Open(":memory:")
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, db.Save(&Result{Attempt: 1, NStates: 50, Lag: 5}))
	require.NoError(t, db.Save(&Result{Attempt: 1, NStates: 100, Lag: 5}))
	require.NoError(t, db.Save(&Result{Attempt: 2, NStates: 50, Lag: 10}))
	keys, err := db.List()
	require.NoError(t, err)
	require.Equal(t, [][3]int{{1, 50, 5}, {1, 100, 5}, {2, 50, 10}}, keys)

	ok, err := db.Delete(1, 100, 5)
	require.NoError(t, err)
	require.True(t, ok)
	ok, err = db.Delete(9, 9, 9)
	require.NoError(t, err)
	require.False(t, ok)
	_, err = db.Load(1, 100, 5)
	require.Error(t, err)
}
