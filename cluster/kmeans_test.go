package cluster

import (
	"testing"

	"gonum.org/v1/gonum/mat"
)

// three well-separated blobs in 2D
func blobs() *mat.Dense {
	data := []float64{
		0.1, 0.0,
		-0.1, 0.1,
		0.0, -0.1,
		0.1, 0.1,
		10.0, 10.1,
		10.1, 9.9,
		9.9, 10.0,
		10.0, 10.0,
		-10.0, 10.0,
		-10.1, 10.1,
		-9.9, 9.9,
		-10.0, 10.1,
	}
	return mat.NewDense(12, 2, data)
}

func TestKMeans(Te *testing.T) {
	X := blobs()
	km, err := Run(X, 3, Options{Seed: 42})
	if err != nil {
		Te.Fatal(err)
	}
	//every blob must land in one cluster
	groups := [][]int{{0, 1, 2, 3}, {4, 5, 6, 7}, {8, 9, 10, 11}}
	for _, g := range groups {
		first := km.Assignments[g[0]]
		for _, i := range g[1:] {
			if km.Assignments[i] != first {
				Te.Errorf("points %d and %d of the same blob got clusters %d and %d", g[0], i, first, km.Assignments[i])
			}
		}
	}
	if km.Inertia > 1.0 {
		Te.Errorf("inertia too large for separated blobs: %v", km.Inertia)
	}
	//determinism
	km2, err := Run(X, 3, Options{Seed: 42})
	if err != nil {
		Te.Fatal(err)
	}
	for i := range km.Assignments {
		if km.Assignments[i] != km2.Assignments[i] {
			Te.Error("same seed produced different assignments")
			break
		}
	}
}

func TestKMeansAssign(Te *testing.T) {
	X := blobs()
	km, err := Run(X, 3, Options{Seed: 1})
	if err != nil {
		Te.Fatal(err)
	}
	probe := mat.NewDense(2, 2, []float64{0.05, 0.05, 9.95, 10.05})
	got, err := km.Assign(probe)
	if err != nil {
		Te.Fatal(err)
	}
	if got[0] != km.Assignments[0] {
		Te.Errorf("probe near the first blob assigned to %d, want %d", got[0], km.Assignments[0])
	}
	if got[1] != km.Assignments[4] {
		Te.Errorf("probe near the second blob assigned to %d, want %d", got[1], km.Assignments[4])
	}
}

func TestKMeansErrors(Te *testing.T) {
	X := mat.NewDense(2, 1, []float64{0, 1})
	if _, err := Run(X, 5, Options{}); err == nil {
		Te.Error("expected an error for k > n")
	}
	if _, err := Run(nil, 1, Options{}); err == nil {
		Te.Error("expected an error for nil data")
	}
}
