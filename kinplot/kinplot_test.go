package kinplot

import (
	"os"
	"path/filepath"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/stochem/kinet/histo"
	"github.com/stochem/kinet/msm"
)

func mustExist(Te *testing.T, path string) {
	fi, err := os.Stat(path)
	if err != nil {
		Te.Fatalf("plot file %s was not written: %v", path, err)
	}
	if fi.Size() == 0 {
		Te.Fatalf("plot file %s is empty", path)
	}
}

func testModel() *msm.MSM {
	T := mat.NewDense(2, 2, []float64{0.9, 0.1, 0.2, 0.8})
	return &msm.MSM{T: T, Lag: 1, N: 2, Active: []int{0, 1}}
}

func TestITSPlot(Te *testing.T) {
	its := &msm.ITS{
		Lags:       []int{1, 2, 5},
		Timescales: [][]float64{{2.8}, {2.9}, {3.0}},
		K:          1,
		Dt:         1,
	}
	out := filepath.Join(Te.TempDir(), "its.png")
	if err := ITSPlot(its, nil, "implied timescales", out); err != nil {
		Te.Fatal(err)
	}
	mustExist(Te, out)
	//with confidence bands
	bands := [][2]float64{{2.5, 3.1}, {2.6, 3.2}, {2.7, 3.3}}
	out2 := filepath.Join(Te.TempDir(), "its_bayes.png")
	if err := ITSPlot(its, bands, "implied timescales", out2); err != nil {
		Te.Fatal(err)
	}
	mustExist(Te, out2)
}

func TestCKPlot(Te *testing.T) {
	ck := &msm.CKResult{
		Lag:       1,
		Steps:     []int{1, 2, 3},
		Predicted: [][]float64{{0.9, 0.8}, {0.85, 0.7}, {0.8, 0.65}},
		Estimated: [][]float64{{0.89, 0.79}, {0.84, 0.71}, {0.81, 0.63}},
		Groups:    [][]int{{0}, {1}},
	}
	out := filepath.Join(Te.TempDir(), "ck.png")
	if err := CKPlot(ck, "CK test", out); err != nil {
		Te.Fatal(err)
	}
	mustExist(Te, out)
}

func TestFESPlot(Te *testing.T) {
	x := []float64{0, 0.1, 0.2, 1.0, 1.1, 1.2, 0.1}
	y := []float64{0, 0.1, 0.0, 1.0, 1.1, 0.9, 0.2}
	g, err := histo.GridFromData(x, y, 5, 5)
	if err != nil {
		Te.Fatal(err)
	}
	out := filepath.Join(Te.TempDir(), "fes.png")
	if err := FESPlot(g, 300, "free energy surface", out); err != nil {
		Te.Fatal(err)
	}
	mustExist(Te, out)
}

func TestPopulationAndNetwork(Te *testing.T) {
	m := testModel()
	meta, err := m.Lump(2, 3)
	if err != nil {
		Te.Fatal(err)
	}
	out := filepath.Join(Te.TempDir(), "pops.png")
	if err := PopulationPlot(meta, "populations", out); err != nil {
		Te.Fatal(err)
	}
	mustExist(Te, out)
	flux := mat.NewDense(2, 2, []float64{0, 0.02, 0.005, 0})
	mfpt := mat.NewDense(2, 2, []float64{0, 12.5, 40.1, 0})
	out2 := filepath.Join(Te.TempDir(), "net.png")
	if err := NetworkPlot(meta, flux, mfpt, "kinetic network", out2); err != nil {
		Te.Fatal(err)
	}
	mustExist(Te, out2)
}
