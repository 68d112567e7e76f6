package report

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/stochem/kinet/histo"
	"github.com/stochem/kinet/msm"
)

func TestWriteHTML(Te *testing.T) {
	g, err := histo.GridFromData(
		[]float64{0, 0.1, 1.0, 1.1},
		[]float64{0, 0.1, 1.0, 0.9}, 4, 4)
	if err != nil {
		Te.Fatal(err)
	}
	T := mat.NewDense(2, 2, []float64{0.9, 0.1, 0.2, 0.8})
	m := &msm.MSM{T: T, Lag: 1, N: 2, Active: []int{0, 1}}
	meta, err := m.Lump(2, 1)
	if err != nil {
		Te.Fatal(err)
	}
	r := &Report{
		Title: "tau kinetics",
		ITS: &msm.ITS{
			Lags:       []int{1, 2, 5},
			Timescales: [][]float64{{2.8}, {2.9}, {3.0}},
			K:          1,
			Dt:         1,
		},
		CK: &msm.CKResult{
			Lag:       1,
			Steps:     []int{1, 2},
			Predicted: [][]float64{{0.9, 0.8}, {0.85, 0.75}},
			Estimated: [][]float64{{0.89, 0.81}, {0.84, 0.74}},
			Groups:    [][]int{{0}, {1}},
		},
		Grid: g,
		Temp: 300,
		Meta: meta,
		Flux: mat.NewDense(2, 2, []float64{0, 0.01, 0.002, 0}),
		MFPT: mat.NewDense(2, 2, []float64{0, 10, 33, 0}),
	}
	out := filepath.Join(Te.TempDir(), "report.html")
	if err := r.WriteHTML(out); err != nil {
		Te.Fatal(err)
	}
	b, err := os.ReadFile(out)
	if err != nil {
		Te.Fatal(err)
	}
	html := string(b)
	for _, want := range []string{"Implied timescales", "Chapman-Kolmogorov", "Free energy surface", "Metastable populations", "Kinetic network"} {
		if !strings.Contains(html, want) {
			Te.Errorf("report is missing the %q section", want)
		}
	}
}

func TestWriteHTMLEmpty(Te *testing.T) {
	r := &Report{Title: "empty"}
	if err := r.WriteHTML(filepath.Join(Te.TempDir(), "x.html")); err == nil {
		Te.Error("expected an error for an empty report")
	}
}
