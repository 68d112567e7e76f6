package histo

import (
	"math"
	"testing"
)

func TestData(Te *testing.T) {
	div := UniformDividers(0, 1, 4)
	D, err := NewData(div, nil)
	if err != nil {
		Te.Fatal(err)
	}
	D.AddData(0.1, 0.3, 0.3, 0.9, 1.5) //the last one is off range
	if D.Total() != 4 {
		Te.Errorf("counted %d points, want 4", D.Total())
	}
	h := D.View()
	want := []float64{1, 2, 0, 1}
	for i, v := range want {
		if h[i] != v {
			Te.Errorf("bin %d: got %v, want %v", i, h[i], v)
		}
	}
	D.Normalize()
	var sum float64
	for _, v := range D.View() {
		sum += v
	}
	if math.Abs(sum-1) > 1e-12 {
		Te.Errorf("normalized bins sum to %v", sum)
	}
	D.AddData(0.6) //must survive normalization round trip
	if D.Total() != 5 {
		Te.Errorf("counted %d points after adding to a normalized histogram", D.Total())
	}
}

func TestDataFromRaw(Te *testing.T) {
	div := UniformDividers(-180, 180, 36)
	raw := []float64{-179, 0, 0.5, 179, 200} //200 is off range
	D, err := NewData(div, raw)
	if err != nil {
		Te.Fatal(err)
	}
	if D.Total() != 4 {
		Te.Errorf("counted %d points, want 4", D.Total())
	}
}

func TestPMF(Te *testing.T) {
	div := UniformDividers(0, 3, 3)
	D, err := NewData(div, []float64{0.5, 0.5, 0.5, 0.5, 1.5})
	if err != nil {
		Te.Fatal(err)
	}
	F, err := D.PMF(300)
	if err != nil {
		Te.Fatal(err)
	}
	if F[0] != 0 {
		Te.Errorf("most populated bin must sit at zero free energy, got %v", F[0])
	}
	want := -KB * 300 * math.Log(1.0/4.0)
	if math.Abs(F[1]-want) > 1e-12 {
		Te.Errorf("got %v kcal/mol, want %v", F[1], want)
	}
	//the empty bin gets the ceiling, not an infinity
	if math.IsInf(F[2], 1) || F[2] < F[1] {
		Te.Errorf("empty bin got %v", F[2])
	}
}

func TestGridFES(Te *testing.T) {
	x := []float64{0, 0, 0, 1, 1}
	y := []float64{0, 0, 0, 1, 0}
	g, err := GridFromData(x, y, 2, 2)
	if err != nil {
		Te.Fatal(err)
	}
	if g.Total() != 5 {
		Te.Errorf("counted %d points, want 5", g.Total())
	}
	F, err := g.FES(300)
	if err != nil {
		Te.Fatal(err)
	}
	//bin (0,0) holds 3 points, the minimum of the surface
	if F.At(0, 0) != 0 {
		Te.Errorf("deepest basin at %v, want 0", F.At(0, 0))
	}
	want := -KB * 300 * math.Log(1.0/3.0)
	if math.Abs(F.At(0, 1)-want) > 1e-12 {
		Te.Errorf("got %v kcal/mol, want %v", F.At(0, 1), want)
	}
	if len(g.XCenters()) != 2 || len(g.YCenters()) != 2 {
		Te.Error("wrong number of bin centers")
	}
}
