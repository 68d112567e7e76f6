package histo

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Grid is a 2D histogram over a pair of coordinates, the accumulator
// behind free energy surfaces. Bins are uniform on both axes.
type Grid struct {
	xmin, xmax float64
	ymin, ymax float64
	nx, ny     int
	counts     *mat.Dense //ny x nx, row i is a y-slice
	total      int
}

// NewGrid returns an empty nx by ny grid over the given ranges.
func NewGrid(xmin, xmax float64, nx int, ymin, ymax float64, ny int) (*Grid, error) {
	if nx < 1 || ny < 1 {
		return nil, fmt.Errorf("histo: bad grid shape %dx%d", nx, ny)
	}
	if xmax <= xmin || ymax <= ymin {
		return nil, fmt.Errorf("histo: empty grid range")
	}
	return &Grid{
		xmin: xmin, xmax: xmax, nx: nx,
		ymin: ymin, ymax: ymax, ny: ny,
		counts: mat.NewDense(ny, nx, nil),
	}, nil
}

// GridFromData builds a grid spanning the data range of two equally long
// coordinate series and fills it. A small margin is added so the maxima
// fall inside the last bin.
func GridFromData(x, y []float64, nx, ny int) (*Grid, error) {
	if len(x) != len(y) {
		return nil, fmt.Errorf("histo: coordinate series of different length: %d, %d", len(x), len(y))
	}
	if len(x) == 0 {
		return nil, fmt.Errorf("histo: no data for the grid")
	}
	xmin, xmax := floats.Min(x), floats.Max(x)
	ymin, ymax := floats.Min(y), floats.Max(y)
	mx := (xmax - xmin) * 1e-6
	my := (ymax - ymin) * 1e-6
	if mx == 0 {
		mx = 1e-6
	}
	if my == 0 {
		my = 1e-6
	}
	g, err := NewGrid(xmin, xmax+mx, nx, ymin, ymax+my, ny)
	if err != nil {
		return nil, err
	}
	for i := range x {
		g.Add(x[i], y[i])
	}
	return g, nil
}

// Add counts one point. Points outside the grid are dropped.
func (g *Grid) Add(x, y float64) {
	if x < g.xmin || x >= g.xmax || y < g.ymin || y >= g.ymax {
		return
	}
	i := int((y - g.ymin) / (g.ymax - g.ymin) * float64(g.ny))
	j := int((x - g.xmin) / (g.xmax - g.xmin) * float64(g.nx))
	g.counts.Set(i, j, g.counts.At(i, j)+1)
	g.total++
}

// Total returns the number of points counted.
func (g *Grid) Total() int { return g.total }

// Dims returns nx, ny.
func (g *Grid) Dims() (int, int) { return g.nx, g.ny }

// XCenters returns the bin centers along x.
func (g *Grid) XCenters() []float64 { return centers(g.xmin, g.xmax, g.nx) }

// YCenters returns the bin centers along y.
func (g *Grid) YCenters() []float64 { return centers(g.ymin, g.ymax, g.ny) }

func centers(min, max float64, n int) []float64 {
	w := (max - min) / float64(n)
	ret := make([]float64, n)
	for i := range ret {
		ret[i] = min + (float64(i)+0.5)*w
	}
	return ret
}

// Counts returns the live ny x nx count matrix.
func (g *Grid) Counts() *mat.Dense { return g.counts }

// FES converts the grid into a free energy surface at temperature temp
// (Kelvin), F = -kT ln(p / p_max) in kcal/mol, as an ny x nx matrix. Empty
// bins get the largest finite free energy of the surface.
func (g *Grid) FES(temp float64) (*mat.Dense, error) {
	if g.total == 0 {
		return nil, fmt.Errorf("histo: empty grid has no free energy surface")
	}
	kt := KB * temp
	pmax := mat.Max(g.counts)
	ret := mat.NewDense(g.ny, g.nx, nil)
	ceil := 0.0
	for i := 0; i < g.ny; i++ {
		for j := 0; j < g.nx; j++ {
			c := g.counts.At(i, j)
			if c <= 0 {
				ret.Set(i, j, math.Inf(1))
				continue
			}
			f := -kt * math.Log(c/pmax)
			ret.Set(i, j, f)
			if f > ceil {
				ceil = f
			}
		}
	}
	for i := 0; i < g.ny; i++ {
		for j := 0; j < g.nx; j++ {
			if math.IsInf(ret.At(i, j), 1) {
				ret.Set(i, j, ceil)
			}
		}
	}
	return ret, nil
}
