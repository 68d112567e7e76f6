package kinplot

import (
	"fmt"

	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/plotter"

	"github.com/stochem/kinet/histo"
)

// fesGrid adapts a histo.Grid free energy surface to plotter.GridXYZ.
type fesGrid struct {
	x, y []float64
	z    [][]float64 //z[row][col], row indexes y
}

func (g *fesGrid) Dims() (int, int)     { return len(g.x), len(g.y) }
func (g *fesGrid) X(c int) float64      { return g.x[c] }
func (g *fesGrid) Y(r int) float64      { return g.y[r] }
func (g *fesGrid) Z(c, r int) float64   { return g.z[r][c] }

// FESPlot draws the free energy surface of the grid at temperature temp as
// a heatmap, IC1 against IC2 in kcal/mol, with a diverging palette. Deep
// basins come out blue, barriers red.
func FESPlot(g *histo.Grid, temp float64, title, filename string) error {
	if g == nil {
		return fmt.Errorf("kinplot: nil grid")
	}
	F, err := g.FES(temp)
	if err != nil {
		return err
	}
	nx, ny := g.Dims()
	fg := &fesGrid{
		x: g.XCenters(),
		y: g.YCenters(),
		z: make([][]float64, ny),
	}
	for i := 0; i < ny; i++ {
		fg.z[i] = make([]float64, nx)
		for j := 0; j < nx; j++ {
			fg.z[i][j] = F.At(i, j)
		}
	}
	pal := moreland.SmoothBlueRed().Palette(255)
	hm := plotter.NewHeatMap(fg, pal)
	p := basicPlot(title, "IC 1", "IC 2")
	p.Add(hm)
	p.X.Min = fg.x[0]
	p.X.Max = fg.x[len(fg.x)-1]
	p.Y.Min = fg.y[0]
	p.Y.Max = fg.y[len(fg.y)-1]
	return save(p, filename)
}
