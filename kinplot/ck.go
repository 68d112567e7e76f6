package kinplot

import (
	"fmt"
	"os"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/stochem/kinet/msm"
)

// CKPlot draws the Chapman-Kolmogorov test as one panel per metastable
// group: the predicted staying probability T(lag)^k as a line, the direct
// estimate at lag k*lag as points. Panels are tiled on a single canvas and
// written as a png.
func CKPlot(ck *msm.CKResult, title, filename string) error {
	if ck == nil || len(ck.Groups) == 0 {
		return fmt.Errorf("kinplot: empty CK result")
	}
	ng := len(ck.Groups)
	cols := ng
	rows := 1
	if ng > 3 {
		cols = (ng + 1) / 2
		rows = 2
	}
	plots := make([][]*plot.Plot, rows)
	for r := range plots {
		plots[r] = make([]*plot.Plot, cols)
	}
	for g := 0; g < ng; g++ {
		p := basicPlot(fmt.Sprintf("%s, set %d", title, g+1), "k (lag multiples)", "P(stay)")
		p.Y.Min = 0
		p.Y.Max = 1.05
		pred := make(plotter.XYs, len(ck.Steps))
		est := make(plotter.XYs, len(ck.Steps))
		for si, k := range ck.Steps {
			pred[si] = plotter.XY{X: float64(k), Y: ck.Predicted[si][g]}
			est[si] = plotter.XY{X: float64(k), Y: ck.Estimated[si][g]}
		}
		l, err := plotter.NewLine(pred)
		if err != nil {
			return err
		}
		l.Color = seriesColor(0)
		s, err := plotter.NewScatter(est)
		if err != nil {
			return err
		}
		s.Color = seriesColor(3)
		p.Add(l, s)
		p.Legend.Add("predicted", l)
		p.Legend.Add("estimated", s)
		p.Legend.Top = false
		plots[g/cols][g%cols] = p
	}
	img := vgimg.New(vg.Length(cols)*10*vg.Centimeter, vg.Length(rows)*8*vg.Centimeter)
	dc := draw.New(img)
	t := draw.Tiles{
		Rows: rows,
		Cols: cols,
		PadX: 2 * vg.Millimeter,
		PadY: 2 * vg.Millimeter,
	}
	canvases := plot.Align(plots, t, dc)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			if plots[r][c] != nil {
				plots[r][c].Draw(canvases[r][c])
			}
		}
	}
	w, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer w.Close()
	png := vgimg.PngCanvas{Canvas: img}
	if _, err := png.WriteTo(w); err != nil {
		return fmt.Errorf("kinplot: writing %s: %v", filename, err)
	}
	return nil
}
