package kinplot

import (
	"fmt"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/stochem/kinet/msm"
)

// ITSPlot draws an implied-timescales scan: one curve per resolved process
// against the lag, on a log Y axis, with the region below the y=x diagonal
// shaded gray. Processes whose timescale falls into that region are faster
// than the lag and can't be trusted. bands, when not nil, must hold one
// (lower, upper) pair per lag for the slowest process, drawn as error bars
// from a Bayesian sample.
func ITSPlot(its *msm.ITS, bands [][2]float64, title, filename string) error {
	if its == nil || len(its.Lags) == 0 {
		return fmt.Errorf("kinplot: empty timescale scan")
	}
	p := basicPlot(title, "lag time", "implied timescale")
	p.Y.Scale = plot.LogScale{}
	p.Y.Tick.Marker = plot.LogTicks{Prec: -1}
	maxLag := float64(its.Lags[len(its.Lags)-1]) * its.Dt
	//the forbidden region, below the diagonal
	diag := plotter.XYs{
		{X: 0, Y: 1e-10},
		{X: maxLag, Y: 1e-10},
		{X: maxLag, Y: maxLag},
	}
	poly, err := plotter.NewPolygon(diag)
	if err != nil {
		return err
	}
	poly.Color = gray
	poly.LineStyle.Width = 0
	p.Add(poly)
	ymin, ymax := math.Inf(1), 0.0
	for k := 0; k < its.K; k++ {
		pts := make(plotter.XYs, 0, len(its.Lags))
		for li, lag := range its.Lags {
			t := its.Timescales[li][k]
			if math.IsNaN(t) || math.IsInf(t, 0) {
				continue
			}
			pts = append(pts, plotter.XY{X: float64(lag) * its.Dt, Y: t})
			if t < ymin {
				ymin = t
			}
			if t > ymax {
				ymax = t
			}
		}
		if len(pts) == 0 {
			continue
		}
		l, s, err := plotter.NewLinePoints(pts)
		if err != nil {
			return err
		}
		l.Color = seriesColor(k)
		s.Color = seriesColor(k)
		p.Add(l, s)
		p.Legend.Add(fmt.Sprintf("t%d", k+1), l)
	}
	if bands != nil {
		if len(bands) != len(its.Lags) {
			return fmt.Errorf("kinplot: %d confidence bands for %d lags", len(bands), len(its.Lags))
		}
		if err := addBands(p, its, bands); err != nil {
			return err
		}
	}
	if ymin < math.Inf(1) {
		p.Y.Min = ymin / 2
		p.Y.Max = ymax * 2
	}
	p.X.Min = 0
	p.X.Max = maxLag * 1.05
	return save(p, filename)
}

var gray = rgba(200, 200, 200)

// addBands draws the Bayesian interval of the slowest process as vertical
// error bars.
func addBands(p *plot.Plot, its *msm.ITS, bands [][2]float64) error {
	type yerrs struct {
		plotter.XYs
		plotter.YErrors
	}
	var d yerrs
	for li, lag := range its.Lags {
		t := its.Timescales[li][0]
		if math.IsNaN(t) || math.IsInf(t, 0) {
			continue
		}
		d.XYs = append(d.XYs, plotter.XY{X: float64(lag) * its.Dt, Y: t})
		d.YErrors = append(d.YErrors, struct{ Low, High float64 }{t - bands[li][0], bands[li][1] - t})
	}
	bars, err := plotter.NewYErrorBars(d)
	if err != nil {
		return err
	}
	bars.LineStyle.Width = vg.Points(1)
	p.Add(bars)
	return nil
}
