package kinplot

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/stochem/kinet/msm"
)

// PopulationPlot draws the stationary populations of the metastable sets
// as a bar chart, most populated first.
func PopulationPlot(meta *msm.Metastable, title, filename string) error {
	if meta == nil || meta.NSets == 0 {
		return fmt.Errorf("kinplot: no metastable sets to plot")
	}
	p := basicPlot(title, "", "stationary population")
	bars, err := plotter.NewBarChart(plotter.Values(meta.Populations), vg.Points(30))
	if err != nil {
		return err
	}
	bars.Color = seriesColor(0)
	p.Add(bars)
	names := make([]string, meta.NSets)
	for i := range names {
		names[i] = fmt.Sprintf("S%d", i+1)
	}
	p.NominalX(names...)
	p.Y.Min = 0
	return save(p, filename)
}

// NetworkPlot draws a coarse-grained kinetic network: the metastable sets
// laid out on a circle, sized labels with their population and MFPT between
// them, connected by lines whose thickness follows the net flux. flux is an
// nsets x nsets matrix as returned by TPT.CoarseFlux; mfpt, when not nil,
// holds the pairwise mean first passage times in physical time units and is
// printed on the edges.
func NetworkPlot(meta *msm.Metastable, flux *mat.Dense, mfpt *mat.Dense, title, filename string) error {
	if meta == nil || flux == nil {
		return fmt.Errorf("kinplot: nil network data")
	}
	n := meta.NSets
	p := basicPlot(title, "", "")
	p.X.Min, p.X.Max = -1.6, 1.6
	p.Y.Min, p.Y.Max = -1.6, 1.6
	p.HideAxes()
	//node positions on a circle
	xs := make([]float64, n)
	ys := make([]float64, n)
	for i := 0; i < n; i++ {
		a := 2 * math.Pi * float64(i) / float64(n)
		xs[i] = math.Cos(a)
		ys[i] = math.Sin(a)
	}
	fmax := mat.Max(flux)
	var edgeLabels plotter.XYLabels
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			f := flux.At(i, j)
			if f <= 0 || i == j {
				continue
			}
			line, err := plotter.NewLine(plotter.XYs{
				{X: xs[i], Y: ys[i]},
				{X: xs[j], Y: ys[j]},
			})
			if err != nil {
				return err
			}
			w := 0.5
			if fmax > 0 {
				w = 0.5 + 3*f/fmax
			}
			line.Width = vg.Points(w)
			line.Color = gray
			p.Add(line)
			if mfpt != nil {
				mx := 0.5*(xs[i]+xs[j]) + 0.07
				my := 0.5 * (ys[i] + ys[j])
				edgeLabels.XYs = append(edgeLabels.XYs, plotter.XY{X: mx, Y: my})
				edgeLabels.Labels = append(edgeLabels.Labels, fmt.Sprintf("%.3g", mfpt.At(i, j)))
			}
		}
	}
	//nodes on top of the edges
	pts := make(plotter.XYs, n)
	var nodeLabels plotter.XYLabels
	for i := 0; i < n; i++ {
		pts[i] = plotter.XY{X: xs[i], Y: ys[i]}
		nodeLabels.XYs = append(nodeLabels.XYs, plotter.XY{X: xs[i] + 0.08, Y: ys[i] + 0.08})
		nodeLabels.Labels = append(nodeLabels.Labels, fmt.Sprintf("S%d (%.1f%%)", i+1, 100*meta.Populations[i]))
	}
	sc, err := plotter.NewScatter(pts)
	if err != nil {
		return err
	}
	sc.GlyphStyle.Radius = vg.Points(8)
	sc.GlyphStyle.Color = seriesColor(0)
	p.Add(sc)
	nl, err := plotter.NewLabels(nodeLabels)
	if err != nil {
		return err
	}
	p.Add(nl)
	if len(edgeLabels.Labels) > 0 {
		el, err := plotter.NewLabels(edgeLabels)
		if err != nil {
			return err
		}
		p.Add(el)
	}
	return save(p, filename)
}
