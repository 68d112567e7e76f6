//Package kinplot renders the standard validation and analysis figures of
//the kinetic pipeline: implied timescale scans, Chapman-Kolmogorov panels,
//free energy surfaces, state populations and coarse-grained flux networks.
//The output format follows the file extension (png, svg, pdf...).
package kinplot

import (
	"fmt"
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// default figure size
const (
	defWidth  = 14 * vg.Centimeter
	defHeight = 10 * vg.Centimeter
)

// a fixed palette for lines and groups, recycled when there are more
// series than colors.
var seriesColors = []color.RGBA{
	{R: 31, G: 119, B: 180, A: 255},
	{R: 255, G: 127, B: 14, A: 255},
	{R: 44, G: 160, B: 44, A: 255},
	{R: 214, G: 39, B: 40, A: 255},
	{R: 148, G: 103, B: 189, A: 255},
	{R: 140, G: 86, B: 75, A: 255},
}

func seriesColor(i int) color.RGBA {
	return seriesColors[i%len(seriesColors)]
}

func rgba(r, g, b uint8) color.RGBA {
	return color.RGBA{R: r, G: g, B: b, A: 255}
}

func basicPlot(title, xlabel, ylabel string) *plot.Plot {
	p := plot.New()
	p.Title.Padding = 3 * vg.Millimeter
	p.Title.Text = title
	p.X.Label.Text = xlabel
	p.Y.Label.Text = ylabel
	p.Add(plotter.NewGrid())
	return p
}

func save(p *plot.Plot, filename string) error {
	if err := p.Save(defWidth, defHeight, filename); err != nil {
		return fmt.Errorf("kinplot: saving %s: %v", filename, err)
	}
	return nil
}
