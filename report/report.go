//Package report renders an interactive HTML summary of a kinetic analysis
//with go-echarts: the implied timescale scan, the free energy surface, the
//metastable populations and the coarse-grained kinetic network on one page.
package report

import (
	"fmt"
	"math"
	"os"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"gonum.org/v1/gonum/mat"

	"github.com/stochem/kinet/histo"
	"github.com/stochem/kinet/msm"
)

// Report collects the results to render. Nil fields are skipped, so a
// partial analysis still produces a page.
type Report struct {
	Title string
	ITS   *msm.ITS
	CK    *msm.CKResult
	Grid  *histo.Grid //reduced-space histogram for the FES
	Temp  float64     //Kelvin, for the FES conversion
	Meta  *msm.Metastable
	Flux  *mat.Dense //coarse net flux between metastable sets
	MFPT  *mat.Dense //pairwise MFPT between metastable sets
}

// WriteHTML renders the report page to filename.
func (r *Report) WriteHTML(filename string) error {
	page := components.NewPage()
	page.PageTitle = r.Title
	var any bool
	if r.ITS != nil {
		page.AddCharts(r.itsChart())
		any = true
	}
	if r.CK != nil {
		for _, c := range r.ckCharts() {
			page.AddCharts(c)
		}
		any = true
	}
	if r.Grid != nil {
		c, err := r.fesChart()
		if err != nil {
			return err
		}
		page.AddCharts(c)
		any = true
	}
	if r.Meta != nil {
		page.AddCharts(r.populationChart())
		any = true
		if r.Flux != nil {
			page.AddCharts(r.networkChart())
		}
	}
	if !any {
		return fmt.Errorf("report: nothing to render")
	}
	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := page.Render(f); err != nil {
		return fmt.Errorf("report: rendering %s: %v", filename, err)
	}
	return nil
}

func (r *Report) itsChart() *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Implied timescales"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "lag"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "timescale", Type: "log"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
	)
	x := make([]string, len(r.ITS.Lags))
	for i, l := range r.ITS.Lags {
		x[i] = fmt.Sprintf("%g", float64(l)*r.ITS.Dt)
	}
	line.SetXAxis(x)
	for k := 0; k < r.ITS.K; k++ {
		data := make([]opts.LineData, len(r.ITS.Lags))
		for li := range r.ITS.Lags {
			t := r.ITS.Timescales[li][k]
			if math.IsNaN(t) || math.IsInf(t, 0) {
				data[li] = opts.LineData{Value: nil}
				continue
			}
			data[li] = opts.LineData{Value: t}
		}
		line.AddSeries(fmt.Sprintf("t%d", k+1), data)
	}
	return line
}

func (r *Report) ckCharts() []components.Charter {
	var ret []components.Charter
	x := make([]string, len(r.CK.Steps))
	for i, k := range r.CK.Steps {
		x[i] = fmt.Sprintf("%d", k)
	}
	for g := range r.CK.Groups {
		line := charts.NewLine()
		line.SetGlobalOptions(
			charts.WithTitleOpts(opts.Title{Title: fmt.Sprintf("Chapman-Kolmogorov, set %d", g+1)}),
			charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
			charts.WithXAxisOpts(opts.XAxis{Name: "lag multiples"}),
			charts.WithYAxisOpts(opts.YAxis{Name: "P(stay)", Min: 0, Max: 1}),
			charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		)
		pred := make([]opts.LineData, len(r.CK.Steps))
		est := make([]opts.LineData, len(r.CK.Steps))
		for si := range r.CK.Steps {
			pred[si] = opts.LineData{Value: r.CK.Predicted[si][g]}
			est[si] = opts.LineData{Value: r.CK.Estimated[si][g]}
		}
		line.SetXAxis(x)
		line.AddSeries("predicted", pred)
		line.AddSeries("estimated", est, charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(true)}))
		ret = append(ret, line)
	}
	return ret
}

func (r *Report) fesChart() (*charts.HeatMap, error) {
	temp := r.Temp
	if temp == 0 {
		temp = 300
	}
	F, err := r.Grid.FES(temp)
	if err != nil {
		return nil, err
	}
	nx, ny := r.Grid.Dims()
	xc := r.Grid.XCenters()
	yc := r.Grid.YCenters()
	xlabels := make([]string, nx)
	for i, v := range xc {
		xlabels[i] = fmt.Sprintf("%.2f", v)
	}
	ylabels := make([]string, ny)
	for i, v := range yc {
		ylabels[i] = fmt.Sprintf("%.2f", v)
	}
	data := make([]opts.HeatMapData, 0, nx*ny)
	fmax := 0.0
	for i := 0; i < ny; i++ {
		for j := 0; j < nx; j++ {
			v := F.At(i, j)
			if v > fmax {
				fmax = v
			}
			data = append(data, opts.HeatMapData{Value: [3]interface{}{j, i, v}})
		}
	}
	hm := charts.NewHeatMap()
	hm.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Free energy surface (kcal/mol)"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "IC 1", Type: "category", Data: xlabels}),
		charts.WithYAxisOpts(opts.YAxis{Name: "IC 2", Type: "category", Data: ylabels}),
		charts.WithVisualMapOpts(opts.VisualMap{
			Calculable: opts.Bool(true),
			Min:        0,
			Max:        float32(fmax),
			InRange:    &opts.VisualMapInRange{Color: []string{"#313695", "#74add1", "#fed976", "#f46d43", "#a50026"}},
		}),
	)
	hm.AddSeries("F", data)
	return hm, nil
}

func (r *Report) populationChart() *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Metastable populations"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)
	x := make([]string, r.Meta.NSets)
	y := make([]opts.BarData, r.Meta.NSets)
	for i := 0; i < r.Meta.NSets; i++ {
		x[i] = fmt.Sprintf("S%d", i+1)
		y[i] = opts.BarData{Value: r.Meta.Populations[i]}
	}
	bar.SetXAxis(x).AddSeries("population", y,
		charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: "top"}))
	return bar
}

func (r *Report) networkChart() *charts.Graph {
	graph := charts.NewGraph()
	graph.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Kinetic network"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)
	n := r.Meta.NSets
	nodes := make([]opts.GraphNode, n)
	for i := 0; i < n; i++ {
		nodes[i] = opts.GraphNode{
			Name:       fmt.Sprintf("S%d (%.1f%%)", i+1, 100*r.Meta.Populations[i]),
			SymbolSize: 20 + 60*float32(r.Meta.Populations[i]),
		}
	}
	var links []opts.GraphLink
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if i == j || r.Flux.At(i, j) <= 0 {
				continue
			}
			label := fmt.Sprintf("flux %.3g", r.Flux.At(i, j))
			if r.MFPT != nil {
				label += fmt.Sprintf(", MFPT %.3g", r.MFPT.At(i, j))
			}
			links = append(links, opts.GraphLink{
				Source: nodes[i].Name,
				Target: nodes[j].Name,
				Value:  float32(r.Flux.At(i, j)),
				Label:  &opts.EdgeLabel{Show: opts.Bool(true), Formatter: label},
			})
		}
	}
	graph.AddSeries("network", nodes, links,
		charts.WithGraphChartOpts(opts.GraphChart{
			Layout: "circular",
			Force:  &opts.GraphForce{Repulsion: 800},
			Roam:   opts.Bool(true),
		}),
	)
	return graph
}
