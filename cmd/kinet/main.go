//kinet is the command-line front end of the kinetic analysis pipeline:
//dihedral featurization of MD trajectories, TICA/Koopman reduction,
//k-means discretization, Markov model estimation and validation, and
//report generation.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/guptarohit/asciigraph"
	"github.com/klauspost/compress/gzip"
	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/mat"

	kinet "github.com/stochem/kinet"
	"github.com/stochem/kinet/cluster"
	"github.com/stochem/kinet/config"
	"github.com/stochem/kinet/histo"
	"github.com/stochem/kinet/kinplot"
	"github.com/stochem/kinet/msm"
	"github.com/stochem/kinet/report"
	"github.com/stochem/kinet/store"
	"github.com/stochem/kinet/tica"
	"github.com/stochem/kinet/traj/dcd"
)

var (
	configFile string
	cfg        *config.Config
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "kinet",
		Short: "exploratory kinetic analysis of MD trajectories",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cfg, err = config.Load(configFile)
			return err
		},
	}
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "kinet.yaml", "settings file")

	rootCmd.AddCommand(
		&cobra.Command{
			Use:   "featurize",
			Short: "compute backbone dihedral features from the trajectories",
			RunE:  runFeaturize,
		},
		&cobra.Command{
			Use:   "reduce",
			Short: "project the features with TICA or a Koopman model",
			RunE:  runReduce,
		},
		&cobra.Command{
			Use:   "cluster",
			Short: "discretize the reduced trajectories with k-means",
			RunE:  runCluster,
		},
		&cobra.Command{
			Use:   "estimate",
			Short: "estimate the Markov model and scan implied timescales",
			RunE:  runEstimate,
		},
		&cobra.Command{
			Use:   "cktest",
			Short: "run the Chapman-Kolmogorov validation",
			RunE:  runCKTest,
		},
		&cobra.Command{
			Use:   "flux",
			Short: "committors, MFPTs and reactive flux between the main states",
			RunE:  runFlux,
		},
		&cobra.Command{
			Use:   "report",
			Short: "render the HTML report",
			RunE:  runReport,
		},
	)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

//intermediate files between subcommands, gzipped JSON in the output dir

func outPath(name string) string {
	return filepath.Join(cfg.OutDir, name)
}

func saveJSON(name string, v interface{}) error {
	f, err := os.Create(outPath(name))
	if err != nil {
		return err
	}
	defer f.Close()
	zw := gzip.NewWriter(f)
	if err := json.NewEncoder(zw).Encode(v); err != nil {
		return err
	}
	return zw.Close()
}

func loadJSON(name string, v interface{}) error {
	f, err := os.Open(outPath(name))
	if err != nil {
		return fmt.Errorf("%v (run the previous pipeline step first?)", err)
	}
	defer f.Close()
	zr, err := gzip.NewReader(f)
	if err != nil {
		return err
	}
	defer zr.Close()
	return json.NewDecoder(zr).Decode(v)
}

func saveMatrices(name string, ms []*mat.Dense) error {
	data := make([][][]float64, len(ms))
	for i, m := range ms {
		r, c := m.Dims()
		rows := make([][]float64, r)
		for t := 0; t < r; t++ {
			rows[t] = make([]float64, c)
			copy(rows[t], m.RawRowView(t))
		}
		data[i] = rows
	}
	return saveJSON(name, data)
}

func loadMatrices(name string) ([]*mat.Dense, error) {
	var data [][][]float64
	if err := loadJSON(name, &data); err != nil {
		return nil, err
	}
	ret := make([]*mat.Dense, len(data))
	for i, rows := range data {
		if len(rows) == 0 {
			return nil, fmt.Errorf("trajectory %d in %s is empty", i, name)
		}
		r, c := len(rows), len(rows[0])
		m := mat.NewDense(r, c, nil)
		for t, row := range rows {
			m.SetRow(t, row)
		}
		ret[i] = m
	}
	return ret, nil
}

func runFeaturize(cmd *cobra.Command, args []string) error {
	mol, _, err := kinet.PDBRead(cfg.Topology)
	if err != nil {
		return err
	}
	sets, err := kinet.BackboneDihedrals(mol, cfg.Chains, cfg.ResRange)
	if err != nil {
		return err
	}
	fmt.Printf("%d phi/psi pairs from %s\n", len(sets), cfg.Topology)
	opts := kinet.FeatOptions{SinCos: cfg.Features.SinCos, Stride: cfg.Features.Stride}
	var feats []*mat.Dense
	for _, path := range cfg.Trajs {
		t, err := dcd.New(path)
		if err != nil {
			return err
		}
		F, err := kinet.Featurize(t, sets, opts)
		t.Close()
		if err != nil {
			return err
		}
		r, c := F.Dims()
		fmt.Printf("%s: %d frames, %d features\n", path, r, c)
		feats = append(feats, F)
	}
	return saveMatrices("features.json.gz", feats)
}

func runReduce(cmd *cobra.Command, args []string) error {
	feats, err := loadMatrices("features.json.gz")
	if err != nil {
		return err
	}
	_, dim := feats[0].Dims()
	cov, err := tica.NewCovariances(dim, cfg.Reduction.Lag)
	if err != nil {
		return err
	}
	for _, F := range feats {
		if err := cov.AddTraj(F); err != nil {
			return err
		}
	}
	var proj []*mat.Dense
	switch cfg.Reduction.Method {
	case "koopman":
		k, err := tica.EstimateKoopman(cov)
		if err != nil {
			return err
		}
		fmt.Printf("VAMP-2 score (%d components): %.4f\n",
			cfg.Reduction.Components, k.VAMP2(cfg.Reduction.Components))
		//projection still needs the TICA basis; the Koopman run is for
		//scoring featurizations, so fall through to TICA below
		fallthrough
	default:
		model, err := tica.Estimate(cov, cfg.Reduction.Reg)
		if err != nil {
			return err
		}
		ts := model.Timescales(cfg.Dt)
		for i := 0; i < cfg.Reduction.Components && i < len(ts); i++ {
			fmt.Printf("IC%d: eigenvalue %.4f, timescale %.4g\n", i+1, model.Eigvals[i], ts[i])
		}
		proj, err = model.TransformAll(feats, cfg.Reduction.Components)
		if err != nil {
			return err
		}
	}
	//quick look at the slowest coordinate of the first trajectory
	ic1 := mat.Col(nil, 0, proj[0])
	if len(ic1) > 2 {
		acf, err := tica.Autocorr(ic1, min(len(ic1)-1, 200))
		if err == nil {
			fmt.Println(asciigraph.Plot(acf,
				asciigraph.Height(10),
				asciigraph.Width(70),
				asciigraph.Caption("IC1 autocorrelation")))
		}
	}
	return saveMatrices("projected.json.gz", proj)
}

func runCluster(cmd *cobra.Command, args []string) error {
	proj, err := loadMatrices("projected.json.gz")
	if err != nil {
		return err
	}
	all, err := kinet.Stack(proj)
	if err != nil {
		return err
	}
	km, err := cluster.Run(all, cfg.Model.NStates, cluster.Options{Seed: cfg.Model.Seed})
	if err != nil {
		return err
	}
	fmt.Printf("k-means: %d clusters, inertia %.4g after %d iterations\n",
		cfg.Model.NStates, km.Inertia, km.Iterations)
	dtrajs, err := km.DiscretizeAll(proj)
	if err != nil {
		return err
	}
	return saveJSON("dtrajs.json.gz", dtrajs)
}

func loadDtrajs() ([][]int, error) {
	var dtrajs [][]int
	if err := loadJSON("dtrajs.json.gz", &dtrajs); err != nil {
		return nil, err
	}
	return dtrajs, nil
}

func buildModel(dtrajs [][]int) (*msm.MSM, error) {
	return msm.EstimateConnected(dtrajs, cfg.Model.Lag, cfg.Model.NStates, cfg.Model.Reversible)
}

func runEstimate(cmd *cobra.Command, args []string) error {
	dtrajs, err := loadDtrajs()
	if err != nil {
		return err
	}
	its, err := msm.ImpliedTimescales(dtrajs, cfg.Model.Lags, cfg.Model.NSets-1,
		cfg.Model.NStates, cfg.Model.Reversible, cfg.Dt)
	if err != nil {
		return err
	}
	slowest := make([]float64, len(its.Lags))
	for i := range its.Lags {
		slowest[i] = its.Timescales[i][0]
	}
	fmt.Println(asciigraph.Plot(slowest,
		asciigraph.Height(10),
		asciigraph.Width(70),
		asciigraph.Caption("slowest implied timescale vs lag")))

	m, err := buildModel(dtrajs)
	if err != nil {
		return err
	}
	fmt.Printf("MSM at lag %d: %d of %d states connected\n", m.Lag, m.N, cfg.Model.NStates)
	meta, err := m.Lump(cfg.Model.NSets, cfg.Model.Seed)
	if err != nil {
		return err
	}
	for i, p := range meta.Populations {
		fmt.Printf("set %d: population %.4f (%d microstates)\n", i+1, p, len(meta.Sets[i]))
	}

	if cfg.Model.Samples > 0 {
		c, err := msm.CountMatrix(dtrajs, cfg.Model.Lag, cfg.Model.NStates, msm.Sliding)
		if err != nil {
			return err
		}
		rc, _, err := c.Restrict(c.LargestConnectedSet())
		if err != nil {
			return err
		}
		bayes, err := msm.SampleBayes(rc, cfg.Model.Samples, 1, cfg.Dt, cfg.Model.Seed)
		if err != nil {
			return err
		}
		lo, up, err := bayes.ConfidenceInterval(0, 0.95)
		if err != nil {
			return err
		}
		fmt.Printf("slowest timescale 95%% interval: [%.4g, %.4g]\n", lo, up)
	}
	if err := kinplot.ITSPlot(its, nil, "implied timescales", outPath("its.png")); err != nil {
		return err
	}
	if err := kinplot.PopulationPlot(meta, "metastable populations", outPath("populations.png")); err != nil {
		return err
	}
	//free energy surface over the two leading components
	if proj, err := loadMatrices("projected.json.gz"); err == nil {
		if _, c := proj[0].Dims(); c >= 2 {
			var x, y []float64
			for _, P := range proj {
				x = append(x, mat.Col(nil, 0, P)...)
				y = append(y, mat.Col(nil, 1, P)...)
			}
			g, err := histo.GridFromData(x, y, 64, 64)
			if err == nil {
				if err := kinplot.FESPlot(g, cfg.Temp, "free energy surface", outPath("fes.png")); err != nil {
					return err
				}
			}
		}
	}
	if cfg.Store != "" {
		db, err := store.Open(cfg.Store)
		if err != nil {
			return err
		}
		defer db.Close()
		res := &store.Result{
			Attempt:     cfg.Attempt,
			NStates:     cfg.Model.NStates,
			Lag:         cfg.Model.Lag,
			Sorter:      meta.Sorter,
			Populations: meta.Populations,
			TransMat:    msm.Flatten(m.T),
			ITSLags:     its.Lags,
			ITS:         its.Timescales,
		}
		if err := db.Save(res); err != nil {
			return err
		}
		fmt.Printf("stored result (%d, %d, %d) in %s\n", cfg.Attempt, cfg.Model.NStates, cfg.Model.Lag, cfg.Store)
	}
	return nil
}

func runCKTest(cmd *cobra.Command, args []string) error {
	dtrajs, err := loadDtrajs()
	if err != nil {
		return err
	}
	m, err := buildModel(dtrajs)
	if err != nil {
		return err
	}
	meta, err := m.Lump(cfg.Model.NSets, cfg.Model.Seed)
	if err != nil {
		return err
	}
	ck, err := msm.ChapmanKolmogorov(m, dtrajs, meta.Sets, cfg.Model.CKSteps)
	if err != nil {
		return err
	}
	for si, k := range ck.Steps {
		for g := range ck.Groups {
			fmt.Printf("k=%d set %d: predicted %.4f, estimated %.4f\n",
				k, g+1, ck.Predicted[si][g], ck.Estimated[si][g])
		}
	}
	if err := kinplot.CKPlot(ck, "Chapman-Kolmogorov", outPath("cktest.png")); err != nil {
		return err
	}
	if cfg.Store != "" {
		db, err := store.Open(cfg.Store)
		if err != nil {
			return err
		}
		defer db.Close()
		res, err := db.Load(cfg.Attempt, cfg.Model.NStates, cfg.Model.Lag)
		if err != nil {
			res = &store.Result{Attempt: cfg.Attempt, NStates: cfg.Model.NStates, Lag: cfg.Model.Lag}
		}
		res.CKSteps = ck.Steps
		res.CKPred = ck.Predicted
		res.CKEst = ck.Estimated
		if err := db.Save(res); err != nil {
			return err
		}
	}
	return nil
}

func runFlux(cmd *cobra.Command, args []string) error {
	dtrajs, err := loadDtrajs()
	if err != nil {
		return err
	}
	m, err := buildModel(dtrajs)
	if err != nil {
		return err
	}
	meta, err := m.Lump(cfg.Model.NSets, cfg.Model.Seed)
	if err != nil {
		return err
	}
	//source and sink: the two most populated sets
	A, B := meta.Sets[0], meta.Sets[1]
	tpt, err := m.ReactiveFlux(A, B)
	if err != nil {
		return err
	}
	fmt.Printf("total reactive flux: %.4g, rate %.4g per lag\n", tpt.TotalF, tpt.Rate)
	//set-to-set MFPTs, averaged over the source set in physical time
	pairMFPT := mat.NewDense(meta.NSets, meta.NSets, nil)
	for a := 0; a < meta.NSets; a++ {
		for b := 0; b < meta.NSets; b++ {
			if a == b {
				continue
			}
			mf, err := m.MFPT(meta.Sets[b])
			if err != nil {
				return err
			}
			var acc float64
			for _, i := range meta.Sets[a] {
				acc += mf[i]
			}
			pairMFPT.Set(a, b, acc/float64(len(meta.Sets[a]))*float64(m.Lag)*cfg.Dt)
		}
	}
	coarse := tpt.CoarseFlux(meta.Sets)
	if err := kinplot.NetworkPlot(meta, coarse, pairMFPT, "kinetic network", outPath("network.png")); err != nil {
		return err
	}
	fmt.Printf("network written to %s\n", outPath("network.png"))
	return nil
}

func runReport(cmd *cobra.Command, args []string) error {
	dtrajs, err := loadDtrajs()
	if err != nil {
		return err
	}
	m, err := buildModel(dtrajs)
	if err != nil {
		return err
	}
	meta, err := m.Lump(cfg.Model.NSets, cfg.Model.Seed)
	if err != nil {
		return err
	}
	its, err := msm.ImpliedTimescales(dtrajs, cfg.Model.Lags, cfg.Model.NSets-1,
		cfg.Model.NStates, cfg.Model.Reversible, cfg.Dt)
	if err != nil {
		return err
	}
	ck, err := msm.ChapmanKolmogorov(m, dtrajs, meta.Sets, cfg.Model.CKSteps)
	if err != nil {
		return err
	}
	tpt, err := m.ReactiveFlux(meta.Sets[0], meta.Sets[1])
	if err != nil {
		return err
	}
	r := &report.Report{
		Title: fmt.Sprintf("kinet attempt %d", cfg.Attempt),
		ITS:   its,
		CK:    ck,
		Temp:  cfg.Temp,
		Meta:  meta,
		Flux:  tpt.CoarseFlux(meta.Sets),
	}
	if proj, err := loadMatrices("projected.json.gz"); err == nil {
		if _, c := proj[0].Dims(); c >= 2 {
			var x, y []float64
			for _, P := range proj {
				x = append(x, mat.Col(nil, 0, P)...)
				y = append(y, mat.Col(nil, 1, P)...)
			}
			if g, err := histo.GridFromData(x, y, 64, 64); err == nil {
				r.Grid = g
			}
		}
	}
	out := outPath("report.html")
	if err := r.WriteHTML(out); err != nil {
		return err
	}
	fmt.Printf("report written to %s\n", out)
	return nil
}
