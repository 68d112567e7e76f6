//Package cluster discretizes reduced trajectory coordinates into microstates
//with k-means. The discrete trajectories it produces are the input of the
//Markov-model estimation in package msm.
package cluster

import (
	"fmt"
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// KMeans holds a converged clustering: the cluster centers, the assignment
// of every input frame and the final inertia (sum of squared distances to
// the assigned centers).
type KMeans struct {
	Centers     *mat.Dense //k x dim
	Assignments []int      //one per input row
	Inertia     float64
	Iterations  int
}

// Options for the k-means run. The zero value gets sane defaults.
type Options struct {
	MaxIter int    //default 500
	Tol     float64 //relative inertia change for convergence, default 1e-6
	Seed    uint64  //seed for the k-means++ initialization
}

func (o *Options) setDefaults() {
	if o.MaxIter <= 0 {
		o.MaxIter = 500
	}
	if o.Tol <= 0 {
		o.Tol = 1e-6
	}
}

func sqDist(a, b []float64) float64 {
	var acc float64
	for i, v := range a {
		d := v - b[i]
		acc += d * d
	}
	return acc
}

// plusPlusInit picks the k initial centers with the k-means++ rule: the
// first uniformly, the rest proportionally to the squared distance to the
// closest center already picked.
func plusPlusInit(X *mat.Dense, k int, rng *rand.Rand) *mat.Dense {
	n, dim := X.Dims()
	centers := mat.NewDense(k, dim, nil)
	first := rng.Intn(n)
	centers.SetRow(0, X.RawRowView(first))
	d2 := make([]float64, n)
	for i := 0; i < n; i++ {
		d2[i] = sqDist(X.RawRowView(i), centers.RawRowView(0))
	}
	for c := 1; c < k; c++ {
		total := floats.Sum(d2)
		pick := first //fallback when all distances are zero
		if total > 0 {
			r := rng.Float64() * total
			var acc float64
			for i, v := range d2 {
				acc += v
				if acc >= r {
					pick = i
					break
				}
			}
		} else {
			pick = rng.Intn(n)
		}
		centers.SetRow(c, X.RawRowView(pick))
		for i := 0; i < n; i++ {
			if d := sqDist(X.RawRowView(i), centers.RawRowView(c)); d < d2[i] {
				d2[i] = d
			}
		}
	}
	return centers
}

// Run clusters the rows of X into k clusters. It is deterministic for a
// fixed Options.Seed.
func Run(X *mat.Dense, k int, opts Options) (*KMeans, error) {
	if X == nil {
		return nil, fmt.Errorf("cluster: nil data")
	}
	n, dim := X.Dims()
	if k < 1 || k > n {
		return nil, fmt.Errorf("cluster: can't make %d clusters out of %d points", k, n)
	}
	opts.setDefaults()
	rng := rand.New(rand.NewSource(opts.Seed))
	centers := plusPlusInit(X, k, rng)
	assign := make([]int, n)
	counts := make([]int, k)
	sums := mat.NewDense(k, dim, nil)
	prev := math.Inf(1)
	ret := &KMeans{}
	for it := 0; it < opts.MaxIter; it++ {
		//assignment step
		var inertia float64
		for i := 0; i < n; i++ {
			row := X.RawRowView(i)
			best := 0
			bestd := sqDist(row, centers.RawRowView(0))
			for c := 1; c < k; c++ {
				if d := sqDist(row, centers.RawRowView(c)); d < bestd {
					bestd = d
					best = c
				}
			}
			assign[i] = best
			inertia += bestd
		}
		//update step
		sums.Zero()
		for i := range counts {
			counts[i] = 0
		}
		for i := 0; i < n; i++ {
			c := assign[i]
			counts[c]++
			row := X.RawRowView(i)
			for j := 0; j < dim; j++ {
				sums.Set(c, j, sums.At(c, j)+row[j])
			}
		}
		for c := 0; c < k; c++ {
			if counts[c] == 0 {
				//empty cluster: reseed it at the point farthest from its center
				far, fard := 0, -1.0
				for i := 0; i < n; i++ {
					if d := sqDist(X.RawRowView(i), centers.RawRowView(assign[i])); d > fard {
						fard = d
						far = i
					}
				}
				centers.SetRow(c, X.RawRowView(far))
				continue
			}
			for j := 0; j < dim; j++ {
				centers.Set(c, j, sums.At(c, j)/float64(counts[c]))
			}
		}
		ret.Iterations = it + 1
		if prev-inertia >= 0 && (prev-inertia) <= opts.Tol*prev {
			ret.Inertia = inertia
			break
		}
		prev = inertia
		ret.Inertia = inertia
	}
	ret.Centers = centers
	ret.Assignments = assign
	return ret, nil
}

// Assign maps the rows of X to their closest centers. It is used to
// discretize trajectories that were not part of the clustering run.
func (km *KMeans) Assign(X *mat.Dense) ([]int, error) {
	if X == nil {
		return nil, fmt.Errorf("cluster: nil data")
	}
	n, dim := X.Dims()
	k, cdim := km.Centers.Dims()
	if dim != cdim {
		return nil, fmt.Errorf("cluster: data has %d dimensions, centers have %d", dim, cdim)
	}
	ret := make([]int, n)
	for i := 0; i < n; i++ {
		row := X.RawRowView(i)
		best := 0
		bestd := sqDist(row, km.Centers.RawRowView(0))
		for c := 1; c < k; c++ {
			if d := sqDist(row, km.Centers.RawRowView(c)); d < bestd {
				bestd = d
				best = c
			}
		}
		ret[i] = best
	}
	return ret, nil
}

// DiscretizeAll assigns several projected trajectories, keeping them
// separate so transition counting can respect trajectory boundaries.
func (km *KMeans) DiscretizeAll(Xs []*mat.Dense) ([][]int, error) {
	ret := make([][]int, len(Xs))
	var err error
	for i, X := range Xs {
		ret[i], err = km.Assign(X)
		if err != nil {
			return nil, err
		}
	}
	return ret, nil
}
