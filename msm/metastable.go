package msm

import (
	"fmt"
	"sort"

	"github.com/stochem/kinet/cluster"
	"gonum.org/v1/gonum/mat"
)

// Metastable is a lumping of microstates into a few metastable sets, with
// the stationary population of each set. Sets are sorted by decreasing
// population; Sorter maps the sorted set index to the microstates it
// contains, on the active set of the model it was built from.
type Metastable struct {
	NSets       int
	Assignments []int       //microstate -> set, after sorting
	Sets        [][]int     //set -> microstates, sorted by population
	Populations []float64   //stationary population of each set, descending
	Sorter      []int       //sorted set index -> original k-means cluster
}

// Lump groups the model's microstates into nsets metastable sets by
// clustering the leading right eigenvectors (the slow structural
// coordinates of the chain) with k-means, then sorts the sets by their
// stationary population. A spectral stand-in for PCCA: cheap and stable
// for the well-separated spectra this pipeline targets.
func (m *MSM) Lump(nsets int, seed uint64) (*Metastable, error) {
	if nsets < 2 {
		return nil, fmt.Errorf("msm: need at least 2 metastable sets, got %d", nsets)
	}
	if nsets > m.N {
		return nil, fmt.Errorf("msm: can't lump %d states into %d sets", m.N, nsets)
	}
	s, err := m.Eigendecompose()
	if err != nil {
		return nil, err
	}
	//embed each microstate in the space of the nsets leading right
	//eigenvectors (the first is constant and carries no information, but
	//keeping it is harmless and keeps the indexing simple)
	emb := mat.NewDense(m.N, nsets, nil)
	for i := 0; i < m.N; i++ {
		for j := 0; j < nsets; j++ {
			emb.Set(i, j, s.Right.At(i, j))
		}
	}
	km, err := cluster.Run(emb, nsets, cluster.Options{Seed: seed})
	if err != nil {
		return nil, err
	}
	pops := make([]float64, nsets)
	for i, c := range km.Assignments {
		pops[c] += s.Pi[i]
	}
	sorter := make([]int, nsets)
	for i := range sorter {
		sorter[i] = i
	}
	sort.Slice(sorter, func(a, b int) bool { return pops[sorter[a]] > pops[sorter[b]] })
	rank := make([]int, nsets) //original cluster -> sorted index
	for newi, old := range sorter {
		rank[old] = newi
	}
	ret := &Metastable{
		NSets:       nsets,
		Assignments: make([]int, m.N),
		Sets:        make([][]int, nsets),
		Populations: make([]float64, nsets),
		Sorter:      sorter,
	}
	for newi, old := range sorter {
		ret.Populations[newi] = pops[old]
	}
	for i, c := range km.Assignments {
		ni := rank[c]
		ret.Assignments[i] = ni
		ret.Sets[ni] = append(ret.Sets[ni], i)
	}
	return ret, nil
}
