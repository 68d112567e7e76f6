//Package histo builds one and two dimensional histograms over reduced
//trajectory coordinates and converts them into potentials of mean force.
package histo

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Boltzmann constant in kcal/(mol K).
const KB = 0.0019872041

// Data is a 1D histogram. Dividers are the len(histo)+1 bin edges; values
// outside [dividers[0], dividers[last]) are silently dropped.
type Data struct {
	normalized bool
	total      int
	dividers   []float64
	histo      []float64
}

// NewData returns a histogram with the given bin edges, prefilled with
// rawdata when it is not nil.
func NewData(dividers, rawdata []float64) (*Data, error) {
	if len(dividers) < 2 {
		return nil, fmt.Errorf("histo: need at least 2 bin edges, got %d", len(dividers))
	}
	if !sort.Float64sAreSorted(dividers) {
		return nil, fmt.Errorf("histo: bin edges must be sorted")
	}
	d := new(Data)
	d.dividers = make([]float64, len(dividers))
	copy(d.dividers, dividers)
	d.histo = make([]float64, len(dividers)-1)
	if rawdata != nil {
		d.rehisto(rawdata)
	}
	return d, nil
}

// UniformDividers returns nbins+1 equally spaced edges covering [min, max].
func UniformDividers(min, max float64, nbins int) []float64 {
	ret := make([]float64, nbins+1)
	w := (max - min) / float64(nbins)
	for i := range ret {
		ret[i] = min + float64(i)*w
	}
	ret[nbins] = max //no roundoff on the last edge
	return ret
}

func (D *Data) rehisto(rawdata []float64) {
	data := make([]float64, len(rawdata))
	copy(data, rawdata)
	sort.Float64s(data)
	//stat.Histogram panics on out-of-range values, so fence them off first
	maxi := sort.SearchFloat64s(data, D.dividers[len(D.dividers)-1])
	mini := sort.SearchFloat64s(data, D.dividers[0])
	data = data[mini:maxi]
	D.total = len(data)
	stat.Histogram(D.histo, D.dividers, data, nil)
}

// AddData adds data points one by one, keeping the normalization state.
func (D *Data) AddData(point ...float64) {
	norma := D.normalized
	if norma {
		D.UnNormalize()
	}
	for _, v := range point {
		if v < D.dividers[0] || v >= D.dividers[len(D.dividers)-1] {
			continue
		}
		j := sort.SearchFloat64s(D.dividers, v)
		if j > 0 && D.dividers[j] != v {
			j--
		}
		D.histo[j]++
		D.total++
	}
	if norma {
		D.Normalize()
	}
}

// Total returns the number of points counted so far.
func (D *Data) Total() int { return D.total }

// Normalized reports whether the histogram currently holds probabilities.
func (D *Data) Normalized() bool { return D.normalized }

// Normalize scales the histogram so its bins sum to 1.
func (D *Data) Normalize() { D.normaunnorma(true) }

// UnNormalize restores raw counts.
func (D *Data) UnNormalize() { D.normaunnorma(false) }

func (D *Data) normaunnorma(normalize bool) {
	if D.total <= 0 || D.normalized == normalize {
		return
	}
	n := float64(D.total)
	D.normalized = false
	if normalize {
		n = 1 / float64(D.total)
		D.normalized = true
	}
	floats.Scale(n, D.histo)
}

// View returns the live bin slice. Mutating it mutates the histogram.
func (D *Data) View() []float64 { return D.histo }

// Copy returns a copy of the bins, into dest when it is large enough.
func (D *Data) Copy(dest ...[]float64) []float64 {
	d := getCopySlice(len(D.histo), dest...)
	return floats.ScaleTo(d, 1, D.histo)
}

// CopyDividers returns a copy of the bin edges.
func (D *Data) CopyDividers(dest ...[]float64) []float64 {
	d := getCopySlice(len(D.dividers), dest...)
	return floats.ScaleTo(d, 1, D.dividers)
}

// Centers returns the midpoint of every bin.
func (D *Data) Centers() []float64 {
	ret := make([]float64, len(D.histo))
	for i := range ret {
		ret[i] = 0.5 * (D.dividers[i] + D.dividers[i+1])
	}
	return ret
}

// PMF converts the histogram into a potential of mean force at temperature
// temp (Kelvin), F_i = -kT ln(p_i / p_max), in kcal/mol. Empty bins get the
// largest finite value of the surface so plots stay bounded.
func (D *Data) PMF(temp float64) ([]float64, error) {
	if D.total == 0 {
		return nil, fmt.Errorf("histo: empty histogram has no PMF")
	}
	probs := D.Copy()
	if !D.normalized {
		floats.Scale(1/float64(D.total), probs)
	}
	return pmf(probs, temp), nil
}

func pmf(probs []float64, temp float64) []float64 {
	pmax := floats.Max(probs)
	kt := KB * temp
	ret := make([]float64, len(probs))
	ceil := 0.0
	for i, p := range probs {
		if p <= 0 {
			ret[i] = math.Inf(1)
			continue
		}
		ret[i] = -kt * math.Log(p/pmax)
		if ret[i] > ceil {
			ceil = ret[i]
		}
	}
	for i, v := range ret {
		if math.IsInf(v, 1) {
			ret[i] = ceil
		}
	}
	return ret
}

func (D *Data) String() string {
	ret := fmt.Sprintf("Normalized: %v, TotalData: %d\n", D.normalized, D.total)
	d := make([]string, 0, len(D.histo))
	h := make([]string, 0, len(D.histo))
	for i, v := range D.histo {
		d = append(d, fmt.Sprintf("%4.2f-%4.2f", D.dividers[i], D.dividers[i+1]))
		h = append(h, fmt.Sprintf("%9.3f", v))
	}
	return ret + fmt.Sprintf("%s\n%s", strings.Join(d, " "), strings.Join(h, " "))
}

func (D *Data) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Normalized bool      `json:"normalized"`
		Total      int       `json:"total"`
		Dividers   []float64 `json:"dividers"`
		Histo      []float64 `json:"histo"`
	}{
		Normalized: D.normalized,
		Total:      D.total,
		Dividers:   D.dividers,
		Histo:      D.histo,
	})
}

func (D *Data) UnmarshalJSON(b []byte) error {
	var a struct {
		Normalized bool      `json:"normalized"`
		Total      int       `json:"total"`
		Dividers   []float64 `json:"dividers"`
		Histo      []float64 `json:"histo"`
	}
	err := json.Unmarshal(b, &a)
	if err != nil {
		return err
	}
	D.normalized = a.Normalized
	D.total = a.Total
	D.dividers = a.Dividers
	D.histo = a.Histo
	return nil
}

func getCopySlice(N int, dest ...[]float64) []float64 {
	var d []float64
	if len(dest) > 0 && len(dest[0]) >= N {
		d = dest[0][:N]
	} else {
		d = make([]float64, N)
	}
	return d
}
