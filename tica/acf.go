package tica

import (
	"fmt"
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/stat"
)

func cmplxMulConj(dst, b []complex128) {
	if len(dst) != len(b) {
		panic(fmt.Sprintf("complex conjugate multiplication of slices: both slices should have the same len %d, %d", len(dst), len(b)))
	}
	for i, v := range b {
		dst[i] *= cmplx.Conj(v)
	}
}

// Autocorr computes the normalized autocorrelation function of a scalar
// series up to maxlag, via FFT on a zero-padded copy. The result has
// maxlag+1 elements and starts at 1 for lag 0 (for any non-constant series).
// It is the standard diagnostic for picking TICA/MSM lag times: the lag
// should sit past the fast initial decay.
func Autocorr(series []float64, maxlag int) ([]float64, error) {
	n := len(series)
	if n < 2 {
		return nil, fmt.Errorf("tica: series too short for an autocorrelation")
	}
	if maxlag < 0 || maxlag >= n {
		maxlag = n - 1
	}
	mean := stat.Mean(series, nil)
	variance := stat.Variance(series, nil)
	if variance == 0 {
		return nil, fmt.Errorf("tica: constant series has no autocorrelation")
	}
	//pad to twice the length so the circular convolution becomes linear
	pad := make([]complex128, 2*n)
	for i, v := range series {
		pad[i] = complex(v-mean, 0)
	}
	f := fourier.NewCmplxFFT(len(pad))
	f.Coefficients(pad, pad)
	cmplxMulConj(pad, pad)
	f.Sequence(pad, pad)
	scale := 1.0 / float64(len(pad)) //normalization of the FFT round trip
	zero := real(pad[0]) * scale / float64(n)
	ret := make([]float64, maxlag+1)
	for i := range ret {
		//unbiased estimate: lag i has only n-i contributing pairs
		ret[i] = real(pad[i]) * scale / float64(n-i) / zero
	}
	return ret, nil
}
