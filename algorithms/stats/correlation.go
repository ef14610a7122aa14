package stats

import (
	"fmt"
	"math"
	"math/cmplx"

	"github.com/RyanBlaney/shaketable/algorithms/common"
	"github.com/RyanBlaney/shaketable/algorithms/spectral"
)

// CorrelationResult contains a full-length cross-correlation and its peak.
type CorrelationResult struct {
	Correlations []float64 `json:"correlations"`
	Lags         []int     `json:"lags"`

	// Peak is by absolute value; PeakLag is the lag at which it occurs.
	PeakCorrelation float64 `json:"peak_correlation"`
	PeakLag         int     `json:"peak_lag"`
	PeakIndex       int     `json:"peak_index"`
}

// CrossCorrelation computes the full linear cross-correlation of two signals
//
//	r[m] = sum_l x[l] * y[l-m],   m = -(len(y)-1) .. len(x)-1
//
// normalized by N*std(x)*std(y), where N = len(x) and std is the population
// standard deviation. Signals are not mean-removed before correlating.
//
// References:
// - Oppenheim, A.V., Schafer, R.W. (2010). "Discrete-Time Signal Processing"
// - Bendat, J.S., Piersol, A.G. (2010). "Random Data: Analysis and Measurement Procedures"
type CrossCorrelation struct {
	fft *spectral.FFT

	// Below this the signal is treated as constant and correlates to zero
	minStdDev float64
}

// NewCrossCorrelation creates a cross-correlation calculator.
func NewCrossCorrelation() *CrossCorrelation {
	return &CrossCorrelation{
		fft:       spectral.NewFFT(),
		minStdDev: 0,
	}
}

// Compute returns the normalized correlation at every lag.
func (cc *CrossCorrelation) Compute(signal1, signal2 []float64) (*CorrelationResult, error) {
	if len(signal1) == 0 || len(signal2) == 0 {
		return nil, fmt.Errorf("empty signals provided")
	}

	n1, n2 := len(signal1), len(signal2)
	numLags := n1 + n2 - 1

	lags := make([]int, numLags)
	for i := range lags {
		lags[i] = i - (n2 - 1)
	}

	std1 := common.PopStdDev(signal1)
	std2 := common.PopStdDev(signal2)
	norm := float64(n1) * std1 * std2

	correlations := make([]float64, numLags)
	if std1 <= cc.minStdDev || std2 <= cc.minStdDev || norm == 0 {
		return &CorrelationResult{
			Correlations: correlations,
			Lags:         lags,
			PeakIndex:    0,
			PeakLag:      lags[0],
		}, nil
	}

	raw := cc.computeFFT(signal1, signal2)
	for i, lag := range lags {
		idx := lag
		if lag < 0 {
			idx = len(raw) + lag
		}
		correlations[i] = raw[idx] / norm
	}

	peakIdx := 0
	peak := 0.0
	for i, c := range correlations {
		if a := math.Abs(c); a > peak {
			peak = a
			peakIdx = i
		}
	}

	return &CorrelationResult{
		Correlations:    correlations,
		Lags:            lags,
		PeakCorrelation: peak,
		PeakLag:         lags[peakIdx],
		PeakIndex:       peakIdx,
	}, nil
}

// computeFFT evaluates the circular correlation IFFT(X * conj(Y)) on a
// zero-padded power-of-2 length long enough that no lags wrap.
func (cc *CrossCorrelation) computeFFT(signal1, signal2 []float64) []float64 {
	n1, n2 := len(signal1), len(signal2)
	fftSize := common.NextPowerOfTwo(n1 + n2 - 1)

	padded1 := make([]complex128, fftSize)
	padded2 := make([]complex128, fftSize)
	for i, v := range signal1 {
		padded1[i] = complex(v, 0)
	}
	for i, v := range signal2 {
		padded2[i] = complex(v, 0)
	}

	fft1 := cc.fft.ComputeComplex(padded1)
	fft2 := cc.fft.ComputeComplex(padded2)

	crossPower := make([]complex128, fftSize)
	for i := range fftSize {
		crossPower[i] = fft1[i] * cmplx.Conj(fft2[i])
	}

	return cc.fft.ComputeInverseReal(crossPower)
}
