package spectral

import (
	"github.com/mjibson/go-dsp/fft"
)

// FFT provides Fast Fourier Transform functionality backed by mjibson/go-dsp.
type FFT struct{}

// NewFFT creates a new FFT calculator
func NewFFT() *FFT {
	return &FFT{}
}

// Compute computes the full complex spectrum of a real signal.
// go-dsp handles non-power-of-2 lengths, so segment lengths are used as given.
func (f *FFT) Compute(x []float64) []complex128 {
	if len(x) == 0 {
		return []complex128{}
	}
	return fft.FFTReal(x)
}

// ComputeComplex computes the forward transform of a complex signal.
func (f *FFT) ComputeComplex(x []complex128) []complex128 {
	if len(x) == 0 {
		return []complex128{}
	}
	return fft.FFT(x)
}

// ComputeInverseReal computes inverse FFT and returns real part only
func (f *FFT) ComputeInverseReal(x []complex128) []float64 {
	if len(x) == 0 {
		return []float64{}
	}

	result := fft.IFFT(x)
	realResult := make([]float64, len(result))

	for i, val := range result {
		realResult[i] = real(val)
	}

	return realResult
}

// OneSidedBins is the number of non-negative frequency bins of an n-point real FFT.
func OneSidedBins(n int) int {
	return n/2 + 1
}

// BinFrequencies returns k*sampleRate/n for k in [0, n/2].
func BinFrequencies(n int, sampleRate float64) []float64 {
	bins := OneSidedBins(n)
	freqs := make([]float64, bins)
	for k := range bins {
		freqs[k] = float64(k) * sampleRate / float64(n)
	}
	return freqs
}
