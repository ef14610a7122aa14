package spectral

import (
	"fmt"
	"math/cmplx"

	"gonum.org/v1/gonum/floats"

	"github.com/RyanBlaney/shaketable/algorithms/common"
	"github.com/RyanBlaney/shaketable/algorithms/windowing"
	"github.com/RyanBlaney/shaketable/logging"
)

// DefaultSegmentLength is the Welch segment length used when none is configured.
const DefaultSegmentLength = 256

// Welch estimates spectral densities by averaging periodograms of overlapping,
// mean-removed, Hann-windowed segments.
//
// Densities are one-sided and scaled to units²/Hz: each segment periodogram is
// divided by fs*sum(w²) and every bin except DC (and Nyquist for even lengths)
// is doubled.
type Welch struct {
	sampleRate    float64
	segmentLength int
	overlap       int
	window        *windowing.Hann
	fft           *FFT
	logger        logging.Logger
}

// CrossSpectrum holds a one-sided complex cross spectral density.
type CrossSpectrum struct {
	Frequencies []float64    `json:"frequencies"`
	Density     []complex128 `json:"-"`
	Segments    int          `json:"segments"`
}

// AutoSpectrum holds a one-sided real power spectral density.
type AutoSpectrum struct {
	Frequencies []float64 `json:"frequencies"`
	Density     []float64 `json:"density"`
	Segments    int       `json:"segments"`
}

// NewWelch creates an estimator with explicit segment length and overlap in samples.
func NewWelch(sampleRate float64, segmentLength, overlap int) (*Welch, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("sample rate must be positive, got %g", sampleRate)
	}
	if segmentLength <= 0 {
		return nil, fmt.Errorf("segment length must be positive, got %d", segmentLength)
	}
	if overlap < 0 || overlap >= segmentLength {
		return nil, fmt.Errorf("overlap must be in [0, %d), got %d", segmentLength, overlap)
	}

	return &Welch{
		sampleRate:    sampleRate,
		segmentLength: segmentLength,
		overlap:       overlap,
		window:        windowing.NewPeriodicHann(segmentLength),
		fft:           NewFFT(),
		logger: logging.WithFields(logging.Fields{
			"component":      "welch",
			"segment_length": segmentLength,
		}),
	}, nil
}

// NewWelchForSignal picks the segment length for a signal of n samples: the
// requested length, or n when the signal is shorter, with 50% overlap.
func NewWelchForSignal(sampleRate float64, segmentLength, n int) (*Welch, error) {
	if segmentLength <= 0 {
		segmentLength = DefaultSegmentLength
	}
	if n > 0 && segmentLength > n {
		segmentLength = n
	}
	return NewWelch(sampleRate, segmentLength, segmentLength/2)
}

// SegmentLength returns the configured segment length in samples.
func (w *Welch) SegmentLength() int {
	return w.segmentLength
}

// Overlap returns the configured overlap in samples.
func (w *Welch) Overlap() int {
	return w.overlap
}

// CrossSpectralDensity estimates Pxy = E[conj(X)·Y].
func (w *Welch) CrossSpectralDensity(x, y []float64) (*CrossSpectrum, error) {
	if len(x) != len(y) {
		return nil, fmt.Errorf("signal lengths differ: %d and %d", len(x), len(y))
	}

	segX, err := w.segmentSpectra(x)
	if err != nil {
		return nil, err
	}
	segY, err := w.segmentSpectra(y)
	if err != nil {
		return nil, err
	}

	bins := OneSidedBins(w.segmentLength)
	density := make([]complex128, bins)
	for s := range segX {
		for k := range bins {
			density[k] += cmplx.Conj(segX[s][k]) * segY[s][k]
		}
	}

	w.scale(density, len(segX))

	return &CrossSpectrum{
		Frequencies: BinFrequencies(w.segmentLength, w.sampleRate),
		Density:     density,
		Segments:    len(segX),
	}, nil
}

// PowerSpectralDensity estimates Pxx, the real part of the auto cross spectrum.
func (w *Welch) PowerSpectralDensity(x []float64) (*AutoSpectrum, error) {
	cross, err := w.CrossSpectralDensity(x, x)
	if err != nil {
		return nil, err
	}

	density := make([]float64, len(cross.Density))
	for k, v := range cross.Density {
		density[k] = real(v)
	}

	return &AutoSpectrum{
		Frequencies: cross.Frequencies,
		Density:     density,
		Segments:    cross.Segments,
	}, nil
}

// Coherence estimates the magnitude-squared coherence |Pxy|²/(Pxx·Pyy).
// Bins where either auto spectrum is zero report zero coherence.
func (w *Welch) Coherence(x, y []float64) (*AutoSpectrum, error) {
	pxy, err := w.CrossSpectralDensity(x, y)
	if err != nil {
		return nil, err
	}
	pxx, err := w.PowerSpectralDensity(x)
	if err != nil {
		return nil, err
	}
	pyy, err := w.PowerSpectralDensity(y)
	if err != nil {
		return nil, err
	}

	coherence := make([]float64, len(pxy.Density))
	for k := range coherence {
		denominator := pxx.Density[k] * pyy.Density[k]
		if denominator == 0 {
			continue
		}
		magnitude := cmplx.Abs(pxy.Density[k])
		coherence[k] = magnitude * magnitude / denominator
	}

	return &AutoSpectrum{
		Frequencies: pxy.Frequencies,
		Density:     coherence,
		Segments:    pxy.Segments,
	}, nil
}

// segmentSpectra returns the one-sided FFT of every detrended, windowed segment.
func (w *Welch) segmentSpectra(x []float64) ([][]complex128, error) {
	if len(x) < w.segmentLength {
		return nil, fmt.Errorf("signal of %d samples is shorter than segment length %d", len(x), w.segmentLength)
	}

	step := w.segmentLength - w.overlap
	numSegments := (len(x) - w.overlap) / step
	bins := OneSidedBins(w.segmentLength)

	spectra := make([][]complex128, numSegments)
	buffer := make([]float64, w.segmentLength)

	for s := range numSegments {
		start := s * step
		copy(buffer, x[start:start+w.segmentLength])

		floats.AddConst(-common.Mean(buffer), buffer)

		if err := w.window.ApplyInPlace(buffer); err != nil {
			return nil, err
		}

		full := w.fft.Compute(buffer)
		spectra[s] = append([]complex128(nil), full[:bins]...)
	}

	w.logger.Debug("Computed segment spectra", logging.Fields{
		"segments": numSegments,
		"samples":  len(x),
	})

	return spectra, nil
}

// scale averages the accumulated periodograms and applies density scaling and
// the one-sided doubling.
func (w *Welch) scale(density []complex128, segments int) {
	norm := 1.0 / (w.sampleRate * w.window.SumSquares() * float64(segments))

	last := len(density)
	if w.segmentLength%2 == 0 {
		last = len(density) - 1
	}

	for k := range density {
		factor := norm
		if k > 0 && k < last {
			factor *= 2
		}
		density[k] *= complex(factor, 0)
	}
}
