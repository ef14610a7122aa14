package filters

import (
	"fmt"
	"math"
	"math/cmplx"
)

// DesignButterworthLowpass designs a digital Butterworth low-pass filter of the
// given order with its -3 dB point at cutoffHz. The cutoff is normalised by
// the Nyquist frequency, sampleRate/2.
//
// The analog prototype poles are scaled to the prewarped cutoff and mapped to
// the z-plane with the bilinear transform; all N zeros land at z = -1.
//
// References:
// - Oppenheim, A.V., Schafer, R.W. (2010). "Discrete-Time Signal Processing", §7.1
func DesignButterworthLowpass(order int, cutoffHz, sampleRate float64) (*IIRFilter, error) {
	if order < 1 {
		return nil, fmt.Errorf("butterworth order must be at least 1, got %d", order)
	}
	if sampleRate <= 0 {
		return nil, fmt.Errorf("sample rate must be positive, got %g", sampleRate)
	}

	wn := cutoffHz / (sampleRate / 2)
	if wn <= 0 || wn >= 1 {
		return nil, fmt.Errorf("cutoff %g Hz must lie strictly between 0 and Nyquist (%g Hz)", cutoffHz, sampleRate/2)
	}

	return butterworthFromNormalized(order, wn), nil
}

// butterworthFromNormalized designs against a cutoff normalised to Nyquist.
func butterworthFromNormalized(order int, wn float64) *IIRFilter {
	// Bilinear transform with an internal sample rate of 2, so 2*fs == 4
	const fs2 = 4.0
	warped := fs2 * math.Tan(math.Pi*wn/2)

	poles := make([]complex128, 0, order)
	for m := -order + 1; m < order; m += 2 {
		p := -cmplx.Exp(complex(0, math.Pi*float64(m)/float64(2*order)))
		poles = append(poles, p*complex(warped, 0))
	}
	gain := math.Pow(warped, float64(order))

	zPoles := make([]complex128, order)
	zZeros := make([]complex128, order)
	denominator := complex(1, 0)
	for i, p := range poles {
		zPoles[i] = (fs2 + p) / (fs2 - p)
		zZeros[i] = -1
		denominator *= fs2 - p
	}
	gain *= real(1 / denominator)

	b := realPoly(zZeros)
	for i := range b {
		b[i] *= gain
	}
	a := realPoly(zPoles)

	// a[0] is 1 by construction
	return &IIRFilter{b: b, a: a}
}

// realPoly expands prod(x - r) into descending-power coefficients. Roots come
// in conjugate pairs, so the imaginary parts cancel.
func realPoly(roots []complex128) []float64 {
	c := []complex128{1}
	for _, r := range roots {
		next := make([]complex128, len(c)+1)
		for i, v := range c {
			next[i] += v
			next[i+1] -= v * r
		}
		c = next
	}

	out := make([]float64, len(c))
	for i, v := range c {
		out[i] = real(v)
	}
	return out
}
