package spectral

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFFTInverseRealRoundTrip(t *testing.T) {
	f := NewFFT()
	x := []complex128{1, -2, 3.5, 0, 4, -1, 2, 0.25}

	spectrum := f.ComputeComplex(x)
	require.Len(t, spectrum, len(x))
	// DC bin is the sum of the samples
	assert.InDelta(t, 7.75, real(spectrum[0]), 1e-12)

	back := f.ComputeInverseReal(spectrum)
	require.Len(t, back, len(x))
	for i := range x {
		assert.InDelta(t, real(x[i]), back[i], 1e-12)
	}
}

func TestFFTEmptyInput(t *testing.T) {
	f := NewFFT()
	assert.Empty(t, f.Compute(nil))
	assert.Empty(t, f.ComputeComplex(nil))
	assert.Empty(t, f.ComputeInverseReal(nil))
}
