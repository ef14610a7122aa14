package windowing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPeriodicHann(t *testing.T) {
	w := NewPeriodicHann(4).coefficients
	assert.InDeltaSlice(t, []float64{0, 0.5, 1, 0.5}, w, 1e-15)
}

func TestSymmetricHann(t *testing.T) {
	w := NewHann(5, true).coefficients
	require.Len(t, w, 5)
	assert.InDeltaSlice(t, []float64{0, 0.5, 1, 0.5, 0}, w, 1e-15)
}

func TestHannSumSquares(t *testing.T) {
	// 0 + 0.25 + 1 + 0.25
	assert.InDelta(t, 1.5, NewPeriodicHann(4).SumSquares(), 1e-15)
}

func TestHannApplyInPlaceLengthMismatch(t *testing.T) {
	err := NewPeriodicHann(4).ApplyInPlace(make([]float64, 3))
	assert.Error(t, err)
}

func TestHannApplyInPlace(t *testing.T) {
	buf := []float64{2, 2, 2, 2}
	require.NoError(t, NewPeriodicHann(4).ApplyInPlace(buf))
	assert.InDeltaSlice(t, []float64{0, 1, 2, 1}, buf, 1e-15)
}
