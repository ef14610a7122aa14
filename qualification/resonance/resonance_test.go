package resonance

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RyanBlaney/shaketable/qualification/errs"
)

func whiteNoise(seed uint64, n int) []float64 {
	rng := rand.New(rand.NewPCG(seed, 42))
	out := make([]float64, n)
	for i := range out {
		out[i] = rng.NormFloat64()
	}
	return out
}

func TestEstimateScaledCopy(t *testing.T) {
	table := whiteNoise(1, 4096)
	unit := make([]float64, len(table))
	for i, v := range table {
		unit[i] = 2.5 * v
	}

	spectrum, err := NewTransferFunctionEstimator(256).Estimate(table, unit, 200)
	require.NoError(t, err)
	require.Len(t, spectrum.Frequencies, 129)
	assert.InDelta(t, 100.0, spectrum.Frequencies[128], 1e-9)

	for k := 1; k < len(spectrum.Values); k++ {
		assert.InDelta(t, 2.5, spectrum.Values[k], 1e-9, "bin %d", k)
	}
}

func TestEstimateResonantUnit(t *testing.T) {
	const fs = 200.0
	table := whiteNoise(3, 8192)

	// Lightly damped two-pole resonator at 20 Hz driven by the table
	r := 0.97
	theta := 2 * math.Pi * 20 / fs
	a1, a2 := 2*r*math.Cos(theta), -r*r
	unit := make([]float64, len(table))
	for i := range table {
		unit[i] = table[i]
		if i >= 1 {
			unit[i] += a1 * unit[i-1]
		}
		if i >= 2 {
			unit[i] += a2 * unit[i-2]
		}
	}

	spectrum, err := NewTransferFunctionEstimator(256).Estimate(table, unit, fs)
	require.NoError(t, err)

	peak, err := SelectResonance(spectrum.Frequencies, spectrum.Values, 0)
	require.NoError(t, err)
	assert.InDelta(t, 20.0, peak.Frequency, 1.0)
	assert.Greater(t, peak.Transmissibility, 5.0)
	assert.Equal(t, DefaultNaturalFrequency, peak.HintFrequency)
}

func TestEstimateErrors(t *testing.T) {
	e := NewTransferFunctionEstimator(0)

	_, err := e.Estimate([]float64{1, 2, 3}, []float64{1, 2}, 100)
	assert.ErrorIs(t, err, errs.ErrDataShape)

	_, err = e.Estimate([]float64{1}, []float64{1}, 100)
	assert.ErrorIs(t, err, errs.ErrNumericDomain)

	_, err = e.Estimate([]float64{1, 2, 3}, []float64{1, 2, 3}, 0)
	assert.ErrorIs(t, err, errs.ErrNumericDomain)
}

func TestEstimateZeroTable(t *testing.T) {
	zeros := make([]float64, 512)
	spectrum, err := NewTransferFunctionEstimator(128).Estimate(zeros, whiteNoise(5, 512), 100)
	require.NoError(t, err)
	for _, v := range spectrum.Values {
		assert.Equal(t, 0.0, v)
	}
}

func TestSelectResonance(t *testing.T) {
	freqs := []float64{10, 20, 30, 40}
	values := []float64{1, 4, 4, 2}

	peak, err := SelectResonance(freqs, values, 35)
	require.NoError(t, err)
	assert.Equal(t, 20.0, peak.Frequency)
	assert.Equal(t, 4.0, peak.Transmissibility)
	assert.Equal(t, 35.0, peak.HintFrequency)
	assert.InDelta(t, 3.0, peak.HintTransmissibility, 1e-12)

	_, err = SelectResonance(nil, nil, 10)
	assert.ErrorIs(t, err, errs.ErrDataShape)

	_, err = SelectResonance(freqs, values[:2], 10)
	assert.ErrorIs(t, err, errs.ErrDataShape)
}

func TestFrequencyRatio(t *testing.T) {
	ratio, err := FrequencyRatio([]float64{2, 3, 8}, []float64{1, 2, 4})
	require.NoError(t, err)
	assert.Equal(t, []float64{2, 1.5, 2}, ratio)

	_, err = FrequencyRatio([]float64{1}, []float64{0})
	assert.ErrorIs(t, err, errs.ErrNumericDomain)

	_, err = FrequencyRatio([]float64{1, 2}, []float64{1})
	assert.ErrorIs(t, err, errs.ErrDataShape)
}

func TestTableTransmissibility(t *testing.T) {
	assert.Equal(t, []float64{1, 1, 1}, TableTransmissibility([]float64{1, 2, 3}))
	assert.Empty(t, TableTransmissibility(nil))
}

func TestAxisLabel(t *testing.T) {
	tests := []struct {
		mapX, axis, want string
	}{
		{"SS", "X", "SS"},
		{"SS", "Y", "FB"},
		{"SS", "Z", "V"},
		{"FB", "X", "FB"},
		{"FB", "Y", "SS"},
		{"FB", "Z", "V"},
		{"", "X", "SS"},
		{"SS", "Q", "Q"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, AxisLabel(tt.mapX, tt.axis), "%s/%s", tt.mapX, tt.axis)
	}
}
