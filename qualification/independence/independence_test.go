package independence

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RyanBlaney/shaketable/qualification/errs"
)

func noise(seed uint64, n int) []float64 {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	out := make([]float64, n)
	for i := range out {
		out[i] = rng.NormFloat64()
	}
	return out
}

func sine(freq, dt float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.Sin(2 * math.Pi * freq * float64(i) * dt)
	}
	return out
}

func TestCrossCorrelationIndependentAxes(t *testing.T) {
	signals := map[string][]float64{
		"X": noise(1, 2000),
		"Y": noise(2, 2000),
		"Z": noise(3, 2000),
	}

	result, err := NewCrossCorrelationAnalyzer().Analyze(signals, 0.005)
	require.NoError(t, err)
	require.Len(t, result.Pairs, 3)

	assert.Equal(t, "X-Y", result.Pairs[0].Key)
	assert.Equal(t, "X-Z", result.Pairs[1].Key)
	assert.Equal(t, "Y-Z", result.Pairs[2].Key)
	assert.Equal(t, "X vs. Y", result.Pairs[0].Label)

	for _, p := range result.Pairs {
		assert.Len(t, p.Correlation, 3999)
		assert.Len(t, p.Lags, 3999)
		assert.InDelta(t, -1999*0.005, p.Lags[0], 1e-9)
		assert.InDelta(t, 1999*0.005, p.Lags[len(p.Lags)-1], 1e-9)
		assert.LessOrEqual(t, p.MaxAbs, result.MaxCorrelation)
	}

	assert.Less(t, result.MaxCorrelation, DefaultCorrelationThreshold)
	assert.Greater(t, result.Factor, 1.0)
	assert.InDelta(t, 0.3/result.MaxCorrelation, result.Factor, 1e-12)
}

func TestCrossCorrelationIdenticalAxes(t *testing.T) {
	// Whole periods, so the sine has zero mean and unit normalized peak
	x := sine(5, 0.001, 1000)
	signals := map[string][]float64{"X": x, "Y": x}

	result, err := NewCrossCorrelationAnalyzer().Analyze(signals, 0.001)
	require.NoError(t, err)
	require.Len(t, result.Pairs, 1)

	assert.InDelta(t, 1.0, result.MaxCorrelation, 1e-9)
	assert.InDelta(t, 0.3, result.Factor, 1e-9)
	assert.InDelta(t, 1.0, result.Pairs[0].Correlation[999], 1e-9)
}

func TestCrossCorrelationEdgeCases(t *testing.T) {
	t.Run("constant signals", func(t *testing.T) {
		signals := map[string][]float64{
			"X": {1, 1, 1, 1},
			"Z": {2, 2, 2, 2},
		}
		result, err := NewCrossCorrelationAnalyzer().Analyze(signals, 0.01)
		require.NoError(t, err)
		assert.Equal(t, 0.0, result.MaxCorrelation)
		assert.True(t, math.IsInf(result.Factor, 1))
		assert.Equal(t, "X-Z", result.Pairs[0].Key)
	})

	t.Run("single axis", func(t *testing.T) {
		result, err := NewCrossCorrelationAnalyzer().Analyze(map[string][]float64{"Y": {1, 2}}, 0.01)
		require.NoError(t, err)
		assert.Empty(t, result.Pairs)
		assert.True(t, math.IsInf(result.Factor, 1))
	})

	t.Run("unequal lengths", func(t *testing.T) {
		signals := map[string][]float64{"X": {1, 2, 3}, "Y": {1, 2}}
		_, err := NewCrossCorrelationAnalyzer().Analyze(signals, 0.01)
		assert.ErrorIs(t, err, errs.ErrDataShape)
	})

	t.Run("custom threshold", func(t *testing.T) {
		x := sine(5, 0.001, 1000)
		result, err := NewCrossCorrelationAnalyzerWithThreshold(0.5).Analyze(map[string][]float64{"X": x, "Y": x}, 0.001)
		require.NoError(t, err)
		assert.InDelta(t, 0.5, result.Factor, 1e-9)
	})
}

func TestCoherenceGrid(t *testing.T) {
	freqs := NewCoherenceAnalyzer(0).frequencies
	require.NotEmpty(t, freqs)
	assert.Equal(t, 1.3, freqs[0])
	assert.LessOrEqual(t, freqs[len(freqs)-1], 33.3)
	assert.Greater(t, freqs[len(freqs)-1]*math.Pow(2, 1.0/72), 33.3)
}

func TestCoherenceIdenticalAxes(t *testing.T) {
	x := noise(7, 6000)
	signals := map[string][]float64{"X": x, "Y": x}

	result, err := NewCoherenceAnalyzer(1.25).Analyze(signals, 200)
	require.NoError(t, err)
	require.Len(t, result.Pairs, 1)

	for _, c := range result.Pairs[0].Coherence {
		assert.InDelta(t, 1.0, c, 1e-9)
	}
	assert.InDelta(t, 0.5, result.Factor, 1e-9)
	assert.Len(t, result.Pairs[0].Coherence, len(result.Frequencies))
}

func TestCoherenceIndependentAxes(t *testing.T) {
	signals := map[string][]float64{
		"X": noise(11, 12000),
		"Y": noise(12, 12000),
		"Z": noise(13, 12000),
	}

	result, err := NewCoherenceAnalyzer(1.25).Analyze(signals, 200)
	require.NoError(t, err)
	require.Len(t, result.Pairs, 3)

	assert.Less(t, result.MaxCoherence, 0.3)
	assert.Greater(t, result.Factor, 1.0)
	for _, p := range result.Pairs {
		for _, c := range p.Coherence {
			assert.GreaterOrEqual(t, c, 0.0)
			assert.LessOrEqual(t, c, 1.0+1e-12)
		}
	}
}

func TestCoherenceEdgeCases(t *testing.T) {
	t.Run("zero signals", func(t *testing.T) {
		z := make([]float64, 1000)
		result, err := NewCoherenceAnalyzer(1).Analyze(map[string][]float64{"X": z, "Y": z}, 100)
		require.NoError(t, err)
		assert.Equal(t, 0.0, result.MaxCoherence)
		assert.True(t, math.IsInf(result.Factor, 1))
	})

	t.Run("bad sample rate", func(t *testing.T) {
		_, err := NewCoherenceAnalyzer(1).Analyze(map[string][]float64{"X": {1, 2}, "Y": {1, 2}}, 0.2)
		assert.ErrorIs(t, err, errs.ErrNumericDomain)
	})

	t.Run("unequal lengths", func(t *testing.T) {
		_, err := NewCoherenceAnalyzer(1).Analyze(map[string][]float64{"X": {1, 2, 3}, "Y": {1, 2}}, 100)
		assert.ErrorIs(t, err, errs.ErrDataShape)
	})
}

func TestTrimEdges(t *testing.T) {
	long := make([]float64, 100)
	for i := range long {
		long[i] = float64(i)
	}

	trimmed := trimEdges(long, 2)
	assert.Len(t, trimmed, 80)
	assert.Equal(t, 10.0, trimmed[0])

	// 5 s at 10 Hz is half of the record: kept whole
	assert.Len(t, trimEdges(long, 10), 100)
}
