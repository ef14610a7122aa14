package filters

import (
	"math"
	"math/cmplx"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestButterworthSecondOrderHalfNyquist(t *testing.T) {
	f, err := DesignButterworthLowpass(2, 25, 100)
	require.NoError(t, err)

	assert.InDeltaSlice(t, []float64{0.29289321881345254, 0.5857864376269051, 0.29289321881345254}, f.b, 1e-12)
	assert.InDeltaSlice(t, []float64{1, 0, 0.1715728752538099}, f.a, 1e-12)
}

func TestButterworthFirstOrder(t *testing.T) {
	f, err := DesignButterworthLowpass(1, 25, 100)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{0.5, 0.5}, f.b, 1e-12)
	assert.InDeltaSlice(t, []float64{1, 0}, f.a, 1e-12)
}

func TestButterworthUnityDCGain(t *testing.T) {
	for _, order := range []int{1, 2, 3, 4, 6} {
		f, err := DesignButterworthLowpass(order, 12, 512)
		require.NoError(t, err)

		sb, sa := 0.0, 0.0
		for _, v := range f.b {
			sb += v
		}
		for _, v := range f.a {
			sa += v
		}
		assert.InDelta(t, 1.0, sb/sa, 1e-9, "order %d", order)
	}
}

func TestButterworthHalfPowerAtCutoffHz(t *testing.T) {
	const cutoff, sampleRate = 20.0, 200.0

	gain := func(f *IIRFilter, hz float64) float64 {
		z := cmplx.Exp(complex(0, -2*math.Pi*hz/sampleRate))
		num, den := complex(0, 0), complex(0, 0)
		for k := range f.b {
			zk := cmplx.Pow(z, complex(float64(k), 0))
			num += complex(f.b[k], 0) * zk
			den += complex(f.a[k], 0) * zk
		}
		return cmplx.Abs(num / den)
	}

	for _, order := range []int{2, 4} {
		f, err := DesignButterworthLowpass(order, cutoff, sampleRate)
		require.NoError(t, err)
		assert.InDelta(t, 1/math.Sqrt2, gain(f, cutoff), 1e-9, "order %d", order)
		// Flat passband an octave below the cutoff
		assert.Greater(t, gain(f, cutoff/2), 0.95, "order %d", order)
	}
}

func TestButterworthRejectsBadCutoff(t *testing.T) {
	_, err := DesignButterworthLowpass(2, 50, 100)
	assert.Error(t, err)
	_, err = DesignButterworthLowpass(2, 0, 100)
	assert.Error(t, err)
	_, err = DesignButterworthLowpass(0, 10, 100)
	assert.Error(t, err)
}

func TestSteadyStateZi(t *testing.T) {
	f, err := DesignButterworthLowpass(2, 25, 100)
	require.NoError(t, err)

	zi, err := f.SteadyStateZi()
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{0.7071067811865476, 0.12132034355964257}, zi, 1e-12)

	// Starting from the steady state, a step produces no transient
	y, _, err := f.Filter([]float64{1, 1, 1, 1, 1}, zi)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{1, 1, 1, 1, 1}, y, 1e-12)
}

func TestIIRFilterImpulseResponse(t *testing.T) {
	// y[n] = x[n] + 0.5 y[n-1]
	f, err := NewIIRFilter([]float64{1}, []float64{1, -0.5})
	require.NoError(t, err)

	y, zf, err := f.Filter([]float64{1, 0, 0, 0}, nil)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{1, 0.5, 0.25, 0.125}, y, 1e-15)
	assert.Len(t, zf, 1)

	_, _, err = f.Filter([]float64{1}, []float64{1, 2})
	assert.Error(t, err)
}

func TestNewIIRFilterNormalises(t *testing.T) {
	f, err := NewIIRFilter([]float64{2, 4}, []float64{2})
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2}, f.b)
	assert.Equal(t, []float64{1, 0}, f.a)

	_, err = NewIIRFilter([]float64{1}, []float64{0, 1})
	assert.Error(t, err)
}

func TestFiltFiltConstantSignal(t *testing.T) {
	f, err := DesignButterworthLowpass(4, 10, 200)
	require.NoError(t, err)

	x := make([]float64, 100)
	for i := range x {
		x[i] = 3.25
	}
	y, err := FiltFilt(f, x)
	require.NoError(t, err)
	assert.InDeltaSlice(t, x, y, 1e-9)
}

func TestFiltFiltRemovesHighFrequencyWithoutPhaseShift(t *testing.T) {
	const sampleRate = 500.0
	n := 2000
	low := make([]float64, n)
	x := make([]float64, n)
	for i := range x {
		tm := float64(i) / sampleRate
		low[i] = math.Sin(2 * math.Pi * 2 * tm)
		x[i] = low[i] + 0.8*math.Sin(2*math.Pi*120*tm)
	}

	f, err := DesignButterworthLowpass(4, 20, sampleRate)
	require.NoError(t, err)
	y, err := FiltFilt(f, x)
	require.NoError(t, err)
	require.Len(t, y, n)

	// Away from the edges the 2 Hz component passes in phase
	for i := 200; i < n-200; i++ {
		assert.InDelta(t, low[i], y[i], 0.01)
	}
}

func TestFiltFiltTooShort(t *testing.T) {
	f, err := DesignButterworthLowpass(2, 10, 100)
	require.NoError(t, err)
	_, err = FiltFilt(f, make([]float64, 9))
	assert.Error(t, err)
}
