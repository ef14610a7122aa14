package filters

import (
	"fmt"
	"slices"

	"gonum.org/v1/gonum/floats"
)

// FiltFilt applies the filter forward and then backward so the result has zero
// phase distortion and a squared magnitude response.
//
// The signal is extended at both ends by an odd reflection of
// 3*max(len(a), len(b)) samples, and each pass starts from the steady-state
// initial condition scaled to its first sample.
func FiltFilt(f *IIRFilter, x []float64) ([]float64, error) {
	padLen := 3 * len(f.a)
	if len(x) <= padLen {
		return nil, fmt.Errorf("signal of %d samples is too short for zero-phase filtering (need more than %d)", len(x), padLen)
	}

	zi, err := f.SteadyStateZi()
	if err != nil {
		return nil, err
	}

	ext := oddExtend(x, padLen)

	forward, _, err := f.Filter(ext, scaled(zi, ext[0]))
	if err != nil {
		return nil, err
	}

	slices.Reverse(forward)
	backward, _, err := f.Filter(forward, scaled(zi, forward[0]))
	if err != nil {
		return nil, err
	}
	slices.Reverse(backward)

	return backward[padLen : len(backward)-padLen], nil
}

// oddExtend reflects padLen samples about each endpoint: 2*x[0] - x[k] on the
// left and 2*x[n-1] - x[n-1-k] on the right, k = 1..padLen.
func oddExtend(x []float64, padLen int) []float64 {
	n := len(x)
	ext := make([]float64, 0, n+2*padLen)
	for k := padLen; k >= 1; k-- {
		ext = append(ext, 2*x[0]-x[k])
	}
	ext = append(ext, x...)
	for k := 1; k <= padLen; k++ {
		ext = append(ext, 2*x[n-1]-x[n-1-k])
	}
	return ext
}

func scaled(v []float64, s float64) []float64 {
	out := make([]float64, len(v))
	floats.ScaleTo(out, s, v)
	return out
}
