package common

import (
	"fmt"
	"math"
	"strconv"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/interp"
	"gonum.org/v1/gonum/stat"
)

// Numeric helpers shared by the spectral and qualification packages

// Round rounds x to the given number of decimal places using the exact binary
// value of x and ties-to-even, so 2.675 rounds to 2.67 and 1.675 (stored slightly
// above the tie) rounds to 1.68.
func Round(x float64, decimals int) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return x
	}
	rounded, err := strconv.ParseFloat(strconv.FormatFloat(x, 'f', decimals, 64), 64)
	if err != nil {
		return x
	}
	return rounded
}

// CeilToStep rounds x up to the next multiple of step, computed as ceil(x/step)*step
// with step expressed as 1/divisions (e.g. divisions=10 for 0.1 Hz).
func CeilToStep(x float64, divisions int) float64 {
	d := float64(divisions)
	return math.Ceil(x*d) / d
}

// Clamp constrains a value to a range
func Clamp(value, min, max float64) float64 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}

// Mean calculates the arithmetic mean of a slice using gonum
func Mean(data []float64) float64 {
	if len(data) == 0 {
		return 0.0
	}
	return stat.Mean(data, nil)
}

// PopStdDev is the biased (divide by N) standard deviation.
func PopStdDev(data []float64) float64 {
	if len(data) == 0 {
		return 0.0
	}
	return stat.PopStdDev(data, nil)
}

// MaxAbs returns max(|x|), or 0 for an empty slice.
func MaxAbs(data []float64) float64 {
	if len(data) == 0 {
		return 0.0
	}
	return math.Max(math.Abs(floats.Max(data)), math.Abs(floats.Min(data)))
}

// ArgMax returns the index of the first maximum, or -1 for an empty slice.
func ArgMax(data []float64) int {
	if len(data) == 0 {
		return -1
	}
	return floats.MaxIdx(data)
}

// Stride returns data[start], data[start+step], ... as a new slice.
func Stride(data []float64, start, step int) []float64 {
	if start >= len(data) || step <= 0 {
		return []float64{}
	}
	out := make([]float64, 0, (len(data)-start+step-1)/step)
	for i := start; i < len(data); i += step {
		out = append(out, data[i])
	}
	return out
}

// InterpLinear evaluates the piecewise-linear interpolant through (xs, ys) at each
// point of at. Points outside [xs[0], xs[n-1]] take the nearest end value.
func InterpLinear(xs, ys, at []float64) ([]float64, error) {
	if len(xs) != len(ys) {
		return nil, fmt.Errorf("interpolation knots mismatch: %d x values, %d y values", len(xs), len(ys))
	}

	out := make([]float64, len(at))
	if len(xs) == 1 {
		for i := range out {
			out[i] = ys[0]
		}
		return out, nil
	}

	var pl interp.PiecewiseLinear
	if err := pl.Fit(xs, ys); err != nil {
		return nil, fmt.Errorf("fitting interpolant: %w", err)
	}
	for i, x := range at {
		out[i] = pl.Predict(x)
	}
	return out, nil
}

// NextPowerOfTwo finds the next power of 2 >= n
func NextPowerOfTwo(n int) int {
	if n <= 0 {
		return 1
	}

	power := 1
	for power < n {
		power <<= 1
	}
	return power
}
