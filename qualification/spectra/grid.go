// Package spectra derives the required response spectrum from site seismic
// parameters, computes test response spectra with the Smallwood recursive
// filter, and aligns them to 1/6-octave resolution for comparison.
package spectra

import (
	"fmt"
	"math"

	"github.com/RyanBlaney/shaketable/qualification/errs"
)

// Default grid: 0.1 Hz to 38 Hz at 1/72 octave.
const (
	DefaultGridStart    = 0.1
	DefaultGridEnd      = 38.0
	DefaultGridFraction = 1.0 / 72.0
)

// GenerateGrid returns start·2^(j·fraction) for j = 0, 1, ... while the value
// does not exceed end. Each point is computed from start directly rather than
// accumulated, so there is no drift along the grid.
func GenerateGrid(start, end, fraction float64) ([]float64, error) {
	if !(start > 0) {
		return nil, fmt.Errorf("%w: start must be positive, got %g", errs.ErrInvalidRange, start)
	}
	if !(end > start) {
		return nil, fmt.Errorf("%w: end %g must exceed start %g", errs.ErrInvalidRange, end, start)
	}
	if !(fraction > 0) {
		return nil, fmt.Errorf("%w: octave fraction must be positive, got %g", errs.ErrInvalidRange, fraction)
	}

	grid := []float64{start}
	for j := 1; ; j++ {
		next := start * math.Pow(2, float64(j)*fraction)
		if next > end {
			break
		}
		grid = append(grid, next)
	}
	return grid, nil
}

// DefaultGrid returns the 1/72-octave grid from 0.1 Hz to 38 Hz.
func DefaultGrid() []float64 {
	grid, err := GenerateGrid(DefaultGridStart, DefaultGridEnd, DefaultGridFraction)
	if err != nil {
		panic(err) // constants are valid
	}
	return grid
}
