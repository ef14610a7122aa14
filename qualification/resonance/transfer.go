// Package resonance estimates transmissibility between the shake table and
// unit-mounted accelerometers and locates the unit's resonant peak.
package resonance

import (
	"fmt"
	"math"
	"math/cmplx"

	"github.com/RyanBlaney/shaketable/algorithms/common"
	"github.com/RyanBlaney/shaketable/algorithms/spectral"
	"github.com/RyanBlaney/shaketable/logging"
	"github.com/RyanBlaney/shaketable/qualification/errs"
)

// DefaultNaturalFrequency is the hint used when none is configured.
const DefaultNaturalFrequency = 33.3

// Peak is the detected resonance and the response at the configured hint.
type Peak struct {
	Frequency        float64 `json:"frequency"`
	Transmissibility float64 `json:"transmissibility"`

	HintFrequency        float64 `json:"hint_frequency"`
	HintTransmissibility float64 `json:"hint_transmissibility"`
}

// TransferFunctionResult is the transmissibility of one accelerometer axis
// relative to the table.
type TransferFunctionResult struct {
	Channel          string    `json:"channel"`
	UUT              string    `json:"uut"`
	Accel            string    `json:"accel"`
	Axis             string    `json:"axis"`
	AxisLabel        string    `json:"axis_label"`
	Frequencies      []float64 `json:"frequencies"`
	Transmissibility []float64 `json:"transmissibility"`
	Resonance        Peak      `json:"resonance"`
}

// Spectrum is a real curve against frequency.
type Spectrum struct {
	Frequencies []float64 `json:"frequencies"`
	Values      []float64 `json:"values"`
}

// TransferFunctionEstimator computes T(f) = |Pxy(f)| / Pxx(f) from Welch
// estimates, with x the table and y the unit accelerometer.
type TransferFunctionEstimator struct {
	segmentLength int
	logger        logging.Logger
}

// NewTransferFunctionEstimator creates an estimator using Welch segments of
// segmentLength samples; non-positive values use the Welch default.
func NewTransferFunctionEstimator(segmentLength int) *TransferFunctionEstimator {
	if segmentLength <= 0 {
		segmentLength = spectral.DefaultSegmentLength
	}
	return &TransferFunctionEstimator{
		segmentLength: segmentLength,
		logger: logging.WithFields(logging.Fields{
			"component":      "transfer_function",
			"segment_length": segmentLength,
		}),
	}
}

// Estimate returns the transmissibility of unit relative to table. Bins with
// zero table power report zero.
func (e *TransferFunctionEstimator) Estimate(table, unit []float64, sampleRate float64) (*Spectrum, error) {
	if len(table) != len(unit) {
		return nil, fmt.Errorf("%w: table has %d samples, unit %d", errs.ErrDataShape, len(table), len(unit))
	}
	if len(table) < 2 {
		return nil, fmt.Errorf("%w: %d samples is too short for a transfer function", errs.ErrNumericDomain, len(table))
	}

	welch, err := spectral.NewWelchForSignal(sampleRate, e.segmentLength, len(table))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errs.ErrNumericDomain, err)
	}

	pxy, err := welch.CrossSpectralDensity(table, unit)
	if err != nil {
		return nil, fmt.Errorf("%w: cross spectrum: %w", errs.ErrNumericDomain, err)
	}
	pxx, err := welch.PowerSpectralDensity(table)
	if err != nil {
		return nil, fmt.Errorf("%w: table spectrum: %w", errs.ErrNumericDomain, err)
	}

	values := make([]float64, len(pxy.Density))
	for k := range values {
		if pxx.Density[k] == 0 {
			continue
		}
		values[k] = cmplx.Abs(pxy.Density[k]) / pxx.Density[k]
	}

	e.logger.Debug("Estimated transfer function", logging.Fields{
		"samples":  len(table),
		"segments": pxy.Segments,
		"bins":     len(values),
	})

	return &Spectrum{Frequencies: pxy.Frequencies, Values: values}, nil
}

// FrequencyRatio divides a unit response spectrum by the table response
// measured at the same frequencies.
func FrequencyRatio(unit, table []float64) ([]float64, error) {
	if len(unit) != len(table) {
		return nil, fmt.Errorf("%w: unit has %d points, table %d", errs.ErrDataShape, len(unit), len(table))
	}
	out := make([]float64, len(unit))
	for i := range unit {
		if table[i] == 0 {
			return nil, fmt.Errorf("%w: table response is zero at point %d", errs.ErrNumericDomain, i)
		}
		out[i] = unit[i] / table[i]
	}
	return out, nil
}

// TableTransmissibility is the table relative to itself: all ones.
func TableTransmissibility(freqs []float64) []float64 {
	out := make([]float64, len(freqs))
	for i := range out {
		out[i] = 1
	}
	return out
}

// SelectResonance picks the peak of T as the resonance. The hint frequency is
// evaluated for reference only and never moves the peak.
func SelectResonance(freqs, transmissibility []float64, hint float64) (Peak, error) {
	if len(freqs) == 0 || len(freqs) != len(transmissibility) {
		return Peak{}, fmt.Errorf("%w: %d frequencies, %d transmissibility values", errs.ErrDataShape, len(freqs), len(transmissibility))
	}
	if hint <= 0 || math.IsNaN(hint) {
		hint = DefaultNaturalFrequency
	}

	peak := common.ArgMax(transmissibility)
	atHint, err := common.InterpLinear(freqs, transmissibility, []float64{hint})
	if err != nil {
		return Peak{}, fmt.Errorf("%w: %w", errs.ErrDataShape, err)
	}

	return Peak{
		Frequency:            freqs[peak],
		Transmissibility:     transmissibility[peak],
		HintFrequency:        hint,
		HintTransmissibility: atHint[0],
	}, nil
}
