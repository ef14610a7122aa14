// Package series holds time-history data as the engine sees it: named
// acceleration channels sharing one uniformly spaced time axis.
package series

import (
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/RyanBlaney/shaketable/qualification/errs"
)

// TableMarker identifies shake-table reference channels by substring.
const TableMarker = "Table"

// TimeColumn is the name of the time axis in frames and CSV files.
const TimeColumn = "Time"

// spacingTolerance is the relative deviation from the first interval accepted
// as uniform sampling.
const spacingTolerance = 1e-6

// TimeSeriesChannel is one acceleration record in g against time in seconds.
type TimeSeriesChannel struct {
	Name   string    `json:"name"`
	Times  []float64 `json:"times"`
	Values []float64 `json:"values"`
}

// Frame is a set of channels sharing one time axis. Order preserves the
// column order of the source.
type Frame struct {
	Times   []float64            `json:"times"`
	Columns map[string][]float64 `json:"columns"`
	Order   []string             `json:"order"`
}

// NewFrame creates an empty frame on the given time axis.
func NewFrame(times []float64) *Frame {
	return &Frame{
		Times:   times,
		Columns: make(map[string][]float64),
	}
}

// Add appends a column. The column must match the time axis length.
func (f *Frame) Add(name string, values []float64) error {
	if len(values) != len(f.Times) {
		return fmt.Errorf("%w: column %s has %d samples, time axis has %d", errs.ErrDataShape, name, len(values), len(f.Times))
	}
	if _, exists := f.Columns[name]; !exists {
		f.Order = append(f.Order, name)
	}
	f.Columns[name] = values
	return nil
}

// Has reports whether the frame carries the named column.
func (f *Frame) Has(name string) bool {
	_, ok := f.Columns[name]
	return ok
}

// Channel returns the named column as a channel.
func (f *Frame) Channel(name string) (*TimeSeriesChannel, error) {
	values, ok := f.Columns[name]
	if !ok {
		return nil, fmt.Errorf("%w: column %s not found", errs.ErrDataShape, name)
	}
	return &TimeSeriesChannel{Name: name, Times: f.Times, Values: values}, nil
}

// Len returns the number of samples.
func (f *Frame) Len() int {
	return len(f.Times)
}

// TimeStep returns the spacing between the first two samples.
func (f *Frame) TimeStep() (float64, error) {
	return TimeStep(f.Times)
}

// TableColumns returns the table axis columns present, keyed by axis.
func (f *Frame) TableColumns(axes []string) map[string][]float64 {
	out := make(map[string][]float64)
	for _, axis := range axes {
		if values, ok := f.Columns[ColumnName(TableMarker, axis)]; ok {
			out[axis] = values
		}
	}
	return out
}

// ColumnName builds the "{label}_{axis}" column convention.
func ColumnName(label, axis string) string {
	return label + "_" + axis
}

// IsTableChannel reports whether the channel name marks a table reference.
func IsTableChannel(name string) bool {
	return strings.Contains(name, TableMarker)
}

// TimeStep returns times[1]-times[0] after checking the axis is usable.
func TimeStep(times []float64) (float64, error) {
	if len(times) < 2 {
		return 0, fmt.Errorf("%w: time axis needs at least 2 samples, got %d", errs.ErrDataShape, len(times))
	}
	dt := times[1] - times[0]
	if !(dt > 0) {
		return 0, fmt.Errorf("%w: time step must be positive, got %g", errs.ErrDataShape, dt)
	}
	return dt, nil
}

// CheckUniform verifies every interval matches the first one within tolerance.
func CheckUniform(times []float64) error {
	dt, err := TimeStep(times)
	if err != nil {
		return err
	}
	for i := 2; i < len(times); i++ {
		step := times[i] - times[i-1]
		if math.Abs(step-dt) > spacingTolerance*dt {
			return fmt.Errorf("%w: non-uniform time spacing at sample %d (%g s, expected %g s)", errs.ErrDataShape, i, step, dt)
		}
	}
	return nil
}

// Names returns the frame column names in source order.
func (f *Frame) Names() []string {
	return slices.Clone(f.Order)
}
