package series

import (
	"fmt"
	"slices"

	"github.com/RyanBlaney/shaketable/qualification/errs"
)

// FrequencyColumn is the name of the frequency axis in spectrum frames and CSV files.
const FrequencyColumn = "Frequency"

// SpectrumFrame is a set of response magnitudes sharing one frequency axis.
type SpectrumFrame struct {
	Frequencies []float64            `json:"frequencies"`
	Columns     map[string][]float64 `json:"columns"`
	Order       []string             `json:"order"`
}

// NewSpectrumFrame creates an empty frame on the given frequency axis.
func NewSpectrumFrame(freqs []float64) *SpectrumFrame {
	return &SpectrumFrame{
		Frequencies: freqs,
		Columns:     make(map[string][]float64),
	}
}

// Add appends or replaces a column. The column must match the frequency axis length.
func (s *SpectrumFrame) Add(name string, values []float64) error {
	if len(values) != len(s.Frequencies) {
		return fmt.Errorf("%w: column %s has %d points, frequency axis has %d", errs.ErrDataShape, name, len(values), len(s.Frequencies))
	}
	if _, exists := s.Columns[name]; !exists {
		s.Order = append(s.Order, name)
	}
	s.Columns[name] = values
	return nil
}

// Has reports whether the frame carries the named column.
func (s *SpectrumFrame) Has(name string) bool {
	_, ok := s.Columns[name]
	return ok
}

// Len returns the number of frequency points.
func (s *SpectrumFrame) Len() int {
	return len(s.Frequencies)
}

// Names returns the column names in insertion order.
func (s *SpectrumFrame) Names() []string {
	return slices.Clone(s.Order)
}
