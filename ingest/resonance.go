package ingest

import (
	"fmt"
	"os"
	"strings"

	"github.com/RyanBlaney/shaketable/logging"
	"github.com/RyanBlaney/shaketable/qualification/config"
	"github.com/RyanBlaney/shaketable/qualification/errs"
	"github.com/RyanBlaney/shaketable/qualification/series"
)

// ParseResonanceFile reads a frequency-domain export from path.
func ParseResonanceFile(path string, columns []config.ColumnConfig, highCutoff float64) (*series.SpectrumFrame, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %w", errs.ErrConfiguration, path, err)
	}
	frame, err := ParseResonance(data, columns, highCutoff)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return frame, nil
}

// ParseResonance reads a frequency-domain export: a frequency column followed
// by response magnitudes. Rows above highCutoff are dropped; highCutoff <= 0
// keeps every row.
func ParseResonance(data []byte, columns []config.ColumnConfig, highCutoff float64) (*series.SpectrumFrame, error) {
	logger := logging.WithFields(logging.Fields{
		"component": "resonance_parser",
		"function":  "ParseResonance",
	})

	table, err := readTable(data)
	if err != nil {
		return nil, err
	}

	freqIdx := table.find(func(h string) bool {
		return strings.Contains(h, series.FrequencyColumn) || strings.Contains(strings.ToLower(h), "freq")
	})
	if freqIdx < 0 {
		return nil, fmt.Errorf("%w: no %q column in header %v", errs.ErrDataShape, series.FrequencyColumn, table.header)
	}

	sources, err := table.resolve(columns)
	if err != nil {
		return nil, err
	}

	var freqs []float64
	values := make([][]float64, len(sources))
	for r, row := range table.rows {
		f, ok := parseField(row, freqIdx)
		if !ok {
			return nil, fmt.Errorf("%w: row %d: %q is not a frequency", errs.ErrDataShape, r+2, field(row, freqIdx))
		}
		if highCutoff > 0 && f > highCutoff {
			continue
		}
		freqs = append(freqs, f)
		for c, idx := range sources {
			v, ok := parseField(row, idx)
			if !ok {
				return nil, fmt.Errorf("%w: row %d: %q is not a number in column %s", errs.ErrDataShape, r+2, field(row, idx), table.header[idx])
			}
			values[c] = append(values[c], v)
		}
	}

	frame := series.NewSpectrumFrame(freqs)
	for c, col := range columns {
		if err := frame.Add(col.Name, values[c]); err != nil {
			return nil, err
		}
	}

	logger.Debug("Parsed resonance data", logging.Fields{
		"points":      len(freqs),
		"columns":     len(columns),
		"high_cutoff": highCutoff,
	})

	return frame, nil
}
