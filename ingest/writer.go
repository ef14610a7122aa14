package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/RyanBlaney/shaketable/qualification/series"
)

// WriteFrame writes a time-history frame as CSV: Time then the columns in
// frame order.
func WriteFrame(w io.Writer, frame *series.Frame) error {
	return writeColumns(w, series.TimeColumn, frame.Times, frame.Order, frame.Columns)
}

// WriteSpectrumFrame writes a frequency-domain frame as CSV: Frequency then
// the columns in frame order.
func WriteSpectrumFrame(w io.Writer, frame *series.SpectrumFrame) error {
	return writeColumns(w, series.FrequencyColumn, frame.Frequencies, frame.Order, frame.Columns)
}

// WriteFrameFile writes frame to path, replacing any existing file.
func WriteFrameFile(path string, frame *series.Frame) error {
	return writeFile(path, func(w io.Writer) error { return WriteFrame(w, frame) })
}

// WriteSpectrumFrameFile writes frame to path, replacing any existing file.
func WriteSpectrumFrameFile(path string, frame *series.SpectrumFrame) error {
	return writeFile(path, func(w io.Writer) error { return WriteSpectrumFrame(w, frame) })
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return f.Close()
}

func writeColumns(w io.Writer, axisName string, axis []float64, order []string, columns map[string][]float64) error {
	cw := csv.NewWriter(w)

	header := append([]string{axisName}, order...)
	if err := cw.Write(header); err != nil {
		return err
	}

	record := make([]string, len(header))
	for i, x := range axis {
		record[0] = formatFloat(x)
		for c, name := range order {
			record[c+1] = formatFloat(columns[name][i])
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
