// Package ingest reads shake-table controller CSV exports into frames and
// writes processed frames back out.
package ingest

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/RyanBlaney/shaketable/logging"
	"github.com/RyanBlaney/shaketable/qualification/config"
	"github.com/RyanBlaney/shaketable/qualification/errs"
	"github.com/RyanBlaney/shaketable/qualification/series"
)

const byteOrderMark = "\ufeff"

// ParserConfig holds seismic parser configuration
type ParserConfig struct {
	Columns   []config.ColumnConfig `json:"columns"`
	TimeUnit  string                `json:"time_unit"` // "ms" or "s"
	TrimStart *float64              `json:"trim_start,omitempty"`
	Duration  *float64              `json:"duration,omitempty"`
}

// DefaultParserConfig returns a parser configuration reading millisecond time
// stamps with no column mapping and no trimming.
func DefaultParserConfig() *ParserConfig {
	return &ParserConfig{
		TimeUnit: config.DefaultTimeUnit,
	}
}

// RunParserConfig builds the parser configuration for a seismic run.
func RunParserConfig(cfg *config.RunConfig) *ParserConfig {
	return &ParserConfig{
		Columns:   cfg.Columns,
		TimeUnit:  cfg.TimeUnit,
		TrimStart: cfg.TrimStart,
		Duration:  cfg.Duration,
	}
}

// ResonanceParserConfig builds the parser configuration for the time-domain
// file of a resonance run.
func ResonanceParserConfig(cfg *config.ResonanceConfig) *ParserConfig {
	return &ParserConfig{
		Columns:  cfg.Columns,
		TimeUnit: cfg.TimeUnit,
		Duration: cfg.Duration,
	}
}

// SeismicParser reads a time-history export: a header row with a Time column
// followed by one row per sample.
type SeismicParser struct {
	config *ParserConfig
}

// NewSeismicParser creates a parser; nil selects DefaultParserConfig.
func NewSeismicParser(cfg *ParserConfig) *SeismicParser {
	if cfg == nil {
		cfg = DefaultParserConfig()
	}
	return &SeismicParser{config: cfg}
}

// ParseFile parses the export at path.
func (p *SeismicParser) ParseFile(path string) (*series.Frame, error) {
	logger := logging.WithFields(logging.Fields{
		"component": "seismic_parser",
		"function":  "ParseFile",
		"filename":  path,
	})

	data, err := os.ReadFile(path)
	if err != nil {
		logger.Error(err, "Failed to read seismic file")
		return nil, fmt.Errorf("%w: reading %s: %w", errs.ErrConfiguration, path, err)
	}

	frame, err := p.ParseBytes(data)
	if err != nil {
		logger.Error(err, "Failed to parse seismic file")
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return frame, nil
}

// ParseReader parses an export from r.
func (p *SeismicParser) ParseReader(r io.Reader) (*series.Frame, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: reading seismic data: %w", errs.ErrDataShape, err)
	}
	return p.ParseBytes(data)
}

// ParseBytes parses an export held in memory.
//
// Time stamps are converted to seconds, rows before TrimStart are dropped,
// time is reset to zero and replaced by i/round(1/dt) so the axis is exactly
// uniform, then the record is cut to round(Duration/dt)+1 samples.
func (p *SeismicParser) ParseBytes(data []byte) (*series.Frame, error) {
	logger := logging.WithFields(logging.Fields{
		"component": "seismic_parser",
		"function":  "ParseBytes",
		"data_size": len(data),
	})

	table, err := readTable(data)
	if err != nil {
		return nil, err
	}

	timeIdx := table.find(func(h string) bool { return strings.Contains(h, series.TimeColumn) })
	if timeIdx < 0 {
		return nil, fmt.Errorf("%w: no %q column in header %v", errs.ErrDataShape, series.TimeColumn, table.header)
	}

	sources, err := table.resolve(p.config.Columns)
	if err != nil {
		return nil, err
	}

	divisor := 1.0
	if p.config.TimeUnit == "ms" {
		divisor = 1000
	}

	var times []float64
	values := make([][]float64, len(sources))
	for r, row := range table.rows {
		t, ok := parseField(row, timeIdx)
		if !ok {
			// End of the time-history section
			logger.Debug("Time-history section ends", logging.Fields{"row": r + 2})
			break
		}
		t /= divisor
		if p.config.TrimStart != nil && t < *p.config.TrimStart {
			continue
		}
		times = append(times, t)
		for c, idx := range sources {
			v, ok := parseField(row, idx)
			if !ok {
				return nil, fmt.Errorf("%w: row %d: %q is not a number in column %s", errs.ErrDataShape, r+2, field(row, idx), table.header[idx])
			}
			values[c] = append(values[c], v)
		}
	}

	n, err := normaliseTimes(times, p.config.Duration)
	if err != nil {
		return nil, err
	}

	frame := series.NewFrame(times[:n])
	for c, col := range p.config.Columns {
		if err := frame.Add(col.Name, values[c][:n]); err != nil {
			return nil, err
		}
	}

	logger.Debug("Parsed seismic data", logging.Fields{
		"samples": n,
		"columns": len(p.config.Columns),
	})

	return frame, nil
}

// normaliseTimes rewrites times in place as i·dt from zero and returns how
// many samples the duration keeps.
func normaliseTimes(times []float64, duration *float64) (int, error) {
	n := len(times)
	if n < 2 {
		if n == 1 {
			times[0] = 0
		}
		return n, nil
	}

	rawStep := times[1] - times[0]
	if !(rawStep > 0) {
		return 0, fmt.Errorf("%w: time stamps must increase, got step %g s", errs.ErrDataShape, rawStep)
	}
	rate := math.RoundToEven(1 / rawStep)
	if rate < 1 {
		return 0, fmt.Errorf("%w: sample interval %g s is too long", errs.ErrDataShape, rawStep)
	}
	dt := 1 / rate
	for i := range times {
		times[i] = float64(i) * dt
	}

	if duration != nil {
		n = min(n, int(math.RoundToEven(*duration/dt))+1)
	}
	return n, nil
}

// csvTable is a parsed CSV with a cleaned header.
type csvTable struct {
	header []string
	rows   [][]string
}

func readTable(data []byte) (*csvTable, error) {
	reader := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(data, []byte(byteOrderMark))))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: empty CSV", errs.ErrDataShape)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: reading CSV header: %w", errs.ErrDataShape, err)
	}
	for i, h := range header {
		header[i] = strings.Trim(strings.TrimSpace(h), `"`)
	}

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: reading CSV rows: %w", errs.ErrDataShape, err)
	}

	return &csvTable{header: header, rows: rows}, nil
}

// find returns the index of the first header matching fn, or -1.
func (t *csvTable) find(fn func(string) bool) int {
	for i, h := range t.header {
		if fn(h) {
			return i
		}
	}
	return -1
}

// resolve maps each column's source to a header index: an exact match, else
// the first header containing the source name.
func (t *csvTable) resolve(columns []config.ColumnConfig) ([]int, error) {
	indices := make([]int, len(columns))
	for c, col := range columns {
		source := strings.TrimSpace(col.Source)
		idx := t.find(func(h string) bool { return h == source })
		if idx < 0 {
			idx = t.find(func(h string) bool { return strings.Contains(h, source) })
		}
		if idx < 0 {
			return nil, fmt.Errorf("%w: column %q for %s not found; available %v", errs.ErrConfiguration, col.Source, col.Name, t.header)
		}
		indices[c] = idx
	}
	return indices, nil
}

func field(row []string, idx int) string {
	if idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func parseField(row []string, idx int) (float64, bool) {
	v, err := strconv.ParseFloat(field(row, idx), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
