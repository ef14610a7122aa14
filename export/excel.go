// Package export writes run results to files for reporting.
package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/RyanBlaney/shaketable/algorithms/common"
	"github.com/RyanBlaney/shaketable/logging"
	"github.com/RyanBlaney/shaketable/qualification"
)

// Workbook layout. Columns and rows are 1-based.
const (
	directionRow = 1
	headerRow    = 2
	firstDataRow = 3

	annotationColumn = 11 // K, label in L

	// Only points above this frequency are exported.
	minExportFrequency = 1.0
)

// axisColumns gives the first column of each axis block: frequency, RRS, TRS.
var axisColumns = map[string]int{"X": 1, "Y": 4, "Z": 7, "D": 10}

// WorkbookName returns the conventional file name for a run's workbook.
func WorkbookName(runName string) string {
	return runName + "_Table_TRSvsRRS.xlsx"
}

// NewTRSWorkbook lays out the table TRS against RRS at 1/6 octave for each
// axis, with the lowest resonance and cutoff frequency annotated in K3:L4.
// The caller owns the returned file and must close it.
func NewTRSWorkbook(result *qualification.RunResult, axes []string) (*excelize.File, error) {
	if result.Parameters == nil {
		return nil, fmt.Errorf("run %s has no spectrum parameters", result.RunName)
	}

	f := excelize.NewFile()
	sheet := f.GetSheetName(f.GetActiveSheetIndex())

	wrap, err := f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{WrapText: true, Horizontal: "center"},
	})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("creating header style: %w", err)
	}

	table := result.TableChannels()
	for _, axis := range axes {
		col, ok := axisColumns[axis]
		if !ok {
			col = axisColumns["X"]
		}

		if err := setRow(f, sheet, col, directionRow, axis+" Direction"); err != nil {
			f.Close()
			return nil, err
		}
		if err := setRow(f, sheet, col, headerRow, "Freq.\n(Hz)", "RRS\n(g)", "TRS\n(g)"); err != nil {
			f.Close()
			return nil, err
		}
		if err := styleRow(f, sheet, col, headerRow, 3, wrap); err != nil {
			f.Close()
			return nil, err
		}

		channel, ok := table[axis]
		if !ok {
			continue
		}
		if err := writeAxis(f, sheet, col, channel, result); err != nil {
			f.Close()
			return nil, err
		}
	}

	if err := setRow(f, sheet, annotationColumn, firstDataRow, result.Parameters.LowResonance, "<- Lowest Resonance"); err != nil {
		f.Close()
		return nil, err
	}
	if err := setRow(f, sheet, annotationColumn, firstDataRow+1, result.Parameters.LowCutoff, "<- Cuttoff Frequency"); err != nil {
		f.Close()
		return nil, err
	}

	return f, nil
}

// WriteTRSWorkbook saves the workbook to path.
func WriteTRSWorkbook(path string, result *qualification.RunResult, axes []string) error {
	f, err := NewTRSWorkbook(result, axes)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("saving %s: %w", path, err)
	}

	logging.WithFields(logging.Fields{
		"component": "excel_export",
		"function":  "WriteTRSWorkbook",
	}).Info("TRS workbook saved", logging.Fields{
		"path": path,
		"run":  result.RunName,
	})
	return nil
}

// WriteTRS streams the workbook to w.
func WriteTRS(w io.Writer, result *qualification.RunResult, axes []string) error {
	f, err := NewTRSWorkbook(result, axes)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = f.WriteTo(w)
	return err
}

// writeAxis fills one axis block from row 3 down. RRS is interpolated from
// the 1/72-octave curve at the aligned frequencies.
func writeAxis(f *excelize.File, sheet string, col int, channel *qualification.ChannelResult, result *qualification.RunResult) error {
	rrsCurve, _, _, _ := result.Parameters.ForAxis(channel.Axis)
	freqs := channel.Octave.Frequencies
	rrs, err := common.InterpLinear(result.Parameters.Frequencies, rrsCurve, freqs)
	if err != nil {
		return fmt.Errorf("interpolating RRS for %s: %w", channel.Name, err)
	}

	row := firstDataRow
	for i, freq := range freqs {
		if freq <= minExportFrequency {
			continue
		}
		if err := setRow(f, sheet, col, row,
			common.Round(freq, 2),
			common.Round(rrs[i], 2),
			common.Round(channel.Octave.Response[i], 2),
		); err != nil {
			return err
		}
		row++
	}
	return nil
}

// setRow writes values into consecutive columns starting at col.
func setRow(f *excelize.File, sheet string, col, row int, values ...any) error {
	for i, v := range values {
		cell, err := excelize.CoordinatesToCellName(col+i, row)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, v); err != nil {
			return fmt.Errorf("writing %s: %w", cell, err)
		}
	}
	return nil
}

func styleRow(f *excelize.File, sheet string, col, row, width, style int) error {
	first, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return err
	}
	last, err := excelize.CoordinatesToCellName(col+width-1, row)
	if err != nil {
		return err
	}
	return f.SetCellStyle(sheet, first, last, style)
}
