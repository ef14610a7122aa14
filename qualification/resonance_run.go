package qualification

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/RyanBlaney/shaketable/algorithms/common"
	"github.com/RyanBlaney/shaketable/logging"
	"github.com/RyanBlaney/shaketable/qualification/config"
	"github.com/RyanBlaney/shaketable/qualification/errs"
	"github.com/RyanBlaney/shaketable/qualification/resonance"
	"github.com/RyanBlaney/shaketable/qualification/series"
)

// ResonanceResult bundles the transmissibility curves of a resonance run.
// Data holds the table and unit responses the curves were derived from.
type ResonanceResult struct {
	RunID     uuid.UUID                          `json:"run_id"`
	RunName   string                             `json:"run_name"`
	PlotOnly  bool                               `json:"plot_only"`
	Data      *series.SpectrumFrame              `json:"data"`
	Transfers []resonance.TransferFunctionResult `json:"transfers"`
	Skipped   []SkippedChannel                   `json:"skipped,omitempty"`
}

// ResonanceProcessor evaluates a resonance search run.
type ResonanceProcessor struct {
	cfg       *config.ResonanceConfig
	estimator *resonance.TransferFunctionEstimator
	logger    logging.Logger
}

// NewResonanceProcessor creates a processor for cfg.
func NewResonanceProcessor(cfg *config.ResonanceConfig) *ResonanceProcessor {
	return &ResonanceProcessor{
		cfg:       cfg,
		estimator: resonance.NewTransferFunctionEstimator(cfg.SegmentLength),
		logger: logging.WithFields(logging.Fields{
			"component": "resonance_processor",
			"run":       cfg.RunName,
		}),
	}
}

// ProcessSpectra evaluates frequency-domain data exported by the shaker
// controller, one frame per axis. Transmissibility is unit/table.
func (p *ResonanceProcessor) ProcessSpectra(perAxis map[string]*series.SpectrumFrame) (*ResonanceResult, error) {
	if err := p.cfg.Validate(); err != nil {
		return nil, err
	}

	result := p.newResult(true)

	var data *series.SpectrumFrame
	for _, axis := range p.cfg.Axes {
		frame, ok := perAxis[axis]
		if !ok {
			result.Skipped = append(result.Skipped, skipChannel(p.logger, "files."+axis, fmt.Errorf("%w: no data for axis %s", errs.ErrDataShape, axis)))
			continue
		}
		if data == nil {
			data = series.NewSpectrumFrame(frame.Frequencies)
		}
		for _, name := range frame.Order {
			if err := data.Add(name, frame.Columns[name]); err != nil {
				return nil, fmt.Errorf("axis %s: %w", axis, err)
			}
		}
	}
	if data == nil {
		data = series.NewSpectrumFrame(nil)
	}

	return p.evaluate(result, data)
}

// ProcessTimeHistory estimates transmissibility from time-domain data. Table
// columns become all ones, so transmissibility is the transfer function.
func (p *ResonanceProcessor) ProcessTimeHistory(frame *series.Frame) (*ResonanceResult, error) {
	if err := p.cfg.Validate(); err != nil {
		return nil, err
	}
	if err := series.CheckUniform(frame.Times); err != nil {
		return nil, err
	}

	diffs := make([]float64, frame.Len()-1)
	for i := range diffs {
		diffs[i] = frame.Times[i+1] - frame.Times[i]
	}
	sampleRate := 1 / common.Mean(diffs)

	result := p.newResult(false)

	var data *series.SpectrumFrame
	for _, axis := range p.cfg.Axes {
		tableName := series.ColumnName(series.TableMarker, axis)
		table, ok := frame.Columns[tableName]
		if !ok {
			result.Skipped = append(result.Skipped, skipChannel(p.logger, tableName, fmt.Errorf("%w: column %s not found", errs.ErrDataShape, tableName)))
			continue
		}

		for _, accel := range p.cfg.Accels {
			name := series.ColumnName(accel.UUT+"_"+accel.Name, axis)
			unit, ok := frame.Columns[name]
			if !ok {
				unit, ok = frame.Columns[series.ColumnName(accel.Name, axis)]
			}
			if !ok {
				result.Skipped = append(result.Skipped, skipChannel(p.logger, name, fmt.Errorf("%w: column %s not found", errs.ErrDataShape, name)))
				continue
			}

			spectrum, err := p.estimator.Estimate(table, unit, sampleRate)
			if err != nil {
				if !errs.IsChannelLevel(err) {
					return nil, err
				}
				result.Skipped = append(result.Skipped, skipChannel(p.logger, name, err))
				continue
			}

			if data == nil {
				data = series.NewSpectrumFrame(spectrum.Frequencies)
			}
			if err := data.Add(name, spectrum.Values); err != nil {
				return nil, err
			}
		}
	}
	if data == nil {
		data = series.NewSpectrumFrame(nil)
	}

	for _, axis := range p.cfg.Axes {
		tableName := series.ColumnName(series.TableMarker, axis)
		if !data.Has(tableName) {
			if err := data.Add(tableName, resonance.TableTransmissibility(data.Frequencies)); err != nil {
				return nil, err
			}
		}
	}

	return p.evaluate(result, data)
}

func (p *ResonanceProcessor) newResult(plotOnly bool) *ResonanceResult {
	return &ResonanceResult{
		RunID:    uuid.New(),
		RunName:  p.cfg.RunName,
		PlotOnly: plotOnly,
	}
}

// evaluate derives unit/table transmissibility for every accel and axis,
// grouped by unit in first-seen order.
func (p *ResonanceProcessor) evaluate(result *ResonanceResult, data *series.SpectrumFrame) (*ResonanceResult, error) {
	result.Data = data

	for _, uut := range p.cfg.UUTs() {
		for _, accel := range p.cfg.Accels {
			if accel.UUT != uut {
				continue
			}
			for _, axis := range p.cfg.Axes {
				transfer, err := p.transfer(data, accel, axis)
				if err != nil {
					if !errs.IsChannelLevel(err) {
						return nil, err
					}
					result.Skipped = append(result.Skipped, skipChannel(p.logger, series.ColumnName(uut+"_"+accel.Name, axis), err))
					continue
				}
				result.Transfers = append(result.Transfers, *transfer)
			}
		}
	}

	p.logger.Info("Resonance run complete", logging.Fields{
		"run_id":    result.RunID.String(),
		"plot_only": result.PlotOnly,
		"transfers": len(result.Transfers),
		"skipped":   len(result.Skipped),
	})

	return result, nil
}

func (p *ResonanceProcessor) transfer(data *series.SpectrumFrame, accel config.AccelConfig, axis string) (*resonance.TransferFunctionResult, error) {
	name := series.ColumnName(accel.UUT+"_"+accel.Name, axis)
	tableName := series.ColumnName(series.TableMarker, axis)

	unit, ok := data.Columns[name]
	if !ok {
		return nil, fmt.Errorf("%w: column %s not found", errs.ErrDataShape, name)
	}
	table, ok := data.Columns[tableName]
	if !ok {
		return nil, fmt.Errorf("%w: column %s not found", errs.ErrDataShape, tableName)
	}

	transmissibility, err := resonance.FrequencyRatio(unit, table)
	if err != nil {
		return nil, err
	}

	peak, err := resonance.SelectResonance(data.Frequencies, transmissibility, accel.NaturalFrequencies[axis])
	if err != nil {
		return nil, err
	}

	label := resonance.AxisLabel(accel.UUTMapX, axis)
	p.logger.Info("Located resonance", logging.Fields{
		"channel":        name,
		"axis_label":     label,
		"peak_frequency": peak.Frequency,
		"peak_value":     common.Round(peak.Transmissibility, 2),
		"hint_frequency": peak.HintFrequency,
	})

	return &resonance.TransferFunctionResult{
		Channel:          name,
		UUT:              accel.UUT,
		Accel:            accel.Name,
		Axis:             axis,
		AxisLabel:        label,
		Frequencies:      data.Frequencies,
		Transmissibility: transmissibility,
		Resonance:        peak,
	}, nil
}
