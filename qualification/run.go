// Package qualification runs the full seismic and resonance evaluations over
// a frame of test data: conditioning, response spectra, octave alignment and
// table independence checks.
package qualification

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/RyanBlaney/shaketable/algorithms/common"
	"github.com/RyanBlaney/shaketable/logging"
	"github.com/RyanBlaney/shaketable/qualification/config"
	"github.com/RyanBlaney/shaketable/qualification/errs"
	"github.com/RyanBlaney/shaketable/qualification/independence"
	"github.com/RyanBlaney/shaketable/qualification/series"
	"github.com/RyanBlaney/shaketable/qualification/spectra"
)

// ChannelResult is the spectral evaluation of one acceleration channel.
type ChannelResult struct {
	Name    string `json:"name"`
	Label   string `json:"label"`
	Axis    string `json:"axis"`
	IsTable bool   `json:"is_table"`

	TRS    *spectra.TRSCurve              `json:"trs"`
	Octave *spectra.OctaveAlignmentResult `json:"octave"`

	Aflx      float64 `json:"aflx"`
	Arig      float64 `json:"arig"`
	Arig90    float64 `json:"arig90"`
	PeakAccel float64 `json:"peak_accel"`
}

// SkippedChannel records a channel left out of the run and why.
type SkippedChannel struct {
	Channel string `json:"channel"`
	Reason  string `json:"reason"`
}

// RunResult bundles everything computed for one seismic run.
type RunResult struct {
	RunID      uuid.UUID                   `json:"run_id"`
	RunName    string                      `json:"run_name"`
	SampleRate float64                     `json:"sample_rate"`
	Damping    float64                     `json:"damping"`
	Parameters *spectra.SpectrumParameters `json:"parameters"`
	Channels   []ChannelResult             `json:"channels"`
	Skipped    []SkippedChannel            `json:"skipped,omitempty"`

	CrossCorrelation *independence.CrossCorrelationResult `json:"cross_correlation,omitempty"`
	Coherence        *independence.CoherenceResult        `json:"coherence,omitempty"`
}

// Channel looks up a processed channel by name.
func (r *RunResult) Channel(name string) (*ChannelResult, bool) {
	for i := range r.Channels {
		if r.Channels[i].Name == name {
			return &r.Channels[i], true
		}
	}
	return nil, false
}

// TableChannels returns the processed table channels keyed by axis.
func (r *RunResult) TableChannels() map[string]*ChannelResult {
	out := make(map[string]*ChannelResult)
	for _, axis := range config.ValidAxes {
		if ch, ok := r.Channel(series.ColumnName(series.TableMarker, axis)); ok {
			out[axis] = ch
		}
	}
	return out
}

// RunProcessor evaluates a seismic run.
type RunProcessor struct {
	cfg         *config.RunConfig
	params      *spectra.SpectrumParameters
	conditioner Conditioner
	logger      logging.Logger
}

// NewRunProcessor creates a processor for cfg using precomputed spectrum
// parameters. Columns with filter settings are low-pass filtered.
func NewRunProcessor(cfg *config.RunConfig, params *spectra.SpectrumParameters) *RunProcessor {
	return &RunProcessor{
		cfg:         cfg,
		params:      params,
		conditioner: NewFilterConditioner(cfg.Filters()),
		logger: logging.WithFields(logging.Fields{
			"component": "run_processor",
			"run":       cfg.RunName,
		}),
	}
}

// WithConditioner replaces the channel conditioner.
func (p *RunProcessor) WithConditioner(c Conditioner) *RunProcessor {
	p.conditioner = c
	return p
}

// Process runs the evaluation. Channel-level failures are logged and listed in
// RunResult.Skipped; configuration problems and an unusable time axis abort.
func (p *RunProcessor) Process(frame *series.Frame) (*RunResult, error) {
	if err := p.cfg.Validate(); err != nil {
		return nil, err
	}
	if p.params == nil {
		return nil, fmt.Errorf("%w: spectrum parameters are required", errs.ErrConfiguration)
	}
	if err := series.CheckUniform(frame.Times); err != nil {
		return nil, err
	}
	dt, err := frame.TimeStep()
	if err != nil {
		return nil, err
	}
	sampleRate := 1 / dt

	result := &RunResult{
		RunID:      uuid.New(),
		RunName:    p.cfg.RunName,
		SampleRate: sampleRate,
		Damping:    p.cfg.Damping,
		Parameters: p.params,
	}

	p.logger.Info("Processing seismic run", logging.Fields{
		"run_id":      result.RunID.String(),
		"samples":     frame.Len(),
		"sample_rate": sampleRate,
		"columns":     len(frame.Order),
	})

	conditioned := series.NewFrame(frame.Times)
	failed := make(map[string]bool)
	for _, name := range frame.Names() {
		values, err := p.conditioner.Condition(name, frame.Columns[name], sampleRate)
		if err != nil {
			if !errs.IsChannelLevel(err) {
				return nil, err
			}
			p.skip(result, name, err)
			failed[name] = true
			continue
		}
		if err := conditioned.Add(name, values); err != nil {
			p.skip(result, name, err)
			failed[name] = true
		}
	}

	trs := spectra.NewResponseFilterWithWorkers(p.cfg.Damping, p.cfg.Workers)
	octave := spectra.NewOctaveOptimizer(p.params.LowCutoff, p.params.HighCutoff)

	for _, label := range p.labels() {
		for _, axis := range p.cfg.Axes {
			name := series.ColumnName(label, axis)
			if failed[name] {
				continue
			}
			ch, err := conditioned.Channel(name)
			if err != nil {
				p.skip(result, name, err)
				continue
			}

			channel, err := p.evaluate(trs, octave, name, label, axis, ch.Times, ch.Values)
			if err != nil {
				if !errs.IsChannelLevel(err) {
					return nil, err
				}
				p.skip(result, name, err)
				continue
			}
			result.Channels = append(result.Channels, *channel)
		}
	}

	if err := p.checkIndependence(result, conditioned, dt, sampleRate); err != nil {
		return nil, err
	}

	p.logger.Info("Seismic run complete", logging.Fields{
		"run_id":   result.RunID.String(),
		"channels": len(result.Channels),
		"skipped":  len(result.Skipped),
	})

	return result, nil
}

// labels lists the table first, then the configured accelerometers.
func (p *RunProcessor) labels() []string {
	labels := []string{series.TableMarker}
	for _, accel := range p.cfg.Accels {
		labels = append(labels, accel.Name)
	}
	return labels
}

func (p *RunProcessor) evaluate(trs *spectra.ResponseFilter, octave *spectra.OctaveOptimizer, name, label, axis string, times, values []float64) (*ChannelResult, error) {
	rrs, aflx, arig, arig90 := p.params.ForAxis(axis)

	curve, err := trs.Compute(times, values, p.params.Frequencies)
	if err != nil {
		return nil, err
	}
	aligned, err := octave.Optimize(name, p.params.Frequencies, curve.Response, rrs)
	if err != nil {
		return nil, err
	}

	return &ChannelResult{
		Name:      name,
		Label:     label,
		Axis:      axis,
		IsTable:   series.IsTableChannel(name),
		TRS:       curve,
		Octave:    aligned,
		Aflx:      aflx,
		Arig:      arig,
		Arig90:    arig90,
		PeakAccel: common.MaxAbs(values),
	}, nil
}

// checkIndependence checks every table axis present, whether or not it is a
// configured run axis.
func (p *RunProcessor) checkIndependence(result *RunResult, conditioned *series.Frame, dt, sampleRate float64) error {
	table := conditioned.TableColumns(config.ValidAxes)

	cc, err := independence.NewCrossCorrelationAnalyzer().Analyze(table, dt)
	switch {
	case err == nil:
		result.CrossCorrelation = cc
	case errs.IsChannelLevel(err):
		p.skip(result, "cross_correlation", err)
	default:
		return err
	}

	ch, err := independence.NewCoherenceAnalyzer(p.cfg.WindowSize).Analyze(table, sampleRate)
	switch {
	case err == nil:
		result.Coherence = ch
	case errs.IsChannelLevel(err):
		p.skip(result, "coherence", err)
	default:
		return err
	}

	return nil
}

func (p *RunProcessor) skip(result *RunResult, channel string, err error) {
	result.Skipped = append(result.Skipped, skipChannel(p.logger, channel, err))
}

// skipChannel logs a channel-level failure and returns its record.
func skipChannel(logger logging.Logger, channel string, err error) SkippedChannel {
	logger.Warn("Skipping channel", logging.Fields{
		"channel": channel,
		"reason":  err.Error(),
	})
	return SkippedChannel{Channel: channel, Reason: err.Error()}
}
