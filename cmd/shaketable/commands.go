package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/RyanBlaney/shaketable/export"
	"github.com/RyanBlaney/shaketable/ingest"
	"github.com/RyanBlaney/shaketable/logging"
	"github.com/RyanBlaney/shaketable/qualification"
	"github.com/RyanBlaney/shaketable/qualification/config"
	"github.com/RyanBlaney/shaketable/qualification/series"
	"github.com/RyanBlaney/shaketable/qualification/spectra"
)

func newSeismicCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "seismic",
		Short: "Evaluate a seismic run and export TRS against RRS",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeismic(opts)
		},
	}
}

func newResonanceCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "resonance",
		Short: "Evaluate a resonance search run",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runResonance(opts)
		},
	}
}

func runSeismic(opts *rootOptions) error {
	logger := logging.WithFields(logging.Fields{
		"component": "cli",
		"function":  "runSeismic",
	})

	cfg, err := config.LoadRunConfig(opts.configPath)
	if err != nil {
		return err
	}
	dir, err := outputDir(opts.outputDir, cfg.OutputDir)
	if err != nil {
		return err
	}

	params, err := spectra.CalculateParameters(cfg.Site)
	if err != nil {
		return err
	}

	frame, err := ingest.NewSeismicParser(ingest.RunParserConfig(cfg)).ParseFile(cfg.SeismicFile)
	if err != nil {
		return err
	}
	trimmed := filepath.Join(dir, cfg.RunName+"_trimmed.csv")
	if err := ingest.WriteFrameFile(trimmed, frame); err != nil {
		return err
	}

	result, err := qualification.NewRunProcessor(cfg, params).Process(frame)
	if err != nil {
		return err
	}

	if err := export.WriteTRSWorkbook(filepath.Join(dir, export.WorkbookName(cfg.RunName)), result, cfg.Axes); err != nil {
		return err
	}

	for _, ch := range result.Channels {
		logger.Info("Channel evaluated", logging.Fields{
			"channel":      ch.Name,
			"label":        ch.Label,
			"peak_accel":   ch.PeakAccel,
			"match_factor": ch.Octave.MatchFactor,
		})
	}
	for _, s := range result.Skipped {
		logger.Warn("Channel skipped", logging.Fields{"channel": s.Channel, "reason": s.Reason})
	}
	if cc := result.CrossCorrelation; cc != nil {
		logger.Info("Cross-correlation", logging.Fields{
			"max_correlation": cc.MaxCorrelation,
			"factor":          fmt.Sprintf("%.3f", cc.Factor),
		})
	}
	if coh := result.Coherence; coh != nil {
		logger.Info("Coherence", logging.Fields{
			"max_coherence": coh.MaxCoherence,
			"factor":        fmt.Sprintf("%.3f", coh.Factor),
		})
	}

	logger.Info("Seismic run complete", logging.Fields{
		"run":      result.RunName,
		"run_id":   result.RunID.String(),
		"channels": len(result.Channels),
		"skipped":  len(result.Skipped),
		"output":   dir,
	})
	return nil
}

func runResonance(opts *rootOptions) error {
	logger := logging.WithFields(logging.Fields{
		"component": "cli",
		"function":  "runResonance",
	})

	cfg, err := config.LoadResonanceConfig(opts.configPath)
	if err != nil {
		return err
	}
	dir, err := outputDir(opts.outputDir, cfg.OutputDir)
	if err != nil {
		return err
	}

	processor := qualification.NewResonanceProcessor(cfg)

	var result *qualification.ResonanceResult
	if cfg.PlotOnly {
		perAxis := make(map[string]*series.SpectrumFrame)
		for _, axis := range cfg.Axes {
			path, ok := cfg.Files[axis]
			if !ok {
				continue
			}
			frame, err := ingest.ParseResonanceFile(path, cfg.ColumnsForAxis(axis), cfg.HighCutoff)
			if err != nil {
				return err
			}
			perAxis[axis] = frame
		}
		result, err = processor.ProcessSpectra(perAxis)
	} else {
		var frame *series.Frame
		frame, err = ingest.NewSeismicParser(ingest.ResonanceParserConfig(cfg)).ParseFile(cfg.TimeFile)
		if err != nil {
			return err
		}
		result, err = processor.ProcessTimeHistory(frame)
	}
	if err != nil {
		return err
	}

	trimmed := filepath.Join(dir, cfg.RunName+"_resonance_trimmed.csv")
	if err := ingest.WriteSpectrumFrameFile(trimmed, result.Data); err != nil {
		return err
	}

	for _, tf := range result.Transfers {
		logger.Info("Resonance found", logging.Fields{
			"uut":              tf.UUT,
			"accel":            tf.Accel,
			"axis":             tf.AxisLabel,
			"frequency":        tf.Resonance.Frequency,
			"transmissibility": tf.Resonance.Transmissibility,
		})
	}
	for _, s := range result.Skipped {
		logger.Warn("Channel skipped", logging.Fields{"channel": s.Channel, "reason": s.Reason})
	}

	logger.Info("Resonance run complete", logging.Fields{
		"run":       result.RunName,
		"run_id":    result.RunID.String(),
		"plot_only": result.PlotOnly,
		"transfers": len(result.Transfers),
		"output":    dir,
	})
	return nil
}
