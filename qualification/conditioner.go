package qualification

import (
	"fmt"

	"github.com/RyanBlaney/shaketable/algorithms/filters"
	"github.com/RyanBlaney/shaketable/logging"
	"github.com/RyanBlaney/shaketable/qualification/config"
	"github.com/RyanBlaney/shaketable/qualification/errs"
)

// Conditioner prepares a raw acceleration channel before spectral analysis.
// Implementations return a new slice and leave values untouched.
type Conditioner interface {
	Condition(channel string, values []float64, sampleRate float64) ([]float64, error)
}

// FilterConditioner low-pass filters the configured channels with a
// zero-phase Butterworth filter. Channels without settings pass through.
type FilterConditioner struct {
	settings map[string]config.FilterConfig
	logger   logging.Logger
}

// NewFilterConditioner creates a conditioner from per-column filter settings.
func NewFilterConditioner(settings map[string]config.FilterConfig) *FilterConditioner {
	return &FilterConditioner{
		settings: settings,
		logger: logging.WithFields(logging.Fields{
			"component": "conditioner",
		}),
	}
}

// Condition applies the channel's filter, if any.
func (c *FilterConditioner) Condition(channel string, values []float64, sampleRate float64) ([]float64, error) {
	setting, ok := c.settings[channel]
	if !ok {
		return values, nil
	}

	lowpass, err := filters.DesignButterworthLowpass(setting.Order, setting.CutoffHz, sampleRate)
	if err != nil {
		return nil, fmt.Errorf("%w: filter for %s: %w", errs.ErrNumericDomain, channel, err)
	}

	filtered, err := filters.FiltFilt(lowpass, values)
	if err != nil {
		return nil, fmt.Errorf("%w: filtering %s: %w", errs.ErrDataShape, channel, err)
	}

	c.logger.Debug("Filtered channel", logging.Fields{
		"channel":   channel,
		"order":     setting.Order,
		"cutoff_hz": setting.CutoffHz,
	})

	return filtered, nil
}
