package config

import (
	"fmt"
	"slices"
	"strings"

	"github.com/RyanBlaney/shaketable/qualification/errs"
)

// Defaults applied when a value is absent from the configuration file.
const (
	DefaultDamping       = 0.05
	DefaultWindowSize    = 1.25
	DefaultTimeUnit      = "ms"
	DefaultHighCutoff    = 35.1
	DefaultSegmentLength = 256
	DefaultUUTMapX       = "SS"
)

// ValidAxes lists the table axes in processing order.
var ValidAxes = []string{"X", "Y", "Z"}

// FilterConfig enables the zero-phase Butterworth low-pass on a column.
type FilterConfig struct {
	Order    int     `mapstructure:"order" json:"order"`
	CutoffHz float64 `mapstructure:"cutoff_hz" json:"cutoff_hz"`
}

// ColumnConfig maps an output column name (e.g. "Table_X") to the raw CSV
// header it is read from. Axis selects the per-axis file in resonance runs.
type ColumnConfig struct {
	Name   string        `mapstructure:"name" json:"name"`
	Source string        `mapstructure:"source" json:"source"`
	Axis   string        `mapstructure:"axis" json:"axis,omitempty"`
	Filter *FilterConfig `mapstructure:"filter" json:"filter,omitempty"`
}

// AccelConfig describes one accelerometer mounted on a unit under test.
type AccelConfig struct {
	Name string `mapstructure:"name" json:"name"`
	UUT  string `mapstructure:"uut" json:"uut,omitempty"`
	// UUTMapX is the unit axis ("SS" or "FB") aligned with table X.
	UUTMapX            string             `mapstructure:"uut_map_x" json:"uut_map_x,omitempty"`
	NaturalFrequencies map[string]float64 `mapstructure:"natural_frequencies" json:"natural_frequencies,omitempty"`
}

// RunConfig configures one seismic run.
type RunConfig struct {
	RunName    string            `mapstructure:"run_name" json:"run_name"`
	Axes       []string          `mapstructure:"axes" json:"axes"`
	Damping    float64           `mapstructure:"damping" json:"damping"`
	WindowSize float64           `mapstructure:"window_size" json:"window_size"`
	Workers    int               `mapstructure:"workers" json:"workers"`
	Site       SiteSeismicConfig `mapstructure:"site" json:"site"`
	Columns    []ColumnConfig    `mapstructure:"columns" json:"columns"`
	Accels     []AccelConfig     `mapstructure:"accels" json:"accels"`

	SeismicFile string   `mapstructure:"seismic_file" json:"seismic_file"`
	TimeUnit    string   `mapstructure:"time_unit" json:"time_unit"`
	TrimStart   *float64 `mapstructure:"trim_start" json:"trim_start,omitempty"`
	Duration    *float64 `mapstructure:"duration" json:"duration,omitempty"`
	OutputDir   string   `mapstructure:"output_dir" json:"output_dir"`
}

// DefaultRunConfig returns a run configuration with every optional field at
// its default. Site and columns still need filling in.
func DefaultRunConfig() *RunConfig {
	return &RunConfig{
		Axes:       slices.Clone(ValidAxes),
		Damping:    DefaultDamping,
		WindowSize: DefaultWindowSize,
		TimeUnit:   DefaultTimeUnit,
		Site:       SiteSeismicConfig{CodeVersion: ASCE716},
	}
}

// Filters returns the per-column filter settings keyed by output column name.
func (c *RunConfig) Filters() map[string]FilterConfig {
	out := make(map[string]FilterConfig)
	for _, col := range c.Columns {
		if col.Filter != nil {
			out[col.Name] = *col.Filter
		}
	}
	return out
}

func (c *RunConfig) normalise() {
	c.Axes = normaliseAxes(c.Axes)
	c.TimeUnit = strings.ToLower(strings.TrimSpace(c.TimeUnit))
	if c.Site.CodeVersion == "" {
		c.Site.CodeVersion = ASCE716
	}
	for i := range c.Accels {
		c.Accels[i].normalise()
	}
	for i := range c.Columns {
		c.Columns[i].Axis = strings.ToUpper(c.Columns[i].Axis)
	}
}

// Validate checks the run configuration. All failures wrap errs.ErrConfiguration.
func (c *RunConfig) Validate() error {
	if strings.TrimSpace(c.RunName) == "" {
		return fmt.Errorf("%w: run_name is required", errs.ErrConfiguration)
	}
	if err := validateAxes(c.Axes); err != nil {
		return err
	}
	if c.Damping < 0 || c.Damping >= 1 {
		return fmt.Errorf("%w: damping must lie in [0, 1), got %g", errs.ErrConfiguration, c.Damping)
	}
	if c.WindowSize <= 0 {
		return fmt.Errorf("%w: window_size must be positive, got %g", errs.ErrConfiguration, c.WindowSize)
	}
	if c.Workers < 0 {
		return fmt.Errorf("%w: workers must not be negative, got %d", errs.ErrConfiguration, c.Workers)
	}
	if err := c.Site.Validate(); err != nil {
		return err
	}
	if err := validateTiming(c.TimeUnit, c.Duration); err != nil {
		return err
	}
	if err := validateColumns(c.Columns); err != nil {
		return err
	}
	for _, accel := range c.Accels {
		if strings.TrimSpace(accel.Name) == "" {
			return fmt.Errorf("%w: accel entry without a name", errs.ErrConfiguration)
		}
	}
	return nil
}

// ResonanceConfig configures one resonance search run.
//
// In plot-only mode each axis has its own frequency-domain CSV in Files and
// columns are selected per axis. Otherwise TimeFile holds a time history and
// transmissibility is estimated from it.
type ResonanceConfig struct {
	RunName       string            `mapstructure:"run_name" json:"run_name"`
	Axes          []string          `mapstructure:"axes" json:"axes"`
	HighCutoff    float64           `mapstructure:"high_cutoff" json:"high_cutoff"`
	PlotOnly      bool              `mapstructure:"plot_only" json:"plot_only"`
	Files         map[string]string `mapstructure:"files" json:"files,omitempty"`
	TimeFile      string            `mapstructure:"time_file" json:"time_file,omitempty"`
	Columns       []ColumnConfig    `mapstructure:"columns" json:"columns"`
	Accels        []AccelConfig     `mapstructure:"accels" json:"accels"`
	SegmentLength int               `mapstructure:"segment_length" json:"segment_length"`
	TimeUnit      string            `mapstructure:"time_unit" json:"time_unit"`
	Duration      *float64          `mapstructure:"duration" json:"duration,omitempty"`
	OutputDir     string            `mapstructure:"output_dir" json:"output_dir"`
}

// DefaultResonanceConfig returns a resonance configuration with defaults applied.
func DefaultResonanceConfig() *ResonanceConfig {
	return &ResonanceConfig{
		Axes:          slices.Clone(ValidAxes),
		HighCutoff:    DefaultHighCutoff,
		PlotOnly:      true,
		SegmentLength: DefaultSegmentLength,
		TimeUnit:      DefaultTimeUnit,
	}
}

// UUTs returns the distinct unit names in first-seen order.
func (c *ResonanceConfig) UUTs() []string {
	var out []string
	for _, a := range c.Accels {
		if !slices.Contains(out, a.UUT) {
			out = append(out, a.UUT)
		}
	}
	return out
}

// ColumnsForAxis returns the column mappings read from the given axis file.
func (c *ResonanceConfig) ColumnsForAxis(axis string) []ColumnConfig {
	var out []ColumnConfig
	for _, col := range c.Columns {
		if col.Axis == axis {
			out = append(out, col)
		}
	}
	return out
}

func (c *ResonanceConfig) normalise() {
	c.Axes = normaliseAxes(c.Axes)
	c.TimeUnit = strings.ToLower(strings.TrimSpace(c.TimeUnit))
	if len(c.Files) > 0 {
		files := make(map[string]string, len(c.Files))
		for axis, path := range c.Files {
			files[strings.ToUpper(axis)] = path
		}
		c.Files = files
	}
	for i := range c.Accels {
		c.Accels[i].normalise()
	}
	for i := range c.Columns {
		c.Columns[i].Axis = strings.ToUpper(c.Columns[i].Axis)
	}
}

// Validate checks the resonance configuration. All failures wrap errs.ErrConfiguration.
func (c *ResonanceConfig) Validate() error {
	if strings.TrimSpace(c.RunName) == "" {
		return fmt.Errorf("%w: run_name is required", errs.ErrConfiguration)
	}
	if err := validateAxes(c.Axes); err != nil {
		return err
	}
	if c.HighCutoff <= 0 {
		return fmt.Errorf("%w: high_cutoff must be positive, got %g", errs.ErrConfiguration, c.HighCutoff)
	}
	if c.SegmentLength <= 0 {
		return fmt.Errorf("%w: segment_length must be positive, got %d", errs.ErrConfiguration, c.SegmentLength)
	}
	if err := validateTiming(c.TimeUnit, c.Duration); err != nil {
		return err
	}
	if err := validateColumns(c.Columns); err != nil {
		return err
	}
	if c.PlotOnly {
		for _, axis := range c.Axes {
			if c.Files[axis] == "" {
				return fmt.Errorf("%w: files.%s is required in plot-only mode", errs.ErrConfiguration, axis)
			}
		}
		for _, col := range c.Columns {
			if !slices.Contains(c.Axes, col.Axis) {
				return fmt.Errorf("%w: column %q needs an axis from %v", errs.ErrConfiguration, col.Name, c.Axes)
			}
		}
	} else if c.TimeFile == "" {
		return fmt.Errorf("%w: time_file is required when plot_only is false", errs.ErrConfiguration)
	}
	if len(c.Accels) == 0 {
		return fmt.Errorf("%w: at least one accel is required", errs.ErrConfiguration)
	}
	for _, accel := range c.Accels {
		if strings.TrimSpace(accel.Name) == "" || strings.TrimSpace(accel.UUT) == "" {
			return fmt.Errorf("%w: accels need both name and uut", errs.ErrConfiguration)
		}
		if accel.UUTMapX != "SS" && accel.UUTMapX != "FB" {
			return fmt.Errorf("%w: accel %s: uut_map_x must be SS or FB, got %q", errs.ErrConfiguration, accel.Name, accel.UUTMapX)
		}
	}
	return nil
}

func (a *AccelConfig) normalise() {
	a.UUTMapX = strings.ToUpper(strings.TrimSpace(a.UUTMapX))
	if a.UUTMapX == "" {
		a.UUTMapX = DefaultUUTMapX
	}
	if len(a.NaturalFrequencies) > 0 {
		nat := make(map[string]float64, len(a.NaturalFrequencies))
		for axis, f := range a.NaturalFrequencies {
			nat[strings.ToUpper(axis)] = f
		}
		a.NaturalFrequencies = nat
	}
}

func normaliseAxes(axes []string) []string {
	out := make([]string, len(axes))
	for i, axis := range axes {
		out[i] = strings.ToUpper(strings.TrimSpace(axis))
	}
	return out
}

func validateAxes(axes []string) error {
	if len(axes) == 0 {
		return fmt.Errorf("%w: at least one axis is required", errs.ErrConfiguration)
	}
	seen := make(map[string]bool, len(axes))
	for _, axis := range axes {
		if !slices.Contains(ValidAxes, axis) {
			return fmt.Errorf("%w: unknown axis %q", errs.ErrConfiguration, axis)
		}
		if seen[axis] {
			return fmt.Errorf("%w: axis %s listed twice", errs.ErrConfiguration, axis)
		}
		seen[axis] = true
	}
	return nil
}

func validateTiming(timeUnit string, duration *float64) error {
	if timeUnit != "ms" && timeUnit != "s" {
		return fmt.Errorf("%w: time_unit must be ms or s, got %q", errs.ErrConfiguration, timeUnit)
	}
	if duration != nil && *duration <= 0 {
		return fmt.Errorf("%w: duration must be positive, got %g", errs.ErrConfiguration, *duration)
	}
	return nil
}

func validateColumns(columns []ColumnConfig) error {
	seen := make(map[string]bool, len(columns))
	for _, col := range columns {
		if strings.TrimSpace(col.Name) == "" || strings.TrimSpace(col.Source) == "" {
			return fmt.Errorf("%w: columns need both name and source", errs.ErrConfiguration)
		}
		if seen[col.Name] {
			return fmt.Errorf("%w: column %s mapped twice", errs.ErrConfiguration, col.Name)
		}
		seen[col.Name] = true
		if col.Filter != nil {
			if col.Filter.Order < 1 {
				return fmt.Errorf("%w: column %s: filter order must be at least 1", errs.ErrConfiguration, col.Name)
			}
			if col.Filter.CutoffHz <= 0 {
				return fmt.Errorf("%w: column %s: filter cutoff must be positive", errs.ErrConfiguration, col.Name)
			}
		}
	}
	return nil
}
