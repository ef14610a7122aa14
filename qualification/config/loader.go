package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/RyanBlaney/shaketable/qualification/errs"
)

// EnvPrefix is the prefix for environment overrides, e.g. SHAKETABLE_DAMPING
// or SHAKETABLE_SITE_SDS1.
const EnvPrefix = "SHAKETABLE"

var runRequired = []string{
	"run_name",
	"site.sds1",
	"site.z_h1",
	"site.low_resonance",
}

var resonanceRequired = []string{
	"run_name",
	"accels",
}

// LoadRunConfig reads a seismic run configuration. The format follows the file
// extension (yaml, yml, json, toml).
func LoadRunConfig(path string) (*RunConfig, error) {
	v, err := readFile(path, func(v *viper.Viper) {
		v.SetDefault("axes", ValidAxes)
		v.SetDefault("damping", DefaultDamping)
		v.SetDefault("window_size", DefaultWindowSize)
		v.SetDefault("workers", 0)
		v.SetDefault("time_unit", DefaultTimeUnit)
		v.SetDefault("site.seismic_version", string(ASCE716))
	})
	if err != nil {
		return nil, err
	}
	if err := requireKeys(v, path, runRequired); err != nil {
		return nil, err
	}

	var cfg RunConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("%w: decoding %s: %w", errs.ErrConfiguration, path, err)
	}
	cfg.normalise()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadResonanceConfig reads a resonance run configuration.
func LoadResonanceConfig(path string) (*ResonanceConfig, error) {
	v, err := readFile(path, func(v *viper.Viper) {
		v.SetDefault("axes", ValidAxes)
		v.SetDefault("high_cutoff", DefaultHighCutoff)
		v.SetDefault("plot_only", true)
		v.SetDefault("segment_length", DefaultSegmentLength)
		v.SetDefault("time_unit", DefaultTimeUnit)
	})
	if err != nil {
		return nil, err
	}
	if err := requireKeys(v, path, resonanceRequired); err != nil {
		return nil, err
	}

	var cfg ResonanceConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("%w: decoding %s: %w", errs.ErrConfiguration, path, err)
	}
	cfg.normalise()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func readFile(path string, defaults func(*viper.Viper)) (*viper.Viper, error) {
	v := viper.New()
	defaults(v)

	v.SetConfigFile(path)
	if ext := strings.TrimPrefix(filepath.Ext(path), "."); ext != "" {
		v.SetConfigType(ext)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("%w: reading %s: %w", errs.ErrConfiguration, path, err)
	}
	return v, nil
}

func requireKeys(v *viper.Viper, path string, keys []string) error {
	var missing []string
	for _, key := range keys {
		if !v.IsSet(key) {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s is missing required keys: %s", errs.ErrConfiguration, path, strings.Join(missing, ", "))
	}
	return nil
}
