// Package config holds the typed configuration records for seismic and
// resonance runs and loads them from YAML, JSON or TOML files with viper.
package config

import (
	"fmt"

	"github.com/RyanBlaney/shaketable/qualification/errs"
)

// CodeVersion selects the building-code formulas used to derive Aflx and Arig.
type CodeVersion string

const (
	// ASCE716 uses the height-amplification form 1 + 2·z/h. It is the default.
	ASCE716 CodeVersion = "ASCE7-16"
	// ASCE722 uses the height factor Hf and the ductility factor Rμ.
	ASCE722 CodeVersion = "ASCE7-22"
)

// SiteSeismicConfig describes the site demand the spectra are derived from.
// Sds2 and ZH2 describe an optional second governing condition.
type SiteSeismicConfig struct {
	Sds1         float64     `mapstructure:"sds1" json:"sds1"`
	ZH1          float64     `mapstructure:"z_h1" json:"z_h1"`
	Sds2         *float64    `mapstructure:"sds2" json:"sds2,omitempty"`
	ZH2          *float64    `mapstructure:"z_h2" json:"z_h2,omitempty"`
	LowResonance float64     `mapstructure:"low_resonance" json:"low_resonance"`
	CodeVersion  CodeVersion `mapstructure:"seismic_version" json:"seismic_version"`
}

// NewSiteSeismicConfig builds and validates a site configuration. An empty code
// version selects ASCE7-16.
func NewSiteSeismicConfig(sds1, zh1 float64, sds2, zh2 *float64, lowResonance float64, code CodeVersion) (*SiteSeismicConfig, error) {
	site := &SiteSeismicConfig{
		Sds1:         sds1,
		ZH1:          zh1,
		Sds2:         sds2,
		ZH2:          zh2,
		LowResonance: lowResonance,
		CodeVersion:  code,
	}
	if site.CodeVersion == "" {
		site.CodeVersion = ASCE716
	}
	if err := site.Validate(); err != nil {
		return nil, err
	}
	return site, nil
}

// HasSecondCondition reports whether a second (Sds, z/h) pair is configured.
func (s SiteSeismicConfig) HasSecondCondition() bool {
	return s.Sds2 != nil
}

// Validate checks the record. All failures wrap errs.ErrConfiguration.
func (s SiteSeismicConfig) Validate() error {
	if s.Sds1 <= 0 {
		return fmt.Errorf("%w: Sds1 must be positive, got %g", errs.ErrConfiguration, s.Sds1)
	}
	if s.ZH1 < 0 || s.ZH1 > 1 {
		return fmt.Errorf("%w: z_h1 must lie in [0, 1], got %g", errs.ErrConfiguration, s.ZH1)
	}
	if (s.Sds2 == nil) != (s.ZH2 == nil) {
		return fmt.Errorf("%w: Sds2 and z_h2 must be given together", errs.ErrConfiguration)
	}
	if s.Sds2 != nil {
		if *s.Sds2 <= 0 {
			return fmt.Errorf("%w: Sds2 must be positive, got %g", errs.ErrConfiguration, *s.Sds2)
		}
		if *s.ZH2 < 0 || *s.ZH2 > 1 {
			return fmt.Errorf("%w: z_h2 must lie in [0, 1], got %g", errs.ErrConfiguration, *s.ZH2)
		}
	}
	if s.LowResonance <= 0 {
		return fmt.Errorf("%w: low_resonance must be positive, got %g", errs.ErrConfiguration, s.LowResonance)
	}
	switch s.CodeVersion {
	case ASCE716, ASCE722:
	default:
		return fmt.Errorf("%w: unknown seismic_version %q (want %s or %s)", errs.ErrConfiguration, s.CodeVersion, ASCE716, ASCE722)
	}
	return nil
}
