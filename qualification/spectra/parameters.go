package spectra

import (
	"fmt"
	"math"

	"github.com/RyanBlaney/shaketable/algorithms/common"
	"github.com/RyanBlaney/shaketable/logging"
	"github.com/RyanBlaney/shaketable/qualification/config"
	"github.com/RyanBlaney/shaketable/qualification/errs"
)

// Cutoff limits in Hz.
const (
	MinLowCutoff = 1.3
	MaxLowCutoff = 3.5
	HighCutoff   = RigidCorner
)

// SpectrumParameters are the spectral levels and RRS curves derived from a
// site configuration. Accelerations are in g, frequencies in Hz.
type SpectrumParameters struct {
	AflxH   float64 `json:"aflx_h"`
	ArigH   float64 `json:"arig_h"`
	AflxV   float64 `json:"aflx_v"`
	ArigV   float64 `json:"arig_v"`
	ArigH90 float64 `json:"arig_h90"`
	ArigV90 float64 `json:"arig_v90"`

	Frequencies []float64 `json:"frequencies"`
	RRSH        []float64 `json:"rrs_h"`
	RRSV        []float64 `json:"rrs_v"`

	LowCutoff    float64 `json:"low_cutoff"`
	HighCutoff   float64 `json:"high_cutoff"`
	LowResonance float64 `json:"low_resonance"`
}

// ForAxis returns the RRS curve and levels governing an axis: vertical for Z,
// horizontal otherwise.
func (p *SpectrumParameters) ForAxis(axis string) (rrs []float64, aflx, arig, arig90 float64) {
	if axis == "Z" {
		return p.RRSV, p.AflxV, p.ArigV, p.ArigV90
	}
	return p.RRSH, p.AflxH, p.ArigH, p.ArigH90
}

// CalculateParameters derives the spectrum parameters for a site.
func CalculateParameters(site config.SiteSeismicConfig) (*SpectrumParameters, error) {
	if err := site.Validate(); err != nil {
		return nil, err
	}

	logger := logging.WithFields(logging.Fields{
		"component": "spectrum_parameters",
		"function":  "CalculateParameters",
	})

	lowCutoff := LowCutoff(site.LowResonance)

	var aflxH, arigH float64
	if site.CodeVersion == config.ASCE722 {
		aflxH, arigH = modernHorizontal(site.Sds1, site.ZH1)
		if site.HasSecondCondition() {
			aflx2, arig2 := modernHorizontalRaw(*site.Sds2, *site.ZH2)
			aflxH = common.Round(math.Max(aflxH, aflx2), 2)
			arigH = common.Round(math.Max(arigH, arig2), 2)
		}
	} else {
		aflxH, arigH = legacyHorizontal(site.Sds1, site.ZH1)
		if site.HasSecondCondition() {
			aflx2, arig2 := legacyHorizontalRaw(*site.Sds2, *site.ZH2)
			aflxH = common.Round(math.Max(aflxH, aflx2), 2)
			arigH = common.Round(math.Max(arigH, arig2), 2)
		}
	}

	aflxV := common.Round(0.67*site.Sds1, 2)
	arigV := common.Round(0.27*site.Sds1, 2)
	if site.HasSecondCondition() {
		sds2 := *site.Sds2
		aflxV = common.Round(math.Max(aflxV, 0.67*sds2), 2)
		arigV = common.Round(math.Max(arigV, 0.27*sds2), 2)
	}

	freqs := DefaultGrid()
	params := &SpectrumParameters{
		AflxH:        aflxH,
		ArigH:        arigH,
		AflxV:        aflxV,
		ArigV:        arigV,
		ArigH90:      common.Round(0.9*arigH, 2),
		ArigV90:      common.Round(0.9*arigV, 2),
		Frequencies:  freqs,
		RRSH:         RequiredResponseSpectrum(freqs, aflxH, arigH),
		RRSV:         RequiredResponseSpectrum(freqs, aflxV, arigV),
		LowCutoff:    lowCutoff,
		HighCutoff:   HighCutoff,
		LowResonance: site.LowResonance,
	}

	if params.ArigH <= 0 || params.ArigV <= 0 {
		return nil, fmt.Errorf("%w: rigid levels round to zero (Arig_h=%g, Arig_v=%g)", errs.ErrConfiguration, params.ArigH, params.ArigV)
	}

	logger.Info("Derived spectrum parameters", logging.Fields{
		"code_version":  string(site.CodeVersion),
		"low_resonance": site.LowResonance,
		"low_cutoff":    lowCutoff,
		"aflx_h":        aflxH,
		"arig_h":        arigH,
		"aflx_v":        aflxV,
		"arig_v":        arigV,
		"arig_h90":      params.ArigH90,
		"arig_v90":      params.ArigV90,
		"grid_points":   len(freqs),
	})

	return params, nil
}

// LowCutoff clamps 0.75 of the lowest resonance to [1.3, 3.5] Hz and rounds
// up to the next 0.1 Hz.
func LowCutoff(lowResonance float64) float64 {
	return common.CeilToStep(common.Clamp(0.75*lowResonance, MinLowCutoff, MaxLowCutoff), 10)
}

// modernHorizontal applies the ASCE 7-22 height factor Hf and ductility Rμ.
func modernHorizontal(sds, zh float64) (aflx, arig float64) {
	a, r := modernHorizontalRaw(sds, zh)
	return common.Round(a, 2), common.Round(r, 2)
}

// modernHorizontalRaw returns the unrounded levels; Hf itself is rounded to
// two places first.
func modernHorizontalRaw(sds, zh float64) (aflx, arig float64) {
	hf := common.Round(1+2.5*zh, 2)
	ru := 1.0
	if zh > 0 {
		ru = 1.3
	}
	return math.Min(1.6*sds, sds*hf/ru), math.Min(1.6*sds, 0.4*sds*hf/ru)
}

// legacyHorizontal applies the ASCE 7-16 amplification 1 + 2·z/h.
func legacyHorizontal(sds, zh float64) (aflx, arig float64) {
	a, r := legacyHorizontalRaw(sds, zh)
	return common.Round(a, 2), common.Round(r, 2)
}

func legacyHorizontalRaw(sds, zh float64) (aflx, arig float64) {
	amp := 1 + 2*zh
	return math.Min(1.6*sds, sds*amp), 0.4 * sds * amp
}
