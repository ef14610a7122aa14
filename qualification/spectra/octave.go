package spectra

import (
	"fmt"
	"math"
	"slices"

	"gonum.org/v1/gonum/floats"

	"github.com/RyanBlaney/shaketable/algorithms/common"
	"github.com/RyanBlaney/shaketable/logging"
	"github.com/RyanBlaney/shaketable/qualification/errs"
	"github.com/RyanBlaney/shaketable/qualification/series"
)

// OctaveStride sub-samples a 1/72-octave grid to 1/6 octave.
const OctaveStride = 12

const (
	// dipTarget is where the worst TRS/RRS ratio lands after the first factor.
	dipTarget = 0.9
	// bandSplit separates the low and high bands for the third factor.
	bandSplit = PlateauCorner
	// bandDipRank is the zero-based rank of the dip that constrains a band.
	bandDipRank = 2
)

// OctaveAlignmentResult is a response spectrum sub-sampled to 1/6 octave.
type OctaveAlignmentResult struct {
	Channel     string    `json:"channel"`
	PhaseOffset int       `json:"phase_offset"`
	Searched    bool      `json:"searched"`
	Frequencies []float64 `json:"frequencies"`
	Response    []float64 `json:"response"`
	RRS         []float64 `json:"rrs"`
	MatchFactor float64   `json:"match_factor"`
}

// OctaveOptimizer picks which 1/72-octave samples to keep when reducing a
// response spectrum to 1/6 octave. Table channels try all twelve phase
// offsets and keep the one with the best match factor; other channels use
// offset 0.
type OctaveOptimizer struct {
	lowCutoff  float64
	highCutoff float64
	logger     logging.Logger
}

// NewOctaveOptimizer creates an optimizer comparing spectra between the cutoffs.
func NewOctaveOptimizer(lowCutoff, highCutoff float64) *OctaveOptimizer {
	return &OctaveOptimizer{
		lowCutoff:  lowCutoff,
		highCutoff: highCutoff,
		logger: logging.WithFields(logging.Fields{
			"component": "octave_alignment",
		}),
	}
}

// Optimize sub-samples freqs, trs and rrs (all on the 1/72-octave grid) at the
// best phase offset for the channel.
func (o *OctaveOptimizer) Optimize(channel string, freqs, trs, rrs []float64) (*OctaveAlignmentResult, error) {
	if len(freqs) != len(trs) || len(freqs) != len(rrs) {
		return nil, fmt.Errorf("%w: grid has %d points, TRS %d, RRS %d", errs.ErrDataShape, len(freqs), len(trs), len(rrs))
	}

	searched := series.IsTableChannel(channel)
	bestOffset := 0
	bestFactor := 0.0

	if searched {
		for offset := range OctaveStride {
			factor := MatchFactor(
				common.Stride(freqs, offset, OctaveStride),
				common.Stride(trs, offset, OctaveStride),
				common.Stride(rrs, offset, OctaveStride),
				o.lowCutoff, o.highCutoff,
			)
			// Strict comparison keeps the lowest offset on ties
			if factor > bestFactor {
				bestFactor = factor
				bestOffset = offset
			}
		}
	}

	result := &OctaveAlignmentResult{
		Channel:     channel,
		PhaseOffset: bestOffset,
		Searched:    searched,
		Frequencies: common.Stride(freqs, bestOffset, OctaveStride),
		Response:    common.Stride(trs, bestOffset, OctaveStride),
		RRS:         common.Stride(rrs, bestOffset, OctaveStride),
	}

	if searched {
		result.MatchFactor = bestFactor
		o.logger.Info("Selected octave alignment", logging.Fields{
			"channel":      channel,
			"phase_offset": bestOffset,
			"trs_factor":   common.Round(bestFactor, 2),
		})
	} else {
		result.MatchFactor = MatchFactor(result.Frequencies, result.Response, result.RRS, o.lowCutoff, o.highCutoff)
	}

	return result, nil
}

// MatchFactor scores how well a 1/6-octave TRS envelops its RRS inside
// [lowCutoff, highCutoff], plus the nearest point outside each end.
//
// The score is the product of three factors, each computed against the RRS
// scaled by the previous ones:
//  1. the worst TRS/RRS ratio divided by 0.9
//  2. the smallest max() over adjacent pairs that both dip below 1, else 1
//  3. min(1, third-smallest dip in each band split at 8.3 Hz that has three)
//
// An empty window scores 0.
func MatchFactor(freqs, trs, rrs []float64, lowCutoff, highCutoff float64) float64 {
	f, t, r := restrictWindow(freqs, trs, rrs, lowCutoff, highCutoff)
	if len(f) == 0 {
		return 0
	}

	ratios := make([]float64, len(f))
	for i := range f {
		ratios[i] = t[i] / r[i]
	}
	factor1 := floats.Min(ratios) / dipTarget
	if factor1 == 0 || math.IsNaN(factor1) {
		return 0
	}

	for i := range ratios {
		ratios[i] = t[i] / (r[i] * factor1)
	}
	factor2 := 1.0
	found := false
	for i := 0; i+1 < len(ratios); i++ {
		if ratios[i] < 1 && ratios[i+1] < 1 {
			pair := math.Max(ratios[i], ratios[i+1])
			if !found || pair < factor2 {
				factor2 = pair
				found = true
			}
		}
	}

	var low, high []float64
	for i := range ratios {
		ratio := t[i] / (r[i] * factor1 * factor2)
		if ratio >= 1 {
			continue
		}
		if f[i] <= bandSplit {
			low = append(low, ratio)
		} else {
			high = append(high, ratio)
		}
	}

	factor3 := 1.0
	for _, band := range [][]float64{low, high} {
		if len(band) > bandDipRank {
			slices.Sort(band)
			factor3 = math.Min(factor3, band[bandDipRank])
		}
	}

	return factor1 * factor2 * factor3
}

// restrictWindow keeps the points inside [low, high] plus the last point below
// low and the first point above high. freqs must be ascending.
func restrictWindow(freqs, trs, rrs []float64, low, high float64) ([]float64, []float64, []float64) {
	keep := make([]bool, len(freqs))
	lastBelow, firstAbove := -1, -1
	for i, f := range freqs {
		switch {
		case f < low:
			lastBelow = i
		case f > high:
			if firstAbove < 0 {
				firstAbove = i
			}
		default:
			keep[i] = true
		}
	}
	if lastBelow >= 0 {
		keep[lastBelow] = true
	}
	if firstAbove >= 0 {
		keep[firstAbove] = true
	}

	var f, t, r []float64
	for i, k := range keep {
		if k {
			f = append(f, freqs[i])
			t = append(t, trs[i])
			r = append(r, rrs[i])
		}
	}
	return f, t, r
}
