package spectra

import "math"

// Curve-fit constants of the AC156 required response spectrum. k1 and n1 make
// the low-frequency ramp pass through (1.3 Hz, Aflx); n2 sets the decay from
// the flexible plateau to the rigid plateau.
const (
	rrsK1 = 0.79015395365231482071
	rrsN1 = 0.89771171750262309292
	rrsN2 = 0.71978596791944049081
)

// Corner frequencies of the required response spectrum in Hz.
const (
	RampCorner    = 1.3
	PlateauCorner = 8.3
	RigidCorner   = 33.3
)

// RRSAt evaluates the required response spectrum at f.
func RRSAt(f, aflx, arig float64) float64 {
	switch {
	case f <= RampCorner:
		return rrsK1 * aflx * math.Pow(f, rrsN1)
	case f <= PlateauCorner:
		return aflx
	case f <= RigidCorner:
		exponent := rrsN2 * math.Log(aflx/arig)
		czpa := math.Pow(RigidCorner, exponent) * arig
		return czpa * math.Pow(f, -exponent)
	default:
		return arig
	}
}

// RequiredResponseSpectrum evaluates RRSAt at every frequency.
func RequiredResponseSpectrum(freqs []float64, aflx, arig float64) []float64 {
	rrs := make([]float64, len(freqs))
	for i, f := range freqs {
		rrs[i] = RRSAt(f, aflx, arig)
	}
	return rrs
}
