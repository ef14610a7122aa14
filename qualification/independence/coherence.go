package independence

import (
	"fmt"
	"math"
	"sync"

	"gonum.org/v1/gonum/floats"

	"github.com/RyanBlaney/shaketable/algorithms/common"
	"github.com/RyanBlaney/shaketable/algorithms/spectral"
	"github.com/RyanBlaney/shaketable/logging"
	"github.com/RyanBlaney/shaketable/qualification/errs"
	"github.com/RyanBlaney/shaketable/qualification/spectra"
)

// Coherence defaults.
const (
	DefaultCoherenceThreshold = 0.5
	DefaultWindowSeconds      = 1.25

	// Evaluation band, 1/72 octave.
	coherenceGridStart = 1.3
	coherenceGridEnd   = 33.3

	// Seconds discarded at each end of the record before estimating.
	edgeTrimSeconds = 5
)

// CoherencePair is the coherence of one axis pair on the evaluation grid.
type CoherencePair struct {
	Key       string    `json:"key"`
	Label     string    `json:"label"`
	Coherence []float64 `json:"coherence"`
	Max       float64   `json:"max"`
}

// CoherenceResult collects every pair and the resulting factor.
// Factor is threshold/MaxCoherence and +Inf when nothing is coherent.
type CoherenceResult struct {
	Frequencies  []float64       `json:"frequencies"`
	Pairs        []CoherencePair `json:"pairs"`
	MaxCoherence float64         `json:"max_coherence"`
	Factor       float64         `json:"factor"`
}

// CoherenceAnalyzer estimates magnitude-squared coherence between table axes.
type CoherenceAnalyzer struct {
	windowSeconds float64
	threshold     float64
	frequencies   []float64
	logger        logging.Logger
}

// NewCoherenceAnalyzer creates an analyzer with Welch segments of
// windowSeconds; non-positive values use DefaultWindowSeconds.
func NewCoherenceAnalyzer(windowSeconds float64) *CoherenceAnalyzer {
	return NewCoherenceAnalyzerWithThreshold(windowSeconds, DefaultCoherenceThreshold)
}

// NewCoherenceAnalyzerWithThreshold creates an analyzer with a custom
// acceptance threshold.
func NewCoherenceAnalyzerWithThreshold(windowSeconds, threshold float64) *CoherenceAnalyzer {
	if windowSeconds <= 0 {
		windowSeconds = DefaultWindowSeconds
	}
	grid, err := spectra.GenerateGrid(coherenceGridStart, coherenceGridEnd, spectra.DefaultGridFraction)
	if err != nil {
		panic(err) // constants are valid
	}

	return &CoherenceAnalyzer{
		windowSeconds: windowSeconds,
		threshold:     threshold,
		frequencies:   grid,
		logger: logging.WithFields(logging.Fields{
			"component":      "coherence",
			"window_seconds": windowSeconds,
		}),
	}
}

// Analyze estimates coherence for every pair of the axes present in signals.
// sampleRate is rounded to a whole number of Hz.
func (a *CoherenceAnalyzer) Analyze(signals map[string][]float64, sampleRate float64) (*CoherenceResult, error) {
	sr := int(math.Round(sampleRate))
	if sr <= 0 {
		return nil, fmt.Errorf("%w: sample rate must be positive, got %g", errs.ErrNumericDomain, sampleRate)
	}

	axes := presentAxes(signals)
	if err := checkEqualLengths(signals, axes); err != nil {
		return nil, err
	}

	pairs := axisPairs(axes)
	results := make([]CoherencePair, len(pairs))
	pairErrs := make([]error, len(pairs))

	var wg sync.WaitGroup
	for i, p := range pairs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i], pairErrs[i] = a.coherePair(p, signals[p.first], signals[p.second], sr)
		}()
	}
	wg.Wait()

	for _, err := range pairErrs {
		if err != nil {
			return nil, err
		}
	}

	maxCoherence := 0.0
	for _, r := range results {
		maxCoherence = math.Max(maxCoherence, r.Max)
	}

	result := &CoherenceResult{
		Frequencies:  a.frequencies,
		Pairs:        results,
		MaxCoherence: maxCoherence,
		Factor:       factor(a.threshold, maxCoherence),
	}

	a.logger.Info("Coherence complete", logging.Fields{
		"pairs":         len(results),
		"max_coherence": maxCoherence,
		"ch_factor":     result.Factor,
	})

	return result, nil
}

func (a *CoherenceAnalyzer) coherePair(p axisPair, s1, s2 []float64, sr int) (CoherencePair, error) {
	s1, s2 = trimEdges(s1, sr), trimEdges(s2, sr)

	window := int(math.Round(float64(sr) * a.windowSeconds))
	window = min(window, len(s1))
	if window < 2 {
		return CoherencePair{}, fmt.Errorf("%w: %s has %d samples, too short for coherence", errs.ErrNumericDomain, p.key(), len(s1))
	}

	welch, err := spectral.NewWelch(float64(sr), window, window/2)
	if err != nil {
		return CoherencePair{}, fmt.Errorf("%w: %s: %w", errs.ErrNumericDomain, p.key(), err)
	}
	coh, err := welch.Coherence(s1, s2)
	if err != nil {
		return CoherencePair{}, fmt.Errorf("%w: %s: %w", errs.ErrNumericDomain, p.key(), err)
	}

	onGrid, err := common.InterpLinear(coh.Frequencies, coh.Density, a.frequencies)
	if err != nil {
		return CoherencePair{}, fmt.Errorf("%w: %s: %w", errs.ErrNumericDomain, p.key(), err)
	}

	return CoherencePair{
		Key:       p.key(),
		Label:     p.label(),
		Coherence: onGrid,
		Max:       floats.Max(onGrid),
	}, nil
}

// trimEdges drops edgeTrimSeconds from both ends unless that would remove
// half the record or more.
func trimEdges(x []float64, sr int) []float64 {
	trim := edgeTrimSeconds * sr
	if trim >= len(x)/2 {
		return x
	}
	return x[trim : len(x)-trim]
}
