// Package independence checks that the shake-table drive axes are
// statistically independent, by normalized cross-correlation in time and by
// magnitude-squared coherence in frequency.
package independence

import (
	"fmt"
	"math"
	"slices"
	"sync"

	"github.com/RyanBlaney/shaketable/algorithms/stats"
	"github.com/RyanBlaney/shaketable/logging"
	"github.com/RyanBlaney/shaketable/qualification/errs"
)

// DefaultCorrelationThreshold is the largest acceptable |ρ| between axes.
const DefaultCorrelationThreshold = 0.3

// axisOrder fixes pair enumeration: X-Y, X-Z, Y-Z.
var axisOrder = []string{"X", "Y", "Z"}

// CorrelationPair is the correlation curve of one axis pair against lag time.
type CorrelationPair struct {
	Key         string    `json:"key"`
	Label       string    `json:"label"`
	Lags        []float64 `json:"lags"`
	Correlation []float64 `json:"correlation"`
	MaxAbs      float64   `json:"max_abs"`
}

// CrossCorrelationResult collects every pair and the resulting factor.
// Factor is threshold/MaxCorrelation and +Inf when nothing correlates.
type CrossCorrelationResult struct {
	Pairs          []CorrelationPair `json:"pairs"`
	MaxCorrelation float64           `json:"max_correlation"`
	Factor         float64           `json:"factor"`
}

// CrossCorrelationAnalyzer correlates each pair of table axes.
type CrossCorrelationAnalyzer struct {
	threshold   float64
	correlation *stats.CrossCorrelation
	logger      logging.Logger
}

// NewCrossCorrelationAnalyzer creates an analyzer with the default threshold.
func NewCrossCorrelationAnalyzer() *CrossCorrelationAnalyzer {
	return NewCrossCorrelationAnalyzerWithThreshold(DefaultCorrelationThreshold)
}

// NewCrossCorrelationAnalyzerWithThreshold creates an analyzer with a custom
// acceptance threshold.
func NewCrossCorrelationAnalyzerWithThreshold(threshold float64) *CrossCorrelationAnalyzer {
	return &CrossCorrelationAnalyzer{
		threshold:   threshold,
		correlation: stats.NewCrossCorrelation(),
		logger: logging.WithFields(logging.Fields{
			"component": "cross_correlation",
		}),
	}
}

// Analyze correlates every pair of the axes present in signals, which maps
// axis (X, Y, Z) to acceleration. dt converts lags to seconds.
func (a *CrossCorrelationAnalyzer) Analyze(signals map[string][]float64, dt float64) (*CrossCorrelationResult, error) {
	axes := presentAxes(signals)
	if err := checkEqualLengths(signals, axes); err != nil {
		return nil, err
	}

	pairs := axisPairs(axes)
	results := make([]CorrelationPair, len(pairs))
	pairErrs := make([]error, len(pairs))

	var wg sync.WaitGroup
	for i, p := range pairs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i], pairErrs[i] = a.correlatePair(p, signals[p.first], signals[p.second], dt)
		}()
	}
	wg.Wait()

	for _, err := range pairErrs {
		if err != nil {
			return nil, err
		}
	}

	maxCorrelation := 0.0
	for _, r := range results {
		maxCorrelation = math.Max(maxCorrelation, r.MaxAbs)
	}

	result := &CrossCorrelationResult{
		Pairs:          results,
		MaxCorrelation: maxCorrelation,
		Factor:         factor(a.threshold, maxCorrelation),
	}

	a.logger.Info("Cross-correlation complete", logging.Fields{
		"pairs":           len(results),
		"max_correlation": maxCorrelation,
		"cc_factor":       result.Factor,
	})

	return result, nil
}

func (a *CrossCorrelationAnalyzer) correlatePair(p axisPair, s1, s2 []float64, dt float64) (CorrelationPair, error) {
	corr, err := a.correlation.Compute(s1, s2)
	if err != nil {
		return CorrelationPair{}, fmt.Errorf("%w: correlating %s: %w", errs.ErrNumericDomain, p.key(), err)
	}

	lags := make([]float64, len(corr.Lags))
	for i, lag := range corr.Lags {
		lags[i] = float64(lag) * dt
	}

	return CorrelationPair{
		Key:         p.key(),
		Label:       p.label(),
		Lags:        lags,
		Correlation: corr.Correlations,
		MaxAbs:      corr.PeakCorrelation,
	}, nil
}

type axisPair struct {
	first, second string
}

func (p axisPair) key() string {
	return p.first + "-" + p.second
}

func (p axisPair) label() string {
	return p.first + " vs. " + p.second
}

// presentAxes returns the axes found in signals, in X, Y, Z order.
func presentAxes(signals map[string][]float64) []string {
	var axes []string
	for _, axis := range axisOrder {
		if _, ok := signals[axis]; ok {
			axes = append(axes, axis)
		}
	}
	return axes
}

func axisPairs(axes []string) []axisPair {
	var pairs []axisPair
	for i := range axes {
		for j := i + 1; j < len(axes); j++ {
			pairs = append(pairs, axisPair{first: axes[i], second: axes[j]})
		}
	}
	return pairs
}

func checkEqualLengths(signals map[string][]float64, axes []string) error {
	lengths := make([]int, len(axes))
	for i, axis := range axes {
		lengths[i] = len(signals[axis])
	}
	if len(lengths) > 1 && slices.Min(lengths) != slices.Max(lengths) {
		return fmt.Errorf("%w: table axes have unequal lengths %v", errs.ErrDataShape, lengths)
	}
	return nil
}

func factor(threshold, maximum float64) float64 {
	if maximum > 0 {
		return threshold / maximum
	}
	return math.Inf(1)
}
