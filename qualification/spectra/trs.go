package spectra

import (
	"fmt"
	"math"
	"runtime"
	"sync"

	"github.com/RyanBlaney/shaketable/logging"
	"github.com/RyanBlaney/shaketable/qualification/errs"
	"github.com/RyanBlaney/shaketable/qualification/series"
)

// DefaultDamping is 5% of critical.
const DefaultDamping = 0.05

// TRSCurve is a test response spectrum: peak absolute SDOF response per
// natural frequency.
type TRSCurve struct {
	Frequencies []float64 `json:"frequencies"`
	Response    []float64 `json:"response"`
}

// smallwoodCoefficients hold one oscillator's recursive filter:
//
//	y[n] = b1·x[n] + b2·x[n-1] + b3·x[n-2] + a1·y[n-1] + a2·y[n-2]
type smallwoodCoefficients struct {
	b1, b2, b3 float64
	a1, a2     float64
}

// ResponseFilter computes test response spectra with the Smallwood ramp
// invariant recursive filter, one independent filter per natural frequency.
//
// References:
// - Smallwood, D.O. (1981). "An Improved Recursive Formula for Calculating
//   Shock Response Spectra", Shock and Vibration Bulletin 51(2)
type ResponseFilter struct {
	damping float64
	workers int
	logger  logging.Logger
}

// NewResponseFilter creates a filter that sizes its worker pool from the
// workload and CPU count.
func NewResponseFilter(damping float64) *ResponseFilter {
	return NewResponseFilterWithWorkers(damping, 0)
}

// NewResponseFilterWithWorkers creates a filter with a fixed worker count;
// workers <= 0 picks a count automatically, 1 runs sequentially.
func NewResponseFilterWithWorkers(damping float64, workers int) *ResponseFilter {
	return &ResponseFilter{
		damping: damping,
		workers: workers,
		logger: logging.WithFields(logging.Fields{
			"component": "trs",
			"damping":   damping,
		}),
	}
}

// Compute returns max|y| of the SDOF response to accel at every frequency in
// freqs. times must be uniformly spaced; only its first interval is used.
func (r *ResponseFilter) Compute(times, accel, freqs []float64) (*TRSCurve, error) {
	if r.damping < 0 || r.damping >= 1 {
		return nil, fmt.Errorf("%w: %g (must lie in [0, 1))", errs.ErrInvalidDamping, r.damping)
	}
	if len(accel) == 0 {
		return nil, fmt.Errorf("%w: empty acceleration record", errs.ErrNumericDomain)
	}
	if len(times) != len(accel) {
		return nil, fmt.Errorf("%w: %d time samples but %d acceleration samples", errs.ErrDataShape, len(times), len(accel))
	}
	dt, err := series.TimeStep(times)
	if err != nil {
		return nil, err
	}

	coeffs := make([]smallwoodCoefficients, len(freqs))
	for j, f := range freqs {
		if !(f > 0) {
			return nil, fmt.Errorf("%w: natural frequency must be positive, got %g at index %d", errs.ErrNumericDomain, f, j)
		}
		coeffs[j] = smallwood(f, r.damping, dt)
	}

	response := make([]float64, len(freqs))
	numWorkers := r.workerCount(len(freqs))

	if numWorkers <= 1 {
		for j := range coeffs {
			response[j] = coeffs[j].peakResponse(accel)
		}
	} else {
		jobs := make(chan int, len(freqs))
		var wg sync.WaitGroup

		for range numWorkers {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for j := range jobs {
					response[j] = coeffs[j].peakResponse(accel)
				}
			}()
		}

		for j := range freqs {
			jobs <- j
		}
		close(jobs)
		wg.Wait()
	}

	r.logger.Debug("Computed response spectrum", logging.Fields{
		"frequencies": len(freqs),
		"samples":     len(accel),
		"workers":     numWorkers,
	})

	return &TRSCurve{
		Frequencies: append([]float64(nil), freqs...),
		Response:    response,
	}, nil
}

// smallwood derives the filter coefficients for natural frequency f.
func smallwood(f, damping, dt float64) smallwoodCoefficients {
	omega := 2 * math.Pi * f
	omegaD := omega * math.Sqrt(1-damping*damping)

	e := math.Exp(-damping * omega * dt)
	k := omegaD * dt
	c := e * math.Cos(k)
	s := e * math.Sin(k)
	sp := s / k

	return smallwoodCoefficients{
		b1: 1 - sp,
		b2: 2 * (sp - c),
		b3: e*e - sp,
		a1: 2 * c,
		a2: -(e * e),
	}
}

// peakResponse runs the filter in transposed direct form II from rest and
// returns the largest absolute output. State is local to the call.
func (c smallwoodCoefficients) peakResponse(x []float64) float64 {
	var z0, z1 float64
	peak := 0.0
	for _, xn := range x {
		y := c.b1*xn + z0
		z0 = c.b2*xn + z1 + c.a1*y
		z1 = c.b3*xn + c.a2*y
		if a := math.Abs(y); a > peak {
			peak = a
		}
	}
	return peak
}

// workerCount uses fewer workers for small grids and all CPUs for large ones.
func (r *ResponseFilter) workerCount(numFreqs int) int {
	if r.workers > 0 {
		return min(r.workers, max(numFreqs, 1))
	}

	numCPU := runtime.NumCPU()
	switch {
	case numFreqs < 100:
		return max(1, min(numCPU/2, numFreqs))
	case numFreqs < 1000:
		return min(numCPU, 8)
	default:
		return numCPU
	}
}
