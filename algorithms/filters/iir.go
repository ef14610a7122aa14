package filters

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// IIRFilter is a rational transfer function
//
//	H(z) = (b0 + b1 z^-1 + ... + bM z^-M) / (a0 + a1 z^-1 + ... + aN z^-N)
//
// evaluated in transposed direct form II. Coefficients are normalised so that
// a0 == 1 and both polynomials are padded to the same length.
type IIRFilter struct {
	b []float64
	a []float64
}

// NewIIRFilter creates a filter from numerator b and denominator a.
func NewIIRFilter(b, a []float64) (*IIRFilter, error) {
	if len(b) == 0 || len(a) == 0 {
		return nil, fmt.Errorf("filter coefficients must not be empty")
	}
	if a[0] == 0 {
		return nil, fmt.Errorf("leading denominator coefficient must be non-zero")
	}

	n := max(len(a), len(b))
	nb := make([]float64, n)
	na := make([]float64, n)
	for i, v := range b {
		nb[i] = v / a[0]
	}
	for i, v := range a {
		na[i] = v / a[0]
	}

	return &IIRFilter{b: nb, a: na}, nil
}

// Order is the number of delay elements.
func (f *IIRFilter) Order() int {
	return len(f.a) - 1
}

// Filter runs the filter over x starting from state zi (nil for rest).
// It returns the output and the final state.
func (f *IIRFilter) Filter(x, zi []float64) ([]float64, []float64, error) {
	order := f.Order()
	z := make([]float64, order)
	if zi != nil {
		if len(zi) != order {
			return nil, nil, fmt.Errorf("initial state has %d elements, filter needs %d", len(zi), order)
		}
		copy(z, zi)
	}

	y := make([]float64, len(x))
	for i, xi := range x {
		yi := f.b[0] * xi
		if order > 0 {
			yi += z[0]
		}
		for j := 0; j < order-1; j++ {
			z[j] = f.b[j+1]*xi + z[j+1] - f.a[j+1]*yi
		}
		if order > 0 {
			z[order-1] = f.b[order]*xi - f.a[order]*yi
		}
		y[i] = yi
	}

	return y, z, nil
}

// SteadyStateZi returns the initial state for a unit step input, i.e. the
// state the filter settles to after a long run of ones. Scaling it by the
// first sample suppresses the start-up transient.
//
// It solves (I - Aᵀ) zi = b[1:] - a[1:]·b0 where A is the companion matrix of a.
func (f *IIRFilter) SteadyStateZi() ([]float64, error) {
	order := f.Order()
	if order == 0 {
		return []float64{}, nil
	}

	iMinusA := mat.NewDense(order, order, nil)
	for i := range order {
		first := f.a[i+1]
		if i == 0 {
			first++
		}
		iMinusA.Set(i, 0, first)
		for j := 1; j < order; j++ {
			v := 0.0
			if i == j {
				v = 1
			}
			if i == j-1 {
				v -= 1
			}
			iMinusA.Set(i, j, v)
		}
	}

	rhs := mat.NewVecDense(order, nil)
	for i := range order {
		rhs.SetVec(i, f.b[i+1]-f.a[i+1]*f.b[0])
	}

	var zi mat.VecDense
	if err := zi.SolveVec(iMinusA, rhs); err != nil {
		return nil, fmt.Errorf("solving steady-state filter state: %w", err)
	}

	out := make([]float64, order)
	for i := range out {
		out[i] = zi.AtVec(i)
	}
	return out, nil
}
