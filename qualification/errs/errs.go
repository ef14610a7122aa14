// Package errs defines the error classes shared by the qualification packages.
//
// Every error returned by the engine wraps exactly one class so callers can
// decide with errors.Is whether a failure aborts the run or only the affected
// channel.
package errs

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration marks a missing or invalid required parameter. Fatal to the run.
	ErrConfiguration = errors.New("configuration error")

	// ErrDataShape marks non-uniform spacing, mismatched lengths or a missing channel.
	ErrDataShape = errors.New("data shape error")

	// ErrNumericDomain marks inputs outside the domain of a computation,
	// such as damping at or above critical or an empty signal.
	ErrNumericDomain = errors.New("numeric domain error")
)

var (
	// ErrInvalidRange is returned for an unusable frequency grid definition.
	ErrInvalidRange = fmt.Errorf("invalid frequency range: %w", ErrConfiguration)

	// ErrInvalidDamping is returned for damping outside [0, 1).
	ErrInvalidDamping = fmt.Errorf("invalid damping ratio: %w", ErrNumericDomain)
)

// IsChannelLevel reports whether err should skip a single channel rather than
// abort the whole run.
func IsChannelLevel(err error) bool {
	if err == nil || errors.Is(err, ErrConfiguration) {
		return false
	}
	return errors.Is(err, ErrDataShape) || errors.Is(err, ErrNumericDomain)
}
