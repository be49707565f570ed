package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidParameters marks malformed simulation parameters.
	ErrInvalidParameters = errors.New("invalid parameters")
	// ErrUndefinedMetric marks a ratio whose denominator is zero or negligible.
	ErrUndefinedMetric = errors.New("undefined metric")
	// ErrDivisionByZero is the UndefinedMetric raised while conditioning on a
	// probability that underflowed to zero.
	ErrDivisionByZero = fmt.Errorf("%w: division by zero", ErrUndefinedMetric)
	// ErrInvalidDomain marks an integration whose upper bound lies below its lower bound.
	ErrInvalidDomain = errors.New("invalid integration domain")
	// ErrNegligibleRisk tags the terminal state where μ − 6σ > 0. It is not a failure.
	ErrNegligibleRisk = errors.New("deficit risk negligible")
	// ErrRunNotFound is returned when a stored run does not exist.
	ErrRunNotFound = errors.New("run not found")
)

// ParameterError describes the first violated constraint of a parameter set.
type ParameterError struct {
	Field  string
	Reason string
}

func (e *ParameterError) Error() string {
	return fmt.Sprintf("%s: %s: %s", ErrInvalidParameters, e.Field, e.Reason)
}

// Unwrap lets errors.Is match ErrInvalidParameters.
func (e *ParameterError) Unwrap() error {
	return ErrInvalidParameters
}

func invalidParam(field, format string, args ...interface{}) error {
	return &ParameterError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// UndefinedMetric builds an ErrUndefinedMetric naming the metric and the cause.
func UndefinedMetric(metric, reason string) error {
	return fmt.Errorf("%w: %s: %s", ErrUndefinedMetric, metric, reason)
}
