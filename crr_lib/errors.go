package crr

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidArgument is returned for inputs outside the pricer's domain
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrDivisionByZero is returned when a finite-difference step collapses to zero
	ErrDivisionByZero = errors.New("division by zero")
)

// ArgumentError describes which parameter was rejected and why
type ArgumentError struct {
	Param  string
	Value  interface{}
	Reason string
}

func (e *ArgumentError) Error() string {
	return fmt.Sprintf("%v: %s=%v %s", ErrInvalidArgument, e.Param, e.Value, e.Reason)
}

// Unwrap lets errors.Is match ErrInvalidArgument
func (e *ArgumentError) Unwrap() error {
	return ErrInvalidArgument
}

func invalid(param string, value interface{}, reason string) error {
	return &ArgumentError{Param: param, Value: value, Reason: reason}
}

// zeroStep builds the estimator error for a perturbation whose base is zero
func zeroStep(param string) error {
	return fmt.Errorf("%w: %s perturbation step is zero (base value is 0)", ErrDivisionByZero, param)
}
