package calc

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidEntryPrice = errors.New("entry price must be greater than zero")
	ErrInvalidMargin     = errors.New("margin must be greater than zero")
	ErrInvalidLeverage   = errors.New("leverage out of range")
	ErrInvalidInput      = errors.New("value must not be negative")
	ErrNegativeDuration  = errors.New("close or check time is before open time")
	ErrTargetUnset       = errors.New("status hit_target requires a target price")
)

// Error ties a computation failure to the input field that caused it.
type Error struct {
	Field string
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("calc [%s]: %v", e.Field, e.Err)
}

// Unwrap supports errors.Is against the sentinel errors above.
func (e *Error) Unwrap() error {
	return e.Err
}

func fieldError(field string, err error) *Error {
	return &Error{Field: field, Err: err}
}
