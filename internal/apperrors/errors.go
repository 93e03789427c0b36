package apperrors

import (
	"errors"
	"fmt"
)

// Business-rule errors. These are expected, recoverable conditions; the operation
// that returned one left persisted state untouched.

// ErrNotFound indicates that a requested resource could not be found.
var ErrNotFound = errors.New("resource not found")

// ErrValidation indicates that input data failed validation checks.
var ErrValidation = errors.New("validation error")

// ErrDuplicate indicates that an attempt was made to create a resource that already exists.
var ErrDuplicate = errors.New("resource already exists")

// ErrConflict indicates the request is valid but clashes with the current state
// (double reversal, canceling a paid invoice, re-scheduling an invoice).
var ErrConflict = errors.New("state conflict")

// Configuration and integrity errors. These point at a setup defect and must never
// be defaulted or swallowed.

// ErrConfiguration indicates a missing or broken setting, e.g. an account-code
// setting that is absent or points at an unknown or inactive account.
var ErrConfiguration = errors.New("configuration error")

// ErrIntegrity indicates an attempt to break a storage invariant, such as writing a
// computed column or mutating a posted journal.
var ErrIntegrity = errors.New("integrity violation")

// ErrInternal is returned when an infrastructure dependency fails.
var ErrInternal = errors.New("internal error")

// AppError carries an HTTP-ish status code alongside the wrapped cause.
type AppError struct {
	Code    int
	Message string
	Err     error
}

// NewAppError builds an AppError. err may be nil.
func NewAppError(code int, message string, err error) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}

func (e *AppError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

func (e *AppError) Unwrap() error {
	if e.Err == nil {
		return ErrInternal
	}
	return e.Err
}

// IsConfiguration reports whether err belongs to the configuration/integrity taxonomy.
func IsConfiguration(err error) bool {
	return errors.Is(err, ErrConfiguration) || errors.Is(err, ErrIntegrity)
}

// IsBusiness reports whether err is an ordinary business-rule failure.
func IsBusiness(err error) bool {
	if IsConfiguration(err) {
		return false
	}
	return errors.Is(err, ErrValidation) || errors.Is(err, ErrConflict) ||
		errors.Is(err, ErrDuplicate) || errors.Is(err, ErrNotFound)
}
