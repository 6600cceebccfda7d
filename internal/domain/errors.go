package domain

import (
	"errors"
	"fmt"
)

// Error kinds shared by the repository, service and handler layers
var (
	ErrValidation   = errors.New("validation failed")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
)

// Proforma conversion failures
var (
	ErrNotProforma      = fmt.Errorf("%w: only proforma documents can be converted", ErrConflict)
	ErrAlreadyConverted = fmt.Errorf("%w: proforma has already been converted to an invoice", ErrConflict)
	ErrProformaNotPaid  = fmt.Errorf("%w: proforma must be fully paid before conversion", ErrConflict)

	// ErrConversionRace is returned when another request converted the same
	// proforma between the precondition check and the write
	ErrConversionRace = fmt.Errorf("%w: proforma was converted by a concurrent request", ErrConflict)
)

// ErrInsufficientStock is returned by a conditional stock deduction that
// would take the stock below zero
var ErrInsufficientStock = errors.New("insufficient stock")

// NewValidationError wraps a message as a validation error
func NewValidationError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// NewNotFoundError wraps a message as a not-found error
func NewNotFoundError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
}
