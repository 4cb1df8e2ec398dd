package ledger

import (
	"errors"
	"fmt"

	"github.com/mcclellann/ledgerbook/pkg/calc"
	"github.com/mcclellann/ledgerbook/pkg/store"
)

// ErrValidation is wrapped by every ValidationError.
var ErrValidation = errors.New("validation failed")

// ValidationError reports a missing or malformed field. It is always returned
// before any store call is made.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// TransportError wraps a failed store call with the operation that made it.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// IsClientError returns true if the error is due to invalid caller input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, calc.ErrInvalidAmount) ||
		errors.Is(err, calc.ErrInvalidRange)
}

// IsConflict returns true if the request clashes with the document's state.
func IsConflict(err error) bool {
	return errors.Is(err, calc.ErrAlreadySettled)
}

// IsNotFound returns true if the error indicates a missing document.
func IsNotFound(err error) bool {
	return errors.Is(err, store.ErrNotFound)
}
