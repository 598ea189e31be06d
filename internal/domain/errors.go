// internal/domain/errors.go
//
// Error kinds shared by the validator, renderer, store, and service layers.
//
// Context
// -------
// Every failure a caller can act on is one of the sentinels below.  Callers
// branch with errors.Is; the wrappers (FieldError, UnrecordedError) only add
// detail for display.
//
//   - Validation  – EmptyField, NonNumeric, TooLong, InvalidRange, Malformed.
//   - Quantity    – BelowMinimum, AboveMaximum.
//   - Store       – DuplicateCode, StoreUnavailable, NotFound.
//   - Batch       – RenderedNotRecorded.
//
// Notes
// -----
//   - Validation always runs before any store call, so a validation error
//     means no state was written.
//   - Oxford commas, two spaces after periods.
package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrEmptyField    = errors.New("field is empty")
	ErrNonNumeric    = errors.New("field must contain digits only")
	ErrTooLong       = errors.New("field is too long")
	ErrInvalidRange  = errors.New("invalid date range")
	ErrMalformed     = errors.New("malformed value")
	ErrBelowMinimum  = errors.New("quantity below minimum")
	ErrAboveMaximum  = errors.New("quantity above maximum")
	ErrDuplicateCode = errors.New("barcode already exists")
	ErrNotFound      = errors.New("not found")

	ErrStoreUnavailable    = errors.New("store unavailable")
	ErrRenderedNotRecorded = errors.New("labels rendered but print status not recorded")
)

// FieldError ties a validation kind to the input that caused it.
type FieldError struct {
	Field   string // wildcard, sku, quantity, code, query, ...
	Kind    error  // one of the validation sentinels
	Message string // operator-facing text
}

func (e *FieldError) Error() string {
	if e.Message != "" {
		return e.Field + ": " + e.Message
	}
	return e.Field + ": " + e.Kind.Error()
}

func (e *FieldError) Unwrap() error { return e.Kind }

// NewFieldError builds a FieldError with a formatted message.
func NewFieldError(field string, kind error, format string, args ...any) *FieldError {
	return &FieldError{Field: field, Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// UnrecordedError reports a batch whose label file exists but whose print
// status is stale for the listed ids.
type UnrecordedError struct {
	FailedIDs []string
	Cause     error
}

func (e *UnrecordedError) Error() string {
	msg := fmt.Sprintf("%s: %d id(s) not updated [%s]",
		ErrRenderedNotRecorded, len(e.FailedIDs), strings.Join(e.FailedIDs, ", "))
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap exposes both the kind and the underlying store failure.
func (e *UnrecordedError) Unwrap() []error {
	if e.Cause == nil {
		return []error{ErrRenderedNotRecorded}
	}
	return []error{ErrRenderedNotRecorded, e.Cause}
}

// IsValidation reports whether err is a caller input problem rather than a
// store or system failure.
func IsValidation(err error) bool {
	for _, k := range []error{
		ErrEmptyField, ErrNonNumeric, ErrTooLong, ErrInvalidRange, ErrMalformed,
		ErrBelowMinimum, ErrAboveMaximum,
	} {
		if errors.Is(err, k) {
			return true
		}
	}
	return false
}
