package casualty

import (
	"errors"
	"fmt"
)

// ErrDataFormat is matched by every DataFormatError.
var ErrDataFormat = errors.New("malformed casualty data")

// Sentinel causes carried inside DataFormatError.
var (
	ErrMissingDate    = errors.New("date is required")
	ErrInvalidDate    = errors.New("date is not an ISO calendar date")
	ErrDateOrder      = errors.New("date precedes the previous record")
	ErrNegativeCount  = errors.New("count must not be negative")
	ErrInvalidJSON    = errors.New("invalid JSON")
	ErrUnknownVariant = errors.New("killed count is nil or of an unknown variant")
)

// DataFormatError reports a malformed record. Index is the record position in
// the input, Field the offending JSON field.
type DataFormatError struct {
	Err   error
	Field string
	Index int
}

// Error implements error.
func (e *DataFormatError) Error() string {
	return fmt.Sprintf("%s: record %d, field %q: %v", ErrDataFormat, e.Index, e.Field, e.Err)
}

// Unwrap exposes both the cause and ErrDataFormat to errors.Is.
func (e *DataFormatError) Unwrap() []error {
	return []error{ErrDataFormat, e.Err}
}

func formatErr(index int, field string, err error) error {
	return &DataFormatError{Index: index, Field: field, Err: err}
}
