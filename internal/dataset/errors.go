package dataset

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound means the dataset file does not exist
	ErrNotFound = errors.New("dataset file not found")
	// ErrMalformed means the file exists but violates the header or row contract
	ErrMalformed = errors.New("malformed dataset")
	// ErrUnsupportedFormat means the file extension is neither .csv nor .xlsx
	ErrUnsupportedFormat = errors.New("unsupported dataset format")
)

// ParseError reports where in the input a load failed.
// Line is 1-based and counts the header; it is 0 when the failure is not tied to a row.
type ParseError struct {
	Source string
	Line   int
	Column string
	Value  string
	Err    error
}

func (e *ParseError) Error() string {
	msg := "dataset"
	if e.Source != "" {
		msg += " " + e.Source
	}
	if e.Line > 0 {
		msg += fmt.Sprintf(": line %d", e.Line)
	}
	if e.Column != "" {
		msg += fmt.Sprintf(": column %q", e.Column)
	}
	if e.Value != "" {
		msg += fmt.Sprintf(": value %q", e.Value)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap exposes both ErrMalformed and the underlying cause
func (e *ParseError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrMalformed}
	}
	return []error{ErrMalformed, e.Err}
}
