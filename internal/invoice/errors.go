package invoice

import (
	"errors"
	"fmt"
)

// Common field extraction errors. None of these abort a batch: the
// extractor converts them into degraded placeholder records.
var (
	// ErrServiceUnavailable is returned when the language-model call fails.
	ErrServiceUnavailable = errors.New("language model service call failed")

	// ErrEmptyResponse is returned when the service answers with no choices.
	ErrEmptyResponse = errors.New("no response choices from language model")

	// ErrMalformedResponse is returned when the response body is not a
	// single valid JSON object.
	ErrMalformedResponse = errors.New("language model response is not valid JSON")

	// ErrSchemaViolation is returned when the response JSON does not
	// match the invoice record schema.
	ErrSchemaViolation = errors.New("language model response does not match the invoice schema")
)

// FieldExtractionError wraps errors with context about the failed operation.
type FieldExtractionError struct {
	// Op is the operation that failed (e.g., "ExtractFields").
	Op string

	// Err is the underlying error.
	Err error

	// Details provides additional context about the failure.
	Details string
}

// Error implements the error interface.
func (e *FieldExtractionError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("invoice: %s failed: %s: %v", e.Op, e.Details, e.Err)
	}
	return fmt.Sprintf("invoice: %s failed: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error for error unwrapping.
func (e *FieldExtractionError) Unwrap() error {
	return e.Err
}

// Is implements error matching for errors.Is.
func (e *FieldExtractionError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// WrapFieldExtractionError wraps an error as a FieldExtractionError if it
// isn't already one.
func WrapFieldExtractionError(op string, err error, details string) error {
	if err == nil {
		return nil
	}

	var fieldErr *FieldExtractionError
	if errors.As(err, &fieldErr) {
		return err // Already wrapped
	}

	return &FieldExtractionError{Op: op, Err: err, Details: details}
}
