package pdftext

import (
	"errors"
	"fmt"
)

// Common text extraction errors
var (
	// ErrExtractionFailed is returned when every extraction strategy
	// failed or produced empty text. The file is skipped; no record is
	// produced for it.
	ErrExtractionFailed = errors.New("text extraction failed with all strategies")

	// ErrInvalidPDF is returned when the provided data is not a valid PDF document.
	ErrInvalidPDF = errors.New("invalid or corrupted PDF document")

	// ErrPDFTooLarge is returned when the PDF exceeds the maximum size
	// for synchronous OCR processing (20MB).
	ErrPDFTooLarge = errors.New("PDF file size exceeds the maximum limit (20MB)")

	// ErrTooManyPages is returned when the PDF has too many pages for
	// synchronous OCR processing.
	ErrTooManyPages = errors.New("PDF has too many pages (maximum 5 pages for synchronous OCR)")

	// ErrEmptyDocument is returned when a strategy ran successfully but
	// found no readable text.
	ErrEmptyDocument = errors.New("document contains no readable text")

	// ErrMissingCredentials is returned when no Google Cloud credentials
	// are configured for the OCR backend.
	ErrMissingCredentials = errors.New("missing Google Cloud credentials: set GOOGLE_APPLICATION_CREDENTIALS or GOOGLE_CREDENTIALS environment variable")

	// ErrNoFallback is returned when the primary strategy failed and no
	// secondary strategy is configured.
	ErrNoFallback = errors.New("no fallback extractor configured")
)

// ExtractionError wraps errors with additional context about the failure.
type ExtractionError struct {
	// Op is the operation that failed (e.g., "ExtractText").
	Op string

	// Method is the extraction strategy that failed (e.g., "native", "vision").
	Method string

	// Err is the underlying error.
	Err error

	// Details provides additional context about the failure.
	Details string
}

// Error implements the error interface.
func (e *ExtractionError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("pdftext: %s (%s) failed: %s: %v", e.Op, e.Method, e.Details, e.Err)
	}
	return fmt.Sprintf("pdftext: %s (%s) failed: %v", e.Op, e.Method, e.Err)
}

// Unwrap returns the underlying error for error unwrapping.
func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// Is implements error matching for errors.Is.
func (e *ExtractionError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewExtractionError creates a new ExtractionError.
func NewExtractionError(op, method string, err error, details string) *ExtractionError {
	return &ExtractionError{
		Op:      op,
		Method:  method,
		Err:     err,
		Details: details,
	}
}

// WrapExtractionError wraps an error as an ExtractionError if it isn't already one.
func WrapExtractionError(op, method string, err error, details string) error {
	if err == nil {
		return nil
	}

	var extErr *ExtractionError
	if errors.As(err, &extErr) {
		return err // Already wrapped
	}

	return NewExtractionError(op, method, err, details)
}
