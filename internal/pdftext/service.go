// Package pdftext extracts plain text from PDF invoices.
//
// Two strategies are combined: the embedded text layer is read first
// (fast, no network), and scanned documents without a usable text layer
// fall back to a cloud OCR backend. The fallback chain is assembled by
// FallbackExtractor; the secondary strategy is only invoked when the
// primary one errors or yields empty text.
//
// OCR backends:
//   - Google Cloud Vision document text detection (default)
//   - Google Document AI (set OCR_BACKEND=documentai)
//
// Both backends read credentials from GOOGLE_CREDENTIALS (inline JSON)
// or GOOGLE_APPLICATION_CREDENTIALS (key file path) and process PDFs as
// inline content, so no Cloud Storage staging is required.
package pdftext

import (
	"context"
	"io"
	"time"
)

// Extractor extracts plain text from a PDF byte stream.
type Extractor interface {
	// ExtractText reads the full PDF and returns the concatenated text
	// of all pages in reading order.
	ExtractText(ctx context.Context, pdfData io.Reader) (*Result, error)
}

// Result contains extracted text with processing metadata.
type Result struct {
	// Text is the concatenated text of all pages, joined with newlines.
	Text string `json:"text"`

	// PageCount is the number of pages that produced text.
	PageCount int `json:"page_count"`

	// Method names the strategy that produced the text.
	Method string `json:"method"`

	// ProcessedAt is when extraction completed.
	ProcessedAt time.Time `json:"processed_at"`

	// ProcessingDuration is how long extraction took.
	ProcessingDuration time.Duration `json:"processing_duration"`
}
