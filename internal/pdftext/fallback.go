package pdftext

import (
	"bytes"
	"context"
	"io"
	"strings"

	"github.com/rs/zerolog"

	"facturas/internal/logger"
)

// FallbackExtractor chains a primary and a secondary extraction strategy.
// The secondary strategy runs only when the primary one errors or yields
// empty text; when both fail the whole extraction fails with
// ErrExtractionFailed and the file is skipped.
type FallbackExtractor struct {
	primary   Extractor
	secondary Extractor
	log       zerolog.Logger
}

// NewFallbackExtractor creates the fallback chain. secondary may be nil
// when no OCR backend is available; primary failures are then terminal.
func NewFallbackExtractor(primary, secondary Extractor) *FallbackExtractor {
	return &FallbackExtractor{
		primary:   primary,
		secondary: secondary,
		log:       logger.WithComponent("pdftext-fallback"),
	}
}

// ExtractText tries the primary strategy, then the secondary one against
// a rewound copy of the input.
func (f *FallbackExtractor) ExtractText(ctx context.Context, pdfData io.Reader) (*Result, error) {
	const op = "ExtractText"

	// Buffer the stream so the secondary strategy sees the file from the start.
	pdfBytes, err := io.ReadAll(pdfData)
	if err != nil {
		return nil, WrapExtractionError(op, "fallback", err, "failed to read PDF data")
	}

	result, primaryErr := f.primary.ExtractText(ctx, bytes.NewReader(pdfBytes))
	if primaryErr == nil && strings.TrimSpace(result.Text) != "" {
		return result, nil
	}

	if primaryErr != nil {
		f.log.Warn().
			Err(primaryErr).
			Msg("Primary text extraction failed, trying fallback")
	} else {
		f.log.Warn().Msg("Primary text extraction returned empty text, trying fallback")
	}

	if f.secondary == nil {
		return nil, WrapExtractionError(op, "fallback", ErrExtractionFailed, ErrNoFallback.Error())
	}

	result, secondaryErr := f.secondary.ExtractText(ctx, bytes.NewReader(pdfBytes))
	if secondaryErr != nil {
		f.log.Error().
			Err(secondaryErr).
			Msg("Fallback text extraction failed")
		return nil, WrapExtractionError(op, "fallback", ErrExtractionFailed, secondaryErr.Error())
	}

	if strings.TrimSpace(result.Text) == "" {
		return nil, WrapExtractionError(op, "fallback", ErrExtractionFailed, "fallback returned empty text")
	}

	return result, nil
}
