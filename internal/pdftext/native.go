package pdftext

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/ledongthuc/pdf"
	"github.com/rs/zerolog"

	"facturas/internal/logger"
)

// MethodNative is the Method value reported for text-layer extraction.
const MethodNative = "native"

// NativeExtractor reads the text layer embedded in a PDF. It needs no
// network access but produces nothing for scanned documents, which is
// what the OCR fallback is for.
type NativeExtractor struct {
	log zerolog.Logger
}

// NewNativeExtractor creates a text-layer extractor.
func NewNativeExtractor() *NativeExtractor {
	return &NativeExtractor{
		log: logger.WithComponent("pdftext-native"),
	}
}

// ExtractText extracts the embedded text of all pages, joined with newlines.
func (e *NativeExtractor) ExtractText(ctx context.Context, pdfData io.Reader) (*Result, error) {
	const op = "ExtractText"
	startTime := time.Now()

	pdfBytes, err := io.ReadAll(pdfData)
	if err != nil {
		return nil, WrapExtractionError(op, MethodNative, err, "failed to read PDF data")
	}

	if len(pdfBytes) < 4 || string(pdfBytes[:4]) != "%PDF" {
		return nil, WrapExtractionError(op, MethodNative, ErrInvalidPDF, "missing PDF header")
	}

	if err := ctx.Err(); err != nil {
		return nil, WrapExtractionError(op, MethodNative, err, "context done before extraction")
	}

	text, pageCount, err := e.readTextLayer(pdfBytes)
	if err != nil {
		return nil, WrapExtractionError(op, MethodNative, err, "")
	}

	if strings.TrimSpace(text) == "" {
		return nil, WrapExtractionError(op, MethodNative, ErrEmptyDocument, "no text layer found")
	}

	e.log.Debug().
		Int("pages", pageCount).
		Int("text_length", len(text)).
		Msg("Extracted text layer from PDF")

	return &Result{
		Text:               text,
		PageCount:          pageCount,
		Method:             MethodNative,
		ProcessedAt:        time.Now(),
		ProcessingDuration: time.Since(startTime),
	}, nil
}

// readTextLayer walks every page and concatenates its plain text. The
// pdf package panics on some malformed cross-reference tables, so the
// whole walk runs under a recover that converts panics into ErrInvalidPDF.
func (e *NativeExtractor) readTextLayer(pdfBytes []byte) (text string, pageCount int, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrInvalidPDF, r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(pdfBytes), int64(len(pdfBytes)))
	if err != nil {
		return "", 0, fmt.Errorf("%w: %v", ErrInvalidPDF, err)
	}

	var builder strings.Builder
	totalPages := reader.NumPage()

	for pageNum := 1; pageNum <= totalPages; pageNum++ {
		page := reader.Page(pageNum)
		if page.V.IsNull() {
			continue
		}

		pageText, err := page.GetPlainText(nil)
		if err != nil {
			e.log.Warn().
				Err(err).
				Int("page", pageNum).
				Msg("Failed to read page text, skipping page")
			continue
		}

		if pageText != "" {
			builder.WriteString(pageText)
			builder.WriteString("\n")
			pageCount++
		}
	}

	return builder.String(), pageCount, nil
}
