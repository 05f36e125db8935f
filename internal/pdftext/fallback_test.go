package pdftext

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubExtractor returns canned results and counts how often it is called.
type stubExtractor struct {
	text  string
	err   error
	calls int
}

func (s *stubExtractor) ExtractText(_ context.Context, pdfData io.Reader) (*Result, error) {
	s.calls++
	// Drain the reader like a real extractor would.
	if _, err := io.ReadAll(pdfData); err != nil {
		return nil, err
	}
	if s.err != nil {
		return nil, s.err
	}
	return &Result{Text: s.text, PageCount: 1, Method: "stub"}, nil
}

func TestFallbackExtractor(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name           string
		primary        *stubExtractor
		secondary      *stubExtractor
		wantText       string
		wantErr        error
		wantPrimary    int
		wantSecondary  int
	}{
		{
			name:          "primary success skips secondary",
			primary:       &stubExtractor{text: "Factura 2024-001\nTotal: 121,00"},
			secondary:     &stubExtractor{err: errors.New("must not be called")},
			wantText:      "Factura 2024-001\nTotal: 121,00",
			wantPrimary:   1,
			wantSecondary: 0,
		},
		{
			name:          "primary error falls back to secondary",
			primary:       &stubExtractor{err: ErrInvalidPDF},
			secondary:     &stubExtractor{text: "OCR text"},
			wantText:      "OCR text",
			wantPrimary:   1,
			wantSecondary: 1,
		},
		{
			name:          "primary empty text falls back to secondary",
			primary:       &stubExtractor{text: "  \n\t "},
			secondary:     &stubExtractor{text: "scanned invoice text"},
			wantText:      "scanned invoice text",
			wantPrimary:   1,
			wantSecondary: 1,
		},
		{
			name:          "both empty fails with ErrExtractionFailed",
			primary:       &stubExtractor{text: ""},
			secondary:     &stubExtractor{text: "   "},
			wantErr:       ErrExtractionFailed,
			wantPrimary:   1,
			wantSecondary: 1,
		},
		{
			name:          "both error fails with ErrExtractionFailed",
			primary:       &stubExtractor{err: ErrInvalidPDF},
			secondary:     &stubExtractor{err: ErrEmptyDocument},
			wantErr:       ErrExtractionFailed,
			wantPrimary:   1,
			wantSecondary: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			extractor := NewFallbackExtractor(tt.primary, tt.secondary)

			result, err := extractor.ExtractText(ctx, strings.NewReader("%PDF-1.4 fake"))

			if tt.wantErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.wantText, result.Text)
			}

			assert.Equal(t, tt.wantPrimary, tt.primary.calls, "primary call count")
			assert.Equal(t, tt.wantSecondary, tt.secondary.calls, "secondary call count")
		})
	}
}

func TestFallbackExtractorWithoutSecondary(t *testing.T) {
	primary := &stubExtractor{err: ErrInvalidPDF}
	extractor := NewFallbackExtractor(primary, nil)

	_, err := extractor.ExtractText(context.Background(), strings.NewReader("%PDF-1.4"))

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrExtractionFailed)
	assert.Equal(t, 1, primary.calls)
}

func TestNativeExtractorRejectsNonPDF(t *testing.T) {
	extractor := NewNativeExtractor()

	_, err := extractor.ExtractText(context.Background(), strings.NewReader("not a pdf at all"))

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidPDF)
}
