package invoice

import (
	"context"
	"io"

	"github.com/rs/zerolog"

	"facturas/internal/logger"
	"facturas/internal/pdftext"
	"facturas/pkg/models"
)

// Processor runs the full pipeline for one file: text extraction followed
// by field extraction. It keeps no state between files.
type Processor struct {
	text   pdftext.Extractor
	fields FieldExtractor
	log    zerolog.Logger
}

// NewProcessor creates a per-file pipeline.
func NewProcessor(text pdftext.Extractor, fields FieldExtractor) *Processor {
	return &Processor{
		text:   text,
		fields: fields,
		log:    logger.WithComponent("invoice-processor"),
	}
}

// Process extracts one structured record from a PDF. When text extraction
// fails the file is skipped: no record is produced and the extraction
// error is returned for per-file reporting. Service failures during field
// extraction do not surface here; they yield a degraded record instead.
func (p *Processor) Process(ctx context.Context, sourceName string, pdfData io.Reader) (*models.InvoiceRecord, error) {
	result, err := p.text.ExtractText(ctx, pdfData)
	if err != nil {
		p.log.Error().
			Err(err).
			Str("source", sourceName).
			Msg("Could not extract text, skipping file")
		return nil, err
	}

	p.log.Debug().
		Str("source", sourceName).
		Str("method", result.Method).
		Int("pages", result.PageCount).
		Int("text_length", len(result.Text)).
		Msg("Text extracted")

	return p.fields.ExtractFields(ctx, result.Text, sourceName), nil
}
