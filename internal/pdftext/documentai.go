package pdftext

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	documentai "cloud.google.com/go/documentai/apiv1"
	"cloud.google.com/go/documentai/apiv1/documentaipb"
	"github.com/rs/zerolog"
	"google.golang.org/api/option"

	"facturas/internal/logger"
)

// MethodDocumentAI is the Method value reported for Document AI extraction.
const MethodDocumentAI = "documentai"

// DocumentAIConfig configures the Document AI OCR backend.
type DocumentAIConfig struct {
	ProjectID   string
	Location    string // "us", "eu", ...
	ProcessorID string
}

// DocumentAIExtractor performs OCR through a Google Document AI
// processor. Only the recognized full text is used; structured field
// parsing stays with the language-model extraction step.
type DocumentAIExtractor struct {
	client *documentai.DocumentProcessorClient
	config DocumentAIConfig
	log    zerolog.Logger
}

// NewDocumentAIExtractor creates a Document AI extractor with credentials
// from the environment, same lookup order as the Vision backend.
func NewDocumentAIExtractor(ctx context.Context, config DocumentAIConfig) (*DocumentAIExtractor, error) {
	const op = "NewDocumentAIExtractor"

	if config.ProjectID == "" || config.ProcessorID == "" {
		return nil, WrapExtractionError(op, MethodDocumentAI, ErrMissingCredentials, "project ID and processor ID are required")
	}
	if config.Location == "" {
		config.Location = "eu"
	}

	var clientOptions []option.ClientOption
	if config.Location != "us" {
		endpoint := fmt.Sprintf("%s-documentai.googleapis.com:443", config.Location)
		clientOptions = append(clientOptions, option.WithEndpoint(endpoint))
	}

	if credJSON := os.Getenv("GOOGLE_CREDENTIALS"); credJSON != "" {
		clientOptions = append(clientOptions, option.WithCredentialsJSON([]byte(credJSON)))
	} else if credFile := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"); credFile != "" {
		clientOptions = append(clientOptions, option.WithCredentialsFile(credFile))
	}

	client, err := documentai.NewDocumentProcessorClient(ctx, clientOptions...)
	if err != nil {
		return nil, WrapExtractionError(op, MethodDocumentAI, err, fmt.Sprintf("failed to create Document AI client for location %s", config.Location))
	}

	return &DocumentAIExtractor{
		client: client,
		config: config,
		log:    logger.WithComponent("pdftext-documentai"),
	}, nil
}

// ExtractText processes the PDF through the configured processor and
// returns the recognized document text.
func (e *DocumentAIExtractor) ExtractText(ctx context.Context, pdfData io.Reader) (*Result, error) {
	const op = "ExtractText"
	startTime := time.Now()

	pdfBytes, err := io.ReadAll(pdfData)
	if err != nil {
		return nil, WrapExtractionError(op, MethodDocumentAI, err, "failed to read PDF data")
	}

	if len(pdfBytes) > MaxFileSizeBytes {
		return nil, WrapExtractionError(op, MethodDocumentAI, ErrPDFTooLarge, fmt.Sprintf("file size: %d bytes", len(pdfBytes)))
	}

	if len(pdfBytes) < 4 || string(pdfBytes[:4]) != "%PDF" {
		return nil, WrapExtractionError(op, MethodDocumentAI, ErrInvalidPDF, "missing PDF header")
	}

	req := &documentaipb.ProcessRequest{
		Name: e.processorName(),
		Source: &documentaipb.ProcessRequest_RawDocument{
			RawDocument: &documentaipb.RawDocument{
				Content:  pdfBytes,
				MimeType: "application/pdf",
			},
		},
	}

	resp, err := e.client.ProcessDocument(ctx, req)
	if err != nil {
		return nil, WrapExtractionError(op, MethodDocumentAI, err, "Document AI call failed")
	}

	if resp.Document == nil || strings.TrimSpace(resp.Document.Text) == "" {
		return nil, WrapExtractionError(op, MethodDocumentAI, ErrEmptyDocument, "no text in Document AI response")
	}

	pageCount := len(resp.Document.Pages)

	e.log.Debug().
		Int("pages", pageCount).
		Int("text_length", len(resp.Document.Text)).
		Msg("Document AI extraction completed")

	return &Result{
		Text:               resp.Document.Text,
		PageCount:          pageCount,
		Method:             MethodDocumentAI,
		ProcessedAt:        time.Now(),
		ProcessingDuration: time.Since(startTime),
	}, nil
}

// processorName constructs the full resource name of the processor.
func (e *DocumentAIExtractor) processorName() string {
	return fmt.Sprintf("projects/%s/locations/%s/processors/%s",
		e.config.ProjectID, e.config.Location, e.config.ProcessorID)
}

// Close closes the underlying Document AI client.
func (e *DocumentAIExtractor) Close() error {
	if e.client != nil {
		return e.client.Close()
	}
	return nil
}
