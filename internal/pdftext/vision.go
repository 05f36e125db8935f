package pdftext

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	vision "cloud.google.com/go/vision/v2/apiv1"
	"cloud.google.com/go/vision/v2/apiv1/visionpb"
	"github.com/rs/zerolog"
	"google.golang.org/api/option"

	"facturas/internal/logger"
)

const (
	// MethodVision is the Method value reported for Vision OCR extraction.
	MethodVision = "vision"

	// MaxFileSizeBytes is the maximum file size for synchronous OCR (20MB)
	MaxFileSizeBytes = 20 * 1024 * 1024

	// MaxPagesSync is the maximum number of pages for synchronous OCR
	MaxPagesSync = 5
)

// VisionExtractor performs OCR using the Google Cloud Vision API. It is
// the default secondary strategy for scanned invoices without a text layer.
type VisionExtractor struct {
	client *vision.ImageAnnotatorClient
	log    zerolog.Logger
}

// NewVisionExtractor creates an OCR extractor with credentials from the
// environment: GOOGLE_CREDENTIALS (inline JSON), GOOGLE_APPLICATION_CREDENTIALS
// (key file), or application default credentials.
func NewVisionExtractor(ctx context.Context) (*VisionExtractor, error) {
	const op = "NewVisionExtractor"

	var client *vision.ImageAnnotatorClient
	var err error

	if credJSON := os.Getenv("GOOGLE_CREDENTIALS"); credJSON != "" {
		client, err = vision.NewImageAnnotatorClient(ctx, option.WithCredentialsJSON([]byte(credJSON)))
		if err != nil {
			return nil, WrapExtractionError(op, MethodVision, err, "failed to create client with GOOGLE_CREDENTIALS")
		}
	} else if credFile := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"); credFile != "" {
		client, err = vision.NewImageAnnotatorClient(ctx, option.WithCredentialsFile(credFile))
		if err != nil {
			return nil, WrapExtractionError(op, MethodVision, err, "failed to create client with GOOGLE_APPLICATION_CREDENTIALS")
		}
	} else {
		client, err = vision.NewImageAnnotatorClient(ctx)
		if err != nil {
			return nil, WrapExtractionError(op, MethodVision, ErrMissingCredentials, "no credentials found in environment")
		}
	}

	return &VisionExtractor{
		client: client,
		log:    logger.WithComponent("pdftext-vision"),
	}, nil
}

// NewVisionExtractorWithClient creates an OCR extractor with an explicit client (for testing).
func NewVisionExtractorWithClient(client *vision.ImageAnnotatorClient) *VisionExtractor {
	return &VisionExtractor{
		client: client,
		log:    logger.WithComponent("pdftext-vision"),
	}
}

// ExtractText runs document text detection over the whole PDF.
func (e *VisionExtractor) ExtractText(ctx context.Context, pdfData io.Reader) (*Result, error) {
	const op = "ExtractText"
	startTime := time.Now()

	pdfBytes, err := io.ReadAll(pdfData)
	if err != nil {
		return nil, WrapExtractionError(op, MethodVision, err, "failed to read PDF data")
	}

	if len(pdfBytes) > MaxFileSizeBytes {
		return nil, WrapExtractionError(op, MethodVision, ErrPDFTooLarge, fmt.Sprintf("file size: %d bytes", len(pdfBytes)))
	}

	if len(pdfBytes) < 4 || string(pdfBytes[:4]) != "%PDF" {
		return nil, WrapExtractionError(op, MethodVision, ErrInvalidPDF, "missing PDF header")
	}

	req := &visionpb.BatchAnnotateFilesRequest{
		Requests: []*visionpb.AnnotateFileRequest{
			{
				InputConfig: &visionpb.InputConfig{
					Content:  pdfBytes,
					MimeType: "application/pdf",
				},
				Features: []*visionpb.Feature{
					{
						Type: visionpb.Feature_DOCUMENT_TEXT_DETECTION,
					},
				},
				Pages: nil, // Process all pages
			},
		},
	}

	resp, err := e.client.BatchAnnotateFiles(ctx, req)
	if err != nil {
		return nil, WrapExtractionError(op, MethodVision, err, "Vision API call failed")
	}

	if len(resp.Responses) == 0 {
		return nil, WrapExtractionError(op, MethodVision, ErrExtractionFailed, "no response from Vision API")
	}

	fileResp := resp.Responses[0]
	if fileResp.Error != nil {
		return nil, WrapExtractionError(op, MethodVision, ErrExtractionFailed, fmt.Sprintf("Vision API error: %s", fileResp.Error.Message))
	}

	text, pageCount, err := e.collectText(fileResp)
	if err != nil {
		return nil, WrapExtractionError(op, MethodVision, err, "")
	}

	e.log.Debug().
		Int("pages", pageCount).
		Int("text_length", len(text)).
		Msg("OCR extraction completed")

	return &Result{
		Text:               text,
		PageCount:          pageCount,
		Method:             MethodVision,
		ProcessedAt:        time.Now(),
		ProcessingDuration: time.Since(startTime),
	}, nil
}

// collectText concatenates the full text annotation of every page with a
// newline separator, in reading order.
func (e *VisionExtractor) collectText(fileResp *visionpb.AnnotateFileResponse) (string, int, error) {
	if len(fileResp.Responses) == 0 {
		return "", 0, ErrEmptyDocument
	}

	pageCount := len(fileResp.Responses)
	if pageCount > MaxPagesSync {
		return "", 0, fmt.Errorf("%w: document has %d pages", ErrTooManyPages, pageCount)
	}

	var builder strings.Builder
	for pageIdx, page := range fileResp.Responses {
		if page.Error != nil {
			return "", 0, fmt.Errorf("error processing page %d: %s", pageIdx+1, page.Error.Message)
		}
		if page.FullTextAnnotation == nil {
			continue
		}
		builder.WriteString(page.FullTextAnnotation.Text)
		builder.WriteString("\n")
	}

	text := builder.String()
	if strings.TrimSpace(text) == "" {
		return "", 0, ErrEmptyDocument
	}

	return text, pageCount, nil
}

// Close closes the underlying Vision client.
func (e *VisionExtractor) Close() error {
	if e.client != nil {
		return e.client.Close()
	}
	return nil
}
