package invoice

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/sashabaranov/go-openai"

	"facturas/internal/logger"
	"facturas/pkg/models"
)

// FieldExtractor turns extracted invoice text into a structured record.
//
// Implementations never fail: when the service call or response handling
// breaks down they return a degraded placeholder record (classification
// expense, zeroed amounts, error description in Notes) so that one bad
// file never aborts the rest of the batch.
type FieldExtractor interface {
	ExtractFields(ctx context.Context, text, sourceName string) *models.InvoiceRecord
}

// completionClient is the slice of the OpenAI client the extractor needs.
// *openai.Client satisfies it; tests substitute a deterministic stub.
type completionClient interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// ExtractorConfig configures the field extraction service.
type ExtractorConfig struct {
	Model          string        // OpenAI model name
	Temperature    float32       // sampling temperature
	MaxRetries     int           // attempts per invoice before degrading
	RequestTimeout time.Duration // deadline per service call
}

// DefaultExtractorConfig returns the extraction defaults.
func DefaultExtractorConfig() ExtractorConfig {
	return ExtractorConfig{
		Model:          "gpt-4o",
		Temperature:    0.1,
		MaxRetries:     3,
		RequestTimeout: 60 * time.Second,
	}
}

// OpenAIFieldExtractor implements FieldExtractor with OpenAI chat completions.
type OpenAIFieldExtractor struct {
	client completionClient
	config ExtractorConfig
	log    zerolog.Logger
}

// NewOpenAIFieldExtractor creates the extraction service.
func NewOpenAIFieldExtractor(client completionClient, config ExtractorConfig) *OpenAIFieldExtractor {
	if config.MaxRetries < 1 {
		config.MaxRetries = 1
	}
	if config.RequestTimeout <= 0 {
		config.RequestTimeout = 60 * time.Second
	}
	return &OpenAIFieldExtractor{
		client: client,
		config: config,
		log:    logger.WithComponent("invoice-fields"),
	}
}

const systemPrompt = `Eres un experto contador que extrae datos de facturas con precisión. Respondes únicamente con JSON válido.`

// buildPrompt creates the user prompt enumerating the exact target schema.
func buildPrompt(text string) string {
	var prompt strings.Builder

	prompt.WriteString("Analiza el siguiente texto extraído de una factura PDF y extrae TODOS los datos disponibles.\n")
	prompt.WriteString("Devuelve un JSON con la siguiente estructura exacta:\n\n")
	prompt.WriteString(`{
    "invoice_number": "número de factura si existe, o null",
    "date": "fecha en formato YYYY-MM-DD si existe, o null",
    "proveedor_cliente": "nombre del proveedor o cliente",
    "tipo": "ingreso o gasto",
    "tax_base": número decimal o null,
    "vat_amount": número decimal o null,
    "vat_rate": número decimal o null,
    "withholding_amount": número decimal o null,
    "withholding_rate": número decimal o null,
    "total": número decimal o null,
    "concepts": "breve descripción de productos/servicios",
    "notes": "cualquier dato adicional relevante"
}`)
	prompt.WriteString("\n\nIMPORTANTE:\n")
	prompt.WriteString("- Extrae SOLO los datos que realmente existan en el texto\n")
	prompt.WriteString("- Si un campo no existe, usa null\n")
	prompt.WriteString("- Los números deben ser decimales sin símbolos de moneda\n")
	prompt.WriteString("- La fecha debe estar en formato YYYY-MM-DD\n")
	prompt.WriteString("- Para determinar tipo: si la factura es emitida por nosotros o tiene datos del receptor, es ingreso; si es recibida de un proveedor o muestra datos del emisor como proveedor, es gasto\n")
	prompt.WriteString("\nTexto de la factura:\n")
	prompt.WriteString(text)
	prompt.WriteString("\n\nResponde ÚNICAMENTE con el JSON, sin texto adicional.")

	return prompt.String()
}

// ExtractFields asks the language model for a structured record. Each
// attempt runs under its own deadline; after MaxRetries failed attempts
// the result degrades instead of propagating an error.
func (s *OpenAIFieldExtractor) ExtractFields(ctx context.Context, text, sourceName string) *models.InvoiceRecord {
	const op = "ExtractFields"

	prompt := buildPrompt(text)

	s.log.Debug().
		Str("source", sourceName).
		Int("text_length", len(text)).
		Str("model", s.config.Model).
		Msg("Sending extraction request to language model")

	var lastErr error
	for attempt := 1; attempt <= s.config.MaxRetries; attempt++ {
		record, err := s.requestOnce(ctx, prompt, sourceName)
		if err == nil {
			s.log.Info().
				Str("source", sourceName).
				Str("tipo", string(record.Classification)).
				Str("party", record.PartyName).
				Int("attempt", attempt).
				Msg("Invoice fields extracted")
			return record
		}

		lastErr = err
		s.log.Warn().
			Err(err).
			Str("source", sourceName).
			Int("attempt", attempt).
			Int("max_retries", s.config.MaxRetries).
			Msg("Field extraction attempt failed")

		if ctx.Err() != nil {
			break
		}
	}

	wrapped := WrapFieldExtractionError(op, lastErr, fmt.Sprintf("all %d attempts failed", s.config.MaxRetries))
	s.log.Error().
		Err(wrapped).
		Str("source", sourceName).
		Msg("Field extraction degraded to placeholder record")

	return DegradedRecord(sourceName, wrapped)
}

// requestOnce performs a single service call and decodes the response.
func (s *OpenAIFieldExtractor) requestOnce(ctx context.Context, prompt, sourceName string) (*models.InvoiceRecord, error) {
	callCtx, cancel := context.WithTimeout(ctx, s.config.RequestTimeout)
	defer cancel()

	resp, err := s.client.CreateChatCompletion(callCtx, openai.ChatCompletionRequest{
		Model:       s.config.Model,
		Temperature: s.config.Temperature,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: systemPrompt,
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		MaxTokens: 2048,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrServiceUnavailable, err)
	}

	if len(resp.Choices) == 0 {
		return nil, ErrEmptyResponse
	}

	content := stripCodeFences(resp.Choices[0].Message.Content)

	wire, err := decodeResponse([]byte(content))
	if err != nil {
		return nil, err
	}

	return wire.toRecord(sourceName), nil
}

// stripCodeFences removes markdown code blocks some models wrap around JSON.
func stripCodeFences(response string) string {
	cleaned := strings.TrimSpace(response)

	if strings.HasPrefix(cleaned, "```json") {
		cleaned = strings.TrimPrefix(cleaned, "```json")
		cleaned = strings.TrimSuffix(cleaned, "```")
	} else if strings.HasPrefix(cleaned, "```") {
		cleaned = strings.TrimPrefix(cleaned, "```")
		cleaned = strings.TrimSuffix(cleaned, "```")
	}

	return strings.TrimSpace(cleaned)
}

// DegradedRecord builds the placeholder record used when extraction
// fails: zeroed amounts, classification expense, and the error carried in
// Notes. The Degraded flag lets consumers filter these out of totals.
func DegradedRecord(sourceName string, cause error) *models.InvoiceRecord {
	zero := func() *float64 { v := 0.0; return &v }

	return &models.InvoiceRecord{
		SourceName:        sourceName,
		PartyName:         "processing error",
		Classification:    models.Expense,
		TaxBase:           zero(),
		VATAmount:         zero(),
		VATRate:           zero(),
		WithholdingAmount: zero(),
		WithholdingRate:   zero(),
		Total:             zero(),
		Notes:             fmt.Sprintf("Error: %v", cause),
		Degraded:          true,
	}
}
