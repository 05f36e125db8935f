package invoice

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"facturas/pkg/models"
)

// stubCompletion replays canned responses and counts calls.
type stubCompletion struct {
	responses []stubResponse
	calls     int
}

type stubResponse struct {
	content string
	err     error
}

func (s *stubCompletion) CreateChatCompletion(_ context.Context, _ openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	idx := s.calls
	s.calls++
	if idx >= len(s.responses) {
		idx = len(s.responses) - 1
	}
	r := s.responses[idx]
	if r.err != nil {
		return openai.ChatCompletionResponse{}, r.err
	}
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Content: r.content}},
		},
	}, nil
}

func testConfig() ExtractorConfig {
	return ExtractorConfig{
		Model:          "gpt-4o",
		Temperature:    0.1,
		MaxRetries:     3,
		RequestTimeout: time.Second,
	}
}

const validIncomeJSON = `{
	"invoice_number": "2024-001",
	"date": "2024-03-15",
	"proveedor_cliente": "Cliente Ejemplo SL",
	"tipo": "ingreso",
	"tax_base": 100.00,
	"vat_amount": 21.00,
	"vat_rate": 21.0,
	"withholding_amount": 15.00,
	"withholding_rate": 15.0,
	"total": 106.00,
	"concepts": "Servicios de consultoría",
	"notes": ""
}`

func TestExtractFieldsSuccess(t *testing.T) {
	client := &stubCompletion{responses: []stubResponse{{content: validIncomeJSON}}}
	extractor := NewOpenAIFieldExtractor(client, testConfig())

	record := extractor.ExtractFields(context.Background(), "Factura emitida...", "factura.pdf")

	require.NotNil(t, record)
	assert.Equal(t, "factura.pdf", record.SourceName)
	assert.Equal(t, "2024-001", record.InvoiceNumber)
	assert.Equal(t, models.Income, record.Classification)
	assert.Equal(t, "Cliente Ejemplo SL", record.PartyName)
	assert.False(t, record.Degraded)
	assert.Equal(t, 1, client.calls)

	require.NotNil(t, record.Date)
	assert.Equal(t, "2024-03-15", record.Date.String())

	require.NotNil(t, record.TaxBase)
	assert.InDelta(t, 100.00, *record.TaxBase, 1e-9)
	require.NotNil(t, record.VATAmount)
	assert.InDelta(t, 21.00, *record.VATAmount, 1e-9)
	require.NotNil(t, record.Total)
	assert.InDelta(t, 106.00, *record.Total, 1e-9)
}

func TestExtractFieldsNullAmountsStayAbsent(t *testing.T) {
	content := `{
		"invoice_number": null,
		"date": null,
		"proveedor_cliente": "Proveedor SA",
		"tipo": "gasto",
		"tax_base": null,
		"vat_amount": null,
		"vat_rate": null,
		"withholding_amount": null,
		"withholding_rate": null,
		"total": 60.50,
		"concepts": "Material de oficina",
		"notes": null
	}`
	client := &stubCompletion{responses: []stubResponse{{content: content}}}
	extractor := NewOpenAIFieldExtractor(client, testConfig())

	record := extractor.ExtractFields(context.Background(), "text", "gasto.pdf")

	require.NotNil(t, record)
	assert.Equal(t, models.Expense, record.Classification)
	assert.Nil(t, record.TaxBase, "null must stay absent, not become zero")
	assert.Nil(t, record.VATAmount)
	assert.Nil(t, record.Date)
	require.NotNil(t, record.Total)
	assert.InDelta(t, 60.50, *record.Total, 1e-9)
	assert.False(t, record.Degraded)
}

func TestExtractFieldsStripsCodeFences(t *testing.T) {
	client := &stubCompletion{responses: []stubResponse{
		{content: "```json\n" + validIncomeJSON + "\n```"},
	}}
	extractor := NewOpenAIFieldExtractor(client, testConfig())

	record := extractor.ExtractFields(context.Background(), "text", "factura.pdf")

	assert.False(t, record.Degraded)
	assert.Equal(t, "2024-001", record.InvoiceNumber)
}

func TestExtractFieldsUnknownClassificationDefaultsToExpense(t *testing.T) {
	content := `{
		"invoice_number": null, "date": null,
		"proveedor_cliente": "Alguien", "tipo": "desconocido",
		"tax_base": null, "vat_amount": null, "vat_rate": null,
		"withholding_amount": null, "withholding_rate": null, "total": null,
		"concepts": "", "notes": ""
	}`
	client := &stubCompletion{responses: []stubResponse{{content: content}}}
	extractor := NewOpenAIFieldExtractor(client, testConfig())

	record := extractor.ExtractFields(context.Background(), "text", "x.pdf")

	assert.Equal(t, models.Expense, record.Classification)
	assert.False(t, record.Degraded)
}

func TestExtractFieldsRetriesThenSucceeds(t *testing.T) {
	client := &stubCompletion{responses: []stubResponse{
		{err: errors.New("temporary network error")},
		{content: validIncomeJSON},
	}}
	extractor := NewOpenAIFieldExtractor(client, testConfig())

	record := extractor.ExtractFields(context.Background(), "text", "factura.pdf")

	assert.False(t, record.Degraded)
	assert.Equal(t, 2, client.calls)
}

func TestExtractFieldsDegradesOnPersistentFailure(t *testing.T) {
	tests := []struct {
		name     string
		response stubResponse
	}{
		{"service error", stubResponse{err: errors.New("connection refused")}},
		{"malformed JSON", stubResponse{content: "lo siento, no puedo"}},
		{"schema violation", stubResponse{content: `{"tipo": "gasto", "total": "121.00"}`}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &stubCompletion{responses: []stubResponse{tt.response}}
			extractor := NewOpenAIFieldExtractor(client, testConfig())

			record := extractor.ExtractFields(context.Background(), "text", "broken.pdf")

			require.NotNil(t, record)
			assert.True(t, record.Degraded)
			assert.Equal(t, "broken.pdf", record.SourceName)
			assert.Equal(t, models.Expense, record.Classification)
			assert.Equal(t, "processing error", record.PartyName)
			assert.Contains(t, record.Notes, "Error:")
			assert.Equal(t, 3, client.calls, "should exhaust retries before degrading")

			for _, amount := range []*float64{
				record.TaxBase, record.VATAmount, record.VATRate,
				record.WithholdingAmount, record.WithholdingRate, record.Total,
			} {
				require.NotNil(t, amount)
				assert.Zero(t, *amount)
			}
		})
	}
}

func TestBuildPromptContainsSchemaAndText(t *testing.T) {
	prompt := buildPrompt("Factura Nº 42\nTotal: 121,00 €")

	assert.Contains(t, prompt, `"proveedor_cliente"`)
	assert.Contains(t, prompt, `"tipo"`)
	assert.Contains(t, prompt, "YYYY-MM-DD")
	assert.Contains(t, prompt, "Factura Nº 42")
}
