package invoice

import (
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"facturas/pkg/models"
)

// responseSchema is the contract the language-model service must honor:
// one JSON object, every key present, numerics as numbers or null. The
// classification key stays an open string so that unexpected values can
// still default to expense instead of failing the record.
const responseSchema = `{
	"type": "object",
	"required": [
		"invoice_number", "date", "proveedor_cliente", "tipo",
		"tax_base", "vat_amount", "vat_rate",
		"withholding_amount", "withholding_rate", "total",
		"concepts", "notes"
	],
	"properties": {
		"invoice_number":     {"type": ["string", "null"]},
		"date":               {"type": ["string", "null"]},
		"proveedor_cliente":  {"type": ["string", "null"]},
		"tipo":               {"type": ["string", "null"]},
		"tax_base":           {"type": ["number", "null"]},
		"vat_amount":         {"type": ["number", "null"]},
		"vat_rate":           {"type": ["number", "null"]},
		"withholding_amount": {"type": ["number", "null"]},
		"withholding_rate":   {"type": ["number", "null"]},
		"total":              {"type": ["number", "null"]},
		"concepts":           {"type": ["string", "null"]},
		"notes":              {"type": ["string", "null"]}
	}
}`

var compiledSchema = jsonschema.MustCompileString("invoice-response.json", responseSchema)

// wireRecord mirrors the JSON object the service returns.
type wireRecord struct {
	InvoiceNumber     string   `json:"invoice_number"`
	Date              string   `json:"date"`
	PartyName         string   `json:"proveedor_cliente"`
	Tipo              string   `json:"tipo"`
	TaxBase           *float64 `json:"tax_base"`
	VATAmount         *float64 `json:"vat_amount"`
	VATRate           *float64 `json:"vat_rate"`
	WithholdingAmount *float64 `json:"withholding_amount"`
	WithholdingRate   *float64 `json:"withholding_rate"`
	Total             *float64 `json:"total"`
	Concepts          string   `json:"concepts"`
	Notes             string   `json:"notes"`
}

// decodeResponse validates the raw response body against the schema and
// decodes it into a wireRecord.
func decodeResponse(body []byte) (*wireRecord, error) {
	var v any
	if err := json.Unmarshal(body, &v); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	if err := compiledSchema.Validate(v); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSchemaViolation, err)
	}

	var record wireRecord
	if err := json.Unmarshal(body, &record); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	return &record, nil
}

// toRecord converts a validated wire object into the domain record.
// Unparsable dates are dropped rather than failing the record.
func (w *wireRecord) toRecord(sourceName string) *models.InvoiceRecord {
	record := &models.InvoiceRecord{
		SourceName:        sourceName,
		InvoiceNumber:     w.InvoiceNumber,
		PartyName:         w.PartyName,
		Classification:    models.ParseClassification(w.Tipo),
		TaxBase:           w.TaxBase,
		VATAmount:         w.VATAmount,
		VATRate:           w.VATRate,
		WithholdingAmount: w.WithholdingAmount,
		WithholdingRate:   w.WithholdingRate,
		Total:             w.Total,
		Concepts:          w.Concepts,
		Notes:             w.Notes,
	}

	if w.Date != "" {
		if date, err := models.ParseDate(w.Date); err == nil {
			record.Date = &date
		}
	}

	return record
}
