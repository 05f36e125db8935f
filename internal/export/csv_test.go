package export

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"facturas/pkg/models"
)

func ptr(v float64) *float64 { return &v }

func TestWriteCSV(t *testing.T) {
	date, err := models.ParseDate("2024-03-15")
	require.NoError(t, err)

	records := []*models.InvoiceRecord{
		{
			SourceName:        "factura.pdf",
			InvoiceNumber:     "2024-001",
			Date:              &date,
			PartyName:         "Cliente Ejemplo SL",
			Classification:    models.Income,
			TaxBase:           ptr(100),
			VATAmount:         ptr(21),
			WithholdingAmount: ptr(15),
			Total:             ptr(106),
			Concepts:          "Consultoría, fase 1",
		},
		{
			SourceName:     "degradada.pdf",
			PartyName:      "processing error",
			Classification: models.Expense,
			Degraded:       true,
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, records))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, Columns, rows[0])
	assert.Equal(t, []string{
		"factura.pdf", "2024-001", "2024-03-15", "Cliente Ejemplo SL", "ingreso",
		"100.00", "21.00", "15.00", "106.00", "Consultoría, fase 1",
	}, rows[1])

	// Absent amounts render as explicit zeros, dates as empty text.
	assert.Equal(t, []string{
		"degradada.pdf", "", "", "processing error", "gasto",
		"0.00", "0.00", "0.00", "0.00", "",
	}, rows[2])
}

func TestDefaultCSVName(t *testing.T) {
	now := time.Date(2024, 3, 15, 9, 30, 0, 0, time.UTC)
	assert.Equal(t, "resumen_facturas_20240315_093000.csv", DefaultCSVName(now))
}

func TestRenderSummary(t *testing.T) {
	var buf bytes.Buffer
	RenderSummary(&buf, models.FinancialSummary{
		TotalIncome:  121.00,
		TotalExpense: 60.50,
		NetResult:    60.50,
		VATCollected: 21.00,
		VATPaid:      10.50,
		VATBalance:   10.50,
		IncomeCount:  1,
		ExpenseCount: 1,
	})

	out := buf.String()
	assert.Contains(t, out, "121.00")
	assert.Contains(t, out, "60.50")
	assert.Contains(t, out, "a ingresar")
	assert.NotContains(t, out, "IRPF", "withholding block hidden when zero")
}

func TestRenderSummaryShowsWithholding(t *testing.T) {
	var buf bytes.Buffer
	RenderSummary(&buf, models.FinancialSummary{WithholdingOnIncome: 150})

	assert.Contains(t, buf.String(), "IRPF Retenido")
}

func TestRenderTableIncludesAllRecords(t *testing.T) {
	var buf bytes.Buffer
	RenderTable(&buf, []*models.InvoiceRecord{
		{SourceName: "a.pdf", Classification: models.Income, Total: ptr(121)},
		{SourceName: "b.pdf", Classification: models.Expense, Total: ptr(60.5)},
	})

	out := buf.String()
	assert.Contains(t, out, "a.pdf")
	assert.Contains(t, out, "b.pdf")
	assert.True(t, strings.Contains(out, "121.00"))
}
