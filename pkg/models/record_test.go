package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseClassification(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want Classification
	}{
		{name: "ingreso", raw: "ingreso", want: Income},
		{name: "uppercase ingreso", raw: "INGRESO", want: Income},
		{name: "english income", raw: "income", want: Income},
		{name: "padded ingreso", raw: "  ingreso  ", want: Income},
		{name: "gasto", raw: "gasto", want: Expense},
		{name: "empty defaults to expense", raw: "", want: Expense},
		{name: "unknown defaults to expense", raw: "transferencia", want: Expense},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseClassification(tt.raw))
		})
	}
}

func TestParseDate(t *testing.T) {
	date, err := ParseDate("2024-03-15")
	require.NoError(t, err)
	assert.Equal(t, "2024-03-15", date.String())

	_, err = ParseDate("15/03/2024")
	assert.Error(t, err)

	_, err = ParseDate("not a date")
	assert.Error(t, err)
}

func TestDateJSONRoundTrip(t *testing.T) {
	date, err := ParseDate("2024-03-15")
	require.NoError(t, err)

	data, err := json.Marshal(date)
	require.NoError(t, err)
	assert.Equal(t, `"2024-03-15"`, string(data))

	var decoded Date
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, date.String(), decoded.String())
}

func TestDateUnmarshalNull(t *testing.T) {
	var date Date
	require.NoError(t, json.Unmarshal([]byte(`null`), &date))
	assert.True(t, date.IsZero())
}

func TestInvoiceRecordOmitsAbsentDate(t *testing.T) {
	record := InvoiceRecord{
		SourceName:     "factura.pdf",
		Classification: Expense,
	}

	data, err := json.Marshal(record)
	require.NoError(t, err)

	assert.NotContains(t, string(data), `"date"`)
	assert.Contains(t, string(data), `"tipo":"gasto"`)
}
