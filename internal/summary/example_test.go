package summary_test

import (
	"fmt"

	"facturas/internal/summary"
	"facturas/pkg/models"
)

// Example demonstrates aggregating processed invoice records.
func Example() {
	amount := func(v float64) *float64 { return &v }

	records := []*models.InvoiceRecord{
		{
			SourceName:     "factura-emitida.pdf",
			Classification: models.Income,
			TaxBase:        amount(100.00),
			VATAmount:      amount(21.00),
			Total:          amount(121.00),
		},
		{
			SourceName:     "factura-recibida.pdf",
			Classification: models.Expense,
			TaxBase:        amount(50.00),
			VATAmount:      amount(10.50),
			Total:          amount(60.50),
		},
	}

	summary.Coerce(records)
	s := summary.Summarize(records)

	fmt.Printf("Beneficio: %.2f €\n", s.NetResult)
	fmt.Printf("Balance IVA: %.2f €\n", s.VATBalance)

	// Output:
	// Beneficio: 60.50 €
	// Balance IVA: 10.50 €
}
