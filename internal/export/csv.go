// Package export renders processed invoice records for the presentation
// boundary: a CSV file, a terminal table, and a financial summary block.
// Numeric values are formatted to two decimal places only here; the
// aggregation itself keeps full precision.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"facturas/pkg/models"
)

// Columns of the CSV export, in order.
var Columns = []string{
	"File", "Invoice No.", "Date", "Party", "Type",
	"Tax Base (€)", "VAT (€)", "Withholding (€)", "Total (€)", "Concepts",
}

// WriteCSV writes all records as CSV with a header row.
func WriteCSV(w io.Writer, records []*models.InvoiceRecord) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(Columns); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, r := range records {
		if err := writer.Write(recordRow(r)); err != nil {
			return fmt.Errorf("failed to write CSV row for %s: %w", r.SourceName, err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("failed to flush CSV output: %w", err)
	}
	return nil
}

// DefaultCSVName returns the timestamped default export file name.
func DefaultCSVName(now time.Time) string {
	return fmt.Sprintf("resumen_facturas_%s.csv", now.Format("20060102_150405"))
}

// recordRow renders one record with amounts as two-decimal text.
func recordRow(r *models.InvoiceRecord) []string {
	date := ""
	if r.Date != nil {
		date = r.Date.String()
	}

	return []string{
		r.SourceName,
		r.InvoiceNumber,
		date,
		r.PartyName,
		string(r.Classification),
		formatAmount(r.TaxBase),
		formatAmount(r.VATAmount),
		formatAmount(r.WithholdingAmount),
		formatAmount(r.Total),
		r.Concepts,
	}
}

func formatAmount(v *float64) string {
	if v == nil {
		return "0.00"
	}
	return fmt.Sprintf("%.2f", *v)
}
