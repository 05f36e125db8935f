// Package summary aggregates invoice records into a financial summary:
// income/expense totals, net result, and VAT/withholding balances.
//
// Aggregation is a pure function of the record multiset. It is
// recomputed from scratch on every call, never updated incrementally,
// and the result does not depend on record order.
package summary

import "facturas/pkg/models"

// Coerce replaces absent numeric fields with explicit zeros, in place.
// This is the single point where absent-vs-zero semantics collapse, and
// only for arithmetic purposes; running it twice is a no-op.
func Coerce(records []*models.InvoiceRecord) {
	zero := 0.0
	for _, r := range records {
		if r.TaxBase == nil {
			v := zero
			r.TaxBase = &v
		}
		if r.VATAmount == nil {
			v := zero
			r.VATAmount = &v
		}
		if r.VATRate == nil {
			v := zero
			r.VATRate = &v
		}
		if r.WithholdingAmount == nil {
			v := zero
			r.WithholdingAmount = &v
		}
		if r.WithholdingRate == nil {
			v := zero
			r.WithholdingRate = &v
		}
		if r.Total == nil {
			v := zero
			r.Total = &v
		}
	}
}

// Summarize partitions records by classification and computes the
// financial summary. Absent amounts count as zero whether or not Coerce
// ran first. No rounding is applied; display formatting rounds to two
// decimals at the edge.
func Summarize(records []*models.InvoiceRecord) models.FinancialSummary {
	var s models.FinancialSummary

	for _, r := range records {
		switch r.Classification {
		case models.Income:
			s.IncomeCount++
			s.TotalIncome += amount(r.Total)
			s.VATCollected += amount(r.VATAmount)
			s.WithholdingOnIncome += amount(r.WithholdingAmount)
		default:
			s.ExpenseCount++
			s.TotalExpense += amount(r.Total)
			s.VATPaid += amount(r.VATAmount)
			s.WithholdingOnExpense += amount(r.WithholdingAmount)
		}
	}

	s.NetResult = s.TotalIncome - s.TotalExpense
	s.VATBalance = s.VATCollected - s.VATPaid

	return s
}

func amount(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
