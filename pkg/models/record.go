package models

import (
	"fmt"
	"strings"
	"time"
)

// Classification marks an invoice as money coming in or going out.
type Classification string

const (
	// Income is an invoice issued by the operator (factura emitida).
	Income Classification = "ingreso"

	// Expense is an invoice received from a supplier (factura recibida).
	Expense Classification = "gasto"
)

// ParseClassification normalizes a raw classification value. Anything that
// is not recognizably income falls back to expense, so a record never ends
// up unclassified.
func ParseClassification(raw string) Classification {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "ingreso", "income":
		return Income
	default:
		return Expense
	}
}

// Date is a calendar date without a time component. It marshals as
// YYYY-MM-DD, the format the extraction service is instructed to return.
type Date struct {
	time.Time
}

const dateLayout = "2006-01-02"

// ParseDate parses a YYYY-MM-DD string into a Date.
func ParseDate(value string) (Date, error) {
	t, err := time.Parse(dateLayout, value)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: %w", value, err)
	}
	return Date{Time: t}, nil
}

// String returns the date in YYYY-MM-DD format.
func (d Date) String() string {
	return d.Format(dateLayout)
}

// MarshalJSON renders the date as a YYYY-MM-DD string.
func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.Format(dateLayout) + `"`), nil
}

// UnmarshalJSON accepts a YYYY-MM-DD string or null.
func (d *Date) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// InvoiceRecord is one structured invoice produced by the extraction
// pipeline. Numeric fields are pointers so that a value absent from the
// invoice stays distinguishable from a genuine zero until aggregation
// coerces it.
type InvoiceRecord struct {
	// SourceName identifies the originating file. Always present.
	SourceName string `json:"source_name"`

	InvoiceNumber string `json:"invoice_number,omitempty"`
	Date          *Date  `json:"date,omitempty"`

	// PartyName is the counter-party: the customer on income invoices,
	// the supplier on expense invoices.
	PartyName string `json:"proveedor_cliente"`

	// Classification is never empty; unknown values default to Expense.
	Classification Classification `json:"tipo"`

	TaxBase           *float64 `json:"tax_base"`
	VATAmount         *float64 `json:"vat_amount"`
	VATRate           *float64 `json:"vat_rate"`
	WithholdingAmount *float64 `json:"withholding_amount"`
	WithholdingRate   *float64 `json:"withholding_rate"`
	Total             *float64 `json:"total"`

	// Concepts is a free-text description of the billed goods/services.
	Concepts string `json:"concepts"`

	// Notes carries additional remarks; on degraded records it holds the
	// error description.
	Notes string `json:"notes"`

	// Degraded marks placeholder records produced when structured
	// extraction failed. Their zeroed amounts still flow into the
	// summary, but consumers can filter or highlight them.
	Degraded bool `json:"degraded"`
}

// FinancialSummary aggregates a set of invoice records. It is recomputed
// from scratch on every aggregation and never persisted on its own.
type FinancialSummary struct {
	TotalIncome  float64 `json:"total_income"`
	TotalExpense float64 `json:"total_expense"`
	NetResult    float64 `json:"net_result"`

	// VATCollected is VAT charged on income invoices (IVA repercutido);
	// VATPaid is VAT on expense invoices (IVA soportado). A positive
	// balance is payable to the tax agency, a negative one reclaimable.
	VATCollected float64 `json:"vat_collected"`
	VATPaid      float64 `json:"vat_paid"`
	VATBalance   float64 `json:"vat_balance"`

	WithholdingOnIncome  float64 `json:"withholding_on_income"`
	WithholdingOnExpense float64 `json:"withholding_on_expense"`

	IncomeCount  int `json:"income_count"`
	ExpenseCount int `json:"expense_count"`
}
