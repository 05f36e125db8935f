package export

import (
	"fmt"
	"io"

	"github.com/olekukonko/tablewriter"

	"facturas/pkg/models"
)

// RenderTable writes the processed records as a terminal table.
func RenderTable(w io.Writer, records []*models.InvoiceRecord) {
	table := tablewriter.NewWriter(w)
	table.SetHeader(Columns)
	table.SetAutoWrapText(false)
	table.SetAlignment(tablewriter.ALIGN_LEFT)

	for _, r := range records {
		table.Append(recordRow(r))
	}

	table.Render()
}

// RenderSummary writes the financial summary block, the CLI counterpart
// of the original dashboard tiles. IRPF lines only appear when a
// withholding amount was actually recorded.
func RenderSummary(w io.Writer, s models.FinancialSummary) {
	fmt.Fprintln(w, "Resumen Financiero General")
	fmt.Fprintln(w, "--------------------------")
	fmt.Fprintf(w, "Total Ingresos:      %10.2f €  (%d facturas)\n", s.TotalIncome, s.IncomeCount)
	fmt.Fprintf(w, "Total Gastos:        %10.2f €  (%d facturas)\n", s.TotalExpense, s.ExpenseCount)
	fmt.Fprintf(w, "Beneficio/Pérdida:   %10.2f €\n", s.NetResult)
	fmt.Fprintln(w)
	fmt.Fprintf(w, "IVA Repercutido:     %10.2f €\n", s.VATCollected)
	fmt.Fprintf(w, "IVA Soportado:       %10.2f €\n", s.VATPaid)
	fmt.Fprintf(w, "Balance IVA:         %10.2f €  (%s)\n", s.VATBalance, vatVerdict(s.VATBalance))

	if s.WithholdingOnIncome != 0 || s.WithholdingOnExpense != 0 {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "IRPF Retenido (ingresos): %10.2f €\n", s.WithholdingOnIncome)
		fmt.Fprintf(w, "IRPF en Gastos:           %10.2f €\n", s.WithholdingOnExpense)
	}
}

func vatVerdict(balance float64) string {
	switch {
	case balance > 0:
		return "a ingresar"
	case balance < 0:
		return "a compensar"
	default:
		return "neutro"
	}
}
