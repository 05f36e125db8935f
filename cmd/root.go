package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"facturas/internal/logger"
)

var version = "1.0.0"

var rootCmd = &cobra.Command{
	Use:   "facturas",
	Short: "Analiza facturas PDF y genera resúmenes financieros",
	Long: `facturas turns invoice PDFs into structured financial records and an
aggregated income/expense summary: tax base, VAT, withholding (IRPF) and
net result, without manual data entry.

Text is read from the PDF text layer first, with an OCR fallback for
scanned documents; the structured fields are extracted by an OpenAI
model and aggregated into a financial summary.`,
	Version: version,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("Use --help to see available commands and options.")
	},
}

func Execute() {
	log := logger.WithComponent("cmd")

	if err := rootCmd.Execute(); err != nil {
		log.Error().
			Err(err).
			Msg("Command execution failed")
		fmt.Fprintf(os.Stderr, "Error executing command: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.Flags().BoolP("version", "v", false, "Print version information")
}
