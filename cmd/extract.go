package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"facturas/internal/logger"
	"facturas/pkg/models"
)

var extractCmd = &cobra.Command{
	Use:   "extract [pdf-file]",
	Short: "Extract structured data from a single invoice PDF as JSON",
	Long: `Process one PDF invoice and print the structured record as JSON:
invoice number, date, counter-party, income/expense classification, tax
base, VAT, withholding and total.

When field extraction fails the command still succeeds and emits a
degraded placeholder record with the error in its notes, matching the
batch behavior of the process command.`,
	Example: `  # Extract invoice data to stdout
  facturas extract factura.pdf

  # Save extracted data to a JSON file
  facturas extract factura.pdf -o factura.json`,
	Args: cobra.ExactArgs(1),
	RunE: runExtract,
}

// extractOutput is the JSON envelope for a single extraction.
type extractOutput struct {
	Record   *models.InvoiceRecord `json:"record"`
	Metadata extractMetadata       `json:"metadata"`
}

type extractMetadata struct {
	FileName           string        `json:"file_name"`
	FileSize           int64         `json:"file_size_bytes"`
	ProcessedAt        time.Time     `json:"processed_at"`
	ProcessingDuration time.Duration `json:"processing_duration"`
}

func init() {
	rootCmd.AddCommand(extractCmd)

	extractCmd.Flags().StringP("output", "o", "", "Output file path (default: stdout)")
	extractCmd.Flags().Int("timeout", 120, "Processing timeout in seconds")
}

func runExtract(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("extract")

	outputPath, _ := cmd.Flags().GetString("output")
	timeoutSecs, _ := cmd.Flags().GetInt("timeout")

	pdfPath := args[0]

	fileInfo, err := validatePDFPath(pdfPath, log)
	if err != nil {
		return err
	}

	ctx, cancel := batchContext(timeoutSecs)
	defer cancel()

	processor, closePipeline, err := newPipeline(ctx, log)
	if err != nil {
		return err
	}
	defer closePipeline()

	startTime := time.Now()

	record, err := processFile(ctx, processor, pdfPath)
	if err != nil {
		return fmt.Errorf("could not extract text from %s: %w", filepath.Base(pdfPath), err)
	}

	output := extractOutput{
		Record: record,
		Metadata: extractMetadata{
			FileName:           filepath.Base(fileInfo.Name()),
			FileSize:           fileInfo.Size(),
			ProcessedAt:        time.Now(),
			ProcessingDuration: time.Since(startTime),
		},
	}

	log.Info().
		Str("file", record.SourceName).
		Str("tipo", string(record.Classification)).
		Bool("degraded", record.Degraded).
		Dur("duration", output.Metadata.ProcessingDuration).
		Msg("Extraction completed")

	return outputExtractResults(output, outputPath, log)
}

// validatePDFPath checks the PDF file before processing.
func validatePDFPath(pdfPath string, log zerolog.Logger) (os.FileInfo, error) {
	fileInfo, err := os.Stat(pdfPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("PDF file not found: %s", pdfPath)
		}
		if os.IsPermission(err) {
			return nil, fmt.Errorf("permission denied accessing PDF file: %s", pdfPath)
		}
		return nil, fmt.Errorf("error accessing PDF file: %w", err)
	}

	if !fileInfo.Mode().IsRegular() {
		return nil, fmt.Errorf("path is not a regular file: %s", pdfPath)
	}

	if !strings.HasSuffix(strings.ToLower(pdfPath), ".pdf") {
		log.Warn().
			Str("file", pdfPath).
			Msg("File does not have .pdf extension")
	}

	if fileInfo.Size() == 0 {
		return nil, fmt.Errorf("PDF file is empty: %s", pdfPath)
	}

	return fileInfo, nil
}

// outputExtractResults writes the result as indented JSON.
func outputExtractResults(output extractOutput, outputPath string, log zerolog.Logger) error {
	jsonData, err := json.MarshalIndent(output, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to create JSON output: %w", err)
	}

	if outputPath != "" {
		if err := os.WriteFile(outputPath, jsonData, 0644); err != nil {
			return fmt.Errorf("failed to write output file: %w", err)
		}
		log.Info().
			Str("output_file", outputPath).
			Int("bytes", len(jsonData)).
			Msg("Invoice data written to file")
		return nil
	}

	if _, err := os.Stdout.Write(jsonData); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	fmt.Println()
	return nil
}
