package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/sashabaranov/go-openai"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"facturas/internal/config"
	"facturas/internal/export"
	"facturas/internal/invoice"
	"facturas/internal/logger"
	"facturas/internal/pdftext"
	"facturas/internal/summary"
	"facturas/pkg/models"
)

var processCmd = &cobra.Command{
	Use:   "process [pdf-files-or-directories...]",
	Short: "Process invoice PDFs and print the financial summary",
	Long: `Process one or more invoice PDFs sequentially: extract text (text layer
first, OCR fallback for scans), extract structured fields with the
language model, and aggregate everything into a financial summary with
VAT and withholding balances.

Files whose text cannot be extracted are skipped and reported; files
whose field extraction fails produce a clearly marked placeholder record
so the rest of the batch still completes.

Required environment variables:
  OPENAI_API_KEY - OpenAI API key for field extraction

Optional (OCR fallback for scanned invoices):
  GOOGLE_APPLICATION_CREDENTIALS or GOOGLE_CREDENTIALS
  OCR_BACKEND - "vision" (default) or "documentai"`,
	Example: `  # Process a folder of invoices
  facturas process ./facturas-2024/

  # Process specific files and export CSV
  facturas process f1.pdf f2.pdf --csv resumen.csv

  # CSV with a timestamped default name, plus raw JSON
  facturas process ./facturas/ --csv --json records.json`,
	Args: cobra.MinimumNArgs(1),
	RunE: runProcess,
}

// processOutput is the JSON structure written by --json.
type processOutput struct {
	Records  []*models.InvoiceRecord `json:"records"`
	Summary  models.FinancialSummary `json:"summary"`
	Skipped  []string                `json:"skipped,omitempty"`
	Metadata batchMetadata           `json:"metadata"`
}

type batchMetadata struct {
	FileCount          int           `json:"file_count"`
	ProcessedCount     int           `json:"processed_count"`
	SkippedCount       int           `json:"skipped_count"`
	DegradedCount      int           `json:"degraded_count"`
	ProcessedAt        time.Time     `json:"processed_at"`
	ProcessingDuration time.Duration `json:"processing_duration"`
}

func init() {
	rootCmd.AddCommand(processCmd)

	processCmd.Flags().String("csv", "", "Export records to a CSV file (no value: timestamped default name)")
	processCmd.Flags().Lookup("csv").NoOptDefVal = "auto"
	processCmd.Flags().String("json", "", "Write records and summary as JSON to this file")
	processCmd.Flags().Int("timeout", 0, "Overall batch timeout in seconds (0 = none)")
	processCmd.Flags().Bool("no-progress", false, "Disable the progress bar")
}

func runProcess(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("process")

	csvPath, _ := cmd.Flags().GetString("csv")
	jsonPath, _ := cmd.Flags().GetString("json")
	timeoutSecs, _ := cmd.Flags().GetInt("timeout")
	noProgress, _ := cmd.Flags().GetBool("no-progress")

	files, err := collectPDFs(args)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no PDF files found in %s", strings.Join(args, ", "))
	}

	log.Info().
		Int("files", len(files)).
		Msg("Starting invoice batch")

	ctx, cancel := batchContext(timeoutSecs)
	defer cancel()

	processor, closePipeline, err := newPipeline(ctx, log)
	if err != nil {
		return err
	}
	defer closePipeline()

	startTime := time.Now()

	var bar *progressbar.ProgressBar
	if !noProgress {
		bar = progressbar.NewOptions(len(files),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionShowCount(),
			progressbar.OptionSetWidth(40),
			progressbar.OptionSetDescription("Procesando facturas..."),
		)
	}

	// Sequential by design: one file fully completes (extraction, then
	// LLM call) before the next begins.
	var records []*models.InvoiceRecord
	var skipped []string

	for _, path := range files {
		record, err := processFile(ctx, processor, path)
		if bar != nil {
			_ = bar.Add(1)
		}

		if err != nil {
			skipped = append(skipped, filepath.Base(path))
			log.Warn().
				Err(err).
				Str("file", filepath.Base(path)).
				Msg("File skipped")
			continue
		}

		records = append(records, record)
		log.Info().
			Str("file", record.SourceName).
			Str("tipo", string(record.Classification)).
			Bool("degraded", record.Degraded).
			Msg("File processed")
	}

	if bar != nil {
		fmt.Fprintln(os.Stderr)
	}

	summary.Coerce(records)
	financial := summary.Summarize(records)

	fmt.Println()
	export.RenderSummary(os.Stdout, financial)
	fmt.Println()
	export.RenderTable(os.Stdout, records)

	if len(skipped) > 0 {
		fmt.Printf("\nArchivos omitidos (sin texto extraíble): %s\n", strings.Join(skipped, ", "))
	}

	if csvPath != "" {
		target := csvPath
		if target == "auto" {
			target = export.DefaultCSVName(time.Now())
		}
		if err := writeCSVFile(target, records, log); err != nil {
			return err
		}
		fmt.Printf("\nResumen exportado a %s\n", target)
	}

	if jsonPath != "" {
		output := processOutput{
			Records: records,
			Summary: financial,
			Skipped: skipped,
			Metadata: batchMetadata{
				FileCount:          len(files),
				ProcessedCount:     len(records),
				SkippedCount:       len(skipped),
				DegradedCount:      countDegraded(records),
				ProcessedAt:        time.Now(),
				ProcessingDuration: time.Since(startTime),
			},
		}
		if err := writeJSONFile(jsonPath, output, log); err != nil {
			return err
		}
	}

	log.Info().
		Int("processed", len(records)).
		Int("skipped", len(skipped)).
		Int("degraded", countDegraded(records)).
		Dur("duration", time.Since(startTime)).
		Msg("Batch completed")

	return nil
}

// processFile runs the pipeline for a single PDF.
func processFile(ctx context.Context, processor *invoice.Processor, path string) (*models.InvoiceRecord, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer file.Close()

	return processor.Process(ctx, filepath.Base(path), file)
}

// newPipeline assembles text extraction and field extraction from the
// environment configuration. A missing OCR backend downgrades to
// text-layer-only extraction with a warning instead of failing the batch.
func newPipeline(ctx context.Context, log zerolog.Logger) (*invoice.Processor, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}

	openaiClient := openai.NewClient(cfg.OpenAIAPIKey)
	fields := invoice.NewOpenAIFieldExtractor(openaiClient, invoice.ExtractorConfig{
		Model:          cfg.OpenAIModel,
		Temperature:    cfg.OpenAITemperature,
		MaxRetries:     cfg.MaxRetries,
		RequestTimeout: time.Duration(cfg.RequestTimeoutSec) * time.Second,
	})

	primary := pdftext.NewNativeExtractor()

	var secondary pdftext.Extractor
	closeSecondary := func() {}

	switch cfg.OCRBackend {
	case config.OCRBackendDocumentAI:
		extractor, err := pdftext.NewDocumentAIExtractor(ctx, pdftext.DocumentAIConfig{
			ProjectID:   cfg.GoogleCloudProject,
			Location:    cfg.GoogleCloudLocation,
			ProcessorID: cfg.DocumentAIProcessorID,
		})
		if err != nil {
			log.Warn().Err(err).Msg("Document AI OCR unavailable, continuing with text layer only")
		} else {
			secondary = extractor
			closeSecondary = func() { _ = extractor.Close() }
		}
	default:
		extractor, err := pdftext.NewVisionExtractor(ctx)
		if err != nil {
			log.Warn().Err(err).Msg("Vision OCR unavailable, continuing with text layer only")
		} else {
			secondary = extractor
			closeSecondary = func() { _ = extractor.Close() }
		}
	}

	processor := invoice.NewProcessor(pdftext.NewFallbackExtractor(primary, secondary), fields)
	return processor, closeSecondary, nil
}

// collectPDFs expands arguments into a sorted list of PDF paths.
// Directories are walked recursively.
func collectPDFs(args []string) ([]string, error) {
	var files []string

	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("cannot access %s: %w", arg, err)
		}

		if info.IsDir() {
			err := filepath.WalkDir(arg, func(path string, d fs.DirEntry, err error) error {
				if err != nil {
					return err
				}
				if !d.IsDir() && strings.EqualFold(filepath.Ext(path), ".pdf") {
					files = append(files, path)
				}
				return nil
			})
			if err != nil {
				return nil, fmt.Errorf("failed to walk %s: %w", arg, err)
			}
			continue
		}

		files = append(files, arg)
	}

	sort.Strings(files)
	return files, nil
}

// batchContext creates a context with optional timeout and signal handling.
func batchContext(timeoutSecs int) (context.Context, context.CancelFunc) {
	ctx := context.Background()
	cancel := func() {}
	if timeoutSecs > 0 {
		ctx, cancel = context.WithTimeout(ctx, time.Duration(timeoutSecs)*time.Second)
	}

	sigCtx, sigCancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)

	return sigCtx, func() {
		sigCancel()
		cancel()
	}
}

func countDegraded(records []*models.InvoiceRecord) int {
	n := 0
	for _, r := range records {
		if r.Degraded {
			n++
		}
	}
	return n
}

func writeCSVFile(path string, records []*models.InvoiceRecord, log zerolog.Logger) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %w", err)
	}
	defer file.Close()

	if err := export.WriteCSV(file, records); err != nil {
		return err
	}

	log.Info().
		Str("file", path).
		Int("records", len(records)).
		Msg("CSV export written")
	return nil
}

func writeJSONFile(path string, output processOutput, log zerolog.Logger) error {
	data, err := json.MarshalIndent(output, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to create JSON output: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write JSON file: %w", err)
	}

	log.Info().
		Str("file", path).
		Int("bytes", len(data)).
		Msg("JSON output written")
	return nil
}
