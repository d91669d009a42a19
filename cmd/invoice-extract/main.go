package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"

	"github.com/Dregen-Yor/auto-invoice/internal/common"
	"github.com/Dregen-Yor/auto-invoice/internal/docscan"
	"github.com/Dregen-Yor/auto-invoice/internal/entity"
	"github.com/Dregen-Yor/auto-invoice/internal/export"
	"github.com/Dregen-Yor/auto-invoice/internal/ingest"
	"github.com/Dregen-Yor/auto-invoice/internal/llm"
	"github.com/Dregen-Yor/auto-invoice/internal/pipeline"
	"github.com/Dregen-Yor/auto-invoice/internal/state"
)

// invoice-extract processes a directory of receipt files without the HTTP
// server: ingest, extract, then write the detail workbook. State is kept in
// a throwaway database unless --state points at a persistent one.
func main() {
	cfg := common.LoadConfig()

	fs := ff.NewFlagSet("invoice-extract")
	var (
		dir       = fs.StringLong("dir", "", "directory of invoice files to process (required)")
		out       = fs.StringLong("out", "", "output XLSX path (default: next to --dir)")
		statePath = fs.StringLong("state", "", "state database file (default: throwaway)")
		name      = fs.StringLong("name", "Local Batch", "claimant name for the batch records")
		number    = fs.StringLong("number", "", "claimant employee or student number")
		baseURL   = fs.StringLong("base-url", cfg.LLM.BaseURL, "structuring service base URL")
		apiKey    = fs.StringLong("api-key", cfg.LLM.APIKey, "structuring service API key")
		model     = fs.StringLong("model", cfg.LLM.Model, "structuring service model name")
		strict    = fs.BoolLong("strict", "validate extracted JSON against the invoice schema")
		logLevel  = fs.StringLong("log-level", "info", "log level: debug, info, warn or error")
		logFormat = fs.StringLong("log-format", "text", "log format: text or json")
	)
	if err := ff.Parse(fs, os.Args[1:], ff.WithEnvVarPrefix("INVOICED")); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", ffhelp.Flags(fs))
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	logger := common.SetupLogger(*logLevel, *logFormat)

	if *dir == "" {
		fmt.Fprintln(os.Stderr, "error: --dir is required")
		os.Exit(1)
	}
	if *out == "" {
		*out = filepath.Join(filepath.Dir(*dir), export.DefaultDetailFilename)
	}

	svcCfg := entity.ServiceConfig{BaseURL: *baseURL, APIKey: *apiKey, Model: *model}
	if !svcCfg.Complete() {
		fmt.Fprintln(os.Stderr, "error: service configuration is incomplete; set --base-url, --api-key and --model or the LLM_* environment variables")
		os.Exit(1)
	}

	dbPath := *statePath
	if dbPath == "" {
		dbPath = filepath.Join(os.TempDir(), fmt.Sprintf("invoice-extract-%s.db", uuid.New().String()[:8]))
		defer func() { _ = os.Remove(dbPath) }()
	}

	st, err := state.Open(dbPath, logger)
	if err != nil {
		logger.Error("failed to open state store", "path", dbPath, "error", err)
		os.Exit(1)
	}
	defer func() { _ = st.Close() }()

	if err := st.SetServiceConfig(svcCfg); err != nil {
		logger.Error("failed to save service configuration", "error", err)
		os.Exit(1)
	}

	person, err := st.CreatePerson(*name, *number)
	if err != nil {
		logger.Error("failed to create claimant", "error", err)
		os.Exit(1)
	}
	logger.Info("using claimant", "id", person.ID, "name", person.Name)

	ingestor := ingest.New(st, logger)
	logger.Info("starting ingestion", "dir", *dir)
	results, stats, err := ingestor.Directory(person.ID, *dir, true)
	if err != nil {
		logger.Error("failed to ingest directory", "error", err)
		os.Exit(1)
	}
	logger.Info("ingestion complete",
		"scanned", stats.Scanned,
		"matched", stats.Matched,
		"succeeded", stats.Succeeded,
		"failed", stats.Failed,
		"deduplicated", stats.Deduplicated)

	scanner := docscan.NewScanner(docscan.Config{
		Tesseract:     cfg.OCR.TesseractPath,
		TesseractLang: cfg.OCR.Languages,
		TessdataDir:   cfg.OCR.TessdataDir,
	}, logger)
	client := llm.NewClient(cfg.LLM.Timeout, logger)
	pipe := pipeline.New(st, scanner, client, logger)

	ctx := context.Background()
	processed := 0
	failures := 0
	invalid := 0

	for _, res := range results {
		if res.Err != "" || res.Deduplicated {
			continue
		}
		logger.Info("processing file", "path", res.Path, "invoice_id", res.InvoiceID)
		if err := pipe.Process(ctx, person.ID, res.InvoiceID); err != nil {
			logger.Error("failed to process file", "path", res.Path, "error", err)
			failures++
			continue
		}
		processed++

		inv, ok := st.GetInvoice(person.ID, res.InvoiceID)
		if !ok {
			continue
		}
		amount := "unknown"
		if inv.Amount != nil {
			amount = fmt.Sprintf("%.2f", *inv.Amount)
		}
		logger.Info("extracted fields",
			"path", res.Path,
			"category", string(inv.Category),
			"amount", amount,
			"date", inv.Date)

		if *strict {
			if err := llm.ValidateInvoiceJSON([]byte(inv.RawText)); err != nil {
				logger.Warn("schema validation failed", "path", res.Path, "error", err)
				invalid++
			}
		}
	}

	workbook, err := export.NewService(st, logger).DetailWorkbook()
	if err != nil {
		logger.Error("failed to build workbook", "error", err)
		os.Exit(1)
	}
	if err := os.WriteFile(*out, workbook, 0o644); err != nil {
		logger.Error("failed to write output file", "path", *out, "error", err)
		os.Exit(1)
	}

	logger.Info("batch processing complete",
		"files_ingested", stats.Succeeded,
		"files_processed", processed,
		"failures", failures)

	fmt.Printf("Batch processing complete!\n")
	fmt.Printf("- Files ingested: %d\n", stats.Succeeded)
	fmt.Printf("- Files processed: %d\n", processed)
	fmt.Printf("- Failures: %d\n", failures)
	if *strict {
		fmt.Printf("- Schema violations: %d\n", invalid)
	}
	fmt.Printf("- Output: %s\n", *out)
	if failures > 0 {
		os.Exit(1)
	}
}
