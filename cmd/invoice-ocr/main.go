package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"

	"github.com/Dregen-Yor/auto-invoice/constants"
	"github.com/Dregen-Yor/auto-invoice/internal/common"
	"github.com/Dregen-Yor/auto-invoice/internal/docscan"
)

// invoice-ocr runs the local text extraction over one or more files and
// prints the recognized text, for checking tesseract setup and output
// quality without the structuring service.
func main() {
	cfg := common.LoadConfig()

	fs := ff.NewFlagSet("invoice-ocr")
	var (
		textLayer = fs.BoolLong("text-layer", "for PDFs, read the embedded text layer instead of recognizing rendered pages")
		logLevel  = fs.StringLong("log-level", "warn", "log level: debug, info, warn or error")
	)
	if err := ff.Parse(fs, os.Args[1:], ff.WithEnvVarPrefix("INVOICED")); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", ffhelp.Flags(fs))
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	logger := common.SetupLogger(*logLevel, "text")

	files := fs.GetArgs()
	if len(files) == 0 {
		fmt.Fprintln(os.Stderr, "usage: invoice-ocr [flags] <file>...")
		os.Exit(2)
	}

	scanner := docscan.NewScanner(docscan.Config{
		Tesseract:     cfg.OCR.TesseractPath,
		TesseractLang: cfg.OCR.Languages,
		TessdataDir:   cfg.OCR.TessdataDir,
	}, logger)

	ctx := context.Background()
	failures := 0

	for _, path := range files {
		data, err := os.ReadFile(path)
		if err != nil {
			logger.Error("read failed", "path", path, "error", err)
			failures++
			continue
		}

		start := time.Now()
		var text string
		if constants.IsPDF(path, "") {
			if *textLayer {
				text, err = scanner.PDFTextLayer(data)
			} else {
				text, err = scanner.RenderPDFText(ctx, data)
			}
		} else {
			var payload []byte
			payload, _, err = docscan.PrepareImage(data, constants.ContentTypeForFilename(path))
			if err == nil {
				text, err = scanner.OCRImage(ctx, payload)
			}
		}
		if err != nil {
			logger.Error("extraction failed", "path", path, "error", err)
			failures++
			continue
		}

		logger.Info("extraction ok",
			"path", path,
			"chars", len(text),
			"duration_ms", time.Since(start).Milliseconds())
		fmt.Printf("==> %s\n%s\n", path, text)
	}

	if failures > 0 {
		os.Exit(1)
	}
}
