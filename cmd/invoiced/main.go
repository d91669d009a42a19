package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"

	"github.com/Dregen-Yor/auto-invoice/internal/common"
	"github.com/Dregen-Yor/auto-invoice/internal/docscan"
	"github.com/Dregen-Yor/auto-invoice/internal/export"
	"github.com/Dregen-Yor/auto-invoice/internal/llm"
	"github.com/Dregen-Yor/auto-invoice/internal/pipeline"
	"github.com/Dregen-Yor/auto-invoice/internal/server"
	"github.com/Dregen-Yor/auto-invoice/internal/state"
)

func main() {
	cfg := common.LoadConfig()

	fs := ff.NewFlagSet("invoiced")
	var (
		addr      = fs.StringLong("addr", cfg.Server.Addr, "HTTP listen address")
		statePath = fs.StringLong("state", cfg.Store.Path, "state database file path")
		workers   = fs.IntLong("workers", cfg.Pipeline.Workers, "extraction worker count")
		logLevel  = fs.StringLong("log-level", "info", "log level: debug, info, warn or error")
		logFormat = fs.StringLong("log-format", "text", "log format: text or json")
	)
	if err := ff.Parse(fs, os.Args[1:], ff.WithEnvVarPrefix("INVOICED")); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", ffhelp.Flags(fs))
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	logger := common.SetupLogger(*logLevel, *logFormat)

	cfg.Server.Addr = *addr
	cfg.Store.Path = *statePath
	cfg.Pipeline.Workers = *workers
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := state.Open(cfg.Store.Path, logger)
	if err != nil {
		logger.Error("failed to open state store", "path", cfg.Store.Path, "error", err)
		os.Exit(1)
	}
	defer func() { _ = st.Close() }()

	seedServiceConfig(st, cfg, logger)

	scanner := docscan.NewScanner(docscan.Config{
		Tesseract:     cfg.OCR.TesseractPath,
		TesseractLang: cfg.OCR.Languages,
		TessdataDir:   cfg.OCR.TessdataDir,
	}, logger)
	client := llm.NewClient(cfg.LLM.Timeout, logger)

	pipe := pipeline.New(st, scanner, client, logger)
	queue := pipeline.NewQueue(pipe, logger,
		pipeline.WithWorkers(cfg.Pipeline.Workers),
		pipeline.WithQueueSize(cfg.Pipeline.QueueSize),
	)

	exports := export.NewService(st, logger)
	srv := server.NewServer(st, queue, exports, server.BasicAuth{
		Username: cfg.Server.BasicAuthUser,
		Password: cfg.Server.BasicAuthPass,
	}, cfg.Server.CORSOrigin, logger)

	go func() {
		if err := srv.Start(cfg.Server.Addr); err != nil {
			logger.Error("http serve error", "error", err)
			os.Exit(1)
		}
	}()
	logger.Info("invoiced started", "addr", cfg.Server.Addr, "state", cfg.Store.Path, "workers", cfg.Pipeline.Workers)

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown", "error", err)
	}
	queue.Shutdown(shutdownCtx)
}

// seedServiceConfig fills the structuring service settings from the
// environment on first start. A configuration saved through the API wins.
func seedServiceConfig(st *state.Store, cfg *common.Config, logger *slog.Logger) {
	current := st.ServiceConfig()
	if current.Complete() {
		return
	}
	if cfg.LLM.BaseURL == "" && cfg.LLM.APIKey == "" && cfg.LLM.Model == "" {
		return
	}
	seeded := current
	if seeded.BaseURL == "" {
		seeded.BaseURL = cfg.LLM.BaseURL
	}
	if seeded.APIKey == "" {
		seeded.APIKey = cfg.LLM.APIKey
	}
	if seeded.Model == "" {
		seeded.Model = cfg.LLM.Model
	}
	if seeded == current {
		return
	}
	if err := st.SetServiceConfig(seeded); err == nil {
		logger.Info("seeded service configuration from environment", "base_url", seeded.BaseURL, "model", seeded.Model)
	}
}
