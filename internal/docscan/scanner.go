package docscan

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gen2brain/go-fitz"

	"github.com/Dregen-Yor/auto-invoice/internal/common"
)

// renderDPI is the fixed upscale for page rasterization, twice the 72 DPI
// PDF base resolution.
const renderDPI = 144

type Config struct {
	Tesseract string // binary name or absolute path; if empty -> "tesseract"

	TesseractLang string // default "chi_sim+eng"
	TessdataDir   string
	MaxPages      int // 0 = no limit
}

// Scanner turns uploaded documents into text or a raster payload. PDF pages
// are rasterized in-process; text recognition shells out to tesseract.
type Scanner struct {
	cfg    Config
	runner Runner
	logger *slog.Logger
}

func NewScanner(cfg Config, logger *slog.Logger) *Scanner {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Tesseract == "" {
		cfg.Tesseract = "tesseract"
	}
	if cfg.TesseractLang == "" {
		cfg.TesseractLang = "chi_sim+eng"
	}
	return &Scanner{cfg: cfg, runner: execRunner{}, logger: logger}
}

// RenderPDFText rasterizes every page at the fixed upscale, recognizes each
// raster, and joins the page texts with newlines. Empty recognition output is
// a recoverable ErrExtractionEmpty.
func (s *Scanner) RenderPDFText(ctx context.Context, data []byte) (string, error) {
	start := time.Now()

	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return "", fmt.Errorf("opening pdf: %w", err)
	}
	defer doc.Close()

	tmpDir, err := os.MkdirTemp("", "ai-ocr-*")
	if err != nil {
		return "", err
	}
	defer func() {
		if err := os.RemoveAll(tmpDir); err != nil {
			s.logger.Warn("docscan.tmpdir.remove", "path", tmpDir, "error", err)
		}
	}()

	pages := doc.NumPage()
	if s.cfg.MaxPages > 0 && pages > s.cfg.MaxPages {
		pages = s.cfg.MaxPages
	}

	var b strings.Builder
	for i := 0; i < pages; i++ {
		img, err := doc.ImageDPI(i, renderDPI)
		if err != nil {
			s.logger.Warn("docscan.render.page", "page", i+1, "error", err)
			continue
		}
		pagePath := filepath.Join(tmpDir, fmt.Sprintf("page-%03d.png", i+1))
		if err := writePNG(pagePath, img); err != nil {
			return "", err
		}
		txt, err := s.tesseractOCR(ctx, pagePath)
		if err != nil {
			s.logger.Warn("docscan.ocr.page", "page", i+1, "error", err)
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		b.WriteString(txt)
	}

	text := strings.TrimSpace(b.String())
	if text == "" {
		return "", common.ErrExtractionEmpty
	}

	s.logger.Debug("docscan.pdf.ocr.ok",
		"pages", pages,
		"chars", len(text),
		"confidence", heuristicConfidence(text),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return text, nil
}

// RenderPDFFirstPage rasterizes exactly the first page at the fixed upscale
// and returns it PNG-encoded.
func (s *Scanner) RenderPDFFirstPage(data []byte) ([]byte, error) {
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return nil, fmt.Errorf("opening pdf: %w", err)
	}
	defer doc.Close()

	img, err := doc.ImageDPI(0, renderDPI)
	if err != nil {
		return nil, fmt.Errorf("rendering pdf page: %w", err)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encoding png: %w", err)
	}
	return buf.Bytes(), nil
}

// OCRImage recognizes text in a single raster image.
func (s *Scanner) OCRImage(ctx context.Context, data []byte) (string, error) {
	tmpDir, err := os.MkdirTemp("", "ai-ocr-*")
	if err != nil {
		return "", err
	}
	defer os.RemoveAll(tmpDir)

	path := filepath.Join(tmpDir, "image.png")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", err
	}

	txt, err := s.tesseractOCR(ctx, path)
	if err != nil {
		return "", err
	}
	txt = strings.TrimSpace(txt)
	if txt == "" {
		return "", common.ErrExtractionEmpty
	}

	s.logger.Debug("docscan.image.ocr.ok", "chars", len(txt), "confidence", heuristicConfidence(txt))
	return txt, nil
}

// tesseract <file> stdout -l <lang>
func (s *Scanner) tesseractOCR(ctx context.Context, path string) (string, error) {
	args := []string{path, "stdout", "-l", s.cfg.TesseractLang}
	if s.cfg.TessdataDir != "" {
		args = append(args, "--tessdata-dir", s.cfg.TessdataDir)
	}

	out, errb, err := s.runner.Run(ctx, s.cfg.Tesseract, args...)
	if err != nil {
		return "", fmt.Errorf("tesseract: %w (%s)", err, truncate(string(errb), 512))
	}
	return collapseBlankLines(string(out)), nil
}

func collapseBlankLines(s string) string {
	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	blank := 0
	for _, ln := range lines {
		if strings.TrimSpace(ln) == "" {
			blank++
			if blank > 1 {
				continue
			}
		} else {
			blank = 0
		}
		out = append(out, ln)
	}
	return strings.Join(out, "\n")
}

func writePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
