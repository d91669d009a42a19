package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Dregen-Yor/auto-invoice/constants"
	"github.com/Dregen-Yor/auto-invoice/internal/common"
	"github.com/Dregen-Yor/auto-invoice/internal/docscan"
	"github.com/Dregen-Yor/auto-invoice/internal/entity"
	"github.com/Dregen-Yor/auto-invoice/internal/llm"
)

// Extractor is the document capability the pipeline depends on. Raster
// images skip local extraction entirely and go to the structuring service
// as-is.
type Extractor interface {
	RenderPDFText(ctx context.Context, data []byte) (string, error)
	RenderPDFFirstPage(data []byte) ([]byte, error)
	PDFTextLayer(data []byte) (string, error)
}

// Store is the slice of application state the pipeline reads and writes.
// Updates go through an identifier-keyed merge; a merge against a record
// deleted mid-flight reports ok=false and changes nothing.
type Store interface {
	GetInvoice(personID, invoiceID uuid.UUID) (entity.Invoice, bool)
	UpdateInvoice(personID, invoiceID uuid.UUID, mutate func(*entity.Invoice)) (bool, error)
	ServiceConfig() entity.ServiceConfig
}

// Pipeline drives one invoice record from stored source bytes to structured
// fields: classify, extract, structure via the model, parse, persist.
type Pipeline struct {
	store      Store
	extractor  Extractor
	structurer llm.Structurer
	logger     *slog.Logger
}

func New(store Store, extractor Extractor, structurer llm.Structurer, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		store:      store,
		extractor:  extractor,
		structurer: structurer,
		logger:     logger,
	}
}

// Process runs the full extraction for one invoice record.
//
// Status moves pending or error -> in-progress -> success or error. The
// service configuration must be complete before any state change. A record
// deleted while its run is in flight makes the final update a no-op.
func (p *Pipeline) Process(ctx context.Context, personID, invoiceID uuid.UUID) error {
	cfg := p.store.ServiceConfig()
	if !cfg.Complete() {
		return common.ErrConfigMissing
	}

	inv, found := p.store.GetInvoice(personID, invoiceID)
	if !found {
		p.logger.Debug("record gone before processing started",
			"person_id", personID, "invoice_id", invoiceID)
		return nil
	}
	if len(inv.SourceData) == 0 {
		err := errors.New("source bytes are no longer available; upload the file again")
		p.markError(personID, invoiceID, err)
		return err
	}

	ok, err := p.store.UpdateInvoice(personID, invoiceID, func(rec *entity.Invoice) {
		rec.Status = constants.StatusInProgress
		rec.ErrorMessage = ""
	})
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}

	rid := common.RequestIDFromContext(ctx)
	if rid == "" {
		rid = uuid.New().String()
		ctx = common.WithRequestID(ctx, rid)
	}

	src := ClassifySource(inv.Filename, inv.ContentType, inv.SourceData)
	start := time.Now()
	p.logger.Info("pipeline.process.start",
		"req_id", rid,
		"person_id", personID,
		"invoice_id", invoiceID,
		"kind", src.Kind.String(),
		"bytes", len(src.Data),
	)

	fields, err := p.extract(ctx, cfg, src)
	if err != nil {
		p.markError(personID, invoiceID, err)
		p.logger.Error("pipeline.process.failed",
			"req_id", rid,
			"invoice_id", invoiceID,
			"elapsed_ms", time.Since(start).Milliseconds(),
			"error", err,
		)
		return err
	}

	ok, err = p.store.UpdateInvoice(personID, invoiceID, func(rec *entity.Invoice) {
		rec.Category = fields.Category
		rec.Amount = fields.Amount
		rec.Date = fields.Date
		rec.Description = fields.Description
		rec.RawText = fields.Raw
		rec.Status = constants.StatusSuccess
		rec.ErrorMessage = ""
	})
	if err != nil {
		return err
	}
	if !ok {
		p.logger.Debug("result discarded, record deleted mid-flight",
			"req_id", rid, "invoice_id", invoiceID)
		return nil
	}

	p.logger.Info("processed invoice successfully",
		"req_id", rid,
		"invoice_id", invoiceID,
		"category", string(fields.Category),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

func (p *Pipeline) extract(ctx context.Context, cfg entity.ServiceConfig, src Source) (llm.InvoiceFields, error) {
	switch src.Kind {
	case SourceDocument:
		return p.extractDocument(ctx, cfg, src)
	case SourceImage:
		return p.extractImage(ctx, cfg, src)
	default:
		return llm.InvoiceFields{}, common.ErrUnsupportedFormat
	}
}

// extractDocument prefers vision structuring of the rendered first page and
// falls back to the text strategy when rendering or the vision call fails.
func (p *Pipeline) extractDocument(ctx context.Context, cfg entity.ServiceConfig, src Source) (llm.InvoiceFields, error) {
	raster, renderErr := p.extractor.RenderPDFFirstPage(src.Data)
	if renderErr == nil && len(raster) > 0 {
		fields, err := p.structure(ctx, cfg, llm.ImageContent(raster, "image/png"))
		if err == nil {
			return fields, nil
		}
		p.logger.Warn("vision structuring failed, falling back to text",
			"req_id", common.RequestIDFromContext(ctx), "error", err)
	} else if renderErr != nil {
		p.logger.Warn("first page render failed, using text strategy",
			"req_id", common.RequestIDFromContext(ctx), "error", renderErr)
	}

	text, err := p.documentText(ctx, src.Data)
	if err != nil {
		return llm.InvoiceFields{}, err
	}
	return p.structure(ctx, cfg, llm.TextContent(text))
}

// extractImage has no fallback. The structuring error is surfaced as-is so
// callers can distinguish an image-rejecting service from a transport fault.
func (p *Pipeline) extractImage(ctx context.Context, cfg entity.ServiceConfig, src Source) (llm.InvoiceFields, error) {
	payload, mediaType, err := docscan.PrepareImage(src.Data, src.MediaType)
	if err != nil {
		return llm.InvoiceFields{}, fmt.Errorf("%w: %v", common.ErrUnsupportedFormat, err)
	}
	return p.structure(ctx, cfg, llm.ImageContent(payload, mediaType))
}

// documentText tries the embedded text layer first; scanned documents come
// back empty and go through recognition instead.
func (p *Pipeline) documentText(ctx context.Context, data []byte) (string, error) {
	text, err := p.extractor.PDFTextLayer(data)
	if err == nil && text != "" {
		return text, nil
	}
	if err != nil {
		p.logger.Debug("text layer unavailable", "error", err)
	}
	return p.extractor.RenderPDFText(ctx, data)
}

func (p *Pipeline) structure(ctx context.Context, cfg entity.ServiceConfig, content llm.Content) (llm.InvoiceFields, error) {
	raw, err := p.structurer.Structure(ctx, cfg, content)
	if err != nil {
		return llm.InvoiceFields{}, err
	}
	return llm.ParseInvoiceJSON(raw)
}

// markError attaches the failure description verbatim to the owning record.
func (p *Pipeline) markError(personID, invoiceID uuid.UUID, cause error) {
	ok, err := p.store.UpdateInvoice(personID, invoiceID, func(rec *entity.Invoice) {
		rec.Status = constants.StatusError
		rec.ErrorMessage = cause.Error()
	})
	if err != nil {
		p.logger.Error("pipeline.mark_error.persist", "invoice_id", invoiceID, "error", err)
		return
	}
	if !ok {
		p.logger.Debug("error discarded, record deleted mid-flight", "invoice_id", invoiceID)
	}
}
