package server

import (
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Dregen-Yor/auto-invoice/constants"
	"github.com/Dregen-Yor/auto-invoice/internal/entity"
	"github.com/Dregen-Yor/auto-invoice/internal/pipeline"
)

// 50MB, enough for high-resolution phone photos
const maxUploadBytes = int64(50 << 20)

const configIncompleteMsg = "service configuration is incomplete; set base URL, API key and model first"

type uploadOutcome struct {
	Filename  string     `json:"filename"`
	InvoiceID *uuid.UUID `json:"invoice_id,omitempty"`
	Status    string     `json:"status"`
	Error     string     `json:"error,omitempty"`
}

// handleUploadInvoices accepts a multipart batch. Every file produces its own
// outcome; one rejected file never blocks its siblings.
func (s *Server) handleUploadInvoices(w http.ResponseWriter, r *http.Request) {
	personID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid person id")
		return
	}
	if _, ok := s.store.GetPerson(personID); !ok {
		writeError(w, http.StatusNotFound, "person not found")
		return
	}
	if !s.store.ServiceConfig().Complete() {
		writeError(w, http.StatusUnprocessableEntity, configIncompleteMsg)
		return
	}

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		s.logger.Error("parsing multipart form failed", "error", err)
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		headers = r.MultipartForm.File["file"]
	}
	if len(headers) == 0 {
		writeError(w, http.StatusBadRequest, "no files provided")
		return
	}

	outcomes := make([]uploadOutcome, 0, len(headers))
	for _, header := range headers {
		outcomes = append(outcomes, s.acceptUpload(r, personID, header))
	}
	writeJSON(w, http.StatusOK, outcomes)
}

func (s *Server) acceptUpload(r *http.Request, personID uuid.UUID, header *multipart.FileHeader) uploadOutcome {
	outcome := uploadOutcome{Filename: header.Filename, Status: "rejected"}

	ext := constants.NormalizeExt(filepath.Ext(header.Filename))
	if _, ok := constants.AllowedExtensions[ext]; !ok {
		outcome.Error = "unsupported file extension ." + ext
		return outcome
	}

	f, err := header.Open()
	if err != nil {
		outcome.Error = "opening upload: " + err.Error()
		return outcome
	}
	defer func() { _ = f.Close() }()

	data, err := io.ReadAll(f)
	if err != nil {
		outcome.Error = "reading upload: " + err.Error()
		return outcome
	}
	if len(data) == 0 {
		outcome.Error = "file is empty"
		return outcome
	}

	now := time.Now()
	inv := entity.Invoice{
		ID:          uuid.New(),
		PersonID:    personID,
		Filename:    header.Filename,
		ContentType: uploadContentType(header.Header.Get("Content-Type"), header.Filename),
		Category:    constants.Unknown,
		Date:        "unknown",
		Description: "unknown",
		Status:      constants.StatusPending,
		SourceData:  data,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.AddInvoice(personID, inv); err != nil {
		outcome.Error = "storing record: " + err.Error()
		return outcome
	}
	if err := s.queue.Enqueue(r.Context(), pipeline.Job{
		PersonID:    personID,
		InvoiceID:   inv.ID,
		SubmittedAt: now,
	}); err != nil {
		outcome.Error = "queueing extraction: " + err.Error()
		return outcome
	}

	outcome.InvoiceID = &inv.ID
	outcome.Status = string(constants.StatusPending)
	outcome.Error = ""
	return outcome
}

// uploadContentType falls back to an extension lookup when the browser omits
// the part's content type.
func uploadContentType(declared, filename string) string {
	contentType := strings.ToLower(strings.TrimSpace(declared))
	if contentType != "" && contentType != "application/octet-stream" {
		return contentType
	}
	return constants.ContentTypeForFilename(filename)
}

type invoiceEditRequest struct {
	Category    string   `json:"category"`
	Amount      *float64 `json:"amount"`
	Date        string   `json:"date"`
	Description string   `json:"description"`
}

// handleEditInvoice overwrites the structured fields by hand. Only settled
// records can be edited; the result always counts as success.
func (s *Server) handleEditInvoice(w http.ResponseWriter, r *http.Request) {
	personID, invoiceID, ok := invoicePath(w, r)
	if !ok {
		return
	}
	var req invoiceEditRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	category := constants.Unknown
	if req.Category != "" {
		canon, valid := constants.Canonicalize(req.Category)
		if !valid && strings.ToLower(strings.TrimSpace(req.Category)) != string(constants.Unknown) {
			writeError(w, http.StatusBadRequest, "unknown category "+req.Category)
			return
		}
		category = canon
	}
	date := strings.TrimSpace(req.Date)
	if date == "" {
		date = "unknown"
	}
	if date != "unknown" {
		if _, err := time.Parse("2006-01-02", date); err != nil {
			writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD or unknown")
			return
		}
	}
	description := strings.TrimSpace(req.Description)
	if description == "" {
		description = "unknown"
	}

	inv, found := s.store.GetInvoice(personID, invoiceID)
	if !found {
		writeError(w, http.StatusNotFound, "invoice not found")
		return
	}
	if !inv.Status.Terminal() {
		writeError(w, http.StatusConflict, "record is still being processed")
		return
	}

	_, err := s.store.UpdateInvoice(personID, invoiceID, func(rec *entity.Invoice) {
		rec.Category = category
		rec.Amount = req.Amount
		rec.Date = date
		rec.Description = description
		rec.Status = constants.StatusSuccess
		rec.ErrorMessage = ""
	})
	if err != nil {
		s.logger.Error("edit invoice failed", "invoice_id", invoiceID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	updated, _ := s.store.GetInvoice(personID, invoiceID)
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteInvoice(w http.ResponseWriter, r *http.Request) {
	personID, invoiceID, ok := invoicePath(w, r)
	if !ok {
		return
	}
	if err := s.store.DeleteInvoice(personID, invoiceID); err != nil {
		writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleRetryInvoice re-queues a failed record. The record keeps its identity
// and owner; only the status moves back through in-progress.
func (s *Server) handleRetryInvoice(w http.ResponseWriter, r *http.Request) {
	personID, invoiceID, ok := invoicePath(w, r)
	if !ok {
		return
	}
	inv, found := s.store.GetInvoice(personID, invoiceID)
	if !found {
		writeError(w, http.StatusNotFound, "invoice not found")
		return
	}
	if !inv.Status.CanRetry() {
		writeError(w, http.StatusConflict, "only failed records can be retried")
		return
	}
	if !s.store.ServiceConfig().Complete() {
		writeError(w, http.StatusUnprocessableEntity, configIncompleteMsg)
		return
	}
	if len(inv.SourceData) == 0 {
		writeError(w, http.StatusUnprocessableEntity, "source bytes are no longer available; upload the file again")
		return
	}

	if err := s.queue.Enqueue(r.Context(), pipeline.Job{
		PersonID:    personID,
		InvoiceID:   invoiceID,
		SubmittedAt: time.Now(),
	}); err != nil {
		s.logger.Error("retry enqueue failed", "invoice_id", invoiceID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "queued"})
}

func invoicePath(w http.ResponseWriter, r *http.Request) (personID, invoiceID uuid.UUID, ok bool) {
	personID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid person id")
		return uuid.Nil, uuid.Nil, false
	}
	invoiceID, err = uuid.Parse(r.PathValue("inv"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid invoice id")
		return uuid.Nil, uuid.Nil, false
	}
	return personID, invoiceID, true
}
