package entity

import (
	"time"

	"github.com/google/uuid"

	"github.com/Dregen-Yor/auto-invoice/constants"
)

// Invoice represents one uploaded receipt and its extracted fields.
type Invoice struct {
	ID           uuid.UUID               `json:"id"`
	PersonID     uuid.UUID               `json:"person_id"`
	Filename     string                  `json:"filename"`
	ContentType  string                  `json:"content_type,omitempty"`
	Category     constants.Category      `json:"category"`
	Amount       *float64                `json:"amount,omitempty"` // nil means unknown
	Date         string                  `json:"date"`             // YYYY-MM-DD or "unknown"
	Description  string                  `json:"description"`
	RawText      string                  `json:"raw_text,omitempty"` // verbatim model output for audit
	Status       constants.InvoiceStatus `json:"status"`
	ErrorMessage string                  `json:"error_message,omitempty"`
	CreatedAt    time.Time               `json:"created_at"`
	UpdatedAt    time.Time               `json:"updated_at"`

	// SourceData holds the uploaded bytes for the duration of extraction.
	// Stripped before persistence and never served to clients.
	SourceData []byte `json:"-"`
}

// IsPDF reports whether the invoice source is a paginated document.
func (i *Invoice) IsPDF() bool {
	return constants.IsPDF(i.Filename, i.ContentType)
}

// Exportable reports whether the record qualifies for export output.
func (i *Invoice) Exportable() bool {
	return i.Status == constants.StatusSuccess && i.Category != constants.Unknown && i.Category != ""
}
