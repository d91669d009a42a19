package constants

// InvoiceStatus is the canonical lifecycle status for an invoice record.
type InvoiceStatus string

// Stable values (store and serve these exact strings).
const (
	StatusPending    InvoiceStatus = "pending"     // uploaded, extraction not started
	StatusInProgress InvoiceStatus = "in-progress" // extraction running
	StatusSuccess    InvoiceStatus = "success"     // structured fields available
	StatusError      InvoiceStatus = "error"       // extraction failed, retryable
)

// CanRetry reports whether a record in this status may re-enter extraction.
func (s InvoiceStatus) CanRetry() bool {
	return s == StatusError
}

// Terminal reports whether extraction has finished for this status.
func (s InvoiceStatus) Terminal() bool {
	return s == StatusSuccess || s == StatusError
}
