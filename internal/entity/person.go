package entity

import (
	"time"

	"github.com/google/uuid"
)

// Person represents one reimbursement claimant and the invoices they own.
type Person struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Number    string    `json:"number"` // employee or student number
	Invoices  []Invoice `json:"invoices"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// FindInvoice returns a pointer into the person's invoice slice, or nil when
// no invoice carries the id.
func (p *Person) FindInvoice(id uuid.UUID) *Invoice {
	for idx := range p.Invoices {
		if p.Invoices[idx].ID == id {
			return &p.Invoices[idx]
		}
	}
	return nil
}
