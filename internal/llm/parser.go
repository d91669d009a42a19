package llm

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/Dregen-Yor/auto-invoice/constants"

	"github.com/Dregen-Yor/auto-invoice/internal/common"
)

// InvoiceFields is the normalized shape recovered from model output.
type InvoiceFields struct {
	Category    constants.Category
	Amount      *float64 // nil means the amount could not be recovered
	Date        string
	Description string
	Raw         string // the verbatim response content, retained for audit
}

// ParseInvoiceJSON recovers a single JSON object embedded in free-form model
// output and coerces it into InvoiceFields. The widest brace-delimited span
// is used: everything between the first '{' and the last '}'. Models that
// wrap the object in prose or markdown fences still parse.
//
// Field handling is lenient: an unrecognized or missing "type" becomes
// unknown, "amount" accepts a native number or a numeric string, and
// "date"/"description" pass through unchanged when present and non-empty.
func ParseInvoiceJSON(raw string) (InvoiceFields, error) {
	fields := InvoiceFields{
		Category:    constants.Unknown,
		Date:        "unknown",
		Description: "unknown",
		Raw:         raw,
	}

	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end < start {
		return fields, common.ErrNoJSONFound
	}
	span := raw[start : end+1]

	var m map[string]any
	if err := json.Unmarshal([]byte(span), &m); err != nil {
		return fields, fmt.Errorf("%w: %v", common.ErrInvalidJSON, err)
	}

	if s, ok := m["type"].(string); ok {
		fields.Category, _ = constants.Canonicalize(s)
	}

	switch v := m["amount"].(type) {
	case float64:
		fields.Amount = &v
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			fields.Amount = &f
		}
	}

	if s, ok := m["date"].(string); ok && s != "" {
		fields.Date = s
	}
	if s, ok := m["description"].(string); ok && s != "" {
		fields.Description = s
	}

	return fields, nil
}
