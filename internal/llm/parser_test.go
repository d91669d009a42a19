package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dregen-Yor/auto-invoice/constants"
	"github.com/Dregen-Yor/auto-invoice/internal/common"
)

func TestParseInvoiceJSONCategories(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want constants.Category
	}{
		{"inter-city", `{"type":"inter-city","amount":100}`, constants.InterCityTransport},
		{"intra-city", `{"type":"intra-city","amount":100}`, constants.IntraCityTransport},
		{"accommodation", `{"type":"accommodation","amount":100}`, constants.Accommodation},
		{"registration", `{"type":"registration","amount":100}`, constants.Registration},
		{"unrecognized value", `{"type":"hotel","amount":100}`, constants.Unknown},
		{"empty value", `{"type":"","amount":100}`, constants.Unknown},
		{"missing field", `{"amount":100}`, constants.Unknown},
		{"non-string value", `{"type":12,"amount":100}`, constants.Unknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fields, err := ParseInvoiceJSON(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.want, fields.Category)
		})
	}
}

func TestParseInvoiceJSONAmount(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want *float64
	}{
		{"native number", `{"type":"inter-city","amount":553.5}`, f64(553.5)},
		{"numeric string", `{"type":"inter-city","amount":"553.5"}`, f64(553.5)},
		{"integer", `{"type":"inter-city","amount":100}`, f64(100)},
		{"non-numeric string", `{"type":"inter-city","amount":"about fifty"}`, nil},
		{"missing", `{"type":"inter-city"}`, nil},
		{"boolean", `{"type":"inter-city","amount":true}`, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fields, err := ParseInvoiceJSON(tt.raw)
			require.NoError(t, err)
			if tt.want == nil {
				assert.Nil(t, fields.Amount)
				return
			}
			require.NotNil(t, fields.Amount)
			assert.Equal(t, *tt.want, *fields.Amount)
		})
	}
}

func TestParseInvoiceJSONProseWrapped(t *testing.T) {
	raw := `here is the result: {"type":"accommodation","amount":100,"date":"2024-03-15","description":"hotel"} thanks`

	fields, err := ParseInvoiceJSON(raw)
	require.NoError(t, err)
	assert.Equal(t, constants.Accommodation, fields.Category)
	require.NotNil(t, fields.Amount)
	assert.Equal(t, 100.0, *fields.Amount)
	assert.Equal(t, "2024-03-15", fields.Date)
	assert.Equal(t, "hotel", fields.Description)
	assert.Equal(t, raw, fields.Raw)
}

func TestParseInvoiceJSONMarkdownFenced(t *testing.T) {
	raw := "```json\n{\"type\":\"intra-city\",\"amount\":\"45.00\",\"date\":\"2024-03-12\",\"description\":\"出租车\"}\n```"

	fields, err := ParseInvoiceJSON(raw)
	require.NoError(t, err)
	assert.Equal(t, constants.IntraCityTransport, fields.Category)
	require.NotNil(t, fields.Amount)
	assert.Equal(t, 45.0, *fields.Amount)
}

func TestParseInvoiceJSONNoObject(t *testing.T) {
	_, err := ParseInvoiceJSON("the service replied with no structured data at all")
	assert.ErrorIs(t, err, common.ErrNoJSONFound)
}

func TestParseInvoiceJSONInvalidObject(t *testing.T) {
	_, err := ParseInvoiceJSON(`prefix {"type": "accommodation", "amount": } suffix`)
	assert.ErrorIs(t, err, common.ErrInvalidJSON)
}

func TestParseInvoiceJSONDefaults(t *testing.T) {
	fields, err := ParseInvoiceJSON(`{"type":"registration","amount":1200}`)
	require.NoError(t, err)
	assert.Equal(t, "unknown", fields.Date)
	assert.Equal(t, "unknown", fields.Description)
}

func f64(v float64) *float64 { return &v }
