package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateInvoiceJSON(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		wantErr bool
	}{
		{
			name:    "complete document",
			payload: `{"type":"inter-city","amount":553.5,"date":"2025-03-14","description":"高铁票"}`,
		},
		{
			name:    "numeric string amount",
			payload: `{"type":"accommodation","amount":"120.00"}`,
		},
		{
			name:    "unknown markers",
			payload: `{"type":"unknown","amount":0,"date":"unknown","description":"unknown"}`,
		},
		{
			name:    "category outside enum",
			payload: `{"type":"hotel","amount":120}`,
			wantErr: true,
		},
		{
			name:    "missing amount",
			payload: `{"type":"registration"}`,
			wantErr: true,
		},
		{
			name:    "malformed date",
			payload: `{"type":"intra-city","amount":12,"date":"03/14/2025"}`,
			wantErr: true,
		},
		{
			name:    "extra field rejected",
			payload: `{"type":"intra-city","amount":12,"vendor":"didi"}`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateInvoiceJSON([]byte(tt.payload))
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestInvoiceJSONSchemaShape(t *testing.T) {
	schema := BuildInvoiceJSONSchema()

	props, ok := schema["properties"].(map[string]any)
	require.True(t, ok)

	typeProp := props["type"].(map[string]any)
	enum := typeProp["enum"].([]string)
	assert.Contains(t, enum, "inter-city")
	assert.Contains(t, enum, "accommodation")
	assert.Contains(t, enum, "intra-city")
	assert.Contains(t, enum, "registration")
	assert.Contains(t, enum, "unknown")

	assert.Equal(t, []string{"type", "amount"}, schema["required"])
}
