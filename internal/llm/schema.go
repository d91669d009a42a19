package llm

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/Dregen-Yor/auto-invoice/constants"
)

// BuildInvoiceJSONSchema returns a JSON-Schema (draft 2020-12 subset) as a
// generic map. It is embedded in the prompt as the reply contract and used
// locally for strict validation.
func BuildInvoiceJSONSchema() map[string]any {
	categories := append(constants.AsStringSlice(), string(constants.Unknown))

	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"type": map[string]any{
				"type": "string",
				"enum": categories,
			},
			"amount": map[string]any{
				// a native number is preferred but a numeric string is accepted
				"type": []any{"number", "string"},
			},
			"date": map[string]any{
				"type":    "string",
				"pattern": `^(\d{4}-\d{2}-\d{2}|unknown)$`,
			},
			"description": map[string]any{"type": "string"},
		},
		"required": []string{"type", "amount"},
	}
}

// ValidateInvoiceJSON validates a recovered JSON object against the strict
// invoice schema. The lenient parser tolerates more than the schema does;
// this is for callers that want to know when the model strayed.
func ValidateInvoiceJSON(data []byte) error {
	return validateAgainstSchema(BuildInvoiceJSONSchema(), data)
}

func validateAgainstSchema(schemaMap map[string]any, data []byte) error {
	b, err := json.Marshal(schemaMap)
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("schema.json", bytes.NewReader(b)); err != nil {
		return fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("schema.json")
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("unmarshal data: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("json does not match schema: %w", err)
	}
	return nil
}
