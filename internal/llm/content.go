package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ResponseContent resolves the textual content of a structuring reply. The
// provider surface is loosely specified, so four shapes are tolerated,
// checked in priority order with the first non-empty match winning:
//
//  1. choices[0].message.content
//  2. top-level "content"
//  3. top-level "result" string
//  4. nested "result.content"
func ResponseContent(raw []byte) (string, error) {
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}

	if choices, ok := m["choices"].([]any); ok && len(choices) > 0 {
		if choice, ok := choices[0].(map[string]any); ok {
			if message, ok := choice["message"].(map[string]any); ok {
				if s := textValue(message["content"]); s != "" {
					return s, nil
				}
			}
		}
	}

	if s := textValue(m["content"]); s != "" {
		return s, nil
	}

	switch result := m["result"].(type) {
	case string:
		if s := strings.TrimSpace(result); s != "" {
			return s, nil
		}
	case map[string]any:
		if s := textValue(result["content"]); s != "" {
			return s, nil
		}
	}

	return "", errors.New("no textual content found in any recognized response shape")
}

func textValue(v any) string {
	s, ok := v.(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(s)
}
