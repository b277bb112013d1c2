package backend

import (
	"encoding/json"
	"regexp"
	"strings"
)

var (
	codeFence     = regexp.MustCompile("```[A-Za-z0-9_+-]*")
	trailingComma = regexp.MustCompile(`,\s*([}\]])`)
)

// Extract recovers a JSON object from backend text.
//
// Markdown code fences are stripped, then the span from the first '{' to the
// last '}' is parsed. If that fails, trailing commas before '}' or ']' are
// removed and the span is parsed once more. Nothing else is repaired.
func Extract(text string) (map[string]any, bool) {
	cleaned := codeFence.ReplaceAllString(text, "")

	start := strings.Index(cleaned, "{")
	end := strings.LastIndex(cleaned, "}")
	if start < 0 || end < start {
		return nil, false
	}
	candidate := cleaned[start : end+1]

	if payload, ok := parseObject(candidate); ok {
		return payload, true
	}
	return parseObject(trailingComma.ReplaceAllString(candidate, "$1"))
}

func parseObject(s string) (map[string]any, bool) {
	var payload map[string]any
	if err := json.Unmarshal([]byte(s), &payload); err != nil || payload == nil {
		return nil, false
	}
	return payload, true
}

// missingKeys returns the required keys absent from payload, in order.
func missingKeys(payload map[string]any, required []string) []string {
	var missing []string
	for _, key := range required {
		if _, ok := payload[key]; !ok {
			missing = append(missing, key)
		}
	}
	return missing
}
