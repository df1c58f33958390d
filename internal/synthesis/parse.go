package synthesis

import (
	"encoding/json"
	"strings"
)

// cleanJSON strips markdown code fences and leading/trailing prose from a
// model response, leaving the outermost JSON object.
func cleanJSON(text string) string {
	text = strings.TrimSpace(text)

	if strings.HasPrefix(text, "```json") {
		text = strings.TrimPrefix(text, "```json")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	} else if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		text = text[start : end+1]
	}

	return strings.TrimSpace(text)
}

// parseProfile parses a model response into a loosely-typed structure.
// Returns false when the text is not JSON; callers fall back to raw text
// rather than failing the run.
func parseProfile(text string) (map[string]any, bool) {
	var raw map[string]any
	if err := json.Unmarshal([]byte(cleanJSON(text)), &raw); err != nil {
		return nil, false
	}
	return raw, true
}
