package stringutil

import "strings"

// SplitCSV splits a comma-separated string into trimmed, non-empty parts.
func SplitCSV(value string) []string {
	parts := strings.Split(value, ",")
	var out []string
	for _, part := range parts {
		item := strings.TrimSpace(part)
		if item != "" {
			out = append(out, item)
		}
	}
	return out
}

// SplitTerms splits free-text search terms on commas and whitespace,
// returning trimmed, non-empty tokens.
func SplitTerms(value string) []string {
	var out []string
	for _, chunk := range strings.Split(value, ",") {
		for _, term := range strings.Fields(chunk) {
			if term != "" {
				out = append(out, term)
			}
		}
	}
	return out
}

// Truncate cuts text to at most max runes, appending an ellipsis when cut.
func Truncate(text string, max int) string {
	if max <= 0 {
		return ""
	}
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	if max <= 1 {
		return string(runes[:max])
	}
	return strings.TrimSpace(string(runes[:max-1])) + "…"
}
