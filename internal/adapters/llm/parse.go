package llm

import (
	"regexp"
	"strings"
)

// MaxSuggestions bounds how many lines end up in a report.
const MaxSuggestions = 5

// enumerationMarker matches "1.", "2)", "-", "*" and "•" at the start of a line.
// Numbered markers need trailing space so "1.5s faster" survives.
var enumerationMarker = regexp.MustCompile(`^(?:\d+[.)](?:\s+|$)|[-*•]+\s*)`)

// ParseSuggestions turns free-form model output into a clean, bounded list.
// The result is never nil.
func ParseSuggestions(text string) []string {
	out := []string{}
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		line = strings.TrimSpace(enumerationMarker.ReplaceAllString(line, ""))
		if line == "" {
			continue
		}
		out = append(out, line)
		if len(out) == MaxSuggestions {
			break
		}
	}
	return out
}
