// ABOUTME: Helpers for cleaning JSON out of model responses
// ABOUTME: Models wrap JSON in markdown fences despite instructions not to
package llm

import "strings"

// CleanJSONResponse strips a surrounding markdown code fence and whitespace
// from a model response so the remainder can be passed to json.Unmarshal.
func CleanJSONResponse(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.Index(s, "\n"); i >= 0 {
		s = s[i+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
