// ABOUTME: Prompt templates for the research loop's reflection and synthesis calls
// ABOUTME: Evidence is formatted as numbered excerpts with their source filename
package research

import (
	"fmt"
	"strings"
)

const reflectionPrompt = `You are conducting iterative research to answer a question.

Question: %s
Current search query: %s

Your previous reflections:
%s

Evidence gathered so far:
%s

Decide whether the evidence is sufficient to answer the question.
Respond with ONLY a JSON object in this exact form:
{"thought": "<one sentence: what the evidence shows and what is still missing>", "sufficient": true, "refined_query": "<a better search query if not sufficient, otherwise empty>"}`

const answerPrompt = `Answer the question using only the evidence below. Cite nothing outside it. If the evidence does not contain the answer, say so plainly.

Question: %s

Evidence:
%s

Answer:`

// formatThoughts renders prior reflections for the reflection prompt.
func formatThoughts(thoughts []string) string {
	if len(thoughts) == 0 {
		return "(none yet)"
	}
	var b strings.Builder
	for i, th := range thoughts {
		fmt.Fprintf(&b, "%d. %s\n", i+1, th)
	}
	return strings.TrimSpace(b.String())
}

// formatEvidence renders gathered chunks as numbered excerpts for a prompt.
func formatEvidence(ev []evidence) string {
	if len(ev) == 0 {
		return "(no evidence retrieved)"
	}
	var b strings.Builder
	for i, e := range ev {
		fmt.Fprintf(&b, "[%d] (%s)\n%s\n\n", i+1, e.filename, e.chunk.Text)
	}
	return strings.TrimSpace(b.String())
}
