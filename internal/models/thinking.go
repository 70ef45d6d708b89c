// ABOUTME: ThinkingStep captures one iteration of the research loop's reasoning
// ABOUTME: Steps are append-only and emitted live while the loop runs
package models

// ThinkingStep is one iteration's rationale from the research loop.
type ThinkingStep struct {
	Iteration      int    `json:"iteration"`
	Thought        string `json:"thought"`
	RetrievedCount int    `json:"retrieved"`
}
