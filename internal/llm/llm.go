// ABOUTME: Capability interfaces for text generation and embedding
// ABOUTME: Consumers depend on these, not on a concrete LLM vendor
package llm

import "context"

// GenerateConfig tunes a single generation call.
type GenerateConfig struct {
	Temperature float32
	MaxTokens   int
}

// Generator is the single text-generation capability the research loop and
// graph assembler consume. Any backend that can turn a prompt into text
// satisfies it.
type Generator interface {
	Generate(ctx context.Context, prompt string, cfg GenerateConfig) (string, error)
}

// Embedder turns text into a vector for dense retrieval.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float64, error)
}
