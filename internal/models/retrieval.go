// ABOUTME: Retrieval result types shared by the dense and lexical retrievers
// ABOUTME: Results are transient, produced per query, never persisted
package models

// SourceType identifies which retrieval backend produced a result.
type SourceType string

const (
	SourceDense   SourceType = "dense"
	SourceLexical SourceType = "lexical"
)

// RetrievalResult is one scored hit from a retriever or from fusion.
type RetrievalResult struct {
	ChunkID    string     `json:"chunk_id"`
	Score      float64    `json:"score"`
	SourceType SourceType `json:"source_type"`
}

// RetrievalDetail describes one chunk used to build a final answer,
// included in the answer event for source attribution.
type RetrievalDetail struct {
	ChunkID  string  `json:"chunk_id"`
	DocID    string  `json:"doc_id"`
	Filename string  `json:"filename"`
	Snippet  string  `json:"snippet"`
	Score    float64 `json:"relevance_score"`
}
