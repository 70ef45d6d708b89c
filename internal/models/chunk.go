// ABOUTME: Chunk represents one contiguous slice of a document's text
// ABOUTME: The unit of indexing and retrieval, owned by exactly one document
package models

// Chunk is a contiguous slice of a document's text. Chunks are created by
// the indexing pipeline and never mutated afterwards.
type Chunk struct {
	ChunkID       string    `json:"chunk_id"`
	DocID         string    `json:"doc_id"`
	SequenceIndex int       `json:"sequence_index"`
	Text          string    `json:"text"`
	Embedding     []float64 `json:"embedding,omitempty"`
}
