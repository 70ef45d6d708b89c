// ABOUTME: Dense retriever with per-document vector indices and cosine ranking
// ABOUTME: Embeds queries through the Embedder capability, chunks at index time
package retriever

import (
	"context"
	"fmt"
	"math"
	"sync"

	"github.com/harper/docresearch/internal/llm"
	"github.com/harper/docresearch/internal/models"
)

type denseEntry struct {
	chunkID string
	vector  []float64
}

// Dense ranks chunks by cosine similarity between the query embedding and
// chunk embeddings. One vector index per document id.
type Dense struct {
	embedder llm.Embedder

	mu      sync.RWMutex
	indices map[string][]denseEntry
}

// NewDense creates a dense retriever backed by the given embedder.
func NewDense(embedder llm.Embedder) *Dense {
	return &Dense{
		embedder: embedder,
		indices:  make(map[string][]denseEntry),
	}
}

// Add embeds one chunk and appends it to the document's sub-index. The
// sub-index grows monotonically; readers may observe it partially built.
func (d *Dense) Add(ctx context.Context, docID string, chunk models.Chunk) error {
	vector := chunk.Embedding
	if vector == nil {
		var err error
		vector, err = d.embedder.Embed(ctx, chunk.Text)
		if err != nil {
			return fmt.Errorf("embed chunk %s: %w", chunk.ChunkID, err)
		}
	}

	d.mu.Lock()
	d.indices[docID] = append(d.indices[docID], denseEntry{chunkID: chunk.ChunkID, vector: vector})
	d.mu.Unlock()

	return nil
}

// Build indexes all chunks for a document, replacing any existing sub-index.
func (d *Dense) Build(ctx context.Context, docID string, chunks []models.Chunk) error {
	d.Remove(docID)
	for _, chunk := range chunks {
		if err := d.Add(ctx, docID, chunk); err != nil {
			return err
		}
	}
	return nil
}

// Search embeds the query and ranks chunks within the selected documents'
// sub-indices. Results are ordered by score descending, ties by ascending
// chunk id, capped at topK. Unknown doc ids are skipped.
func (d *Dense) Search(ctx context.Context, query string, docIDs []string, topK int) ([]models.RetrievalResult, error) {
	queryVector, err := d.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	d.mu.RLock()
	var results []models.RetrievalResult
	for _, docID := range docIDs {
		for _, entry := range d.indices[docID] {
			results = append(results, models.RetrievalResult{
				ChunkID:    entry.chunkID,
				Score:      cosineSimilarity(queryVector, entry.vector),
				SourceType: models.SourceDense,
			})
		}
	}
	d.mu.RUnlock()

	sortResults(results)
	return capResults(results, topK), nil
}

// Remove discards a document's sub-index.
func (d *Dense) Remove(docID string) {
	d.mu.Lock()
	delete(d.indices, docID)
	d.mu.Unlock()
}

// Clear discards all sub-indices.
func (d *Dense) Clear() {
	d.mu.Lock()
	d.indices = make(map[string][]denseEntry)
	d.mu.Unlock()
}

// IndexedChunks returns the number of chunks indexed for a document.
func (d *Dense) IndexedChunks(docID string) int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.indices[docID])
}

// cosineSimilarity calculates cosine similarity between two vectors.
func cosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) {
		return 0.0
	}

	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}

	if normA == 0 || normB == 0 {
		return 0.0
	}

	return dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
}
