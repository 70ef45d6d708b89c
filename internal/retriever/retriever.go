// ABOUTME: Shared result ordering for the dense and lexical retrievers
// ABOUTME: Both retrievers keep one sub-index per document id for isolation
package retriever

import (
	"sort"

	"github.com/harper/docresearch/internal/models"
)

// Each retriever in this package maintains one sub-index per document id
// rather than a single global index. A search restricted to a document set
// only ever touches those sub-indices, so it cannot leak chunks from other
// documents. The retrievers never fuse each other's output; score fusion is
// the research loop's job.

// sortResults orders results by score descending, ties broken by ascending
// chunk id so identical inputs always produce identical output order.
func sortResults(results []models.RetrievalResult) {
	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].ChunkID < results[j].ChunkID
	})
}

// capResults truncates results to at most topK entries.
func capResults(results []models.RetrievalResult, topK int) []models.RetrievalResult {
	if topK > 0 && len(results) > topK {
		return results[:topK]
	}
	return results
}
