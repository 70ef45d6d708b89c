// ABOUTME: Reciprocal rank fusion of dense and lexical retrieval results
// ABOUTME: Deterministic ordering with score descending, chunk id ascending on ties
package research

import (
	"sort"

	"github.com/harper/docresearch/internal/models"
)

// fuseRRF merges two ranked result lists with weighted reciprocal rank
// fusion: each hit contributes weight/(k+rank), summed per chunk. The fused
// list is sorted by score descending with chunk_id as tie-breaker and capped
// at topK.
func fuseRRF(denseResults, lexicalResults []models.RetrievalResult, k int, denseWeight, lexicalWeight float64, topK int) []models.RetrievalResult {
	type contribution struct {
		dense   float64
		lexical float64
	}
	scores := make(map[string]*contribution)

	for rank, r := range denseResults {
		c, ok := scores[r.ChunkID]
		if !ok {
			c = &contribution{}
			scores[r.ChunkID] = c
		}
		c.dense += denseWeight / float64(k+rank+1)
	}
	for rank, r := range lexicalResults {
		c, ok := scores[r.ChunkID]
		if !ok {
			c = &contribution{}
			scores[r.ChunkID] = c
		}
		c.lexical += lexicalWeight / float64(k+rank+1)
	}

	fused := make([]models.RetrievalResult, 0, len(scores))
	for chunkID, c := range scores {
		source := models.SourceDense
		if c.lexical > c.dense {
			source = models.SourceLexical
		}
		fused = append(fused, models.RetrievalResult{
			ChunkID:    chunkID,
			Score:      c.dense + c.lexical,
			SourceType: source,
		})
	}

	sort.Slice(fused, func(i, j int) bool {
		if fused[i].Score != fused[j].Score {
			return fused[i].Score > fused[j].Score
		}
		return fused[i].ChunkID < fused[j].ChunkID
	})
	if topK > 0 && len(fused) > topK {
		fused = fused[:topK]
	}
	return fused
}
