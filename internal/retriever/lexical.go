// ABOUTME: Lexical retriever with per-document BM25 indices over chunk text
// ABOUTME: Term statistics are scoped to each document's own sub-index
package retriever

import (
	"context"
	"math"
	"strings"
	"sync"
	"unicode"

	"github.com/harper/docresearch/internal/models"
)

// BM25 parameters, standard values.
const (
	bm25K1 = 1.5
	bm25B  = 0.75
)

type lexicalEntry struct {
	chunkID   string
	termFreqs map[string]int
	length    int
}

type lexicalIndex struct {
	entries  []lexicalEntry
	docFreqs map[string]int
	totalLen int
}

// Lexical ranks chunks by BM25 term overlap. One inverted index per
// document id; document-frequency statistics never cross documents.
type Lexical struct {
	mu      sync.RWMutex
	indices map[string]*lexicalIndex
}

// NewLexical creates an empty lexical retriever.
func NewLexical() *Lexical {
	return &Lexical{indices: make(map[string]*lexicalIndex)}
}

// Add appends one chunk to the document's sub-index.
func (l *Lexical) Add(docID string, chunk models.Chunk) {
	tokens := tokenize(chunk.Text)
	freqs := make(map[string]int, len(tokens))
	for _, tok := range tokens {
		freqs[tok]++
	}

	l.mu.Lock()
	idx := l.indices[docID]
	if idx == nil {
		idx = &lexicalIndex{docFreqs: make(map[string]int)}
		l.indices[docID] = idx
	}
	idx.entries = append(idx.entries, lexicalEntry{
		chunkID:   chunk.ChunkID,
		termFreqs: freqs,
		length:    len(tokens),
	})
	idx.totalLen += len(tokens)
	for term := range freqs {
		idx.docFreqs[term]++
	}
	l.mu.Unlock()
}

// Build indexes all chunks for a document, replacing any existing sub-index.
func (l *Lexical) Build(docID string, chunks []models.Chunk) {
	l.Remove(docID)
	for _, chunk := range chunks {
		l.Add(docID, chunk)
	}
}

// Search scores the query against each selected document's sub-index and
// merges the hits by score descending, ties by ascending chunk id, capped
// at topK. Chunks with no term overlap are omitted.
func (l *Lexical) Search(ctx context.Context, query string, docIDs []string, topK int) ([]models.RetrievalResult, error) {
	queryTerms := tokenize(query)
	if len(queryTerms) == 0 {
		return nil, nil
	}

	l.mu.RLock()
	var results []models.RetrievalResult
	for _, docID := range docIDs {
		idx := l.indices[docID]
		if idx == nil || len(idx.entries) == 0 {
			continue
		}
		avgLen := float64(idx.totalLen) / float64(len(idx.entries))
		for _, entry := range idx.entries {
			score := bm25Score(queryTerms, entry, idx, avgLen)
			if score <= 0 {
				continue
			}
			results = append(results, models.RetrievalResult{
				ChunkID:    entry.chunkID,
				Score:      score,
				SourceType: models.SourceLexical,
			})
		}
	}
	l.mu.RUnlock()

	sortResults(results)
	return capResults(results, topK), nil
}

// Remove discards a document's sub-index.
func (l *Lexical) Remove(docID string) {
	l.mu.Lock()
	delete(l.indices, docID)
	l.mu.Unlock()
}

// Clear discards all sub-indices.
func (l *Lexical) Clear() {
	l.mu.Lock()
	l.indices = make(map[string]*lexicalIndex)
	l.mu.Unlock()
}

// IndexedChunks returns the number of chunks indexed for a document.
func (l *Lexical) IndexedChunks(docID string) int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if idx := l.indices[docID]; idx != nil {
		return len(idx.entries)
	}
	return 0
}

func bm25Score(queryTerms []string, entry lexicalEntry, idx *lexicalIndex, avgLen float64) float64 {
	n := float64(len(idx.entries))
	var score float64
	for _, term := range queryTerms {
		tf := float64(entry.termFreqs[term])
		if tf == 0 {
			continue
		}
		df := float64(idx.docFreqs[term])
		idf := math.Log(1 + (n-df+0.5)/(df+0.5))
		norm := bm25K1 * (1 - bm25B + bm25B*float64(entry.length)/avgLen)
		score += idf * tf * (bm25K1 + 1) / (tf + norm)
	}
	return score
}

// tokenize lowercases text and splits on non-alphanumeric runes.
func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
