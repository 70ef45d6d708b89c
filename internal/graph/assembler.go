// ABOUTME: Knowledge graph assembler built from documents, chunks, and entities
// ABOUTME: Maintains per-document subgraphs and serves consistent snapshots
package graph

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"unicode"

	"github.com/rs/zerolog"

	"github.com/harper/docresearch/internal/llm"
	"github.com/harper/docresearch/internal/models"
)

// Visual attributes per node type, matched by the web frontend.
const (
	documentColor = "#4A90E2"
	documentSize  = 20
	chunkColor    = "#50C878"
	chunkSize     = 12
	entityColor   = "#FFB347"
	entitySize    = 8
)

// maxEntitiesPerChunk caps how many entities we keep from each chunk so
// the graph stays readable for large documents.
const maxEntitiesPerChunk = 3

const chunkLabelLength = 60

const entityPrompt = `Extract up to %d named entities (people, places, organizations, key concepts) from the following text.
Respond with ONLY a JSON array of strings, for example: ["Entity One", "Entity Two"]

Text:
%s`

// Assembler builds and holds the knowledge graph. Each document contributes
// an independent subgraph, so re-adding or removing a document never
// disturbs the nodes of another.
type Assembler struct {
	generator llm.Generator
	log       zerolog.Logger

	mu   sync.RWMutex
	docs map[string]*docGraph
}

// docGraph is the subgraph contributed by a single document.
type docGraph struct {
	nodes       []models.GraphNode
	edges       []models.GraphEdge
	chunkCount  int
	entityCount int
}

// New returns an empty Assembler. The generator extracts entities from
// chunk text; entity extraction degrades gracefully when it fails.
func New(generator llm.Generator, log zerolog.Logger) *Assembler {
	return &Assembler{
		generator: generator,
		log:       log.With().Str("component", "graph").Logger(),
		docs:      make(map[string]*docGraph),
	}
}

// AddDocument builds the subgraph for doc from its chunks and installs it,
// replacing any previous subgraph for the same doc_id. Entity extraction
// failures are logged and skipped; the document and chunk structure is
// always added.
func (a *Assembler) AddDocument(ctx context.Context, doc models.Document, chunks []models.Chunk) {
	dg := &docGraph{chunkCount: len(chunks)}

	dg.nodes = append(dg.nodes, models.GraphNode{
		ID:    doc.DocID,
		Type:  models.NodeDocument,
		Label: doc.Filename,
		Size:  documentSize,
		Color: documentColor,
	})

	// Entity nodes are deduplicated per document by lowercased label.
	entityIDs := make(map[string]string)

	for i, chunk := range chunks {
		dg.nodes = append(dg.nodes, models.GraphNode{
			ID:    chunk.ChunkID,
			Type:  models.NodeChunk,
			Label: chunkLabel(chunk.Text),
			Size:  chunkSize,
			Color: chunkColor,
		})
		dg.edges = append(dg.edges, models.GraphEdge{
			ID:     "edge_contains_" + chunk.ChunkID,
			Source: doc.DocID,
			Target: chunk.ChunkID,
			Label:  models.EdgeContains,
		})
		if i > 0 {
			dg.edges = append(dg.edges, models.GraphEdge{
				ID:     "edge_next_" + chunks[i-1].ChunkID,
				Source: chunks[i-1].ChunkID,
				Target: chunk.ChunkID,
				Label:  models.EdgeNext,
			})
		}

		entities, err := a.extractEntities(ctx, chunk.Text)
		if err != nil {
			a.log.Warn().Err(err).Str("chunk_id", chunk.ChunkID).
				Msg("entity extraction failed, skipping chunk entities")
			continue
		}

		for _, label := range entities {
			key := strings.ToLower(strings.TrimSpace(label))
			if key == "" {
				continue
			}
			entityID, seen := entityIDs[key]
			if !seen {
				entityID = "entity_" + doc.DocID + "_" + slugify(key)
				entityIDs[key] = entityID
				dg.nodes = append(dg.nodes, models.GraphNode{
					ID:    entityID,
					Type:  models.NodeEntity,
					Label: strings.TrimSpace(label),
					Size:  entitySize,
					Color: entityColor,
				})
				dg.entityCount++
			}
			dg.edges = append(dg.edges, models.GraphEdge{
				ID:     "edge_mentions_" + chunk.ChunkID + "_" + slugify(key),
				Source: chunk.ChunkID,
				Target: entityID,
				Label:  models.EdgeMentions,
			})
		}
	}

	a.mu.Lock()
	a.docs[doc.DocID] = dg
	a.mu.Unlock()
}

// RemoveDocument deletes the subgraph contributed by docID, if any.
func (a *Assembler) RemoveDocument(docID string) {
	a.mu.Lock()
	delete(a.docs, docID)
	a.mu.Unlock()
}

// Clear removes all subgraphs.
func (a *Assembler) Clear() {
	a.mu.Lock()
	a.docs = make(map[string]*docGraph)
	a.mu.Unlock()
}

// Snapshot returns a consistent copy of the whole graph. Documents are
// ordered by doc_id so repeated snapshots of the same state are identical.
func (a *Assembler) Snapshot() models.GraphData {
	a.mu.RLock()
	defer a.mu.RUnlock()

	docIDs := make([]string, 0, len(a.docs))
	for id := range a.docs {
		docIDs = append(docIDs, id)
	}
	sort.Strings(docIDs)

	data := models.GraphData{
		Nodes: []models.GraphNode{},
		Edges: []models.GraphEdge{},
	}
	for _, id := range docIDs {
		dg := a.docs[id]
		data.Nodes = append(data.Nodes, dg.nodes...)
		data.Edges = append(data.Edges, dg.edges...)
		data.Stats.TotalChunks += dg.chunkCount
		data.Stats.TotalEntities += dg.entityCount
	}
	data.Stats.TotalDocuments = len(docIDs)
	return data
}

func (a *Assembler) extractEntities(ctx context.Context, text string) ([]string, error) {
	prompt := fmt.Sprintf(entityPrompt, maxEntitiesPerChunk, text)
	raw, err := a.generator.Generate(ctx, prompt, llm.GenerateConfig{
		Temperature: 0,
		MaxTokens:   200,
	})
	if err != nil {
		return nil, err
	}

	var entities []string
	if err := json.Unmarshal([]byte(llm.CleanJSONResponse(raw)), &entities); err != nil {
		return nil, fmt.Errorf("parse entity response: %w", err)
	}
	if len(entities) > maxEntitiesPerChunk {
		entities = entities[:maxEntitiesPerChunk]
	}
	return entities, nil
}

// chunkLabel derives a short display label from chunk text: the first
// sentence, truncated.
func chunkLabel(text string) string {
	text = strings.TrimSpace(text)
	if i := strings.IndexAny(text, ".!?"); i > 0 && i < chunkLabelLength {
		return text[:i+1]
	}
	runes := []rune(text)
	if len(runes) <= chunkLabelLength {
		return text
	}
	return string(runes[:chunkLabelLength]) + "..."
}

// slugify turns an entity label into a stable node id fragment.
func slugify(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		case b.Len() > 0 && b.String()[b.Len()-1] != '_':
			b.WriteByte('_')
		}
	}
	return strings.Trim(b.String(), "_")
}
