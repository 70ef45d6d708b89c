// ABOUTME: Background indexing pipeline turning uploaded text into searchable chunks
// ABOUTME: Tracks per-document job progress readable by status pollers
package index

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/harper/docresearch/internal/graph"
	"github.com/harper/docresearch/internal/models"
	"github.com/harper/docresearch/internal/retriever"
	"github.com/harper/docresearch/internal/storage"
)

// Pipeline runs document indexing in the background. Each Start call spawns
// one goroutine that chunks the text, persists the chunks, feeds both
// retriever indices, and extends the knowledge graph, updating a job record
// as it goes.
type Pipeline struct {
	store   *storage.Store
	dense   *retriever.Dense
	lexical *retriever.Lexical
	graph   *graph.Assembler
	gate    *sync.RWMutex
	log     zerolog.Logger
	size    int
	overlap int

	mu   sync.RWMutex
	jobs map[string]*models.IndexingJob
}

// NewPipeline wires a Pipeline. gate is the system-wide lock shared with
// memory clearing: indexing runs hold it for reading so a clear waits for
// in-flight jobs instead of racing them.
func NewPipeline(store *storage.Store, dense *retriever.Dense, lexical *retriever.Lexical, assembler *graph.Assembler, gate *sync.RWMutex, chunkSize, chunkOverlap int, log zerolog.Logger) *Pipeline {
	return &Pipeline{
		store:   store,
		dense:   dense,
		lexical: lexical,
		graph:   assembler,
		gate:    gate,
		log:     log.With().Str("component", "indexer").Logger(),
		size:    chunkSize,
		overlap: chunkOverlap,
		jobs:    make(map[string]*models.IndexingJob),
	}
}

// Start registers a pending job for doc and begins indexing text in the
// background. It returns immediately; poll Status for progress. The job is
// detached from the caller's context so an aborted upload request does not
// abandon a half-indexed document.
func (p *Pipeline) Start(ctx context.Context, doc models.Document, text string) {
	p.mu.Lock()
	p.jobs[doc.DocID] = &models.IndexingJob{
		DocID:  doc.DocID,
		Status: models.JobPending,
	}
	p.mu.Unlock()

	go p.run(context.WithoutCancel(ctx), doc, text)
}

func (p *Pipeline) run(ctx context.Context, doc models.Document, text string) {
	p.gate.RLock()
	defer p.gate.RUnlock()

	texts := ChunkText(text, p.size, p.overlap)

	p.update(doc.DocID, func(j *models.IndexingJob) {
		j.Status = models.JobIndexing
		j.TotalChunks = len(texts)
	})
	p.log.Info().Str("doc_id", doc.DocID).Int("chunks", len(texts)).Msg("indexing started")

	chunkIDs, err := p.store.Put(doc.DocID, texts)
	if err != nil {
		p.fail(doc.DocID, fmt.Errorf("persist chunks: %w", err))
		return
	}

	chunks := make([]models.Chunk, len(texts))
	for i := range texts {
		chunks[i] = models.Chunk{
			ChunkID:       chunkIDs[i],
			DocID:         doc.DocID,
			SequenceIndex: i,
			Text:          texts[i],
		}
	}

	for i, chunk := range chunks {
		if err := p.dense.Add(ctx, doc.DocID, chunk); err != nil {
			// Chunks indexed before the failure stay searchable.
			p.fail(doc.DocID, fmt.Errorf("embed chunk %d: %w", i, err))
			return
		}
		p.lexical.Add(doc.DocID, chunk)
		p.update(doc.DocID, func(j *models.IndexingJob) {
			j.ProcessedChunks++
		})
	}

	p.graph.AddDocument(ctx, doc, chunks)

	p.update(doc.DocID, func(j *models.IndexingJob) {
		j.Status = models.JobCompleted
	})
	p.log.Info().Str("doc_id", doc.DocID).Int("chunks", len(chunks)).Msg("indexing completed")
}

// Status returns a copy of the job record for docID.
func (p *Pipeline) Status(docID string) (models.IndexingJob, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	job, ok := p.jobs[docID]
	if !ok {
		return models.IndexingJob{}, false
	}
	return *job, true
}

// ClearJobs drops all job records. The caller must already hold the system
// gate for writing so no indexing run is mid-flight.
func (p *Pipeline) ClearJobs() {
	p.mu.Lock()
	p.jobs = make(map[string]*models.IndexingJob)
	p.mu.Unlock()
}

func (p *Pipeline) update(docID string, fn func(*models.IndexingJob)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if job, ok := p.jobs[docID]; ok {
		fn(job)
	}
}

func (p *Pipeline) fail(docID string, err error) {
	p.log.Error().Err(err).Str("doc_id", docID).Msg("indexing failed")
	p.update(docID, func(j *models.IndexingJob) {
		j.Status = models.JobFailed
		j.Error = err.Error()
	})
}
