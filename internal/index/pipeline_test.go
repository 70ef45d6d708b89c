// ABOUTME: Tests for the background indexing pipeline
// ABOUTME: Covers job lifecycle, progress monotonicity, and failure handling
package index

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/harper/docresearch/internal/graph"
	"github.com/harper/docresearch/internal/llm"
	"github.com/harper/docresearch/internal/models"
	"github.com/harper/docresearch/internal/retriever"
	"github.com/harper/docresearch/internal/storage"
)

type stubEmbedder struct {
	err error
}

func (s *stubEmbedder) Embed(_ context.Context, text string) ([]float64, error) {
	if s.err != nil {
		return nil, s.err
	}
	return []float64{1, float64(len(text))}, nil
}

type stubGenerator struct{}

func (stubGenerator) Generate(_ context.Context, _ string, _ llm.GenerateConfig) (string, error) {
	return `[]`, nil
}

type testEnv struct {
	store    *storage.Store
	dense    *retriever.Dense
	lexical  *retriever.Lexical
	graph    *graph.Assembler
	pipeline *Pipeline
}

func newTestEnv(t *testing.T, embedder llm.Embedder) *testEnv {
	t.Helper()
	store, err := storage.OpenInMemory()
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	dense := retriever.NewDense(embedder)
	lexical := retriever.NewLexical()
	assembler := graph.New(stubGenerator{}, zerolog.Nop())
	var gate sync.RWMutex
	pipeline := NewPipeline(store, dense, lexical, assembler, &gate, 50, 10, zerolog.Nop())

	return &testEnv{store: store, dense: dense, lexical: lexical, graph: assembler, pipeline: pipeline}
}

func waitTerminal(t *testing.T, p *Pipeline, docID string) models.IndexingJob {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		job, ok := p.Status(docID)
		if ok && job.Status.Terminal() {
			return job
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("job for %s did not reach a terminal state", docID)
	return models.IndexingJob{}
}

func TestPipeline_IndexesDocument(t *testing.T) {
	env := newTestEnv(t, &stubEmbedder{})
	doc, err := env.store.CreateDocument("report.txt", 100)
	if err != nil {
		t.Fatalf("create document: %v", err)
	}

	text := strings.Repeat("the quick brown fox jumps over the lazy dog ", 4)
	env.pipeline.Start(context.Background(), doc, text)

	job := waitTerminal(t, env.pipeline, doc.DocID)
	if job.Status != models.JobCompleted {
		t.Fatalf("status = %s (error %q), want completed", job.Status, job.Error)
	}
	if job.TotalChunks < 2 {
		t.Fatalf("TotalChunks = %d, want at least 2", job.TotalChunks)
	}
	if job.ProcessedChunks != job.TotalChunks {
		t.Errorf("ProcessedChunks = %d, want %d", job.ProcessedChunks, job.TotalChunks)
	}

	count, err := env.store.ChunkCount(doc.DocID)
	if err != nil {
		t.Fatalf("chunk count: %v", err)
	}
	if count != job.TotalChunks {
		t.Errorf("stored chunks = %d, want %d", count, job.TotalChunks)
	}
	if got := env.dense.IndexedChunks(doc.DocID); got != job.TotalChunks {
		t.Errorf("dense index has %d chunks, want %d", got, job.TotalChunks)
	}
	if got := env.lexical.IndexedChunks(doc.DocID); got != job.TotalChunks {
		t.Errorf("lexical index has %d chunks, want %d", got, job.TotalChunks)
	}
	if got := env.graph.Snapshot().Stats.TotalDocuments; got != 1 {
		t.Errorf("graph documents = %d, want 1", got)
	}
}

func TestPipeline_EmbeddingFailure(t *testing.T) {
	env := newTestEnv(t, &stubEmbedder{err: errors.New("embedding service down")})
	doc, err := env.store.CreateDocument("report.txt", 100)
	if err != nil {
		t.Fatalf("create document: %v", err)
	}

	env.pipeline.Start(context.Background(), doc, strings.Repeat("word ", 40))

	job := waitTerminal(t, env.pipeline, doc.DocID)
	if job.Status != models.JobFailed {
		t.Fatalf("status = %s, want failed", job.Status)
	}
	if job.Error == "" {
		t.Error("failed job has no error message")
	}
	if job.ProcessedChunks != 0 {
		t.Errorf("ProcessedChunks = %d, want 0", job.ProcessedChunks)
	}

	// Persisted chunks are kept even though indexing stopped.
	count, err := env.store.ChunkCount(doc.DocID)
	if err != nil {
		t.Fatalf("chunk count: %v", err)
	}
	if count == 0 {
		t.Error("expected persisted chunks after embedding failure")
	}
}

func TestPipeline_StatusUnknownDoc(t *testing.T) {
	env := newTestEnv(t, &stubEmbedder{})
	if _, ok := env.pipeline.Status("doc_missing"); ok {
		t.Error("Status() reported a job for an unknown doc_id")
	}
}

func TestPipeline_ProgressMonotonic(t *testing.T) {
	env := newTestEnv(t, &stubEmbedder{})
	doc, err := env.store.CreateDocument("report.txt", 100)
	if err != nil {
		t.Fatalf("create document: %v", err)
	}

	env.pipeline.Start(context.Background(), doc, strings.Repeat("alpha beta gamma ", 30))

	last := -1
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		job, ok := env.pipeline.Status(doc.DocID)
		if !ok {
			t.Fatal("job disappeared during indexing")
		}
		if job.ProcessedChunks < last {
			t.Fatalf("progress went backwards: %d -> %d", last, job.ProcessedChunks)
		}
		last = job.ProcessedChunks
		if job.Status.Terminal() {
			return
		}
	}
	t.Fatal("job never finished")
}

func TestPipeline_ClearJobs(t *testing.T) {
	env := newTestEnv(t, &stubEmbedder{})
	doc, err := env.store.CreateDocument("report.txt", 100)
	if err != nil {
		t.Fatalf("create document: %v", err)
	}

	env.pipeline.Start(context.Background(), doc, strings.Repeat("word ", 40))
	waitTerminal(t, env.pipeline, doc.DocID)

	env.pipeline.ClearJobs()
	if _, ok := env.pipeline.Status(doc.DocID); ok {
		t.Error("job survived ClearJobs")
	}
}
