// ABOUTME: Top-level system wiring uploads, indexing, research, and clearing
// ABOUTME: Owns the gate that makes memory clear stop-the-world
package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/harper/docresearch/internal/config"
	"github.com/harper/docresearch/internal/extract"
	"github.com/harper/docresearch/internal/graph"
	"github.com/harper/docresearch/internal/index"
	"github.com/harper/docresearch/internal/llm"
	"github.com/harper/docresearch/internal/models"
	"github.com/harper/docresearch/internal/research"
	"github.com/harper/docresearch/internal/retriever"
	"github.com/harper/docresearch/internal/storage"
	"github.com/harper/docresearch/internal/stream"
)

// ErrNoDocuments is returned when a research run is requested before any
// document has been uploaded.
var ErrNoDocuments = errors.New("no documents have been uploaded")

// ErrEmptyQuery is returned for a blank research question.
var ErrEmptyQuery = errors.New("query is empty")

// ErrUnknownDocument is returned when a research scope names a doc_id that
// does not exist.
var ErrUnknownDocument = errors.New("unknown document")

// System is the assembled document research service. All external surfaces
// (HTTP, MCP) go through it.
type System struct {
	cfg      *config.Config
	store    *storage.Store
	dense    *retriever.Dense
	lexical  *retriever.Lexical
	graph    *graph.Assembler
	pipeline *index.Pipeline
	loop     *research.Loop
	log      zerolog.Logger

	// gate serializes memory clearing against everything else: indexing
	// runs and research runs hold it for reading, Clear takes it for
	// writing.
	gate sync.RWMutex
}

// New wires a System from its collaborators. generator and embedder are
// typically the same OpenAI client.
func New(cfg *config.Config, store *storage.Store, generator llm.Generator, embedder llm.Embedder, log zerolog.Logger) *System {
	s := &System{
		cfg:   cfg,
		store: store,
		log:   log.With().Str("component", "core").Logger(),
	}
	s.dense = retriever.NewDense(embedder)
	s.lexical = retriever.NewLexical()
	s.graph = graph.New(generator, log)
	s.pipeline = index.NewPipeline(store, s.dense, s.lexical, s.graph, &s.gate, cfg.ChunkSize, cfg.ChunkOverlap, log)
	s.loop = research.NewLoop(generator, s.dense, s.lexical, store, s.graph, research.Options{
		MaxIterations: cfg.MaxIterations,
		TopK:          cfg.TopK,
		FusionK:       cfg.FusionK,
		DenseWeight:   cfg.FusionDenseWeight,
		LexicalWeight: cfg.FusionLexicalWeight,
	}, log)
	return s
}

// UploadResult is the immediate response to an upload; indexing continues
// in the background.
type UploadResult struct {
	DocID      string `json:"doc_id"`
	Filename   string `json:"filename"`
	Characters int    `json:"characters"`
	Chunks     int    `json:"chunks"`
}

// Upload extracts text from the file, registers the document, and starts a
// background indexing job for it. The chunk count in the result is an
// estimate; poll Status for the authoritative number.
func (s *System) Upload(ctx context.Context, filename string, data []byte) (UploadResult, error) {
	text, err := extract.Text(data, filename)
	if err != nil {
		return UploadResult{}, err
	}

	doc, err := s.store.CreateDocument(filename, int64(len(data)))
	if err != nil {
		return UploadResult{}, fmt.Errorf("register document: %w", err)
	}

	s.pipeline.Start(ctx, doc, text)
	s.log.Info().Str("doc_id", doc.DocID).Str("filename", filename).Msg("upload accepted")

	characters := utf8.RuneCountInString(text)
	return UploadResult{
		DocID:      doc.DocID,
		Filename:   filename,
		Characters: characters,
		Chunks:     index.EstimateChunks(characters, s.cfg.ChunkSize, s.cfg.ChunkOverlap),
	}, nil
}

// Status reports the indexing job for docID.
func (s *System) Status(docID string) (models.IndexingJob, bool) {
	return s.pipeline.Status(docID)
}

// Research starts a research run for question and returns its event
// stream. scope restricts the run to those document ids; empty means all
// documents. The run continues in the background regardless of what the
// caller does with the stream; the stream's buffer covers the run's
// bounded event count.
func (s *System) Research(ctx context.Context, question string, scope []string) (*stream.Stream, error) {
	if strings.TrimSpace(question) == "" {
		return nil, ErrEmptyQuery
	}
	docs, err := s.store.ListDocuments()
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	if len(docs) == 0 {
		return nil, ErrNoDocuments
	}
	if err := validateScope(scope, docs); err != nil {
		return nil, err
	}

	out := stream.New(s.cfg.MaxIterations + 2)
	go func() {
		s.gate.RLock()
		defer s.gate.RUnlock()
		s.loop.Run(context.WithoutCancel(ctx), question, scope, out)
	}()
	return out, nil
}

func validateScope(scope []string, docs []models.DocumentInfo) error {
	if len(scope) == 0 {
		return nil
	}
	known := make(map[string]bool, len(docs))
	for _, d := range docs {
		known[d.DocID] = true
	}
	for _, id := range scope {
		if !known[id] {
			return fmt.Errorf("%w: %s", ErrUnknownDocument, id)
		}
	}
	return nil
}

// ListFiles returns all uploaded documents with their stored chunk counts.
func (s *System) ListFiles() ([]models.DocumentInfo, error) {
	return s.store.ListDocuments()
}

// GraphSnapshot returns the current knowledge graph.
func (s *System) GraphSnapshot() models.GraphData {
	return s.graph.Snapshot()
}

// Clear wipes all documents, chunks, indices, jobs, and the knowledge
// graph. It waits for in-flight indexing and research runs to finish, then
// runs exclusively. Clearing an already empty system is a no-op.
func (s *System) Clear(ctx context.Context) error {
	s.gate.Lock()
	defer s.gate.Unlock()

	if err := s.store.Clear(); err != nil {
		return fmt.Errorf("clear store: %w", err)
	}
	s.dense.Clear()
	s.lexical.Clear()
	s.graph.Clear()
	s.pipeline.ClearJobs()
	s.log.Info().Msg("memory cleared")
	return nil
}
