// ABOUTME: End-to-end tests for the assembled system
// ABOUTME: Upload through indexing, research runs, and stop-the-world clear
package core

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/harper/docresearch/internal/config"
	"github.com/harper/docresearch/internal/extract"
	"github.com/harper/docresearch/internal/llm"
	"github.com/harper/docresearch/internal/storage"
	"github.com/harper/docresearch/internal/stream"
)

// routingGenerator answers by prompt kind so one fake serves entity
// extraction, reflection, and synthesis.
type routingGenerator struct{}

func (routingGenerator) Generate(_ context.Context, prompt string, _ llm.GenerateConfig) (string, error) {
	switch {
	case strings.Contains(prompt, "named entities"):
		return `["Quarterly Review"]`, nil
	case strings.Contains(prompt, "JSON object"):
		return `{"thought": "The evidence covers the question.", "sufficient": true, "refined_query": ""}`, nil
	default:
		return "The review happens every quarter.", nil
	}
}

type stubEmbedder struct{}

func (stubEmbedder) Embed(_ context.Context, text string) ([]float64, error) {
	return []float64{1, float64(len(text) % 7), float64(len(text) % 13)}, nil
}

func newTestSystem(t *testing.T) *System {
	t.Helper()
	store, err := storage.OpenInMemory()
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	cfg := &config.Config{
		ChunkSize:           60,
		ChunkOverlap:        10,
		MaxIterations:       3,
		TopK:                8,
		FusionK:             60,
		FusionDenseWeight:   1,
		FusionLexicalWeight: 1,
	}
	return New(cfg, store, routingGenerator{}, stubEmbedder{}, zerolog.Nop())
}

func uploadAndWait(t *testing.T, s *System, filename, text string) UploadResult {
	t.Helper()
	res, err := s.Upload(context.Background(), filename, []byte(text))
	if err != nil {
		t.Fatalf("upload: %v", err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		job, ok := s.Status(res.DocID)
		if ok && job.Status.Terminal() {
			if job.Error != "" {
				t.Fatalf("indexing failed: %s", job.Error)
			}
			return res
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("indexing never finished")
	return UploadResult{}
}

const sampleText = "The quarterly review meets on the first Tuesday of the month. " +
	"Every team prepares figures beforehand. The session runs for an hour and " +
	"ends with action items assigned to owners."

func TestSystem_UploadAndIndex(t *testing.T) {
	s := newTestSystem(t)
	res := uploadAndWait(t, s, "process.txt", sampleText)

	if res.DocID == "" || res.Filename != "process.txt" {
		t.Errorf("unexpected upload result: %+v", res)
	}
	if res.Characters != len(sampleText) {
		t.Errorf("characters = %d, want %d", res.Characters, len(sampleText))
	}
	if res.Chunks < 2 {
		t.Errorf("chunk estimate = %d, want at least 2", res.Chunks)
	}

	files, err := s.ListFiles()
	if err != nil {
		t.Fatalf("list files: %v", err)
	}
	if len(files) != 1 {
		t.Fatalf("listed %d files, want 1", len(files))
	}
	if files[0].Chunks < 2 {
		t.Errorf("stored chunks = %d, want at least 2", files[0].Chunks)
	}
	if got := s.GraphSnapshot().Stats.TotalDocuments; got != 1 {
		t.Errorf("graph documents = %d, want 1", got)
	}
}

func TestSystem_ResearchEndToEnd(t *testing.T) {
	s := newTestSystem(t)
	uploadAndWait(t, s, "process.txt", sampleText)

	out, err := s.Research(context.Background(), "How often does the review meet?", nil)
	if err != nil {
		t.Fatalf("research: %v", err)
	}

	var events []stream.Event
	for e := range out.Events() {
		events = append(events, e)
	}
	if len(events) < 2 {
		t.Fatalf("got %d events, want thinking and answer", len(events))
	}
	if events[0].Type != stream.EventThinking {
		t.Errorf("first event = %s, want thinking", events[0].Type)
	}

	last := events[len(events)-1]
	if last.Type != stream.EventAnswer {
		t.Fatalf("final event = %s, want answer", last.Type)
	}
	if last.Answer.Answer == "" {
		t.Error("answer is empty")
	}
	if last.Answer.RetrievedChunksCount == 0 {
		t.Error("no chunks retrieved")
	}
	if len(last.Answer.GraphData.Nodes) == 0 {
		t.Error("answer carries no graph data")
	}
}

func TestSystem_ResearchScopeIsolation(t *testing.T) {
	s := newTestSystem(t)
	resA := uploadAndWait(t, s, "meetings.txt", sampleText)
	uploadAndWait(t, s, "deploys.txt", "Deployments run nightly from the main branch. "+
		"A failed deployment is rolled back automatically and the owning team is paged.")

	out, err := s.Research(context.Background(), "How often does the review meet?", []string{resA.DocID})
	if err != nil {
		t.Fatalf("research: %v", err)
	}

	var answerEvent *stream.Event
	for e := range out.Events() {
		if e.Type == stream.EventAnswer {
			ev := e
			answerEvent = &ev
		}
	}
	if answerEvent == nil {
		t.Fatal("no answer event")
	}
	if len(answerEvent.Answer.RetrievalDetails) == 0 {
		t.Fatal("scoped run retrieved nothing")
	}
	for _, d := range answerEvent.Answer.RetrievalDetails {
		if d.DocID != resA.DocID {
			t.Errorf("detail references %s, outside scope %s", d.DocID, resA.DocID)
		}
	}
}

func TestSystem_ResearchUnknownScope(t *testing.T) {
	s := newTestSystem(t)
	uploadAndWait(t, s, "process.txt", sampleText)

	if _, err := s.Research(context.Background(), "anything?", []string{"doc_missing"}); !errors.Is(err, ErrUnknownDocument) {
		t.Errorf("error = %v, want ErrUnknownDocument", err)
	}
}

func TestSystem_ResearchRequiresDocuments(t *testing.T) {
	s := newTestSystem(t)
	if _, err := s.Research(context.Background(), "anything?", nil); !errors.Is(err, ErrNoDocuments) {
		t.Errorf("error = %v, want ErrNoDocuments", err)
	}
}

func TestSystem_ResearchRejectsEmptyQuery(t *testing.T) {
	s := newTestSystem(t)
	if _, err := s.Research(context.Background(), "   ", nil); !errors.Is(err, ErrEmptyQuery) {
		t.Errorf("error = %v, want ErrEmptyQuery", err)
	}
}

func TestSystem_ClearIsIdempotent(t *testing.T) {
	s := newTestSystem(t)
	res := uploadAndWait(t, s, "process.txt", sampleText)

	if err := s.Clear(context.Background()); err != nil {
		t.Fatalf("clear: %v", err)
	}

	files, err := s.ListFiles()
	if err != nil {
		t.Fatalf("list files: %v", err)
	}
	if len(files) != 0 {
		t.Errorf("listed %d files after clear, want 0", len(files))
	}
	if _, ok := s.Status(res.DocID); ok {
		t.Error("indexing job survived clear")
	}
	if got := s.GraphSnapshot(); len(got.Nodes) != 0 {
		t.Errorf("graph has %d nodes after clear, want 0", len(got.Nodes))
	}

	if err := s.Clear(context.Background()); err != nil {
		t.Errorf("second clear: %v", err)
	}
}

func TestSystem_UploadRejectsUnreadable(t *testing.T) {
	s := newTestSystem(t)

	if _, err := s.Upload(context.Background(), "data.bin", []byte(strings.Repeat("x", 100))); !errors.Is(err, extract.ErrExtraction) {
		t.Errorf("error = %v, want ErrExtraction", err)
	}
	if _, err := s.Upload(context.Background(), "tiny.txt", []byte("short")); !errors.Is(err, extract.ErrExtraction) {
		t.Errorf("error = %v, want ErrExtraction", err)
	}
}
