// ABOUTME: Tests for the SQLite chunk store
// ABOUTME: Verifies document/chunk CRUD, ordering, not-found errors, and clear
package storage

import (
	"errors"
	"fmt"
	"testing"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := OpenInMemory()
	if err != nil {
		t.Fatalf("OpenInMemory() error = %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestCreateAndGetDocument(t *testing.T) {
	s := newTestStore(t)

	doc, err := s.CreateDocument("report.pdf", 1234)
	if err != nil {
		t.Fatalf("CreateDocument() error = %v", err)
	}
	if doc.DocID == "" {
		t.Fatal("expected non-empty doc id")
	}
	if doc.Filename != "report.pdf" || doc.ByteSize != 1234 {
		t.Errorf("document = %+v, want filename report.pdf size 1234", doc)
	}

	got, err := s.GetDocument(doc.DocID)
	if err != nil {
		t.Fatalf("GetDocument() error = %v", err)
	}
	if got.DocID != doc.DocID || got.Filename != doc.Filename {
		t.Errorf("GetDocument() = %+v, want %+v", got, doc)
	}
}

func TestGetDocument_NotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.GetDocument("doc_missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("GetDocument() error = %v, want ErrNotFound", err)
	}
}

func TestPutAndListByDoc_PreservesOrder(t *testing.T) {
	s := newTestStore(t)

	doc, err := s.CreateDocument("notes.txt", 10)
	if err != nil {
		t.Fatalf("CreateDocument() error = %v", err)
	}

	texts := []string{"first chunk", "second chunk", "third chunk"}
	ids, err := s.Put(doc.DocID, texts)
	if err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if len(ids) != 3 {
		t.Fatalf("Put() returned %d ids, want 3", len(ids))
	}

	chunks, err := s.ListByDoc(doc.DocID)
	if err != nil {
		t.Fatalf("ListByDoc() error = %v", err)
	}
	if len(chunks) != 3 {
		t.Fatalf("ListByDoc() returned %d chunks, want 3", len(chunks))
	}
	for i, c := range chunks {
		if c.SequenceIndex != i {
			t.Errorf("chunk %d sequence = %d, want %d", i, c.SequenceIndex, i)
		}
		if c.Text != texts[i] {
			t.Errorf("chunk %d text = %q, want %q", i, c.Text, texts[i])
		}
		if c.ChunkID != ids[i] {
			t.Errorf("chunk %d id = %q, want %q", i, c.ChunkID, ids[i])
		}
		if c.DocID != doc.DocID {
			t.Errorf("chunk %d doc = %q, want %q", i, c.DocID, doc.DocID)
		}
	}
}

func TestPut_UnknownDocument(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Put("doc_missing", []string{"text"})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Put() error = %v, want ErrNotFound", err)
	}
}

func TestGet_Chunk(t *testing.T) {
	s := newTestStore(t)

	doc, _ := s.CreateDocument("a.txt", 1)
	ids, err := s.Put(doc.DocID, []string{"hello world"})
	if err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	c, err := s.Get(ids[0])
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if c.Text != "hello world" {
		t.Errorf("Get() text = %q, want %q", c.Text, "hello world")
	}

	if _, err := s.Get("chunk_missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get(missing) error = %v, want ErrNotFound", err)
	}
}

func TestDeleteDoc_CascadesChunks(t *testing.T) {
	s := newTestStore(t)

	doc, _ := s.CreateDocument("a.txt", 1)
	ids, _ := s.Put(doc.DocID, []string{"one", "two"})

	if err := s.DeleteDoc(doc.DocID); err != nil {
		t.Fatalf("DeleteDoc() error = %v", err)
	}

	if _, err := s.GetDocument(doc.DocID); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetDocument after delete error = %v, want ErrNotFound", err)
	}
	if _, err := s.Get(ids[0]); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get chunk after delete error = %v, want ErrNotFound", err)
	}

	if err := s.DeleteDoc(doc.DocID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second DeleteDoc error = %v, want ErrNotFound", err)
	}
}

func TestListDocuments_IncludesChunkCounts(t *testing.T) {
	s := newTestStore(t)

	docA, _ := s.CreateDocument("a.txt", 1)
	docB, _ := s.CreateDocument("b.txt", 2)
	if _, err := s.Put(docA.DocID, []string{"1", "2", "3"}); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	infos, err := s.ListDocuments()
	if err != nil {
		t.Fatalf("ListDocuments() error = %v", err)
	}
	if len(infos) != 2 {
		t.Fatalf("ListDocuments() returned %d, want 2", len(infos))
	}

	counts := map[string]int{}
	for _, info := range infos {
		counts[info.DocID] = info.Chunks
	}
	if counts[docA.DocID] != 3 {
		t.Errorf("doc A chunks = %d, want 3", counts[docA.DocID])
	}
	if counts[docB.DocID] != 0 {
		t.Errorf("doc B chunks = %d, want 0", counts[docB.DocID])
	}
}

func TestClear_IsIdempotent(t *testing.T) {
	s := newTestStore(t)

	doc, _ := s.CreateDocument("a.txt", 1)
	if _, err := s.Put(doc.DocID, []string{"one"}); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	for i := 0; i < 2; i++ {
		if err := s.Clear(); err != nil {
			t.Fatalf("Clear() #%d error = %v", i+1, err)
		}
		infos, err := s.ListDocuments()
		if err != nil {
			t.Fatalf("ListDocuments() error = %v", err)
		}
		if len(infos) != 0 {
			t.Errorf("after Clear() #%d: %d documents remain", i+1, len(infos))
		}
	}
}

func TestPut_ManyChunks(t *testing.T) {
	s := newTestStore(t)

	doc, _ := s.CreateDocument("big.txt", 100)
	texts := make([]string, 50)
	for i := range texts {
		texts[i] = fmt.Sprintf("chunk number %d", i)
	}

	if _, err := s.Put(doc.DocID, texts); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	n, err := s.ChunkCount(doc.DocID)
	if err != nil {
		t.Fatalf("ChunkCount() error = %v", err)
	}
	if n != 50 {
		t.Errorf("ChunkCount() = %d, want 50", n)
	}
}
