// ABOUTME: SQLite-backed chunk store, the single source of truth for chunk text
// ABOUTME: Uses modernc.org/sqlite for pure-Go SQLite support
package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/harper/docresearch/internal/models"
	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a document or chunk id is unknown.
var ErrNotFound = errors.New("not found")

// Store persists documents and their chunks. All other components read
// chunk text from here; none of them keeps its own copy beyond a single
// retrieval round.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens or creates a SQLite chunk store at the given path.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	// WAL mode so status pollers and research runs can read while the
	// indexing pipeline writes.
	conn, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := conn.Ping(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &Store{db: conn, path: path}
	if err := s.initSchema(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return s, nil
}

// OpenInMemory creates an in-memory chunk store (for testing).
func OpenInMemory() (*Store, error) {
	conn, err := sql.Open("sqlite", ":memory:?_pragma=foreign_keys(ON)")
	if err != nil {
		return nil, fmt.Errorf("failed to open in-memory database: %w", err)
	}

	s := &Store{db: conn, path: ":memory:"}
	if err := s.initSchema(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return s, nil
}

func (s *Store) initSchema() error {
	_, err := s.db.Exec(Schema)
	return err
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// CreateDocument inserts a new document record and returns it.
func (s *Store) CreateDocument(filename string, byteSize int64) (models.Document, error) {
	doc := models.Document{
		DocID:      "doc_" + uuid.New().String(),
		Filename:   filename,
		ByteSize:   byteSize,
		UploadedAt: time.Now().UTC(),
	}

	_, err := s.db.Exec(`
		INSERT INTO documents (id, filename, byte_size, uploaded_at)
		VALUES (?, ?, ?, ?)
	`, doc.DocID, doc.Filename, doc.ByteSize, doc.UploadedAt)
	if err != nil {
		return models.Document{}, fmt.Errorf("create document: %w", err)
	}

	return doc, nil
}

// GetDocument retrieves a document by id.
func (s *Store) GetDocument(docID string) (models.Document, error) {
	var doc models.Document
	err := s.db.QueryRow(`
		SELECT id, filename, byte_size, uploaded_at FROM documents WHERE id = ?
	`, docID).Scan(&doc.DocID, &doc.Filename, &doc.ByteSize, &doc.UploadedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Document{}, fmt.Errorf("document %s: %w", docID, ErrNotFound)
	}
	if err != nil {
		return models.Document{}, fmt.Errorf("get document: %w", err)
	}
	return doc, nil
}

// Put stores an ordered sequence of chunk texts for a document and returns
// the generated chunk ids in order. The document must already exist.
func (s *Store) Put(docID string, texts []string) ([]string, error) {
	if _, err := s.GetDocument(docID); err != nil {
		return nil, err
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin put: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	ids := make([]string, len(texts))
	for i, text := range texts {
		ids[i] = "chunk_" + uuid.New().String()
		if _, err := tx.Exec(`
			INSERT INTO chunks (id, doc_id, sequence_index, content)
			VALUES (?, ?, ?, ?)
		`, ids[i], docID, i, text); err != nil {
			return nil, fmt.Errorf("insert chunk %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit put: %w", err)
	}

	return ids, nil
}

// Get retrieves a single chunk by id.
func (s *Store) Get(chunkID string) (models.Chunk, error) {
	var c models.Chunk
	err := s.db.QueryRow(`
		SELECT id, doc_id, sequence_index, content FROM chunks WHERE id = ?
	`, chunkID).Scan(&c.ChunkID, &c.DocID, &c.SequenceIndex, &c.Text)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Chunk{}, fmt.Errorf("chunk %s: %w", chunkID, ErrNotFound)
	}
	if err != nil {
		return models.Chunk{}, fmt.Errorf("get chunk: %w", err)
	}
	return c, nil
}

// ListByDoc returns all chunks for a document ordered by sequence index.
func (s *Store) ListByDoc(docID string) ([]models.Chunk, error) {
	if _, err := s.GetDocument(docID); err != nil {
		return nil, err
	}

	rows, err := s.db.Query(`
		SELECT id, doc_id, sequence_index, content
		FROM chunks
		WHERE doc_id = ?
		ORDER BY sequence_index ASC
	`, docID)
	if err != nil {
		return nil, fmt.Errorf("list chunks: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var chunks []models.Chunk
	for rows.Next() {
		var c models.Chunk
		if err := rows.Scan(&c.ChunkID, &c.DocID, &c.SequenceIndex, &c.Text); err != nil {
			return nil, fmt.Errorf("scan chunk: %w", err)
		}
		chunks = append(chunks, c)
	}

	return chunks, rows.Err()
}

// ChunkCount returns the number of chunks stored for a document.
func (s *Store) ChunkCount(docID string) (int, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM chunks WHERE doc_id = ?`, docID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count chunks: %w", err)
	}
	return n, nil
}

// DeleteDoc removes a document and its chunks.
func (s *Store) DeleteDoc(docID string) error {
	res, err := s.db.Exec(`DELETE FROM documents WHERE id = ?`, docID)
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("document %s: %w", docID, ErrNotFound)
	}
	return nil
}

// ListDocuments returns all documents with their chunk counts, oldest first.
func (s *Store) ListDocuments() ([]models.DocumentInfo, error) {
	rows, err := s.db.Query(`
		SELECT d.id, d.filename, d.byte_size, d.uploaded_at, COUNT(c.id)
		FROM documents d
		LEFT JOIN chunks c ON c.doc_id = d.id
		GROUP BY d.id
		ORDER BY d.uploaded_at ASC, d.id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer func() { _ = rows.Close() }()

	infos := []models.DocumentInfo{}
	for rows.Next() {
		var info models.DocumentInfo
		if err := rows.Scan(&info.DocID, &info.Filename, &info.ByteSize, &info.UploadedAt, &info.Chunks); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		infos = append(infos, info)
	}

	return infos, rows.Err()
}

// Clear removes all documents and chunks.
func (s *Store) Clear() error {
	// Chunks cascade from documents
	if _, err := s.db.Exec(`DELETE FROM documents`); err != nil {
		return fmt.Errorf("clear store: %w", err)
	}
	return nil
}
