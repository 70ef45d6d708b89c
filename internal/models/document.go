// ABOUTME: Document represents an uploaded file tracked by the chunk store
// ABOUTME: Created on upload, immutable, removed only by memory clear
package models

import "time"

// Document is the metadata record for one uploaded file.
type Document struct {
	DocID      string    `json:"doc_id"`
	Filename   string    `json:"filename"`
	ByteSize   int64     `json:"size"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// DocumentInfo is a Document plus the number of chunks currently stored
// for it, as returned by file listings.
type DocumentInfo struct {
	Document
	Chunks int `json:"chunks"`
}
