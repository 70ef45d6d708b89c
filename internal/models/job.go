// ABOUTME: IndexingJob tracks the progress of one background indexing run
// ABOUTME: Status transitions are monotonically forward except to failed
package models

// JobStatus is the lifecycle state of an indexing job.
type JobStatus string

const (
	JobPending   JobStatus = "pending"
	JobIndexing  JobStatus = "indexing"
	JobCompleted JobStatus = "completed"
	JobFailed    JobStatus = "failed"
)

// Terminal reports whether the status is a terminal state.
func (s JobStatus) Terminal() bool {
	return s == JobCompleted || s == JobFailed
}

// IndexingJob is the progress record for one document's indexing run.
// There is at most one job per doc_id; it is mutated only by the indexing
// pipeline and read by status pollers.
type IndexingJob struct {
	DocID           string    `json:"doc_id"`
	Status          JobStatus `json:"status"`
	ProcessedChunks int       `json:"processed_chunks"`
	TotalChunks     int       `json:"total_chunks"`
	Error           string    `json:"error,omitempty"`
}
