// ABOUTME: Ordered event stream carrying a research run's progress to one caller
// ABOUTME: Any number of thinking events, then exactly one answer or error
package stream

import (
	"sync"

	"github.com/harper/docresearch/internal/models"
)

// EventType identifies the kind of a stream event.
type EventType string

const (
	EventThinking EventType = "thinking"
	EventAnswer   EventType = "answer"
	EventError    EventType = "error"
)

// Answer is the payload of the single answer event of a run.
type Answer struct {
	Answer               string                   `json:"answer"`
	GraphData            models.GraphData         `json:"graph_data"`
	RetrievalDetails     []models.RetrievalDetail `json:"retrieval_details"`
	RetrievedChunksCount int                      `json:"retrieved_chunks_count"`
}

// Event is one item on a research run's event stream.
type Event struct {
	Type     EventType            `json:"type"`
	Thinking *models.ThinkingStep `json:"thinking,omitempty"`
	Answer   *Answer              `json:"answer,omitempty"`
	Message  string               `json:"message,omitempty"`
}

// Terminal reports whether the event ends the run.
func (e Event) Terminal() bool {
	return e.Type == EventAnswer || e.Type == EventError
}

// Stream is a single research run's event sequence. Events are delivered
// in emission order; the terminal event is always last, after which the
// channel is closed. The channel is buffered so the producing loop never
// blocks on a slow or departed consumer: capacity must cover the bounded
// number of events a run can emit.
type Stream struct {
	mu     sync.Mutex
	ch     chan Event
	closed bool
}

// New creates a stream able to hold up to maxEvents without a consumer.
func New(maxEvents int) *Stream {
	if maxEvents < 2 {
		maxEvents = 2
	}
	return &Stream{ch: make(chan Event, maxEvents)}
}

// Events returns the receive side of the stream. It is closed after the
// terminal event.
func (s *Stream) Events() <-chan Event {
	return s.ch
}

// Thinking emits one reasoning step. Steps must be emitted in iteration
// order; emitting after the terminal event is a no-op.
func (s *Stream) Thinking(step models.ThinkingStep) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	select {
	case s.ch <- Event{Type: EventThinking, Thinking: &step}:
	default:
		// Buffer full means the run emitted more events than it declared;
		// drop rather than block the research loop.
	}
}

// Done emits the final answer and closes the stream. Only the first
// terminal call has any effect.
func (s *Stream) Done(answer Answer) {
	s.terminate(Event{Type: EventAnswer, Answer: &answer})
}

// Fail emits an error event and closes the stream. Only the first
// terminal call has any effect.
func (s *Stream) Fail(message string) {
	s.terminate(Event{Type: EventError, Message: message})
}

func (s *Stream) terminate(e Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	select {
	case s.ch <- e:
	default:
	}
	close(s.ch)
}
