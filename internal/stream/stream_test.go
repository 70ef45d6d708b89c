// ABOUTME: Tests for the research event stream
// ABOUTME: Verifies ordering, single terminal event, and non-blocking emission
package stream

import (
	"testing"

	"github.com/harper/docresearch/internal/models"
)

func TestStream_OrderPreserved(t *testing.T) {
	s := New(10)

	for i := 1; i <= 3; i++ {
		s.Thinking(models.ThinkingStep{Iteration: i, Thought: "step"})
	}
	s.Done(Answer{Answer: "final"})

	var events []Event
	for e := range s.Events() {
		events = append(events, e)
	}

	if len(events) != 4 {
		t.Fatalf("received %d events, want 4", len(events))
	}
	for i := 0; i < 3; i++ {
		if events[i].Type != EventThinking {
			t.Errorf("event %d type = %s, want thinking", i, events[i].Type)
		}
		if events[i].Thinking.Iteration != i+1 {
			t.Errorf("event %d iteration = %d, want %d", i, events[i].Thinking.Iteration, i+1)
		}
	}
	if !events[3].Terminal() || events[3].Type != EventAnswer {
		t.Errorf("last event = %s, want terminal answer", events[3].Type)
	}
}

func TestStream_SingleTerminalEvent(t *testing.T) {
	s := New(10)

	s.Fail("boom")
	s.Done(Answer{Answer: "late"}) // must be ignored
	s.Fail("boom again")           // must be ignored

	var terminals int
	for e := range s.Events() {
		if e.Terminal() {
			terminals++
		}
	}
	if terminals != 1 {
		t.Errorf("terminal events = %d, want exactly 1", terminals)
	}
}

func TestStream_ThinkingAfterTerminalIgnored(t *testing.T) {
	s := New(10)

	s.Done(Answer{Answer: "done"})
	// Channel is closed; emission must not panic or block.
	s.Thinking(models.ThinkingStep{Iteration: 1})

	count := 0
	for range s.Events() {
		count++
	}
	if count != 1 {
		t.Errorf("received %d events, want 1", count)
	}
}

func TestStream_ProducerNeverBlocksWithoutConsumer(t *testing.T) {
	s := New(3)

	// Emit more thinking steps than the buffer holds; extra ones drop.
	done := make(chan struct{})
	go func() {
		for i := 0; i < 10; i++ {
			s.Thinking(models.ThinkingStep{Iteration: i})
		}
		close(done)
	}()

	<-done // reaching here proves the producer did not block
}
