// ABOUTME: Minimal server-sent-events writer for the chat stream
// ABOUTME: One JSON payload per event, flushed immediately
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

type sseWriter struct {
	w       http.ResponseWriter
	flusher http.Flusher
}

// newSSEWriter prepares w for an event stream. It fails if the underlying
// writer cannot flush, since buffered events defeat the point of streaming.
func newSSEWriter(w http.ResponseWriter) (*sseWriter, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, errors.New("response writer does not support streaming")
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()
	return &sseWriter{w: w, flusher: flusher}, nil
}

// errMalformedEvent marks a payload that could not be serialized. Such
// events are logged and skipped; they do not end the stream.
var errMalformedEvent = errors.New("malformed event payload")

// Send writes one named event with a JSON data payload and flushes it.
func (s *sseWriter) Send(event string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", errMalformedEvent, event, err)
	}
	if _, err := fmt.Fprintf(s.w, "event: %s\ndata: %s\n\n", event, payload); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}
