// ABOUTME: HTTP handlers for upload, status, chat streaming, and memory management
// ABOUTME: Maps system errors to JSON error responses with appropriate statuses
package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/harper/docresearch/internal/core"
	"github.com/harper/docresearch/internal/extract"
	"github.com/harper/docresearch/internal/models"
	"github.com/harper/docresearch/internal/stream"
)

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form: "+err.Error())
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing file field")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "reading upload: "+err.Error())
		return
	}

	result, err := s.sys.Upload(r.Context(), header.Filename, data)
	if err != nil {
		if errors.Is(err, extract.ErrExtraction) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.log.Error().Err(err).Str("filename", header.Filename).Msg("upload failed")
		writeError(w, http.StatusInternalServerError, "upload failed")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleIndexingStatus(w http.ResponseWriter, r *http.Request) {
	docID := r.PathValue("doc_id")
	job, ok := s.sys.Status(docID)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown doc_id")
		return
	}
	writeJSON(w, http.StatusOK, job)
}

type chatRequest struct {
	Message string   `json:"message"`
	DocIDs  []string `json:"doc_ids"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	events, err := s.sys.Research(r.Context(), req.Message, req.DocIDs)
	if err != nil {
		switch {
		case errors.Is(err, core.ErrEmptyQuery):
			writeError(w, http.StatusBadRequest, "message is empty")
		case errors.Is(err, core.ErrNoDocuments):
			writeError(w, http.StatusBadRequest, "no documents uploaded yet")
		case errors.Is(err, core.ErrUnknownDocument):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			s.log.Error().Err(err).Msg("research failed to start")
			writeError(w, http.StatusInternalServerError, "research failed to start")
		}
		return
	}

	sse, err := newSSEWriter(w)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	// The research run keeps going if the client disconnects; the stream's
	// buffer absorbs whatever we stop reading.
	for event := range events.Events() {
		if err := s.sendChatEvent(sse, event); err != nil {
			if errors.Is(err, errMalformedEvent) {
				s.log.Warn().Err(err).Msg("skipping malformed chat event")
				continue
			}
			s.log.Debug().Err(err).Msg("chat client went away")
			return
		}
	}
	sse.Send("done", map[string]string{})
}

func (s *Server) sendChatEvent(sse *sseWriter, event stream.Event) error {
	switch event.Type {
	case stream.EventThinking:
		return sse.Send("thinking", event.Thinking)
	case stream.EventAnswer:
		return sse.Send("answer", event.Answer)
	case stream.EventError:
		return sse.Send("error", map[string]string{"message": event.Message})
	}
	return nil
}

func (s *Server) handleMemoryClear(w http.ResponseWriter, r *http.Request) {
	if err := s.sys.Clear(r.Context()); err != nil {
		s.log.Error().Err(err).Msg("memory clear failed")
		writeError(w, http.StatusInternalServerError, "memory clear failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}

func (s *Server) handleListFiles(w http.ResponseWriter, r *http.Request) {
	files, err := s.sys.ListFiles()
	if err != nil {
		s.log.Error().Err(err).Msg("listing files failed")
		writeError(w, http.StatusInternalServerError, "listing files failed")
		return
	}
	if files == nil {
		files = []models.DocumentInfo{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"files": files})
}

func (s *Server) handleGraph(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.sys.GraphSnapshot())
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
