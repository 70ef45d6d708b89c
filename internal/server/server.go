// ABOUTME: HTTP server exposing the document research API
// ABOUTME: JSON endpoints plus a server-sent-events chat stream
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/harper/docresearch/internal/core"
)

// maxUploadBytes bounds a single uploaded file.
const maxUploadBytes = 50 << 20

// Server serves the HTTP API over a core.System.
type Server struct {
	sys  *core.System
	log  zerolog.Logger
	http *http.Server
}

// New builds a Server listening on addr.
func New(addr string, sys *core.System, log zerolog.Logger) *Server {
	s := &Server{
		sys: sys,
		log: log.With().Str("component", "server").Logger(),
	}
	s.http = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler returns the API routes. Exposed separately so tests can drive the
// mux without a listener.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/upload", s.handleUpload)
	mux.HandleFunc("GET /api/indexing/{doc_id}", s.handleIndexingStatus)
	mux.HandleFunc("POST /api/chat", s.handleChat)
	mux.HandleFunc("POST /api/memory/clear", s.handleMemoryClear)
	mux.HandleFunc("GET /api/files", s.handleListFiles)
	mux.HandleFunc("GET /api/graph", s.handleGraph)
	mux.HandleFunc("GET /api/health", s.handleHealth)
	return mux
}

// Start serves until Shutdown is called or the listener fails.
func (s *Server) Start() error {
	s.log.Info().Str("addr", s.http.Addr).Msg("http server listening")
	err := s.http.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
