// Package api exposes the HTTP surface: session management, document
// uploads and the query endpoint.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/corvid-labs/magpie/internal/ingest"
	"github.com/corvid-labs/magpie/internal/store"
)

// Asker answers one query within a session.
type Asker interface {
	Ask(ctx context.Context, sessionID uuid.UUID, query string) string
}

// Ingestor processes one uploaded file.
type Ingestor interface {
	Ingest(ctx context.Context, r io.Reader, filename string, sessionID uuid.UUID) (*ingest.Result, error)
}

// SessionStore is the slice of the persistent store the API reads from.
type SessionStore interface {
	CreateSession(ctx context.Context, id uuid.UUID, metadata map[string]any) error
	GetSession(ctx context.Context, id uuid.UUID) (*store.Session, error)
	ListSessions(ctx context.Context, limit int) ([]store.Session, error)
	SessionSummaries(ctx context.Context, limit int) ([]store.SessionSummary, error)
	LoadHistory(ctx context.Context, sessionID uuid.UUID, limit int) ([]store.Turn, error)
	SessionDocuments(ctx context.Context, sessionID uuid.UUID) ([]store.Document, error)
	SessionDocumentRollup(ctx context.Context, sessionID uuid.UUID) (store.DocumentRollup, error)
}

type Server struct {
	router   *chi.Mux
	port     int
	store    SessionStore
	ingestor Ingestor
	asker    Asker
	logger   *slog.Logger
}

func NewServer(port int, st SessionStore, ingestor Ingestor, asker Asker, logger *slog.Logger) *Server {
	router := chi.NewRouter()
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)

	s := &Server{
		router:   router,
		port:     port,
		store:    st,
		ingestor: ingestor,
		asker:    asker,
		logger:   logger,
	}

	router.Get("/health", s.health)
	router.Route("/api/v1", func(r chi.Router) {
		r.Post("/sessions", s.createSession)
		r.Get("/sessions", s.listSessions)
		r.Get("/sessions/summaries", s.sessionSummaries)
		r.Get("/sessions/{sessionID}", s.getSession)
		r.Get("/sessions/{sessionID}/history", s.sessionHistory)
		r.Get("/sessions/{sessionID}/documents", s.sessionDocuments)
		r.Post("/documents", s.uploadDocuments)
		r.Post("/query", s.query)
	})

	return s
}

func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.port)
	s.logger.Info("API server starting", "addr", addr)
	return http.ListenAndServe(addr, s.router)
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// sessionIDParam parses the {sessionID} path segment.
func sessionIDParam(r *http.Request) (uuid.UUID, error) {
	return uuid.Parse(chi.URLParam(r, "sessionID"))
}
