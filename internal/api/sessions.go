package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
)

type createSessionRequest struct {
	Metadata map[string]any `json:"metadata,omitempty"`
}

type createSessionResponse struct {
	SessionID string `json:"session_id"`
}

type sessionResponse struct {
	SessionID string         `json:"session_id"`
	CreatedAt time.Time      `json:"created_at"`
	Metadata  map[string]any `json:"metadata"`
}

type sessionSummaryResponse struct {
	SessionID    string    `json:"session_id"`
	MessageCount int       `json:"message_count"`
	LastActivity time.Time `json:"last_activity"`
	Preview      string    `json:"preview"`
}

type turnResponse struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// createSession handles POST /api/v1/sessions
func (s *Server) createSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
			return
		}
	}

	id := uuid.New()
	if err := s.store.CreateSession(r.Context(), id, req.Metadata); err != nil {
		s.logger.Error("failed to create session", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create session")
		return
	}

	writeJSON(w, http.StatusCreated, createSessionResponse{SessionID: id.String()})
}

// listSessions handles GET /api/v1/sessions
func (s *Server) listSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := s.store.ListSessions(r.Context(), limitParam(r, 50))
	if err != nil {
		s.logger.Error("failed to list sessions", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list sessions")
		return
	}

	out := make([]sessionResponse, 0, len(sessions))
	for _, sess := range sessions {
		out = append(out, sessionResponse{
			SessionID: sess.ID.String(),
			CreatedAt: sess.CreatedAt,
			Metadata:  sess.Metadata,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"sessions": out, "count": len(out)})
}

// sessionSummaries handles GET /api/v1/sessions/summaries
func (s *Server) sessionSummaries(w http.ResponseWriter, r *http.Request) {
	summaries, err := s.store.SessionSummaries(r.Context(), limitParam(r, 20))
	if err != nil {
		s.logger.Error("failed to aggregate sessions", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to aggregate sessions")
		return
	}

	out := make([]sessionSummaryResponse, 0, len(summaries))
	for _, sum := range summaries {
		out = append(out, sessionSummaryResponse{
			SessionID:    sum.SessionID.String(),
			MessageCount: sum.MessageCount,
			LastActivity: sum.LastActivity,
			Preview:      sum.Preview,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"sessions": out, "count": len(out)})
}

// getSession handles GET /api/v1/sessions/{sessionID}
func (s *Server) getSession(w http.ResponseWriter, r *http.Request) {
	id, err := sessionIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid session id")
		return
	}

	sess, err := s.store.GetSession(r.Context(), id)
	if err != nil {
		s.logger.Error("failed to load session", "session_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load session")
		return
	}
	if sess == nil {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}

	writeJSON(w, http.StatusOK, sessionResponse{
		SessionID: sess.ID.String(),
		CreatedAt: sess.CreatedAt,
		Metadata:  sess.Metadata,
	})
}

// sessionHistory handles GET /api/v1/sessions/{sessionID}/history
func (s *Server) sessionHistory(w http.ResponseWriter, r *http.Request) {
	id, err := sessionIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid session id")
		return
	}

	turns, err := s.store.LoadHistory(r.Context(), id, limitParam(r, 50))
	if err != nil {
		s.logger.Error("failed to load history", "session_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load history")
		return
	}

	out := make([]turnResponse, 0, len(turns))
	for _, t := range turns {
		out = append(out, turnResponse{Role: t.Role, Content: t.Content, CreatedAt: t.CreatedAt})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"session_id": id.String(),
		"messages":   out,
		"count":      len(out),
	})
}

func limitParam(r *http.Request, fallback int) int {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}
