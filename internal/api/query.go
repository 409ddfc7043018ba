package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

type queryRequest struct {
	SessionID string `json:"session_id"`
	Query     string `json:"query"`
}

type queryResponse struct {
	SessionID string `json:"session_id"`
	Answer    string `json:"answer"`
}

// query handles POST /api/v1/query. The orchestrator never fails a
// query outright, so this endpoint only rejects malformed requests.
func (s *Server) query(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}

	sessionID, err := uuid.Parse(req.SessionID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid session_id")
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		writeError(w, http.StatusBadRequest, "query must not be empty")
		return
	}

	answer := s.asker.Ask(r.Context(), sessionID, req.Query)

	writeJSON(w, http.StatusOK, queryResponse{
		SessionID: sessionID.String(),
		Answer:    answer,
	})
}
