package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/corvid-labs/magpie/internal/ingest"
)

// maxUploadBytes bounds a whole multipart upload request.
const maxUploadBytes = 64 << 20

type uploadFileResult struct {
	Filename    string `json:"filename"`
	Status      string `json:"status"`
	ChunkCount  int    `json:"chunk_count,omitempty"`
	ContentHash string `json:"content_hash,omitempty"`
	Message     string `json:"message"`
}

type documentResponse struct {
	Filename    string    `json:"filename"`
	FileSize    int64     `json:"file_size"`
	ContentHash string    `json:"content_hash"`
	ChunkCount  int       `json:"chunk_count"`
	Status      string    `json:"status"`
	UploadedAt  time.Time `json:"uploaded_at"`
}

// uploadDocuments handles POST /api/v1/documents. Multipart form with a
// "session_id" field and one or more "files" parts. Files are processed
// independently: a bad file is reported per-file, not as a request error.
func (s *Server) uploadDocuments(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form: "+err.Error())
		return
	}

	sessionID, err := uuid.Parse(r.FormValue("session_id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid session_id")
		return
	}

	files := r.MultipartForm.File["files"]
	if len(files) == 0 {
		writeError(w, http.StatusBadRequest, "no files provided")
		return
	}

	results := make([]uploadFileResult, 0, len(files))
	processed := 0
	for _, fh := range files {
		f, err := fh.Open()
		if err != nil {
			results = append(results, uploadFileResult{
				Filename: fh.Filename,
				Status:   "failed",
				Message:  "could not read upload: " + err.Error(),
			})
			continue
		}

		res, err := s.ingestor.Ingest(r.Context(), f, fh.Filename, sessionID)
		f.Close()
		if err != nil {
			status := "failed"
			if errors.Is(err, ingest.ErrUnsupportedFormat) {
				status = "unsupported"
			}
			s.logger.Warn("ingestion failed", "filename", fh.Filename, "error", err)
			results = append(results, uploadFileResult{
				Filename: fh.Filename,
				Status:   status,
				Message:  err.Error(),
			})
			continue
		}

		processed++
		status := "processed"
		if res.Duplicate {
			status = "duplicate"
		}
		results = append(results, uploadFileResult{
			Filename:    res.Filename,
			Status:      status,
			ChunkCount:  res.ChunkCount,
			ContentHash: res.ContentHash,
			Message:     res.Message,
		})
	}

	status := http.StatusOK
	if processed == 0 {
		status = http.StatusUnprocessableEntity
	}
	writeJSON(w, status, map[string]any{
		"session_id": sessionID.String(),
		"files":      results,
		"processed":  processed,
	})
}

// sessionDocuments handles GET /api/v1/sessions/{sessionID}/documents
func (s *Server) sessionDocuments(w http.ResponseWriter, r *http.Request) {
	id, err := sessionIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid session id")
		return
	}

	docs, err := s.store.SessionDocuments(r.Context(), id)
	if err != nil {
		s.logger.Error("failed to list documents", "session_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list documents")
		return
	}
	rollup, err := s.store.SessionDocumentRollup(r.Context(), id)
	if err != nil {
		s.logger.Error("failed to aggregate documents", "session_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to aggregate documents")
		return
	}

	out := make([]documentResponse, 0, len(docs))
	for _, d := range docs {
		out = append(out, documentResponse{
			Filename:    d.Filename,
			FileSize:    d.FileSize,
			ContentHash: d.ContentHash,
			ChunkCount:  d.ChunkCount,
			Status:      d.Status,
			UploadedAt:  d.UploadedAt,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"session_id":     id.String(),
		"documents":      out,
		"document_count": rollup.DocumentCount,
		"total_bytes":    rollup.TotalBytes,
		"total_chunks":   rollup.TotalChunks,
	})
}
