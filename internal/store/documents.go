package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Document is the metadata row for one ingested file. The chunks
// themselves live only in the vector index.
type Document struct {
	SessionID   uuid.UUID
	Filename    string
	FileSize    int64
	ContentHash string
	ChunkCount  int
	Status      string
	UploadedAt  time.Time
}

// DocumentRollup aggregates a session's ingested documents for display.
type DocumentRollup struct {
	DocumentCount int
	TotalBytes    int64
	TotalChunks   int
}

func (s *Store) SaveDocument(ctx context.Context, doc Document) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO documents (id, session_id, filename, file_size, content_hash, chunk_count, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		uuid.New(), doc.SessionID, doc.Filename, doc.FileSize, doc.ContentHash, doc.ChunkCount, doc.Status,
	)
	if err != nil {
		return fmt.Errorf("insert document: %w", err)
	}
	return nil
}

// HasDocument reports whether a session already ingested a file with
// this content hash.
func (s *Store) HasDocument(ctx context.Context, sessionID uuid.UUID, contentHash string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM documents WHERE session_id = $1 AND content_hash = $2
		)`,
		sessionID, contentHash,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check document hash: %w", err)
	}
	return exists, nil
}

func (s *Store) SessionDocuments(ctx context.Context, sessionID uuid.UUID) ([]Document, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT session_id, filename, file_size, content_hash, chunk_count, status, uploaded_at
		FROM documents
		WHERE session_id = $1
		ORDER BY uploaded_at`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("select documents: %w", err)
	}
	defer rows.Close()

	var out []Document
	for rows.Next() {
		var d Document
		if err := rows.Scan(&d.SessionID, &d.Filename, &d.FileSize, &d.ContentHash, &d.ChunkCount, &d.Status, &d.UploadedAt); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (s *Store) SessionDocumentRollup(ctx context.Context, sessionID uuid.UUID) (DocumentRollup, error) {
	var r DocumentRollup
	err := s.pool.QueryRow(ctx, `
		SELECT count(*), coalesce(sum(file_size), 0), coalesce(sum(chunk_count), 0)
		FROM documents
		WHERE session_id = $1`,
		sessionID,
	).Scan(&r.DocumentCount, &r.TotalBytes, &r.TotalChunks)
	if err != nil {
		return DocumentRollup{}, fmt.Errorf("document rollup: %w", err)
	}
	return r, nil
}
