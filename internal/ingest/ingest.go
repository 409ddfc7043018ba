// Package ingest turns uploaded files into embedded chunks in the shared
// vector index, plus a metadata row in the persistent store.
package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/corvid-labs/magpie/internal/index"
	"github.com/corvid-labs/magpie/internal/store"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported document format")
	ErrEmptyDocument     = errors.New("no extractable text in document")
	ErrChunkingFailed    = errors.New("document produced no chunks")
)

// Embedder turns chunk texts into vectors.
type Embedder interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float64, error)
}

// TextExtractor pulls text out of raw file bytes.
type TextExtractor interface {
	Extract(ctx context.Context, data []byte, filename string) (string, error)
}

// MetadataStore persists document metadata rows.
type MetadataStore interface {
	SaveDocument(ctx context.Context, doc store.Document) error
	HasDocument(ctx context.Context, sessionID uuid.UUID, contentHash string) (bool, error)
}

// EventPublisher is the optional fire-and-forget event sink.
type EventPublisher interface {
	Publish(subject string, data any) error
}

// SubjectDocumentIngested is published after each successful ingestion.
const SubjectDocumentIngested = "magpie.document.ingested"

// Result reports one successful ingestion.
type Result struct {
	Filename    string
	ChunkCount  int
	ContentHash string
	Duplicate   bool
	Message     string
}

type Pipeline struct {
	store    MetadataStore
	embedder Embedder
	index    *index.Index
	plain    TextExtractor
	pdf      TextExtractor
	events   EventPublisher
	logger   *slog.Logger
}

// New wires the pipeline. events may be nil to disable event publishing.
func New(st MetadataStore, embedder Embedder, ix *index.Index, plain, pdf TextExtractor, events EventPublisher, logger *slog.Logger) *Pipeline {
	return &Pipeline{
		store:    st,
		embedder: embedder,
		index:    ix,
		plain:    plain,
		pdf:      pdf,
		events:   events,
		logger:   logger,
	}
}

// Ingest processes one uploaded file: extension gate, text extraction,
// chunking, embedding, index extension, metadata write. The index update
// and the metadata write are not transactional: a metadata failure after
// a successful index extension returns an error but leaves the index
// extended.
func (p *Pipeline) Ingest(ctx context.Context, r io.Reader, filename string, sessionID uuid.UUID) (*Result, error) {
	var extractor TextExtractor
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		extractor = p.pdf
	case ".txt", ".md":
		extractor = p.plain
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filename)
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}

	sum := sha256.Sum256(data)
	contentHash := hex.EncodeToString(sum[:])

	// Same bytes, same session: skip re-embedding and leave the index alone.
	dup, err := p.store.HasDocument(ctx, sessionID, contentHash)
	if err != nil {
		return nil, fmt.Errorf("check duplicate: %w", err)
	}
	if dup {
		p.logger.Info("duplicate upload skipped",
			"filename", filename,
			"session_id", sessionID,
			"content_hash", contentHash,
		)
		return &Result{
			Filename:    filename,
			ContentHash: contentHash,
			Duplicate:   true,
			Message:     fmt.Sprintf("Skipped %s (already ingested)", filename),
		}, nil
	}

	text, err := extractor.Extract(ctx, data, filename)
	if err != nil {
		return nil, fmt.Errorf("extract text: %w", err)
	}
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: %s", ErrEmptyDocument, filename)
	}

	chunks := SplitText(text, DefaultChunkSize, DefaultChunkOverlap)
	if len(chunks) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrChunkingFailed, filename)
	}

	vectors, err := p.embedder.EmbedBatch(ctx, chunks)
	if err != nil {
		return nil, fmt.Errorf("embed chunks: %w", err)
	}

	if err := p.index.Add(chunks, vectors); err != nil {
		return nil, fmt.Errorf("extend index: %w", err)
	}

	err = p.store.SaveDocument(ctx, store.Document{
		SessionID:   sessionID,
		Filename:    filename,
		FileSize:    int64(len(data)),
		ContentHash: contentHash,
		ChunkCount:  len(chunks),
		Status:      "processed",
	})
	if err != nil {
		p.logger.Error("document metadata write failed after index update; index not rolled back",
			"filename", filename,
			"session_id", sessionID,
			"error", err,
		)
		return nil, fmt.Errorf("save document metadata: %w", err)
	}

	p.logger.Info("document ingested",
		"filename", filename,
		"session_id", sessionID,
		"chunks", len(chunks),
		"bytes", len(data),
	)

	if p.events != nil {
		evt := map[string]any{
			"session_id":   sessionID.String(),
			"filename":     filename,
			"chunk_count":  len(chunks),
			"content_hash": contentHash,
			"timestamp":    time.Now().UTC().Format(time.RFC3339),
		}
		if err := p.events.Publish(SubjectDocumentIngested, evt); err != nil {
			p.logger.Warn("failed to publish ingestion event", "error", err)
		}
	}

	return &Result{
		Filename:    filename,
		ChunkCount:  len(chunks),
		ContentHash: contentHash,
		Message:     fmt.Sprintf("Processed %s with %d chunks", filename, len(chunks)),
	}, nil
}
