// Package retrieval decides whether a query is answerable from the
// ingested documents. "Found nothing" is a routing signal here, not an
// error; errors mean the search itself could not run.
package retrieval

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/corvid-labs/magpie/internal/index"
)

const (
	topK = 3
	// Chunks at or below this similarity are treated as noise.
	similarityThreshold = 0.4
	maxGroundedChunks   = 2
)

// ErrNoIndex means no document has ever been ingested in this process.
var ErrNoIndex = errors.New("no documents ingested")

// Embedder turns the query into a vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float64, error)
}

// Result classifies a retrieval. Found=true carries the grounded context;
// Found=false is the web-fallback trigger.
type Result struct {
	Found          bool
	Context        string
	BestSimilarity float64
}

type Retriever struct {
	embedder Embedder
	index    *index.Index
	logger   *slog.Logger
}

func New(embedder Embedder, ix *index.Index, logger *slog.Logger) *Retriever {
	return &Retriever{embedder: embedder, index: ix, logger: logger}
}

// Similarity maps a raw distance d >= 0 into (0,1], strictly decreasing
// in d.
func Similarity(distance float64) float64 {
	return 1 / (1 + distance)
}

// Retrieve runs a top-k similarity query and gates the hits on the
// similarity threshold.
func (r *Retriever) Retrieve(ctx context.Context, query string) (*Result, error) {
	if r.index.Len() == 0 {
		return nil, ErrNoIndex
	}

	vector, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	hits, err := r.index.Search(vector, topK)
	if err != nil {
		return nil, fmt.Errorf("search index: %w", err)
	}

	var kept []string
	best := 0.0
	for _, h := range hits {
		s := Similarity(h.Distance)
		if s > best {
			best = s
		}
		text := strings.TrimSpace(h.Text)
		if s > similarityThreshold && text != "" {
			kept = append(kept, text)
		}
	}

	r.logger.Debug("retrieval scored", "hits", len(hits), "kept", len(kept), "best_similarity", best)

	if len(kept) == 0 {
		return &Result{Found: false, BestSimilarity: best}, nil
	}

	if len(kept) > maxGroundedChunks {
		kept = kept[:maxGroundedChunks]
	}
	return &Result{
		Found:          true,
		Context:        strings.Join(kept, "\n\n"),
		BestSimilarity: best,
	}, nil
}
