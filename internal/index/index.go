// Package index holds the in-process vector index shared by ingestion and retrieval.
package index

import (
	"errors"
	"math"
	"sort"
	"sync"
)

var (
	ErrDimensionMismatch = errors.New("vector dimension mismatch")
	ErrLengthMismatch    = errors.New("texts and vectors length mismatch")
)

// Hit is a nearest-neighbour match: the chunk text plus its raw distance
// to the query vector. Lower distance means closer.
type Hit struct {
	Text     string
	Distance float64
}

// Index is a brute-force nearest-neighbour index over embedded chunks.
// It is shared process-wide: every ingested document extends it and every
// query reads it. Writes hold the write lock for the whole extend, so
// concurrent ingestions cannot interleave and reads never observe a
// partial extend.
type Index struct {
	mu        sync.RWMutex
	dimension int
	texts     []string
	vectors   [][]float64
}

func New() *Index {
	return &Index{}
}

// Add extends the index with embedded chunks. The first Add fixes the
// vector dimension; later calls must match it.
func (ix *Index) Add(texts []string, vectors [][]float64) error {
	if len(texts) != len(vectors) {
		return ErrLengthMismatch
	}
	ix.mu.Lock()
	defer ix.mu.Unlock()

	for _, v := range vectors {
		if ix.dimension == 0 {
			ix.dimension = len(v)
		}
		if len(v) == 0 || len(v) != ix.dimension {
			return ErrDimensionMismatch
		}
	}
	ix.texts = append(ix.texts, texts...)
	ix.vectors = append(ix.vectors, vectors...)
	return nil
}

// Len reports how many chunks the index holds. Zero means no document
// has ever been ingested.
func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.texts)
}

// Search returns up to k hits ordered by ascending Euclidean distance.
func (ix *Index) Search(vector []float64, k int) ([]Hit, error) {
	if k <= 0 {
		k = 3
	}
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	if len(vector) != ix.dimension {
		return nil, ErrDimensionMismatch
	}

	hits := make([]Hit, len(ix.vectors))
	for i, v := range ix.vectors {
		hits[i] = Hit{Text: ix.texts[i], Distance: euclidean(v, vector)}
	}
	sort.Slice(hits, func(a, b int) bool { return hits[a].Distance < hits[b].Distance })

	if k > len(hits) {
		k = len(hits)
	}
	out := make([]Hit, k)
	copy(out, hits[:k])
	return out, nil
}

func euclidean(a, b []float64) float64 {
	sum := 0.0
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return math.Sqrt(sum)
}
