package ingest

import "strings"

const (
	// Chunk geometry mirrors the retrieval-side expectations: pieces big
	// enough to carry context, overlapped so answers spanning a boundary
	// survive the split.
	DefaultChunkSize    = 1000
	DefaultChunkOverlap = 100
)

// SplitText splits extracted document text into chunks of roughly size
// characters with overlap characters shared between neighbours. Splits
// prefer word boundaries.
func SplitText(text string, size, overlap int) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if size <= 0 {
		size = DefaultChunkSize
	}
	if overlap < 0 || overlap >= size {
		overlap = 0
	}

	var chunks []string
	start := 0
	for start < len(text) {
		end := start + size
		if end >= len(text) {
			if chunk := strings.TrimSpace(text[start:]); chunk != "" {
				chunks = append(chunks, chunk)
			}
			break
		}

		// Break at the last word boundary inside the window.
		if i := strings.LastIndex(text[start:end], " "); i > 0 {
			end = start + i
		}

		if chunk := strings.TrimSpace(text[start:end]); chunk != "" {
			chunks = append(chunks, chunk)
		}

		next := end - overlap
		if next <= start {
			next = end
		}
		start = next
	}
	return chunks
}
