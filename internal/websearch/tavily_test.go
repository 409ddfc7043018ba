package websearch

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newTestServer(t *testing.T, results []map[string]string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search" {
			t.Errorf("expected /search, got %q", r.URL.Path)
		}
		var req request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("failed to decode request: %v", err)
		}
		if req.SearchDepth != "advanced" {
			t.Errorf("expected search_depth advanced, got %q", req.SearchDepth)
		}
		if req.MaxResults != 5 {
			t.Errorf("expected max_results 5, got %d", req.MaxResults)
		}
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]any{"results": results})
	}))
}

func TestSearch_FormatsAndCapsSnippets(t *testing.T) {
	long := strings.Repeat("x", 500)
	server := newTestServer(t, []map[string]string{
		{"url": "https://a.example", "content": long},
		{"url": "https://b.example", "content": ""},
		{"url": "https://c.example", "content": "short"},
		{"url": "https://d.example", "content": "also short"},
		{"url": "https://e.example", "content": "never selected"},
	})
	defer server.Close()

	c := NewClient(server.URL, "test-key")
	out, err := c.Search(context.Background(), "anything")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.HasPrefix(out, "Web Search Results: ") {
		t.Errorf("missing results prefix: %q", out[:40])
	}
	if strings.Count(out, "Source ") != 3 {
		t.Errorf("expected exactly 3 snippets, got %d", strings.Count(out, "Source "))
	}
	if strings.Contains(out, "b.example") {
		t.Error("empty-content result should be skipped")
	}
	if strings.Contains(out, "e.example") {
		t.Error("fourth usable result should not be selected")
	}
	// 400 chars + ellipsis, never the full 500.
	if strings.Contains(out, strings.Repeat("x", 401)) {
		t.Error("snippet not truncated to 400 characters")
	}
	if !strings.Contains(out, strings.Repeat("x", 400)+"...") {
		t.Error("truncated snippet should end with ellipsis")
	}
}

func TestSearch_NoResults(t *testing.T) {
	server := newTestServer(t, nil)
	defer server.Close()

	c := NewClient(server.URL, "test-key")
	if _, err := c.Search(context.Background(), "anything"); !errors.Is(err, ErrNoResults) {
		t.Errorf("expected ErrNoResults, got %v", err)
	}
}

func TestSearch_AllEmptyContent(t *testing.T) {
	server := newTestServer(t, []map[string]string{
		{"url": "https://a.example", "content": "  "},
		{"url": "https://b.example", "content": ""},
	})
	defer server.Close()

	c := NewClient(server.URL, "test-key")
	if _, err := c.Search(context.Background(), "anything"); !errors.Is(err, ErrNoResults) {
		t.Errorf("expected ErrNoResults, got %v", err)
	}
}

func TestSearch_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	c := NewClient(server.URL, "bad-key")
	_, err := c.Search(context.Background(), "anything")
	if err == nil || errors.Is(err, ErrNoResults) {
		t.Errorf("expected transport error distinct from ErrNoResults, got %v", err)
	}
}
