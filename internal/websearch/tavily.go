// Package websearch queries the Tavily search API. It is the fallback
// grounding source when document retrieval comes up empty.
package websearch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	maxRawResults = 5
	maxSnippets   = 3
	maxSnippetLen = 400
	searchDepth   = "advanced"
)

// NoResultsMessage is what the user sees when the web has nothing usable.
const NoResultsMessage = "No web results found"

// ErrNoResults means the search ran fine but returned no usable content.
var ErrNoResults = errors.New("no web results")

type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

type request struct {
	APIKey      string `json:"api_key"`
	Query       string `json:"query"`
	SearchDepth string `json:"search_depth"`
	MaxResults  int    `json:"max_results"`
}

type response struct {
	Results []struct {
		URL     string `json:"url"`
		Content string `json:"content"`
	} `json:"results"`
}

// Search returns a formatted block of at most 3 source-tagged snippets,
// each truncated to 400 characters. Returns ErrNoResults when the API
// yields nothing with usable content.
func (c *Client) Search(ctx context.Context, query string) (string, error) {
	body, err := json.Marshal(request{
		APIKey:      c.apiKey,
		Query:       query,
		SearchDepth: searchDepth,
		MaxResults:  maxRawResults,
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/search", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("api call: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("api error %d: %s", resp.StatusCode, string(respBody))
	}

	var apiResp response
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return "", fmt.Errorf("unmarshal response: %w", err)
	}

	if len(apiResp.Results) == 0 {
		return "", ErrNoResults
	}

	var parts []string
	for _, r := range apiResp.Results {
		if len(parts) >= maxSnippets {
			break
		}
		content := strings.TrimSpace(r.Content)
		if content == "" {
			continue
		}
		if len(content) > maxSnippetLen {
			content = content[:maxSnippetLen] + "..."
		}
		url := r.URL
		if url == "" {
			url = "No URL"
		}
		parts = append(parts, fmt.Sprintf("Source %d (%s): %s", len(parts)+1, url, content))
	}

	if len(parts) == 0 {
		return "", ErrNoResults
	}

	return "Web Search Results: " + strings.Join(parts, "\n\n"), nil
}
