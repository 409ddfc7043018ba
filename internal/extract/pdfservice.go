package extract

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// PDFService extracts text from PDF bytes by calling an external parse
// service. Byte-level PDF parsing stays out of this process.
type PDFService struct {
	serviceURL string
	client     *http.Client
}

func NewPDFService(serviceURL string) *PDFService {
	return &PDFService{
		serviceURL: serviceURL,
		client:     &http.Client{Timeout: 60 * time.Second},
	}
}

type parseResponse struct {
	Text  string `json:"text"`
	Pages int    `json:"pages"`
	Error string `json:"error,omitempty"`
}

func (p *PDFService) Extract(ctx context.Context, data []byte, filename string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.serviceURL+"/parse", bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/octet-stream")

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("calling pdf service: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("pdf service error %d: %s", resp.StatusCode, string(body))
	}

	var result parseResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if result.Error != "" {
		return "", fmt.Errorf("pdf parse error: %s", result.Error)
	}

	return result.Text, nil
}
