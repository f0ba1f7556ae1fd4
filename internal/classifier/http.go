package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// HTTPConfig configures an HTTP classifier endpoint.
type HTTPConfig struct {
	Endpoint   string
	HTTPClient *http.Client
}

// HTTP asks a remote model through POST {endpoint} with {"input": ...} and
// expects {"positive": bool}.
type HTTP struct {
	endpoint   string
	httpClient *http.Client
}

type classifyRequest struct {
	Input string `json:"input"`
}

type classifyResponse struct {
	Positive *bool `json:"positive"`
}

// NewHTTP returns a client for one classifier endpoint.
func NewHTTP(cfg HTTPConfig) *HTTP {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 8 * time.Second}
	}
	return &HTTP{
		endpoint:   strings.TrimSpace(cfg.Endpoint),
		httpClient: httpClient,
	}
}

func (h *HTTP) IsImagePositive(ctx context.Context, imageURL string) (bool, error) {
	return h.classify(ctx, imageURL)
}

func (h *HTTP) IsTextPositive(ctx context.Context, text string) (bool, error) {
	return h.classify(ctx, text)
}

func (h *HTTP) classify(ctx context.Context, input string) (bool, error) {
	if h.endpoint == "" {
		return false, fmt.Errorf("classifier endpoint is not configured")
	}
	body, err := json.Marshal(classifyRequest{Input: input})
	if err != nil {
		return false, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.endpoint, bytes.NewReader(body))
	if err != nil {
		return false, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := h.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("classifier request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return false, fmt.Errorf("classifier returned %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	var out classifyResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&out); err != nil {
		return false, fmt.Errorf("decode classifier response: %w", err)
	}
	if out.Positive == nil {
		return false, fmt.Errorf("classifier response has no verdict")
	}
	return *out.Positive, nil
}
