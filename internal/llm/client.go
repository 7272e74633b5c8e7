package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"trend-shorts-agent/internal/config"
)

// Client talks to an OpenAI-compatible API. The API key is looked up on
// every call so a missing key only fails the stage that needs it.
type Client struct {
	cfg        *config.Config
	baseURL    string
	httpClient *http.Client
}

func New(cfg *config.Config) *Client {
	return &Client{
		cfg:        cfg,
		baseURL:    strings.TrimRight(cfg.OpenAI.BaseURL, "/"),
		httpClient: &http.Client{Timeout: cfg.OpenAI.Timeout},
	}
}

// APIError is a non-2xx response
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("OpenAI API error %d: %s", e.StatusCode, e.Body)
}

// PostJSON sends payload as JSON to path and returns the raw response body.
// purpose ends up in the missing-key error.
func (c *Client) PostJSON(ctx context.Context, path string, payload any, purpose string) ([]byte, error) {
	apiKey, err := c.cfg.Require(config.EnvOpenAIKey, purpose)
	if err != nil {
		return nil, err
	}

	bodyBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("openai request %s: %w", path, err)
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response %s: %w", path, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &APIError{StatusCode: resp.StatusCode, Body: errorMessage(respBytes)}
	}
	return respBytes, nil
}

// errorMessage pulls error.message out of an OpenAI error body, falling back
// to the raw body.
func errorMessage(body []byte) string {
	var parsed struct {
		Error *struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if json.Unmarshal(body, &parsed) == nil && parsed.Error != nil && parsed.Error.Message != "" {
		return parsed.Error.Message
	}
	return strings.TrimSpace(string(body))
}
