package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ============================================================================
// GEMINI CLIENT — REST calls to the Generative Language API
// ============================================================================
// The only package that talks to the hosted model. Callers pass a complete
// prompt and get text back; prompt building and response parsing live with
// the callers (router, insight).
// ============================================================================

const (
	DefaultModel    = "gemini-2.5-flash"
	DefaultEndpoint = "https://generativelanguage.googleapis.com/v1"
	DefaultTimeout  = 30 * time.Second
)

// ErrNoAPIKey is returned by every call when the client has no API key.
var ErrNoAPIKey = errors.New("gemini: no API key configured")

// ErrEmptyResponse is returned when the model answered with no text.
var ErrEmptyResponse = errors.New("gemini: empty response")

// APIError is a non-200 answer from the API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("gemini API returned %d: %s", e.StatusCode, e.Message)
}

// Config holds client configuration.
type Config struct {
	APIKey   string
	Model    string        // e.g. "gemini-2.5-flash"; a "models/" prefix is accepted
	Endpoint string        // API base URL (empty = default)
	Timeout  time.Duration // per-request HTTP timeout (0 = default)
}

// Client calls the Gemini REST API.
type Client struct {
	config Config
	http   *http.Client
}

// New creates a client. A client without an API key is valid; its calls
// fail with ErrNoAPIKey.
func New(cfg Config) *Client {
	cfg.Model = strings.TrimPrefix(cfg.Model, "models/")
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}
	cfg.Endpoint = strings.TrimSuffix(cfg.Endpoint, "/")
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &Client{
		config: cfg,
		http:   &http.Client{Timeout: cfg.Timeout},
	}
}

// Enabled reports whether the client has an API key.
func (c *Client) Enabled() bool {
	return c != nil && c.config.APIKey != ""
}

// Model returns the configured model name.
func (c *Client) Model() string { return c.config.Model }

// ============================================================================
// GENERATE
// ============================================================================

type generateRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	Error *apiErrorBody `json:"error"`
}

type apiErrorBody struct {
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// Generate sends prompt to the model and returns the trimmed text answer.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	if !c.Enabled() {
		return "", ErrNoAPIKey
	}

	body, err := json.Marshal(generateRequest{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	start := time.Now()
	raw, err := c.do(ctx, http.MethodPost, "/models/"+c.config.Model+":generateContent", body)
	if err != nil {
		return "", err
	}

	var resp generateResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return "", fmt.Errorf("failed to parse Gemini response: %w", err)
	}
	if resp.Error != nil {
		return "", &APIError{StatusCode: resp.Error.Code, Message: resp.Error.Message}
	}

	var text strings.Builder
	if len(resp.Candidates) > 0 {
		for _, p := range resp.Candidates[0].Content.Parts {
			text.WriteString(p.Text)
		}
	}
	out := strings.TrimSpace(text.String())
	if out == "" {
		return "", ErrEmptyResponse
	}

	log.Printf("✅ Gemini: %s answered %d chars in %v", c.config.Model, len(out), time.Since(start).Round(time.Millisecond))
	return out, nil
}

// ============================================================================
// MODELS
// ============================================================================

// Model describes one entry of the models listing.
type Model struct {
	Name                       string   `json:"name"`
	DisplayName                string   `json:"displayName"`
	Description                string   `json:"description,omitempty"`
	SupportedGenerationMethods []string `json:"supportedGenerationMethods,omitempty"`
}

type listModelsResponse struct {
	Models        []Model       `json:"models"`
	NextPageToken string        `json:"nextPageToken"`
	Error         *apiErrorBody `json:"error"`
}

// ListModels returns every model visible to the API key, following pages.
func (c *Client) ListModels(ctx context.Context) ([]Model, error) {
	if !c.Enabled() {
		return nil, ErrNoAPIKey
	}

	var models []Model
	pageToken := ""
	for {
		path := "/models"
		if pageToken != "" {
			path += "?pageToken=" + url.QueryEscape(pageToken)
		}
		raw, err := c.do(ctx, http.MethodGet, path, nil)
		if err != nil {
			return nil, err
		}
		var resp listModelsResponse
		if err := json.Unmarshal(raw, &resp); err != nil {
			return nil, fmt.Errorf("failed to parse models response: %w", err)
		}
		if resp.Error != nil {
			return nil, &APIError{StatusCode: resp.Error.Code, Message: resp.Error.Message}
		}
		models = append(models, resp.Models...)
		if resp.NextPageToken == "" {
			return models, nil
		}
		pageToken = resp.NextPageToken
	}
}

// ============================================================================
// HTTP
// ============================================================================

func (c *Client) do(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	u, err := url.Parse(c.config.Endpoint + path)
	if err != nil {
		return nil, fmt.Errorf("invalid Gemini endpoint: %w", err)
	}
	q := u.Query()
	q.Set("key", c.config.APIKey)
	u.RawQuery = q.Encode()

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		msg := truncate(string(raw), 200)
		var wrapped struct {
			Error *apiErrorBody `json:"error"`
		}
		if json.Unmarshal(raw, &wrapped) == nil && wrapped.Error != nil && wrapped.Error.Message != "" {
			msg = wrapped.Error.Message
		}
		return nil, &APIError{StatusCode: resp.StatusCode, Message: msg}
	}
	return raw, nil
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
