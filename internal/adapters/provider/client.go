// Package provider talks to an OpenAI-compatible chat completions endpoint.
package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/target/translation-queue/internal/core"
)

const (
	defaultTimeout     = 30 * time.Second
	defaultTemperature = 0.2
	maxErrorBody       = 2048
)

// ErrEmptyResponse is returned when the provider answers without any choice.
var ErrEmptyResponse = errors.New("provider returned no translation")

// StatusError is a non-2xx provider response.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("provider responded %d: %s", e.StatusCode, e.Body)
}

// Options configures a Client.
type Options struct {
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
	Prompts Prompts
	// OAuth replaces the static API key with client credentials when enabled.
	OAuth      *OAuthOptions
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Client implements core.Translator against a chat completions API.
type Client struct {
	endpoint string
	apiKey   string
	model    string
	prompts  Prompts
	http     *http.Client
	logger   *slog.Logger
}

var _ core.Translator = (*Client)(nil)

// NewClient validates opts and returns a Client.
func NewClient(opts Options) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if base == "" {
		return nil, errors.New("provider base URL is required")
	}
	if strings.TrimSpace(opts.Model) == "" {
		return nil, errors.New("provider model is required")
	}

	endpoint := base
	if !strings.HasSuffix(endpoint, "/chat/completions") {
		endpoint += "/chat/completions"
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	apiKey := opts.APIKey
	if opts.OAuth.Enabled() {
		wrapped, err := oauthHTTPClient(opts.OAuth, httpClient)
		if err != nil {
			return nil, err
		}
		httpClient = wrapped
		apiKey = ""
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	prompts := opts.Prompts
	if prompts.System == "" {
		prompts = DefaultPrompts()
	}

	return &Client{
		endpoint: endpoint,
		apiKey:   apiKey,
		model:    opts.Model,
		prompts:  prompts,
		http:     httpClient,
		logger:   logger.With("component", "provider"),
	}, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	Stream      bool          `json:"stream"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Translate sends one request and returns the translated text.
func (c *Client) Translate(ctx context.Context, req core.TranslateRequest) (string, error) {
	if req.Text == "" {
		return "", nil
	}

	body, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: c.prompts.Render(req.SourceLang, req.TargetLang, req.Domain)},
			{Role: "user", Content: req.Text},
		},
		Temperature: defaultTemperature,
	})
	if err != nil {
		return "", fmt.Errorf("encode provider request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create provider request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	start := time.Now()
	resp, err := c.http.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("provider request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return "", &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(snippet))}
	}

	var decoded chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("decode provider response: %w", err)
	}
	if len(decoded.Choices) == 0 {
		return "", ErrEmptyResponse
	}

	c.logger.DebugContext(ctx, "provider call completed",
		"target_lang", req.TargetLang,
		"domain", req.Domain,
		"chars", len(req.Text),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return decoded.Choices[0].Message.Content, nil
}
