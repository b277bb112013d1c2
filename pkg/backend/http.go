package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Sternrassler/pagegen/pkg/metrics"
	"github.com/Sternrassler/pagegen/pkg/observe"
	"github.com/rs/zerolog"
)

// maxErrorBody bounds how much of an error response body is kept.
const maxErrorBody = 512

// HTTPConfig holds the HTTP backend configuration.
type HTTPConfig struct {
	// Endpoint is the full URL of the messages API.
	Endpoint string

	// APIKey is sent in the x-api-key header when set.
	APIKey string

	// APIVersion is sent in the anthropic-version header when set.
	APIVersion string

	// Model and MaxTokens are forwarded in every request.
	Model     string
	MaxTokens int

	// UserAgent header, e.g. "pagegen/0.1.0 (ops@example.com)".
	UserAgent string

	// Timeout bounds a single HTTP request.
	Timeout time.Duration
}

// DefaultHTTPConfig returns a configuration for the given endpoint and key.
func DefaultHTTPConfig(endpoint, apiKey string) HTTPConfig {
	return HTTPConfig{
		Endpoint:   endpoint,
		APIKey:     apiKey,
		APIVersion: "2023-06-01",
		Model:      "claude-sonnet-4-5",
		MaxTokens:  4096,
		UserAgent:  "pagegen/0.1.0",
		Timeout:    120 * time.Second,
	}
}

// HTTPBackend sends payloads to a messages-style text generation API. Each
// Invoke is a single attempt; retrying is left to Executor.
type HTTPBackend struct {
	httpClient *http.Client
	config     HTTPConfig
	observer   observe.Observer
	logger     zerolog.Logger
}

// NewHTTPBackend validates cfg and creates the backend. A nil observer is
// replaced with observe.Nop.
func NewHTTPBackend(cfg HTTPConfig, observer observe.Observer, logger zerolog.Logger) (*HTTPBackend, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("endpoint is required")
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("model is required")
	}
	if cfg.MaxTokens <= 0 {
		return nil, fmt.Errorf("max_tokens must be > 0 (got %d)", cfg.MaxTokens)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 120 * time.Second
	}

	return &HTTPBackend{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		config:     cfg,
		observer:   observe.OrNop(observer),
		logger:     logger,
	}, nil
}

// SetHTTPClient sets a custom HTTP client (for testing).
func (b *HTTPBackend) SetHTTPClient(client *http.Client) {
	b.httpClient = client
}

type messageRequest struct {
	Model     string    `json:"model"`
	MaxTokens int       `json:"max_tokens"`
	Messages  []message `json:"messages"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messageResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Usage struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

// Invoke sends payload as a single user message and returns the concatenated
// text blocks of the response.
func (b *HTTPBackend) Invoke(ctx context.Context, payload string) (string, error) {
	start := time.Now()
	call := observe.BackendCall{}
	defer func() {
		call.Duration = time.Since(start)
		b.observer.BackendCalled(call)
	}()

	body, err := json.Marshal(messageRequest{
		Model:     b.config.Model,
		MaxTokens: b.config.MaxTokens,
		Messages:  []message{{Role: "user", Content: payload}},
	})
	if err != nil {
		call.Err = err
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.config.Endpoint, bytes.NewReader(body))
	if err != nil {
		call.Err = err
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if b.config.UserAgent != "" {
		req.Header.Set("User-Agent", b.config.UserAgent)
	}
	if b.config.APIKey != "" {
		req.Header.Set("x-api-key", b.config.APIKey)
	}
	if b.config.APIVersion != "" {
		req.Header.Set("anthropic-version", b.config.APIVersion)
	}

	b.logger.Debug().
		Str("endpoint", b.config.Endpoint).
		Int("payload_len", len(payload)).
		Msg("Executing backend request")

	resp, err := b.httpClient.Do(req)
	if err != nil {
		metrics.BackendErrorsTotal.WithLabelValues(string(ErrorClassNetwork)).Inc()
		call.Err = &Error{Class: ErrorClassNetwork, Message: "request failed", Err: err}
		b.logger.Warn().Err(err).Msg("Backend request failed")
		return "", call.Err
	}
	defer resp.Body.Close()
	call.StatusCode = resp.StatusCode

	if resp.StatusCode >= 400 {
		excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		class := ClassifyStatus(resp.StatusCode)
		metrics.BackendErrorsTotal.WithLabelValues(string(class)).Inc()
		call.Err = &Error{
			StatusCode: resp.StatusCode,
			Class:      class,
			Message:    strings.TrimSpace(string(excerpt)),
		}
		b.logger.Warn().
			Int("status", resp.StatusCode).
			Str("error_class", string(class)).
			Msg("Backend request error")
		return "", call.Err
	}

	var decoded messageResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		metrics.BackendErrorsTotal.WithLabelValues(string(ErrorClassDecode)).Inc()
		call.Err = &Error{StatusCode: resp.StatusCode, Class: ErrorClassDecode, Message: "decode response", Err: err}
		return "", call.Err
	}
	call.InputTokens = decoded.Usage.InputTokens
	call.OutputTokens = decoded.Usage.OutputTokens

	var text strings.Builder
	for _, block := range decoded.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}

	return text.String(), nil
}
